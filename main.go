package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/Someblueman/docsmith/internal/docsmith"
)

type fileOutcome struct {
	Filepath   string  `json:"filepath"`
	Coverage   float64 `json:"coverage"`
	Compliance float64 `json:"compliance"`
	Passed     bool    `json:"passed"`
}

type validationReport struct {
	Config  map[string]any `json:"config"`
	Files   []fileOutcome  `json:"files"`
	Summary map[string]int `json:"summary"`
}

func main() {
	cfg := docsmith.LoadConfig(".")

	style := flag.String("style", cfg.Style, "Docstring style (google, numpy, rest)")
	minCoverage := flag.Float64("min-coverage", cfg.MinCoverage, "Coverage threshold percentage")
	minCompliance := flag.Float64("min-compliance", cfg.MinCompliance, "Compliance threshold percentage")
	dir := flag.String("dir", "", "Process a directory instead of individual files")
	instrument := flag.Bool("instrument", false, "Print instrumented source instead of validating")
	write := flag.Bool("write", false, "With -instrument, rewrite files in place")
	watch := flag.Bool("watch", false, "With -dir, re-run analysis on file changes")
	output := flag.String("o", "", "Write a JSON report to this path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	defer func() { _ = docsmith.SyncLogs() }()

	if *dir != "" {
		os.Exit(runBatch(ctx, *dir, *style, cfg.ExcludePatterns, *output, *watch))
	}

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: docsmith [flags] <file.py> ... (or -dir <path>)")
		os.Exit(2)
	}

	if *instrument {
		os.Exit(runInstrument(ctx, files, *style, *write))
	}
	os.Exit(runValidate(ctx, files, *style, *minCoverage, *minCompliance, *output))
}

func runValidate(ctx context.Context, files []string, style string, minCoverage, minCompliance float64, output string) int {
	analyzer := docsmith.NewAnalyzer(nil)

	var outcomes []fileOutcome
	allPassed := true

	for _, path := range files {
		if !strings.HasSuffix(path, ".py") {
			continue
		}

		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error processing %s: %v\n", path, err)
			allPassed = false
			continue
		}

		quality, err := analyzer.AnalyzeSource(ctx, string(content))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error processing %s: %v\n", path, err)
			allPassed = false
			continue
		}

		passed := quality.CoveragePercentage >= minCoverage && quality.CompliancePercentage >= minCompliance
		status := "PASSED"
		if !passed {
			status = "FAILED"
			allPassed = false
		}

		fmt.Printf("\nFile: %s\n", filepath.Base(path))
		fmt.Printf("   Coverage: %.1f%% (%s)\n", quality.CoveragePercentage, status)
		fmt.Printf("   Compliance: %.1f%%\n", quality.CompliancePercentage)
		if quality.ViolationCount > 0 {
			fmt.Println()
			fmt.Print(docsmith.ComplianceReport(quality.Violations, "Violations in "+filepath.Base(path)))
		}

		outcomes = append(outcomes, fileOutcome{
			Filepath:   path,
			Coverage:   quality.CoveragePercentage,
			Compliance: quality.CompliancePercentage,
			Passed:     passed,
		})
	}

	passedCount := 0
	for _, r := range outcomes {
		if r.Passed {
			passedCount++
		}
	}

	if output != "" {
		report := validationReport{
			Config: map[string]any{
				"min_coverage":   minCoverage,
				"min_compliance": minCompliance,
				"style":          style,
			},
			Files: outcomes,
			Summary: map[string]int{
				"total":  len(outcomes),
				"passed": passedCount,
				"failed": len(outcomes) - passedCount,
			},
		}
		if err := writeJSON(output, report); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		fmt.Printf("\nReport saved to: %s\n", output)
	}

	fmt.Printf("\nSUMMARY: %d/%d files passed\n", passedCount, len(outcomes))

	if allPassed && len(outcomes) > 0 {
		return 0
	}
	return 1
}

func runInstrument(ctx context.Context, files []string, style string, write bool) int {
	instr, err := docsmith.NewInstrumentor(style)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	analyzer := docsmith.NewAnalyzer(nil)

	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error processing %s: %v\n", path, err)
			return 1
		}
		instrumented, err := instr.AddDocstrings(string(content))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error processing %s: %v\n", path, err)
			return 1
		}

		if !write {
			fmt.Print(instrumented)
			continue
		}

		if err := os.WriteFile(path, []byte(instrumented), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "error writing %s: %v\n", path, err)
			return 1
		}
		fmt.Printf("Instrumented %s\n", path)

		before, err := analyzer.AnalyzeSource(ctx, string(content))
		if err != nil {
			continue
		}
		after, err := analyzer.AnalyzeSource(ctx, instrumented)
		if err != nil {
			continue
		}
		if report, err := docsmith.BeforeCoverageReport(before); err == nil {
			fmt.Println()
			fmt.Print(report)
		}
		if report, err := docsmith.AfterCoverageReport(after); err == nil {
			fmt.Println()
			fmt.Print(report)
		}
	}
	return 0
}

func runBatch(ctx context.Context, dir, style string, excludePatterns []string, output string, watch bool) int {
	processor, err := docsmith.NewBatchProcessor(docsmith.BatchOptions{
		Style:           style,
		ExcludePatterns: excludePatterns,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	run := func() int {
		result, err := processor.ProcessDirectory(ctx, dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}

		fmt.Printf("Processed %d files (%d failed)\n", len(result.Files), len(result.Errors))
		fmt.Printf("Original:     coverage %.1f%%, compliance %.1f%%, %d violations\n",
			result.OriginalSummary.CoveragePercentage,
			result.OriginalSummary.CompliancePercentage,
			result.OriginalSummary.ViolationCount)
		fmt.Printf("Instrumented: coverage %.1f%%, compliance %.1f%%, %d violations\n",
			result.InstrumentedSummary.CoveragePercentage,
			result.InstrumentedSummary.CompliancePercentage,
			result.InstrumentedSummary.ViolationCount)
		for _, fileErr := range result.Errors {
			fmt.Fprintf(os.Stderr, "warning: skipped %s: %s\n", fileErr.Path, fileErr.Message)
		}

		if output != "" {
			if err := writeJSON(output, result); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				return 1
			}
			fmt.Printf("Report saved to: %s\n", output)
		}
		return 0
	}

	code := run()
	if !watch {
		return code
	}

	fmt.Printf("Watching %s for changes...\n", dir)
	err = docsmith.WatchDirectory(ctx, dir, 250*time.Millisecond, func(changed []string) {
		fmt.Printf("\nChanged: %s\n", strings.Join(changed, ", "))
		run()
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func writeJSON(path string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
