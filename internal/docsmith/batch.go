package docsmith

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// FileResult holds everything produced for one file in a batch run.
type FileResult struct {
	OriginalCode        string         `json:"original_code"`
	InstrumentedCode    string         `json:"instrumented_code"`
	OriginalQuality     *QualityReport `json:"original_quality"`
	InstrumentedQuality *QualityReport `json:"instrumented_quality"`
	Validation          []Violation    `json:"validation"`
	OriginalViolations  []Violation    `json:"original_violations"`
}

// Summary aggregates counts across files. Percentages are recomputed from
// the summed counts once all files are in, never averaged per file, so small
// files carry no extra weight.
type Summary struct {
	TotalFunctions       int     `json:"total_functions"`
	TotalClasses         int     `json:"total_classes"`
	DocumentedItems      int     `json:"documented_items"`
	UndocumentedItems    int     `json:"undocumented_items"`
	TotalItems           int     `json:"total_items"`
	CoveragePercentage   float64 `json:"coverage_percentage"`
	CompliancePercentage float64 `json:"compliance_percentage"`
	ViolationCount       int     `json:"violation_count"`
}

func (s *Summary) accumulate(q *QualityReport) {
	s.TotalFunctions += q.TotalFunctions
	s.TotalClasses += q.TotalClasses
	s.DocumentedItems += q.DocumentedItems
	s.UndocumentedItems += q.UndocumentedItems
	s.TotalItems += q.TotalItems
	s.ViolationCount += q.ViolationCount
}

func (s *Summary) finalize() {
	s.CoveragePercentage = coveragePercentage(s.DocumentedItems, s.TotalItems)
	if s.TotalItems == 0 {
		s.CompliancePercentage = 100.0
		return
	}
	pct := roundOneDecimal(float64(s.TotalItems-s.ViolationCount) / float64(s.TotalItems) * 100)
	if pct < 0 {
		pct = 0
	}
	s.CompliancePercentage = pct
}

// FileError records a file the batch could not process.
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"error"`
}

// BatchResult maps file paths to their results plus the two aggregate
// summaries. Errors lists files skipped because they failed to read or
// parse; the batch is best-effort, not all-or-nothing.
type BatchResult struct {
	Files               map[string]*FileResult `json:"file_results"`
	OriginalSummary     Summary                `json:"original_summary"`
	InstrumentedSummary Summary                `json:"instrumented_summary"`
	Errors              []FileError            `json:"errors,omitempty"`
}

// BatchOptions configures a directory run.
type BatchOptions struct {
	Style           string
	Checker         StyleChecker // nil selects pydocstyle
	ExcludePatterns []string
}

// BatchProcessor applies analysis and instrumentation to a directory tree,
// one file at a time.
type BatchProcessor struct {
	analyzer *Analyzer
	instr    *Instrumentor
	exclude  []string
	log      *zap.SugaredLogger
}

// NewBatchProcessor builds a processor, failing with a *ConfigurationError
// on an unsupported style.
func NewBatchProcessor(opts BatchOptions) (*BatchProcessor, error) {
	instr, err := NewInstrumentor(opts.Style)
	if err != nil {
		return nil, err
	}
	return &BatchProcessor{
		analyzer: NewAnalyzer(opts.Checker),
		instr:    instr,
		exclude:  opts.ExcludePatterns,
		log:      Logger(),
	}, nil
}

// ProcessDirectory recursively finds every Python file under dir and
// processes each sequentially. Per-file failures are recorded and logged,
// and the run continues; only the directory walk itself is fatal.
func (p *BatchProcessor) ProcessDirectory(ctx context.Context, dir string) (*BatchResult, error) {
	files, err := findPythonFiles(dir, p.exclude)
	if err != nil {
		return nil, fmt.Errorf("find python files: %w", err)
	}

	result := &BatchResult{Files: make(map[string]*FileResult, len(files))}

	for _, path := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		fileResult, err := p.processFile(ctx, path)
		if err != nil {
			p.log.Warnw("skipping file", "path", path, "error", err)
			result.Errors = append(result.Errors, FileError{Path: path, Message: err.Error()})
			continue
		}

		result.Files[path] = fileResult
		result.OriginalSummary.accumulate(fileResult.OriginalQuality)
		result.InstrumentedSummary.accumulate(fileResult.InstrumentedQuality)
	}

	result.OriginalSummary.finalize()
	result.InstrumentedSummary.finalize()
	return result, nil
}

func (p *BatchProcessor) processFile(ctx context.Context, path string) (*FileResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	source := string(content)

	originalQuality, err := p.analyzer.AnalyzeSource(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", path, err)
	}

	instrumented, err := p.instr.AddDocstrings(source)
	if err != nil {
		return nil, fmt.Errorf("instrument %s: %w", path, err)
	}

	instrumentedQuality, err := p.analyzer.AnalyzeSource(ctx, instrumented)
	if err != nil {
		return nil, fmt.Errorf("analyze instrumented %s: %w", path, err)
	}

	return &FileResult{
		OriginalCode:        source,
		InstrumentedCode:    instrumented,
		OriginalQuality:     originalQuality,
		InstrumentedQuality: instrumentedQuality,
		Validation:          instrumentedQuality.Violations,
		OriginalViolations:  originalQuality.Violations,
	}, nil
}

func findPythonFiles(dir string, excludePatterns []string) ([]string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	var files []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if path != root && (isExcludedPythonDir(info.Name()) || matchesAnyPattern(rel, excludePatterns)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(info.Name(), ".py") {
			return nil
		}
		if matchesAnyPattern(rel, excludePatterns) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func isExcludedPythonDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "__pycache__" || name == "venv" || name == "node_modules"
}

// matchesAnyPattern checks a slash-relative path against glob patterns.
// A trailing "/**" matches the whole subtree under the prefix.
func matchesAnyPattern(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
			if rel == prefix || strings.HasPrefix(rel, prefix+"/") {
				return true
			}
			continue
		}
		if matched, err := filepath.Match(pattern, rel); err == nil && matched {
			return true
		}
		if matched, err := filepath.Match(pattern, filepath.Base(rel)); err == nil && matched {
			return true
		}
	}
	return false
}
