package docsmith

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestParseCheckerReport(t *testing.T) {
	output := `example.py:1 at module level:
        D100: Missing docstring in public module
example.py:4 in public function ` + "`add`" + `:
        D103: Missing docstring in public function
`
	lines := []string{
		"import os",
		"",
		"",
		"def add(a, b):",
		"    return a + b",
	}

	violations := parseCheckerReport(output, lines)
	if len(violations) != 2 {
		t.Fatalf("parsed %d violations, want 2", len(violations))
	}

	first := violations[0]
	if first.Line != 1 || first.Code != "D100" {
		t.Fatalf("first violation = %+v", first)
	}
	if first.Message != "Missing docstring in public module" {
		t.Fatalf("first message = %q", first.Message)
	}
	if first.Source != "import os" {
		t.Fatalf("first source = %q", first.Source)
	}

	second := violations[1]
	if second.Line != 4 || second.Code != "D103" || second.Source != "def add(a, b):" {
		t.Fatalf("second violation = %+v", second)
	}
}

func TestParseCheckerReportEmptyOutput(t *testing.T) {
	if got := parseCheckerReport("", nil); len(got) != 0 {
		t.Fatalf("expected no violations, got %v", got)
	}
}

func TestParseCheckerReportIgnoresStrayDetailLines(t *testing.T) {
	output := "        D100: Missing docstring in public module\n"
	if got := parseCheckerReport(output, nil); len(got) != 0 {
		t.Fatalf("detail line without a header must be dropped, got %v", got)
	}
}

func TestParseCheckerReportWindowsStylePaths(t *testing.T) {
	output := `C:\tmp\example.py:2 at module level:
        D200: One-line docstring should fit on one line
`
	violations := parseCheckerReport(output, []string{"", `"""Doc"""`})
	if len(violations) != 1 {
		t.Fatalf("parsed %d violations, want 1", len(violations))
	}
	if violations[0].Line != 2 || violations[0].Code != "D200" {
		t.Fatalf("violation = %+v", violations[0])
	}
}

func TestSplitCheckerMessage(t *testing.T) {
	code, message := splitCheckerMessage("D401: First line should be in imperative mood: 'Return'")
	if code != "D401" {
		t.Fatalf("code = %q", code)
	}
	if message != "First line should be in imperative mood: 'Return'" {
		t.Fatalf("message = %q", message)
	}

	code, message = splitCheckerMessage("garbage without separator")
	if code != "garbage without separator" || message != "" {
		t.Fatalf("fallback = %q / %q", code, message)
	}
}

func TestLineAt(t *testing.T) {
	lines := []string{"one", "two\r", "three"}
	if got := lineAt(lines, 2); got != "two" {
		t.Fatalf("lineAt(2) = %q", got)
	}
	if got := lineAt(lines, 0); got != "" {
		t.Fatalf("lineAt(0) = %q", got)
	}
	if got := lineAt(lines, 9); got != "" {
		t.Fatalf("lineAt(9) = %q", got)
	}
}

func TestWithTransientFile(t *testing.T) {
	var seen string
	err := withTransientFile("def f():\n    pass\n", func(path string) error {
		seen = path
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if string(content) != "def f():\n    pass\n" {
			t.Fatalf("transient content = %q", content)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("withTransientFile: %v", err)
	}

	if !strings.HasSuffix(seen, ".py") {
		t.Fatalf("transient path %q should end in .py", seen)
	}
	if _, err := os.Stat(seen); !os.IsNotExist(err) {
		t.Fatalf("transient file %s not removed", seen)
	}
}

func TestWithTransientFileUniquePaths(t *testing.T) {
	var first string
	err := withTransientFile("a", func(outer string) error {
		first = outer
		return withTransientFile("b", func(inner string) error {
			if inner == outer {
				t.Fatal("nested transient files must not collide")
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("withTransientFile: %v", err)
	}
	if first == "" {
		t.Fatal("callback never ran")
	}
}

func TestWithTransientFilePropagatesCallbackError(t *testing.T) {
	sentinel := errors.New("boom")
	var seen string
	err := withTransientFile("x", func(path string) error {
		seen = path
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want sentinel", err)
	}
	if _, statErr := os.Stat(seen); !os.IsNotExist(statErr) {
		t.Fatalf("transient file %s must be removed on error too", seen)
	}
}

func TestPydocstyleCheckerMissingBinary(t *testing.T) {
	checker := &PydocstyleChecker{Command: "definitely-not-a-real-binary"}
	err := withTransientFile("def f():\n    pass\n", func(path string) error {
		_, checkErr := checker.Check(context.Background(), path)
		return checkErr
	})
	if err == nil {
		t.Fatal("expected error for missing checker binary")
	}
}
