package docsmith

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Violation is a single style-convention nonconformance reported by the
// external checker, tied to a source line.
type Violation struct {
	Line    int    `json:"line"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Source  string `json:"source"`
}

// StyleChecker validates the docstring conventions of a file on disk. The
// checker is an opaque boundary: it may fail, and callers must tolerate
// that.
type StyleChecker interface {
	Check(ctx context.Context, path string) ([]Violation, error)
}

// PydocstyleChecker runs the pydocstyle command against a file path and
// parses its report output.
type PydocstyleChecker struct {
	Command string
}

// NewPydocstyleChecker returns a checker invoking the pydocstyle binary
// found on PATH.
func NewPydocstyleChecker() *PydocstyleChecker {
	return &PydocstyleChecker{Command: "pydocstyle"}
}

func (c *PydocstyleChecker) Check(ctx context.Context, path string) ([]Violation, error) {
	command := c.Command
	if command == "" {
		command = "pydocstyle"
	}

	cmd := exec.CommandContext(ctx, command, path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Exit code 1 means violations were reported, not a crash.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
			return nil, fmt.Errorf("run %s: %w: %s", command, err, strings.TrimSpace(stderr.String()))
		}
	}

	return parseCheckerReport(stdout.String(), sourceLines(path)), nil
}

var checkerHeaderPattern = regexp.MustCompile(`^(.+):(\d+)\s`)

// parseCheckerReport reads pydocstyle's two-line report records:
//
//	path.py:12 in public function `add`:
//	        D103: Missing docstring in public function
func parseCheckerReport(output string, lines []string) []Violation {
	var violations []Violation
	pendingLine := 0

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		raw := scanner.Text()
		if raw == "" {
			continue
		}

		if strings.HasPrefix(raw, " ") || strings.HasPrefix(raw, "\t") {
			if pendingLine == 0 {
				continue
			}
			code, message := splitCheckerMessage(strings.TrimSpace(raw))
			violations = append(violations, Violation{
				Line:    pendingLine,
				Code:    code,
				Message: message,
				Source:  lineAt(lines, pendingLine),
			})
			pendingLine = 0
			continue
		}

		match := checkerHeaderPattern.FindStringSubmatch(raw)
		if match == nil {
			continue
		}
		line, err := strconv.Atoi(match[2])
		if err != nil {
			continue
		}
		pendingLine = line
	}

	return violations
}

func splitCheckerMessage(record string) (string, string) {
	code, message, found := strings.Cut(record, ":")
	if !found {
		return record, ""
	}
	return strings.TrimSpace(code), strings.TrimSpace(message)
}

func sourceLines(path string) []string {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return strings.Split(string(content), "\n")
}

func lineAt(lines []string, number int) string {
	if number < 1 || number > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[number-1], "\r")
}

// withTransientFile writes content to a uniquely named temporary file, fully
// written and closed before fn runs, and removes it on every exit path. Some
// operating environments forbid reading a file that is still open for
// writing, so the close happens before fn, not deferred past it.
func withTransientFile(content string, fn func(path string) error) error {
	path := filepath.Join(os.TempDir(), "docsmith-"+uuid.NewString()+".py")

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create transient file: %w", err)
	}
	defer func() {
		if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
			Logger().Warnw("remove transient file", "path", path, "error", removeErr)
		}
	}()

	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return fmt.Errorf("write transient file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close transient file: %w", err)
	}

	return fn(path)
}
