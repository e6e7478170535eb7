package docsmith

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config carries the settings read from the [tool.docugenius] table of
// pyproject.toml.
type Config struct {
	Style           string
	MinCoverage     float64
	MinCompliance   float64
	ExcludePatterns []string
}

// DefaultConfig returns the settings used when no pyproject.toml is found.
func DefaultConfig() Config {
	return Config{
		Style:           string(StyleGoogle),
		MinCoverage:     90.0,
		MinCompliance:   85.0,
		ExcludePatterns: []string{"tests/**", "venv/**", "__pycache__/**", ".*"},
	}
}

// LoadConfig reads pyproject.toml under rootDir. A missing file yields the
// defaults; a malformed file yields the defaults with a warning, never an
// error — configuration problems must not block analysis.
func LoadConfig(rootDir string) Config {
	cfg := DefaultConfig()

	path := filepath.Join(rootDir, "pyproject.toml")
	content, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			Logger().Warnw("read pyproject.toml", "path", path, "error", err)
		}
		return cfg
	}

	section := ""
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(line, "["), "]"))
			continue
		}
		if !strings.EqualFold(section, "tool.docugenius") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "style":
			cfg.Style = strings.Trim(value, "\"'")
		case "min_coverage":
			if parsed, err := strconv.ParseFloat(value, 64); err == nil {
				cfg.MinCoverage = parsed
			} else {
				Logger().Warnw("invalid min_coverage in pyproject.toml", "value", value)
			}
		case "min_compliance":
			if parsed, err := strconv.ParseFloat(value, 64); err == nil {
				cfg.MinCompliance = parsed
			} else {
				Logger().Warnw("invalid min_compliance in pyproject.toml", "value", value)
			}
		case "exclude_patterns":
			if patterns := parseTomlStringArray(value); patterns != nil {
				cfg.ExcludePatterns = patterns
			}
		}
	}

	return cfg
}

// parseTomlStringArray handles single-line arrays like ["a", "b"]. Anything
// else returns nil and leaves the default in place.
func parseTomlStringArray(value string) []string {
	if !strings.HasPrefix(value, "[") || !strings.HasSuffix(value, "]") {
		return nil
	}
	inner := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(value, "["), "]"))
	if inner == "" {
		return []string{}
	}

	parts := strings.Split(inner, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Trim(strings.TrimSpace(part), "\"'")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
