package docsmith

import (
	"fmt"
	"strings"
)

// Style selects one of the supported docstring conventions.
type Style string

const (
	StyleGoogle Style = "google"
	StyleNumpy  Style = "numpy"
	StyleRest   Style = "rest"
)

// SupportedStyles returns the accepted style tokens in canonical form.
func SupportedStyles() []string {
	return []string{string(StyleGoogle), string(StyleNumpy), string(StyleRest)}
}

// ConfigurationError reports an unsupported style token. It is raised at
// construction time only, never mid-operation.
type ConfigurationError struct {
	Value   string
	Allowed []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unsupported style: %q (choose from %s)", e.Value, strings.Join(e.Allowed, ", "))
}

// ParseStyle validates a style token case-insensitively, so "reST" and "REST"
// both resolve to StyleRest.
func ParseStyle(raw string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(StyleGoogle):
		return StyleGoogle, nil
	case string(StyleNumpy):
		return StyleNumpy, nil
	case string(StyleRest):
		return StyleRest, nil
	}
	return "", &ConfigurationError{Value: raw, Allowed: SupportedStyles()}
}
