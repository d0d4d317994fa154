package logging

import (
	"regexp"
	"strings"
)

// Sanitizer redacts credentials from log messages and attributes.
type Sanitizer struct {
	rules    []rule
	redacted string
}

// rule replaces a match with prefix + placeholder + suffix. prefix and
// suffix may reference capture groups so that the surrounding context of a
// credential survives redaction.
type rule struct {
	re     *regexp.Regexp
	prefix string
	suffix string
}

// NewSanitizer creates a sanitizer with the default rules.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		rules:    defaultRules(),
		redacted: "[REDACTED]",
	}
}

func defaultRules() []rule {
	return []rule{
		// userinfo password in redis://, postgres:// and similar URLs
		{
			re:     regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.-]*://[^:/@\s]*:)[^@\s/]+(@)`),
			prefix: "${1}",
			suffix: "${2}",
		},
		// key=value and key: value credentials
		{
			re:     regexp.MustCompile(`(?i)(\b(?:password|passwd|pwd|secret|token|api[_-]?key)["']?\s*[:=]\s*["']?)[^\s"'&,]+`),
			prefix: "${1}",
		},
		// Authorization headers
		{
			re:     regexp.MustCompile(`(?i)(\b(?:bearer|basic)\s+)[a-zA-Z0-9._~+/=-]{8,}`),
			prefix: "${1}",
		},
	}
}

// Sanitize redacts credentials from input.
func (s *Sanitizer) Sanitize(input string) string {
	placeholder := strings.ReplaceAll(s.redacted, "$", "$$")
	result := input
	for _, r := range s.rules {
		result = r.re.ReplaceAllString(result, r.prefix+placeholder+r.suffix)
	}
	return result
}

// SanitizeMap redacts string values in a map, recursively.
func (s *Sanitizer) SanitizeMap(m map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case string:
			result[k] = s.Sanitize(val)
		case map[string]interface{}:
			result[k] = s.SanitizeMap(val)
		default:
			result[k] = v
		}
	}
	return result
}

// AddPattern adds a rule that replaces the whole match.
func (s *Sanitizer) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	s.rules = append(s.rules, rule{re: re})
	return nil
}

// SetRedactedPlaceholder sets the replacement text.
func (s *Sanitizer) SetRedactedPlaceholder(placeholder string) {
	s.redacted = placeholder
}
