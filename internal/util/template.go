package util

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_:.]*)(\?)?\}`)

// RenderTemplate substitutes {key} placeholders in text with values from
// state. Keys may carry namespace prefixes ("app:", "user:"). A trailing
// question mark ({key?}) marks the placeholder optional: missing keys render
// as the empty string instead of failing.
// This lives in internal to avoid committing to public API stability
// prematurely.
func RenderTemplate(text string, state map[string]any) (string, error) {
	if !strings.Contains(text, "{") { // fast path: no placeholders
		return text, nil
	}

	var missing []string
	out := placeholderRe.ReplaceAllStringFunc(text, func(match string) string {
		groups := placeholderRe.FindStringSubmatch(match)
		key, optional := groups[1], groups[2] == "?"
		if val, ok := state[key]; ok {
			return fmt.Sprintf("%v", val)
		}
		if optional {
			return ""
		}
		missing = append(missing, key)
		return match
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("template references undefined state keys: %s", strings.Join(missing, ", "))
	}
	return out, nil
}
