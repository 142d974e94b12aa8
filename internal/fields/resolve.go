// Package fields implements placeholder token handling: wrapping dotted
// field paths as {{path}} tokens and resolving them against recipient
// rows at generation and preview time.
package fields

import (
	"regexp"
	"strings"
)

// tokenRe matches {{ field.path }} tokens. Paths are restricted to the
// characters the editor accepts when typing a field path.
var tokenRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// pathRe strips everything the editor strips from a typed path.
var pathRe = regexp.MustCompile(`[^a-zA-Z0-9_.]`)

// IsToken reports whether content contains at least one placeholder token.
func IsToken(content string) bool {
	return tokenRe.MatchString(content)
}

// Wrap sanitizes a typed field path and wraps it as a token.
func Wrap(path string) string {
	return "{{" + pathRe.ReplaceAllString(path, "") + "}}"
}

// Path returns the field path of the first token in content, or "".
func Path(content string) string {
	m := tokenRe.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return m[1]
}

// Resolve substitutes every token in content with the matching value
// from the recipient row. Lookup tries the full dotted path first, then
// falls back to the path with its leading segment stripped (CSV headers
// are usually bare column names like "name" while catalog paths are
// namespaced like "recipient.name"). Unresolvable tokens are replaced
// with the empty string.
func Resolve(content string, row map[string]string) string {
	return tokenRe.ReplaceAllStringFunc(content, func(tok string) string {
		path := tokenRe.FindStringSubmatch(tok)[1]
		if v, ok := row[path]; ok {
			return v
		}
		if i := strings.Index(path, "."); i >= 0 {
			if v, ok := row[path[i+1:]]; ok {
				return v
			}
		}
		return ""
	})
}
