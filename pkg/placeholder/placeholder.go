// Package placeholder implements the {token} and $N substitution syntax used
// by operator messages, replacement templates and broadcast lines.
package placeholder

import (
	"strings"
)

// Resolver maps a placeholder token (without braces) to its value. The second
// return reports whether the token is known; unknown tokens are left intact so
// downstream formatters can handle them.
type Resolver func(token string) (string, bool)

// MapResolver adapts a plain map to a Resolver.
func MapResolver(values map[string]string) Resolver {
	return func(token string) (string, bool) {
		v, ok := values[token]
		return v, ok
	}
}

// Substitute replaces every {token} in text using resolve. Unmatched braces
// and unknown tokens pass through unchanged.
func Substitute(text string, resolve Resolver) string {
	if !strings.ContainsRune(text, '{') {
		return text
	}

	var sb strings.Builder
	sb.Grow(len(text))

	for i := 0; i < len(text); {
		if text[i] != '{' {
			sb.WriteByte(text[i])
			i++
			continue
		}

		end := strings.IndexByte(text[i:], '}')
		if end < 0 {
			sb.WriteString(text[i:])
			break
		}
		end += i

		token := text[i+1 : end]
		if value, ok := resolve(token); ok {
			sb.WriteString(value)
		} else {
			sb.WriteString(text[i : end+1])
		}
		i = end + 1
	}

	return sb.String()
}

// ApplyCaptures replaces $0..$N references in template with the corresponding
// capture values. $0 is the whole match. References use the longest digit run,
// so $12 is group twelve, not group one followed by "2". A backslash escapes a
// literal dollar sign.
func ApplyCaptures(template string, captures []string) string {
	if !strings.ContainsRune(template, '$') {
		return template
	}

	var sb strings.Builder
	sb.Grow(len(template))

	for i := 0; i < len(template); {
		c := template[i]

		if c == '\\' && i+1 < len(template) && template[i+1] == '$' {
			sb.WriteByte('$')
			i += 2
			continue
		}

		if c != '$' {
			sb.WriteByte(c)
			i++
			continue
		}

		j := i + 1
		for j < len(template) && template[j] >= '0' && template[j] <= '9' {
			j++
		}
		if j == i+1 {
			sb.WriteByte('$')
			i++
			continue
		}

		n := 0
		for _, d := range template[i+1 : j] {
			n = n*10 + int(d-'0')
		}
		if n < len(captures) {
			sb.WriteString(captures[n])
		}
		i = j
	}

	return sb.String()
}

// MaxCaptureRef returns the highest $N reference in template, or -1 when the
// template contains none. Loaders use it to reject references beyond the
// pattern's group count before any event is evaluated.
func MaxCaptureRef(template string) int {
	max := -1

	for i := 0; i < len(template); {
		if template[i] == '\\' && i+1 < len(template) && template[i+1] == '$' {
			i += 2
			continue
		}
		if template[i] != '$' {
			i++
			continue
		}

		j := i + 1
		for j < len(template) && template[j] >= '0' && template[j] <= '9' {
			j++
		}
		if j > i+1 {
			n := 0
			for _, d := range template[i+1 : j] {
				n = n*10 + int(d-'0')
			}
			if n > max {
				max = n
			}
		}
		i = j
	}

	return max
}

// SplitAlternatives splits a |-separated alternative list on unescaped pipes.
// Operator texts use this form for random selection; a backslash escapes a
// literal pipe.
func SplitAlternatives(text string) []string {
	var parts []string
	var sb strings.Builder
	escaped := false

	for _, r := range text {
		switch {
		case escaped:
			if r != '|' {
				sb.WriteRune('\\')
			}
			sb.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '|':
			parts = append(parts, sb.String())
			sb.Reset()
		default:
			sb.WriteRune(r)
		}
	}
	if escaped {
		sb.WriteRune('\\')
	}
	return append(parts, sb.String())
}
