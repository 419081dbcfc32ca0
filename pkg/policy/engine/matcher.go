package engine

import (
	"strings"
	"time"
	"unicode"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	rlErrors "mineguard/warden/pkg/rulelang/errors"
)

// prolongPrefix marks replacement templates that repeat a single character
// over the whole matched span, e.g. "@prolong *" masks a five letter match
// as "*****".
const prolongPrefix = "@prolong "

// Matcher is a compiled match pattern. Patterns use full Perl-style syntax
// including lookahead and lookbehind; evaluation is bounded by a match
// timeout so a pathological pattern degrades to a non-match instead of
// stalling the event thread.
type Matcher struct {
	re      *regexp2.Regexp
	pattern string
}

// CompileMatcher compiles pattern with the given match timeout. Location
// information goes into the returned error for load-time reporting.
func CompileMatcher(pattern string, timeout time.Duration, file string, line int) (*Matcher, *rlErrors.Error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, rlErrors.Patternf(file, line, "failed to compile pattern %q: %v", pattern, err)
	}
	re.MatchTimeout = timeout
	return &Matcher{re: re, pattern: pattern}, nil
}

// Pattern returns the original pattern source.
func (m *Matcher) Pattern() string { return m.pattern }

// GroupCount returns the number of capture groups, not counting group zero.
func (m *Matcher) GroupCount() int {
	count := 0
	for _, n := range m.re.GetGroupNumbers() {
		if n > 0 {
			count++
		}
	}
	return count
}

// CaptureSet is the outcome of a successful match: the matched span in runes
// and the capture group texts, with index 0 holding the whole match.
type CaptureSet struct {
	// Start and End delimit the matched span as rune offsets into the
	// searched text. Zero-width matches have Start == End.
	Start int
	End   int

	// Groups holds $0..$N; unparticipating groups are empty strings.
	Groups []string
}

// Matched returns the whole matched text.
func (c *CaptureSet) Matched() string {
	if len(c.Groups) == 0 {
		return ""
	}
	return c.Groups[0]
}

// Find runs the pattern against text. It returns (nil, nil) on no match and
// a non-nil error when the match engine itself failed, typically a timeout.
func (m *Matcher) Find(text string) (*CaptureSet, error) {
	match, err := m.re.FindStringMatch(text)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, nil
	}

	cs := &CaptureSet{
		Start: match.Index,
		End:   match.Index + match.Length,
	}
	for _, group := range match.Groups() {
		cs.Groups = append(cs.Groups, group.String())
	}
	return cs, nil
}

// ReplaceAll substitutes every match of the pattern in text. The replacement
// may use $N group references.
func (m *Matcher) ReplaceAll(text, replacement string) (string, error) {
	return m.re.Replace(text, replacement, -1, -1)
}

// ReplaceSpan splices replacement over the matched span and returns the new
// text. A zero-width match leaves the text untouched so an empty-match
// pattern cannot inject text or loop.
func ReplaceSpan(text string, cs *CaptureSet, replacement string) string {
	if cs.End <= cs.Start {
		return text
	}

	r := []rune(text)
	if cs.Start > len(r) || cs.End > len(r) {
		return text
	}

	var sb strings.Builder
	sb.Grow(len(text) + len(replacement))
	sb.WriteString(string(r[:cs.Start]))
	sb.WriteString(replacement)
	sb.WriteString(string(r[cs.End:]))
	return sb.String()
}

// ExpandProlong handles the @prolong template form: the first character after
// the prefix is repeated once per rune of the matched span. Non-prolong
// templates are returned unchanged with ok=false.
func ExpandProlong(template string, cs *CaptureSet) (string, bool) {
	if !strings.HasPrefix(template, prolongPrefix) {
		return template, false
	}

	fill := strings.TrimSpace(strings.TrimPrefix(template, prolongPrefix))
	if fill == "" {
		fill = "*"
	}
	char := []rune(fill)[0]

	span := cs.End - cs.Start
	return strings.Repeat(string(char), span), true
}

// StripColors removes legacy color codes: an '&' or '§' followed by a color
// or formatting character.
func StripColors(text string) string {
	if !strings.ContainsAny(text, "&§") {
		return text
	}

	var sb strings.Builder
	sb.Grow(len(text))

	r := []rune(text)
	for i := 0; i < len(r); i++ {
		if (r[i] == '&' || r[i] == '§') && i+1 < len(r) && isColorCode(r[i+1]) {
			i++
			continue
		}
		sb.WriteRune(r[i])
	}
	return sb.String()
}

func isColorCode(c rune) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		return true
	case c >= 'k' && c <= 'o', c >= 'K' && c <= 'O':
		return true
	case c == 'r' || c == 'R' || c == 'x' || c == 'X':
		return true
	}
	return false
}

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// StripAccents folds accented letters to their base form, so "héllo" matches
// a pattern written against "hello".
func StripAccents(text string) string {
	folded, _, err := transform.String(accentFolder, text)
	if err != nil {
		return text
	}
	return folded
}
