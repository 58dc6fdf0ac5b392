package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultFragmentMinLen is the length a quoted literal must exceed to count
// as content rather than formatting.
const DefaultFragmentMinLen = 10

var quotedRe = regexp.MustCompile(`"([^"]+)"`)

// QuotedFragments is the last-resort recovery for responses that should
// have been a JSON list of strings. It returns every double-quoted literal
// longer than minLen characters, in order of appearance. Results are opaque
// strings and are never turned into stakeholder records.
func QuotedFragments(raw string, minLen int) []string {
	if minLen < 0 {
		minLen = DefaultFragmentMinLen
	}
	out := []string{}
	for _, m := range quotedRe.FindAllStringSubmatch(raw, -1) {
		frag := m[1]
		if utf8.RuneCountInString(frag) <= minLen || strings.EqualFold(frag, "json") {
			continue
		}
		out = append(out, frag)
	}
	return out
}
