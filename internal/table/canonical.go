package table

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	nonAlnumRe   = regexp.MustCompile(`[^0-9a-zA-Z]+`)
	camelSplitRe = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	underscoreRe = regexp.MustCompile(`_+`)
)

// ToSnake converts a raw CSV header to a snake_case identifier: trims
// whitespace, treats slashes as word breaks, replaces other symbols with
// underscores, splits camelCase and lowercases the result.
func ToSnake(name string) string {
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", " ")
	s = nonAlnumRe.ReplaceAllString(s, "_")
	s = camelSplitRe.ReplaceAllString(s, "${1}_${2}")
	s = underscoreRe.ReplaceAllString(s, "_")
	return strings.ToLower(strings.Trim(s, "_"))
}

// CanonicalizeHeaders snake_cases every header and disambiguates
// duplicates with _2, _3, ... suffixes in order of appearance.
func CanonicalizeHeaders(headers []string) []string {
	seen := make(map[string]int, len(headers))
	out := make([]string, len(headers))
	for i, h := range headers {
		name := ToSnake(h)
		seen[name]++
		if seen[name] > 1 {
			name = fmt.Sprintf("%s_%d", name, seen[name])
		}
		out[i] = name
	}
	return out
}

// ApplyRenames renames columns per the map where present. Used for
// dataset-specific fixes the generic canonicalization cannot know, e.g.
// onhand -> on_hand.
func (t *Table) ApplyRenames(renames map[string]string) {
	for from, to := range renames {
		t.RenameColumn(from, to)
	}
}
