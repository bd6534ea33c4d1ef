package xmlrepair

import (
	"cmp"
	"slices"
	"strings"

	"github.com/agext/levenshtein"
)

// edit replaces s[start:end] with text; start == end is an insertion.
type edit struct {
	start, end int
	text       string
}

// applyEdits rebuilds s once from edits ordered by offset. Edits sharing an
// offset keep the order they were recorded in; an edit overlapping an
// earlier one is dropped.
func applyEdits(s string, edits []edit) string {
	if len(edits) == 0 {
		return s
	}
	slices.SortStableFunc(edits, func(a, b edit) int { return cmp.Compare(a.start, b.start) })
	var b strings.Builder
	b.Grow(len(s) + 16*len(edits))
	pos := 0
	for _, e := range edits {
		if e.start < pos {
			continue
		}
		b.WriteString(s[pos:e.start])
		b.WriteString(e.text)
		pos = e.end
	}
	b.WriteString(s[pos:])
	return b.String()
}

// similar reports whether closing tag name b looks like a typo of open tag
// name a. Singular and plural forms are structurally different and never
// similar; a numeric suffix or an edit distance within maxDist is.
func similar(a, b string, maxDist int) bool {
	if a == b {
		return true
	}
	if pluralPair(a, b) {
		return false
	}
	if numericSuffix(a, b) || numericSuffix(b, a) {
		return true
	}
	return levenshtein.Distance(a, b, nil) <= maxDist
}

func pluralPair(a, b string) bool {
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	rest, ok := strings.CutPrefix(long, short)
	return ok && (rest == "s" || rest == "es")
}

func numericSuffix(base, s string) bool {
	rest, ok := strings.CutPrefix(s, base)
	if !ok || rest == "" {
		return false
	}
	for i := 0; i < len(rest); i++ {
		if !isDigit(rest[i]) {
			return false
		}
	}
	return true
}

// openIndex returns the index of the innermost open tag named name.
func openIndex(stack []Tag, name string) int {
	for k := len(stack) - 1; k >= 0; k-- {
		if stack[k].Name == name {
			return k
		}
	}
	return -1
}
