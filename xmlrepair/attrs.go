package xmlrepair

import (
	"fmt"
	"strings"
)

type attr struct {
	nameStart, nameEnd int
	eq                 int // offset of '=', -1 when missing
	valStart, valEnd   int // value bounds without quotes, -1 when there is no value
	quote              byte
	closed             bool
}

func (a attr) name(s string) string {
	return s[a.nameStart:a.nameEnd]
}

// parseAttrs walks the attribute section s[from:to] of a tag.
func parseAttrs(s string, from, to int) []attr {
	var out []attr
	i := from
	for i < to {
		for i < to && isSpace(s[i]) {
			i++
		}
		if i >= to {
			break
		}
		c := s[i]
		if c == '"' || c == '\'' {
			if k := strings.IndexByte(s[i+1:to], c); k >= 0 {
				i += k + 2
			} else {
				i = to
			}
			continue
		}
		if !isNameChar(c) {
			i++
			continue
		}
		a := attr{nameStart: i, eq: -1, valStart: -1, valEnd: -1}
		for i < to && isNameChar(s[i]) {
			i++
		}
		a.nameEnd = i
		j := i
		for j < to && isSpace(s[j]) {
			j++
		}
		if j < to && s[j] == '=' {
			a.eq = j
			j++
			for j < to && isSpace(s[j]) {
				j++
			}
		}
		switch {
		case j < to && (s[j] == '"' || s[j] == '\''):
			a.quote = s[j]
			a.valStart = j + 1
			if k := strings.IndexByte(s[j+1:to], a.quote); k >= 0 {
				a.valEnd = j + 1 + k
				a.closed = true
				i = a.valEnd + 1
			} else {
				a.valEnd = to
				i = to
			}
		case a.eq >= 0:
			a.valStart = j
			for j < to && !isSpace(s[j]) {
				j++
			}
			a.valEnd = j
			i = j
		}
		out = append(out, a)
	}
	return out
}

func tagAttrs(s string, t Tag) []attr {
	if t.Closing {
		return nil
	}
	return parseAttrs(s, t.NameEnd, t.contentEnd())
}

// closeAttrQuotes closes a quoted attribute value left open before the end
// of its tag.
func closeAttrQuotes(s string) (string, []string) {
	var edits []edit
	var fixes []string
	for _, t := range scan(s).tags {
		for _, a := range tagAttrs(s, t) {
			if a.quote == 0 || a.closed {
				continue
			}
			at := strings.TrimRight(s[:a.valEnd], " \t\r\n")
			if len(at) < a.valStart {
				at = s[:a.valStart]
			}
			edits = append(edits, edit{len(at), len(at), string(a.quote)})
			fixes = append(fixes, fmt.Sprintf("Closed attribute quote for %s in <%s>", a.name(s), t.Name))
		}
	}
	return applyEdits(s, edits), fixes
}

// insertMissingEquals turns `name "value"` into `name="value"`.
func insertMissingEquals(s string) (string, []string) {
	var edits []edit
	var fixes []string
	for _, t := range scan(s).tags {
		for _, a := range tagAttrs(s, t) {
			if a.quote == 0 || a.eq >= 0 {
				continue
			}
			edits = append(edits, edit{a.nameEnd, a.valStart - 1, "="})
			fixes = append(fixes, fmt.Sprintf("Added missing '=' for %s in <%s>", a.name(s), t.Name))
		}
	}
	return applyEdits(s, edits), fixes
}

// quoteAttrValues quotes unquoted values and expands bare boolean attributes
// of tags that carry other attributes.
func quoteAttrValues(s string) (string, []string) {
	var edits []edit
	var fixes []string
	for _, t := range scan(s).tags {
		attrs := tagAttrs(s, t)
		valued := false
		for _, a := range attrs {
			if a.eq >= 0 || a.quote != 0 {
				valued = true
				break
			}
		}
		for _, a := range attrs {
			switch {
			case a.eq >= 0 && a.quote == 0:
				val := s[a.valStart:a.valEnd]
				q := `"`
				if strings.Contains(val, `"`) {
					q = "'"
				}
				edits = append(edits, edit{a.valStart, a.valStart, q}, edit{a.valEnd, a.valEnd, q})
				fixes = append(fixes, fmt.Sprintf("Quoted value of %s in <%s>", a.name(s), t.Name))
			case a.eq < 0 && a.quote == 0 && valued:
				name := a.name(s)
				edits = append(edits, edit{a.nameEnd, a.nameEnd, `="` + name + `"`})
				fixes = append(fixes, fmt.Sprintf("Expanded boolean attribute %s in <%s>", name, t.Name))
			}
		}
	}
	return applyEdits(s, edits), fixes
}
