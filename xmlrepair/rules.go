package xmlrepair

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/quailyquaily/unifix/repair"
)

type rule struct {
	label string
	apply func(s string) (string, []string)
}

func (e *Engine) rules() []rule {
	return []rule{
		{"Added XML declaration", e.ensureDeclaration},
		{"Corrected mismatched closing tags", e.correctMismatches},
		{"Added missing closing tags", closeUnclosedTags},
		{"Closed unterminated attribute quotes", closeAttrQuotes},
		{"Added missing '=' in attributes", insertMissingEquals},
		{"Escaped special characters in text", escapeText},
		{"Quoted attribute values", quoteAttrValues},
		{"Prefixed tag names starting with a digit", prefixDigitNames},
		{"Removed unmatched closing tags", e.balanceTags},
	}
}

// preflight reports structural defects that are not repaired because any
// repair would have to guess at the intended document structure.
func (e *Engine) preflight(s string, m markup) repair.Errors {
	var errs repair.Errors
	for _, t := range m.tags {
		inner := strings.TrimSpace(s[t.NameEnd:t.contentEnd()])
		if inner != "" && !strings.ContainsAny(inner, `="'`) {
			errs = append(errs, repair.NewError(repair.KindInvalidTagName,
				"tag name %q contains a space", t.Name+" "+inner).At(s, t.Start))
		}
	}

	first, ok := m.firstTag()
	limit := len(s)
	if ok {
		limit = first.Start
	}
	if at := textOffset(s, 0, limit, m.skipped); at >= 0 {
		errs = append(errs, repair.NewError(repair.KindTextBeforeRoot,
			"text before the root element").At(s, at))
	}
	if !ok {
		return errs
	}
	if first.Closing {
		errs = append(errs, repair.NewError(repair.KindMissingOpeningTag,
			"document starts with closing tag </%s>", first.Name).At(s, first.Start))
	}

	var stack []string
	rooted := false
	for _, t := range m.tags {
		switch {
		case t.Closing:
			if k := lastIndex(stack, t.Name); k >= 0 {
				stack = stack[:k]
			} else if n := len(stack); n > 0 && similar(stack[n-1], t.Name, e.cfg.MaxEditDistance) {
				stack = stack[:n-1]
			}
			continue
		case len(stack) == 0 && rooted:
			errs = append(errs, repair.NewError(repair.KindMultipleRoots,
				"second top-level element <%s>", t.Name).At(s, t.Start))
			return errs
		}
		rooted = true
		if !t.SelfClosing {
			stack = append(stack, t.Name)
		}
	}
	return errs
}

const bom = "\ufeff"

// textOffset returns the offset of the first non-space byte of s[from:to]
// outside the skipped spans, or -1. A byte order mark counts as space.
func textOffset(s string, from, to int, skipped []span) int {
	for i := from; i < to; i++ {
		switch {
		case inSpan(i, skipped), isSpace(s[i]):
		case strings.HasPrefix(s[i:], bom):
			i += len(bom) - 1
		default:
			return i
		}
	}
	return -1
}

func inSpan(i int, spans []span) bool {
	for _, sp := range spans {
		if i >= sp.start && i < sp.end {
			return true
		}
	}
	return false
}

func lastIndex(names []string, name string) int {
	for k := len(names) - 1; k >= 0; k-- {
		if names[k] == name {
			return k
		}
	}
	return -1
}

var declPrefix = regexp.MustCompile(`^<\?xml[\s?]`)

func (e *Engine) ensureDeclaration(s string) (string, []string) {
	trimmed := strings.TrimLeft(s, " \t\r\n")
	if declPrefix.MatchString(trimmed) {
		if len(trimmed) != len(s) {
			return trimmed, []string{"Removed whitespace before XML declaration"}
		}
		return s, nil
	}
	return e.cfg.Declaration + "\n" + s, nil
}

// correctMismatches rewrites a closing tag whose name is a near miss of an
// open element. The innermost element is tried first, then the outer ones.
func (e *Engine) correctMismatches(s string) (string, []string) {
	var stack []Tag
	var edits []edit
	var fixes []string
	for _, t := range scan(s).tags {
		switch {
		case t.SelfClosing:
		case !t.Closing:
			stack = append(stack, t)
		case len(stack) == 0:
		case openIndex(stack, t.Name) >= 0:
			stack = stack[:openIndex(stack, t.Name)]
		default:
			for k := len(stack) - 1; k >= 0; k-- {
				want := stack[k].Name
				if !similar(want, t.Name, e.cfg.MaxEditDistance) {
					continue
				}
				edits = append(edits, edit{t.NameStart, t.NameEnd, want})
				fixes = append(fixes, fmt.Sprintf("Corrected mismatched closing tag </%s> to </%s>", t.Name, want))
				stack = stack[:k]
				break
			}
		}
	}
	return applyEdits(s, edits), fixes
}

// closeUnclosedTags inserts closing tags for elements left open. Elements
// skipped by a closing tag of an outer element are closed right before that
// tag; whatever is still open at the end is closed at the end.
func closeUnclosedTags(s string) (string, []string) {
	var stack []Tag
	var edits []edit
	var fixes []string
	for _, t := range scan(s).tags {
		switch {
		case t.SelfClosing:
		case !t.Closing:
			stack = append(stack, t)
		default:
			idx := openIndex(stack, t.Name)
			if idx < 0 {
				continue
			}
			for k := len(stack) - 1; k > idx; k-- {
				edits = append(edits, edit{t.Start, t.Start, "</" + stack[k].Name + ">"})
				fixes = append(fixes, fmt.Sprintf("Added missing closing tag </%s> before </%s>", stack[k].Name, t.Name))
			}
			stack = stack[:idx]
		}
	}
	end := len(strings.TrimRight(s, " \t\r\n"))
	for k := len(stack) - 1; k >= 0; k-- {
		edits = append(edits, edit{end, end, "</" + stack[k].Name + ">"})
		fixes = append(fixes, fmt.Sprintf("Added missing closing tag </%s> at end of document", stack[k].Name))
	}
	return applyEdits(s, edits), fixes
}

var (
	entityRef  = regexp.MustCompile(`^&(?:[A-Za-z_:][\w.:-]*|#[0-9]+|#x[0-9A-Fa-f]+);`)
	xmlEntity  = map[string]bool{"&amp;": true, "&lt;": true, "&gt;": true, "&quot;": true, "&apos;": true}
	namedRefRe = regexp.MustCompile(`^&[A-Za-z][A-Za-z0-9]*;`)
)

// escapeText escapes bare '&' and '<' in character data and the '>' of a
// stray "]]>". Tags, comments, PIs and CDATA sections are left untouched.
// Named HTML entities become numeric references unless a DOCTYPE may
// declare them.
func escapeText(s string) (string, []string) {
	m := scan(s)
	doctype := m.hasDoctype(s)
	var edits []edit
	pos := 0
	for _, sp := range append(m.spans(), span{len(s), len(s)}) {
		if sp.start > pos {
			edits = escapeSegment(s, pos, sp.start, doctype, edits)
		}
		pos = max(pos, sp.end)
	}
	return applyEdits(s, edits), nil
}

func escapeSegment(s string, from, to int, doctype bool, edits []edit) []edit {
	for i := from; i < to; i++ {
		switch s[i] {
		case '&':
			ref := entityRef.FindString(s[i:to])
			switch {
			case ref == "":
				edits = append(edits, edit{i, i + 1, "&amp;"})
			case xmlEntity[ref] || ref[1] == '#' || doctype:
				i += len(ref) - 1
			case namedRefRe.MatchString(ref):
				if decoded := html.UnescapeString(ref); decoded != ref {
					var b strings.Builder
					for _, r := range decoded {
						fmt.Fprintf(&b, "&#%d;", r)
					}
					edits = append(edits, edit{i, i + len(ref), b.String()})
				} else {
					edits = append(edits, edit{i, i + 1, "&amp;"})
				}
				i += len(ref) - 1
			default:
				edits = append(edits, edit{i, i + 1, "&amp;"})
			}
		case '<':
			edits = append(edits, edit{i, i + 1, "&lt;"})
		case '>':
			if i-2 >= from && s[i-2:i] == "]]" {
				edits = append(edits, edit{i, i + 1, "&gt;"})
			}
		}
	}
	return edits
}

func prefixDigitNames(s string) (string, []string) {
	var edits []edit
	var fixes []string
	for _, t := range scan(s).tags {
		if t.Name == "" || !isDigit(t.Name[0]) {
			continue
		}
		edits = append(edits, edit{t.NameStart, t.NameStart, "tag"})
		if !t.Closing {
			fixes = append(fixes, fmt.Sprintf("Renamed tag <%s> to <tag%s>", t.Name, t.Name))
		}
	}
	return applyEdits(s, edits), fixes
}

// balanceTags removes closing tags that match no open element. Remaining
// nesting problems are reported without changing the text.
func (e *Engine) balanceTags(s string) (string, []string) {
	var stack []Tag
	var edits []edit
	var fixes []string
	for _, t := range scan(s).tags {
		switch {
		case t.SelfClosing:
		case !t.Closing:
			stack = append(stack, t)
		case len(stack) > 0 && stack[len(stack)-1].Name == t.Name:
			stack = stack[:len(stack)-1]
		case openIndex(stack, t.Name) >= 0:
			top := stack[len(stack)-1].Name
			fixes = append(fixes, fmt.Sprintf("Left mismatched closing tag </%s> inside <%s>", t.Name, top))
			stack = stack[:openIndex(stack, t.Name)]
		default:
			edits = append(edits, edit{t.Start, t.End, ""})
			fixes = append(fixes, fmt.Sprintf("Removed unmatched closing tag </%s>", t.Name))
		}
	}
	for k := len(stack) - 1; k >= 0; k-- {
		fixes = append(fixes, fmt.Sprintf("Left element <%s> unclosed", stack[k].Name))
	}
	return applyEdits(s, edits), fixes
}
