package xmlrepair

import (
	"cmp"
	"slices"
	"strings"
)

// Tag is one element tag found by the scanner. Offsets are byte offsets into
// the scanned text; End is just past the closing '>'.
type Tag struct {
	Name        string
	Start       int
	End         int
	NameStart   int
	NameEnd     int
	Closing     bool
	SelfClosing bool
}

// contentEnd returns the offset where attribute content stops, excluding the
// '/' of a self-closing tag.
func (t Tag) contentEnd() int {
	if t.SelfClosing {
		return t.End - 2
	}
	return t.End - 1
}

type span struct {
	start, end int
}

// markup is the scanner output: element tags, and the processing
// instructions, comments, CDATA sections and directives that were skipped.
type markup struct {
	tags    []Tag
	skipped []span
}

func (m markup) firstTag() (Tag, bool) {
	if len(m.tags) == 0 {
		return Tag{}, false
	}
	return m.tags[0], true
}

// spans returns every markup region in document order.
func (m markup) spans() []span {
	out := make([]span, 0, len(m.tags)+len(m.skipped))
	for _, t := range m.tags {
		out = append(out, span{t.Start, t.End})
	}
	out = append(out, m.skipped...)
	slices.SortFunc(out, func(a, b span) int { return cmp.Compare(a.start, b.start) })
	return out
}

func (m markup) hasDoctype(s string) bool {
	for _, sp := range m.skipped {
		if strings.HasPrefix(s[sp.start:], "<!DOCTYPE") {
			return true
		}
	}
	return false
}

// scan tokenizes s into tags. PIs, comments, CDATA and directives are never
// tokenized as tags, so their content cannot be mistaken for markup. A '<'
// that does not start a well-delimited tag is left as text.
func scan(s string) markup {
	var m markup
	i := 0
	for {
		lt := strings.IndexByte(s[i:], '<')
		if lt < 0 {
			return m
		}
		i += lt
		rest := s[i:]
		switch {
		case strings.HasPrefix(rest, "<?"):
			end := skipTo(s, i+2, "?>")
			m.skipped = append(m.skipped, span{i, end})
			i = end
		case strings.HasPrefix(rest, "<!--"):
			end := skipTo(s, i+4, "-->")
			m.skipped = append(m.skipped, span{i, end})
			i = end
		case strings.HasPrefix(rest, "<![CDATA["):
			end := skipTo(s, i+9, "]]>")
			m.skipped = append(m.skipped, span{i, end})
			i = end
		case strings.HasPrefix(rest, "<!"):
			end := directiveEnd(s, i+2)
			m.skipped = append(m.skipped, span{i, end})
			i = end
		default:
			t, ok := scanTag(s, i)
			if !ok {
				i++
				continue
			}
			m.tags = append(m.tags, t)
			i = t.End
		}
	}
}

func skipTo(s string, from int, terminator string) int {
	if end := strings.Index(s[from:], terminator); end >= 0 {
		return from + end + len(terminator)
	}
	return len(s)
}

// directiveEnd finds the '>' that ends a <!...> directive, skipping quoted
// literals and an internal subset in brackets.
func directiveEnd(s string, from int) int {
	depth := 0
	var quote byte
	for j := from; j < len(s); j++ {
		c := s[j]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '[':
			depth++
		case c == ']':
			depth--
		case c == '>' && depth <= 0:
			return j + 1
		}
	}
	return len(s)
}

func scanTag(s string, i int) (Tag, bool) {
	t := Tag{Start: i}
	j := i + 1
	if j < len(s) && s[j] == '/' {
		t.Closing = true
		j++
	}
	if j >= len(s) || !isNameStart(s[j]) {
		return Tag{}, false
	}
	t.NameStart = j
	for j < len(s) && isNameChar(s[j]) {
		j++
	}
	t.NameEnd = j
	t.Name = s[t.NameStart:t.NameEnd]
	gt := tagEnd(s, j)
	if gt < 0 {
		return Tag{}, false
	}
	t.End = gt + 1
	t.SelfClosing = !t.Closing && gt > t.NameEnd && s[gt-1] == '/'
	return t, true
}

// tagEnd returns the offset of the '>' closing the tag whose name ends at
// from, honouring quoted attribute values. When a quote is left open, the
// first '>' of the tag is used instead. It returns -1 when another '<' or the
// end of input comes first.
func tagEnd(s string, from int) int {
	var quote byte
	for k := from; k < len(s); k++ {
		c := s[k]
		if quote != 0 {
			if c == quote {
				quote = 0
			} else if c == '<' {
				break
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '>':
			return k
		case '<':
			return -1
		}
	}
	if quote == 0 {
		return -1
	}
	gt := strings.IndexByte(s[from:], '>')
	if gt < 0 {
		return -1
	}
	if lt := strings.IndexByte(s[from:], '<'); lt >= 0 && lt < gt {
		return -1
	}
	return from + gt
}

func isNameStart(c byte) bool {
	return c == '_' || c == ':' || c >= 0x80 || isDigit(c) ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || c == '-' || c == '.'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
