package jsonrepair

import (
	"bytes"
	"regexp"
	"slices"
	"strings"
)

type rule struct {
	label string
	apply func(s string) string
}

// rules returns the fixed rule pipeline. Order matters: quote conversion
// feeds string tracking, and strings are closed before comments are stripped
// so that "//" inside an unterminated value is not taken for a comment.
func (e *Engine) rules() []rule {
	return []rule{
		{"Converted single-quoted strings to double quotes", convertSingleQuotes},
		{"Closed unterminated strings", func(s string) string {
			return closeUnterminatedStrings(s, e.cfg.LongStringThreshold)
		}},
		{"Removed comments", stripComments},
		{"Removed trailing commas", removeTrailingCommas},
		{"Quoted unquoted keys", quoteUnquotedKeys},
		{"Inserted missing commas", insertMissingCommas},
		{"Balanced braces and brackets", balanceBrackets},
		{"Added missing opening brace", addMissingOpeningBrace},
		{"Removed leading zeros from numbers", stripLeadingZeros},
		{"Escaped invalid backslashes", escapeBackslashes},
		{"Replaced non-JSON literals with null", normalizeLiterals},
	}
}

func convertSingleQuotes(s string) string {
	if !strings.Contains(s, "'") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			end := quotedEnd(s, i)
			b.WriteString(s[i:end])
			i = end - 1
		case c == '/' && commentEnd(s, i) > i:
			end := commentEnd(s, i)
			b.WriteString(s[i:end])
			i = end - 1
		case c == '\'':
			i = writeSingleQuoted(&b, s, i)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// writeSingleQuoted rewrites the single-quoted string at i and returns the
// offset of the last byte it consumed.
func writeSingleQuoted(b *strings.Builder, s string, i int) int {
	b.WriteByte('"')
	j := i + 1
	for ; j < len(s); j++ {
		c := s[j]
		switch {
		case c == '\'':
			b.WriteByte('"')
			return j
		case c == '\n':
			return j - 1
		case c == '\\' && j+1 < len(s):
			if s[j+1] == '\'' {
				b.WriteByte('\'')
			} else {
				b.WriteByte(c)
				b.WriteByte(s[j+1])
			}
			j++
		case c == '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(c)
		}
	}
	return j - 1
}

func closeUnterminatedStrings(s string, threshold int) string {
	out := make([]byte, 0, len(s)+4)
	state := stateNormal
	start, openOut := 0, 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch state {
		case stateNormal:
			if end := commentEnd(s, i); end > i {
				out = append(out, s[i:end]...)
				i = end - 1
				continue
			}
			if c == '"' {
				start, openOut = i, len(out)
			}
		case stateInString:
			closed := false
			switch {
			case c == '\n' || c == '\r':
				out = insertClosingQuote(out, openOut)
				closed = true
			case (c == ',' || c == '}' || c == ']') && i-start > threshold && !closesOnLine(s, i):
				out = append(out, '"')
				closed = true
			}
			if closed {
				state = stateNormal
				out = append(out, c)
				continue
			}
		}
		state.advance(c)
		out = append(out, c)
	}
	switch state {
	case stateEscaped:
		out = append(out, '\\', '"')
	case stateInString:
		out = insertClosingQuote(out, openOut)
	}
	return string(out)
}

// insertClosingQuote closes the string opened at out[openOut], keeping
// trailing blanks and a trailing comma outside of it.
func insertClosingQuote(out []byte, openOut int) []byte {
	k := len(out)
	for k-1 > openOut && (out[k-1] == ' ' || out[k-1] == '\t') {
		k--
	}
	if k-1 > openOut && out[k-1] == ',' {
		k--
	}
	return slices.Insert(out, k, '"')
}

// closesOnLine reports whether an unescaped quote follows i on the same line.
func closesOnLine(s string, i int) bool {
	for j := i; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '"':
			return true
		case '\n':
			return false
		}
	}
	return false
}

func stripComments(s string) string {
	if !strings.Contains(s, "//") && !strings.Contains(s, "/*") {
		return s
	}
	out := make([]byte, 0, len(s))
	state := stateNormal
	for i := 0; i < len(s); i++ {
		c := s[i]
		if state == stateNormal {
			if end := commentEnd(s, i); end > i {
				if s[i+1] == '/' {
					for len(out) > 0 && (out[len(out)-1] == ' ' || out[len(out)-1] == '\t') {
						out = out[:len(out)-1]
					}
				}
				i = end - 1
				continue
			}
		}
		state.advance(c)
		out = append(out, c)
	}
	return string(out)
}

func removeTrailingCommas(s string) string {
	out := make([]byte, 0, len(s))
	state := stateNormal
	for i := 0; i < len(s); i++ {
		c := s[i]
		if state == stateNormal && c == ',' {
			j := nextNonSpace(s, i+1)
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		state.advance(c)
		out = append(out, c)
	}
	return string(out)
}

func quoteUnquotedKeys(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	state := stateNormal
	var last byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if state == stateNormal && isIdentStart(c) && (last == '{' || last == ',') {
			j := i
			for j < len(s) && isIdentChar(s[j]) {
				j++
			}
			if k := nextNonSpace(s, j); k < len(s) && s[k] == ':' {
				b.WriteByte('"')
				b.WriteString(s[i:j])
				b.WriteByte('"')
				i = j - 1
				last = '"'
				continue
			}
		}
		wasNormal := state == stateNormal
		state.advance(c)
		b.WriteByte(c)
		if wasNormal && !isSpace(c) {
			last = c
		}
	}
	return b.String()
}

// insertMissingCommas adds a comma between a completed value and a string,
// object or array that follows it with only whitespace in between.
func insertMissingCommas(s string) string {
	out := make([]byte, 0, len(s)+4)
	state := stateNormal
	var last byte
	lastOut := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if state == stateNormal && (c == '"' || c == '{' || c == '[') {
			switch last {
			case '}', ']', '"', 'v':
				out = slices.Insert(out, lastOut, ',')
			}
		}
		wasNormal := state == stateNormal
		state.advance(c)
		out = append(out, c)
		switch {
		case !wasNormal:
			if state == stateNormal {
				last, lastOut = '"', len(out)
			}
		case c == '}' || c == ']':
			last, lastOut = c, len(out)
		case isSpace(c):
		case isIdentChar(c) || c == '.' || c == '+':
			last, lastOut = 'v', len(out)
		default:
			last = 0
		}
	}
	return string(out)
}

// balanceBrackets closes open containers. A closer that crosses an open
// container gets the missing closers inserted before it; closers still open
// at the end are appended in nesting order.
func balanceBrackets(s string) string {
	var stack []byte
	var b strings.Builder
	b.Grow(len(s) + 4)
	state := stateNormal
	for i := 0; i < len(s); i++ {
		c := s[i]
		wasNormal := state == stateNormal
		state.advance(c)
		if wasNormal {
			switch c {
			case '{', '[':
				stack = append(stack, c)
			case '}', ']':
				open := byte('{')
				if c == ']' {
					open = '['
				}
				if at := bytes.LastIndexByte(stack, open); at >= 0 {
					writeClosers(&b, stack[at+1:])
					stack = stack[:at]
				}
			}
		}
		b.WriteByte(c)
	}
	out := b.String()
	if len(stack) == 0 {
		return out
	}
	out = strings.TrimRight(out, " \t\r\n")
	if trimmed, ok := strings.CutSuffix(out, ","); ok {
		out = strings.TrimRight(trimmed, " \t\r\n")
	} else if strings.HasSuffix(out, ":") {
		out += " null"
	}
	b.Reset()
	b.WriteString(out)
	writeClosers(&b, stack)
	return b.String()
}

// writeClosers writes the closers for open, innermost first.
func writeClosers(b *strings.Builder, open []byte) {
	for j := len(open) - 1; j >= 0; j-- {
		if open[j] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
}

var leadingKey = regexp.MustCompile(`^"(?:[^"\\]|\\.)*"\s*:`)

func addMissingOpeningBrace(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasSuffix(t, "}") || !leadingKey.MatchString(t) {
		return s
	}
	opens, closes := 0, 0
	state := stateNormal
	for i := 0; i < len(s); i++ {
		if state.advance(s[i]) {
			continue
		}
		switch s[i] {
		case '{':
			opens++
		case '}':
			closes++
		}
	}
	if closes <= opens {
		return s
	}
	lead := len(s) - len(strings.TrimLeft(s, " \t\r\n"))
	return s[:lead] + "{" + s[lead:]
}

func stripLeadingZeros(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	state := stateNormal
	var last byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if state == stateNormal && (last == ':' || last == '[' || last == ',') && (c == '0' || c == '-') {
			j := i
			if c == '-' {
				j++
			}
			k := j
			for k < len(s) && s[k] == '0' {
				k++
			}
			if k > j && (k-j > 1 || (k < len(s) && isDigit(s[k]))) {
				b.WriteString(s[i:j])
				if k >= len(s) || !isDigit(s[k]) {
					b.WriteByte('0')
				}
				i = k - 1
				last = 'v'
				continue
			}
		}
		wasNormal := state == stateNormal
		state.advance(c)
		b.WriteByte(c)
		if wasNormal && !isSpace(c) {
			last = c
		}
	}
	return b.String()
}

func escapeBackslashes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	state := stateNormal
	for i := 0; i < len(s); i++ {
		c := s[i]
		if state == stateInString && c == '\\' {
			if i+1 < len(s) && validEscape(s, i+1) {
				b.WriteByte(c)
				b.WriteByte(s[i+1])
				i++
				continue
			}
			b.WriteString(`\\`)
			continue
		}
		state.advance(c)
		b.WriteByte(c)
	}
	return b.String()
}

func validEscape(s string, j int) bool {
	switch s[j] {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
		return true
	case 'u':
		if j+4 >= len(s) {
			return false
		}
		for k := j + 1; k <= j+4; k++ {
			if !isHex(s[k]) {
				return false
			}
		}
		return true
	}
	return false
}

func normalizeLiterals(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	state := stateNormal
	var last byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if state == stateNormal && (last == ':' || last == '[' || last == ',') {
			j := i
			if c == '-' || c == '+' {
				j++
			}
			if j < len(s) && isIdentStart(s[j]) {
				k := j
				for k < len(s) && isIdentChar(s[k]) {
					k++
				}
				word := s[j:k]
				if word == "NaN" || word == "Infinity" || (word == "undefined" && j == i) {
					b.WriteString("null")
					i = k - 1
					last = 'v'
					continue
				}
			}
		}
		wasNormal := state == stateNormal
		state.advance(c)
		b.WriteByte(c)
		if wasNormal && !isSpace(c) {
			last = c
		}
	}
	return b.String()
}
