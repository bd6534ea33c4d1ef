package jsonrepair

import "strings"

// scanState tracks string literal boundaries during a single forward pass.
type scanState int

const (
	stateNormal scanState = iota
	stateInString
	stateEscaped
)

// advance feeds c through the state machine and reports whether c is part of
// a string literal, quotes included.
func (st *scanState) advance(c byte) bool {
	switch *st {
	case stateNormal:
		if c == '"' {
			*st = stateInString
			return true
		}
		return false
	case stateInString:
		switch c {
		case '\\':
			*st = stateEscaped
		case '"':
			*st = stateNormal
		}
		return true
	default:
		*st = stateInString
		return true
	}
}

// commentEnd returns the offset just past a comment starting at i, or i when
// no comment starts there. Line comments stop before the newline.
func commentEnd(s string, i int) int {
	if i+1 >= len(s) || s[i] != '/' {
		return i
	}
	switch s[i+1] {
	case '/':
		if nl := strings.IndexByte(s[i:], '\n'); nl >= 0 {
			return i + nl
		}
		return len(s)
	case '*':
		if end := strings.Index(s[i+2:], "*/"); end >= 0 {
			return i + 2 + end + 2
		}
		return len(s)
	}
	return i
}

// quotedEnd returns the offset just past the double-quoted string starting at
// i. An unterminated string ends at the next newline or at end of input.
func quotedEnd(s string, i int) int {
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '"':
			return j + 1
		case '\n':
			return j
		}
	}
	return len(s)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '-'
}

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// nextNonSpace returns the offset of the first non-whitespace byte at or after i.
func nextNonSpace(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}
