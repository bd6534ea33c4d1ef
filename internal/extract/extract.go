// Package extract pulls a candidate document out of free-form generated text.
package extract

import "strings"

// JSON returns the first balanced {...} or [...] span of text. Fenced code
// blocks are searched before the surrounding prose.
func JSON(text string) string {
	for _, candidate := range candidates(text) {
		for i := 0; i < len(candidate); i++ {
			if candidate[i] != '{' && candidate[i] != '[' {
				continue
			}
			if span := balancedSpan(candidate, i); span != "" {
				return span
			}
		}
	}
	return ""
}

// XML returns the span from the first XML declaration, or the first element
// when there is none, through the close of the root element.
func XML(text string) string {
	for _, candidate := range candidates(text) {
		if span := xmlSpan(candidate); span != "" {
			return span
		}
	}
	return ""
}

// candidates lists fenced blocks first and then the trimmed full text.
func candidates(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	var out []string
	if strings.Contains(trimmed, "```") {
		parts := strings.Split(trimmed, "```")
		for i := 1; i < len(parts); i += 2 {
			block := strings.TrimSpace(parts[i])
			for _, lang := range []string{"json", "xml"} {
				if rest, ok := strings.CutPrefix(block, lang); ok {
					block = rest
					break
				}
			}
			block = strings.TrimSpace(block)
			if block != "" {
				out = append(out, block)
			}
		}
	}
	return append(out, trimmed)
}

func balancedSpan(data string, start int) string {
	var stack []byte
	inString := false
	escape := false
	for i := start; i < len(data); i++ {
		ch := data[i]
		if inString {
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, ch)
		case '}', ']':
			if len(stack) == 0 {
				return ""
			}
			open := stack[len(stack)-1]
			if (open == '{' && ch != '}') || (open == '[' && ch != ']') {
				return ""
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return data[start : i+1]
			}
		}
	}
	return ""
}

func xmlSpan(data string) string {
	start := strings.Index(data, "<?xml")
	if start < 0 {
		start = firstElement(data, 0)
	}
	if start < 0 {
		return ""
	}
	root := firstElement(data, start)
	if root < 0 {
		return ""
	}
	name := elementName(data, root)
	if name == "" {
		return ""
	}
	if end := strings.LastIndex(data, "</"+name); end >= root {
		if gt := strings.IndexByte(data[end:], '>'); gt >= 0 {
			return data[start : end+gt+1]
		}
	}
	if gt := strings.LastIndexByte(data, '>'); gt > start {
		return data[start : gt+1]
	}
	return ""
}

// firstElement returns the offset of the first start tag at or after from,
// skipping declarations, comments and other markup.
func firstElement(data string, from int) int {
	for i := from; i < len(data)-1; i++ {
		if data[i] != '<' {
			continue
		}
		next := data[i+1]
		if next == '_' || (next >= 'a' && next <= 'z') || (next >= 'A' && next <= 'Z') {
			return i
		}
	}
	return -1
}

func elementName(data string, at int) string {
	end := at + 1
	for end < len(data) {
		c := data[end]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '>' || c == '/' {
			break
		}
		end++
	}
	return data[at+1 : end]
}
