package jsonrepair

import (
	"regexp"
	"strings"

	"github.com/quailyquaily/unifix/repair"
)

var (
	stringLiteral    = regexp.MustCompile(`"(?:[^"\\]|\\.)*"`)
	trailingCommaPat = regexp.MustCompile(`,\s*[}\]]`)
	unquotedKeyPat   = regexp.MustCompile(`(?:^|[{,])\s*([A-Za-z_$][\w$]*)\s*:`)
)

// Validate reports likely defects line by line, plus the strict parse error.
// It never changes text. The line checks are heuristics and may flag text
// that only looks like a defect once string literals are removed.
func (e *Engine) Validate(text string) repair.Validation {
	issues := []repair.Error{}
	lines := strings.Split(text, "\n")
	offset := 0
	for i, line := range lines {
		// Replace literals with same-width placeholders so match offsets
		// still point into the original line.
		bare := stringLiteral.ReplaceAllStringFunc(line, func(m string) string {
			return `"` + strings.Repeat(" ", len(m)-2) + `"`
		})

		if loc := trailingCommaPat.FindStringIndex(bare); loc != nil {
			issues = append(issues, repair.NewError(repair.KindTrailingComma, "trailing comma before closing bracket").At(text, offset+loc[0]))
		} else if strings.HasSuffix(strings.TrimRight(bare, " \t\r"), ",") && nextLineCloses(lines[i+1:]) {
			at := strings.LastIndexByte(bare, ',')
			issues = append(issues, repair.NewError(repair.KindTrailingComma, "trailing comma before closing bracket").At(text, offset+at))
		}
		if loc := unquotedKeyPat.FindStringSubmatchIndex(bare); loc != nil {
			issues = append(issues, repair.NewError(repair.KindUnquotedKey, "unquoted key %q", bare[loc[2]:loc[3]]).At(text, offset+loc[2]))
		}
		if at := strings.IndexByte(bare, '\''); at >= 0 {
			issues = append(issues, repair.NewError(repair.KindSingleQuotes, "single-quoted string").At(text, offset+at))
		}
		if at := commentIndex(bare); at >= 0 {
			issues = append(issues, repair.NewError(repair.KindComment, "comment").At(text, offset+at))
		}
		offset += len(line) + 1
	}
	if res := e.Parse(text); !res.Success {
		issues = append(issues, res.Errors...)
	}
	return repair.Validation{Valid: len(issues) == 0, Issues: issues}
}

func nextLineCloses(rest []string) bool {
	for _, l := range rest {
		t := strings.TrimSpace(l)
		if t == "" {
			continue
		}
		return t[0] == '}' || t[0] == ']'
	}
	return false
}

func commentIndex(s string) int {
	line, block := strings.Index(s, "//"), strings.Index(s, "/*")
	switch {
	case line < 0:
		return block
	case block < 0:
		return line
	default:
		return min(line, block)
	}
}
