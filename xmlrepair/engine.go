// Package xmlrepair turns near-well-formed XML into well-formed XML. Tag
// balance is repaired where the intended structure is clear: a closing tag
// with a typo is corrected, elements skipped by an outer closing tag are
// closed in place. Documents whose structure would have to be guessed are
// rejected instead.
package xmlrepair

import (
	"context"
	"fmt"
	"strings"

	"github.com/quailyquaily/unifix/repair"
)

const (
	DefaultDeclaration     = `<?xml version="1.0" encoding="UTF-8"?>`
	defaultMaxEditDistance = 1
)

type Config struct {
	// MaxEditDistance bounds the Levenshtein distance at which a closing tag
	// is taken for a typo of the open element. Default 1.
	MaxEditDistance int `json:"max_edit_distance,omitempty" yaml:"max_edit_distance,omitempty"`
	// Declaration is prepended when the document has none.
	Declaration string `json:"declaration,omitempty" yaml:"declaration,omitempty"`
}

func (c Config) withDefaults() Config {
	if c.MaxEditDistance <= 0 {
		c.MaxEditDistance = defaultMaxEditDistance
	}
	if c.Declaration == "" {
		c.Declaration = DefaultDeclaration
	}
	return c
}

type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Parse checks that text is a well-formed document with a single root. On
// success Value holds the *Node document tree.
func (e *Engine) Parse(text string) repair.Result {
	res := repair.Result{
		Format:       repair.FormatXML,
		FixedText:    text,
		OriginalText: text,
		AppliedFixes: []string{},
	}
	doc, err := decode(text)
	if err != nil {
		res.Errors = repair.Errors{*err}
		return res
	}
	res.Success = true
	res.Value = doc
	return res
}

func (e *Engine) Fix(text string) repair.Result {
	return e.FixContext(context.Background(), text, repair.Options{})
}

// FixContext rejects documents with critical structural defects, runs the
// rule pipeline on the rest and strictly parses the output. Both a rejection
// and a failed final parse hand over to the generative fallback when opts
// enables it.
func (e *Engine) FixContext(ctx context.Context, text string, opts repair.Options) repair.Result {
	if critical := e.preflight(text, scan(text)); len(critical) > 0 {
		res := repair.Result{
			Format:               repair.FormatXML,
			FixedText:            text,
			OriginalText:         text,
			AppliedFixes:         []string{},
			Errors:               critical,
			CanRetryWithFallback: true,
		}
		if opts.Enabled() {
			return repair.ApplyFallback(ctx, opts, res, e.Parse)
		}
		return res
	}

	fixed := text
	applied := []string{}
	for _, r := range e.rules() {
		next, fixes := r.apply(fixed)
		if next == fixed && len(fixes) == 0 {
			continue
		}
		if len(fixes) == 0 {
			fixes = []string{r.label}
		}
		applied = append(applied, fixes...)
		fixed = next
	}

	res := e.Parse(fixed)
	res.OriginalText = text
	res.AppliedFixes = applied
	if res.Success {
		return res
	}
	res.CanRetryWithFallback = true
	if opts.Enabled() {
		return repair.ApplyFallback(ctx, opts, res, e.Parse)
	}
	return res
}

// Validate reports structural issues without changing text: the critical
// defects, nesting problems found by a tag walk, and the strict parse error.
func (e *Engine) Validate(text string) repair.Validation {
	m := scan(text)
	issues := append([]repair.Error{}, e.preflight(text, m)...)
	var stack []Tag
	for _, t := range m.tags {
		if isDigit(t.Name[0]) {
			issues = append(issues, repair.NewError(repair.KindInvalidTagName,
				"tag name %q starts with a digit", t.Name).At(text, t.NameStart))
		}
		switch {
		case t.SelfClosing:
		case !t.Closing:
			stack = append(stack, t)
		case len(stack) == 0:
			issues = append(issues, repair.NewError(repair.KindUnmatchedClosingTag,
				"closing tag </%s> has no open element", t.Name).At(text, t.Start))
		case stack[len(stack)-1].Name == t.Name:
			stack = stack[:len(stack)-1]
		case openIndex(stack, t.Name) >= 0:
			idx := openIndex(stack, t.Name)
			for k := len(stack) - 1; k > idx; k-- {
				issues = append(issues, repair.NewError(repair.KindUnclosedTag,
					"<%s> is not closed before </%s>", stack[k].Name, t.Name).At(text, stack[k].Start))
			}
			stack = stack[:idx]
		case similar(stack[len(stack)-1].Name, t.Name, e.cfg.MaxEditDistance):
			top := stack[len(stack)-1]
			issues = append(issues, repair.NewError(repair.KindMismatchedTags,
				"closing tag </%s> does not match <%s>", t.Name, top.Name).At(text, t.Start))
			stack = stack[:len(stack)-1]
		default:
			issues = append(issues, repair.NewError(repair.KindUnmatchedClosingTag,
				"closing tag </%s> matches no open element", t.Name).At(text, t.Start))
		}
	}
	for k := len(stack) - 1; k >= 0; k-- {
		issues = append(issues, repair.NewError(repair.KindUnclosedTag,
			"<%s> is never closed", stack[k].Name).At(text, stack[k].Start))
	}
	if res := e.Parse(text); !res.Success {
		for _, pe := range res.Errors {
			if !repair.Errors(issues).Has(pe.Kind) {
				issues = append(issues, pe)
			}
		}
	}
	return repair.Validation{Valid: len(issues) == 0, Issues: issues}
}

// Prettify re-serializes text with indent spaces per level. Text that does
// not parse is fixed first; when that fails as well the original parse error
// is returned.
func (e *Engine) Prettify(text string, indent int) (string, error) {
	if indent <= 0 {
		indent = 2
	}
	res := e.Parse(text)
	if !res.Success {
		fixed := e.Fix(text)
		if !fixed.Success {
			return "", res.Err()
		}
		res = fixed
	}
	doc, ok := res.Value.(*Node)
	if !ok {
		return "", fmt.Errorf("xmlrepair: unexpected parsed value %T", res.Value)
	}
	return render(doc, strings.Repeat(" ", indent)), nil
}

var std = New(Config{})

func Parse(text string) repair.Result { return std.Parse(text) }

func Fix(text string) repair.Result { return std.Fix(text) }

func FixContext(ctx context.Context, text string, opts repair.Options) repair.Result {
	return std.FixContext(ctx, text, opts)
}

func Validate(text string) repair.Validation { return std.Validate(text) }

func Prettify(text string, indent int) (string, error) { return std.Prettify(text, indent) }
