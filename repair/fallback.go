package repair

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quailyquaily/unifix/internal/extract"
)

var (
	ErrNoGenerator       = errors.New("repair: fallback enabled without a generator")
	ErrNoCandidate       = errors.New("repair: generated text holds no candidate document")
	ErrCandidateRejected = errors.New("repair: generated candidate failed strict parsing")
)

// Generator produces text for a prompt. Implementations may be slow and are
// non-deterministic; callers that need a deadline set it on ctx.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Forgetter is implemented by generators that cache outputs. A rejected
// output is forgotten so that a retry generates a fresh one.
type Forgetter interface {
	Forget(prompt string)
}

// Options controls the generative fallback of a fix call.
type Options struct {
	UseFallback bool
	Generator   Generator
	// Retries is the number of extra generations allowed after a failed or
	// rejected one. Zero means the generator is called at most once.
	Retries int
}

func (o Options) Enabled() bool {
	return o.UseFallback && o.Generator != nil
}

func (f Format) Label() string {
	return strings.ToUpper(string(f))
}

// Prompt builds the fallback prompt for input.
func Prompt(format Format, input string) string {
	label := format.Label()
	return fmt.Sprintf("Fix this broken %s:\n%s\n\nFixed %s:", label, input, label)
}

// RunFallback asks the generator for a repair of input, extracts the first
// candidate document from the output and returns it when accept reports that
// it decodes cleanly.
func RunFallback(ctx context.Context, opts Options, format Format, input string, accept func(candidate string) bool) (string, error) {
	if opts.Generator == nil {
		return "", ErrNoGenerator
	}
	prompt := Prompt(format, input)
	attempts := 1 + max(opts.Retries, 0)

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		out, err := opts.Generator.Generate(ctx, prompt)
		if err != nil {
			lastErr = fmt.Errorf("fallback generate: %w", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		var candidate string
		switch format {
		case FormatXML:
			candidate = extract.XML(out)
		default:
			candidate = extract.JSON(out)
		}
		switch {
		case candidate == "":
			lastErr = ErrNoCandidate
		case !accept(candidate):
			lastErr = ErrCandidateRejected
		default:
			return candidate, nil
		}
		if f, ok := opts.Generator.(Forgetter); ok {
			f.Forget(prompt)
		}
	}
	return "", lastErr
}

// ApplyFallback runs the fallback for a failed rule-based result. On success
// the candidate replaces the fixed text; otherwise res is returned with the
// fallback failure appended to its errors.
func ApplyFallback(ctx context.Context, opts Options, res Result, parse func(string) Result) Result {
	candidate, err := RunFallback(ctx, opts, res.Format, res.OriginalText, func(c string) bool {
		return parse(c).Success
	})
	if err != nil {
		res.Errors = append(res.Errors, NewError(KindFallback, "%v", err))
		return res
	}
	out := parse(candidate)
	out.OriginalText = res.OriginalText
	out.AppliedFixes = append(append([]string{}, res.AppliedFixes...), "Repaired with generative fallback")
	out.UsedFallback = true
	return out
}
