// Package jsonrepair turns near-JSON text into strict JSON through an ordered
// pipeline of string-aware textual rewrites.
package jsonrepair

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/quailyquaily/unifix/repair"
)

const defaultLongStringThreshold = 200

// Config tunes the heuristic parts of the pipeline. Zero values select the
// defaults.
type Config struct {
	// LongStringThreshold is the span, in bytes, after which an open string
	// reaching a structural character with no closing quote left on its line
	// is considered unterminated.
	LongStringThreshold int `json:"long_string_threshold,omitempty" yaml:"long_string_threshold,omitempty"`
}

func (c Config) withDefaults() Config {
	if c.LongStringThreshold <= 0 {
		c.LongStringThreshold = defaultLongStringThreshold
	}
	return c
}

// Engine is safe for concurrent use; it holds no per-call state.
type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Parse strictly decodes text. Numbers are kept as json.Number.
func (e *Engine) Parse(text string) repair.Result {
	res := repair.Result{
		Format:       repair.FormatJSON,
		FixedText:    text,
		OriginalText: text,
		AppliedFixes: []string{},
	}
	v, offset, err := decodeStrict(text)
	if err != nil {
		res.Errors = repair.Errors{repair.NewError(repair.KindParse, "%s", err.Error()).At(text, offset)}
		return res
	}
	res.Success = true
	res.Value = v
	return res
}

func decodeStrict(text string) (any, int, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		var syn *json.SyntaxError
		switch {
		case errors.As(err, &syn):
			return nil, int(syn.Offset), err
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return nil, len(text), errors.New("unexpected end of JSON input")
		default:
			return nil, int(dec.InputOffset()), err
		}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, int(dec.InputOffset()), errors.New("invalid data after top-level value")
	}
	return v, 0, nil
}

// Fix runs the rule pipeline without generative fallback.
func (e *Engine) Fix(text string) repair.Result {
	return e.FixContext(context.Background(), text, repair.Options{})
}

// FixContext runs the rule pipeline and strictly parses the output. When the
// output still fails to parse and opts enables it, the generative fallback
// is asked for a candidate, which must itself parse strictly to be used.
func (e *Engine) FixContext(ctx context.Context, text string, opts repair.Options) repair.Result {
	fixed := text
	applied := []string{}
	for _, r := range e.rules() {
		next := r.apply(fixed)
		if next != fixed {
			applied = append(applied, r.label)
			fixed = next
		}
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

// Prettify re-serializes text with indent spaces per level, keeping key order.
// Text that does not parse is fixed first; when that fails as well the
// original decoder error is returned.
func (e *Engine) Prettify(text string, indent int) (string, error) {
	if indent <= 0 {
		indent = 2
	}
	src := text
	if strict := e.Parse(text); !strict.Success {
		fixed := e.Fix(text)
		if !fixed.Success {
			return "", strict.Err()
		}
		src = fixed.FixedText
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(strings.TrimSpace(src)), "", strings.Repeat(" ", indent)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var std = New(Config{})

func Parse(text string) repair.Result { return std.Parse(text) }

func Fix(text string) repair.Result { return std.Fix(text) }

func FixContext(ctx context.Context, text string, opts repair.Options) repair.Result {
	return std.FixContext(ctx, text, opts)
}

func Validate(text string) repair.Validation { return std.Validate(text) }

func Prettify(text string, indent int) (string, error) { return std.Prettify(text, indent) }
