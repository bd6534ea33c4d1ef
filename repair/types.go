// Package repair defines the result model shared by the JSON and XML repair
// engines and the boundary to the optional generative fallback.
package repair

import (
	"fmt"
	"strings"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

// Kind is an enum for repair and validation error categories.
type Kind string

const (
	KindParse               Kind = "parse_error"           // Strict decoder rejected the text
	KindUnmatchedClosingTag Kind = "unmatched_closing_tag" // Closing tag with no open element
	KindMismatchedTags      Kind = "mismatched_tags"       // Closing tag does not match the open element
	KindUnclosedTag         Kind = "unclosed_tag"          // Element never closed
	KindInvalidTagName      Kind = "invalid_tag_name"      // Tag name with a space or a leading digit
	KindTextBeforeRoot      Kind = "text_before_root"      // Character data before the first element
	KindMultipleRoots       Kind = "multiple_roots"        // More than one top-level element
	KindMissingOpeningTag   Kind = "missing_opening_tag"   // Document opens with, or holds only, closing tags
	KindTrailingComma       Kind = "trailing_comma"
	KindUnquotedKey         Kind = "unquoted_key"
	KindSingleQuotes        Kind = "single_quotes"
	KindComment             Kind = "comment"
	KindFallback            Kind = "fallback_error" // Generative fallback failed or was rejected
)

// Error is a single repair or validation problem. Position is a byte offset
// into the inspected text when the source of the problem is known.
type Error struct {
	Kind     Kind   `json:"kind"`
	Message  string `json:"message"`
	Position *int   `json:"position,omitempty"`
	Line     int    `json:"line,omitempty"`
}

func NewError(kind Kind, format string, args ...any) Error {
	return Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// At returns a copy of e located at offset within text.
func (e Error) At(text string, offset int) Error {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}
	pos := offset
	e.Position = &pos
	e.Line = LineOf(text, offset)
	return e
}

// Error implements the error interface.
func (e Error) Error() string {
	if e.Position == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s at offset %d: %s", e.Kind, *e.Position, e.Message)
}

// Errors is a slice of Error that implements error.
type Errors []Error

func (es Errors) Error() string {
	if len(es) == 0 {
		return "repair errors: (none)"
	}
	if len(es) == 1 {
		return es[0].Error()
	}
	msgs := make([]string, 0, len(es))
	for _, e := range es {
		msgs = append(msgs, e.Error())
	}
	return fmt.Sprintf("repair errors (%d): %s", len(es), strings.Join(msgs, "; "))
}

// Unwrap returns the errors as a slice for errors.As/errors.Is compatibility.
func (es Errors) Unwrap() []error {
	errs := make([]error, len(es))
	for i, e := range es {
		errs[i] = e
	}
	return errs
}

func (es Errors) Has(kind Kind) bool {
	for _, e := range es {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// Result is the outcome of a parse or fix call. Success is true iff FixedText
// decodes cleanly under the strict grammar of Format.
type Result struct {
	Format               Format   `json:"format"`
	Success              bool     `json:"success"`
	FixedText            string   `json:"fixed_text"`
	OriginalText         string   `json:"original_text"`
	AppliedFixes         []string `json:"applied_fixes"`
	Value                any      `json:"parsed_value,omitempty"`
	Errors               Errors   `json:"errors,omitempty"`
	CanRetryWithFallback bool     `json:"can_retry_with_fallback"`
	UsedFallback         bool     `json:"used_fallback,omitempty"`
}

// Err returns the result errors, or nil when the result is a success.
func (r Result) Err() error {
	if r.Success || len(r.Errors) == 0 {
		return nil
	}
	return r.Errors
}

// Validation is the non-mutating check result.
type Validation struct {
	Valid  bool    `json:"valid"`
	Issues []Error `json:"issues"`
}

// LineOf returns the 1-based line that contains offset.
func LineOf(text string, offset int) int {
	if offset > len(text) {
		offset = len(text)
	}
	if offset < 0 {
		offset = 0
	}
	return strings.Count(text[:offset], "\n") + 1
}
