package unifix

import (
	"github.com/quailyquaily/unifix/chat"
	"github.com/quailyquaily/unifix/repair"
	"github.com/quailyquaily/unifix/xmlrepair"
)

// Repair model re-exports
type (
	Format     = repair.Format
	Result     = repair.Result
	Error      = repair.Error
	Errors     = repair.Errors
	Kind       = repair.Kind
	Validation = repair.Validation
	Generator  = repair.Generator
	Options    = repair.Options
	Node       = xmlrepair.Node
	DebugFn    = chat.DebugFn
)

type GeneratorFunc = repair.GeneratorFunc

const (
	FormatJSON = repair.FormatJSON
	FormatXML  = repair.FormatXML
)

const (
	KindParse               = repair.KindParse
	KindUnmatchedClosingTag = repair.KindUnmatchedClosingTag
	KindMismatchedTags      = repair.KindMismatchedTags
	KindUnclosedTag         = repair.KindUnclosedTag
	KindInvalidTagName      = repair.KindInvalidTagName
	KindTextBeforeRoot      = repair.KindTextBeforeRoot
	KindMultipleRoots       = repair.KindMultipleRoots
	KindMissingOpeningTag   = repair.KindMissingOpeningTag
	KindTrailingComma       = repair.KindTrailingComma
	KindUnquotedKey         = repair.KindUnquotedKey
	KindSingleQuotes        = repair.KindSingleQuotes
	KindComment             = repair.KindComment
	KindFallback            = repair.KindFallback
)
