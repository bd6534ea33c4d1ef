// Package generator implements repair.Generator on top of a chat provider.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/quailyquaily/unifix/chat"
	"github.com/quailyquaily/unifix/internal/diag"
)

const SystemPrompt = "You repair malformed JSON and XML documents. " +
	"Reply with the corrected document only, without commentary. " +
	"Keep every key, attribute, element and value of the input."

var ErrEmptyOutput = errors.New("generator: provider returned no text")

type Options struct {
	Model       string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
	// CacheSize bounds the prompt to output cache. Zero disables caching.
	CacheSize int
	Debug     bool
	DebugFn   chat.DebugFn
}

// Generator sends repair prompts to a chat provider. Successful outputs are
// cached by prompt; a zero CacheSize disables the cache.
type Generator struct {
	provider chat.Provider
	opts     Options
	cache    *lru.Cache[string, string]
}

func New(provider chat.Provider, opts Options) (*Generator, error) {
	if provider == nil {
		return nil, fmt.Errorf("generator: provider is required")
	}
	g := &Generator{provider: provider, opts: opts}
	if opts.CacheSize > 0 {
		cache, err := lru.New[string, string](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("generator cache: %w", err)
		}
		g.cache = cache
	}
	return g, nil
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.cache != nil {
		if out, ok := g.cache.Get(prompt); ok {
			diag.LogText(g.opts.Debug, g.opts.DebugFn, "generator.cache_hit", prompt)
			return out, nil
		}
	}

	req, err := chat.BuildRequest(g.requestOptions(prompt)...)
	if err != nil {
		return "", err
	}
	diag.LogText(g.opts.Debug, g.opts.DebugFn, "generator.request", prompt)
	res, err := g.provider.Chat(ctx, req)
	if err != nil {
		diag.LogError(g.opts.Debug, g.opts.DebugFn, "generator.error", err)
		return "", fmt.Errorf("generator chat: %w", err)
	}
	out := strings.TrimSpace(res.Text)
	if out == "" {
		return "", ErrEmptyOutput
	}
	diag.LogText(g.opts.Debug, g.opts.DebugFn, "generator.response", out)
	if g.cache != nil {
		g.cache.Add(prompt, out)
	}
	return out, nil
}

// Forget drops the cached output for prompt.
func (g *Generator) Forget(prompt string) {
	if g.cache != nil {
		g.cache.Remove(prompt)
	}
}

func (g *Generator) requestOptions(prompt string) []chat.Option {
	opts := []chat.Option{
		chat.WithMessages(chat.System(SystemPrompt), chat.User(prompt)),
		chat.WithDebugFn(g.opts.DebugFn),
	}
	if g.opts.Model != "" {
		opts = append(opts, chat.WithModel(g.opts.Model))
	}
	if g.opts.Temperature != nil {
		opts = append(opts, chat.WithTemperature(*g.opts.Temperature))
	}
	if g.opts.TopP != nil {
		opts = append(opts, chat.WithTopP(*g.opts.TopP))
	}
	if g.opts.MaxTokens != nil {
		opts = append(opts, chat.WithMaxTokens(*g.opts.MaxTokens))
	}
	return opts
}
