package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/quailyquaily/unifix/chat"
	"github.com/quailyquaily/unifix/internal/diag"
	"github.com/quailyquaily/unifix/internal/oaicompat"
)

type Config struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Debug        bool
}

type Provider struct {
	client       openai.Client
	defaultModel string
	debug        bool
}

func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Provider{
		client:       openai.NewClient(opts...),
		defaultModel: cfg.DefaultModel,
		debug:        cfg.Debug,
	}, nil
}

func (p *Provider) Chat(ctx context.Context, req *chat.Request) (*chat.Result, error) {
	debugFn := req.Options.DebugFn
	params, err := buildParams(req, p.defaultModel)
	if err != nil {
		return nil, err
	}
	diag.LogJSON(p.debug, debugFn, "openai.chat.request", params)

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		diag.LogError(p.debug, debugFn, "openai.chat.response", err)
		return nil, err
	}
	if raw := resp.RawJSON(); raw != "" {
		diag.LogText(p.debug, debugFn, "openai.chat.response", raw)
	} else {
		diag.LogJSON(p.debug, debugFn, "openai.chat.response", resp)
	}
	return oaicompat.ToResult(resp), nil
}

func buildParams(req *chat.Request, defaultModel string) (openai.ChatCompletionNewParams, error) {
	model := req.Model
	if model == "" {
		model = defaultModel
	}
	if model == "" {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("model is required")
	}
	params, err := oaicompat.BuildParams(req, model, useMaxCompletionTokens(model), req.Options.OpenAI)
	if err != nil {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("openai provider: %w", err)
	}
	return params, nil
}

func useMaxCompletionTokens(model string) bool {
	model = strings.ToLower(model)
	return strings.HasPrefix(model, "gpt") ||
		strings.HasPrefix(model, "o1") ||
		strings.HasPrefix(model, "o3") ||
		strings.HasPrefix(model, "o4")
}
