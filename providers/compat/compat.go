// Package compat talks to OpenAI-compatible chat endpoints (deepseek, groq,
// xai, ollama or any custom base URL) through go-openai.
package compat

import (
	"context"
	"fmt"
	"strings"

	"github.com/lyricat/goutils/structs"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/quailyquaily/unifix/chat"
	"github.com/quailyquaily/unifix/internal/diag"
)

type Config struct {
	// Name labels debug output, e.g. "deepseek".
	Name         string
	APIKey       string
	BaseURL      string
	DefaultModel string
	// KeyOptional allows keyless local servers such as ollama.
	KeyOptional bool
	Debug       bool
}

type Provider struct {
	client       *goopenai.Client
	name         string
	defaultModel string
	debug        bool
}

func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" && !cfg.KeyOptional {
		return nil, fmt.Errorf("%s api key is required", cfg.Name)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%s api base is required", cfg.Name)
	}
	conf := goopenai.DefaultConfig(cfg.APIKey)
	conf.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	name := cfg.Name
	if name == "" {
		name = "compat"
	}
	return &Provider{
		client:       goopenai.NewClientWithConfig(conf),
		name:         name,
		defaultModel: cfg.DefaultModel,
		debug:        cfg.Debug,
	}, nil
}

func (p *Provider) Chat(ctx context.Context, req *chat.Request) (*chat.Result, error) {
	debugFn := req.Options.DebugFn
	payload, err := buildRequest(req, p.defaultModel)
	if err != nil {
		return nil, fmt.Errorf("%s provider: %w", p.name, err)
	}
	diag.LogJSON(p.debug, debugFn, p.name+".chat.request", payload)

	resp, err := p.client.CreateChatCompletion(ctx, payload)
	if err != nil {
		diag.LogError(p.debug, debugFn, p.name+".chat.response", err)
		return nil, err
	}
	diag.LogJSON(p.debug, debugFn, p.name+".chat.response", resp)

	var text strings.Builder
	for _, choice := range resp.Choices {
		text.WriteString(choice.Message.Content)
	}
	return &chat.Result{
		Text:  text.String(),
		Model: resp.Model,
		Usage: chat.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		Raw: resp,
	}, nil
}

func buildRequest(req *chat.Request, defaultModel string) (goopenai.ChatCompletionRequest, error) {
	model := req.Model
	if model == "" {
		model = defaultModel
	}
	if model == "" {
		return goopenai.ChatCompletionRequest{}, fmt.Errorf("model is required")
	}
	messages := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages))
	for i, m := range req.Messages {
		var role string
		switch m.Role {
		case chat.RoleSystem:
			role = goopenai.ChatMessageRoleSystem
		case chat.RoleUser:
			role = goopenai.ChatMessageRoleUser
		case chat.RoleAssistant:
			role = goopenai.ChatMessageRoleAssistant
		default:
			return goopenai.ChatCompletionRequest{}, fmt.Errorf("message[%d]: unsupported role %q", i, m.Role)
		}
		messages = append(messages, goopenai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	payload := goopenai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}
	if req.Options.Temperature != nil {
		payload.Temperature = float32(*req.Options.Temperature)
	}
	if req.Options.TopP != nil {
		payload.TopP = float32(*req.Options.TopP)
	}
	if req.Options.MaxTokens != nil {
		payload.MaxTokens = *req.Options.MaxTokens
	}
	if len(req.Options.Stop) > 0 {
		payload.Stop = append([]string{}, req.Options.Stop...)
	}
	applyOptions(&payload, req.Options.OpenAI)
	return payload, nil
}

func applyOptions(payload *goopenai.ChatCompletionRequest, opts structs.JSONMap) {
	if len(opts) == 0 {
		return
	}
	opt := &opts
	if opt.HasKey("seed") {
		seed := int(opt.GetInt64("seed"))
		payload.Seed = &seed
	}
	if opt.HasKey("response_format") && strings.EqualFold(opt.GetString("response_format"), "json_object") {
		payload.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
}
