package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/lyricat/goutils/structs"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type DebugFn func(label string, payload string)

type Options struct {
	Temperature *float64        `json:"temperature,omitempty"`
	TopP        *float64        `json:"top_p,omitempty"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
	Stop        []string        `json:"stop,omitempty"`
	OpenAI      structs.JSONMap `json:"openai_options,omitempty"`
	Azure       structs.JSONMap `json:"azure_options,omitempty"`
	Bedrock     structs.JSONMap `json:"bedrock_options,omitempty"`
	Gemini      structs.JSONMap `json:"gemini_options,omitempty"`
	DebugFn     DebugFn         `json:"-"`
}

type Request struct {
	Model    string    `json:"model,omitempty"`
	Messages []Message `json:"messages"`
	Options  Options   `json:"options,omitempty"`
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type Result struct {
	Text  string `json:"text,omitempty"`
	Model string `json:"model,omitempty"`
	Usage Usage  `json:"usage,omitempty"`
	Raw   any    `json:"raw,omitempty"`
}

// Provider sends one chat completion request.
type Provider interface {
	Chat(ctx context.Context, req *Request) (*Result, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req *Request) (*Result, error)

func (f ProviderFunc) Chat(ctx context.Context, req *Request) (*Result, error) {
	return f(ctx, req)
}

type Option func(*Request)

func BuildRequest(opts ...Option) (*Request, error) {
	req := &Request{}
	for _, opt := range opts {
		if opt != nil {
			opt(req)
		}
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("messages are required")
	}
	for i, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return nil, fmt.Errorf("message[%d]: unsupported role %q", i, msg.Role)
		}
	}
	return req, nil
}

// SplitSystem returns the joined system prompt and the remaining messages,
// for providers that take the system prompt out of band.
func SplitSystem(msgs []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}

func WithModel(model string) Option {
	return func(r *Request) { r.Model = model }
}

func WithMessages(msgs ...Message) Option {
	return func(r *Request) { r.Messages = append(r.Messages, msgs...) }
}

func WithReplaceMessages(msgs ...Message) Option {
	return func(r *Request) { r.Messages = append([]Message{}, msgs...) }
}

func WithTemperature(v float64) Option {
	return func(r *Request) { r.Options.Temperature = &v }
}

func WithTopP(v float64) Option {
	return func(r *Request) { r.Options.TopP = &v }
}

func WithMaxTokens(v int) Option {
	return func(r *Request) { r.Options.MaxTokens = &v }
}

func WithStopWords(stops ...string) Option {
	return func(r *Request) { r.Options.Stop = append([]string{}, stops...) }
}

func WithDebugFn(fn DebugFn) Option {
	return func(r *Request) { r.Options.DebugFn = fn }
}

func WithOpenAIOptions(opts structs.JSONMap) Option {
	return func(r *Request) { r.Options.OpenAI = opts }
}

func WithAzureOptions(opts structs.JSONMap) Option {
	return func(r *Request) { r.Options.Azure = opts }
}

func WithBedrockOptions(opts structs.JSONMap) Option {
	return func(r *Request) { r.Options.Bedrock = opts }
}

func WithGeminiOptions(opts structs.JSONMap) Option {
	return func(r *Request) { r.Options.Gemini = opts }
}

func System(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

func User(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

func Assistant(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}
