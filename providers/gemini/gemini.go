package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/lyricat/goutils/structs"
	"google.golang.org/genai"

	"github.com/quailyquaily/unifix/chat"
	"github.com/quailyquaily/unifix/internal/diag"
)

type Config struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Debug        bool
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Provider struct {
	models       contentGenerator
	defaultModel string
	debug        bool
}

func New(ctx context.Context, cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Provider{
		models:       cli.Models,
		defaultModel: cfg.DefaultModel,
		debug:        cfg.Debug,
	}, nil
}

func (p *Provider) Chat(ctx context.Context, req *chat.Request) (*chat.Result, error) {
	debugFn := req.Options.DebugFn
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	contents, config, err := buildContents(req)
	if err != nil {
		return nil, fmt.Errorf("gemini provider model %q: %w", model, err)
	}
	diag.LogJSON(p.debug, debugFn, "gemini.chat.request", map[string]any{
		"model":    model,
		"contents": contents,
		"config":   config,
	})

	resp, err := p.models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		diag.LogError(p.debug, debugFn, "gemini.chat.response", err)
		return nil, err
	}
	diag.LogJSON(p.debug, debugFn, "gemini.chat.response", resp)

	result := &chat.Result{
		Text:  resp.Text(),
		Model: resp.ModelVersion,
		Raw:   resp,
	}
	if result.Model == "" {
		result.Model = model
	}
	if u := resp.UsageMetadata; u != nil {
		result.Usage = chat.Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
			TotalTokens:  int(u.TotalTokenCount),
		}
	}
	return result, nil
}

func buildContents(req *chat.Request) ([]*genai.Content, *genai.GenerateContentConfig, error) {
	system, rest := chat.SplitSystem(req.Messages)
	contents := make([]*genai.Content, 0, len(rest))
	for _, m := range rest {
		role := "user"
		if m.Role == chat.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	if len(contents) == 0 {
		return nil, nil, fmt.Errorf("at least one user or assistant message is required")
	}

	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if req.Options.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*req.Options.Temperature))
	}
	if req.Options.TopP != nil {
		config.TopP = genai.Ptr(float32(*req.Options.TopP))
	}
	if req.Options.MaxTokens != nil {
		config.MaxOutputTokens = int32(*req.Options.MaxTokens)
	}
	if len(req.Options.Stop) > 0 {
		config.StopSequences = append([]string{}, req.Options.Stop...)
	}
	applyOptions(config, req.Options.Gemini)
	return contents, config, nil
}

func applyOptions(config *genai.GenerateContentConfig, opts structs.JSONMap) {
	if len(opts) == 0 {
		return
	}
	opt := &opts
	if opt.HasKey("top_k") {
		if top := opt.GetInt64("top_k"); top > 0 {
			config.TopK = genai.Ptr(float32(top))
		}
	}
	if opt.HasKey("seed") {
		config.Seed = genai.Ptr(int32(opt.GetInt64("seed")))
	}
	if opt.HasKey("response_mime_type") {
		if v := strings.TrimSpace(opt.GetString("response_mime_type")); v != "" {
			config.ResponseMIMEType = v
		}
	}
}
