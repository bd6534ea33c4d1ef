package azure

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"

	"github.com/quailyquaily/unifix/chat"
	"github.com/quailyquaily/unifix/internal/diag"
	"github.com/quailyquaily/unifix/internal/oaicompat"
)

type Config struct {
	APIKey     string
	Endpoint   string
	Deployment string
	Debug      bool
}

type Provider struct {
	client     openai.Client
	deployment string
	debug      bool
}

const azureAPIVersion = "2024-08-01-preview"

func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" || cfg.Endpoint == "" {
		return nil, fmt.Errorf("azure openai api key and endpoint are required")
	}
	if cfg.Deployment == "" {
		return nil, fmt.Errorf("azure openai deployment is required")
	}
	client := openai.NewClient(
		azure.WithEndpoint(cfg.Endpoint, azureAPIVersion),
		azure.WithAPIKey(cfg.APIKey),
	)
	return &Provider{
		client:     client,
		deployment: cfg.Deployment,
		debug:      cfg.Debug,
	}, nil
}

func (p *Provider) Chat(ctx context.Context, req *chat.Request) (*chat.Result, error) {
	debugFn := req.Options.DebugFn
	params, err := p.buildParams(req)
	if err != nil {
		return nil, err
	}
	diag.LogJSON(p.debug, debugFn, "azure.chat.request", params)

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		diag.LogError(p.debug, debugFn, "azure.chat.response", err)
		return nil, err
	}
	diag.LogText(p.debug, debugFn, "azure.chat.response", resp.RawJSON())
	return oaicompat.ToResult(resp), nil
}

// buildParams targets the deployment; the request model is ignored since
// azure routes by deployment name. Azure extras win over the OpenAI ones.
func (p *Provider) buildParams(req *chat.Request) (openai.ChatCompletionNewParams, error) {
	extra := req.Options.Azure
	if len(extra) == 0 {
		extra = req.Options.OpenAI
	}
	params, err := oaicompat.BuildParams(req, p.deployment, false, extra)
	if err != nil {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("azure provider: %w", err)
	}
	return params, nil
}
