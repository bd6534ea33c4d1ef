package unifix

import (
	"context"
	"fmt"

	"github.com/quailyquaily/unifix/chat"
	"github.com/quailyquaily/unifix/providers/azure"
	"github.com/quailyquaily/unifix/providers/bedrock"
	"github.com/quailyquaily/unifix/providers/compat"
	"github.com/quailyquaily/unifix/providers/gemini"
	"github.com/quailyquaily/unifix/providers/openai"
)

// newProvider builds the chat provider named by cfg.Provider.
func newProvider(ctx context.Context, cfg Config) (chat.Provider, error) {
	switch cfg.Provider {
	case "openai", "openai_custom":
		return wrap(openai.New(openai.Config{
			APIKey:       cfg.OpenAIAPIKey,
			BaseURL:      cfg.OpenAIAPIBase,
			DefaultModel: cfg.OpenAIModel,
			Debug:        cfg.Debug,
		}))

	case "deepseek", "xai", "groq", "ollama":
		return wrap(compat.New(compat.Config{
			Name:         cfg.Provider,
			APIKey:       cfg.OpenAIAPIKey,
			BaseURL:      apiBase(cfg),
			DefaultModel: cfg.OpenAIModel,
			KeyOptional:  cfg.Provider == "ollama",
			Debug:        cfg.Debug,
		}))

	case "gemini":
		apiKey := cfg.GeminiAPIKey
		if apiKey == "" {
			apiKey = cfg.OpenAIAPIKey
		}
		model := cfg.GeminiModel
		if model == "" {
			model = cfg.OpenAIModel
		}
		return wrap(gemini.New(ctx, gemini.Config{
			APIKey:       apiKey,
			BaseURL:      cfg.GeminiAPIBase,
			DefaultModel: model,
			Debug:        cfg.Debug,
		}))

	case "azure":
		return wrap(azure.New(azure.Config{
			APIKey:     cfg.AzureOpenAIAPIKey,
			Endpoint:   cfg.AzureOpenAIEndpoint,
			Deployment: cfg.AzureOpenAIModel,
			Debug:      cfg.Debug,
		}))

	case "bedrock":
		if cfg.AwsBedrockModelArn == "" {
			return nil, fmt.Errorf("bedrock model arn is required")
		}
		return bedrock.New(bedrock.Config{
			AwsKey:    cfg.AwsKey,
			AwsSecret: cfg.AwsSecret,
			AwsRegion: cfg.AwsRegion,
			ModelArn:  cfg.AwsBedrockModelArn,
			Debug:     cfg.Debug,
		}), nil

	default:
		return nil, fmt.Errorf("provider %s not supported", cfg.Provider)
	}
}

// wrap keeps a failed constructor from returning a typed nil provider.
func wrap[P chat.Provider](p P, err error) (chat.Provider, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}
