package unifix

import (
	"github.com/quailyquaily/unifix/chat"
	"github.com/quailyquaily/unifix/jsonrepair"
	"github.com/quailyquaily/unifix/repair"
	"github.com/quailyquaily/unifix/xmlrepair"
)

// Config provides shared configuration for unifix clients.
// Provider fields are only read when the generative fallback is enabled.
type Config struct {
	Provider string
	Debug    bool
	DebugFn  chat.DebugFn

	// Engines
	JSON jsonrepair.Config
	XML  xmlrepair.Config

	// Fallback
	UseFallback     bool
	FallbackRetries int
	Temperature     *float64
	TopP            *float64
	MaxTokens       *int
	// CacheSize bounds the generator cache. Zero means DefaultCacheSize and
	// a negative value disables caching.
	CacheSize int
	// Generator overrides the provider-backed generator.
	Generator repair.Generator

	// OpenAI / OpenAI-compatible
	OpenAIAPIKey  string
	OpenAIAPIBase string
	OpenAIModel   string

	// Azure OpenAI
	AzureOpenAIAPIKey   string
	AzureOpenAIEndpoint string
	AzureOpenAIModel    string

	// AWS Bedrock
	AwsKey             string
	AwsSecret          string
	AwsRegion          string
	AwsBedrockModelArn string

	// Gemini
	GeminiAPIKey  string
	GeminiAPIBase string
	GeminiModel   string

	// Ollama
	OllamaAPIBase string
}

const (
	DefaultOpenAIAPIBase = "https://api.openai.com/v1"
	DefaultOllamaAPIBase = "http://localhost:11434/v1"
	DefaultCacheSize     = 256
)

func (cfg Config) withDefaults() Config {
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}
	if cfg.OpenAIAPIBase == "" {
		cfg.OpenAIAPIBase = DefaultOpenAIAPIBase
	}
	if cfg.OllamaAPIBase == "" {
		cfg.OllamaAPIBase = DefaultOllamaAPIBase
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.FallbackRetries < 0 {
		cfg.FallbackRetries = 0
	}
	if cfg.Temperature == nil {
		zero := 0.0
		cfg.Temperature = &zero
	}
	return cfg
}
