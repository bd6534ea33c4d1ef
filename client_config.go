package unifix

import (
	"github.com/quailyquaily/unifix/jsonrepair"
	"github.com/quailyquaily/unifix/xmlrepair"
)

// Fixed bases of the OpenAI-compatible hosted providers.
var compatBases = map[string]string{
	"deepseek": "https://api.deepseek.com",
	"xai":      "https://api.x.ai/v1",
	"groq":     "https://api.groq.com/openai/v1",
}

// apiBase is the endpoint the configured provider talks to. For bedrock it
// is the region.
func apiBase(cfg Config) string {
	if base, ok := compatBases[cfg.Provider]; ok {
		return base
	}
	switch cfg.Provider {
	case "ollama":
		return cfg.OllamaAPIBase
	case "gemini":
		return cfg.GeminiAPIBase
	case "azure":
		return cfg.AzureOpenAIEndpoint
	case "bedrock":
		return cfg.AwsRegion
	}
	return cfg.OpenAIAPIBase
}

// ClientConfigView is the secret-free part of a client's configuration,
// served by the daemon and printed by the tools.
type ClientConfigView struct {
	Provider        string            `json:"provider"`
	Model           string            `json:"model,omitempty"`
	APIBase         string            `json:"api_base,omitempty"`
	UseFallback     bool              `json:"use_fallback"`
	FallbackRetries int               `json:"fallback_retries"`
	JSON            jsonrepair.Config `json:"json"`
	XML             xmlrepair.Config  `json:"xml"`
}

func (c *Client) GetConfig() ClientConfigView {
	return ClientConfigView{
		Provider:        c.cfg.Provider,
		Model:           c.model(),
		APIBase:         apiBase(c.cfg),
		UseFallback:     c.cfg.UseFallback,
		FallbackRetries: c.cfg.FallbackRetries,
		JSON:            c.json.Config(),
		XML:             c.xml.Config(),
	}
}
