package unifix

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ConfigFromEnv reads UNIFIX_* settings and the provider credentials from the
// environment. Unset variables leave the zero value.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Provider:            env("UNIFIX_PROVIDER"),
		OpenAIAPIKey:        env("OPENAI_API_KEY"),
		OpenAIAPIBase:       env("OPENAI_API_BASE"),
		OpenAIModel:         env("OPENAI_MODEL"),
		AzureOpenAIAPIKey:   env("AZURE_OPENAI_API_KEY"),
		AzureOpenAIEndpoint: env("AZURE_OPENAI_ENDPOINT"),
		AzureOpenAIModel:    env("AZURE_OPENAI_MODEL"),
		AwsKey:              env("AWS_ACCESS_KEY_ID"),
		AwsSecret:           env("AWS_SECRET_ACCESS_KEY"),
		AwsRegion:           env("AWS_REGION"),
		AwsBedrockModelArn:  env("AWS_BEDROCK_MODEL_ARN"),
		GeminiAPIKey:        env("GEMINI_API_KEY"),
		GeminiAPIBase:       env("GEMINI_API_BASE"),
		GeminiModel:         env("GEMINI_MODEL"),
		OllamaAPIBase:       env("OLLAMA_API_BASE"),
	}
	var err error
	if cfg.UseFallback, err = envBool("UNIFIX_FALLBACK"); err != nil {
		return Config{}, err
	}
	if cfg.Debug, err = envBool("UNIFIX_DEBUG"); err != nil {
		return Config{}, err
	}
	if cfg.FallbackRetries, err = envInt("UNIFIX_FALLBACK_RETRIES"); err != nil {
		return Config{}, err
	}
	if cfg.CacheSize, err = envInt("UNIFIX_CACHE_SIZE"); err != nil {
		return Config{}, err
	}
	if cfg.JSON.LongStringThreshold, err = envInt("UNIFIX_JSON_LONG_STRING_THRESHOLD"); err != nil {
		return Config{}, err
	}
	if cfg.XML.MaxEditDistance, err = envInt("UNIFIX_XML_MAX_EDIT_DISTANCE"); err != nil {
		return Config{}, err
	}
	if v := env("UNIFIX_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("UNIFIX_TEMPERATURE: %w", err)
		}
		cfg.Temperature = &f
	}
	if v := env("UNIFIX_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("UNIFIX_MAX_TOKENS: %w", err)
		}
		cfg.MaxTokens = &n
	}
	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envBool(key string) (bool, error) {
	v := env(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envInt(key string) (int, error) {
	v := env(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
