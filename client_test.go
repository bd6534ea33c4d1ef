package unifix

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		in   string
		want Format
	}{
		{`{"a":1}`, FormatJSON},
		{"  [1,2]", FormatJSON},
		{"<root/>", FormatXML},
		{"\ufeff<?xml version=\"1.0\"?><a/>", FormatXML},
		{"```xml\n<a>1</a>\n```", FormatXML},
		{"{a: 'b'}", FormatJSON},
		{"", FormatJSON},
	}
	for _, tc := range cases {
		if got := Detect(tc.in); got != tc.want {
			t.Errorf("Detect(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": "", "auto": "", "JSON": FormatJSON, " xml ": FormatXML} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("yaml"); err == nil {
		t.Fatalf("expected error for yaml")
	}
}

func TestRepairDetectsFormat(t *testing.T) {
	c := New(Config{})
	ctx := context.Background()

	res, err := c.Repair(ctx, "", "{'a': 1,}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Format != FormatJSON || res.FixedText != `{"a": 1}` {
		t.Fatalf("unexpected json result: %+v", res)
	}

	res, err = c.Repair(ctx, "", "<root><item>1</itme></root>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Format != FormatXML {
		t.Fatalf("unexpected xml result: %+v", res)
	}
	if !strings.Contains(res.FixedText, "<item>1</item>") {
		t.Fatalf("closing tag not corrected: %q", res.FixedText)
	}

	if _, err := c.Repair(ctx, "yaml", "a: 1"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestRepairUsesInjectedGenerator(t *testing.T) {
	calls := 0
	c := New(Config{
		UseFallback: true,
		Generator: GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
			calls++
			if !strings.HasPrefix(prompt, "Fix this broken XML:\n") {
				t.Errorf("unexpected prompt: %q", prompt)
			}
			return "Here you go:\n<root><a>1</a></root>", nil
		}),
	})
	res := c.RepairXML(context.Background(), "<root x><a>1</a></root>")
	if !res.Success || !res.UsedFallback || calls != 1 {
		t.Fatalf("expected fallback repair, got %+v after %d calls", res, calls)
	}
	if res.FixedText != "<root><a>1</a></root>" {
		t.Fatalf("unexpected fixed text: %q", res.FixedText)
	}
}

func TestRepairWithDisablesFallback(t *testing.T) {
	c := New(Config{
		UseFallback: true,
		Generator: GeneratorFunc(func(context.Context, string) (string, error) {
			return "", errors.New("must not be called")
		}),
	})
	res, err := c.RepairWith(context.Background(), FormatXML, "<root x><a>1</a></root>", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success || res.UsedFallback || !res.CanRetryWithFallback {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRepairReportsUnavailableProvider(t *testing.T) {
	c := New(Config{Provider: "nope", UseFallback: true})
	res := c.RepairJSON(context.Background(), `{"a" ::: 1}`)
	if res.Success {
		t.Fatalf("expected failure")
	}
	if !res.Errors.Has(KindFallback) {
		t.Fatalf("expected fallback error, got %+v", res.Errors)
	}
}

func TestValidateAndPrettify(t *testing.T) {
	c := New(Config{})
	v, err := c.Validate(FormatJSON, "{\n  \"a\": 1,\n}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Valid {
		t.Fatalf("expected invalid json")
	}

	out, err := c.Prettify("", `{"b":{"c":[1,2]}}`, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "{\n  \"b\": {\n    \"c\": [\n      1,\n      2\n    ]\n  }\n}"
	if out != want {
		t.Fatalf("unexpected output:\n%s", out)
	}

	out, err = c.Prettify(FormatXML, "<a><b>1</b></a>", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "<a>\n  <b>1</b>\n</a>" {
		t.Fatalf("unexpected xml output:\n%s", out)
	}
}

func TestGetConfigHidesSecrets(t *testing.T) {
	c := New(Config{Provider: "groq", OpenAIAPIKey: "secret", OpenAIModel: "llama-3.1-8b"})
	view := c.GetConfig()
	if view.Provider != "groq" || view.APIBase != compatBases["groq"] || view.Model != "llama-3.1-8b" {
		t.Fatalf("unexpected view: %+v", view)
	}
	if strings.Contains(view.Provider+view.Model+view.APIBase, "secret") {
		t.Fatalf("view leaks api key")
	}
	if New(Config{}).GetConfig().Provider != "openai" {
		t.Fatalf("expected default provider openai")
	}
	if view.JSON.LongStringThreshold != 200 || view.XML.MaxEditDistance != 1 {
		t.Fatalf("expected engine defaults in view: %+v", view)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("UNIFIX_PROVIDER", "deepseek")
	t.Setenv("UNIFIX_FALLBACK", "true")
	t.Setenv("UNIFIX_FALLBACK_RETRIES", "2")
	t.Setenv("UNIFIX_TEMPERATURE", "0.5")
	t.Setenv("UNIFIX_XML_MAX_EDIT_DISTANCE", "2")
	t.Setenv("OPENAI_API_KEY", "k")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != "deepseek" || !cfg.UseFallback || cfg.FallbackRetries != 2 || cfg.OpenAIAPIKey != "k" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Temperature == nil || *cfg.Temperature != 0.5 {
		t.Fatalf("temperature not read")
	}
	if cfg.XML.MaxEditDistance != 2 {
		t.Fatalf("xml edit distance not read")
	}

	t.Setenv("UNIFIX_FALLBACK", "maybe")
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatalf("expected error for bad bool")
	}
}

func TestNewProviderSwitch(t *testing.T) {
	ctx := context.Background()
	ok := []Config{
		{Provider: "openai", OpenAIAPIKey: "k"},
		{Provider: "deepseek", OpenAIAPIKey: "k"},
		{Provider: "ollama"},
		{Provider: "azure", AzureOpenAIAPIKey: "k", AzureOpenAIEndpoint: "https://x.openai.azure.com", AzureOpenAIModel: "d"},
		{Provider: "bedrock", AwsKey: "a", AwsSecret: "b", AwsBedrockModelArn: "arn"},
	}
	for _, cfg := range ok {
		p, err := newProvider(ctx, cfg.withDefaults())
		if err != nil || p == nil {
			t.Errorf("provider %s: unexpected error: %v", cfg.Provider, err)
		}
	}
	bad := []Config{
		{Provider: "openai"},
		{Provider: "azure", AzureOpenAIAPIKey: "k"},
		{Provider: "bedrock"},
		{Provider: "gemini"},
		{Provider: "cohere"},
	}
	for _, cfg := range bad {
		p, err := newProvider(ctx, cfg.withDefaults())
		if err == nil {
			t.Errorf("provider %s: expected error", cfg.Provider)
		}
		if p != nil {
			t.Errorf("provider %s: expected nil provider on error", cfg.Provider)
		}
	}
}
