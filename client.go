package unifix

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/quailyquaily/unifix/generator"
	"github.com/quailyquaily/unifix/jsonrepair"
	"github.com/quailyquaily/unifix/repair"
	"github.com/quailyquaily/unifix/xmlrepair"
)

type Client struct {
	cfg  Config
	json *jsonrepair.Engine
	xml  *xmlrepair.Engine

	genOnce sync.Once
	gen     repair.Generator
	genErr  error
}

func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:  cfg,
		json: jsonrepair.New(cfg.JSON),
		xml:  xmlrepair.New(cfg.XML),
	}
}

// ParseFormat maps "json", "xml" and "" (auto) to a format. The empty
// string yields the zero Format, which Repair resolves with Detect.
func ParseFormat(s string) (repair.Format, error) {
	switch f := repair.Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", "auto":
		return "", nil
	case repair.FormatJSON, repair.FormatXML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q", s)
	}
}

// Detect guesses the format of text from its first significant byte. Text
// that opens with '<' is XML; everything else is treated as JSON.
func Detect(text string) repair.Format {
	t := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "\ufeff"))
	if strings.HasPrefix(t, "```") {
		_, rest, _ := strings.Cut(t, "\n")
		t = strings.TrimSpace(rest)
	}
	if strings.HasPrefix(t, "<") {
		return repair.FormatXML
	}
	return repair.FormatJSON
}

func (c *Client) resolve(format repair.Format, text string) (repair.Format, error) {
	switch format {
	case "":
		return Detect(text), nil
	case repair.FormatJSON, repair.FormatXML:
		return format, nil
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}

// Repair fixes text in the given format; an empty format is detected. The
// generative fallback runs when the client is configured for it and the
// rule-based repair could not produce a parseable document.
func (c *Client) Repair(ctx context.Context, format repair.Format, text string) (repair.Result, error) {
	format, err := c.resolve(format, text)
	if err != nil {
		return repair.Result{}, err
	}
	return c.repair(ctx, format, text, c.cfg.UseFallback), nil
}

// RepairWith is Repair with the fallback switched per call.
func (c *Client) RepairWith(ctx context.Context, format repair.Format, text string, useFallback bool) (repair.Result, error) {
	format, err := c.resolve(format, text)
	if err != nil {
		return repair.Result{}, err
	}
	return c.repair(ctx, format, text, useFallback), nil
}

func (c *Client) RepairJSON(ctx context.Context, text string) repair.Result {
	return c.repair(ctx, repair.FormatJSON, text, c.cfg.UseFallback)
}

func (c *Client) RepairXML(ctx context.Context, text string) repair.Result {
	return c.repair(ctx, repair.FormatXML, text, c.cfg.UseFallback)
}

func (c *Client) repair(ctx context.Context, format repair.Format, text string, useFallback bool) repair.Result {
	opts := repair.Options{Retries: c.cfg.FallbackRetries}
	var genErr error
	if useFallback {
		opts.UseFallback = true
		opts.Generator, genErr = c.generator(ctx)
	}

	var res repair.Result
	switch format {
	case repair.FormatXML:
		res = c.xml.FixContext(ctx, text, opts)
	default:
		res = c.json.FixContext(ctx, text, opts)
	}
	if genErr != nil && !res.Success {
		res.Errors = append(res.Errors, repair.NewError(repair.KindFallback, "fallback unavailable: %v", genErr))
	}
	return res
}

func (c *Client) Validate(format repair.Format, text string) (repair.Validation, error) {
	format, err := c.resolve(format, text)
	if err != nil {
		return repair.Validation{}, err
	}
	if format == repair.FormatXML {
		return c.xml.Validate(text), nil
	}
	return c.json.Validate(text), nil
}

func (c *Client) Prettify(format repair.Format, text string, indent int) (string, error) {
	format, err := c.resolve(format, text)
	if err != nil {
		return "", err
	}
	if format == repair.FormatXML {
		return c.xml.Prettify(text, indent)
	}
	return c.json.Prettify(text, indent)
}

// generator returns the configured generator, building the provider-backed
// one on first use.
func (c *Client) generator(ctx context.Context) (repair.Generator, error) {
	if c.cfg.Generator != nil {
		return c.cfg.Generator, nil
	}
	c.genOnce.Do(func() {
		provider, err := newProvider(context.WithoutCancel(ctx), c.cfg)
		if err != nil {
			c.genErr = err
			return
		}
		c.gen, c.genErr = generator.New(provider, generator.Options{
			Model:       c.model(),
			Temperature: c.cfg.Temperature,
			TopP:        c.cfg.TopP,
			MaxTokens:   c.cfg.MaxTokens,
			CacheSize:   c.cfg.CacheSize,
			Debug:       c.cfg.Debug,
			DebugFn:     c.cfg.DebugFn,
		})
	})
	if c.genErr != nil {
		return nil, c.genErr
	}
	return c.gen, nil
}

func (c *Client) model() string {
	switch c.cfg.Provider {
	case "azure":
		return c.cfg.AzureOpenAIModel
	case "bedrock":
		return c.cfg.AwsBedrockModelArn
	case "gemini":
		if c.cfg.GeminiModel != "" {
			return c.cfg.GeminiModel
		}
	}
	return c.cfg.OpenAIModel
}
