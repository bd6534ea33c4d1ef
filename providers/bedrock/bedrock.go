package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/bedrockruntime"
	"github.com/aws/aws-sdk-go/service/bedrockruntime/bedrockruntimeiface"
	"github.com/lyricat/goutils/structs"

	"github.com/quailyquaily/unifix/chat"
	"github.com/quailyquaily/unifix/internal/diag"
)

const (
	anthropicVersion = "bedrock-2023-05-31"
	defaultMaxTokens = 10000
)

type Config struct {
	AwsKey    string
	AwsSecret string
	AwsRegion string
	ModelArn  string
	Debug     bool
}

type Provider struct {
	client   bedrockruntimeiface.BedrockRuntimeAPI
	modelArn string
	debug    bool
}

func New(cfg Config) *Provider {
	region := cfg.AwsRegion
	if region == "" {
		region = "us-east-1"
	}
	sess := session.Must(session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewStaticCredentials(cfg.AwsKey, cfg.AwsSecret, ""),
	}))
	return &Provider{
		client:   bedrockruntime.New(sess),
		modelArn: cfg.ModelArn,
		debug:    cfg.Debug,
	}
}

type message struct {
	Role    string    `json:"role"`
	Content []content `json:"content"`
}

type content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type response struct {
	Content []content `json:"content"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (p *Provider) Chat(ctx context.Context, req *chat.Request) (*chat.Result, error) {
	debugFn := req.Options.DebugFn
	if p.modelArn == "" {
		return nil, fmt.Errorf("bedrock model arn is required")
	}
	payload, err := buildPayload(req)
	if err != nil {
		return nil, fmt.Errorf("bedrock provider model %q: %w", p.modelArn, err)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	diag.LogText(p.debug, debugFn, "bedrock.chat.request", string(body))

	resp, err := p.client.InvokeModelWithContext(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(p.modelArn),
		Body:        body,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		diag.LogError(p.debug, debugFn, "bedrock.chat.response", err)
		return nil, err
	}
	diag.LogText(p.debug, debugFn, "bedrock.chat.response", string(resp.Body))

	var out response
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("decode bedrock response: %w", err)
	}
	var text strings.Builder
	for _, c := range out.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}
	return &chat.Result{
		Text:  text.String(),
		Model: p.modelArn,
		Usage: chat.Usage{
			InputTokens:  out.Usage.InputTokens,
			OutputTokens: out.Usage.OutputTokens,
			TotalTokens:  out.Usage.InputTokens + out.Usage.OutputTokens,
		},
		Raw: out,
	}, nil
}

func buildPayload(req *chat.Request) (map[string]any, error) {
	system, rest := chat.SplitSystem(req.Messages)
	messages := make([]message, 0, len(rest))
	for _, m := range rest {
		if m.Content == "" {
			continue
		}
		messages = append(messages, message{
			Role:    m.Role,
			Content: []content{{Type: "text", Text: m.Content}},
		})
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("at least one user or assistant message is required")
	}

	maxTokens := defaultMaxTokens
	if req.Options.MaxTokens != nil {
		maxTokens = *req.Options.MaxTokens
	}
	payload := map[string]any{
		"anthropic_version": anthropicVersion,
		"max_tokens":        maxTokens,
		"messages":          messages,
	}
	if system != "" {
		payload["system"] = system
	}
	if req.Options.Temperature != nil {
		payload["temperature"] = *req.Options.Temperature
	}
	if req.Options.TopP != nil {
		payload["top_p"] = *req.Options.TopP
	}
	if len(req.Options.Stop) > 0 {
		payload["stop_sequences"] = append([]string{}, req.Options.Stop...)
	}
	applyOptions(payload, req.Options.Bedrock)
	return payload, nil
}

func applyOptions(payload map[string]any, opts structs.JSONMap) {
	if len(opts) == 0 {
		return
	}
	opt := &opts
	if opt.HasKey("top_k") {
		if top := int(opt.GetInt64("top_k")); top > 0 {
			payload["top_k"] = top
		}
	}
	if opt.HasKey("anthropic_version") {
		if v := strings.TrimSpace(opt.GetString("anthropic_version")); v != "" {
			payload["anthropic_version"] = v
		}
	}
}
