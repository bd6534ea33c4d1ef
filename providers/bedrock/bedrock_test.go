package bedrock

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/bedrockruntime"
	"github.com/aws/aws-sdk-go/service/bedrockruntime/bedrockruntimeiface"
	"github.com/lyricat/goutils/structs"

	"github.com/quailyquaily/unifix/chat"
)

type fakeRuntime struct {
	bedrockruntimeiface.BedrockRuntimeAPI
	input *bedrockruntime.InvokeModelInput
	body  string
}

func (f *fakeRuntime) InvokeModelWithContext(_ aws.Context, in *bedrockruntime.InvokeModelInput, _ ...request.Option) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = in
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func TestBuildPayload(t *testing.T) {
	temp := 0.1
	req := &chat.Request{
		Messages: []chat.Message{chat.System("fix it"), chat.User("{a:1}")},
		Options: chat.Options{
			Temperature: &temp,
			Stop:        []string{"END"},
			Bedrock:     structs.JSONMap{"top_k": 5},
		},
	}
	payload, err := buildPayload(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload["anthropic_version"] != anthropicVersion {
		t.Fatalf("anthropic_version mismatch: %v", payload["anthropic_version"])
	}
	if payload["max_tokens"] != defaultMaxTokens {
		t.Fatalf("max_tokens mismatch: %v", payload["max_tokens"])
	}
	if payload["system"] != "fix it" {
		t.Fatalf("system mismatch: %v", payload["system"])
	}
	if payload["temperature"] != temp {
		t.Fatalf("temperature mismatch: %v", payload["temperature"])
	}
	if payload["top_k"] != 5 {
		t.Fatalf("top_k mismatch: %v", payload["top_k"])
	}
	msgs, ok := payload["messages"].([]message)
	if !ok || len(msgs) != 1 || msgs[0].Role != chat.RoleUser || msgs[0].Content[0].Text != "{a:1}" {
		t.Fatalf("unexpected messages: %#v", payload["messages"])
	}
}

func TestBuildPayloadRequiresMessage(t *testing.T) {
	req := &chat.Request{Messages: []chat.Message{chat.System("only system")}}
	if _, err := buildPayload(req); err == nil {
		t.Fatalf("expected error")
	}
}

func TestChat(t *testing.T) {
	fake := &fakeRuntime{body: `{"content":[{"type":"text","text":"{\"a\":1}"}],"usage":{"input_tokens":7,"output_tokens":3}}`}
	p := &Provider{client: fake, modelArn: "arn:aws:bedrock:model"}

	res, err := p.Chat(context.Background(), &chat.Request{Messages: []chat.Message{chat.User("{a:1}")}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != `{"a":1}` {
		t.Fatalf("unexpected text: %q", res.Text)
	}
	if res.Usage.TotalTokens != 10 {
		t.Fatalf("unexpected usage: %+v", res.Usage)
	}
	if aws.StringValue(fake.input.ModelId) != "arn:aws:bedrock:model" {
		t.Fatalf("model id not forwarded")
	}
	var sent map[string]any
	if err := json.Unmarshal(fake.input.Body, &sent); err != nil {
		t.Fatalf("request body is not json: %v", err)
	}
}

func TestChatRequiresModelArn(t *testing.T) {
	p := &Provider{client: &fakeRuntime{}}
	if _, err := p.Chat(context.Background(), &chat.Request{Messages: []chat.Message{chat.User("x")}}); err == nil {
		t.Fatalf("expected error")
	}
}
