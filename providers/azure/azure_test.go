package azure

import (
	"testing"

	"github.com/lyricat/goutils/structs"

	"github.com/quailyquaily/unifix/chat"
)

func TestBuildParamsUsesDeployment(t *testing.T) {
	p, err := New(Config{APIKey: "k", Endpoint: "https://example.openai.azure.com", Deployment: "repair-4o"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	maxTokens := 100
	req := &chat.Request{
		Model:    "ignored",
		Messages: []chat.Message{chat.User("hi")},
		Options: chat.Options{
			MaxTokens: &maxTokens,
			OpenAI:    structs.JSONMap{"seed": int64(1)},
			Azure:     structs.JSONMap{"seed": int64(2)},
		},
	}
	params, err := p.buildParams(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(params.Model) != "repair-4o" {
		t.Fatalf("expected deployment as model, got %q", params.Model)
	}
	if params.MaxTokens.Value != 100 {
		t.Fatalf("max tokens mismatch")
	}
	if params.Seed.Value != 2 {
		t.Fatalf("expected azure options to win, seed=%d", params.Seed.Value)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(Config{APIKey: "k"}); err == nil {
		t.Fatalf("expected error without endpoint")
	}
	if _, err := New(Config{APIKey: "k", Endpoint: "https://x"}); err == nil {
		t.Fatalf("expected error without deployment")
	}
}
