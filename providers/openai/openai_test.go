package openai

import (
	"testing"

	"github.com/quailyquaily/unifix/chat"
)

func TestBuildParamsMapping(t *testing.T) {
	temp := 0.4
	maxTokens := 256

	req := &chat.Request{
		Model:    "gpt-4.1-mini",
		Messages: []chat.Message{chat.User("hello")},
		Options: chat.Options{
			Temperature: &temp,
			MaxTokens:   &maxTokens,
			Stop:        []string{"END"},
		},
	}

	params, err := buildParams(req, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(params.Model) != "gpt-4.1-mini" {
		t.Fatalf("model mismatch")
	}
	if params.Temperature.Value != temp {
		t.Fatalf("temperature mismatch")
	}
	if params.MaxCompletionTokens.Value != int64(maxTokens) {
		t.Fatalf("max completion tokens mismatch")
	}
}

func TestBuildParamsDefaultModel(t *testing.T) {
	req := &chat.Request{Messages: []chat.Message{chat.User("hello")}}
	params, err := buildParams(req, "o4-mini")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(params.Model) != "o4-mini" {
		t.Fatalf("expected default model, got %q", params.Model)
	}
	if _, err := buildParams(req, ""); err == nil {
		t.Fatalf("expected error without any model")
	}
}

func TestMaxCompletionTokensHeuristic(t *testing.T) {
	cases := map[string]bool{
		"gpt-4o":   true,
		"o1-mini":  true,
		"o3":       true,
		"llama3.1": false,
	}
	for model, want := range cases {
		if got := useMaxCompletionTokens(model); got != want {
			t.Errorf("useMaxCompletionTokens(%q) = %v, want %v", model, got, want)
		}
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error without api key")
	}
}
