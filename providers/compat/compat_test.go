package compat

import (
	"testing"

	"github.com/lyricat/goutils/structs"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/quailyquaily/unifix/chat"
)

func TestBuildRequestMapping(t *testing.T) {
	temp := 0.4
	topP := 0.8
	maxTokens := 256

	req := &chat.Request{
		Messages: []chat.Message{chat.System("fix"), chat.User("hello")},
		Options: chat.Options{
			Temperature: &temp,
			TopP:        &topP,
			MaxTokens:   &maxTokens,
			Stop:        []string{"END"},
			OpenAI:      structs.JSONMap{"seed": 3, "response_format": "json_object"},
		},
	}

	payload, err := buildRequest(req, "deepseek-chat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Model != "deepseek-chat" {
		t.Fatalf("model mismatch")
	}
	if payload.Temperature != float32(temp) || payload.TopP != float32(topP) {
		t.Fatalf("temperature/top_p mismatch")
	}
	if payload.MaxTokens != maxTokens {
		t.Fatalf("max tokens mismatch")
	}
	if len(payload.Stop) != 1 || payload.Stop[0] != "END" {
		t.Fatalf("stop mismatch")
	}
	if payload.Messages[0].Role != goopenai.ChatMessageRoleSystem {
		t.Fatalf("role mismatch: %q", payload.Messages[0].Role)
	}
	if payload.Seed == nil || *payload.Seed != 3 {
		t.Fatalf("seed not mapped")
	}
	if payload.ResponseFormat == nil || payload.ResponseFormat.Type != goopenai.ChatCompletionResponseFormatTypeJSONObject {
		t.Fatalf("response format not mapped")
	}
}

func TestBuildRequestRequiresModel(t *testing.T) {
	req := &chat.Request{Messages: []chat.Message{chat.User("hello")}}
	if _, err := buildRequest(req, ""); err == nil {
		t.Fatalf("expected error without model")
	}
}

func TestNew(t *testing.T) {
	if _, err := New(Config{Name: "groq", BaseURL: "https://api.groq.com/openai/v1"}); err == nil {
		t.Fatalf("expected error without api key")
	}
	if _, err := New(Config{Name: "ollama", BaseURL: "http://localhost:11434/v1", KeyOptional: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := New(Config{Name: "xai", APIKey: "k"}); err == nil {
		t.Fatalf("expected error without base url")
	}
}
