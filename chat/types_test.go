package chat

import (
	"testing"

	"github.com/lyricat/goutils/structs"
)

func TestBuildRequestRequiresMessages(t *testing.T) {
	_, err := BuildRequest(WithModel("gpt-4.1-mini"))
	if err == nil {
		t.Fatalf("expected error when messages are missing")
	}
}

func TestBuildRequestRejectsUnknownRole(t *testing.T) {
	_, err := BuildRequest(WithMessages(Message{Role: "tool", Content: "x"}))
	if err == nil {
		t.Fatalf("expected error for unsupported role")
	}
}

func TestWithMessagesAppend(t *testing.T) {
	req, err := BuildRequest(
		WithMessages(User("first")),
		WithMessages(User("second")),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(req.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(req.Messages))
	}
	if req.Messages[0].Content != "first" || req.Messages[1].Content != "second" {
		t.Fatalf("unexpected order: %+v", req.Messages)
	}
}

func TestWithReplaceMessages(t *testing.T) {
	req, err := BuildRequest(
		WithMessages(User("first")),
		WithReplaceMessages(User("only")),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(req.Messages) != 1 || req.Messages[0].Content != "only" {
		t.Fatalf("unexpected messages: %+v", req.Messages)
	}
}

func TestOptions(t *testing.T) {
	req, err := BuildRequest(
		WithMessages(User("hi")),
		WithTemperature(0.7),
		WithTopP(0.9),
		WithMaxTokens(123),
		WithStopWords("END"),
		WithOpenAIOptions(structs.JSONMap{"seed": 7}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Options.Temperature == nil || *req.Options.Temperature != 0.7 {
		t.Fatalf("temperature not set")
	}
	if req.Options.TopP == nil || *req.Options.TopP != 0.9 {
		t.Fatalf("top_p not set")
	}
	if req.Options.MaxTokens == nil || *req.Options.MaxTokens != 123 {
		t.Fatalf("max_tokens not set")
	}
	if len(req.Options.Stop) != 1 || req.Options.Stop[0] != "END" {
		t.Fatalf("stop not set")
	}
	if !req.Options.OpenAI.HasKey("seed") {
		t.Fatalf("openai options not set")
	}
}

func TestSplitSystem(t *testing.T) {
	system, rest := SplitSystem([]Message{
		System("a"),
		User("hi"),
		System("b"),
		Assistant("ok"),
	})
	if system != "a\n\nb" {
		t.Fatalf("unexpected system prompt: %q", system)
	}
	if len(rest) != 2 || rest[0].Role != RoleUser || rest[1].Role != RoleAssistant {
		t.Fatalf("unexpected messages: %+v", rest)
	}
}
