package oaicompat

import (
	"testing"

	"github.com/lyricat/goutils/structs"
	openai "github.com/openai/openai-go/v3"

	"github.com/quailyquaily/unifix/chat"
)

func TestBuildParamsMapping(t *testing.T) {
	temp := 0.2
	topP := 0.9
	maxTokens := 256
	req := &chat.Request{
		Messages: []chat.Message{chat.System("fix"), chat.User("{a:1}")},
		Options: chat.Options{
			Temperature: &temp,
			TopP:        &topP,
			MaxTokens:   &maxTokens,
			Stop:        []string{"END"},
		},
	}

	params, err := BuildParams(req, "gpt-4.1-mini", true, structs.JSONMap{
		"seed":             int64(42),
		"prompt_cache_key": "repair",
		"metadata":         map[string]any{"format": "json"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(params.Model) != "gpt-4.1-mini" {
		t.Fatalf("model mismatch: %q", params.Model)
	}
	if len(params.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(params.Messages))
	}
	if params.Temperature.Value != temp || params.TopP.Value != topP {
		t.Fatalf("temperature/top_p mismatch")
	}
	if params.MaxCompletionTokens.Value != int64(maxTokens) {
		t.Fatalf("max completion tokens mismatch")
	}
	if len(params.Stop.OfStringArray) != 1 || params.Stop.OfStringArray[0] != "END" {
		t.Fatalf("stop mismatch")
	}
	if params.Seed.Value != 42 {
		t.Fatalf("seed mismatch")
	}
	if params.PromptCacheKey.Value != "repair" {
		t.Fatalf("prompt cache key mismatch")
	}
	if params.Metadata["format"] != "json" {
		t.Fatalf("metadata mismatch: %v", params.Metadata)
	}
}

func TestBuildParamsLegacyMaxTokens(t *testing.T) {
	maxTokens := 64
	req := &chat.Request{
		Messages: []chat.Message{chat.User("x")},
		Options:  chat.Options{MaxTokens: &maxTokens},
	}
	params, err := BuildParams(req, "llama3", false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.MaxTokens.Value != 64 || params.MaxCompletionTokens.Value != 0 {
		t.Fatalf("expected max_tokens only")
	}
}

func TestToMessagesRejectsUnknownRole(t *testing.T) {
	if _, err := ToMessages([]chat.Message{{Role: "tool"}}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestApplyOptionsResponseFormat(t *testing.T) {
	var params openai.ChatCompletionNewParams
	ApplyOptions(&params, structs.JSONMap{"response_format": "json_object"})
	if params.ResponseFormat.OfJSONObject == nil {
		t.Fatalf("expected json_object response format")
	}
}

func TestToResult(t *testing.T) {
	resp := &openai.ChatCompletion{Model: "m"}
	resp.Choices = []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Content: `{"a":1}`}},
	}
	resp.Usage.PromptTokens = 10
	resp.Usage.CompletionTokens = 5
	resp.Usage.TotalTokens = 15

	res := ToResult(resp)
	if res.Text != `{"a":1}` || res.Model != "m" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Usage.TotalTokens != 15 || res.Usage.InputTokens != 10 {
		t.Fatalf("unexpected usage: %+v", res.Usage)
	}
	if ToResult(nil).Text != "" {
		t.Fatalf("nil response should give empty result")
	}
}
