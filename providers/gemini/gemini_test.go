package gemini

import (
	"context"
	"testing"

	"github.com/lyricat/goutils/structs"
	"google.golang.org/genai"

	"github.com/quailyquaily/unifix/chat"
)

type fakeModels struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	resp     *genai.GenerateContentResponse
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	return f.resp, nil
}

func TestBuildContents(t *testing.T) {
	temp := 0.3
	maxTokens := 512
	req := &chat.Request{
		Messages: []chat.Message{
			chat.System("repair"),
			chat.User("{a:1}"),
			chat.Assistant("{\"a\":1}"),
		},
		Options: chat.Options{
			Temperature: &temp,
			MaxTokens:   &maxTokens,
			Gemini:      structs.JSONMap{"top_k": 4, "response_mime_type": "application/json"},
		},
	}
	contents, config, err := buildContents(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 2 || contents[0].Role != "user" || contents[1].Role != "model" {
		t.Fatalf("unexpected contents: %+v", contents)
	}
	if config.SystemInstruction == nil || config.SystemInstruction.Parts[0].Text != "repair" {
		t.Fatalf("system instruction not set")
	}
	if config.Temperature == nil || *config.Temperature != float32(temp) {
		t.Fatalf("temperature mismatch")
	}
	if config.MaxOutputTokens != 512 {
		t.Fatalf("max output tokens mismatch")
	}
	if config.TopK == nil || *config.TopK != 4 {
		t.Fatalf("top_k mismatch")
	}
	if config.ResponseMIMEType != "application/json" {
		t.Fatalf("response mime type mismatch")
	}
}

func TestChat(t *testing.T) {
	fake := &fakeModels{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: "<a>1</a>"}}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     4,
			CandidatesTokenCount: 2,
			TotalTokenCount:      6,
		},
	}}
	p := &Provider{models: fake, defaultModel: "gemini-2.5-flash"}

	res, err := p.Chat(context.Background(), &chat.Request{Messages: []chat.Message{chat.User("<a>1")}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "<a>1</a>" {
		t.Fatalf("unexpected text: %q", res.Text)
	}
	if res.Model != "gemini-2.5-flash" || fake.model != "gemini-2.5-flash" {
		t.Fatalf("model not defaulted: %q", res.Model)
	}
	if res.Usage.TotalTokens != 6 {
		t.Fatalf("unexpected usage: %+v", res.Usage)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error without api key")
	}
}
