package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/quailyquaily/unifix/chat"
	"github.com/quailyquaily/unifix/jsonrepair"
	"github.com/quailyquaily/unifix/repair"
)

type fakeProvider struct {
	calls []*chat.Request
	texts []string
	err   error
}

func (f *fakeProvider) Chat(_ context.Context, req *chat.Request) (*chat.Result, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	text := f.texts[0]
	if len(f.texts) > 1 {
		f.texts = f.texts[1:]
	}
	return &chat.Result{Text: text}, nil
}

func TestGenerateBuildsRequest(t *testing.T) {
	temp := 0.0
	p := &fakeProvider{texts: []string{"  {\"a\":1}\n"}}
	g, err := New(p, Options{Model: "gpt-4.1-mini", Temperature: &temp})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := g.Generate(context.Background(), "Fix this broken JSON:\n{a:1}\n\nFixed JSON:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"a":1}` {
		t.Fatalf("unexpected output: %q", out)
	}
	req := p.calls[0]
	if req.Model != "gpt-4.1-mini" {
		t.Fatalf("model mismatch: %q", req.Model)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != chat.RoleSystem || req.Messages[1].Role != chat.RoleUser {
		t.Fatalf("unexpected messages: %+v", req.Messages)
	}
	if req.Options.Temperature == nil || *req.Options.Temperature != 0 {
		t.Fatalf("temperature not forwarded")
	}
}

func TestGenerateCachesByPrompt(t *testing.T) {
	p := &fakeProvider{texts: []string{"first", "second"}}
	g, err := New(p, Options{CacheSize: 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()
	a, _ := g.Generate(ctx, "p")
	b, _ := g.Generate(ctx, "p")
	if a != "first" || b != "first" || len(p.calls) != 1 {
		t.Fatalf("expected cached output, got %q %q after %d calls", a, b, len(p.calls))
	}
	g.Forget("p")
	c, _ := g.Generate(ctx, "p")
	if c != "second" || len(p.calls) != 2 {
		t.Fatalf("expected fresh output after Forget, got %q", c)
	}
}

func TestGenerateErrors(t *testing.T) {
	g, _ := New(&fakeProvider{texts: []string{"   "}}, Options{})
	if _, err := g.Generate(context.Background(), "p"); !errors.Is(err, ErrEmptyOutput) {
		t.Fatalf("expected ErrEmptyOutput, got %v", err)
	}

	boom := errors.New("boom")
	g, _ = New(&fakeProvider{err: boom}, Options{})
	if _, err := g.Generate(context.Background(), "p"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}

	if _, err := New(nil, Options{}); err == nil {
		t.Fatalf("expected error without provider")
	}
}

func TestRetryAfterRejectedCachedOutput(t *testing.T) {
	p := &fakeProvider{texts: []string{"not json at all", "```json\n{\"a\": 1}\n```"}}
	g, err := New(p, Options{CacheSize: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := jsonrepair.FixContext(context.Background(), `{"a" ::: 1}`, repair.Options{
		UseFallback: true,
		Generator:   g,
		Retries:     1,
	})
	if !res.Success || !res.UsedFallback {
		t.Fatalf("expected fallback success, got %+v", res)
	}
	if res.FixedText != `{"a": 1}` {
		t.Fatalf("unexpected fixed text: %q", res.FixedText)
	}
	if len(p.calls) != 2 {
		t.Fatalf("expected 2 provider calls, got %d", len(p.calls))
	}
}
