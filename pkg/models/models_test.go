package models

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Protocol-Lattice/funeral-research/pkg/cache"
)

func TestNewDummyLLMDefaultPrefix(t *testing.T) {
	llm := NewDummyLLM("")
	resp, err := llm.Generate(context.Background(), "line1\nline2")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if got := resp.(string); got != "Dummy response: line2" {
		t.Fatalf("unexpected response: %q", got)
	}
}

func TestDummyLLMRestatesTask(t *testing.T) {
	prompt := "You are Writer.\n\nCurrent Task: Summarize the findings\n\n" +
		"This is the expected criteria for your final answer: A report\n\nReply with a single command."
	resp, err := NewDummyLLM("").Generate(context.Background(), prompt)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	want := "Dummy response: Summarize the findings\nDelivers: A report"
	if got := resp.(string); got != want {
		t.Fatalf("unexpected response: %q", got)
	}

	resp, _ = NewDummyLLM("").Generate(context.Background(), "Current Task: Fetch\nlast line")
	if got := resp.(string); got != "Dummy response: Fetch" {
		t.Fatalf("expected task without criteria, got %q", got)
	}
}

func TestDummyLLMHandlesEmptyPrompt(t *testing.T) {
	llm := NewDummyLLM("Prefix")
	resp, err := llm.Generate(context.Background(), "\n\n\n")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if got := resp.(string); got != "Prefix <empty prompt>" {
		t.Fatalf("unexpected response: %q", got)
	}
}

func TestNewLLMProviderErrorsOnUnknownProvider(t *testing.T) {
	if _, err := NewLLMProvider(context.Background(), "unknown", "model", ""); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestNewLLMProviderGeminiRequiresKey(t *testing.T) {
	if _, err := NewLLMProvider(context.Background(), "gemini", "", ""); err == nil {
		t.Fatalf("expected error for gemini without api key")
	}
}

func TestNewLLMProviderBuildsOfflineModels(t *testing.T) {
	m, err := NewLLMProvider(context.Background(), "dummy", "", "")
	if err != nil {
		t.Fatalf("NewLLMProvider returned error: %v", err)
	}
	if _, ok := m.(*DummyLLM); !ok {
		t.Fatalf("expected *DummyLLM, got %T", m)
	}
	if _, err := NewLLMProvider(context.Background(), "openai", "gpt-4o-mini", "sk-test"); err != nil {
		t.Fatalf("openai construction should not touch the network: %v", err)
	}
}

type stringer struct{}

func (stringer) String() string { return "  from stringer " }

func TestText(t *testing.T) {
	cases := map[string]any{
		"":              nil,
		"plain":         "  plain\n",
		"from stringer": stringer{},
		"42":            42,
	}
	for want, in := range cases {
		if got := Text(in); got != want {
			t.Fatalf("Text(%#v) = %q, want %q", in, got, want)
		}
	}
}

type countingModel struct {
	calls int
	err   error
}

func (m *countingModel) Generate(_ context.Context, prompt string) (any, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return "answer to " + prompt, nil
}

func TestCachedLLMReusesCompletions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llm.json")
	inner := &countingModel{}
	cached := NewCachedLLM(inner, cache.New(8, time.Hour), path)

	for i := 0; i < 3; i++ {
		resp, err := cached.Generate(context.Background(), "q")
		if err != nil {
			t.Fatalf("Generate returned error: %v", err)
		}
		if resp != "answer to q" {
			t.Fatalf("unexpected response: %v", resp)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 underlying call, got %d", inner.calls)
	}

	reloaded := NewCachedLLM(&countingModel{err: errors.New("offline")}, cache.New(8, time.Hour), path)
	if resp, err := reloaded.Generate(context.Background(), "q"); err != nil || resp != "answer to q" {
		t.Fatalf("expected persisted completion, got %v, %v", resp, err)
	}
}

func TestCachedLLMDoesNotCacheErrors(t *testing.T) {
	inner := &countingModel{err: errors.New("boom")}
	cached := NewCachedLLM(inner, cache.New(8, time.Hour), "")
	for i := 0; i < 2; i++ {
		if _, err := cached.Generate(context.Background(), "q"); err == nil {
			t.Fatalf("expected error")
		}
	}
	if inner.calls != 2 {
		t.Fatalf("expected errors to bypass the cache, got %d calls", inner.calls)
	}
}
