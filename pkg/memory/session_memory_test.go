package memory

import "testing"

func TestAddShortTermBoundsBuffer(t *testing.T) {
	sm := NewSessionMemory(2)
	sm.AddShortTerm("s", "user", "one", nil)
	sm.AddShortTerm("s", "assistant", "two", nil)
	sm.AddShortTerm("s", "user", "three", nil)

	got := sm.RetrieveContext("s", 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Content != "two" || got[1].Content != "three" {
		t.Fatalf("expected oldest record to be dropped, got %#v", got)
	}
}

func TestAddShortTermIgnoresBlank(t *testing.T) {
	sm := NewSessionMemory(4)
	sm.AddShortTerm("s", "user", "   ", nil)
	if got := sm.RetrieveContext("s", 0); len(got) != 0 {
		t.Fatalf("expected blank content to be ignored, got %#v", got)
	}
}

func TestRetrieveContextLimitAndIsolation(t *testing.T) {
	sm := NewSessionMemory(8)
	for _, c := range []string{"a", "b", "c"} {
		sm.AddShortTerm("s1", "assistant", c, map[string]string{"task": c})
	}
	sm.AddShortTerm("s2", "assistant", "other", nil)

	got := sm.RetrieveContext("s1", 2)
	if len(got) != 2 || got[0].Content != "b" || got[1].Content != "c" {
		t.Fatalf("unexpected records: %#v", got)
	}
	if got[1].Metadata["task"] != "c" {
		t.Fatalf("expected metadata to be kept")
	}

	got[0].Content = "mutated"
	if sm.RetrieveContext("s1", 2)[0].Content != "b" {
		t.Fatalf("expected RetrieveContext to return a copy")
	}

	if len(sm.RetrieveContext("s2", 0)) != 1 {
		t.Fatalf("expected other sessions to be untouched")
	}
}
