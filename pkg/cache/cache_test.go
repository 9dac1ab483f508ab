package cache

import (
	"path/filepath"
	"testing"
	"time"
)

func BenchmarkCacheSet(b *testing.B) {
	c := New(1000, 5*time.Minute)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set(Key(string(rune(i))), "value")
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(3, time.Hour)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("c", "3")

	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("expected 1, got %q", v)
	}
	c.Set("d", "4")

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected 'b' to be evicted")
	}
	if c.Len() != 3 {
		t.Fatalf("expected length 3, got %d", c.Len())
	}
}

func TestCacheTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("key", "value")
	if _, ok := c.Get("key"); !ok {
		t.Fatalf("expected value to be present")
	}
	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("key"); ok {
		t.Fatalf("expected value to be expired")
	}
}

func TestKeySeparatesParts(t *testing.T) {
	if Key("ab", "c") == Key("a", "bc") {
		t.Fatalf("expected distinct keys for distinct part boundaries")
	}
	if Key("x") != Key("x") {
		t.Fatalf("expected deterministic key")
	}
}

func TestCacheSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	c := New(4, time.Hour)
	c.Set("prompt", "completion")
	if err := c.Save(path); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	restored := New(4, time.Hour)
	if err := restored.Load(path); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if v, ok := restored.Get("prompt"); !ok || v != "completion" {
		t.Fatalf("expected restored completion, got %q", v)
	}

	if err := New(1, time.Hour).Load(filepath.Join(t.TempDir(), "absent.json")); err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}
}
