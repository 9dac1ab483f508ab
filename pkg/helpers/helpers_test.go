package helpers

import (
	"testing"

	"github.com/Protocol-Lattice/funeral-research/pkg/crew"
)

func TestParseInputs(t *testing.T) {
	got, err := ParseInputs([]string{"url=https://example.com/a=b", " region = ZA ", "region=SA"})
	if err != nil {
		t.Fatalf("ParseInputs returned error: %v", err)
	}
	if got["url"] != "https://example.com/a=b" {
		t.Fatalf("unexpected url %q", got["url"])
	}
	if got["region"] != "SA" {
		t.Fatalf("later pair should win, got %q", got["region"])
	}

	if got, err := ParseInputs(nil); err != nil || got != nil {
		t.Fatalf("expected nil inputs, got %#v (%v)", got, err)
	}
	for _, bad := range []string{"novalue", "=x"} {
		if _, err := ParseInputs([]string{bad}); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestParseSeries(t *testing.T) {
	got, err := ParseSeries("1, 2.5, ,4")
	if err != nil {
		t.Fatalf("ParseSeries returned error: %v", err)
	}
	want := []float64{1, 2.5, 4}
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("value %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	if _, err := ParseSeries("1,two"); err == nil {
		t.Fatalf("expected error for non-numeric value")
	}
	if got, err := ParseSeries("  "); err != nil || got != nil {
		t.Fatalf("expected nil series for blank input, got %#v (%v)", got, err)
	}
}

func TestAgentNames(t *testing.T) {
	if got := AgentNames(nil); got != "<none>" {
		t.Fatalf("expected <none> for nil slice, got %q", got)
	}
	agents := []*crew.AgentSpec{{Role: "Analyst"}, nil, {Role: "Writer"}}
	if got := AgentNames(agents); got != "Analyst, Writer" {
		t.Fatalf("unexpected agent names: %q", got)
	}
}

func TestParseCSVList(t *testing.T) {
	if got := ParseCSVList("   "); got != nil {
		t.Fatalf("expected nil for whitespace input, got %#v", got)
	}
	list := ParseCSVList("one, two, , three")
	want := []string{"one", "two", "three"}
	if len(list) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(list))
	}
	for i, v := range want {
		if list[i] != v {
			t.Fatalf("entry %d: expected %q, got %q", i, v, list[i])
		}
	}
}
