package serverlog

import (
	"fmt"
	"testing"
)

func TestHistoryKeepsNewest(t *testing.T) {
	c := MustClassifier("")
	h := NewHistory(3)

	if got := h.Lines(0); got != nil {
		t.Errorf("Lines() on empty history = %v", got)
	}

	for i := 1; i <= 5; i++ {
		h.HandleLine(c.Classify(fmt.Sprintf("line %d", i), SourceStdout))
	}

	if h.Count() != 3 {
		t.Errorf("Count() = %d, want 3", h.Count())
	}

	got := h.Lines(0)
	want := []string{"line 3", "line 4", "line 5"}
	if len(got) != len(want) {
		t.Fatalf("Lines() = %v", got)
	}
	for i := range want {
		if got[i].Text != want[i] {
			t.Errorf("Lines()[%d] = %q, want %q", i, got[i].Text, want[i])
		}
	}

	last := h.Lines(2)
	if len(last) != 2 || last[0].Text != "line 4" || last[1].Text != "line 5" {
		t.Errorf("Lines(2) = %v", last)
	}
}

func TestHistoryRecordsSeverity(t *testing.T) {
	c := MustClassifier("")
	h := NewHistory(10)

	h.HandleLine(c.Classify("[10:00:00] [Server thread/WARN]: Can't keep up!", SourceStdout))
	h.HandleLine(c.Classify("at java.lang.Thread.run", SourceStderr))

	got := h.Lines(0)
	if got[0].Level != "WARN" || got[0].Source != SourceStdout {
		t.Errorf("entry 0 = %+v", got[0])
	}
	if got[1].Level != "UNKNOWN" || got[1].Source != SourceStderr {
		t.Errorf("entry 1 = %+v", got[1])
	}
	if got[0].Time.IsZero() {
		t.Error("entry time not set")
	}
}

func TestHandlersFanOut(t *testing.T) {
	var a, b []string
	hs := Handlers{
		LineHandlerFunc(func(l Line) { a = append(a, l.Raw) }),
		nil,
		LineHandlerFunc(func(l Line) { b = append(b, l.Raw) }),
	}
	hs.HandleLine(Line{Raw: "x", Source: SourceStdout, Result: Unmatched{Text: "x"}})

	if len(a) != 1 || len(b) != 1 {
		t.Errorf("a = %v, b = %v", a, b)
	}
}
