package risp

import (
	"fmt"
	"testing"
)

func TestTraceToForm(t *testing.T) {
	tr := &Trace{
		ID:        "id-1",
		Entry:     "(+ 1 2)",
		Result:    Int(3),
		Timestamp: "2026-02-27T20:00:00Z",
	}

	v := tr.ToForm()
	if v.Kind != KindHashMap {
		t.Fatalf("expected HashMap, got %s", v.KindName())
	}
	for key, want := range map[string]Form{
		"id":        Str("id-1"),
		"entry":     Str("(+ 1 2)"),
		"timestamp": Str("2026-02-27T20:00:00Z"),
		"result":    Int(3),
		"error":     Nil(),
	} {
		got, ok := v.Map.Get(Keyword(key))
		if !ok {
			t.Fatalf("missing %s", key)
		}
		if !Equal(got, want) {
			t.Fatalf("%s: expected %s, got %s", key, want, got)
		}
	}
}

func TestTraceToFormWithError(t *testing.T) {
	tr := &Trace{
		Entry:     "(bad expr)",
		Error:     "'bad' not found",
		Timestamp: "2026-02-27T20:00:00Z",
	}

	v := tr.ToForm()
	errVal, _ := v.Map.Get(Keyword("error"))
	if !Equal(errVal, Str("'bad' not found")) {
		t.Fatalf("error mismatch: %s", errVal)
	}
	result, _ := v.Map.Get(Keyword("result"))
	if !result.IsNil() {
		t.Fatalf("result should be nil, got %s", result)
	}
}

func TestTraceRingCap(t *testing.T) {
	r := traceRing{max: 5}
	for i := 0; i < 12; i++ {
		r.append(Trace{Entry: fmt.Sprint(i)})
	}
	all := r.last(-1)
	if len(all) != 5 {
		t.Fatalf("expected 5 traces, got %d", len(all))
	}
	if all[0].Entry != "7" || all[4].Entry != "11" {
		t.Fatalf("expected traces 7..11, got %s..%s", all[0].Entry, all[4].Entry)
	}
	if got := r.last(2); len(got) != 2 || got[0].Entry != "10" {
		t.Fatalf("unexpected last(2): %v", got)
	}
	if got := r.last(50); len(got) != 5 {
		t.Fatalf("expected all 5, got %d", len(got))
	}
}
