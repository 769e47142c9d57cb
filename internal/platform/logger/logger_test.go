package logger

import (
	"strings"
	"testing"
)

func TestScrubberRules(t *testing.T) {
	s := &scrubber{}
	out := s.kvs([]interface{}{"postgres_password", "hunter2", "owner_id", "8d1c", "project_id", "abc"})
	if out[1] != "[REDACTED]" {
		t.Fatalf("password: want=[REDACTED] got=%v", out[1])
	}
	if got, ok := out[3].(string); !ok || !strings.HasPrefix(got, "hash:") || len(got) != len("hash:")+12 {
		t.Fatalf("owner_id: expected 12-char hash, got=%v", out[3])
	}
	if out[5] != "abc" {
		t.Fatalf("project_id: want passthrough got=%v", out[5])
	}
}

func TestScrubberSaltChangesHash(t *testing.T) {
	a := (&scrubber{}).hash("alice")
	b := (&scrubber{salt: "pepper"}).hash("alice")
	if a == b {
		t.Fatalf("salted hash must differ: %s", a)
	}
}

func TestScrubberOddLengthAndNil(t *testing.T) {
	in := []interface{}{"a", 1, "dangling"}
	out := (&scrubber{}).kvs(in)
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected output: %+v", out)
	}
	var none *scrubber
	if got := none.kvs(in); &got[0] != &in[0] {
		t.Fatalf("nil scrubber must return input unchanged")
	}
}
