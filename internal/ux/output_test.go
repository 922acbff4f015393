package ux

import (
	"bytes"
	"strings"
	"testing"
)

func TestStatusLines(t *testing.T) {
	var buf bytes.Buffer
	Errorf(&buf, "bad %s", "input")
	Successf(&buf, "saved %d", 3)
	Warnf(&buf, "careful")

	out := buf.String()
	for _, want := range []string{"✗ Error:", "bad input", "✓", "saved 3", "⚠ Warning:", "careful"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q: %q", want, out)
		}
	}
	if n := strings.Count(out, "\n"); n != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", n, out)
	}
}
