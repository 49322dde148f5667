package ui

import (
	"bytes"
	"strings"
	"testing"
)

func captureStatus(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := statusOut
	statusOut = &buf
	t.Cleanup(func() { statusOut = prev })
	return &buf
}

func TestProgress_DoneCompletes(t *testing.T) {
	out := captureStatus(t)

	p := NewProgress("Parsing", 10)
	p.Update(4)
	p.Done()

	if !strings.Contains(out.String(), "Parsing: 100% (10 of 10)") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestProgress_StopKeepsPosition(t *testing.T) {
	out := captureStatus(t)

	p := NewProgress("Parsing", 10)
	p.Update(4)
	p.Stop()

	got := out.String()
	if !strings.Contains(got, "Parsing: 40% (4 of 10)") {
		t.Fatalf("output = %q", got)
	}
	if strings.Contains(got, "100%") {
		t.Fatalf("a stopped bar must not report completion: %q", got)
	}
}
