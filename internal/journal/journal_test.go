package journal

import (
	"testing"
	"time"
)

func TestJournalRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	entries, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected an empty journal, got %d entries", len(entries))
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := Append(Entry{At: at, Action: "play", Outcome: "LOSS", Message: "missed"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := Append(Entry{At: at.Add(time.Minute), Action: "solve", Outcome: "REJECTED"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries, err = Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries=%d want 2", len(entries))
	}
	if entries[0].Action != "play" || entries[1].Action != "solve" {
		t.Fatalf("entries=%+v", entries)
	}
	if !entries[0].At.Equal(at) {
		t.Fatalf("at=%v want %v", entries[0].At, at)
	}

	if err := Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	entries, err = Load()
	if err != nil {
		t.Fatalf("load after clear: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected the clear to empty the journal")
	}

	// Clearing a journal that is already gone is not an error.
	if err := Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}
