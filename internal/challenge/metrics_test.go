package challenge

import (
	"testing"
	"time"

	"github.com/verte-zerg/versetype/internal/model"
)

func TestElapsedSeconds(t *testing.T) {
	start := time.Unix(100, 0)
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
		ok    bool
	}{
		{name: "floor", start: start, end: start.Add(4999 * time.Millisecond), want: 4, ok: true},
		{name: "zero", start: start, end: start, want: 0, ok: true},
		{name: "missing end", start: start, ok: false},
		{name: "missing start", end: start, ok: false},
		{name: "reversed", start: start, end: start.Add(-time.Second), ok: false},
	}
	for _, tt := range tests {
		got, ok := ElapsedSeconds(tt.start, tt.end)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("%s: expected %d (%v), got %d (%v)", tt.name, tt.want, tt.ok, got, ok)
		}
	}
}

func TestAccuracyCountsCellsNotKeystrokes(t *testing.T) {
	cells := []model.Cell{
		{Char: 'a', State: model.CellCorrect, FirstAttempt: model.AttemptCorrect},
		{Char: 'b', State: model.CellCorrect, FirstAttempt: model.AttemptMissed},
		{Char: 'c', State: model.CellIncorrect, FirstAttempt: model.AttemptMissed},
		{Char: 'd', State: model.CellPending},
	}
	acc, ok := Accuracy(cells)
	if !ok || acc != 0.33 {
		t.Fatalf("expected 0.33, got %v (%v)", acc, ok)
	}
	if _, ok := Accuracy(BuildCells("abc")); ok {
		t.Fatalf("expected no accuracy without attempts")
	}
}

func TestWPM(t *testing.T) {
	if got, ok := WPM(250, 1, 60); !ok || got != 50 {
		t.Fatalf("expected 50, got %d (%v)", got, ok)
	}
	if got, ok := WPM(250, 0.9, 60); !ok || got != 45 {
		t.Fatalf("expected 45, got %d (%v)", got, ok)
	}
	if got, ok := WPM(100, 1, 45); !ok || got != 26 {
		t.Fatalf("expected 26, got %d (%v)", got, ok)
	}
	if _, ok := WPM(100, 1, 0); ok {
		t.Fatalf("expected no value for zero elapsed")
	}
}
