// Package model defines shared data structures.
package model

import "time"

// Config defines practice settings.
type Config struct {
	Translation string
	WindowSize  int
	APIBase     string
	Timeout     time.Duration
	Daily       bool
	ForceNew    bool
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Translation string
	Since       *time.Time
	Last        int
	CurveWindow int
}

// Passage is a bounded excerpt of scripture selected for a challenge.
type Passage struct {
	Book        string `json:"book"`
	BookID      string `json:"bookId"`
	Chapter     int    `json:"chapter"`
	Translation string `json:"translation"`
	VerseStart  int    `json:"verseStart"`
	VerseEnd    int    `json:"verseEnd"`
	Content     string `json:"content"`

	// TranslationID is the identifier used to request content, e.g. "eng_asv".
	TranslationID string `json:"translationId,omitempty"`
}

// Snapshot is the persisted form of a challenge session. The cursor is not
// stored; it is derived from Cells as described on CellState.
type Snapshot struct {
	ID        string     `json:"id,omitempty"`
	Active    bool       `json:"active"`
	Passage   *Passage   `json:"passage,omitempty"`
	Cells     []Cell     `json:"cells"`
	StartTime *time.Time `json:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	FetchDate string     `json:"fetchDate,omitempty"`
}

// ChallengeRecord captures a completed challenge.
type ChallengeRecord struct {
	ID                  string
	StartedAt           time.Time
	EndedAt             time.Time
	Translation         string
	TranslationID       string
	Book                string
	Chapter             int
	VerseStart          int
	VerseEnd            int
	Chars               int
	FirstAttemptCorrect int
	Attempted           int
	DurationMs          int64
}

// CharStats stores per-character first-attempt stats for a challenge.
type CharStats struct {
	Char      string
	Correct   int
	Incorrect int
}

// CharAggregate aggregates character stats across challenges.
type CharAggregate struct {
	Char      string
	Correct   int
	Incorrect int
}

// ChallengeAggregate summarizes a challenge for reporting.
type ChallengeAggregate struct {
	ChallengeID         int64
	EndedAt             time.Time
	Reference           string
	Chars               int
	FirstAttemptCorrect int
	Attempted           int
	DurationMs          int64
}
