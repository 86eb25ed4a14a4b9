package model

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// CellState is the typing state of a single character.
//
// The cursor is the first cell that is neither correct nor pending. It is
// usually the single "current" cell, but after a miss that cell is stored as
// "incorrect" and no "current" cell exists until it is typed correctly.
// A fully correct cell set has no cursor.
type CellState int

// Cell states. A cell moves Pending -> Current -> Correct|Incorrect, and an
// Incorrect cell stays the cursor until it is typed correctly.
const (
	CellPending CellState = iota
	CellCurrent
	CellCorrect
	CellIncorrect
)

var cellStateNames = map[CellState]string{
	CellPending:   "pending",
	CellCurrent:   "current",
	CellCorrect:   "correct",
	CellIncorrect: "incorrect",
}

func (s CellState) String() string {
	if name, ok := cellStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("CellState(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s CellState) MarshalText() ([]byte, error) {
	name, ok := cellStateNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown cell state %d", int(s))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *CellState) UnmarshalText(text []byte) error {
	for state, name := range cellStateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown cell state %q", string(text))
}

// Attempt records whether the first evaluation of a cell was a match.
type Attempt int8

// Attempt values.
const (
	AttemptUnknown Attempt = iota
	AttemptCorrect
	AttemptMissed
)

// Known reports whether the first attempt has been recorded.
func (a Attempt) Known() bool {
	return a != AttemptUnknown
}

// MarshalJSON encodes the attempt as null, true or false.
func (a Attempt) MarshalJSON() ([]byte, error) {
	switch a {
	case AttemptCorrect:
		return []byte("true"), nil
	case AttemptMissed:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes null, true or false.
func (a *Attempt) UnmarshalJSON(data []byte) error {
	var v *bool
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid first attempt value: %w", err)
	}
	switch {
	case v == nil:
		*a = AttemptUnknown
	case *v:
		*a = AttemptCorrect
	default:
		*a = AttemptMissed
	}
	return nil
}

// Cell is one character of a challenge.
type Cell struct {
	Char         rune      `json:"-"`
	State        CellState `json:"state"`
	FirstAttempt Attempt   `json:"firstAttempt"`
}

type cellJSON struct {
	Char         string    `json:"char"`
	State        CellState `json:"state"`
	FirstAttempt Attempt   `json:"firstAttempt"`
}

// MarshalJSON encodes the character as a one-rune string.
func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal(cellJSON{Char: string(c.Char), State: c.State, FirstAttempt: c.FirstAttempt})
}

// UnmarshalJSON decodes a cell and rejects multi-rune characters.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var raw cellJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if utf8.RuneCountInString(raw.Char) != 1 {
		return fmt.Errorf("cell char must be a single rune, got %q", raw.Char)
	}
	r, _ := utf8.DecodeRuneInString(raw.Char)
	c.Char = r
	c.State = raw.State
	c.FirstAttempt = raw.FirstAttempt
	return nil
}

// Attempted reports whether the cell has been evaluated at least once.
func (c Cell) Attempted() bool {
	return c.State == CellCorrect || c.State == CellIncorrect
}
