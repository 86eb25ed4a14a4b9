// Package challenge implements the typing challenge session.
package challenge

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/versetype/internal/model"
)

// FetchDateLayout is the format of the recorded fetch date (MM/DD/YYYY).
const FetchDateLayout = "01/02/2006"

// ErrNoSource is returned by Fetch when the session has no passage source.
var ErrNoSource = errors.New("no passage source configured")

// PassageSource selects passages. *passage.Selector implements it.
type PassageSource interface {
	SelectRandomPassage(ctx context.Context) (model.Passage, error)
}

// Outcome describes the effect of a submitted character.
type Outcome int

// Submit outcomes.
const (
	OutcomeIgnored Outcome = iota
	OutcomeHit
	OutcomeMiss
	OutcomeCompleted
)

// Session owns the per-character progress of one challenge. It is not safe
// for concurrent use; hosts serialize calls on their event loop.
type Session struct {
	source   PassageSource
	now      func() time.Time
	onChange func(model.Snapshot)

	id        string
	passage   *model.Passage
	cells     []model.Cell
	cursor    int
	active    bool
	startTime time.Time
	endTime   time.Time
	fetchDate string
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithChangeHook registers fn to receive a snapshot after every mutation.
func WithChangeHook(fn func(model.Snapshot)) Option {
	return func(s *Session) {
		s.onChange = fn
	}
}

// WithSnapshot seeds the session from a persisted snapshot.
func WithSnapshot(snap model.Snapshot) Option {
	return func(s *Session) {
		s.Restore(snap)
	}
}

// New returns an empty session drawing passages from source.
func New(source PassageSource, opts ...Option) *Session {
	s := &Session{
		source: source,
		now:    time.Now,
		cursor: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins a new challenge. It is equivalent to Fetch.
func (s *Session) Start(ctx context.Context) error {
	return s.Fetch(ctx)
}

// Fetch selects a new passage and replaces the challenge with it. On error
// the session is left untouched.
func (s *Session) Fetch(ctx context.Context) error {
	if s.source == nil {
		return ErrNoSource
	}
	p, err := s.source.SelectRandomPassage(ctx)
	if err != nil {
		return err
	}
	s.Load(p)
	return nil
}

// Load replaces the challenge with an already fetched passage.
func (s *Session) Load(p model.Passage) {
	s.passage = &p
	s.fetchDate = s.now().Format(FetchDateLayout)
	s.rebuild()
	s.notify()
}

// Reset restarts the current passage without fetching a new one.
func (s *Session) Reset() {
	if s.passage == nil {
		return
	}
	s.rebuild()
	s.notify()
}

// Submit evaluates one typed character against the cursor cell. Mismatches
// keep the cursor in place until the character is typed correctly.
func (s *Session) Submit(r rune) Outcome {
	if s.cursor < 0 || s.cursor >= len(s.cells) {
		return OutcomeIgnored
	}
	cell := &s.cells[s.cursor]
	if s.cursor == 0 && !cell.FirstAttempt.Known() && !s.active {
		s.active = true
		s.startTime = s.now()
	}

	outcome := OutcomeMiss
	if r == cell.Char {
		cell.State = model.CellCorrect
		if !cell.FirstAttempt.Known() {
			cell.FirstAttempt = model.AttemptCorrect
		}
		outcome = OutcomeHit
		if s.cursor+1 < len(s.cells) {
			s.cursor++
			s.cells[s.cursor].State = model.CellCurrent
		} else {
			s.cursor = -1
			s.active = false
			s.endTime = s.now()
			outcome = OutcomeCompleted
		}
	} else {
		cell.State = model.CellIncorrect
		if !cell.FirstAttempt.Known() {
			cell.FirstAttempt = model.AttemptMissed
		}
	}
	s.notify()
	return outcome
}

// ID identifies the current attempt. It changes on every fetch and reset.
func (s *Session) ID() string { return s.id }

// Passage returns the active passage.
func (s *Session) Passage() (model.Passage, bool) {
	if s.passage == nil {
		return model.Passage{}, false
	}
	return *s.passage, true
}

// Cells returns a copy of the cells.
func (s *Session) Cells() []model.Cell {
	out := make([]model.Cell, len(s.cells))
	copy(out, s.cells)
	return out
}

// CurrentIndex returns the cursor position, or -1 before a passage is
// loaded and after completion.
func (s *Session) CurrentIndex() int { return s.cursor }

// Active reports whether typing is under way.
func (s *Session) Active() bool { return s.active }

// Complete reports whether every cell has been typed correctly.
func (s *Session) Complete() bool {
	return len(s.cells) > 0 && s.cursor < 0
}

// FetchDate returns the local date of the last successful fetch.
func (s *Session) FetchDate() string { return s.fetchDate }

// StartTime returns the time of the first keystroke.
func (s *Session) StartTime() (time.Time, bool) {
	return s.startTime, !s.startTime.IsZero()
}

// Progress returns the fraction of cells typed correctly.
func (s *Session) Progress() float64 {
	if len(s.cells) == 0 {
		return 0
	}
	done := 0
	for _, c := range s.cells {
		if c.State == model.CellCorrect {
			done++
		}
	}
	return float64(done) / float64(len(s.cells))
}

// ElapsedSeconds returns whole seconds between the first keystroke and completion.
func (s *Session) ElapsedSeconds() (int, bool) {
	return ElapsedSeconds(s.startTime, s.endTime)
}

// Accuracy returns the share of attempted cells typed right the first time.
func (s *Session) Accuracy() (float64, bool) {
	return Accuracy(s.cells)
}

// WPM returns accuracy-weighted words per minute of a finished challenge.
func (s *Session) WPM() (int, bool) {
	elapsed, ok := s.ElapsedSeconds()
	if !ok {
		return 0, false
	}
	acc, ok := s.Accuracy()
	if !ok {
		return 0, false
	}
	return WPM(len(s.cells), acc, elapsed)
}

// Result returns the history record of a completed challenge.
func (s *Session) Result() (model.ChallengeRecord, []model.CharStats, bool) {
	if !s.Complete() || s.passage == nil || s.startTime.IsZero() {
		return model.ChallengeRecord{}, nil, false
	}
	attempted, firstCorrect := counts(s.cells)
	rec := model.ChallengeRecord{
		ID:                  s.id,
		StartedAt:           s.startTime,
		EndedAt:             s.endTime,
		Translation:         s.passage.Translation,
		TranslationID:       s.passage.TranslationID,
		Book:                s.passage.Book,
		Chapter:             s.passage.Chapter,
		VerseStart:          s.passage.VerseStart,
		VerseEnd:            s.passage.VerseEnd,
		Chars:               len(s.cells),
		FirstAttemptCorrect: firstCorrect,
		Attempted:           attempted,
		DurationMs:          s.endTime.Sub(s.startTime).Milliseconds(),
	}
	return rec, charStats(s.cells), true
}

func (s *Session) rebuild() {
	s.cells = BuildCells(s.passage.Content)
	s.cursor = -1
	if len(s.cells) > 0 {
		s.cursor = 0
	}
	s.active = false
	s.startTime = time.Time{}
	s.endTime = time.Time{}
	s.id = uuid.NewString()
}

func (s *Session) notify() {
	if s.onChange != nil {
		s.onChange(s.Snapshot())
	}
}

// BuildCells creates one cell per rune of text with the first cell current.
func BuildCells(text string) []model.Cell {
	runes := []rune(text)
	cells := make([]model.Cell, len(runes))
	for i, r := range runes {
		cells[i] = model.Cell{Char: r, State: model.CellPending}
	}
	if len(cells) > 0 {
		cells[0].State = model.CellCurrent
	}
	return cells
}

func charStats(cells []model.Cell) []model.CharStats {
	byChar := map[rune]*model.CharStats{}
	order := []rune{}
	for _, c := range cells {
		if c.Char == ' ' || !c.FirstAttempt.Known() {
			continue
		}
		entry, ok := byChar[c.Char]
		if !ok {
			entry = &model.CharStats{Char: string(c.Char)}
			byChar[c.Char] = entry
			order = append(order, c.Char)
		}
		if c.FirstAttempt == model.AttemptCorrect {
			entry.Correct++
		} else {
			entry.Incorrect++
		}
	}
	out := make([]model.CharStats, 0, len(order))
	for _, r := range order {
		out = append(out, *byChar[r])
	}
	return out
}
