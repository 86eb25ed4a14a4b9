package challenge

import (
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/versetype/internal/model"
)

// Snapshot returns a copy of the persisted fields.
func (s *Session) Snapshot() model.Snapshot {
	snap := model.Snapshot{
		ID:        s.id,
		Active:    s.active,
		Cells:     s.Cells(),
		FetchDate: s.fetchDate,
	}
	if s.passage != nil {
		p := *s.passage
		snap.Passage = &p
	}
	if !s.startTime.IsZero() {
		t := s.startTime
		snap.StartTime = &t
	}
	if !s.endTime.IsZero() {
		t := s.endTime
		snap.EndTime = &t
	}
	return snap
}

// Restore replaces the session state with snap. Cells that do not match the
// passage text or break the cursor invariants are rebuilt from the passage.
func (s *Session) Restore(snap model.Snapshot) {
	s.id = snap.ID
	s.fetchDate = snap.FetchDate
	s.active = snap.Active
	s.startTime = timeOrZero(snap.StartTime)
	s.endTime = timeOrZero(snap.EndTime)
	s.passage = nil
	s.cells = nil
	s.cursor = -1

	if snap.Passage == nil {
		s.active = false
		s.startTime = time.Time{}
		s.endTime = time.Time{}
		return
	}
	p := *snap.Passage
	s.passage = &p

	cursor, ok := validCells(snap.Cells, p.Content)
	if !ok {
		s.rebuild()
		return
	}
	s.cells = make([]model.Cell, len(snap.Cells))
	copy(s.cells, snap.Cells)
	s.cursor = cursor
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if cursor >= 0 {
		s.endTime = time.Time{}
		if s.startTime.IsZero() {
			s.active = false
		}
	} else {
		s.active = false
	}
}

// validCells checks that cells spell content and that the typed prefix,
// cursor and pending suffix are consistent. It returns the cursor index.
func validCells(cells []model.Cell, content string) (int, bool) {
	runes := []rune(content)
	if len(cells) == 0 || len(cells) != len(runes) {
		return -1, false
	}
	cursor := -1
	for i, c := range cells {
		if c.Char != runes[i] {
			return -1, false
		}
		switch {
		case cursor < 0 && c.State == model.CellCorrect:
			if !c.FirstAttempt.Known() {
				return -1, false
			}
		case cursor < 0 && (c.State == model.CellCurrent || c.State == model.CellIncorrect):
			if c.State == model.CellIncorrect && c.FirstAttempt != model.AttemptMissed {
				return -1, false
			}
			if c.State == model.CellCurrent && c.FirstAttempt.Known() {
				return -1, false
			}
			cursor = i
		case cursor >= 0 && c.State == model.CellPending && !c.FirstAttempt.Known():
		default:
			return -1, false
		}
	}
	return cursor, true
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
