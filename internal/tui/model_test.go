package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/versetype/internal/model"
	"github.com/verte-zerg/versetype/internal/passage"
)

type fakeStore struct {
	snapshots []model.Snapshot
	records   []model.ChallengeRecord
	history   []model.ChallengeAggregate
}

func (s *fakeStore) SaveSnapshot(_ context.Context, snap model.Snapshot) error {
	s.snapshots = append(s.snapshots, snap)
	return nil
}

func (s *fakeStore) InsertChallenge(_ context.Context, rec model.ChallengeRecord, _ []model.CharStats) (int64, bool, error) {
	for i, r := range s.records {
		if r.ID == rec.ID {
			return int64(i + 1), false, nil
		}
	}
	s.records = append(s.records, rec)
	return int64(len(s.records)), true, nil
}

func (s *fakeStore) ListChallenges(_ context.Context, _ model.StatsConfig) ([]model.ChallengeAggregate, error) {
	return s.history, nil
}

type fakeSource struct {
	passages []model.Passage
	err      error
}

func (s *fakeSource) SelectRandomPassage(_ context.Context) (model.Passage, error) {
	if s.err != nil {
		return model.Passage{}, s.err
	}
	p := s.passages[0]
	s.passages = s.passages[1:]
	return p, nil
}

func testPassage(content string) model.Passage {
	return model.Passage{Book: "John", BookID: "JHN", Chapter: 11, Translation: "eng_asv", VerseStart: 35, VerseEnd: 35, Content: content}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestFetchLoadsPassage(t *testing.T) {
	st := &fakeStore{}
	src := &fakeSource{passages: []model.Passage{testPassage("Jesus wept.")}}
	m := NewModel(model.Config{}, st, src, nil)

	if m.Init() == nil {
		t.Fatalf("expected init command")
	}
	if !m.fetching {
		t.Fatalf("expected fetch to start without a stored passage")
	}
	_, cmd := m.Update(passageMsg{passage: testPassage("Jesus wept.")})
	if len(st.snapshots) != 0 {
		t.Fatalf("expected snapshot write to be deferred to a command")
	}
	if cmd == nil {
		t.Fatalf("expected snapshot save command")
	}
	cmd()
	if m.fetching {
		t.Fatalf("expected fetch to finish")
	}
	if got := len(m.session.Cells()); got != len([]rune("Jesus wept.")) {
		t.Fatalf("expected cells for passage, got %d", got)
	}
	if len(st.snapshots) == 0 {
		t.Fatalf("expected snapshot to be persisted on load")
	}
	if !strings.Contains(m.renderHeader(), "John 11:35 (eng_asv)") {
		t.Fatalf("expected reference in header: %q", m.renderHeader())
	}
}

func TestFetchErrorKeepsChallenge(t *testing.T) {
	st := &fakeStore{}
	snap := model.Snapshot{Passage: ptr(testPassage("ab"))}
	m := NewModel(model.Config{}, st, &fakeSource{}, &snap)
	m.Update(keyRunes("a"))

	m.fetching = true
	fetchErr := &passage.ContentFetchError{Translation: "eng_asv", Book: "GEN", Chapter: 1, Err: errors.New("timeout")}
	m.Update(passageMsg{err: fetchErr})

	if m.fetchErr == nil || !strings.Contains(m.renderHeader(), "Could not load GEN 1") {
		t.Fatalf("expected fetch error banner, got %q", m.renderHeader())
	}
	if m.session.CurrentIndex() != 1 {
		t.Fatalf("expected previous challenge to be kept, cursor=%d", m.session.CurrentIndex())
	}
	m.Update(keyRunes("b"))
	if !m.session.Complete() {
		t.Fatalf("expected previous challenge to stay playable")
	}
}

func TestCompletionRecordsChallenge(t *testing.T) {
	st := &fakeStore{}
	snap := model.Snapshot{Passage: ptr(testPassage("a b"))}
	m := NewModel(model.Config{}, st, &fakeSource{}, &snap)

	m.Update(keyRunes("a"))
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m.Update(keyRunes("b"))

	if !m.session.Complete() {
		t.Fatalf("expected challenge to complete")
	}
	if len(st.records) != 1 {
		t.Fatalf("expected 1 stored challenge, got %d", len(st.records))
	}
	rec := st.records[0]
	if rec.Chars != 3 || rec.Attempted != 3 || rec.FirstAttemptCorrect != 2 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(m.history) != 1 || m.history[0].Reference != "John 11:35 (eng_asv)" {
		t.Fatalf("expected history to include the new challenge: %+v", m.history)
	}

	m.Update(keyRunes("a"))
	if len(st.records) != 1 {
		t.Fatalf("expected input after completion to be ignored")
	}
}

func TestDailyDisablesNewPassage(t *testing.T) {
	snap := model.Snapshot{Passage: ptr(testPassage("ab"))}
	m := NewModel(model.Config{Daily: true}, &fakeStore{}, &fakeSource{}, &snap)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	if cmd != nil || m.fetching {
		t.Fatalf("expected ctrl+n to be disabled in daily mode")
	}
}

func TestResetRestartsPassage(t *testing.T) {
	snap := model.Snapshot{Passage: ptr(testPassage("ab"))}
	m := NewModel(model.Config{}, &fakeStore{}, &fakeSource{}, &snap)
	m.Update(keyRunes("a"))
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.session.CurrentIndex() != 0 || m.session.Active() {
		t.Fatalf("expected reset to restart the passage")
	}
}

func TestRenderFooterFormats(t *testing.T) {
	st := &fakeStore{history: []model.ChallengeAggregate{
		{Chars: 250, FirstAttemptCorrect: 9, Attempted: 10, DurationMs: 60000},
		{Chars: 100, FirstAttemptCorrect: 1, Attempted: 1, DurationMs: 45000},
	}}
	snap := model.Snapshot{Passage: ptr(testPassage("abcd"))}
	m := NewModel(model.Config{}, st, &fakeSource{}, &snap)
	m.Update(keyRunes("ab"))

	out := m.renderFooter()
	if !containsAll(out, []string{"Progress 50%", "Last 26 WPM · 100%", "All-time 35.5 WPM · 95.0%"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func TestSnapshotSavesRunOffTheEventLoop(t *testing.T) {
	st := &fakeStore{}
	snap := model.Snapshot{Passage: ptr(testPassage("abc"))}
	m := NewModel(model.Config{}, st, &fakeSource{}, &snap)

	_, first := m.Update(keyRunes("a"))
	_, second := m.Update(keyRunes("b"))
	if first == nil || second == nil {
		t.Fatalf("expected a save command per keystroke")
	}
	if len(st.snapshots) != 0 {
		t.Fatalf("expected no synchronous store writes, got %d", len(st.snapshots))
	}

	second()
	first()
	if len(st.snapshots) != 1 {
		t.Fatalf("expected stale save to be skipped, got %d writes", len(st.snapshots))
	}
	if got := countState(st.snapshots[0].Cells, model.CellCorrect); got != 2 {
		t.Fatalf("expected newest snapshot with 2 correct cells, got %d", got)
	}

	if _, cmd := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24}); cmd != nil {
		t.Fatalf("expected no save command without a state change")
	}

	m.Update(keyRunes("x"))
	m.FlushSnapshot()
	if len(st.snapshots) != 2 {
		t.Fatalf("expected flush to write the pending snapshot, got %d writes", len(st.snapshots))
	}
	m.FlushSnapshot()
	if len(st.snapshots) != 2 {
		t.Fatalf("expected flush to skip an already saved snapshot")
	}
}

func countState(cells []model.Cell, state model.CellState) int {
	n := 0
	for _, c := range cells {
		if c.State == state {
			n++
		}
	}
	return n
}

func ptr[T any](v T) *T {
	return &v
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
