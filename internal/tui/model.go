// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/versetype/internal/challenge"
	"github.com/verte-zerg/versetype/internal/model"
	"github.com/verte-zerg/versetype/internal/passage"
	"github.com/verte-zerg/versetype/internal/stats"
)

// Store persists session snapshots and completed challenges.
type Store interface {
	SaveSnapshot(ctx context.Context, snap model.Snapshot) error
	InsertChallenge(ctx context.Context, rec model.ChallengeRecord, chars []model.CharStats) (int64, bool, error)
	ListChallenges(ctx context.Context, cfg model.StatsConfig) ([]model.ChallengeAggregate, error)
}

type passageMsg struct {
	passage model.Passage
	err     error
}

type tickMsg time.Time

// Model implements the Bubble Tea typing UI.
type Model struct {
	config    model.Config
	store     Store
	source    challenge.PassageSource
	session   *challenge.Session
	snapshots *snapshotWriter
	now       func() time.Time

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	width  int
	height int

	fetching bool
	fetchErr error

	history []model.ChallengeAggregate
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	recoveredStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E8A0A0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	resultStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// NewModel constructs a typing TUI model. A non-nil snap resumes a stored
// challenge; otherwise a passage is fetched when the program starts.
func NewModel(cfg model.Config, st Store, src challenge.PassageSource, snap *model.Snapshot) *Model {
	m := &Model{
		config:    cfg,
		store:     st,
		source:    src,
		snapshots: newSnapshotWriter(st),
		now:       time.Now,
		keys:      newKeyMap(cfg.Daily),
		help:      help.New(),
	}
	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(currentWordStyle))
	opts := []challenge.Option{challenge.WithChangeHook(m.snapshots.queue)}
	if snap != nil {
		opts = append(opts, challenge.WithSnapshot(*snap))
	}
	m.session = challenge.New(src, opts...)
	m.loadHistory()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tick()}
	if _, ok := m.session.Passage(); !ok {
		cmds = append(cmds, m.startFetch())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model. Snapshot writes triggered by the message are
// returned as a command so the store is never touched on the event loop.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	save := m.snapshots.cmd()
	switch {
	case save == nil:
		return m, cmd
	case cmd == nil:
		return m, save
	default:
		return m, tea.Batch(cmd, save)
	}
}

// FlushSnapshot synchronously writes any snapshot not yet saved. Call it
// after the program exits.
func (m *Model) FlushSnapshot() {
	m.snapshots.flush()
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return nil
	case passageMsg:
		m.fetching = false
		if msg.err != nil {
			m.fetchErr = msg.err
			logErrf("failed to fetch passage: %v\n", msg.err)
			return nil
		}
		m.fetchErr = nil
		m.session.Load(msg.passage)
		return nil
	case spinner.TickMsg:
		if !m.fetching {
			return nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd
	case tickMsg:
		return tick()
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return tea.Quit
		case key.Matches(msg, m.keys.New):
			if m.fetching {
				return nil
			}
			return m.startFetch()
		case key.Matches(msg, m.keys.Reset):
			m.session.Reset()
			return nil
		}
		if m.fetching {
			return nil
		}
		switch msg.Type {
		case tea.KeySpace:
			m.handleRunes([]rune{' '})
		case tea.KeyRunes:
			m.handleRunes(msg.Runes)
		}
		return nil
	default:
		return nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	header := m.renderHeader()
	content := m.renderContent()
	footer := m.renderFooter()
	helpLine := m.help.View(m.keys)
	if m.width == 0 || m.height == 0 {
		return strings.Join([]string{header, content, footer, helpLine}, "\n")
	}
	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	block := lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		lipgloss.NewStyle().Width(contentWidth).Render(m.wrappedCells(contentWidth)),
	)
	if m.height < 4 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, block)
	}
	bodyHeight := m.height - 2
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, block)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	helpRow := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, helpLine)
	return body + "\n" + footerLine + "\n" + helpRow
}

func (m *Model) renderContent() string {
	return m.wrappedCells(0)
}

func (m *Model) wrappedCells(width int) string {
	cells := m.session.Cells()
	if len(cells) == 0 {
		return ""
	}
	return wrapStyledRunes(buildStyledCells(cells, m.session.CurrentIndex()), width)
}

func (m *Model) renderHeader() string {
	var lines []string
	switch {
	case m.fetching:
		lines = append(lines, m.spinner.View()+" Fetching passage...")
	case m.fetchErr != nil:
		lines = append(lines, errorStyle.Render(fetchErrorText(m.fetchErr)))
	}
	if p, ok := m.session.Passage(); ok {
		lines = append(lines, headerStyle.Render(p.Reference()))
	} else if !m.fetching && m.fetchErr == nil {
		lines = append(lines, footerStyle.Render("No passage loaded."))
	}
	return strings.Join(lines, "\n")
}

func fetchErrorText(err error) string {
	var fetchErr *passage.ContentFetchError
	if errors.As(err, &fetchErr) {
		return fmt.Sprintf("Could not load %s %d: %v", fetchErr.Book, fetchErr.Chapter, fetchErr.Err)
	}
	return fmt.Sprintf("Could not load passage: %v", err)
}

func (m *Model) renderFooter() string {
	if _, ok := m.session.Passage(); !ok {
		return ""
	}
	segments := []string{fmt.Sprintf("Progress %d%%", int(m.session.Progress()*100))}
	if elapsed, ok := m.liveElapsed(); ok {
		segments = append(segments, fmt.Sprintf("%ds", elapsed))
	}
	if m.session.Complete() {
		if wpm, ok := m.session.WPM(); ok {
			acc, _ := m.session.Accuracy()
			segments = append(segments, resultStyle.Render(fmt.Sprintf("Done %d WPM · %.0f%%", wpm, acc*100)))
		}
	}
	if n := len(m.history); n > 0 {
		if wpm, acc, ok := stats.ChallengeMetrics(m.history[n-1]); ok {
			segments = append(segments, fmt.Sprintf("Last %d WPM · %.0f%%", wpm, acc*100))
		}
		if s := stats.Summarize(m.history); s.Scored > 0 {
			segments = append(segments, fmt.Sprintf("All-time %.1f WPM · %.1f%%", s.AvgWPM, s.AvgAccuracy*100))
		}
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) liveElapsed() (int, bool) {
	if elapsed, ok := m.session.ElapsedSeconds(); ok {
		return elapsed, true
	}
	start, ok := m.session.StartTime()
	if !ok || !m.session.Active() {
		return 0, false
	}
	return challenge.ElapsedSeconds(start, m.now())
}

func (m *Model) handleRunes(runes []rune) {
	for _, r := range runes {
		if m.session.Submit(r) == challenge.OutcomeCompleted {
			m.recordResult()
			return
		}
	}
}

func (m *Model) recordResult() {
	rec, chars, ok := m.session.Result()
	if !ok || m.store == nil {
		return
	}
	id, inserted, err := m.store.InsertChallenge(context.Background(), rec, chars)
	if err != nil {
		logErrf("failed to save challenge: %v\n", err)
		return
	}
	if !inserted {
		return
	}
	m.history = append(m.history, model.ChallengeAggregate{
		ChallengeID:         id,
		EndedAt:             rec.EndedAt,
		Reference:           referenceOf(rec),
		Chars:               rec.Chars,
		FirstAttemptCorrect: rec.FirstAttemptCorrect,
		Attempted:           rec.Attempted,
		DurationMs:          rec.DurationMs,
	})
}

func referenceOf(rec model.ChallengeRecord) string {
	return model.Passage{
		Book:        rec.Book,
		Chapter:     rec.Chapter,
		Translation: rec.Translation,
		VerseStart:  rec.VerseStart,
		VerseEnd:    rec.VerseEnd,
	}.Reference()
}

func (m *Model) loadHistory() {
	if m.store == nil {
		return
	}
	history, err := m.store.ListChallenges(context.Background(), model.StatsConfig{Translation: m.config.Translation})
	if err != nil {
		logErrf("failed to load challenge history: %v\n", err)
		return
	}
	m.history = history
}

func (m *Model) startFetch() tea.Cmd {
	m.fetching = true
	src := m.source
	fetch := func() tea.Msg {
		if src == nil {
			return passageMsg{err: challenge.ErrNoSource}
		}
		p, err := src.SelectRandomPassage(context.Background())
		return passageMsg{passage: p, err: err}
	}
	return tea.Batch(fetch, m.spinner.Tick)
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
