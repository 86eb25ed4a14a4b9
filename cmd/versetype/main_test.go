package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/versetype/internal/challenge"
	"github.com/verte-zerg/versetype/internal/config"
	"github.com/verte-zerg/versetype/internal/model"
)

func storedSnapshot(t *testing.T, content string, typed string, fetchDate string) model.Snapshot {
	t.Helper()
	p := model.Passage{Book: "Ruth", BookID: "RUT", Chapter: 1, Translation: "ASV", TranslationID: "eng_asv", VerseStart: 16, VerseEnd: 16, Content: content}
	s := challenge.New(nil)
	s.Load(p)
	for _, r := range typed {
		s.Submit(r)
	}
	snap := s.Snapshot()
	snap.FetchDate = fetchDate
	return snap
}

func TestResumeSnapshot(t *testing.T) {
	const today = "03/14/2026"
	unfinished := storedSnapshot(t, "whither", "wh", today)
	finished := storedSnapshot(t, "go", "go", today)
	yesterday := storedSnapshot(t, "whither", "w", "03/13/2026")

	tests := []struct {
		name   string
		snap   model.Snapshot
		ok     bool
		cfg    model.Config
		resume bool
	}{
		{name: "nothing stored", snap: unfinished, ok: false, cfg: model.Config{Translation: "eng_asv"}},
		{name: "unfinished", snap: unfinished, ok: true, cfg: model.Config{Translation: "eng_asv"}, resume: true},
		{name: "finished", snap: finished, ok: true, cfg: model.Config{Translation: "eng_asv"}},
		{name: "forced new", snap: unfinished, ok: true, cfg: model.Config{Translation: "eng_asv", ForceNew: true}},
		{name: "other translation", snap: unfinished, ok: true, cfg: model.Config{Translation: "BSB"}},
		{name: "daily finished today", snap: finished, ok: true, cfg: model.Config{Translation: "eng_asv", Daily: true}, resume: true},
		{name: "daily from yesterday", snap: yesterday, ok: true, cfg: model.Config{Translation: "eng_asv", Daily: true}},
		{name: "no passage", snap: model.Snapshot{}, ok: true, cfg: model.Config{Translation: "eng_asv"}},
	}
	for _, tt := range tests {
		got := resumeSnapshot(tt.snap, tt.ok, tt.cfg, today)
		if (got != nil) != tt.resume {
			t.Fatalf("%s: expected resume=%v, got %v", tt.name, tt.resume, got != nil)
		}
	}
}

func TestValidateConfig(t *testing.T) {
	valid := model.Config{Translation: "eng_asv", WindowSize: 5, APIBase: "http://x", Timeout: time.Second}
	if err := validateConfig(valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := []model.Config{
		{WindowSize: 5, APIBase: "http://x", Timeout: time.Second},
		{Translation: "eng_asv", APIBase: "http://x", Timeout: time.Second},
		{Translation: "eng_asv", WindowSize: 5, APIBase: "http://x"},
		{Translation: "eng_asv", WindowSize: 5, APIBase: " ", Timeout: time.Second},
	}
	for i, cfg := range bad {
		if err := validateConfig(cfg); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestDefaultConfigTemplateParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if _, err := config.LoadConfig(path); err != nil {
		t.Fatalf("template does not parse: %v", err)
	}
	uncommented := strings.ReplaceAll(defaultConfigTemplate(), "# translation", "translation")
	if err := os.WriteFile(path, []byte(uncommented), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("uncommented template does not parse: %v", err)
	}
	if cfg.Challenge.Translation == nil || *cfg.Challenge.Translation != "eng_asv" {
		t.Fatalf("unexpected translation: %v", cfg.Challenge.Translation)
	}
}

func TestWriteLocalTranslations(t *testing.T) {
	var buf bytes.Buffer
	if err := writeLocalTranslations(&buf, []string{"BSB"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "BSB\neng_asv (built-in)\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
	buf.Reset()
	if err := writeLocalTranslations(&buf, []string{"eng_asv"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "eng_asv\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

type staticSource struct {
	challenges []model.ChallengeAggregate
	chars      []model.CharAggregate
}

func (s staticSource) ListChallenges(_ context.Context, _ model.StatsConfig) ([]model.ChallengeAggregate, error) {
	return s.challenges, nil
}

func (s staticSource) ListCharAggregates(_ context.Context, _ []int64) ([]model.CharAggregate, error) {
	return s.chars, nil
}

func TestRenderPlainStats(t *testing.T) {
	var buf bytes.Buffer
	if err := renderPlainStats(context.Background(), &buf, staticSource{}, model.StatsConfig{}, 80); err != nil {
		t.Fatalf("render empty: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "No challenges found." {
		t.Fatalf("unexpected empty report %q", buf.String())
	}

	buf.Reset()
	src := staticSource{
		challenges: []model.ChallengeAggregate{{ChallengeID: 1, Chars: 250, FirstAttemptCorrect: 9, Attempted: 10, DurationMs: 60000}},
		chars:      []model.CharAggregate{{Char: "w", Correct: 3, Incorrect: 1}},
	}
	if err := renderPlainStats(context.Background(), &buf, src, model.StatsConfig{CurveWindow: 3}, 80); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Best WPM: 45", "Learning Curves", "Per-Character (Windowed)", "75.00%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in report:\n%s", want, out)
		}
	}
}
