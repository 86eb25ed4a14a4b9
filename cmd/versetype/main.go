// Package main provides the CLI entrypoint for versetype.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/versetype/internal/challenge"
	"github.com/verte-zerg/versetype/internal/config"
	"github.com/verte-zerg/versetype/internal/corpus"
	"github.com/verte-zerg/versetype/internal/helloao"
	"github.com/verte-zerg/versetype/internal/model"
	"github.com/verte-zerg/versetype/internal/passage"
	"github.com/verte-zerg/versetype/internal/stats"
	"github.com/verte-zerg/versetype/internal/statsui"
	"github.com/verte-zerg/versetype/internal/store"
	"github.com/verte-zerg/versetype/internal/tui"
)

const (
	defaultTimeoutSec  = 30
	defaultCurveWindow = 10
)

var (
	practiceTranslation string
	practiceWindow      int
	practiceAPI         string
	practiceTimeout     int
	practiceDaily       bool
	practiceNew         bool

	translationsRemote bool

	corpusTranslation string
	corpusForce       bool

	statsTranslation string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool

	clearHistory bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "versetype",
		Short:         "TUI typing trainer for scripture passages",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	addSourceFlags(rootCmd)
	rootCmd.Flags().BoolVar(&practiceDaily, "daily", false, "keep one passage per day")
	rootCmd.Flags().BoolVar(&practiceNew, "new", false, "start a new passage instead of resuming")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newTranslationsCmd())
	rootCmd.AddCommand(newCorpusCmd())
	rootCmd.AddCommand(newPassageCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newClearCmd())

	return rootCmd
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&practiceTranslation, "translation", corpus.DefaultTranslation, "translation id")
	cmd.Flags().IntVar(&practiceWindow, "window", passage.DefaultWindowSize, "verses per passage")
	cmd.Flags().StringVar(&practiceAPI, "api", helloao.DefaultBaseURL, "content API base URL")
	cmd.Flags().IntVar(&practiceTimeout, "timeout", defaultTimeoutSec, "request timeout in seconds")
}

func loadPracticeConfig(cmd *cobra.Command) (model.Config, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	c := fileCfg.Challenge
	applyStringConfig(cmd, "translation", &practiceTranslation, c.Translation)
	applyIntConfig(cmd, "window", &practiceWindow, c.Window)
	applyStringConfig(cmd, "api", &practiceAPI, c.API)
	applyIntConfig(cmd, "timeout", &practiceTimeout, c.Timeout)
	applyBoolConfig(cmd, "daily", &practiceDaily, c.Daily)

	cfg := model.Config{
		Translation: strings.TrimSpace(practiceTranslation),
		WindowSize:  practiceWindow,
		APIBase:     practiceAPI,
		Timeout:     time.Duration(practiceTimeout) * time.Second,
		Daily:       practiceDaily,
		ForceNew:    practiceNew,
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func newSelector(cfg model.Config) (*passage.Selector, error) {
	c, err := corpus.Resolve(cfg.Translation, config.DefaultCorpusDir())
	if err != nil {
		if errors.Is(err, corpus.ErrNotFound) {
			return nil, fmt.Errorf("%w\nDownload: versetype corpus --translation %s", err, cfg.Translation)
		}
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	client := helloao.New(cfg.APIBase, cfg.Timeout)
	return passage.New(c, client, passage.WithWindowSize(cfg.WindowSize)), nil
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadPracticeConfig(cmd)
	if err != nil {
		return err
	}
	selector, err := newSelector(cfg)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	snap, ok, err := st.LoadSnapshot(context.Background())
	if err != nil {
		logErrf("ignoring stored challenge: %v\n", err)
		ok = false
	}
	today := time.Now().Format(challenge.FetchDateLayout)
	resume := resumeSnapshot(snap, ok, cfg, today)

	m := tui.NewModel(cfg, st, selector, resume)
	program := tea.NewProgram(m, tea.WithAltScreen())
	_, err = program.Run()
	m.FlushSnapshot()
	if err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// resumeSnapshot decides whether a stored challenge is continued. In daily
// mode the stored challenge is kept for the day it was fetched, finished or
// not; otherwise only unfinished challenges of the configured translation
// are resumed.
func resumeSnapshot(snap model.Snapshot, ok bool, cfg model.Config, today string) *model.Snapshot {
	if !ok || cfg.ForceNew || snap.Passage == nil {
		return nil
	}
	if id := snap.Passage.TranslationID; id != "" && id != cfg.Translation {
		return nil
	}
	if cfg.Daily {
		if snap.FetchDate != today {
			return nil
		}
		return &snap
	}
	if challenge.New(nil, challenge.WithSnapshot(snap)).Complete() {
		return nil
	}
	return &snap
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newTranslationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translations",
		Short: "List available translations",
		Args:  cobra.NoArgs,
		RunE:  runTranslationsCmd,
	}
	cmd.Flags().BoolVar(&translationsRemote, "remote", false, "list translations offered by the content API")
	cmd.Flags().StringVar(&practiceAPI, "api", helloao.DefaultBaseURL, "content API base URL")
	cmd.Flags().IntVar(&practiceTimeout, "timeout", defaultTimeoutSec, "request timeout in seconds")
	return cmd
}

func runTranslationsCmd(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if translationsRemote {
		client := helloao.New(practiceAPI, time.Duration(practiceTimeout)*time.Second)
		translations, err := client.Translations(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list translations: %w", err)
		}
		for _, t := range translations {
			if _, err := fmt.Fprintf(out, "%-12s %-8s %s (%s)\n", t.ID, t.ShortName, t.EnglishName, t.Language); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		return nil
	}

	local, err := corpus.List(config.DefaultCorpusDir())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read corpus directory: %w", err)
	}
	return writeLocalTranslations(out, local)
}

func writeLocalTranslations(w io.Writer, downloaded []string) error {
	seen := map[string]bool{}
	for _, t := range downloaded {
		seen[t] = true
		if _, err := fmt.Fprintln(w, t); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if !seen[corpus.DefaultTranslation] {
		if _, err := fmt.Fprintf(w, "%s (built-in)\n", corpus.DefaultTranslation); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newCorpusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Download the book list for a translation",
		Args:  cobra.NoArgs,
		RunE:  runCorpusCmd,
	}
	cmd.Flags().StringVar(&corpusTranslation, "translation", "", "translation id (required)")
	cmd.Flags().BoolVar(&corpusForce, "force", false, "overwrite an existing corpus file")
	cmd.Flags().StringVar(&practiceAPI, "api", helloao.DefaultBaseURL, "content API base URL")
	cmd.Flags().IntVar(&practiceTimeout, "timeout", defaultTimeoutSec, "request timeout in seconds")
	return cmd
}

func runCorpusCmd(cmd *cobra.Command, _ []string) error {
	translation := strings.TrimSpace(corpusTranslation)
	if translation == "" {
		return fmt.Errorf("--translation must not be empty")
	}
	outPath := corpus.Path(config.DefaultCorpusDir(), translation)
	if !corpusForce {
		if _, err := os.Stat(outPath); err == nil {
			return fmt.Errorf("corpus already exists: %s (use --force to overwrite)", outPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat corpus: %w", err)
		}
	}

	logErrf("Fetching book list for %s...\n", translation)
	client := helloao.New(practiceAPI, time.Duration(practiceTimeout)*time.Second)
	books, err := client.Books(cmd.Context(), translation)
	if err != nil {
		var statusErr *helloao.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == 404 {
			return fmt.Errorf("unknown translation %q (run: versetype translations --remote)", translation)
		}
		return fmt.Errorf("failed to fetch book list: %w", err)
	}
	c := corpus.FromBooks(books)
	if c.Translation == "" {
		c.Translation = translation
	}
	if err := corpus.Write(outPath, c); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	logErrf("Wrote %s (%d books)\n", outPath, len(c.Books))
	return nil
}

func newPassageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passage",
		Short: "Print a random passage",
		Args:  cobra.NoArgs,
		RunE:  runPassageCmd,
	}
	addSourceFlags(cmd)
	return cmd
}

func runPassageCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadPracticeConfig(cmd)
	if err != nil {
		return err
	}
	selector, err := newSelector(cfg)
	if err != nil {
		return err
	}
	p, err := selector.SelectRandomPassage(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to select passage: %w", err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", p.Reference(), p.Content); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsTranslation, "translation", "", "translation filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N challenges")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a plain text report")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}

	cfg := model.StatsConfig{
		Translation: statsTranslation,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if statsPlain || !stats.IsTerminal(os.Stdout) {
		return renderPlainStats(cmd.Context(), cmd.OutOrStdout(), st, cfg, stats.TerminalWidth(os.Stdout))
	}

	m := statsui.NewModel(st, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func renderPlainStats(ctx context.Context, w io.Writer, src stats.Source, cfg model.StatsConfig, width int) error {
	report, err := stats.BuildReport(ctx, src, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	if err := stats.RenderSummary(w, report.Challenges); err != nil {
		return err
	}
	if err := stats.RenderCurves(w, report.Challenges, cfg.CurveWindow, width); err != nil {
		return err
	}
	if len(report.Challenges) == 0 {
		return nil
	}
	return stats.RenderCharTable(w, report.CharAggsWindow)
}

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Discard the stored challenge",
		Args:  cobra.NoArgs,
		RunE:  runClearCmd,
	}
	cmd.Flags().BoolVar(&clearHistory, "history", false, "also delete completed challenge history")
	return cmd
}

func runClearCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	if err := st.ClearSnapshot(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear challenge: %w", err)
	}
	logErrln("Cleared stored challenge")
	if clearHistory {
		if err := st.ClearHistory(cmd.Context()); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		logErrln("Cleared challenge history")
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil || cmd.Flags().Lookup(name) == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# versetype configuration
# Uncomment a value to enable it. CLI flags override config values.

[challenge]
# translation = %q   # Translation id (see: versetype translations --remote)
# window = %d              # Verses per passage
# api = %q
# timeout = %d            # Request timeout in seconds
# daily = false           # Keep one passage per day
`,
		corpus.DefaultTranslation,
		passage.DefaultWindowSize,
		helloao.DefaultBaseURL,
		defaultTimeoutSec,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.Translation == "" {
		return fmt.Errorf("--translation must not be empty")
	}
	if cfg.WindowSize <= 0 {
		return fmt.Errorf("--window must be > 0")
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("--timeout must be > 0")
	}
	if strings.TrimSpace(cfg.APIBase) == "" {
		return fmt.Errorf("--api must not be empty")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
