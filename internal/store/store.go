// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/versetype/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for session snapshots and challenge history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshot (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			data TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS challenges (
			id INTEGER PRIMARY KEY,
			attempt_id TEXT NOT NULL UNIQUE,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			translation TEXT NOT NULL,
			translation_id TEXT NOT NULL DEFAULT '',
			book TEXT NOT NULL,
			chapter INTEGER NOT NULL,
			verse_start INTEGER NOT NULL,
			verse_end INTEGER NOT NULL,
			chars INTEGER NOT NULL,
			first_attempt_correct INTEGER NOT NULL,
			attempted INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS challenge_char_stats (
			challenge_id INTEGER NOT NULL,
			char TEXT NOT NULL,
			correct INTEGER NOT NULL,
			incorrect INTEGER NOT NULL,
			PRIMARY KEY (challenge_id, char)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_challenges_ended_at ON challenges(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_challenge_char_stats_char ON challenge_char_stats(char);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveSnapshot replaces the stored session snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshot (id, data, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		string(data), time.Now().UTC().Format(timeLayout))
	return err
}

// LoadSnapshot returns the stored snapshot, if any.
func (s *Store) LoadSnapshot(ctx context.Context) (model.Snapshot, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM snapshot WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{}, false, nil
	}
	if err != nil {
		return model.Snapshot{}, false, err
	}
	var snap model.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return model.Snapshot{}, false, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, true, nil
}

// ClearSnapshot removes the stored snapshot.
func (s *Store) ClearSnapshot(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM snapshot`)
	return err
}

// InsertChallenge stores a completed challenge and its per-character stats.
// A challenge already stored under the same attempt id is left as is and
// its row id is returned with inserted=false.
func (s *Store) InsertChallenge(ctx context.Context, rec model.ChallengeRecord, chars []model.CharStats) (id int64, inserted bool, err error) {
	if rec.ID == "" {
		return 0, false, fmt.Errorf("challenge attempt id is empty")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO challenges (attempt_id, started_at, ended_at, translation, translation_id, book, chapter, verse_start, verse_end, chars, first_attempt_correct, attempted, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(attempt_id) DO NOTHING`,
		rec.ID,
		rec.StartedAt.UTC().Format(timeLayout),
		rec.EndedAt.UTC().Format(timeLayout),
		rec.Translation,
		rec.TranslationID,
		rec.Book,
		rec.Chapter,
		rec.VerseStart,
		rec.VerseEnd,
		rec.Chars,
		rec.FirstAttemptCorrect,
		rec.Attempted,
		rec.DurationMs,
	)
	if err != nil {
		return 0, false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if affected == 0 {
		if err = tx.QueryRowContext(ctx, `SELECT id FROM challenges WHERE attempt_id = ?`, rec.ID).Scan(&id); err != nil {
			return 0, false, err
		}
		if err = tx.Commit(); err != nil {
			return 0, false, err
		}
		return id, false, nil
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, false, err
	}

	if len(chars) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO challenge_char_stats (challenge_id, char, correct, incorrect)
			 VALUES (?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return 0, false, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, cs := range chars {
			if _, err = stmt.ExecContext(ctx, id, cs.Char, cs.Correct, cs.Incorrect); err != nil {
				return 0, false, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// ListChallenges returns challenge aggregates filtered by stats config.
func (s *Store) ListChallenges(ctx context.Context, cfg model.StatsConfig) ([]model.ChallengeAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Translation != "" {
		clauses = append(clauses, "(translation_id = ? OR translation = ?)")
		args = append(args, cfg.Translation, cfg.Translation)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.UTC().Format(timeLayout))
	}
	query := fmt.Sprintf(`SELECT id, ended_at, translation, book, chapter, verse_start, verse_end,
		chars, first_attempt_correct, attempted, duration_ms
		FROM challenges
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var challenges []model.ChallengeAggregate
	for rows.Next() {
		var agg model.ChallengeAggregate
		var endedAt string
		var p model.Passage
		if err := rows.Scan(&agg.ChallengeID, &endedAt, &p.Translation, &p.Book, &p.Chapter, &p.VerseStart, &p.VerseEnd,
			&agg.Chars, &agg.FirstAttemptCorrect, &agg.Attempted, &agg.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		agg.Reference = p.Reference()
		challenges = append(challenges, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return challenges, nil
}

// ListCharAggregates aggregates per-character stats across challenges.
func (s *Store) ListCharAggregates(ctx context.Context, challengeIDs []int64) ([]model.CharAggregate, error) {
	if len(challengeIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(challengeIDs))
	args := make([]any, len(challengeIDs))
	for i, id := range challengeIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT char, SUM(correct) AS correct, SUM(incorrect) AS incorrect
		FROM challenge_char_stats
		WHERE challenge_id IN (%s)
		GROUP BY char`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.CharAggregate
	for rows.Next() {
		var agg model.CharAggregate
		if err := rows.Scan(&agg.Char, &agg.Correct, &agg.Incorrect); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ClearHistory deletes all completed challenges.
func (s *Store) ClearHistory(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM challenge_char_stats`); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM challenges`); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
