// Package store persists transcripts and insights to SQLite. Insight writes
// are idempotent per (transcript, content_hash); re-running extraction on a
// transcript never creates duplicate rows for textually identical findings.
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

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/csg4786/transcript-insights/internal/logger"
	"github.com/csg4786/transcript-insights/internal/types"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateHash = errors.New("content hash already stored for transcript")
)

type Store struct {
	db  *sql.DB
	log *logrus.Entry
}

// Open opens (creating if needed) the SQLite database at path and ensures
// the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s := &Store{db: db, log: logger.New().Component("store")}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	for _, stmt := range []string{createTranscriptsTableSQL, createInsightsTableSQL, createActivityTableSQL} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	for _, stmt := range createIndexesSQL {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

func utcNow() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// CreateTranscript inserts a new transcript in uploaded state. A missing ID
// is generated.
func (s *Store) CreateTranscript(ctx context.Context, t types.Transcript) (types.Transcript, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = types.StatusUploaded
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, insertTranscriptSQL,
		t.ID, t.Text, string(t.Status), t.ContextTheme, t.ContextConfidence,
		t.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return types.Transcript{}, fmt.Errorf("insert transcript: %w", err)
	}
	return t, nil
}

// GetTranscript loads one transcript by id.
func (s *Store) GetTranscript(ctx context.Context, id string) (types.Transcript, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, text, status, context_theme, context_confidence, created_at_utc, processed_at_utc
		FROM transcripts WHERE id = ?`, id)

	var t types.Transcript
	var status, createdAt string
	var processedAt sql.NullString
	if err := row.Scan(&t.ID, &t.Text, &status, &t.ContextTheme, &t.ContextConfidence, &createdAt, &processedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Transcript{}, ErrNotFound
		}
		return types.Transcript{}, fmt.Errorf("scan transcript: %w", err)
	}
	t.Status = types.TranscriptStatus(status)
	t.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if processedAt.Valid {
		ts, err := time.Parse(time.RFC3339Nano, processedAt.String)
		if err == nil {
			t.ProcessedAt = &ts
		}
	}
	return t, nil
}

// UpdateTranscriptStatus moves a transcript to the given pipeline status.
// Terminal states also stamp processed_at.
func (s *Store) UpdateTranscriptStatus(ctx context.Context, id string, status types.TranscriptStatus) error {
	var res sql.Result
	var err error
	if status.IsTerminal() {
		res, err = s.db.ExecContext(ctx,
			`UPDATE transcripts SET status = ?, processed_at_utc = ? WHERE id = ?`,
			string(status), utcNow(), id)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE transcripts SET status = ? WHERE id = ?`, string(status), id)
	}
	if err != nil {
		return fmt.Errorf("update transcript status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTranscriptContext stores the classified theme and confidence.
func (s *Store) UpdateTranscriptContext(ctx context.Context, id, theme string, confidence float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transcripts SET context_theme = ?, context_confidence = ? WHERE id = ?`,
		theme, confidence, id)
	if err != nil {
		return fmt.Errorf("update transcript context: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendActivity records one status transition for the transcript.
func (s *Store) AppendActivity(ctx context.Context, transcriptID string, status types.TranscriptStatus, message string) error {
	_, err := s.db.ExecContext(ctx, insertActivitySQL,
		transcriptID, string(status), message, utcNow())
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// Activity returns the transcript's status transitions in append order.
func (s *Store) Activity(ctx context.Context, transcriptID string) ([]types.TranscriptStatus, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status FROM transcript_activity WHERE transcript_id = ? ORDER BY id`, transcriptID)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var out []types.TranscriptStatus
	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, types.TranscriptStatus(status))
	}
	return out, rows.Err()
}

// ExistingHashes returns the content hashes already stored for a transcript.
func (s *Store) ExistingHashes(ctx context.Context, transcriptID string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT content_hash FROM insights WHERE transcript_id = ?`, transcriptID)
	if err != nil {
		return nil, fmt.Errorf("query hashes: %w", err)
	}
	defer rows.Close()

	hashes := map[string]struct{}{}
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan hash: %w", err)
		}
		hashes[h] = struct{}{}
	}
	return hashes, rows.Err()
}

// CreateInsight stores one insight row. The (transcript_id, content_hash)
// uniqueness constraint turns a concurrent double-write into
// ErrDuplicateHash instead of a duplicate row.
func (s *Store) CreateInsight(ctx context.Context, ins types.Insight) error {
	evidenceJSON, err := json.Marshal(ins.Evidence)
	if err != nil {
		return fmt.Errorf("marshal evidence: %w", err)
	}
	createdAt := ins.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, insertInsightSQL,
		ins.ID, ins.TranscriptID, ins.Title, ins.Description, ins.Type,
		string(evidenceJSON), ins.Confidence, ins.ContentHash,
		boolToInt(ins.IsDuplicate), ins.DuplicateOf, ins.DuplicateSimilarity,
		string(ins.Status), createdAt.Format(time.RFC3339Nano))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateHash
		}
		return fmt.Errorf("insert insight: %w", err)
	}
	return nil
}

// InsightsByTranscript returns the transcript's stored insights in creation
// order.
func (s *Store) InsightsByTranscript(ctx context.Context, transcriptID string) ([]types.Insight, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectInsightColumns+` FROM insights WHERE transcript_id = ? ORDER BY created_at_utc, id`,
		transcriptID)
	if err != nil {
		return nil, fmt.Errorf("query insights: %w", err)
	}
	defer rows.Close()

	var out []types.Insight
	for rows.Next() {
		ins, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ins)
	}
	return out, rows.Err()
}

func scanInsight(rows *sql.Rows) (types.Insight, error) {
	var ins types.Insight
	var evidenceJSON, status, createdAt string
	var isDup int
	if err := rows.Scan(&ins.ID, &ins.TranscriptID, &ins.Title, &ins.Description, &ins.Type,
		&evidenceJSON, &ins.Confidence, &ins.ContentHash, &isDup, &ins.DuplicateOf,
		&ins.DuplicateSimilarity, &status, &createdAt); err != nil {
		return types.Insight{}, fmt.Errorf("scan insight: %w", err)
	}
	if err := json.Unmarshal([]byte(evidenceJSON), &ins.Evidence); err != nil {
		return types.Insight{}, fmt.Errorf("decode evidence: %w", err)
	}
	ins.IsDuplicate = isDup != 0
	ins.Status = types.InsightStatus(status)
	ins.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return ins, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
