package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"deckd/internal/editor"
	"deckd/internal/models"
	"deckd/internal/providers"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS recordings (
	id         TEXT PRIMARY KEY,
	revision   INTEGER NOT NULL,
	document   BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS changes (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	recording_id TEXT NOT NULL,
	revision     INTEGER NOT NULL,
	op           TEXT NOT NULL,
	slide        INTEGER NOT NULL,
	patch        TEXT,
	created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS changes_recording ON changes (recording_id, seq);`

// SQLiteStorage keeps the latest document per recording plus an append-only
// change log. Revisions restart when a session is reopened, so log rows are
// ordered by seq, not by revision.
type SQLiteStorage struct {
	db     *sql.DB
	logger providers.Logger
	now    func() time.Time
}

func NewSQLiteStorage(dsn string, logger providers.Logger) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// one writer; the persistence worker is the only caller
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{"PRAGMA journal_mode = WAL", "PRAGMA busy_timeout = 10000", "PRAGMA synchronous = NORMAL"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &SQLiteStorage{db: db, logger: logger, now: time.Now}, nil
}

func (s *SQLiteStorage) PersistSnapshotUpdate(ctx context.Context, recordingID string, change editor.Change, rec *models.ClickRecording) error {
	doc, err := models.EncodeRecording(rec)
	if err != nil {
		return err
	}
	var patch []byte
	if change.Patch != nil {
		if patch, err = json.Marshal(change.Patch); err != nil {
			return err
		}
	}
	now := s.now().UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO recordings (id, revision, document, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET revision = excluded.revision, document = excluded.document, updated_at = excluded.updated_at`,
		recordingID, change.Revision, doc, now); err != nil {
		return fmt.Errorf("upsert recording %s: %w", recordingID, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO changes (recording_id, revision, op, slide, patch, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		recordingID, change.Revision, string(change.Op), change.Index, string(patch), now); err != nil {
		return fmt.Errorf("log change %s/%d: %w", recordingID, change.Revision, err)
	}
	return tx.Commit()
}

func (s *SQLiteStorage) DeleteRecording(ctx context.Context, recordingID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM changes WHERE recording_id = ?`, recordingID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM recordings WHERE id = ?`, recordingID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
