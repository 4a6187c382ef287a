package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/voicememo/internal/apperr"
	"github.com/starford/voicememo/internal/models"
)

// Journal is the read/write surface consumers depend on.
type Journal interface {
	Start(rec *models.MemoRecord) error
	Finish(rec *models.MemoRecord) error
	Get(id string) (*models.MemoRecord, error)
	List(f Filter) ([]models.MemoRecord, int, error)
	Close() error
}

var _ Journal = (*DB)(nil)

// Filter narrows List results.
type Filter struct {
	Status string
	Limit  int
	Offset int
}

const selectColumns = `id, path, filename, size, checksum, status, stage, error,
	note_path, archive_path, started_at, finished_at`

// Start inserts a new in-progress record.
func (db *DB) Start(rec *models.MemoRecord) error {
	_, err := db.conn.Exec(`
		INSERT INTO memos (id, path, filename, size, checksum, status, stage, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Path, rec.Filename, rec.Size, rec.Checksum, rec.Status, rec.Stage, rec.StartedAt)
	if err != nil {
		return fmt.Errorf("ledger: start %s: %w", rec.ID, err)
	}
	return nil
}

// Finish stores the final state of a record, inserting it if Start was
// never recorded.
func (db *DB) Finish(rec *models.MemoRecord) error {
	_, err := db.conn.Exec(`
		INSERT INTO memos (id, path, filename, size, checksum, status, stage, error,
			note_path, archive_path, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status       = excluded.status,
			stage        = excluded.stage,
			error        = excluded.error,
			note_path    = excluded.note_path,
			archive_path = excluded.archive_path,
			finished_at  = excluded.finished_at
	`, rec.ID, rec.Path, rec.Filename, rec.Size, rec.Checksum, rec.Status, rec.Stage, rec.Error,
		rec.NotePath, rec.ArchivePath, rec.StartedAt, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("ledger: finish %s: %w", rec.ID, err)
	}
	return nil
}

// Get returns a single record or apperr.ErrNotFound.
func (db *DB) Get(id string) (*models.MemoRecord, error) {
	row := db.conn.QueryRow(`SELECT `+selectColumns+` FROM memos WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: get %s: %w", id, err)
	}
	return rec, nil
}

// List returns records newest first together with the total matching count.
func (db *DB) List(f Filter) ([]models.MemoRecord, int, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var where []string
	var args []any
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM memos`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ledger: count: %w", err)
	}

	rows, err := db.conn.Query(`SELECT `+selectColumns+` FROM memos`+clause+
		` ORDER BY started_at DESC, id LIMIT ? OFFSET ?`, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("ledger: list: %w", err)
	}
	defer rows.Close()

	out := []models.MemoRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ledger: scan: %w", err)
		}
		out = append(out, *rec)
	}
	return out, total, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.MemoRecord, error) {
	var rec models.MemoRecord
	var finished sql.NullTime
	var started time.Time
	if err := s.Scan(&rec.ID, &rec.Path, &rec.Filename, &rec.Size, &rec.Checksum, &rec.Status,
		&rec.Stage, &rec.Error, &rec.NotePath, &rec.ArchivePath, &started, &finished); err != nil {
		return nil, err
	}
	rec.StartedAt = started
	if finished.Valid {
		t := finished.Time
		rec.FinishedAt = &t
	}
	return &rec, nil
}
