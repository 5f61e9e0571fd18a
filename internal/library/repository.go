package library

import (
	"context"
	"database/sql"
	"time"

	"github.com/vrcdolly/dolly-agent/internal/db"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Repository interface {
	CreateSnapshot(ctx context.Context, s *Snapshot, keep int) error
	GetSnapshot(ctx context.Context, id string) (*Snapshot, error)
	ListSnapshots(ctx context.Context, limit int) ([]*Snapshot, error)

	TouchRecentFile(ctx context.Context, path string, at time.Time) error
	ListRecentFiles(ctx context.Context, limit int) ([]*RecentFile, error)

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// CreateSnapshot stores s and prunes the oldest snapshots beyond keep.
func (r *SQLiteRepository) CreateSnapshot(ctx context.Context, s *Snapshot, keep int) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO snapshots (id, source, file_path, path_count, point_count, content, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, s.ID, s.Source, nullString(s.FilePath), s.PathCount, s.PointCount, s.Content, s.CreatedAt.UTC().Format(timeLayout))
		if err != nil {
			return err
		}
		if keep <= 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
			DELETE FROM snapshots WHERE id NOT IN (
				SELECT id FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT ?
			)
		`, keep)
		return err
	})
}

func (r *SQLiteRepository) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, source, file_path, path_count, point_count, content, created_at
		FROM snapshots WHERE id = ?
	`, id)

	var s Snapshot
	var filePath sql.NullString
	var createdAt string
	err := row.Scan(&s.ID, &s.Source, &filePath, &s.PathCount, &s.PointCount, &s.Content, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.FilePath = filePath.String
	s.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return &s, nil
}

// ListSnapshots returns snapshot metadata, newest first, without content.
func (r *SQLiteRepository) ListSnapshots(ctx context.Context, limit int) ([]*Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source, file_path, path_count, point_count, created_at
		FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		var s Snapshot
		var filePath sql.NullString
		var createdAt string
		if err := rows.Scan(&s.ID, &s.Source, &filePath, &s.PathCount, &s.PointCount, &createdAt); err != nil {
			return nil, err
		}
		s.FilePath = filePath.String
		s.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		snapshots = append(snapshots, &s)
	}
	return snapshots, rows.Err()
}

func (r *SQLiteRepository) TouchRecentFile(ctx context.Context, path string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recent_files (path, opened_at) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET opened_at = excluded.opened_at
	`, path, at.UTC().Format(timeLayout))
	return err
}

func (r *SQLiteRepository) ListRecentFiles(ctx context.Context, limit int) ([]*RecentFile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT path, opened_at FROM recent_files ORDER BY opened_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*RecentFile
	for rows.Next() {
		var f RecentFile
		var openedAt string
		if err := rows.Scan(&f.Path, &openedAt); err != nil {
			return nil, err
		}
		f.OpenedAt, _ = time.Parse(timeLayout, openedAt)
		files = append(files, &f)
	}
	return files, rows.Err()
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
