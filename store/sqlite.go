package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = &SQLiteStore{}

// NewSQLiteStore opens (or creates) the database at dbPath and runs the
// schema migration.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}
	// WAL mode for better concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate store db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS notebooks (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL UNIQUE,
			authors     TEXT NOT NULL DEFAULT '[]',
			description TEXT NOT NULL DEFAULT '',
			source      BLOB,
			updated_at  TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS users (
			id    TEXT PRIMARY KEY,
			email TEXT NOT NULL DEFAULT ''
		);
	`)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveNotebook(ctx context.Context, nb *Notebook) error {
	if nb.ID == "" {
		nb.ID = uuid.NewString()
	}
	nb.Authors = ensureAdmin(nb.Authors)
	nb.UpdatedAt = time.Now().UTC()

	authorsJSON, err := json.Marshal(nb.Authors)
	if err != nil {
		return fmt.Errorf("marshal authors: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notebooks (id, name, authors, description, source, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			authors = excluded.authors,
			description = excluded.description,
			source = excluded.source,
			updated_at = excluded.updated_at`,
		nb.ID, nb.Name, string(authorsJSON), nb.Description, nb.Source,
		nb.UpdatedAt.Format(time.RFC3339Nano),
	)
	return err
}

func (s *SQLiteStore) NotebookByName(ctx context.Context, author, name string, withSource bool) (*Notebook, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, authors, description, source, updated_at FROM notebooks WHERE name = ?", name)
	nb, err := scanNotebook(row, withSource)
	if err != nil {
		return nil, err
	}
	if !nb.HasAuthor(author) {
		return nil, ErrNotFound
	}
	return nb, nil
}

func (s *SQLiteStore) NotebooksByAuthor(ctx context.Context, author string, withSource bool) ([]*Notebook, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, authors, description, source, updated_at FROM notebooks ORDER BY updated_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Notebook
	for rows.Next() {
		nb, err := scanNotebook(rows, withSource)
		if err != nil {
			return nil, err
		}
		if nb.HasAuthor(author) {
			out = append(out, nb)
		}
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteNotebook(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM notebooks WHERE name = ?", name)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) SaveUser(ctx context.Context, u *User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET email = excluded.email`,
		u.ID, u.Email)
	return err
}

func (s *SQLiteStore) UserByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, "SELECT id, email FROM users WHERE id = ?", id).Scan(&u.ID, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNotebook(row scanner, withSource bool) (*Notebook, error) {
	var nb Notebook
	var authorsJSON, updatedAt string
	err := row.Scan(&nb.ID, &nb.Name, &authorsJSON, &nb.Description, &nb.Source, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(authorsJSON), &nb.Authors); err != nil {
		return nil, fmt.Errorf("unmarshal authors: %w", err)
	}
	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		nb.UpdatedAt = ts
	}
	if !withSource {
		nb.Source = nil
	}
	return &nb, nil
}
