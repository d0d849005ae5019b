// Package store persists notebook documents and user records. The notebook
// source is an opaque blob to this package; the notebook package owns its
// structure.
package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("record not found")

// AdminAuthor is always appended to a notebook's author list on save, so
// administrative tooling can see every document.
const AdminAuthor = "ADMIN"

type User struct {
	ID    string
	Email string
}

type Notebook struct {
	ID          string
	Name        string
	Authors     []string
	Description string
	Source      []byte
	UpdatedAt   time.Time
}

// HasAuthor reports whether the user appears in the author list.
func (n *Notebook) HasAuthor(userID string) bool {
	for _, a := range n.Authors {
		if a == userID {
			return true
		}
	}
	return false
}

// Store provides read/write access to notebooks and users.
type Store interface {
	// SaveNotebook upserts by notebook name. AdminAuthor is appended to the
	// author list if absent.
	SaveNotebook(ctx context.Context, nb *Notebook) error

	// NotebookByName returns the notebook with the given name authored by
	// author. withSource controls whether the source blob is loaded.
	NotebookByName(ctx context.Context, author, name string, withSource bool) (*Notebook, error)

	NotebooksByAuthor(ctx context.Context, author string, withSource bool) ([]*Notebook, error)
	DeleteNotebook(ctx context.Context, name string) error

	SaveUser(ctx context.Context, u *User) error
	UserByID(ctx context.Context, id string) (*User, error)

	Close() error
}

func ensureAdmin(authors []string) []string {
	for _, a := range authors {
		if a == AdminAuthor {
			return authors
		}
	}
	return append(authors, AdminAuthor)
}
