// Package backend defines the persistence contract consumed by the record
// store and a factory that builds the configured implementation.
package backend

import (
	"context"
	"encoding/json"

	"fintrack/internal/core"
	"fintrack/internal/localstore"
)

// Store is the persistence collaborator. Records are opaque JSON documents
// keyed by (kind, owner, id); the record store owns serialization and
// validation, backends own durability.
type Store interface {
	// LoadAll returns every stored record for the owner and kind.
	LoadAll(ctx context.Context, kind core.EntityKind, owner string) ([]json.RawMessage, error)
	// Insert stores a new record under the given id.
	Insert(ctx context.Context, kind core.EntityKind, owner, id string, record json.RawMessage) error
	// Update replaces the record with the given id. Unknown ids are an error.
	Update(ctx context.Context, kind core.EntityKind, owner, id string, record json.RawMessage) error
	// Delete removes the record with the given id. Unknown ids are an error.
	Delete(ctx context.Context, kind core.EntityKind, owner, id string) error
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result contains the backend instance and optional cleanup function.
// Files is set for the file backend so callers can watch the snapshot
// directory for out-of-process edits.
type Result struct {
	Store   Store
	Cleanup CleanupFunc
	Files   *localstore.FileStore
}

// Type selects a persistence implementation.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	SheetsBackend Type = "sheets"
	FileBackend   Type = "file"
)

func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, SheetsBackend, FileBackend:
		return true
	default:
		return false
	}
}

// Types returns all valid backend types.
func Types() []Type {
	return []Type{SQLiteBackend, SheetsBackend, FileBackend}
}
