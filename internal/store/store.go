// Package store is the JSON key-value persistence used by the repositories.
// Each collection is a single document mapping keys (entity identifiers) to
// raw JSON records. Repositories load a whole collection, change it in memory
// and write it back; there is no locking between processes.
package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Document maps record keys to raw JSON records.
type Document map[string]json.RawMessage

// Store is one collection.
type Store interface {
	// Read returns the collection, or an empty document if it was never written.
	Read(ctx context.Context) (Document, error)
	// Write replaces the whole collection.
	Write(ctx context.Context, doc Document) error
	// Exists reports whether the collection has been written.
	Exists(ctx context.Context) (bool, error)
}

// Backend opens collections by name.
type Backend interface {
	Collection(name string) Store
}

// Collection names used by the repositories.
const (
	Frames        = "frames"
	CurrentFrame  = "current_frame"
	Timesheets    = "timesheets"
	Projects      = "projects"
	ZebraProjects = "zebra_projects"
	User          = "user"
	Events        = "events"
)

// Put marshals v under key.
func (d Document) Put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	d[key] = raw
	return nil
}
