package storage

import (
	"context"
	"maps"
	"sort"
	"time"
)

// Record is a persisted attribute set identified by ID.
type Record struct {
	ID        string            `json:"id"`
	Fields    map[string]string `json:"fields"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Get returns the named field, or "" when absent.
func (r Record) Get(field string) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[field]
}

// Clone returns a deep copy so callers never share the Fields map.
func (r Record) Clone() Record {
	c := r
	c.Fields = maps.Clone(r.Fields)
	return c
}

// Filter selects records whose fields equal every given value.
// The key "id" matches the record ID. An empty filter matches everything.
type Filter map[string]string

// Matches reports whether rec satisfies the filter.
func (f Filter) Matches(rec Record) bool {
	for k, v := range f {
		if k == "id" {
			if rec.ID != v {
				return false
			}
			continue
		}
		got, ok := rec.Fields[k]
		if !ok || got != v {
			return false
		}
	}
	return true
}

// RecordStore is the durable record collaborator.
//
// Put and Remove change the store's working set; Save flushes the working
// set to the backing medium and Load replaces it with the medium's content.
// Write-through adapters implement Load and Save as no-ops.
type RecordStore interface {
	// Kind names the record type held by this store.
	Kind() string

	// Load reloads the working set from the backing medium.
	Load(ctx context.Context) error

	// Save flushes the working set to the backing medium.
	Save(ctx context.Context) error

	// Search returns all records matching the filter, oldest first.
	Search(ctx context.Context, filter Filter) ([]Record, error)

	// Get returns the record with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (Record, error)

	// Put inserts or replaces a record.
	Put(ctx context.Context, rec Record) error

	// Remove deletes a record. Returns ErrNotFound if it does not exist.
	Remove(ctx context.Context, id string) error

	// Count returns the number of records in the working set.
	Count(ctx context.Context) (int, error)

	// Close releases resources held by the store.
	Close() error
}

// SortByCreated orders records oldest first, breaking ties by ID.
func SortByCreated(recs []Record) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.Before(recs[j].CreatedAt)
		}
		return recs[i].ID < recs[j].ID
	})
}

// Stamp fills CreatedAt (when zero) and sets UpdatedAt to now.
func Stamp(rec *Record, now time.Time) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
}
