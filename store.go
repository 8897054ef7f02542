package sheetboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store exposes the record operations of one entity on top of a Gateway.
//
// Every List, Update and Delete reads the whole data range first; nothing
// is cached. Update and Delete address rows by position, so two
// concurrent mutations of the same entity race unless the store is built
// with WithSerializedMutations, and even then only within one process.
type Store struct {
	gateway *Gateway
	entity  Entity
	now     func() time.Time
	newID   func() string

	serialize bool
	mu        sync.Mutex
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithSerializedMutations lets only one create, update or delete of the
// store run at a time
func WithSerializedMutations() StoreOption {
	return func(s *Store) {
		s.serialize = true
	}
}

// WithClock sets the time source used for creation timestamps
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator sets the generator used for new record ids
func WithIDGenerator(newID func() string) StoreOption {
	return func(s *Store) {
		s.newID = newID
	}
}

// NewStore creates a store for entity e
func NewStore(gateway *Gateway, e Entity, opts ...StoreOption) *Store {
	s := &Store{
		gateway: gateway,
		entity:  e,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Entity returns the entity served by the store
func (s *Store) Entity() Entity {
	return s.entity
}

// Degraded reports whether the underlying gateway has no backend
func (s *Store) Degraded() bool {
	return s.gateway.Degraded()
}

func (s *Store) lock() func() {
	if !s.serialize {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// List returns every record of the entity in sheet order
func (s *Store) List(ctx context.Context) []*Record {
	records, _ := s.snapshot(ctx)
	return records
}

// snapshot reads the data range and returns the records with the live header row
func (s *Store) snapshot(ctx context.Context) ([]*Record, []string) {
	rows := s.gateway.ReadRange(ctx, DataRange(s.entity))
	return Decode(rows), Headers(rows)
}

// Create appends a new record built from input and the entity defaults.
// It returns the merged record and whether the append succeeded; the
// stored row is not read back.
func (s *Store) Create(ctx context.Context, input *Record) (*Record, bool, error) {
	if !s.entity.Allows(OpCreate) {
		return nil, false, fmt.Errorf("create %s: %w", s.entity.Name, ErrReadOnly)
	}
	defer s.lock()()

	record := s.withDefaults(input)
	ok := s.gateway.AppendRow(ctx, DataRange(s.entity), Encode(record, s.entity.Headers))
	return record, ok, nil
}

// withDefaults merges input over the entity defaults. Empty input values
// fall back to the default.
func (s *Store) withDefaults(input *Record) *Record {
	record := NewRecord()
	for _, col := range s.entity.Headers {
		if v, ok := lookupNonEmpty(input, col); ok {
			record.Set(col, v)
			continue
		}
		switch {
		case col == s.entity.IDColumn && s.entity.GenerateID:
			record.Set(col, s.newID())
		case col == s.entity.CreatedColumn:
			record.Set(col, s.now().UTC().Format(time.RFC3339))
		default:
			record.Set(col, s.entity.Defaults[col])
		}
	}

	// fields outside the header list are echoed back but never stored
	if input != nil {
		for _, col := range input.Columns {
			if _, ok := record.Lookup(col); !ok {
				record.Set(col, input.Values[col])
			}
		}
	}
	return record
}

func lookupNonEmpty(r *Record, col string) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r.Lookup(col)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Update merges updates into the record with the given id and writes the
// whole row back in the order of the live header row. It returns the
// merged record and whether the write succeeded.
func (s *Store) Update(ctx context.Context, id string, updates *Record) (*Record, bool, error) {
	if !s.entity.Allows(OpUpdate) {
		return nil, false, fmt.Errorf("update %s: %w", s.entity.Name, ErrReadOnly)
	}
	if id == "" {
		return nil, false, ErrMissingID
	}
	defer s.lock()()

	records, headers := s.snapshot(ctx)
	index := s.indexOf(records, id)
	if index < 0 {
		return nil, false, fmt.Errorf("%s %q: %w", s.entity.Label, id, ErrNotFound)
	}

	merged := records[index].Merge(updates)
	ok := s.gateway.UpdateRow(ctx, SingleRowRange(s.entity, index), Encode(merged, headers))
	return merged, ok, nil
}

// Delete removes the record with the given id and reports whether the
// row removal succeeded.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	if !s.entity.Allows(OpDelete) {
		return false, fmt.Errorf("delete %s: %w", s.entity.Name, ErrReadOnly)
	}
	if id == "" {
		return false, ErrMissingID
	}
	defer s.lock()()

	records, _ := s.snapshot(ctx)
	index := s.indexOf(records, id)
	if index < 0 {
		return false, fmt.Errorf("%s %q: %w", s.entity.Label, id, ErrNotFound)
	}

	return s.gateway.DeleteRow(ctx, s.entity, index), nil
}

// indexOf returns the positional index of the first record whose id
// column equals id exactly, or -1
func (s *Store) indexOf(records []*Record, id string) int {
	for i, r := range records {
		if r.Get(s.entity.IDColumn) == id {
			return i
		}
	}
	return -1
}
