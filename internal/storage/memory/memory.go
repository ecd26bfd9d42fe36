// Package memory provides an in-memory implementation of the ledger store used for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tinoosan/bizledger/internal/errs"
	"github.com/tinoosan/bizledger/internal/ledger"
	"github.com/tinoosan/bizledger/internal/storage"
)

// Store is an in-memory implementation of storage.Store.
// It is guarded by an RWMutex for concurrent reads/writes.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]ledger.Account
	entries  map[string]ledger.JournalEntry
	// items per entry id, in insertion order
	items map[string][]ledger.JournalEntryItem

	now func() time.Time
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		accounts: make(map[string]ledger.Account),
		entries:  make(map[string]ledger.JournalEntry),
		items:    make(map[string][]ledger.JournalEntryItem),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the timestamp source. Intended for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
	return s
}

// SeedAccount stores a as-is, assigning an id and timestamps when missing.
func (s *Store) SeedAccount(a ledger.Account) ledger.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	s.accounts[a.ID] = a
	return a
}

// Reset drops all data.
func (s *Store) Reset() {
	s.mu.Lock()
	s.accounts = map[string]ledger.Account{}
	s.entries = map[string]ledger.JournalEntry{}
	s.items = map[string][]ledger.JournalEntryItem{}
	s.mu.Unlock()
}

// Ready always succeeds for the in-memory store.
func (s *Store) Ready(context.Context) error { return nil }

// InsertAccount stores a new account with a fresh id.
func (s *Store) InsertAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uuid.NewString()
	a.CreatedAt = s.now()
	a.UpdatedAt = a.CreatedAt
	s.accounts[a.ID] = a
	return a, nil
}

// UpdateAccount overwrites an existing account, preserving CreatedAt.
func (s *Store) UpdateAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.accounts[a.ID]
	if !ok {
		return ledger.Account{}, errs.NotFound("account", a.ID)
	}
	a.CreatedAt = cur.CreatedAt
	a.UpdatedAt = s.now()
	s.accounts[a.ID] = a
	return a, nil
}

func (s *Store) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return errs.NotFound("account", id)
	}
	delete(s.accounts, id)
	return nil
}

// DeleteAccounts removes every id or none: an unknown id aborts the whole call.
func (s *Store) DeleteAccounts(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, ok := s.accounts[id]; !ok {
			return errs.NotFound("account", id)
		}
	}
	for _, id := range ids {
		delete(s.accounts, id)
	}
	return nil
}

// ListAccounts returns all accounts ordered by id. Callers apply presentation order.
func (s *Store) ListAccounts(_ context.Context) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetAccount(_ context.Context, id string) (ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return ledger.Account{}, errs.NotFound("account", id)
	}
	return a, nil
}

// InsertEntry stores the header only; Items on e are ignored.
func (s *Store) InsertEntry(_ context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = uuid.NewString()
	e.CreatedAt = s.now()
	e.UpdatedAt = e.CreatedAt
	e.Items = nil
	s.entries[e.ID] = e
	return e, nil
}

func (s *Store) UpdateEntry(_ context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.entries[e.ID]
	if !ok {
		return ledger.JournalEntry{}, errs.NotFound("journal entry", e.ID)
	}
	e.CreatedAt = cur.CreatedAt
	e.UpdatedAt = s.now()
	e.Items = nil
	s.entries[e.ID] = e
	return e, nil
}

// DeleteEntry removes the header and cascades to its items.
func (s *Store) DeleteEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return errs.NotFound("journal entry", id)
	}
	delete(s.entries, id)
	delete(s.items, id)
	return nil
}

func (s *Store) DeleteEntries(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, ok := s.entries[id]; !ok {
			return errs.NotFound("journal entry", id)
		}
	}
	for _, id := range ids {
		delete(s.entries, id)
		delete(s.items, id)
	}
	return nil
}

func (s *Store) ListEntries(_ context.Context) ([]ledger.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.JournalEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetEntry(_ context.Context, id string) (ledger.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return ledger.JournalEntry{}, errs.NotFound("journal entry", id)
	}
	return e, nil
}

// InsertItems appends items to an existing entry.
func (s *Store) InsertItems(_ context.Context, entryID string, items []ledger.JournalEntryItem) ([]ledger.JournalEntryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entryID]; !ok {
		return nil, errs.NotFound("journal entry", entryID)
	}
	now := s.now()
	out := make([]ledger.JournalEntryItem, 0, len(items))
	for _, it := range items {
		it.ID = uuid.NewString()
		it.JournalEntryID = entryID
		it.CreatedAt = now
		out = append(out, it)
	}
	s.items[entryID] = append(s.items[entryID], out...)
	return append([]ledger.JournalEntryItem(nil), out...), nil
}

func (s *Store) DeleteItemsByEntry(_ context.Context, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, entryID)
	return nil
}

// ListItems returns every item grouped by entry id, preserving per-entry order.
func (s *Store) ListItems(_ context.Context) ([]ledger.JournalEntryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]ledger.JournalEntryItem, 0)
	for _, id := range ids {
		out = append(out, s.items[id]...)
	}
	return out, nil
}

func (s *Store) ItemsByEntry(_ context.Context, entryID string) ([]ledger.JournalEntryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ledger.JournalEntryItem{}, s.items[entryID]...), nil
}

// WithTx runs fn against a snapshot of the store and publishes the snapshot
// only if fn succeeds. Other writers are blocked for the duration.
func (s *Store) WithTx(ctx context.Context, fn func(tx storage.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.cloneLocked()
	if err := fn(snap); err != nil {
		return err
	}
	s.accounts, s.entries, s.items = snap.accounts, snap.entries, snap.items
	return nil
}

// cloneLocked copies all maps into an independent Store. Caller must hold s.mu.
func (s *Store) cloneLocked() *Store {
	c := &Store{
		accounts: make(map[string]ledger.Account, len(s.accounts)),
		entries:  make(map[string]ledger.JournalEntry, len(s.entries)),
		items:    make(map[string][]ledger.JournalEntryItem, len(s.items)),
		now:      s.now,
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	for k, v := range s.items {
		c.items[k] = append([]ledger.JournalEntryItem(nil), v...)
	}
	return c
}
