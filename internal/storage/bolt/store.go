// Package bolt is an embedded single-file store built on bbolt. Each table is a
// bucket of JSON documents keyed by id.
package bolt

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	bbolt "go.etcd.io/bbolt"

	"github.com/tinoosan/bizledger/internal/errs"
	"github.com/tinoosan/bizledger/internal/ledger"
	"github.com/tinoosan/bizledger/internal/storage"
)

var buckets = []string{storage.TableAccounts, storage.TableJournalEntries, storage.TableJournalEntryItems}

// Store wraps a bbolt database. A Store handed to a WithTx callback is bound
// to that transaction.
type Store struct {
	db  *bbolt.DB
	tx  *bbolt.Tx
	now func() time.Time
}

// Open opens or creates the database file and its buckets.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Ready checks that the database file is still open.
func (s *Store) Ready(context.Context) error {
	return s.db.View(func(*bbolt.Tx) error { return nil })
}

// WithTx runs fn inside one read-write bbolt transaction.
func (s *Store) WithTx(_ context.Context, fn func(tx storage.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(&Store{db: s.db, tx: tx, now: s.now})
	})
}

func (s *Store) update(fn func(tx *bbolt.Tx) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	return s.db.Update(fn)
}

func (s *Store) view(fn func(tx *bbolt.Tx) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	return s.db.View(fn)
}

func put(tx *bbolt.Tx, bucket string, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return tx.Bucket([]byte(bucket)).Put(key, data)
}

func get[T any](tx *bbolt.Tx, bucket, id, resource string) (T, error) {
	var v T
	data := tx.Bucket([]byte(bucket)).Get([]byte(id))
	if data == nil {
		return v, errs.NotFound(resource, id)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("failed to unmarshal %s: %w", resource, err)
	}
	return v, nil
}

func list[T any](tx *bbolt.Tx, bucket string) ([]T, error) {
	out := make([]T, 0)
	err := tx.Bucket([]byte(bucket)).ForEach(func(_, data []byte) error {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	return out, err
}

// --- Accounts ---

func (s *Store) InsertAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
	a.ID = uuid.NewString()
	a.CreatedAt = s.now()
	a.UpdatedAt = a.CreatedAt
	err := s.update(func(tx *bbolt.Tx) error { return put(tx, storage.TableAccounts, []byte(a.ID), a) })
	return a, err
}

func (s *Store) UpdateAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
	err := s.update(func(tx *bbolt.Tx) error {
		cur, err := get[ledger.Account](tx, storage.TableAccounts, a.ID, "account")
		if err != nil {
			return err
		}
		a.CreatedAt = cur.CreatedAt
		a.UpdatedAt = s.now()
		return put(tx, storage.TableAccounts, []byte(a.ID), a)
	})
	if err != nil {
		return ledger.Account{}, err
	}
	return a, nil
}

func (s *Store) DeleteAccount(_ context.Context, id string) error {
	return s.update(func(tx *bbolt.Tx) error { return deleteKeys(tx, storage.TableAccounts, "account", []string{id}) })
}

func (s *Store) DeleteAccounts(_ context.Context, ids []string) error {
	return s.update(func(tx *bbolt.Tx) error { return deleteKeys(tx, storage.TableAccounts, "account", ids) })
}

// deleteKeys checks every id first so an unknown id leaves the bucket untouched.
func deleteKeys(tx *bbolt.Tx, bucket, resource string, ids []string) error {
	b := tx.Bucket([]byte(bucket))
	for _, id := range ids {
		if b.Get([]byte(id)) == nil {
			return errs.NotFound(resource, id)
		}
	}
	for _, id := range ids {
		if err := b.Delete([]byte(id)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListAccounts(_ context.Context) ([]ledger.Account, error) {
	var out []ledger.Account
	err := s.view(func(tx *bbolt.Tx) error {
		var err error
		out, err = list[ledger.Account](tx, storage.TableAccounts)
		return err
	})
	return out, err
}

func (s *Store) GetAccount(_ context.Context, id string) (ledger.Account, error) {
	var a ledger.Account
	err := s.view(func(tx *bbolt.Tx) error {
		var err error
		a, err = get[ledger.Account](tx, storage.TableAccounts, id, "account")
		return err
	})
	return a, err
}

// --- Entries ---

func (s *Store) InsertEntry(_ context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error) {
	e.ID = uuid.NewString()
	e.CreatedAt = s.now()
	e.UpdatedAt = e.CreatedAt
	e.Items = nil
	err := s.update(func(tx *bbolt.Tx) error { return put(tx, storage.TableJournalEntries, []byte(e.ID), e) })
	return e, err
}

func (s *Store) UpdateEntry(_ context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error) {
	e.Items = nil
	err := s.update(func(tx *bbolt.Tx) error {
		cur, err := get[ledger.JournalEntry](tx, storage.TableJournalEntries, e.ID, "journal entry")
		if err != nil {
			return err
		}
		e.CreatedAt = cur.CreatedAt
		e.UpdatedAt = s.now()
		return put(tx, storage.TableJournalEntries, []byte(e.ID), e)
	})
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	return e, nil
}

// DeleteEntry removes the header and its items.
func (s *Store) DeleteEntry(_ context.Context, id string) error {
	return s.update(func(tx *bbolt.Tx) error {
		if err := deleteKeys(tx, storage.TableJournalEntries, "journal entry", []string{id}); err != nil {
			return err
		}
		return deleteItems(tx, id)
	})
}

func (s *Store) DeleteEntries(_ context.Context, ids []string) error {
	return s.update(func(tx *bbolt.Tx) error {
		if err := deleteKeys(tx, storage.TableJournalEntries, "journal entry", ids); err != nil {
			return err
		}
		for _, id := range ids {
			if err := deleteItems(tx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) ListEntries(_ context.Context) ([]ledger.JournalEntry, error) {
	var out []ledger.JournalEntry
	err := s.view(func(tx *bbolt.Tx) error {
		var err error
		out, err = list[ledger.JournalEntry](tx, storage.TableJournalEntries)
		return err
	})
	return out, err
}

func (s *Store) GetEntry(_ context.Context, id string) (ledger.JournalEntry, error) {
	var e ledger.JournalEntry
	err := s.view(func(tx *bbolt.Tx) error {
		var err error
		e, err = get[ledger.JournalEntry](tx, storage.TableJournalEntries, id, "journal entry")
		return err
	})
	return e, err
}

// --- Items ---

// itemKey is entryID, a NUL separator and the bucket sequence, so a prefix
// scan yields one entry's items in insertion order.
func itemKey(entryID string, seq uint64) []byte {
	k := make([]byte, 0, len(entryID)+9)
	k = append(k, entryID...)
	k = append(k, 0)
	return binary.BigEndian.AppendUint64(k, seq)
}

func itemPrefix(entryID string) []byte { return append([]byte(entryID), 0) }

func (s *Store) InsertItems(_ context.Context, entryID string, items []ledger.JournalEntryItem) ([]ledger.JournalEntryItem, error) {
	out := make([]ledger.JournalEntryItem, 0, len(items))
	err := s.update(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(storage.TableJournalEntries)).Get([]byte(entryID)) == nil {
			return errs.NotFound("journal entry", entryID)
		}
		b := tx.Bucket([]byte(storage.TableJournalEntryItems))
		now := s.now()
		for _, it := range items {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			it.ID = uuid.NewString()
			it.JournalEntryID = entryID
			it.CreatedAt = now
			if err := put(tx, storage.TableJournalEntryItems, itemKey(entryID, seq), it); err != nil {
				return err
			}
			out = append(out, it)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func deleteItems(tx *bbolt.Tx, entryID string) error {
	c := tx.Bucket([]byte(storage.TableJournalEntryItems)).Cursor()
	prefix := itemPrefix(entryID)
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Seek(prefix) {
		if err := c.Delete(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) DeleteItemsByEntry(_ context.Context, entryID string) error {
	return s.update(func(tx *bbolt.Tx) error { return deleteItems(tx, entryID) })
}

func (s *Store) ListItems(_ context.Context) ([]ledger.JournalEntryItem, error) {
	var out []ledger.JournalEntryItem
	err := s.view(func(tx *bbolt.Tx) error {
		var err error
		out, err = list[ledger.JournalEntryItem](tx, storage.TableJournalEntryItems)
		return err
	})
	return out, err
}

func (s *Store) ItemsByEntry(_ context.Context, entryID string) ([]ledger.JournalEntryItem, error) {
	out := make([]ledger.JournalEntryItem, 0)
	err := s.view(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(storage.TableJournalEntryItems)).Cursor()
		prefix := itemPrefix(entryID)
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var it ledger.JournalEntryItem
			if err := json.Unmarshal(v, &it); err != nil {
				return err
			}
			out = append(out, it)
		}
		return nil
	})
	return out, err
}

var (
	_ storage.Store        = (*Store)(nil)
	_ storage.Transactor   = (*Store)(nil)
	_ storage.ReadyChecker = (*Store)(nil)
)
