// Package storage defines the persistence contract the ledger services depend on.
//
// Each table exposes insert / update / delete / deleteMany / listAll keyed by an
// opaque string id. Implementations assign ids and manage created_at/updated_at;
// missing ids are reported with errs.ErrNotFound.
package storage

import (
	"context"

	"github.com/tinoosan/bizledger/internal/ledger"
)

// Table names shared by the SQL, bolt and PostgREST backends.
const (
	TableAccounts          = "accounts"
	TableJournalEntries    = "journal_entries"
	TableJournalEntryItems = "journal_entry_items"
)

// Accounts persists the chart of accounts.
type Accounts interface {
	InsertAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
	// UpdateAccount overwrites the stored row with a; only UpdatedAt is store-managed.
	UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
	DeleteAccount(ctx context.Context, id string) error
	DeleteAccounts(ctx context.Context, ids []string) error
	ListAccounts(ctx context.Context) ([]ledger.Account, error)
	GetAccount(ctx context.Context, id string) (ledger.Account, error)
}

// Entries persists journal entry headers. Items are not populated by this interface.
type Entries interface {
	InsertEntry(ctx context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error)
	UpdateEntry(ctx context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error)
	DeleteEntry(ctx context.Context, id string) error
	DeleteEntries(ctx context.Context, ids []string) error
	ListEntries(ctx context.Context) ([]ledger.JournalEntry, error)
	GetEntry(ctx context.Context, id string) (ledger.JournalEntry, error)
}

// Items persists journal entry line items.
type Items interface {
	// InsertItems stores items in order for the given entry and returns them with ids assigned.
	InsertItems(ctx context.Context, entryID string, items []ledger.JournalEntryItem) ([]ledger.JournalEntryItem, error)
	// DeleteItemsByEntry removes every item of an entry. No items is not an error.
	DeleteItemsByEntry(ctx context.Context, entryID string) error
	ListItems(ctx context.Context) ([]ledger.JournalEntryItem, error)
	ItemsByEntry(ctx context.Context, entryID string) ([]ledger.JournalEntryItem, error)
}

// Store is the union satisfied by every backend.
type Store interface {
	Accounts
	Entries
	Items
}

// Transactor is implemented by stores that can apply several writes atomically.
// fn receives a Store bound to the transaction; returning an error rolls back.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

// ReadyChecker is optionally implemented by stores to indicate readiness.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

// Closer is optionally implemented by stores that hold connections or files.
type Closer interface {
	Close() error
}
