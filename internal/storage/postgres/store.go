// Package postgres provides a pgx-backed storage implementation.
//
// The expected schema lives under db/migrations. This package maps between the
// ledger entities and SQL rows and runs statements inside transactions when asked to.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tinoosan/bizledger/internal/errs"
	"github.com/tinoosan/bizledger/internal/ledger"
	"github.com/tinoosan/bizledger/internal/storage"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store holds a pgx connection pool and implements storage.Store.
// All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
	q    querier
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool, q: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// WithTx runs fn inside a single database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx storage.Store) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(&Store{pool: s.pool, q: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// mapErr translates driver errors into domain errors.
func mapErr(err error, resource, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.NotFound(resource, id)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", errs.ErrConflict, pgErr.ConstraintName)
	}
	return err
}

// --- Accounts ---

const accountCols = `id, account_number, account_name, account_type, category, balance_minor, description, created_at, updated_at`

func scanAccount(row pgx.Row) (ledger.Account, error) {
	var a ledger.Account
	var typ, cat string
	var bal int64
	if err := row.Scan(&a.ID, &a.AccountNumber, &a.AccountName, &typ, &cat, &bal, &a.Description, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return ledger.Account{}, err
	}
	a.AccountType = ledger.AccountType(typ)
	a.Category = ledger.Category(cat)
	a.Balance = ledger.Amount(bal)
	return a, nil
}

// InsertAccount inserts an account row with a fresh id.
func (s *Store) InsertAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	a.ID = uuid.NewString()
	out, err := scanAccount(s.q.QueryRow(ctx, `
		insert into accounts (id, account_number, account_name, account_type, category, balance_minor, description)
		values ($1,$2,$3,$4,$5,$6,$7)
		returning `+accountCols,
		a.ID, a.AccountNumber, a.AccountName, string(a.AccountType), string(a.Category), int64(a.Balance), a.Description))
	if err != nil {
		return ledger.Account{}, mapErr(err, "account", a.ID)
	}
	return out, nil
}

// UpdateAccount overwrites every editable column and bumps updated_at.
func (s *Store) UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	out, err := scanAccount(s.q.QueryRow(ctx, `
		update accounts
		set account_number=$1, account_name=$2, account_type=$3, category=$4, balance_minor=$5, description=$6, updated_at=now()
		where id=$7
		returning `+accountCols,
		a.AccountNumber, a.AccountName, string(a.AccountType), string(a.Category), int64(a.Balance), a.Description, a.ID))
	if err != nil {
		return ledger.Account{}, mapErr(err, "account", a.ID)
	}
	return out, nil
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	ct, err := s.q.Exec(ctx, `delete from accounts where id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.NotFound("account", id)
	}
	return nil
}

// DeleteAccounts removes all ids in one statement; a short count means an id was unknown.
func (s *Store) DeleteAccounts(ctx context.Context, ids []string) error {
	return s.deleteMany(ctx, "accounts", "account", ids)
}

func (s *Store) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	rows, err := s.q.Query(ctx, `select `+accountCols+` from accounts order by id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetAccount(ctx context.Context, id string) (ledger.Account, error) {
	a, err := scanAccount(s.q.QueryRow(ctx, `select `+accountCols+` from accounts where id=$1`, id))
	if err != nil {
		return ledger.Account{}, mapErr(err, "account", id)
	}
	return a, nil
}

// --- Entries ---

const entryCols = `id, entry_number, entry_date, description, reference, status, total_debit_minor, total_credit_minor, created_at, updated_at`

func scanEntry(row pgx.Row) (ledger.JournalEntry, error) {
	var e ledger.JournalEntry
	var status string
	var date time.Time
	var debit, credit int64
	if err := row.Scan(&e.ID, &e.EntryNumber, &date, &e.Description, &e.Reference, &status, &debit, &credit, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return ledger.JournalEntry{}, err
	}
	e.Date = date.UTC()
	e.Status = ledger.EntryStatus(status)
	e.TotalDebit = ledger.Amount(debit)
	e.TotalCredit = ledger.Amount(credit)
	return e, nil
}

// InsertEntry inserts the header row. Items are written separately.
func (s *Store) InsertEntry(ctx context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error) {
	e.ID = uuid.NewString()
	out, err := scanEntry(s.q.QueryRow(ctx, `
		insert into journal_entries (id, entry_number, entry_date, description, reference, status, total_debit_minor, total_credit_minor)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
		returning `+entryCols,
		e.ID, e.EntryNumber, e.Date, e.Description, e.Reference, string(e.Status), int64(e.TotalDebit), int64(e.TotalCredit)))
	if err != nil {
		return ledger.JournalEntry{}, mapErr(err, "journal entry", e.ID)
	}
	return out, nil
}

func (s *Store) UpdateEntry(ctx context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error) {
	out, err := scanEntry(s.q.QueryRow(ctx, `
		update journal_entries
		set entry_number=$1, entry_date=$2, description=$3, reference=$4, status=$5,
		    total_debit_minor=$6, total_credit_minor=$7, updated_at=now()
		where id=$8
		returning `+entryCols,
		e.EntryNumber, e.Date, e.Description, e.Reference, string(e.Status), int64(e.TotalDebit), int64(e.TotalCredit), e.ID))
	if err != nil {
		return ledger.JournalEntry{}, mapErr(err, "journal entry", e.ID)
	}
	return out, nil
}

// DeleteEntry removes the header; items go with it via on delete cascade.
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	ct, err := s.q.Exec(ctx, `delete from journal_entries where id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.NotFound("journal entry", id)
	}
	return nil
}

func (s *Store) DeleteEntries(ctx context.Context, ids []string) error {
	return s.deleteMany(ctx, "journal_entries", "journal entry", ids)
}

func (s *Store) ListEntries(ctx context.Context) ([]ledger.JournalEntry, error) {
	rows, err := s.q.Query(ctx, `select `+entryCols+` from journal_entries order by entry_date asc, id asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.JournalEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) GetEntry(ctx context.Context, id string) (ledger.JournalEntry, error) {
	e, err := scanEntry(s.q.QueryRow(ctx, `select `+entryCols+` from journal_entries where id=$1`, id))
	if err != nil {
		return ledger.JournalEntry{}, mapErr(err, "journal entry", id)
	}
	return e, nil
}

// --- Items ---

const itemCols = `id, journal_entry_id, account_id, account_name, account_number, debit_minor, credit_minor, created_at`

func scanItem(row pgx.Row) (ledger.JournalEntryItem, error) {
	var it ledger.JournalEntryItem
	var debit, credit int64
	if err := row.Scan(&it.ID, &it.JournalEntryID, &it.AccountID, &it.AccountName, &it.AccountNumber, &debit, &credit, &it.CreatedAt); err != nil {
		return ledger.JournalEntryItem{}, err
	}
	it.Debit = ledger.Amount(debit)
	it.Credit = ledger.Amount(credit)
	return it, nil
}

// InsertItems inserts items in order; position preserves that order on read.
func (s *Store) InsertItems(ctx context.Context, entryID string, items []ledger.JournalEntryItem) ([]ledger.JournalEntryItem, error) {
	var base int
	if err := s.q.QueryRow(ctx, `select coalesce(max(position), -1) + 1 from journal_entry_items where journal_entry_id=$1`, entryID).Scan(&base); err != nil {
		return nil, err
	}
	out := make([]ledger.JournalEntryItem, 0, len(items))
	for i, it := range items {
		stored, err := scanItem(s.q.QueryRow(ctx, `
			insert into journal_entry_items (id, journal_entry_id, position, account_id, account_name, account_number, debit_minor, credit_minor)
			values ($1,$2,$3,$4,$5,$6,$7,$8)
			returning `+itemCols,
			uuid.NewString(), entryID, base+i, it.AccountID, it.AccountName, it.AccountNumber, int64(it.Debit), int64(it.Credit)))
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return nil, errs.NotFound("journal entry", entryID)
			}
			return nil, fmt.Errorf("insert item: %w", err)
		}
		out = append(out, stored)
	}
	return out, nil
}

func (s *Store) DeleteItemsByEntry(ctx context.Context, entryID string) error {
	_, err := s.q.Exec(ctx, `delete from journal_entry_items where journal_entry_id=$1`, entryID)
	return err
}

func (s *Store) ListItems(ctx context.Context) ([]ledger.JournalEntryItem, error) {
	return s.queryItems(ctx, `select `+itemCols+` from journal_entry_items order by journal_entry_id, position`)
}

func (s *Store) ItemsByEntry(ctx context.Context, entryID string) ([]ledger.JournalEntryItem, error) {
	return s.queryItems(ctx, `select `+itemCols+` from journal_entry_items where journal_entry_id=$1 order by position`, entryID)
}

func (s *Store) queryItems(ctx context.Context, sql string, args ...any) ([]ledger.JournalEntryItem, error) {
	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.JournalEntryItem, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// deleteMany deletes ids from table atomically: if fewer rows match than ids
// were given, nothing is deleted and the first missing id is reported.
func (s *Store) deleteMany(ctx context.Context, table, resource string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	run := func(q querier) error {
		rows, err := q.Query(ctx, `delete from `+table+` where id = any($1) returning id`, ids)
		if err != nil {
			return err
		}
		deleted := make(map[string]struct{}, len(ids))
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			deleted[id] = struct{}{}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		for _, id := range ids {
			if _, ok := deleted[id]; !ok {
				return errs.NotFound(resource, id)
			}
		}
		return nil
	}
	if _, inTx := s.q.(pgx.Tx); inTx {
		return run(s.q)
	}
	return s.WithTx(ctx, func(tx storage.Store) error { return run(tx.(*Store).q) })
}
