package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/bizledger/internal/errs"
	"github.com/tinoosan/bizledger/internal/ledger"
	"github.com/tinoosan/bizledger/internal/storage"
)

const (
	preferRepresentation = "return=representation"
	preferMinimal        = "return=minimal"
	dateLayout           = "2006-01-02"
)

// accountRow maps the accounts table columns.
type accountRow struct {
	ID            string      `json:"id,omitempty"`
	AccountNumber string      `json:"account_number"`
	AccountName   string      `json:"account_name"`
	AccountType   string      `json:"account_type"`
	Category      string      `json:"category"`
	Balance       json.Number `json:"balance"`
	Description   *string     `json:"description"`
	CreatedAt     *time.Time  `json:"created_at,omitempty"`
	UpdatedAt     *time.Time  `json:"updated_at,omitempty"`
}

// entryRow maps the journal_entries table columns.
type entryRow struct {
	ID          string      `json:"id,omitempty"`
	EntryNumber string      `json:"entry_number"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Reference   *string     `json:"reference"`
	Status      string      `json:"status"`
	TotalDebit  json.Number `json:"total_debit"`
	TotalCredit json.Number `json:"total_credit"`
	CreatedAt   *time.Time  `json:"created_at,omitempty"`
	UpdatedAt   *time.Time  `json:"updated_at,omitempty"`
}

// itemRow maps journal_entry_items. account_id, account_number and position
// extend the Supabase table so items can be resolved and ordered.
type itemRow struct {
	ID             string      `json:"id,omitempty"`
	JournalEntryID string      `json:"journal_entry_id"`
	Position       int         `json:"position"`
	AccountID      string      `json:"account_id"`
	AccountName    string      `json:"account_name"`
	AccountNumber  string      `json:"account_number"`
	Debit          json.Number `json:"debit"`
	Credit         json.Number `json:"credit"`
	CreatedAt      *time.Time  `json:"created_at,omitempty"`
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}

func (s *Store) toAccountRow(a ledger.Account) accountRow {
	return accountRow{
		ID:            a.ID,
		AccountNumber: a.AccountNumber,
		AccountName:   a.AccountName,
		AccountType:   string(a.AccountType),
		Category:      string(a.Category),
		Balance:       s.amount(a.Balance),
		Description:   optString(a.Description),
	}
}

func (s *Store) fromAccountRow(r accountRow) (ledger.Account, error) {
	bal, err := s.parseAmount(r.Balance)
	if err != nil {
		return ledger.Account{}, fmt.Errorf("account %s balance: %w", r.ID, err)
	}
	return ledger.Account{
		ID:            r.ID,
		AccountNumber: r.AccountNumber,
		AccountName:   r.AccountName,
		AccountType:   ledger.AccountType(r.AccountType),
		Category:      ledger.Category(r.Category),
		Balance:       bal,
		Description:   deref(r.Description),
		CreatedAt:     derefTime(r.CreatedAt),
		UpdatedAt:     derefTime(r.UpdatedAt),
	}, nil
}

func (s *Store) toEntryRow(e ledger.JournalEntry) entryRow {
	return entryRow{
		ID:          e.ID,
		EntryNumber: e.EntryNumber,
		Date:        e.Date.Format(dateLayout),
		Description: e.Description,
		Reference:   optString(e.Reference),
		Status:      string(e.Status),
		TotalDebit:  s.amount(e.TotalDebit),
		TotalCredit: s.amount(e.TotalCredit),
	}
}

func (s *Store) fromEntryRow(r entryRow) (ledger.JournalEntry, error) {
	date, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return ledger.JournalEntry{}, fmt.Errorf("entry %s date: %w", r.ID, err)
	}
	debit, err := s.parseAmount(r.TotalDebit)
	if err != nil {
		return ledger.JournalEntry{}, fmt.Errorf("entry %s total_debit: %w", r.ID, err)
	}
	credit, err := s.parseAmount(r.TotalCredit)
	if err != nil {
		return ledger.JournalEntry{}, fmt.Errorf("entry %s total_credit: %w", r.ID, err)
	}
	return ledger.JournalEntry{
		ID:          r.ID,
		EntryNumber: r.EntryNumber,
		Date:        date,
		Description: r.Description,
		Reference:   deref(r.Reference),
		Status:      ledger.EntryStatus(r.Status),
		TotalDebit:  debit,
		TotalCredit: credit,
		CreatedAt:   derefTime(r.CreatedAt),
		UpdatedAt:   derefTime(r.UpdatedAt),
	}, nil
}

func (s *Store) fromItemRow(r itemRow) (ledger.JournalEntryItem, error) {
	debit, err := s.parseAmount(r.Debit)
	if err != nil {
		return ledger.JournalEntryItem{}, fmt.Errorf("item %s debit: %w", r.ID, err)
	}
	credit, err := s.parseAmount(r.Credit)
	if err != nil {
		return ledger.JournalEntryItem{}, fmt.Errorf("item %s credit: %w", r.ID, err)
	}
	return ledger.JournalEntryItem{
		ID:             r.ID,
		JournalEntryID: r.JournalEntryID,
		AccountID:      r.AccountID,
		AccountName:    r.AccountName,
		AccountNumber:  r.AccountNumber,
		Debit:          debit,
		Credit:         credit,
		CreatedAt:      derefTime(r.CreatedAt),
	}, nil
}

func eq(v string) string { return "eq." + url.QueryEscape(v) }

// fetch decodes rows of T and converts each with conv.
func fetch[T, U any](ctx context.Context, s *Store, path string, conv func(T) (U, error)) ([]U, error) {
	body, err := s.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	return convert(body, conv)
}

func convert[T, U any](body []byte, conv func(T) (U, error)) ([]U, error) {
	rows, err := decodeRows[T](body)
	if err != nil {
		return nil, err
	}
	out := make([]U, 0, len(rows))
	for _, r := range rows {
		u, err := conv(r)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

// writeOne sends a write that returns the affected row; no row means not found.
func writeOne[T, U any](ctx context.Context, s *Store, method, path string, payload any, conv func(T) (U, error), resource, id string) (U, error) {
	var zero U
	body, err := s.do(ctx, method, path, payload, preferRepresentation)
	if err != nil {
		return zero, err
	}
	out, err := convert(body, conv)
	if err != nil {
		return zero, err
	}
	if len(out) == 0 {
		return zero, errs.NotFound(resource, id)
	}
	return out[0], nil
}

// requireAll fails with NotFound on the first id that has no row in table.
func (s *Store) requireAll(ctx context.Context, table, resource string, ids []string) error {
	type idRow struct {
		ID string `json:"id"`
	}
	found, err := fetch(ctx, s, table+"?select=id&id="+inList(ids), func(r idRow) (string, error) { return r.ID, nil })
	if err != nil {
		return err
	}
	have := make(map[string]struct{}, len(found))
	for _, id := range found {
		have[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			return errs.NotFound(resource, id)
		}
	}
	return nil
}

// deleteAll checks every id exists before deleting. Without transactions a
// concurrent writer can still interleave between the two calls.
func (s *Store) deleteAll(ctx context.Context, table, resource string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.requireAll(ctx, table, resource, ids); err != nil {
		return err
	}
	_, err := s.do(ctx, http.MethodDelete, table+"?id="+inList(ids), nil, preferMinimal)
	return err
}

// --- Accounts ---

func (s *Store) InsertAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	row := s.toAccountRow(a)
	row.ID = uuid.NewString()
	return writeOne(ctx, s, http.MethodPost, storage.TableAccounts, row, s.fromAccountRow, "account", row.ID)
}

func (s *Store) UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	row := s.toAccountRow(a)
	row.ID = ""
	now := s.now()
	row.UpdatedAt = &now
	return writeOne(ctx, s, http.MethodPatch, storage.TableAccounts+"?id="+eq(a.ID), row, s.fromAccountRow, "account", a.ID)
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	_, err := writeOne(ctx, s, http.MethodDelete, storage.TableAccounts+"?id="+eq(id), nil, s.fromAccountRow, "account", id)
	return err
}

func (s *Store) DeleteAccounts(ctx context.Context, ids []string) error {
	return s.deleteAll(ctx, storage.TableAccounts, "account", ids)
}

func (s *Store) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	return fetch(ctx, s, storage.TableAccounts+"?select=*&order=id.asc", s.fromAccountRow)
}

func (s *Store) GetAccount(ctx context.Context, id string) (ledger.Account, error) {
	out, err := fetch(ctx, s, storage.TableAccounts+"?select=*&id="+eq(id)+"&limit=1", s.fromAccountRow)
	if err != nil {
		return ledger.Account{}, err
	}
	if len(out) == 0 {
		return ledger.Account{}, errs.NotFound("account", id)
	}
	return out[0], nil
}

// --- Entries ---

func (s *Store) InsertEntry(ctx context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error) {
	row := s.toEntryRow(e)
	row.ID = uuid.NewString()
	return writeOne(ctx, s, http.MethodPost, storage.TableJournalEntries, row, s.fromEntryRow, "journal entry", row.ID)
}

func (s *Store) UpdateEntry(ctx context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error) {
	row := s.toEntryRow(e)
	row.ID = ""
	now := s.now()
	row.UpdatedAt = &now
	return writeOne(ctx, s, http.MethodPatch, storage.TableJournalEntries+"?id="+eq(e.ID), row, s.fromEntryRow, "journal entry", e.ID)
}

// DeleteEntry removes the header after its items; the Supabase schema has no cascade.
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	if err := s.DeleteItemsByEntry(ctx, id); err != nil {
		return err
	}
	_, err := writeOne(ctx, s, http.MethodDelete, storage.TableJournalEntries+"?id="+eq(id), nil, s.fromEntryRow, "journal entry", id)
	return err
}

func (s *Store) DeleteEntries(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	// headers are checked before items go so an unknown id removes nothing
	if err := s.requireAll(ctx, storage.TableJournalEntries, "journal entry", ids); err != nil {
		return err
	}
	if _, err := s.do(ctx, http.MethodDelete, storage.TableJournalEntryItems+"?journal_entry_id="+inList(ids), nil, preferMinimal); err != nil {
		return err
	}
	_, err := s.do(ctx, http.MethodDelete, storage.TableJournalEntries+"?id="+inList(ids), nil, preferMinimal)
	return err
}

func (s *Store) ListEntries(ctx context.Context) ([]ledger.JournalEntry, error) {
	return fetch(ctx, s, storage.TableJournalEntries+"?select=*&order=date.asc,id.asc", s.fromEntryRow)
}

func (s *Store) GetEntry(ctx context.Context, id string) (ledger.JournalEntry, error) {
	out, err := fetch(ctx, s, storage.TableJournalEntries+"?select=*&id="+eq(id)+"&limit=1", s.fromEntryRow)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if len(out) == 0 {
		return ledger.JournalEntry{}, errs.NotFound("journal entry", id)
	}
	return out[0], nil
}

// --- Items ---

// InsertItems sends all items in one bulk insert.
func (s *Store) InsertItems(ctx context.Context, entryID string, items []ledger.JournalEntryItem) ([]ledger.JournalEntryItem, error) {
	if len(items) == 0 {
		return []ledger.JournalEntryItem{}, nil
	}
	existing, err := s.ItemsByEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	rows := make([]itemRow, 0, len(items))
	for i, it := range items {
		rows = append(rows, itemRow{
			ID:             uuid.NewString(),
			JournalEntryID: entryID,
			Position:       len(existing) + i,
			AccountID:      it.AccountID,
			AccountName:    it.AccountName,
			AccountNumber:  it.AccountNumber,
			Debit:          s.amount(it.Debit),
			Credit:         s.amount(it.Credit),
		})
	}
	body, err := s.do(ctx, http.MethodPost, storage.TableJournalEntryItems, rows, preferRepresentation)
	if err != nil {
		return nil, err
	}
	return convert(body, s.fromItemRow)
}

func (s *Store) DeleteItemsByEntry(ctx context.Context, entryID string) error {
	_, err := s.do(ctx, http.MethodDelete, storage.TableJournalEntryItems+"?journal_entry_id="+eq(entryID), nil, preferMinimal)
	return err
}

func (s *Store) ListItems(ctx context.Context) ([]ledger.JournalEntryItem, error) {
	return fetch(ctx, s, storage.TableJournalEntryItems+"?select=*&order=journal_entry_id.asc,position.asc", s.fromItemRow)
}

func (s *Store) ItemsByEntry(ctx context.Context, entryID string) ([]ledger.JournalEntryItem, error) {
	return fetch(ctx, s, storage.TableJournalEntryItems+"?select=*&journal_entry_id="+eq(entryID)+"&order=position.asc", s.fromItemRow)
}

var (
	_ storage.Store        = (*Store)(nil)
	_ storage.ReadyChecker = (*Store)(nil)
)
