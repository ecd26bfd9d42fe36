package journal

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tinoosan/bizledger/internal/errs"
	"github.com/tinoosan/bizledger/internal/ledger"
	"github.com/tinoosan/bizledger/internal/storage"
)

// Repo defines read operations needed by the service.
type Repo interface {
	GetAccount(ctx context.Context, id string) (ledger.Account, error)
	ListEntries(ctx context.Context) ([]ledger.JournalEntry, error)
	GetEntry(ctx context.Context, id string) (ledger.JournalEntry, error)
	ListItems(ctx context.Context) ([]ledger.JournalEntryItem, error)
	ItemsByEntry(ctx context.Context, entryID string) ([]ledger.JournalEntryItem, error)
}

// Writer defines write operations needed by the service. When the writer also
// implements storage.Transactor, header and item writes commit together.
type Writer interface {
	InsertEntry(ctx context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error)
	UpdateEntry(ctx context.Context, e ledger.JournalEntry) (ledger.JournalEntry, error)
	DeleteEntry(ctx context.Context, id string) error
	DeleteEntries(ctx context.Context, ids []string) error
	InsertItems(ctx context.Context, entryID string, items []ledger.JournalEntryItem) ([]ledger.JournalEntryItem, error)
	DeleteItemsByEntry(ctx context.Context, entryID string) error
}

// Service exposes validation, persistence and lifecycle of journal entries plus draft editing.
type Service interface {
	ValidateEntry(ctx context.Context, h EntryHeader, items []ItemInput) ([]ledger.JournalEntryItem, error)
	CreateEntry(ctx context.Context, h EntryHeader, items []ItemInput) (ledger.JournalEntry, error)
	UpdateEntry(ctx context.Context, id string, h EntryHeader, items []ItemInput) (ledger.JournalEntry, error)
	DeleteEntry(ctx context.Context, id string) error
	DeleteEntries(ctx context.Context, ids []string) error
	GetEntry(ctx context.Context, id string) (ledger.JournalEntry, error)
	ListEntries(ctx context.Context, f EntryFilter) ([]ledger.JournalEntry, error)
	Post(ctx context.Context, id string) (ledger.JournalEntry, error)
	Void(ctx context.Context, id string) (ledger.JournalEntry, error)

	NewDraft() *Draft
	EditDraft(ctx context.Context, id string) (*Draft, error)
	SetAccountOnItem(ctx context.Context, d *Draft, itemID, accountID string) error
	SaveDraft(ctx context.Context, d *Draft) (ledger.JournalEntry, error)
}

// EntryHeader is the caller-editable part of a journal entry.
// An empty Status means draft on create and "unchanged" on update.
type EntryHeader struct {
	EntryNumber string
	Date        time.Time
	Description string
	Reference   string
	Status      ledger.EntryStatus
}

// ItemInput is one line of an entry as submitted. Exactly one side must be positive.
type ItemInput struct {
	AccountID string
	Debit     ledger.Amount
	Credit    ledger.Amount
}

// EntryFilter narrows ListEntries. Query matches entry number, description and
// reference case-insensitively.
type EntryFilter struct {
	Query  string
	Status ledger.EntryStatus
}

type Option func(*service)

// WithClock overrides time.Now for generated entry numbers and draft dates.
func WithClock(now func() time.Time) Option { return func(s *service) { s.now = now } }

// WithLogger sets the logger used for failed compensating writes.
func WithLogger(l *slog.Logger) Option { return func(s *service) { s.log = l } }

type service struct {
	repo   Repo
	writer Writer
	now    func() time.Time
	log    *slog.Logger
}

func New(repo Repo, writer Writer, opts ...Option) Service {
	s := &service{repo: repo, writer: writer, now: time.Now, log: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ValidateEntry checks the header and items and returns the items resolved
// against the account registry. Unbalanced totals only fail when the requested
// status is posted.
func (s *service) ValidateEntry(ctx context.Context, h EntryHeader, items []ItemInput) ([]ledger.JournalEntryItem, error) {
	if strings.TrimSpace(h.EntryNumber) == "" {
		return nil, errs.Invalid("entry_number", "is required")
	}
	if h.Date.IsZero() {
		return nil, errs.Invalid("date", "is required")
	}
	if strings.TrimSpace(h.Description) == "" {
		return nil, errs.Invalid("description", "is required")
	}
	if h.Status != "" && !h.Status.Valid() {
		return nil, errs.Invalid("status", "must be draft, posted or voided")
	}
	if len(items) == 0 {
		return nil, errs.Invalid("items", "at least one item is required")
	}
	cache := make(map[string]ledger.Account, len(items))
	out := make([]ledger.JournalEntryItem, 0, len(items))
	for i, in := range items {
		if in.AccountID == "" {
			return nil, fieldErr(i, "account_id", "is required")
		}
		if in.Debit < 0 || in.Credit < 0 {
			return nil, fieldErr(i, "amount", "must not be negative")
		}
		if in.Debit > ledger.MaxAmount || in.Credit > ledger.MaxAmount {
			return nil, fieldErr(i, "amount", "exceeds the maximum amount")
		}
		if (in.Debit > 0) == (in.Credit > 0) {
			return nil, fieldErr(i, "amount", "exactly one of debit or credit must be positive")
		}
		acc, ok := cache[in.AccountID]
		if !ok {
			var err error
			acc, err = s.repo.GetAccount(ctx, in.AccountID)
			if errs.IsNotFound(err) {
				return nil, fieldErr(i, "account_id", "unknown account")
			}
			if err != nil {
				return nil, errs.Persistence("get account", err)
			}
			cache[in.AccountID] = acc
		}
		out = append(out, ledger.JournalEntryItem{
			AccountID:     acc.ID,
			AccountName:   acc.AccountName,
			AccountNumber: acc.AccountNumber,
			Debit:         in.Debit,
			Credit:        in.Credit,
		})
	}
	if _, _, err := ledger.Totals(out); err != nil {
		return nil, errs.Invalid("items", "totals exceed the amount range")
	}
	if h.Status == ledger.StatusPosted {
		if err := checkBalanced(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func checkBalanced(items []ledger.JournalEntryItem) error {
	d, c, err := ledger.Totals(items)
	if err != nil {
		return errs.Invalid("items", "totals exceed the amount range")
	}
	if d != c {
		return &errs.UnbalancedEntryError{TotalDebit: int64(d), TotalCredit: int64(c)}
	}
	return nil
}

// CreateEntry stores a new entry. A blank entry number is generated from the
// service clock, and a blank status means draft.
func (s *service) CreateEntry(ctx context.Context, h EntryHeader, items []ItemInput) (ledger.JournalEntry, error) {
	if strings.TrimSpace(h.EntryNumber) == "" {
		h.EntryNumber = GenerateEntryNumber(s.now())
	}
	if h.Status == "" {
		h.Status = ledger.StatusDraft
	}
	resolved, err := s.ValidateEntry(ctx, h, items)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	e := headerToEntry(h, resolved)
	if err := s.inTx(ctx, func(w Writer) error {
		created, err := w.InsertEntry(ctx, e)
		if err != nil {
			return errs.Persistence("insert entry", err)
		}
		stored, err := w.InsertItems(ctx, created.ID, resolved)
		if err != nil {
			s.compensateCreate(ctx, w, created.ID)
			return errs.Persistence("insert items", err)
		}
		e = withItems(created, stored)
		return nil
	}); err != nil {
		return ledger.JournalEntry{}, err
	}
	return e, nil
}

// UpdateEntry replaces header and the full item set. Status changes must follow
// the draft -> posted -> voided lifecycle.
func (s *service) UpdateEntry(ctx context.Context, id string, h EntryHeader, items []ItemInput) (ledger.JournalEntry, error) {
	cur, err := s.GetEntry(ctx, id)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if strings.TrimSpace(h.EntryNumber) == "" {
		h.EntryNumber = cur.EntryNumber
	}
	if h.Status == "" {
		h.Status = cur.Status
	}
	if h.Status.Valid() && !cur.Status.CanTransition(h.Status) {
		return ledger.JournalEntry{}, transitionErr(cur.Status, h.Status)
	}
	resolved, err := s.ValidateEntry(ctx, h, items)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	e := headerToEntry(h, resolved)
	e.ID = cur.ID
	if err := s.inTx(ctx, func(w Writer) error {
		updated, err := w.UpdateEntry(ctx, e)
		if err != nil {
			return errs.Persistence("update entry", err)
		}
		if err := w.DeleteItemsByEntry(ctx, id); err != nil {
			s.compensateUpdate(ctx, w, cur, false)
			return errs.Persistence("delete items", err)
		}
		stored, err := w.InsertItems(ctx, id, resolved)
		if err != nil {
			s.compensateUpdate(ctx, w, cur, true)
			return errs.Persistence("insert items", err)
		}
		e = withItems(updated, stored)
		return nil
	}); err != nil {
		return ledger.JournalEntry{}, err
	}
	return e, nil
}

func (s *service) DeleteEntry(ctx context.Context, id string) error {
	if _, err := s.repo.GetEntry(ctx, id); err != nil {
		return errs.Persistence("get entry", err)
	}
	return s.inTx(ctx, func(w Writer) error {
		if err := w.DeleteItemsByEntry(ctx, id); err != nil {
			return errs.Persistence("delete items", err)
		}
		return errs.Persistence("delete entry", w.DeleteEntry(ctx, id))
	})
}

// DeleteEntries removes every listed entry with its items. Unknown ids abort before any write.
func (s *service) DeleteEntries(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return errs.Invalid("ids", "must not be empty")
	}
	for _, id := range ids {
		if _, err := s.repo.GetEntry(ctx, id); err != nil {
			return errs.Persistence("get entry", err)
		}
	}
	return s.inTx(ctx, func(w Writer) error {
		for _, id := range ids {
			if err := w.DeleteItemsByEntry(ctx, id); err != nil {
				return errs.Persistence("delete items", err)
			}
		}
		return errs.Persistence("delete entries", w.DeleteEntries(ctx, ids))
	})
}

// GetEntry returns the entry with its items; totals are recomputed from the items.
func (s *service) GetEntry(ctx context.Context, id string) (ledger.JournalEntry, error) {
	e, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return ledger.JournalEntry{}, errs.Persistence("get entry", err)
	}
	items, err := s.repo.ItemsByEntry(ctx, id)
	if err != nil {
		return ledger.JournalEntry{}, errs.Persistence("list items", err)
	}
	return withItems(e, items), nil
}

// ListEntries returns entries with items ordered by date, then entry number.
func (s *service) ListEntries(ctx context.Context, f EntryFilter) ([]ledger.JournalEntry, error) {
	entries, err := s.repo.ListEntries(ctx)
	if err != nil {
		return nil, errs.Persistence("list entries", err)
	}
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, errs.Persistence("list items", err)
	}
	byEntry := make(map[string][]ledger.JournalEntryItem, len(entries))
	for _, it := range items {
		byEntry[it.JournalEntryID] = append(byEntry[it.JournalEntryID], it)
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]ledger.JournalEntry, 0, len(entries))
	for _, e := range entries {
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if q != "" && !matches(e, q) {
			continue
		}
		out = append(out, withItems(e, byEntry[e.ID]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].EntryNumber != out[j].EntryNumber {
			return out[i].EntryNumber < out[j].EntryNumber
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func matches(e ledger.JournalEntry, q string) bool {
	return strings.Contains(strings.ToLower(e.EntryNumber), q) ||
		strings.Contains(strings.ToLower(e.Description), q) ||
		strings.Contains(strings.ToLower(e.Reference), q)
}

// Post marks a draft as posted. The entry must have items and balance.
func (s *service) Post(ctx context.Context, id string) (ledger.JournalEntry, error) {
	return s.transition(ctx, id, ledger.StatusPosted)
}

// Void marks a draft or posted entry as voided.
func (s *service) Void(ctx context.Context, id string) (ledger.JournalEntry, error) {
	return s.transition(ctx, id, ledger.StatusVoided)
}

func (s *service) transition(ctx context.Context, id string, next ledger.EntryStatus) (ledger.JournalEntry, error) {
	cur, err := s.GetEntry(ctx, id)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if !cur.Status.CanTransition(next) {
		return ledger.JournalEntry{}, transitionErr(cur.Status, next)
	}
	if cur.Status == next {
		return cur, nil
	}
	if next == ledger.StatusPosted {
		if len(cur.Items) == 0 {
			return ledger.JournalEntry{}, errs.Invalid("items", "at least one item is required")
		}
		if err := checkBalanced(cur.Items); err != nil {
			return ledger.JournalEntry{}, err
		}
	}
	items := cur.Items
	cur.Status = next
	updated, err := s.writer.UpdateEntry(ctx, cur)
	if err != nil {
		return ledger.JournalEntry{}, errs.Persistence("update entry", err)
	}
	return withItems(updated, items), nil
}

// inTx runs fn in a store transaction when the writer supports one.
func (s *service) inTx(ctx context.Context, fn func(w Writer) error) error {
	tx, ok := s.writer.(storage.Transactor)
	if !ok {
		return fn(s.writer)
	}
	return tx.WithTx(ctx, func(st storage.Store) error { return fn(st) })
}

// compensateCreate removes a header whose items failed to save. Inside a
// transaction the rollback already covers this and the delete is harmless.
func (s *service) compensateCreate(ctx context.Context, w Writer, id string) {
	if _, ok := s.writer.(storage.Transactor); ok {
		return
	}
	if err := w.DeleteEntry(ctx, id); err != nil {
		s.log.Error("compensating delete failed", "entry_id", id, "err", err)
	}
}

// compensateUpdate restores the previous header and, when they were removed, its items.
func (s *service) compensateUpdate(ctx context.Context, w Writer, prev ledger.JournalEntry, restoreItems bool) {
	if _, ok := s.writer.(storage.Transactor); ok {
		return
	}
	if _, err := w.UpdateEntry(ctx, prev); err != nil {
		s.log.Error("compensating header restore failed", "entry_id", prev.ID, "err", err)
	}
	if !restoreItems || len(prev.Items) == 0 {
		return
	}
	if _, err := w.InsertItems(ctx, prev.ID, prev.Items); err != nil {
		s.log.Error("compensating item restore failed", "entry_id", prev.ID, "err", err)
	}
}

func headerToEntry(h EntryHeader, items []ledger.JournalEntryItem) ledger.JournalEntry {
	// items come from ValidateEntry, which rejects overflowing totals
	d, c, _ := ledger.Totals(items)
	return ledger.JournalEntry{
		EntryNumber: strings.TrimSpace(h.EntryNumber),
		Date:        h.Date,
		Description: strings.TrimSpace(h.Description),
		Reference:   strings.TrimSpace(h.Reference),
		Status:      h.Status,
		TotalDebit:  d,
		TotalCredit: c,
	}
}

func withItems(e ledger.JournalEntry, items []ledger.JournalEntryItem) ledger.JournalEntry {
	if items == nil {
		items = []ledger.JournalEntryItem{}
	}
	e.Items = items
	if d, c, err := ledger.Totals(items); err == nil {
		e.TotalDebit, e.TotalCredit = d, c
	}
	return e
}

func transitionErr(from, to ledger.EntryStatus) error {
	return &TransitionError{From: from, To: to}
}

// TransitionError reports a status change outside the lifecycle.
type TransitionError struct {
	From, To ledger.EntryStatus
}

func (e *TransitionError) Error() string {
	return "cannot move entry from " + string(e.From) + " to " + string(e.To)
}

func (e *TransitionError) Is(target error) bool { return target == errs.ErrInvalidTransition }

func fieldErr(i int, field, msg string) error {
	return errs.Invalid("items["+strconv.Itoa(i)+"]."+field, msg)
}
