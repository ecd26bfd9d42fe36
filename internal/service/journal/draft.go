package journal

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tinoosan/bizledger/internal/errs"
	"github.com/tinoosan/bizledger/internal/ledger"
)

// Side selects the debit or credit column of a draft line.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// DraftItem is an editable line. AccountName and AccountNumber are display copies
// resolved from the registry when the account is chosen.
type DraftItem struct {
	ID            string
	AccountID     string
	AccountName   string
	AccountNumber string
	Debit         ledger.Amount
	Credit        ledger.Amount
}

// Draft is an in-progress entry. EntryID is empty until the draft is first saved.
type Draft struct {
	EntryID string
	Header  EntryHeader
	Items   []DraftItem

	seq int
}

// NewDraft starts an entry dated today with a generated number and one blank line.
func (s *service) NewDraft() *Draft {
	now := s.now().UTC()
	d := &Draft{
		Header: EntryHeader{
			EntryNumber: GenerateEntryNumber(now),
			Date:        time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
			Status:      ledger.StatusDraft,
		},
	}
	d.AddLineItem()
	return d
}

// GenerateEntryNumber returns "JE-" followed by the last six digits of t in unix milliseconds.
func GenerateEntryNumber(t time.Time) string {
	return fmt.Sprintf("JE-%06d", t.UnixMilli()%1_000_000)
}

// EditDraft loads a stored entry for editing.
func (s *service) EditDraft(ctx context.Context, id string) (*Draft, error) {
	e, err := s.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &Draft{
		EntryID: e.ID,
		Header: EntryHeader{
			EntryNumber: e.EntryNumber,
			Date:        e.Date,
			Description: e.Description,
			Reference:   e.Reference,
			Status:      e.Status,
		},
		Items: make([]DraftItem, 0, len(e.Items)),
	}
	for _, it := range e.Items {
		d.Items = append(d.Items, DraftItem{
			ID:            d.nextID(),
			AccountID:     it.AccountID,
			AccountName:   it.AccountName,
			AccountNumber: it.AccountNumber,
			Debit:         it.Debit,
			Credit:        it.Credit,
		})
	}
	return d, nil
}

func (d *Draft) nextID() string {
	d.seq++
	return "item-" + strconv.Itoa(d.seq)
}

// AddLineItem appends a blank line and returns its id.
func (d *Draft) AddLineItem() string {
	id := d.nextID()
	d.Items = append(d.Items, DraftItem{ID: id})
	return id
}

// RemoveLineItem drops a line. Removing the last line is allowed.
func (d *Draft) RemoveLineItem(itemID string) error {
	for i := range d.Items {
		if d.Items[i].ID == itemID {
			d.Items = append(d.Items[:i], d.Items[i+1:]...)
			return nil
		}
	}
	return errs.NotFound("line item", itemID)
}

func (d *Draft) item(itemID string) (*DraftItem, error) {
	for i := range d.Items {
		if d.Items[i].ID == itemID {
			return &d.Items[i], nil
		}
	}
	return nil, errs.NotFound("line item", itemID)
}

// SetAmount writes value to one side of a line. A positive value clears the
// opposite side; zero leaves it as is.
func (d *Draft) SetAmount(itemID string, side Side, value ledger.Amount) error {
	if value < 0 {
		return errs.Invalid(string(side), "must not be negative")
	}
	if value > ledger.MaxAmount {
		return errs.Invalid(string(side), "exceeds the maximum amount")
	}
	it, err := d.item(itemID)
	if err != nil {
		return err
	}
	switch side {
	case SideDebit:
		it.Debit = value
		if value > 0 {
			it.Credit = 0
		}
	case SideCredit:
		it.Credit = value
		if value > 0 {
			it.Debit = 0
		}
	default:
		return errs.Invalid("side", "must be debit or credit")
	}
	return nil
}

// Totals sums the draft lines. It fails with ledger.ErrOverflow rather than wrap.
func (d *Draft) Totals() (debit, credit ledger.Amount, err error) {
	lines := make([]ledger.JournalEntryItem, 0, len(d.Items))
	for _, it := range d.Items {
		lines = append(lines, ledger.JournalEntryItem{Debit: it.Debit, Credit: it.Credit})
	}
	return ledger.Totals(lines)
}

// Balanced reports whether debits equal credits. Overflowing totals never balance.
func (d *Draft) Balanced() bool {
	debit, credit, err := d.Totals()
	return err == nil && debit == credit
}

// SetAccountOnItem points a line at accountID and copies its display name and number.
// Amounts are untouched.
func (s *service) SetAccountOnItem(ctx context.Context, d *Draft, itemID, accountID string) error {
	it, err := d.item(itemID)
	if err != nil {
		return err
	}
	acc, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return errs.Persistence("get account", err)
	}
	it.AccountID = acc.ID
	it.AccountName = acc.AccountName
	it.AccountNumber = acc.AccountNumber
	return nil
}

// SaveDraft creates the entry on first save and updates it afterwards.
func (s *service) SaveDraft(ctx context.Context, d *Draft) (ledger.JournalEntry, error) {
	items := make([]ItemInput, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, ItemInput{AccountID: it.AccountID, Debit: it.Debit, Credit: it.Credit})
	}
	if d.EntryID == "" {
		e, err := s.CreateEntry(ctx, d.Header, items)
		if err != nil {
			return ledger.JournalEntry{}, err
		}
		d.EntryID = e.ID
		return e, nil
	}
	return s.UpdateEntry(ctx, d.EntryID, d.Header, items)
}
