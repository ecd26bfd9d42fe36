// Package account implements the chart-of-accounts rules: closed type enum, a fixed
// category set per type, and account_number as a natural key.
package account

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tinoosan/bizledger/internal/dictionary"
	"github.com/tinoosan/bizledger/internal/errs"
	"github.com/tinoosan/bizledger/internal/ledger"
)

type Repo interface {
	ListAccounts(ctx context.Context) ([]ledger.Account, error)
	GetAccount(ctx context.Context, id string) (ledger.Account, error)
}

type Writer interface {
	InsertAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
	UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
	DeleteAccount(ctx context.Context, id string) error
	DeleteAccounts(ctx context.Context, ids []string) error
}

// ItemLister is consulted by the reference guard before deleting accounts.
type ItemLister interface {
	ListItems(ctx context.Context) ([]ledger.JournalEntryItem, error)
}

type Service interface {
	ValidateCreate(in AccountInput) error
	Create(ctx context.Context, in AccountInput) (ledger.Account, error)
	Update(ctx context.Context, id string, patch AccountPatch) (ledger.Account, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) error
	Get(ctx context.Context, id string) (ledger.Account, error)
	List(ctx context.Context, f AccountFilter) ([]ledger.Account, error)
}

// AccountInput carries the caller-supplied fields of a new account.
type AccountInput struct {
	AccountNumber string
	AccountName   string
	AccountType   ledger.AccountType
	Category      ledger.Category
	Balance       ledger.Amount
	Description   string
}

// AccountPatch updates only the non-nil fields.
type AccountPatch struct {
	AccountNumber *string
	AccountName   *string
	AccountType   *ledger.AccountType
	Category      *ledger.Category
	Balance       *ledger.Amount
	Description   *string
}

// AccountFilter narrows List. Zero value lists everything.
type AccountFilter struct {
	Type  ledger.AccountType
	Query string
}

type Option func(*service)

// WithReferenceGuard makes Delete and DeleteMany fail with errs.ErrAccountInUse
// while any journal item still references the account.
func WithReferenceGuard(items ItemLister) Option {
	return func(s *service) { s.items = items }
}

type service struct {
	repo   Repo
	writer Writer
	items  ItemLister
}

func New(repo Repo, writer Writer, opts ...Option) Service {
	s := &service{repo: repo, writer: writer}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *service) ValidateCreate(in AccountInput) error {
	if strings.TrimSpace(in.AccountNumber) == "" {
		return errs.Invalid("account_number", "is required")
	}
	if strings.TrimSpace(in.AccountName) == "" {
		return errs.Invalid("account_name", "is required")
	}
	if !in.Balance.InRange() {
		return errs.Invalid("balance", "exceeds the maximum amount")
	}
	return validateClassification(in.AccountType, in.Category)
}

func validateClassification(t ledger.AccountType, c ledger.Category) error {
	if !t.Valid() {
		return errs.Invalid("account_type", "must be one of Asset, Liability, Equity, Revenue, Expense")
	}
	if !dictionary.Allowed(t, c) {
		return errs.Invalid("category", "\""+string(c)+"\" is not allowed for "+string(t))
	}
	return nil
}

func (s *service) Create(ctx context.Context, in AccountInput) (ledger.Account, error) {
	in.AccountNumber = strings.TrimSpace(in.AccountNumber)
	in.AccountName = strings.TrimSpace(in.AccountName)
	if err := s.ValidateCreate(in); err != nil {
		return ledger.Account{}, err
	}
	if err := s.ensureNumberFree(ctx, in.AccountNumber, ""); err != nil {
		return ledger.Account{}, err
	}
	a := ledger.Account{
		AccountNumber: in.AccountNumber,
		AccountName:   in.AccountName,
		AccountType:   in.AccountType,
		Category:      in.Category,
		Balance:       in.Balance,
		Description:   in.Description,
	}
	created, err := s.writer.InsertAccount(ctx, a)
	if err != nil {
		return ledger.Account{}, errs.Persistence("insert account", err)
	}
	return created, nil
}

// Update applies patch to the stored account. The category is re-checked against
// the resulting type even when only one of the two changes.
func (s *service) Update(ctx context.Context, id string, patch AccountPatch) (ledger.Account, error) {
	cur, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return ledger.Account{}, errs.Persistence("get account", err)
	}
	next := cur
	if patch.AccountNumber != nil {
		next.AccountNumber = strings.TrimSpace(*patch.AccountNumber)
		if next.AccountNumber == "" {
			return ledger.Account{}, errs.Invalid("account_number", "is required")
		}
	}
	if patch.AccountName != nil {
		next.AccountName = strings.TrimSpace(*patch.AccountName)
		if next.AccountName == "" {
			return ledger.Account{}, errs.Invalid("account_name", "is required")
		}
	}
	if patch.AccountType != nil {
		next.AccountType = *patch.AccountType
	}
	if patch.Category != nil {
		next.Category = *patch.Category
	}
	if patch.Balance != nil {
		if !patch.Balance.InRange() {
			return ledger.Account{}, errs.Invalid("balance", "exceeds the maximum amount")
		}
		next.Balance = *patch.Balance
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}
	if err := validateClassification(next.AccountType, next.Category); err != nil {
		return ledger.Account{}, err
	}
	if next.AccountNumber != cur.AccountNumber {
		if err := s.ensureNumberFree(ctx, next.AccountNumber, id); err != nil {
			return ledger.Account{}, err
		}
	}
	updated, err := s.writer.UpdateAccount(ctx, next)
	if err != nil {
		return ledger.Account{}, errs.Persistence("update account", err)
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetAccount(ctx, id); err != nil {
		return errs.Persistence("get account", err)
	}
	if err := s.guard(ctx, []string{id}); err != nil {
		return err
	}
	return errs.Persistence("delete account", s.writer.DeleteAccount(ctx, id))
}

// DeleteMany removes all ids or none. Every id must exist.
func (s *service) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return errs.Invalid("ids", "must not be empty")
	}
	for _, id := range ids {
		if _, err := s.repo.GetAccount(ctx, id); err != nil {
			return errs.Persistence("get account", err)
		}
	}
	if err := s.guard(ctx, ids); err != nil {
		return err
	}
	return errs.Persistence("delete accounts", s.writer.DeleteAccounts(ctx, ids))
}

func (s *service) guard(ctx context.Context, ids []string) error {
	if s.items == nil {
		return nil
	}
	items, err := s.items.ListItems(ctx)
	if err != nil {
		return errs.Persistence("list items", err)
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	for _, it := range items {
		if _, ok := want[it.AccountID]; ok {
			return errs.ErrAccountInUse
		}
	}
	return nil
}

func (s *service) Get(ctx context.Context, id string) (ledger.Account, error) {
	a, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return ledger.Account{}, errs.Persistence("get account", err)
	}
	return a, nil
}

// List returns accounts ordered by account_number then id.
func (s *service) List(ctx context.Context, f AccountFilter) ([]ledger.Account, error) {
	all, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, errs.Persistence("list accounts", err)
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]ledger.Account, 0, len(all))
	for _, a := range all {
		if f.Type != "" && a.AccountType != f.Type {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(a.AccountName), q) && !strings.Contains(strings.ToLower(a.AccountNumber), q) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AccountNumber != out[j].AccountNumber {
			return out[i].AccountNumber < out[j].AccountNumber
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ensureNumberFree returns errs.ErrConflict when another account (not exceptID) already uses number.
func (s *service) ensureNumberFree(ctx context.Context, number, exceptID string) error {
	existing, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return errs.Persistence("list accounts", err)
	}
	for _, a := range existing {
		if a.ID != exceptID && strings.EqualFold(a.AccountNumber, number) {
			return ErrNumberExists
		}
	}
	return nil
}

// ErrNumberExists indicates another account already uses the account number.
var ErrNumberExists = fmt.Errorf("%w: account number already exists", errs.ErrConflict)
