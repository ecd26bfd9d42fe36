// Package dictionary holds the fixed category sets allowed for each account type.
package dictionary

import (
	"strings"

	"github.com/tinoosan/bizledger/internal/ledger"
	"github.com/tinoosan/bizledger/internal/slug"
)

// CategoryDef describes one allowed category. Code is the value stored on
// accounts; Slug is an alternative spelling accepted on input.
type CategoryDef struct {
	Code  ledger.Category    `json:"code"`
	Slug  string             `json:"slug"`
	Type  ledger.AccountType `json:"type"`
	Label string             `json:"label"`
}

var curated = map[ledger.AccountType][]ledger.Category{
	ledger.AccountTypeAsset: {
		ledger.CategoryCurrentAssets,
		ledger.CategoryFixedAssets,
		ledger.CategoryOtherAssets,
	},
	ledger.AccountTypeLiability: {
		ledger.CategoryCurrentLiabilities,
		ledger.CategoryLongTermLiabilities,
	},
	ledger.AccountTypeEquity: {
		ledger.CategoryOwnerEquity,
		ledger.CategoryRetainedEarnings,
	},
	ledger.AccountTypeRevenue: {
		ledger.CategorySalesRevenue,
		ledger.CategoryServiceRevenue,
		ledger.CategoryOtherRevenue,
	},
	ledger.AccountTypeExpense: {
		ledger.CategoryOperatingExpenses,
		ledger.CategoryAdministrativeExpenses,
		ledger.CategoryOtherExpenses,
	},
}

// Allowed reports whether category c may be used with account type t.
func Allowed(t ledger.AccountType, c ledger.Category) bool {
	for _, allowed := range curated[t] {
		if allowed == c {
			return true
		}
	}
	return false
}

// CategoriesFor returns the categories for t, or nil for an unknown type.
// The returned slice is a copy.
func CategoriesFor(t ledger.AccountType) []ledger.Category {
	list := curated[t]
	if list == nil {
		return nil
	}
	return append([]ledger.Category(nil), list...)
}

// Defs returns category definitions for t, or for all types in presentation order when t is nil.
func Defs(t *ledger.AccountType) []CategoryDef {
	types := ledger.AccountTypes
	if t != nil {
		types = []ledger.AccountType{*t}
	}
	out := make([]CategoryDef, 0)
	for _, tt := range types {
		for _, c := range curated[tt] {
			out = append(out, CategoryDef{Code: c, Slug: slug.Make(string(c)), Type: tt, Label: string(c)})
		}
	}
	return out
}

// ParseCategory resolves s against every known category when both produce the
// same slug, so "Long-Term Liabilities", "long term liabilities" and
// "long_term_liabilities" all match. Unknown input is returned unchanged with
// ok=false so callers can report it.
func ParseCategory(s string) (ledger.Category, bool) {
	s = strings.TrimSpace(s)
	for _, t := range ledger.AccountTypes {
		for _, c := range curated[t] {
			if slug.Equal(string(c), s) {
				return c, true
			}
		}
	}
	return ledger.Category(s), false
}
