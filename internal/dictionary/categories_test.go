package dictionary

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tinoosan/bizledger/internal/ledger"
)

func TestAllowed(t *testing.T) {
	assert.True(t, Allowed(ledger.AccountTypeAsset, ledger.CategoryFixedAssets))
	assert.False(t, Allowed(ledger.AccountTypeAsset, ledger.CategorySalesRevenue))
	assert.False(t, Allowed(ledger.AccountType("Bogus"), ledger.CategoryFixedAssets))
}

func TestCategoriesFor_ReturnsCopy(t *testing.T) {
	list := CategoriesFor(ledger.AccountTypeEquity)
	assert.Equal(t, []ledger.Category{ledger.CategoryOwnerEquity, ledger.CategoryRetainedEarnings}, list)
	list[0] = "changed"
	assert.Equal(t, ledger.CategoryOwnerEquity, CategoriesFor(ledger.AccountTypeEquity)[0])
	assert.Nil(t, CategoriesFor(ledger.AccountType("Bogus")))
}

func TestDefs(t *testing.T) {
	all := Defs(nil)
	assert.Len(t, all, 13)
	assert.Equal(t, ledger.AccountTypeAsset, all[0].Type)

	liab := ledger.AccountTypeLiability
	defs := Defs(&liab)
	assert.Len(t, defs, 2)
	assert.Equal(t, "long_term_liabilities", defs[1].Slug)
}

func TestParseCategory(t *testing.T) {
	for _, in := range []string{"Current Assets", "current assets", " CURRENT ASSETS ", "current_assets", "Current-Assets", "current   assets"} {
		c, ok := ParseCategory(in)
		assert.True(t, ok, in)
		assert.Equal(t, ledger.CategoryCurrentAssets, c, in)
	}
	for _, in := range []string{"", "  ", "Current"} {
		_, ok := ParseCategory(in)
		assert.False(t, ok, in)
	}
	c, ok := ParseCategory("Crypto")
	assert.False(t, ok)
	assert.Equal(t, ledger.Category("Crypto"), c)
}
