package memory

import (
	"testing"

	"github.com/tinoosan/bizledger/internal/ledger"
	"github.com/tinoosan/bizledger/internal/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, New())
}

func TestReset(t *testing.T) {
	s := New()
	s.SeedAccount(ledger.Account{AccountNumber: "1000", AccountName: "Cash"})
	s.Reset()
	if got := len(s.accounts); got != 0 {
		t.Fatalf("expected empty store after reset, got %d accounts", got)
	}
}
