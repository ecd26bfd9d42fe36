package memory

import "github.com/tinoosan/bizledger/internal/storage"

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
	_ storage.Store        = (*Store)(nil)
	_ storage.Transactor   = (*Store)(nil)
	_ storage.ReadyChecker = (*Store)(nil)
)
