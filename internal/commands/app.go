package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tinoosan/bizledger/internal/config"
	"github.com/tinoosan/bizledger/internal/ledger"
	"github.com/tinoosan/bizledger/internal/service/account"
	"github.com/tinoosan/bizledger/internal/service/journal"
	"github.com/tinoosan/bizledger/internal/storage"
	"github.com/tinoosan/bizledger/internal/storage/bolt"
	"github.com/tinoosan/bizledger/internal/storage/memory"
	"github.com/tinoosan/bizledger/internal/storage/postgres"
	"github.com/tinoosan/bizledger/internal/storage/postgrest"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfgPath string
	envPath string

	cfg config.Config
	log *slog.Logger
}

func (a *app) load(logOut io.Writer) error {
	cfg, err := config.Load(a.cfgPath, a.envPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = newLogger(logOut, cfg.Log)
	slog.SetDefault(a.log)
	return nil
}

// backend is an opened store plus the services built on it.
type backend struct {
	store    storage.Store
	accounts account.Service
	journal  journal.Service
	close    func() error
}

func (a *app) open(ctx context.Context) (*backend, error) {
	store, closeFn, err := openStore(ctx, a.cfg, a.log)
	if err != nil {
		return nil, err
	}
	var opts []account.Option
	if a.cfg.ForbidReferencedDelete {
		opts = append(opts, account.WithReferenceGuard(store))
	}
	b := &backend{
		store:    store,
		accounts: account.New(store, store, opts...),
		journal:  journal.New(store, store, journal.WithLogger(a.log)),
		close:    closeFn,
	}
	if a.cfg.DevSeed {
		if err := seedDev(ctx, b.accounts, a.log); err != nil {
			_ = closeFn()
			return nil, err
		}
	}
	return b, nil
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pg, err := postgres.Open(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		logger.Info("storage backend: postgres")
		return pg, pg.Close, nil
	case config.DriverBolt:
		db, err := bolt.Open(cfg.Storage.BoltPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening bolt file: %w", err)
		}
		logger.Info("storage backend: bolt", "path", cfg.Storage.BoltPath)
		return db, db.Close, nil
	case config.DriverPostgREST:
		logger.Info("storage backend: supabase", "url", cfg.Supabase.URL)
		return postgrest.New(postgrest.Config{
			BaseURL:        cfg.Supabase.URL,
			APIKey:         cfg.Supabase.AnonKey,
			ServiceRoleKey: cfg.Supabase.ServiceRoleKey,
			Currency:       cfg.Currency,
			Logger:         logger,
		}), noop, nil
	}
	logger.Info("storage backend: memory")
	return memory.New(), noop, nil
}

// devAccounts is the demo chart loaded by DEV_SEED.
var devAccounts = []account.AccountInput{
	{AccountNumber: "1000", AccountName: "Cash", AccountType: ledger.AccountTypeAsset, Category: ledger.CategoryCurrentAssets, Balance: 2500000},
	{AccountNumber: "1200", AccountName: "Accounts Receivable", AccountType: ledger.AccountTypeAsset, Category: ledger.CategoryCurrentAssets, Balance: 1500000},
	{AccountNumber: "2000", AccountName: "Accounts Payable", AccountType: ledger.AccountTypeLiability, Category: ledger.CategoryCurrentLiabilities, Balance: 800000},
	{AccountNumber: "3000", AccountName: "Owner Equity", AccountType: ledger.AccountTypeEquity, Category: ledger.CategoryOwnerEquity, Balance: 5000000},
}

// seedDev loads devAccounts into an empty registry and does nothing otherwise.
func seedDev(ctx context.Context, accounts account.Service, l *slog.Logger) error {
	existing, err := accounts.List(ctx, account.AccountFilter{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	ids := make(map[string]string, len(devAccounts))
	for _, in := range devAccounts {
		acc, err := accounts.Create(ctx, in)
		if err != nil {
			return fmt.Errorf("dev seed %s: %w", in.AccountNumber, err)
		}
		ids[acc.AccountNumber] = acc.ID
	}
	l.Info("DEV seed", "accounts", ids)
	return nil
}

// parseLogLevel maps config values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(w, opts))
}
