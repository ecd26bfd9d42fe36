// Package httpapi wires the HTTP surface of the ledger.
// Handlers stay thin and delegate business rules to the account and journal services.
package httpapi

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tinoosan/bizledger/internal/ledger"
	"github.com/tinoosan/bizledger/internal/service/account"
	"github.com/tinoosan/bizledger/internal/service/journal"
	"github.com/tinoosan/bizledger/internal/storage"
)

// Options tunes the server. The zero value serves USD amounts without auth.
type Options struct {
	Currency string
	Auth     AuthConfig
	// Ready is consulted by /readyz when set.
	Ready storage.ReadyChecker
}

// Server wires handlers and middleware using chi.
type Server struct {
	accounts account.Service
	journal  journal.Service
	ready    storage.ReadyChecker
	curr     string
	log      *slog.Logger
	rt       *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
func New(accounts account.Service, entries journal.Service, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	curr := opts.Currency
	if curr == "" {
		curr = ledger.DefaultCurrency
	}
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)
	if auth := authJWT(opts.Auth); auth != nil {
		r.Use(auth)
	}

	s := &Server{
		accounts: accounts,
		journal:  entries,
		ready:    opts.Ready,
		curr:     curr,
		log:      logger,
		rt:       r,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

func (s *Server) routes() {
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Handle("/metrics", metricsHandler())

	s.rt.Route("/v1", func(r chi.Router) {
		r.Get("/dictionary/categories", s.getCategories)

		r.Route("/accounts", func(r chi.Router) {
			r.With(requireJSON).Post("/", s.postAccount)
			r.Get("/", s.listAccounts)
			r.Get("/export.csv", s.exportAccounts)
			r.With(requireJSON).Post("/bulk-delete", s.bulkDeleteAccounts)
			r.Get("/{id}", s.getAccount)
			r.With(requireJSON).Patch("/{id}", s.patchAccount)
			r.Delete("/{id}", s.deleteAccount)
		})

		r.Route("/entries", func(r chi.Router) {
			r.With(requireJSON).Post("/", s.postEntry)
			r.Get("/", s.listEntries)
			r.Get("/export.csv", s.exportEntries)
			r.With(requireJSON).Post("/bulk-delete", s.bulkDeleteEntries)
			r.Get("/{id}", s.getEntry)
			r.With(requireJSON).Put("/{id}", s.putEntry)
			r.Delete("/{id}", s.deleteEntry)
			r.Post("/{id}/post", s.postEntryStatus)
			r.Post("/{id}/void", s.voidEntry)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/balances-by-type", s.balancesByType)
			r.Get("/balance-sheet", s.balanceSheet)
			r.Get("/profit-and-loss", s.profitAndLoss)
			r.Get("/trial-balance", s.trialBalance)
			r.Get("/running-balances", s.runningBalances)
		})
	})
}
