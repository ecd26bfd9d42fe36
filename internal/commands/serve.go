package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tinoosan/bizledger/internal/httpapi"
	"github.com/tinoosan/bizledger/internal/storage"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Addr = addr
			}
			return runServe(cmd.Context(), a)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ADDR)")
	return cmd
}

func runServe(ctx context.Context, a *app) error {
	b, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.close(); err != nil {
			a.log.Error("closing store", "err", err)
		}
	}()

	opts := httpapi.Options{
		Currency: a.cfg.Currency,
		Auth: httpapi.AuthConfig{
			Secret:   a.cfg.Auth.HS256Secret,
			Issuer:   a.cfg.Auth.Issuer,
			Audience: a.cfg.Auth.Audience,
		},
	}
	if rc, ok := b.store.(storage.ReadyChecker); ok {
		opts.Ready = rc
	}
	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           httpapi.New(b.accounts, b.journal, a.log, opts).Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("ledger service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Error("server shutdown error", "err", err)
			return err
		}
		return nil
	})
	return g.Wait()
}
