// Package postgrest stores the ledger in a Supabase project through its PostgREST API.
//
// PostgREST has no multi-request transactions, so this store does not implement
// storage.Transactor; the journal service compensates failed item writes instead.
// Calls are guarded by a circuit breaker and are never retried.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/tinoosan/bizledger/internal/errs"
	"github.com/tinoosan/bizledger/internal/ledger"
)

// Config configures the Supabase connection.
type Config struct {
	BaseURL        string
	APIKey         string
	ServiceRoleKey string
	// Currency is used to convert the numeric amount columns to minor units.
	Currency   string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Store talks to the accounts, journal_entries and journal_entry_items tables.
type Store struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	bearer     string
	curr       string
	cb         *gobreaker.CircuitBreaker
	logger     *slog.Logger
	now        func() time.Time
}

// New builds a Store. The service role key is preferred for the bearer token
// when present, otherwise the anon key is used.
func New(cfg Config) *Store {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	bearer := cfg.ServiceRoleKey
	if bearer == "" {
		bearer = cfg.APIKey
	}
	curr := cfg.Currency
	if curr == "" {
		curr = ledger.DefaultCurrency
	}
	return &Store{
		httpClient: hc,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		bearer:     bearer,
		curr:       curr,
		cb:         NewCircuitBreaker("supabase"),
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// NewCircuitBreaker trips after at least 5 requests with a 60% failure ratio.
// Not-found answers count as successes.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,                // half-open: allow 3 requests
		Interval:    30 * time.Second, // closed: reset counters every 30s
		Timeout:     10 * time.Second, // open -> half-open after 10s
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errs.IsNotFound(err)
		},
	})
}

// do executes one PostgREST request through the circuit breaker.
func (s *Store) do(ctx context.Context, method, path string, payload any, prefer string) ([]byte, error) {
	out, err := s.cb.Execute(func() (any, error) {
		return s.roundTrip(ctx, method, path, payload, prefer)
	})
	if err != nil {
		return nil, err
	}
	body, _ := out.([]byte)
	return body, nil
}

func (s *Store) roundTrip(ctx context.Context, method, path string, payload any, prefer string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", s.baseURL, path)
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		s.logger.Error("supabase: failed to create request", "method", method, "path", path, "err", err)
		return nil, err
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.bearer)
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("supabase: request failed", "method", method, "path", path, "err", err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusConflict {
		return nil, fmt.Errorf("%w: %s", errs.ErrConflict, strings.TrimSpace(string(body)))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("supabase: non-2xx response", "method", method, "path", path, "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("supabase %s %s returned %d: %s", method, path, resp.StatusCode, string(body))
	}
	s.logger.Debug("supabase: request OK", "method", method, "path", path, "status", resp.StatusCode)
	return body, nil
}

// Ready issues a cheap read against the accounts table.
func (s *Store) Ready(ctx context.Context) error {
	_, err := s.do(ctx, http.MethodGet, "accounts?select=id&limit=1", nil, "")
	return err
}

// amount encodes minor units as the numeric value PostgREST expects.
func (s *Store) amount(a ledger.Amount) json.Number { return json.Number(a.Format(s.curr)) }

func (s *Store) parseAmount(n json.Number) (ledger.Amount, error) {
	return ledger.ParseAmount(s.curr, n.String())
}

func decodeRows[T any](body []byte) ([]T, error) {
	rows := make([]T, 0)
	if len(bytes.TrimSpace(body)) == 0 {
		return rows, nil
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode rows: %w", err)
	}
	return rows, nil
}

// inList renders ids as a PostgREST in.(...) filter value.
func inList(ids []string) string {
	escaped := make([]string, len(ids))
	for i, id := range ids {
		escaped[i] = url.QueryEscape(id)
	}
	return "in.(" + strings.Join(escaped, ",") + ")"
}
