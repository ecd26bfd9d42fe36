package postgrest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/bizledger/internal/errs"
	"github.com/tinoosan/bizledger/internal/ledger"
)

type recorded struct {
	method string
	uri    string
	prefer string
	auth   string
	apikey string
	body   string
}

// fakeREST answers every request with the handler's status and body and keeps a log.
type fakeREST struct {
	mu     sync.Mutex
	calls  []recorded
	answer func(r *http.Request, body []byte) (int, string)
}

func (f *fakeREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, recorded{
		method: r.Method,
		uri:    r.URL.RequestURI(),
		prefer: r.Header.Get("Prefer"),
		auth:   r.Header.Get("Authorization"),
		apikey: r.Header.Get("apikey"),
		body:   string(body),
	})
	f.mu.Unlock()
	status, out := f.answer(r, body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, out)
}

func newTestStore(t *testing.T, answer func(r *http.Request, body []byte) (int, string)) (*Store, *fakeREST) {
	t.Helper()
	f := &fakeREST{answer: answer}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	s := New(Config{BaseURL: srv.URL + "/", APIKey: "anon", ServiceRoleKey: "service", Currency: "USD"})
	return s, f
}

// echo returns the posted row as a one element array with a created_at stamp.
func echo(r *http.Request, body []byte) (int, string) {
	var row map[string]any
	if err := json.Unmarshal(body, &row); err != nil {
		return http.StatusBadRequest, `{"message":"bad json"}`
	}
	row["created_at"] = "2025-01-02T03:04:05.123456+00:00"
	out, _ := json.Marshal([]map[string]any{row})
	return http.StatusCreated, string(out)
}

func TestInsertAccount_SendsRowAndDecodesReply(t *testing.T) {
	s, f := newTestStore(t, echo)
	a, err := s.InsertAccount(context.Background(), ledger.Account{
		AccountNumber: "1000", AccountName: "Cash",
		AccountType: ledger.AccountTypeAsset, Category: ledger.CategoryCurrentAssets,
		Balance: 2500050,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, ledger.Amount(2500050), a.Balance)
	assert.False(t, a.CreatedAt.IsZero())

	require.Len(t, f.calls, 1)
	c := f.calls[0]
	assert.Equal(t, http.MethodPost, c.method)
	assert.Equal(t, "/rest/v1/accounts", c.uri)
	assert.Equal(t, preferRepresentation, c.prefer)
	assert.Equal(t, "Bearer service", c.auth)
	assert.Equal(t, "anon", c.apikey)
	assert.Contains(t, c.body, `"balance":25000.50`)
	assert.Contains(t, c.body, `"description":null`)
}

func TestGetAccount_EmptyResultIsNotFound(t *testing.T) {
	s, f := newTestStore(t, func(*http.Request, []byte) (int, string) { return http.StatusOK, `[]` })
	_, err := s.GetAccount(context.Background(), "a b")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	require.Len(t, f.calls, 1)
	assert.Equal(t, "/rest/v1/accounts?select=*&id=eq.a+b&limit=1", f.calls[0].uri)
}

func TestUpdateAccount_NoRowIsNotFound(t *testing.T) {
	s, f := newTestStore(t, func(*http.Request, []byte) (int, string) { return http.StatusOK, `[]` })
	_, err := s.UpdateAccount(context.Background(), ledger.Account{ID: "missing", AccountNumber: "1", AccountName: "x"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
	require.Len(t, f.calls, 1)
	assert.Equal(t, http.MethodPatch, f.calls[0].method)
	assert.NotContains(t, f.calls[0].body, `"id"`)
	assert.Contains(t, f.calls[0].body, `"updated_at"`)
}

func TestConflictStatusMapsToErrConflict(t *testing.T) {
	s, _ := newTestStore(t, func(*http.Request, []byte) (int, string) {
		return http.StatusConflict, `{"code":"23505","message":"duplicate key"}`
	})
	_, err := s.InsertAccount(context.Background(), ledger.Account{AccountNumber: "1000", AccountName: "Cash"})
	assert.ErrorIs(t, err, errs.ErrConflict)
}

func TestDeleteAccounts_MissingIDDeletesNothing(t *testing.T) {
	s, f := newTestStore(t, func(r *http.Request, _ []byte) (int, string) {
		if r.Method == http.MethodGet {
			return http.StatusOK, `[{"id":"a"}]`
		}
		return http.StatusNoContent, ``
	})
	err := s.DeleteAccounts(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
	for _, c := range f.calls {
		assert.NotEqual(t, http.MethodDelete, c.method)
	}
}

func TestDeleteAccounts_AllPresent(t *testing.T) {
	s, f := newTestStore(t, func(r *http.Request, _ []byte) (int, string) {
		if r.Method == http.MethodGet {
			return http.StatusOK, `[{"id":"a"},{"id":"b"}]`
		}
		return http.StatusNoContent, ``
	})
	require.NoError(t, s.DeleteAccounts(context.Background(), []string{"a", "b"}))
	require.Len(t, f.calls, 2)
	assert.Equal(t, http.MethodDelete, f.calls[1].method)
	assert.Equal(t, "/rest/v1/accounts?id=in.(a,b)", f.calls[1].uri)
}

func TestDeleteEntries_MissingIDDeletesNothing(t *testing.T) {
	s, f := newTestStore(t, func(r *http.Request, _ []byte) (int, string) {
		if r.Method == http.MethodGet {
			return http.StatusOK, `[{"id":"a"}]`
		}
		return http.StatusNoContent, ``
	})
	err := s.DeleteEntries(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
	require.Len(t, f.calls, 1)
	assert.Equal(t, "/rest/v1/journal_entries?select=id&id=in.(a,b)", f.calls[0].uri)
}

func TestDeleteEntries_ItemsThenHeaders(t *testing.T) {
	s, f := newTestStore(t, func(r *http.Request, _ []byte) (int, string) {
		if r.Method == http.MethodGet {
			return http.StatusOK, `[{"id":"a"},{"id":"b"}]`
		}
		return http.StatusNoContent, ``
	})
	require.NoError(t, s.DeleteEntries(context.Background(), []string{"a", "b"}))
	require.Len(t, f.calls, 3)
	assert.Equal(t, http.MethodGet, f.calls[0].method)
	assert.Equal(t, http.MethodDelete, f.calls[1].method)
	assert.Equal(t, "/rest/v1/journal_entry_items?journal_entry_id=in.(a,b)", f.calls[1].uri)
	assert.Equal(t, http.MethodDelete, f.calls[2].method)
	assert.Equal(t, "/rest/v1/journal_entries?id=in.(a,b)", f.calls[2].uri)
}

func TestEntryRoundTrip(t *testing.T) {
	s, _ := newTestStore(t, echo)
	e, err := s.InsertEntry(context.Background(), ledger.JournalEntry{
		EntryNumber: "JE-000001", Description: "Rent", Status: ledger.StatusPosted,
		TotalDebit: 12345, TotalCredit: 12345,
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.Amount(12345), e.TotalDebit)
	assert.Equal(t, ledger.StatusPosted, e.Status)
}

func TestInsertItems_PositionsFollowExisting(t *testing.T) {
	s, f := newTestStore(t, func(r *http.Request, body []byte) (int, string) {
		if r.Method == http.MethodGet {
			return http.StatusOK, `[{"id":"i0","journal_entry_id":"e1","position":0,"account_id":"a","debit":1,"credit":0}]`
		}
		return http.StatusCreated, string(body)
	})
	items, err := s.InsertItems(context.Background(), "e1", []ledger.JournalEntryItem{
		{AccountID: "a", AccountName: "Cash", Debit: 100},
		{AccountID: "b", AccountName: "AP", Credit: 100},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "e1", items[0].JournalEntryID)
	assert.Equal(t, ledger.Amount(100), items[1].Credit)

	require.Len(t, f.calls, 2)
	assert.True(t, strings.Contains(f.calls[1].body, `"position":1`))
	assert.True(t, strings.Contains(f.calls[1].body, `"position":2`))
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	s, f := newTestStore(t, func(*http.Request, []byte) (int, string) {
		return http.StatusInternalServerError, `{"message":"boom"}`
	})
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.Error(t, s.Ready(ctx))
	}
	err := s.Ready(ctx)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Len(t, f.calls, 5)
}
