package httpapi

import (
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/tinoosan/bizledger/internal/dictionary"
	"github.com/tinoosan/bizledger/internal/export"
	"github.com/tinoosan/bizledger/internal/ledger"
	"github.com/tinoosan/bizledger/internal/service/account"
)

// accountType accepts any casing; unknown values pass through for the service to reject.
func accountType(raw string) ledger.AccountType {
	if t, ok := ledger.ParseAccountType(raw); ok {
		return t
	}
	return ledger.AccountType(strings.TrimSpace(raw))
}

// category accepts a label in any casing or its slug.
func category(raw string) ledger.Category {
	c, _ := dictionary.ParseCategory(raw)
	return c
}

// POST /v1/accounts
func (s *Server) postAccount(w http.ResponseWriter, r *http.Request) {
	var req postAccountRequest
	if !decode(w, r, &req) {
		return
	}
	in := account.AccountInput{
		AccountNumber: req.AccountNumber,
		AccountName:   req.AccountName,
		AccountType:   accountType(req.AccountType),
		Category:      category(req.Category),
		Balance:       ledger.Amount(req.BalanceMinor),
		Description:   req.Description,
	}
	a, err := s.accounts.Create(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	toJSON(w, http.StatusCreated, s.toAccountResponse(a))
}

// GET /v1/accounts?type=&q=
func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := account.AccountFilter{Query: q.Get("q")}
	if raw := q.Get("type"); raw != "" {
		t, ok := ledger.ParseAccountType(raw)
		if !ok {
			badRequest(w, "invalid type")
			return
		}
		f.Type = t
	}
	accounts, err := s.accounts.List(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, listAccountsResponse{Items: s.toAccountResponses(accounts)})
}

// GET /v1/accounts/{id}
func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.accounts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, s.toAccountResponse(a))
}

// PATCH /v1/accounts/{id}
func (s *Server) patchAccount(w http.ResponseWriter, r *http.Request) {
	var req patchAccountRequest
	if !decode(w, r, &req) {
		return
	}
	patch := account.AccountPatch{
		AccountNumber: req.AccountNumber,
		AccountName:   req.AccountName,
		Description:   req.Description,
	}
	if req.AccountType != nil {
		t := accountType(*req.AccountType)
		patch.AccountType = &t
	}
	if req.Category != nil {
		c := category(*req.Category)
		patch.Category = &c
	}
	if req.BalanceMinor != nil {
		b := ledger.Amount(*req.BalanceMinor)
		patch.Balance = &b
	}
	a, err := s.accounts.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, s.toAccountResponse(a))
}

// DELETE /v1/accounts/{id}
func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /v1/accounts/bulk-delete
func (s *Server) bulkDeleteAccounts(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.accounts.DeleteMany(r.Context(), req.IDs); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /v1/accounts/export.csv
func (s *Server) exportAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.accounts.List(r.Context(), account.AccountFilter{})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="accounts.csv"`)
	if err := export.WriteAccounts(w, s.curr, accounts); err != nil {
		s.log.Error("export accounts", "err", err)
	}
}
