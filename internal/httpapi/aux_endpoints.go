package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/tinoosan/bizledger/internal/dictionary"
	"github.com/tinoosan/bizledger/internal/ledger"
)

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.ready == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
	defer cancel()
	if err := s.ready.Ready(ctx); err != nil {
		s.log.Warn("readiness check failed", "err", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// GET /v1/dictionary/categories?type=
func (s *Server) getCategories(w http.ResponseWriter, r *http.Request) {
	var t *ledger.AccountType
	if raw := r.URL.Query().Get("type"); raw != "" {
		tt, ok := ledger.ParseAccountType(raw)
		if !ok {
			badRequest(w, "invalid type")
			return
		}
		t = &tt
	}
	toJSON(w, http.StatusOK, struct {
		Items []dictionary.CategoryDef `json:"items"`
	}{Items: dictionary.Defs(t)})
}
