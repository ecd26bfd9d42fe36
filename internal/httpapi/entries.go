package httpapi

import (
	"context"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/tinoosan/bizledger/internal/export"
	"github.com/tinoosan/bizledger/internal/ledger"
	"github.com/tinoosan/bizledger/internal/service/journal"
)

const dateLayout = export.DateLayout

func toEntryInput(req postEntryRequest) (journal.EntryHeader, []journal.ItemInput, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return journal.EntryHeader{}, nil, err
	}
	h := journal.EntryHeader{
		EntryNumber: req.EntryNumber,
		Date:        date,
		Description: req.Description,
		Reference:   req.Reference,
		Status:      ledger.EntryStatus(req.Status),
	}
	items := make([]journal.ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, journal.ItemInput{
			AccountID: it.AccountID,
			Debit:     ledger.Amount(it.DebitMinor),
			Credit:    ledger.Amount(it.CreditMinor),
		})
	}
	return h, items, nil
}

// POST /v1/entries
func (s *Server) postEntry(w http.ResponseWriter, r *http.Request) {
	var req postEntryRequest
	if !decode(w, r, &req) {
		return
	}
	h, items, err := toEntryInput(req)
	if err != nil {
		badRequest(w, "invalid date")
		return
	}
	e, err := s.journal.CreateEntry(r.Context(), h, items)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	entriesWritten.WithLabelValues(string(e.Status)).Inc()
	toJSON(w, http.StatusCreated, s.toEntryResponse(e))
}

// PUT /v1/entries/{id} replaces the header and all items.
func (s *Server) putEntry(w http.ResponseWriter, r *http.Request) {
	var req postEntryRequest
	if !decode(w, r, &req) {
		return
	}
	h, items, err := toEntryInput(req)
	if err != nil {
		badRequest(w, "invalid date")
		return
	}
	e, err := s.journal.UpdateEntry(r.Context(), chi.URLParam(r, "id"), h, items)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	entriesWritten.WithLabelValues(string(e.Status)).Inc()
	toJSON(w, http.StatusOK, s.toEntryResponse(e))
}

// GET /v1/entries?q=&status=
func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := journal.EntryFilter{Query: q.Get("q")}
	if raw := q.Get("status"); raw != "" {
		st := ledger.EntryStatus(raw)
		if !st.Valid() {
			badRequest(w, "invalid status")
			return
		}
		f.Status = st
	}
	entries, err := s.journal.ListEntries(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := listEntriesResponse{Items: make([]entryResponse, 0, len(entries))}
	for _, e := range entries {
		out.Items = append(out.Items, s.toEntryResponse(e))
	}
	toJSON(w, http.StatusOK, out)
}

// GET /v1/entries/{id}
func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.journal.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, s.toEntryResponse(e))
}

// DELETE /v1/entries/{id}
func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.journal.DeleteEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /v1/entries/bulk-delete
func (s *Server) bulkDeleteEntries(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.journal.DeleteEntries(r.Context(), req.IDs); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /v1/entries/{id}/post
func (s *Server) postEntryStatus(w http.ResponseWriter, r *http.Request) {
	s.writeTransition(w, r, s.journal.Post)
}

// POST /v1/entries/{id}/void
func (s *Server) voidEntry(w http.ResponseWriter, r *http.Request) {
	s.writeTransition(w, r, s.journal.Void)
}

func (s *Server) writeTransition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string) (ledger.JournalEntry, error)) {
	e, err := fn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	entriesWritten.WithLabelValues(string(e.Status)).Inc()
	toJSON(w, http.StatusOK, s.toEntryResponse(e))
}

// GET /v1/entries/export.csv
func (s *Server) exportEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.journal.ListEntries(r.Context(), journal.EntryFilter{})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="journal_entries.csv"`)
	if err := export.WriteEntries(w, s.curr, entries); err != nil {
		s.log.Error("export entries", "err", err)
	}
}
