package api

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/bodega/internal/repository"
)

type exitRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	Operator string          `json:"operator"`
}

type entryRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// pathID parses the {id} path value. It writes a 400 and returns false
// when the value is not a positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// queryID parses the optional ?id= filter; absent means 0.
func queryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	v := r.URL.Query().Get("id")
	if v == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id < 0 {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// read runs fn against the shared session's repository.
func (s *Server) read(w http.ResponseWriter, fn func(*repository.Repository)) {
	sess, err := s.current()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.Read(fn); err != nil {
		writeError(w, err)
	}
}

// listOperators handles GET /api/operators.
func (s *Server) listOperators(w http.ResponseWriter, r *http.Request) {
	s.read(w, func(repo *repository.Repository) {
		jsonResponse(w, http.StatusOK, repo.Operators())
	})
}

// listSupplies handles GET /api/supplies. ?q= filters by search words and
// ?low=true keeps only supplies below their minimum.
func (s *Server) listSupplies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	low := r.URL.Query().Get("low") == "true"
	s.read(w, func(repo *repository.Repository) {
		out := repo.SearchSupplies(q)
		if low {
			kept := out[:0]
			for _, sup := range out {
				if sup.IsLow() {
					kept = append(kept, sup)
				}
			}
			out = kept
		}
		jsonResponse(w, http.StatusOK, out)
	})
}

// supplyHistory handles GET /api/supplies/history.
func (s *Server) supplyHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	s.read(w, func(repo *repository.Repository) {
		jsonResponse(w, http.StatusOK, repo.SupplyHistory(id))
	})
}

// supplyExit handles POST /api/supplies/{id}/exit.
func (s *Server) supplyExit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req exitRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, err := s.current()
	if err != nil {
		writeError(w, err)
		return
	}
	m, err := sess.SupplyExit(r.Context(), id, req.Quantity, req.Operator)
	writeMovement(w, m, err)
}

// supplyEntry handles POST /api/supplies/{id}/entry.
func (s *Server) supplyEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, err := s.current()
	if err != nil {
		writeError(w, err)
		return
	}
	m, err := sess.SupplyEntry(r.Context(), id, req.Quantity)
	writeMovement(w, m, err)
}
