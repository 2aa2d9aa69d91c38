package api

import (
	"net/http"

	"github.com/mesh-intelligence/bodega/internal/repository"
	"github.com/mesh-intelligence/bodega/pkg/types"
)

type loanRequest struct {
	Operator string `json:"operator"`
}

type returnRequest struct {
	Condition string `json:"condition"`
}

// listTools handles GET /api/tools.
func (s *Server) listTools(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	s.read(w, func(repo *repository.Repository) {
		jsonResponse(w, http.StatusOK, repo.SearchTools(q))
	})
}

// toolHistory handles GET /api/tools/history.
func (s *Server) toolHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	s.read(w, func(repo *repository.Repository) {
		jsonResponse(w, http.StatusOK, repo.ToolHistory(id))
	})
}

// toolLoan handles POST /api/tools/{id}/loan.
func (s *Server) toolLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req loanRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, err := s.current()
	if err != nil {
		writeError(w, err)
		return
	}
	m, err := sess.ToolLoan(r.Context(), id, req.Operator)
	writeMovement(w, m, err)
}

// toolReturn handles POST /api/tools/{id}/return.
func (s *Server) toolReturn(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req returnRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cond, err := types.ParseCondition(req.Condition)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, err := s.current()
	if err != nil {
		writeError(w, err)
		return
	}
	m, err := sess.ToolReturn(r.Context(), id, cond)
	writeMovement(w, m, err)
}
