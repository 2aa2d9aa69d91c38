package api

import (
	"net/http"

	"github.com/mesh-intelligence/bodega/internal/repository"
	"github.com/mesh-intelligence/bodega/pkg/types"
)

// dashboardResponse summarizes the inventory for the landing view.
type dashboardResponse struct {
	Supplies  int                     `json:"supplies"`
	LowStock  []types.Supply          `json:"low_stock"`
	Tools     repository.Availability `json:"tools"`
	Operators int                     `json:"operators"`
	Unsaved   bool                    `json:"unsaved"`
}

// masterTable resolves {kind} to a master table name.
func masterTable(w http.ResponseWriter, r *http.Request) (string, bool) {
	table, err := types.ResolveTable(r.PathValue("kind"))
	if err != nil || !types.IsMasterTable(table) {
		jsonError(w, http.StatusBadRequest, "unknown master table")
		return "", false
	}
	return table, true
}

// exportMaster handles GET /api/master/{kind}: the table in stored form,
// ready to be edited and sent back with PUT.
func (s *Server) exportMaster(w http.ResponseWriter, r *http.Request) {
	table, ok := masterTable(w, r)
	if !ok {
		return
	}
	s.read(w, func(repo *repository.Repository) {
		rows, err := repo.Rows(table)
		if err != nil {
			writeError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, rows)
	})
}

// saveMaster handles PUT /api/master/{kind}. The body is the full table
// as a JSON array of rows with the stored column headers.
func (s *Server) saveMaster(w http.ResponseWriter, r *http.Request) {
	table, ok := masterTable(w, r)
	if !ok {
		return
	}
	var rows []types.Row
	if err := decodeJSON(r, &rows); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, err := s.current()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.SaveMasterData(r.Context(), table, rows); err != nil {
		writeError(w, err)
		return
	}
	s.exportMaster(w, r)
}

// reload handles POST /api/reload: reread every table from the store.
func (s *Server) reload(w http.ResponseWriter, r *http.Request) {
	sess, err := s.current()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.Reload(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "reloaded"})
}

// dashboard handles GET /api/dashboard.
func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	sess, err := s.current()
	if err != nil {
		writeError(w, err)
		return
	}
	unsaved := sess.Dirty()
	s.read(w, func(repo *repository.Repository) {
		jsonResponse(w, http.StatusOK, dashboardResponse{
			Supplies:  len(repo.Supplies()),
			LowStock:  repo.LowStock(),
			Tools:     repo.Availability(),
			Operators: len(repo.Operators()),
			Unsaved:   unsaved,
		})
	})
}
