package repository

import (
	"strconv"
	"strings"

	"github.com/mesh-intelligence/bodega/pkg/types"
)

// matchAll reports whether every whitespace-separated word of query occurs
// in at least one of fields, ignoring case. An empty query matches.
func matchAll(query string, fields ...string) bool {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return true
	}
	hay := strings.ToLower(strings.Join(fields, " "))
	for _, w := range words {
		if !strings.Contains(hay, w) {
			return false
		}
	}
	return true
}

// SearchSupplies returns the supplies matching every word of query.
func (r *Repository) SearchSupplies(query string) []types.Supply {
	out := []types.Supply{}
	for _, s := range r.supplies {
		if matchAll(query, strconv.FormatInt(s.ID, 10), s.Name, s.Description, s.Unit, s.Quantity.String()) {
			out = append(out, s)
		}
	}
	return out
}

// SearchTools returns the tools matching every word of query.
func (r *Repository) SearchTools(query string) []types.Tool {
	out := []types.Tool{}
	for _, t := range r.tools {
		if matchAll(query, strconv.FormatInt(t.ID, 10), t.AssetTag, t.Name, t.Description, t.Brand, string(t.Condition), t.Custodian) {
			out = append(out, t)
		}
	}
	return out
}

// SearchResult groups the matches of Search.
type SearchResult struct {
	Supplies []types.Supply `json:"supplies"`
	Tools    []types.Tool   `json:"tools"`
}

// Search runs query over supplies and tools.
func (r *Repository) Search(query string) SearchResult {
	return SearchResult{Supplies: r.SearchSupplies(query), Tools: r.SearchTools(query)}
}

// LowStock returns the supplies whose quantity is below their minimum.
func (r *Repository) LowStock() []types.Supply {
	out := []types.Supply{}
	for _, s := range r.supplies {
		if s.IsLow() {
			out = append(out, s)
		}
	}
	return out
}

// Availability counts tools by custody.
type Availability struct {
	InWarehouse int `json:"in_warehouse"`
	OnLoan      int `json:"on_loan"`
}

// Total is the number of tools.
func (a Availability) Total() int { return a.InWarehouse + a.OnLoan }

// Availability returns the current tool custody counts.
func (r *Repository) Availability() Availability {
	var a Availability
	for _, t := range r.tools {
		if t.Available() {
			a.InWarehouse++
		} else {
			a.OnLoan++
		}
	}
	return a
}

// SupplyHistory returns supply movements newest first. A supplyID of 0
// returns every movement.
func (r *Repository) SupplyHistory(supplyID int64) []types.SupplyMovement {
	var keep func(types.SupplyMovement) bool
	if supplyID != 0 {
		keep = func(m types.SupplyMovement) bool { return m.SupplyID == supplyID }
	}
	return r.supplyMoves.newestFirst(keep)
}

// ToolHistory returns tool movements newest first. A toolID of 0 returns
// every movement.
func (r *Repository) ToolHistory(toolID int64) []types.ToolMovement {
	var keep func(types.ToolMovement) bool
	if toolID != 0 {
		keep = func(m types.ToolMovement) bool { return m.ToolID == toolID }
	}
	return r.toolMoves.newestFirst(keep)
}
