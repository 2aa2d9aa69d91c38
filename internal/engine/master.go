package engine

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/bodega/internal/repository"
	"github.com/mesh-intelligence/bodega/pkg/types"
)

// SaveOperators replaces the operator table. Names are trimmed; blank
// names and the warehouse sentinel fail with ErrInvalidName, names that
// repeat (ignoring case) fail with ErrDuplicateKey.
func (e *Engine) SaveOperators(ops []types.Operator) ([]types.Operator, error) {
	out := make([]types.Operator, 0, len(ops))
	seen := make(map[string]bool, len(ops))
	for i, o := range ops {
		o.Name = strings.TrimSpace(o.Name)
		o.Type = strings.TrimSpace(o.Type)
		if o.Name == "" || strings.EqualFold(o.Name, types.Warehouse) {
			return nil, fmt.Errorf("operator row %d: %w", i+1, types.ErrInvalidName)
		}
		key := strings.ToLower(o.Name)
		if seen[key] {
			return nil, fmt.Errorf("operator %q: %w", o.Name, types.ErrDuplicateKey)
		}
		seen[key] = true
		out = append(out, o)
	}
	e.repo.ReplaceOperators(out)
	return out, nil
}

// SaveSupplies replaces the supply table.
//
// A row whose ID names an existing supply updates its descriptive fields
// and keeps its quantity; quantity changes only through exits and entries.
// A row with ID 0 is a new supply and gets the next unused id; its
// Quantity is the opening stock. Existing supplies missing from rows are
// removed. Their ids are never reused.
func (e *Engine) SaveSupplies(rows []types.Supply) ([]types.Supply, error) {
	next := e.repo.NextSupplyID()
	out := make([]types.Supply, 0, len(rows))
	seen := make(map[int64]bool, len(rows))
	for i, s := range rows {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			return nil, fmt.Errorf("supply row %d: %w", i+1, types.ErrInvalidName)
		}
		if s.Minimum.IsNegative() {
			return nil, fmt.Errorf("supply %q minimum: %w", s.Name, types.ErrInvalidQuantity)
		}
		switch {
		case s.ID < 0:
			return nil, fmt.Errorf("supply %d: %w", s.ID, types.ErrNotFound)
		case s.ID == 0:
			if s.Quantity.IsNegative() {
				return nil, fmt.Errorf("supply %q opening quantity: %w", s.Name, types.ErrInvalidQuantity)
			}
			s.ID = next
			next++
		default:
			cur, ok := e.repo.Supply(s.ID)
			if !ok {
				return nil, fmt.Errorf("supply %d: %w", s.ID, types.ErrNotFound)
			}
			if seen[s.ID] {
				return nil, fmt.Errorf("supply %d: %w", s.ID, types.ErrDuplicateKey)
			}
			s.Quantity = cur.Quantity
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	e.repo.ReplaceSupplies(out)
	return out, nil
}

// SaveTools replaces the tool table.
//
// A row whose ID names an existing tool updates its descriptive fields and
// keeps its custodian and condition. A row with ID 0 is a new tool held by
// the warehouse. Removing a tool that is on loan fails with ErrToolOnLoan.
func (e *Engine) SaveTools(rows []types.Tool) ([]types.Tool, error) {
	next := e.repo.NextToolID()
	out := make([]types.Tool, 0, len(rows))
	seen := make(map[int64]bool, len(rows))
	for i, t := range rows {
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" {
			return nil, fmt.Errorf("tool row %d: %w", i+1, types.ErrInvalidName)
		}
		switch {
		case t.ID < 0:
			return nil, fmt.Errorf("tool %d: %w", t.ID, types.ErrNotFound)
		case t.ID == 0:
			t.ID = next
			next++
			t.Custodian = types.Warehouse
			if t.Condition != types.ConditionGood && t.Condition != types.ConditionBad {
				t.Condition = types.ConditionUnset
			}
		default:
			cur, ok := e.repo.Tool(t.ID)
			if !ok {
				return nil, fmt.Errorf("tool %d: %w", t.ID, types.ErrNotFound)
			}
			if seen[t.ID] {
				return nil, fmt.Errorf("tool %d: %w", t.ID, types.ErrDuplicateKey)
			}
			t.Custodian = cur.Custodian
			t.Condition = cur.Condition
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	for _, cur := range e.repo.Tools() {
		if !seen[cur.ID] && !cur.Available() {
			return nil, fmt.Errorf("tool %d held by %s: %w", cur.ID, cur.Custodian, types.ErrToolOnLoan)
		}
	}
	e.repo.ReplaceTools(out)
	return out, nil
}

// SaveMasterData replaces one master table from stored-form rows. kind is
// a master table name or alias (operators, supplies, tools). Rows use the
// stored column headers and are coerced as on load.
func (e *Engine) SaveMasterData(kind string, rows []types.Row) error {
	table, err := types.ResolveTable(kind)
	if err != nil || !types.IsMasterTable(table) {
		return fmt.Errorf("master data %q: %w", kind, types.ErrUnknownTable)
	}
	switch table {
	case types.OperatorsTable:
		ops := make([]types.Operator, 0, len(rows))
		for _, r := range rows {
			ops = append(ops, repository.DecodeOperator(r))
		}
		_, err = e.SaveOperators(ops)
	case types.SuppliesTable:
		s := make([]types.Supply, 0, len(rows))
		for _, r := range rows {
			s = append(s, repository.DecodeSupply(r))
		}
		_, err = e.SaveSupplies(s)
	case types.ToolsTable:
		t := make([]types.Tool, 0, len(rows))
		for _, r := range rows {
			t = append(t, repository.DecodeTool(r))
		}
		_, err = e.SaveTools(t)
	}
	return err
}
