// Package repository holds the in-memory typed tables of one session.
//
// The repository enforces no business rules; it decodes stored rows with
// coercion, offers typed access and queries, and encodes tables back to
// rows for persistence. Movement rows that were loaded from the store are
// written back exactly as they were read.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/bodega/pkg/types"
)

// ledgerEntry pairs a movement with the row it was loaded from. raw is nil
// for movements created in this session.
type ledgerEntry[M any] struct {
	m   M
	raw types.Row
}

// ledger is an append-only movement table. saved counts the entries
// already present in the store.
type ledger[M any] struct {
	entries []ledgerEntry[M]
	saved   int
}

func (l *ledger[M]) append(m M) {
	l.entries = append(l.entries, ledgerEntry[M]{m: m})
}

func (l *ledger[M]) rows(from int, encode func(M) types.Row) []types.Row {
	out := make([]types.Row, 0, len(l.entries)-from)
	for _, e := range l.entries[from:] {
		if e.raw != nil {
			out = append(out, e.raw)
			continue
		}
		out = append(out, encode(e.m))
	}
	return out
}

// newestFirst returns the movements accepted by keep in reverse append
// order.
func (l *ledger[M]) newestFirst(keep func(M) bool) []M {
	out := []M{}
	for i := len(l.entries) - 1; i >= 0; i-- {
		if keep == nil || keep(l.entries[i].m) {
			out = append(out, l.entries[i].m)
		}
	}
	return out
}

// Repository is the in-memory state of the five entity tables. It is not
// safe for concurrent use; the session serializes access.
type Repository struct {
	operators   []types.Operator
	supplies    []types.Supply
	tools       []types.Tool
	supplyMoves ledger[types.SupplyMovement]
	toolMoves   ledger[types.ToolMovement]

	// seq holds the id high-water mark per master table as read from
	// the sequences table.
	seq map[string]int64
}

// New returns an empty repository.
func New() *Repository {
	return &Repository{seq: make(map[string]int64)}
}

// Load reads every table from store. Missing or empty tables are an empty
// state. A read failure is returned as a *types.StoreError.
func Load(ctx context.Context, store types.LedgerStore) (*Repository, error) {
	r := New()
	read := func(table string) ([]types.Row, error) {
		rows, err := store.ReadTable(ctx, table)
		if err != nil {
			return nil, &types.StoreError{Op: "read", Table: table, Err: err}
		}
		return rows, nil
	}

	rows, err := read(types.OperatorsTable)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		r.operators = append(r.operators, DecodeOperator(row))
	}

	if rows, err = read(types.SuppliesTable); err != nil {
		return nil, err
	}
	for _, row := range rows {
		r.supplies = append(r.supplies, DecodeSupply(row))
	}

	if rows, err = read(types.ToolsTable); err != nil {
		return nil, err
	}
	for _, row := range rows {
		r.tools = append(r.tools, DecodeTool(row))
	}

	if rows, err = read(types.SupplyMovementsTable); err != nil {
		return nil, err
	}
	for _, row := range rows {
		r.supplyMoves.entries = append(r.supplyMoves.entries,
			ledgerEntry[types.SupplyMovement]{m: DecodeSupplyMovement(row), raw: row})
	}
	r.supplyMoves.saved = len(r.supplyMoves.entries)

	if rows, err = read(types.ToolMovementsTable); err != nil {
		return nil, err
	}
	for _, row := range rows {
		r.toolMoves.entries = append(r.toolMoves.entries,
			ledgerEntry[types.ToolMovement]{m: DecodeToolMovement(row), raw: row})
	}
	r.toolMoves.saved = len(r.toolMoves.entries)

	if rows, err = read(types.SequencesTable); err != nil {
		return nil, err
	}
	for _, row := range rows {
		r.seq[asString(row[ColSeqTable])] = asID(row[ColSeqLast])
	}
	return r, nil
}

// Operators returns a copy of the operator table.
func (r *Repository) Operators() []types.Operator {
	return append([]types.Operator{}, r.operators...)
}

// Supplies returns a copy of the supply table.
func (r *Repository) Supplies() []types.Supply {
	return append([]types.Supply{}, r.supplies...)
}

// Tools returns a copy of the tool table.
func (r *Repository) Tools() []types.Tool {
	return append([]types.Tool{}, r.tools...)
}

// Operator looks up an operator by name. Surrounding space and case are
// ignored.
func (r *Repository) Operator(name string) (types.Operator, bool) {
	for _, o := range r.operators {
		if strings.EqualFold(o.Name, strings.TrimSpace(name)) {
			return o, true
		}
	}
	return types.Operator{}, false
}

// Supply returns the supply with id. The pointer aliases repository state.
func (r *Repository) Supply(id int64) (*types.Supply, bool) {
	if id <= 0 {
		return nil, false
	}
	for i := range r.supplies {
		if r.supplies[i].ID == id {
			return &r.supplies[i], true
		}
	}
	return nil, false
}

// SupplyByName returns the first supply whose name matches, ignoring case.
func (r *Repository) SupplyByName(name string) (*types.Supply, bool) {
	for i := range r.supplies {
		if strings.EqualFold(r.supplies[i].Name, strings.TrimSpace(name)) {
			return &r.supplies[i], true
		}
	}
	return nil, false
}

// Tool returns the tool with id. The pointer aliases repository state.
func (r *Repository) Tool(id int64) (*types.Tool, bool) {
	if id <= 0 {
		return nil, false
	}
	for i := range r.tools {
		if r.tools[i].ID == id {
			return &r.tools[i], true
		}
	}
	return nil, false
}

// ToolByName returns the first tool whose name matches, ignoring case.
func (r *Repository) ToolByName(name string) (*types.Tool, bool) {
	for i := range r.tools {
		if strings.EqualFold(r.tools[i].Name, strings.TrimSpace(name)) {
			return &r.tools[i], true
		}
	}
	return nil, false
}

// AppendSupplyMovement adds m to the supply ledger.
func (r *Repository) AppendSupplyMovement(m types.SupplyMovement) {
	r.supplyMoves.append(m)
}

// AppendToolMovement adds m to the tool ledger.
func (r *Repository) AppendToolMovement(m types.ToolMovement) {
	r.toolMoves.append(m)
}

// ReplaceOperators replaces the operator table.
func (r *Repository) ReplaceOperators(ops []types.Operator) {
	r.operators = append([]types.Operator{}, ops...)
}

// ReplaceSupplies replaces the supply table. Ids of removed supplies stay
// reserved.
func (r *Repository) ReplaceSupplies(s []types.Supply) {
	r.seq[types.SuppliesTable] = r.highWater(types.SuppliesTable)
	r.supplies = append([]types.Supply{}, s...)
}

// ReplaceTools replaces the tool table. Ids of removed tools stay reserved.
func (r *Repository) ReplaceTools(t []types.Tool) {
	r.seq[types.ToolsTable] = r.highWater(types.ToolsTable)
	r.tools = append([]types.Tool{}, t...)
}

// NextSupplyID returns an id no supply has ever used.
func (r *Repository) NextSupplyID() int64 {
	return r.highWater(types.SuppliesTable) + 1
}

// NextToolID returns an id no tool has ever used.
func (r *Repository) NextToolID() int64 {
	return r.highWater(types.ToolsTable) + 1
}

// highWater is the largest id the table has seen: in its rows, in its
// movement ledger, or in the sequences table.
func (r *Repository) highWater(table string) int64 {
	hw := r.seq[table]
	bump := func(id int64) {
		if id > hw {
			hw = id
		}
	}
	switch table {
	case types.SuppliesTable:
		for _, s := range r.supplies {
			bump(s.ID)
		}
		for _, e := range r.supplyMoves.entries {
			bump(e.m.SupplyID)
		}
	case types.ToolsTable:
		for _, t := range r.tools {
			bump(t.ID)
		}
		for _, e := range r.toolMoves.entries {
			bump(e.m.ToolID)
		}
	}
	return hw
}

// Rows encodes the named table for a whole-table write.
func (r *Repository) Rows(table string) ([]types.Row, error) {
	switch table {
	case types.OperatorsTable:
		out := make([]types.Row, 0, len(r.operators))
		for _, o := range r.operators {
			out = append(out, encodeOperator(o))
		}
		return out, nil
	case types.SuppliesTable:
		out := make([]types.Row, 0, len(r.supplies))
		for _, s := range r.supplies {
			out = append(out, encodeSupply(s))
		}
		return out, nil
	case types.ToolsTable:
		out := make([]types.Row, 0, len(r.tools))
		for _, t := range r.tools {
			out = append(out, encodeTool(t))
		}
		return out, nil
	case types.SupplyMovementsTable:
		return r.supplyMoves.rows(0, EncodeSupplyMovement), nil
	case types.ToolMovementsTable:
		return r.toolMoves.rows(0, EncodeToolMovement), nil
	case types.SequencesTable:
		return []types.Row{
			{ColSeqTable: types.SuppliesTable, ColSeqLast: idValue(r.highWater(types.SuppliesTable))},
			{ColSeqTable: types.ToolsTable, ColSeqLast: idValue(r.highWater(types.ToolsTable))},
		}, nil
	}
	return nil, fmt.Errorf("encoding %q: %w", table, types.ErrUnknownTable)
}

// PendingLedgerRows encodes the movements of a ledger table that are not
// in the store yet.
func (r *Repository) PendingLedgerRows(table string) ([]types.Row, error) {
	switch table {
	case types.SupplyMovementsTable:
		return r.supplyMoves.rows(r.supplyMoves.saved, EncodeSupplyMovement), nil
	case types.ToolMovementsTable:
		return r.toolMoves.rows(r.toolMoves.saved, EncodeToolMovement), nil
	}
	return nil, fmt.Errorf("pending rows of %q: %w", table, types.ErrUnknownTable)
}

// MarkLedgerSaved records that every movement of a ledger table is in the
// store.
func (r *Repository) MarkLedgerSaved(table string) {
	switch table {
	case types.SupplyMovementsTable:
		r.supplyMoves.saved = len(r.supplyMoves.entries)
	case types.ToolMovementsTable:
		r.toolMoves.saved = len(r.toolMoves.entries)
	}
}

// MarkSaved records that both ledgers are fully stored.
func (r *Repository) MarkSaved() {
	for _, t := range types.LedgerTableNames {
		r.MarkLedgerSaved(t)
	}
}

// Pending reports the number of movements not yet in the store.
func (r *Repository) Pending() int {
	return len(r.supplyMoves.entries) - r.supplyMoves.saved +
		len(r.toolMoves.entries) - r.toolMoves.saved
}
