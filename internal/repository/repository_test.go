package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgerstore "github.com/mesh-intelligence/bodega/internal/ledger"
	"github.com/mesh-intelligence/bodega/pkg/types"
)

func seededStore(t *testing.T) *ledgerstore.Memory {
	t.Helper()
	ctx := context.Background()
	m := ledgerstore.NewMemory()
	require.NoError(t, m.WriteTable(ctx, types.OperatorsTable, []types.Row{
		{ColOperatorName: "Maria", ColOperatorType: "Tecnico"},
		{ColOperatorName: "Pedro"},
	}))
	require.NoError(t, m.WriteTable(ctx, types.SuppliesTable, []types.Row{
		{ColID: json.Number("7"), ColSupplyName: "Gloves", ColQuantity: json.Number("50"), ColUnit: "pair", ColMinimum: json.Number("10")},
		{ColID: json.Number("8"), ColSupplyName: "Tape", ColQuantity: "2", ColMinimum: "5"},
	}))
	require.NoError(t, m.WriteTable(ctx, types.ToolsTable, []types.Row{
		{ColID: "3", ColAssetTag: "HD-01", ColToolName: "Drill", ColBrand: "Bosch", ColCustodian: "Bodega"},
		{ColID: "4", ColToolName: "Saw", ColCustodian: "Pedro"},
	}))
	require.NoError(t, m.WriteTable(ctx, types.SupplyMovementsTable, []types.Row{
		{ColTimestamp: "01/02/2025 08:00", ColSupplyName: "Gloves", ColKind: "Salida", ColQuantity: "5", ColUnit: "Unidad", ColCounterparty: "Maria"},
	}))
	return m
}

func TestLoad(t *testing.T) {
	r, err := Load(context.Background(), seededStore(t))
	require.NoError(t, err)

	assert.Len(t, r.Operators(), 2)
	s, ok := r.Supply(7)
	require.True(t, ok)
	assert.Equal(t, "Gloves", s.Name)
	assert.True(t, decimal.NewFromInt(50).Equal(s.Quantity))

	tool, ok := r.Tool(3)
	require.True(t, ok)
	assert.Equal(t, types.Warehouse, tool.Custodian)

	_, ok = r.Operator(" maria ")
	assert.True(t, ok)
	_, ok = r.SupplyByName("TAPE")
	assert.True(t, ok)
	_, ok = r.ToolByName("saw")
	assert.True(t, ok)
	_, ok = r.Supply(99)
	assert.False(t, ok)
	_, ok = r.Tool(0)
	assert.False(t, ok)

	assert.Len(t, r.SupplyHistory(0), 1)
	assert.Equal(t, 0, r.Pending())
}

func TestLoadEmptyStore(t *testing.T) {
	r, err := Load(context.Background(), ledgerstore.NewMemory())
	require.NoError(t, err)
	assert.Empty(t, r.Supplies())
	assert.Empty(t, r.Tools())
	assert.Equal(t, int64(1), r.NextSupplyID())
	assert.Equal(t, int64(1), r.NextToolID())
}

type failingReader struct {
	*ledgerstore.Memory
	table string
}

func (f failingReader) ReadTable(ctx context.Context, name string) ([]types.Row, error) {
	if name == f.table {
		return nil, errors.New("network down")
	}
	return f.Memory.ReadTable(ctx, name)
}

func TestLoadReadFailure(t *testing.T) {
	_, err := Load(context.Background(), failingReader{Memory: ledgerstore.NewMemory(), table: types.ToolsTable})
	require.ErrorIs(t, err, types.ErrStore)
	var se *types.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, types.ToolsTable, se.Table)
}

func TestLegacyLedgerRowsAreWrittenBackUnchanged(t *testing.T) {
	store := seededStore(t)
	before, err := store.ReadTable(context.Background(), types.SupplyMovementsTable)
	require.NoError(t, err)

	r, err := Load(context.Background(), store)
	require.NoError(t, err)
	r.AppendSupplyMovement(types.SupplyMovement{ID: "new", SupplyID: 7, SupplyName: "Gloves", Kind: types.SupplyEntry, Quantity: decimal.NewFromInt(1), Counterparty: types.Warehouse})

	rows, err := r.Rows(types.SupplyMovementsTable)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, before[0], rows[0])
	assert.Equal(t, "new", rows[1][ColMovementID])

	pending, err := r.PendingLedgerRows(types.SupplyMovementsTable)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "new", pending[0][ColMovementID])
	assert.Equal(t, 1, r.Pending())

	r.MarkSaved()
	pending, err = r.PendingLedgerRows(types.SupplyMovementsTable)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestNextIDNeverReused(t *testing.T) {
	r, err := Load(context.Background(), seededStore(t))
	require.NoError(t, err)
	assert.Equal(t, int64(9), r.NextSupplyID())
	assert.Equal(t, int64(5), r.NextToolID())

	// A movement for a deleted supply still reserves its id.
	r.AppendSupplyMovement(types.SupplyMovement{SupplyID: 12})
	r.ReplaceSupplies(nil)
	assert.Equal(t, int64(13), r.NextSupplyID())

	// The sequences table keeps the high-water mark after the ledger row
	// is gone.
	seq, err := r.Rows(types.SequencesTable)
	require.NoError(t, err)
	store := ledgerstore.NewMemory()
	require.NoError(t, store.WriteTable(context.Background(), types.SequencesTable, seq))
	fresh, err := Load(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, int64(13), fresh.NextSupplyID())
	assert.Equal(t, int64(5), fresh.NextToolID())
}

func TestRowsUnknownTable(t *testing.T) {
	_, err := New().Rows("invoices")
	assert.ErrorIs(t, err, types.ErrUnknownTable)
	_, err = New().PendingLedgerRows(types.SuppliesTable)
	assert.ErrorIs(t, err, types.ErrUnknownTable)
}

func TestMasterRowsRoundTrip(t *testing.T) {
	ctx := context.Background()
	r, err := Load(ctx, seededStore(t))
	require.NoError(t, err)

	out := ledgerstore.NewMemory()
	for _, table := range []string{types.OperatorsTable, types.SuppliesTable, types.ToolsTable} {
		rows, err := r.Rows(table)
		require.NoError(t, err)
		require.NoError(t, out.WriteTable(ctx, table, rows))
	}
	again, err := Load(ctx, out)
	require.NoError(t, err)
	assert.Equal(t, r.Operators(), again.Operators())
	assert.Equal(t, r.Tools(), again.Tools())
	require.Len(t, again.Supplies(), 2)
	for i, s := range r.Supplies() {
		got := again.Supplies()[i]
		assert.Equal(t, s.ID, got.ID)
		assert.True(t, s.Quantity.Equal(got.Quantity))
		assert.True(t, s.Minimum.Equal(got.Minimum))
	}
}
