package ledger

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/bodega/pkg/types"
)

// storeContract exercises the behavior every backend shares.
func storeContract(t *testing.T, s types.LedgerStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing table reads empty", func(t *testing.T) {
		rows, err := s.ReadTable(ctx, types.SuppliesTable)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("write then read preserves order and values", func(t *testing.T) {
		in := []types.Row{
			{"ID": json.Number("1"), "Insumo": "Gloves", "Cantidad": json.Number("50.25")},
			{"ID": json.Number("2"), "Insumo": "Tape", "Cantidad": "12"},
		}
		require.NoError(t, s.WriteTable(ctx, types.SuppliesTable, in))

		got, err := s.ReadTable(ctx, types.SuppliesTable)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Gloves", got[0]["Insumo"])
		assert.Equal(t, json.Number("50.25"), got[0]["Cantidad"])
		assert.Equal(t, "12", got[1]["Cantidad"])
	})

	t.Run("write replaces the whole table", func(t *testing.T) {
		require.NoError(t, s.WriteTable(ctx, types.SuppliesTable, []types.Row{{"ID": json.Number("9")}}))
		got, err := s.ReadTable(ctx, types.SuppliesTable)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, json.Number("9"), got[0]["ID"])
	})

	t.Run("tables are independent", func(t *testing.T) {
		require.NoError(t, s.WriteTable(ctx, types.ToolsTable, []types.Row{{"ID": json.Number("3")}}))
		got, err := s.ReadTable(ctx, types.SuppliesTable)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("write empty table", func(t *testing.T) {
		require.NoError(t, s.WriteTable(ctx, types.ToolsTable, nil))
		got, err := s.ReadTable(ctx, types.ToolsTable)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	if a, ok := s.(types.Appender); ok {
		t.Run("append keeps existing rows", func(t *testing.T) {
			table := types.SupplyMovementsTable
			require.NoError(t, s.WriteTable(ctx, table, []types.Row{{"ID_Movimiento": "a"}}))
			require.NoError(t, a.AppendRows(ctx, table, []types.Row{{"ID_Movimiento": "b"}, {"ID_Movimiento": "c"}}))
			require.NoError(t, a.AppendRows(ctx, table, nil))

			got, err := s.ReadTable(ctx, table)
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, "a", got[0]["ID_Movimiento"])
			assert.Equal(t, "c", got[2]["ID_Movimiento"])
		})
	}

	if bw, ok := s.(types.BatchWriter); ok {
		t.Run("batch applies replaces and appends", func(t *testing.T) {
			require.NoError(t, s.WriteTable(ctx, types.ToolMovementsTable, []types.Row{{"ID_Movimiento": "x"}}))
			err := bw.WriteBatch(ctx, types.Batch{
				Replace: []types.TableRows{{Table: types.OperatorsTable, Rows: []types.Row{{"Nombre_Operador": "Maria"}}}},
				Append:  []types.TableRows{{Table: types.ToolMovementsTable, Rows: []types.Row{{"ID_Movimiento": "y"}}}},
			})
			require.NoError(t, err)

			ops, err := s.ReadTable(ctx, types.OperatorsTable)
			require.NoError(t, err)
			require.Len(t, ops, 1)
			assert.Equal(t, "Maria", ops[0]["Nombre_Operador"])

			moves, err := s.ReadTable(ctx, types.ToolMovementsTable)
			require.NoError(t, err)
			assert.Len(t, moves, 2)
		})
	}
}
