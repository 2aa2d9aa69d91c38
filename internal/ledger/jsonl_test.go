package ledger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/bodega/pkg/types"
)

func TestJSONLContract(t *testing.T) {
	s, err := NewJSONL(t.TempDir())
	require.NoError(t, err)
	storeContract(t, s)
}

func TestJSONLFileLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSONL(dir)
	require.NoError(t, err)

	rows := []types.Row{{"Nombre_Operador": "Maria", "Tipo": "Tecnico"}}
	require.NoError(t, s.WriteTable(context.Background(), types.OperatorsTable, rows))

	data, err := os.ReadFile(filepath.Join(dir, "Operators.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, `{"Nombre_Operador":"Maria","Tipo":"Tecnico"}`+"\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp file left behind: %s", e.Name())
	}
}

func TestJSONLSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	content := `{"ID":1,"Insumo":"Gloves"}
not json at all

{"ID":2,"Insumo":"Tape"}
{"ID":3,
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Supplies.jsonl"), []byte(content), 0o644))

	s, err := NewJSONL(dir)
	require.NoError(t, err)
	rows, err := s.ReadTable(context.Background(), types.SuppliesTable)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Gloves", rows[0]["Insumo"])
	assert.Equal(t, "Tape", rows[1]["Insumo"])
}

func TestJSONLRejectsPathTableNames(t *testing.T) {
	s, err := NewJSONL(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.ReadTable(ctx, "../escape")
	assert.Error(t, err)
	assert.Error(t, s.WriteTable(ctx, "", nil))
	assert.Error(t, s.AppendRows(ctx, "a/b", []types.Row{{}}))
}
