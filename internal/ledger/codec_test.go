package ledger

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/bodega/pkg/types"
)

func TestDecodeLines(t *testing.T) {
	in := strings.Join([]string{
		`{"ID":7,"Cantidad":"2.5"}`,
		``,
		`{not json`,
		`{"ID":8}`,
	}, "\n")
	rows, err := decodeLines(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []types.Row{
		{"ID": json.Number("7"), "Cantidad": "2.5"},
		{"ID": json.Number("8")},
	}, rows)
}

func TestDecodeLinesEmpty(t *testing.T) {
	rows, err := decodeLines(strings.NewReader(""))
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
