package ledger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mesh-intelligence/bodega/pkg/types"
)

// encodeRow serializes a row as a single-line JSON object.
func encodeRow(r types.Row) ([]byte, error) {
	if r == nil {
		r = types.Row{}
	}
	b, err := json.Marshal(map[string]any(r))
	if err != nil {
		return nil, fmt.Errorf("encoding row: %w", err)
	}
	return b, nil
}

// decodeRow parses a JSON object into a row. Numbers are kept as
// json.Number so quantities do not pass through float64.
func decodeRow(b []byte) (types.Row, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding row: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return types.Row(m), nil
}

// decodeLines reads one row per line from r. Empty and malformed lines are
// skipped.
func decodeLines(r io.Reader) ([]types.Row, error) {
	rows := []types.Row{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		row, err := decodeRow(line)
		if err != nil {
			continue
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// copyRows returns a copy of rows that shares no maps with the input.
// Row values are scalars, so a shallow copy of each map is enough.
func copyRows(rows []types.Row) []types.Row {
	out := make([]types.Row, len(rows))
	for i, r := range rows {
		cp := make(types.Row, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out[i] = cp
	}
	return out
}
