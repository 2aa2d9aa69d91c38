package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/bodega/pkg/types"
)

// Journal columns.
const (
	colJournalID = "ID_Journal"
	colTable     = "Tabla"
	colMode      = "Modo"
	colRows      = "Filas"
	colCreated   = "Fecha_Hora"
	colMoveID    = "ID_Movimiento"
)

// journalRows encodes ws as journal rows. Each row carries one table write
// with its rows serialized as a JSON array.
func journalRows(id string, now time.Time, ws []write) ([]types.Row, error) {
	out := make([]types.Row, 0, len(ws))
	for _, w := range ws {
		rows := w.rows
		if rows == nil {
			rows = []types.Row{}
		}
		b, err := json.Marshal(rows)
		if err != nil {
			return nil, fmt.Errorf("encoding journal entry %s: %w", w.table, err)
		}
		out = append(out, types.Row{
			colJournalID: id,
			colTable:     w.table,
			colMode:      w.mode,
			colRows:      string(b),
			colCreated:   now.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}

func decodeJournal(rows []types.Row) ([]write, error) {
	ws := make([]write, 0, len(rows))
	for _, r := range rows {
		table, _ := r[colTable].(string)
		mode, _ := r[colMode].(string)
		payload, _ := r[colRows].(string)
		if table == "" || (mode != ModeReplace && mode != ModeAppend) {
			return nil, fmt.Errorf("malformed journal entry for %q", table)
		}
		dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
		dec.UseNumber()
		var entries []types.Row
		if err := dec.Decode(&entries); err != nil {
			return nil, fmt.Errorf("decoding journal entry %s: %w", table, err)
		}
		ws = append(ws, write{table: table, mode: mode, rows: entries})
	}
	return ws, nil
}

// JournalStatus describes a journal left by an unfinished persist.
type JournalStatus struct {
	Pending bool      `json:"pending"`
	ID      string    `json:"id,omitempty"`
	Created time.Time `json:"created,omitempty"`
	Tables  []string  `json:"tables,omitempty"`
}

// Status reads the journal table of store.
func Status(ctx context.Context, store types.LedgerStore) (JournalStatus, error) {
	rows, err := store.ReadTable(ctx, types.JournalTable)
	if err != nil {
		return JournalStatus{}, &types.StoreError{Op: "read", Table: types.JournalTable, Err: err}
	}
	if len(rows) == 0 {
		return JournalStatus{}, nil
	}
	st := JournalStatus{Pending: true}
	st.ID, _ = rows[0][colJournalID].(string)
	if s, ok := rows[0][colCreated].(string); ok {
		st.Created, _ = time.Parse(time.RFC3339, s)
	}
	for _, r := range rows {
		if t, ok := r[colTable].(string); ok {
			st.Tables = append(st.Tables, t)
		}
	}
	return st, nil
}

// Recover rolls a pending journal forward: replaced tables are rewritten
// from the journal and appended rows are added unless a row with the same
// movement id is already in the table. Running it twice has the same
// effect as running it once. It returns the number of journal entries
// applied; zero means there was nothing to recover.
func (c *Coordinator) Recover(ctx context.Context) (int, error) {
	rows, err := c.store.ReadTable(ctx, types.JournalTable)
	if err != nil {
		return 0, &types.StoreError{Op: "read", Table: types.JournalTable, Err: err}
	}
	if len(rows) == 0 {
		return 0, nil
	}
	ws, err := decodeJournal(rows)
	if err != nil {
		return 0, err
	}

	for _, w := range ws {
		if w.mode == ModeReplace {
			if err := c.store.WriteTable(ctx, w.table, w.rows); err != nil {
				return 0, &types.StoreError{Op: "write", Table: w.table, Err: err}
			}
			continue
		}
		if err := c.appendMissing(ctx, w); err != nil {
			return 0, err
		}
	}

	if err := c.store.WriteTable(ctx, types.JournalTable, nil); err != nil {
		return 0, &types.StoreError{Op: "write", Table: types.JournalTable, Err: err}
	}
	c.logger.Info("journal rolled forward", "entries", len(ws))
	return len(ws), nil
}

func (c *Coordinator) appendMissing(ctx context.Context, w write) error {
	existing, err := c.store.ReadTable(ctx, w.table)
	if err != nil {
		return &types.StoreError{Op: "read", Table: w.table, Err: err}
	}
	have := make(map[string]bool, len(existing))
	for _, r := range existing {
		if id, ok := r[colMoveID].(string); ok && id != "" {
			have[id] = true
		}
	}
	var missing []types.Row
	for _, r := range w.rows {
		if id, ok := r[colMoveID].(string); ok && have[id] {
			continue
		}
		missing = append(missing, r)
	}
	if len(missing) == 0 {
		return nil
	}
	if a, ok := c.store.(types.Appender); ok {
		if err := a.AppendRows(ctx, w.table, missing); err != nil {
			return &types.StoreError{Op: "append", Table: w.table, Err: err}
		}
		return nil
	}
	if err := c.store.WriteTable(ctx, w.table, append(existing, missing...)); err != nil {
		return &types.StoreError{Op: "write", Table: w.table, Err: err}
	}
	return nil
}
