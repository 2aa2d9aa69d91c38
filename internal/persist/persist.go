// Package persist writes a repository back to its Ledger Store as one
// logical unit.
//
// Stores that implement types.BatchWriter receive the whole unit in one
// atomic call. For every other store the coordinator first records the
// intended writes in the journal table, then writes the tables one after
// another, then clears the journal. A journal left behind by a crash is
// rolled forward by Recover before the next load.
//
// The coordinator keeps a copy of the last state known to be in the
// store. After a journaled persist fails part way, Rollback writes that
// copy back so the partial write can be discarded.
package persist

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/bodega/internal/repository"
	"github.com/mesh-intelligence/bodega/pkg/types"
)

// Write modes recorded in the journal.
const (
	ModeReplace = "replace"
	ModeAppend  = "append"
)

// Coordinator persists repositories to one store.
type Coordinator struct {
	store  types.LedgerStore
	logger *slog.Logger
	now    func() time.Time

	base      []write
	unsettled bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithClock sets the clock used to timestamp journal entries.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// New returns a Coordinator for store.
func New(store types.LedgerStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:  store,
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// write is one table write of a persist unit.
type write struct {
	table string
	mode  string
	rows  []types.Row
}

// unit lists the writes that make repo durable, in persist order. The
// master tables and the sequences table are always replaced whole; the
// movement ledgers are appended when the store can append.
func (c *Coordinator) unit(repo *repository.Repository) ([]write, error) {
	_, canAppend := c.store.(types.Appender)
	tables := append(append([]string{}, types.StandardTableNames...), types.SequencesTable)

	var ws []write
	for _, table := range tables {
		isLedger := table == types.SupplyMovementsTable || table == types.ToolMovementsTable
		if isLedger && canAppend {
			rows, err := repo.PendingLedgerRows(table)
			if err != nil {
				return nil, err
			}
			ws = append(ws, write{table: table, mode: ModeAppend, rows: rows})
			continue
		}
		rows, err := repo.Rows(table)
		if err != nil {
			return nil, err
		}
		ws = append(ws, write{table: table, mode: ModeReplace, rows: rows})
	}
	return ws, nil
}

// Snapshot records the state of repo as the state the store holds. Call
// it after loading repo from the store.
func (c *Coordinator) Snapshot(repo *repository.Repository) error {
	tables := append(append([]string{}, types.StandardTableNames...), types.SequencesTable)
	base := make([]write, 0, len(tables))
	for _, table := range tables {
		rows, err := repo.Rows(table)
		if err != nil {
			return err
		}
		base = append(base, write{table: table, mode: ModeReplace, rows: rows})
	}
	c.base = base
	c.unsettled = false
	return nil
}

// Unsettled reports whether a journaled persist failed after it started
// writing, so the store may hold part of it.
func (c *Coordinator) Unsettled() bool {
	return c.unsettled
}

// Rollback rewrites the store from the last snapshot when a journaled
// persist failed part way. It goes through the journal itself, so a crash
// during Rollback is finished by the next Recover.
func (c *Coordinator) Rollback(ctx context.Context) error {
	if !c.unsettled {
		return nil
	}
	if c.base == nil {
		return errors.New("rollback: no snapshot")
	}
	if err := c.writeJournaled(ctx, c.base, nil); err != nil {
		return err
	}
	c.unsettled = false
	c.logger.Warn("partial persist rolled back")
	return nil
}

// PersistAll writes every table of repo to the store. On failure it
// returns a *types.StoreError naming the first table that could not be
// written; tables written before it stay written and the repository keeps
// its state, so calling PersistAll again retries.
func (c *Coordinator) PersistAll(ctx context.Context, repo *repository.Repository) error {
	ws, err := c.unit(repo)
	if err != nil {
		return err
	}
	if bw, ok := c.store.(types.BatchWriter); ok {
		err = c.persistBatch(ctx, bw, repo, ws)
	} else {
		err = c.writeJournaled(ctx, ws, func(w write) {
			if w.table == types.SupplyMovementsTable || w.table == types.ToolMovementsTable {
				repo.MarkLedgerSaved(w.table)
			}
		})
	}
	if err != nil {
		return err
	}
	return c.Snapshot(repo)
}

func (c *Coordinator) persistBatch(ctx context.Context, bw types.BatchWriter, repo *repository.Repository, ws []write) error {
	var b types.Batch
	for _, w := range ws {
		tr := types.TableRows{Table: w.table, Rows: w.rows}
		if w.mode == ModeAppend {
			b.Append = append(b.Append, tr)
		} else {
			b.Replace = append(b.Replace, tr)
		}
	}
	if err := bw.WriteBatch(ctx, b); err != nil {
		c.logger.Error("persist failed", "mode", "batch", "error", err)
		return &types.StoreError{Op: "batch", Err: err}
	}
	repo.MarkSaved()
	return nil
}

// writeJournaled records ws in the journal, applies it, and clears the
// journal. done is called after each write that reached the store. Any
// failure past the journal write leaves the coordinator unsettled.
func (c *Coordinator) writeJournaled(ctx context.Context, ws []write, done func(write)) error {
	journal, err := journalRows(newJournalID(), c.now(), ws)
	if err != nil {
		return err
	}
	if err := c.store.WriteTable(ctx, types.JournalTable, journal); err != nil {
		c.logger.Error("persist failed", "table", types.JournalTable, "error", err)
		return &types.StoreError{Op: "write", Table: types.JournalTable, Err: err}
	}

	for _, w := range ws {
		if err := c.apply(ctx, w); err != nil {
			c.unsettled = true
			c.logger.Error("persist failed", "table", w.table, "mode", w.mode, "error", err)
			op := "write"
			if w.mode == ModeAppend {
				op = "append"
			}
			return &types.StoreError{Op: op, Table: w.table, Err: err}
		}
		if done != nil {
			done(w)
		}
	}

	if err := c.store.WriteTable(ctx, types.JournalTable, nil); err != nil {
		c.unsettled = true
		c.logger.Warn("journal not cleared", "error", err)
		return &types.StoreError{Op: "write", Table: types.JournalTable, Err: err}
	}
	return nil
}

func (c *Coordinator) apply(ctx context.Context, w write) error {
	if w.mode == ModeAppend {
		a, ok := c.store.(types.Appender)
		if !ok {
			return errors.New("store cannot append")
		}
		return a.AppendRows(ctx, w.table, w.rows)
	}
	return c.store.WriteTable(ctx, w.table, w.rows)
}

func newJournalID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
