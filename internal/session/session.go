// Package session owns the state of one logged-in session: the
// repository, the engine over it, and the coordinator that persists it.
//
// A session is created by Open after the password check and ends with
// Close. All transactions of a session run one at a time; every
// successful transaction is persisted before the call returns.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/bodega/internal/auth"
	"github.com/mesh-intelligence/bodega/internal/engine"
	"github.com/mesh-intelligence/bodega/internal/persist"
	"github.com/mesh-intelligence/bodega/internal/repository"
	"github.com/mesh-intelligence/bodega/pkg/types"
)

// Observer receives transaction and persistence events.
type Observer interface {
	ObserveTransaction(kind string, err error)
	ObservePersist(d time.Duration, err error)
	ObserveRecovery()
}

type nopObserver struct{}

func (nopObserver) ObserveTransaction(string, error)    {}
func (nopObserver) ObservePersist(time.Duration, error) {}
func (nopObserver) ObserveRecovery()                    {}

// Options configure Open. Store and PasswordHash are required.
type Options struct {
	Store        types.LedgerStore
	PasswordHash string
	Logger       *slog.Logger
	Observer     Observer
	Clock        func() time.Time
	IDGenerator  func() string
}

// Transaction kinds reported to the Observer.
const (
	KindSupplyExit  = "supply_exit"
	KindSupplyEntry = "supply_entry"
	KindToolLoan    = "tool_loan"
	KindToolReturn  = "tool_return"
	KindMasterData  = "master_data"
)

// Session is safe for concurrent use.
type Session struct {
	mu      sync.RWMutex
	opts    Options
	logger  *slog.Logger
	obs     Observer
	coord   *persist.Coordinator
	eng     *engine.Engine
	dirty   bool
	closed  bool
	started time.Time
}

// Open checks password against opts.PasswordHash, rolls forward any
// unfinished persist, and loads every table. It returns
// types.ErrUnauthorized when the password does not match.
func Open(ctx context.Context, password string, opts Options) (*Session, error) {
	if err := auth.CheckPassword(opts.PasswordHash, password); err != nil {
		return nil, err
	}
	if opts.Store == nil {
		return nil, errors.New("session: no store")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	s := &Session{
		opts:    opts,
		logger:  opts.Logger.With("component", "session"),
		obs:     opts.Observer,
		started: time.Now(),
	}
	copts := []persist.Option{persist.WithLogger(opts.Logger)}
	if opts.Clock != nil {
		copts = append(copts, persist.WithClock(opts.Clock))
	}
	s.coord = persist.New(opts.Store, copts...)

	if err := s.load(ctx); err != nil {
		return nil, err
	}
	s.logger.Info("session opened", "supplies", len(s.eng.Repository().Supplies()), "tools", len(s.eng.Repository().Tools()))
	return s, nil
}

func (s *Session) load(ctx context.Context) error {
	n, err := s.coord.Recover(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.obs.ObserveRecovery()
		s.logger.Warn("unfinished persist rolled forward", "entries", n)
	}
	repo, err := repository.Load(ctx, s.opts.Store)
	if err != nil {
		return err
	}
	if err := s.coord.Snapshot(repo); err != nil {
		return err
	}
	var eopts []engine.Option
	if s.opts.Clock != nil {
		eopts = append(eopts, engine.WithClock(s.opts.Clock))
	}
	if s.opts.IDGenerator != nil {
		eopts = append(eopts, engine.WithIDGenerator(s.opts.IDGenerator))
	}
	s.eng = engine.New(repo, eopts...)
	s.dirty = false
	return nil
}

// Authenticate checks password against the session's hash.
func (s *Session) Authenticate(password string) error {
	return auth.CheckPassword(s.opts.PasswordHash, password)
}

// Read calls fn with the repository under the read lock. fn must not
// keep references past its return or mutate the repository.
func (s *Session) Read(fn func(*repository.Repository)) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return types.ErrSessionClosed
	}
	fn(s.eng.Repository())
	return nil
}

// Dirty reports whether the last persist failed. The in-memory state then
// holds changes the store does not have; Persist retries.
func (s *Session) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Persist writes the current state to the store.
func (s *Session) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrSessionClosed
	}
	return s.persistLocked(ctx)
}

func (s *Session) persistLocked(ctx context.Context) error {
	start := time.Now()
	err := s.coord.PersistAll(ctx, s.eng.Repository())
	s.obs.ObservePersist(time.Since(start), err)
	s.dirty = err != nil
	return err
}

// Reload discards the in-memory state and loads every table again.
// Unpersisted changes are lost, including the part of a failed persist
// that reached the store. If that part cannot be undone Reload returns
// the store error and the session stays dirty.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrSessionClosed
	}
	if s.dirty {
		s.logger.Warn("reload discards unpersisted changes", "pending", s.eng.Repository().Pending())
		if err := s.coord.Rollback(ctx); err != nil {
			return err
		}
	}
	return s.load(ctx)
}

// Close ends the session. If the last persist failed, Close tries once
// more and returns that error; the session is closed either way.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	var err error
	if s.dirty {
		err = s.persistLocked(ctx)
	}
	s.closed = true
	s.logger.Info("session closed", "duration", time.Since(s.started).Round(time.Second))
	return err
}

// transact runs fn under the write lock and persists on success. A
// persist failure is returned as is; the mutation stays in memory.
func (s *Session) transact(ctx context.Context, kind string, fn func(*engine.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrSessionClosed
	}
	if err := fn(s.eng); err != nil {
		s.obs.ObserveTransaction(kind, err)
		return err
	}
	err := s.persistLocked(ctx)
	s.obs.ObserveTransaction(kind, err)
	if err != nil {
		s.logger.Error("transaction not persisted", "kind", kind, "error", err)
		return err
	}
	s.logger.Info("transaction committed", "kind", kind)
	return nil
}

// SupplyExit runs engine.SupplyExit and persists. On a store error the
// movement is returned together with the error.
func (s *Session) SupplyExit(ctx context.Context, supplyID int64, qty decimal.Decimal, operator string) (*types.SupplyMovement, error) {
	var m *types.SupplyMovement
	err := s.transact(ctx, KindSupplyExit, func(e *engine.Engine) (err error) {
		m, err = e.SupplyExit(supplyID, qty, operator)
		return err
	})
	return m, err
}

// SupplyEntry runs engine.SupplyEntry and persists.
func (s *Session) SupplyEntry(ctx context.Context, supplyID int64, qty decimal.Decimal) (*types.SupplyMovement, error) {
	var m *types.SupplyMovement
	err := s.transact(ctx, KindSupplyEntry, func(e *engine.Engine) (err error) {
		m, err = e.SupplyEntry(supplyID, qty)
		return err
	})
	return m, err
}

// ToolLoan runs engine.ToolLoan and persists.
func (s *Session) ToolLoan(ctx context.Context, toolID int64, operator string) (*types.ToolMovement, error) {
	var m *types.ToolMovement
	err := s.transact(ctx, KindToolLoan, func(e *engine.Engine) (err error) {
		m, err = e.ToolLoan(toolID, operator)
		return err
	})
	return m, err
}

// ToolReturn runs engine.ToolReturn and persists.
func (s *Session) ToolReturn(ctx context.Context, toolID int64, condition types.Condition) (*types.ToolMovement, error) {
	var m *types.ToolMovement
	err := s.transact(ctx, KindToolReturn, func(e *engine.Engine) (err error) {
		m, err = e.ToolReturn(toolID, condition)
		return err
	})
	return m, err
}

// SaveOperators replaces the operator table and persists.
func (s *Session) SaveOperators(ctx context.Context, ops []types.Operator) ([]types.Operator, error) {
	var out []types.Operator
	err := s.transact(ctx, KindMasterData, func(e *engine.Engine) (err error) {
		out, err = e.SaveOperators(ops)
		return err
	})
	return out, err
}

// SaveSupplies replaces the supply table and persists.
func (s *Session) SaveSupplies(ctx context.Context, rows []types.Supply) ([]types.Supply, error) {
	var out []types.Supply
	err := s.transact(ctx, KindMasterData, func(e *engine.Engine) (err error) {
		out, err = e.SaveSupplies(rows)
		return err
	})
	return out, err
}

// SaveTools replaces the tool table and persists.
func (s *Session) SaveTools(ctx context.Context, rows []types.Tool) ([]types.Tool, error) {
	var out []types.Tool
	err := s.transact(ctx, KindMasterData, func(e *engine.Engine) (err error) {
		out, err = e.SaveTools(rows)
		return err
	})
	return out, err
}

// SaveMasterData replaces one master table from stored-form rows and
// persists.
func (s *Session) SaveMasterData(ctx context.Context, kind string, rows []types.Row) error {
	return s.transact(ctx, KindMasterData, func(e *engine.Engine) error {
		return e.SaveMasterData(kind, rows)
	})
}
