// Package engine implements the inventory transactions: supply exits and
// entries, tool loans and returns, and master-data maintenance.
//
// Every operation validates completely before it mutates anything, so a
// rejected operation leaves the repository untouched. A successful
// transaction changes the live record and appends its movement together.
// The engine does not persist; the session does that after each call.
package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/bodega/internal/repository"
	"github.com/mesh-intelligence/bodega/pkg/types"
)

// Engine runs transactions against one repository. It is not safe for
// concurrent use.
type Engine struct {
	repo  *repository.Repository
	now   func() time.Time
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to timestamp movements.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator sets the function that assigns movement ids.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// New returns an Engine over repo. Movements get UUID v7 ids and UTC
// timestamps unless options say otherwise.
func New(repo *repository.Repository, opts ...Option) *Engine {
	e := &Engine{
		repo:  repo,
		now:   func() time.Time { return time.Now().UTC() },
		newID: newMovementID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Repository returns the repository the engine mutates.
func (e *Engine) Repository() *repository.Repository { return e.repo }

func newMovementID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

func (e *Engine) operator(name string) (types.Operator, error) {
	op, ok := e.repo.Operator(name)
	if !ok {
		return types.Operator{}, fmt.Errorf("%q: %w", name, types.ErrOperatorNotFound)
	}
	return op, nil
}

// SupplyExit hands qty of a supply to an operator.
//
// Fails with ErrNotFound if no supply has supplyID, ErrInvalidQuantity if
// qty is not positive, ErrOperatorNotFound if operator is not a known
// operator, and ErrInsufficientStock if the supply holds less than qty.
func (e *Engine) SupplyExit(supplyID int64, qty decimal.Decimal, operator string) (*types.SupplyMovement, error) {
	s, ok := e.repo.Supply(supplyID)
	if !ok {
		return nil, fmt.Errorf("supply %d: %w", supplyID, types.ErrNotFound)
	}
	if !qty.IsPositive() {
		return nil, types.ErrInvalidQuantity
	}
	op, err := e.operator(operator)
	if err != nil {
		return nil, err
	}
	if err := s.Withdraw(qty); err != nil {
		return nil, fmt.Errorf("supply %d: %w", supplyID, err)
	}

	m := types.SupplyMovement{
		ID:           e.newID(),
		Timestamp:    e.now(),
		SupplyID:     s.ID,
		SupplyName:   s.Name,
		Kind:         types.SupplyExit,
		Quantity:     qty,
		Unit:         s.Unit,
		Counterparty: op.Name,
	}
	e.repo.AppendSupplyMovement(m)
	return &m, nil
}

// SupplyEntry receives qty of a supply into the warehouse. There is no
// upper bound on stock.
//
// Fails with ErrNotFound if no supply has supplyID and ErrInvalidQuantity
// if qty is not positive.
func (e *Engine) SupplyEntry(supplyID int64, qty decimal.Decimal) (*types.SupplyMovement, error) {
	s, ok := e.repo.Supply(supplyID)
	if !ok {
		return nil, fmt.Errorf("supply %d: %w", supplyID, types.ErrNotFound)
	}
	if err := s.Receive(qty); err != nil {
		return nil, fmt.Errorf("supply %d: %w", supplyID, err)
	}

	m := types.SupplyMovement{
		ID:           e.newID(),
		Timestamp:    e.now(),
		SupplyID:     s.ID,
		SupplyName:   s.Name,
		Kind:         types.SupplyEntry,
		Quantity:     qty,
		Unit:         s.Unit,
		Counterparty: types.Warehouse,
	}
	e.repo.AppendSupplyMovement(m)
	return &m, nil
}

// ToolLoan hands a tool held by the warehouse to an operator.
//
// Fails with ErrNotFound if no tool has toolID, ErrOperatorNotFound if
// operator is unknown, and ErrAlreadyLoaned if the tool is on loan.
func (e *Engine) ToolLoan(toolID int64, operator string) (*types.ToolMovement, error) {
	t, ok := e.repo.Tool(toolID)
	if !ok {
		return nil, fmt.Errorf("tool %d: %w", toolID, types.ErrNotFound)
	}
	op, err := e.operator(operator)
	if err != nil {
		return nil, err
	}
	if err := t.Loan(op.Name); err != nil {
		return nil, fmt.Errorf("tool %d held by %s: %w", toolID, t.Custodian, err)
	}

	m := types.ToolMovement{
		ID:        e.newID(),
		Timestamp: e.now(),
		ToolID:    t.ID,
		ToolName:  t.Name,
		Action:    types.ToolLoan,
		Party:     op.Name,
	}
	e.repo.AppendToolMovement(m)
	return &m, nil
}

// ToolReturn takes a loaned tool back into the warehouse and records the
// condition it came back in.
//
// Fails with ErrNotFound if no tool has toolID, ErrInvalidCondition unless
// condition is GOOD or BAD, and ErrNotLoaned if the warehouse holds it.
func (e *Engine) ToolReturn(toolID int64, condition types.Condition) (*types.ToolMovement, error) {
	t, ok := e.repo.Tool(toolID)
	if !ok {
		return nil, fmt.Errorf("tool %d: %w", toolID, types.ErrNotFound)
	}
	if err := t.Return(condition); err != nil {
		return nil, fmt.Errorf("tool %d: %w", toolID, err)
	}

	m := types.ToolMovement{
		ID:        e.newID(),
		Timestamp: e.now(),
		ToolID:    t.ID,
		ToolName:  t.Name,
		Action:    types.ToolReturn,
		Party:     types.Warehouse,
		Detail:    string(condition),
	}
	e.repo.AppendToolMovement(m)
	return &m, nil
}
