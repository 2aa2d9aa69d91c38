package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/bodega/internal/auth"
	"github.com/mesh-intelligence/bodega/internal/ledger"
	"github.com/mesh-intelligence/bodega/internal/repository"
	"github.com/mesh-intelligence/bodega/pkg/types"
)

const testPassword = "HEMORE2026"

var (
	hashOnce sync.Once
	hash     string
)

func testHash(t *testing.T) string {
	t.Helper()
	hashOnce.Do(func() {
		var err error
		hash, err = auth.HashPassword(testPassword)
		require.NoError(t, err)
	})
	return hash
}

type recorder struct {
	mu           sync.Mutex
	transactions []string
	persists     int
	failures     int
	recoveries   int
}

func (r *recorder) ObserveTransaction(kind string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions = append(r.transactions, fmt.Sprintf("%s:%v", kind, err == nil))
}

func (r *recorder) ObservePersist(_ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persists++
	if err != nil {
		r.failures++
	}
}

func (r *recorder) ObserveRecovery() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recoveries++
}

func seededStore(t *testing.T) *ledger.Memory {
	t.Helper()
	ctx := context.Background()
	m := ledger.NewMemory()
	require.NoError(t, m.WriteTable(ctx, types.OperatorsTable, []types.Row{{repository.ColOperatorName: "Maria"}}))
	require.NoError(t, m.WriteTable(ctx, types.SuppliesTable, []types.Row{
		{repository.ColID: "7", repository.ColSupplyName: "Gloves", repository.ColQuantity: "50", repository.ColMinimum: "10"},
	}))
	require.NoError(t, m.WriteTable(ctx, types.ToolsTable, []types.Row{
		{repository.ColID: "3", repository.ColToolName: "Drill"},
	}))
	return m
}

func open(t *testing.T, store types.LedgerStore, obs Observer) *Session {
	t.Helper()
	s, err := Open(context.Background(), testPassword, Options{
		Store:        store,
		PasswordHash: testHash(t),
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Observer:     obs,
	})
	require.NoError(t, err)
	return s
}

func reloadFrom(t *testing.T, store types.LedgerStore) *repository.Repository {
	t.Helper()
	repo, err := repository.Load(context.Background(), store)
	require.NoError(t, err)
	return repo
}

func TestOpenRejectsBadPassword(t *testing.T) {
	_, err := Open(context.Background(), "wrong", Options{Store: ledger.NewMemory(), PasswordHash: testHash(t)})
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	_, err = Open(context.Background(), testPassword, Options{Store: ledger.NewMemory()})
	assert.ErrorIs(t, err, types.ErrUnauthorized)
}

func TestTransactionsArePersisted(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	obs := &recorder{}
	s := open(t, store, obs)

	m, err := s.SupplyExit(ctx, 7, decimal.NewFromInt(20), "Maria")
	require.NoError(t, err)
	assert.Equal(t, "Maria", m.Counterparty)

	_, err = s.ToolLoan(ctx, 3, "Maria")
	require.NoError(t, err)
	_, err = s.ToolReturn(ctx, 3, types.ConditionBad)
	require.NoError(t, err)
	_, err = s.SupplyEntry(ctx, 7, decimal.NewFromInt(5))
	require.NoError(t, err)

	repo := reloadFrom(t, store)
	gloves, _ := repo.Supply(7)
	assert.True(t, decimal.NewFromInt(35).Equal(gloves.Quantity))
	drill, _ := repo.Tool(3)
	assert.Equal(t, types.Warehouse, drill.Custodian)
	assert.Equal(t, types.ConditionBad, drill.Condition)
	assert.Len(t, repo.SupplyHistory(7), 2)
	assert.Len(t, repo.ToolHistory(3), 2)

	assert.Equal(t, []string{"supply_exit:true", "tool_loan:true", "tool_return:true", "supply_entry:true"}, obs.transactions)
	assert.Equal(t, 4, obs.persists)
}

func TestRejectedTransactionIsNotPersisted(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	obs := &recorder{}
	s := open(t, store, obs)

	_, err := s.SupplyExit(ctx, 7, decimal.NewFromInt(40), "Maria")
	require.NoError(t, err)
	_, err = s.SupplyExit(ctx, 7, decimal.NewFromInt(40), "Maria")
	require.ErrorIs(t, err, types.ErrInsufficientStock)

	assert.Equal(t, 1, obs.persists)
	assert.Equal(t, []string{"supply_exit:true", "supply_exit:false"}, obs.transactions)
}

func TestStoreFailureKeepsMemoryAndRetries(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	obs := &recorder{}
	s := open(t, store, obs)

	store.FailWrite = func(string) error { return errors.New("quota exceeded") }
	m, err := s.SupplyExit(ctx, 7, decimal.NewFromInt(20), "Maria")
	require.ErrorIs(t, err, types.ErrStore)
	require.NotNil(t, m)
	assert.True(t, s.Dirty())
	assert.Equal(t, 1, obs.failures)

	require.NoError(t, s.Read(func(r *repository.Repository) {
		g, _ := r.Supply(7)
		assert.True(t, decimal.NewFromInt(30).Equal(g.Quantity))
	}))

	store.FailWrite = nil
	require.NoError(t, s.Persist(ctx))
	assert.False(t, s.Dirty())

	repo := reloadFrom(t, store)
	g, _ := repo.Supply(7)
	assert.True(t, decimal.NewFromInt(30).Equal(g.Quantity))
	assert.Len(t, repo.SupplyHistory(0), 1)
}

func TestCloseRetriesPendingPersist(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	s := open(t, store, nil)

	store.FailWrite = func(string) error { return errors.New("offline") }
	_, err := s.ToolLoan(ctx, 3, "Maria")
	require.Error(t, err)

	store.FailWrite = nil
	require.NoError(t, s.Close(ctx))
	drill, _ := reloadFrom(t, store).Tool(3)
	assert.Equal(t, "Maria", drill.Custodian)

	_, err = s.SupplyEntry(ctx, 7, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, types.ErrSessionClosed)
	assert.ErrorIs(t, s.Read(func(*repository.Repository) {}), types.ErrSessionClosed)
	assert.NoError(t, s.Close(ctx))
}

func TestOpenRollsForwardJournal(t *testing.T) {
	ctx := context.Background()
	mem := seededStore(t)
	store := &journaledStore{mem: mem}
	s := open(t, store, nil)

	store.failOn = types.ToolsTable
	_, err := s.SupplyExit(ctx, 7, decimal.NewFromInt(20), "Maria")
	require.ErrorIs(t, err, types.ErrStore)
	store.failOn = ""

	obs := &recorder{}
	again := open(t, store, obs)
	assert.Equal(t, 1, obs.recoveries)
	require.NoError(t, again.Read(func(r *repository.Repository) {
		g, _ := r.Supply(7)
		assert.True(t, decimal.NewFromInt(30).Equal(g.Quantity))
		assert.Len(t, r.SupplyHistory(7), 1)
	}))
}

func TestReloadDiscardsPartialPersist(t *testing.T) {
	ctx := context.Background()
	store := &journaledStore{mem: seededStore(t)}
	s := open(t, store, nil)

	store.failOn = types.ToolsTable
	_, err := s.SupplyExit(ctx, 7, decimal.NewFromInt(20), "Maria")
	require.ErrorIs(t, err, types.ErrStore)
	require.True(t, s.Dirty())

	// The tools table is still failing, so the partial write cannot be undone.
	require.ErrorIs(t, s.Reload(ctx), types.ErrStore)
	assert.True(t, s.Dirty())

	store.failOn = ""
	require.NoError(t, s.Reload(ctx))
	assert.False(t, s.Dirty())
	require.NoError(t, s.Read(func(r *repository.Repository) {
		g, _ := r.Supply(7)
		assert.True(t, decimal.NewFromInt(50).Equal(g.Quantity), "quantity = %s", g.Quantity)
		assert.Empty(t, r.SupplyHistory(7))
	}))

	repo := reloadFrom(t, store)
	g, _ := repo.Supply(7)
	assert.True(t, decimal.NewFromInt(50).Equal(g.Quantity))
	assert.Empty(t, repo.SupplyHistory(0))

	// Entering the exit again counts it once.
	_, err = s.SupplyExit(ctx, 7, decimal.NewFromInt(20), "Maria")
	require.NoError(t, err)
	g, _ = reloadFrom(t, store).Supply(7)
	assert.True(t, decimal.NewFromInt(30).Equal(g.Quantity))
}

func TestReloadSeesExternalChanges(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	s := open(t, store, nil)

	other := open(t, store, nil)
	_, err := other.SupplyEntry(ctx, 7, decimal.NewFromInt(10))
	require.NoError(t, err)

	require.NoError(t, s.Reload(ctx))
	require.NoError(t, s.Read(func(r *repository.Repository) {
		g, _ := r.Supply(7)
		assert.True(t, decimal.NewFromInt(60).Equal(g.Quantity))
	}))
}

func TestConcurrentTransactionsAreSerialized(t *testing.T) {
	ctx := context.Background()
	s := open(t, seededStore(t), nil)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.SupplyEntry(ctx, 7, decimal.NewFromInt(2))
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := s.SupplyExit(ctx, 7, decimal.NewFromInt(1), "Maria")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.NoError(t, s.Read(func(r *repository.Repository) {
		g, _ := r.Supply(7)
		assert.True(t, decimal.NewFromInt(75).Equal(g.Quantity), "quantity = %s", g.Quantity)
		assert.Len(t, r.SupplyHistory(7), 50)
	}))
}

func TestSaveMasterDataPersists(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	s := open(t, store, nil)

	_, err := s.SaveOperators(ctx, []types.Operator{{Name: "Maria"}, {Name: "Pedro"}})
	require.NoError(t, err)
	saved, err := s.SaveSupplies(ctx, []types.Supply{{ID: 7, Name: "Gloves"}, {Name: "Tape"}})
	require.NoError(t, err)
	assert.Equal(t, int64(8), saved[1].ID)
	_, err = s.SaveTools(ctx, []types.Tool{{ID: 3, Name: "Drill"}, {Name: "Saw"}})
	require.NoError(t, err)
	require.NoError(t, s.SaveMasterData(ctx, "operators", []types.Row{{repository.ColOperatorName: "Ana"}}))

	repo := reloadFrom(t, store)
	assert.Equal(t, []types.Operator{{Name: "Ana"}}, repo.Operators())
	assert.Len(t, repo.Supplies(), 2)
	assert.Len(t, repo.Tools(), 2)
}

// journaledStore hides the memory store's batch and append support so
// persisting goes through the journal.
type journaledStore struct {
	mem    *ledger.Memory
	failOn string
}

func (s *journaledStore) ReadTable(ctx context.Context, name string) ([]types.Row, error) {
	return s.mem.ReadTable(ctx, name)
}

func (s *journaledStore) WriteTable(ctx context.Context, name string, rows []types.Row) error {
	if name == s.failOn {
		return errors.New("injected")
	}
	return s.mem.WriteTable(ctx, name, rows)
}

func (s *journaledStore) Close() error { return nil }
