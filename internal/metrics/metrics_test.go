package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/bodega/pkg/types"
)

func TestResult(t *testing.T) {
	assert.Equal(t, ResultOK, Result(nil))
	assert.Equal(t, ResultRejected, Result(fmt.Errorf("supply 7: %w", types.ErrInsufficientStock)))
	assert.Equal(t, ResultStoreError, Result(&types.StoreError{Op: "write", Table: "Supplies", Err: errors.New("x")}))
}

func TestObserveTransaction(t *testing.T) {
	m := New()
	m.ObserveTransaction("supply_exit", nil)
	m.ObserveTransaction("supply_exit", nil)
	m.ObserveTransaction("tool_loan", types.ErrAlreadyLoaned)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transactions.WithLabelValues("supply_exit", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactions.WithLabelValues("tool_loan", ResultRejected)))
}

func TestObservePersist(t *testing.T) {
	m := New()
	m.ObservePersist(10*time.Millisecond, nil)
	m.ObservePersist(20*time.Millisecond, errors.New("down"))
	m.ObserveRecovery()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recoveries))
	assert.Equal(t, 1, testutil.CollectAndCount(m.persistDuration))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveTransaction("tool_return", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `bodega_transactions_total{kind="tool_return",result="ok"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
