package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// SupplyKind distinguishes supply entries from exits.
type SupplyKind string

// Supply movement kinds.
const (
	SupplyEntry SupplyKind = "ENTRY"
	SupplyExit  SupplyKind = "EXIT"
)

// SupplyMovement records one change of a supply quantity. Movements are
// append-only. SupplyID is the permanent key; SupplyName is the display
// name at the time of the movement. Rows written before ids existed carry
// SupplyID 0.
type SupplyMovement struct {
	ID           string          `json:"movement_id,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
	SupplyID     int64           `json:"supply_id,omitempty"`
	SupplyName   string          `json:"supply_name"`
	Kind         SupplyKind      `json:"kind"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit,omitempty"`
	Counterparty string          `json:"counterparty"`
}

// ToolAction distinguishes tool loans from returns.
type ToolAction string

// Tool movement actions.
const (
	ToolLoan   ToolAction = "LOAN"
	ToolReturn ToolAction = "RETURN"
)

// ToolMovement records one change of tool custody. On a loan Party is the
// receiving operator; on a return Party is Warehouse and Detail is the
// reported condition.
type ToolMovement struct {
	ID        string     `json:"movement_id,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	ToolID    int64      `json:"tool_id,omitempty"`
	ToolName  string     `json:"tool_name"`
	Action    ToolAction `json:"action"`
	Party     string     `json:"party"`
	Detail    string     `json:"detail,omitempty"`
}
