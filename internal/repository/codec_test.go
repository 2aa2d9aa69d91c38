package repository

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/bodega/pkg/types"
)

func TestDecodeSupplyCoercion(t *testing.T) {
	tests := []struct {
		name    string
		row     types.Row
		wantID  int64
		wantQty string
		wantMin string
	}{
		{
			name:    "numbers",
			row:     types.Row{ColID: json.Number("7"), ColQuantity: json.Number("50"), ColMinimum: json.Number("10")},
			wantID:  7,
			wantQty: "50",
			wantMin: "10",
		},
		{
			name:    "strings with spaces and decimal comma",
			row:     types.Row{ColID: " 8 ", ColQuantity: "2,5", ColMinimum: "1"},
			wantID:  8,
			wantQty: "2.5",
			wantMin: "1",
		},
		{
			name:    "float values from a spreadsheet",
			row:     types.Row{ColID: 9.0, ColQuantity: 12.75, ColMinimum: 3.0},
			wantID:  9,
			wantQty: "12.75",
			wantMin: "3",
		},
		{
			name:    "unparsable values become zero",
			row:     types.Row{ColID: "abc", ColQuantity: "lots", ColMinimum: nil},
			wantID:  0,
			wantQty: "0",
			wantMin: "0",
		},
		{
			name:    "ids past int64 become zero",
			row:     types.Row{ColID: "99999999999999999999", ColQuantity: "1"},
			wantID:  0,
			wantQty: "1",
			wantMin: "0",
		},
		{
			name:    "fractional id past int64 becomes zero",
			row:     types.Row{ColID: 1e20, ColQuantity: "1"},
			wantID:  0,
			wantQty: "1",
			wantMin: "0",
		},
		{
			name:    "negative quantity is clamped",
			row:     types.Row{ColID: "-3", ColQuantity: "-4"},
			wantID:  0,
			wantQty: "0",
			wantMin: "0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DecodeSupply(tt.row)
			assert.Equal(t, tt.wantID, s.ID)
			assert.True(t, decimal.RequireFromString(tt.wantQty).Equal(s.Quantity), "quantity = %s", s.Quantity)
			assert.True(t, decimal.RequireFromString(tt.wantMin).Equal(s.Minimum), "minimum = %s", s.Minimum)
		})
	}
}

func TestDecodeToolLegacyValues(t *testing.T) {
	tests := []struct {
		custodian     any
		condition     string
		wantCustodian string
		wantCondition types.Condition
	}{
		{custodian: nil, condition: "", wantCustodian: types.Warehouse, wantCondition: types.ConditionUnset},
		{custodian: "", condition: "BUENO", wantCustodian: types.Warehouse, wantCondition: types.ConditionGood},
		{custodian: "Bodega", condition: "MALO", wantCustodian: types.Warehouse, wantCondition: types.ConditionBad},
		{custodian: "Almacén", condition: "GOOD", wantCustodian: types.Warehouse, wantCondition: types.ConditionGood},
		{custodian: "Maria", condition: " REGULAR ", wantCustodian: "Maria", wantCondition: types.Condition("REGULAR")},
	}
	for _, tt := range tests {
		tool := DecodeTool(types.Row{ColID: "3", ColCustodian: tt.custodian, ColCondition: tt.condition})
		assert.Equal(t, tt.wantCustodian, tool.Custodian)
		assert.Equal(t, tt.wantCondition, tool.Condition)
	}
}

func TestUnknownConditionSurvivesEncode(t *testing.T) {
	tool := DecodeTool(types.Row{ColID: "3", ColToolName: "Drill", ColCondition: "REGULAR"})
	assert.Equal(t, "REGULAR", encodeTool(tool)[ColCondition])
}

func TestDecodeLegacyMovements(t *testing.T) {
	sm := DecodeSupplyMovement(types.Row{
		ColTimestamp:    "14/03/2025 09:30",
		ColSupplyName:   "Gloves",
		ColKind:         "Entrada",
		ColQuantity:     json.Number("20"),
		ColUnit:         "Unidad",
		ColCounterparty: "Almacén",
	})
	assert.Equal(t, types.SupplyEntry, sm.Kind)
	assert.Equal(t, types.Warehouse, sm.Counterparty)
	assert.Equal(t, int64(0), sm.SupplyID)
	assert.Empty(t, sm.ID)
	assert.True(t, time.Date(2025, 3, 14, 9, 30, 0, 0, time.Local).Equal(sm.Timestamp), "timestamp = %v", sm.Timestamp)

	assert.Equal(t, types.SupplyExit, DecodeSupplyMovement(types.Row{ColKind: "Salida"}).Kind)

	tm := DecodeToolMovement(types.Row{
		ColToolName: "Drill",
		ColAction:   "Devolución",
		ColParty:    "Bodega",
		ColDetail:   "MALO",
	})
	assert.Equal(t, types.ToolReturn, tm.Action)
	assert.Equal(t, types.Warehouse, tm.Party)
	assert.Equal(t, "BAD", tm.Detail)

	assert.Equal(t, types.ToolLoan, DecodeToolMovement(types.Row{ColAction: "Préstamo"}).Action)
}

func TestMovementRowRoundTrip(t *testing.T) {
	ts := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	in := types.SupplyMovement{
		ID:           "0192f0c4-0000-7000-8000-000000000001",
		Timestamp:    ts,
		SupplyID:     7,
		SupplyName:   "Gloves",
		Kind:         types.SupplyExit,
		Quantity:     decimal.RequireFromString("20"),
		Unit:         "pair",
		Counterparty: "Maria",
	}
	row := EncodeSupplyMovement(in)
	assert.Equal(t, "2026-01-02T15:04:05Z", row[ColTimestamp])
	assert.Equal(t, "EXIT", row[ColKind])

	out := DecodeSupplyMovement(row)
	assert.True(t, in.Quantity.Equal(out.Quantity))
	out.Quantity = in.Quantity
	assert.Equal(t, in, out)
}
