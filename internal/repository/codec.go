package repository

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/bodega/pkg/types"
)

// Coercion. Stored values may be strings, json.Number, float64, bool or
// nil depending on the backend and on who wrote them. Anything that does
// not parse becomes the zero value.

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

func asDecimal(v any) decimal.Decimal {
	s := asString(v)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// asID parses a positive integer id. Fractional ids are truncated;
// anything else, including negative values and values past int64, is 0.
func asID(v any) int64 {
	s := asString(v)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() || d.GreaterThan(maxID) {
		return 0
	}
	return d.IntPart()
}

func asTime(v any) time.Time {
	s := asString(v)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.ParseInLocation(LegacyTimeLayout, s, time.Local); err == nil {
		return t
	}
	return time.Time{}
}

var maxID = decimal.NewFromInt(math.MaxInt64)

func idValue(id int64) json.Number { return json.Number(strconv.FormatInt(id, 10)) }

func decimalValue(d decimal.Decimal) json.Number { return json.Number(d.String()) }

func timeValue(t time.Time) string { return t.UTC().Format(time.RFC3339) }

// Legacy value mapping.

func normalizeParty(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", types.Warehouse, "bodega", "almacén", "almacen":
		return types.Warehouse
	}
	return strings.TrimSpace(s)
}

func normalizeKind(s string) types.SupplyKind {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ENTRY", "ENTRADA":
		return types.SupplyEntry
	case "EXIT", "SALIDA":
		return types.SupplyExit
	}
	return types.SupplyKind(strings.TrimSpace(s))
}

func normalizeAction(s string) types.ToolAction {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOAN", "PRÉSTAMO", "PRESTAMO":
		return types.ToolLoan
	case "RETURN", "DEVOLUCIÓN", "DEVOLUCION":
		return types.ToolReturn
	}
	return types.ToolAction(strings.TrimSpace(s))
}

// normalizeCondition maps the legacy labels to GOOD and BAD. Any other
// value is kept as written so saving the tools table does not lose it.
func normalizeCondition(s string) types.Condition {
	c, err := types.ParseCondition(s)
	if err != nil {
		return types.Condition(strings.TrimSpace(s))
	}
	return c
}

// normalizeDetail maps a legacy condition label in a return detail to its
// current name and leaves any other text alone.
func normalizeDetail(s string) string {
	if c, err := types.ParseCondition(s); err == nil {
		return string(c)
	}
	return strings.TrimSpace(s)
}

// Row decoders.

// DecodeOperator converts a stored row to an Operator.
func DecodeOperator(r types.Row) types.Operator {
	return types.Operator{
		Name: asString(r[ColOperatorName]),
		Type: asString(r[ColOperatorType]),
	}
}

// DecodeSupply converts a stored row to a Supply. Negative quantities are
// clamped to zero.
func DecodeSupply(r types.Row) types.Supply {
	qty := asDecimal(r[ColQuantity])
	if qty.IsNegative() {
		qty = decimal.Zero
	}
	return types.Supply{
		ID:          asID(r[ColID]),
		Name:        asString(r[ColSupplyName]),
		Description: asString(r[ColDescription]),
		Quantity:    qty,
		Unit:        asString(r[ColUnit]),
		Minimum:     asDecimal(r[ColMinimum]),
	}
}

// DecodeTool converts a stored row to a Tool. A blank custodian means the
// warehouse holds the tool.
func DecodeTool(r types.Row) types.Tool {
	return types.Tool{
		ID:          asID(r[ColID]),
		AssetTag:    asString(r[ColAssetTag]),
		Name:        asString(r[ColToolName]),
		Description: asString(r[ColDescription]),
		Brand:       asString(r[ColBrand]),
		Condition:   normalizeCondition(asString(r[ColCondition])),
		Custodian:   normalizeParty(asString(r[ColCustodian])),
	}
}

// DecodeSupplyMovement converts a stored ledger row to a SupplyMovement.
func DecodeSupplyMovement(r types.Row) types.SupplyMovement {
	kind := normalizeKind(asString(r[ColKind]))
	party := asString(r[ColCounterparty])
	if kind == types.SupplyEntry {
		party = normalizeParty(party)
	}
	return types.SupplyMovement{
		ID:           asString(r[ColMovementID]),
		Timestamp:    asTime(r[ColTimestamp]),
		SupplyID:     asID(r[ColSupplyID]),
		SupplyName:   asString(r[ColSupplyName]),
		Kind:         kind,
		Quantity:     asDecimal(r[ColQuantity]),
		Unit:         asString(r[ColUnit]),
		Counterparty: party,
	}
}

// DecodeToolMovement converts a stored ledger row to a ToolMovement.
func DecodeToolMovement(r types.Row) types.ToolMovement {
	action := normalizeAction(asString(r[ColAction]))
	party := asString(r[ColParty])
	detail := asString(r[ColDetail])
	if action == types.ToolReturn {
		party = normalizeParty(party)
		detail = normalizeDetail(detail)
	}
	return types.ToolMovement{
		ID:        asString(r[ColMovementID]),
		Timestamp: asTime(r[ColTimestamp]),
		ToolID:    asID(r[ColToolID]),
		ToolName:  asString(r[ColToolName]),
		Action:    action,
		Party:     party,
		Detail:    detail,
	}
}

// Row encoders.

func encodeOperator(o types.Operator) types.Row {
	return types.Row{ColOperatorName: o.Name, ColOperatorType: o.Type}
}

func encodeSupply(s types.Supply) types.Row {
	return types.Row{
		ColID:          idValue(s.ID),
		ColSupplyName:  s.Name,
		ColDescription: s.Description,
		ColQuantity:    decimalValue(s.Quantity),
		ColUnit:        s.Unit,
		ColMinimum:     decimalValue(s.Minimum),
	}
}

func encodeTool(t types.Tool) types.Row {
	return types.Row{
		ColID:          idValue(t.ID),
		ColAssetTag:    t.AssetTag,
		ColToolName:    t.Name,
		ColDescription: t.Description,
		ColBrand:       t.Brand,
		ColCondition:   string(t.Condition),
		ColCustodian:   t.Custodian,
	}
}

// EncodeSupplyMovement converts a movement to its stored row.
func EncodeSupplyMovement(m types.SupplyMovement) types.Row {
	return types.Row{
		ColMovementID:   m.ID,
		ColTimestamp:    timeValue(m.Timestamp),
		ColSupplyID:     idValue(m.SupplyID),
		ColSupplyName:   m.SupplyName,
		ColKind:         string(m.Kind),
		ColQuantity:     decimalValue(m.Quantity),
		ColUnit:         m.Unit,
		ColCounterparty: m.Counterparty,
	}
}

// EncodeToolMovement converts a movement to its stored row.
func EncodeToolMovement(m types.ToolMovement) types.Row {
	return types.Row{
		ColMovementID: m.ID,
		ColTimestamp:  timeValue(m.Timestamp),
		ColToolID:     idValue(m.ToolID),
		ColToolName:   m.ToolName,
		ColAction:     string(m.Action),
		ColParty:      m.Party,
		ColDetail:     m.Detail,
	}
}
