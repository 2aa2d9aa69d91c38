package types

import "strings"

// Condition is the state a tool was last reported in.
type Condition string

// Tool conditions. ConditionUnset is the zero value for tools that have
// never been returned.
const (
	ConditionUnset Condition = ""
	ConditionGood  Condition = "GOOD"
	ConditionBad   Condition = "BAD"
)

// ParseCondition maps a reported condition to a Condition. The Spanish
// labels BUENO and MALO are accepted as well. Returns ErrInvalidCondition
// for anything else, including the empty string.
func ParseCondition(s string) (Condition, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GOOD", "BUENO":
		return ConditionGood, nil
	case "BAD", "MALO":
		return ConditionBad, nil
	default:
		return ConditionUnset, ErrInvalidCondition
	}
}

// Tool is a durable asset tracked by custody. Custodian is Warehouse while
// the tool is available and an operator name while it is on loan; it is
// never empty.
type Tool struct {
	ID          int64     `json:"id"`
	AssetTag    string    `json:"asset_tag,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Brand       string    `json:"brand,omitempty"`
	Condition   Condition `json:"condition,omitempty"`
	Custodian   string    `json:"custodian"`
}

// Available reports whether the warehouse holds the tool.
func (t Tool) Available() bool {
	return t.Custodian == Warehouse
}

// Loan hands the tool to operator. Returns ErrAlreadyLoaned unless the
// warehouse currently holds it; the tool must be returned before it can be
// loaned again.
func (t *Tool) Loan(operator string) error {
	if !t.Available() {
		return ErrAlreadyLoaned
	}
	t.Custodian = operator
	return nil
}

// Return takes the tool back into the warehouse in the reported condition.
// Returns ErrInvalidCondition unless condition is GOOD or BAD, and
// ErrNotLoaned if the warehouse already holds the tool.
func (t *Tool) Return(condition Condition) error {
	if condition != ConditionGood && condition != ConditionBad {
		return ErrInvalidCondition
	}
	if t.Available() {
		return ErrNotLoaned
	}
	t.Custodian = Warehouse
	t.Condition = condition
	return nil
}
