package types

// Warehouse is the custodian of every tool that is not on loan, and the
// counterparty of every supply entry.
const Warehouse = "warehouse"

// Operator is a person who can receive supplies or borrow tools.
// Identity is Name.
type Operator struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}
