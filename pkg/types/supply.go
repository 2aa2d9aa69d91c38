package types

import "github.com/shopspring/decimal"

// Supply is a consumable tracked by on-hand quantity. ID is assigned once
// when the supply is created and never reused.
type Supply struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit,omitempty"`
	Minimum     decimal.Decimal `json:"minimum_threshold"`
}

// Withdraw removes qty from the on-hand quantity. Returns
// ErrInvalidQuantity if qty is not positive and ErrInsufficientStock if
// the supply holds less than qty. The quantity is unchanged on error;
// there is no partial fulfillment.
func (s *Supply) Withdraw(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return ErrInvalidQuantity
	}
	if s.Quantity.LessThan(qty) {
		return ErrInsufficientStock
	}
	s.Quantity = s.Quantity.Sub(qty)
	return nil
}

// Receive adds qty to the on-hand quantity. There is no upper bound.
// Returns ErrInvalidQuantity if qty is not positive.
func (s *Supply) Receive(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return ErrInvalidQuantity
	}
	s.Quantity = s.Quantity.Add(qty)
	return nil
}

// IsLow reports whether the quantity is below the minimum threshold.
func (s Supply) IsLow() bool {
	return s.Quantity.LessThan(s.Minimum)
}
