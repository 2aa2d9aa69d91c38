// Package types defines the entity types, the Ledger Store contract, and the
// standard errors shared by every layer of bodega.
//
// Supplies are consumables tracked by on-hand quantity. Tools are durable
// assets tracked by custody: either the warehouse holds them or a named
// operator does. Every change to either is recorded as an immutable movement.
package types
