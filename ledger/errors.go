package ledger

import "errors"

var (
	// ErrEmptyChain is returned when the tip of a chain with zero blocks
	// is queried. Unreachable while the genesis invariant holds, but
	// guarded rather than crashed on.
	ErrEmptyChain = errors.New("ledger: empty chain")

	// ErrMalformedRecord is returned when a block record is missing a
	// required key or carries a wrongly typed value.
	ErrMalformedRecord = errors.New("ledger: malformed block record")
)
