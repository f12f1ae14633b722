package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrChainIntegrity means an append would have left the ledger in an
	// inconsistent state. The mutation is reverted before it becomes
	// visible; seeing this error indicates a defect, not bad input.
	ErrChainIntegrity = errors.New("chain integrity violation")

	// ErrOwnershipRejected wraps the verifier error that stopped a
	// proof-gated submission. No block is constructed or appended when
	// this is returned.
	ErrOwnershipRejected = errors.New("ownership verification failed")
)

// ViolationKind names the two ways a block can fail a chain audit.
type ViolationKind string

const (
	// TamperedBlock: the block's stored digest no longer matches a
	// recomputation over its sealed fields.
	TamperedBlock ViolationKind = "tampered block"

	// BrokenLink: the block's recorded predecessor digest does not match
	// the actual predecessor's digest.
	BrokenLink ViolationKind = "broken link"
)

// ValidationError describes a single integrity problem found during a
// chain audit.
type ValidationError struct {
	Height uint64
	Kind   ViolationKind
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("block %d: %s", e.Height, e.Kind)
}

// PayloadError reports a block whose payload could not be decoded
// during an owner query. Results for other blocks are still returned.
type PayloadError struct {
	Height uint64
	Err    error
}

func (e PayloadError) Error() string {
	return fmt.Sprintf("block %d payload: %v", e.Height, e.Err)
}

func (e PayloadError) Unwrap() error {
	return e.Err
}
