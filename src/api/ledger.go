package api

// Record is the structured application payload stored inside a block.
// Values live in the codec's canonical domain: strings, bools, float64
// numbers, nested maps and lists.
type Record map[string]any

// OwnerField is the Record key that carries the submitting wallet address.
// It is stamped by the chain during a proof-gated submission.
const OwnerField = "owner"

// Coder turns a Record into canonical bytes and back.
// Encode must be deterministic: the same logical value always
// yields the same bytes. Decode must reject bytes that are not
// valid output of Encode.
type Coder interface {
	Encode(Record) ([]byte, error)
	Decode([]byte) (Record, error)
}

// SignatureVerifier checks that the holder of address's private key
// signed message. Implementations must return false rather than
// panic on malformed address or signature bytes.
type SignatureVerifier interface {
	VerifySignature(message []byte, address string, signature []byte) bool
}

// HashFunc produces a fixed-width digest of its input. The same
// function must be used on the seal and integrity-check paths.
type HashFunc func([]byte) []byte

// Clock reports the current time as Unix seconds. The core never
// reads a wall clock directly; a Clock is injected everywhere time
// is observed so components stay deterministic under test.
type Clock func() int64
