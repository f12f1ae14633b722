package ledger

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
)

// ComputeShaHash computes and returns the digest of obj.
//
// size: [20, 32, 64] size of hash in bytes
//
// note: defaults to 32 bytes for SHA-256
func ComputeShaHash(obj []byte, size int) []byte {
	switch size {
	case sha1.Size:
		sum := sha1.Sum(obj)
		return sum[:]
	case sha256.Size:
		sum := sha256.Sum256(obj)
		return sum[:]
	case sha512.Size:
		sum := sha512.Sum512(obj)
		return sum[:]
	default:
		sum := sha256.Sum256(obj)
		return sum[:]
	}
}

// DefaultHash is the chain's default digest function, SHA-256. Seal and
// integrity-check paths must always use the same HashFunc.
func DefaultHash(obj []byte) []byte {
	return ComputeShaHash(obj, sha256.Size)
}
