package ledger

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/danmuck/dps_ledger/src/api"
)

// ErrGenesisNoData is reported when the origin block's payload is
// requested as application data. The origin carries only a fixed
// sentinel marking the start of the chain.
var ErrGenesisNoData = errors.New("origin block carries no application data")

// genesisPayload is the sentinel stored in the origin block. It is raw
// bytes, not codec output, so it can never be confused with a record.
var genesisPayload = []byte("dps-ledger origin block")

// Block is a sealed unit of the chain. Every field is set exactly once
// when the chain seals the block; nothing outside this package can
// mutate one afterwards.
type Block struct {
	height     uint64
	timestamp  int64 // unix seconds, stamped at seal time
	prevDigest []byte
	payload    []byte
	digest     []byte
}

// sealBlock computes the digest and returns the finished block. There
// is no observable half-sealed state: the block does not escape until
// its digest is set.
func sealBlock(hash api.HashFunc, height uint64, timestamp int64, prevDigest, payload []byte) *Block {
	b := &Block{
		height:     height,
		timestamp:  timestamp,
		prevDigest: bytes.Clone(prevDigest),
		payload:    bytes.Clone(payload),
	}
	b.digest = hash(b.sealedBytes())
	return b
}

// sealedBytes is the digest preimage. The field order is fixed so
// independent implementations interoperate:
//
//	height (8 bytes big-endian) || timestamp (8 bytes big-endian) ||
//	previous digest || payload
//
// The origin block contributes no previous-digest bytes.
func (b *Block) sealedBytes() []byte {
	buf := make([]byte, 16, 16+len(b.prevDigest)+len(b.payload))
	binary.BigEndian.PutUint64(buf[0:8], b.height)
	binary.BigEndian.PutUint64(buf[8:16], uint64(b.timestamp))
	buf = append(buf, b.prevDigest...)
	buf = append(buf, b.payload...)
	return buf
}

// CheckIntegrity rehashes the block's sealed fields and compares the
// result to the stored digest. This is the sole tamper-detection
// primitive; it does not consult the chain or the predecessor.
func (b *Block) CheckIntegrity(hash api.HashFunc) bool {
	return bytes.Equal(hash(b.sealedBytes()), b.digest)
}

// DecodedPayload returns the structured record stored in the block.
// The origin block fails with ErrGenesisNoData; other blocks propagate
// whatever the coder reports.
func (b *Block) DecodedPayload(coder api.Coder) (api.Record, error) {
	if b.height == 0 {
		return nil, ErrGenesisNoData
	}
	return coder.Decode(b.payload)
}

func (b *Block) Height() uint64 {
	return b.height
}

func (b *Block) Timestamp() int64 {
	return b.timestamp
}

// PrevDigest returns a copy of the predecessor's digest, nil for the
// origin block.
func (b *Block) PrevDigest() []byte {
	return bytes.Clone(b.prevDigest)
}

// Digest returns a copy of the block's own digest.
func (b *Block) Digest() []byte {
	return bytes.Clone(b.digest)
}

// Payload returns a copy of the encoded payload bytes.
func (b *Block) Payload() []byte {
	return bytes.Clone(b.payload)
}
