// Package ledger implements an append-only, self-verifying chain of
// sealed blocks. Each block is bound to its predecessor by a digest,
// and writes are gated by an ownership proof: a claimant must sign a
// challenge with the key behind their wallet address before the chain
// accepts their payload.
package ledger

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/danmuck/dps_ledger/src/api"
)

// Chain is the owning container for sealed blocks. All mutation goes
// through Append under a single write lock; once a block is pushed it
// never changes, so readers only contend with an in-flight append.
type Chain struct {
	lock     sync.RWMutex
	blocks   []*Block
	byDigest map[string]uint64
	cfg      ChainConfig
}

// InitChain creates a chain and synchronously seals its origin block
// before returning; the chain never observably exists without one.
// Zero-valued config fields are filled from DefaultChainConfig.
func InitChain(cfg ChainConfig) *Chain {
	def := DefaultChainConfig()
	if cfg.Coder == nil {
		cfg.Coder = def.Coder
	}
	if cfg.Hash == nil {
		cfg.Hash = def.Hash
	}
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}
	if cfg.Verifier.Signatures == nil {
		cfg.Verifier = def.Verifier
	}
	if cfg.ChallengeWindow == 0 {
		cfg.ChallengeWindow = def.ChallengeWindow
	}

	c := &Chain{
		byDigest: make(map[string]uint64),
		cfg:      cfg,
	}

	genesis := sealBlock(cfg.Hash, 0, cfg.Clock(), nil, genesisPayload)
	c.blocks = append(c.blocks, genesis)
	c.byDigest[hex.EncodeToString(genesis.digest)] = 0

	return c
}

// InitDefaultChain creates a chain with the production wiring.
func InitDefaultChain() *Chain {
	return InitChain(DefaultChainConfig())
}

// Coder exposes the chain's payload codec so collaborators can decode
// block payloads with the same coder that produced them.
func (c *Chain) Coder() api.Coder {
	return c.cfg.Coder
}

// CurrentHeight returns the height of the tip block.
func (c *Chain) CurrentHeight() uint64 {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.blocks[len(c.blocks)-1].height
}

// Tip returns the most recently appended block.
func (c *Chain) Tip() *Block {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.blocks[len(c.blocks)-1]
}

// GetByHeight returns the block at height h, or false if h is beyond
// the tip.
func (c *Chain) GetByHeight(h uint64) (*Block, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	if h >= uint64(len(c.blocks)) {
		return nil, false
	}
	return c.blocks[h], true
}

// GetByDigest returns the block whose digest equals d, or false if no
// such block exists.
func (c *Chain) GetByDigest(d []byte) (*Block, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	h, ok := c.byDigest[hex.EncodeToString(d)]
	if !ok {
		return nil, false
	}
	return c.blocks[h], true
}

// Blocks returns a snapshot of the chain in ascending height order.
// The blocks themselves are sealed and safe to share.
func (c *Chain) Blocks() []*Block {
	c.lock.RLock()
	defer c.lock.RUnlock()

	out := make([]*Block, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// Append encodes data, seals a block against the current tip, and
// commits it. The whole chain is re-validated before the append
// becomes visible: on any finding the push is reverted and
// ErrChainIntegrity returned, so callers never observe a chain that
// contains an invalid block.
func (c *Chain) Append(data api.Record) (*Block, error) {
	payload, err := c.cfg.Coder.Encode(data)
	if err != nil {
		return nil, err
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	tip := c.blocks[len(c.blocks)-1]
	b := sealBlock(c.cfg.Hash, tip.height+1, c.cfg.Clock(), tip.digest, payload)

	c.blocks = append(c.blocks, b)
	if errs := c.validateLocked(); len(errs) > 0 {
		c.blocks = c.blocks[:len(c.blocks)-1]
		return nil, fmt.Errorf("%w: %v", ErrChainIntegrity, errs[0])
	}
	c.byDigest[hex.EncodeToString(b.digest)] = b.height

	return b, nil
}

// IssueChallenge builds a challenge for address using the chain's
// verifier and clock. The claimant signs it out of band and submits
// the signature through SubmitWithProof.
func (c *Chain) IssueChallenge(address string) string {
	return c.cfg.Verifier.IssueChallenge(address, c.cfg.Clock())
}

// SubmitWithProof verifies an ownership proof and, only on success,
// appends data tagged with the owner's address. Verification is
// side-effect-free and strictly prior to any chain mutation: a failed
// proof never constructs a block.
func (c *Chain) SubmitWithProof(address, challenge string, signature []byte, data api.Record) (*Block, error) {
	now := c.cfg.Clock()
	if err := c.cfg.Verifier.Verify(challenge, address, signature, now, c.cfg.ChallengeWindow); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOwnershipRejected, err)
	}

	tagged := make(api.Record, len(data)+1)
	for k, v := range data {
		tagged[k] = v
	}
	tagged[api.OwnerField] = address

	return c.Append(tagged)
}

// Validate audits the whole chain and returns its findings as data;
// an empty result means the chain is intact. The audit never mutates
// state and works even on an already-inconsistent chain. The origin
// block is checked for tampering but is exempt from the link check.
func (c *Chain) Validate() []ValidationError {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.validateLocked()
}

// validateLocked is Validate without locking, for use inside Append's
// write-locked commit step.
func (c *Chain) validateLocked() []ValidationError {
	var errs []ValidationError
	for i, b := range c.blocks {
		if !b.CheckIntegrity(c.cfg.Hash) {
			errs = append(errs, ValidationError{Height: b.height, Kind: TamperedBlock})
		}
		if i == 0 {
			continue
		}
		if !bytes.Equal(b.prevDigest, c.blocks[i-1].digest) {
			errs = append(errs, ValidationError{Height: b.height, Kind: BrokenLink})
		}
	}
	return errs
}

// OwnedRecord is one decoded payload returned by CollectByOwner.
type OwnedRecord struct {
	Height uint64     `json:"height"`
	Owner  string     `json:"owner"`
	Data   api.Record `json:"data"`
}

// CollectByOwner decodes every non-origin block and returns, in
// ascending height order, the records whose owner field equals owner.
// Blocks that fail to decode are reported per height alongside the
// results rather than silently dropped.
func (c *Chain) CollectByOwner(owner string) ([]OwnedRecord, []PayloadError) {
	blocks := c.Blocks()

	var records []OwnedRecord
	var failures []PayloadError
	for _, b := range blocks[1:] {
		rec, err := b.DecodedPayload(c.cfg.Coder)
		if err != nil {
			failures = append(failures, PayloadError{Height: b.height, Err: err})
			continue
		}
		if tag, ok := rec[api.OwnerField].(string); ok && tag == owner {
			records = append(records, OwnedRecord{Height: b.height, Owner: owner, Data: rec})
		}
	}
	return records, failures
}
