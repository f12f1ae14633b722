package ownership

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/danmuck/dps_ledger/src/api"
)

const (
	// DefaultDomainTag is embedded in every challenge so a signature over
	// a challenge cannot be replayed against an unrelated protocol.
	DefaultDomainTag = "dps-ledger-ownership-v1"

	// DefaultChallengeWindow is how long a challenge stays valid, in
	// seconds, measured from its embedded issue time.
	DefaultChallengeWindow = 300
)

var (
	ErrMalformedChallenge = errors.New("malformed ownership challenge")
	ErrChallengeExpired   = errors.New("ownership challenge expired")
	ErrInvalidSignature   = errors.New("invalid ownership signature")
)

// Verifier issues and checks ownership challenges. It is stateless and
// never touches chain state; signature checking is delegated to the
// injected capability.
type Verifier struct {
	Signatures api.SignatureVerifier
	DomainTag  string
}

func NewVerifier(signatures api.SignatureVerifier) Verifier {
	return Verifier{
		Signatures: signatures,
		DomainTag:  DefaultDomainTag,
	}
}

// IssueChallenge builds the exact string a claimant must sign to prove
// control of address. The format "{address}:{now}:{domainTag}" is fixed;
// signer and verifier must agree on it byte for byte.
func (v Verifier) IssueChallenge(address string, now int64) string {
	return fmt.Sprintf("%s:%d:%s", address, now, v.DomainTag)
}

// Verify checks a signed challenge against the claimed address. window
// is the validity period in seconds from the challenge's embedded issue
// time; window <= 0 disables the expiry check. Pure function of its
// inputs, no side effects.
func (v Verifier) Verify(challenge, address string, signature []byte, now, window int64) error {
	parts := strings.Split(challenge, ":")
	if len(parts) != 3 {
		return fmt.Errorf("%w: want address:timestamp:tag, got %d fields", ErrMalformedChallenge, len(parts))
	}
	if parts[0] != address {
		return fmt.Errorf("%w: challenge bound to a different address", ErrMalformedChallenge)
	}
	issued, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: unparseable issue time %q", ErrMalformedChallenge, parts[1])
	}
	if parts[2] != v.DomainTag {
		return fmt.Errorf("%w: unknown domain tag %q", ErrMalformedChallenge, parts[2])
	}

	if window > 0 {
		if elapsed := now - issued; elapsed > window {
			return fmt.Errorf("%w: issued %ds ago, window is %ds", ErrChallengeExpired, elapsed, window)
		}
	}

	if !v.Signatures.VerifySignature([]byte(challenge), address, signature) {
		return ErrInvalidSignature
	}
	return nil
}
