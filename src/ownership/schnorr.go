package ownership

import (
	"encoding/hex"

	"go.dedis.ch/kyber/v4"
	"go.dedis.ch/kyber/v4/group/edwards25519"
	"go.dedis.ch/kyber/v4/sign/schnorr"
	"go.dedis.ch/kyber/v4/util/key"
)

// suite is fixed for the lifetime of a chain; every address on it must
// come from the same group.
var suite = edwards25519.NewBlakeSHA256Ed25519()

// SchnorrVerifier checks Schnorr signatures over edwards25519. An
// address is the hex encoding of a marshaled public key point, so
// verification needs no key registry.
type SchnorrVerifier struct{}

func NewSchnorrVerifier() SchnorrVerifier {
	return SchnorrVerifier{}
}

func (SchnorrVerifier) VerifySignature(message []byte, address string, signature []byte) bool {
	raw, err := hex.DecodeString(address)
	if err != nil {
		return false
	}
	public := suite.Point()
	if err := public.UnmarshalBinary(raw); err != nil {
		return false
	}
	return schnorr.Verify(suite, public, message, signature) == nil
}

// KeyPair holds signing material for a wallet address. The ledger core
// never sees private keys; this exists for clients and tests that need
// to produce ownership proofs.
type KeyPair struct {
	Private kyber.Scalar
	Public  kyber.Point
}

func GenerateKeyPair() KeyPair {
	kp := key.NewKeyPair(suite)
	return KeyPair{Private: kp.Private, Public: kp.Public}
}

// Address derives the wallet address for the key pair's public point.
func (kp KeyPair) Address() (string, error) {
	raw, err := kp.Public.MarshalBinary()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// Sign produces the signature a claimant submits alongside a challenge.
func (kp KeyPair) Sign(message []byte) ([]byte, error) {
	return schnorr.Sign(suite, kp.Private, message)
}
