package ledger

import (
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/dps_ledger/src/api"
	"github.com/danmuck/dps_ledger/src/codec"
	"github.com/danmuck/dps_ledger/src/ownership"
)

// ChainConfig carries the injected capabilities of a chain. Zero
// fields are filled from DefaultChainConfig at init time.
type ChainConfig struct {
	Coder    api.Coder
	Hash     api.HashFunc
	Clock    api.Clock
	Verifier ownership.Verifier

	// ChallengeWindow is the challenge validity period in seconds.
	// Zero means the default window; a negative value disables expiry
	// checking, which is an explicit opt-out and never the default.
	ChallengeWindow int64
}

// DefaultChainConfig returns the production wiring: deterministic
// protobuf payload encoding, SHA-256 digests, the wall clock, and
// Schnorr ownership proofs with a 300 second challenge window.
func DefaultChainConfig() ChainConfig {
	return ChainConfig{
		Coder:           codec.NewStructCoder(),
		Hash:            DefaultHash,
		Clock:           func() int64 { return time.Now().Unix() },
		Verifier:        ownership.NewVerifier(ownership.NewSchnorrVerifier()),
		ChallengeWindow: ownership.DefaultChallengeWindow,
	}
}

// Settings is the file-backed portion of the runtime configuration,
// shared by the binaries that host a chain.
type Settings struct {
	ListenAddr      string `toml:"listen_addr"`
	DomainTag       string `toml:"domain_tag"`
	ChallengeWindow int64  `toml:"challenge_window_seconds"`
}

// DefaultSettings returns the settings used when no file is present.
func DefaultSettings() Settings {
	return Settings{
		ListenAddr:      "localhost:8080",
		DomainTag:       ownership.DefaultDomainTag,
		ChallengeWindow: ownership.DefaultChallengeWindow,
	}
}

// SettingsFromFile loads Settings from a TOML file, filling omitted
// fields with defaults.
func SettingsFromFile(path string) (Settings, error) {
	s := DefaultSettings()
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// ChainConfig builds the capability wiring described by the settings.
func (s Settings) ChainConfig() ChainConfig {
	cfg := DefaultChainConfig()
	if s.DomainTag != "" {
		cfg.Verifier.DomainTag = s.DomainTag
	}
	if s.ChallengeWindow != 0 {
		cfg.ChallengeWindow = s.ChallengeWindow
	}
	return cfg
}
