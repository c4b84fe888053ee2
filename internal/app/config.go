package app

import (
	"os"
	"path/filepath"
	"time"

	"onyxnet/internal/relay"
)

const (
	// AutoRelay as the relay address means "find one over mDNS".
	AutoRelay        = "auto"
	DefaultRelayAddr = "127.0.0.1:8888"

	defaultDiscoveryTimeout = 3 * time.Second
)

// Config holds runtime wiring options for a participant.
type Config struct {
	RelayAddr string          // TCP listener of the relay, or AutoRelay
	Transport relay.Transport // tcp or ws; ws dials RelayAddr's port + 1
	Relay     relay.Options

	// KeyFile holds a passphrase-protected keypair. Empty means a fresh
	// keypair for this process only.
	KeyFile    string
	Passphrase string

	DiscoveryTimeout time.Duration
}

// DefaultConfig returns the participant defaults.
func DefaultConfig() Config {
	return Config{
		RelayAddr:        DefaultRelayAddr,
		Transport:        relay.TransportStream,
		DiscoveryTimeout: defaultDiscoveryTimeout,
	}
}

// DefaultKeyFile is where keygen and fingerprint look when no key file is
// given: $HOME/.onyxnet/identity.key.
func DefaultKeyFile() (string, error) {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".onyxnet", "identity.key"), nil
}
