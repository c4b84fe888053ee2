package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"onyxnet/internal/crypto"
	"onyxnet/internal/discovery"
	"onyxnet/internal/domain"
	"onyxnet/internal/relay"
	identitysvc "onyxnet/internal/services/identity"
	messagesvc "onyxnet/internal/services/message"
	"onyxnet/internal/services/peer"
	sessionsvc "onyxnet/internal/services/session"
	"onyxnet/internal/store"
)

// Wire bundles the participant's services and its live relay session.
type Wire struct {
	Identity  domain.Identity
	Directory *peer.Directory
	Messages  domain.MessageService
	Conn      domain.RelayConn
	Session   *sessionsvc.Session
	RelayAddr string
}

// NewIdentityService builds the identity service, file-backed when cfg names
// a key file.
func NewIdentityService(cfg Config) *identitysvc.Service {
	if cfg.KeyFile == "" {
		return identitysvc.New(nil)
	}
	return identitysvc.New(store.NewKeyFileStore(cfg.KeyFile))
}

// ResolveRelay returns cfg.RelayAddr, or the first relay found over mDNS when
// it is AutoRelay.
func ResolveRelay(ctx context.Context, cfg Config) (string, error) {
	if cfg.RelayAddr != AutoRelay {
		return cfg.RelayAddr, nil
	}
	timeout := cfg.DiscoveryTimeout
	if timeout <= 0 {
		timeout = defaultDiscoveryTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r, err := discovery.First(ctx)
	if err != nil {
		return "", err
	}
	logrus.WithFields(logrus.Fields{
		"function": "ResolveRelay",
		"name":     r.Name,
		"addr":     r.Addr,
	}).Info("Found relay")
	return r.Addr, nil
}

// NewWire creates the identity, connects to the relay and builds a session
// that reports to sink. The caller runs w.Session.Run.
func NewWire(ctx context.Context, cfg Config, sink domain.Sink) (*Wire, error) {
	self, err := NewIdentityService(cfg).NewIdentity(cfg.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}

	addr, err := ResolveRelay(ctx, cfg)
	if err != nil {
		return nil, err
	}
	conn, err := relay.Dial(ctx, cfg.Transport, addr, cfg.Relay)
	if err != nil {
		return nil, err
	}

	directory := peer.NewDirectory()
	messages := messagesvc.New(self.ID, crypto.NewEngine(self), directory)
	session, err := sessionsvc.New(self, directory, messages, conn, sink, logrus.StandardLogger())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &Wire{
		Identity:  self,
		Directory: directory,
		Messages:  messages,
		Conn:      conn,
		Session:   session,
		RelayAddr: addr,
	}, nil
}
