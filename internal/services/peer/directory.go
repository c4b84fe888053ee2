package peer

import (
	"crypto/rsa"
	"sort"
	"sync"
	"time"

	"onyxnet/internal/crypto"
	"onyxnet/internal/domain"
)

// Directory maps peer ids to the keys learned from their handshakes.
// It is safe for concurrent use.
type Directory struct {
	mu    sync.RWMutex
	peers map[domain.PeerID]domain.PeerRecord
	now   func() time.Time
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		peers: make(map[domain.PeerID]domain.PeerRecord),
		now:   time.Now,
	}
}

// Learn records id's key unless id is already known. The PEM is only parsed
// for new ids; a parse failure leaves the directory untouched.
func (d *Directory) Learn(id domain.PeerID, publicKeyPEM string) (domain.PeerRecord, bool, error) {
	d.mu.RLock()
	rec, known := d.peers[id]
	d.mu.RUnlock()
	if known {
		return rec, false, nil
	}

	pub, err := crypto.ParsePublicKeyPEM(publicKeyPEM)
	if err != nil {
		return domain.PeerRecord{}, false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	// Another goroutine may have won the race since the read lock.
	if rec, known := d.peers[id]; known {
		return rec, false, nil
	}
	rec = domain.PeerRecord{
		ID:           id,
		PublicKey:    pub,
		PublicKeyPEM: publicKeyPEM,
		Fingerprint:  crypto.Fingerprint(pub),
		LearnedAt:    d.now(),
	}
	d.peers[id] = rec
	return rec, true, nil
}

// Recipients returns a snapshot of every known key, suitable for crypto.Seal.
func (d *Directory) Recipients() map[domain.PeerID]*rsa.PublicKey {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[domain.PeerID]*rsa.PublicKey, len(d.peers))
	for id, rec := range d.peers {
		out[id] = rec.PublicKey
	}
	return out
}

// Peers returns all records ordered by the time they were learned.
func (d *Directory) Peers() []domain.PeerRecord {
	d.mu.RLock()
	out := make([]domain.PeerRecord, 0, len(d.peers))
	for _, rec := range d.peers {
		out = append(out, rec)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].LearnedAt.Equal(out[j].LearnedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].LearnedAt.Before(out[j].LearnedAt)
	})
	return out
}

// Len returns the number of known peers.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.peers)
}

// Compile-time assertion that Directory implements domain.PeerDirectory.
var _ domain.PeerDirectory = (*Directory)(nil)
