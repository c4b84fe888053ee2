package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sort"
	"strconv"
	"sync"

	"github.com/betamos/zeroconf"
	"github.com/sirupsen/logrus"
)

// ServiceType is the mDNS service relays publish.
const ServiceType = "_onyxnet._tcp"

// ErrNoRelay is returned by First when nothing answered before the deadline.
var ErrNoRelay = errors.New("no relay found on the local network")

// Relay is one advertised relay. Addr is its TCP listener as host:port.
type Relay struct {
	Name string
	Addr string
}

// Advertiser publishes a relay until closed.
type Advertiser struct {
	client *zeroconf.Client
}

// Advertise publishes name on port under ServiceType.
func Advertise(name string, port int) (*Advertiser, error) {
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("advertise port %d out of range", port)
	}
	svc := zeroconf.NewService(zeroconf.NewType(ServiceType), name, uint16(port))
	client, err := zeroconf.New().Publish(svc).Open()
	if err != nil {
		return nil, fmt.Errorf("zeroconf publish: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"function": "Advertise",
		"name":     name,
		"port":     port,
	}).Info("Advertising relay over mDNS")
	return &Advertiser{client: client}, nil
}

// Close withdraws the advertisement.
func (a *Advertiser) Close() error {
	if a == nil || a.client == nil {
		return nil
	}
	return a.client.Close()
}

// Browse collects relays until ctx is done. Results are sorted by name; a
// relay that withdrew its advertisement before ctx ended is left out.
func Browse(ctx context.Context) ([]Relay, error) {
	set := newRelaySet()
	client, err := zeroconf.New().
		Browse(func(e zeroconf.Event) {
			set.apply(e.Op, e.Name, e.Port, e.Addrs)
		}, zeroconf.NewType(ServiceType)).
		Open()
	if err != nil {
		return nil, fmt.Errorf("zeroconf browse: %w", err)
	}

	<-ctx.Done()
	_ = client.Close()
	return set.list(), nil
}

// First returns a relay that is advertised when it answers, or ErrNoRelay
// once ctx is done.
func First(ctx context.Context) (Relay, error) {
	set := newRelaySet()
	hit := make(chan struct{}, 1)
	client, err := zeroconf.New().
		Browse(func(e zeroconf.Event) {
			if _, ok := set.apply(e.Op, e.Name, e.Port, e.Addrs); ok {
				select {
				case hit <- struct{}{}:
				default:
				}
			}
		}, zeroconf.NewType(ServiceType)).
		Open()
	if err != nil {
		return Relay{}, fmt.Errorf("zeroconf browse: %w", err)
	}
	defer client.Close()

	for {
		select {
		case <-hit:
			if relays := set.list(); len(relays) > 0 {
				return relays[0], nil
			}
		case <-ctx.Done():
			return Relay{}, ErrNoRelay
		}
	}
}

// relaySet tracks the relays currently advertised, keyed by service name.
type relaySet struct {
	mu     sync.Mutex
	relays map[string]Relay
}

func newRelaySet() *relaySet {
	return &relaySet{relays: make(map[string]Relay)}
}

// apply folds one browse event into the set. It returns the relay when the
// event leaves it advertised with a usable address.
func (s *relaySet) apply(op zeroconf.Op, name string, port uint16, addrs []netip.Addr) (Relay, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if op == zeroconf.OpRemoved {
		delete(s.relays, name)
		return Relay{}, false
	}
	r, ok := relayFrom(name, port, addrs)
	if !ok {
		return Relay{}, false
	}
	s.relays[name] = r
	return r, true
}

func (s *relaySet) list() []Relay {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Relay, 0, len(s.relays))
	for _, r := range s.relays {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// relayFrom picks an address for a browse result, preferring IPv4.
func relayFrom(name string, port uint16, addrs []netip.Addr) (Relay, bool) {
	if port == 0 {
		return Relay{}, false
	}
	var pick netip.Addr
	for _, a := range addrs {
		if !a.IsValid() {
			continue
		}
		if a.Is4() || a.Is4In6() {
			pick = a.Unmap()
			break
		}
		if !pick.IsValid() {
			pick = a
		}
	}
	if !pick.IsValid() {
		return Relay{}, false
	}
	return Relay{
		Name: name,
		Addr: net.JoinHostPort(pick.String(), strconv.Itoa(int(port))),
	}, true
}
