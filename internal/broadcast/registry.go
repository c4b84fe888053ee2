package broadcast

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Registry is the live set of connected handles and the fan-out over them.
// It is safe for concurrent use; Broadcast works on a snapshot, so handles may
// come and go while a broadcast is in flight.
type Registry struct {
	mu      sync.Mutex
	clients map[Handle]struct{}

	log     logrus.FieldLogger
	metrics *Metrics
}

// NewRegistry returns an empty registry. log and metrics may be nil.
func NewRegistry(log logrus.FieldLogger, metrics *Metrics) *Registry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Registry{
		clients: make(map[Handle]struct{}),
		log:     log,
		metrics: metrics,
	}
}

// Register adds h. Registering a handle twice is a no-op.
func (r *Registry) Register(h Handle) {
	r.mu.Lock()
	_, dup := r.clients[h]
	r.clients[h] = struct{}{}
	r.mu.Unlock()

	if !dup {
		r.metrics.clientConnected(h.Kind())
	}
}

// Unregister removes h and reports whether it was registered.
func (r *Registry) Unregister(h Handle) bool {
	r.mu.Lock()
	_, ok := r.clients[h]
	delete(r.clients, h)
	r.mu.Unlock()

	if ok {
		r.metrics.clientDisconnected(h.Kind())
	}
	return ok
}

// Len returns the number of registered handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Broadcast sends data to every registered handle except exclude (which may
// be nil) and returns how many sends succeeded. Sends run concurrently and
// Broadcast returns once all of them finished. A handle whose send fails is
// unregistered and closed; the others are unaffected.
func (r *Registry) Broadcast(data []byte, exclude Handle) int {
	targets := r.snapshot(exclude)
	if len(targets) == 0 {
		return 0
	}
	if len(targets) == 1 {
		if r.deliver(targets[0], data) {
			return 1
		}
		return 0
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		delivered int
	)
	for _, h := range targets {
		wg.Add(1)
		go func(h Handle) {
			defer wg.Done()
			if r.deliver(h, data) {
				mu.Lock()
				delivered++
				mu.Unlock()
			}
		}(h)
	}
	wg.Wait()
	return delivered
}

// CloseAll unregisters and closes every handle. Closes run concurrently and
// each is bounded by the handle's own close deadline.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	handles := make([]Handle, 0, len(r.clients))
	for h := range r.clients {
		handles = append(handles, h)
	}
	r.clients = make(map[Handle]struct{})
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, h := range handles {
		r.metrics.clientDisconnected(h.Kind())
		wg.Add(1)
		go func(h Handle) {
			defer wg.Done()
			_ = h.Close()
		}(h)
	}
	wg.Wait()
}

func (r *Registry) snapshot(exclude Handle) []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Handle, 0, len(r.clients))
	for h := range r.clients {
		if h == exclude {
			continue
		}
		out = append(out, h)
	}
	return out
}

func (r *Registry) deliver(h Handle, data []byte) bool {
	if err := h.Send(data); err != nil {
		r.metrics.deliveryFailed(h.Kind())
		r.log.WithFields(logrus.Fields{
			"function":  "Broadcast",
			"remote":    h.RemoteAddr(),
			"transport": h.Kind(),
			"error":     err.Error(),
		}).Warn("Send failed, dropping client")
		r.Unregister(h)
		_ = h.Close()
		return false
	}
	r.metrics.delivered(h.Kind(), len(data))
	return true
}
