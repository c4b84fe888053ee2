package broadcast

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	name string
	kind Kind
	fail error

	mu     sync.Mutex
	got    [][]byte
	closed atomic.Int32
}

func newFake(name string) *fakeHandle { return &fakeHandle{name: name, kind: KindStream} }

func (f *fakeHandle) Kind() Kind { return f.kind }

func (f *fakeHandle) Send(data []byte) error {
	if f.fail != nil {
		return f.fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, append([]byte(nil), data...))
	return nil
}

func (f *fakeHandle) Close() error {
	f.closed.Add(1)
	return nil
}

func (f *fakeHandle) RemoteAddr() string { return f.name }

func (f *fakeHandle) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.got...)
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestBroadcastExcludesOrigin(t *testing.T) {
	r := NewRegistry(quietLogger(), nil)
	a, b, c := newFake("a"), newFake("b"), newFake("c")
	r.Register(a)
	r.Register(b)
	r.Register(c)

	n := r.Broadcast([]byte("hello\n"), a)

	assert.Equal(t, 2, n)
	assert.Empty(t, a.received())
	assert.Equal(t, [][]byte{[]byte("hello\n")}, b.received())
	assert.Equal(t, [][]byte{[]byte("hello\n")}, c.received())
}

func TestBroadcastNilExcludeReachesEveryone(t *testing.T) {
	r := NewRegistry(quietLogger(), nil)
	a, b := newFake("a"), newFake("b")
	r.Register(a)
	r.Register(b)

	assert.Equal(t, 2, r.Broadcast([]byte("x\n"), nil))
	assert.Len(t, a.received(), 1)
	assert.Len(t, b.received(), 1)
}

func TestBroadcastEmptyRegistry(t *testing.T) {
	r := NewRegistry(quietLogger(), nil)
	assert.Zero(t, r.Broadcast([]byte("x\n"), nil))
}

func TestBroadcastDropsFailedHandle(t *testing.T) {
	r := NewRegistry(quietLogger(), nil)
	good, bad, origin := newFake("good"), newFake("bad"), newFake("origin")
	bad.fail = errors.New("broken pipe")
	r.Register(good)
	r.Register(bad)
	r.Register(origin)

	n := r.Broadcast([]byte("one\n"), origin)

	assert.Equal(t, 1, n)
	assert.Equal(t, 2, r.Len())
	assert.EqualValues(t, 1, bad.closed.Load())
	assert.Zero(t, good.closed.Load())

	r.Broadcast([]byte("two\n"), origin)
	assert.Len(t, good.received(), 2)
}

func TestUnregister(t *testing.T) {
	r := NewRegistry(quietLogger(), nil)
	a := newFake("a")
	r.Register(a)
	r.Register(a)
	assert.Equal(t, 1, r.Len())

	assert.True(t, r.Unregister(a))
	assert.False(t, r.Unregister(a))
	assert.Zero(t, r.Len())
}

func TestRegistryChurn(t *testing.T) {
	r := NewRegistry(quietLogger(), nil)
	stable := newFake("stable")
	r.Register(stable)

	const workers = 8
	const rounds = 200
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(2)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				h := newFake(fmt.Sprintf("churn-%d-%d", w, i))
				r.Register(h)
				r.Unregister(h)
			}
		}(w)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				r.Broadcast([]byte("tick\n"), nil)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, r.Len())
	assert.Len(t, stable.received(), workers*rounds)
}

func TestCloseAll(t *testing.T) {
	r := NewRegistry(quietLogger(), nil)
	handles := []*fakeHandle{newFake("a"), newFake("b"), newFake("c")}
	for _, h := range handles {
		r.Register(h)
	}

	r.CloseAll()

	assert.Zero(t, r.Len())
	for _, h := range handles {
		assert.EqualValues(t, 1, h.closed.Load(), h.name)
	}
}

func TestRegistryMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(quietLogger(), NewMetrics(reg))

	a, b := newFake("a"), newFake("b")
	b.kind = KindFramed
	bad := newFake("bad")
	bad.fail = errors.New("gone")
	r.Register(a)
	r.Register(b)
	r.Register(bad)

	r.Broadcast([]byte("hi\n"), a)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			label := ""
			for _, lp := range m.GetLabel() {
				label = lp.GetValue()
			}
			key := mf.GetName() + "/" + label
			switch {
			case m.GetGauge() != nil:
				values[key] = m.GetGauge().GetValue()
			case m.GetCounter() != nil:
				values[key] = m.GetCounter().GetValue()
			}
		}
	}

	assert.Equal(t, 1.0, values["onyxnet_relay_clients/tcp"])
	assert.Equal(t, 1.0, values["onyxnet_relay_clients/ws"])
	assert.Equal(t, 1.0, values["onyxnet_relay_deliveries_total/ws"])
	assert.Equal(t, 3.0, values["onyxnet_relay_delivered_bytes_total/ws"])
	assert.Equal(t, 1.0, values["onyxnet_relay_delivery_failures_total/tcp"])
}
