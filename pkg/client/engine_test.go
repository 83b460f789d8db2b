package client

import (
	"context"
	"testing"
	"time"

	"github.com/sambigeara/enginectl/internal/testutil/memtransport"
	"github.com/sambigeara/enginectl/pkg/store"
	"github.com/sambigeara/enginectl/pkg/transport"
	"github.com/sambigeara/enginectl/pkg/wire"
	"github.com/stretchr/testify/require"
)

const (
	engineTCP = "127.0.0.1:22752"
	engineUDP = "127.0.0.1:22753"

	engineReliableURL = "osc.tcp://" + engineTCP + "/Carla"
	engineLossyURL    = "osc.udp://" + engineUDP + "/Carla"

	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// fakeEngine plays the remote side of both channels on a memtransport
// network.
type fakeEngine struct {
	t         *testing.T
	tcp       transport.Endpoint
	udp       transport.Endpoint
	clientTCP string
	clientUDP string
}

func newFakeEngine(t *testing.T, n *memtransport.Network) *fakeEngine {
	t.Helper()
	tcp, err := n.Bind(transport.NetworkTCP, engineTCP)
	require.NoError(t, err)
	udp, err := n.Bind(transport.NetworkUDP, engineUDP)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = tcp.Close()
		_ = udp.Close()
	})
	return &fakeEngine{t: t, tcp: tcp, udp: udp}
}

func (e *fakeEngine) next(ep transport.Endpoint) wire.Message {
	e.t.Helper()
	select {
	case pkt, ok := <-ep.Packets():
		require.True(e.t, ok, "engine endpoint closed")
		msgs, err := wire.Decode(pkt.Payload)
		require.NoError(e.t, err)
		require.Len(e.t, msgs, 1)
		return msgs[0]
	case <-time.After(waitFor):
		e.t.Fatal("engine received nothing")
		return wire.Message{}
	}
}

func (e *fakeEngine) nextReliable() wire.Message { return e.next(e.tcp) }

func (e *fakeEngine) nextLossy() wire.Message { return e.next(e.udp) }

// acceptRegistration reads /register on both channels and records where the
// client listens.
func (e *fakeEngine) acceptRegistration() {
	e.t.Helper()
	for _, ch := range []struct {
		ep      transport.Endpoint
		network transport.Network
		dst     *string
	}{
		{e.tcp, transport.NetworkTCP, &e.clientTCP},
		{e.udp, transport.NetworkUDP, &e.clientUDP},
	} {
		m := e.next(ch.ep)
		require.Equal(e.t, "/register", m.Address)
		require.NoError(e.t, m.Expect("s"))
		u, err := transport.ParseURL(m.Args[0].(string))
		require.NoError(e.t, err)
		require.Equal(e.t, ch.network, u.Network)
		*ch.dst = u.Addr()
	}
}

func (e *fakeEngine) send(addr string, args ...any) {
	e.t.Helper()
	b, err := wire.Encode(wire.NewMessage(addr, args...))
	require.NoError(e.t, err)
	require.NoError(e.t, e.tcp.Send(e.clientTCP, b))
}

func (e *fakeEngine) sendLossy(addr string, args ...any) {
	e.t.Helper()
	b, err := wire.Encode(wire.NewMessage(addr, args...))
	require.NoError(e.t, err)
	require.NoError(e.t, e.udp.Send(e.clientUDP, b))
}

func (e *fakeEngine) callback(action Action, pluginID, v1, v2, v3 int32, vf float32, text string) {
	e.t.Helper()
	e.send("/ctrl/cb", int32(action), pluginID, v1, v2, v3, vf, text)
}

func (e *fakeEngine) addPlugin(id int32, name string) {
	e.t.Helper()
	e.callback(ActionPluginAdded, id, 0, 0, 0, 0, name)
}

type harness struct {
	net    *memtransport.Network
	engine *fakeEngine
	client *Client
}

func newHarness(t *testing.T, manual bool) *harness {
	t.Helper()
	n := memtransport.NewNetwork()
	h := &harness{net: n, engine: newFakeEngine(t, n)}
	h.client = New(&Config{
		Binder:       n,
		BindHost:     "127.0.0.1",
		PollInterval: 2 * time.Millisecond,
		ManualPoll:   manual,
	}, store.New())
	t.Cleanup(func() { _ = h.client.Disconnect() })
	return h
}

func (h *harness) connect(t *testing.T) {
	t.Helper()
	require.NoError(t, h.client.Connect(context.Background(), engineReliableURL, engineLossyURL))
	h.engine.acceptRegistration()
}

// pollUntil drives Poll until cond holds.
func (h *harness) pollUntil(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		h.client.Poll()
		return cond()
	}, waitFor, tick)
}

func (h *harness) waitEvent(t *testing.T, kind EventKind) Event {
	t.Helper()
	deadline := time.After(waitFor)
	for {
		select {
		case ev := <-h.client.Events():
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("no event of kind %d", kind)
			return Event{}
		}
	}
}
