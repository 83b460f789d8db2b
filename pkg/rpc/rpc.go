package rpc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sambigeara/enginectl/pkg/observability/metrics"
	"github.com/sambigeara/enginectl/pkg/wire"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/sambigeara/enginectl/pkg/rpc"

// NoPlugin is passed as the plugin id for methods that are not plugin scoped.
const NoPlugin int32 = -1

var (
	ErrNoConnection     = errors.New("no connection")
	ErrOperationPending = errors.New("previous operation still pending")
	ErrUnknownMethod    = errors.New("unknown method")
	ErrBadArguments     = errors.New("bad arguments")
	ErrDisconnected     = errors.New("disconnected before response")
)

// RemoteError is a failure reported by the engine in /resp. Error returns
// the engine's text verbatim.
type RemoteError struct {
	Method string
	Text   string
}

func (e *RemoteError) Error() string { return e.Text }

// Peer is the reliable channel toward the engine.
type Peer interface {
	Send(msg wire.Message) error
	// Name is the engine's registered name, the prefix of plugin-scoped
	// addresses.
	Name() string
}

type peerBox struct{ p Peer }

// Facade issues commands to the engine. Acknowledged calls are serialised
// through a one-slot gate: a call made while another is outstanding is
// rejected, not queued, so commands reach the engine in the order their
// callers observed them complete.
type Facade struct {
	log     *zap.SugaredLogger
	metrics *metrics.Instruments
	tracer  trace.Tracer
	peer    atomic.Pointer[peerBox]
	gate    chan struct{}
	nextID  atomic.Int32

	pump      func()
	pumpEvery time.Duration

	mu      sync.Mutex
	pending map[int32]chan error
}

func New(inst *metrics.Instruments) *Facade {
	if inst == nil {
		inst = metrics.Default()
	}
	return &Facade{
		log:     zap.S().Named("rpc"),
		metrics: inst,
		tracer:  otel.Tracer(tracerName),
		gate:    make(chan struct{}, 1),
		pending: make(map[int32]chan error),
	}
}

// SetPump installs fn to be run every interval while an acknowledged call
// waits. A client that is polled from the caller's own goroutine uses it to
// keep draining its channels, otherwise the response could never be read.
// It must be set before the first call.
func (f *Facade) SetPump(fn func(), every time.Duration) {
	f.pump = fn
	f.pumpEvery = every
}

// Attach sets the engine peer used by subsequent calls.
func (f *Facade) Attach(p Peer) {
	f.peer.Store(&peerBox{p: p})
}

// Detach clears the peer and fails every in-flight call with
// ErrDisconnected.
func (f *Facade) Detach() {
	f.peer.Store(nil)

	f.mu.Lock()
	defer f.mu.Unlock()
	for id, ch := range f.pending {
		ch <- ErrDisconnected
		delete(f.pending, id)
	}
}

func (f *Facade) currentPeer() Peer {
	if b := f.peer.Load(); b != nil {
		return b.p
	}
	return nil
}

// Pending reports the number of unresolved acknowledged calls (0 or 1).
func (f *Facade) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Resolve completes the call that issued id. An empty text is success. It
// reports false when no such call is waiting.
func (f *Facade) Resolve(id int32, text string) bool {
	f.mu.Lock()
	ch, ok := f.pending[id]
	delete(f.pending, id)
	f.mu.Unlock()

	if !ok {
		return false
	}
	if text == "" {
		ch <- nil
	} else {
		ch <- &RemoteError{Text: text}
	}
	return true
}

func (f *Facade) register(id int32) chan error {
	ch := make(chan error, 1)
	f.mu.Lock()
	f.pending[id] = ch
	f.mu.Unlock()
	return ch
}

func (f *Facade) withdraw(id int32) {
	f.mu.Lock()
	delete(f.pending, id)
	f.mu.Unlock()
}

// Call invokes an allowlisted method. For plugin-scoped methods pluginID
// selects the plugin; otherwise pass NoPlugin. Acknowledged calls block until
// the engine responds or ctx is done; there is no implicit timeout. While
// blocked they run the pump, if one is set.
func (f *Facade) Call(ctx context.Context, method string, pluginID int32, args ...any) error {
	m, ok := Lookup(method)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	if err := wire.NewMessage(method, args...).Expect(m.Args); err != nil {
		return fmt.Errorf("%w: %v", ErrBadArguments, err)
	}
	if m.PluginScoped && pluginID < 0 {
		return fmt.Errorf("%w: %s needs a plugin id", ErrBadArguments, method)
	}

	peer := f.currentPeer()
	if peer == nil {
		return ErrNoConnection
	}

	if m.Kind == FireAndForget {
		addr := "/" + peer.Name() + "/" + strconv.Itoa(int(pluginID)) + "/" + method
		if err := peer.Send(wire.NewMessage(addr, args...)); err != nil {
			return fmt.Errorf("send %s: %w", method, err)
		}
		return nil
	}

	return f.callAcknowledged(ctx, peer, m, pluginID, args)
}

func (f *Facade) callAcknowledged(ctx context.Context, peer Peer, m Method, pluginID int32, args []any) (err error) {
	select {
	case f.gate <- struct{}{}:
	default:
		return ErrOperationPending
	}
	defer func() { <-f.gate }()

	ctx, span := f.tracer.Start(ctx, "rpc "+m.Name, trace.WithAttributes(
		attribute.String("rpc.method", m.Name),
	))
	defer span.End()

	id := f.nextID.Add(1)
	span.SetAttributes(attribute.Int("rpc.message_id", int(id)))

	full := make([]any, 0, len(args)+2)
	full = append(full, id)
	if m.PluginScoped {
		full = append(full, pluginID)
	}
	full = append(full, args...)

	start := time.Now()
	defer func() {
		outcome := "ok"
		var remote *RemoteError
		switch {
		case err == nil:
		case errors.As(err, &remote):
			outcome = "remote_error"
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			outcome = "cancelled"
		default:
			outcome = "failed"
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		f.metrics.CallDone(ctx, m.Name, outcome, time.Since(start).Seconds())
	}()

	done := f.register(id)
	if err := peer.Send(wire.NewMessage("/ctrl/"+m.Name, full...)); err != nil {
		f.withdraw(id)
		return fmt.Errorf("send %s: %w", m.Name, err)
	}
	f.log.Debugw("call sent", "method", m.Name, "id", id)

	var tick <-chan time.Time
	if f.pump != nil {
		t := time.NewTicker(f.pumpEvery)
		defer t.Stop()
		tick = t.C
		f.pump()
	}

	for {
		select {
		case err := <-done:
			var remote *RemoteError
			if errors.As(err, &remote) {
				remote.Method = m.Name
			}
			return err
		case <-ctx.Done():
			f.withdraw(id)
			f.log.Debugw("call abandoned", "method", m.Name, "id", id, "err", ctx.Err())
			return ctx.Err()
		case <-tick:
			f.pump()
		}
	}
}
