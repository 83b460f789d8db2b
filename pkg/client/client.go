package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sambigeara/enginectl/pkg/dispatch"
	"github.com/sambigeara/enginectl/pkg/observability/metrics"
	"github.com/sambigeara/enginectl/pkg/rpc"
	"github.com/sambigeara/enginectl/pkg/store"
	"github.com/sambigeara/enginectl/pkg/transport"
	"github.com/sambigeara/enginectl/pkg/util"
	"github.com/sambigeara/enginectl/pkg/wire"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPollInterval = 30 * time.Millisecond
	DefaultPollJitter   = 0.1
	defaultEventBuffer  = 256
	defaultBindHost     = "0.0.0.0"
)

var (
	ErrAlreadyConnected = errors.New("already connected")
	ErrNotConnected     = errors.New("not connected")
	ErrEngineURL        = errors.New("engine url")

	errEngineExited = errors.New("engine exited")
)

type Config struct {
	// Binder opens the local endpoints. Nil means real TCP and UDP sockets.
	Binder transport.Binder
	// Metrics defaults to instruments on the global meter provider.
	Metrics *metrics.Instruments
	// BindHost is the local interface both endpoints listen on.
	BindHost string
	// AdvertiseHost overrides the host placed in the registration URLs.
	AdvertiseHost string
	PollInterval  time.Duration
	PollJitter    float64
	// ManualPoll disables the internal pump; the caller drives Poll. An
	// acknowledged call polls on its own while it waits, so it may be made
	// from the goroutine that drives Poll.
	ManualPoll  bool
	EventBuffer int
}

// Client owns both engine channels, keeps the shadow store in sync with the
// engine's broadcasts and issues commands through its RPC facade.
type Client struct {
	log       *zap.SugaredLogger
	conf      Config
	store     *store.Store
	rpc       *rpc.Facade
	metrics   *metrics.Instruments
	control   *dispatch.Table
	telemetry *dispatch.Table
	events    chan Event
	state     atomic.Int32

	// lifeMu serialises Connect, Refresh, Disconnect and exit teardown.
	lifeMu sync.Mutex
	sess   *session

	// dispatchMu is held for every poll step and for store clears; handlers
	// never run concurrently with each other.
	dispatchMu sync.Mutex
	exit       *string
}

// session is one registration with an engine. It is the rpc.Peer for its
// lifetime.
type session struct {
	id        string
	reliable  transport.Endpoint
	lossy     transport.Endpoint
	engine    transport.URL
	engineUDP transport.URL
	selfTCP   transport.URL
	selfUDP   transport.URL
	ticker    *util.Ticker
	group     *errgroup.Group
	cancel    context.CancelFunc
	exitCh    chan struct{}
	exitText  string
}

var _ rpc.Peer = (*session)(nil)

func (s *session) Send(msg wire.Message) error {
	b, err := wire.Encode(msg)
	if err != nil {
		return err
	}
	return s.reliable.Send(s.engine.Addr(), b)
}

func (s *session) Name() string { return s.engine.Name }

func (s *session) sendLossy(msg wire.Message) error {
	b, err := wire.Encode(msg)
	if err != nil {
		return err
	}
	return s.lossy.Send(s.engineUDP.Addr(), b)
}

func New(conf *Config, st *store.Store) *Client {
	c := &Client{
		log:   zap.S().Named("client"),
		conf:  *conf,
		store: st,
	}
	if c.conf.Binder == nil {
		c.conf.Binder = transport.NetBinder{}
	}
	if c.conf.Metrics == nil {
		c.conf.Metrics = metrics.Default()
	}
	if c.conf.BindHost == "" {
		c.conf.BindHost = defaultBindHost
	}
	if c.conf.PollInterval <= 0 {
		c.conf.PollInterval = DefaultPollInterval
	}
	if c.conf.EventBuffer <= 0 {
		c.conf.EventBuffer = defaultEventBuffer
	}

	c.metrics = c.conf.Metrics
	c.rpc = rpc.New(c.metrics)
	if c.conf.ManualPoll {
		c.rpc.SetPump(func() { c.Poll() }, c.conf.PollInterval)
	}
	c.events = make(chan Event, c.conf.EventBuffer)
	c.control = dispatch.NewTable(metrics.ChannelReliable, c.metrics)
	c.telemetry = dispatch.NewTable(metrics.ChannelLossy, c.metrics)
	c.registerControl(c.control)
	c.registerTelemetry(c.telemetry)
	return c
}

func (c *Client) Store() *store.Store { return c.store }

// RPC returns the command facade. Calls fail with rpc.ErrNoConnection while
// the client is not registered.
func (c *Client) RPC() *rpc.Facade { return c.rpc }

func (c *Client) State() State { return State(c.state.Load()) }

// Events delivers state changes, engine callbacks and engine exit notices.
// Events are dropped if the consumer falls a full buffer behind.
func (c *Client) Events() <-chan Event { return c.events }

func (c *Client) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.log.Warnw("event buffer full, dropping event", "kind", ev.Kind, "state", ev.State)
	}
}

func (c *Client) setState(s State) {
	if State(c.state.Swap(int32(s))) == s {
		return
	}
	c.log.Debugw("state changed", "state", s)
	c.emit(Event{Kind: EventStateChanged, State: s})
}

// Connect binds the local endpoints, registers them with the engine and
// starts polling. reliableURL and lossyURL are osc.tcp:// and osc.udp://
// engine URLs.
func (c *Client) Connect(ctx context.Context, reliableURL, lossyURL string) error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	if c.sess != nil {
		return ErrAlreadyConnected
	}

	engine, err := transport.ParseURL(reliableURL)
	if err != nil {
		return fmt.Errorf("%w: reliable: %w", ErrEngineURL, err)
	}
	engineUDP, err := transport.ParseURL(lossyURL)
	if err != nil {
		return fmt.Errorf("%w: lossy: %w", ErrEngineURL, err)
	}
	if engine.Network != transport.NetworkTCP || engineUDP.Network != transport.NetworkUDP {
		return fmt.Errorf("%w: want %s:// and %s:// urls", ErrEngineURL, transport.SchemeTCP, transport.SchemeUDP)
	}

	c.setState(StateConnecting)

	sess, err := c.open(ctx, engine, engineUDP)
	if err != nil {
		c.setState(StateDisconnected)
		return err
	}

	c.dispatchMu.Lock()
	c.exit = nil
	c.sess = sess
	c.dispatchMu.Unlock()

	c.rpc.Attach(sess)
	c.setState(StateRegistered)
	c.log.Infow("registered with engine", "engine", engine.String(), "self", sess.selfTCP.String(), "session", sess.id)

	c.start(ctx, sess)
	return nil
}

func (c *Client) open(ctx context.Context, engine, engineUDP transport.URL) (sess *session, err error) {
	bind := net.JoinHostPort(c.conf.BindHost, "0")

	reliable, err := c.conf.Binder.Bind(transport.NetworkTCP, bind)
	if err != nil {
		return nil, fmt.Errorf("bind reliable endpoint: %w", err)
	}
	lossy, err := c.conf.Binder.Bind(transport.NetworkUDP, bind)
	if err != nil {
		_ = reliable.Close()
		return nil, fmt.Errorf("bind lossy endpoint: %w", err)
	}
	defer func() {
		if err != nil {
			err = multierr.Combine(err, reliable.Close(), lossy.Close())
		}
	}()

	host := c.conf.AdvertiseHost
	if host == "" {
		if host, err = transport.AdvertiseHost(ctx, engine.Host); err != nil {
			return nil, err
		}
	}

	sess = &session{
		id:        uuid.NewString(),
		reliable:  reliable,
		lossy:     lossy,
		engine:    engine,
		engineUDP: engineUDP,
		exitCh:    make(chan struct{}, 1),
	}
	if sess.selfTCP, err = transport.SelfURL(transport.NetworkTCP, reliable.Addr(), host); err != nil {
		return nil, err
	}
	if sess.selfUDP, err = transport.SelfURL(transport.NetworkUDP, lossy.Addr(), host); err != nil {
		return nil, err
	}

	if err = c.register(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (c *Client) register(sess *session) error {
	if err := sess.Send(wire.NewMessage("/register", sess.selfTCP.String())); err != nil {
		return fmt.Errorf("register reliable channel: %w", err)
	}
	if err := sess.sendLossy(wire.NewMessage("/register", sess.selfUDP.String())); err != nil {
		return fmt.Errorf("register lossy channel: %w", err)
	}
	return nil
}

func (c *Client) unregister(sess *session) {
	if err := sess.Send(wire.NewMessage("/unregister", sess.selfTCP.String())); err != nil {
		c.log.Debugw("unregister failed", "err", err)
	}
	if err := sess.sendLossy(wire.NewMessage("/unregister", sess.selfUDP.String())); err != nil {
		c.log.Debugw("unregister lossy failed", "err", err)
	}
}

// start launches the pump and the exit watcher. The pump is skipped in manual
// poll mode.
func (c *Client) start(ctx context.Context, sess *session) {
	ctx, sess.cancel = context.WithCancel(context.WithoutCancel(ctx))
	g, gctx := errgroup.WithContext(ctx)
	sess.group = g

	if !c.conf.ManualPoll {
		sess.ticker = util.NewTicker(gctx, c.conf.PollInterval, c.conf.PollJitter)
		g.Go(func() error {
			for range sess.ticker.C {
				c.poll(sess)
			}
			return nil
		})
	}

	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-sess.exitCh:
			return errEngineExited
		}
	})

	go func() {
		if err := g.Wait(); errors.Is(err, errEngineExited) {
			c.terminate(sess)
		}
	}()
}

// Poll runs one non-blocking drain of both channels and returns the number of
// messages applied. A remote exit seen during the drain tears the session
// down before Poll returns.
func (c *Client) Poll() int {
	c.dispatchMu.Lock()
	sess := c.sess
	c.dispatchMu.Unlock()
	if sess == nil {
		return 0
	}

	n, exited := c.poll(sess)
	if exited {
		c.terminate(sess)
	}
	return n
}

func (c *Client) poll(sess *session) (n int, exited bool) {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	if c.sess != sess {
		return 0, false
	}

	nc, _ := c.control.Drain(sess.reliable.Packets())
	nt, _ := c.telemetry.Drain(sess.lossy.Packets())

	if c.exit != nil {
		sess.exitText = *c.exit
		select {
		case sess.exitCh <- struct{}{}:
		default:
		}
		return nc + nt, true
	}
	return nc + nt, false
}

// Refresh re-registers with the engine after clearing the store, prompting a
// full state resend.
func (c *Client) Refresh() error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	sess := c.sess
	if sess == nil {
		return ErrNotConnected
	}

	c.unregister(sess)

	c.dispatchMu.Lock()
	discard(sess.reliable.Packets())
	discard(sess.lossy.Packets())
	c.store.Clear()
	c.dispatchMu.Unlock()

	if err := c.register(sess); err != nil {
		return err
	}
	if sess.ticker != nil {
		sess.ticker.Kick()
	}
	c.log.Infow("refreshed engine state", "session", sess.id)
	return nil
}

// Disconnect unregisters (best effort), releases both endpoints and clears
// the store. In-flight calls fail with rpc.ErrDisconnected.
func (c *Client) Disconnect() error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	sess := c.sess
	if sess == nil {
		return nil
	}
	c.unregister(sess)
	return c.teardown(sess)
}

// terminate handles a remote exit. It is a no-op if the session has already
// gone.
func (c *Client) terminate(sess *session) {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	if c.sess != sess {
		return
	}
	if err := c.teardown(sess); err != nil {
		c.log.Debugw("teardown after engine exit", "err", err)
	}
	c.emit(Event{Kind: EventEngineExited, State: StateDisconnected, Text: sess.exitText})
}

// teardown must be called with lifeMu held.
func (c *Client) teardown(sess *session) error {
	sess.cancel()
	if err := sess.group.Wait(); err != nil && !errors.Is(err, errEngineExited) {
		c.log.Debugw("session goroutines", "err", err)
	}

	c.rpc.Detach()

	c.dispatchMu.Lock()
	c.sess = nil
	c.exit = nil
	discard(sess.reliable.Packets())
	discard(sess.lossy.Packets())
	err := multierr.Combine(sess.reliable.Close(), sess.lossy.Close())
	c.store.Clear()
	c.dispatchMu.Unlock()

	c.setState(StateDisconnected)
	c.log.Infow("disconnected", "session", sess.id)
	return err
}

func discard(ch <-chan transport.Packet) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
