package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sambigeara/enginectl/pkg/wire"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	tcpDialTimeout  = 3 * time.Second
	tcpWriteTimeout = 3 * time.Second
)

var _ Endpoint = (*tcpEndpoint)(nil)

// tcpEndpoint accepts inbound stream connections from the engine and keeps one
// outbound connection per destination for sends. Frames from all inbound
// connections feed a single queue; order is preserved per connection.
type tcpEndpoint struct {
	log      *zap.SugaredLogger
	ln       net.Listener
	recvCh   chan Packet
	done     chan struct{}
	wg       sync.WaitGroup
	connsMu  sync.Mutex
	inbound  map[net.Conn]struct{}
	outbound map[string]net.Conn
	sendMu   sync.Mutex

	closeOnce sync.Once
}

func ListenTCP(addr string) (Endpoint, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen TCP: %w", err)
	}

	e := &tcpEndpoint{
		log:      zap.S().Named("tcp"),
		ln:       ln,
		recvCh:   make(chan Packet, recvQueueSize),
		done:     make(chan struct{}),
		inbound:  make(map[net.Conn]struct{}),
		outbound: make(map[string]net.Conn),
	}
	e.wg.Add(1)
	go e.acceptLoop()
	return e, nil
}

func (e *tcpEndpoint) acceptLoop() {
	defer e.wg.Done()
	for {
		conn, err := e.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			e.log.Debugw("accept failed", "err", err)
			continue
		}

		e.connsMu.Lock()
		select {
		case <-e.done:
			e.connsMu.Unlock()
			_ = conn.Close()
			return
		default:
		}
		e.inbound[conn] = struct{}{}
		e.connsMu.Unlock()

		e.wg.Add(1)
		go e.readLoop(conn)
	}
}

func (e *tcpEndpoint) readLoop(conn net.Conn) {
	defer e.wg.Done()
	defer func() {
		e.connsMu.Lock()
		delete(e.inbound, conn)
		e.connsMu.Unlock()
		_ = conn.Close()
	}()

	src := conn.RemoteAddr().String()
	for {
		b, err := wire.ReadFrame(conn)
		if err != nil {
			select {
			case <-e.done:
			default:
				e.log.Debugw("inbound stream ended", "src", src, "err", err)
			}
			return
		}

		select {
		case e.recvCh <- Packet{Src: src, Payload: b}:
		case <-e.done:
			return
		}
	}
}

func (e *tcpEndpoint) Packets() <-chan Packet { return e.recvCh }

func (e *tcpEndpoint) Send(dst string, b []byte) error {
	select {
	case <-e.done:
		return ErrClosed
	default:
	}

	e.sendMu.Lock()
	defer e.sendMu.Unlock()

	conn, ok := e.outbound[dst]
	if !ok {
		var err error
		conn, err = net.DialTimeout("tcp", dst, tcpDialTimeout)
		if err != nil {
			return fmt.Errorf("dial %s: %w", dst, err)
		}
		e.outbound[dst] = conn
	}

	if err := conn.SetWriteDeadline(time.Now().Add(tcpWriteTimeout)); err != nil {
		return err
	}
	if err := wire.WriteFrame(conn, b); err != nil {
		delete(e.outbound, dst)
		_ = conn.Close()
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}

func (e *tcpEndpoint) Addr() string { return e.ln.Addr().String() }

func (e *tcpEndpoint) Close() error {
	var errs error
	e.closeOnce.Do(func() {
		close(e.done)
		errs = multierr.Append(errs, e.ln.Close())

		e.sendMu.Lock()
		for dst, c := range e.outbound {
			errs = multierr.Append(errs, c.Close())
			delete(e.outbound, dst)
		}
		e.sendMu.Unlock()

		e.connsMu.Lock()
		for c := range e.inbound {
			_ = c.Close()
		}
		e.connsMu.Unlock()

		e.wg.Wait()
		close(e.recvCh)
	})
	return errs
}
