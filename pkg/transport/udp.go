package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	udpReadBufferSize = 64 * 1024
	udpReadDeadline   = 500 * time.Millisecond
)

var _ Endpoint = (*udpEndpoint)(nil)

type udpEndpoint struct {
	log       *zap.SugaredLogger
	conn      *net.UDPConn
	recvCh    chan Packet
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func ListenUDP(addr string) (Endpoint, error) {
	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen UDP: %w", err)
	}

	e := &udpEndpoint{
		log:    zap.S().Named("udp"),
		conn:   conn,
		recvCh: make(chan Packet, recvQueueSize),
		done:   make(chan struct{}),
	}
	e.wg.Add(1)
	go e.readLoop()
	return e, nil
}

func (e *udpEndpoint) readLoop() {
	defer e.wg.Done()
	defer close(e.recvCh)

	buf := make([]byte, udpReadBufferSize)
	for {
		select {
		case <-e.done:
			return
		default:
		}

		if err := e.conn.SetReadDeadline(time.Now().Add(udpReadDeadline)); err != nil {
			return
		}
		n, src, err := e.conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return
		}

		pkt := Packet{Src: src.String(), Payload: append([]byte(nil), buf[:n]...)}
		select {
		case e.recvCh <- pkt:
		default:
			// lossy by contract: shed load rather than stall the socket
			e.log.Debugw("receive queue full, dropping datagram", "src", pkt.Src, "len", n)
		}
	}
}

func (e *udpEndpoint) Packets() <-chan Packet { return e.recvCh }

func (e *udpEndpoint) Send(dst string, b []byte) error {
	select {
	case <-e.done:
		return ErrClosed
	default:
	}

	addr, err := net.ResolveUDPAddr("udp", dst)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dst, err)
	}
	if _, err := e.conn.WriteToUDP(b, addr); err != nil {
		return err
	}
	return nil
}

func (e *udpEndpoint) Addr() string { return e.conn.LocalAddr().String() }

func (e *udpEndpoint) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.done)
		err = e.conn.Close()
		e.wg.Wait()
	})
	return err
}
