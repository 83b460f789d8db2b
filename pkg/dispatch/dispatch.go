package dispatch

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sambigeara/enginectl/pkg/observability/metrics"
	"github.com/sambigeara/enginectl/pkg/transport"
	"github.com/sambigeara/enginectl/pkg/wire"
	"go.uber.org/zap"
)

var ErrUnknownAddress = errors.New("unknown address")

// HandlerFunc applies one message. Returning an error wrapping
// wire.ErrMalformed marks the message as a protocol error; handlers must
// not mutate state before validating their arguments.
type HandlerFunc func(msg wire.Message) error

// Table maps OSC address patterns to handlers for one channel.
type Table struct {
	log      *zap.SugaredLogger
	metrics  *metrics.Instruments
	handlers map[string]HandlerFunc
	channel  string
	mu       sync.RWMutex
}

func NewTable(channel string, inst *metrics.Instruments) *Table {
	if inst == nil {
		inst = metrics.Default()
	}
	return &Table{
		log:      zap.S().Named("dispatch." + channel),
		metrics:  inst,
		handlers: make(map[string]HandlerFunc),
		channel:  channel,
	}
}

func (t *Table) Handle(addr string, h HandlerFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[addr] = h
}

// Dispatch routes one message. Unknown addresses and handler failures are
// logged and counted; the returned error is informational.
func (t *Table) Dispatch(msg wire.Message) error {
	t.mu.RLock()
	h := t.handlers[msg.Address]
	t.mu.RUnlock()

	if h == nil {
		t.log.Debugw("dropping message for unknown address", "address", msg.Address)
		t.metrics.Dropped(t.channel, metrics.DropUnknown)
		return fmt.Errorf("%w: %s", ErrUnknownAddress, msg.Address)
	}

	if err := h(msg); err != nil {
		t.log.Debugw("dropping message", "address", msg.Address, "err", err)
		t.metrics.Dropped(t.channel, metrics.DropMalformed)
		return err
	}
	t.metrics.Received(t.channel, msg.Address)
	return nil
}

// DispatchPacket decodes a packet and dispatches every message in it in
// order. It returns the number of messages handled successfully.
func (t *Table) DispatchPacket(pkt transport.Packet) int {
	msgs, err := wire.Decode(pkt.Payload)
	if err != nil {
		t.log.Debugw("dropping undecodable packet", "src", pkt.Src, "err", err)
		t.metrics.Dropped(t.channel, metrics.DropMalformed)
		return 0
	}

	n := 0
	for _, m := range msgs {
		if t.Dispatch(m) == nil {
			n++
		}
	}
	return n
}

// Drain dispatches every packet currently queued on ch without blocking.
// open is false once ch has been closed.
func (t *Table) Drain(ch <-chan transport.Packet) (n int, open bool) {
	for {
		select {
		case pkt, ok := <-ch:
			if !ok {
				return n, false
			}
			n += t.DispatchPacket(pkt)
		default:
			return n, true
		}
	}
}
