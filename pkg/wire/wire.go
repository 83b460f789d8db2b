package wire

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hypebeast/go-osc/osc"
)

var (
	ErrMalformed   = errors.New("malformed message")
	ErrUnsupported = errors.New("unsupported argument type")
)

// Message is a decoded OSC message. Args hold int32, float32, string, int64,
// float64, bool, []byte or nil.
type Message struct {
	Address string
	Args    []any
}

func NewMessage(addr string, args ...any) Message {
	return Message{Address: addr, Args: args}
}

func (m Message) String() string {
	tags, _ := TypeTags(m.Args)
	return fmt.Sprintf("%s ,%s %v", m.Address, tags, m.Args)
}

// Name returns the last path segment of the address ("/ctrl/info" -> "info").
func (m Message) Name() string {
	return m.Address[strings.LastIndexByte(m.Address, '/')+1:]
}

func Encode(m Message) ([]byte, error) {
	if !strings.HasPrefix(m.Address, "/") {
		return nil, fmt.Errorf("%w: address %q", ErrMalformed, m.Address)
	}
	if _, err := TypeTags(m.Args); err != nil {
		return nil, err
	}

	msg := osc.NewMessage(m.Address)
	for _, a := range m.Args {
		msg.Append(a)
	}
	b, err := msg.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Address, err)
	}
	return b, nil
}

// Decode parses one OSC packet. Bundles are flattened depth-first: a bundle's
// own messages come first, in order, then each nested bundle. Timetags are
// ignored and messages are delivered immediately.
func Decode(b []byte) ([]Message, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: packet length %d", ErrMalformed, len(b))
	}

	pkt, err := osc.ParsePacket(string(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var out []Message
	flatten(pkt, &out)
	return out, nil
}

func flatten(pkt osc.Packet, out *[]Message) {
	switch p := pkt.(type) {
	case *osc.Message:
		*out = append(*out, Message{Address: p.Address, Args: append([]any(nil), p.Arguments...)})
	case *osc.Bundle:
		for _, m := range p.Messages {
			flatten(m, out)
		}
		for _, sub := range p.Bundles {
			flatten(sub, out)
		}
	}
}

func TypeTags(args []any) (string, error) {
	var sb strings.Builder
	for i, a := range args {
		switch v := a.(type) {
		case int32:
			sb.WriteByte('i')
		case float32:
			sb.WriteByte('f')
		case string:
			sb.WriteByte('s')
		case int64:
			sb.WriteByte('h')
		case float64:
			sb.WriteByte('d')
		case []byte:
			sb.WriteByte('b')
		case bool:
			if v {
				sb.WriteByte('T')
			} else {
				sb.WriteByte('F')
			}
		case nil:
			sb.WriteByte('N')
		default:
			return "", fmt.Errorf("%w: arg %d is %T", ErrUnsupported, i, a)
		}
	}
	return sb.String(), nil
}
