package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	frameHeaderSize = 4
	// MaxFrameSize bounds a single stream-framed packet.
	MaxFrameSize = 1 << 20
)

var ErrFrameTooLarge = errors.New("frame too large")

// WriteFrame writes b with the 4-byte big-endian length prefix used for OSC
// over stream transports.
func WriteFrame(w io.Writer, b []byte) error {
	if len(b) > MaxFrameSize {
		return fmt.Errorf("%w: %d", ErrFrameTooLarge, len(b))
	}
	buf := make([]byte, frameHeaderSize+len(b))
	binary.BigEndian.PutUint32(buf[:frameHeaderSize], uint32(len(b))) //nolint:gosec
	copy(buf[frameHeaderSize:], b)
	_, err := w.Write(buf)
	return err
}

func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [frameHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d", ErrFrameTooLarge, n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("read frame body: %w", err)
	}
	return b, nil
}
