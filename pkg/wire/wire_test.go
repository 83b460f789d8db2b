package wire

import (
	"bytes"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeKeepsArgumentTypes(t *testing.T) {
	in := NewMessage("/ctrl/info", int32(3), float32(0.5), "Reverb", int64(1<<40))

	b, err := Encode(in)
	require.NoError(t, err)

	msgs, err := Decode(b)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, in, msgs[0])
	assert.Equal(t, "info", msgs[0].Name())
}

func TestEncodeRejectsUnsupportedArgs(t *testing.T) {
	_, err := Encode(NewMessage("/ctrl/info", 3))
	require.ErrorIs(t, err, ErrUnsupported)

	_, err = Encode(NewMessage("ctrl/info"))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeFlattensBundles(t *testing.T) {
	bundle := osc.NewBundle(time.Now())
	require.NoError(t, bundle.Append(osc.NewMessage("/ctrl/prog", int32(0), int32(0), "Init")))
	require.NoError(t, bundle.Append(osc.NewMessage("/ctrl/prog", int32(0), int32(1), "Lead")))
	b, err := bundle.MarshalBinary()
	require.NoError(t, err)

	msgs, err := Decode(b)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Init", msgs[0].Args[2])
	assert.Equal(t, "Lead", msgs[1].Args[2])
}

func TestDecodeNestedBundleOrder(t *testing.T) {
	inner := osc.NewBundle(time.Now())
	require.NoError(t, inner.Append(osc.NewMessage("/ctrl/b")))

	outer := osc.NewBundle(time.Now())
	require.NoError(t, outer.Append(osc.NewMessage("/ctrl/a")))
	require.NoError(t, outer.Append(inner))
	require.NoError(t, outer.Append(osc.NewMessage("/ctrl/c")))
	b, err := outer.MarshalBinary()
	require.NoError(t, err)

	msgs, err := Decode(b)
	require.NoError(t, err)
	var addrs []string
	for _, m := range msgs {
		addrs = append(addrs, m.Address)
	}
	// a bundle's own messages precede its nested bundles
	assert.Equal(t, []string{"/ctrl/a", "/ctrl/c", "/ctrl/b"}, addrs)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrMalformed)

	_, err = Decode(nil)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestExpect(t *testing.T) {
	m := NewMessage("/ctrl/param", int32(0), int32(2), float32(0.25))
	require.NoError(t, m.Expect("iif"))
	require.ErrorIs(t, m.Expect("iii"), ErrMalformed)
	require.ErrorIs(t, m.Expect("ii"), ErrMalformed)

	flag := NewMessage("/x", false)
	require.NoError(t, flag.Expect("T"))
}

func TestReader(t *testing.T) {
	r := NewMessage("/ctrl/mprog", int32(1), int32(0), int32(2), int32(5), "Strings").Reader()
	assert.Equal(t, int32(1), r.Int32())
	assert.Equal(t, int32(0), r.Int32())
	assert.Equal(t, int32(2), r.Int32())
	assert.Equal(t, int32(5), r.Int32())
	assert.Equal(t, "Strings", r.String())
	require.NoError(t, r.Err())

	r = NewMessage("/ctrl/prog", int32(1), "oops").Reader()
	r.Int32()
	r.Int32()
	_ = r.String()
	require.ErrorIs(t, r.Err(), ErrMalformed)

	r = NewMessage("/ctrl/prog", int32(1), int32(2)).Reader()
	r.Int32()
	require.ErrorIs(t, r.Err(), ErrMalformed, "trailing args must be reported")
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("abcd")))
	require.NoError(t, WriteFrame(&buf, []byte("efghijkl")))

	a, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), a)

	b, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("efghijkl"), b)
}

func TestReadFrameRejectsOversize(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff}))
	require.ErrorIs(t, err, ErrFrameTooLarge)
}
