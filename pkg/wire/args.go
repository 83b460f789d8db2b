package wire

import "fmt"

// Expect checks the message's arguments against an OSC type tag string
// ("iifs"). Booleans match either T or F.
func (m Message) Expect(tags string) error {
	got, err := TypeTags(m.Args)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, m.Address, err)
	}
	if len(got) != len(tags) {
		return fmt.Errorf("%w: %s: want %d args (%s), got %d (%s)", ErrMalformed, m.Address, len(tags), tags, len(got), got)
	}
	for i := range tags {
		if !tagMatches(tags[i], got[i]) {
			return fmt.Errorf("%w: %s: arg %d want %q, got %q", ErrMalformed, m.Address, i, tags[i], got[i])
		}
	}
	return nil
}

func tagMatches(want, got byte) bool {
	if want == got {
		return true
	}
	return (want == 'T' || want == 'F') && (got == 'T' || got == 'F')
}

// Reader pulls typed arguments off a message in order. The first failure is
// sticky; check Err once after reading.
type Reader struct {
	msg Message
	pos int
	err error
}

func (m Message) Reader() *Reader {
	return &Reader{msg: m}
}

func (r *Reader) next() any {
	if r.err != nil {
		return nil
	}
	if r.pos >= len(r.msg.Args) {
		r.err = fmt.Errorf("%w: %s: missing arg %d", ErrMalformed, r.msg.Address, r.pos)
		return nil
	}
	v := r.msg.Args[r.pos]
	r.pos++
	return v
}

func (r *Reader) fail(want string, got any) {
	r.err = fmt.Errorf("%w: %s: arg %d want %s, got %T", ErrMalformed, r.msg.Address, r.pos-1, want, got)
}

func (r *Reader) Int32() int32 {
	v := r.next()
	if r.err != nil {
		return 0
	}
	i, ok := v.(int32)
	if !ok {
		r.fail("int32", v)
	}
	return i
}

func (r *Reader) Int64() int64 {
	v := r.next()
	if r.err != nil {
		return 0
	}
	i, ok := v.(int64)
	if !ok {
		r.fail("int64", v)
	}
	return i
}

func (r *Reader) Float32() float32 {
	v := r.next()
	if r.err != nil {
		return 0
	}
	f, ok := v.(float32)
	if !ok {
		r.fail("float32", v)
	}
	return f
}

func (r *Reader) String() string {
	v := r.next()
	if r.err != nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		r.fail("string", v)
	}
	return s
}

// Err reports the first read failure, or trailing arguments that were never
// consumed.
func (r *Reader) Err() error {
	if r.err != nil {
		return r.err
	}
	if r.pos != len(r.msg.Args) {
		return fmt.Errorf("%w: %s: %d unexpected trailing args", ErrMalformed, r.msg.Address, len(r.msg.Args)-r.pos)
	}
	return nil
}
