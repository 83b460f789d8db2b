package util

import (
	"context"
	"math/rand/v2"
	"time"
)

// Ticker delivers ticks at base +/- spread*base. A Kick delivers the next tick
// immediately and restarts the interval. C is closed once ctx is done or Stop
// is called.
type Ticker struct {
	C    <-chan time.Time
	kick chan struct{}
	stop context.CancelFunc
}

func NewTicker(ctx context.Context, base time.Duration, spread float64) *Ticker {
	tickCh := make(chan time.Time)
	kick := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(tickCh)
		timer := time.NewTimer(Jitter(base, spread))
		defer timer.Stop()

		for {
			var now time.Time
			select {
			case <-ctx.Done():
				return
			case <-kick:
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				now = time.Now()
			case now = <-timer.C:
			}

			select {
			case <-ctx.Done():
				return
			case tickCh <- now:
			}
			timer.Reset(Jitter(base, spread))
		}
	}()

	return &Ticker{C: tickCh, kick: kick, stop: cancel}
}

// Kick requests an immediate tick. Kicks made before the pending one is
// consumed coalesce.
func (t *Ticker) Kick() {
	select {
	case t.kick <- struct{}{}:
	default:
	}
}

func (t *Ticker) Stop() {
	t.stop()
}

// Jitter returns d moved by a uniform random offset in [-spread*d, spread*d].
func Jitter(d time.Duration, spread float64) time.Duration {
	if spread <= 0 || d <= 0 {
		return d
	}
	delta := time.Duration(float64(d) * min(spread, 1))
	if delta <= 0 {
		return d
	}
	offset := time.Duration(rand.N(int64(delta)*2+1)) - delta //nolint:gosec
	if d+offset <= 0 {
		return time.Millisecond
	}
	return d + offset
}
