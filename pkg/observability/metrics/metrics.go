package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/sambigeara/enginectl"

const (
	ChannelReliable = "reliable"
	ChannelLossy    = "lossy"

	DropMalformed = "malformed"
	DropUnknown   = "unknown_address"
	DropLateResp  = "late_response"
)

type Instruments struct {
	received     metric.Int64Counter
	dropped      metric.Int64Counter
	calls        metric.Int64Counter
	callDuration metric.Float64Histogram
}

func New(mp metric.MeterProvider) (*Instruments, error) {
	meter := mp.Meter(instrumentationName)

	received, err := meter.Int64Counter("enginectl.messages.received",
		metric.WithDescription("OSC messages dispatched to a handler"))
	if err != nil {
		return nil, err
	}
	dropped, err := meter.Int64Counter("enginectl.messages.dropped",
		metric.WithDescription("OSC messages dropped without mutating state"))
	if err != nil {
		return nil, err
	}
	calls, err := meter.Int64Counter("enginectl.rpc.calls",
		metric.WithDescription("Acknowledged calls by outcome"))
	if err != nil {
		return nil, err
	}
	callDuration, err := meter.Float64Histogram("enginectl.rpc.duration",
		metric.WithDescription("Time from send to matching response"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &Instruments{
		received:     received,
		dropped:      dropped,
		calls:        calls,
		callDuration: callDuration,
	}, nil
}

var (
	defaultOnce sync.Once
	defaultInst *Instruments
)

// Default returns instruments bound to the global meter provider, falling
// back to no-op instruments if creation fails.
func Default() *Instruments {
	defaultOnce.Do(func() {
		inst, err := New(otel.GetMeterProvider())
		if err != nil {
			zap.S().Named("metrics").Warnw("falling back to no-op metrics", "err", err)
			inst, _ = New(noop.NewMeterProvider())
		}
		defaultInst = inst
	})
	return defaultInst
}

func (i *Instruments) Received(channel, address string) {
	i.received.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("channel", channel),
		attribute.String("address", address),
	))
}

func (i *Instruments) Dropped(channel, reason string) {
	i.dropped.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("channel", channel),
		attribute.String("reason", reason),
	))
}

func (i *Instruments) CallDone(ctx context.Context, method, outcome string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("outcome", outcome),
	)
	i.calls.Add(ctx, 1, attrs)
	i.callDuration.Record(ctx, seconds, attrs)
}
