package client

import (
	"github.com/sambigeara/enginectl/pkg/dispatch"
	"github.com/sambigeara/enginectl/pkg/store"
	"github.com/sambigeara/enginectl/pkg/wire"
)

// Telemetry may arrive dropped, duplicated or out of order. Every handler
// here is a plain last-value-wins assignment.
func (c *Client) registerTelemetry(t *dispatch.Table) {
	t.Handle(ctrlPrefix+"runtime", c.handleRuntime)
	t.Handle(ctrlPrefix+"param", c.handleParamValue)
	t.Handle(ctrlPrefix+"peaks", c.handlePeaks)
}

func (c *Client) handleRuntime(msg wire.Message) error {
	r := msg.Reader()
	rt := store.Runtime{
		Load:    r.Float32(),
		Xruns:   r.Int32(),
		Playing: r.Int32() != 0,
		Frame:   r.Int32(),
		Bar:     r.Int32(),
		Beat:    r.Int32(),
		Tick:    r.Int32(),
		BPM:     r.Float32(),
	}
	if err := r.Err(); err != nil {
		return err
	}

	c.store.SetRuntime(rt)
	return nil
}

func (c *Client) handleParamValue(msg wire.Message) error {
	r := msg.Reader()
	id, index, value := r.Int32(), r.Int32(), r.Float32()
	if err := r.Err(); err != nil {
		return err
	}

	c.store.SetParamValue(id, index, value)
	return nil
}

func (c *Client) handlePeaks(msg wire.Message) error {
	r := msg.Reader()
	id := r.Int32()
	peaks := [4]float32{r.Float32(), r.Float32(), r.Float32(), r.Float32()}
	if err := r.Err(); err != nil {
		return err
	}

	c.store.SetPeaks(id, peaks)
	return nil
}
