package client

import (
	"github.com/sambigeara/enginectl/pkg/dispatch"
	"github.com/sambigeara/enginectl/pkg/observability/metrics"
	"github.com/sambigeara/enginectl/pkg/store"
	"github.com/sambigeara/enginectl/pkg/wire"
)

const ctrlPrefix = "/ctrl/"

func (c *Client) registerControl(t *dispatch.Table) {
	t.Handle(ctrlPrefix+"cb", c.handleCallback)
	t.Handle(ctrlPrefix+"info", c.handleInfo)
	t.Handle(ctrlPrefix+"ports", c.handlePorts)
	t.Handle(ctrlPrefix+"paramInfo", c.handleParamInfo)
	t.Handle(ctrlPrefix+"paramData", c.handleParamData)
	t.Handle(ctrlPrefix+"paramRanges", c.handleParamRanges)
	t.Handle(ctrlPrefix+"count", c.handleCount)
	t.Handle(ctrlPrefix+"pcount", c.handleProgramCount)
	t.Handle(ctrlPrefix+"prog", c.handleProgram)
	t.Handle(ctrlPrefix+"mprog", c.handleMidiProgram)
	t.Handle(ctrlPrefix+"cdata", c.handleCustomData)
	t.Handle(ctrlPrefix+"iparams", c.handleInternalParams)
	t.Handle(ctrlPrefix+"resp", c.handleResponse)
	t.Handle(ctrlPrefix+"exit", c.handleExit)
	t.Handle(ctrlPrefix+"exit-error", c.handleExitError)
}

func (c *Client) missing(addr string, id int32) {
	c.log.Debugw("message for unknown plugin", "address", addr, "plugin", id)
}

func (c *Client) handleInfo(msg wire.Message) error {
	r := msg.Reader()
	id := r.Int32()
	p := store.Plugin{
		Type:             r.Int32(),
		Category:         r.Int32(),
		Hints:            r.Int32(),
		UniqueID:         r.Int64(),
		OptionsAvailable: r.Int32(),
		OptionsEnabled:   r.Int32(),
		Name:             r.String(),
		Filename:         r.String(),
		IconName:         r.String(),
		RealName:         r.String(),
		Label:            r.String(),
		Maker:            r.String(),
		Copyright:        r.String(),
	}
	if err := r.Err(); err != nil {
		return err
	}

	ok := c.store.Update(id, func(rec *store.Plugin) {
		rec.Type = p.Type
		rec.Category = p.Category
		rec.Hints = p.Hints
		rec.UniqueID = p.UniqueID
		rec.OptionsAvailable = p.OptionsAvailable
		rec.OptionsEnabled = p.OptionsEnabled
		rec.Name = p.Name
		rec.Filename = p.Filename
		rec.IconName = p.IconName
		rec.RealName = p.RealName
		rec.Label = p.Label
		rec.Maker = p.Maker
		rec.Copyright = p.Copyright
	})
	if !ok {
		c.missing(msg.Address, id)
	}
	return nil
}

// handlePorts records port counts and resets the parameter array to
// paramTotal entries.
func (c *Client) handlePorts(msg wire.Message) error {
	r := msg.Reader()
	id := r.Int32()
	ports := store.Ports{
		AudioIns:   r.Int32(),
		AudioOuts:  r.Int32(),
		MidiIns:    r.Int32(),
		MidiOuts:   r.Int32(),
		ParamIns:   r.Int32(),
		ParamOuts:  r.Int32(),
		ParamTotal: r.Int32(),
	}
	if err := r.Err(); err != nil {
		return err
	}

	if !c.store.SetPorts(id, ports) {
		c.missing(msg.Address, id)
	}
	return nil
}

func (c *Client) handleParamInfo(msg wire.Message) error {
	r := msg.Reader()
	id, index := r.Int32(), r.Int32()
	info := store.ParamInfo{
		Name:    r.String(),
		Unit:    r.String(),
		Comment: r.String(),
		Group:   r.String(),
	}
	if err := r.Err(); err != nil {
		return err
	}

	c.store.SetParamInfo(id, index, info)
	return nil
}

func (c *Client) handleParamData(msg wire.Message) error {
	r := msg.Reader()
	id, index := r.Int32(), r.Int32()
	data := store.ParamData{
		Type:          r.Int32(),
		Hints:         r.Int32(),
		MidiChannel:   r.Int32(),
		MappedControl: r.Int32(),
		MappedMin:     r.Float32(),
		MappedMax:     r.Float32(),
	}
	value := r.Float32()
	if err := r.Err(); err != nil {
		return err
	}

	c.store.SetParamData(id, index, data, value)
	return nil
}

func (c *Client) handleParamRanges(msg wire.Message) error {
	r := msg.Reader()
	id, index := r.Int32(), r.Int32()
	ranges := store.ParamRanges{
		Def:       r.Float32(),
		Min:       r.Float32(),
		Max:       r.Float32(),
		Step:      r.Float32(),
		StepSmall: r.Float32(),
		StepLarge: r.Float32(),
	}
	if err := r.Err(); err != nil {
		return err
	}

	c.store.SetParamRanges(id, index, ranges)
	return nil
}

func (c *Client) handleCount(msg wire.Message) error {
	r := msg.Reader()
	id := r.Int32()
	counts := store.Counts{
		Programs:           r.Int32(),
		MidiPrograms:       r.Int32(),
		CustomData:         r.Int32(),
		CurrentProgram:     r.Int32(),
		CurrentMidiProgram: r.Int32(),
	}
	if err := r.Err(); err != nil {
		return err
	}

	if !c.store.SetCounts(id, counts) {
		c.missing(msg.Address, id)
	}
	return nil
}

func (c *Client) handleProgramCount(msg wire.Message) error {
	r := msg.Reader()
	id, progs, midiProgs := r.Int32(), r.Int32(), r.Int32()
	if err := r.Err(); err != nil {
		return err
	}

	if !c.store.SetProgramCounts(id, progs, midiProgs) {
		c.missing(msg.Address, id)
	}
	return nil
}

func (c *Client) handleProgram(msg wire.Message) error {
	r := msg.Reader()
	id, index, name := r.Int32(), r.Int32(), r.String()
	if err := r.Err(); err != nil {
		return err
	}

	c.store.SetProgramName(id, index, name)
	return nil
}

func (c *Client) handleMidiProgram(msg wire.Message) error {
	r := msg.Reader()
	id, index := r.Int32(), r.Int32()
	mp := store.MidiProgram{Bank: r.Int32(), Program: r.Int32(), Name: r.String()}
	if err := r.Err(); err != nil {
		return err
	}

	c.store.SetMidiProgram(id, index, mp)
	return nil
}

func (c *Client) handleCustomData(msg wire.Message) error {
	r := msg.Reader()
	id, index := r.Int32(), r.Int32()
	cd := store.CustomData{Type: r.Int32(), Key: r.String(), Value: r.String()}
	if err := r.Err(); err != nil {
		return err
	}

	c.store.SetCustomData(id, index, cd)
	return nil
}

func (c *Client) handleInternalParams(msg wire.Message) error {
	r := msg.Reader()
	id := r.Int32()
	in := store.Internal{
		Active:       r.Float32(),
		DryWet:       r.Float32(),
		Volume:       r.Float32(),
		BalanceLeft:  r.Float32(),
		BalanceRight: r.Float32(),
		Panning:      r.Float32(),
		CtrlChannel:  r.Float32(),
	}
	if err := r.Err(); err != nil {
		return err
	}

	if !c.store.Update(id, func(p *store.Plugin) { p.Internal = in }) {
		c.missing(msg.Address, id)
	}
	return nil
}

// handleResponse resolves the call that issued the correlation id. A
// response nobody is waiting for (the caller gave up) is dropped.
func (c *Client) handleResponse(msg wire.Message) error {
	r := msg.Reader()
	id, text := r.Int32(), r.String()
	if err := r.Err(); err != nil {
		return err
	}

	if !c.rpc.Resolve(id, text) {
		c.log.Debugw("dropping response with no waiting call", "id", id, "error", text)
		c.metrics.Dropped(metrics.ChannelReliable, metrics.DropLateResp)
	}
	return nil
}

func (c *Client) handleExit(msg wire.Message) error {
	if err := msg.Expect(""); err != nil {
		return err
	}
	c.engineExited("")
	return nil
}

func (c *Client) handleExitError(msg wire.Message) error {
	r := msg.Reader()
	text := r.String()
	if err := r.Err(); err != nil {
		return err
	}
	c.engineExited(text)
	return nil
}

// engineExited records a remote termination for the current poll step. Only
// the first one per session counts.
func (c *Client) engineExited(text string) {
	if c.exit != nil {
		return
	}
	c.exit = &text
	c.log.Infow("engine exited", "error", text)
}
