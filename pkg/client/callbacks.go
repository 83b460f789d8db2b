package client

import (
	"strconv"

	"github.com/sambigeara/enginectl/pkg/store"
	"github.com/sambigeara/enginectl/pkg/wire"
)

// Action is an engine callback opcode carried as the first argument of cb.
type Action int32

const (
	ActionDebug Action = iota
	ActionPluginAdded
	ActionPluginRemoved
	ActionPluginRenamed
	ActionPluginUnavailable
	ActionParameterValueChanged
	ActionParameterDefaultChanged
	ActionParameterMappedControlChanged
	ActionParameterMidiChannelChanged
	ActionOptionChanged
	ActionProgramChanged
	ActionMidiProgramChanged
	ActionUIStateChanged
	ActionNoteOn
	ActionNoteOff
	ActionUpdate
	ActionReloadInfo
	ActionReloadParameters
	ActionReloadPrograms
	ActionReloadAll
	ActionPatchbayClientAdded
	ActionPatchbayClientRemoved
	ActionPatchbayClientRenamed
	ActionPatchbayClientDataChanged
	ActionPatchbayPortAdded
	ActionPatchbayPortRemoved
	ActionPatchbayPortChanged
	ActionPatchbayConnectionAdded
	ActionPatchbayConnectionRemoved
	ActionEngineStarted
	ActionEngineStopped
	ActionProcessModeChanged
	ActionTransportModeChanged
	ActionBufferSizeChanged
	ActionSampleRateChanged
	ActionCancelableAction
	ActionProjectLoadFinished
	ActionNSM
	ActionIdle
	ActionInfo
	ActionError
	ActionQuit
)

var actionNames = [...]string{
	"debug",
	"plugin-added",
	"plugin-removed",
	"plugin-renamed",
	"plugin-unavailable",
	"parameter-value-changed",
	"parameter-default-changed",
	"parameter-mapped-control-changed",
	"parameter-midi-channel-changed",
	"option-changed",
	"program-changed",
	"midi-program-changed",
	"ui-state-changed",
	"note-on",
	"note-off",
	"update",
	"reload-info",
	"reload-parameters",
	"reload-programs",
	"reload-all",
	"patchbay-client-added",
	"patchbay-client-removed",
	"patchbay-client-renamed",
	"patchbay-client-data-changed",
	"patchbay-port-added",
	"patchbay-port-removed",
	"patchbay-port-changed",
	"patchbay-connection-added",
	"patchbay-connection-removed",
	"engine-started",
	"engine-stopped",
	"process-mode-changed",
	"transport-mode-changed",
	"buffer-size-changed",
	"sample-rate-changed",
	"cancelable-action",
	"project-load-finished",
	"nsm",
	"idle",
	"info",
	"error",
	"quit",
}

func (a Action) String() string {
	if a >= 0 && int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "action(" + strconv.Itoa(int(a)) + ")"
}

func (c *Client) handleCallback(msg wire.Message) error {
	r := msg.Reader()
	cb := Callback{
		Action:   Action(r.Int32()),
		PluginID: r.Int32(),
		Value1:   r.Int32(),
		Value2:   r.Int32(),
		Value3:   r.Int32(),
		ValueF:   r.Float32(),
		Text:     r.String(),
	}
	if err := r.Err(); err != nil {
		return err
	}

	c.applyCallback(cb)
	c.emit(Event{Kind: EventCallback, State: c.State(), Callback: cb})
	return nil
}

func (c *Client) applyCallback(cb Callback) {
	id := cb.PluginID

	switch cb.Action {
	case ActionPluginAdded:
		h := c.store.Add(id, cb.Text)
		c.log.Debugw("plugin added", "plugin", id, "name", cb.Text, "handle", h)
	case ActionPluginRemoved:
		if !c.store.Remove(id) {
			c.missing("cb/"+cb.Action.String(), id)
		}
	case ActionPluginRenamed:
		c.store.Rename(id, cb.Text)
	case ActionPluginUnavailable:
		c.log.Infow("plugin unavailable", "plugin", id, "reason", cb.Text)

	case ActionParameterValueChanged:
		c.store.SetParamValue(id, cb.Value1, cb.ValueF)
	case ActionParameterDefaultChanged:
		c.store.SetParamDefault(id, cb.Value1, cb.ValueF)
	case ActionParameterMappedControlChanged:
		c.store.SetParamMappedControl(id, cb.Value1, cb.Value2)
	case ActionParameterMidiChannelChanged:
		c.store.SetParamMidiChannel(id, cb.Value1, cb.Value2)
	case ActionOptionChanged:
		c.store.Update(id, func(p *store.Plugin) {
			if cb.Value2 != 0 {
				p.OptionsEnabled |= cb.Value1
			} else {
				p.OptionsEnabled &^= cb.Value1
			}
		})
	case ActionProgramChanged:
		c.store.SetCurrentProgram(id, cb.Value1)
	case ActionMidiProgramChanged:
		c.store.SetCurrentMidiProgram(id, cb.Value1)

	case ActionReloadInfo, ActionReloadParameters, ActionReloadPrograms, ActionReloadAll, ActionUpdate:
		c.log.Debugw("plugin reload announced", "plugin", id, "action", cb.Action)

	case ActionPatchbayClientAdded:
		c.store.AddPatchbayClient(store.PatchbayClient{ID: id, Icon: cb.Value1, PluginID: cb.Value2, Name: cb.Text})
	case ActionPatchbayClientRemoved:
		c.store.RemovePatchbayClient(id)
	case ActionPatchbayClientRenamed:
		c.store.RenamePatchbayClient(id, cb.Text)
	case ActionPatchbayClientDataChanged:
		c.store.UpdatePatchbayClient(id, func(pc *store.PatchbayClient) {
			pc.Icon = cb.Value1
			pc.PluginID = cb.Value2
		})
	case ActionPatchbayPortAdded, ActionPatchbayPortChanged:
		c.store.SetPatchbayPort(store.PatchbayPort{
			ClientID: id,
			PortID:   cb.Value1,
			Hints:    cb.Value2,
			Group:    cb.Value3,
			Name:     cb.Text,
		})
	case ActionPatchbayPortRemoved:
		c.store.RemovePatchbayPort(id, cb.Value1)
	case ActionPatchbayConnectionAdded:
		conn, err := store.ParseConnection(id, cb.Text)
		if err != nil {
			c.log.Debugw("ignoring malformed patchbay connection", "err", err)
			return
		}
		c.store.AddPatchbayConnection(conn)
	case ActionPatchbayConnectionRemoved:
		c.store.RemovePatchbayConnection(id)

	case ActionEngineStarted:
		c.store.UpdateEngine(func(e *store.Engine) {
			e.Running = true
			e.ProcessMode = cb.Value1
			e.TransportMode = cb.Value2
			e.BufferSize = cb.Value3
			e.SampleRate = cb.ValueF
			e.Driver = cb.Text
		})
	case ActionEngineStopped:
		c.store.UpdateEngine(func(e *store.Engine) { e.Running = false })
	case ActionProcessModeChanged:
		c.store.UpdateEngine(func(e *store.Engine) { e.ProcessMode = cb.Value1 })
	case ActionTransportModeChanged:
		c.store.UpdateEngine(func(e *store.Engine) { e.TransportMode = cb.Value1 })
	case ActionBufferSizeChanged:
		c.store.UpdateEngine(func(e *store.Engine) { e.BufferSize = cb.Value1 })
	case ActionSampleRateChanged:
		c.store.UpdateEngine(func(e *store.Engine) { e.SampleRate = cb.ValueF })

	case ActionInfo:
		c.log.Infow("engine info", "text", cb.Text)
	case ActionError:
		c.log.Warnw("engine error", "text", cb.Text)
	case ActionQuit:
		c.log.Infow("engine quitting")
	}
}
