package rpc

import "context"

// AddPluginRequest mirrors the add_plugin argument list.
type AddPluginRequest struct {
	BinaryType int32
	PluginType int32
	Filename   string
	Name       string
	Label      string
	UniqueID   int64
	Options    int32
}

func (f *Facade) AddPlugin(ctx context.Context, r AddPluginRequest) error {
	return f.Call(ctx, "add_plugin", NoPlugin,
		r.BinaryType, r.PluginType, r.Filename, r.Name, r.Label, r.UniqueID, r.Options)
}

func (f *Facade) RemovePlugin(ctx context.Context, pluginID int32) error {
	return f.Call(ctx, "remove_plugin", pluginID)
}

func (f *Facade) RemoveAllPlugins(ctx context.Context) error {
	return f.Call(ctx, "remove_all_plugins", NoPlugin)
}

func (f *Facade) RenamePlugin(ctx context.Context, pluginID int32, name string) error {
	return f.Call(ctx, "rename_plugin", pluginID, name)
}

func (f *Facade) ClonePlugin(ctx context.Context, pluginID int32) error {
	return f.Call(ctx, "clone_plugin", pluginID)
}

func (f *Facade) ReplacePlugin(ctx context.Context, pluginID int32) error {
	return f.Call(ctx, "replace_plugin", pluginID)
}

func (f *Facade) SwitchPlugins(ctx context.Context, a, b int32) error {
	return f.Call(ctx, "switch_plugins", NoPlugin, a, b)
}

func (f *Facade) SetOption(ctx context.Context, pluginID, option int32, enabled bool) error {
	return f.Call(ctx, "set_option", pluginID, option, boolInt(enabled))
}

func (f *Facade) PatchbayConnect(ctx context.Context, external bool, groupA, portA, groupB, portB int32) error {
	return f.Call(ctx, "patchbay_connect", NoPlugin, boolInt(external), groupA, portA, groupB, portB)
}

func (f *Facade) PatchbayDisconnect(ctx context.Context, external bool, connID int32) error {
	return f.Call(ctx, "patchbay_disconnect", NoPlugin, boolInt(external), connID)
}

func (f *Facade) PatchbayRefresh(ctx context.Context, external bool) error {
	return f.Call(ctx, "patchbay_refresh", NoPlugin, boolInt(external))
}

func (f *Facade) TransportPlay(ctx context.Context) error {
	return f.Call(ctx, "transport_play", NoPlugin)
}

func (f *Facade) TransportPause(ctx context.Context) error {
	return f.Call(ctx, "transport_pause", NoPlugin)
}

func (f *Facade) TransportBPM(ctx context.Context, bpm float32) error {
	return f.Call(ctx, "transport_bpm", NoPlugin, bpm)
}

func (f *Facade) TransportRelocate(ctx context.Context, frame int64) error {
	return f.Call(ctx, "transport_relocate", NoPlugin, frame)
}

func (f *Facade) LoadFile(ctx context.Context, path string) error {
	return f.Call(ctx, "load_file", NoPlugin, path)
}

func (f *Facade) LoadProject(ctx context.Context, path string) error {
	return f.Call(ctx, "load_project", NoPlugin, path)
}

func (f *Facade) SaveProject(ctx context.Context, path string) error {
	return f.Call(ctx, "save_project", NoPlugin, path)
}

func (f *Facade) ClearEngineXruns(ctx context.Context) error {
	return f.Call(ctx, "clear_engine_xruns", NoPlugin)
}

// Fire-and-forget setters. These return once the message is handed to the
// reliable channel.

func (f *Facade) SetActive(pluginID int32, active bool) error {
	return f.Call(context.Background(), "set_active", pluginID, boolInt(active))
}

func (f *Facade) SetVolume(pluginID int32, v float32) error {
	return f.Call(context.Background(), "set_volume", pluginID, v)
}

func (f *Facade) SetDryWet(pluginID int32, v float32) error {
	return f.Call(context.Background(), "set_drywet", pluginID, v)
}

func (f *Facade) SetPanning(pluginID int32, v float32) error {
	return f.Call(context.Background(), "set_panning", pluginID, v)
}

func (f *Facade) SetParameterValue(pluginID, paramID int32, v float32) error {
	return f.Call(context.Background(), "set_parameter_value", pluginID, paramID, v)
}

func (f *Facade) SetProgram(pluginID, index int32) error {
	return f.Call(context.Background(), "set_program", pluginID, index)
}

func (f *Facade) SetMidiProgram(pluginID, index int32) error {
	return f.Call(context.Background(), "set_midi_program", pluginID, index)
}

func (f *Facade) NoteOn(pluginID, channel, note, velocity int32) error {
	return f.Call(context.Background(), "note_on", pluginID, channel, note, velocity)
}

func (f *Facade) NoteOff(pluginID, channel, note int32) error {
	return f.Call(context.Background(), "note_off", pluginID, channel, note)
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
