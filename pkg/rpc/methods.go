package rpc

type Kind int

const (
	// Acknowledged methods go to /ctrl/<name> with a correlation id and block
	// until the engine answers with /resp.
	Acknowledged Kind = iota
	// FireAndForget methods go to /<engine>/<plugin>/<name> and return
	// immediately.
	FireAndForget
)

func (k Kind) String() string {
	if k == FireAndForget {
		return "fire-and-forget"
	}
	return "acknowledged"
}

// Method describes one allowlisted command. Args is the OSC type tag string
// of the method's own arguments; for plugin-scoped acknowledged methods the
// plugin id is sent ahead of them and is not part of Args.
type Method struct {
	Name         string
	Args         string
	Kind         Kind
	PluginScoped bool
}

var methods = map[string]Method{}

func register(ms ...Method) {
	for _, m := range ms {
		methods[m.Name] = m
	}
}

func init() {
	register(
		Method{Name: "clear_engine_xruns"},
		Method{Name: "cancel_engine_action"},
		Method{Name: "patchbay_connect", Args: "iiiii"},
		Method{Name: "patchbay_disconnect", Args: "ii"},
		Method{Name: "patchbay_set_group_pos", Args: "iiiiii"},
		Method{Name: "patchbay_refresh", Args: "i"},
		Method{Name: "transport_play"},
		Method{Name: "transport_pause"},
		Method{Name: "transport_bpm", Args: "f"},
		Method{Name: "transport_relocate", Args: "h"},
		Method{Name: "add_plugin", Args: "iissshi"},
		Method{Name: "remove_plugin", PluginScoped: true},
		Method{Name: "remove_all_plugins"},
		Method{Name: "rename_plugin", Args: "s", PluginScoped: true},
		Method{Name: "clone_plugin", PluginScoped: true},
		Method{Name: "replace_plugin", PluginScoped: true},
		Method{Name: "switch_plugins", Args: "ii"},
		Method{Name: "load_file", Args: "s"},
		Method{Name: "load_project", Args: "s"},
		Method{Name: "save_project", Args: "s"},
		Method{Name: "clear_project_filename"},
		Method{Name: "prepare_for_save", PluginScoped: true},
		Method{Name: "reset_parameters", PluginScoped: true},
		Method{Name: "randomize_parameters", PluginScoped: true},
		Method{Name: "set_option", Args: "ii", PluginScoped: true},
	)

	ff := func(name, args string) Method {
		return Method{Name: name, Args: args, Kind: FireAndForget, PluginScoped: true}
	}
	register(
		ff("set_active", "i"),
		ff("set_drywet", "f"),
		ff("set_volume", "f"),
		ff("set_balance_left", "f"),
		ff("set_balance_right", "f"),
		ff("set_panning", "f"),
		ff("set_ctrl_channel", "i"),
		ff("set_parameter_value", "if"),
		ff("set_parameter_midi_channel", "ii"),
		ff("set_parameter_mapped_control_index", "ii"),
		ff("set_program", "i"),
		ff("set_midi_program", "i"),
		ff("note_on", "iii"),
		ff("note_off", "ii"),
	)
}

func Lookup(name string) (Method, bool) {
	m, ok := methods[name]
	return m, ok
}

// Methods returns every allowlisted method.
func Methods() []Method {
	out := make([]Method, 0, len(methods))
	for _, m := range methods {
		out = append(out, m)
	}
	return out
}
