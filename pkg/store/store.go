package store

import (
	"slices"
	"sync"

	"go.uber.org/zap"
)

type CountKind int

const (
	CountParameters CountKind = iota
	CountPrograms
	CountMidiPrograms
	CountCustomData
)

func (k CountKind) String() string {
	switch k {
	case CountParameters:
		return "parameters"
	case CountPrograms:
		return "programs"
	case CountMidiPrograms:
		return "midi_programs"
	case CountCustomData:
		return "custom_data"
	default:
		return "unknown"
	}
}

// Store is the client-side shadow of the engine's plugin state. Records live
// in a dense slice indexed by PluginID. Every read returns a deep copy taken
// under the read lock, so a count replacement is never observed half-applied.
type Store struct {
	log        *zap.SugaredLogger
	plugins    []*Plugin
	patchbay   patchbay
	runtime    Runtime
	engine     Engine
	mu         sync.RWMutex
	nextHandle Handle
}

func New() *Store {
	return &Store{
		log:      zap.S().Named("store"),
		patchbay: newPatchbay(),
	}
}

// Add creates the record for id. An id equal to Len appends; an existing id
// is replaced by a fresh record; ids beyond the end are padded so the slice
// stays dense.
func (s *Store) Add(id PluginID, name string) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id < 0 {
		s.log.Debugw("ignoring add for negative plugin id", "id", id)
		return 0
	}

	for PluginID(len(s.plugins)) < id {
		pad := PluginID(len(s.plugins))
		s.log.Warnw("plugin added past end, padding", "id", id, "pad", pad)
		s.plugins = append(s.plugins, newPlugin(pad, s.allocHandle(), ""))
	}

	p := newPlugin(id, s.allocHandle(), name)
	if id == PluginID(len(s.plugins)) {
		s.plugins = append(s.plugins, p)
	} else {
		s.plugins[id] = p
	}
	return p.Handle
}

func (s *Store) allocHandle() Handle {
	s.nextHandle++
	return s.nextHandle
}

// Remove deletes id and shifts every later record down by one, renumbering
// them. Patchbay clients owned by a later plugin follow the renumbering;
// those owned by id are detached. Handles are unchanged.
func (s *Store) Remove(id PluginID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.validLocked(id) {
		return false
	}

	s.plugins = slices.Delete(s.plugins, int(id), int(id)+1)
	for i := int(id); i < len(s.plugins); i++ {
		s.plugins[i].ID = PluginID(i)
	}
	s.patchbay.pluginRemoved(id)
	return true
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.plugins = nil
	s.patchbay = newPatchbay()
	s.runtime = Runtime{}
	s.engine = Engine{}
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.plugins)
}

func (s *Store) Get(id PluginID) (Plugin, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.validLocked(id) {
		return Plugin{}, false
	}
	return s.plugins[id].clone(), true
}

func (s *Store) Lookup(h Handle) (Plugin, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.plugins {
		if p.Handle == h {
			return p.clone(), true
		}
	}
	return Plugin{}, false
}

// Resolve returns the current id of the record behind h.
func (s *Store) Resolve(h Handle) (PluginID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.plugins {
		if p.Handle == h {
			return p.ID, true
		}
	}
	return 0, false
}

func (s *Store) List() []Plugin {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Plugin, 0, len(s.plugins))
	for _, p := range s.plugins {
		out = append(out, p.clone())
	}
	return out
}

// Update applies fn to the record for id under the write lock. fn must not
// retain p.
func (s *Store) Update(id PluginID, fn func(p *Plugin)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.validLocked(id) {
		return false
	}
	fn(s.plugins[id])
	return true
}

func (s *Store) Rename(id PluginID, name string) bool {
	return s.Update(id, func(p *Plugin) { p.Name = name })
}

// SetCount replaces the array of the given kind with n default entries.
func (s *Store) SetCount(id PluginID, kind CountKind, n int32) bool {
	return s.Update(id, func(p *Plugin) { p.resize(kind, n) })
}

// Counts is one count message: the program, MIDI program and custom data
// array sizes plus the current selections.
type Counts struct {
	Programs           int32
	MidiPrograms       int32
	CustomData         int32
	CurrentProgram     int32
	CurrentMidiProgram int32
}

// SetCounts applies c as a single replacement. Out of range selections are
// ignored, leaving the previous (possibly reset) value.
func (s *Store) SetCounts(id PluginID, c Counts) bool {
	return s.Update(id, func(p *Plugin) {
		p.resize(CountPrograms, c.Programs)
		p.resize(CountMidiPrograms, c.MidiPrograms)
		p.resize(CountCustomData, c.CustomData)
		if c.CurrentProgram >= -1 && int(c.CurrentProgram) < len(p.Programs) {
			p.CurrentProgram = c.CurrentProgram
		}
		if c.CurrentMidiProgram >= -1 && int(c.CurrentMidiProgram) < len(p.MidiPrograms) {
			p.CurrentMidiProgram = c.CurrentMidiProgram
		}
	})
}

// SetProgramCounts resizes both program arrays together.
func (s *Store) SetProgramCounts(id PluginID, progs, midiProgs int32) bool {
	return s.Update(id, func(p *Plugin) {
		p.resize(CountPrograms, progs)
		p.resize(CountMidiPrograms, midiProgs)
	})
}

// SetPorts records the port counts and resets the parameter array to
// ports.ParamTotal entries in the same update.
func (s *Store) SetPorts(id PluginID, ports Ports) bool {
	return s.Update(id, func(p *Plugin) {
		p.Ports = ports
		p.resize(CountParameters, ports.ParamTotal)
	})
}

func (s *Store) validLocked(id PluginID) bool {
	return id >= 0 && int(id) < len(s.plugins)
}

// updateParam applies fn to parameter index of id if it is within the
// advertised count.
func (s *Store) updateParam(id PluginID, index int32, fn func(p *Parameter)) bool {
	applied := false
	s.Update(id, func(p *Plugin) {
		if index < 0 || int(index) >= len(p.Params) {
			return
		}
		fn(&p.Params[index])
		applied = true
	})
	return applied
}

func (s *Store) SetParamInfo(id PluginID, index int32, info ParamInfo) bool {
	return s.updateParam(id, index, func(p *Parameter) { p.Info = info })
}

func (s *Store) SetParamData(id PluginID, index int32, data ParamData, value float32) bool {
	return s.updateParam(id, index, func(p *Parameter) {
		p.Data = data
		p.Value = value
	})
}

func (s *Store) SetParamRanges(id PluginID, index int32, r ParamRanges) bool {
	return s.updateParam(id, index, func(p *Parameter) { p.Ranges = r })
}

// SetParamValue sets a parameter's current value. Negative indices address
// the built-in controls.
func (s *Store) SetParamValue(id PluginID, index int32, v float32) bool {
	if index < 0 {
		applied := false
		s.Update(id, func(p *Plugin) { applied = p.setInternal(index, v) })
		return applied
	}
	return s.updateParam(id, index, func(p *Parameter) { p.Value = v })
}

func (s *Store) SetParamDefault(id PluginID, index int32, v float32) bool {
	return s.updateParam(id, index, func(p *Parameter) { p.Ranges.Def = v })
}

func (s *Store) SetParamMidiChannel(id PluginID, index, channel int32) bool {
	return s.updateParam(id, index, func(p *Parameter) { p.Data.MidiChannel = channel })
}

func (s *Store) SetParamMappedControl(id PluginID, index, control int32) bool {
	return s.updateParam(id, index, func(p *Parameter) { p.Data.MappedControl = control })
}

func (s *Store) SetProgramName(id PluginID, index int32, name string) bool {
	applied := false
	s.Update(id, func(p *Plugin) {
		if index < 0 || int(index) >= len(p.Programs) {
			return
		}
		p.Programs[index] = name
		applied = true
	})
	return applied
}

func (s *Store) SetMidiProgram(id PluginID, index int32, mp MidiProgram) bool {
	applied := false
	s.Update(id, func(p *Plugin) {
		if index < 0 || int(index) >= len(p.MidiPrograms) {
			return
		}
		p.MidiPrograms[index] = mp
		applied = true
	})
	return applied
}

func (s *Store) SetCustomData(id PluginID, index int32, cd CustomData) bool {
	applied := false
	s.Update(id, func(p *Plugin) {
		if index < 0 || int(index) >= len(p.CustomData) {
			return
		}
		p.CustomData[index] = cd
		applied = true
	})
	return applied
}

// SetCurrentProgram accepts -1 (none) or an index below the program count.
func (s *Store) SetCurrentProgram(id PluginID, index int32) bool {
	applied := false
	s.Update(id, func(p *Plugin) {
		if index < -1 || int(index) >= len(p.Programs) {
			return
		}
		p.CurrentProgram = index
		applied = true
	})
	return applied
}

func (s *Store) SetCurrentMidiProgram(id PluginID, index int32) bool {
	applied := false
	s.Update(id, func(p *Plugin) {
		if index < -1 || int(index) >= len(p.MidiPrograms) {
			return
		}
		p.CurrentMidiProgram = index
		applied = true
	})
	return applied
}

func (s *Store) SetPeaks(id PluginID, peaks [4]float32) bool {
	return s.Update(id, func(p *Plugin) { p.Peaks = peaks })
}
