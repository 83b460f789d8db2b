package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreWith(t *testing.T, names ...string) *Store {
	t.Helper()
	s := New()
	for i, n := range names {
		s.Add(PluginID(i), n)
	}
	require.Equal(t, len(names), s.Len())
	return s
}

func TestCountReplacesArrays(t *testing.T) {
	tests := []struct {
		counts []int32
	}{
		{counts: []int32{3}},
		{counts: []int32{5, 2}},
		{counts: []int32{2, 6}},
		{counts: []int32{4, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.counts), func(t *testing.T) {
			s := newStoreWith(t, "synth")

			for _, n := range tt.counts {
				require.True(t, s.SetCount(0, CountPrograms, n))
				require.True(t, s.SetCount(0, CountParameters, n))
				// fill past the advertised count; the extra writes must be dropped
				for i := int32(0); i < n+2; i++ {
					applied := s.SetProgramName(0, i, fmt.Sprintf("p%d", i))
					assert.Equal(t, i < n, applied)
					applied = s.SetParamInfo(0, i, ParamInfo{Name: fmt.Sprintf("param%d", i)})
					assert.Equal(t, i < n, applied)
				}
			}

			last := tt.counts[len(tt.counts)-1]
			p, ok := s.Get(0)
			require.True(t, ok)
			require.Len(t, p.Programs, int(last))
			require.Len(t, p.Params, int(last))
			for i := range last {
				assert.Equal(t, fmt.Sprintf("p%d", i), p.Programs[i])
				assert.Equal(t, fmt.Sprintf("param%d", i), p.Params[i].Info.Name)
			}
		})
	}
}

func TestCountResetsEntriesToDefaults(t *testing.T) {
	s := newStoreWith(t, "synth")

	require.True(t, s.SetCount(0, CountParameters, 2))
	require.True(t, s.SetParamRanges(0, 1, ParamRanges{Min: -10, Max: 10}))
	require.True(t, s.SetParamValue(0, 1, 3))

	require.True(t, s.SetCount(0, CountParameters, 2))
	p, _ := s.Get(0)
	assert.Equal(t, defaultParameter(), p.Params[1])
	assert.Equal(t, int32(-1), p.Params[1].Data.MappedControl)
}

func TestProgramScenario(t *testing.T) {
	s := newStoreWith(t, "synth")

	require.True(t, s.SetCount(0, CountPrograms, 3))
	s.SetProgramName(0, 0, "Init")
	s.SetProgramName(0, 1, "Lead")
	s.SetProgramName(0, 2, "Pad")

	p, _ := s.Get(0)
	assert.Equal(t, []string{"Init", "Lead", "Pad"}, p.Programs)
}

func TestCurrentProgramClampedOnShrink(t *testing.T) {
	s := newStoreWith(t, "synth")

	s.SetCount(0, CountPrograms, 4)
	require.True(t, s.SetCurrentProgram(0, 3))
	assert.False(t, s.SetCurrentProgram(0, 4))

	s.SetCount(0, CountPrograms, 2)
	p, _ := s.Get(0)
	assert.Equal(t, int32(-1), p.CurrentProgram)
}

func TestSetCountsAppliesTogether(t *testing.T) {
	s := newStoreWith(t, "synth")

	require.True(t, s.SetCounts(0, Counts{Programs: 3, MidiPrograms: 2, CustomData: 1, CurrentProgram: 2, CurrentMidiProgram: 1}))
	p, _ := s.Get(0)
	assert.Len(t, p.Programs, 3)
	assert.Len(t, p.MidiPrograms, 2)
	assert.Len(t, p.CustomData, 1)
	assert.Equal(t, int32(2), p.CurrentProgram)
	assert.Equal(t, int32(1), p.CurrentMidiProgram)

	// shrinking resets the selection; an out of range one is not applied
	require.True(t, s.SetCounts(0, Counts{Programs: 1, MidiPrograms: 1, CurrentProgram: 5, CurrentMidiProgram: 0}))
	p, _ = s.Get(0)
	assert.Equal(t, int32(-1), p.CurrentProgram)
	assert.Equal(t, int32(0), p.CurrentMidiProgram)
	assert.Empty(t, p.CustomData)

	assert.False(t, s.SetCounts(1, Counts{Programs: 1}))
}

func TestSetPortsResizesParams(t *testing.T) {
	s := newStoreWith(t, "synth")

	require.True(t, s.SetPorts(0, Ports{AudioIns: 2, AudioOuts: 2, ParamIns: 3, ParamTotal: 4}))
	p, _ := s.Get(0)
	assert.Equal(t, int32(2), p.Ports.AudioIns)
	require.Len(t, p.Params, 4)
	assert.Equal(t, defaultParameter(), p.Params[3])

	assert.False(t, s.SetPorts(3, Ports{ParamTotal: 1}))
}

func TestRemoveRenumbersPatchbayOwners(t *testing.T) {
	s := newStoreWith(t, "a", "b", "c")
	s.AddPatchbayClient(PatchbayClient{ID: 1, Name: "system", PluginID: -1})
	s.AddPatchbayClient(PatchbayClient{ID: 2, Name: "a", PluginID: 0})
	s.AddPatchbayClient(PatchbayClient{ID: 3, Name: "b", PluginID: 1})
	s.AddPatchbayClient(PatchbayClient{ID: 4, Name: "c", PluginID: 2})

	require.True(t, s.Remove(1))

	owners := map[string]PluginID{}
	for _, c := range s.Patchbay().Clients {
		owners[c.Name] = c.PluginID
	}
	assert.Equal(t, map[string]PluginID{"system": -1, "a": 0, "b": -1, "c": 1}, owners)

	c, _ := s.Get(1)
	assert.Equal(t, "c", c.Name)
}

func TestRemoveCompactsAndRenumbers(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e"}
	for k := range names {
		t.Run(names[k], func(t *testing.T) {
			s := newStoreWith(t, names...)
			before := s.List()

			require.True(t, s.Remove(PluginID(k)))
			require.Equal(t, len(names)-1, s.Len())

			for j := range names {
				switch {
				case j < k:
					p, ok := s.Get(PluginID(j))
					require.True(t, ok)
					assert.Equal(t, names[j], p.Name)
					assert.Equal(t, PluginID(j), p.ID)
				case j > k:
					p, ok := s.Get(PluginID(j - 1))
					require.True(t, ok)
					assert.Equal(t, names[j], p.Name)
					assert.Equal(t, PluginID(j-1), p.ID)
					assert.Equal(t, before[j].Handle, p.Handle)
				}
			}
			_, ok := s.Get(PluginID(len(names) - 1))
			assert.False(t, ok)
		})
	}
}

func TestHandlesSurviveCompaction(t *testing.T) {
	s := newStoreWith(t, "a", "b", "c")
	c, _ := s.Get(2)

	id, ok := s.Resolve(c.Handle)
	require.True(t, ok)
	assert.Equal(t, PluginID(2), id)

	s.Remove(0)
	id, ok = s.Resolve(c.Handle)
	require.True(t, ok)
	assert.Equal(t, PluginID(1), id)

	got, ok := s.Lookup(c.Handle)
	require.True(t, ok)
	assert.Equal(t, "c", got.Name)

	a, _ := s.Get(0)
	s.Remove(0)
	s.Remove(0)
	_, ok = s.Resolve(a.Handle)
	assert.False(t, ok)

	h := s.Add(0, "new")
	assert.NotEqual(t, c.Handle, h, "handles are never reused")
}

func TestRemoveUnknown(t *testing.T) {
	s := newStoreWith(t, "a")
	assert.False(t, s.Remove(1))
	assert.False(t, s.Remove(-1))
	assert.Equal(t, 1, s.Len())
}

func TestAddPadsGaps(t *testing.T) {
	s := New()
	s.Add(2, "late")
	require.Equal(t, 3, s.Len())
	p, _ := s.Get(2)
	assert.Equal(t, "late", p.Name)
	p, _ = s.Get(0)
	assert.Equal(t, PluginID(0), p.ID)
}

func TestReplayIsIdempotent(t *testing.T) {
	apply := func(s *Store) {
		s.Update(0, func(p *Plugin) {
			p.Type = 4
			p.Name = "Reverb"
			p.UniqueID = 1234
		})
		s.Update(0, func(p *Plugin) { p.Ports = Ports{AudioIns: 2, AudioOuts: 2, ParamTotal: 1} })
		s.SetParamData(0, 0, ParamData{Type: 1, Hints: 0x1, MidiChannel: 2, MappedControl: 7, MappedMax: 1}, 0.5)
	}

	once := newStoreWith(t, "x")
	once.SetCount(0, CountParameters, 1)
	apply(once)

	twice := newStoreWith(t, "x")
	twice.SetCount(0, CountParameters, 1)
	apply(twice)
	apply(twice)

	a, _ := once.Get(0)
	b, _ := twice.Get(0)
	assert.Equal(t, a, b)
}

func TestGetReturnsCopy(t *testing.T) {
	s := newStoreWith(t, "a")
	s.SetCount(0, CountPrograms, 1)
	s.SetProgramName(0, 0, "orig")

	p, _ := s.Get(0)
	p.Programs[0] = "mutated"

	again, _ := s.Get(0)
	assert.Equal(t, "orig", again.Programs[0])
}

func TestInternalParameters(t *testing.T) {
	s := newStoreWith(t, "a")

	assert.True(t, s.SetParamValue(0, ParamVolume, 0.5))
	assert.True(t, s.SetParamValue(0, ParamPanning, -0.25))
	assert.False(t, s.SetParamValue(0, -42, 1))

	p, _ := s.Get(0)
	assert.Equal(t, float32(0.5), p.Internal.Volume)
	assert.Equal(t, float32(-0.25), p.Internal.Panning)
}

func TestConcurrentReadsNeverTorn(t *testing.T) {
	s := newStoreWith(t, "a")

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range 2000 {
			n := int32(i%7 + 1)
			s.SetPorts(0, Ports{ParamTotal: n})
			s.SetCounts(0, Counts{Programs: n, MidiPrograms: n, CustomData: n, CurrentProgram: n - 1, CurrentMidiProgram: n - 1})
		}
		close(stop)
	}()

	for {
		select {
		case <-stop:
			wg.Wait()
			return
		default:
		}
		p, ok := s.Get(0)
		require.True(t, ok)
		require.Len(t, p.Params, int(p.Ports.ParamTotal))
		require.Len(t, p.MidiPrograms, len(p.Programs))
		require.Len(t, p.CustomData, len(p.Programs))
		require.Equal(t, int32(len(p.Programs))-1, p.CurrentProgram)
		require.Equal(t, p.CurrentProgram, p.CurrentMidiProgram)
	}
}

func TestClear(t *testing.T) {
	s := newStoreWith(t, "a", "b")
	s.SetRuntime(Runtime{Playing: true, BPM: 120})
	s.AddPatchbayClient(PatchbayClient{ID: 1, Name: "system"})

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, Runtime{}, s.Runtime())
	assert.Empty(t, s.Patchbay().Clients)
}

func TestPatchbay(t *testing.T) {
	s := New()
	s.AddPatchbayClient(PatchbayClient{ID: 2, Name: "synth"})
	s.AddPatchbayClient(PatchbayClient{ID: 1, Name: "system"})
	s.SetPatchbayPort(PatchbayPort{ClientID: 1, PortID: 1, Name: "playback_1"})
	s.SetPatchbayPort(PatchbayPort{ClientID: 2, PortID: 1, Name: "out_1"})

	conn, err := ParseConnection(5, "2:1:1:1")
	require.NoError(t, err)
	s.AddPatchbayConnection(conn)

	pb := s.Patchbay()
	require.Len(t, pb.Clients, 2)
	assert.Equal(t, int32(1), pb.Clients[0].ID)
	require.Len(t, pb.Connections, 1)
	assert.Equal(t, PatchbayConnection{ID: 5, GroupA: 2, PortA: 1, GroupB: 1, PortB: 1}, pb.Connections[0])

	require.True(t, s.RenamePatchbayClient(2, "synth 2"))
	s.RemovePatchbayClient(2)
	pb = s.Patchbay()
	require.Len(t, pb.Clients, 1)
	require.Len(t, pb.Ports, 1)

	s.RemovePatchbayConnection(5)
	assert.Empty(t, s.Patchbay().Connections)

	_, err = ParseConnection(6, "1:2:3")
	require.Error(t, err)
	_, err = ParseConnection(6, "1:x:3:4")
	require.Error(t, err)
}

func TestRename(t *testing.T) {
	s := newStoreWith(t, "synth")
	require.True(t, s.Rename(0, "lead"))
	require.False(t, s.Rename(3, "nobody"))

	p, _ := s.Get(0)
	require.Equal(t, "lead", p.Name)
}
