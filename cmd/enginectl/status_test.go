package main

import (
	"bytes"
	"testing"

	"github.com/sambigeara/enginectl/pkg/client"
	"github.com/sambigeara/enginectl/pkg/store"
	"github.com/stretchr/testify/require"
)

func testSnapshot() store.Snapshot {
	return store.Snapshot{
		Engine:  store.Engine{Running: true, Driver: "JACK", SampleRate: 48000, BufferSize: 256},
		Runtime: store.Runtime{Playing: true, Bar: 4, Beat: 2, BPM: 120},
		Plugins: []store.Plugin{
			{ID: 0, Name: "Synth", Maker: "ACME", Programs: []string{"Init", "Lead"}, CurrentProgram: 1, Filename: "/lib/synth.so"},
			{ID: 1, Name: "Reverb", CurrentProgram: -1},
		},
		Patchbay: store.Patchbay{
			Clients:     []store.PatchbayClient{{ID: 1, Name: "system"}, {ID: 2, Name: "Synth"}},
			Ports:       []store.PatchbayPort{{ClientID: 2, PortID: 1, Name: "out_1"}},
			Connections: []store.PatchbayConnection{{ID: 7, GroupA: 2, PortA: 1, GroupB: 1, PortB: 3}},
		},
	}
}

func TestCollectPluginsSection(t *testing.T) {
	sec := collectPluginsSection(testSnapshot(), false)
	require.Len(t, sec.rows, 2)
	require.Equal(t, []string{"0", "Synth", "ACME", "Lead", "0.00"}, sec.rows[0])
	require.Equal(t, "-", sec.rows[1][2])
	require.Equal(t, "-", sec.rows[1][3])

	wide := collectPluginsSection(testSnapshot(), true)
	require.Len(t, wide.headers, 7)
	require.Equal(t, "/lib/synth.so", wide.rows[0][6])
}

func TestCollectPatchbaySectionNamesEndpoints(t *testing.T) {
	sec := collectPatchbaySection(testSnapshot())
	require.Equal(t, [][]string{{"7", "Synth:out_1", "system:3"}}, sec.rows)
}

func TestEngineSectionFooter(t *testing.T) {
	sec := collectEngineSection(testSnapshot())
	require.Equal(t, "JACK", sec.rows[0][0])
	require.Contains(t, sec.footer, "bar 4 beat 2")
}

func TestRenderStatusSections(t *testing.T) {
	var buf bytes.Buffer
	renderStatusSections(&buf, []statusSection{collectEngineSection(testSnapshot())})
	require.Contains(t, buf.String(), "ENGINE")
	require.Contains(t, buf.String(), "JACK")
}

func TestPrintEvent(t *testing.T) {
	var buf bytes.Buffer
	require.False(t, printEvent(&buf, client.Event{Kind: client.EventCallback, Callback: client.Callback{Action: client.ActionPluginAdded, Text: "Synth"}}))
	require.Contains(t, buf.String(), "plugin-added")

	require.True(t, printEvent(&buf, client.Event{Kind: client.EventEngineExited, Text: "engine crashed"}))
	require.Contains(t, buf.String(), "engine exited: engine crashed")
}
