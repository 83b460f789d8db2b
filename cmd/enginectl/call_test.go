package main

import (
	"bytes"
	"testing"

	"github.com/sambigeara/enginectl/pkg/rpc"
	"github.com/stretchr/testify/require"
)

func TestParseCallArgs(t *testing.T) {
	m, ok := rpc.Lookup("set_parameter_value")
	require.True(t, ok)

	id, args, err := parseCallArgs(m, []string{"2", "5", "0.5"})
	require.NoError(t, err)
	require.Equal(t, int32(2), id)
	require.Equal(t, []any{int32(5), float32(0.5)}, args)

	m, _ = rpc.Lookup("transport_relocate")
	id, args, err = parseCallArgs(m, []string{"96000"})
	require.NoError(t, err)
	require.Equal(t, rpc.NoPlugin, id)
	require.Equal(t, []any{int64(96000)}, args)

	m, _ = rpc.Lookup("load_project")
	_, args, err = parseCallArgs(m, []string{"/tmp/song.carxp"})
	require.NoError(t, err)
	require.Equal(t, []any{"/tmp/song.carxp"}, args)
}

func TestParseCallArgsErrors(t *testing.T) {
	tests := []struct {
		method string
		args   []string
	}{
		{method: "rename_plugin", args: nil},
		{method: "rename_plugin", args: []string{"-1", "x"}},
		{method: "transport_bpm", args: []string{"fast"}},
		{method: "transport_bpm", args: []string{"120", "4"}},
		{method: "note_on", args: []string{"0", "0", "60"}},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			m, ok := rpc.Lookup(tt.method)
			require.True(t, ok)
			_, _, err := parseCallArgs(m, tt.args)
			require.ErrorIs(t, err, errUsage)
		})
	}
}

func TestPrintMethodsSorted(t *testing.T) {
	var buf bytes.Buffer
	printMethods(&buf)

	out := buf.String()
	require.Contains(t, out, "add_plugin")
	require.Contains(t, out, "<plugin> if")
	require.Less(t, bytes.Index(buf.Bytes(), []byte("add_plugin")), bytes.Index(buf.Bytes(), []byte("transport_play")))
}
