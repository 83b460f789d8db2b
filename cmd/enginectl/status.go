package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sambigeara/enginectl/pkg/store"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [engine|plugins|patchbay]",
		Short: "Show the engine's state",
		Args:  cobra.RangeArgs(0, 1),
		RunE:  runStatus,
	}
	cmd.Flags().Bool("wide", false, "Show filenames and parameter counts")
	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	mode := "all"
	if len(args) == 1 {
		mode = args[0]
	}
	wide, _ := cmd.Flags().GetBool("wide")

	ctx, s, cleanup, err := connect(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	awaitSync(ctx, cmd)

	snap := s.client.Store().Snapshot()
	var sections []statusSection
	switch mode {
	case "all":
		sections = append(sections, collectEngineSection(snap))
		if sec := collectPluginsSection(snap, wide); len(sec.rows) > 0 {
			sections = append(sections, sec)
		}
		if sec := collectPatchbaySection(snap); len(sec.rows) > 0 {
			sections = append(sections, sec)
		}
	case "engine":
		sections = append(sections, collectEngineSection(snap))
	case "plugins", "plugin":
		sections = append(sections, collectPluginsSection(snap, wide))
	case "patchbay", "connections":
		sections = append(sections, collectPatchbaySection(snap))
	default:
		return fmt.Errorf("unknown status selector %q (use: engine|plugins|patchbay)", mode)
	}
	renderStatusSections(cmd.OutOrStdout(), sections)
	return nil
}

type statusSection struct {
	title   string
	headers []string
	rows    [][]string
	footer  string
}

func collectEngineSection(snap store.Snapshot) statusSection {
	sec := statusSection{
		title:   "ENGINE",
		headers: []string{"DRIVER", "RUNNING", "RATE", "BUFFER", "BPM", "LOAD", "XRUNS"},
	}

	driver := snap.Engine.Driver
	if driver == "" {
		driver = "-"
	}
	sec.rows = append(sec.rows, []string{
		driver,
		strconv.FormatBool(snap.Engine.Running),
		fmt.Sprintf("%.0f", snap.Engine.SampleRate),
		strconv.Itoa(int(snap.Engine.BufferSize)),
		fmt.Sprintf("%.1f", snap.Runtime.BPM),
		fmt.Sprintf("%.0f%%", snap.Runtime.Load),
		strconv.Itoa(int(snap.Runtime.Xruns)),
	})
	if snap.Runtime.Playing {
		sec.footer = fmt.Sprintf("playing at bar %d beat %d", snap.Runtime.Bar, snap.Runtime.Beat)
	}
	return sec
}

func collectPluginsSection(snap store.Snapshot, wide bool) statusSection {
	sec := statusSection{
		title:   "PLUGINS",
		headers: []string{"ID", "NAME", "MAKER", "PROGRAM", "VOLUME"},
	}
	if wide {
		sec.headers = append(sec.headers, "PARAMS", "FILENAME")
	}

	for _, p := range snap.Plugins {
		program := "-"
		if p.CurrentProgram >= 0 && int(p.CurrentProgram) < len(p.Programs) {
			program = p.Programs[p.CurrentProgram]
		}
		row := []string{
			strconv.Itoa(int(p.ID)),
			orDash(p.Name),
			orDash(p.Maker),
			program,
			fmt.Sprintf("%.2f", p.Internal.Volume),
		}
		if wide {
			row = append(row, strconv.Itoa(len(p.Params)), orDash(p.Filename))
		}
		sec.rows = append(sec.rows, row)
	}
	return sec
}

func collectPatchbaySection(snap store.Snapshot) statusSection {
	sec := statusSection{
		title:   "CONNECTIONS",
		headers: []string{"ID", "FROM", "TO"},
	}

	clients := make(map[int32]string, len(snap.Patchbay.Clients))
	for _, c := range snap.Patchbay.Clients {
		clients[c.ID] = c.Name
	}
	ports := make(map[[2]int32]string, len(snap.Patchbay.Ports))
	for _, p := range snap.Patchbay.Ports {
		ports[[2]int32{p.ClientID, p.PortID}] = p.Name
	}
	endpoint := func(group, port int32) string {
		g, ok := clients[group]
		if !ok {
			g = strconv.Itoa(int(group))
		}
		p, ok := ports[[2]int32{group, port}]
		if !ok {
			p = strconv.Itoa(int(port))
		}
		return g + ":" + p
	}

	for _, c := range snap.Patchbay.Connections {
		sec.rows = append(sec.rows, []string{
			strconv.Itoa(int(c.ID)),
			endpoint(c.GroupA, c.PortA),
			endpoint(c.GroupB, c.PortB),
		})
	}
	return sec
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

const (
	statusRowSection = iota
	statusRowHeader
	statusRowData
	statusRowSpacer
)

func renderStatusSections(w io.Writer, sections []statusSection) {
	maxCols := 0
	for _, sec := range sections {
		maxCols = max(maxCols, len(sec.headers))
		for _, row := range sec.rows {
			maxCols = max(maxCols, len(row))
		}
	}
	if maxCols == 0 {
		return
	}

	var rowKinds []int
	padRow := func(src []string) []string {
		row := make([]string, maxCols)
		copy(row, src)
		return row
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false)

	for i, sec := range sections {
		if i > 0 {
			t.Row(padRow(nil)...)
			rowKinds = append(rowKinds, statusRowSpacer)
		}
		t.Row(padRow([]string{sec.title})...)
		rowKinds = append(rowKinds, statusRowSection)
		t.Row(padRow(sec.headers)...)
		rowKinds = append(rowKinds, statusRowHeader)
		for _, dataRow := range sec.rows {
			t.Row(padRow(dataRow)...)
			rowKinds = append(rowKinds, statusRowData)
		}
	}

	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4")).PaddingRight(2)
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).PaddingRight(2)
	dataStyle := lipgloss.NewStyle().PaddingRight(2)

	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row < 0 || row >= len(rowKinds) {
			return dataStyle
		}
		switch rowKinds[row] {
		case statusRowSection:
			return sectionStyle
		case statusRowHeader:
			return headerStyle
		default:
			return dataStyle
		}
	})

	fmt.Fprintln(w, t)

	for _, sec := range sections {
		if sec.footer != "" {
			fmt.Fprintln(w)
			fmt.Fprintln(w, sec.footer)
		}
	}
	fmt.Fprintln(w)
}
