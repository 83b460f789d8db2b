package main

import (
	"fmt"
	"io"
	"time"

	"github.com/sambigeara/enginectl/pkg/client"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream engine callbacks until interrupted or the engine exits",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
	cmd.Flags().Duration("runtime", 0, "Also print the transport snapshot at this interval")
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, s, cleanup, err := connect(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	out := cmd.OutOrStdout()
	var runtimeC <-chan time.Time
	if every, _ := cmd.Flags().GetDuration("runtime"); every > 0 {
		t := time.NewTicker(every)
		defer t.Stop()
		runtimeC = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-runtimeC:
			rt := s.client.Store().Runtime()
			fmt.Fprintf(out, "runtime playing=%t frame=%d bar=%d beat=%d tick=%d bpm=%.2f load=%.1f xruns=%d\n",
				rt.Playing, rt.Frame, rt.Bar, rt.Beat, rt.Tick, rt.BPM, rt.Load, rt.Xruns)
		case ev := <-s.client.Events():
			if done := printEvent(out, ev); done {
				return nil
			}
		}
	}
}

// printEvent writes one event line and reports whether the stream is over.
func printEvent(w io.Writer, ev client.Event) bool {
	switch ev.Kind {
	case client.EventStateChanged:
		fmt.Fprintf(w, "state %s\n", ev.State)
	case client.EventCallback:
		cb := ev.Callback
		fmt.Fprintf(w, "cb %s plugin=%d v=%d,%d,%d vf=%g %q\n",
			cb.Action, cb.PluginID, cb.Value1, cb.Value2, cb.Value3, cb.ValueF, cb.Text)
	case client.EventEngineExited:
		if ev.Text != "" {
			fmt.Fprintf(w, "engine exited: %s\n", ev.Text)
		} else {
			fmt.Fprintln(w, "engine exited")
		}
		return true
	}
	return false
}
