package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/sambigeara/enginectl/pkg/rpc"
	"github.com/spf13/cobra"
)

var errUsage = errors.New("usage")

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <method> [plugin-id] [args...]",
		Short: "Invoke an engine method",
		Long: "Invoke an allowlisted engine method. Plugin-scoped methods take the plugin id " +
			"as the first argument. Acknowledged methods wait for the engine's response.",
		RunE: runCall,
	}
	cmd.Flags().Duration("timeout", 0, "Give up waiting for the engine's response after this long (0 waits indefinitely)")
	cmd.Flags().Bool("list", false, "List the available methods and exit")
	return cmd
}

func runCall(cmd *cobra.Command, args []string) error {
	if list, _ := cmd.Flags().GetBool("list"); list {
		printMethods(cmd.OutOrStdout())
		return nil
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: call <method> [plugin-id] [args...]", errUsage)
	}

	m, ok := rpc.Lookup(args[0])
	if !ok {
		return fmt.Errorf("%w: %q", rpc.ErrUnknownMethod, args[0])
	}
	pluginID, callArgs, err := parseCallArgs(m, args[1:])
	if err != nil {
		return err
	}

	ctx, s, cleanup, err := connect(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if !cmd.Flags().Changed("timeout") {
		timeout = s.cfg.CallTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := s.client.RPC().Call(ctx, m.Name, pluginID, callArgs...); err != nil {
		return fmt.Errorf("%s: %w", m.Name, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s ok (%s)\n", m.Name, m.Kind)
	return nil
}

// parseCallArgs converts command line strings to the OSC types the method
// expects.
func parseCallArgs(m rpc.Method, args []string) (int32, []any, error) {
	pluginID := rpc.NoPlugin
	if m.PluginScoped {
		if len(args) == 0 {
			return 0, nil, fmt.Errorf("%w: %s needs a plugin id", errUsage, m.Name)
		}
		id, err := strconv.ParseInt(args[0], 10, 32)
		if err != nil || id < 0 {
			return 0, nil, fmt.Errorf("%w: plugin id %q", errUsage, args[0])
		}
		pluginID = int32(id)
		args = args[1:]
	}

	if len(args) != len(m.Args) {
		return 0, nil, fmt.Errorf("%w: %s takes %d argument(s) (%s), got %d", errUsage, m.Name, len(m.Args), m.Args, len(args))
	}

	out := make([]any, len(args))
	for i, raw := range args {
		var err error
		switch m.Args[i] {
		case 'i':
			var v int64
			v, err = strconv.ParseInt(raw, 10, 32)
			out[i] = int32(v)
		case 'h':
			out[i], err = strconv.ParseInt(raw, 10, 64)
		case 'f':
			var v float64
			v, err = strconv.ParseFloat(raw, 32)
			out[i] = float32(v)
		case 's':
			out[i] = raw
		default:
			err = fmt.Errorf("unsupported type tag %q", m.Args[i])
		}
		if err != nil {
			return 0, nil, fmt.Errorf("%w: argument %d: %v", errUsage, i+1, err)
		}
	}
	return pluginID, out, nil
}

func printMethods(w io.Writer) {
	methods := rpc.Methods()
	slices.SortFunc(methods, func(a, b rpc.Method) int { return cmp.Compare(a.Name, b.Name) })
	for _, m := range methods {
		sig := m.Args
		if m.PluginScoped {
			sig = "<plugin> " + sig
		}
		fmt.Fprintf(w, "%-36s %-16s %s\n", m.Name, m.Kind, sig)
	}
}
