package main

import (
	"fmt"

	"github.com/google/renameio/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const snapshotFilePerm = 0o644

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Dump the synchronised engine state as YAML",
		Args:  cobra.NoArgs,
		RunE:  runSnapshot,
	}
	cmd.Flags().StringP("out", "o", "", "Write to this file instead of stdout")
	return cmd
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	ctx, s, cleanup, err := connect(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	awaitSync(ctx, cmd)

	encoded, err := yaml.Marshal(s.client.Store().Snapshot())
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		_, err = cmd.OutOrStdout().Write(encoded)
		return err
	}
	if err := renameio.WriteFile(out, encoded, snapshotFilePerm); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	s.log.Infow("wrote snapshot", "path", out, "plugins", s.client.Store().Len())
	return nil
}
