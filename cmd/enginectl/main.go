package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sambigeara/enginectl/pkg/client"
	"github.com/sambigeara/enginectl/pkg/config"
	"github.com/sambigeara/enginectl/pkg/observability/logging"
	"github.com/sambigeara/enginectl/pkg/store"
	"github.com/sambigeara/enginectl/pkg/workspace"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultSyncWait = 500 * time.Millisecond

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("failed to execute command: %q", err)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "enginectl",
		Short:        "Drive and observe a remote plugin host engine over OSC",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", workspace.DefaultConfigPath(), "Config file (.yaml or .toml)")
	rootCmd.PersistentFlags().String("engine", "", "Engine reliable URL (osc.tcp://host:port/Name)")
	rootCmd.PersistentFlags().String("lossy", "", "Engine lossy URL (osc.udp://host:port/Name)")
	rootCmd.PersistentFlags().String("bind", "", "Local interface to listen on")
	rootCmd.PersistentFlags().String("advertise", "", "Host advertised to the engine on registration")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Duration("sync-wait", defaultSyncWait, "Time to collect the engine's state dump after registering")

	rootCmd.AddCommand(newStatusCmd(), newWatchCmd(), newCallCmd(), newSnapshotCmd(), newConfigCmd())
	return rootCmd
}

// loadConfig reads the config file and applies any flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	override := func(flag string, dst *string) {
		if cmd.Flags().Changed(flag) {
			*dst, _ = cmd.Flags().GetString(flag)
		}
	}
	override("engine", &cfg.Engine.Reliable)
	override("lossy", &cfg.Engine.Lossy)
	override("bind", &cfg.BindHost)
	override("advertise", &cfg.AdvertiseHost)
	override("log-level", &cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type session struct {
	cfg    *config.Config
	client *client.Client
	log    *zap.SugaredLogger
}

// connect loads config, sets up logging and registers with the engine. The
// returned context is cancelled on SIGINT/SIGTERM.
func connect(cmd *cobra.Command) (context.Context, *session, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := logging.Init(cfg.LogLevel); err != nil {
		return nil, nil, nil, err
	}

	logger := zap.S().With("session", uuid.NewString())
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)

	c := client.New(&client.Config{
		BindHost:      cfg.BindHost,
		AdvertiseHost: cfg.AdvertiseHost,
		PollInterval:  cfg.PollInterval,
		PollJitter:    cfg.PollJitter,
	}, store.New())

	if err := c.Connect(ctx, cfg.Engine.Reliable, cfg.Engine.Lossy); err != nil {
		stop()
		return nil, nil, nil, fmt.Errorf("connect to %s: %w", cfg.Engine.Reliable, err)
	}
	logger.Infow("connected", "engine", cfg.Engine.Reliable)

	cleanup := func() {
		if err := c.Disconnect(); err != nil {
			logger.Debugw("disconnect", "err", err)
		}
		stop()
		_ = zap.S().Sync()
	}
	return ctx, &session{cfg: cfg, client: c, log: logger}, cleanup, nil
}

// awaitSync gives the engine time to stream its state after registration.
func awaitSync(ctx context.Context, cmd *cobra.Command) {
	wait, _ := cmd.Flags().GetDuration("sync-wait")
	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}
