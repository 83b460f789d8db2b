package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// Init builds a production logger at the given level ("debug", "info", ...)
// and installs it as the zap global. An empty level means info.
func Init(level string) error {
	cfg := zap.NewProductionConfig()
	if level == "" {
		level = "info"
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	cfg.Level = lvl

	l, err := cfg.Build()
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(l)
	return nil
}
