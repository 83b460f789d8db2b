package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/renameio/v2"
	"github.com/sambigeara/enginectl/pkg/transport"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	DefaultReliableURL  = "osc.tcp://127.0.0.1:22752/Carla"
	DefaultLossyURL     = "osc.udp://127.0.0.1:22752/Carla"
	DefaultPollInterval = 30 * time.Millisecond
	DefaultPollJitter   = 0.1
	DefaultLogLevel     = "info"

	directoryPerm  = 0o700
	configFilePerm = 0o600
)

var (
	ErrInvalid           = errors.New("invalid config")
	ErrUnsupportedFormat = errors.New("unsupported config format")
)

type Engine struct {
	Reliable string `yaml:"reliable" toml:"reliable"`
	Lossy    string `yaml:"lossy" toml:"lossy"`
}

type Config struct {
	Engine        Engine        `yaml:"engine" toml:"engine"`
	BindHost      string        `yaml:"bindHost,omitempty" toml:"bindHost,omitempty"`
	AdvertiseHost string        `yaml:"advertiseHost,omitempty" toml:"advertiseHost,omitempty"`
	PollInterval  time.Duration `yaml:"pollInterval" toml:"pollInterval"`
	PollJitter    float64       `yaml:"pollJitter" toml:"pollJitter"`
	// CallTimeout bounds acknowledged calls made by the CLI. Zero waits
	// until the engine answers.
	CallTimeout time.Duration `yaml:"callTimeout,omitempty" toml:"callTimeout,omitempty"`
	LogLevel    string        `yaml:"logLevel" toml:"logLevel"`
}

func Default() *Config {
	return &Config{
		Engine: Engine{
			Reliable: DefaultReliableURL,
			Lossy:    DefaultLossyURL,
		},
		PollInterval: DefaultPollInterval,
		PollJitter:   DefaultPollJitter,
		LogLevel:     DefaultLogLevel,
	}
}

type format int

const (
	formatYAML format = iota
	formatTOML
)

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", "":
		return formatYAML, nil
	case ".toml":
		return formatTOML, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Load reads a YAML or TOML file, chosen by extension, over the defaults. A
// missing or empty file yields the defaults.
func Load(path string) (*Config, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return cfg, nil
	}

	switch f {
	case formatTOML:
		if err := toml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save atomically writes cfg in the format implied by path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		cfg = Default()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	f, err := formatOf(path)
	if err != nil {
		return err
	}

	var encoded []byte
	switch f {
	case formatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		encoded = buf.Bytes()
	default:
		if encoded, err = yaml.Marshal(cfg); err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), directoryPerm); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := renameio.WriteFile(path, encoded, configFilePerm); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	reliable, err := transport.ParseURL(c.Engine.Reliable)
	if err != nil {
		return fmt.Errorf("%w: engine.reliable: %w", ErrInvalid, err)
	}
	if reliable.Network != transport.NetworkTCP {
		return fmt.Errorf("%w: engine.reliable must be an %s:// url", ErrInvalid, transport.SchemeTCP)
	}

	lossy, err := transport.ParseURL(c.Engine.Lossy)
	if err != nil {
		return fmt.Errorf("%w: engine.lossy: %w", ErrInvalid, err)
	}
	if lossy.Network != transport.NetworkUDP {
		return fmt.Errorf("%w: engine.lossy must be an %s:// url", ErrInvalid, transport.SchemeUDP)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: pollInterval must be > 0", ErrInvalid)
	}
	if c.PollJitter < 0 || c.PollJitter > 1 {
		return fmt.Errorf("%w: pollJitter must be within [0, 1]", ErrInvalid)
	}
	if c.CallTimeout < 0 {
		return fmt.Errorf("%w: callTimeout must be >= 0", ErrInvalid)
	}
	if _, err := zap.ParseAtomicLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: logLevel: %w", ErrInvalid, err)
	}
	return nil
}
