package store

// Runtime is the latest transport and load snapshot from the telemetry
// channel. Values are replaced wholesale; no history is kept.
type Runtime struct {
	Load    float32 `yaml:"load"`
	Xruns   int32   `yaml:"xruns"`
	Playing bool    `yaml:"playing"`
	Frame   int32   `yaml:"frame"`
	Bar     int32   `yaml:"bar"`
	Beat    int32   `yaml:"beat"`
	Tick    int32   `yaml:"tick"`
	BPM     float32 `yaml:"bpm"`
}

// Engine holds engine-wide settings announced through callbacks.
type Engine struct {
	Running       bool    `yaml:"running"`
	Driver        string  `yaml:"driver,omitempty"`
	BufferSize    int32   `yaml:"bufferSize"`
	SampleRate    float32 `yaml:"sampleRate"`
	ProcessMode   int32   `yaml:"processMode"`
	TransportMode int32   `yaml:"transportMode"`
}

func (s *Store) SetRuntime(r Runtime) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runtime = r
}

func (s *Store) Runtime() Runtime {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runtime
}

func (s *Store) UpdateEngine(fn func(e *Engine)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.engine)
}

func (s *Store) Engine() Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// Snapshot is a consistent copy of the whole store.
type Snapshot struct {
	Engine   Engine   `yaml:"engine"`
	Runtime  Runtime  `yaml:"runtime"`
	Plugins  []Plugin `yaml:"plugins"`
	Patchbay Patchbay `yaml:"patchbay"`
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plugins := make([]Plugin, 0, len(s.plugins))
	for _, p := range s.plugins {
		plugins = append(plugins, p.clone())
	}
	return Snapshot{
		Engine:   s.engine,
		Runtime:  s.runtime,
		Plugins:  plugins,
		Patchbay: s.patchbay.export(),
	}
}
