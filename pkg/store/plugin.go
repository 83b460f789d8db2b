package store

// PluginID is the engine-assigned position of a plugin. It shifts down when a
// lower id is removed; use Handle for a stable reference.
type PluginID = int32

// Handle identifies a plugin record for the lifetime of a Store, across
// compaction. Handles are never reused.
type Handle uint64

const (
	// Negative parameter ids address a plugin's built-in controls.
	ParamNull         int32 = -1
	ParamActive       int32 = -2
	ParamDryWet       int32 = -3
	ParamVolume       int32 = -4
	ParamBalanceLeft  int32 = -5
	ParamBalanceRight int32 = -6
	ParamPanning      int32 = -7
	ParamCtrlChannel  int32 = -8

	controlIndexNone int32 = -1
)

type Ports struct {
	AudioIns   int32 `yaml:"audioIns"`
	AudioOuts  int32 `yaml:"audioOuts"`
	MidiIns    int32 `yaml:"midiIns"`
	MidiOuts   int32 `yaml:"midiOuts"`
	ParamIns   int32 `yaml:"paramIns"`
	ParamOuts  int32 `yaml:"paramOuts"`
	ParamTotal int32 `yaml:"paramTotal"`
}

type ParamInfo struct {
	Name            string `yaml:"name"`
	Unit            string `yaml:"unit,omitempty"`
	Comment         string `yaml:"comment,omitempty"`
	Group           string `yaml:"group,omitempty"`
	ScalePointCount int32  `yaml:"scalePointCount,omitempty"`
}

type ParamData struct {
	Type          int32   `yaml:"type"`
	Hints         int32   `yaml:"hints"`
	MidiChannel   int32   `yaml:"midiChannel"`
	MappedControl int32   `yaml:"mappedControl"`
	MappedMin     float32 `yaml:"mappedMin"`
	MappedMax     float32 `yaml:"mappedMax"`
}

type ParamRanges struct {
	Def       float32 `yaml:"def"`
	Min       float32 `yaml:"min"`
	Max       float32 `yaml:"max"`
	Step      float32 `yaml:"step"`
	StepSmall float32 `yaml:"stepSmall"`
	StepLarge float32 `yaml:"stepLarge"`
}

type Parameter struct {
	Info   ParamInfo   `yaml:"info"`
	Data   ParamData   `yaml:"data"`
	Ranges ParamRanges `yaml:"ranges"`
	Value  float32     `yaml:"value"`
}

type MidiProgram struct {
	Bank    int32  `yaml:"bank"`
	Program int32  `yaml:"program"`
	Name    string `yaml:"name"`
}

type CustomData struct {
	Type  int32  `yaml:"type"`
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// Internal holds the built-in per-plugin controls (ParamActive..ParamCtrlChannel).
type Internal struct {
	Active       float32 `yaml:"active"`
	DryWet       float32 `yaml:"dryWet"`
	Volume       float32 `yaml:"volume"`
	BalanceLeft  float32 `yaml:"balanceLeft"`
	BalanceRight float32 `yaml:"balanceRight"`
	Panning      float32 `yaml:"panning"`
	CtrlChannel  float32 `yaml:"ctrlChannel"`
}

type Plugin struct {
	ID     PluginID `yaml:"id"`
	Handle Handle   `yaml:"handle"`

	Type             int32  `yaml:"type"`
	Category         int32  `yaml:"category"`
	Hints            int32  `yaml:"hints"`
	UniqueID         int64  `yaml:"uniqueId"`
	OptionsAvailable int32  `yaml:"optionsAvailable"`
	OptionsEnabled   int32  `yaml:"optionsEnabled"`
	Name             string `yaml:"name"`
	Filename         string `yaml:"filename,omitempty"`
	IconName         string `yaml:"iconName,omitempty"`
	RealName         string `yaml:"realName,omitempty"`
	Label            string `yaml:"label,omitempty"`
	Maker            string `yaml:"maker,omitempty"`
	Copyright        string `yaml:"copyright,omitempty"`

	Ports              Ports         `yaml:"ports"`
	Params             []Parameter   `yaml:"params,omitempty"`
	Programs           []string      `yaml:"programs,omitempty"`
	MidiPrograms       []MidiProgram `yaml:"midiPrograms,omitempty"`
	CurrentProgram     int32         `yaml:"currentProgram"`
	CurrentMidiProgram int32         `yaml:"currentMidiProgram"`
	Peaks              [4]float32    `yaml:"peaks,flow"`
	CustomData         []CustomData  `yaml:"customData,omitempty"`
	Internal           Internal      `yaml:"internal"`
}

func newPlugin(id PluginID, h Handle, name string) *Plugin {
	return &Plugin{
		ID:                 id,
		Handle:             h,
		Name:               name,
		CurrentProgram:     -1,
		CurrentMidiProgram: -1,
		Internal: Internal{
			Active:       0,
			DryWet:       1,
			Volume:       1,
			BalanceLeft:  -1,
			BalanceRight: 1,
			CtrlChannel:  -1,
		},
	}
}

// resize replaces the array of the given kind with n default entries. A
// selection that falls outside a shrunk array is reset to -1.
func (p *Plugin) resize(kind CountKind, n int32) {
	n = max(n, 0)
	switch kind {
	case CountParameters:
		p.Params = make([]Parameter, n)
		for i := range p.Params {
			p.Params[i] = defaultParameter()
		}
	case CountPrograms:
		p.Programs = make([]string, n)
		if p.CurrentProgram >= n {
			p.CurrentProgram = -1
		}
	case CountMidiPrograms:
		p.MidiPrograms = make([]MidiProgram, n)
		if p.CurrentMidiProgram >= n {
			p.CurrentMidiProgram = -1
		}
	case CountCustomData:
		p.CustomData = make([]CustomData, n)
	}
}

func defaultParameter() Parameter {
	return Parameter{
		Data: ParamData{
			MappedControl: controlIndexNone,
			MappedMax:     1,
		},
		Ranges: ParamRanges{
			Max:       1,
			Step:      0.01,
			StepSmall: 0.0001,
			StepLarge: 0.1,
		},
	}
}

func (p *Plugin) clone() Plugin {
	out := *p
	out.Params = append([]Parameter(nil), p.Params...)
	out.Programs = append([]string(nil), p.Programs...)
	out.MidiPrograms = append([]MidiProgram(nil), p.MidiPrograms...)
	out.CustomData = append([]CustomData(nil), p.CustomData...)
	return out
}

func (p *Plugin) setInternal(index int32, v float32) bool {
	switch index {
	case ParamActive:
		p.Internal.Active = v
	case ParamDryWet:
		p.Internal.DryWet = v
	case ParamVolume:
		p.Internal.Volume = v
	case ParamBalanceLeft:
		p.Internal.BalanceLeft = v
	case ParamBalanceRight:
		p.Internal.BalanceRight = v
	case ParamPanning:
		p.Internal.Panning = v
	case ParamCtrlChannel:
		p.Internal.CtrlChannel = v
	default:
		return false
	}
	return true
}
