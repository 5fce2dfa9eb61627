package pipeline

import (
	"fmt"
	"io/ioutil"
	"strings"

	"gopkg.in/vmihailenco/msgpack.v2"

	"github.com/will-rowe/minimizer/src/kmer"
	"github.com/will-rowe/minimizer/src/minimizer"
	"github.com/will-rowe/minimizer/src/version"
)

// Info stores the runtime information
type Info struct {
	Version       string   `msgpack:"version" toml:"-"`
	NumProc       int      `msgpack:"num_proc" toml:"processors"`
	Profiling     bool     `msgpack:"profiling" toml:"-"`
	MinimizerSize int      `msgpack:"minimizer_size" toml:"minimizer_size"`
	Width         int      `msgpack:"width" toml:"width"`
	Seed          uint64   `msgpack:"seed" toml:"seed"`
	Canonical     bool     `msgpack:"canonical" toml:"canonical"`
	ModMinimizer  bool     `msgpack:"mod_minimizer" toml:"mod_minimizer"`
	ModFloor      int      `msgpack:"mod_floor" toml:"mod_floor"`
	Hasher        string   `msgpack:"hasher" toml:"hasher"`
	Bits          int      `msgpack:"bits" toml:"bits"`
	SplitInvalid  bool     `msgpack:"split_invalid" toml:"split_invalid"`
	Inputs        []string `msgpack:"inputs" toml:"inputs"`

	// the following fields are not written to disk
	Sketch SketchCmd `msgpack:"-" toml:"sketch"`
	Stats  StatsCmd  `msgpack:"-" toml:"stats"`
}

// SketchCmd stores the runtime info for the sketch command
type SketchCmd struct {
	Output string `toml:"output"`
	Format string `toml:"format"`
}

// StatsCmd stores the runtime info for the stats command
type StatsCmd struct {
	Plot   string `toml:"plot"`
	Report string `toml:"report"`
}

// hasher names accepted by Info.Hasher
const (
	HasherXX       = "xx"
	HasherIdentity = "identity"
	HasherNtHash   = "nthash"
)

// output formats accepted by Info.Sketch.Format
const (
	FormatTSV     = "tsv"
	FormatMsgpack = "msgpack"
)

// NewInfo returns the runtime info with the default minimizer parameters
func NewInfo(version string) *Info {
	return &Info{
		Version:       version,
		NumProc:       1,
		MinimizerSize: minimizer.DefaultMinimizerSize,
		Width:         minimizer.DefaultWidth,
		ModFloor:      minimizer.DefaultModFloor,
		Hasher:        HasherXX,
		Bits:          64,
		Sketch:        SketchCmd{Output: "-", Format: FormatTSV},
		Stats:         StatsCmd{Report: "-"},
	}
}

// Check is a method to check the runtime parameters describe a valid minimizer scheme
func (Info *Info) Check() error {
	switch Info.Bits {
	case 64:
		_, err := NewConfig[kmer.U64](Info)
		return err
	case 128:
		_, err := NewConfig[kmer.U128](Info)
		return err
	}
	return fmt.Errorf("integer width must be 64 or 128 (got %d)", Info.Bits)
}

// NewConfig converts the runtime info to a validated minimizer configuration
func NewConfig[W kmer.Word[W]](info *Info) (minimizer.Config[W], error) {
	cfg := minimizer.DefaultConfig[W]()
	cfg.MinimizerSize = info.MinimizerSize
	cfg.Width = info.Width
	cfg.Seed = info.Seed
	cfg.Canonical = info.Canonical
	cfg.ModMinimizer = info.ModMinimizer
	cfg.ModFloor = info.ModFloor
	switch info.Hasher {
	case HasherXX, "":
		cfg.Hasher = minimizer.XXHasher[W]{}
	case HasherIdentity:
		cfg.Hasher = minimizer.Identity[W]{}
	case HasherNtHash:
		cfg.Hasher = minimizer.NewNtHasher[W](cfg.Encoding)
	default:
		return cfg, fmt.Errorf("unknown hasher: %v (use %v, %v or %v)", info.Hasher, HasherXX, HasherIdentity, HasherNtHash)
	}
	return cfg, cfg.Validate()
}

// Dump is a method to dump the pipeline info to file
func (Info *Info) Dump(path string) error {
	data, err := msgpack.Marshal(Info)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, data, 0644)
}

// Load is a method to load Info from file
func (Info *Info) Load(path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	return Info.LoadFromBytes(data)
}

// LoadFromBytes is a method to load Info from bytes, the info must come from the same major.minor version of minimizer
func (Info *Info) LoadFromBytes(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("runtime info appears empty")
	}
	if err := msgpack.Unmarshal(data, Info); err != nil {
		return err
	}
	if base := baseVersion(Info.Version); base != version.GetBaseVersion() {
		return fmt.Errorf("runtime info was written by minimizer %v, which is incompatible with this version (%v)", Info.Version, version.GetVersion())
	}
	return nil
}

// baseVersion trims the patch number from a version string
func baseVersion(v string) string {
	parts := strings.SplitN(v, ".", 3)
	if len(parts) < 2 {
		return v
	}
	return parts[0] + "." + parts[1]
}
