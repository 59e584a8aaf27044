// Package manifest handles intcode.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/intcode/pkg/intcode"
)

// FileName is the name of the configuration file searched for by FindAndLoad.
const FileName = "intcode.toml"

// Manifest represents an intcode.toml configuration.
type Manifest struct {
	Program   Program   `toml:"program" json:"program"`
	Run       Run       `toml:"run" json:"run"`
	Calibrate Calibrate `toml:"calibrate" json:"calibrate"`
	Store     Store     `toml:"store" json:"store"`
	Log       Log       `toml:"log" json:"log"`

	// Dir is the directory containing the intcode.toml file (set at load time).
	Dir string `toml:"-" json:"-"`
}

// Program locates the program text. Source takes precedence over Path.
type Program struct {
	Path   string `toml:"path" json:"path"`
	Source string `toml:"source" json:"source"`
}

// Run configures the direct run.
type Run struct {
	Noun      uint64 `toml:"noun" json:"noun"`
	Verb      uint64 `toml:"verb" json:"verb"`
	StepLimit uint64 `toml:"step-limit" json:"step-limit"`
}

// Calibrate configures the calibration search.
type Calibrate struct {
	Target       uint64 `toml:"target" json:"target"`
	Workers      int    `toml:"workers" json:"workers"`
	AbortOnFault bool   `toml:"abort-on-fault" json:"abort-on-fault"`
}

// Store configures the calibration result database.
type Store struct {
	Path string `toml:"path" json:"path"`
}

// Log configures logging verbosity (commonlog scale, 0 = notice).
type Log struct {
	Verbosity int `toml:"verbosity" json:"verbosity"`
}

// Default returns the configuration used when no intcode.toml exists.
func Default() *Manifest {
	return &Manifest{
		Run: Run{
			Noun: 12,
			Verb: 2,
		},
		Calibrate: Calibrate{
			Target:  19690720,
			Workers: 1,
		},
		Store: Store{
			Path: filepath.Join(".intcode", "results.db"),
		},
	}
}

// Load parses an intcode.toml file from the given directory.
// Keys missing from the file keep their Default values.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	if err := Validate(m); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	return m, nil
}

// FindAndLoad walks up from startDir to find an intcode.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// resolve makes a configured path absolute relative to the manifest directory.
func (m *Manifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || m.Dir == "" {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// ProgramPath returns the absolute path of the configured program file.
func (m *Manifest) ProgramPath() string {
	return m.resolve(m.Program.Path)
}

// StorePath returns the absolute path of the result database.
func (m *Manifest) StorePath() string {
	return m.resolve(m.Store.Path)
}

// LoadProgram parses the inline program source, or the program file if no
// source is configured.
func (m *Manifest) LoadProgram() (*intcode.Memory, error) {
	if m.Program.Source != "" {
		return intcode.Parse(m.Program.Source)
	}
	if m.Program.Path == "" {
		return nil, fmt.Errorf("no program configured in %s", FileName)
	}
	return intcode.LoadFile(m.ProgramPath())
}

// Inputs returns the noun and verb of the direct run.
func (m *Manifest) Inputs() intcode.Inputs {
	return intcode.Inputs{Noun: intcode.Cell(m.Run.Noun), Verb: intcode.Cell(m.Run.Verb)}
}

// RunConfig returns the machine settings shared by both entry points.
func (m *Manifest) RunConfig() intcode.RunConfig {
	return intcode.RunConfig{StepLimit: m.Run.StepLimit}
}

// SearchConfig returns the calibration search settings.
func (m *Manifest) SearchConfig() intcode.SearchConfig {
	policy := intcode.FaultSkip
	if m.Calibrate.AbortOnFault {
		policy = intcode.FaultAbort
	}
	return intcode.SearchConfig{
		Run:     m.RunConfig(),
		Workers: m.Calibrate.Workers,
		Policy:  policy,
	}
}
