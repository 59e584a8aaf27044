package intcode

// Addresses patched by RunWithInputs.
const (
	NounAddress Cell = 1
	VerbAddress Cell = 2
)

// Inputs is a noun/verb pair patched into addresses 1 and 2.
type Inputs struct {
	Noun Cell
	Verb Cell
}

// Checksum returns 100*noun + verb.
func (in Inputs) Checksum() Cell {
	return 100*in.Noun + in.Verb
}

// RunConfig carries per-run machine settings.
type RunConfig struct {
	StepLimit uint64 // Zero disables the limit
	Trace     bool
}

// RunWithInputs runs a patched copy of base to completion.
//
// The returned machine is never nil once patching succeeded, so callers can
// inspect memory even after a fault. base is not modified.
func RunWithInputs(base *Memory, in Inputs, cfg RunConfig) (*Machine, error) {
	mem := base.Clone()
	if err := mem.Set(NounAddress, in.Noun); err != nil {
		return nil, err
	}
	if err := mem.Set(VerbAddress, in.Verb); err != nil {
		return nil, err
	}

	m := NewMachine(mem)
	m.StepLimit = cfg.StepLimit
	m.Trace = cfg.Trace
	return m, m.Run()
}

// Output runs a patched copy of base and returns the value at address 0.
func Output(base *Memory, in Inputs, cfg RunConfig) (Cell, error) {
	m, err := RunWithInputs(base, in, cfg)
	if err != nil {
		return 0, err
	}
	return m.Memory().Get(0)
}
