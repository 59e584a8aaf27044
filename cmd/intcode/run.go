package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/chazu/intcode/manifest"
	"github.com/chazu/intcode/pkg/intcode"
	"github.com/chazu/intcode/pkg/intcode/snapshot"
)

// handleRunCommand processes the `intcode run` subcommand.
// Usage:
//
//	intcode run input.txt                     # noun/verb from intcode.toml
//	intcode run -noun 1 -verb 0 input.txt
//	intcode run -dump core.cbor input.txt     # keep the final image
func handleRunCommand(args []string, m *manifest.Manifest, out io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	noun := fs.Uint64("noun", m.Run.Noun, "Value patched into address 1")
	verb := fs.Uint64("verb", m.Run.Verb, "Value patched into address 2")
	steps := fs.Uint64("steps", m.Run.StepLimit, "Step limit (0 = unlimited)")
	dump := fs.String("dump", "", "Write a CBOR snapshot of the final image to this path")
	trace := fs.Bool("trace", false, "Log every executed instruction")
	if err := fs.Parse(args); err != nil {
		return err
	}

	base, _, err := loadProgram(fs, m)
	if err != nil {
		return err
	}

	in := intcode.Inputs{Noun: intcode.Cell(*noun), Verb: intcode.Cell(*verb)}
	machine, runErr := intcode.RunWithInputs(base, in, intcode.RunConfig{StepLimit: *steps, Trace: *trace})

	// The snapshot is written even on a fault so the faulted image can be inspected.
	if *dump != "" && machine != nil {
		if err := snapshot.WriteFile(*dump, snapshot.Capture(machine)); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}

	result, err := machine.Memory().Get(0)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, result)
	return nil
}
