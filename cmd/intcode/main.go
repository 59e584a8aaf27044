// Intcode CLI - runs, calibrates and inspects Intcode programs
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/tliron/commonlog"

	"github.com/chazu/intcode/manifest"
	"github.com/chazu/intcode/pkg/intcode"
	"github.com/chazu/intcode/server"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output (debug logging)")
	configDir := flag.String("config", "", "Directory containing intcode.toml (default: search upward from .)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: intcode [options] <command> [command options] [program]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  run        Patch noun/verb, run to halt, print address 0\n")
		fmt.Fprintf(os.Stderr, "  calibrate  Search noun/verb pairs for a target output\n")
		fmt.Fprintf(os.Stderr, "  disasm     Print a disassembly listing\n")
		fmt.Fprintf(os.Stderr, "  lsp        Start the language server on stdio\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  intcode run input.txt                      # noun=12 verb=2\n")
		fmt.Fprintf(os.Stderr, "  intcode run -noun 1 -verb 0 -dump core.cbor input.txt\n")
		fmt.Fprintf(os.Stderr, "  intcode calibrate -target 19690720 -workers 8 input.txt\n")
		fmt.Fprintf(os.Stderr, "  intcode disasm input.txt\n")
	}
	flag.Parse()

	m, err := loadManifest(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}

	verbosity := m.Log.Verbosity
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := dispatch(ctx, args[0], args[1:], m, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// dispatch runs a subcommand.
func dispatch(ctx context.Context, cmd string, args []string, m *manifest.Manifest, out io.Writer) error {
	switch cmd {
	case "run":
		return handleRunCommand(args, m, out)
	case "calibrate":
		return handleCalibrateCommand(ctx, args, m, out)
	case "disasm":
		return handleDisasmCommand(args, m, out)
	case "lsp":
		return server.NewLSP().Run()
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// loadManifest loads intcode.toml from dir, or searches upward from the
// working directory. Defaults apply when no file exists.
func loadManifest(dir string) (*manifest.Manifest, error) {
	if dir != "" {
		return manifest.Load(dir)
	}
	m, err := manifest.FindAndLoad(".")
	if err != nil {
		return nil, err
	}
	if m == nil {
		return manifest.Default(), nil
	}
	return m, nil
}

// loadProgram reads the program named on the command line, falling back to
// the manifest's program.
func loadProgram(fs *flag.FlagSet, m *manifest.Manifest) (*intcode.Memory, string, error) {
	switch fs.NArg() {
	case 0:
		mem, err := m.LoadProgram()
		name := m.Program.Path
		if m.Program.Source != "" {
			name = "<inline>"
		}
		return mem, name, err
	case 1:
		mem, err := intcode.LoadFile(fs.Arg(0))
		return mem, fs.Arg(0), err
	default:
		return nil, "", fmt.Errorf("expected one program, got %d", fs.NArg())
	}
}

// handleDisasmCommand processes the `intcode disasm` subcommand.
func handleDisasmCommand(args []string, m *manifest.Manifest, out io.Writer) error {
	fs := flag.NewFlagSet("disasm", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	mem, name, err := loadProgram(fs, m)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, intcode.DisassembleWithName(mem, name))
	return err
}
