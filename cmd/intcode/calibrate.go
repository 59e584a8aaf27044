package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/chazu/intcode/manifest"
	"github.com/chazu/intcode/pkg/intcode"
	"github.com/chazu/intcode/pkg/intcode/snapshot"
	"github.com/chazu/intcode/store"
)

// handleCalibrateCommand processes the `intcode calibrate` subcommand.
// Usage:
//
//	intcode calibrate input.txt                   # target from intcode.toml
//	intcode calibrate -target 4242 -workers 8 input.txt
//	intcode calibrate -db "" input.txt            # skip the result store
func handleCalibrateCommand(ctx context.Context, args []string, m *manifest.Manifest, out io.Writer) error {
	fs := flag.NewFlagSet("calibrate", flag.ContinueOnError)
	target := fs.Uint64("target", m.Calibrate.Target, "Value to find at address 0")
	workers := fs.Int("workers", m.Calibrate.Workers, "Concurrent trials")
	steps := fs.Uint64("steps", m.Run.StepLimit, "Per-trial step limit (0 = unlimited)")
	abort := fs.Bool("abort-on-fault", m.Calibrate.AbortOnFault, "Stop at the first faulting trial")
	dbPath := fs.String("db", m.StorePath(), "Result database path (empty disables)")
	fresh := fs.Bool("fresh", false, "Ignore stored results and search again")
	if err := fs.Parse(args); err != nil {
		return err
	}

	base, _, err := loadProgram(fs, m)
	if err != nil {
		return err
	}

	cfg := m.SearchConfig()
	cfg.Workers = *workers
	cfg.Run.StepLimit = *steps
	cfg.Policy = intcode.FaultSkip
	if *abort {
		cfg.Policy = intcode.FaultAbort
	}

	key := store.Key{
		Digest:    base.Digest(),
		Target:    *target,
		StepLimit: *steps,
		Policy:    cfg.Policy.String(),
	}

	var results *store.Store
	if *dbPath != "" {
		results, err = store.Open(*dbPath)
		if err != nil {
			return err
		}
		defer results.Close()

		if !*fresh {
			rec, err := results.Lookup(ctx, key)
			switch {
			case err == nil:
				return reportRecord(out, rec)
			case !errors.Is(err, store.ErrRecordNotFound):
				return err
			}
		}
	}

	res, searchErr := intcode.Search(ctx, base, intcode.Cell(*target), cfg)

	var notFound *intcode.NotFoundError
	if searchErr != nil && !errors.As(searchErr, &notFound) {
		return searchErr
	}

	rec := &store.Record{Key: key}
	if res != nil {
		rec.Found = true
		rec.Noun = uint64(res.Inputs.Noun)
		rec.Verb = uint64(res.Inputs.Verb)
		rec.Trials = res.Trials
		rec.Faults = res.Faults
		if data, err := snapshot.Marshal(snapshot.Capture(res.Final)); err == nil {
			rec.Snapshot = data
		}
	} else {
		rec.Trials = notFound.Trials
	}

	if results != nil {
		if err := results.Save(ctx, rec); err != nil {
			return err
		}
	}

	if searchErr != nil {
		return searchErr
	}
	return reportRecord(out, rec)
}

// reportRecord prints a calibration outcome.
func reportRecord(out io.Writer, rec *store.Record) error {
	if !rec.Found {
		return &intcode.NotFoundError{Target: intcode.Cell(rec.Target), Trials: rec.Trials}
	}
	in := intcode.Inputs{Noun: intcode.Cell(rec.Noun), Verb: intcode.Cell(rec.Verb)}
	fmt.Fprintf(out, "noun=%d verb=%d checksum=%d\n", in.Noun, in.Verb, in.Checksum())
	return nil
}
