package intcode

import (
	"context"
	"sync/atomic"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"
)

var searchLog = commonlog.GetLogger("intcode.search")

// DefaultSpan is the exclusive upper bound of noun and verb.
const DefaultSpan Cell = 100

// FaultPolicy decides what a faulting trial does to the search.
type FaultPolicy uint8

const (
	// FaultSkip counts a faulting trial as a non-match and keeps searching.
	FaultSkip FaultPolicy = iota
	// FaultAbort stops the search at the first fault in scan order.
	FaultAbort
)

// String returns a human-readable name for the policy.
func (p FaultPolicy) String() string {
	if p == FaultAbort {
		return "abort"
	}
	return "skip"
}

// SearchConfig controls a calibration search.
type SearchConfig struct {
	Run     RunConfig   // Applied to every trial
	Workers int         // Concurrent trials; values below 2 scan sequentially
	Policy  FaultPolicy // Fault containment policy
	Span    Cell        // Exclusive bound for noun and verb; 0 means DefaultSpan
}

// SearchResult describes the winning trial.
type SearchResult struct {
	Inputs Inputs
	Trials int      // Trials executed, the winner included
	Faults int      // Trials that faulted and were skipped
	Final  *Machine // Halted machine of the winning trial
}

// outcome records one trial in the parallel search.
type outcome struct {
	ran     bool
	matched bool
	err     error
	final   *Machine
}

// Search finds the smallest (noun, verb) pair, in row-major order, for which
// a patched copy of base halts with target at address 0.
//
// The answer never depends on cfg.Workers: with concurrency every pair ordered
// before the reported one is still run and confirmed not to match. base is
// never modified. If no pair matches, the error is a *NotFoundError.
func Search(ctx context.Context, base *Memory, target Cell, cfg SearchConfig) (*SearchResult, error) {
	span := cfg.Span
	if span == 0 {
		span = DefaultSpan
	}

	var (
		res *SearchResult
		err error
	)
	if cfg.Workers < 2 {
		res, err = searchSequential(ctx, base, target, span, cfg)
	} else {
		res, err = searchParallel(ctx, base, target, span, cfg)
	}

	if res != nil {
		searchLog.Infof("target %d: noun=%d verb=%d after %d trials (%d faults)",
			target, res.Inputs.Noun, res.Inputs.Verb, res.Trials, res.Faults)
	} else if err != nil {
		searchLog.Infof("target %d: %v", target, err)
	}
	return res, err
}

// inputsAt maps a row-major index to its noun/verb pair.
func inputsAt(idx int, span Cell) Inputs {
	return Inputs{Noun: Cell(idx) / span, Verb: Cell(idx) % span}
}

// trial runs one pair and reports whether it produced target. The halted
// machine is returned only on a match.
func trial(base *Memory, in Inputs, target Cell, cfg RunConfig) (bool, *Machine, error) {
	m, err := RunWithInputs(base, in, cfg)
	if err != nil {
		return false, nil, err
	}
	out, err := m.Memory().Get(0)
	if err != nil {
		return false, nil, err
	}
	if out != target {
		return false, nil, nil
	}
	return true, m, nil
}

func searchSequential(ctx context.Context, base *Memory, target, span Cell, cfg SearchConfig) (*SearchResult, error) {
	total := int(span * span)
	faults := 0
	for idx := 0; idx < total; idx++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		in := inputsAt(idx, span)
		matched, final, err := trial(base, in, target, cfg.Run)
		if err != nil {
			if cfg.Policy == FaultAbort {
				return nil, &TrialError{Inputs: in, Err: err}
			}
			searchLog.Debugf("noun=%d verb=%d: %v", in.Noun, in.Verb, err)
			faults++
			continue
		}
		if matched {
			return &SearchResult{Inputs: in, Trials: idx + 1, Faults: faults, Final: final}, nil
		}
	}
	return nil, &NotFoundError{Target: target, Trials: total}
}

func searchParallel(ctx context.Context, base *Memory, target, span Cell, cfg SearchConfig) (*SearchResult, error) {
	total := int(span * span)
	outcomes := make([]outcome, total)

	// decided holds the lowest index known to end the scan: a match, or a
	// fault under FaultAbort. Indices above it need not run.
	var decided atomic.Int64
	decided.Store(int64(total))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	for idx := 0; idx < total; idx++ {
		if int64(idx) > decided.Load() {
			break
		}
		idx := idx
		g.Go(func() error {
			if int64(idx) > decided.Load() {
				return nil
			}
			if err := gctx.Err(); err != nil {
				return err
			}

			in := inputsAt(idx, span)
			matched, final, err := trial(base, in, target, cfg.Run)
			outcomes[idx] = outcome{ran: true, matched: matched, err: err, final: final}
			if matched || (err != nil && cfg.Policy == FaultAbort) {
				lowerTo(&decided, int64(idx))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	trials, faults := 0, 0
	for _, o := range outcomes {
		if !o.ran {
			continue
		}
		trials++
		if o.err != nil && cfg.Policy == FaultSkip {
			faults++
		}
	}

	// Every index below a decisive one has run, so the first decisive
	// outcome in index order is the sequential answer.
	for idx, o := range outcomes {
		if !o.ran {
			continue
		}
		in := inputsAt(idx, span)
		if o.err != nil {
			if cfg.Policy == FaultAbort {
				return nil, &TrialError{Inputs: in, Err: o.err}
			}
			searchLog.Debugf("noun=%d verb=%d: %v", in.Noun, in.Verb, o.err)
			continue
		}
		if o.matched {
			return &SearchResult{Inputs: in, Trials: trials, Faults: faults, Final: o.final}, nil
		}
	}
	return nil, &NotFoundError{Target: target, Trials: trials}
}

// lowerTo stores v into a if v is smaller than the current value.
func lowerTo(a *atomic.Int64, v int64) {
	for {
		cur := a.Load()
		if v >= cur || a.CompareAndSwap(cur, v) {
			return
		}
	}
}
