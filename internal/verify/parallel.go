package verify

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/propnet/internal/propnet"
)

// Pair builds a fresh reference and subject for one worker. Evaluators are
// not safe for concurrent use, so every worker owns its own pair.
type Pair func() (ref, subj propnet.StateMachine, err error)

// CheckParallel runs Check on several workers at once. Worker w samples
// with seed opts.Seed+w, and opts.MaxRounds is split between workers. The
// first divergence stops every worker.
//
// The merged report carries one run ID, the summed round and step counts
// and the divergence of the lowest-numbered worker that found one.
func CheckParallel(ctx context.Context, pair Pair, workers int, opts Options) (*Report, error) {
	if workers < 1 {
		workers = 1
	}
	opts = opts.withDefaults()

	merged := &Report{
		ID:      opts.IDs.Generate(),
		Seed:    opts.Seed,
		Workers: workers,
		Started: opts.Clock.Now(),
	}
	opts.Logger.Info("parallel consistency check starting",
		"id", merged.ID,
		"workers", workers,
		"seed", opts.Seed,
		"max_rounds", opts.MaxRounds,
		"budget", opts.Budget)

	// Every pair is built before any worker starts, so a failed build
	// leaves nothing running.
	refs := make([]propnet.StateMachine, workers)
	subjs := make([]propnet.StateMachine, workers)
	for w := range workers {
		ref, subj, err := pair()
		if err != nil {
			return nil, fmt.Errorf("worker %d: %w", w, err)
		}
		refs[w], subjs[w] = ref, subj
	}

	reports := make([]*Report, workers)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		ref, subj := refs[w], subjs[w]
		wopts := opts
		wopts.Seed = opts.Seed + uint64(w)
		wopts.MaxRounds = share(opts.MaxRounds, workers, w)
		if opts.MaxRounds > 0 && wopts.MaxRounds == 0 {
			reports[w] = &Report{}
			continue
		}

		g.Go(func() error {
			r := &runner{
				ref:    ref,
				subj:   subj,
				opts:   wopts,
				rng:    newRand(wopts.Seed),
				worker: w,
			}
			rep := &Report{Started: merged.Started}
			reports[w] = rep
			if err := r.run(gctx, rep); err != nil {
				return fmt.Errorf("worker %d: %w", w, err)
			}
			if rep.Divergence != nil {
				return errDiverged
			}
			return nil
		})
	}

	err := g.Wait()
	for _, rep := range reports {
		if rep == nil {
			continue
		}
		merged.Rounds += rep.Rounds
		merged.Steps += rep.Steps
		if rep.Divergence != nil && merged.Divergence == nil {
			merged.Divergence = rep.Divergence
		}
	}
	merged.Elapsed = opts.Clock.Now().Sub(merged.Started)

	if errors.Is(err, errDiverged) {
		err = nil
	}
	switch {
	case err != nil:
		opts.Logger.Warn("parallel consistency check aborted", "id", merged.ID, "error", err)
	case merged.Divergence != nil:
		opts.Logger.Warn("parallel consistency check found divergence", "id", merged.ID, "divergence", merged.Divergence.String())
	default:
		opts.Logger.Info("parallel consistency check passed", "id", merged.ID, "rounds", merged.Rounds, "steps", merged.Steps)
	}
	return merged, err
}

// share splits total rounds over n workers; the first total%n workers get
// one extra. A zero total means no cap.
func share(total, n, w int) int {
	if total <= 0 {
		return 0
	}
	s := total / n
	if w < total%n {
		s++
	}
	return s
}
