package bo

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

//////
// Const, vars, types.
//////

// oversample is how many extra suggestion slots are searched beyond the
// requested batch size, giving the diversifier slack after
// de-duplication.
const oversample = 2

// kappaStep spaces the per-slot UCB exploration weights: slot i uses
// kappa = (i+1)*kappaStep.
const kappaStep = 2.567

// scoredCandidate pairs a candidate vector with its diversity-adjusted
// acquisition score. Transient; produced and consumed within one round.
type scoredCandidate struct {
	x     []float64
	score float64
}

// Searcher proposes batches of parameter assignments via Bayesian
// optimization: a surrogate ensemble fit to the history, an acquisition
// function maximized once per suggestion slot, and a diversity policy over
// the resulting candidates.
//
// All state is in-process and scoped to the instance: the fitted ensemble
// and the decaying exploration spread. Suggest mutates both between
// rounds, so a Searcher must not be shared between goroutines; internal
// parallelism is managed by the Searcher itself.
type Searcher struct {
	cfg   Config
	space *space

	// nIterations and nSuggestions record the driver's planned loop shape.
	// nSuggestions is the default batch size when Suggest is called with
	// n <= 0.
	nIterations  int
	nSuggestions int

	// gps is the current fitted ensemble, replaced wholesale each round
	// that has history. Nil until the first fit.
	gps []*gaussianProcess

	// improveStep is the current exploration spread; decays by
	// cfg.DecayRate every round that has history.
	improveStep float64

	// round counts Suggest calls.
	round int

	// rng is the root random source; workers derive their own sources
	// from it so no two goroutines share one.
	rng   *rand.Rand
	rngMu sync.Mutex
}

//////
// Exported functionalities.
//////

// DefaultConfig returns the default configuration: Expected Improvement
// with a 7-member ensemble, 400 warm-up samples, an exploration spread of
// 3 decaying at 0.9 per round, and de-duplication enabled.
func DefaultConfig() Config {
	return Config{
		UtilityKind:       UtilityEI,
		GPNum:             7,
		Alpha:             1e-5,
		NumWarmup:         400,
		StartPoints:       2,
		StartPointsGrowth: 0.35,
		ImproveStep:       3,
		DecayRate:         0.9,
		Lambda:            1,
		Tol:               1e-5,
		DeDuplication:     true,
		ProgressChan:      nil, // Default to no progress updates.
	}
}

// NewSearcher builds a Searcher over the given parameter space.
//
// Parameters:
//   - params: Mapping from parameter name to its spec. Only double-typed
//     parameters with a materialized coordinate list are supported; any
//     other schema is rejected here.
//   - nIterations: Number of rounds the driver plans to run.
//     Informational.
//   - nSuggestions: Default batch size per round.
//   - cfg: Pipeline configuration; start from DefaultConfig. Zero-valued
//     numeric fields are replaced by their defaults.
//
// Returns an error for a malformed schema or an unsupported acquisition
// kind; both fail fast, before any optimization state exists.
func NewSearcher(params map[string]ParameterSpec, nIterations, nSuggestions int, cfg Config) (*Searcher, error) {
	sp, err := newSpace(params)
	if err != nil {
		return nil, err
	}

	cfg = withDefaults(cfg)

	// Validate the acquisition kind now, not per call.
	if _, err := newUtilityFunction(cfg.UtilityKind, kappaStep, 0); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	if nSuggestions < 1 {
		nSuggestions = 1
	}

	return &Searcher{
		cfg:          cfg,
		space:        sp,
		nIterations:  nIterations,
		nSuggestions: nSuggestions,
		improveStep:  cfg.ImproveStep,
		rng:          rand.New(rand.NewSource(seed)),
	}, nil
}

// Suggest returns the next n parameter assignments to evaluate, given the
// ordered history of all previous evaluations. n <= 0 falls back to the
// batch size given at construction.
//
// With an empty history it returns uniformly random grid-valid
// assignments; no surrogate is involved. Otherwise it refits the ensemble
// on the full history, runs n+2 acquisition searches in parallel (each
// slot with its own exploration bias and diversity multiplier), ranks the
// candidates, drops duplicates of observed points when de-duplication is
// on, backfills with random grid samples if needed, and snaps everything
// back to the grid.
//
// Every returned assignment maps every configured parameter to one of its
// valid coordinates, and exactly n assignments are returned.
//
// The only error condition is a surrogate fit failure (for example a
// singular covariance under a degenerate history); the round is then
// aborted with no suggestions, since an invalid ensemble must never be
// used for scoring.
func (s *Searcher) Suggest(history []Observation, n int) ([]Assignment, error) {
	s.round++

	if n <= 0 {
		n = s.nSuggestions
	}

	// Bootstrap phase: nothing to model yet.
	if len(history) == 0 {
		return s.randomAssignments(n), nil
	}

	xs, ys, err := s.space.parseHistory(history)
	if err != nil {
		return nil, err
	}

	// Shrink the exploration spread as the search matures.
	s.improveStep *= s.cfg.DecayRate

	yMax := ys[0]
	for _, y := range ys[1:] {
		if y > yMax {
			yMax = y
		}
	}

	// Phase 1: refit the ensemble, in parallel, with freshly randomized
	// kernels. The fitted models replace the previous ensemble only after
	// every member succeeded.
	scales := make([][]float64, s.cfg.GPNum)
	for i := range scales {
		scales[i] = drawLengthScales(s.space.dim(), s.rng)
	}

	gps, err := fitEnsemble(scales, s.cfg.Alpha, xs, ys)
	if err != nil {
		return nil, err
	}

	s.gps = gps

	// Phase 2: one maximizer search per suggestion slot, oversampled so
	// de-duplication has alternatives to fall back on.
	candidates, err := s.searchSlots(gps, yMax, n+oversample)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	chosen := s.diversify(candidates, xs, n)

	suggestions := make([]Assignment, len(chosen))
	for i, x := range chosen {
		suggestions[i] = s.space.assignment(x)
	}

	s.sendUpdate(RoundUpdate{
		Round:       s.round,
		YMax:        yMax,
		ImproveStep: s.improveStep,
	})

	return suggestions, nil
}

//////
// Unexported functionalities.
//////

// withDefaults replaces zero-valued numeric fields with the DefaultConfig
// values so a partially filled Config cannot degenerate the pipeline.
func withDefaults(cfg Config) Config {
	def := DefaultConfig()

	if cfg.UtilityKind == "" {
		cfg.UtilityKind = def.UtilityKind
	}

	if cfg.GPNum <= 0 {
		cfg.GPNum = def.GPNum
	}

	if cfg.Alpha <= 0 {
		cfg.Alpha = def.Alpha
	}

	if cfg.NumWarmup <= 0 {
		cfg.NumWarmup = def.NumWarmup
	}

	if cfg.StartPoints <= 0 {
		cfg.StartPoints = def.StartPoints
	}

	if cfg.StartPointsGrowth <= 0 {
		cfg.StartPointsGrowth = def.StartPointsGrowth
	}

	if cfg.ImproveStep <= 0 {
		cfg.ImproveStep = def.ImproveStep
	}

	if cfg.DecayRate <= 0 {
		cfg.DecayRate = def.DecayRate
	}

	if cfg.Lambda <= 0 {
		cfg.Lambda = def.Lambda
	}

	if cfg.Tol <= 0 {
		cfg.Tol = def.Tol
	}

	return cfg
}

// searchSlots runs one acquisition maximization per slot, in parallel,
// and returns the diversity-adjusted candidates in slot order.
//
// Slot i is biased to explore further from the best known point than slot
// i-1: its xi is i*improveStep plus a uniform jitter of the same
// magnitude, and its raw score is inflated by (Lambda*i + 1) so the
// ranking step does not collapse to near-duplicate top candidates.
func (s *Searcher) searchSlots(gps []*gaussianProcess, yMax float64, slots int) ([]scoredCandidate, error) {
	numStarts := s.cfg.StartPoints + int(s.cfg.StartPointsGrowth*float64(s.round))

	candidates := make([]scoredCandidate, slots)

	var group errgroup.Group

	for i := 0; i < slots; i++ {
		slot := i
		rng := rand.New(rand.NewSource(s.nextSeed()))

		group.Go(func() error {
			xi := float64(slot)*s.improveStep + rng.Float64()*s.improveStep

			u, err := newUtilityFunction(s.cfg.UtilityKind, float64(slot+1)*kappaStep, xi)
			if err != nil {
				return err
			}

			x, score := acqMax(u, gps, yMax, s.space, s.cfg.NumWarmup, numStarts, s.cfg.Tol, rng)

			candidates[slot] = scoredCandidate{
				x:     x,
				score: score * (s.cfg.Lambda*float64(slot) + 1),
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return candidates, nil
}

// diversify walks the score-ranked candidates and picks n of them.
//
// With de-duplication on, a candidate whose snapped vector exactly equals
// any historical vector is skipped; if the list is exhausted before n are
// accepted, the remaining slots are backfilled with fresh random grid
// points (which, on a fully covered grid, may legally repeat history).
// With de-duplication off, the top n by adjusted score are taken as-is.
func (s *Searcher) diversify(candidates []scoredCandidate, history [][]float64, n int) [][]float64 {
	chosen := make([][]float64, 0, n)

	if !s.cfg.DeDuplication {
		for i := 0; i < n && i < len(candidates); i++ {
			chosen = append(chosen, candidates[i].x)
		}
	} else {
		for _, c := range candidates {
			if len(chosen) == n {
				break
			}

			snapped := s.space.snapVector(c.x)

			duplicate := false

			for _, seen := range history {
				if vectorsEqual(snapped, seen) {
					duplicate = true

					break
				}
			}

			if !duplicate {
				chosen = append(chosen, c.x)
			}
		}
	}

	// Backfill whatever is still missing with random grid points.
	for len(chosen) < n {
		s.rngMu.Lock()
		x := s.space.randomPoint(s.rng)
		s.rngMu.Unlock()

		chosen = append(chosen, x)
	}

	return chosen
}

// randomAssignments returns n uniformly random grid-valid assignments.
func (s *Searcher) randomAssignments(n int) []Assignment {
	out := make([]Assignment, n)
	for i := range out {
		out[i] = s.space.assignment(s.space.randomPoint(s.rng))
	}

	return out
}

// nextSeed derives a seed for a worker-local random source.
func (s *Searcher) nextSeed() int64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()

	return s.rng.Int63()
}

// sendUpdate emits a round update without ever blocking the pipeline.
func (s *Searcher) sendUpdate(update RoundUpdate) {
	if s.cfg.ProgressChan == nil {
		return
	}

	select {
	case s.cfg.ProgressChan <- update:
	default:
		// Skip update if channel is full.
	}
}
