// Package bo provides batch Bayesian optimization over discrete parameter
// grids. Given a history of (parameter assignment, reward) observations it
// proposes a batch of new assignments expected to improve the reward,
// trading exploration against exploitation. It is designed for tuning loops
// where evaluating an assignment is expensive, so queries must be
// sample-efficient, and where several proposals are requested per round, so
// the batch must be internally diverse rather than just individually optimal.
//
// # Features
//
// The package includes the following key features:
//
//   - Surrogate Ensemble: A fixed-size collection of Gaussian Process
//     regressors with independently randomized Matern 5/2 kernel
//     length-scales, refit in parallel on the full history every round
//   - Optimistic Aggregation: Expected Improvement is taken as the
//     elementwise maximum across all ensemble members, rewarding candidates
//     where model disagreement creates upside
//   - Multiple Acquisition Functions: Upper Confidence Bound (UCB),
//     Expected Improvement (EI), and Probability of Improvement (POI),
//     validated at construction
//   - Two-stage Maximization: Grid-valid random warm-up sampling followed
//     by multi-start quasi-Newton refinement of the acquisition surface
//   - Batch Diversification: Each suggestion slot searches with its own
//     exploration bias and diversity multiplier, and duplicates of already
//     observed points are filtered out and backfilled with random samples
//   - Progress Monitoring: Per-round updates (best reward, exploration
//     spread) via an optional channel
//   - Flexible Configuration: One immutable Config value controls the whole
//     pipeline, no package-level mutable state
//
// # Usage
//
// Define the parameter grid, construct a Searcher, and call Suggest once
// per round with the accumulated history:
//
//	space := map[string]bo.ParameterSpec{
//	    "p1": {Type: bo.ParameterTypeDouble, Min: 0, Max: 2.5, Step: 1,
//	        Coordinates: []float64{0, 1, 2, 2.5}},
//	    "p2": {Type: bo.ParameterTypeDouble, Min: 0, Max: 2, Step: 1,
//	        Coordinates: []float64{0, 1, 2}},
//	}
//
//	searcher, err := bo.NewSearcher(space, 10, 5, bo.DefaultConfig())
//	if err != nil {
//	    // Malformed schema or unsupported acquisition kind.
//	}
//
//	var history []bo.Observation
//	for round := 0; round < 10; round++ {
//	    suggestions, err := searcher.Suggest(history, 5)
//	    if err != nil {
//	        // Surrogate fit failed, the round is aborted.
//	    }
//	    for _, a := range suggestions {
//	        history = append(history, bo.Observation{
//	            Assignment: a,
//	            Reward:     evaluate(a), // External, expensive.
//	        })
//	    }
//	}
//
// The first round (empty history) returns uniformly random grid-valid
// assignments; no surrogate is involved until at least one observation
// exists.
//
// # Acquisition Functions
//
// 1. Expected Improvement (EI, the default):
//
//   - Balances the probability and the magnitude of improvement
//
//   - Aggregated as an optimistic max-envelope across the ensemble
//
//     config := DefaultConfig() // Uses EI by default.
//
// 2. Upper Confidence Bound (UCB):
//
//   - Direct mean plus weighted-uncertainty trade-off
//
//   - Each suggestion slot uses an increasing kappa weight
//
//     config := DefaultConfig()
//     config.UtilityKind = UtilityUCB
//
// 3. Probability of Improvement (POI):
//
//   - Conservative, probability-only strategy
//
//   - Evaluated against a single ensemble member, not the whole ensemble
//
//     config := DefaultConfig()
//     config.UtilityKind = UtilityPOI
//
// # Concurrency
//
// Each round runs two fork-join phases: the ensemble refit (one task per
// surrogate member) and the suggestion search (one task per slot). Both
// use fail-fast task groups; a fit failure aborts the round, while a
// non-converged local search start is silently discarded. A Searcher must
// not be used from multiple goroutines at once: Suggest mutates the
// ensemble and the exploration schedule between rounds.
//
// # Error Handling
//
// User-visible failure is limited to a malformed parameter schema, an
// unsupported acquisition kind (both reported by NewSearcher) and a total
// surrogate fit failure (reported by Suggest). Everything else, including
// local optimizer non-convergence and running out of distinct candidates
// during de-duplication, is recovered internally.
package bo
