package bo

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

//////
// Acquisition maximizer.
//////

// acqMax finds the candidate vector that maximizes the aggregated
// acquisition score. Two stages:
//
//  1. Warm-up: numWarmup grid-valid random candidates, scored in one
//     batched utility call. The arg-max becomes the incumbent. Sampling
//     the true discrete grid guards against chasing acquisition values at
//     points that are never actually deployable.
//  2. Refinement: numStarts grid-valid random seeds, each refined by a
//     local quasi-Newton minimization of the negated utility, exploiting
//     gradient structure between grid points. A start that fails to
//     converge is discarded; local non-convergence is an expected,
//     non-fatal outcome.
//
// The winner among the incumbent and all converged refinements (ties go to
// the refinement) is clipped component-wise into bounds before return,
// since local steps may overshoot the box by small numerical amounts. The
// caller snaps it back to the grid.
func acqMax(
	u *utilityFunction,
	gps []*gaussianProcess,
	yMax float64,
	sp *space,
	numWarmup, numStarts int,
	tol float64,
	rng *rand.Rand,
) (best []float64, bestScore float64) {
	// Warm up with random grid points.
	xTries := make([][]float64, numWarmup)
	for i := range xTries {
		xTries[i] = sp.randomPoint(rng)
	}

	scores := u.utility(xTries, gps, yMax)

	top := floats.MaxIdx(scores)
	best = cloneVector(xTries[top])
	bestScore = scores[top]

	// Explore the acquisition surface more thoroughly from random seeds.
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			// Evaluate inside the box; the optimizer itself is
			// unconstrained.
			point := clip(cloneVector(x), sp.bounds)

			return -u.utility([][]float64{point}, gps, yMax)[0]
		},
	}

	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{
			Absolute:   tol,
			Iterations: 20,
		},
	}

	for i := 0; i < numStarts; i++ {
		result, err := optimize.Minimize(problem, sp.randomPoint(rng), settings, &optimize.LBFGS{})
		if err != nil {
			// Did not converge; drop this start and keep searching.
			continue
		}

		score := -result.F
		if math.IsNaN(score) || score < bestScore {
			continue
		}

		best = clip(cloneVector(result.X), sp.bounds)
		bestScore = score
	}

	return clip(best, sp.bounds), bestScore
}
