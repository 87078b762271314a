package bo

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

//////
// Acquisition functions for Bayesian optimization.
// Each converts surrogate predictions into a scalar "worth evaluating"
// score, balancing exploration (uncertain areas) against exploitation
// (areas predicted to be good).
//////

// stdFloor is the threshold below which a predictive standard deviation is
// treated as numerically zero. The improvement formulas divide by std; at
// the floor the limit z -> +-Inf is applied consistently instead.
const stdFloor = 1e-12

// utilityFunction scores batches of candidate vectors against a fitted
// surrogate ensemble. The kind is validated at construction; an instance
// is a pure function over read-only models and is safe to call from any
// number of concurrent search workers.
type utilityFunction struct {
	// kind is the validated acquisition kind.
	kind UtilityKind

	// kappa weighs the uncertainty term of UCB.
	kappa float64

	// xi is the additive exploration bias: the improvement a candidate
	// must promise over the best observed reward before it scores.
	xi float64
}

// newUtilityFunction validates the kind and builds the scorer. Unsupported
// kinds fail here, with a descriptive error naming the kind, never at
// scoring time.
func newUtilityFunction(kind UtilityKind, kappa, xi float64) (*utilityFunction, error) {
	switch kind {
	case UtilityUCB, UtilityEI, UtilityPOI:
		return &utilityFunction{kind: kind, kappa: kappa, xi: xi}, nil
	default:
		return nil, fmt.Errorf("bo: the utility function %q has not been implemented, please choose one of ucb, ei, or poi", kind)
	}
}

// utility scores every candidate in xs against the ensemble, given the
// best reward observed so far. Higher is better.
//
// Aggregation semantics per kind:
//   - ei, ucb: elementwise maximum across all ensemble members, an
//     optimistic envelope. A candidate is promising if any one member
//     believes it is; max, not mean, rewards points where the members
//     disagree.
//   - poi: evaluated against the first ensemble member only.
func (u *utilityFunction) utility(xs [][]float64, gps []*gaussianProcess, yMax float64) []float64 {
	switch u.kind {
	case UtilityEI:
		return u.ei(xs, gps, yMax)
	case UtilityUCB:
		return u.ucb(xs, gps)
	default:
		return u.poi(xs, gps[0], yMax)
	}
}

// eiPoint computes the Expected Improvement of a single prediction, where
// a is the predicted improvement (mean - yMax - xi):
//
//	EI = a*CDF(z) + std*PDF(z), z = a/std
//
// under the standard normal distribution. At std ~ 0 the z -> +-Inf limit
// applies: the improvement itself if positive, zero otherwise.
func eiPoint(a, std float64) float64 {
	if std < stdFloor {
		if a > 0 {
			return a
		}

		return 0
	}

	z := a / std

	return a*distuv.UnitNormal.CDF(z) + std*distuv.UnitNormal.Prob(z)
}

// ei computes the ensemble max-envelope of per-member Expected
// Improvement.
func (u *utilityFunction) ei(xs [][]float64, gps []*gaussianProcess, yMax float64) []float64 {
	out := make([]float64, len(xs))

	for m, gp := range gps {
		means, stds := gp.predict(xs)

		for i := range xs {
			value := eiPoint(means[i]-yMax-u.xi, stds[i])

			if m == 0 || value > out[i] {
				out[i] = value
			}
		}
	}

	return out
}

// ucb computes the ensemble max-envelope of mean + kappa*std.
func (u *utilityFunction) ucb(xs [][]float64, gps []*gaussianProcess) []float64 {
	out := make([]float64, len(xs))

	for m, gp := range gps {
		means, stds := gp.predict(xs)

		for i := range xs {
			value := means[i] + u.kappa*stds[i]

			if m == 0 || value > out[i] {
				out[i] = value
			}
		}
	}

	return out
}

// poi computes the Probability of Improvement, CDF((mean - yMax - xi)/std),
// against a single model. No ensemble aggregation is performed for this
// kind.
func (u *utilityFunction) poi(xs [][]float64, gp *gaussianProcess, yMax float64) []float64 {
	out := make([]float64, len(xs))

	means, stds := gp.predict(xs)

	for i := range xs {
		a := means[i] - yMax - u.xi

		if stds[i] < stdFloor {
			if a > 0 {
				out[i] = 1
			}

			continue
		}

		out[i] = distuv.UnitNormal.CDF(a / stds[i])
	}

	return out
}
