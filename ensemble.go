package bo

import (
	"math/rand"

	"golang.org/x/sync/errgroup"
)

//////
// Surrogate ensemble.
//////

// Length-scale redraw interval. Scales are drawn from N(1, 1) per
// dimension and clamped into this range for kernel stability.
const (
	lengthScaleMin = 0.2
	lengthScaleMax = 5.0
)

// drawLengthScales returns one per-dimension length-scale vector drawn
// from a clamped normal distribution. Redrawing the scales before every
// refit is what diversifies the ensemble; identical kernels across members
// would collapse the max-envelope aggregation to a single model.
func drawLengthScales(dim int, rng *rand.Rand) []float64 {
	scales := make([]float64, dim)

	for i := range scales {
		d := 1 + rng.NormFloat64()

		if d < lengthScaleMin {
			d = lengthScaleMin
		}

		if d > lengthScaleMax {
			d = lengthScaleMax
		}

		scales[i] = d
	}

	return scales
}

// fitEnsemble constructs and fits one fresh model per length-scale vector,
// in parallel, on the full history. It returns the fitted models in member
// order, or the first fit error.
//
// Fit tasks are independent pure computations over read-only training
// data. Failure of any member is not tolerated: the whole group fails and
// no partially fitted ensemble is ever returned, so callers can swap the
// result in atomically at the round boundary.
func fitEnsemble(scales [][]float64, alpha float64, xs [][]float64, ys []float64) ([]*gaussianProcess, error) {
	models := make([]*gaussianProcess, len(scales))

	var group errgroup.Group

	for i, s := range scales {
		models[i] = newGaussianProcess(s, alpha)

		gp := models[i]

		group.Go(func() error {
			return gp.fit(xs, ys)
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return models, nil
}
