package bo

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

//////
// Const, vars, types.
//////

// gaussianProcess implements Gaussian Process regression with a Matern 5/2
// kernel and per-dimension (ARD) length-scales. It is used to predict the
// reward of untested parameter vectors, with an uncertainty estimate, from
// previously observed results.
//
// A model is an immutable (kernel configuration, fitted state) pair:
// length-scales are set at construction and fit populates the factored
// covariance exactly once. Retraining on new data constructs a new value
// instead of mutating a shared one, so a fitted model is safe to read from
// any number of concurrent search workers.
//
// Targets are normalized to zero mean and unit variance before fitting and
// denormalized on prediction, keeping the unit-variance kernel meaningful
// regardless of the reward scale.
type gaussianProcess struct {
	// lengthScales holds the per-dimension kernel length-scales.
	lengthScales []float64

	// alpha is the jitter added to the covariance diagonal.
	alpha float64

	// train holds copies of the training vectors, in history order.
	train [][]float64

	// chol is the Cholesky factorization of K(train, train) + alpha*I.
	chol mat.Cholesky

	// coef is K^-1 applied to the normalized targets.
	coef *mat.VecDense

	// yMean and yStd are the target normalization terms.
	yMean float64
	yStd  float64

	// fitted reports whether fit completed successfully.
	fitted bool
}

// errNotPositiveDefinite is returned when the covariance matrix cannot be
// Cholesky-factored, e.g. under a degenerate history with zero jitter.
var errNotPositiveDefinite = errors.New("bo: surrogate fit failed: covariance matrix is not positive definite")

//////
// Methods.
//////

// kernel evaluates the Matern 5/2 kernel between two points:
//
//	k(a, b) = (1 + sqrt(5)*r + 5*r^2/3) * exp(-sqrt(5)*r)
//
// where r is the Euclidean distance after dividing each dimension by its
// length-scale. Identical points yield 1.
func (gp *gaussianProcess) kernel(a, b []float64) float64 {
	var r2 float64

	for i := range a {
		d := (a[i] - b[i]) / gp.lengthScales[i]

		r2 += d * d
	}

	// s = sqrt(5)*r, and 5*r^2/3 = s^2/3.
	s := math.Sqrt(5 * r2)

	return (1 + s + s*s/3) * math.Exp(-s)
}

// fit trains the model on the full observation history. It factors the
// jittered covariance matrix and solves for the prediction coefficients.
//
// A numerical failure (non-positive-definite covariance) is returned as an
// error and the model stays unfitted; callers must not use a model whose
// fit failed.
func (gp *gaussianProcess) fit(xs [][]float64, ys []float64) error {
	n := len(xs)
	if n == 0 {
		return errors.New("bo: surrogate fit requires at least one observation")
	}

	// Normalize targets. With a single observation, or a constant reward
	// history, the sample deviation degenerates; fall back to unit scale.
	gp.yMean = stat.Mean(ys, nil)
	gp.yStd = 1

	if n > 1 {
		if std := stat.StdDev(ys, nil); std > 0 && !math.IsNaN(std) {
			gp.yStd = std
		}
	}

	normalized := make([]float64, n)
	for i, y := range ys {
		normalized[i] = (y - gp.yMean) / gp.yStd
	}

	// K = kernel(X, X) + alpha*I.
	cov := mat.NewSymDense(n, nil)

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := gp.kernel(xs[i], xs[j])

			if i == j {
				v += gp.alpha
			}

			if math.IsNaN(v) {
				return errNotPositiveDefinite
			}

			cov.SetSym(i, j, v)
		}
	}

	if ok := gp.chol.Factorize(cov); !ok {
		return errNotPositiveDefinite
	}

	gp.coef = &mat.VecDense{}
	if err := gp.chol.SolveVecTo(gp.coef, mat.NewVecDense(n, normalized)); err != nil {
		return errNotPositiveDefinite
	}

	// Keep private copies of the training vectors.
	gp.train = make([][]float64, n)
	for i, x := range xs {
		gp.train[i] = cloneVector(x)
	}

	gp.fitted = true

	return nil
}

// predict returns the predictive mean and standard deviation at each of
// the given candidate vectors. An unfitted model predicts (0, 1)
// everywhere, mirroring a prior with no observations.
//
// Read-only; safe to call concurrently from multiple search workers.
func (gp *gaussianProcess) predict(xs [][]float64) (means, stds []float64) {
	means = make([]float64, len(xs))
	stds = make([]float64, len(xs))

	if !gp.fitted {
		for i := range stds {
			stds[i] = 1
		}

		return means, stds
	}

	n := len(gp.train)
	kstar := mat.NewVecDense(n, nil)

	var v mat.VecDense

	for c, x := range xs {
		for i, t := range gp.train {
			kstar.SetVec(i, gp.kernel(x, t))
		}

		// Predictive mean, denormalized.
		means[c] = mat.Dot(kstar, gp.coef)*gp.yStd + gp.yMean

		// Predictive variance: k(x, x) - k*^T K^-1 k*, floored at zero
		// against numerical round-off.
		if err := gp.chol.SolveVecTo(&v, kstar); err != nil {
			stds[c] = 0

			continue
		}

		variance := gp.kernel(x, x) - mat.Dot(kstar, &v)
		if variance < 0 {
			variance = 0
		}

		stds[c] = math.Sqrt(variance) * gp.yStd
	}

	return means, stds
}

//////
// Factory.
//////

// newGaussianProcess creates an unfitted model with the given kernel
// length-scales (one per input dimension) and diagonal jitter.
func newGaussianProcess(lengthScales []float64, alpha float64) *gaussianProcess {
	return &gaussianProcess{
		lengthScales: append([]float64(nil), lengthScales...),
		alpha:        alpha,
	}
}
