package bo

//////
// Helper functions.
//////

// clip constrains every component of x into the corresponding [min, max]
// interval of bounds, in place, and returns x. Local optimizers may
// overshoot the box by small numerical amounts; suggestions are clipped
// before leaving the maximizer.
func clip(x []float64, bounds [][2]float64) []float64 {
	for i := range x {
		if x[i] < bounds[i][0] {
			x[i] = bounds[i][0]
		}

		if x[i] > bounds[i][1] {
			x[i] = bounds[i][1]
		}
	}

	return x
}

// vectorsEqual reports whether two candidate vectors are exactly equal,
// component by component. De-duplication compares snapped candidates to
// raw historical vectors with exact equality; coordinates are exact grid
// values, so no tolerance is applied.
func vectorsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// cloneVector returns an independent copy of x. Candidate vectors cross
// goroutine boundaries; copies keep workers from aliasing each other's
// buffers.
func cloneVector(x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)

	return out
}
