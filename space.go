package bo

import (
	"fmt"
	"math"
	"math/rand"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

//////
// Parameter space.
//////

// space is the immutable, validated view of the parameter schema used by
// every other component. Parameters are kept in alphabetical name order;
// candidate vector index i always refers to names[i], for the lifetime of
// the Searcher. Coordinate slices are copied at construction so later
// mutation of the caller's specs cannot skew the grid.
type space struct {
	// names holds the parameter names, sorted alphabetically.
	names []string

	// coords holds, per parameter (same order as names), every valid
	// coordinate in its stored order.
	coords [][]float64

	// bounds holds, per parameter, the [min, max] continuous interval.
	// Used only as optimizer constraints, not as the discretization grid.
	bounds [][2]float64
}

// newSpace validates the schema and builds the sorted space view.
//
// Rejected (fail fast, before any optimization state exists):
// - A spec whose Name is set but disagrees with its map key
// - A type other than ParameterTypeDouble
// - An empty coordinate list
// - Min greater than Max, or non-finite bounds or coordinates
func newSpace(params map[string]ParameterSpec) (*space, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("bo: parameter space must contain at least one parameter")
	}

	// Deterministic alphabetical order; vector index <-> name mapping is
	// fixed here once for all components.
	names := maps.Keys(params)
	slices.Sort(names)

	sp := &space{
		names:  names,
		coords: make([][]float64, len(names)),
		bounds: make([][2]float64, len(names)),
	}

	for i, name := range names {
		spec := params[name]

		if spec.Name != "" && spec.Name != name {
			return nil, fmt.Errorf("bo: parameter %q: spec name %q does not match its key", name, spec.Name)
		}

		if spec.Type != ParameterTypeDouble {
			return nil, fmt.Errorf("bo: parameter %q: unsupported parameter type %d, only double (%d) is supported",
				name, spec.Type, ParameterTypeDouble)
		}

		if len(spec.Coordinates) == 0 {
			return nil, fmt.Errorf("bo: parameter %q: coordinate list is empty", name)
		}

		if spec.Min > spec.Max || math.IsNaN(spec.Min) || math.IsNaN(spec.Max) {
			return nil, fmt.Errorf("bo: parameter %q: invalid bounds [%v, %v]", name, spec.Min, spec.Max)
		}

		for _, c := range spec.Coordinates {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return nil, fmt.Errorf("bo: parameter %q: non-finite coordinate %v", name, c)
			}
		}

		sp.coords[i] = append([]float64(nil), spec.Coordinates...)
		sp.bounds[i] = [2]float64{spec.Min, spec.Max}
	}

	return sp, nil
}

// dim returns the number of parameters.
func (sp *space) dim() int {
	return len(sp.names)
}

// snap returns the valid coordinate of parameter i closest to value. Ties
// are broken by first occurrence in the stored coordinate order. Linear in
// the number of coordinates, which is acceptable because coordinate sets
// are small.
func (sp *space) snap(i int, value float64) float64 {
	best := sp.coords[i][0]
	bestDist := math.Abs(best - value)

	for _, c := range sp.coords[i][1:] {
		if d := math.Abs(c - value); d < bestDist {
			best = c
			bestDist = d
		}
	}

	return best
}

// snapVector snaps every component of x to its parameter's grid, returning
// a new vector.
func (sp *space) snapVector(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = sp.snap(i, v)
	}

	return out
}

// randomPoint returns a candidate vector with each coordinate drawn
// uniformly from that parameter's valid coordinate set. Sampling from the
// grid, not from the continuous bounds, keeps the exploration prior on
// exactly the deployable support.
func (sp *space) randomPoint(rng *rand.Rand) []float64 {
	x := make([]float64, sp.dim())
	for i := range x {
		x[i] = sp.coords[i][rng.Intn(len(sp.coords[i]))]
	}

	return x
}

// assignment discretizes a candidate vector and maps it back to a
// parameter-name keyed Assignment, the externally visible form.
func (sp *space) assignment(x []float64) Assignment {
	a := make(Assignment, sp.dim())
	for i, name := range sp.names {
		a[name] = sp.snap(i, x[i])
	}

	return a
}

// vector converts an Assignment to the internal fixed-order candidate
// vector. The assignment must cover every configured parameter.
func (sp *space) vector(a Assignment) ([]float64, error) {
	x := make([]float64, sp.dim())

	for i, name := range sp.names {
		v, ok := a[name]
		if !ok {
			return nil, fmt.Errorf("bo: assignment is missing parameter %q", name)
		}

		x[i] = v
	}

	return x, nil
}

// parseHistory converts the observation history into training vectors
// (rows in fixed parameter order) and rewards. The history itself is never
// modified.
func (sp *space) parseHistory(history []Observation) (xs [][]float64, ys []float64, err error) {
	xs = make([][]float64, len(history))
	ys = make([]float64, len(history))

	for i, obs := range history {
		x, err := sp.vector(obs.Assignment)
		if err != nil {
			return nil, nil, fmt.Errorf("bo: history observation %d: %w", i, err)
		}

		xs[i] = x
		ys[i] = obs.Reward
	}

	return xs, ys, nil
}
