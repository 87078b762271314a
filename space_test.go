package bo

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSpace(t *testing.T) *space {
	t.Helper()

	sp, err := newSpace(map[string]ParameterSpec{
		"p2": {Type: ParameterTypeDouble, Min: 0, Max: 2, Step: 1, Coordinates: []float64{0, 1, 2}},
		"p1": {Type: ParameterTypeDouble, Min: 0, Max: 2.5, Step: 1, Coordinates: []float64{0, 1, 2, 2.5}},
	})
	require.NoError(t, err)

	return sp
}

func TestSpaceDeterministicOrder(t *testing.T) {
	sp := testSpace(t)

	// Alphabetical by name regardless of map iteration order.
	assert.Equal(t, []string{"p1", "p2"}, sp.names)
	assert.Equal(t, [2]float64{0, 2.5}, sp.bounds[0])
	assert.Equal(t, [2]float64{0, 2}, sp.bounds[1])
}

func TestSpaceSnap(t *testing.T) {
	sp := testSpace(t)

	assert.Equal(t, 1.0, sp.snap(0, 0.9))
	assert.Equal(t, 2.5, sp.snap(0, 7.0))
	assert.Equal(t, 0.0, sp.snap(1, -3.0))

	// Ties break to the first occurrence in the stored coordinate order.
	assert.Equal(t, 0.0, sp.snap(1, 0.5))

	// Idempotence: snapping a snapped value is a no-op.
	for i := range sp.names {
		for v := -1.0; v <= 3.0; v += 0.25 {
			once := sp.snap(i, v)
			assert.Equal(t, once, sp.snap(i, once))
		}
	}
}

func TestSpaceRandomPointIsGridValid(t *testing.T) {
	sp := testSpace(t)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 100; i++ {
		x := sp.randomPoint(rng)

		require.Len(t, x, 2)

		for j, v := range x {
			assert.Contains(t, sp.coords[j], v)
		}
	}
}

func TestSpaceAssignmentRoundTrip(t *testing.T) {
	sp := testSpace(t)

	a := sp.assignment([]float64{2.4, 0.2})
	assert.Equal(t, Assignment{"p1": 2.5, "p2": 0.0}, a)

	x, err := sp.vector(a)
	require.NoError(t, err)
	assert.Equal(t, []float64{2.5, 0}, x)

	// A missing parameter is an error, not a silent zero.
	_, err = sp.vector(Assignment{"p1": 1})
	assert.ErrorContains(t, err, "p2")
}

func TestNewSpaceRejectsMalformedSchema(t *testing.T) {
	// Unsupported parameter type.
	_, err := newSpace(map[string]ParameterSpec{
		"p1": {Type: 2, Coordinates: []float64{0, 1}},
	})
	assert.ErrorContains(t, err, "unsupported parameter type")

	// No coordinates materialized.
	_, err = newSpace(map[string]ParameterSpec{
		"p1": {Type: ParameterTypeDouble},
	})
	assert.ErrorContains(t, err, "coordinate list is empty")

	// Inverted bounds.
	_, err = newSpace(map[string]ParameterSpec{
		"p1": {Type: ParameterTypeDouble, Min: 2, Max: 1, Coordinates: []float64{1, 2}},
	})
	assert.ErrorContains(t, err, "invalid bounds")

	// Spec name disagreeing with its key.
	_, err = newSpace(map[string]ParameterSpec{
		"p1": {Name: "p9", Type: ParameterTypeDouble, Max: 1, Coordinates: []float64{0, 1}},
	})
	assert.ErrorContains(t, err, "does not match")

	// Empty space.
	_, err = newSpace(nil)
	assert.Error(t, err)
}
