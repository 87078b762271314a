package bo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastConfig keeps the pipeline cheap enough for tests while exercising
// every stage.
func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.GPNum = 3
	cfg.NumWarmup = 100
	cfg.Seed = 7

	return cfg
}

func testParams() map[string]ParameterSpec {
	return map[string]ParameterSpec{
		"p1": {Type: ParameterTypeDouble, Min: 0, Max: 2.5, Step: 1, Coordinates: []float64{0, 1, 2, 2.5}},
		"p2": {Type: ParameterTypeDouble, Min: 0, Max: 2, Step: 1, Coordinates: []float64{0, 1, 2}},
	}
}

// requireGridValid asserts that every suggestion assigns every parameter
// one of its valid coordinates.
func requireGridValid(t *testing.T, params map[string]ParameterSpec, suggestions []Assignment) {
	t.Helper()

	for _, a := range suggestions {
		require.Len(t, a, len(params))

		for name, spec := range params {
			require.Contains(t, a, name)
			assert.Contains(t, spec.Coordinates, a[name])
		}
	}
}

func TestNewSearcherFailsFast(t *testing.T) {
	// Unsupported acquisition kind.
	cfg := fastConfig()
	cfg.UtilityKind = "thompson"

	_, err := NewSearcher(testParams(), 10, 5, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thompson")

	// Malformed schema.
	_, err = NewSearcher(map[string]ParameterSpec{
		"p1": {Type: 3, Coordinates: []float64{0}},
	}, 10, 5, fastConfig())
	assert.Error(t, err)
}

func TestSuggestBootstrap(t *testing.T) {
	params := testParams()

	s, err := NewSearcher(params, 10, 5, fastConfig())
	require.NoError(t, err)

	suggestions, err := s.Suggest(nil, 5)
	require.NoError(t, err)

	require.Len(t, suggestions, 5)
	requireGridValid(t, params, suggestions)

	// The bootstrap phase never invokes the surrogate ensemble.
	assert.Nil(t, s.gps)
}

func TestSuggestBatchSizeAndValidity(t *testing.T) {
	params := testParams()

	s, err := NewSearcher(params, 10, 3, fastConfig())
	require.NoError(t, err)

	history := []Observation{
		{Assignment: Assignment{"p1": 0, "p2": 0}, Reward: -8},
		{Assignment: Assignment{"p1": 1, "p2": 2}, Reward: -2},
		{Assignment: Assignment{"p1": 2.5, "p2": 1}, Reward: -4},
	}

	for _, k := range []int{1, 3, 5} {
		suggestions, err := s.Suggest(history, k)
		require.NoError(t, err)

		require.Len(t, suggestions, k)
		requireGridValid(t, params, suggestions)
	}

	// The ensemble was fit and swapped in, with exactly GPNum members.
	require.Len(t, s.gps, 3)

	for _, gp := range s.gps {
		assert.True(t, gp.fitted)
	}

	// n <= 0 falls back to the construction-time batch size.
	suggestions, err := s.Suggest(history, 0)
	require.NoError(t, err)
	assert.Len(t, suggestions, 3)
}

func TestSuggestAvoidsObservedPoint(t *testing.T) {
	// One parameter, three coordinates, one bad observation at 0. With
	// de-duplication on, the single suggestion must be 1 or 2, never the
	// already observed 0.
	params := map[string]ParameterSpec{
		"p1": {Type: ParameterTypeDouble, Min: 0, Max: 2, Step: 1, Coordinates: []float64{0, 1, 2}},
	}

	history := []Observation{
		{Assignment: Assignment{"p1": 0}, Reward: -5},
	}

	for seed := int64(1); seed <= 5; seed++ {
		cfg := fastConfig()
		cfg.Seed = seed

		s, err := NewSearcher(params, 10, 1, cfg)
		require.NoError(t, err)

		suggestions, err := s.Suggest(history, 1)
		require.NoError(t, err)
		require.Len(t, suggestions, 1)

		assert.Contains(t, []float64{1, 2}, suggestions[0]["p1"])
	}
}

func TestSuggestBackfillOnFullCoverage(t *testing.T) {
	// Every grid point has been observed, so no non-duplicate candidate
	// exists and every returned suggestion comes from the random backfill
	// path. Backfill must still return grid-valid values.
	params := map[string]ParameterSpec{
		"p1": {Type: ParameterTypeDouble, Min: 0, Max: 1, Step: 1, Coordinates: []float64{0, 1}},
	}

	history := []Observation{
		{Assignment: Assignment{"p1": 0}, Reward: -1},
		{Assignment: Assignment{"p1": 1}, Reward: -2},
	}

	s, err := NewSearcher(params, 10, 1, fastConfig())
	require.NoError(t, err)

	suggestions, err := s.Suggest(history, 1)
	require.NoError(t, err)

	require.Len(t, suggestions, 1)
	requireGridValid(t, params, suggestions)
}

func TestSuggestPigeonhole(t *testing.T) {
	// Three suggestions from a two-value grid with full history coverage:
	// distinct-from-history is exhausted, so backfill may repeat values,
	// but the batch size and grid validity still hold.
	params := map[string]ParameterSpec{
		"p1": {Type: ParameterTypeDouble, Min: 0, Max: 1, Step: 1, Coordinates: []float64{0, 1}},
	}

	history := []Observation{
		{Assignment: Assignment{"p1": 0}, Reward: -1},
		{Assignment: Assignment{"p1": 1}, Reward: -2},
	}

	s, err := NewSearcher(params, 10, 3, fastConfig())
	require.NoError(t, err)

	suggestions, err := s.Suggest(history, 3)
	require.NoError(t, err)

	require.Len(t, suggestions, 3)
	requireGridValid(t, params, suggestions)
}

func TestSuggestWithoutDeDuplication(t *testing.T) {
	// With de-duplication off the top candidates are taken as-is; repeats
	// of history are legal, grid validity still holds.
	params := testParams()

	cfg := fastConfig()
	cfg.DeDuplication = false

	s, err := NewSearcher(params, 10, 2, cfg)
	require.NoError(t, err)

	history := []Observation{
		{Assignment: Assignment{"p1": 1, "p2": 1}, Reward: 3},
	}

	suggestions, err := s.Suggest(history, 2)
	require.NoError(t, err)

	require.Len(t, suggestions, 2)
	requireGridValid(t, params, suggestions)
}

func TestSuggestImproveStepDecay(t *testing.T) {
	s, err := NewSearcher(testParams(), 10, 1, fastConfig())
	require.NoError(t, err)

	history := []Observation{
		{Assignment: Assignment{"p1": 0, "p2": 0}, Reward: -1},
	}

	before := s.improveStep

	_, err = s.Suggest(history, 1)
	require.NoError(t, err)
	assert.InDelta(t, before*0.9, s.improveStep, 1e-12)

	_, err = s.Suggest(history, 1)
	require.NoError(t, err)
	assert.InDelta(t, before*0.9*0.9, s.improveStep, 1e-12)

	// Bootstrap rounds do not decay the spread.
	after := s.improveStep

	_, err = s.Suggest(nil, 1)
	require.NoError(t, err)
	assert.Equal(t, after, s.improveStep)
}

func TestSuggestProgressUpdates(t *testing.T) {
	progress := make(chan RoundUpdate, 4)

	cfg := fastConfig()
	cfg.ProgressChan = progress

	s, err := NewSearcher(testParams(), 10, 1, cfg)
	require.NoError(t, err)

	history := []Observation{
		{Assignment: Assignment{"p1": 0, "p2": 0}, Reward: -7},
		{Assignment: Assignment{"p1": 1, "p2": 1}, Reward: -3},
	}

	_, err = s.Suggest(history, 1)
	require.NoError(t, err)

	select {
	case update := <-progress:
		assert.Equal(t, 1, update.Round)
		assert.Equal(t, -3.0, update.YMax)
		assert.Greater(t, update.ImproveStep, 0.0)
	default:
		t.Fatal("expected a round update")
	}
}

func TestSuggestRejectsIncompleteHistory(t *testing.T) {
	s, err := NewSearcher(testParams(), 10, 1, fastConfig())
	require.NoError(t, err)

	_, err = s.Suggest([]Observation{
		{Assignment: Assignment{"p1": 0}, Reward: -1}, // p2 missing.
	}, 1)
	assert.Error(t, err)
}
