package bo

//////
// Const, vars, types.
//////

// ParameterType identifies the type of a parameter in the search space.
// Only double-typed parameters with a materialized coordinate list are
// supported; any other type is rejected by NewSearcher.
type ParameterType int

// ParameterTypeDouble is the only supported parameter type. The value (1)
// matches the conventional encoding of double-typed parameters in tuning
// schemas.
const ParameterTypeDouble ParameterType = 1

// UtilityKind selects the acquisition function used to score candidate
// points. The set of kinds is closed; an unsupported kind fails at
// Searcher construction, not at call time.
type UtilityKind string

const (
	// UtilityUCB is the Upper Confidence Bound acquisition function:
	// mean + kappa*std, aggregated as a max-envelope across the ensemble.
	UtilityUCB UtilityKind = "ucb"

	// UtilityEI is the Expected Improvement acquisition function,
	// aggregated as a max-envelope across the ensemble. This is the
	// default.
	UtilityEI UtilityKind = "ei"

	// UtilityPOI is the Probability of Improvement acquisition function.
	// It is evaluated against a single ensemble member only.
	UtilityPOI UtilityKind = "poi"
)

// ParameterSpec describes one parameter of the search space: its valid
// coordinate set and its continuous bounds. Specs are immutable after
// construction; the Searcher keeps its own copy of the coordinate list.
//
// Fields:
// - Name: Parameter name. May be left empty, in which case the map key
//   passed to NewSearcher is used. If set, it must match the map key.
// - Type: Must be ParameterTypeDouble.
// - Min, Max: Continuous bounds used as optimizer constraints. They are
//   not the discretization grid; Coordinates is.
// - Step: Grid step size. Informational; snapping always goes through
//   Coordinates.
// - Coordinates: All valid values of this parameter, in a stable order.
//   Suggestions always snap to the closest coordinate, ties broken by
//   first occurrence.
type ParameterSpec struct {
	// Name is the parameter name (unique key).
	Name string

	// Type is the parameter type. Only ParameterTypeDouble is valid.
	Type ParameterType

	// Min is the lower continuous bound (inclusive).
	Min float64

	// Max is the upper continuous bound (inclusive).
	Max float64

	// Step is the grid step size.
	Step float64

	// Coordinates lists every valid value of this parameter.
	Coordinates []float64
}

// Assignment maps every configured parameter name to one of its valid
// coordinates. It is the externally visible unit of suggestion.
type Assignment map[string]float64

// Observation is one historical evaluation: a parameter assignment plus
// the scalar reward the external evaluator measured for it. Higher rewards
// are better. The ordered sequence of observations is the history; the
// Searcher receives a read-only snapshot of it each round and never
// mutates it.
type Observation struct {
	// Assignment holds the evaluated parameter values.
	Assignment Assignment

	// Reward is the scalar reward measured for Assignment.
	Reward float64
}

// RoundUpdate reports the state of one suggestion round. Updates are sent
// on Config.ProgressChan, if set, after the pipeline for a non-bootstrap
// round completes.
type RoundUpdate struct {
	// Round is the 1-based round counter.
	Round int

	// YMax is the best reward observed in the history this round.
	YMax float64

	// ImproveStep is the exploration spread after this round's decay.
	ImproveStep float64
}

// Config holds all tunables of the suggestion pipeline. Collecting them in
// one immutable value passed to NewSearcher replaces any package-level
// mutable defaults; two Searchers with different Configs never interact.
//
// Zero values are replaced by the corresponding DefaultConfig values at
// construction, except for DeDuplication and UtilityKind which are taken
// as-is when set (start from DefaultConfig and adjust).
type Config struct {
	// UtilityKind selects the acquisition function. Must be one of
	// UtilityUCB, UtilityEI, UtilityPOI. Default: UtilityEI.
	UtilityKind UtilityKind

	// GPNum is the number of surrogate ensemble members. Each member is an
	// independently configured Gaussian Process whose kernel length-scales
	// are redrawn every round. Default: 7.
	GPNum int

	// Alpha is the jitter added to the covariance diagonal for numerical
	// stability (the observation noise level). Default: 1e-5.
	Alpha float64

	// NumWarmup is the number of grid-valid random candidates scored in
	// one batch to seed each acquisition maximization. Default: 400.
	NumWarmup int

	// StartPoints is the base number of local refinement starts per
	// maximization. Default: 2.
	StartPoints int

	// StartPointsGrowth adds floor(StartPointsGrowth*round) extra starts
	// per round, deepening the local search as the surrogate matures.
	// Default: 0.35.
	StartPointsGrowth float64

	// ImproveStep is the initial exploration spread. Suggestion slot i
	// biases its acquisition by i*step + U(0,1)*step, pushing later slots
	// away from the best known point. Default: 3.
	ImproveStep float64

	// DecayRate shrinks ImproveStep every round that has history,
	// narrowing exploration over time. Default: 0.9.
	DecayRate float64

	// Lambda inflates slot i's score by (Lambda*i + 1) before ranking so
	// the batch does not collapse to near-duplicate top candidates.
	// Default: 1.
	Lambda float64

	// Tol is the numerical tolerance of the local quasi-Newton refinement.
	// Default: 1e-5.
	Tol float64

	// DeDuplication filters suggestions that duplicate an already observed
	// (snapped) point, backfilling with random grid samples. Default: true
	// (via DefaultConfig).
	DeDuplication bool

	// Seed seeds the Searcher's random source. Zero means time-seeded.
	Seed int64

	// ProgressChan receives a RoundUpdate after each non-bootstrap round.
	// Sends are non-blocking; updates are dropped if the channel is full.
	// If nil, no updates are sent.
	ProgressChan chan<- RoundUpdate
}
