package router

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/fpgaroute/pkg/cost"
	"github.com/matzehuels/fpgaroute/pkg/errors"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, config files and tests
// =============================================================================

const (
	DefaultMaxIterations    = 50
	DefaultFirstIterPresFac = 0.0
	DefaultInitialPresFac   = 0.5
	DefaultPresFacMult      = 1.3
	DefaultMaxPresFac       = 1000.0
	DefaultAccFac           = 1.0
	DefaultBBFactor         = 3
	DefaultAStarFac         = 1.2

	// DefaultWirelengthAbort aborts after the first iteration when the
	// routing already uses this share of all available track length.
	DefaultWirelengthAbort = 0.85

	DefaultNetOrder  = OrderID
	DefaultPredictor = PredictorSafe
	DefaultWorkers   = 1
)

// Zero sets AccFac, BBFactor or AStarFac to zero. A plain 0 in those fields
// selects the default; any negative value means zero.
const Zero = -1

// Net orders.
const (
	OrderID          = "id"          // ascending net index
	OrderFanout      = "fanout"      // more sinks first
	OrderCriticality = "criticality" // more critical first
)

// Routing failure predictors. The value is the multiple of MaxIterations
// past which a predicted success iteration aborts the run.
const (
	PredictorOff        = "off"
	PredictorSafe       = "safe"
	PredictorAggressive = "aggressive"
)

var predictorFactor = map[string]float64{
	PredictorSafe:       3,
	PredictorAggressive: 1.5,
}

// Options configures a routing run. The zero value, after SetDefaults,
// reproduces the classic router settings.
type Options struct {
	MaxIterations int `json:"max_iterations" toml:"max_iterations"`

	// Present-congestion schedule. The first iteration uses
	// FirstIterPresFac (usually 0, so congestion is ignored), the second
	// InitialPresFac, and each later one multiplies by PresFacMult up to
	// MaxPresFac.
	FirstIterPresFac float64 `json:"first_iter_pres_fac" toml:"first_iter_pres_fac"`
	InitialPresFac   float64 `json:"initial_pres_fac" toml:"initial_pres_fac"`
	PresFacMult      float64 `json:"pres_fac_mult" toml:"pres_fac_mult"`
	MaxPresFac       float64 `json:"max_pres_fac" toml:"max_pres_fac"`

	// AccFac scales historical cost growth. The first iteration always uses
	// 0. Negative (see Zero) turns historical cost off.
	AccFac float64 `json:"acc_fac" toml:"acc_fac"`

	// BBFactor is the margin in tiles around each net's pins. Negative
	// means no margin.
	BBFactor int `json:"bb_factor" toml:"bb_factor"`

	// FixedBB disables bounding-box growth between iterations.
	FixedBB bool `json:"fixed_bb,omitempty" toml:"fixed_bb"`

	// AStarFac weights the lookahead. Negative gives plain Dijkstra.
	AStarFac   float64 `json:"astar_fac" toml:"astar_fac"`
	BendCost   float64 `json:"bend_cost,omitempty" toml:"bend_cost"`
	CostPolicy string  `json:"cost_policy" toml:"cost_policy"`
	Lookahead  string  `json:"lookahead" toml:"lookahead"`
	NetOrder   string  `json:"net_order" toml:"net_order"`

	// IncrementalReroute prunes congested branches instead of ripping up
	// whole nets.
	IncrementalReroute bool `json:"incremental_reroute,omitempty" toml:"incremental_reroute"`

	// MaxExpansions caps each sink search. 0 means no cap.
	MaxExpansions int `json:"max_expansions,omitempty" toml:"max_expansions"`

	// NetTimeout bounds the wall-clock time of one net. Sinks not reached
	// in time fail as budget-exhausted. 0 means no limit.
	NetTimeout time.Duration `json:"net_timeout,omitempty" toml:"net_timeout"`

	// WirelengthAbort is the used/available track length ratio above which
	// the run gives up after the first iteration. Negative disables it.
	WirelengthAbort float64 `json:"init_wirelength_abort_threshold" toml:"init_wirelength_abort_threshold"`

	Predictor string `json:"routing_predictor" toml:"routing_predictor"`

	// Workers > 1 routes nets with disjoint bounding boxes concurrently.
	Workers int `json:"workers" toml:"workers"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" toml:"-"`
}

// DefaultOptions returns Options with every default applied.
func DefaultOptions() Options {
	var o Options
	o.SetDefaults()
	return o
}

// SetDefaults fills zero fields with their defaults. FirstIterPresFac,
// BendCost and the boolean switches keep their zero values. Negative
// AccFac, BBFactor and AStarFac are kept, so SetDefaults may run twice.
func (o *Options) SetDefaults() {
	if o.MaxIterations == 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.InitialPresFac == 0 {
		o.InitialPresFac = DefaultInitialPresFac
	}
	if o.PresFacMult == 0 {
		o.PresFacMult = DefaultPresFacMult
	}
	if o.MaxPresFac == 0 {
		o.MaxPresFac = DefaultMaxPresFac
	}
	if o.AccFac == 0 {
		o.AccFac = DefaultAccFac
	}
	if o.BBFactor == 0 {
		o.BBFactor = DefaultBBFactor
	}
	if o.AStarFac == 0 {
		o.AStarFac = DefaultAStarFac
	}
	if o.CostPolicy == "" {
		o.CostPolicy = cost.PolicyCongestion
	}
	if o.Lookahead == "" {
		o.Lookahead = cost.LookaheadClassic
	}
	if o.NetOrder == "" {
		o.NetOrder = DefaultNetOrder
	}
	if o.WirelengthAbort == 0 {
		o.WirelengthAbort = DefaultWirelengthAbort
	}
	if o.Predictor == "" {
		o.Predictor = DefaultPredictor
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks ranges and names. Call SetDefaults first.
func (o *Options) Validate() error {
	bad := func(format string, args ...any) error {
		return errors.New(errors.ErrCodeInvalidConfig, format, args...)
	}
	switch {
	case o.MaxIterations < 1:
		return bad("max_iterations must be at least 1, got %d", o.MaxIterations)
	case o.FirstIterPresFac < 0:
		return bad("first_iter_pres_fac must not be negative, got %g", o.FirstIterPresFac)
	case o.InitialPresFac < 0:
		return bad("initial_pres_fac must not be negative, got %g", o.InitialPresFac)
	case o.PresFacMult < 1:
		return bad("pres_fac_mult must be at least 1, got %g", o.PresFacMult)
	case o.MaxPresFac < o.InitialPresFac:
		return bad("max_pres_fac %g is below initial_pres_fac %g", o.MaxPresFac, o.InitialPresFac)
	case o.BendCost < 0:
		return bad("bend_cost must not be negative, got %g", o.BendCost)
	case o.MaxExpansions < 0:
		return bad("max_expansions must not be negative, got %d", o.MaxExpansions)
	case o.NetTimeout < 0:
		return bad("net_timeout must not be negative, got %s", o.NetTimeout)
	case o.Workers < 1:
		return bad("workers must be at least 1, got %d", o.Workers)
	}
	switch o.NetOrder {
	case OrderID, OrderFanout, OrderCriticality:
	default:
		return bad("unknown net_order %q (must be one of: id, fanout, criticality)", o.NetOrder)
	}
	switch o.Predictor {
	case PredictorOff, PredictorSafe, PredictorAggressive:
	default:
		return bad("unknown routing_predictor %q (must be one of: off, safe, aggressive)", o.Predictor)
	}
	switch o.CostPolicy {
	case cost.PolicyCongestion, cost.PolicyTiming:
	default:
		return bad("unknown cost_policy %q (must be one of: congestion, timing)", o.CostPolicy)
	}
	switch o.Lookahead {
	case cost.LookaheadClassic, cost.LookaheadNone:
	default:
		return bad("unknown lookahead %q (must be one of: classic, none)", o.Lookahead)
	}
	return nil
}

func (o *Options) accFac() float64 { return max(o.AccFac, 0) }

func (o *Options) bbFactor() int { return max(o.BBFactor, 0) }

func (o *Options) astarFac() float64 { return max(o.AStarFac, 0) }
