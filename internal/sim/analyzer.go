package sim

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"gutcom/internal/community"
	"gutcom/pkg/gem"
)

// DefaultOptimumFraction holds the growth objective at 99.99% of its optimum
// during flux variability analysis.
const DefaultOptimumFraction = 0.9999

// NoiseFloor is the magnitude below which a solver flux value is treated as
// numerical noise and floored to zero before aggregation.
const NoiseFloor = 1e-7

// Exchange is the flux variability result for one metabolite's paired diet
// and fecal exchange reactions, with sub-NoiseFloor values floored to zero.
// A reaction missing from the model or from the solver result contributes
// zero.
type Exchange struct {
	FecalMin float64 `json:"fecal_min" msgpack:"fmin"`
	FecalMax float64 `json:"fecal_max" msgpack:"fmax"`
	DietMin  float64 `json:"diet_min" msgpack:"dmin"`
	DietMax  float64 `json:"diet_max" msgpack:"dmax"`
}

// NetFluxProfile is the per-sample simulation result. All maps are keyed by
// fecal exchange reaction id.
type NetFluxProfile struct {
	Sample    string  `json:"sample" msgpack:"sample"`
	Status    Status  `json:"status" msgpack:"status"`
	Objective float64 `json:"objective" msgpack:"objective"`

	// Production is |diet_min + fecal_max|: how much of the metabolite the
	// community can net-produce into the fecal compartment.
	Production map[string]float64 `json:"production" msgpack:"production"`
	// Uptake is |diet_max + fecal_min|: how much the community can
	// net-consume from the diet.
	Uptake map[string]float64 `json:"uptake" msgpack:"uptake"`
	// MinNetFecalExcretion is fecal_min + diet_min, the guaranteed net
	// excretion floor. Unlike Production and Uptake it keeps its sign.
	MinNetFecalExcretion map[string]float64 `json:"min_net_fecal_excretion" msgpack:"min_net"`
	// Raw keeps the floored flux ranges for downstream inspection.
	Raw map[string]Exchange `json:"raw" msgpack:"raw"`
}

// DietVariable derives the paired diet exchange id from a fecal exchange id:
// EX_met[fe] becomes Diet_EX_met[d].
func DietVariable(fecalID string) string {
	id := strings.Replace(fecalID, "EX_", "Diet_EX_", 1)
	return strings.Replace(id, "["+gem.CompartmentFecal+"]", "["+gem.CompartmentDiet+"]", 1)
}

// Analyzer turns a diet-adapted sample model into a net flux profile.
type Analyzer struct {
	solver   Solver
	fraction float64
	logger   *zap.Logger
}

// NewAnalyzer wires an analyzer to a solver backend. fraction <= 0 means
// DefaultOptimumFraction.
func NewAnalyzer(solver Solver, fraction float64, logger *zap.Logger) *Analyzer {
	if fraction <= 0 {
		fraction = DefaultOptimumFraction
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{solver: solver, fraction: fraction, logger: logger}
}

// Analyze solves the community growth objective for feasibility, runs flux
// variability over the diet/fecal exchange pairs, and aggregates the ranges.
//
// fecalExchanges is the study-wide universe of fecal exchange reaction ids;
// only those present in this sample's model are analyzed. The community
// biomass exchange is never part of the profile.
func (a *Analyzer) Analyze(ctx context.Context, m *gem.Model, coupling *gem.CouplingSystem, fecalExchanges []string) (*NetFluxProfile, error) {
	problem := Problem{Model: m, Coupling: coupling, Objective: community.BiomassObjectiveID}

	sol, err := a.solver.Optimize(ctx, problem)
	if err != nil {
		return nil, fmt.Errorf("sim: sample %s: feasibility solve: %w", m.ID(), err)
	}
	if sol.Status != StatusOptimal {
		a.logger.Warn("community growth objective not solved to optimality",
			zap.String("sample", m.ID()),
			zap.String("status", string(sol.Status)))
	}

	fecal := a.sampleExchanges(m, fecalExchanges)
	if len(fecal) == 0 {
		return nil, fmt.Errorf("sim: sample %s: no fecal exchange reactions to analyze", m.ID())
	}
	vars := make([]string, 0, 2*len(fecal))
	for _, fecalID := range fecal {
		vars = append(vars, fecalID)
		if dietID := DietVariable(fecalID); m.HasReaction(dietID) {
			vars = append(vars, dietID)
		}
	}

	ranges, err := a.solver.FluxVariability(ctx, problem, vars, a.fraction)
	if err != nil {
		return nil, fmt.Errorf("sim: sample %s: flux variability: %w", m.ID(), err)
	}

	profile := &NetFluxProfile{
		Sample:               m.ID(),
		Status:               sol.Status,
		Objective:            sol.Objective,
		Production:           make(map[string]float64, len(fecal)),
		Uptake:               make(map[string]float64, len(fecal)),
		MinNetFecalExcretion: make(map[string]float64, len(fecal)),
		Raw:                  make(map[string]Exchange, len(fecal)),
	}
	for _, fecalID := range fecal {
		fr := ranges[fecalID]
		dr := ranges[DietVariable(fecalID)]
		ex := Exchange{
			FecalMin: denoise(fr.Min),
			FecalMax: denoise(fr.Max),
			DietMin:  denoise(dr.Min),
			DietMax:  denoise(dr.Max),
		}
		profile.Raw[fecalID] = ex
		profile.Production[fecalID] = math.Abs(ex.DietMin + ex.FecalMax)
		profile.Uptake[fecalID] = math.Abs(ex.DietMax + ex.FecalMin)
		profile.MinNetFecalExcretion[fecalID] = ex.FecalMin + ex.DietMin
	}
	return profile, nil
}

// sampleExchanges intersects the study-wide fecal exchange universe with the
// reactions this sample actually carries.
func (a *Analyzer) sampleExchanges(m *gem.Model, universe []string) []string {
	out := make([]string, 0, len(universe))
	for _, id := range universe {
		if id == community.BiomassObjectiveID {
			continue
		}
		if m.HasReaction(id) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// denoise floors a solver flux value to zero when its magnitude is below
// NoiseFloor.
func denoise(v float64) float64 {
	if math.Abs(v) < NoiseFloor {
		return 0
	}
	return v
}
