package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"gutcom/internal/artifact"
	"gutcom/internal/modelio"
	"gutcom/internal/results"
	"gutcom/internal/sim"
	"gutcom/internal/tables"
	"gutcom/pkg/gem"
)

const abundanceCSV = `microbe,SRS001,2-sick
OrgA,0.6,0.0
OrgB,0.4,1.0
`

// mapLoader serves organism networks from memory, rebuilding on every call so
// callers never share state.
type mapLoader struct {
	builders map[string]func(t *testing.T) *gem.Model
	t        *testing.T
}

func (l *mapLoader) Load(_ context.Context, organism string) (*gem.Model, error) {
	build, ok := l.builders[organism]
	if !ok {
		return nil, errors.New("unknown organism " + organism)
	}
	return build(l.t), nil
}

// fermenterModel is a minimal organism network: glucose uptake, fermentation
// to acetate, biomass.
func fermenterModel(t *testing.T) *gem.Model {
	t.Helper()
	m := gem.NewModel("raw")
	for _, met := range []gem.Metabolite{
		{ID: "glc_D[e]", Compartment: gem.CompartmentExtracellular},
		{ID: "glc_D[c]", Compartment: gem.CompartmentCytosol},
		{ID: "ac[c]", Compartment: gem.CompartmentCytosol},
		{ID: "ac[e]", Compartment: gem.CompartmentExtracellular},
		{ID: "biomass[c]", Compartment: gem.CompartmentCytosol},
	} {
		if err := m.AddMetabolite(met); err != nil {
			t.Fatalf("AddMetabolite(%s): %v", met.ID, err)
		}
	}
	rxns := []gem.Reaction{
		{ID: "EX_glc_D(e)", Lower: -1000, Upper: 1000, Stoichiometry: map[string]float64{"glc_D[e]": -1}},
		{ID: "GLCt", Lower: -1000, Upper: 1000, Stoichiometry: map[string]float64{"glc_D[e]": -1, "glc_D[c]": 1}},
		{ID: "ACt", Lower: -1000, Upper: 1000, Stoichiometry: map[string]float64{"ac[c]": -1, "ac[e]": 1}},
		{ID: "biomass525", Lower: 0, Upper: 1000, Stoichiometry: map[string]float64{"glc_D[c]": -1, "ac[c]": 0.5, "biomass[c]": 1}},
	}
	for _, r := range rxns {
		if err := m.AddReaction(r); err != nil {
			t.Fatalf("AddReaction(%s): %v", r.ID, err)
		}
	}
	return m
}

// fixedSolver answers every optimization optimally and gives each requested
// reaction a fixed flux range. failSamples lists model ids whose solve fails.
type fixedSolver struct {
	failSamples map[string]bool
}

func (s *fixedSolver) Optimize(_ context.Context, p sim.Problem) (sim.Solution, error) {
	if s.failSamples[p.Model.ID()] {
		return sim.Solution{}, errors.New("solver blew up")
	}
	return sim.Solution{Status: sim.StatusOptimal, Objective: 0.7}, nil
}

func (s *fixedSolver) FluxVariability(_ context.Context, p sim.Problem, reactions []string, _ float64) (map[string]sim.FluxRange, error) {
	if s.failSamples[p.Model.ID()] {
		return nil, errors.New("solver blew up")
	}
	out := make(map[string]sim.FluxRange, len(reactions))
	for _, r := range reactions {
		if strings.HasPrefix(r, "Diet_EX_") {
			out[r] = sim.FluxRange{Min: -5, Max: -1}
		} else {
			out[r] = sim.FluxRange{Min: 0.5, Max: 2}
		}
	}
	return out, nil
}

type fixture struct {
	pipeline  *Pipeline
	artifacts artifact.Store
	models    *modelio.Store
	results   results.Store
	abundance *tables.AbundanceTable
}

func newFixture(t *testing.T, solver sim.Solver) *fixture {
	t.Helper()
	t.Setenv("GUTCOM_ARTIFACT_DRIVER", "memory")
	t.Setenv("GUTCOM_RESULTS_DRIVER", "memory")
	ctx := context.Background()

	backend, err := artifact.Open(ctx)
	if err != nil {
		t.Fatalf("artifact.Open: %v", err)
	}
	store, err := results.Open(ctx)
	if err != nil {
		t.Fatalf("results.Open: %v", err)
	}
	abundance, err := tables.LoadAbundance(strings.NewReader(abundanceCSV))
	if err != nil {
		t.Fatalf("LoadAbundance: %v", err)
	}
	loader := &mapLoader{
		t: t,
		builders: map[string]func(*testing.T) *gem.Model{
			"OrgA": fermenterModel,
			"OrgB": fermenterModel,
		},
	}
	models := modelio.NewStore(backend)
	p := New(loader, models, store, solver, nil, Config{Workers: 2}, zap.NewNop())
	return &fixture{pipeline: p, artifacts: backend, models: models, results: store, abundance: abundance}
}

func TestBuildCreatesSampleArtifacts(t *testing.T) {
	f := newFixture(t, &fixedSolver{})
	ctx := context.Background()

	manifest, err := f.pipeline.Build(ctx, f.abundance)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(manifest.Samples) != 2 {
		t.Fatalf("expected 2 outcomes, got %+v", manifest.Samples)
	}
	for _, outcome := range manifest.Samples {
		if outcome.Status != "built" {
			t.Fatalf("outcome %+v, want built", outcome)
		}
	}
	// sample names are sanitized into identifiers
	if manifest.Samples[1].Sample != "sample_2_sick" {
		t.Fatalf("sample name not sanitized: %+v", manifest.Samples)
	}
	// the build manifest records the study inputs
	if len(manifest.Organisms) != 2 || manifest.Organisms[0] != "OrgA" || manifest.Organisms[1] != "OrgB" {
		t.Fatalf("manifest organisms = %v", manifest.Organisms)
	}
	wantMets := []string{"ac[e]", "glc_D[e]"}
	if len(manifest.Metabolites) != 2 || manifest.Metabolites[0] != wantMets[0] || manifest.Metabolites[1] != wantMets[1] {
		t.Fatalf("manifest metabolites = %v, want %v", manifest.Metabolites, wantMets)
	}

	m, sys, fecal, err := f.models.Load(ctx, modelio.ModelKey("sample_2_sick"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// OrgA has zero abundance in this sample and must be pruned out
	for _, id := range m.ReactionIDs() {
		if strings.HasPrefix(id, "OrgA_") {
			t.Fatalf("pruned organism still present: %s", id)
		}
	}
	biomass, ok := m.Reaction("communityBiomass")
	if !ok {
		t.Fatal("communityBiomass missing")
	}
	if biomass.Stoichiometry["OrgB_biomass[c]"] != -1.0 {
		t.Fatalf("biomass weight = %g, want -1", biomass.Stoichiometry["OrgB_biomass[c]"])
	}
	if m.ObjectiveID() != "EX_microbeBiomass[fe]" {
		t.Fatalf("objective = %s", m.ObjectiveID())
	}
	if sys.Rows() == 0 {
		t.Fatal("sample coupling system empty")
	}
	for _, row := range sys.C {
		for rxnID := range row {
			if strings.HasPrefix(rxnID, "OrgA_") {
				t.Fatalf("coupling row references pruned organism: %s", rxnID)
			}
		}
	}
	wantFecal := []string{"EX_ac[fe]", "EX_glc_D[fe]"}
	if len(fecal) != 2 || fecal[0] != wantFecal[0] || fecal[1] != wantFecal[1] {
		t.Fatalf("fecal universe = %v, want %v", fecal, wantFecal)
	}
}

func TestBuildRestartSkipsFinishedSamples(t *testing.T) {
	f := newFixture(t, &fixedSolver{})
	ctx := context.Background()

	if _, err := f.pipeline.Build(ctx, f.abundance); err != nil {
		t.Fatalf("first Build: %v", err)
	}
	manifest, err := f.pipeline.Build(ctx, f.abundance)
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	for _, outcome := range manifest.Samples {
		if outcome.Status != "skipped" {
			t.Fatalf("restart must skip finished samples, got %+v", outcome)
		}
	}
}

func TestSimulateProducesProfiles(t *testing.T) {
	f := newFixture(t, &fixedSolver{})
	ctx := context.Background()
	if _, err := f.pipeline.Build(ctx, f.abundance); err != nil {
		t.Fatalf("Build: %v", err)
	}

	dietTable := tables.DietTable{"Diet_EX_glc_D[d]": {Lower: -10}}
	manifest, err := f.pipeline.Simulate(ctx, dietTable, f.abundance.Samples())
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	for _, outcome := range manifest.Samples {
		if outcome.Status != "simulated" {
			t.Fatalf("outcome %+v, want simulated", outcome)
		}
	}

	profile, err := f.results.Profile(ctx, "SRS001")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	// |diet_min + fecal_max| = |(-5) + 2| = 3
	if got := profile.Production["EX_ac[fe]"]; got != 3 {
		t.Fatalf("production = %g, want 3", got)
	}
	// the diet-adapted model is persisted alongside the sample model
	if ok, _ := f.artifacts.Exists(ctx, modelio.DietModelKey("SRS001")); !ok {
		t.Fatal("diet model artifact missing")
	}
}

func TestSimulateIsolatesFailures(t *testing.T) {
	f := newFixture(t, &fixedSolver{failSamples: map[string]bool{"sample_2_sick": true}})
	ctx := context.Background()
	if _, err := f.pipeline.Build(ctx, f.abundance); err != nil {
		t.Fatalf("Build: %v", err)
	}

	manifest, err := f.pipeline.Simulate(ctx, tables.DietTable{}, f.abundance.Samples())
	if err != nil {
		t.Fatalf("Simulate with one failing sample must not error: %v", err)
	}
	status := map[string]string{}
	for _, outcome := range manifest.Samples {
		status[outcome.Sample] = outcome.Status
	}
	if status["SRS001"] != "simulated" || status["sample_2_sick"] != "failed" {
		t.Fatalf("unexpected outcomes %v", status)
	}
	if _, err := f.results.Profile(ctx, "SRS001"); err != nil {
		t.Fatalf("surviving sample must keep its profile: %v", err)
	}
	if _, err := f.results.Profile(ctx, "sample_2_sick"); !errors.Is(err, results.ErrNotFound) {
		t.Fatalf("failed sample must not store a profile, got %v", err)
	}
}

func TestSimulateAllFailedErrors(t *testing.T) {
	f := newFixture(t, &fixedSolver{failSamples: map[string]bool{"SRS001": true, "sample_2_sick": true}})
	ctx := context.Background()
	if _, err := f.pipeline.Build(ctx, f.abundance); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := f.pipeline.Simulate(ctx, tables.DietTable{}, f.abundance.Samples()); err == nil {
		t.Fatal("expected error when every sample fails")
	}
}

func TestBuildFailsFastOnMissingOrganism(t *testing.T) {
	f := newFixture(t, &fixedSolver{})
	delete(f.pipeline.loader.(*mapLoader).builders, "OrgB")
	if _, err := f.pipeline.Build(context.Background(), f.abundance); err == nil {
		t.Fatal("expected error for missing organism network")
	}
}
