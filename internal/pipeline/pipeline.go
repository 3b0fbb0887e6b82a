// Package pipeline orchestrates the two phases of a study run. The build
// phase assembles one community model per sample from the organism networks
// and the abundance table, and persists each as an artifact. The simulate
// phase loads those artifacts, applies a diet, and computes net metabolite
// flux profiles.
//
// The build phase is fail-fast: a broken input invalidates the whole study.
// The simulate phase isolates samples: one infeasible model must not discard
// the finished profiles of the others.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gutcom/internal/community"
	"gutcom/internal/coupling"
	"gutcom/internal/diet"
	"gutcom/internal/metrics"
	"gutcom/internal/modelio"
	"gutcom/internal/results"
	"gutcom/internal/sim"
	"gutcom/internal/tables"
	"gutcom/pkg/gem"
)

// Config tunes a pipeline run.
type Config struct {
	// CouplingFactor links reaction fluxes to organism biomass. Zero means
	// coupling.DefaultFactor.
	CouplingFactor float64
	// Workers bounds per-sample concurrency. Zero means 1.
	Workers int
	// OptimumFraction is passed to flux variability analysis. Zero means
	// sim.DefaultOptimumFraction.
	OptimumFraction float64
	// BiomassBounds constrains community growth during simulation. Zero
	// means diet.DefaultBiomassBounds.
	BiomassBounds [2]float64
}

// Pipeline wires the collaborators of both phases.
type Pipeline struct {
	loader  OrganismLoader
	models  *modelio.Store
	results results.Store
	solver  sim.Solver
	metrics *metrics.Pipeline
	logger  *zap.Logger
	cfg     Config
}

// New assembles a pipeline. metrics may be nil when no registry is wired.
func New(loader OrganismLoader, models *modelio.Store, store results.Store, solver sim.Solver, m *metrics.Pipeline, cfg Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Pipeline{
		loader:  loader,
		models:  models,
		results: store,
		solver:  solver,
		metrics: m,
		logger:  logger,
		cfg:     cfg,
	}
}

// Build assembles and persists one community model per sample. Samples whose
// artifact already exists are skipped, which makes an interrupted run
// restartable. The first failure cancels the remaining samples.
func (p *Pipeline) Build(ctx context.Context, abundance *tables.AbundanceTable) (results.RunManifest, error) {
	manifest := results.RunManifest{
		ID:        runID("build"),
		Phase:     "build",
		StartedAt: time.Now().UTC(),
		Params: map[string]string{
			"coupling_factor": fmt.Sprintf("%g", p.couplingFactor()),
			"workers":         fmt.Sprintf("%d", p.cfg.Workers),
		},
	}

	global, globalSys, fecal, exMets, err := p.assembleGlobal(ctx, abundance.Organisms())
	if err != nil {
		return manifest, err
	}
	manifest.Organisms = abundance.Organisms()
	manifest.Metabolites = exMets

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for _, sample := range abundance.Samples() {
		g.Go(func() error {
			outcome, err := p.buildSample(gctx, global, globalSys, abundance, sample, fecal)
			mu.Lock()
			manifest.Samples = append(manifest.Samples, outcome)
			mu.Unlock()
			return err
		})
	}
	buildErr := g.Wait()

	sortOutcomes(manifest.Samples)
	manifest.FinishedAt = time.Now().UTC()
	if err := p.results.SaveManifest(ctx, manifest); err != nil {
		p.logger.Error("save build manifest", zap.Error(err))
		if buildErr == nil {
			buildErr = err
		}
	}
	return manifest, buildErr
}

// assembleGlobal tags and merges every organism network into the shared
// community model, attaches the diet and fecal compartments, and builds the
// global coupling system. It also returns the study-wide fecal exchange
// universe and the union of extracellular metabolites across organisms.
func (p *Pipeline) assembleGlobal(ctx context.Context, organisms []string) (*gem.Model, *gem.CouplingSystem, []string, []string, error) {
	global := gem.NewModel("community")
	exBases := map[string]struct{}{}
	for _, organism := range organisms {
		raw, err := p.loader.Load(ctx, organism)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		for _, metID := range community.ExtracellularMetabolites(raw) {
			base, _ := gem.SplitID(metID)
			exBases[base] = struct{}{}
		}
		if err := community.TagOrganism(raw, organism); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("pipeline: tag %s: %w", organism, err)
		}
		if err := community.MergeInto(global, raw); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("pipeline: merge %s: %w", organism, err)
		}
		p.logger.Debug("organism merged", zap.String("organism", organism))
	}
	if err := community.AddDietFecalCompartments(global); err != nil {
		return nil, nil, nil, nil, err
	}
	globalSys := coupling.BuildGlobal(global, organisms, p.couplingFactor(), p.logger)
	p.logger.Info("global community model assembled",
		zap.Int("organisms", len(organisms)),
		zap.Int("reactions", len(global.ReactionIDs())),
		zap.Int("coupling_rows", globalSys.Rows()))
	return global, globalSys, fecalUniverse(exBases), extracellularUniverse(exBases), nil
}

func (p *Pipeline) buildSample(ctx context.Context, global *gem.Model, globalSys *gem.CouplingSystem, abundance *tables.AbundanceTable, sample string, fecal []string) (results.SampleOutcome, error) {
	id := tables.SanitizeSampleName(sample)
	key := modelio.ModelKey(id)
	start := time.Now()

	exists, err := p.models.Exists(ctx, key)
	if err != nil {
		return failedOutcome(id, err), err
	}
	if exists {
		p.logger.Info("sample model exists, skipping", zap.String("sample", id))
		if p.metrics != nil {
			p.metrics.SamplesSkipped.Inc()
		}
		return results.SampleOutcome{Sample: id, Status: "skipped"}, nil
	}

	m := global.Copy()
	m.SetID(id)
	mets, rxns := community.PruneZeroAbundance(m, abundance.Absent(sample), p.logger)
	p.logger.Debug("pruned absent organisms",
		zap.String("sample", id), zap.Int("metabolites", mets), zap.Int("reactions", rxns))

	present := abundance.Present(sample)
	abundances := make([]community.Abundance, 0, len(present))
	for _, organism := range present {
		abundances = append(abundances, community.Abundance{
			Organism: organism,
			Value:    abundance.Abundance(organism, sample),
		})
	}
	if err := community.ComposeBiomass(m, abundances, p.logger); err != nil {
		return failedOutcome(id, err), err
	}

	sampleSys, err := coupling.PruneBySample(globalSys, present, m)
	if err != nil {
		return failedOutcome(id, err), err
	}

	// lumen transport only runs forward until a diet opens it
	for _, rxnID := range m.ReactionIDs() {
		if strings.HasPrefix(rxnID, "DUt_") || strings.HasPrefix(rxnID, "UFEt_") {
			if err := m.SetLower(rxnID, 0); err != nil {
				return failedOutcome(id, err), err
			}
		}
	}

	if err := p.models.Save(ctx, key, m, sampleSys, fecal, false); err != nil {
		return failedOutcome(id, err), err
	}
	if p.metrics != nil {
		p.metrics.SamplesBuilt.Inc()
		p.metrics.BuildDuration.Observe(time.Since(start).Seconds())
	}
	p.logger.Info("sample model built",
		zap.String("sample", id),
		zap.Int("organisms", len(present)),
		zap.Duration("elapsed", time.Since(start)))
	return results.SampleOutcome{Sample: id, Status: "built"}, nil
}

// Simulate loads each sample's model artifact, applies the diet, runs the
// flux analysis and stores the resulting profile. Failures are recorded per
// sample; the run only errors out when no sample succeeds.
func (p *Pipeline) Simulate(ctx context.Context, dietTable tables.DietTable, samples []string) (results.RunManifest, error) {
	manifest := results.RunManifest{
		ID:        runID("simulate"),
		Phase:     "simulate",
		StartedAt: time.Now().UTC(),
		Params: map[string]string{
			"optimum_fraction": fmt.Sprintf("%g", p.optimumFraction()),
			"diet_reactions":   fmt.Sprintf("%d", len(dietTable)),
			"workers":          fmt.Sprintf("%d", p.cfg.Workers),
		},
	}
	analyzer := sim.NewAnalyzer(p.solver, p.cfg.OptimumFraction, p.logger)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for _, sample := range samples {
		g.Go(func() error {
			outcome := p.simulateSample(gctx, analyzer, dietTable, sample)
			mu.Lock()
			manifest.Samples = append(manifest.Samples, outcome)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sortOutcomes(manifest.Samples)
	manifest.FinishedAt = time.Now().UTC()
	if err := p.results.SaveManifest(ctx, manifest); err != nil {
		return manifest, err
	}

	failed := 0
	for _, outcome := range manifest.Samples {
		if outcome.Status == "failed" {
			failed++
		}
	}
	if failed > 0 && failed == len(manifest.Samples) {
		return manifest, fmt.Errorf("pipeline: all %d samples failed to simulate", failed)
	}
	return manifest, nil
}

func (p *Pipeline) simulateSample(ctx context.Context, analyzer *sim.Analyzer, dietTable tables.DietTable, sample string) results.SampleOutcome {
	id := tables.SanitizeSampleName(sample)
	start := time.Now()

	m, sampleSys, fecal, err := p.models.Load(ctx, modelio.ModelKey(id))
	if err != nil {
		return p.simFailure(id, err)
	}
	if err := diet.Apply(m, dietTable, diet.Options{BiomassBounds: p.cfg.BiomassBounds}, p.logger); err != nil {
		return p.simFailure(id, err)
	}
	if err := p.models.Save(ctx, modelio.DietModelKey(id), m, sampleSys, fecal, true); err != nil {
		return p.simFailure(id, err)
	}
	profile, err := analyzer.Analyze(ctx, m, sampleSys, fecal)
	if err != nil {
		return p.simFailure(id, err)
	}
	if err := p.results.SaveProfile(ctx, profile); err != nil {
		return p.simFailure(id, err)
	}
	if p.metrics != nil {
		p.metrics.SamplesSimulated.Inc()
		p.metrics.SimulationDuration.Observe(time.Since(start).Seconds())
	}
	p.logger.Info("sample simulated",
		zap.String("sample", id),
		zap.Float64("objective", profile.Objective),
		zap.Duration("elapsed", time.Since(start)))
	return results.SampleOutcome{Sample: id, Status: "simulated"}
}

func (p *Pipeline) simFailure(sample string, err error) results.SampleOutcome {
	p.logger.Error("sample simulation failed", zap.String("sample", sample), zap.Error(err))
	if p.metrics != nil {
		p.metrics.SamplesFailed.Inc()
	}
	return results.SampleOutcome{Sample: sample, Status: "failed", Error: err.Error()}
}

func (p *Pipeline) couplingFactor() float64 {
	if p.cfg.CouplingFactor == 0 {
		return coupling.DefaultFactor
	}
	return p.cfg.CouplingFactor
}

func (p *Pipeline) optimumFraction() float64 {
	if p.cfg.OptimumFraction <= 0 {
		return sim.DefaultOptimumFraction
	}
	return p.cfg.OptimumFraction
}

func failedOutcome(sample string, err error) results.SampleOutcome {
	return results.SampleOutcome{Sample: sample, Status: "failed", Error: err.Error()}
}

// fecalUniverse turns the union of extracellular metabolite bases into the
// study-wide fecal exchange reaction list. The community biomass carrier is
// tracked by its own exchange and stays out of the profile universe.
func fecalUniverse(bases map[string]struct{}) []string {
	out := make([]string, 0, len(bases))
	for base := range bases {
		if base == "biomass" {
			continue
		}
		out = append(out, "EX_"+gem.JoinID(base, gem.CompartmentFecal))
	}
	sort.Strings(out)
	return out
}

// extracellularUniverse lists the union of extracellular metabolite ids
// across all organism networks, for the build manifest.
func extracellularUniverse(bases map[string]struct{}) []string {
	out := make([]string, 0, len(bases))
	for base := range bases {
		out = append(out, gem.JoinID(base, gem.CompartmentExtracellular))
	}
	sort.Strings(out)
	return out
}

func sortOutcomes(outcomes []results.SampleOutcome) {
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Sample < outcomes[j].Sample })
}

func runID(phase string) string {
	return phase + "-" + time.Now().UTC().Format("20060102T150405.000000000")
}
