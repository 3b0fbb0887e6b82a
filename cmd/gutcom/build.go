package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gutcom/internal/artifact"
	"gutcom/internal/modelio"
	"gutcom/internal/pipeline"
	"gutcom/internal/results"
	"gutcom/internal/tables"
)

var (
	buildAbundancePath string
	buildModelsDir     string
	buildWorkers       int
	buildCouplingCoeff float64
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Assemble one community model per sample",
	Long: `Build tags each organism network, merges them into a shared community
model with diet and fecal compartments, then derives one pruned model per
sample weighted by that sample's abundances. Each sample model is persisted
as an artifact together with its coupling constraints; samples whose artifact
already exists are skipped, so an interrupted run can simply be restarted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		f, err := os.Open(buildAbundancePath)
		if err != nil {
			return fmt.Errorf("open abundance table: %w", err)
		}
		abundance, err := tables.LoadAbundance(f)
		_ = f.Close()
		if err != nil {
			return err
		}

		backend, err := artifact.Open(ctx)
		if err != nil {
			return err
		}
		store, err := results.Open(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		p := pipeline.New(
			pipeline.NewDirLoader(buildModelsDir),
			modelio.NewStore(backend),
			store,
			nil,
			startMetrics(),
			pipeline.Config{CouplingFactor: buildCouplingCoeff, Workers: buildWorkers},
			logger,
		)
		manifest, err := p.Build(ctx, abundance)
		if err != nil {
			return err
		}
		logger.Info("build finished",
			zap.String("run", manifest.ID),
			zap.Int("samples", len(manifest.Samples)))
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildAbundancePath, "abundance", "", "CSV abundance table (organisms x samples)")
	buildCmd.Flags().StringVar(&buildModelsDir, "models", "", "directory of organism network snapshots")
	buildCmd.Flags().IntVar(&buildWorkers, "workers", 4, "concurrent sample builds")
	buildCmd.Flags().Float64Var(&buildCouplingCoeff, "coupling-factor", 0, "reaction-to-biomass coupling coefficient (0 = default 400)")
	_ = buildCmd.MarkFlagRequired("abundance")
	_ = buildCmd.MarkFlagRequired("models")
}
