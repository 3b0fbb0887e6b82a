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
	"gutcom/internal/sim"
	"gutcom/internal/tables"
)

var (
	simAbundancePath string
	simDietPath      string
	simSolverName    string
	simWorkers       int
	simFraction      float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Apply a diet and compute net flux profiles",
	Long: `Simulate loads each sample's model artifact, constrains its diet
exchanges to the given diet table, and runs flux variability analysis over
the diet and fecal exchanges. Per-sample net production and uptake profiles
are written to the results store. A failing sample is recorded and skipped;
the remaining samples still complete.

LP solver backends register themselves by name; select one with --solver or
the GUTCOM_SOLVER environment variable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		f, err := os.Open(simAbundancePath)
		if err != nil {
			return fmt.Errorf("open abundance table: %w", err)
		}
		abundance, err := tables.LoadAbundance(f)
		_ = f.Close()
		if err != nil {
			return err
		}

		dietTable := tables.DietTable{}
		if simDietPath != "" {
			df, err := os.Open(simDietPath)
			if err != nil {
				return fmt.Errorf("open diet table: %w", err)
			}
			dietTable, err = tables.LoadDiet(df)
			_ = df.Close()
			if err != nil {
				return err
			}
		}

		solver, err := sim.Open(simSolverName)
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
			nil,
			modelio.NewStore(backend),
			store,
			solver,
			startMetrics(),
			pipeline.Config{Workers: simWorkers, OptimumFraction: simFraction},
			logger,
		)
		manifest, err := p.Simulate(ctx, dietTable, abundance.Samples())
		if err != nil {
			return err
		}
		simulated, failed := 0, 0
		for _, outcome := range manifest.Samples {
			switch outcome.Status {
			case "simulated":
				simulated++
			case "failed":
				failed++
			}
		}
		logger.Info("simulation finished",
			zap.String("run", manifest.ID),
			zap.Int("simulated", simulated),
			zap.Int("failed", failed))
		return nil
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simAbundancePath, "abundance", "", "CSV abundance table (samples to simulate)")
	simulateCmd.Flags().StringVar(&simDietPath, "diet", "", "CSV diet table (empty closes the diet except host metabolites)")
	simulateCmd.Flags().StringVar(&simSolverName, "solver", "", "registered LP solver backend")
	simulateCmd.Flags().IntVar(&simWorkers, "workers", 4, "concurrent sample simulations")
	simulateCmd.Flags().Float64Var(&simFraction, "optimum-fraction", 0, "FVA fraction of optimum (0 = default 0.9999)")
	_ = simulateCmd.MarkFlagRequired("abundance")
}
