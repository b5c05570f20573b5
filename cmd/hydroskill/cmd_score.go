package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/hydroskill/internal/adapters/report"
	service "github.com/okian/hydroskill/internal/app"
	"github.com/okian/hydroskill/internal/domain/model"
	"github.com/okian/hydroskill/internal/domain/series"
	"github.com/okian/hydroskill/pkg/logger"
)

var errNothingScored = errors.New("no series could be scored")

type scoreFlags struct {
	models       string
	observations string
	merged       string
	scores       string
	units        string
	skipLeading  int
	dropMissing  bool
}

func newScoreCommand(st *cliState) *cobra.Command {
	var flags scoreFlags
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score model outputs against observations",
		Long: `Reads a model output table and an observation table, aligns them on
exact timestamps and prints r, R_squared, NSE, RMSE and PBIAS per model.

The merged table is written before leading samples are skipped, so it keeps
the full aligned record.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("skip-leading") {
				flags.skipLeading = st.cfg.SkipLeading
			}
			return runScore(cmd, st, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.models, "models", "", "Model output CSV: timestamp column then one column per model (required)")
	f.StringVar(&flags.observations, "observations", "", "Observation CSV: timestamp and value columns (required)")
	f.StringVar(&flags.merged, "merged", "", "Write the aligned daily table to this CSV")
	f.StringVar(&flags.scores, "scores", "", "Write the skill score table to this CSV")
	f.StringVar(&flags.units, "units", "NTU", "Units written in the merged table")
	f.IntVar(&flags.skipLeading, "skip-leading", 0, "Drop this many aligned samples before scoring")
	f.BoolVar(&flags.dropMissing, "drop-missing", false, "Drop instants where any value is missing instead of failing")

	_ = cmd.MarkFlagRequired("models")
	_ = cmd.MarkFlagRequired("observations")
	return cmd
}

func runScore(cmd *cobra.Command, st *cliState, flags scoreFlags) error {
	ctx := cmd.Context()
	layout := series.WithLayout(st.cfg.DateLayout)

	var models []series.Series
	if err := readInput(flags.models, func(r io.Reader) (err error) {
		models, err = series.ReadModelOutputs(r, layout)
		return err
	}); err != nil {
		return err
	}
	var obs series.Series
	if err := readInput(flags.observations, func(r io.Reader) (err error) {
		obs, err = series.ReadObservations(r, layout)
		return err
	}); err != nil {
		return err
	}

	set, err := series.Align(obs, models...)
	if err != nil {
		return fmt.Errorf("align: %w", err)
	}
	st.log.Debug(ctx, "series aligned",
		logger.Int("models", len(models)),
		logger.Int("observations", obs.Len()),
		logger.Int("aligned", set.Len()),
	)

	if flags.merged != "" {
		if err := writeOutput(flags.merged, func(w io.Writer) error {
			return report.WriteMergedDaily(w, set, flags.units)
		}); err != nil {
			return err
		}
	}

	opts := []series.Option{series.WithSkipLeading(flags.skipLeading)}
	if flags.dropMissing {
		opts = append(opts, series.WithDropMissing())
	}
	clean, err := set.Prepare(opts...)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}

	preds := make([]model.NamedSeries, len(clean.Names))
	for i, name := range clean.Names {
		preds[i] = model.NamedSeries{Name: name, Values: clean.Predicted[i]}
	}
	svc := service.New(
		service.WithWorkerCount(st.cfg.WorkerCount),
		service.WithMaxSeriesLength(st.cfg.MaxSeriesLength),
		service.WithLogger(st.log.Named("service")),
	)
	results, err := svc.ScoreAll(ctx, clean.Observed, preds)
	if err != nil {
		return err
	}

	if flags.scores != "" {
		if err := writeOutput(flags.scores, func(w io.Writer) error {
			return report.WriteSkillScores(w, results)
		}); err != nil {
			return err
		}
	}
	if err := report.FormatText(cmd.OutOrStdout(), results); err != nil {
		return err
	}

	for _, res := range results {
		if res.OK() {
			return nil
		}
	}
	return errNothingScored
}

func readInput(path string, read func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if err := read(f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func writeOutput(path string, write func(io.Writer) error) error {
	f, err := createOutput(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
