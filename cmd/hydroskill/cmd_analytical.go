package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/okian/hydroskill/internal/adapters/report"
	"github.com/okian/hydroskill/internal/domain/analytical"
	"github.com/okian/hydroskill/internal/domain/series"
	"github.com/okian/hydroskill/internal/domain/skill"
	"github.com/okian/hydroskill/pkg/logger"
)

type analyticalFlags struct {
	heads  string
	points int
	params analytical.Params
}

func newAnalyticalCommand(st *cliState) *cobra.Command {
	flags := analyticalFlags{params: analytical.DefaultParams()}
	cmd := &cobra.Command{
		Use:   "analytical",
		Short: "Compare simulated heads with the Dupuit-Forchheimer solution",
		Long: `Reads simulated heads along a transect, evaluates the analytical head at
evenly spaced positions from 0 to L and prints rmse, nse, pbias and pcc with
the simulated heads as the reference.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalytical(cmd, st, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.heads, "heads", "", "Simulated head profile CSV, value in the last column (required)")
	f.IntVar(&flags.points, "points", 0, "Profile positions; 0 matches the number of simulated heads")
	f.Float64Var(&flags.params.H1, "h1", flags.params.H1, "Head at x = 0 [m]")
	f.Float64Var(&flags.params.H2, "h2", flags.params.H2, "Head at x = L [m]")
	f.Float64Var(&flags.params.L, "length", flags.params.L, "Distance between the boundaries [m]")
	f.Float64Var(&flags.params.W, "recharge", flags.params.W, "Recharge rate [m/day]")
	f.Float64Var(&flags.params.K, "conductivity", flags.params.K, "Hydraulic conductivity [m/day]")

	_ = cmd.MarkFlagRequired("heads")
	return cmd
}

func runAnalytical(cmd *cobra.Command, st *cliState, flags analyticalFlags) error {
	var simulated []float64
	if err := readInput(flags.heads, func(r io.Reader) (err error) {
		simulated, err = series.ReadProfile(r)
		return err
	}); err != nil {
		return err
	}

	n := flags.points
	if n == 0 {
		n = len(simulated)
	}
	if n < 1 {
		return fmt.Errorf("--points must not be negative, got %d", flags.points)
	}
	_, heads, err := flags.params.Profile(n)
	if err != nil {
		return err
	}
	st.log.Debug(cmd.Context(), "analytical profile evaluated",
		logger.Int("points", n),
		logger.Int("simulated", len(simulated)),
	)

	res, err := skill.Compute(simulated, heads)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "rmse = %s nse = %s pbias = %s pcc = %s\n",
		scoreText(res, skill.RMSE),
		scoreText(res, skill.NSE),
		scoreText(res, skill.PBIAS),
		scoreText(res, skill.PearsonR),
	)
	return err
}

func scoreText(res skill.Result, stat skill.Statistic) string {
	v, err := res.Value(stat)
	if err != nil {
		return report.NotAvailable
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
