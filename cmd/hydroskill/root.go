package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/hydroskill/internal/config"
	"github.com/okian/hydroskill/pkg/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// cliState is shared by the subcommands once the persistent flags are parsed.
type cliState struct {
	// Persistent flags
	configPath string
	logLevel   string

	// Set up by PersistentPreRunE
	cfg *config.Config
	log logger.Logger
}

func newRootCommand() *cobra.Command {
	st := &cliState{}
	cmd := &cobra.Command{
		Use:   "hydroskill",
		Short: "Goodness-of-fit scores for hydrological model outputs",
		Long: `hydroskill compares model predictions with observations and reports
Pearson's r, R², Nash-Sutcliffe efficiency, RMSE and percent bias.`,
		Version:      version,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&st.configPath, "config", "", "YAML config file (default $"+config.EnvConfigFile+")")
	pf.StringVar(&st.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return st.setup(cmd)
	}

	cmd.AddCommand(newScoreCommand(st))
	cmd.AddCommand(newAnalyticalCommand(st))
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func (st *cliState) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Context(), st.configPath)
	if err != nil {
		return err
	}
	if st.logLevel != "" {
		cfg.LogLevel = st.logLevel
	}
	if err := logger.Init(
		logger.WithFormat(cfg.LogFormat),
		logger.WithLevel(cfg.LogLevel),
		logger.WithOutput(cmd.ErrOrStderr()),
	); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	st.cfg = cfg
	st.log = logger.Named("hydroskill")
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "hydroskill %s\n", version)
			return err
		},
	}
}

func createOutput(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}
