package cmd

import (
	"alcyxob/gym-app/internal/config"
	"alcyxob/gym-app/internal/logging"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbosity  int
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "gym-app",
	Short: "Gym equipment tracking and workout recommendation API",
	Long: `gym-app serves the REST API for gyms, their equipment catalog and the
workout log, and derives equipment recommendations and AI training advice
from logged workouts.

Configuration is read from config.yaml in the --config directory and from
environment variables (SERVER_ADDRESS, DATABASE_URI, JWT_SECRET, AI_API_KEY, ...).
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase verbosity (-v for debug, -vv for trace)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing config.yaml")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ensureIndexesCmd)
}

// loadConfig reads the configuration and sets up logging. -v flags override
// the configured log level.
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Log.Level
	switch {
	case verbosity >= 2:
		level = "trace"
	case verbosity == 1:
		level = "debug"
	}
	logging.Setup(level, cfg.Log.Format)
	return cfg, nil
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
