// cmd/root.go
package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/elise-sim/elise/internal/config"
)

var (
	logLevel   string
	configPath string
	runOpts    config.RunOptions
)

var rootCmd = &cobra.Command{
	Use:   "elise",
	Short: "Discrete-event simulator for HPC batch schedulers and co-schedulers",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
		runOpts = config.RunOptionsFromEnv()
	},
}

// Execute runs the root command, returning the first error encountered so
// main.go can translate it into a process exit status.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "project.yaml", "Path to the project configuration file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}
