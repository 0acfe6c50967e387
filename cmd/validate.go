package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elise-sim/elise/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse and validate the project configuration file without running anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		fmt.Printf("OK: %q has %d workload(s), default scheduler %q\n", cfg.Name, len(cfg.Workloads), cfg.Schedulers.Default)
		return nil
	},
}
