package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sardarchitect/anthill/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "anthill",
	Short: "Building-geometry carbon analytics",
	Long:  "Parses exported building scenes (mesh and structural-frame JSON), aggregates embodied carbon by element type and floor, and produces reports, charts, and geometry exports.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
