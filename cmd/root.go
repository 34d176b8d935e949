package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unaq/indicator-report/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "indicator-report",
	Short: "Conciliación de indicadores y metas UNAQ",
	Long:  "Cruza matrícula, egresados y capturas manuales contra las metas del cuatrimestre y genera los reportes en XLSX, PDF y JSON.",
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
