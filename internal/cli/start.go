package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/opendelek/opendelek/internal/config"
	"github.com/opendelek/opendelek/internal/delek"
	"github.com/opendelek/opendelek/internal/logging"
	"github.com/opendelek/opendelek/internal/model"
)

func init() {
	rootCmd.AddCommand(startCmd)
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Assemble the gateway and run a health check",
	Long: "Loads configuration, constructs the full gateway (warehouse, compliance,\n" +
		"cortex routing, container services), probes every subsystem, and prints\n" +
		"the result. Exits 0 when healthy, 1 when degraded.",
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	conf, hash, err := config.LoadWithHash(configPath)
	if err != nil {
		return err
	}

	logger := logging.New("delek", logFilePath())
	defer logger.Close()

	gateway, err := delek.Open(conf, hash, logger)
	if err != nil {
		return err
	}
	defer gateway.Close()

	fmt.Println("OpenDelek Corporate AI Gateway")
	fmt.Printf("  default model:  %s\n", conf.Cortex.DefaultModel)
	fmt.Printf("  policy hash:    %s\n", shortHash(hash))
	fmt.Printf("  audit log:      %s\n", gateway.AuditPath())
	fmt.Println()

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	report := gateway.HealthCheck(ctx)

	names := make([]string, 0, len(report.Components))
	for name := range report.Components {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		mark := "✓"
		if !report.Components[name] {
			mark = "✗"
		}
		fmt.Printf("%s %s\n", mark, name)
	}
	fmt.Printf("\nstatus: %s\n", report.Status)

	if report.Status != model.HealthHealthy {
		os.Exit(1)
	}
	return nil
}

func shortHash(hash string) string {
	if len(hash) > 19 {
		return hash[:19] + "..."
	}
	return hash
}

func logFilePath() string {
	return config.DefaultDir() + "/opendelek.log"
}
