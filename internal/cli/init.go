package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/opendelek/opendelek/internal/config"
)

var initForce bool

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap the opendelek configuration",
	Long: "Creates ~/.opendelek/ with a commented default config.yaml plus the\n" +
		"pending-approvals directory. Existing files are kept unless --force is set.",
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := config.DefaultDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "pending"), 0755); err != nil {
		return fmt.Errorf("create pending directory: %w", err)
	}

	path := config.DefaultPath()
	if _, err := os.Stat(path); err == nil && !initForce {
		fmt.Printf("Config already exists at %s (use --force to overwrite)\n", path)
		return nil
	}

	if err := os.WriteFile(path, []byte(config.DefaultYAML()), 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Wrote %s\n", path)
	fmt.Println("Edit the cortex section to point at your model endpoint, then run:")
	fmt.Println("  opendelek start")
	return nil
}
