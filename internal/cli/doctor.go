package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opendelek/opendelek/internal/audit"
	"github.com/opendelek/opendelek/internal/config"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check system readiness and diagnose configuration issues",
	RunE:  runDoctor,
}

type checkResult struct {
	label  string
	ok     bool
	detail string
	fix    string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	var checks []checkResult

	execPath, _ := os.Executable()
	if execPath != "" {
		checks = append(checks, checkResult{
			label:  "opendelek binary",
			ok:     true,
			detail: fmt.Sprintf("%s (v%s)", execPath, version),
		})
	} else {
		checks = append(checks, checkResult{
			label:  "opendelek binary",
			ok:     false,
			detail: "cannot determine executable path",
		})
	}

	dir := config.DefaultDir()
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		checks = append(checks, checkResult{label: "config directory", ok: true, detail: dir})
	} else {
		checks = append(checks, checkResult{
			label: "config directory", ok: false, detail: "missing", fix: "opendelek init",
		})
	}

	confPath := configPath
	if confPath == "" {
		confPath = config.DefaultPath()
	}
	conf, _, confErr := config.LoadWithHash(confPath)
	if _, err := os.Stat(confPath); err != nil {
		checks = append(checks, checkResult{
			label: "config.yaml", ok: false, detail: "missing (built-in defaults active)", fix: "opendelek init",
		})
	} else if confErr != nil {
		checks = append(checks, checkResult{
			label: "config.yaml", ok: false, detail: confErr.Error(),
		})
	} else {
		checks = append(checks, checkResult{label: "config.yaml", ok: true, detail: confPath})
	}

	if confErr == nil {
		if conf.Cortex.APIURL == "" && conf.Cortex.Bedrock.Region == "" {
			checks = append(checks, checkResult{
				label:  "cortex provider",
				ok:     false,
				detail: "no api_url or bedrock region configured",
				fix:    "set cortex.api_url or cortex.bedrock in config.yaml",
			})
		} else {
			checks = append(checks, checkResult{
				label: "cortex provider", ok: true,
				detail: fmt.Sprintf("default model %s", conf.Cortex.DefaultModel),
			})
		}

		auditPath := conf.Audit.LogPath
		if auditPath == "" {
			auditPath = dir + "/audit.jsonl"
		}
		if _, err := os.Stat(auditPath); err == nil {
			result := audit.Verify(auditPath)
			if result.Valid {
				checks = append(checks, checkResult{
					label: "audit chain", ok: true,
					detail: fmt.Sprintf("%d entries verified", result.Lines),
				})
			} else {
				checks = append(checks, checkResult{
					label:  "audit chain",
					ok:     false,
					detail: fmt.Sprintf("broken at line %d: %s", result.ErrorLine, result.Error),
				})
			}
		} else {
			checks = append(checks, checkResult{
				label: "audit chain", ok: true, detail: "no log yet",
			})
		}
	}

	hasFailures := false
	for _, c := range checks {
		mark := "✓"
		if !c.ok {
			mark = "✗"
			hasFailures = true
		}
		line := fmt.Sprintf("%s %-20s %s", mark, c.label+":", c.detail)
		if !c.ok && c.fix != "" {
			line += fmt.Sprintf("  ->  %s", c.fix)
		}
		fmt.Println(line)
	}

	if hasFailures {
		fmt.Println()
		fmt.Println("Some checks failed. Run the suggested commands to fix.")
		return fmt.Errorf("doctor found issues")
	}
	fmt.Println()
	fmt.Println("All checks passed.")
	return nil
}
