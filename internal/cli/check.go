package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opendelek/opendelek/internal/approval"
	"github.com/opendelek/opendelek/internal/audit"
	"github.com/opendelek/opendelek/internal/compliance"
	"github.com/opendelek/opendelek/internal/config"
	"github.com/opendelek/opendelek/internal/logging"
	"github.com/opendelek/opendelek/internal/model"
)

var (
	checkUserID string
	checkRole   string
	checkFormat string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkUserID, "user", "cli", "User id to validate as")
	checkCmd.Flags().StringVar(&checkRole, "role", string(model.RoleAnalyst), "Corporate role to validate as")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format (text|json)")
}

var checkCmd = &cobra.Command{
	Use:   "check <request>",
	Short: "Dry-run compliance validation for a request",
	Long: "Validates a request against the configured corporate policy without\n" +
		"executing it and without writing an audit entry.\n\n" +
		"Exit code 0 if compliant, 1 if the request would be rejected.",
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	conf, hash, err := config.LoadWithHash(configPath)
	if err != nil {
		return err
	}

	// Dry-run: rejections are not recorded, but the log handle is
	// still required when approvals are in play.
	auditLog, err := audit.Open(filepath.Join(os.TempDir(), "opendelek-check.jsonl"))
	if err != nil {
		return err
	}
	defer auditLog.Close()

	approvals, err := approval.NewStore(approval.DefaultDir())
	if err != nil {
		return err
	}

	mgr, err := compliance.NewManager(compliance.Config{
		Security:   conf.Security,
		PolicyHash: hash,
		AuditLog:   auditLog,
		Approvals:  approvals,
		Logger:     logging.NewWriter("compliance", os.Stderr),
	})
	if err != nil {
		return err
	}

	input := strings.Join(args, " ")
	res, err := mgr.ValidateRequest(cmd.Context(), input, model.UserContext{
		UserID: checkUserID,
		Role:   model.Role(checkRole),
	})
	if err != nil {
		return err
	}

	if checkFormat == "json" {
		out, _ := json.MarshalIndent(res, "", "  ")
		fmt.Println(string(out))
	} else if res.IsCompliant {
		fmt.Println("compliant")
	} else {
		fmt.Printf("rejected: %s\n", res.Reason)
		if res.ApprovalKey != "" {
			fmt.Printf("approval key: %s\n", res.ApprovalKey)
		}
	}

	if !res.IsCompliant {
		os.Exit(1)
	}
	return nil
}
