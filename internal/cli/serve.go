package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opendelek/opendelek/internal/config"
	"github.com/opendelek/opendelek/internal/logging"
	delekmcp "github.com/opendelek/opendelek/internal/mcp"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the gateway over MCP stdio",
	Long: "Runs opendelek as an MCP (Model Context Protocol) server over stdio.\n" +
		"Exposes the tools: delek_request, delek_check, delek_health,\n" +
		"delek_approve, delek_pending. The config file is hot-reloaded on change.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := logging.New("mcp", logFilePath())
	defer logger.Close()

	srv, err := delekmcp.New(delekmcp.Config{
		ConfigPath: configPath,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("create MCP server: %w", err)
	}
	defer srv.Close()

	// Hot-reload the security policy when the config file changes.
	watchPath := configPath
	if watchPath == "" {
		watchPath = config.DefaultPath()
	}
	reloader, reloadErr := config.NewReloader(watchPath, func(conf *config.Config, hash string) error {
		srv.Reload(conf, hash)
		return nil
	})
	if reloadErr != nil {
		fmt.Fprintf(os.Stderr, "warning: hot-reload disabled: %v\n", reloadErr)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if reloader != nil {
		go func() {
			if err := reloader.Run(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "config watcher stopped: %v\n", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		cancel()
	}()

	fmt.Fprintln(os.Stderr, "opendelek MCP server running on stdio")
	return srv.Run(ctx)
}
