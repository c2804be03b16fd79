// Package mcp exposes the gateway over the Model Context Protocol so
// MCP-capable clients can submit requests, dry-run compliance checks,
// and manage approvals through stdio.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/opendelek/opendelek/internal/approval"
	"github.com/opendelek/opendelek/internal/config"
	"github.com/opendelek/opendelek/internal/delek"
	"github.com/opendelek/opendelek/internal/logging"
)

// Config holds MCP server configuration.
type Config struct {
	ConfigPath string
	Logger     *logging.Logger
}

// Server wraps the MCP SDK server around the gateway facade.
type Server struct {
	mcpServer *mcpsdk.Server
	gateway   *delek.Delek
	approvals *approval.Store
	log       *logging.Logger
	owned     bool
}

// New loads configuration, assembles the gateway, and registers the
// tools.
func New(cfg Config) (*Server, error) {
	conf, hash, err := config.LoadWithHash(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = logging.New("mcp", "")
	}

	gateway, err := delek.Open(conf, hash, log.Component("delek"))
	if err != nil {
		return nil, fmt.Errorf("mcp: assemble gateway: %w", err)
	}

	s := newServer(gateway, gateway.Approvals(), log)
	s.owned = true
	return s, nil
}

// NewWithGateway wraps an existing gateway. The caller keeps ownership
// and closes it.
func NewWithGateway(gateway *delek.Delek, approvals *approval.Store, log *logging.Logger) *Server {
	if log == nil {
		log = logging.New("mcp", "")
	}
	return newServer(gateway, approvals, log)
}

func newServer(gateway *delek.Delek, approvals *approval.Store, log *logging.Logger) *Server {
	s := &Server{
		gateway:   gateway,
		approvals: approvals,
		log:       log,
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "opendelek",
			Version: "0.1.0",
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport. Blocks until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Reload applies a newly loaded configuration to the wrapped gateway.
func (s *Server) Reload(conf *config.Config, policyHash string) {
	s.gateway.Reload(conf, policyHash)
}

// Close releases the gateway when this server owns it.
func (s *Server) Close() error {
	if s.owned {
		return s.gateway.Close()
	}
	return nil
}

// registerTools adds the gateway tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "delek_request",
		Description: "Submit a request to the corporate AI gateway. The request is validated against corporate policy and, if compliant, executed by a specialized agent.",
	}, s.handleRequest)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "delek_check",
		Description: "Dry-run compliance validation for a request without executing it.",
	}, s.handleCheck)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "delek_health",
		Description: "Probe the gateway subsystems (warehouse, cortex AI, compliance, container services) and report overall health.",
	}, s.handleHealth)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "delek_approve",
		Description: "Grant a pending approval. Use after a held request returns an approval_key.",
	}, s.handleApprove)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "delek_pending",
		Description: "List approval requests and their states.",
	}, s.handlePending)
}
