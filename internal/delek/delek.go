// Package delek is the gateway facade. It wires configuration,
// compliance, the warehouse, and the agent orchestrator together and
// exposes the two operations callers use: ProcessRequest and
// HealthCheck. Every request passes compliance before any agent runs,
// and callers never see raw error detail.
package delek

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/opendelek/opendelek/internal/approval"
	"github.com/opendelek/opendelek/internal/audit"
	"github.com/opendelek/opendelek/internal/compliance"
	"github.com/opendelek/opendelek/internal/config"
	"github.com/opendelek/opendelek/internal/containers"
	"github.com/opendelek/opendelek/internal/cortex"
	"github.com/opendelek/opendelek/internal/logging"
	"github.com/opendelek/opendelek/internal/model"
	"github.com/opendelek/opendelek/internal/orchestrator"
	"github.com/opendelek/opendelek/internal/store"
)

// openWarehouse opens the embedded warehouse at the configured path,
// defaulting to the opendelek directory.
func openWarehouse(cfg *config.Config) (*store.Store, error) {
	path := cfg.Warehouse.Path
	if path == "" {
		path = filepath.Join(config.DefaultDir(), "warehouse.db")
	}
	return store.Open(path)
}

// errorMessage is the only error text callers ever receive. Detail goes
// to the logs, keyed by the error id.
const errorMessage = "An error occurred processing your request"

// rejectionPrefix prefixes every policy rejection message.
const rejectionPrefix = "Request violates corporate policy: "

// Validator gates requests and records interactions. complianceStatus
// is the label recorded into the audit entry.
type Validator interface {
	ValidateRequest(ctx context.Context, input string, uc model.UserContext) (model.ComplianceResult, error)
	LogInteraction(ctx context.Context, requestID string, uc model.UserContext, request string, result model.TaskResult, complianceStatus string) error
	HealthCheck(ctx context.Context) bool
}

// Executor runs validated requests and probes its subsystems. The
// compliance result carries the validator's sensitivity and approval
// context into execution.
type Executor interface {
	ExecuteTask(ctx context.Context, input string, uc model.UserContext, cr model.ComplianceResult) (model.TaskResult, error)
	TestCortexAI(ctx context.Context) bool
	TestContainers(ctx context.Context) bool
}

// Pinger probes warehouse connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires a Delek from explicit collaborators.
type Options struct {
	Config    *config.Config
	Validator Validator
	Executor  Executor
	Warehouse Pinger
	Logger    *logging.Logger
}

// Delek is the assembled gateway.
type Delek struct {
	cfg       *config.Config
	validator Validator
	executor  Executor
	warehouse Pinger
	log       *logging.Logger

	// Owned resources, set by Open, closed by Close.
	compliance *compliance.Manager
	store      interface{ Close() error }
	auditLog   *audit.Log
	approvals  *approval.Store
}

// New assembles a Delek over explicit collaborators.
func New(opts Options) (*Delek, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("delek: config is required")
	}
	if opts.Validator == nil {
		return nil, fmt.Errorf("delek: validator is required")
	}
	if opts.Executor == nil {
		return nil, fmt.Errorf("delek: executor is required")
	}
	if opts.Warehouse == nil {
		return nil, fmt.Errorf("delek: warehouse is required")
	}
	log := opts.Logger
	if log == nil {
		log = logging.New("delek", "")
	}
	return &Delek{
		cfg:       opts.Config,
		validator: opts.Validator,
		executor:  opts.Executor,
		warehouse: opts.Warehouse,
		log:       log,
	}, nil
}

// Open builds a Delek from configuration, constructing and owning every
// subsystem. policyHash is the hash of the loaded configuration file.
func Open(cfg *config.Config, policyHash string, logger *logging.Logger) (*Delek, error) {
	if logger == nil {
		logger = logging.New("delek", "")
	}

	auditPath := cfg.Audit.LogPath
	if auditPath == "" {
		auditPath = filepath.Join(config.DefaultDir(), "audit.jsonl")
	}
	auditLog, err := audit.Open(auditPath)
	if err != nil {
		return nil, fmt.Errorf("delek: open audit log: %w", err)
	}

	approvals, err := approval.NewStore(approval.DefaultDir())
	if err != nil {
		auditLog.Close()
		return nil, fmt.Errorf("delek: open approval store: %w", err)
	}

	mgr, err := compliance.NewManager(compliance.Config{
		Security:   cfg.Security,
		PolicyHash: policyHash,
		AuditLog:   auditLog,
		Approvals:  approvals,
		Logger:     logger.Component("compliance"),
	})
	if err != nil {
		auditLog.Close()
		return nil, err
	}

	wh, err := openWarehouse(cfg)
	if err != nil {
		auditLog.Close()
		return nil, err
	}

	pool := containers.NewPool(cfg.Containers)
	router := cortex.NewRouter(cfg.Cortex)

	orch, err := orchestrator.New(orchestrator.Config{
		Router:           router,
		Warehouse:        wh,
		Pool:             pool,
		Logger:           logger.Component("orchestrator"),
		MaxExecutionTime: cfg.Security.MaxExecutionTime,
	})
	if err != nil {
		wh.Close()
		auditLog.Close()
		return nil, err
	}

	return &Delek{
		cfg:        cfg,
		validator:  mgr,
		executor:   orch,
		warehouse:  wh,
		log:        logger,
		compliance: mgr,
		store:      wh,
		auditLog:   auditLog,
		approvals:  approvals,
	}, nil
}

// ProcessRequest validates and executes one request. It never returns
// an error: rejections and failures are reported through the
// TaskResult envelope.
func (d *Delek) ProcessRequest(ctx context.Context, input string, uc model.UserContext) model.TaskResult {
	requestID := uuid.NewString()

	res, err := d.validator.ValidateRequest(ctx, input, uc)
	if err != nil {
		return d.errorResult(ctx, requestID, input, uc, "compliance validation failed", err)
	}

	if !res.IsCompliant {
		result := model.TaskResult{
			Status:           model.TaskRejected,
			Message:          rejectionPrefix + res.Reason,
			ComplianceStatus: model.StatusNonCompliant,
		}
		d.log.Warn(requestID, "request rejected", map[string]any{
			"user_id": uc.UserID, "policy_id": res.PolicyID, "reason": res.Reason,
		})
		if err := d.validator.LogInteraction(ctx, requestID, uc, input, result, model.StatusNonCompliant); err != nil {
			d.log.Error(requestID, "audit write failed", map[string]any{"error": err.Error()})
		}
		return result
	}

	result, err := d.executor.ExecuteTask(ctx, input, uc, res)
	if err != nil {
		return d.errorResult(ctx, requestID, input, uc, "task execution failed", err)
	}

	// The executor's record is returned as-is; COMPLIANT is an audit
	// label, not part of the caller's result.
	if err := d.validator.LogInteraction(ctx, requestID, uc, input, result, model.StatusCompliant); err != nil {
		d.log.Error(requestID, "audit write failed", map[string]any{"error": err.Error()})
	}
	d.log.Info(requestID, "request completed", map[string]any{
		"user_id": uc.UserID, "task_id": result.TaskID, "agent": result.Agent, "model": result.Model,
	})
	return result
}

// errorResult logs the failure detail internally and returns the opaque
// error envelope. The error id correlates the caller's envelope with
// the log line and the audit entry.
func (d *Delek) errorResult(ctx context.Context, requestID, input string, uc model.UserContext, what string, err error) model.TaskResult {
	d.log.Error(requestID, what, map[string]any{
		"user_id": uc.UserID, "error": err.Error(),
	})
	result := model.TaskResult{
		Status:  model.TaskError,
		Message: errorMessage,
		ErrorID: requestID,
	}
	if logErr := d.validator.LogInteraction(ctx, requestID, uc, input, result, ""); logErr != nil {
		d.log.Error(requestID, "audit write failed", map[string]any{"error": logErr.Error()})
	}
	return result
}

// CheckRequest runs compliance validation without executing anything.
// Nothing is audited; this is a dry run.
func (d *Delek) CheckRequest(ctx context.Context, input string, uc model.UserContext) (model.ComplianceResult, error) {
	return d.validator.ValidateRequest(ctx, input, uc)
}

// HealthCheck probes the four subsystems and derives the top-level
// status. Probe failures are reported in the component map, never
// propagated as errors.
func (d *Delek) HealthCheck(ctx context.Context) model.HealthReport {
	components := map[string]bool{
		model.ProbeWarehouse:  d.warehouse.Ping(ctx) == nil,
		model.ProbeCortexAI:   d.executor.TestCortexAI(ctx),
		model.ProbeCompliance: d.validator.HealthCheck(ctx),
		model.ProbeContainers: d.executor.TestContainers(ctx),
	}
	report := model.NewHealthReport(components)
	if !report.Healthy() {
		d.log.Warn("", "health check degraded", map[string]any{"components": components})
	}
	return report
}

// Reload applies a newly loaded configuration to the running gateway.
// Only the security policy is hot-swapped; provider and warehouse
// wiring keep their startup configuration.
func (d *Delek) Reload(cfg *config.Config, policyHash string) {
	d.cfg = cfg
	if d.compliance != nil {
		d.compliance.Reload(cfg.Security, policyHash)
	}
}

// Config returns the active configuration.
func (d *Delek) Config() *config.Config { return d.cfg }

// Approvals returns the approval store, or nil when collaborators were
// injected.
func (d *Delek) Approvals() *approval.Store { return d.approvals }

// AuditPath returns the audit log path, or "" when collaborators were
// injected.
func (d *Delek) AuditPath() string {
	if d.auditLog == nil {
		return ""
	}
	return d.auditLog.Path()
}

// Close releases owned resources. Safe on a Delek built with New.
func (d *Delek) Close() error {
	var first error
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			first = err
		}
	}
	if d.auditLog != nil {
		if err := d.auditLog.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
