// Package orchestrator dispatches validated requests to specialized
// agents, routes their prompts through the cortex model chain, and
// records every task and execution in the warehouse.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opendelek/opendelek/internal/containers"
	"github.com/opendelek/opendelek/internal/cortex"
	"github.com/opendelek/opendelek/internal/logging"
	"github.com/opendelek/opendelek/internal/model"
	"github.com/opendelek/opendelek/internal/store"
)

// Completer routes one completion request through the model chain.
type Completer interface {
	DefaultModel() string
	Available() bool
	Complete(ctx context.Context, req cortex.Request) (*cortex.Response, error)
}

// Warehouse records tasks and agent executions.
type Warehouse interface {
	Ping(ctx context.Context) error
	CreateTask(ctx context.Context, t store.Task) error
	CompleteTask(ctx context.Context, taskID, status, result, errorMsg string) error
	RecordExecution(ctx context.Context, e store.Execution) error
}

// Config wires an Orchestrator. Pool may be nil when no container
// services are configured.
type Config struct {
	Router           Completer
	Warehouse        Warehouse
	Pool             *containers.Pool
	Logger           *logging.Logger
	MaxExecutionTime time.Duration
}

// Orchestrator executes one request at a time per call; it is safe for
// concurrent use.
type Orchestrator struct {
	router  Completer
	wh      Warehouse
	pool    *containers.Pool
	log     *logging.Logger
	maxExec time.Duration
}

// New validates the wiring and returns a ready Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Router == nil {
		return nil, fmt.Errorf("orchestrator: router is required")
	}
	if cfg.Warehouse == nil {
		return nil, fmt.Errorf("orchestrator: warehouse is required")
	}
	log := cfg.Logger
	if log == nil {
		log = logging.New("orchestrator", "")
	}
	return &Orchestrator{
		router:  cfg.Router,
		wh:      cfg.Warehouse,
		pool:    cfg.Pool,
		log:     log,
		maxExec: cfg.MaxExecutionTime,
	}, nil
}

// ExecuteTask classifies the request, dispatches it to an agent, and
// returns a completed TaskResult. cr is the compliance result that
// cleared the request; its sensitivity and approval key travel into
// the task log. Warehouse write failures are logged and do not fail
// the task; model failures do.
func (o *Orchestrator) ExecuteTask(ctx context.Context, input string, uc model.UserContext, cr model.ComplianceResult) (model.TaskResult, error) {
	taskID := uuid.NewString()
	start := time.Now()

	if o.maxExec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.maxExec)
		defer cancel()
	}

	if err := o.wh.CreateTask(ctx, store.Task{
		TaskID:      taskID,
		UserID:      uc.UserID,
		UserRole:    string(uc.Role),
		Description: input,
	}); err != nil {
		o.log.Warn(taskID, "warehouse task insert failed", map[string]any{"error": err.Error()})
	}

	agent := classifyIntent(input)
	fields := map[string]any{
		"agent": agent.Name, "user_id": uc.UserID, "sensitivity": string(cr.Sensitivity),
	}
	if cr.ApprovalKey != "" {
		fields["approval_key"] = cr.ApprovalKey
	}
	o.log.Info(taskID, "task dispatched", fields)

	if agent.Name == researchAgent.Name && o.pool != nil {
		if err := o.pool.Acquire(ctx); err != nil {
			if errors.Is(err, containers.ErrPoolBusy) {
				o.finishTask(ctx, taskID, model.TaskFailed, "", err.Error())
				return model.TaskResult{}, fmt.Errorf("orchestrator: %w", err)
			}
			return model.TaskResult{}, fmt.Errorf("orchestrator: acquire container slot: %w", err)
		}
		defer o.pool.Release()
	}

	resp, err := o.router.Complete(ctx, cortex.Request{
		System: agent.System,
		Prompt: input,
	})
	duration := time.Since(start)

	if err != nil {
		o.finishTask(ctx, taskID, model.TaskFailed, "", err.Error())
		o.recordExecution(ctx, store.Execution{
			ExecutionID: uuid.NewString(),
			TaskID:      taskID,
			AgentType:   agent.Name,
			Model:       o.router.DefaultModel(),
			Status:      model.TaskFailed,
			ErrorMsg:    err.Error(),
			DurationMS:  duration.Milliseconds(),
		})
		return model.TaskResult{}, fmt.Errorf("orchestrator: execute task %s: %w", taskID, err)
	}

	o.finishTask(ctx, taskID, model.TaskCompleted, resp.Content, "")
	o.recordExecution(ctx, store.Execution{
		ExecutionID: uuid.NewString(),
		TaskID:      taskID,
		AgentType:   agent.Name,
		Model:       resp.Model,
		Status:      model.TaskCompleted,
		Result:      resp.Content,
		DurationMS:  duration.Milliseconds(),
	})

	return model.TaskResult{
		Status:     model.TaskCompleted,
		TaskID:     taskID,
		Agent:      agent.Name,
		Model:      resp.Model,
		Result:     resp.Content,
		DurationMS: duration.Milliseconds(),
	}, nil
}

// finishTask writes the terminal task row, surviving a cancelled
// request context so failures still get recorded.
func (o *Orchestrator) finishTask(ctx context.Context, taskID, status, result, errorMsg string) {
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := o.wh.CompleteTask(ctx, taskID, status, result, errorMsg); err != nil {
		o.log.Warn(taskID, "warehouse task update failed", map[string]any{"error": err.Error()})
	}
}

func (o *Orchestrator) recordExecution(ctx context.Context, e store.Execution) {
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := o.wh.RecordExecution(ctx, e); err != nil {
		o.log.Warn(e.TaskID, "warehouse execution insert failed", map[string]any{"error": err.Error()})
	}
}

// TestCortexAI reports whether at least one model provider is usable.
func (o *Orchestrator) TestCortexAI(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	return o.router.Available()
}

// TestContainers probes the container services. A nil or empty pool is
// healthy: no services are configured, so none can be down.
func (o *Orchestrator) TestContainers(ctx context.Context) bool {
	if o.pool == nil {
		return true
	}
	return o.pool.Healthy(ctx)
}
