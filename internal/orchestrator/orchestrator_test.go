package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/opendelek/opendelek/internal/config"
	"github.com/opendelek/opendelek/internal/containers"
	"github.com/opendelek/opendelek/internal/cortex"
	"github.com/opendelek/opendelek/internal/logging"
	"github.com/opendelek/opendelek/internal/model"
	"github.com/opendelek/opendelek/internal/store"
)

type fakeRouter struct {
	model     string
	content   string
	err       error
	available bool
	calls     int
}

func (f *fakeRouter) DefaultModel() string { return f.model }
func (f *fakeRouter) Available() bool      { return f.available }
func (f *fakeRouter) Complete(ctx context.Context, req cortex.Request) (*cortex.Response, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &cortex.Response{Model: f.model, Content: f.content}, nil
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "warehouse.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testOrchestrator(t *testing.T, router Completer, wh Warehouse, pool *containers.Pool) *Orchestrator {
	t.Helper()
	o, err := New(Config{
		Router:           router,
		Warehouse:        wh,
		Pool:             pool,
		Logger:           logging.NewWriter("orchestrator", &strings.Builder{}),
		MaxExecutionTime: 5 * time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func TestExecuteTaskCompletes(t *testing.T) {
	wh := testStore(t)
	router := &fakeRouter{model: "claude-sonnet-4", content: "Q3 revenue rose 12%.", available: true}
	o := testOrchestrator(t, router, wh, nil)

	uc := model.UserContext{UserID: "u1", Role: model.RoleAnalyst}
	res, err := o.ExecuteTask(context.Background(), "summarize the quarterly report", uc, model.ComplianceResult{IsCompliant: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != model.TaskCompleted {
		t.Errorf("status = %q", res.Status)
	}
	if res.Agent != "analysis" {
		t.Errorf("agent = %q", res.Agent)
	}
	if res.Result != "Q3 revenue rose 12%." || res.Model != "claude-sonnet-4" {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.TaskID == "" {
		t.Fatal("task id must be set")
	}

	task, err := wh.GetTask(context.Background(), res.TaskID)
	if err != nil {
		t.Fatal(err)
	}
	if task.Status != model.TaskCompleted || task.UserID != "u1" {
		t.Errorf("stored task = %+v", task)
	}
}

func TestExecuteTaskModelFailure(t *testing.T) {
	wh := testStore(t)
	router := &fakeRouter{model: "claude-sonnet-4", err: fmt.Errorf("all models failed"), available: true}
	o := testOrchestrator(t, router, wh, nil)

	uc := model.UserContext{UserID: "u1", Role: model.RoleUser}
	_, err := o.ExecuteTask(context.Background(), "summarize the report", uc, model.ComplianceResult{IsCompliant: true})
	if err == nil {
		t.Fatal("expected error when every model fails")
	}

	tasks, err := wh.RecentTasks(context.Background(), "u1", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].Status != model.TaskFailed {
		t.Errorf("expected one failed task row, got %+v", tasks)
	}
}

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"research the vendor landscape", "research"},
		{"fetch https://wiki.company.com/page", "research"},
		{"plan the Q4 migration", "planning"},
		{"analyze churn by region", "analysis"},
		{"summarize this document", "analysis"},
		{"hello there", "general"},
	}
	for _, tt := range tests {
		if got := classifyIntent(tt.input).Name; got != tt.want {
			t.Errorf("classifyIntent(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestResearchTaskUsesContainerPool(t *testing.T) {
	wh := testStore(t)
	router := &fakeRouter{model: "m", content: "done", available: true}
	pool := containers.NewPool(config.Containers{MaxConcurrent: 1})
	o := testOrchestrator(t, router, wh, pool)

	ctx := context.Background()
	uc := model.UserContext{UserID: "u1", Role: model.RoleUser}

	if _, err := o.ExecuteTask(ctx, "research competitor pricing", uc, model.ComplianceResult{IsCompliant: true, Sensitivity: model.SensMedium}); err != nil {
		t.Fatal(err)
	}

	// Slot was released: the pool is free again.
	if err := pool.Acquire(ctx); err != nil {
		t.Errorf("pool slot not released: %v", err)
	}
	pool.Release()
}

func TestResearchTaskPoolBusy(t *testing.T) {
	wh := testStore(t)
	router := &fakeRouter{model: "m", content: "done", available: true}
	pool := containers.NewPool(config.Containers{MaxConcurrent: 1})
	o := testOrchestrator(t, router, wh, pool)

	ctx := context.Background()
	if err := pool.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	defer pool.Release()

	uc := model.UserContext{UserID: "u1", Role: model.RoleUser}
	_, err := o.ExecuteTask(ctx, "research competitor pricing", uc, model.ComplianceResult{IsCompliant: true})
	if err == nil {
		t.Fatal("expected error when pool is at capacity")
	}
	if router.calls != 0 {
		t.Error("model must not be called when no container slot is available")
	}
}

func TestHealthProbes(t *testing.T) {
	wh := testStore(t)
	o := testOrchestrator(t, &fakeRouter{available: true}, wh, nil)
	ctx := context.Background()

	if !o.TestCortexAI(ctx) {
		t.Error("available router must probe healthy")
	}
	if !o.TestContainers(ctx) {
		t.Error("nil pool must probe healthy")
	}

	o2 := testOrchestrator(t, &fakeRouter{available: false}, wh, nil)
	if o2.TestCortexAI(ctx) {
		t.Error("unavailable router must probe unhealthy")
	}
}
