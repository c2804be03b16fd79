package store

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "warehouse.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestTaskLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task := Task{
		TaskID:      "task-1",
		UserID:      "u1",
		UserRole:    "DELEK_USER",
		Description: "list open invoices",
	}
	if err := s.CreateTask(ctx, task); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetTask(ctx, "task-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != "running" {
		t.Errorf("new task status = %s, want running", got.Status)
	}

	if err := s.CompleteTask(ctx, "task-1", "completed", "3 invoices found", ""); err != nil {
		t.Fatalf("complete: %v", err)
	}
	got, err = s.GetTask(ctx, "task-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "completed" || got.Result != "3 invoices found" {
		t.Errorf("completed task = %+v", got)
	}
}

func TestGetMissingTask(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetTask(context.Background(), "absent"); err == nil {
		t.Error("expected error for missing task")
	}
}

func TestRecordExecution(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateTask(ctx, Task{TaskID: "task-1", UserID: "u1", Description: "q"}); err != nil {
		t.Fatal(err)
	}
	e := Execution{
		ExecutionID: "exec-1",
		TaskID:      "task-1",
		AgentType:   "analysis",
		Model:       "claude-sonnet-4",
		Status:      "completed",
		Result:      "ok",
		DurationMS:  42,
	}
	if err := s.RecordExecution(ctx, e); err != nil {
		t.Fatalf("record execution: %v", err)
	}
}

func TestRecentTasksOrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"t1", "t2", "t3"} {
		if err := s.CreateTask(ctx, Task{TaskID: id, UserID: "u1", Description: id}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.CreateTask(ctx, Task{TaskID: "other", UserID: "u2", Description: "x"}); err != nil {
		t.Fatal(err)
	}

	tasks, err := s.RecentTasks(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.UserID != "u1" {
			t.Errorf("task for wrong user: %+v", task)
		}
	}
}
