package model

import "testing"

func TestRoleValid(t *testing.T) {
	cases := []struct {
		role Role
		want bool
	}{
		{RoleAdmin, true},
		{RoleAnalyst, true},
		{RoleUser, true},
		{RoleViewer, true},
		{Role("DELEK_SUPERUSER"), false},
		{Role(""), false},
	}
	for _, c := range cases {
		if got := c.role.Valid(); got != c.want {
			t.Errorf("Valid(%q) = %v, want %v", c.role, got, c.want)
		}
	}
}

func TestViewerCannotExecute(t *testing.T) {
	if RoleViewer.CanExecute() {
		t.Error("viewer role must not execute tasks")
	}
	for _, r := range []Role{RoleUser, RoleAnalyst, RoleAdmin} {
		if !r.CanExecute() {
			t.Errorf("role %s should execute tasks", r)
		}
	}
}

func TestHasPermission(t *testing.T) {
	uc := UserContext{UserID: "u1", Permissions: []string{"read", "analyze"}}
	if !uc.HasPermission("analyze") {
		t.Error("expected analyze permission")
	}
	if uc.HasPermission("write") {
		t.Error("unexpected write permission")
	}
}

func TestHealthReportDerivation(t *testing.T) {
	report := NewHealthReport(map[string]bool{
		ProbeWarehouse:  true,
		ProbeCortexAI:   true,
		ProbeCompliance: true,
		ProbeContainers: true,
	})
	if report.Status != HealthHealthy {
		t.Errorf("all probes up: expected healthy, got %s", report.Status)
	}
	if !report.Healthy() {
		t.Error("Healthy() should be true")
	}
	if report.Timestamp == "" {
		t.Error("timestamp must be set")
	}

	report = NewHealthReport(map[string]bool{
		ProbeWarehouse:  true,
		ProbeCortexAI:   false,
		ProbeCompliance: true,
		ProbeContainers: true,
	})
	if report.Status != HealthDegraded {
		t.Errorf("one probe down: expected degraded, got %s", report.Status)
	}
	if report.Healthy() {
		t.Error("Healthy() should be false with a failed probe")
	}
}
