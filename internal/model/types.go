package model

import "time"

// Role is a corporate access role assigned to every user context.
type Role string

const (
	RoleAdmin   Role = "DELEK_ADMIN"
	RoleAnalyst Role = "DELEK_ANALYST"
	RoleUser    Role = "DELEK_USER"
	RoleViewer  Role = "DELEK_VIEWER"
)

// KnownRoles maps every recognized role to its privilege rank.
// Higher rank means broader access.
var KnownRoles = map[Role]int{
	RoleViewer:  0,
	RoleUser:    1,
	RoleAnalyst: 2,
	RoleAdmin:   3,
}

// Valid reports whether the role is one of the recognized corporate roles.
func (r Role) Valid() bool {
	_, ok := KnownRoles[r]
	return ok
}

// CanExecute reports whether the role may submit requests for execution.
// Viewers have read-only access to results and reports.
func (r Role) CanExecute() bool {
	rank, ok := KnownRoles[r]
	return ok && rank >= KnownRoles[RoleUser]
}

// UserContext carries the identity and authorization attributes of one
// request. It is supplied by the caller and immutable for the duration
// of the call.
type UserContext struct {
	UserID      string   `json:"user_id"`
	Role        Role     `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
	Department  string   `json:"department,omitempty"`
	IPAddress   string   `json:"ip_address,omitempty"`
}

// HasPermission reports whether the context carries the named permission.
func (uc UserContext) HasPermission(name string) bool {
	for _, p := range uc.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

// Sensitivity classifies how sensitive a request is judged to be.
type Sensitivity string

const (
	SensLow    Sensitivity = "low"
	SensMedium Sensitivity = "medium"
	SensHigh   Sensitivity = "high"
)

// ComplianceResult is the outcome of policy validation for one request.
// It is produced once per request and consumed immediately by the facade.
type ComplianceResult struct {
	IsCompliant bool        `json:"is_compliant"`
	Reason      string      `json:"reason,omitempty"`
	Sensitivity Sensitivity `json:"sensitivity,omitempty"`
	PolicyID    string      `json:"policy_id,omitempty"`
	ApprovalKey string      `json:"approval_key,omitempty"`
}

// Compliance status labels recorded in the audit trail.
const (
	StatusCompliant    = "COMPLIANT"
	StatusNonCompliant = "NON_COMPLIANT"
)

// Task statuses on a TaskResult.
const (
	TaskCompleted = "completed"
	TaskRejected  = "rejected"
	TaskError     = "error"
	TaskFailed    = "failed"
)

// TaskResult is the structured record returned to callers. The
// orchestrator produces completed/failed records; the facade produces
// rejected and error records. Callers always receive a Status and never
// raw error detail.
type TaskResult struct {
	Status           string `json:"status"`
	Message          string `json:"message,omitempty"`
	ComplianceStatus string `json:"compliance_status,omitempty"`
	ErrorID          string `json:"error_id,omitempty"`

	TaskID     string `json:"task_id,omitempty"`
	Agent      string `json:"agent,omitempty"`
	Model      string `json:"model,omitempty"`
	Result     string `json:"result,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

// Health probe component names. The facade's health report contains
// exactly these four keys.
const (
	ProbeWarehouse  = "warehouse_connection"
	ProbeCortexAI   = "cortex_ai"
	ProbeCompliance = "compliance_system"
	ProbeContainers = "container_services"
)

// Health statuses on a HealthReport.
const (
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
)

// HealthReport aggregates the four subsystem probes. Status is
// "healthy" iff every component probe succeeded.
type HealthReport struct {
	Status     string          `json:"status"`
	Components map[string]bool `json:"components"`
	Timestamp  string          `json:"timestamp"`
}

// NewHealthReport derives the top-level status from the component map.
func NewHealthReport(components map[string]bool) HealthReport {
	status := HealthHealthy
	for _, ok := range components {
		if !ok {
			status = HealthDegraded
			break
		}
	}
	return HealthReport{
		Status:     status,
		Components: components,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}

// Healthy reports whether every component probe succeeded.
func (h HealthReport) Healthy() bool {
	return h.Status == HealthHealthy
}
