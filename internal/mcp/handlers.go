package mcp

import (
	"context"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/opendelek/opendelek/internal/model"
)

// RequestInput defines parameters for the delek_request tool.
type RequestInput struct {
	Request    string `json:"request" jsonschema:"the task to perform"`
	UserID     string `json:"user_id" jsonschema:"identity of the requesting user"`
	Role       string `json:"role" jsonschema:"corporate role (DELEK_ADMIN/DELEK_ANALYST/DELEK_USER/DELEK_VIEWER)"`
	Department string `json:"department,omitempty" jsonschema:"requesting department"`
}

// RequestOutput mirrors the gateway's task result envelope.
type RequestOutput struct {
	Status           string `json:"status"`
	Message          string `json:"message,omitempty"`
	ComplianceStatus string `json:"compliance_status,omitempty"`
	ErrorID          string `json:"error_id,omitempty"`
	TaskID           string `json:"task_id,omitempty"`
	Agent            string `json:"agent,omitempty"`
	Model            string `json:"model,omitempty"`
	Result           string `json:"result,omitempty"`
	DurationMS       int64  `json:"duration_ms,omitempty"`
}

// CheckInput defines parameters for the delek_check tool.
type CheckInput struct {
	Request string `json:"request" jsonschema:"the task to validate"`
	UserID  string `json:"user_id" jsonschema:"identity of the requesting user"`
	Role    string `json:"role" jsonschema:"corporate role"`
}

// CheckOutput contains the compliance decision.
type CheckOutput struct {
	Compliant   bool   `json:"compliant"`
	Reason      string `json:"reason,omitempty"`
	Sensitivity string `json:"sensitivity,omitempty"`
	PolicyID    string `json:"policy_id,omitempty"`
	ApprovalKey string `json:"approval_key,omitempty"`
}

// HealthInput is empty.
type HealthInput struct{}

// HealthOutput reports the subsystem probes.
type HealthOutput struct {
	Status     string          `json:"status"`
	Components map[string]bool `json:"components"`
	Timestamp  string          `json:"timestamp"`
}

// ApproveInput defines parameters for the delek_approve tool.
type ApproveInput struct {
	Key      string `json:"key" jsonschema:"approval key from a held request"`
	Duration string `json:"duration,omitempty" jsonschema:"approval validity (e.g. 5m), omit for one-time approval"`
}

// ApproveOutput confirms the approval.
type ApproveOutput struct {
	Key      string `json:"key"`
	Status   string `json:"status"`
	Duration string `json:"duration,omitempty"`
}

// PendingInput is empty.
type PendingInput struct{}

// PendingOutput lists approval requests.
type PendingOutput struct {
	Approvals []PendingItem `json:"approvals"`
}

// PendingItem describes a single approval request.
type PendingItem struct {
	Key         string `json:"key"`
	Status      string `json:"status"`
	RequestedBy string `json:"requested_by"`
	Request     string `json:"request"`
	Reason      string `json:"reason"`
	CreatedAt   string `json:"created_at"`
}

func userContext(userID, role, department string) model.UserContext {
	return model.UserContext{
		UserID:     userID,
		Role:       model.Role(role),
		Department: department,
	}
}

func (s *Server) handleRequest(ctx context.Context, req *mcpsdk.CallToolRequest, input RequestInput) (*mcpsdk.CallToolResult, RequestOutput, error) {
	if input.Request == "" {
		return nil, RequestOutput{}, fmt.Errorf("request must not be empty")
	}
	if input.UserID == "" {
		return nil, RequestOutput{}, fmt.Errorf("user_id must not be empty")
	}

	result := s.gateway.ProcessRequest(ctx, input.Request, userContext(input.UserID, input.Role, input.Department))

	out := RequestOutput{
		Status:           result.Status,
		Message:          result.Message,
		ComplianceStatus: result.ComplianceStatus,
		ErrorID:          result.ErrorID,
		TaskID:           result.TaskID,
		Agent:            result.Agent,
		Model:            result.Model,
		Result:           result.Result,
		DurationMS:       result.DurationMS,
	}
	if result.Status != model.TaskCompleted {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

func (s *Server) handleCheck(ctx context.Context, req *mcpsdk.CallToolRequest, input CheckInput) (*mcpsdk.CallToolResult, CheckOutput, error) {
	res, err := s.gateway.CheckRequest(ctx, input.Request, userContext(input.UserID, input.Role, ""))
	if err != nil {
		return nil, CheckOutput{}, err
	}
	return nil, CheckOutput{
		Compliant:   res.IsCompliant,
		Reason:      res.Reason,
		Sensitivity: string(res.Sensitivity),
		PolicyID:    res.PolicyID,
		ApprovalKey: res.ApprovalKey,
	}, nil
}

func (s *Server) handleHealth(ctx context.Context, req *mcpsdk.CallToolRequest, input HealthInput) (*mcpsdk.CallToolResult, HealthOutput, error) {
	report := s.gateway.HealthCheck(ctx)
	out := HealthOutput{
		Status:     report.Status,
		Components: report.Components,
		Timestamp:  report.Timestamp,
	}
	if !report.Healthy() {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

func (s *Server) handleApprove(ctx context.Context, req *mcpsdk.CallToolRequest, input ApproveInput) (*mcpsdk.CallToolResult, ApproveOutput, error) {
	var duration time.Duration
	if input.Duration != "" {
		var err error
		duration, err = time.ParseDuration(input.Duration)
		if err != nil {
			return nil, ApproveOutput{}, fmt.Errorf("invalid duration %q: %w", input.Duration, err)
		}
	}

	if err := s.approvals.Approve(input.Key, duration); err != nil {
		return nil, ApproveOutput{}, err
	}

	s.log.Info("", "approval granted", map[string]any{"key": input.Key})

	out := ApproveOutput{
		Key:    input.Key,
		Status: "approved",
	}
	if duration > 0 {
		out.Duration = duration.String()
	}
	return nil, out, nil
}

func (s *Server) handlePending(ctx context.Context, req *mcpsdk.CallToolRequest, input PendingInput) (*mcpsdk.CallToolResult, PendingOutput, error) {
	list, err := s.approvals.List()
	if err != nil {
		return nil, PendingOutput{}, err
	}

	items := make([]PendingItem, len(list))
	for i, a := range list {
		items[i] = PendingItem{
			Key:         a.Key,
			Status:      string(a.Status),
			RequestedBy: a.RequestedBy,
			Request:     a.Request,
			Reason:      a.Reason,
			CreatedAt:   a.CreatedAt.Format(time.RFC3339),
		}
	}

	return nil, PendingOutput{Approvals: items}, nil
}
