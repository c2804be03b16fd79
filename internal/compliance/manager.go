// Package compliance enforces corporate policy over every request
// before it reaches an agent: role gating, restricted-keyword scanning,
// external-domain allowlisting, per-user rate limiting, and optional
// human approval. It also owns the tamper-evident interaction log.
package compliance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/opendelek/opendelek/internal/approval"
	"github.com/opendelek/opendelek/internal/audit"
	"github.com/opendelek/opendelek/internal/config"
	"github.com/opendelek/opendelek/internal/logging"
	"github.com/opendelek/opendelek/internal/model"
)

// Policy identifiers recorded on non-compliant results.
const (
	policyRole     = "role.execute"
	policyKeyword  = "keyword.restricted"
	policyDomain   = "domain.allowlist"
	policyRate     = "rate.window"
	policyApproval = "approval.required"
)

// Manager evaluates requests against the security policy and records
// interactions to the audit trail.
type Manager struct {
	log       *logging.Logger
	auditLog  *audit.Log
	approvals *approval.Store
	rate      *rateWindow

	mu         sync.RWMutex
	sec        config.Security
	policyHash string
}

// Config carries the collaborators a Manager needs. AuditLog may be nil
// only when audit logging is disabled; Approvals may be nil only when
// user approval is not required.
type Config struct {
	Security   config.Security
	PolicyHash string
	AuditLog   *audit.Log
	Approvals  *approval.Store
	Logger     *logging.Logger
}

// NewManager validates the wiring and returns a ready Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Security.EnableAuditLogging && cfg.AuditLog == nil {
		return nil, fmt.Errorf("compliance: audit logging enabled but no audit log provided")
	}
	if cfg.Security.RequireUserApproval && cfg.Approvals == nil {
		return nil, fmt.Errorf("compliance: user approval required but no approval store provided")
	}
	log := cfg.Logger
	if log == nil {
		log = logging.New("compliance", "")
	}
	return &Manager{
		log:        log,
		auditLog:   cfg.AuditLog,
		approvals:  cfg.Approvals,
		rate:       newRateWindow(cfg.Security.RateLimit.Window, cfg.Security.RateLimit.MaxRequests),
		sec:        cfg.Security,
		policyHash: cfg.PolicyHash,
	}, nil
}

// Reload swaps the security policy in place. Rate counters keep their
// current windows; only the limits change.
func (m *Manager) Reload(sec config.Security, policyHash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sec = sec
	m.policyHash = policyHash
	m.rate.setLimits(sec.RateLimit.Window, sec.RateLimit.MaxRequests)
	m.log.Info("", "security policy reloaded", map[string]any{"policy_hash": policyHash})
}

func (m *Manager) security() config.Security {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sec
}

// PolicyHash returns the hash of the policy currently in force.
func (m *Manager) PolicyHash() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.policyHash
}

// ValidateRequest evaluates one request against the policy. Checks run
// in order: role gate, restricted keywords, domain allowlist, rate
// window, approval gate. The first failing check produces the result;
// later checks are not consulted.
func (m *Manager) ValidateRequest(ctx context.Context, input string, uc model.UserContext) (model.ComplianceResult, error) {
	if err := ctx.Err(); err != nil {
		return model.ComplianceResult{}, err
	}
	sec := m.security()

	if !uc.Role.Valid() {
		return model.ComplianceResult{
			IsCompliant: false,
			Reason:      fmt.Sprintf("unknown role %q", uc.Role),
			Sensitivity: model.SensHigh,
			PolicyID:    policyRole,
		}, nil
	}
	if !uc.Role.CanExecute() {
		return model.ComplianceResult{
			IsCompliant: false,
			Reason:      fmt.Sprintf("role %s does not permit request execution", uc.Role),
			Sensitivity: model.SensLow,
			PolicyID:    policyRole,
		}, nil
	}

	if kw := findRestrictedKeyword(input, sec.RestrictedKeywords); kw != "" {
		return model.ComplianceResult{
			IsCompliant: false,
			Reason:      fmt.Sprintf("contains restricted keyword %q", kw),
			Sensitivity: model.SensHigh,
			PolicyID:    policyKeyword,
		}, nil
	}

	if host := firstDisallowedHost(input, sec.AllowedDomains); host != "" {
		return model.ComplianceResult{
			IsCompliant: false,
			Reason:      fmt.Sprintf("domain %s is not on the allowed list", host),
			Sensitivity: model.SensMedium,
			PolicyID:    policyDomain,
		}, nil
	}

	if !m.rate.allow(uc.UserID) {
		return model.ComplianceResult{
			IsCompliant: false,
			Reason: fmt.Sprintf("rate limit exceeded: more than %d requests in %s",
				sec.RateLimit.MaxRequests, sec.RateLimit.Window),
			Sensitivity: model.SensLow,
			PolicyID:    policyRate,
		}, nil
	}

	sensitivity := model.SensLow
	if len(extractHosts(input)) > 0 {
		sensitivity = model.SensMedium
	}

	if sec.RequireUserApproval {
		res, err := m.checkApproval(input, uc)
		if err != nil {
			return model.ComplianceResult{}, err
		}
		if !res.IsCompliant {
			return res, nil
		}
		return model.ComplianceResult{
			IsCompliant: true,
			Sensitivity: sensitivity,
			ApprovalKey: res.ApprovalKey,
		}, nil
	}

	return model.ComplianceResult{IsCompliant: true, Sensitivity: sensitivity}, nil
}

// ApprovalKey derives the stable key used to approve a request. The key
// is a function of the user and the request text so a retry after
// approval matches the pending entry.
func ApprovalKey(userID, input string) string {
	h := sha256.Sum256([]byte(userID + "\x00" + input))
	return "req-" + hex.EncodeToString(h[:8])
}

// checkApproval resolves the approval gate for the request. A missing
// entry files a pending one; a one-time approval (no expiry) is
// consumed on use.
func (m *Manager) checkApproval(input string, uc model.UserContext) (model.ComplianceResult, error) {
	key := ApprovalKey(uc.UserID, input)

	status, err := m.approvals.Check(key)
	if err != nil {
		// Not yet requested: file it and hold the request.
		if reqErr := m.approvals.Request(key, "user approval required by policy", uc.UserID, input); reqErr != nil {
			return model.ComplianceResult{}, fmt.Errorf("compliance: file approval request: %w", reqErr)
		}
		m.log.Info("", "approval requested", map[string]any{"key": key, "user_id": uc.UserID})
		return model.ComplianceResult{
			IsCompliant: false,
			Reason:      fmt.Sprintf("user approval required (pending key %s)", key),
			Sensitivity: model.SensHigh,
			PolicyID:    policyApproval,
			ApprovalKey: key,
		}, nil
	}

	switch status {
	case approval.StatusApproved:
		a, err := m.approvalRecord(key)
		if err == nil && a.ExpiresAt == nil {
			if err := m.approvals.Consume(key); err != nil {
				return model.ComplianceResult{}, fmt.Errorf("compliance: consume approval: %w", err)
			}
		}
		return model.ComplianceResult{IsCompliant: true, ApprovalKey: key}, nil
	case approval.StatusPending:
		return model.ComplianceResult{
			IsCompliant: false,
			Reason:      fmt.Sprintf("user approval required (pending key %s)", key),
			Sensitivity: model.SensHigh,
			PolicyID:    policyApproval,
			ApprovalKey: key,
		}, nil
	case approval.StatusDenied:
		return model.ComplianceResult{
			IsCompliant: false,
			Reason:      "request was denied by an approver",
			Sensitivity: model.SensHigh,
			PolicyID:    policyApproval,
			ApprovalKey: key,
		}, nil
	case approval.StatusExpired, approval.StatusConsumed:
		return model.ComplianceResult{
			IsCompliant: false,
			Reason:      fmt.Sprintf("previous approval %s is no longer valid (%s)", key, status),
			Sensitivity: model.SensHigh,
			PolicyID:    policyApproval,
			ApprovalKey: key,
		}, nil
	default:
		return model.ComplianceResult{}, fmt.Errorf("compliance: unknown approval status %q for %s", status, key)
	}
}

func (m *Manager) approvalRecord(key string) (*approval.Approval, error) {
	list, err := m.approvals.List()
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Key == key {
			return &list[i], nil
		}
	}
	return nil, fmt.Errorf("approval %q not found", key)
}

// LogInteraction appends one interaction to the audit trail under the
// given compliance status label. No-op when audit logging is disabled.
// Rejections are recorded only when audit_rejections is on.
func (m *Manager) LogInteraction(ctx context.Context, requestID string, uc model.UserContext, request string, result model.TaskResult, complianceStatus string) error {
	sec := m.security()
	if !sec.EnableAuditLogging {
		return nil
	}
	if result.Status == model.TaskRejected && !sec.AuditRejections {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := audit.Entry{
		RequestID:        requestID,
		UserID:           uc.UserID,
		Role:             string(uc.Role),
		Department:       uc.Department,
		Request:          request,
		ResponseStatus:   result.Status,
		ComplianceStatus: complianceStatus,
		Reason:           result.Message,
		Agent:            result.Agent,
		Model:            result.Model,
		PolicyHash:       m.PolicyHash(),
	}
	if err := m.auditLog.Record(entry); err != nil {
		return fmt.Errorf("compliance: record interaction: %w", err)
	}
	return nil
}

// HealthCheck reports whether the compliance subsystem can enforce and
// record policy. With audit logging enabled, the log handle must be
// live; a probe entry is not written.
func (m *Manager) HealthCheck(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	sec := m.security()
	if len(sec.RestrictedKeywords) == 0 && len(sec.AllowedDomains) == 0 {
		// Policy with nothing to enforce is almost certainly a broken load.
		m.log.Warn("", "compliance policy is empty", nil)
	}
	if sec.EnableAuditLogging && m.auditLog == nil {
		return false
	}
	if sec.RequireUserApproval && m.approvals == nil {
		return false
	}
	return true
}
