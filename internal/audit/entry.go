package audit

// Entry is one line in the hash-chained JSONL audit log. All fields are
// scalars or structs (no map[string]any) to guarantee deterministic
// json.Marshal field order for reproducible hashing.
type Entry struct {
	Timestamp        string `json:"ts"`
	RequestID        string `json:"request_id"`
	UserID           string `json:"user_id"`
	Role             string `json:"role"`
	Department       string `json:"department,omitempty"`
	Request          string `json:"request"`
	ResponseStatus   string `json:"response_status"`
	ComplianceStatus string `json:"compliance_status"`
	Reason           string `json:"reason,omitempty"`
	Agent            string `json:"agent,omitempty"`
	Model            string `json:"model,omitempty"`
	PolicyHash       string `json:"policy_hash"`
	PrevHash         string `json:"prev_hash"`
}
