package models

import "time"

// PolicyType selects which rule evaluator runs for a policy.
type PolicyType string

const (
	PolicyTypeCveSeverity       PolicyType = "CveSeverity"
	PolicyTypeSbomCompleteness  PolicyType = "SbomCompleteness"
	PolicyTypeImageProvenance   PolicyType = "ImageProvenance"
	PolicyTypeAllowedRegistries PolicyType = "AllowedRegistries"
)

// EnforcementLevel is informational only; evaluators report violations the
// same way regardless of level. Downstream consumers decide whether a
// Blocking failure gates a deployment.
type EnforcementLevel string

const (
	EnforcementAdvisory EnforcementLevel = "Advisory"
	EnforcementWarning  EnforcementLevel = "Warning"
	EnforcementBlocking EnforcementLevel = "Blocking"
)

// Policy is a tenant-scoped rule definition. Evaluation never mutates policies.
type Policy struct {
	ID               string           `json:"id"`
	TenantID         string           `json:"tenantId"`
	Name             string           `json:"name"`
	Description      string           `json:"description,omitempty"`
	Type             PolicyType       `json:"type"`
	EnforcementLevel EnforcementLevel `json:"enforcementLevel"`
	Enabled          bool             `json:"enabled"`
	Priority         int              `json:"priority"`
	Parameters       map[string]any   `json:"parameters,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// Violation is a single rule breach found during evaluation.
type Violation struct {
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// PolicyEvaluationResult is one evaluation of one policy against one evidence
// snapshot. Rows are append-only history and are never updated.
type PolicyEvaluationResult struct {
	ID          string      `json:"id"`
	PolicyID    string      `json:"policyId"`
	PolicyName  string      `json:"policyName"`
	TenantID    string      `json:"tenantId"`
	EvidenceID  string      `json:"evidenceId"`
	Passed      bool        `json:"passed"`
	Violations  []Violation `json:"violations"`
	EvaluatedAt time.Time   `json:"evaluatedAt"`
}
