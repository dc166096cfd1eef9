package models

import "time"

// Likelihood, Impact and RiskLevel form the NIST 800-30 risk triple derived
// from a finding's CVSS score and severity.
type Likelihood string

const (
	LikelihoodHigh   Likelihood = "High"
	LikelihoodMedium Likelihood = "Medium"
	LikelihoodLow    Likelihood = "Low"
)

type Impact string

const (
	ImpactHigh   Impact = "High"
	ImpactMedium Impact = "Medium"
	ImpactLow    Impact = "Low"
)

type RiskLevel string

const (
	RiskLevelVeryHigh RiskLevel = "VeryHigh"
	RiskLevelHigh     RiskLevel = "High"
	RiskLevelModerate RiskLevel = "Moderate"
	RiskLevelLow      RiskLevel = "Low"
)

// POAMStatus is the lifecycle state of a POA&M item. Closed is terminal.
type POAMStatus string

const (
	POAMStatusOpen                  POAMStatus = "Open"
	POAMStatusRiskAccepted          POAMStatus = "RiskAccepted"
	POAMStatusInvestigating         POAMStatus = "Investigating"
	POAMStatusRemediationPlanned    POAMStatus = "RemediationPlanned"
	POAMStatusRemediationInProgress POAMStatus = "RemediationInProgress"
	POAMStatusDeviationRequested    POAMStatus = "DeviationRequested"
	POAMStatusClosed                POAMStatus = "Closed"
)

// RemediationStep is one entry in an item's remediation checklist.
type RemediationStep struct {
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`
}

// POAMItem is a Plan of Action and Milestones entry tracking remediation of a
// single CVE for a tenant. At most one non-Closed item exists per
// (tenantID, cveID); the store enforces that on insert.
type POAMItem struct {
	ID                      string            `json:"id"`
	TenantID                string            `json:"tenantId"`
	CveID                   string            `json:"cveId,omitempty"`
	VulnerabilityID         string            `json:"vulnerabilityId"`
	Title                   string            `json:"title"`
	Description             string            `json:"description,omitempty"`
	Status                  POAMStatus        `json:"status"`
	RiskLevel               RiskLevel         `json:"riskLevel"`
	Likelihood              Likelihood        `json:"likelihood"`
	Impact                  Impact            `json:"impact"`
	CvssScore               float64           `json:"cvssScore"`
	ScheduledCompletionDate time.Time         `json:"scheduledCompletionDate"`
	ActualCompletionDate    *time.Time        `json:"actualCompletionDate,omitempty"`
	RemediationSteps        []RemediationStep `json:"remediationSteps"`
	AffectedControls        []string          `json:"affectedControls"`
	ApprovedBy              string            `json:"approvedBy,omitempty"`
	ApprovedDate            *time.Time        `json:"approvedDate,omitempty"`
	DeviationRationale      string            `json:"deviationRationale,omitempty"`
	ClosedBy                string            `json:"closedBy,omitempty"`
	ClosedDate              *time.Time        `json:"closedDate,omitempty"`
	ClosureRationale        string            `json:"closureRationale,omitempty"`
	CreatedAt               time.Time         `json:"createdAt"`
	UpdatedAt               time.Time         `json:"updatedAt"`
}

// IsOpen reports whether the item still counts against the one-open-item
// uniqueness key for its CVE.
func (p *POAMItem) IsOpen() bool {
	return p.Status != POAMStatusClosed
}
