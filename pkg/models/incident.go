package models

import "time"

// IncidentType classifies what produced an incident.
type IncidentType string

const (
	IncidentTypeVulnerability   IncidentType = "Vulnerability"
	IncidentTypePolicyViolation IncidentType = "PolicyViolation"
	IncidentTypeCompliance      IncidentType = "Compliance"
	IncidentTypeSecurityAlert   IncidentType = "SecurityAlert"
	IncidentTypeSystem          IncidentType = "System"
)

// IncidentStatus is the triage state of an incident.
type IncidentStatus string

const (
	IncidentStatusActive        IncidentStatus = "Active"
	IncidentStatusAcknowledged  IncidentStatus = "Acknowledged"
	IncidentStatusInvestigating IncidentStatus = "Investigating"
	IncidentStatusResolved      IncidentStatus = "Resolved"
	IncidentStatusClosed        IncidentStatus = "Closed"
)

// Incident aggregates one detected problem for a tenant. TtaMinutes and
// TtrMinutes are computed once at the matching status transition and never
// recalculated.
type Incident struct {
	ID                  string         `json:"id"`
	TenantID            string         `json:"tenantId"`
	Title               string         `json:"title"`
	Description         string         `json:"description,omitempty"`
	Type                IncidentType   `json:"type"`
	Severity            Severity       `json:"severity"`
	Status              IncidentStatus `json:"status"`
	ProjectName         string         `json:"projectName"`
	ImpactedService     string         `json:"impactedService,omitempty"`
	EvidenceIDs         []string       `json:"evidenceIds,omitempty"`
	VulnerabilityIDs    []string       `json:"vulnerabilityIds,omitempty"`
	PolicyEvaluationIDs []string       `json:"policyEvaluationIds,omitempty"`
	AlertCount          int            `json:"alertCount"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
	AcknowledgedAt      *time.Time     `json:"acknowledgedAt,omitempty"`
	ResolvedAt          *time.Time     `json:"resolvedAt,omitempty"`
	TtaMinutes          *int           `json:"ttaMinutes,omitempty"`
	TtrMinutes          *int           `json:"ttrMinutes,omitempty"`
}

// IncidentCluster is a computed-on-read grouping of open incidents sharing
// (projectName, type, severity). Clusters are never persisted.
type IncidentCluster struct {
	ProjectName      string       `json:"projectName"`
	Type             IncidentType `json:"type"`
	Severity         Severity     `json:"severity"`
	IncidentCount    int          `json:"incidentCount"`
	TotalAlerts      int          `json:"totalAlerts"`
	ImpactedServices []string     `json:"impactedServices"`
	IncidentIDs      []string     `json:"incidentIds"`
}
