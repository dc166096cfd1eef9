// Package incident turns vulnerability findings and failed policy
// evaluations into incidents, tracks their triage lifecycle with write-once
// SLA metrics, and clusters open incidents for dashboard views.
package incident

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/opsledger/compliance-engine/pkg/models"
	"github.com/opsledger/compliance-engine/pkg/store"
)

// highSeverityPreviewCap limits how many CVE IDs a High-bucket incident
// description lists; Critical incidents list every CVE.
const highSeverityPreviewCap = 5

// Generator creates incidents and drives their status lifecycle.
type Generator struct {
	incidents   store.IncidentStore
	evidence    store.EvidenceStore
	evaluations store.EvaluationStore
	now         func() time.Time
}

// NewGenerator wires a generator to its stores.
func NewGenerator(incidents store.IncidentStore, evidence store.EvidenceStore, evaluations store.EvaluationStore) *Generator {
	return &Generator{incidents: incidents, evidence: evidence, evaluations: evaluations, now: time.Now}
}

// GenerateFromVulnerabilities creates at most one incident per severity
// bucket (Critical, High) for one evidence upload, aggregating every CVE in
// the bucket rather than opening an incident per finding.
func (g *Generator) GenerateFromVulnerabilities(tenantID, evidenceID string) ([]models.Incident, error) {
	snapshot, err := g.evidence.GetEvidence(tenantID, evidenceID)
	if err != nil {
		return nil, err
	}

	created := make([]models.Incident, 0, 2)
	for _, severity := range []models.Severity{models.SeverityCritical, models.SeverityHigh} {
		findings := lo.Filter(snapshot.Vulnerabilities, func(v models.VulnerabilityFinding, _ int) bool {
			return v.Severity == severity
		})
		if len(findings) == 0 {
			continue
		}
		incident := g.vulnerabilityIncident(snapshot, severity, findings)
		if err := g.incidents.SaveIncident(incident); err != nil {
			return created, fmt.Errorf("saving %s vulnerability incident: %v", severity, err)
		}
		created = append(created, incident)
	}
	logrus.Infof("Created %d vulnerability incidents for evidence %s", len(created), evidenceID)
	return created, nil
}

func (g *Generator) vulnerabilityIncident(snapshot *models.EvidenceSnapshot, severity models.Severity, findings []models.VulnerabilityFinding) models.Incident {
	now := g.now()
	cveIDs := lo.Uniq(lo.Map(findings, func(v models.VulnerabilityFinding, _ int) string { return v.CveID }))

	var description string
	if severity == models.SeverityCritical {
		description = fmt.Sprintf("Critical vulnerabilities in %s: %s", snapshot.ProjectName, strings.Join(cveIDs, ", "))
	} else {
		preview := cveIDs
		if len(preview) > highSeverityPreviewCap {
			preview = preview[:highSeverityPreviewCap]
		}
		description = fmt.Sprintf("High severity vulnerabilities in %s: %s", snapshot.ProjectName, strings.Join(preview, ", "))
		if len(cveIDs) > highSeverityPreviewCap {
			description += fmt.Sprintf(" and %d more", len(cveIDs)-highSeverityPreviewCap)
		}
	}

	return models.Incident{
		ID:               uuid.NewString(),
		TenantID:         snapshot.TenantID,
		Title:            fmt.Sprintf("%d %s vulnerabilities detected in %s", len(findings), strings.ToLower(string(severity)), snapshot.ProjectName),
		Description:      description,
		Type:             models.IncidentTypeVulnerability,
		Severity:         severity,
		Status:           models.IncidentStatusActive,
		ProjectName:      snapshot.ProjectName,
		ImpactedService:  snapshot.ImageName,
		EvidenceIDs:      []string{snapshot.EvidenceID},
		VulnerabilityIDs: lo.Map(findings, func(v models.VulnerabilityFinding, _ int) string { return v.ID }),
		AlertCount:       len(findings),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// GenerateFromPolicyViolations creates at most one incident aggregating every
// failed policy evaluation recorded for the evidence snapshot. The incident
// severity is fixed at High.
func (g *Generator) GenerateFromPolicyViolations(tenantID, evidenceID string) (*models.Incident, error) {
	snapshot, err := g.evidence.GetEvidence(tenantID, evidenceID)
	if err != nil {
		return nil, err
	}
	results, err := g.evaluations.EvaluationsForEvidence(tenantID, evidenceID)
	if err != nil {
		return nil, err
	}
	failed := lo.Filter(results, func(r models.PolicyEvaluationResult, _ int) bool { return !r.Passed })
	if len(failed) == 0 {
		return nil, nil
	}

	now := g.now()
	names := lo.Map(failed, func(r models.PolicyEvaluationResult, _ int) string { return r.PolicyName })
	incident := models.Incident{
		ID:                  uuid.NewString(),
		TenantID:            tenantID,
		Title:               fmt.Sprintf("%d policies failed for %s", len(failed), snapshot.ProjectName),
		Description:         fmt.Sprintf("Failed policies: %s", strings.Join(names, ", ")),
		Type:                models.IncidentTypePolicyViolation,
		Severity:            models.SeverityHigh,
		Status:              models.IncidentStatusActive,
		ProjectName:         snapshot.ProjectName,
		ImpactedService:     snapshot.ImageName,
		EvidenceIDs:         []string{evidenceID},
		PolicyEvaluationIDs: lo.Map(failed, func(r models.PolicyEvaluationResult, _ int) string { return r.ID }),
		AlertCount:          len(failed),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := g.incidents.SaveIncident(incident); err != nil {
		return nil, fmt.Errorf("saving policy violation incident: %v", err)
	}
	return &incident, nil
}
