package incident

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsledger/compliance-engine/pkg/models"
	"github.com/opsledger/compliance-engine/pkg/store"
)

var testNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func newTestGenerator(mem *store.Memory) *Generator {
	g := NewGenerator(mem, mem, mem)
	g.now = func() time.Time { return testNow }
	return g
}

func seedEvidence(t *testing.T, mem *store.Memory, findings ...models.VulnerabilityFinding) {
	t.Helper()
	require.NoError(t, mem.SaveEvidence(models.EvidenceSnapshot{
		TenantID:        "acme",
		EvidenceID:      "ev-1",
		ProjectName:     "payments",
		ImageName:       "gcr.io/acme/payments:v3",
		Vulnerabilities: findings,
	}))
}

func finding(id, cve string, severity models.Severity) models.VulnerabilityFinding {
	return models.VulnerabilityFinding{ID: id, CveID: cve, Severity: severity}
}

func TestGenerateFromVulnerabilitiesOneIncidentPerBucket(t *testing.T) {
	mem := store.NewMemory()
	seedEvidence(t, mem,
		finding("v-1", "CVE-2026-0001", models.SeverityCritical),
		finding("v-2", "CVE-2026-0002", models.SeverityCritical),
	)

	incidents, err := newTestGenerator(mem).GenerateFromVulnerabilities("acme", "ev-1")
	require.NoError(t, err)
	// 2 Critical + 0 High findings produce exactly one incident.
	require.Len(t, incidents, 1)
	assert.Equal(t, models.SeverityCritical, incidents[0].Severity)
	assert.Equal(t, models.IncidentTypeVulnerability, incidents[0].Type)
	assert.Equal(t, 2, incidents[0].AlertCount)
	assert.Contains(t, incidents[0].Description, "CVE-2026-0001")
	assert.Contains(t, incidents[0].Description, "CVE-2026-0002")
}

func TestGenerateFromVulnerabilitiesHighBucketPreviewCap(t *testing.T) {
	mem := store.NewMemory()
	var findings []models.VulnerabilityFinding
	for i := 0; i < 8; i++ {
		findings = append(findings, finding(fmt.Sprintf("v-%d", i), fmt.Sprintf("CVE-2026-01%02d", i), models.SeverityHigh))
	}
	seedEvidence(t, mem, findings...)

	incidents, err := newTestGenerator(mem).GenerateFromVulnerabilities("acme", "ev-1")
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, 8, incidents[0].AlertCount)
	assert.Contains(t, incidents[0].Description, "CVE-2026-0104")
	assert.NotContains(t, incidents[0].Description, "CVE-2026-0105")
	assert.Contains(t, incidents[0].Description, "and 3 more")
}

func TestGenerateFromVulnerabilitiesNoQualifyingFindings(t *testing.T) {
	mem := store.NewMemory()
	seedEvidence(t, mem, finding("v-1", "CVE-2026-0001", models.SeverityMedium))

	incidents, err := newTestGenerator(mem).GenerateFromVulnerabilities("acme", "ev-1")
	require.NoError(t, err)
	assert.Empty(t, incidents)
}

func TestGenerateFromPolicyViolations(t *testing.T) {
	mem := store.NewMemory()
	seedEvidence(t, mem)
	require.NoError(t, mem.AppendEvaluation(models.PolicyEvaluationResult{
		ID: "r-1", PolicyID: "p-1", PolicyName: "no criticals", TenantID: "acme", EvidenceID: "ev-1",
		Passed: false, Violations: []models.Violation{{Severity: models.SeverityCritical, Message: "too many"}},
	}))
	require.NoError(t, mem.AppendEvaluation(models.PolicyEvaluationResult{
		ID: "r-2", PolicyID: "p-2", PolicyName: "registries", TenantID: "acme", EvidenceID: "ev-1",
		Passed: true,
	}))

	created, err := newTestGenerator(mem).GenerateFromPolicyViolations("acme", "ev-1")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, models.IncidentTypePolicyViolation, created.Type)
	assert.Equal(t, models.SeverityHigh, created.Severity)
	assert.Equal(t, []string{"r-1"}, created.PolicyEvaluationIDs)
	assert.Equal(t, 1, created.AlertCount)
}

func TestGenerateFromPolicyViolationsAllPassed(t *testing.T) {
	mem := store.NewMemory()
	seedEvidence(t, mem)
	require.NoError(t, mem.AppendEvaluation(models.PolicyEvaluationResult{
		ID: "r-1", PolicyID: "p-1", TenantID: "acme", EvidenceID: "ev-1", Passed: true,
	}))

	created, err := newTestGenerator(mem).GenerateFromPolicyViolations("acme", "ev-1")
	require.NoError(t, err)
	assert.Nil(t, created)
}

var incidentSeq int

func saveIncident(t *testing.T, mem *store.Memory, project string, severity models.Severity, status models.IncidentStatus, alerts int, service string) {
	t.Helper()
	incidentSeq++
	require.NoError(t, mem.SaveIncident(models.Incident{
		ID: fmt.Sprintf("i-%d", incidentSeq), TenantID: "acme",
		Type: models.IncidentTypeVulnerability, Severity: severity, Status: status,
		ProjectName: project, ImpactedService: service, AlertCount: alerts, CreatedAt: testNow,
	}))
}

func TestClusterIncidents(t *testing.T) {
	mem := store.NewMemory()
	saveIncident(t, mem, "A", models.SeverityCritical, models.IncidentStatusActive, 3, "svc-1")
	saveIncident(t, mem, "A", models.SeverityCritical, models.IncidentStatusAcknowledged, 2, "svc-2")
	saveIncident(t, mem, "A", models.SeverityCritical, models.IncidentStatusActive, 1, "svc-1")
	saveIncident(t, mem, "A", models.SeverityHigh, models.IncidentStatusActive, 4, "svc-1")
	saveIncident(t, mem, "A", models.SeverityHigh, models.IncidentStatusActive, 5, "svc-3")
	// Resolved incidents are excluded from clustering.
	saveIncident(t, mem, "A", models.SeverityCritical, models.IncidentStatusResolved, 9, "svc-4")

	clusters, err := newTestGenerator(mem).ClusterIncidents("acme")
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	critical := clusters[0]
	assert.Equal(t, models.SeverityCritical, critical.Severity)
	assert.Equal(t, 3, critical.IncidentCount)
	assert.Equal(t, 6, critical.TotalAlerts)
	assert.Equal(t, []string{"svc-1", "svc-2"}, critical.ImpactedServices)

	high := clusters[1]
	assert.Equal(t, models.SeverityHigh, high.Severity)
	assert.Equal(t, 2, high.IncidentCount)
	assert.Equal(t, 9, high.TotalAlerts)
}

func TestClusterIncidentsTieBreakByCount(t *testing.T) {
	mem := store.NewMemory()
	saveIncident(t, mem, "A", models.SeverityHigh, models.IncidentStatusActive, 1, "svc-1")
	saveIncident(t, mem, "B", models.SeverityHigh, models.IncidentStatusActive, 1, "svc-1")
	saveIncident(t, mem, "B", models.SeverityHigh, models.IncidentStatusActive, 1, "svc-1")

	clusters, err := newTestGenerator(mem).ClusterIncidents("acme")
	require.NoError(t, err)
	require.Len(t, clusters, 2)
	assert.Equal(t, "B", clusters[0].ProjectName)
	assert.Equal(t, 2, clusters[0].IncidentCount)
}

func TestUpdateStatusSLAMetricsAreWriteOnce(t *testing.T) {
	mem := store.NewMemory()
	g := NewGenerator(mem, mem, mem)
	createdAt := testNow
	clock := createdAt.Add(30 * time.Minute)
	g.now = func() time.Time { return clock }

	require.NoError(t, mem.SaveIncident(models.Incident{
		ID: "i-1", TenantID: "acme", Severity: models.SeverityCritical,
		Status: models.IncidentStatusActive, ProjectName: "A", CreatedAt: createdAt,
	}))

	updated, err := g.UpdateStatus("acme", "i-1", models.IncidentStatusAcknowledged)
	require.NoError(t, err)
	require.NotNil(t, updated.TtaMinutes)
	assert.Equal(t, 30, *updated.TtaMinutes)
	require.NotNil(t, updated.AcknowledgedAt)

	// Re-entering Acknowledged later must not recompute the metric.
	clock = createdAt.Add(90 * time.Minute)
	updated, err = g.UpdateStatus("acme", "i-1", models.IncidentStatusAcknowledged)
	require.NoError(t, err)
	assert.Equal(t, 30, *updated.TtaMinutes)

	clock = createdAt.Add(2 * time.Hour)
	updated, err = g.UpdateStatus("acme", "i-1", models.IncidentStatusResolved)
	require.NoError(t, err)
	require.NotNil(t, updated.TtrMinutes)
	assert.Equal(t, 120, *updated.TtrMinutes)
}

func TestUpdateStatusUnknownIncident(t *testing.T) {
	mem := store.NewMemory()
	g := newTestGenerator(mem)
	_, err := g.UpdateStatus("acme", "missing", models.IncidentStatusAcknowledged)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
