package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsledger/compliance-engine/pkg/models"
)

func TestInsertOpenItemEnforcesUniqueness(t *testing.T) {
	mem := NewMemory()
	first := models.POAMItem{ID: "item-1", TenantID: "acme", CveID: "CVE-2026-0001", Status: models.POAMStatusOpen}
	require.NoError(t, mem.InsertOpenItem(first))

	dup := models.POAMItem{ID: "item-2", TenantID: "acme", CveID: "CVE-2026-0001", Status: models.POAMStatusOpen}
	err := mem.InsertOpenItem(dup)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	// Same CVE for another tenant is a separate key.
	other := models.POAMItem{ID: "item-3", TenantID: "globex", CveID: "CVE-2026-0001", Status: models.POAMStatusOpen}
	assert.NoError(t, mem.InsertOpenItem(other))
}

func TestInsertOpenItemAllowsNewItemAfterClose(t *testing.T) {
	mem := NewMemory()
	first := models.POAMItem{ID: "item-1", TenantID: "acme", CveID: "CVE-2026-0001", Status: models.POAMStatusOpen}
	require.NoError(t, mem.InsertOpenItem(first))

	first.Status = models.POAMStatusClosed
	require.NoError(t, mem.UpdateItem(first))

	reopened := models.POAMItem{ID: "item-2", TenantID: "acme", CveID: "CVE-2026-0001", Status: models.POAMStatusOpen}
	assert.NoError(t, mem.InsertOpenItem(reopened))
}

func TestGetEvidenceNotFound(t *testing.T) {
	mem := NewMemory()
	_, err := mem.GetEvidence("acme", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLatestEvidence(t *testing.T) {
	mem := NewMemory()
	base := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, mem.SaveEvidence(models.EvidenceSnapshot{TenantID: "acme", EvidenceID: "ev-1", CollectedAt: base}))
	require.NoError(t, mem.SaveEvidence(models.EvidenceSnapshot{TenantID: "acme", EvidenceID: "ev-2", CollectedAt: base.Add(time.Hour)}))
	require.NoError(t, mem.SaveEvidence(models.EvidenceSnapshot{TenantID: "globex", EvidenceID: "ev-9", CollectedAt: base.Add(48 * time.Hour)}))

	latest, err := mem.LatestEvidence("acme")
	require.NoError(t, err)
	assert.Equal(t, "ev-2", latest.EvidenceID)
}

func TestEnabledPoliciesOrderedByPriority(t *testing.T) {
	mem := NewMemory()
	require.NoError(t, mem.SavePolicy(models.Policy{ID: "p-1", TenantID: "acme", Enabled: true, Priority: 1}))
	require.NoError(t, mem.SavePolicy(models.Policy{ID: "p-2", TenantID: "acme", Enabled: true, Priority: 10}))
	require.NoError(t, mem.SavePolicy(models.Policy{ID: "p-3", TenantID: "acme", Enabled: false, Priority: 100}))

	policies, err := mem.EnabledPolicies("acme")
	require.NoError(t, err)
	require.Len(t, policies, 2)
	assert.Equal(t, "p-2", policies[0].ID)
	assert.Equal(t, "p-1", policies[1].ID)
}

func TestOpenIncidentsFiltersByStatus(t *testing.T) {
	mem := NewMemory()
	require.NoError(t, mem.SaveIncident(models.Incident{ID: "i-1", TenantID: "acme", Status: models.IncidentStatusActive}))
	require.NoError(t, mem.SaveIncident(models.Incident{ID: "i-2", TenantID: "acme", Status: models.IncidentStatusAcknowledged}))
	require.NoError(t, mem.SaveIncident(models.Incident{ID: "i-3", TenantID: "acme", Status: models.IncidentStatusResolved}))
	require.NoError(t, mem.SaveIncident(models.Incident{ID: "i-4", TenantID: "acme", Status: models.IncidentStatusClosed}))

	open, err := mem.OpenIncidents("acme")
	require.NoError(t, err)
	assert.Len(t, open, 2)
}
