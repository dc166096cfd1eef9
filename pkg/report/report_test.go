package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsledger/compliance-engine/pkg/models"
)

func sampleItem() models.POAMItem {
	scheduled := time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC)
	return models.POAMItem{
		ID:                      "item-1",
		TenantID:                "acme",
		CveID:                   "CVE-2026-0001",
		VulnerabilityID:         "v-1",
		Title:                   "Remediate CVE-2026-0001 in openssl",
		Status:                  models.POAMStatusOpen,
		RiskLevel:               models.RiskLevelVeryHigh,
		Likelihood:              models.LikelihoodHigh,
		Impact:                  models.ImpactHigh,
		CvssScore:               9.8,
		ScheduledCompletionDate: scheduled,
		RemediationSteps: []models.RemediationStep{
			{Title: "Update dependency", Description: "Update openssl"},
			{Title: "Verify", Description: "Rescan"},
		},
		AffectedControls: []string{"RA-5", "SI-2", "CM-2"},
	}
}

func TestBuildOSCAL(t *testing.T) {
	now := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	document := BuildOSCAL("acme", []models.POAMItem{sampleItem()}, now)

	plan := document.PlanOfActionAndMilestones
	assert.NotEmpty(t, plan.UUID)
	assert.Equal(t, now, plan.Metadata.LastModified)
	require.Len(t, plan.PoamItems, 1)

	item := plan.PoamItems[0]
	assert.Equal(t, "item-1", item.UUID)
	assert.Equal(t, []string{"RA-5", "SI-2", "CM-2"}, item.AffectedControls)
	assert.Len(t, item.Milestones, 2)

	props := map[string]string{}
	for _, prop := range item.Props {
		props[prop.Name] = prop.Value
	}
	assert.Equal(t, "Open", props["status"])
	assert.Equal(t, "VeryHigh", props["risk-level"])
	assert.Equal(t, "CVE-2026-0001", props["cve-id"])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []models.POAMItem{sampleItem()}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "cveId")
	assert.Contains(t, lines[1], "CVE-2026-0001")
	assert.Contains(t, lines[1], "9.8")
}
