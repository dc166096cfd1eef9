// Package report shapes POA&M items into the export formats the surrounding
// product hands to auditors: an OSCAL-style plan-of-action-and-milestones
// JSON document and a flat CSV.
package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/opsledger/compliance-engine/pkg/models"
)

// OSCALDocument is a plan-of-action-and-milestones document in the shape
// OSCAL tooling expects. Only the fields the compliance exports consume are
// modeled.
type OSCALDocument struct {
	PlanOfActionAndMilestones OSCALPlan `json:"plan-of-action-and-milestones"`
}

type OSCALPlan struct {
	UUID      string          `json:"uuid"`
	Metadata  OSCALMetadata   `json:"metadata"`
	PoamItems []OSCALPoamItem `json:"poam-items"`
}

type OSCALMetadata struct {
	Title        string    `json:"title"`
	LastModified time.Time `json:"last-modified"`
	Version      string    `json:"version"`
	OscalVersion string    `json:"oscal-version"`
}

type OSCALPoamItem struct {
	UUID             string      `json:"uuid"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Props            []OSCALProp `json:"props"`
	RelatedFindings  []string    `json:"related-findings,omitempty"`
	AffectedControls []string    `json:"affected-controls,omitempty"`
	Milestones       []Milestone `json:"milestones"`
}

type OSCALProp struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Milestone struct {
	Title     string     `json:"title"`
	Scheduled time.Time  `json:"scheduled"`
	Completed *time.Time `json:"completed,omitempty"`
}

// BuildOSCAL converts a tenant's POA&M items into one OSCAL document.
func BuildOSCAL(tenantID string, items []models.POAMItem, now time.Time) OSCALDocument {
	return OSCALDocument{
		PlanOfActionAndMilestones: OSCALPlan{
			UUID: uuid.NewString(),
			Metadata: OSCALMetadata{
				Title:        "Plan of Action and Milestones for " + tenantID,
				LastModified: now,
				Version:      "1.0",
				OscalVersion: "1.1.2",
			},
			PoamItems: lo.Map(items, func(item models.POAMItem, _ int) OSCALPoamItem {
				return toOSCALItem(item)
			}),
		},
	}
}

func toOSCALItem(item models.POAMItem) OSCALPoamItem {
	props := []OSCALProp{
		{Name: "status", Value: string(item.Status)},
		{Name: "risk-level", Value: string(item.RiskLevel)},
		{Name: "likelihood", Value: string(item.Likelihood)},
		{Name: "impact", Value: string(item.Impact)},
	}
	if item.CveID != "" {
		props = append(props, OSCALProp{Name: "cve-id", Value: item.CveID})
	}
	return OSCALPoamItem{
		UUID:             item.ID,
		Title:            item.Title,
		Description:      item.Description,
		Props:            props,
		RelatedFindings:  []string{item.VulnerabilityID},
		AffectedControls: item.AffectedControls,
		Milestones: lo.Map(item.RemediationSteps, func(step models.RemediationStep, _ int) Milestone {
			return Milestone{
				Title:     step.Title,
				Scheduled: item.ScheduledCompletionDate,
				Completed: step.CompletedDate,
			}
		}),
	}
}
