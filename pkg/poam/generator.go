// Package poam creates and maintains Plan of Action and Milestones items from
// vulnerability findings. Generation is idempotent per (tenant, CVE): the
// store's conditional insert rejects a second open item for a CVE that is
// already being tracked.
package poam

import (
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/opsledger/compliance-engine/pkg/models"
	"github.com/opsledger/compliance-engine/pkg/risk"
	"github.com/opsledger/compliance-engine/pkg/store"
)

// affectedControls are the NIST 800-53 controls every vulnerability-driven
// item references: vulnerability scanning, flaw remediation, and baseline
// configuration.
var affectedControls = []string{"RA-5", "SI-2", "CM-2"}

const systemActor = "system"

// Generator creates POA&M items and drives their status lifecycle.
type Generator struct {
	items    store.POAMStore
	evidence store.EvidenceStore
	now      func() time.Time
}

// NewGenerator wires a generator to its stores.
func NewGenerator(items store.POAMStore, evidence store.EvidenceStore) *Generator {
	return &Generator{items: items, evidence: evidence, now: time.Now}
}

// GenerateFromVulnerabilities creates one POA&M item per Critical or High
// finding in the snapshot that is not already tracked by an open item for the
// same CVE. Medium and Low findings never spawn items. Returns only the items
// created by this call.
func (g *Generator) GenerateFromVulnerabilities(tenantID, evidenceID string) ([]models.POAMItem, error) {
	snapshot, err := g.evidence.GetEvidence(tenantID, evidenceID)
	if err != nil {
		return nil, err
	}
	qualifying := lo.Filter(snapshot.Vulnerabilities, func(v models.VulnerabilityFinding, _ int) bool {
		return v.Severity == models.SeverityCritical || v.Severity == models.SeverityHigh
	})
	logrus.Infof("Generating POA&M items for %d Critical/High findings in evidence %s", len(qualifying), evidenceID)

	created := make([]models.POAMItem, 0)
	for _, finding := range qualifying {
		item := g.newItem(tenantID, finding)
		if err := g.items.InsertOpenItem(item); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				logrus.Debugf("POA&M item for %s already open, skipping", finding.CveID)
				continue
			}
			return created, fmt.Errorf("inserting POA&M item for %s: %v", finding.CveID, err)
		}
		created = append(created, item)
	}
	return created, nil
}

func (g *Generator) newItem(tenantID string, finding models.VulnerabilityFinding) models.POAMItem {
	now := g.now()
	classification := risk.Classify(finding.CvssScore, finding.Severity)
	return models.POAMItem{
		ID:                      uuid.NewString(),
		TenantID:                tenantID,
		CveID:                   finding.CveID,
		VulnerabilityID:         finding.ID,
		Title:                   fmt.Sprintf("Remediate %s in %s", finding.CveID, finding.PackageName),
		Description:             finding.Description,
		Status:                  models.POAMStatusOpen,
		RiskLevel:               classification.RiskLevel,
		Likelihood:              classification.Likelihood,
		Impact:                  classification.Impact,
		CvssScore:               finding.CvssScore,
		ScheduledCompletionDate: risk.DueDate(classification.RiskLevel, now),
		RemediationSteps:        remediationSteps(finding),
		AffectedControls:        affectedControls,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
}

// remediationSteps builds the standard four-step checklist. The update step
// names the fixed version when the scanner reported one that is actually an
// upgrade; otherwise remediation starts at vendor follow-up.
func remediationSteps(finding models.VulnerabilityFinding) []models.RemediationStep {
	steps := make([]models.RemediationStep, 0, 4)
	if finding.FixedVersion != "" && isUpgrade(finding.PackageVersion, finding.FixedVersion) {
		steps = append(steps, models.RemediationStep{
			Title:       "Update dependency",
			Description: fmt.Sprintf("Update %s from %s to %s", finding.PackageName, finding.PackageVersion, finding.FixedVersion),
		})
	} else {
		steps = append(steps, models.RemediationStep{
			Title:       "Identify fix",
			Description: fmt.Sprintf("No fixed version is available for %s; track vendor advisories for %s", finding.PackageName, finding.CveID),
		})
	}
	steps = append(steps,
		models.RemediationStep{
			Title:       "Test",
			Description: "Run the test suite against the updated dependency set",
		},
		models.RemediationStep{
			Title:       "Deploy",
			Description: "Deploy the patched artifact through the approved release process",
		},
		models.RemediationStep{
			Title:       "Verify",
			Description: fmt.Sprintf("Rescan the artifact and confirm %s is no longer reported", finding.CveID),
		},
	)
	return steps
}

// isUpgrade reports whether fixed is a newer semantic version than installed.
// Versions that do not parse as semver are assumed to be an upgrade, since
// scanners report fix versions in ecosystem-specific formats.
func isUpgrade(installed, fixed string) bool {
	iv, err := semver.NewVersion(installed)
	if err != nil {
		return true
	}
	fv, err := semver.NewVersion(fixed)
	if err != nil {
		return true
	}
	return fv.GreaterThan(iv)
}

// UpdateStatus transitions an item to a new status, enforcing the lifecycle
// rules and capturing the required audit metadata.
func (g *Generator) UpdateStatus(tenantID, itemID string, next models.POAMStatus, opts TransitionOptions) (*models.POAMItem, error) {
	item, err := g.items.GetItem(tenantID, itemID)
	if err != nil {
		return nil, err
	}
	if err := validateTransition(item.Status, next); err != nil {
		return nil, err
	}
	if err := g.applyTransition(item, next, opts); err != nil {
		return nil, err
	}
	if err := g.items.UpdateItem(*item); err != nil {
		return nil, err
	}
	return item, nil
}

// AutoCloseIfRemediated closes every Open item for the CVE when the tenant's
// latest evidence no longer reports it. This is a point-in-time check meant
// to run after each scan ingestion. Returns the items it closed.
func (g *Generator) AutoCloseIfRemediated(tenantID, cveID string) ([]models.POAMItem, error) {
	latest, err := g.evidence.LatestEvidence(tenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	stillPresent := lo.SomeBy(latest.Vulnerabilities, func(v models.VulnerabilityFinding) bool {
		return v.CveID == cveID
	})
	if stillPresent {
		return nil, nil
	}

	items, err := g.items.OpenItemsForCVE(tenantID, cveID)
	if err != nil {
		return nil, err
	}
	closed := make([]models.POAMItem, 0)
	for _, item := range items {
		if item.Status != models.POAMStatusOpen {
			// Items a human is already working get closed by a human.
			continue
		}
		updated, err := g.UpdateStatus(tenantID, item.ID, models.POAMStatusClosed, TransitionOptions{
			Actor:     systemActor,
			Rationale: fmt.Sprintf("%s is no longer reported in evidence %s", cveID, latest.EvidenceID),
		})
		if err != nil {
			return closed, err
		}
		logrus.Infof("Auto-closed POA&M item %s for remediated CVE %s", item.ID, cveID)
		closed = append(closed, *updated)
	}
	return closed, nil
}
