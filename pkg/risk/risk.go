// Package risk derives a NIST 800-30 style risk classification from CVSS and
// scanner severity, and turns that classification into a remediation deadline.
package risk

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opsledger/compliance-engine/pkg/models"
)

// Classification is the (likelihood, impact, risk level) triple for one finding.
type Classification struct {
	Likelihood models.Likelihood
	Impact     models.Impact
	RiskLevel  models.RiskLevel
}

var riskMatrix = map[string]models.RiskLevel{
	"High-High":     models.RiskLevelVeryHigh,
	"High-Medium":   models.RiskLevelHigh,
	"High-Low":      models.RiskLevelModerate,
	"Medium-High":   models.RiskLevelHigh,
	"Medium-Medium": models.RiskLevelModerate,
	"Medium-Low":    models.RiskLevelLow,
	"Low-High":      models.RiskLevelModerate,
	"Low-Medium":    models.RiskLevelLow,
	"Low-Low":       models.RiskLevelLow,
}

// Classify maps a CVSS score and severity to likelihood, impact and risk level.
func Classify(cvssScore float64, severity models.Severity) Classification {
	var likelihood models.Likelihood
	switch {
	case cvssScore >= 9.0:
		likelihood = models.LikelihoodHigh
	case cvssScore >= 7.0:
		likelihood = models.LikelihoodMedium
	default:
		likelihood = models.LikelihoodLow
	}

	var impact models.Impact
	switch severity {
	case models.SeverityCritical, models.SeverityHigh:
		impact = models.ImpactHigh
	case models.SeverityMedium:
		impact = models.ImpactMedium
	default:
		impact = models.ImpactLow
	}

	level, ok := riskMatrix[string(likelihood)+"-"+string(impact)]
	if !ok {
		// Unreachable with the enumerated likelihood/impact values.
		logrus.Warnf("no risk matrix entry for %s-%s, defaulting to Moderate", likelihood, impact)
		level = models.RiskLevelModerate
	}
	return Classification{Likelihood: likelihood, Impact: impact, RiskLevel: level}
}

// remediationWindows are the FedRAMP-style deadlines per risk level.
var remediationWindows = map[models.RiskLevel]int{
	models.RiskLevelVeryHigh: 30,
	models.RiskLevelHigh:     90,
	models.RiskLevelModerate: 180,
	models.RiskLevelLow:      365,
}

// DueDate returns the scheduled completion date for a risk level, counted
// from the supplied time.
func DueDate(level models.RiskLevel, now time.Time) time.Time {
	days, ok := remediationWindows[level]
	if !ok {
		days = remediationWindows[models.RiskLevelModerate]
	}
	return now.AddDate(0, 0, days)
}
