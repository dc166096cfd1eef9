package models

import "time"

// Severity is the normalized scanner severity for a vulnerability finding.
type Severity string

const (
	SeverityCritical   Severity = "Critical"
	SeverityHigh       Severity = "High"
	SeverityMedium     Severity = "Medium"
	SeverityLow        Severity = "Low"
	SeverityNegligible Severity = "Negligible"
	SeverityUnknown    Severity = "Unknown"
)

// Rank orders severities for display and cluster sorting, Critical first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// Package is a single SBOM component, already parsed by the ingestion layer.
type Package struct {
	Name             string `json:"name"`
	Version          string `json:"version"`
	Purl             string `json:"purl,omitempty"`
	Cpe              string `json:"cpe,omitempty"`
	LicenseConcluded string `json:"licenseConcluded,omitempty"`
	LicenseDeclared  string `json:"licenseDeclared,omitempty"`
}

// VulnerabilityFinding is a single CVE reported against a package in the scanned artifact.
type VulnerabilityFinding struct {
	ID             string   `json:"id"`
	CveID          string   `json:"cveId"`
	Severity       Severity `json:"severity"`
	CvssScore      float64  `json:"cvssScore"`
	CvssVector     string   `json:"cvssVector,omitempty"`
	PackageName    string   `json:"packageName"`
	PackageVersion string   `json:"packageVersion"`
	FixedVersion   string   `json:"fixedVersion,omitempty"`
	Description    string   `json:"description,omitempty"`
}

// EvidenceSnapshot is the immutable input to every pipeline stage: one SBOM
// plus one vulnerability scan for one uploaded artifact. Created once per
// evidence upload and never mutated.
type EvidenceSnapshot struct {
	TenantID        string                 `json:"tenantId"`
	EvidenceID      string                 `json:"evidenceId"`
	ProjectName     string                 `json:"projectName"`
	ImageName       string                 `json:"imageName,omitempty"`
	ImageRegistry   string                 `json:"imageRegistry,omitempty"`
	ImageDigest     string                 `json:"imageDigest,omitempty"`
	BuildID         string                 `json:"buildId,omitempty"`
	CollectedAt     time.Time              `json:"collectedAt"`
	Packages        []Package              `json:"packages"`
	Vulnerabilities []VulnerabilityFinding `json:"vulnerabilities"`
}

// CountBySeverity returns per-severity finding counts for the snapshot.
func (e *EvidenceSnapshot) CountBySeverity() map[Severity]int {
	counts := map[Severity]int{}
	for _, v := range e.Vulnerabilities {
		counts[v.Severity]++
	}
	return counts
}
