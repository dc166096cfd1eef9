package policy

import (
	"strings"

	"github.com/opsledger/compliance-engine/pkg/models"
)

// Facts is the evaluator input derived once per evaluation run from an
// evidence snapshot: per-severity finding counts, the package list, and the
// evidence header fields the provenance and registry rules look at.
type Facts struct {
	TenantID       string
	EvidenceID     string
	ProjectName    string
	ImageName      string
	ImageRegistry  string
	ImageDigest    string
	BuildID        string
	Packages       []models.Package
	SeverityCounts map[models.Severity]int
}

// BuildFacts derives evaluator facts from a snapshot in a single pass.
func BuildFacts(snapshot *models.EvidenceSnapshot) Facts {
	return Facts{
		TenantID:       snapshot.TenantID,
		EvidenceID:     snapshot.EvidenceID,
		ProjectName:    snapshot.ProjectName,
		ImageName:      snapshot.ImageName,
		ImageRegistry:  snapshot.ImageRegistry,
		ImageDigest:    snapshot.ImageDigest,
		BuildID:        snapshot.BuildID,
		Packages:       snapshot.Packages,
		SeverityCounts: snapshot.CountBySeverity(),
	}
}

// Registry returns the image registry for the evidence, preferring the
// explicit registry field and falling back to the first path segment of the
// image name. The second return is false when no registry can be determined,
// e.g. for a bare image name with no registry prefix.
func (f Facts) Registry() (string, bool) {
	if f.ImageRegistry != "" {
		return f.ImageRegistry, true
	}
	if f.ImageName == "" {
		return "", false
	}
	segments := strings.SplitN(f.ImageName, "/", 2)
	if len(segments) < 2 {
		return "", false
	}
	return segments[0], true
}

// HasBuildInfo reports whether the evidence is linked to a CI build.
func (f Facts) HasBuildInfo() bool {
	return f.BuildID != ""
}
