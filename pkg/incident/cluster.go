package incident

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/opsledger/compliance-engine/pkg/models"
)

// ClusterIncidents groups the tenant's Active and Acknowledged incidents by
// (projectName, type, severity) and computes per-group statistics. Clusters
// are computed on read and never persisted; the result is ordered by severity
// rank ascending (Critical first), ties broken by incident count descending.
func (g *Generator) ClusterIncidents(tenantID string) ([]models.IncidentCluster, error) {
	incidents, err := g.incidents.OpenIncidents(tenantID)
	if err != nil {
		return nil, err
	}

	groups := lo.GroupBy(incidents, func(i models.Incident) string {
		return fmt.Sprintf("%s|%s|%s", i.ProjectName, i.Type, i.Severity)
	})

	clusters := make([]models.IncidentCluster, 0, len(groups))
	for _, group := range groups {
		first := group[0]
		services := lo.Uniq(lo.FilterMap(group, func(i models.Incident, _ int) (string, bool) {
			return i.ImpactedService, i.ImpactedService != ""
		}))
		sort.Strings(services)
		clusters = append(clusters, models.IncidentCluster{
			ProjectName:      first.ProjectName,
			Type:             first.Type,
			Severity:         first.Severity,
			IncidentCount:    len(group),
			TotalAlerts:      lo.SumBy(group, func(i models.Incident) int { return i.AlertCount }),
			ImpactedServices: services,
			IncidentIDs:      lo.Map(group, func(i models.Incident, _ int) string { return i.ID }),
		})
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		if clusters[i].Severity.Rank() != clusters[j].Severity.Rank() {
			return clusters[i].Severity.Rank() < clusters[j].Severity.Rank()
		}
		return clusters[i].IncidentCount > clusters[j].IncidentCount
	})
	return clusters, nil
}
