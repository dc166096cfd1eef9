package incident

import (
	"github.com/sirupsen/logrus"

	"github.com/opsledger/compliance-engine/pkg/models"
)

// UpdateStatus moves an incident to a new triage status. The SLA metrics are
// write-once: time-to-acknowledge is computed the first time the incident
// enters Acknowledged, time-to-resolve the first time it enters Resolved, and
// re-entering either status later leaves the recorded metric untouched.
func (g *Generator) UpdateStatus(tenantID, incidentID string, next models.IncidentStatus) (*models.Incident, error) {
	incident, err := g.incidents.GetIncident(tenantID, incidentID)
	if err != nil {
		return nil, err
	}
	now := g.now()

	switch next {
	case models.IncidentStatusAcknowledged:
		if incident.AcknowledgedAt == nil {
			incident.AcknowledgedAt = &now
			tta := int(now.Sub(incident.CreatedAt).Minutes())
			incident.TtaMinutes = &tta
			logrus.Debugf("Incident %s acknowledged after %d minutes", incidentID, tta)
		}
	case models.IncidentStatusResolved:
		if incident.ResolvedAt == nil {
			incident.ResolvedAt = &now
			ttr := int(now.Sub(incident.CreatedAt).Minutes())
			incident.TtrMinutes = &ttr
			logrus.Debugf("Incident %s resolved after %d minutes", incidentID, ttr)
		}
	}

	incident.Status = next
	incident.UpdatedAt = now
	if err := g.incidents.SaveIncident(*incident); err != nil {
		return nil, err
	}
	return incident, nil
}
