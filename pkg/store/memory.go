package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/opsledger/compliance-engine/pkg/models"
)

// Memory is an in-process implementation of all store ports, used by the CLI
// and by tests. A single mutex guards every map; operations copy values in
// and out so callers never share memory with the store.
type Memory struct {
	mu          sync.Mutex
	evidence    map[string]models.EvidenceSnapshot // tenantID/evidenceID
	policies    map[string]models.Policy           // tenantID/policyID
	evaluations []models.PolicyEvaluationResult
	poamItems   map[string]models.POAMItem // tenantID/itemID
	incidents   map[string]models.Incident // tenantID/incidentID
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		evidence:  map[string]models.EvidenceSnapshot{},
		policies:  map[string]models.Policy{},
		poamItems: map[string]models.POAMItem{},
		incidents: map[string]models.Incident{},
	}
}

func key(tenantID, id string) string {
	return tenantID + "/" + id
}

func (m *Memory) SaveEvidence(snapshot models.EvidenceSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evidence[key(snapshot.TenantID, snapshot.EvidenceID)] = snapshot
	return nil
}

func (m *Memory) GetEvidence(tenantID, evidenceID string) (*models.EvidenceSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot, ok := m.evidence[key(tenantID, evidenceID)]
	if !ok {
		return nil, fmt.Errorf("evidence %s for tenant %s: %w", evidenceID, tenantID, ErrNotFound)
	}
	return &snapshot, nil
}

func (m *Memory) LatestEvidence(tenantID string) (*models.EvidenceSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.EvidenceSnapshot
	for _, snapshot := range m.evidence {
		if snapshot.TenantID != tenantID {
			continue
		}
		if latest == nil || snapshot.CollectedAt.After(latest.CollectedAt) {
			s := snapshot
			latest = &s
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("evidence for tenant %s: %w", tenantID, ErrNotFound)
	}
	return latest, nil
}

func (m *Memory) SavePolicy(policy models.Policy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policies[key(policy.TenantID, policy.ID)] = policy
	return nil
}

func (m *Memory) DeletePolicy(tenantID, policyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(tenantID, policyID)
	if _, ok := m.policies[k]; !ok {
		return fmt.Errorf("policy %s for tenant %s: %w", policyID, tenantID, ErrNotFound)
	}
	delete(m.policies, k)
	return nil
}

func (m *Memory) EnabledPolicies(tenantID string) ([]models.Policy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var policies []models.Policy
	for _, policy := range m.policies {
		if policy.TenantID == tenantID && policy.Enabled {
			policies = append(policies, policy)
		}
	}
	sortByPriority(policies)
	return policies, nil
}

func (m *Memory) EnabledPoliciesByIDs(tenantID string, policyIDs []string) ([]models.Policy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var policies []models.Policy
	for _, id := range policyIDs {
		policy, ok := m.policies[key(tenantID, id)]
		if ok && policy.Enabled {
			policies = append(policies, policy)
		}
	}
	sortByPriority(policies)
	return policies, nil
}

func sortByPriority(policies []models.Policy) {
	sort.SliceStable(policies, func(i, j int) bool {
		return policies[i].Priority > policies[j].Priority
	})
}

func (m *Memory) AppendEvaluation(result models.PolicyEvaluationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evaluations = append(m.evaluations, result)
	return nil
}

func (m *Memory) EvaluationsForEvidence(tenantID, evidenceID string) ([]models.PolicyEvaluationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	results := lo.Filter(m.evaluations, func(r models.PolicyEvaluationResult, _ int) bool {
		return r.TenantID == tenantID && r.EvidenceID == evidenceID
	})
	return results, nil
}

// InsertOpenItem inserts a new item, failing with ErrAlreadyExists if any
// non-Closed item already holds the same (tenantID, cveID). The check and the
// insert happen under one lock, which is what makes duplicate generation safe.
func (m *Memory) InsertOpenItem(item models.POAMItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.CveID != "" {
		for _, existing := range m.poamItems {
			if existing.TenantID == item.TenantID && existing.CveID == item.CveID && existing.IsOpen() {
				return fmt.Errorf("open POA&M item for %s already exists: %w", item.CveID, ErrAlreadyExists)
			}
		}
	}
	m.poamItems[key(item.TenantID, item.ID)] = item
	return nil
}

func (m *Memory) UpdateItem(item models.POAMItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(item.TenantID, item.ID)
	if _, ok := m.poamItems[k]; !ok {
		return fmt.Errorf("POA&M item %s for tenant %s: %w", item.ID, item.TenantID, ErrNotFound)
	}
	m.poamItems[k] = item
	return nil
}

func (m *Memory) GetItem(tenantID, itemID string) (*models.POAMItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.poamItems[key(tenantID, itemID)]
	if !ok {
		return nil, fmt.Errorf("POA&M item %s for tenant %s: %w", itemID, tenantID, ErrNotFound)
	}
	return &item, nil
}

func (m *Memory) OpenItemsForCVE(tenantID, cveID string) ([]models.POAMItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []models.POAMItem
	for _, item := range m.poamItems {
		if item.TenantID == tenantID && item.CveID == cveID && item.IsOpen() {
			items = append(items, item)
		}
	}
	return items, nil
}

func (m *Memory) ItemsForTenant(tenantID string) ([]models.POAMItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []models.POAMItem
	for _, item := range m.poamItems {
		if item.TenantID == tenantID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (m *Memory) SaveIncident(incident models.Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incidents[key(incident.TenantID, incident.ID)] = incident
	return nil
}

func (m *Memory) GetIncident(tenantID, incidentID string) (*models.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	incident, ok := m.incidents[key(tenantID, incidentID)]
	if !ok {
		return nil, fmt.Errorf("incident %s for tenant %s: %w", incidentID, tenantID, ErrNotFound)
	}
	return &incident, nil
}

func (m *Memory) OpenIncidents(tenantID string) ([]models.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var incidents []models.Incident
	for _, incident := range m.incidents {
		if incident.TenantID != tenantID {
			continue
		}
		if incident.Status == models.IncidentStatusActive || incident.Status == models.IncidentStatusAcknowledged {
			incidents = append(incidents, incident)
		}
	}
	return incidents, nil
}

func (m *Memory) IncidentsForTenant(tenantID string) ([]models.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var incidents []models.Incident
	for _, incident := range m.incidents {
		if incident.TenantID == tenantID {
			incidents = append(incidents, incident)
		}
	}
	sort.Slice(incidents, func(i, j int) bool { return incidents[i].CreatedAt.Before(incidents[j].CreatedAt) })
	return incidents, nil
}
