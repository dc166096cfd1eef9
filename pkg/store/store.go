// Package store defines the persistence ports used by the evaluation, POA&M
// and incident pipelines, plus an in-memory implementation. The POA&M insert
// is conditional on the (tenant, CVE) open-item key so idempotence holds even
// under concurrent generation, instead of relying on a caller-side existence
// check.
package store

import (
	"errors"

	"github.com/opsledger/compliance-engine/pkg/models"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned by conditional inserts when the
	// uniqueness key is already taken.
	ErrAlreadyExists = errors.New("already exists")
)

// EvidenceStore holds uploaded evidence snapshots.
type EvidenceStore interface {
	SaveEvidence(snapshot models.EvidenceSnapshot) error
	GetEvidence(tenantID, evidenceID string) (*models.EvidenceSnapshot, error)
	// LatestEvidence returns the most recently collected snapshot for a
	// tenant, or ErrNotFound if none exists.
	LatestEvidence(tenantID string) (*models.EvidenceSnapshot, error)
}

// PolicyStore holds tenant policy definitions.
type PolicyStore interface {
	SavePolicy(policy models.Policy) error
	DeletePolicy(tenantID, policyID string) error
	// EnabledPolicies returns the tenant's enabled policies ordered by
	// priority descending.
	EnabledPolicies(tenantID string) ([]models.Policy, error)
	// EnabledPoliciesByIDs returns the subset of the given IDs that are
	// enabled policies owned by the tenant, ordered by priority descending.
	// Unknown or disabled IDs are silently dropped.
	EnabledPoliciesByIDs(tenantID string, policyIDs []string) ([]models.Policy, error)
}

// EvaluationStore is append-only history of policy evaluation results.
type EvaluationStore interface {
	AppendEvaluation(result models.PolicyEvaluationResult) error
	EvaluationsForEvidence(tenantID, evidenceID string) ([]models.PolicyEvaluationResult, error)
}

// POAMStore holds POA&M items. InsertOpenItem must reject a second open item
// for the same (tenantID, cveID) with ErrAlreadyExists.
type POAMStore interface {
	InsertOpenItem(item models.POAMItem) error
	UpdateItem(item models.POAMItem) error
	GetItem(tenantID, itemID string) (*models.POAMItem, error)
	OpenItemsForCVE(tenantID, cveID string) ([]models.POAMItem, error)
	ItemsForTenant(tenantID string) ([]models.POAMItem, error)
}

// IncidentStore holds incidents.
type IncidentStore interface {
	SaveIncident(incident models.Incident) error
	GetIncident(tenantID, incidentID string) (*models.Incident, error)
	// OpenIncidents returns incidents with status Active or Acknowledged.
	OpenIncidents(tenantID string) ([]models.Incident, error)
	IncidentsForTenant(tenantID string) ([]models.Incident, error)
}
