// Package policy evaluates tenant-defined compliance policies against
// evidence snapshots. Each policy type has a registered evaluator; the
// orchestrator derives evidence facts once, runs every applicable policy, and
// appends one evaluation result per policy to the store.
package policy

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/opsledger/compliance-engine/pkg/models"
	"github.com/opsledger/compliance-engine/pkg/store"
)

// Orchestrator runs policy evaluation batches. It holds no mutable state of
// its own; every run works off data fetched at its start.
type Orchestrator struct {
	evidence    store.EvidenceStore
	policies    store.PolicyStore
	evaluations store.EvaluationStore
	now         func() time.Time
}

// NewOrchestrator wires an orchestrator to its stores.
func NewOrchestrator(evidence store.EvidenceStore, policies store.PolicyStore, evaluations store.EvaluationStore) *Orchestrator {
	return &Orchestrator{evidence: evidence, policies: policies, evaluations: evaluations, now: time.Now}
}

// EvaluatePolicies evaluates the tenant's policies against one evidence
// snapshot. With explicit policyIDs only those policies run (filtered to
// enabled, tenant-owned ones); otherwise every enabled tenant policy runs in
// priority order. A failing evaluator is logged and excluded from the result
// batch; the remaining policies still complete, and the accumulated evaluator
// errors come back alongside the partial results. Zero applicable policies
// yields an empty batch, not an error.
func (o *Orchestrator) EvaluatePolicies(tenantID, evidenceID string, policyIDs []string) ([]models.PolicyEvaluationResult, error) {
	snapshot, err := o.evidence.GetEvidence(tenantID, evidenceID)
	if err != nil {
		return nil, err
	}
	facts := BuildFacts(snapshot)

	var policies []models.Policy
	if len(policyIDs) > 0 {
		policies, err = o.policies.EnabledPoliciesByIDs(tenantID, policyIDs)
	} else {
		policies, err = o.policies.EnabledPolicies(tenantID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading policies for tenant %s: %v", tenantID, err)
	}
	logrus.Infof("Evaluating %d policies for evidence %s", len(policies), evidenceID)

	results := make([]models.PolicyEvaluationResult, 0, len(policies))
	var allErrs error
	for _, policy := range policies {
		result, err := o.evaluateOne(policy, facts)
		if err != nil {
			logrus.Errorf("Error evaluating policy %s (%s): %v", policy.Name, policy.ID, err)
			allErrs = multierror.Append(allErrs, fmt.Errorf("policy %s: %v", policy.Name, err))
			continue
		}
		if err := o.evaluations.AppendEvaluation(result); err != nil {
			return results, fmt.Errorf("persisting evaluation for policy %s: %v", policy.ID, err)
		}
		results = append(results, result)
	}
	return results, allErrs
}

// evaluateOne runs a single policy's evaluator, converting a panic in the
// evaluator into an error so one bad policy cannot take down the batch.
func (o *Orchestrator) evaluateOne(policy models.Policy, facts Facts) (result models.PolicyEvaluationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluator panicked: %v", r)
		}
	}()

	evaluator, ok := EvaluatorFor(policy.Type)
	var evaluated Result
	if !ok {
		// Unknown types pass automatically so old engines tolerate
		// policies created by newer control planes.
		logrus.Infof("No evaluator for policy type %q, treating policy %s as passed", policy.Type, policy.Name)
		evaluated = resultFor(nil)
	} else {
		evaluated, err = evaluator(policy.Parameters, facts)
		if err != nil {
			return models.PolicyEvaluationResult{}, err
		}
	}

	return models.PolicyEvaluationResult{
		ID:          uuid.NewString(),
		PolicyID:    policy.ID,
		PolicyName:  policy.Name,
		TenantID:    policy.TenantID,
		EvidenceID:  facts.EvidenceID,
		Passed:      evaluated.Passed,
		Violations:  evaluated.Violations,
		EvaluatedAt: o.now(),
	}, nil
}
