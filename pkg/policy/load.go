package policy

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ghodss/yaml"
	"github.com/google/uuid"

	"github.com/opsledger/compliance-engine/pkg/models"
)

// ErrInvalidInput marks malformed policy definitions or parameters. Callers
// check it with errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// policySetFile is the on-disk shape of a tenant policy set.
type policySetFile struct {
	TenantID string          `json:"tenantId"`
	Policies []models.Policy `json:"policies"`
}

// LoadPolicySet reads a YAML (or JSON) policy-set file, validates every
// policy, and returns the policies stamped with the file's tenant ID.
func LoadPolicySet(path string) ([]models.Policy, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy set %s: %v", path, err)
	}
	var file policySetFile
	if err := yaml.Unmarshal(contents, &file); err != nil {
		return nil, fmt.Errorf("parsing policy set %s: %v: %w", path, err, ErrInvalidInput)
	}
	if file.TenantID == "" {
		return nil, fmt.Errorf("policy set %s has no tenantId: %w", path, ErrInvalidInput)
	}
	now := time.Now()
	for i := range file.Policies {
		policy := &file.Policies[i]
		policy.TenantID = file.TenantID
		if policy.ID == "" {
			policy.ID = uuid.NewString()
		}
		if policy.CreatedAt.IsZero() {
			policy.CreatedAt = now
			policy.UpdatedAt = now
		}
		if err := ValidatePolicy(*policy); err != nil {
			return nil, fmt.Errorf("policy set %s: %v", path, err)
		}
	}
	return file.Policies, nil
}

// ValidatePolicy checks a policy definition and its type-specific parameters,
// returning an ErrInvalidInput error for anything an evaluator would choke on.
func ValidatePolicy(policy models.Policy) error {
	if policy.Name == "" {
		return fmt.Errorf("policy %s has no name: %w", policy.ID, ErrInvalidInput)
	}
	if policy.Type == "" {
		return fmt.Errorf("policy %s has no type: %w", policy.Name, ErrInvalidInput)
	}
	switch policy.EnforcementLevel {
	case models.EnforcementAdvisory, models.EnforcementWarning, models.EnforcementBlocking, "":
	default:
		return fmt.Errorf("policy %s has unknown enforcement level %q: %w", policy.Name, policy.EnforcementLevel, ErrInvalidInput)
	}

	switch policy.Type {
	case models.PolicyTypeCveSeverity:
		for _, threshold := range severityThresholdParams {
			if _, _, err := maybeGetIntParam(policy.Parameters, threshold.key); err != nil {
				return fmt.Errorf("policy %s: %v: %w", policy.Name, err, ErrInvalidInput)
			}
		}
	case models.PolicyTypeSbomCompleteness:
		if _, _, err := maybeGetIntParam(policy.Parameters, "minPackages"); err != nil {
			return fmt.Errorf("policy %s: %v: %w", policy.Name, err, ErrInvalidInput)
		}
	case models.PolicyTypeAllowedRegistries:
		allowed, err := getStringSliceParam(policy.Parameters, "allowedRegistries")
		if err != nil {
			return fmt.Errorf("policy %s: %v: %w", policy.Name, err, ErrInvalidInput)
		}
		if len(allowed) == 0 {
			return fmt.Errorf("policy %s has an empty allowedRegistries list: %w", policy.Name, ErrInvalidInput)
		}
	}
	// Unknown types are accepted here and pass automatically at evaluation time.
	return nil
}
