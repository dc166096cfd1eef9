package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsledger/compliance-engine/pkg/models"
)

const policySetYAML = `
tenantId: acme
policies:
  - name: no criticals
    type: CveSeverity
    enforcementLevel: Blocking
    enabled: true
    priority: 10
    parameters:
      maxCritical: 0
      maxHigh: 5
  - name: trusted registries
    type: AllowedRegistries
    enforcementLevel: Warning
    enabled: true
    parameters:
      allowedRegistries:
        - gcr.io
        - quay.io
`

func writePolicySet(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadPolicySet(t *testing.T) {
	policies, err := LoadPolicySet(writePolicySet(t, policySetYAML))
	require.NoError(t, err)
	require.Len(t, policies, 2)
	for _, p := range policies {
		assert.Equal(t, "acme", p.TenantID)
		assert.NotEmpty(t, p.ID)
	}
	assert.Equal(t, models.PolicyTypeCveSeverity, policies[0].Type)
	assert.Equal(t, 10, policies[0].Priority)
}

func TestLoadPolicySetMissingTenant(t *testing.T) {
	_, err := LoadPolicySet(writePolicySet(t, "policies: []"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidatePolicyRejectsBadParameters(t *testing.T) {
	err := ValidatePolicy(models.Policy{
		ID: "p-1", Name: "bad", Type: models.PolicyTypeCveSeverity,
		Parameters: map[string]any{"maxCritical": "zero"},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = ValidatePolicy(models.Policy{
		ID: "p-2", Name: "empty allow list", Type: models.PolicyTypeAllowedRegistries,
		Parameters: map[string]any{"allowedRegistries": []any{}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidatePolicyAcceptsUnknownType(t *testing.T) {
	err := ValidatePolicy(models.Policy{ID: "p-1", Name: "future", Type: models.PolicyType("QuantumSafety")})
	assert.NoError(t, err)
}
