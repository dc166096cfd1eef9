package policy

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/opsledger/compliance-engine/pkg/models"
)

// Result is the outcome of one evaluator run. Passed is always derived from
// the violation list, never set independently.
type Result struct {
	Passed     bool
	Violations []models.Violation
}

func resultFor(violations []models.Violation) Result {
	if violations == nil {
		violations = []models.Violation{}
	}
	return Result{Passed: len(violations) == 0, Violations: violations}
}

// EvaluatorFunc evaluates one policy's parameters against derived evidence facts.
type EvaluatorFunc func(params map[string]any, facts Facts) (Result, error)

// evaluators maps each policy type to its rule implementation. New policy
// types plug in here without touching the orchestrator.
var evaluators = map[models.PolicyType]EvaluatorFunc{
	models.PolicyTypeCveSeverity:       evaluateCveSeverity,
	models.PolicyTypeSbomCompleteness:  evaluateSbomCompleteness,
	models.PolicyTypeImageProvenance:   evaluateImageProvenance,
	models.PolicyTypeAllowedRegistries: evaluateAllowedRegistries,
}

// EvaluatorFor returns the evaluator registered for a policy type.
func EvaluatorFor(policyType models.PolicyType) (EvaluatorFunc, bool) {
	evaluator, ok := evaluators[policyType]
	return evaluator, ok
}

var severityThresholdParams = []struct {
	key      string
	severity models.Severity
}{
	{"maxCritical", models.SeverityCritical},
	{"maxHigh", models.SeverityHigh},
	{"maxMedium", models.SeverityMedium},
	{"maxLow", models.SeverityLow},
}

// evaluateCveSeverity fails when a per-severity finding count exceeds its
// configured maximum. A missing threshold means that severity is unchecked,
// and a count equal to the threshold still passes.
func evaluateCveSeverity(params map[string]any, facts Facts) (Result, error) {
	violations := make([]models.Violation, 0)
	for _, threshold := range severityThresholdParams {
		max, ok, err := maybeGetIntParam(params, threshold.key)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			continue
		}
		count := facts.SeverityCounts[threshold.severity]
		if count > max {
			violations = append(violations, models.Violation{
				Severity: threshold.severity,
				Message:  fmt.Sprintf("%d %s vulnerabilities found, policy allows at most %d", count, strings.ToLower(string(threshold.severity)), max),
				Metadata: map[string]any{"count": count, "threshold": max},
			})
		}
	}
	return resultFor(violations), nil
}

// evaluateSbomCompleteness checks SBOM hygiene: minimum package count,
// license coverage, and purl coverage. The checks are independent and may
// each contribute a violation.
func evaluateSbomCompleteness(params map[string]any, facts Facts) (Result, error) {
	violations := make([]models.Violation, 0)

	minPackages, ok, err := maybeGetIntParam(params, "minPackages")
	if err != nil {
		return Result{}, err
	}
	if ok && len(facts.Packages) < minPackages {
		violations = append(violations, models.Violation{
			Severity: models.SeverityMedium,
			Message:  fmt.Sprintf("SBOM contains %d packages, policy requires at least %d", len(facts.Packages), minPackages),
			Metadata: map[string]any{"packageCount": len(facts.Packages), "minPackages": minPackages},
		})
	}

	if getBoolParam(params, "requireLicenses") {
		missing := lo.CountBy(facts.Packages, func(p models.Package) bool {
			return p.LicenseConcluded == "" && p.LicenseDeclared == ""
		})
		if missing > 0 {
			violations = append(violations, models.Violation{
				Severity: models.SeverityMedium,
				Message:  fmt.Sprintf("%d packages have no concluded or declared license", missing),
				Metadata: map[string]any{"packagesMissingLicense": missing},
			})
		}
	}

	if getBoolParam(params, "requirePurls") {
		missing := lo.CountBy(facts.Packages, func(p models.Package) bool {
			return p.Purl == ""
		})
		if missing > 0 {
			violations = append(violations, models.Violation{
				Severity: models.SeverityMedium,
				Message:  fmt.Sprintf("%d packages have no package URL", missing),
				Metadata: map[string]any{"packagesMissingPurl": missing},
			})
		}
	}

	return resultFor(violations), nil
}

// evaluateImageProvenance requires a pinned image digest and CI build linkage
// when the corresponding parameters are set.
func evaluateImageProvenance(params map[string]any, facts Facts) (Result, error) {
	violations := make([]models.Violation, 0)
	if getBoolParam(params, "requireImageDigest") && facts.ImageDigest == "" {
		violations = append(violations, models.Violation{
			Severity: models.SeverityHigh,
			Message:  "evidence has no image digest",
		})
	}
	if getBoolParam(params, "requireBuildInfo") && !facts.HasBuildInfo() {
		violations = append(violations, models.Violation{
			Severity: models.SeverityHigh,
			Message:  "evidence is not linked to a CI build",
		})
	}
	return resultFor(violations), nil
}

// evaluateAllowedRegistries fails when the image registry matches none of the
// allow-list entries. Matching is by substring so registry path variants like
// us.gcr.io still match a gcr.io entry. If no registry can be determined the
// check passes; see the warn log.
func evaluateAllowedRegistries(params map[string]any, facts Facts) (Result, error) {
	allowed, err := getStringSliceParam(params, "allowedRegistries")
	if err != nil {
		return Result{}, err
	}
	registry, ok := facts.Registry()
	if !ok {
		logrus.Warnf("no registry could be determined for evidence %s, skipping allowed-registries check", facts.EvidenceID)
		return resultFor(nil), nil
	}
	permitted := lo.SomeBy(allowed, func(entry string) bool {
		return strings.Contains(registry, entry)
	})
	if !permitted {
		return resultFor([]models.Violation{{
			Severity: models.SeverityHigh,
			Message:  fmt.Sprintf("image registry %q is not in the allowed list", registry),
			Metadata: map[string]any{"registry": registry, "allowedRegistries": allowed},
		}}), nil
	}
	return resultFor(nil), nil
}

// maybeGetIntParam reads an optional integer parameter, tolerating the
// numeric types JSON and YAML decoding produce.
func maybeGetIntParam(params map[string]any, key string) (int, bool, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	case float64:
		return int(v), true, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false, fmt.Errorf("parameter %s: %v", key, err)
		}
		return int(n), true, nil
	default:
		return 0, false, fmt.Errorf("parameter %s is not a number (got %T)", key, raw)
	}
}

func getBoolParam(params map[string]any, key string) bool {
	v, ok := params[key].(bool)
	return ok && v
}

func getStringSliceParam(params map[string]any, key string) ([]string, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		entries := make([]string, 0, len(v))
		for _, entry := range v {
			s, ok := entry.(string)
			if !ok {
				return nil, fmt.Errorf("parameter %s contains a non-string entry (%T)", key, entry)
			}
			entries = append(entries, s)
		}
		return entries, nil
	default:
		return nil, fmt.Errorf("parameter %s is not a string list (got %T)", key, raw)
	}
}
