package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/opsledger/compliance-engine/pkg/models"
	"github.com/opsledger/compliance-engine/pkg/policy"
	"github.com/opsledger/compliance-engine/pkg/store"
)

var evaluatePolicyIDs []string

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate tenant policies against an evidence snapshot",
	Run: func(cmd *cobra.Command, args []string) {
		mem := store.NewMemory()
		snapshot, err := loadEvidence(mem)
		exitOnError(err)
		count, err := loadPolicies(mem)
		exitOnError(err)
		logrus.Infof("Loaded %d policies for tenant %s", count, snapshot.TenantID)

		orchestrator := policy.NewOrchestrator(mem, mem, mem)
		results, err := orchestrator.EvaluatePolicies(snapshot.TenantID, snapshot.EvidenceID, evaluatePolicyIDs)
		if err != nil {
			// Per-policy evaluator failures are partial: report them but
			// still emit the results that completed.
			logrus.Errorf("Some policies failed to evaluate: %v", err)
		}
		exitOnError(writeOutput(evaluateOutput{Results: results}))
	},
}

type evaluateOutput struct {
	Results []models.PolicyEvaluationResult `json:"results"`
}

func init() {
	evaluateCmd.Flags().StringSliceVar(&evaluatePolicyIDs, "policy-id", nil, "Evaluate only these policy IDs. May be repeated.")
	rootCmd.AddCommand(evaluateCmd)
}
