package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/opsledger/compliance-engine/pkg/incident"
	"github.com/opsledger/compliance-engine/pkg/models"
	"github.com/opsledger/compliance-engine/pkg/poam"
	"github.com/opsledger/compliance-engine/pkg/policy"
	"github.com/opsledger/compliance-engine/pkg/store"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run the full evaluation pipeline for one evidence snapshot",
	Long: `Runs policy evaluation, POA&M generation, incident generation and incident
clustering over a single evidence snapshot, and writes the combined artifact.`,
	Run: func(cmd *cobra.Command, args []string) {
		mem := store.NewMemory()
		snapshot, err := loadEvidence(mem)
		exitOnError(err)
		_, err = loadPolicies(mem)
		exitOnError(err)

		orchestrator := policy.NewOrchestrator(mem, mem, mem)
		results, err := orchestrator.EvaluatePolicies(snapshot.TenantID, snapshot.EvidenceID, nil)
		if err != nil {
			logrus.Errorf("Some policies failed to evaluate: %v", err)
		}

		poamGenerator := poam.NewGenerator(mem, mem)
		items, err := poamGenerator.GenerateFromVulnerabilities(snapshot.TenantID, snapshot.EvidenceID)
		exitOnError(err)

		incidentGenerator := incident.NewGenerator(mem, mem, mem)
		incidents, err := incidentGenerator.GenerateFromVulnerabilities(snapshot.TenantID, snapshot.EvidenceID)
		exitOnError(err)
		policyIncident, err := incidentGenerator.GenerateFromPolicyViolations(snapshot.TenantID, snapshot.EvidenceID)
		exitOnError(err)
		if policyIncident != nil {
			incidents = append(incidents, *policyIncident)
		}

		clusters, err := incidentGenerator.ClusterIncidents(snapshot.TenantID)
		exitOnError(err)

		logrus.Infof("Pipeline complete: %d evaluations, %d POA&M items, %d incidents, %d clusters",
			len(results), len(items), len(incidents), len(clusters))
		exitOnError(writeOutput(pipelineOutput{
			Evaluations: results,
			POAMItems:   items,
			Incidents:   incidents,
			Clusters:    clusters,
		}))
	},
}

type pipelineOutput struct {
	Evaluations []models.PolicyEvaluationResult `json:"evaluations"`
	POAMItems   []models.POAMItem               `json:"poamItems"`
	Incidents   []models.Incident               `json:"incidents"`
	Clusters    []models.IncidentCluster        `json:"clusters"`
}

func init() {
	rootCmd.AddCommand(pipelineCmd)
}
