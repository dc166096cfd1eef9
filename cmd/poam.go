package cmd

import (
	"github.com/spf13/cobra"

	"github.com/opsledger/compliance-engine/pkg/models"
	"github.com/opsledger/compliance-engine/pkg/poam"
	"github.com/opsledger/compliance-engine/pkg/store"
)

var poamCmd = &cobra.Command{
	Use:   "poam",
	Short: "Generate POA&M items from an evidence snapshot",
	Run: func(cmd *cobra.Command, args []string) {
		mem := store.NewMemory()
		snapshot, err := loadEvidence(mem)
		exitOnError(err)

		generator := poam.NewGenerator(mem, mem)
		items, err := generator.GenerateFromVulnerabilities(snapshot.TenantID, snapshot.EvidenceID)
		exitOnError(err)
		exitOnError(writeOutput(poamOutput{Items: items}))
	},
}

type poamOutput struct {
	Items []models.POAMItem `json:"items"`
}

func init() {
	rootCmd.AddCommand(poamCmd)
}
