package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opsledger/compliance-engine/pkg/poam"
	"github.com/opsledger/compliance-engine/pkg/report"
	"github.com/opsledger/compliance-engine/pkg/store"
)

var reportFormat string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export a POA&M document generated from an evidence snapshot",
	Run: func(cmd *cobra.Command, args []string) {
		mem := store.NewMemory()
		snapshot, err := loadEvidence(mem)
		exitOnError(err)

		generator := poam.NewGenerator(mem, mem)
		_, err = generator.GenerateFromVulnerabilities(snapshot.TenantID, snapshot.EvidenceID)
		exitOnError(err)
		items, err := mem.ItemsForTenant(snapshot.TenantID)
		exitOnError(err)

		switch reportFormat {
		case "oscal":
			document := report.BuildOSCAL(snapshot.TenantID, items, time.Now())
			exitOnError(writeOutput(document))
		case "csv":
			out := os.Stdout
			if path := viper.GetString("output"); path != "" {
				out, err = os.Create(path)
				exitOnError(err)
				defer out.Close()
			}
			exitOnError(report.WriteCSV(out, items))
		default:
			exitOnError(fmt.Errorf("unknown report format %q, expected oscal or csv", reportFormat))
		}
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "oscal", "Report format: oscal or csv.")
	rootCmd.AddCommand(reportCmd)
}
