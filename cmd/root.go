package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opsledger/compliance-engine/pkg/models"
	"github.com/opsledger/compliance-engine/pkg/policy"
	"github.com/opsledger/compliance-engine/pkg/store"
)

var rootCmd = &cobra.Command{
	Use:   "compliance-engine",
	Short: "DevSecOps compliance evaluation engine",
	Long: `compliance-engine evaluates tenant policies against SBOM and vulnerability
scan evidence, generates POA&M remediation items with NIST 800-30 risk-based
due dates, and raises incidents for critical findings and policy failures.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().BoolP("debug", "D", false, "Enable debug logging.")
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	rootCmd.PersistentFlags().StringP("evidence", "e", "", "Path to an evidence snapshot JSON file.")
	viper.BindPFlag("evidence", rootCmd.PersistentFlags().Lookup("evidence"))
	rootCmd.PersistentFlags().StringP("policies", "p", "", "Path to a tenant policy set YAML file.")
	viper.BindPFlag("policies", rootCmd.PersistentFlags().Lookup("policies"))
	rootCmd.PersistentFlags().StringP("output", "o", "", "Path to write results to. Defaults to stdout.")
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	viper.SetEnvPrefix("COMPLIANCE")
	viper.AutomaticEnv()
}

func initLogging() {
	if viper.GetBool("debug") {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.Debugf("Debugging is enabled...")
	}
}

// loadEvidence reads the evidence snapshot named by --evidence into the store
// and returns it.
func loadEvidence(mem *store.Memory) (*models.EvidenceSnapshot, error) {
	path := viper.GetString("evidence")
	if path == "" {
		return nil, fmt.Errorf("an evidence snapshot file is required (--evidence)")
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading evidence %s: %v", path, err)
	}
	var snapshot models.EvidenceSnapshot
	if err := json.Unmarshal(contents, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing evidence %s: %v", path, err)
	}
	if snapshot.TenantID == "" || snapshot.EvidenceID == "" {
		return nil, fmt.Errorf("evidence %s is missing tenantId or evidenceId", path)
	}
	if err := mem.SaveEvidence(snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// loadPolicies reads the policy set named by --policies into the store.
func loadPolicies(mem *store.Memory) (int, error) {
	path := viper.GetString("policies")
	if path == "" {
		return 0, nil
	}
	policies, err := policy.LoadPolicySet(path)
	if err != nil {
		return 0, err
	}
	for _, p := range policies {
		if err := mem.SavePolicy(p); err != nil {
			return 0, err
		}
	}
	return len(policies), nil
}

// writeOutput marshals the result and writes it to --output via a temp file
// and rename, or to stdout when no output path is set.
func writeOutput(result any) error {
	value, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	path := viper.GetString("output")
	if path == "" {
		fmt.Println(string(value))
		return nil
	}
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, value, 0644); err != nil {
		return err
	}
	return os.Rename(tempPath, path)
}

func exitOnError(err error) {
	if err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
