package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/opsledger/compliance-engine/pkg/models"
)

var csvHeader = []string{
	"id", "tenantId", "cveId", "status", "riskLevel", "likelihood", "impact",
	"cvssScore", "scheduledCompletionDate", "actualCompletionDate", "closedBy", "closureRationale",
}

// WriteCSV writes the tenant's POA&M items as CSV, one row per item.
func WriteCSV(w io.Writer, items []models.POAMItem) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %v", err)
	}
	for _, item := range items {
		row := []string{
			item.ID,
			item.TenantID,
			item.CveID,
			string(item.Status),
			string(item.RiskLevel),
			string(item.Likelihood),
			string(item.Impact),
			strconv.FormatFloat(item.CvssScore, 'f', 1, 64),
			item.ScheduledCompletionDate.Format(time.RFC3339),
			formatOptionalTime(item.ActualCompletionDate),
			item.ClosedBy,
			item.ClosureRationale,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing CSV row for item %s: %v", item.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
