package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"call-compliance-go/internal/actionable"
	"call-compliance-go/internal/aggregator"
	"call-compliance-go/internal/types"
)

const (
	ReportsSheet = "Reports"
	SummarySheet = "Summary"
)

var reportHeader = []any{
	"Call ID", "File", "Category", "Sentiment", "Sentiment Score", "PII Types", "PII Matches",
	"Disclaimer Markers", "Agent WPM", "Customer/Agent Ratio", "Interruptions", "Average TTFT",
	"Duration (ms)", "Masked Transcript", "Error",
}

// WriteWorkbook writes one row per report to the Reports sheet and the batch
// summary plus action cards to the Summary sheet. callIDs may be shorter
// than reports.
func WriteWorkbook(path string, callIDs []string, reports []types.Report, sum aggregator.Summary, cards []actionable.ActionCard) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ReportsSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(ReportsSheet, "A1", &reportHeader); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, _ := excelize.ColumnNumberToName(len(reportHeader))
	if err := f.SetCellStyle(ReportsSheet, "A1", last+"1", bold); err != nil {
		return err
	}

	for i, r := range reports {
		id := ""
		if i < len(callIDs) {
			id = callIDs[i]
		}
		var ratio any = r.DiarizationMetrics.CustomerToAgentRatio
		if math.IsInf(r.DiarizationMetrics.CustomerToAgentRatio, 0) {
			ratio = "inf"
		}
		row := []any{
			id, r.File, r.Category, r.Sentiment.Label, r.Sentiment.Score,
			strings.Join(sortedKeys(r.DetectedPII), ", "), r.DetectedPII.Count(),
			len(r.ComplianceMarkers["disclaimers"]), r.DiarizationMetrics.AgentSpeakingSpeedWPM,
			ratio, r.DiarizationMetrics.InterruptionsByAgent, r.DiarizationMetrics.AverageTTFT,
			r.DurationMs, r.MaskedTranscript, r.Error,
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(ReportsSheet, cellRef, &row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}
	rows := [][]any{
		{"Metric", "Value"},
		{"Total calls", sum.TotalCalls},
		{"Analyzed calls", sum.AnalyzedCalls},
		{"Failed calls", sum.FailedCalls},
		{"Disclaimer coverage", sum.DisclaimerCoverage},
		{"PII call rate", sum.PIICallRate},
		{"Average interruptions", sum.AvgInterruptions},
		{"Average TTFT", sum.AvgTTFT},
		{"Average agent WPM", sum.AvgAgentWPM},
		{"Average duration (ms)", sum.AvgDurationMs},
	}
	for _, c := range sum.TopCategories() {
		rows = append(rows, []any{"Category: " + c, sum.CategoryCounts[c]})
	}
	labels := make([]string, 0, len(sum.Sentiment))
	for l := range sum.Sentiment {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		rows = append(rows, []any{fmt.Sprintf("Sentiment %s (avg score %.3f)", l, sum.Sentiment[l].AvgScore), sum.Sentiment[l].Count})
	}
	rows = append(rows, []any{}, []any{"Insight", "Action", "Impact"})
	for _, c := range cards {
		rows = append(rows, []any{c.Insight, c.Action, c.Impact})
	}
	for i, row := range rows {
		cellRef, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cellRef, &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "B1", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "A", "C", 48); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func sortedKeys(m types.PIIMatches) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
