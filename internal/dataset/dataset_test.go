package dataset

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"call-compliance-go/internal/actionable"
	"call-compliance-go/internal/aggregator"
	"call-compliance-go/internal/types"
)

func writeManifest(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellRef, &row))
	}
	p := filepath.Join(t.TempDir(), "calls.xlsx")
	require.NoError(t, f.SaveAs(p))
	return p
}

func TestLoadDetectsColumns(t *testing.T) {
	p := writeManifest(t, [][]any{
		{"Agent Name", "Call ID", "Recording URL"},
		{"Ana", "C-1", "https://example.com/c1.wav"},
		{"Ben", "", "recordings/c2.mp3"},
		{"Cid", "C-3", ""},
	})
	recs, err := Load(p)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, types.CallRecord{CallID: "C-1", AudioPath: "https://example.com/c1.wav", Agent: "Ana"}, recs[0])
	assert.Equal(t, "row-3", recs[1].CallID)
	assert.Equal(t, "recordings/c2.mp3", recs[1].AudioPath)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)

	p := writeManifest(t, [][]any{{"Call ID", "Notes"}, {"C-1", "hello"}})
	_, err = Load(p)
	assert.Error(t, err)

	p = writeManifest(t, [][]any{{"Call ID", "Audio"}})
	_, err = Load(p)
	assert.Error(t, err)
}

func TestWriteWorkbook(t *testing.T) {
	reports := []types.Report{
		{
			File:               "c1.wav",
			Category:           "billing",
			Sentiment:          types.Sentiment{Label: "POSITIVE", Score: 0.9},
			DetectedPII:        types.PIIMatches{"email": {"a@b.com"}, "credit_card": {"4111"}},
			ComplianceMarkers:  map[string][]types.ComplianceMarker{"disclaimers": {{Phrase: "recorded"}}},
			DiarizationMetrics: types.DiarizationMetrics{CustomerToAgentRatio: math.Inf(1)},
			MaskedTranscript:   "hi ****",
		},
		{File: "c2.wav", Error: "transcription failed"},
	}
	sum := aggregator.Aggregate(reports)
	cards := actionable.Generate(sum)

	p := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteWorkbook(p, []string{"C-1", "C-2"}, reports, sum, cards))

	f, err := excelize.OpenFile(p)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{ReportsSheet, SummarySheet}, f.GetSheetList())

	rows, err := f.GetRows(ReportsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Call ID", rows[0][0])
	assert.Equal(t, "C-1", rows[1][0])
	assert.Equal(t, "billing", rows[1][2])
	assert.Equal(t, "credit_card, email", rows[1][5])
	assert.Equal(t, "inf", rows[1][9])
	assert.Equal(t, "transcription failed", rows[2][len(rows[2])-1])

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Total calls", "2"}, summary[1])
	var sawCard bool
	for _, r := range summary {
		if len(r) == 3 && r[0] == cards[0].Insight {
			sawCard = true
		}
	}
	assert.True(t, sawCard)
}
