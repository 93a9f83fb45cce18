// Package dataset reads batch manifests from Excel workbooks and writes the
// analysis results back out as one.
package dataset

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"call-compliance-go/internal/logger"
	"call-compliance-go/internal/types"
)

// Load reads the first sheet of a manifest. Columns are found by header:
// the call id, the recording (path or URL) and optionally the agent. Rows
// without a recording are skipped; rows without an id get their row number.
func Load(path string) ([]types.CallRecord, error) {
	log := logger.New().WithField("component", "dataset.loader").WithField("path", path)
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	audioIdx, callIDIdx, agentIdx := detectColumns(rows[0])
	if audioIdx == -1 {
		return nil, fmt.Errorf("no audio column in header %v", rows[0])
	}
	log.WithFields(map[string]interface{}{
		"audioIdx":  audioIdx,
		"callIDIdx": callIDIdx,
		"agentIdx":  agentIdx,
	}).Debug("detected manifest columns")

	var out []types.CallRecord
	skipped := 0
	for i, r := range rows[1:] {
		rec := types.CallRecord{
			AudioPath: cell(r, audioIdx),
			CallID:    cell(r, callIDIdx),
			Agent:     cell(r, agentIdx),
		}
		if rec.AudioPath == "" {
			skipped++
			continue
		}
		if rec.CallID == "" {
			rec.CallID = fmt.Sprintf("row-%d", i+2)
		}
		out = append(out, rec)
	}
	log.WithField("calls", len(out)).WithField("skipped", skipped).Info("manifest loaded")
	return out, nil
}

func detectColumns(header []string) (audioIdx, callIDIdx, agentIdx int) {
	audioIdx, callIDIdx, agentIdx = -1, -1, -1
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "audio") || strings.Contains(l, "recording") || strings.Contains(l, "url") ||
			strings.Contains(l, "path") || strings.Contains(l, "file") || (strings.Contains(l, "call") && strings.Contains(l, "link")):
			if audioIdx == -1 {
				audioIdx = i
			}
		case strings.Contains(l, "call id") || strings.Contains(l, "callid") || strings.Contains(l, "call_id") || l == "id":
			if callIDIdx == -1 {
				callIDIdx = i
			}
		case strings.Contains(l, "agent"):
			if agentIdx == -1 {
				agentIdx = i
			}
		}
	}
	return audioIdx, callIDIdx, agentIdx
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
