// Package report renders a call analysis for the terminal.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"call-compliance-go/internal/types"
)

var (
	headerColor   = color.New(color.FgCyan, color.Bold)
	piiColor      = color.New(color.FgRed, color.Bold)
	matchColor    = color.New(color.FgYellow)
	markerColor   = color.New(color.FgGreen, color.Bold)
	timeColor     = color.New(color.FgCyan)
	labelColor    = color.New(color.FgMagenta, color.Bold)
	metricColor   = color.New(color.FgYellow, color.Bold)
	categoryColor = color.New(color.FgCyan)
	errorColor    = color.New(color.FgRed, color.Bold)
)

// Print writes the sections of rep to w: masked transcript, PII, compliance
// markers, sentiment, diarization metrics and call category.
func Print(w io.Writer, rep types.Report) {
	title := "Call Compliance Analysis Results"
	if rep.File != "" {
		title += ": " + rep.File
	}
	headerColor.Fprintln(w, strings.Repeat("=", len(title)+4))
	headerColor.Fprintf(w, "  %s\n", title)
	headerColor.Fprintln(w, strings.Repeat("=", len(title)+4))

	if rep.Error != "" {
		section(w, "Error")
		errorColor.Fprintln(w, rep.Error)
		return
	}

	section(w, "Masked Transcript")
	fmt.Fprintln(w, rep.MaskedTranscript)

	section(w, "Detected PII")
	printPII(w, rep.DetectedPII)

	section(w, "Compliance Markers")
	printMarkers(w, rep.ComplianceMarkers)

	section(w, "Sentiment Analysis")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Label\tScore\n")
	fmt.Fprintf(tw, "%s\t%s\n", labelColor.Sprint(orNA(rep.Sentiment.Label)), fmt.Sprint(rep.Sentiment.Score))
	tw.Flush()

	section(w, "Diarization Metrics")
	printMetrics(w, rep.DiarizationMetrics)

	section(w, "Call Category")
	categoryColor.Fprintf(w, "  %s\n", orNA(rep.Category))
}

func section(w io.Writer, name string) {
	fmt.Fprintln(w)
	headerColor.Fprintf(w, "--- %s ---\n", name)
}

func printPII(w io.Writer, pii types.PIIMatches) {
	keys := make([]string, 0, len(pii))
	for k, v := range pii {
		if len(v) > 0 {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		fmt.Fprintln(w, "No PII detected")
		return
	}
	sort.Strings(keys)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Type\tMatches\n")
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%s\n", piiColor.Sprint(TitleCase(k)), matchColor.Sprint(strings.Join(pii[k], ", ")))
	}
	tw.Flush()
}

func printMarkers(w io.Writer, markers map[string][]types.ComplianceMarker) {
	keys := make([]string, 0, len(markers))
	for k, v := range markers {
		if len(v) > 0 {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		fmt.Fprintln(w, "No compliance markers found")
		return
	}
	sort.Strings(keys)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Type\tPhrase\tStart\tEnd\n")
	for _, k := range keys {
		for _, m := range markers[k] {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				markerColor.Sprint(TitleCase(k)), m.Phrase,
				timeColor.Sprintf("%.2fs", m.Start), timeColor.Sprintf("%.2fs", m.End))
		}
	}
	tw.Flush()
}

func printMetrics(w io.Writer, m types.DiarizationMetrics) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Metric\tValue\n")
	rows := [][2]string{
		{"Agent Speaking Speed", fmt.Sprintf("%v WPM", m.AgentSpeakingSpeedWPM)},
		{"Customer/Agent Ratio", FormatRatio(m.CustomerToAgentRatio)},
		{"Agent Interruptions", fmt.Sprint(m.InterruptionsByAgent)},
		{"Average TTFT", fmt.Sprintf("%vs", m.AverageTTFT)},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", metricColor.Sprint(r[0]), r[1])
	}
	tw.Flush()
}

// FormatRatio prints an infinite ratio as "inf".
func FormatRatio(r float64) string {
	if math.IsInf(r, 1) {
		return "inf"
	}
	return fmt.Sprint(r)
}

// TitleCase turns "credit_card" into "Credit Card".
func TitleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
