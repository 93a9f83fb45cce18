package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"call-compliance-go/internal/actionable"
	"call-compliance-go/internal/aggregator"
	"call-compliance-go/internal/app"
	"call-compliance-go/internal/config"
	"call-compliance-go/internal/dataset"
	"call-compliance-go/internal/logger"
	"call-compliance-go/internal/logsink"
	"call-compliance-go/internal/pipeline"
	"call-compliance-go/internal/report"
	"call-compliance-go/internal/types"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config.yaml")
	manifest := flag.String("manifest", "", "xlsx manifest with call id and audio columns")
	xlsxOut := flag.String("xlsx", "", "write reports and summary to this workbook")
	asJSON := flag.Bool("json", false, "print reports as JSON instead of the console view")
	workers := flag.Int("workers", 4, "concurrent calls")
	timeout := flag.Duration("timeout", 20*time.Minute, "per call timeout, download included")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <audio_file>...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		logger.New().WithError(err).Fatal("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.New().WithError(err).Fatal("invalid config")
	}
	// The console report owns stdout; keep the CLI quiet unless asked.
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.Logging.MinLogLevel = "warn"
	}
	closeLogs := app.SetupLogging(cfg, "analyze", false)
	log := logger.New()

	records, err := loadRecords(*manifest, flag.Args())
	if err != nil {
		log.WithError(err).Error("no calls to analyze")
		flag.Usage()
		closeLogs()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	sink := dialSink(ctx, cfg.Logging.LogAddress)
	sink.log("INFO", "Starting main process...", map[string]any{"calls": len(records)})

	code := run(ctx, cfg, records, *workers, *timeout, *xlsxOut, *asJSON, sink)

	sink.close()
	stop()
	closeLogs()
	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config, records []types.CallRecord, workers int, timeout time.Duration, xlsxOut string, asJSON bool, sink *notifier) int {
	log := logger.New()
	rules, err := config.LoadRules(cfg.Rules)
	if err != nil {
		sink.log("ERROR", fmt.Sprintf("Analysis failed: %s", err), nil)
		log.WithError(err).Error("failed to load rules")
		return 1
	}
	backends, err := app.BuildAnalyzer(cfg, rules)
	if err != nil {
		sink.log("ERROR", fmt.Sprintf("Analysis failed: %s", err), nil)
		log.WithError(err).Error("failed to initialize analyzer")
		return 1
	}
	defer backends.Close()

	results := pipeline.Run(ctx, backends.Analyzer, records, pipeline.Options{
		Workers: workers,
		Timeout: timeout,
		Progress: func(done, total int, rep types.Report) {
			log.WithField("done", done).WithField("total", total).WithField("file", rep.File).Info("progress")
		},
	})
	reports := pipeline.Reports(results)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			log.WithError(err).Error("failed to write JSON")
		}
	} else {
		for _, rep := range reports {
			report.Print(os.Stdout, rep)
			fmt.Println()
		}
	}

	sum := aggregator.Aggregate(reports)
	cards := actionable.Generate(sum)
	if xlsxOut != "" {
		ids := make([]string, len(results))
		for i, r := range results {
			ids[i] = r.Record.CallID
		}
		if err := dataset.WriteWorkbook(xlsxOut, ids, reports, sum, cards); err != nil {
			log.WithError(err).Error("failed to write workbook")
			sink.log("ERROR", fmt.Sprintf("Analysis failed: %s", err), nil)
			return 1
		}
		log.WithField("path", xlsxOut).Info("workbook written")
	}

	var failed []error
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", r.Record.CallID, r.Err))
		}
	}
	if len(failed) > 0 {
		for _, err := range failed {
			sink.log("ERROR", fmt.Sprintf("Analysis failed: %s", err), nil)
		}
		return 1
	}
	sink.log("INFO", "Analysis completed successfully", map[string]any{
		"calls":      sum.TotalCalls,
		"categories": sum.CategoryCounts,
	})
	return 0
}

func loadRecords(manifest string, args []string) ([]types.CallRecord, error) {
	var records []types.CallRecord
	if manifest != "" {
		rows, err := dataset.Load(manifest)
		if err != nil {
			return nil, err
		}
		records = append(records, rows...)
	}
	for _, a := range args {
		records = append(records, types.CallRecord{CallID: filepath.Base(a), AudioPath: a})
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("usage: pass audio files or -manifest")
	}
	return records, nil
}

// notifier forwards milestone messages to the logging server. It degrades
// to a no-op when the server cannot be reached.
type notifier struct {
	client *logsink.Client
}

func dialSink(ctx context.Context, address string) *notifier {
	c, err := logsink.Dial(ctx, address)
	if err != nil {
		logger.New().WithError(err).Warn("log server unavailable")
		return &notifier{}
	}
	return &notifier{client: c}
}

func (n *notifier) log(level, message string, extra map[string]any) {
	if n.client == nil {
		return
	}
	done := make(chan error, 1)
	go func() { done <- n.client.Log(level, message, extra) }()
	select {
	case err := <-done:
		if err != nil {
			logger.New().WithError(err).Warn("failed to send log record")
		}
	case <-time.After(2 * time.Second):
		logger.New().Warn("log server did not accept record")
	}
}

func (n *notifier) close() {
	if n.client != nil {
		n.client.Close()
	}
}
