// Package pipeline analyzes a batch of calls with a bounded pool of workers.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"call-compliance-go/internal/audio"
	"call-compliance-go/internal/logger"
	"call-compliance-go/internal/types"
)

// Analyzer is the per-call analysis the pipeline runs.
type Analyzer interface {
	FullAnalysis(ctx context.Context, filename string, data []byte, pre *types.Transcription) (types.Report, error)
}

// FetchFunc loads a recording. audio.Fetch is used when nil.
type FetchFunc func(ctx context.Context, location string) ([]byte, string, error)

type Options struct {
	Workers int
	// Timeout bounds a single call, download included. Zero means no limit.
	Timeout time.Duration
	Fetch   FetchFunc
	// Progress, when set, is called after each call finishes.
	Progress func(done, total int, rep types.Report)
}

// Result pairs a manifest row with its report.
type Result struct {
	Record types.CallRecord
	Report types.Report
	Err    error
}

// Run analyzes every record and returns results in input order. A failed
// call never stops the batch; its error is kept on its Result.
func Run(ctx context.Context, an Analyzer, records []types.CallRecord, opts Options) []Result {
	log := logger.New().WithField("module", "pipeline")
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(records) {
		workers = len(records)
	}
	fetch := opts.Fetch
	if fetch == nil {
		fetch = audio.Fetch
	}

	results := make([]Result, len(records))
	jobs := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0

	log.WithField("calls", len(records)).WithField("workers", workers).Info("batch started")
	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := range jobs {
				rec := records[i]
				res := processOne(ctx, an, fetch, rec, opts.Timeout)
				results[i] = res

				entry := log.WithField("worker", id).WithField("call_id", rec.CallID)
				if res.Err != nil {
					entry.WithField("error", res.Err.Error()).Warn("call failed")
				} else {
					entry.WithField("duration_ms", res.Report.DurationMs).Info("call analyzed")
				}
				if opts.Progress != nil {
					mu.Lock()
					done++
					opts.Progress(done, len(records), res.Report)
					mu.Unlock()
				}
			}
		}(w)
	}

feed:
	for i := range records {
		select {
		case jobs <- i:
		case <-ctx.Done():
			for j := i; j < len(records); j++ {
				results[j] = Result{
					Record: records[j],
					Report: types.Report{File: records[j].AudioPath, Error: ctx.Err().Error()},
					Err:    ctx.Err(),
				}
			}
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	log.Info("batch finished")
	return results
}

func processOne(ctx context.Context, an Analyzer, fetch FetchFunc, rec types.CallRecord, timeout time.Duration) Result {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	res := Result{Record: rec}
	data, name, err := fetch(ctx, rec.AudioPath)
	if err != nil {
		res.Err = fmt.Errorf("fetch %s: %w", rec.AudioPath, err)
		res.Report = types.Report{File: rec.AudioPath, Error: res.Err.Error()}
		return res
	}
	if _, err := audio.Inspect(name, data); err != nil {
		res.Err = err
		res.Report = types.Report{File: name, Error: err.Error()}
		return res
	}
	res.Report, res.Err = an.FullAnalysis(ctx, name, data, nil)
	return res
}

// Reports extracts the reports of results, in order.
func Reports(results []Result) []types.Report {
	out := make([]types.Report, len(results))
	for i, r := range results {
		out[i] = r.Report
	}
	return out
}
