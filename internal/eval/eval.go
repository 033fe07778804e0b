// Package eval measures the detector and the handshake validator against
// labeled datasets.
package eval

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/dataset"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/detect"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/pda"
)

// DFAMetrics scores filename detection.
type DFAMetrics struct {
	Total int
	TP    int
	FP    int
	FN    int
	TN    int

	Accuracy  float64
	Precision float64
	Recall    float64

	// PerPattern counts automaton matches by pattern name.
	PerPattern    map[string]int
	HeuristicHits int

	Patterns     int
	StatesBefore int
	StatesAfter  int

	Missed      []string // malicious names not flagged
	FalseAlarms []string // benign names flagged
	Elapsed     time.Duration
}

// PDAMetrics scores handshake validation.
type PDAMetrics struct {
	Total         int
	CorrectAccept int
	CorrectReject int
	FalseAccept   int
	FalseReject   int
	Accuracy      float64

	AvgMaxDepth float64
	MaxDepth    int

	Failed  []string // ids whose verdict disagreed with the label
	Elapsed time.Duration
}

// Runner evaluates with a bounded worker pool.
type Runner struct {
	workers int
	logger  *slog.Logger
}

// NewRunner returns a Runner; workers < 1 means one per CPU.
func NewRunner(workers int, logger *slog.Logger) *Runner {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{workers: workers, logger: logger}
}

// parallel calls fn(worker, i) for every i in [0,n). Each worker gets a
// stable index so it can own per-worker state. It stops handing out work
// once ctx is done.
func (r *Runner) parallel(ctx context.Context, n int, fn func(worker, i int)) error {
	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := min(r.workers, max(n, 1))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := range jobs {
				fn(w, i)
			}
		}(w)
	}
	var err error
feed:
	for i := 0; i < n; i++ {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return err
}

// Filenames runs det over entries and scores the verdicts against the
// labels.
func (r *Runner) Filenames(ctx context.Context, det *detect.Detector, entries []dataset.FilenameEntry) (DFAMetrics, []detect.Verdict, error) {
	start := time.Now()
	verdicts := make([]detect.Verdict, len(entries))
	err := r.parallel(ctx, len(entries), func(_, i int) {
		verdicts[i] = det.Detect(entries[i].Filename)
	})
	if err != nil {
		return DFAMetrics{}, nil, err
	}

	st := det.Stats()
	m := DFAMetrics{
		Total:        len(entries),
		PerPattern:   map[string]int{},
		Patterns:     st.Patterns,
		StatesBefore: st.StatesBefore,
		StatesAfter:  st.StatesAfter,
	}
	for i, v := range verdicts {
		e := entries[i]
		switch {
		case v.Suspicious && e.Malicious:
			m.TP++
		case v.Suspicious:
			m.FP++
			m.FalseAlarms = append(m.FalseAlarms, e.Filename)
		case e.Malicious:
			m.FN++
			m.Missed = append(m.Missed, e.Filename)
		default:
			m.TN++
		}
		switch v.Source {
		case detect.SourceDFA:
			m.PerPattern[v.Name]++
		case detect.SourceHeuristic:
			m.HeuristicHits++
		}
	}
	m.Accuracy = ratio(m.TP+m.TN, m.Total)
	m.Precision = ratio(m.TP, m.TP+m.FP)
	m.Recall = ratio(m.TP, m.TP+m.FN)
	m.Elapsed = time.Since(start)
	r.logger.Info("filename evaluation done",
		"total", m.Total, "tp", m.TP, "fp", m.FP, "fn", m.FN, "accuracy", m.Accuracy, "elapsed", m.Elapsed)
	return m, verdicts, nil
}

// Traces validates every trace on machine. Each worker owns one run.
func (r *Runner) Traces(ctx context.Context, machine *pda.Machine, traces []dataset.TCPTrace) (PDAMetrics, []pda.Result, error) {
	start := time.Now()
	results := make([]pda.Result, len(traces))
	runs := make([]*pda.Run, r.workers)
	for i := range runs {
		runs[i] = machine.NewRun()
	}
	err := r.parallel(ctx, len(traces), func(w, i int) {
		run := runs[w]
		run.Validate(traces[i].Sequence)
		results[i] = run.Result()
	})
	if err != nil {
		return PDAMetrics{}, nil, err
	}

	m := PDAMetrics{Total: len(traces)}
	depthSum := 0
	for i, res := range results {
		t := traces[i]
		switch {
		case res.Accepted && t.Valid:
			m.CorrectAccept++
		case !res.Accepted && !t.Valid:
			m.CorrectReject++
		case res.Accepted:
			m.FalseAccept++
			m.Failed = append(m.Failed, t.ID)
		default:
			m.FalseReject++
			m.Failed = append(m.Failed, t.ID)
		}
		depthSum += res.MaxDepth
		m.MaxDepth = max(m.MaxDepth, res.MaxDepth)
	}
	m.Accuracy = ratio(m.CorrectAccept+m.CorrectReject, m.Total)
	if m.Total > 0 {
		m.AvgMaxDepth = float64(depthSum) / float64(m.Total)
	}
	m.Elapsed = time.Since(start)
	r.logger.Info("trace evaluation done",
		"total", m.Total, "accuracy", m.Accuracy, "max_depth", m.MaxDepth, "elapsed", m.Elapsed)
	return m, results, nil
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
