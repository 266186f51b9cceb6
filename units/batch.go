package units

import (
	"context"
	"time"

	"github.com/evergreen-ci/benchwatch/perf"
	"github.com/mongodb/amboy"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const batchWaitInterval = 10 * time.Millisecond

// RunBatch analyzes every series in its own job on q, starting the queue
// if needed, and waits for all of them. The report lists benchmarks in the
// order of series. Jobs that fail are left out of the report and their
// errors are returned along with the report of the others.
func RunBatch(ctx context.Context, q amboy.Queue, series []*perf.Series, metrics []string, opts perf.OptionSet) (*perf.BatchReport, error) {
	if q == nil {
		return nil, errors.New("cannot run a batch without a queue")
	}
	if !q.Info().Started {
		if err := q.Start(ctx); err != nil {
			return nil, errors.Wrap(err, "problem starting queue")
		}
	}

	startAt := time.Now()
	jobs := make([]*analyzeBenchmarkJob, 0, len(series))
	for _, s := range series {
		j := NewAnalyzeBenchmarkJob(s, metrics, opts).(*analyzeBenchmarkJob)
		if err := q.Put(ctx, j); err != nil {
			return nil, errors.Wrapf(err, "problem queuing analysis of '%s'", s.Name)
		}
		jobs = append(jobs, j)
	}

	if !amboy.WaitInterval(ctx, q, batchWaitInterval) {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), "batch did not complete")
		}
		return nil, errors.New("batch did not complete")
	}

	report := &perf.BatchReport{Metrics: metrics, Benchmarks: []perf.BenchmarkReport{}}
	catcher := grip.NewBasicCatcher()
	for _, j := range jobs {
		if err := j.Error(); err != nil {
			catcher.Wrapf(err, "job '%s'", j.ID())
			continue
		}
		if j.Report == nil {
			catcher.Errorf("job '%s' did not produce a report", j.ID())
			continue
		}
		report.Add(j.Report)
	}

	grip.Info(message.Fields{
		"message":       "analyzed benchmark batch",
		"benchmarks":    len(series),
		"anomalies":     len(report.Anomalies()),
		"failed":        catcher.Len(),
		"duration_secs": time.Since(startAt).Seconds(),
	})

	return report, catcher.Resolve()
}
