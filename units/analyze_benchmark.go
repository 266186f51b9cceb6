package units

import (
	"context"
	"fmt"

	"github.com/evergreen-ci/benchwatch/perf"
	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/dependency"
	"github.com/mongodb/amboy/job"
	"github.com/mongodb/amboy/registry"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const analyzeBenchmarkJobName = "analyze-benchmark"

type analyzeBenchmarkJob struct {
	*job.Base `bson:"metadata" json:"metadata" yaml:"metadata"`
	Series    *perf.Series          `bson:"series" json:"series" yaml:"series"`
	Metrics   []string              `bson:"metrics" json:"metrics" yaml:"metrics"`
	Options   perf.OptionSet        `bson:"options" json:"options" yaml:"options"`
	Report    *perf.BenchmarkReport `bson:"report,omitempty" json:"report,omitempty" yaml:"report,omitempty"`
}

func init() {
	registry.AddJobType(analyzeBenchmarkJobName, func() amboy.Job { return makeAnalyzeBenchmarkJob() })
}

func makeAnalyzeBenchmarkJob() *analyzeBenchmarkJob {
	j := &analyzeBenchmarkJob{
		Base: &job.Base{
			JobType: amboy.JobType{
				Name:    analyzeBenchmarkJobName,
				Version: 1,
			},
		},
	}
	j.SetDependency(dependency.NewAlways())
	return j
}

// NewAnalyzeBenchmarkJob returns a job that runs the recency check and the
// structural break scan for every metric of one benchmark series.
func NewAnalyzeBenchmarkJob(series *perf.Series, metrics []string, opts perf.OptionSet) amboy.Job {
	j := makeAnalyzeBenchmarkJob()
	j.Series = series
	j.Metrics = metrics
	j.Options = opts

	name := ""
	if series != nil {
		name = series.Name
	}
	j.SetID(fmt.Sprintf("%s.%s.%d", j.JobType.Name, name, job.GetNumber()))
	return j
}

func (j *analyzeBenchmarkJob) Run(_ context.Context) {
	defer j.MarkComplete()

	if j.Series == nil {
		j.AddError(errors.New("no series to analyze"))
		return
	}
	if len(j.Metrics) == 0 {
		j.AddError(errors.Errorf("no metrics to analyze for '%s'", j.Series.Name))
		return
	}

	j.Report = perf.AnalyzeSeries(j.Series, j.Metrics, j.Options)

	grip.Info(message.Fields{
		"job_id":    j.ID(),
		"message":   "analyzed benchmark",
		"benchmark": j.Series.Name,
		"length":    j.Series.Len(),
		"metrics":   j.Metrics,
		"anomalies": len(j.Report.Anomalies()),
		"skipped":   len(j.Report.Skipped),
		"errors":    len(j.Report.Errors),
	})
}
