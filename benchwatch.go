/*
Package benchwatch holds application level constants and the shared
resources of the benchwatch tool: its configuration, the database client
and the queue that runs analysis jobs.
*/
package benchwatch

// BuildRevision stores the commit in the git repository at build time and is
// specified with -ldflags at build time.
var BuildRevision = ""

const (
	ShortDateFormat = "2006-01-02T15:04"

	DefaultDatabaseName        = "benchwatch"
	DefaultQueueCapacity       = 1024
	DefaultHistoryLimit        = 50
	BenchmarkResultsCollection = "benchmark_results"
)
