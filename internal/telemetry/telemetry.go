// Package telemetry wraps the StatsD metrics client and the package-level
// logger the driver and collaborators report through (SPEC_FULL.md §4.14).
package telemetry

import (
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/sirupsen/logrus"
)

// Log is the package-level structured logger every glue package writes
// through, matching the teacher's convention of a single shared logger
// rather than one per package.
var Log = logrus.New()

// Recorder emits finding counts and analyzer timings. A nil *Recorder (the
// zero value obtained by not calling New) is a safe no-op, used by tests
// and by the CLI when --statsd-addr is unset.
type Recorder struct {
	client statsd.ClientInterface
}

// New builds a Recorder around a UDP StatsD client at addr.
func New(addr string) (*Recorder, error) {
	client, err := statsd.New(addr)
	if err != nil {
		return nil, err
	}
	return &Recorder{client: client}, nil
}

// CountFinding increments sqlcritic.findings, tagged by kind.
func (r *Recorder) CountFinding(kind string) {
	if r == nil {
		return
	}
	_ = r.client.Incr("sqlcritic.findings", []string{"kind:" + kind}, 1)
}

// ObserveAnalyzerDuration times one analyzer run via
// sqlcritic.analyzer.duration, tagged by analyzer name.
func (r *Recorder) ObserveAnalyzerDuration(analyzer string, d time.Duration) {
	if r == nil {
		return
	}
	_ = r.client.Timing("sqlcritic.analyzer.duration", d, []string{"analyzer:" + analyzer}, 1)
}

// Close flushes and closes the underlying client, if any.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	return r.client.Close()
}
