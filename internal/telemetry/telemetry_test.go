package telemetry_test

import (
	"testing"
	"time"

	"github.com/scttnlsn/sql-critic/internal/telemetry"
)

// A nil *Recorder must tolerate every call as a no-op - this is the state
// tests and the CLI without --statsd-addr run in.
func TestRecorder_NilIsNoOp(t *testing.T) {
	var r *telemetry.Recorder
	r.CountFinding("N_PLUS_ONE")
	r.ObserveAnalyzerDuration("nplusone", time.Millisecond)
	if err := r.Close(); err != nil {
		t.Fatalf("nil recorder Close returned error: %v", err)
	}
}

// New builds a live UDP client and its methods must not error even without
// a listener on the other end - StatsD is fire-and-forget.
func TestRecorder_NewEmitsWithoutError(t *testing.T) {
	r, err := telemetry.New("127.0.0.1:8125")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer r.Close()

	r.CountFinding("SEQ_SCAN")
	r.ObserveAnalyzerDuration("seq_scan", 2*time.Millisecond)
}
