// Package driver orchestrates one CI run: load spans, optionally EXPLAIN
// them, discover pull requests, compare against each one's base, and post a
// comment (the action.py analog, SPEC_FULL.md §4.13).
package driver

import (
	"context"
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/scttnlsn/sql-critic/internal/analysis"
	"github.com/scttnlsn/sql-critic/internal/ciconfig"
	"github.com/scttnlsn/sql-critic/internal/compare"
	"github.com/scttnlsn/sql-critic/internal/explain"
	"github.com/scttnlsn/sql-critic/internal/ghpr"
	"github.com/scttnlsn/sql-critic/internal/render"
	"github.com/scttnlsn/sql-critic/internal/spanmodel"
	"github.com/scttnlsn/sql-critic/internal/store"
	"github.com/scttnlsn/sql-critic/internal/telemetry"
)

// Run executes one push-event CI run against cfg. Every other event name is
// a no-op, mirroring action.py's `if config.event_name == "push"` guard.
// rec may be nil (the --statsd-addr-unset CLI path); every Recorder method
// tolerates a nil receiver.
func Run(ctx context.Context, cfg ciconfig.Config, st store.Store, repo *ghpr.Repo, rec *telemetry.Recorder) error {
	if cfg.EventName != "push" {
		telemetry.Log.WithField("event", cfg.EventName).Debug("skipping non-push event")
		return nil
	}

	records, err := loadRecords(cfg.DataPath)
	if err != nil {
		return err
	}

	spans, forest, err := buildForest(records)
	if err != nil {
		return err
	}

	if err := st.Put(ctx, store.SpansKey(cfg.CommitSHA), records); err != nil {
		return errors.Wrap(err, "store spans")
	}

	var metadata *analysis.Metadata
	if cfg.DBURL != "" {
		metadata, err = runExplain(ctx, cfg, forest)
		if err != nil {
			return err
		}
		if err := st.Put(ctx, store.MetadataKey(cfg.CommitSHA), metadata); err != nil {
			return errors.Wrap(err, "store metadata")
		}
	}

	headFindings := analysis.Analyze(forest, metadata, rec.ObserveAnalyzerDuration)
	for _, f := range headFindings {
		rec.CountFinding(string(f.Kind))
	}

	pulls, err := repo.Pulls(ctx, cfg.CommitSHA)
	if err != nil {
		return errors.Wrap(err, "discover pull requests")
	}

	for _, pull := range pulls {
		telemetry.Log.WithField("pull", pull.Number).Info("processing pull request")

		if err := processPull(ctx, st, cfg.CommitSHA, pull, records, spans, headFindings); err != nil {
			telemetry.Log.WithField("pull", pull.Number).WithError(err).Warn("skipping pull request")
		}
	}

	return nil
}

func processPull(ctx context.Context, st store.Store, commitSHA string, pull ghpr.Pull, headRecords []spanmodel.Record, headSpans []spanmodel.Span, headFindings []analysis.Finding) error {
	var head []analysis.Finding
	if pull.HeadSHA == commitSHA {
		// already computed for this run: skip the redundant store round-trip
		// (spec.md §4.7/§6).
		head = headFindings
	} else {
		findings, err := findingsForSHA(ctx, st, pull.HeadSHA)
		if err != nil {
			return err
		}
		head = findings
	}

	base, err := findingsForSHA(ctx, st, pull.BaseSHA)
	if err != nil {
		if isMissing(err) {
			return &compare.MissingBaseError{SHA: pull.BaseSHA}
		}
		return err
	}

	newFindings := compare.NewFindings(base, head)
	body := render.Comment(pull.HeadSHA, pull.BaseSHA, newFindings)
	return pull.Comment(ctx, body)
}

func findingsForSHA(ctx context.Context, st store.Store, sha string) ([]analysis.Finding, error) {
	var records []spanmodel.Record
	ok, err := st.Get(ctx, store.SpansKey(sha), &records)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch spans for %s", sha)
	}
	if !ok {
		return nil, &compare.MissingHeadError{SHA: sha}
	}

	_, forest, err := buildForest(records)
	if err != nil {
		return nil, err
	}

	var metadata *analysis.Metadata
	hasMetadata, err := st.Get(ctx, store.MetadataKey(sha), &metadata)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch metadata for %s", sha)
	}
	if !hasMetadata {
		metadata = nil
	}

	return analysis.Analyze(forest, metadata), nil
}

func isMissing(err error) bool {
	_, ok := err.(*compare.MissingHeadError)
	return ok
}

func runExplain(ctx context.Context, cfg ciconfig.Config, forest *spanmodel.Forest) (*analysis.Metadata, error) {
	runner, err := explain.Connect(ctx, cfg.DBURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = runner.Close(ctx) }()

	return runner.Run(ctx, forest)
}

func loadRecords(path string) ([]spanmodel.Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read span data at %s", path)
	}

	var records []spanmodel.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, errors.Wrap(err, "decode span data")
	}
	return records, nil
}

func buildForest(records []spanmodel.Record) ([]spanmodel.Span, *spanmodel.Forest, error) {
	spans := make([]spanmodel.Span, 0, len(records))
	for _, r := range records {
		span, err := spanmodel.Parse(r)
		if err != nil {
			return nil, nil, err
		}
		spans = append(spans, span)
	}

	forest, err := spanmodel.Build(spans)
	if err != nil {
		return nil, nil, err
	}
	return spans, forest, nil
}
