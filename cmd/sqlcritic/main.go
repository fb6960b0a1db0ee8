package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"cloud.google.com/go/storage"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/scttnlsn/sql-critic/internal/analysis"
	"github.com/scttnlsn/sql-critic/internal/ciconfig"
	"github.com/scttnlsn/sql-critic/internal/driver"
	"github.com/scttnlsn/sql-critic/internal/explain"
	"github.com/scttnlsn/sql-critic/internal/ghpr"
	"github.com/scttnlsn/sql-critic/internal/spanmodel"
	"github.com/scttnlsn/sql-critic/internal/store"
	"github.com/scttnlsn/sql-critic/internal/store/gcsstore"
	"github.com/scttnlsn/sql-critic/internal/store/memstore"
	"github.com/scttnlsn/sql-critic/internal/telemetry"
)

var (
	gcsBucket  string
	dbURL      string
	localStore bool
	statsdAddr string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sqlcritic",
		Short: "Detects database-usage regressions from CI trace data",
		Long: `sqlcritic analyzes distributed-tracing data captured while a test suite
runs and surfaces newly introduced SQL antipatterns (N+1 queries,
sequential scans, missing indexes) as a pull-request comment.`,
	}

	rootCmd.PersistentFlags().StringVar(&gcsBucket, "gcs-bucket", "", "Google Cloud Storage bucket for result storage")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "Postgres connection string used for EXPLAIN/index metadata")
	rootCmd.PersistentFlags().BoolVar(&localStore, "local-store", false, "use an in-memory store and print the keys written to it instead of using GCS")
	rootCmd.PersistentFlags().StringVar(&statsdAddr, "statsd-addr", "", "StatsD address to emit sqlcritic.findings/sqlcritic.analyzer.duration to (telemetry is a no-op if unset)")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(prCommentCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// analyzeCmd runs the analysis pipeline (C7) standalone over a span file
// and prints findings as JSON, for local debugging.
func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <span-file>",
		Short: "Run the analysis pipeline over a span-record file and print findings as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), args[0])
		},
	}
}

func runAnalyze(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var records []spanmodel.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return err
	}

	spans := make([]spanmodel.Span, 0, len(records))
	for _, r := range records {
		span, err := spanmodel.Parse(r)
		if err != nil {
			return err
		}
		spans = append(spans, span)
	}

	forest, err := spanmodel.Build(spans)
	if err != nil {
		return err
	}

	var metadata *analysis.Metadata
	if dbURL != "" {
		runner, err := explain.Connect(ctx, dbURL)
		if err != nil {
			return err
		}
		defer func() { _ = runner.Close(ctx) }()

		metadata, err = runner.Run(ctx, forest)
		if err != nil {
			return err
		}
	}

	findings := analysis.Analyze(forest, metadata)

	out, err := json.MarshalIndent(findings, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// prCommentCmd reads the Action environment and runs the full driver (G6).
func prCommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pr-comment",
		Short: "Analyze this run's spans and upsert a regression comment on its pull request(s)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPRComment(cmd.Context())
		},
	}
}

func runPRComment(ctx context.Context) error {
	cfg, err := ciconfig.FromEnv()
	if err != nil {
		return err
	}
	if dbURL != "" {
		cfg.DBURL = dbURL
	}

	var st store.Store
	if localStore {
		mem := memstore.New()
		defer printLocalStore(mem)
		st = mem
	} else {
		st, err = newGCSStore(ctx, cfg)
		if err != nil {
			return err
		}
	}

	repo := ghpr.New(ctx, cfg.RepoOwner, cfg.RepoName, cfg.RepoToken)

	rec, err := newRecorder()
	if err != nil {
		return err
	}
	if rec != nil {
		defer func() { _ = rec.Close() }()
	}

	return driver.Run(ctx, cfg, st, repo, rec)
}

// newRecorder builds a *telemetry.Recorder when --statsd-addr is set, else
// returns a nil Recorder (every Recorder method tolerates a nil receiver).
func newRecorder() (*telemetry.Recorder, error) {
	if statsdAddr == "" {
		return nil, nil
	}
	return telemetry.New(statsdAddr)
}

func printLocalStore(mem *memstore.Store) {
	fmt.Fprintln(os.Stderr, "--local-store keys written:")
	for _, k := range mem.Keys() {
		fmt.Fprintf(os.Stderr, "  %s\n", k)
	}
}

func newGCSStore(ctx context.Context, cfg ciconfig.Config) (store.Store, error) {
	client, err := newStorageClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	bucket := gcsBucket
	if bucket == "" {
		bucket = cfg.GCSBucket
	}
	return gcsstore.New(client, bucket), nil
}

func newStorageClient(ctx context.Context, cfg ciconfig.Config) (*storage.Client, error) {
	if cfg.GCSCredentialsJSON == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(cfg.GCSCredentialsJSON))
}
