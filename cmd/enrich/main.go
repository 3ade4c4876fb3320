package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/lead-cleaner/internal/config"
	"github.com/ignite/lead-cleaner/internal/enrich"
	"github.com/ignite/lead-cleaner/internal/leadio"
	"github.com/ignite/lead-cleaner/internal/pkg/httpretry"
	"github.com/ignite/lead-cleaner/internal/pkg/logger"
	"github.com/ignite/lead-cleaner/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	outDir := flag.String("out-dir", "", "output directory: local path or s3://bucket/prefix")
	format := flag.String("format", "", "output format: csv or json")
	timeout := flag.Int("timeout", 0, "per-request timeout in seconds")
	retries := flag.Int("retries", -1, "retries after the first attempt")
	sleep := flag.Float64("sleep", -1, "base delay between retries in seconds")
	backoff := flag.String("backoff", "", "retry backoff: linear or exponential")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logger.Error("enrich: load config failed", "error", err)
		os.Exit(1)
	}
	ec := &cfg.Enrich
	if *outDir != "" {
		ec.OutputDir = *outDir
	}
	if *format != "" {
		ec.Format = *format
	}
	if *timeout > 0 {
		ec.TimeoutSeconds = *timeout
	}
	if *retries >= 0 {
		ec.Retries = *retries
	}
	if *sleep >= 0 {
		ec.SleepSeconds = *sleep
	}
	if *backoff != "" {
		ec.Backoff = *backoff
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("enrich: invalid config", "error", err)
		os.Exit(1)
	}
	if level, err := logger.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}
	logger.SetRedactPII(cfg.Logging.Redact())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var s3Client storage.S3API
	if storage.IsS3(ec.OutputDir) {
		client, err := storage.NewS3Client(ctx, cfg.Storage.AWSRegion, cfg.Storage.GetAWSProfile())
		if err != nil {
			logger.Error("enrich: create s3 client failed", "error", err)
			os.Exit(1)
		}
		s3Client = client
	}

	code := run(ctx, *ec, storage.New(s3Client))
	stop()
	os.Exit(code)
}

// selectBackoff maps the configured strategy to a Backoff.
func selectBackoff(ec config.EnrichConfig) httpretry.Backoff {
	if ec.Backoff == "linear" {
		return httpretry.Linear(ec.Sleep())
	}
	return httpretry.ExponentialJitter(ec.Sleep(), 30*time.Second)
}

// run fetches, joins and writes output and report, returning the exit code.
func run(ctx context.Context, ec config.EnrichConfig, store *storage.Store) int {
	res, report := enrich.Run(ctx, enrich.Options{
		PostsURL:    ec.PostsURL,
		UsersURL:    ec.UsersURL,
		CommentsURL: ec.CommentsURL,
		Fetcher:     enrich.NewFetcher(ec.Timeout(), ec.Retries, selectBackoff(ec)),
	})
	code := res.ExitCode

	var out bytes.Buffer
	err := enrich.WriteRows(&out, ec.Format, res.Posts)
	if err == nil {
		err = store.Put(ctx, storage.Join(ec.OutputDir, "output."+ec.Format), leadio.ContentType(ec.Format), out.Bytes())
	}
	if err != nil {
		logger.Error("enrich: failed to write output file", "error", err)
		report.Warn("failed to write output file: " + err.Error())
		code = max(code, 1)
	}

	report.Finish()
	var rep bytes.Buffer
	if err := enrich.WriteReport(&rep, report); err != nil {
		logger.Error("enrich: failed to encode report", "error", err)
		return 1
	}
	if err := store.Put(ctx, storage.Join(ec.OutputDir, "report.json"), "application/json", rep.Bytes()); err != nil {
		logger.Error("enrich: failed to write report", "error", err)
		return 1
	}

	logger.Info("enrich: finished",
		"finished_at", report.FinishedAt,
		"duration_sec", report.DurationSec,
		"posts_enriched", report.Rows.PostsEnriched,
		"warnings", len(report.Warnings))
	return code
}
