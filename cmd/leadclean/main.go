package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/lead-cleaner/internal/config"
	"github.com/ignite/lead-cleaner/internal/leadclean"
	"github.com/ignite/lead-cleaner/internal/leadio"
	"github.com/ignite/lead-cleaner/internal/pkg/distlock"
	"github.com/ignite/lead-cleaner/internal/pkg/logger"
	"github.com/ignite/lead-cleaner/internal/runlog"
	"github.com/ignite/lead-cleaner/internal/storage"
)

func main() {
	if err := run(); err != nil {
		logger.Error("leadclean: run failed", "error", err)
		os.Exit(1)
	}
}

// run wires configuration, storage, run log and lock, then cleans one input.
func run() error {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	input := flag.String("input", "", "input CSV: local path or s3://bucket/key")
	outDir := flag.String("out-dir", "", "output directory: local path or s3://bucket/prefix")
	format := flag.String("format", "", "output format: csv or json")
	workers := flag.Int("workers", 0, "normalization goroutines")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *input != "" {
		cfg.Cleaning.Input = *input
	}
	if *outDir != "" {
		cfg.Cleaning.OutputDir = *outDir
	}
	if *format != "" {
		cfg.Cleaning.Format = *format
	}
	if *workers > 0 {
		cfg.Cleaning.Workers = *workers
	}
	if cfg.Cleaning.Input == "" {
		return errors.New("no input: pass -input or set cleaning.input")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}
	logger.SetLevel(level)
	logger.SetRedactPII(cfg.Logging.Redact())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var s3Client storage.S3API
	if storage.IsS3(cfg.Cleaning.Input) || storage.IsS3(cfg.Cleaning.OutputDir) {
		client, err := storage.NewS3Client(ctx, cfg.Storage.AWSRegion, cfg.Storage.GetAWSProfile())
		if err != nil {
			return fmt.Errorf("create s3 client: %w", err)
		}
		s3Client = client
	}

	var db *sql.DB
	var runs *runlog.Store
	if cfg.RunLog.Enabled {
		db, err = runlog.Open(ctx, cfg.RunLog.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect run log: %w", err)
		}
		defer db.Close()
		runs = runlog.NewStore(db)
		if err := runs.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("prepare run log: %w", err)
		}
	}

	var rdb *redis.Client
	if cfg.Lock.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Lock.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
	}

	j := job{
		input:   cfg.Cleaning.Input,
		outDir:  cfg.Cleaning.OutputDir,
		format:  cfg.Cleaning.Format,
		workers: cfg.Cleaning.Workers,
		store:   storage.New(s3Client),
		lock:    distlock.NewLock(rdb, db, distlock.RunKey(cfg.Lock.Key, cfg.Cleaning.OutputDir), cfg.Lock.TTL()),
		runs:    runs,
	}
	_, err = j.run(ctx)
	return err
}

// job is one configured cleaning run.
type job struct {
	input   string
	outDir  string
	format  string
	workers int
	store   *storage.Store
	lock    distlock.DistLock
	runs    *runlog.Store
}

func (j job) run(ctx context.Context) (leadclean.Report, error) {
	lockCtx, release, err := distlock.Guard(ctx, j.lock)
	if err != nil {
		return leadclean.Report{}, fmt.Errorf("acquire run lock for %s: %w", j.outDir, err)
	}
	defer release(context.Background())

	rec := runlog.Run{
		ID:        uuid.New(),
		Input:     j.input,
		Output:    j.outDir,
		StartedAt: time.Now().UTC(),
	}
	logger.Info("leadclean: run started", "run_id", rec.ID, "input", j.input, "output", j.outDir)

	report, err := j.clean(lockCtx)
	rec.FinishedAt = time.Now().UTC()
	rec.Report = report
	rec.Status = runlog.StatusOK
	if err != nil {
		rec.Status = runlog.StatusFailed
		rec.Error = err.Error()
	}
	if j.runs != nil {
		if rerr := j.runs.Record(ctx, rec); rerr != nil {
			logger.Warn("leadclean: failed to record run", "run_id", rec.ID, "error", rerr)
		}
	}
	if err != nil {
		return report, err
	}

	logger.Info("leadclean: run finished",
		"run_id", rec.ID,
		"rows_in", report.RowsIn,
		"rows_out", report.RowsOut,
		"dropped_empty_rows", report.DroppedEmptyRows,
		"invalid_phones", report.InvalidPhones,
		"invalid_emails", report.InvalidEmails,
		"invalid_dates", report.InvalidDates,
		"invalid_amounts", report.InvalidAmounts,
		"duplicates_removed", report.DuplicatesRemoved,
		"duration", rec.FinishedAt.Sub(rec.StartedAt))
	return report, nil
}

func (j job) clean(ctx context.Context) (leadclean.Report, error) {
	rc, err := j.store.Open(ctx, j.input)
	if err != nil {
		return leadclean.Report{}, err
	}
	raw, err := leadio.ReadRows(rc)
	rc.Close()
	if err != nil {
		return leadclean.Report{}, fmt.Errorf("read %s: %w", j.input, err)
	}

	res := leadclean.New(leadclean.WithWorkers(j.workers)).Run(raw)
	if err := ctx.Err(); err != nil {
		// Lock lost or run interrupted while cleaning: leave outputs untouched.
		return res.Report, fmt.Errorf("write %s: %w", j.outDir, context.Cause(ctx))
	}

	var out bytes.Buffer
	if err := leadio.WriteRows(&out, j.format, res.Rows); err != nil {
		return res.Report, err
	}
	cleanLoc := storage.Join(j.outDir, "clean."+j.format)
	if err := j.store.Put(ctx, cleanLoc, leadio.ContentType(j.format), out.Bytes()); err != nil {
		return res.Report, err
	}

	var rep bytes.Buffer
	if err := leadio.WriteReport(&rep, res.Report); err != nil {
		return res.Report, err
	}
	if err := j.store.Put(ctx, storage.Join(j.outDir, "report.json"), "application/json", rep.Bytes()); err != nil {
		return res.Report, err
	}
	return res.Report, nil
}
