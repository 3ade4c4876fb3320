package leadclean

import (
	"golang.org/x/sync/errgroup"
)

// parallelChunk is the number of rows one normalization goroutine handles.
const parallelChunk = 512

// Engine runs the filter, normalize, resolve and select stages over a batch.
// An Engine holds only settings and may be reused for any number of runs.
type Engine struct {
	workers int
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers normalizes rows on up to n goroutines. Output is identical to a
// sequential run. Values below 2 keep normalization on the calling goroutine.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// New returns an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{workers: 1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run cleans one batch. It never fails: unrecoverable values become empty
// fields and are counted in the report.
func (e *Engine) Run(raw []RawRow) Result {
	var acc accumulator

	kept := make([]RawRow, 0, len(raw))
	for _, r := range raw {
		acc.rowRead()
		if IsBlank(r) {
			acc.rowDropped()
			continue
		}
		kept = append(kept, r)
	}

	normalized := e.normalizeAll(kept)
	for _, r := range normalized {
		acc.normalized(r)
	}

	clusters := Resolve(normalized)
	chosen := SelectCanonical(normalized, clusters)

	out := make([]NormalizedRow, len(chosen))
	for i, idx := range chosen {
		out[i] = normalized[idx]
	}

	return Result{
		Rows:   out,
		Report: acc.finish(len(normalized), len(out)),
	}
}

// Run cleans one batch with a default Engine.
func Run(raw []RawRow) Result {
	return New().Run(raw)
}

// normalizeAll returns the normalized rows in input order.
func (e *Engine) normalizeAll(rows []RawRow) []NormalizedRow {
	out := make([]NormalizedRow, len(rows))
	if e.workers < 2 || len(rows) <= parallelChunk {
		for i, r := range rows {
			out[i] = normalizeRow(r)
		}
		return out
	}

	// errgroup is used for SetLimit; normalization cannot fail, so Wait
	// always returns nil.
	var g errgroup.Group
	g.SetLimit(e.workers)
	for start := 0; start < len(rows); start += parallelChunk {
		end := min(start+parallelChunk, len(rows))
		g.Go(func() error {
			for i := start; i < end; i++ {
				out[i] = normalizeRow(rows[i])
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
