package enrich

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ignite/lead-cleaner/internal/pkg/logger"
)

// Report warnings.
const (
	WarnPostsFailed    = "posts endpoint failed; output is empty"
	WarnUsersFailed    = "users endpoint failed; user_name/user_email will be empty"
	WarnCommentsFailed = "comments endpoint failed; comments_count will be 0"
)

const reportTimeLayout = "2006-01-02T15:04:05"

// Options names the three endpoints and the fetcher to use.
type Options struct {
	PostsURL    string
	UsersURL    string
	CommentsURL string
	Fetcher     *Fetcher
}

// RowCounts is the rows section of the report.
type RowCounts struct {
	Posts         int `json:"posts"`
	Users         int `json:"users"`
	Comments      int `json:"comments"`
	PostsEnriched int `json:"posts_enriched"`
}

// Report summarizes an enrichment run.
type Report struct {
	StartedAt   string           `json:"started_at"`
	FinishedAt  string           `json:"finished_at"`
	DurationSec float64          `json:"duration_sec"`
	Endpoints   []EndpointStatus `json:"endpoints"`
	Rows        RowCounts        `json:"rows"`
	Warnings    []string         `json:"warnings"`

	started time.Time
}

// Warn appends a warning.
func (r *Report) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Finish stamps the finish time and duration.
func (r *Report) Finish() {
	now := time.Now()
	r.FinishedAt = now.Format(reportTimeLayout)
	r.DurationSec = now.Sub(r.started).Seconds()
}

// Result is the joined output and the process exit code it implies.
type Result struct {
	Posts    []EnrichedPost
	ExitCode int
}

// Run fetches the three endpoints concurrently and joins them. A failed posts
// endpoint yields empty output and exit code 1; failed users or comments only
// add a warning. The report is left unfinished so callers can add output
// warnings before calling Finish.
func Run(ctx context.Context, opts Options) (Result, *Report) {
	started := time.Now()
	report := &Report{
		StartedAt: started.Format(reportTimeLayout),
		Endpoints: make([]EndpointStatus, 3),
		Warnings:  []string{},
		started:   started,
	}
	logger.Info("enrich: started", "started_at", report.StartedAt)

	var (
		posts    []Post
		users    []User
		comments []Comment
	)

	var g errgroup.Group
	g.Go(func() error {
		report.Endpoints[0] = opts.Fetcher.FetchJSON(ctx, opts.PostsURL, &posts)
		return nil
	})
	g.Go(func() error {
		report.Endpoints[1] = opts.Fetcher.FetchJSON(ctx, opts.UsersURL, &users)
		return nil
	})
	g.Go(func() error {
		report.Endpoints[2] = opts.Fetcher.FetchJSON(ctx, opts.CommentsURL, &comments)
		return nil
	})
	_ = g.Wait()

	var res Result
	if report.Endpoints[0].OK {
		report.Rows.Posts = len(posts)
	} else {
		posts = nil
		report.Warn(WarnPostsFailed)
		logger.Error("enrich: failed to fetch posts; output will be empty")
		res.ExitCode = 1
	}
	if report.Endpoints[1].OK {
		report.Rows.Users = len(users)
	} else {
		users = nil
		report.Warn(WarnUsersFailed)
	}
	if report.Endpoints[2].OK {
		report.Rows.Comments = len(comments)
	} else {
		comments = nil
		report.Warn(WarnCommentsFailed)
	}

	res.Posts = Join(posts, users, comments)
	report.Rows.PostsEnriched = len(res.Posts)
	return res, report
}
