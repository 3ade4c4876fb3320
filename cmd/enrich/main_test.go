package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/lead-cleaner/internal/config"
	"github.com/ignite/lead-cleaner/internal/stubapi"
	"github.com/ignite/lead-cleaner/internal/storage"
)

func enrichConfig(t *testing.T, opts stubapi.Options, format string) config.EnrichConfig {
	t.Helper()
	srv := httptest.NewServer(stubapi.NewRouter(opts))
	t.Cleanup(srv.Close)

	ec := config.Default().Enrich
	ec.PostsURL = srv.URL + "/posts"
	ec.UsersURL = srv.URL + "/users"
	ec.CommentsURL = srv.URL + "/comments"
	ec.OutputDir = t.TempDir()
	ec.Format = format
	ec.Retries = 1
	ec.SleepSeconds = 0.001
	ec.Backoff = "linear"
	return ec
}

func readReport(t *testing.T, dir string) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "report.json"))
	require.NoError(t, err)
	var report map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &report))
	return report
}

func TestRun_WritesOutputAndReport(t *testing.T) {
	ec := enrichConfig(t, stubapi.Options{Fixtures: stubapi.DefaultFixtures()}, "json")

	code := run(context.Background(), ec, storage.New(nil))
	assert.Equal(t, 0, code)

	data, err := os.ReadFile(filepath.Join(ec.OutputDir, "output.json"))
	require.NoError(t, err)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &rows))
	assert.Len(t, rows, 6)

	report := readReport(t, ec.OutputDir)
	assert.Equal(t, map[string]interface{}{
		"posts": 6.0, "users": 3.0, "comments": 15.0, "posts_enriched": 6.0,
	}, report["rows"])
	assert.Empty(t, report["warnings"])
	assert.NotEmpty(t, report["finished_at"])
}

func TestRun_PostsFailureExitsOne(t *testing.T) {
	ec := enrichConfig(t, stubapi.Options{
		Fixtures:  stubapi.DefaultFixtures(),
		FailFirst: map[string]stubapi.Failure{"/posts": {Count: 10, Status: http.StatusInternalServerError}},
	}, "csv")

	code := run(context.Background(), ec, storage.New(nil))
	assert.Equal(t, 1, code)

	data, err := os.ReadFile(filepath.Join(ec.OutputDir, "output.csv"))
	require.NoError(t, err)
	assert.Equal(t, "post_id,title,user_id,user_name,user_email,comments_count\n", string(data))

	report := readReport(t, ec.OutputDir)
	assert.Equal(t, []interface{}{"posts endpoint failed; output is empty"}, report["warnings"])
}

func TestSelectBackoff(t *testing.T) {
	ec := config.Default().Enrich
	ec.SleepSeconds = 2
	ec.Backoff = "linear"

	assert.Equal(t, 4e9, float64(selectBackoff(ec)(2)))
}
