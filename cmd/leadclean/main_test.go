package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/lead-cleaner/internal/leadclean"
	"github.com/ignite/lead-cleaner/internal/pkg/distlock"
	"github.com/ignite/lead-cleaner/internal/storage"
)

const sampleCSV = `lead_id,name,phone,email,created_at,amount
1,  Ivan   Petrenko ,050 123 45 67,IVAN@Example.com,2024-03-05,"1,234.50 UAH"
2,Ivan P.,+380501234567,ivan.p@example.com,2024-01-10,250 грн
,,,,,
3,Olena,0671112233,bad-email,qwzxv,abc
`

type heldLock struct{}

func (heldLock) Acquire(context.Context) (bool, error) { return false, nil }
func (heldLock) Release(context.Context) error         { return nil }

func writeInput(t *testing.T) (in, outDir string) {
	t.Helper()
	dir := t.TempDir()
	in = filepath.Join(dir, "leads.csv")
	require.NoError(t, os.WriteFile(in, []byte(sampleCSV), 0644))
	return in, filepath.Join(dir, "out")
}

func TestJobRun_CSV(t *testing.T) {
	in, outDir := writeInput(t)
	j := job{input: in, outDir: outDir, format: "csv", workers: 1, store: storage.New(nil), lock: distlock.NoopLock{}}

	report, err := j.run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, leadclean.Report{
		RowsIn:            4,
		RowsOut:           2,
		DroppedEmptyRows:  1,
		InvalidEmails:     1,
		InvalidDates:      1,
		InvalidAmounts:    1,
		DuplicatesRemoved: 1,
	}, report)

	clean, err := os.ReadFile(filepath.Join(outDir, "clean.csv"))
	require.NoError(t, err)
	assert.Equal(t, "lead_id,name,phone,email,created_at,amount\n"+
		"2,Ivan P.,+380501234567,ivan.p@example.com,2024-01-10,250.00\n"+
		"3,Olena,+380671112233,,,\n", string(clean))

	data, err := os.ReadFile(filepath.Join(outDir, "report.json"))
	require.NoError(t, err)
	var onDisk leadclean.Report
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, report, onDisk)
}

func TestJobRun_JSON(t *testing.T) {
	in, outDir := writeInput(t)
	j := job{input: in, outDir: outDir, format: "json", workers: 4, store: storage.New(nil), lock: distlock.NoopLock{}}

	_, err := j.run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "clean.json"))
	require.NoError(t, err)
	var rows []leadclean.NormalizedRow
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "2", rows[0].LeadID)
}

func TestJobRun_LockHeld(t *testing.T) {
	in, outDir := writeInput(t)
	j := job{input: in, outDir: outDir, format: "csv", store: storage.New(nil), lock: heldLock{}}

	_, err := j.run(context.Background())
	assert.ErrorIs(t, err, distlock.ErrLockHeld)
	assert.NoFileExists(t, filepath.Join(outDir, "clean.csv"))
}

func TestJobRun_MissingInput(t *testing.T) {
	dir := t.TempDir()
	j := job{input: filepath.Join(dir, "nope.csv"), outDir: dir, format: "csv", store: storage.New(nil), lock: distlock.NoopLock{}}

	_, err := j.run(context.Background())
	assert.Error(t, err)
}

func TestJobRun_RedisLockReleased(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	in, outDir := writeInput(t)
	key := distlock.RunKey("leadclean:run", outDir)
	j := job{input: in, outDir: outDir, format: "csv", store: storage.New(nil), lock: distlock.NewRedisLock(rdb, key, time.Minute)}

	_, err := j.run(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outDir, "clean.csv"))
	assert.False(t, mr.Exists("lock:"+key))
}

func TestJobRun_LockLostSkipsOutputs(t *testing.T) {
	in, outDir := writeInput(t)
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(distlock.ErrLockHeld)
	j := job{input: in, outDir: outDir, format: "csv", store: storage.New(nil), lock: distlock.NoopLock{}}

	_, err := j.run(ctx)
	assert.ErrorIs(t, err, distlock.ErrLockHeld)
	assert.NoFileExists(t, filepath.Join(outDir, "clean.csv"))
	assert.NoFileExists(t, filepath.Join(outDir, "report.json"))
}
