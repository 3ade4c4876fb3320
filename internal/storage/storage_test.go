package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects      map[string][]byte
	contentTypes map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	k := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[k] = data
	f.contentTypes[k] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func TestLocalRoundTrip(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	loc := filepath.Join(t.TempDir(), "nested", "out.csv")

	require.NoError(t, s.Put(ctx, loc, "text/csv", []byte("lead_id\n1\n")))

	rc, err := s.Open(ctx, loc)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "lead_id\n1\n", string(data))
}

func TestOpen_MissingLocalFile(t *testing.T) {
	_, err := New(nil).Open(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestS3RoundTrip(t *testing.T) {
	fake := newFakeS3()
	s := New(fake)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "s3://leads/out/clean.json", "application/json", []byte("[]")))
	assert.Equal(t, "application/json", fake.contentTypes["leads/out/clean.json"])

	rc, err := s.Open(ctx, "s3://leads/out/clean.json")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestS3WithoutClient(t *testing.T) {
	err := New(nil).Put(context.Background(), "s3://leads/x.csv", "text/csv", nil)
	assert.ErrorIs(t, err, ErrUnsupportedLocation)
}

func TestParseS3(t *testing.T) {
	bucket, key, err := ParseS3("s3://leads/in/raw.csv")
	require.NoError(t, err)
	assert.Equal(t, "leads", bucket)
	assert.Equal(t, "in/raw.csv", key)

	for _, bad := range []string{"s3://", "s3://bucket", "s3://bucket/", "s3:///key", "/tmp/x"} {
		_, _, err := ParseS3(bad)
		assert.ErrorIs(t, err, ErrUnsupportedLocation, bad)
	}
}

func TestEmptyLocation(t *testing.T) {
	s := New(nil)
	_, err := s.Open(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnsupportedLocation)
	assert.ErrorIs(t, s.Put(context.Background(), "", "text/csv", nil), ErrUnsupportedLocation)
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "s3://leads/out/report.json", Join("s3://leads/out/", "report.json"))
	assert.Equal(t, "s3://leads/report.json", Join("s3://leads", "report.json"))
	assert.Equal(t, filepath.Join("out", "report.json"), Join("out", "report.json"))
}
