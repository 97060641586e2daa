package blob

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves objects from a map keyed by "bucket/key".
type fakeS3 struct {
	objects map[string][]byte
	err     error
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.objects[*params.Bucket+"/"+*params.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestGet(t *testing.T) {
	c := &s3Client{
		api:    &fakeS3{objects: map[string][]byte{"snapshots/public/snap-1.json": []byte(`{"name":"Jane"}`)}},
		bucket: "snapshots",
	}

	data, err := c.Get(context.Background(), "public/snap-1.json")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Jane"}`, string(data))
}

func TestGetMissingKey(t *testing.T) {
	c := &s3Client{api: &fakeS3{objects: map[string][]byte{}}, bucket: "snapshots"}

	_, err := c.Get(context.Background(), "public/absent.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetTransportError(t *testing.T) {
	c := &s3Client{api: &fakeS3{err: assert.AnError}, bucket: "snapshots"}

	_, err := c.Get(context.Background(), "public/snap-1.json")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&types.NoSuchKey{}))
	assert.True(t, isNotFound(&types.NoSuchBucket{}))
	assert.False(t, isNotFound(assert.AnError))
}
