package blob_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefly-bot/briefly/pkg/blob"
)

// fakeS3 is an in-memory S3Client double.
type fakeS3 struct {
	objects map[string][]byte
	putErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(params.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(string(data)))}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(params.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func newS3Storage(t *testing.T, client blob.S3Client) *blob.S3Storage {
	t.Helper()
	ss, err := blob.NewS3Storage(context.Background(), blob.S3Config{
		Bucket: "briefly-media",
		Region: "us-east-1",
	}, blob.WithS3Client(client))
	require.NoError(t, err)
	return ss
}

func TestS3StoragePutGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fake := newFakeS3()
	ss := newS3Storage(t, fake)

	obj, err := ss.Put(ctx, "audio/42/summary.mp3", []byte("mp3-bytes"), "audio/mpeg")
	require.NoError(t, err)
	assert.Equal(t, "audio/42/summary.mp3", obj.Path)
	assert.Equal(t, "https://briefly-media.s3.us-east-1.amazonaws.com/audio/42/summary.mp3", obj.URL)

	data, err := ss.Get(ctx, "audio/42/summary.mp3")
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), data)

	assert.True(t, ss.Exists(ctx, "audio/42/summary.mp3"))
}

func TestS3StorageGetMissing(t *testing.T) {
	t.Parallel()
	ss := newS3Storage(t, newFakeS3())

	_, err := ss.Get(context.Background(), "missing.bin")
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestS3StorageDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fake := newFakeS3()
	ss := newS3Storage(t, fake)

	_, err := ss.Put(ctx, "qr/payment.png", []byte("png"), "image/png")
	require.NoError(t, err)
	require.NoError(t, ss.Delete(ctx, "qr/payment.png"))
	assert.False(t, ss.Exists(ctx, "qr/payment.png"))
}

func TestS3StorageInvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := blob.NewS3Storage(context.Background(), blob.S3Config{}, blob.WithS3Client(newFakeS3()))
	assert.ErrorIs(t, err, blob.ErrInvalidConfig)
}

func TestS3StorageCustomEndpointURL(t *testing.T) {
	t.Parallel()

	ss, err := blob.NewS3Storage(context.Background(), blob.S3Config{
		Bucket:   "media",
		Region:   "us-east-1",
		Endpoint: "https://minio.internal:9000",
	}, blob.WithS3Client(newFakeS3()))
	require.NoError(t, err)
	assert.Equal(t, "https://minio.internal:9000/media/a/b.png", ss.URL("a/b.png"))
}
