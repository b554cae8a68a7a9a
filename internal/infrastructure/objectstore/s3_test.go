package objectstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	in   *s3.PutObjectInput
	body string
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Put_MinIOEndpoint(t *testing.T) {
	fp := &fakePutter{}
	store := newS3(fp, S3Config{Bucket: "vault", Endpoint: "http://127.0.0.1:9000/"}, 0)

	url, err := store.Put(context.Background(), "cofre-digital/users/u1/x-a.pdf", "application/pdf", strings.NewReader("%PDF"), 4)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000/vault/cofre-digital/users/u1/x-a.pdf", url)
	assert.Equal(t, "vault", aws.ToString(fp.in.Bucket))
	assert.Equal(t, "application/pdf", aws.ToString(fp.in.ContentType))
	assert.Equal(t, int64(4), aws.ToInt64(fp.in.ContentLength))
	assert.Equal(t, "%PDF", fp.body)
}

func TestS3Put_PublicBaseAndAWSDefault(t *testing.T) {
	store := newS3(&fakePutter{}, S3Config{Bucket: "b", PublicBaseURL: "https://cdn.example/"}, 0)
	url, err := store.Put(context.Background(), "k", "text/plain", strings.NewReader("x"), 1)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/k", url)

	store = newS3(&fakePutter{}, S3Config{Bucket: "b", Region: "sa-east-1"}, 0)
	url, err = store.Put(context.Background(), "k", "text/plain", strings.NewReader("x"), 1)
	require.NoError(t, err)
	assert.Equal(t, "https://b.s3.sa-east-1.amazonaws.com/k", url)
}

func TestS3Put_Error(t *testing.T) {
	store := newS3(&fakePutter{err: errors.New("denied")}, S3Config{Bucket: "b"}, 0)
	_, err := store.Put(context.Background(), "k", "text/plain", strings.NewReader("x"), 1)
	assert.EqualError(t, err, "denied")
}

func TestGCSPublicURL(t *testing.T) {
	assert.Equal(t, "https://storage.googleapis.com/bkt/a/b.png", GCSPublicURL("bkt", "a/b.png"))
}
