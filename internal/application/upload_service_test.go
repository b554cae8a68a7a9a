package application

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestUpload_StoresUnderUserPrefix(t *testing.T) {
	store := &recordingStore{}
	svc := NewUploadService(store, 1024, nil)

	up, err := svc.Upload(context.Background(), "u1", UploadInput{
		Filename:     "Meu Contrato (final).PDF",
		DeclaredType: "application/pdf",
		Size:         5,
		Body:         strings.NewReader("%PDF-"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
	assert.True(t, strings.HasPrefix(store.key, "cofre-digital/users/u1/"), store.key)
	assert.True(t, strings.HasSuffix(store.key, "-Meu-Contrato-final.pdf"), store.key)
	assert.Equal(t, "application/pdf", up.MIMEType)
	assert.Equal(t, "%PDF-", string(store.body))
	assert.Equal(t, "Meu Contrato (final).PDF", up.OriginalFilename)
	assert.Equal(t, int64(5), up.Bytes)
	assert.Equal(t, "https://storage.example/"+store.key, up.URL)
}

func TestUpload_SniffsGenericType(t *testing.T) {
	store := &recordingStore{}
	svc := NewUploadService(store, 1024, nil)

	up, err := svc.Upload(context.Background(), "u1", UploadInput{
		Filename:     "scan",
		DeclaredType: "application/octet-stream",
		Size:         int64(len(pngHeader)),
		Body:         bytes.NewReader(pngHeader),
	})
	require.NoError(t, err)
	assert.Equal(t, "image/png", up.MIMEType)
	assert.True(t, strings.HasSuffix(store.key, "-scan.png"), store.key)
	assert.Equal(t, pngHeader, store.body, "sniffed bytes are still stored")
}

func TestUpload_Rejections(t *testing.T) {
	store := &recordingStore{}
	svc := NewUploadService(store, 10, nil)
	ctx := context.Background()

	_, err := svc.Upload(ctx, "u1", UploadInput{Filename: "a.txt"})
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = svc.Upload(ctx, "u1", UploadInput{Filename: "a.txt", Size: 11, Body: strings.NewReader(strings.Repeat("x", 11))})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Upload(ctx, "u1", UploadInput{Filename: "a.txt", Size: 0, Body: strings.NewReader("")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Zero(t, store.calls, "rejected uploads never reach the store")

	unconfigured := NewUploadService(nil, 10, nil)
	_, err = unconfigured.Upload(ctx, "u1", UploadInput{Filename: "a.txt", Size: 1, Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrMisconfigured)

	failing := NewUploadService(&recordingStore{err: errors.New("bucket gone")}, 10, nil)
	_, err = failing.Upload(ctx, "u1", UploadInput{Filename: "a.txt", Size: 1, Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestObjectKey(t *testing.T) {
	k := ObjectKey("u1", `C:\Users\ana\../ção!!.tar.gz`, "application/gzip")
	assert.True(t, strings.HasPrefix(k, "cofre-digital/users/u1/"), k)
	assert.True(t, strings.HasSuffix(k, ".gz"), k)
	assert.NotContains(t, strings.TrimPrefix(k, "cofre-digital/users/u1/"), "/")

	k = ObjectKey("u1", "!!!", "text/plain")
	assert.True(t, strings.HasSuffix(k, "-arquivo.txt"), k)
}
