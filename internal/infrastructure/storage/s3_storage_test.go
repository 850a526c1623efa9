package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	appproc "github.com/mayavriksh/backend/internal/application/procurement"
	"github.com/mayavriksh/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// jpegHeader is enough of a JPEG for content sniffing
var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01}

type recordedRequest struct {
	Method      string
	Path        string
	ContentType string
}

// fakeS3 answers path-style object requests and records them
type fakeS3 struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, ContentType: r.Header.Get("Content-Type")})
	status := f.status
	f.mu.Unlock()

	if status != 0 {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>denied</Message></Error>`))
		return
	}
	switch r.Method {
	case http.MethodPut:
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func (f *fakeS3) fail(status int) {
	f.mu.Lock()
	f.status = status
	f.mu.Unlock()
}

func (f *fakeS3) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestStore(t *testing.T, fake *fakeS3) *S3BlobStore {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	store, err := NewS3BlobStore(context.Background(), &config.StorageConfig{
		Endpoint:     server.URL,
		Bucket:       "media",
		Region:       "ap-south-1",
		AccessKey:    "key",
		SecretKey:    "secret",
		UsePathStyle: true,
	}, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return store
}

func TestNewS3BlobStore_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewS3BlobStore(ctx, nil)
	assert.ErrorContains(t, err, "configuration is required")

	_, err = NewS3BlobStore(ctx, &config.StorageConfig{})
	assert.ErrorContains(t, err, "bucket is required")

	_, err = NewS3BlobStore(ctx, &config.StorageConfig{Bucket: "media", AccessKey: "only-key"})
	assert.ErrorContains(t, err, "must be set together")

	store, err := NewS3BlobStore(ctx, &config.StorageConfig{Bucket: "media", Region: "eu-west-1", AccessKey: "k", SecretKey: "s"})
	require.NoError(t, err)
	assert.Equal(t, "media", store.Bucket())
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com", store.publicBaseURL)

	store, err = NewS3BlobStore(ctx, &config.StorageConfig{Bucket: "media", Endpoint: "minio.local:9000", PublicBaseURL: "https://cdn.test/"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test", store.publicBaseURL)
}

func TestS3BlobStore_Upload(t *testing.T) {
	fake := &fakeS3{}
	store := newTestStore(t, fake)

	ref, err := store.Upload(context.Background(), appproc.Upload{Filename: "receipt.JPG", Data: jpegHeader}, appproc.FolderReceipts, "receipt-42")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref.PublicID, "purchase-orders/receipts/receipt-42-"), ref.PublicID)
	assert.True(t, strings.HasSuffix(ref.PublicID, ".jpg"), ref.PublicID)
	assert.Equal(t, "image/jpeg", ref.MediaType)
	assert.True(t, strings.HasSuffix(ref.URL, "/media/"+ref.PublicID), ref.URL)

	req := fake.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/media/"+ref.PublicID, req.Path)
	assert.Equal(t, "image/jpeg", req.ContentType)
}

func TestS3BlobStore_UploadErrors(t *testing.T) {
	fake := &fakeS3{}
	store := newTestStore(t, fake)

	_, err := store.Upload(context.Background(), appproc.Upload{Filename: "empty.png"}, appproc.FolderQC, "")
	assert.ErrorContains(t, err, "empty")

	fake.fail(http.StatusForbidden)
	_, err = store.Upload(context.Background(), appproc.Upload{Filename: "qc.jpg", Data: jpegHeader}, appproc.FolderQC, "")
	assert.ErrorContains(t, err, "failed to upload")
}

func TestS3BlobStore_Delete(t *testing.T) {
	fake := &fakeS3{}
	store := newTestStore(t, fake)

	require.NoError(t, store.Delete(context.Background(), "purchase-orders/qc/a.jpg"))
	req := fake.last()
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/media/purchase-orders/qc/a.jpg", req.Path)

	assert.Error(t, store.Delete(context.Background(), ""))

	fake.fail(http.StatusForbidden)
	assert.ErrorContains(t, store.Delete(context.Background(), "purchase-orders/qc/a.jpg"), "failed to delete")
}

func TestObjectKey(t *testing.T) {
	t.Run("extension from the file name", func(t *testing.T) {
		key, contentType := objectKey(appproc.Upload{Filename: "photo.PNG", ContentType: "image/png", Data: jpegHeader}, "/purchase-orders/qc/", "")
		assert.True(t, strings.HasPrefix(key, "purchase-orders/qc/"), key)
		assert.True(t, strings.HasSuffix(key, ".png"), key)
		assert.Equal(t, "image/png", contentType)
	})

	t.Run("extension and type sniffed when missing", func(t *testing.T) {
		key, contentType := objectKey(appproc.Upload{Filename: "blob", Data: jpegHeader}, "purchase-orders/damage", "damage-7")
		assert.True(t, strings.HasPrefix(key, "purchase-orders/damage/damage-7-"), key)
		assert.True(t, strings.HasSuffix(key, ".jpg"), key)
		assert.Equal(t, "image/jpeg", contentType)
	})
}

func TestMemoryBlobStore(t *testing.T) {
	store := NewMemoryBlobStore("")
	ctx := context.Background()

	ref, err := store.Upload(ctx, appproc.Upload{Filename: "qc.jpg", Data: jpegHeader}, appproc.FolderQC, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref.URL, "memory://media/purchase-orders/qc/"))
	assert.True(t, store.Exists(ref.PublicID))
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Delete(ctx, ref.PublicID))
	assert.False(t, store.Exists(ref.PublicID))
	require.NoError(t, store.Delete(ctx, ref.PublicID))

	_, err = store.Upload(ctx, appproc.Upload{Filename: "none.jpg"}, appproc.FolderQC, "")
	assert.Error(t, err)
}
