package minio

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
)

func TestStorageRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := tcminio.Run(ctx,
		"minio/minio:latest",
		tcminio.WithUsername("minioadmin"),
		tcminio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	defer container.Terminate(ctx)

	endpoint, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	s, err := NewStorage(StorageConfig{
		Endpoint:           endpoint,
		AccessKey:          "minioadmin",
		SecretKey:          "minioadmin",
		VideosBucket:       "videos",
		PreviewsBucket:     "previews",
		PreviewContentType: "image/webp",
	})
	require.NoError(t, err)
	require.NoError(t, s.EnsureBuckets(ctx))
	// already present
	require.NoError(t, s.EnsureBuckets(ctx))

	_, err = s.client.PutObject(ctx, "videos", "clip", strings.NewReader("movie"), 5, miniogo.PutObjectOptions{})
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, s.DownloadVideo(ctx, "clip", dest))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "movie", string(data))

	require.Error(t, s.DownloadVideo(ctx, "missing", filepath.Join(t.TempDir(), "x")))

	require.NoError(t, s.UploadPreview(ctx, "p-0", []byte{1, 2, 3}))
	obj, err := s.client.GetObject(ctx, "previews", "p-0", miniogo.GetObjectOptions{})
	require.NoError(t, err)
	info, err := obj.Stat()
	require.NoError(t, err)
	assert.Equal(t, "image/webp", info.ContentType)
	got, err := io.ReadAll(obj)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)
}

func TestNewStorageDefaultsContentType(t *testing.T) {
	s, err := NewStorage(StorageConfig{Endpoint: "localhost:9000", VideosBucket: "v", PreviewsBucket: "p"})
	require.NoError(t, err)
	assert.Equal(t, "image/png", s.previewContentType)
}
