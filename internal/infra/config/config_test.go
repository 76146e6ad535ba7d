package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "video-process-queue", cfg.RabbitMQProcessQueue)
	assert.Equal(t, "video-metadata-queue", cfg.RabbitMQMetadataQueue)
	assert.Equal(t, "videos", cfg.MinIOVideosBucket)
	assert.Equal(t, "previews", cfg.MinIOPreviewsBucket)
	assert.Equal(t, 5, cfg.PreviewCadenceSeconds)
	assert.Equal(t, "png", cfg.PreviewFormat)
	assert.Equal(t, "deterministic", cfg.PreviewKeys)
	assert.Equal(t, 0, cfg.CPUWorkers)
	// failed events stay unacked, so any finite window eventually starves the consumer
	assert.Equal(t, 0, cfg.RabbitMQPrefetch)
	assert.Equal(t, "/tmp/frameflow", cfg.TempDir)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PREVIEW_CADENCE_SECONDS", "10")
	t.Setenv("PREVIEW_FORMAT", "webp")
	t.Setenv("PREVIEW_KEYS", "random")
	t.Setenv("CPU_WORKERS", "3")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("RABBITMQ_PREFETCH", "16")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.PreviewCadenceSeconds)
	assert.Equal(t, "webp", cfg.PreviewFormat)
	assert.Equal(t, "random", cfg.PreviewKeys)
	assert.Equal(t, 3, cfg.CPUWorkers)
	assert.True(t, cfg.MinIOUseSSL)
	assert.Equal(t, 16, cfg.RabbitMQPrefetch)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"zero cadence":   {"PREVIEW_CADENCE_SECONDS", "0"},
		"unknown format": {"PREVIEW_FORMAT", "jpeg"},
		"unknown keys":   {"PREVIEW_KEYS", "sequential"},
		"no uploads":     {"UPLOAD_CONCURRENCY", "0"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsUnparsableNumber(t *testing.T) {
	t.Setenv("CPU_WORKERS", "many")
	_, err := Load()
	assert.Error(t, err)
}
