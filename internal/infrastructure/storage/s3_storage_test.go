package storage

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ech/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func validConfig() config.StorageConfig {
	return config.StorageConfig{
		Bucket:        "ech-reports",
		AccessKey:     "test-key",
		SecretKey:     "test-secret",
		Region:        "eu-west-3",
		Endpoint:      "http://localhost:9000",
		UsePathStyle:  true,
		PresignExpiry: 10 * time.Minute,
	}
}

func TestNewS3Archive_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.StorageConfig)
		wantErr []string
	}{
		{"missing bucket", func(c *config.StorageConfig) { c.Bucket = "" }, []string{"bucket is required"}},
		{"missing access key", func(c *config.StorageConfig) { c.AccessKey = "" }, []string{"access key is required"}},
		{"missing credentials", func(c *config.StorageConfig) { c.AccessKey, c.SecretKey = "", "" },
			[]string{"access key is required", "secret key is required"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			_, err := NewS3Archive(cfg, nil)
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestNewS3Archive_Defaults(t *testing.T) {
	cfg := validConfig()
	cfg.PresignExpiry = 0
	cfg.Region = ""

	a, err := NewS3Archive(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "ech-reports", a.Bucket())
	assert.Equal(t, defaultPresignExpiry, a.expiry)
}

func TestS3Archive_DownloadURLIsPresigned(t *testing.T) {
	a, err := NewS3Archive(validConfig(), nil)
	require.NoError(t, err)

	url, expires, err := a.DownloadURL(context.Background(), "delivery-notes/BL-2025-007-001.pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/ech-reports/delivery-notes/BL-2025-007-001.pdf?"))
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Contains(t, url, "X-Amz-Expires=600")
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), expires, 5*time.Second)

	_, _, err = a.DownloadURL(context.Background(), "")
	assert.Error(t, err)
}

func TestS3Archive_EmptyKeys(t *testing.T) {
	a, err := NewS3Archive(validConfig(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	assert.Error(t, a.Put(ctx, "", []byte("x"), "text/plain"))
	_, err = a.Get(ctx, "")
	assert.Error(t, err)
	assert.Error(t, a.Delete(ctx, ""))
}

// The round trip needs a running S3-compatible server, e.g.
// ECH_TEST_S3_ENDPOINT=http://localhost:9000 with minioadmin credentials.
func TestIntegration_S3RoundTrip(t *testing.T) {
	endpoint := os.Getenv("ECH_TEST_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("ECH_TEST_S3_ENDPOINT not set")
	}
	cfg := validConfig()
	cfg.Endpoint = endpoint
	cfg.Bucket = "ech-integration"
	cfg.AccessKey = "minioadmin"
	cfg.SecretKey = "minioadmin"
	a, err := NewS3Archive(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, a.EnsureBucket(ctx))
	require.NoError(t, a.EnsureBucket(ctx))

	key := "integration/" + time.Now().Format("150405.000") + ".txt"
	require.NoError(t, a.Put(ctx, key, []byte("OP001"), "text/plain"))
	data, err := a.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "OP001", string(data))

	require.NoError(t, a.Delete(ctx, key))
	_, err = a.Get(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
