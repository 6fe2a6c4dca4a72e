package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "PORT", "DATABASE_URL", "TABLE_PREFIX", "ALBUM_CONFIG", "BLOB_DELETE_CONCURRENCY", "PUBLIC_BASE_URL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "dev_", cfg.TablePrefix)
	assert.True(t, cfg.UseMemoryStore())
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, DefaultBlobDeleteConcurrency, cfg.BlobDeleteConcurrency)
	assert.Equal(t, int64(DefaultMaxUploadBytes), cfg.MaxUploadBytes)
	assert.Equal(t, "http://localhost:8080", cfg.PublicBaseURL)
}

func TestLoad_TablePrefixFollowsEnvironment(t *testing.T) {
	tests := []struct {
		env    string
		prefix string
	}{
		{"dev", "dev_"},
		{"test", "test_"},
		{"staging", "dev_"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", tt.env)
			t.Setenv("TABLE_PREFIX", "")
			t.Setenv("ALBUM_CONFIG", "")

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.prefix, cfg.TablePrefix)
		})
	}
}

func TestLoad_ProdRequiresJWKS(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("AUTH_JWKS_URL", "")
	t.Setenv("ALBUM_CONFIG", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_YAMLOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "album.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9090\"\nblob_delete_concurrency: 8\nauto_migrate: false\n"), 0644))

	t.Setenv("ENVIRONMENT", "dev")
	t.Setenv("PORT", "")
	t.Setenv("ALBUM_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 8, cfg.BlobDeleteConcurrency)
	assert.False(t, cfg.AutoMigrate)
	// Unset fields keep their environment value
	assert.Equal(t, "dev_", cfg.TablePrefix)
}

func TestMerge_NilOverrideKeepsConfig(t *testing.T) {
	cfg := &Config{Port: "1", BlobDeleteConcurrency: 2}
	cfg.Merge(nil)
	assert.Equal(t, &Config{Port: "1", BlobDeleteConcurrency: 2}, cfg)
}

func TestLimits(t *testing.T) {
	assert.True(t, IsAllowedPageSize(6))
	assert.True(t, IsAllowedPageSize(24))
	assert.False(t, IsAllowedPageSize(7))
	assert.False(t, IsAllowedPageSize(0))

	assert.True(t, IsAllowedImageExtension(".JPG"))
	assert.True(t, IsAllowedImageExtension(".gif"))
	assert.False(t, IsAllowedImageExtension(".bmp"))
	assert.False(t, IsAllowedImageExtension(""))
}
