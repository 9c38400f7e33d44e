package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagsync/pkg/storage"
)

func TestFileBackend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("path uses sanitized app name", func(t *testing.T) {
		t.Parallel()
		b := storage.NewFileBackend(afero.NewMemMapFs(), "/data", "my app")
		assert.Equal(t, filepath.Join("/data", "flagsync-repo-schema-v1-my_app.json"), b.Path())
	})

	t.Run("empty dir uses temp dir", func(t *testing.T) {
		t.Parallel()
		b := storage.NewFileBackend(afero.NewMemMapFs(), "", "app")
		assert.NotEmpty(t, filepath.Dir(b.Path()))
		assert.Equal(t, "flagsync-repo-schema-v1-app.json", filepath.Base(b.Path()))
	})

	t.Run("read missing file", func(t *testing.T) {
		t.Parallel()
		b := storage.NewFileBackend(afero.NewMemMapFs(), "/data", "app")
		_, err := b.Read(ctx)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("write then read leaves no temp files", func(t *testing.T) {
		t.Parallel()
		fs := afero.NewMemMapFs()
		require.NoError(t, fs.MkdirAll("/data", 0o755))
		b := storage.NewFileBackend(fs, "/data", "app")

		require.NoError(t, b.Write(ctx, []byte(`{"v":1}`)))
		require.NoError(t, b.Write(ctx, []byte(`{"v":2}`)))

		data, err := b.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, `{"v":2}`, string(data))

		entries, err := afero.ReadDir(fs, "/data")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "flagsync-repo-schema-v1-app.json", entries[0].Name())
	})

	t.Run("write to read-only filesystem fails", func(t *testing.T) {
		t.Parallel()
		b := storage.NewFileBackend(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/data", "app")
		require.Error(t, b.Write(ctx, []byte(`{}`)))
	})
}

func TestRedisBackend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	t.Run("key uses sanitized app name", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "flagsync:backup:my_app", storage.NewRedisBackend(client, "my app").Key())
		assert.Equal(t, "custom:my_app", storage.NewRedisBackend(client, "my app", storage.WithKeyPrefix("custom:")).Key())
	})

	t.Run("read missing key", func(t *testing.T) {
		t.Parallel()
		_, err := storage.NewRedisBackend(client, "missing").Read(ctx)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("write then read", func(t *testing.T) {
		t.Parallel()
		b := storage.NewRedisBackend(client, "roundtrip")
		require.NoError(t, b.Write(ctx, []byte(`{"a":1}`)))

		data, err := b.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(data))
	})

	t.Run("ttl is applied", func(t *testing.T) {
		t.Parallel()
		b := storage.NewRedisBackend(client, "ttl", storage.WithTTL(time.Hour))
		require.NoError(t, b.Write(ctx, []byte(`{}`)))
		assert.Equal(t, time.Hour, srv.TTL(b.Key()))
	})

	t.Run("storage over redis", func(t *testing.T) {
		t.Parallel()
		b := storage.NewRedisBackend(client, "storage")
		s := storage.New[item](b)
		s.Reset(map[string]item{"x": {Name: "x", Value: 3}})
		s.Wait()

		raw, err := srv.Get(b.Key())
		require.NoError(t, err)
		assert.JSONEq(t, `{"x":{"name":"x","value":3}}`, raw)
	})
}
