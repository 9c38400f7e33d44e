package storage_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagsync/pkg/storage"
)

type item struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// gatedBackend blocks reads until release is closed.
type gatedBackend struct {
	release chan struct{}
	data    []byte
	readErr error

	mu     sync.Mutex
	writes [][]byte
}

func (b *gatedBackend) Read(ctx context.Context) ([]byte, error) {
	if b.release != nil {
		<-b.release
	}
	if b.readErr != nil {
		return nil, b.readErr
	}
	if b.data == nil {
		return nil, storage.ErrNotFound
	}
	return b.data, nil
}

func (b *gatedBackend) Write(_ context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes = append(b.writes, data)
	return nil
}

type events struct {
	mu        sync.Mutex
	ready     []map[string]item
	errors    []error
	persisted int
}

func (e *events) hooks() storage.Hooks[item] {
	return storage.Hooks[item]{
		OnReady: func(data map[string]item) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.ready = append(e.ready, data)
		},
		OnPersisted: func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.persisted++
		},
		OnError: func(err error) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.errors = append(e.errors, err)
		},
	}
}

func TestStorageLoad(t *testing.T) {
	t.Parallel()

	t.Run("missing backup yields empty map", func(t *testing.T) {
		t.Parallel()
		ev := &events{}
		s := storage.New(&gatedBackend{}, storage.WithHooks(ev.hooks()))
		s.Load(context.Background())
		s.Wait()

		require.Len(t, ev.ready, 1)
		assert.Empty(t, ev.ready[0])
		assert.Empty(t, ev.errors)
	})

	t.Run("existing backup is restored", func(t *testing.T) {
		t.Parallel()
		ev := &events{}
		backend := &gatedBackend{data: []byte(`{"a":{"name":"a","value":1}}`)}
		s := storage.New(backend, storage.WithHooks(ev.hooks()))
		s.Load(context.Background())
		s.Wait()

		require.Len(t, ev.ready, 1)
		assert.Equal(t, map[string]item{"a": {Name: "a", Value: 1}}, ev.ready[0])

		v, ok := s.Get("a")
		require.True(t, ok)
		assert.Equal(t, 1, v.Value)
	})

	t.Run("corrupt backup reports error then ready", func(t *testing.T) {
		t.Parallel()
		ev := &events{}
		s := storage.New(&gatedBackend{data: []byte(`{not json`)}, storage.WithHooks(ev.hooks()))
		s.Load(context.Background())
		s.Wait()

		require.Len(t, ev.errors, 1)
		assert.ErrorIs(t, ev.errors[0], storage.ErrCorruptBackup)
		require.Len(t, ev.ready, 1)
		assert.Empty(t, ev.ready[0])
	})

	t.Run("read failure reports error", func(t *testing.T) {
		t.Parallel()
		ev := &events{}
		s := storage.New(&gatedBackend{readErr: errors.New("disk gone")}, storage.WithHooks(ev.hooks()))
		s.Load(context.Background())
		s.Wait()

		require.Len(t, ev.errors, 1)
		assert.ErrorIs(t, ev.errors[0], storage.ErrLoadFailed)
		assert.Len(t, ev.ready, 1)
	})

	t.Run("stale load is discarded", func(t *testing.T) {
		t.Parallel()
		ev := &events{}
		backend := &gatedBackend{
			release: make(chan struct{}),
			data:    []byte(`{"old":{"name":"old","value":1}}`),
		}
		s := storage.New(backend, storage.WithHooks(ev.hooks()))

		s.Load(context.Background())
		s.Reset(map[string]item{"new": {Name: "new", Value: 2}})
		close(backend.release)
		s.Wait()

		_, hasOld := s.Get("old")
		assert.False(t, hasOld)
		assert.Equal(t, map[string]item{"new": {Name: "new", Value: 2}}, s.GetAll())

		require.Len(t, ev.ready, 1)
		assert.Equal(t, s.GetAll(), ev.ready[0])
	})
}

func TestStorageReset(t *testing.T) {
	t.Parallel()

	t.Run("replaces data and persists", func(t *testing.T) {
		t.Parallel()
		ev := &events{}
		backend := &gatedBackend{}
		s := storage.New(backend, storage.WithHooks(ev.hooks()))

		s.Reset(map[string]item{"a": {Name: "a", Value: 1}})
		assert.Equal(t, 1, s.Len())
		s.Wait()

		assert.Equal(t, 1, ev.persisted)
		require.Len(t, backend.writes, 1)
		assert.JSONEq(t, `{"a":{"name":"a","value":1}}`, string(backend.writes[0]))
	})

	t.Run("nil resets to empty", func(t *testing.T) {
		t.Parallel()
		s := storage.New[item](&gatedBackend{})
		s.Reset(map[string]item{"a": {}})
		s.Reset(nil)
		s.Wait()
		assert.Equal(t, 0, s.Len())
		assert.NotNil(t, s.GetAll())
	})

	t.Run("GetAll returns a copy", func(t *testing.T) {
		t.Parallel()
		s := storage.New[item](&gatedBackend{})
		s.Reset(map[string]item{"a": {Value: 1}})
		all := s.GetAll()
		all["b"] = item{}
		assert.Equal(t, 1, s.Len())
		s.Wait()
	})

	t.Run("last written snapshot is the newest", func(t *testing.T) {
		t.Parallel()
		backend := &gatedBackend{}
		s := storage.New[item](backend)

		for i := range 20 {
			s.Reset(map[string]item{"k": {Value: i}})
		}
		s.Wait()

		require.NotEmpty(t, backend.writes)
		assert.JSONEq(t, `{"k":{"name":"","value":19}}`, string(backend.writes[len(backend.writes)-1]))
	})

	t.Run("persist failure reports error", func(t *testing.T) {
		t.Parallel()
		ev := &events{}
		fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
		s := storage.New(storage.NewFileBackend(fs, "/backups", "app"), storage.WithHooks(ev.hooks()))

		s.Reset(map[string]item{"a": {}})
		s.Wait()

		require.Len(t, ev.errors, 1)
		assert.ErrorIs(t, ev.errors[0], storage.ErrPersistFailed)
		assert.Zero(t, ev.persisted)
		assert.Equal(t, 1, s.Len(), "reads keep serving memory")
	})
}

func TestStorageFileRoundTrip(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/backups", 0o755))

	first := storage.New[item](storage.NewFileBackend(fs, "/backups", "billing"))
	first.Reset(map[string]item{"a": {Name: "a", Value: 7}})
	first.Wait()

	ready := make(chan map[string]item, 1)
	second := storage.New(storage.NewFileBackend(fs, "/backups", "billing"), storage.WithHooks(storage.Hooks[item]{
		OnReady: func(data map[string]item) { ready <- data },
	}))
	second.Load(context.Background())

	select {
	case data := <-ready:
		assert.Equal(t, map[string]item{"a": {Name: "a", Value: 7}}, data)
	case <-time.After(5 * time.Second):
		t.Fatal("storage did not become ready")
	}
}

func TestSafeName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "my-app_1.0", storage.SafeName("my-app_1.0"))
	assert.Equal(t, "my_app__v2_", storage.SafeName("my app/@v2!"))
	assert.Equal(t, "caf_", storage.SafeName("café"))
	assert.Equal(t, "", storage.SafeName(""))
}
