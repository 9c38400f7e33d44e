package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/flagsync/pkg/instrumentation"
	"github.com/dmitrymomot/flagsync/pkg/logger"
)

// Hooks receives storage events. Callbacks run on background goroutines.
type Hooks[T any] struct {
	// OnReady is called once per Load with the data held after the load.
	OnReady func(data map[string]T)

	// OnPersisted is called after a snapshot has been written.
	OnPersisted func()

	// OnError is called with ErrLoadFailed, ErrCorruptBackup or ErrPersistFailed.
	OnError func(err error)
}

// Option configures a Storage.
type Option[T any] func(*Storage[T])

// WithHooks sets the event callbacks.
func WithHooks[T any](h Hooks[T]) Option[T] {
	return func(s *Storage[T]) {
		s.hooks = h
	}
}

// WithLogger sets the logger.
func WithLogger[T any](l *slog.Logger) Option[T] {
	return func(s *Storage[T]) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCollector sets the collector that records loads and persists.
func WithCollector[T any](c instrumentation.Collector) Option[T] {
	return func(s *Storage[T]) {
		if c != nil {
			s.collector = c
		}
	}
}

// Storage is an in-memory map backed by a recovery copy in a Backend.
//
// Reads never touch the backend. Load and Reset return immediately; their
// backend work runs in the background and reports through Hooks. A load that
// finishes after a Reset is discarded so stale backups never replace fresher
// data, and persists are serialized so an older snapshot is never written
// after a newer one.
type Storage[T any] struct {
	backend   Backend
	hooks     Hooks[T]
	logger    *slog.Logger
	collector instrumentation.Collector

	mu      sync.Mutex // guards version and data swaps
	version uint64
	data    atomic.Pointer[map[string]T]

	persistMu sync.Mutex
	written   uint64

	wg sync.WaitGroup
}

// New creates a storage over backend holding an empty map.
func New[T any](backend Backend, opts ...Option[T]) *Storage[T] {
	s := &Storage[T]{
		backend:   backend,
		logger:    logger.Nop(),
		collector: instrumentation.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("storage"))

	empty := make(map[string]T)
	s.data.Store(&empty)
	return s
}

// Get returns the value stored under key.
func (s *Storage[T]) Get(key string) (T, bool) {
	v, ok := (*s.data.Load())[key]
	return v, ok
}

// GetAll returns a copy of the whole map.
func (s *Storage[T]) GetAll() map[string]T {
	return maps.Clone(*s.data.Load())
}

// Len returns the number of stored entries.
func (s *Storage[T]) Len() int {
	return len(*s.data.Load())
}

// Reset replaces the in-memory map and persists it in the background.
// The caller must not modify data afterwards.
func (s *Storage[T]) Reset(data map[string]T) {
	if data == nil {
		data = make(map[string]T)
	}

	s.mu.Lock()
	s.version++
	version := s.version
	s.data.Store(&data)
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.persist(context.Background(), version, data)
	}()
}

// Load restores the map from the backend in the background and then calls
// Hooks.OnReady. A missing backup yields an empty map; a failed or corrupt one
// is reported through Hooks.OnError before OnReady fires.
func (s *Storage[T]) Load(ctx context.Context) {
	s.mu.Lock()
	start := s.version
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.load(ctx, start)
	}()
}

// Wait blocks until all background loads and persists have finished.
func (s *Storage[T]) Wait() {
	s.wg.Wait()
}

func (s *Storage[T]) load(ctx context.Context, start uint64) {
	data, err := s.read(ctx)
	if err != nil {
		s.collector.ObserveBackup(instrumentation.BackupLoad, instrumentation.ResultError)
		s.logger.Warn("backup load failed", logger.Error(err))
		s.emitError(err)
	} else {
		s.collector.ObserveBackup(instrumentation.BackupLoad, instrumentation.ResultSuccess)
	}

	s.mu.Lock()
	if data != nil && s.version == start {
		s.data.Store(&data)
	} else if data != nil {
		s.logger.Debug("discarding stale backup", logger.Count(len(data)))
	}
	current := *s.data.Load()
	s.mu.Unlock()

	if s.hooks.OnReady != nil {
		s.hooks.OnReady(maps.Clone(current))
	}
}

func (s *Storage[T]) read(ctx context.Context) (map[string]T, error) {
	raw, err := s.backend.Read(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(ErrLoadFailed, err)
	}

	data := make(map[string]T)
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, errors.Join(ErrCorruptBackup, err)
	}
	return data, nil
}

func (s *Storage[T]) persist(ctx context.Context, version uint64, data map[string]T) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if version <= s.written {
		return
	}

	raw, err := json.Marshal(data)
	if err == nil {
		err = s.backend.Write(ctx, raw)
	}
	if err != nil {
		s.collector.ObserveBackup(instrumentation.BackupPersist, instrumentation.ResultError)
		s.logger.Warn("backup persist failed", logger.Error(err))
		s.emitError(fmt.Errorf("%w: %w", ErrPersistFailed, err))
		return
	}

	s.written = version
	s.collector.ObserveBackup(instrumentation.BackupPersist, instrumentation.ResultSuccess)
	if s.hooks.OnPersisted != nil {
		s.hooks.OnPersisted()
	}
}

func (s *Storage[T]) emitError(err error) {
	if s.hooks.OnError != nil {
		s.hooks.OnError(err)
	}
}
