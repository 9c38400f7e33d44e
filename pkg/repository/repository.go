package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dmitrymomot/flagsync/pkg/feature"
	"github.com/dmitrymomot/flagsync/pkg/httpclient"
	"github.com/dmitrymomot/flagsync/pkg/instrumentation"
	"github.com/dmitrymomot/flagsync/pkg/logger"
	"github.com/dmitrymomot/flagsync/pkg/storage"
)

// FeaturesPath is the toggle endpoint relative to the service base URL.
const FeaturesPath = "client/features"

// Hooks receives repository events. Callbacks run on background goroutines
// and must not block.
type Hooks struct {
	// OnReady is called once, after the first successful sync or the first
	// backup load, whichever happens first.
	OnReady func()

	// OnData is called after every sync that replaced the toggle set.
	OnData func(defs []feature.Definition)

	// OnError is called with sync and storage failures. Polling continues.
	OnError func(err error)

	// OnWarn is called with non-fatal problems found in fetched toggles.
	OnWarn func(msg string)
}

// Option configures a Repository.
type Option func(*Repository)

// WithRefreshInterval sets the delay between syncs. Zero or less fetches once.
func WithRefreshInterval(d time.Duration) Option {
	return func(r *Repository) {
		r.interval = d
	}
}

// WithClock sets the clock that schedules syncs.
func WithClock(c clockwork.Clock) Option {
	return func(r *Repository) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithBackend sets where the recovery copy of the toggle set is kept.
// Defaults to a file in the system temp directory.
func WithBackend(b storage.Backend) Option {
	return func(r *Repository) {
		if b != nil {
			r.backend = b
		}
	}
}

// WithBootstrap seeds the toggle set used until a backup or a sync provides data.
func WithBootstrap(defs ...feature.Definition) Option {
	return func(r *Repository) {
		r.bootstrap = defs
	}
}

// WithHooks sets the event callbacks.
func WithHooks(h Hooks) Option {
	return func(r *Repository) {
		r.hooks = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithCollector sets the collector that records sync outcomes.
func WithCollector(c instrumentation.Collector) Option {
	return func(r *Repository) {
		if c != nil {
			r.collector = c
		}
	}
}

// Repository keeps a local copy of the toggle set in sync with the toggle
// service. It implements feature.Source.
type Repository struct {
	client    *httpclient.Client
	interval  time.Duration
	clock     clockwork.Clock
	backend   storage.Backend
	bootstrap []feature.Definition
	hooks     Hooks
	logger    *slog.Logger
	collector instrumentation.Collector

	store *storage.Storage[feature.Definition]
	ready sync.Once

	mu      sync.Mutex
	etag    string
	synced  bool
	started bool
	stopped bool
	timer   clockwork.Timer

	inflight int
	idle     *sync.Cond // signalled when inflight drops to zero
}

var _ feature.Source = (*Repository)(nil)

// New creates a repository that syncs through client.
func New(client *httpclient.Client, opts ...Option) (*Repository, error) {
	if client == nil {
		return nil, ErrNilClient
	}

	r := &Repository{
		client:    client,
		clock:     clockwork.NewRealClock(),
		logger:    logger.Nop(),
		collector: instrumentation.NewNop(),
	}
	r.idle = sync.NewCond(&r.mu)
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(logger.Component("repository"))
	if r.backend == nil {
		r.backend = storage.NewFileBackend(nil, "", client.AppName())
	}

	r.store = storage.New(r.backend,
		storage.WithLogger[feature.Definition](r.logger),
		storage.WithCollector[feature.Definition](r.collector),
		storage.WithHooks(storage.Hooks[feature.Definition]{
			OnReady: r.onBackupReady,
			OnError: r.emitError,
		}),
	)
	return r, nil
}

// URL returns the endpoint toggles are fetched from.
func (r *Repository) URL() string {
	return r.client.Endpoint(FeaturesPath)
}

// ETag returns the validator of the last fetched toggle set.
func (r *Repository) ETag() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.etag
}

// SetETag seeds the validator sent with the next request.
func (r *Repository) SetETag(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.etag = v
}

// GetToggle returns the definition of the named toggle.
func (r *Repository) GetToggle(name string) (feature.Definition, bool) {
	return r.store.Get(name)
}

// GetToggles returns all toggles sorted by name.
func (r *Repository) GetToggles() []feature.Definition {
	return sortedToggles(r.store.GetAll())
}

// Start restores the backup and begins polling. The first fetch is issued
// immediately; each following fetch is scheduled only after the previous
// one has settled. ctx is used for every request and the backup load.
func (r *Repository) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.started = true
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "starting toggle sync", logger.URL(r.URL()), logger.Duration(r.interval))
	r.store.Load(ctx)
	go r.cycle(ctx)
	return nil
}

// Stop cancels the pending sync. A request already in flight is not aborted
// but its result is discarded. Use Wait to block until it returns.
func (r *Repository) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// Wait blocks until the sync in flight and pending backup loads and
// persists have finished.
func (r *Repository) Wait() {
	r.mu.Lock()
	for r.inflight > 0 {
		r.idle.Wait()
	}
	r.mu.Unlock()
	r.store.Wait()
}

func (r *Repository) cycle(ctx context.Context) {
	r.fetch(ctx)
	if r.interval <= 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.timer = r.clock.AfterFunc(r.interval, func() { r.cycle(ctx) })
}

func (r *Repository) fetch(ctx context.Context) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.inflight++
	r.mu.Unlock()
	defer r.settle()

	start := r.clock.Now()
	result, err := r.sync(ctx)
	if r.isStopped() {
		r.logger.DebugContext(ctx, "discarding sync result after stop")
		return
	}
	r.collector.ObserveSync(result, r.clock.Since(start))
	if err != nil {
		r.logger.WarnContext(ctx, "toggle sync failed", logger.Error(err))
		r.emitError(err)
	}
}

func (r *Repository) settle() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inflight--
	if r.inflight == 0 {
		r.idle.Broadcast()
	}
}

func (r *Repository) sync(ctx context.Context) (string, error) {
	req, err := r.client.R(ctx)
	if err != nil {
		return instrumentation.ResultError, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if etag := r.ETag(); etag != "" {
		req.SetHeader("If-None-Match", etag)
	}

	url := r.URL()
	resp, err := req.Get(url)
	if err != nil {
		return instrumentation.ResultError, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusNotModified:
		r.logger.DebugContext(ctx, "toggles not modified", logger.ETag(r.ETag()))
		return instrumentation.ResultNotModified, nil
	case code < 200 || code > 299:
		return instrumentation.ResultError, &StatusError{URL: url, StatusCode: code}
	}

	var doc document
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return instrumentation.ResultError, fmt.Errorf("%w: %w", ErrPayloadParse, err)
	}
	if r.isStopped() {
		return instrumentation.ResultSuccess, nil
	}
	r.apply(ctx, doc.Features, resp.Header().Get("ETag"))
	return instrumentation.ResultSuccess, nil
}

type document struct {
	Version  int                  `json:"version"`
	Features []feature.Definition `json:"features"`
}

func (r *Repository) apply(ctx context.Context, defs []feature.Definition, etag string) {
	toggles := make(map[string]feature.Definition, len(defs))
	for _, def := range defs {
		if def.Malformed() {
			r.emitWarn(ctx, fmt.Sprintf("toggle %q has malformed strategies and will evaluate to false", def.Name))
		}
		toggles[def.Name] = def
	}

	r.mu.Lock()
	r.synced = true
	if etag != "" {
		r.etag = etag
	}
	r.store.Reset(toggles)
	r.mu.Unlock()

	r.logger.DebugContext(ctx, "toggles updated", logger.Count(len(toggles)), logger.ETag(etag))
	if r.hooks.OnData != nil {
		r.hooks.OnData(sortedToggles(maps.Clone(toggles)))
	}
	r.markReady()
}

func (r *Repository) onBackupReady(data map[string]feature.Definition) {
	if len(data) == 0 && len(r.bootstrap) > 0 {
		r.mu.Lock()
		if !r.synced && r.store.Len() == 0 {
			seed := make(map[string]feature.Definition, len(r.bootstrap))
			for _, def := range r.bootstrap {
				seed[def.Name] = def
			}
			r.store.Reset(seed)
			r.logger.Info("using bootstrap toggles", logger.Count(len(seed)))
		}
		r.mu.Unlock()
	}
	r.markReady()
}

func (r *Repository) markReady() {
	r.ready.Do(func() {
		if r.hooks.OnReady != nil {
			r.hooks.OnReady()
		}
	})
}

func (r *Repository) isStopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

func (r *Repository) emitError(err error) {
	if r.hooks.OnError != nil {
		r.hooks.OnError(err)
	}
}

func (r *Repository) emitWarn(ctx context.Context, msg string) {
	r.logger.WarnContext(ctx, msg)
	if r.hooks.OnWarn != nil {
		r.hooks.OnWarn(msg)
	}
}

func sortedToggles(m map[string]feature.Definition) []feature.Definition {
	defs := slices.Collect(maps.Values(m))
	slices.SortFunc(defs, func(a, b feature.Definition) int {
		return strings.Compare(a.Name, b.Name)
	})
	return defs
}
