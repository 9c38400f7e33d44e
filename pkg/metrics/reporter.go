package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dmitrymomot/flagsync/pkg/httpclient"
	"github.com/dmitrymomot/flagsync/pkg/instrumentation"
	"github.com/dmitrymomot/flagsync/pkg/logger"
)

// Endpoints relative to the service base URL.
const (
	RegisterPath = "client/register"
	MetricsPath  = "client/metrics"
)

// Hooks receives reporter events. Callbacks run on background goroutines
// and must not block.
type Hooks struct {
	OnRegistered func(reg Registration)
	OnSent       func(payload Payload)

	// OnWarn is called for rejected requests, including the 404 that disables reporting.
	OnWarn func(msg string)

	// OnError is called when a request could not be sent at all.
	OnError func(err error)
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithInterval sets the delay between deliveries. Zero or less disables transport.
func WithInterval(d time.Duration) Option {
	return func(r *Reporter) {
		r.interval = d
	}
}

// WithDisabled turns off transport. Counting keeps working.
func WithDisabled(disabled bool) Option {
	return func(r *Reporter) {
		r.disabled = disabled
	}
}

// WithStrategies sets the strategy names announced on registration.
func WithStrategies(names ...string) Option {
	return func(r *Reporter) {
		r.strategies = slices.Clone(names)
	}
}

// WithClock sets the clock used for timestamps and scheduling.
func WithClock(c clockwork.Clock) Option {
	return func(r *Reporter) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithHooks sets the event callbacks.
func WithHooks(h Hooks) Option {
	return func(r *Reporter) {
		r.hooks = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reporter) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithCollector sets the collector that records delivery outcomes.
func WithCollector(c instrumentation.Collector) Option {
	return func(r *Reporter) {
		if c != nil {
			r.collector = c
		}
	}
}

// Reporter counts toggle usage and periodically delivers it to the toggle service.
type Reporter struct {
	client     *httpclient.Client
	interval   time.Duration
	strategies []string
	clock      clockwork.Clock
	hooks      Hooks
	logger     *slog.Logger
	collector  instrumentation.Collector

	mu     sync.Mutex // guards bucket
	bucket Bucket

	state    sync.Mutex // guards the fields below
	disabled bool
	started  time.Time
	running  bool
	stopped  bool
	timer    clockwork.Timer
}

// New creates a reporter that delivers through client.
func New(client *httpclient.Client, opts ...Option) (*Reporter, error) {
	if client == nil {
		return nil, ErrNilClient
	}

	r := &Reporter{
		client:    client,
		clock:     clockwork.NewRealClock(),
		logger:    logger.Nop(),
		collector: instrumentation.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(logger.Component("metrics"))
	r.started = r.clock.Now()
	r.bucket = newBucket(r.started)
	return r, nil
}

// Count records one evaluation of the named toggle.
func (r *Reporter) Count(name string, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tc := r.bucket.Toggles[name]
	if enabled {
		tc.Yes++
	} else {
		tc.No++
	}
	r.bucket.Toggles[name] = tc
}

// CountVariant records one assignment of variant for the named toggle. It
// does not touch the yes and no counters.
func (r *Reporter) CountVariant(name, variant string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tc := r.bucket.Toggles[name]
	if tc.Variants == nil {
		tc.Variants = make(map[string]int)
	}
	tc.Variants[variant]++
	r.bucket.Toggles[name] = tc
}

// Toggle returns the counts of the named toggle in the current bucket.
func (r *Reporter) Toggle(name string) (ToggleCount, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tc, ok := r.bucket.Toggles[name]
	tc.Variants = maps.Clone(tc.Variants)
	return tc, ok
}

// BucketToggleCount returns the number of toggles in the current bucket.
func (r *Reporter) BucketToggleCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bucket.Toggles)
}

// Disabled reports whether transport is off, either by configuration or
// after the service answered 404.
func (r *Reporter) Disabled() bool {
	r.state.Lock()
	defer r.state.Unlock()
	return r.disabled
}

// Started returns the reporter creation time announced on registration.
func (r *Reporter) Started() time.Time {
	return r.started
}

// Start registers the instance and begins periodic delivery. It does nothing
// when transport is disabled or the interval is not positive.
func (r *Reporter) Start(ctx context.Context) error {
	r.state.Lock()
	if r.running {
		r.state.Unlock()
		return ErrAlreadyStarted
	}
	r.running = true
	skip := r.disabled || r.interval <= 0
	r.state.Unlock()

	if skip {
		r.logger.DebugContext(ctx, "metrics transport disabled")
		return nil
	}

	go func() {
		r.register(ctx)
		r.schedule(ctx)
	}()
	return nil
}

// Stop halts periodic delivery. A request in flight is not aborted.
func (r *Reporter) Stop() {
	r.state.Lock()
	defer r.state.Unlock()
	r.stopped = true
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Reporter) schedule(ctx context.Context) {
	r.state.Lock()
	defer r.state.Unlock()
	if r.stopped || r.disabled {
		return
	}
	r.timer = r.clock.AfterFunc(r.interval, func() {
		r.Send(ctx)
		r.schedule(ctx)
	})
}

// Send delivers the current bucket and starts a new one. An empty bucket is
// not sent. A failed delivery is not retried; its counts are dropped.
func (r *Reporter) Send(ctx context.Context) {
	if r.Disabled() {
		return
	}

	r.mu.Lock()
	if r.bucket.Empty() {
		r.mu.Unlock()
		return
	}
	now := r.clock.Now()
	snapshot := r.bucket
	snapshot.Stop = now
	r.bucket = newBucket(now)
	r.mu.Unlock()

	payload := Payload{
		AppName:    r.client.AppName(),
		InstanceID: r.client.InstanceID(),
		Bucket:     snapshot,
	}
	if r.post(ctx, instrumentation.DeliveryMetrics, MetricsPath, payload) && r.hooks.OnSent != nil {
		r.hooks.OnSent(payload)
	}
}

func (r *Reporter) register(ctx context.Context) {
	reg := Registration{
		AppName:    r.client.AppName(),
		InstanceID: r.client.InstanceID(),
		Strategies: r.strategies,
		Started:    r.started,
		Interval:   r.interval.Milliseconds(),
	}
	if reg.Strategies == nil {
		reg.Strategies = []string{}
	}
	if r.post(ctx, instrumentation.DeliveryRegister, RegisterPath, reg) && r.hooks.OnRegistered != nil {
		r.hooks.OnRegistered(reg)
	}
}

// post sends body and reports whether the service accepted it.
func (r *Reporter) post(ctx context.Context, kind, path string, body any) bool {
	url := r.client.Endpoint(path)

	req, err := r.client.R(ctx)
	if err != nil {
		r.fail(ctx, kind, fmt.Errorf("%w: %w", ErrTransport, err))
		return false
	}
	resp, err := req.SetBody(body).Post(url)
	if err != nil {
		r.fail(ctx, kind, fmt.Errorf("%w: %w", ErrTransport, err))
		return false
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusNotFound:
		r.disable()
		r.collector.ObserveDelivery(kind, instrumentation.ResultError)
		r.warn(ctx, fmt.Sprintf("%s: %s responded %d, metrics reporting disabled", ErrEndpointNotFound, url, code))
		return false
	case code < 200 || code > 299:
		r.collector.ObserveDelivery(kind, instrumentation.ResultError)
		r.warn(ctx, fmt.Sprintf("%s: %s responded %d", ErrUnexpectedStatus, url, code))
		return false
	}

	r.collector.ObserveDelivery(kind, instrumentation.ResultSuccess)
	r.logger.DebugContext(ctx, "metrics delivered", slog.String("kind", kind), logger.URL(url))
	return true
}

func (r *Reporter) disable() {
	r.state.Lock()
	defer r.state.Unlock()
	r.disabled = true
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Reporter) fail(ctx context.Context, kind string, err error) {
	r.collector.ObserveDelivery(kind, instrumentation.ResultError)
	r.logger.WarnContext(ctx, "metrics delivery failed", slog.String("kind", kind), logger.Error(err))
	if r.hooks.OnError != nil {
		r.hooks.OnError(err)
	}
}

func (r *Reporter) warn(ctx context.Context, msg string) {
	r.logger.WarnContext(ctx, msg)
	if r.hooks.OnWarn != nil {
		r.hooks.OnWarn(msg)
	}
}
