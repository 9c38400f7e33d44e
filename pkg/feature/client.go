package feature

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/dmitrymomot/flagsync/pkg/instrumentation"
	"github.com/dmitrymomot/flagsync/pkg/logger"
)

// Hooks receives diagnostics produced during evaluation. Callbacks run
// synchronously on the evaluating goroutine and must not block.
type Hooks struct {
	// OnError is called when a toggle cannot be evaluated, for example when
	// its strategies field is malformed.
	OnError func(err error)

	// OnWarn is called once per toggle for every strategy it references that
	// is not registered.
	OnWarn func(msg string)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the logger used for evaluation diagnostics.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHooks sets the diagnostic callbacks.
func WithHooks(h Hooks) ClientOption {
	return func(c *Client) {
		c.hooks = h
	}
}

// WithCollector sets the collector that records evaluations.
func WithCollector(col instrumentation.Collector) ClientOption {
	return func(c *Client) {
		if col != nil {
			c.collector = col
		}
	}
}

// Client evaluates toggles from a Source using a strategy Registry.
// Evaluation never fails: problems are reported through hooks and the logger,
// and the affected toggle evaluates to false.
type Client struct {
	source    Source
	registry  *Registry
	logger    *slog.Logger
	hooks     Hooks
	collector instrumentation.Collector
	warned    *xsync.Map[string, struct{}]
}

// NewClient creates a client. A nil registry is replaced by one holding the
// built-in strategies.
func NewClient(source Source, registry *Registry, opts ...ClientOption) (*Client, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: source cannot be nil", ErrInvalidFlag)
	}
	if registry == nil {
		var err error
		if registry, err = NewDefaultRegistry(); err != nil {
			return nil, err
		}
	}

	c := &Client{
		source:    source,
		registry:  registry,
		logger:    logger.Nop(),
		collector: instrumentation.NewNop(),
		warned:    xsync.NewMap[string, struct{}](),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("client"))
	return c, nil
}

// Registry returns the strategy registry used by the client.
func (c *Client) Registry() *Registry {
	return c.registry
}

// IsEnabled evaluates the named toggle for ctx. Toggles unknown to the source
// resolve to fallback, or false when fallback is nil.
func (c *Client) IsEnabled(name string, ctx Context, fallback FallbackFunc) bool {
	def, ok := c.source.GetToggle(name)
	enabled := c.evaluate(def, ok, ctx, fallback)
	c.collector.ObserveEvaluation(name, enabled)
	return enabled
}

// GetVariant returns the variant of the named toggle assigned to ctx.
// A zero fallback is replaced by DefaultVariant. The fallback is returned when
// the toggle is unknown, has no variants, is disabled for ctx, or no variant
// can be selected.
func (c *Client) GetVariant(name string, ctx Context, fallback Variant) Variant {
	if fallback.Name == "" {
		fallback = DefaultVariant()
	}

	def, ok := c.source.GetToggle(name)
	if !ok || len(def.Variants) == 0 {
		return fallback
	}

	if !c.evaluate(def, true, ctx, FallbackValue(fallback.Enabled)) {
		return fallback
	}

	v, ok := SelectVariant(def, c.withToggle(ctx, def.Name))
	if !ok {
		return fallback
	}
	return Variant{Name: v.Name, Params: v.Params, Enabled: true}
}

func (c *Client) withToggle(ctx Context, name string) Context {
	if ctx.FeatureToggle == "" {
		ctx.FeatureToggle = name
	}
	return ctx
}

func (c *Client) evaluate(def Definition, found bool, ctx Context, fallback FallbackFunc) bool {
	if !found {
		if fallback == nil {
			return false
		}
		return fallback()
	}
	if !def.Enabled {
		return false
	}
	if def.Malformed() {
		err := fmt.Errorf("%w: toggle %q strategies is not a list", ErrMalformedFeature, def.Name)
		c.logger.Error("cannot evaluate toggle", logger.Toggle(def.Name), logger.Error(err))
		if c.hooks.OnError != nil {
			c.hooks.OnError(err)
		}
		return false
	}
	if len(def.Strategies) == 0 {
		return def.Enabled
	}

	ctx = c.withToggle(ctx, def.Name)
	for _, binding := range def.Strategies {
		s, ok := c.registry.Lookup(binding.Name)
		if !ok {
			c.warnOnce(binding.Name, def)
			continue
		}
		if IsEnabledWithConstraints(s, binding.Parameters, ctx, binding.Constraints) {
			return true
		}
	}
	return false
}

func (c *Client) warnOnce(strategy string, def Definition) {
	key := strategy + "\x00" + def.Name
	if _, loaded := c.warned.LoadOrStore(key, struct{}{}); loaded {
		return
	}

	names := make([]string, 0, len(def.Strategies))
	for _, b := range def.Strategies {
		names = append(names, b.Name)
	}
	msg := fmt.Sprintf("missing strategy %q for toggle %q; ensure that %q are supported before using this toggle",
		strategy, def.Name, strings.Join(names, ", "))

	c.logger.Warn("unknown strategy", logger.Toggle(def.Name), logger.Strategy(strategy))
	if c.hooks.OnWarn != nil {
		c.hooks.OnWarn(msg)
	}
}
