package feature

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Strategy decides whether a toggle is enabled for a context given the
// parameters of a strategy binding.
type Strategy interface {
	// Name is the name toggles use to reference the strategy.
	Name() string

	// IsEnabled evaluates the strategy predicate. Constraints are checked by the caller.
	IsEnabled(params Params, ctx Context) bool
}

// ConstrainedStrategy is implemented by strategies that evaluate constraints themselves.
type ConstrainedStrategy interface {
	Strategy
	IsEnabledWithConstraints(params Params, ctx Context, constraints []Constraint) bool
}

// IsEnabledWithConstraints evaluates constraints and then the strategy predicate.
func IsEnabledWithConstraints(s Strategy, params Params, ctx Context, constraints []Constraint) bool {
	if cs, ok := s.(ConstrainedStrategy); ok {
		return cs.IsEnabledWithConstraints(params, ctx, constraints)
	}
	return CheckConstraints(constraints, ctx) && s.IsEnabled(params, ctx)
}

// CheckConstraints reports whether every constraint passes for ctx.
// An empty constraint list always passes.
func CheckConstraints(constraints []Constraint, ctx Context) bool {
	for _, c := range constraints {
		if !CheckConstraint(c, ctx) {
			return false
		}
	}
	return true
}

// CheckConstraint evaluates a single constraint. Allowed values are trimmed
// before comparison; a missing context value is never a member.
func CheckConstraint(c Constraint, ctx Context) bool {
	value, ok := ctx.Field(c.ContextName)
	isIn := ok && slices.ContainsFunc(c.Values, func(v string) bool {
		return strings.TrimSpace(v) == value
	})
	if c.Operator == OperatorIn {
		return isIn
	}
	return !isIn
}

// Registry maps strategy names to implementations. Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

// NewRegistry creates a registry holding the given strategies.
func NewRegistry(strategies ...Strategy) (*Registry, error) {
	r := &Registry{strategies: make(map[string]Strategy, len(strategies))}
	for _, s := range strategies {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewDefaultRegistry creates a registry with the built-in strategies followed by extra.
// Extra strategies replace built-ins with the same name.
func NewDefaultRegistry(extra ...Strategy) (*Registry, error) {
	return NewRegistry(append(DefaultStrategies(), extra...)...)
}

// Register adds a strategy, replacing any strategy registered under the same name.
func (r *Registry) Register(s Strategy) error {
	if s == nil {
		return errors.Join(ErrInvalidStrategy, errors.New("strategy cannot be nil"))
	}
	name := s.Name()
	if name == "" {
		return fmt.Errorf("%w: strategy name cannot be empty", ErrInvalidStrategy)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[name] = s
	return nil
}

// Lookup returns the strategy registered under name.
func (r *Registry) Lookup(name string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	return s, ok
}

// Names returns the registered strategy names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
