package feature_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagsync/pkg/feature"
)

type namedStrategy struct {
	name    string
	enabled bool
}

func (s namedStrategy) Name() string                                   { return s.name }
func (s namedStrategy) IsEnabled(feature.Params, feature.Context) bool { return s.enabled }

type selfConstrained struct {
	namedStrategy
	calls int
}

func (s *selfConstrained) IsEnabledWithConstraints(feature.Params, feature.Context, []feature.Constraint) bool {
	s.calls++
	return true
}

func TestCheckConstraint(t *testing.T) {
	t.Parallel()

	ctx := feature.Context{
		UserID:      "123",
		Environment: "production",
		Properties:  map[string]string{"tenant": "acme", "blank": ""},
	}

	tests := []struct {
		name       string
		constraint feature.Constraint
		want       bool
	}{
		{
			name:       "IN with matching known field",
			constraint: feature.Constraint{ContextName: "environment", Operator: feature.OperatorIn, Values: []string{"production"}},
			want:       true,
		},
		{
			name:       "IN trims allowed values",
			constraint: feature.Constraint{ContextName: "userId", Operator: feature.OperatorIn, Values: []string{" 123 "}},
			want:       true,
		},
		{
			name:       "IN does not trim context value",
			constraint: feature.Constraint{ContextName: "userId", Operator: feature.OperatorIn, Values: []string{"12"}},
			want:       false,
		},
		{
			name:       "IN with property",
			constraint: feature.Constraint{ContextName: "tenant", Operator: feature.OperatorIn, Values: []string{"globex", "acme"}},
			want:       true,
		},
		{
			name:       "IN with missing value",
			constraint: feature.Constraint{ContextName: "region", Operator: feature.OperatorIn, Values: []string{""}},
			want:       false,
		},
		{
			name:       "NOT_IN with matching value",
			constraint: feature.Constraint{ContextName: "environment", Operator: feature.OperatorNotIn, Values: []string{"production"}},
			want:       false,
		},
		{
			name:       "NOT_IN with other value",
			constraint: feature.Constraint{ContextName: "environment", Operator: feature.OperatorNotIn, Values: []string{"dev"}},
			want:       true,
		},
		{
			name:       "NOT_IN with missing value",
			constraint: feature.Constraint{ContextName: "blank", Operator: feature.OperatorNotIn, Values: []string{""}},
			want:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, feature.CheckConstraint(tt.constraint, ctx))
		})
	}
}

func TestCheckConstraints(t *testing.T) {
	t.Parallel()

	ctx := feature.Context{UserID: "1", Environment: "dev"}
	in := feature.Constraint{ContextName: "userId", Operator: feature.OperatorIn, Values: []string{"1"}}
	out := feature.Constraint{ContextName: "environment", Operator: feature.OperatorIn, Values: []string{"prod"}}

	assert.True(t, feature.CheckConstraints(nil, ctx))
	assert.True(t, feature.CheckConstraints([]feature.Constraint{in}, ctx))
	assert.False(t, feature.CheckConstraints([]feature.Constraint{in, out}, ctx))
}

func TestIsEnabledWithConstraints(t *testing.T) {
	t.Parallel()

	ctx := feature.Context{Environment: "dev"}
	failing := []feature.Constraint{{ContextName: "environment", Operator: feature.OperatorIn, Values: []string{"prod"}}}

	t.Run("constraints gate the predicate", func(t *testing.T) {
		t.Parallel()
		on := namedStrategy{name: "on", enabled: true}
		assert.True(t, feature.IsEnabledWithConstraints(on, nil, ctx, nil))
		assert.False(t, feature.IsEnabledWithConstraints(on, nil, ctx, failing))
	})

	t.Run("predicate still applies", func(t *testing.T) {
		t.Parallel()
		off := namedStrategy{name: "off"}
		assert.False(t, feature.IsEnabledWithConstraints(off, nil, ctx, nil))
	})

	t.Run("strategy handles its own constraints", func(t *testing.T) {
		t.Parallel()
		s := &selfConstrained{namedStrategy: namedStrategy{name: "custom"}}
		assert.True(t, feature.IsEnabledWithConstraints(s, nil, ctx, failing))
		assert.Equal(t, 1, s.calls)
	})
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("rejects invalid strategies", func(t *testing.T) {
		t.Parallel()
		_, err := feature.NewRegistry(nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, feature.ErrInvalidStrategy))

		_, err = feature.NewRegistry(namedStrategy{})
		require.ErrorIs(t, err, feature.ErrInvalidStrategy)
	})

	t.Run("later registration replaces", func(t *testing.T) {
		t.Parallel()
		r, err := feature.NewRegistry(namedStrategy{name: "x"}, namedStrategy{name: "x", enabled: true})
		require.NoError(t, err)

		s, ok := r.Lookup("x")
		require.True(t, ok)
		assert.True(t, s.IsEnabled(nil, feature.Context{}))
		assert.Equal(t, []string{"x"}, r.Names())
	})

	t.Run("lookup of unknown name", func(t *testing.T) {
		t.Parallel()
		r, err := feature.NewRegistry()
		require.NoError(t, err)
		_, ok := r.Lookup("missing")
		assert.False(t, ok)
		assert.Empty(t, r.Names())
	})

	t.Run("default registry", func(t *testing.T) {
		t.Parallel()
		r, err := feature.NewDefaultRegistry(namedStrategy{name: "default"}, namedStrategy{name: "custom", enabled: true})
		require.NoError(t, err)

		assert.Len(t, r.Names(), 9)
		assert.Contains(t, r.Names(), "custom")

		s, ok := r.Lookup("default")
		require.True(t, ok)
		assert.False(t, s.IsEnabled(nil, feature.Context{}), "extra strategies replace built-ins")
	})
}
