package feature

import (
	"maps"
	"slices"
)

// Definition describes a toggle as delivered by the toggle service.
// Definitions are replaced as a whole on every sync and must not be mutated in place.
type Definition struct {
	Name        string              `json:"name" yaml:"name"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty"`
	Enabled     bool                `json:"enabled" yaml:"enabled"`
	Strategies  []StrategyBinding   `json:"strategies" yaml:"strategies"`
	Variants    []VariantDefinition `json:"variants,omitempty" yaml:"variants,omitempty"`

	// rawStrategies keeps a strategies value that was not a list so it can be
	// reported during evaluation and written back unchanged.
	rawStrategies []byte
}

// Malformed reports whether the strategies field of the definition was not a list.
func (d Definition) Malformed() bool {
	return d.rawStrategies != nil
}

// StrategyBinding attaches a named strategy with its parameters and constraints to a toggle.
type StrategyBinding struct {
	Name        string       `json:"name" yaml:"name"`
	Parameters  Params       `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Constraints []Constraint `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// Operator is a constraint operator.
type Operator string

const (
	OperatorIn    Operator = "IN"
	OperatorNotIn Operator = "NOT_IN"
)

// Constraint narrows when a strategy applies by filtering on a context field.
type Constraint struct {
	ContextName string   `json:"contextName" yaml:"contextName"`
	Operator    Operator `json:"operator" yaml:"operator"`
	Values      []string `json:"values" yaml:"values"`
}

// VariantDefinition is a weighted variant of a toggle.
type VariantDefinition struct {
	Name      string         `json:"name" yaml:"name"`
	Weight    int            `json:"weight" yaml:"weight"`
	Params    []VariantParam `json:"params,omitempty" yaml:"params,omitempty"`
	Overrides []Override     `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// VariantParam is a typed payload entry carried by a variant.
type VariantParam struct {
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`
	Value string `json:"value" yaml:"value"`
}

// Override pins a variant to contexts whose field matches one of the values.
type Override struct {
	ContextName string   `json:"contextName" yaml:"contextName"`
	Values      []string `json:"values" yaml:"values"`
}

// Variant is the result of a variant evaluation.
type Variant struct {
	Name    string         `json:"name"`
	Params  []VariantParam `json:"params,omitempty"`
	Enabled bool           `json:"enabled"`
}

// DisabledVariantName is the name of the variant returned when no variant applies.
const DisabledVariantName = "disabled"

// DefaultVariant returns the variant used when the caller supplies no fallback.
func DefaultVariant() Variant {
	return Variant{Name: DisabledVariantName, Enabled: false}
}

// Context field names as they appear in constraints, overrides and stickiness parameters.
const (
	FieldUserID        = "userId"
	FieldSessionID     = "sessionId"
	FieldRemoteAddress = "remoteAddress"
	FieldEnvironment   = "environment"
	FieldAppName       = "appName"
	FieldFeatureToggle = "featureToggle"
)

// Context carries the request data strategies evaluate against.
type Context struct {
	UserID        string            `json:"userId,omitempty"`
	SessionID     string            `json:"sessionId,omitempty"`
	RemoteAddress string            `json:"remoteAddress,omitempty"`
	Environment   string            `json:"environment,omitempty"`
	AppName       string            `json:"appName,omitempty"`
	FeatureToggle string            `json:"featureToggle,omitempty"`
	Properties    map[string]string `json:"properties,omitempty"`
}

// Field resolves a context value by its wire name. Known fields are checked
// first, then Properties. Empty known fields count as absent.
func (c Context) Field(name string) (string, bool) {
	var v string
	switch name {
	case FieldUserID:
		v = c.UserID
	case FieldSessionID:
		v = c.SessionID
	case FieldRemoteAddress:
		v = c.RemoteAddress
	case FieldEnvironment:
		v = c.Environment
	case FieldAppName:
		v = c.AppName
	case FieldFeatureToggle:
		v = c.FeatureToggle
	}
	if v != "" {
		return v, true
	}
	if p, ok := c.Properties[name]; ok && p != "" {
		return p, true
	}
	return "", false
}

// Merge returns a copy of base with every non-empty field of c applied on top.
// Properties are merged key by key.
func (c Context) Merge(base Context) Context {
	out := base
	if c.UserID != "" {
		out.UserID = c.UserID
	}
	if c.SessionID != "" {
		out.SessionID = c.SessionID
	}
	if c.RemoteAddress != "" {
		out.RemoteAddress = c.RemoteAddress
	}
	if c.Environment != "" {
		out.Environment = c.Environment
	}
	if c.AppName != "" {
		out.AppName = c.AppName
	}
	if c.FeatureToggle != "" {
		out.FeatureToggle = c.FeatureToggle
	}
	if len(base.Properties) > 0 || len(c.Properties) > 0 {
		out.Properties = make(map[string]string, len(base.Properties)+len(c.Properties))
		maps.Copy(out.Properties, base.Properties)
		maps.Copy(out.Properties, c.Properties)
	}
	return out
}

// FallbackFunc decides the result for toggles the source does not know.
type FallbackFunc func() bool

// FallbackValue returns a FallbackFunc that always yields v.
func FallbackValue(v bool) FallbackFunc {
	return func() bool { return v }
}

// Source provides toggle definitions to the evaluation engine.
type Source interface {
	// GetToggle returns the definition with the given name.
	GetToggle(name string) (Definition, bool)

	// GetToggles returns all known definitions.
	GetToggles() []Definition
}

// Clone returns a deep copy of the definition.
func (d Definition) Clone() Definition {
	out := d
	if d.Strategies != nil {
		out.Strategies = make([]StrategyBinding, len(d.Strategies))
		for i, s := range d.Strategies {
			out.Strategies[i] = StrategyBinding{
				Name:        s.Name,
				Parameters:  maps.Clone(s.Parameters),
				Constraints: cloneConstraints(s.Constraints),
			}
		}
	}
	if d.Variants != nil {
		out.Variants = make([]VariantDefinition, len(d.Variants))
		for i, v := range d.Variants {
			out.Variants[i] = VariantDefinition{
				Name:      v.Name,
				Weight:    v.Weight,
				Params:    slices.Clone(v.Params),
				Overrides: cloneOverrides(v.Overrides),
			}
		}
	}
	out.rawStrategies = slices.Clone(d.rawStrategies)
	return out
}

func cloneConstraints(in []Constraint) []Constraint {
	if in == nil {
		return nil
	}
	out := make([]Constraint, len(in))
	for i, c := range in {
		out[i] = Constraint{ContextName: c.ContextName, Operator: c.Operator, Values: slices.Clone(c.Values)}
	}
	return out
}

func cloneOverrides(in []Override) []Override {
	if in == nil {
		return nil
	}
	out := make([]Override, len(in))
	for i, o := range in {
		out[i] = Override{ContextName: o.ContextName, Values: slices.Clone(o.Values)}
	}
	return out
}
