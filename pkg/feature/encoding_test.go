package feature_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagsync/pkg/feature"
)

func TestParamsUnmarshalJSON(t *testing.T) {
	t.Parallel()

	var p feature.Params
	err := json.Unmarshal([]byte(`{"rollout": 10, "ratio": 0.25, "sticky": true, "groupId": "Demo", "none": null, "list": [1,2]}`), &p)
	require.NoError(t, err)

	assert.Equal(t, feature.Params{
		"rollout": "10",
		"ratio":   "0.25",
		"sticky":  "true",
		"groupId": "Demo",
		"none":    "",
		"list":    "[1,2]",
	}, p)
}

func TestDefinitionJSON(t *testing.T) {
	t.Parallel()

	t.Run("decodes full definition", func(t *testing.T) {
		t.Parallel()
		raw := `{
			"name": "checkout",
			"description": "new checkout",
			"enabled": true,
			"strategies": [{
				"name": "flexibleRollout",
				"parameters": {"rollout": 25, "stickiness": "userId"},
				"constraints": [{"contextName": "environment", "operator": "IN", "values": ["prod"]}]
			}],
			"variants": [{
				"name": "blue",
				"weight": 50,
				"params": [{"name": "color", "type": "string", "value": "#00f"}],
				"overrides": [{"contextName": "userId", "values": ["1"]}]
			}]
		}`

		var def feature.Definition
		require.NoError(t, json.Unmarshal([]byte(raw), &def))

		assert.Equal(t, "checkout", def.Name)
		assert.True(t, def.Enabled)
		assert.False(t, def.Malformed())
		require.Len(t, def.Strategies, 1)
		assert.Equal(t, "25", def.Strategies[0].Parameters["rollout"])
		assert.Equal(t, feature.OperatorIn, def.Strategies[0].Constraints[0].Operator)
		require.Len(t, def.Variants, 1)
		assert.Equal(t, 50, def.Variants[0].Weight)
		assert.Equal(t, []string{"1"}, def.Variants[0].Overrides[0].Values)
	})

	t.Run("tolerates non-list strategies", func(t *testing.T) {
		t.Parallel()
		var def feature.Definition
		require.NoError(t, json.Unmarshal([]byte(`{"name":"broken","enabled":true,"strategies":{"name":"default"}}`), &def))

		assert.True(t, def.Malformed())
		assert.Nil(t, def.Strategies)

		out, err := json.Marshal(def)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"broken","enabled":true,"strategies":{"name":"default"}}`, string(out))
	})

	t.Run("null strategies", func(t *testing.T) {
		t.Parallel()
		var def feature.Definition
		require.NoError(t, json.Unmarshal([]byte(`{"name":"plain","enabled":true,"strategies":null}`), &def))

		assert.False(t, def.Malformed())
		assert.Empty(t, def.Strategies)

		out, err := json.Marshal(def)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"plain","enabled":true,"strategies":[]}`, string(out))
	})

	t.Run("clone is independent", func(t *testing.T) {
		t.Parallel()
		def := feature.Definition{
			Name:       "a",
			Strategies: []feature.StrategyBinding{{Name: "default", Parameters: feature.Params{"k": "v"}}},
			Variants:   []feature.VariantDefinition{{Name: "v", Weight: 1}},
		}
		clone := def.Clone()
		clone.Strategies[0].Parameters["k"] = "changed"
		clone.Variants[0].Weight = 9

		assert.Equal(t, "v", def.Strategies[0].Parameters["k"])
		assert.Equal(t, 1, def.Variants[0].Weight)
	})
}

func TestDecodeDefinitions(t *testing.T) {
	t.Parallel()

	t.Run("json features document", func(t *testing.T) {
		t.Parallel()
		defs, err := feature.DecodeDefinitions([]byte(`{"version":1,"features":[{"name":"a","enabled":true,"strategies":[]}]}`), feature.FormatJSON)
		require.NoError(t, err)
		require.Len(t, defs, 1)
		assert.Equal(t, "a", defs[0].Name)
	})

	t.Run("json list", func(t *testing.T) {
		t.Parallel()
		defs, err := feature.DecodeDefinitions([]byte(` [{"name":"a"},{"name":"b"}]`), feature.FormatJSON)
		require.NoError(t, err)
		assert.Len(t, defs, 2)
	})

	t.Run("yaml document", func(t *testing.T) {
		t.Parallel()
		doc := `
features:
  - name: checkout
    enabled: true
    strategies:
      - name: gradualRolloutUserId
        parameters:
          percentage: 50
          groupId: checkout
        constraints:
          - contextName: environment
            operator: NOT_IN
            values: [dev]
    variants:
      - name: blue
        weight: 1
`
		defs, err := feature.DecodeDefinitions([]byte(doc), feature.FormatYAML)
		require.NoError(t, err)
		require.Len(t, defs, 1)

		def := defs[0]
		assert.Equal(t, "checkout", def.Name)
		assert.True(t, def.Enabled)
		require.Len(t, def.Strategies, 1)
		assert.Equal(t, "50", def.Strategies[0].Parameters["percentage"])
		assert.Equal(t, feature.OperatorNotIn, def.Strategies[0].Constraints[0].Operator)
		assert.Equal(t, "blue", def.Variants[0].Name)
	})

	t.Run("yaml list", func(t *testing.T) {
		t.Parallel()
		defs, err := feature.DecodeDefinitions([]byte("- name: a\n  enabled: true\n- name: b\n"), feature.FormatYAML)
		require.NoError(t, err)
		require.Len(t, defs, 2)
		assert.False(t, defs[1].Enabled)
	})

	t.Run("empty document", func(t *testing.T) {
		t.Parallel()
		defs, err := feature.DecodeDefinitions([]byte("  \n"), feature.FormatJSON)
		require.NoError(t, err)
		assert.Empty(t, defs)
	})

	t.Run("invalid document", func(t *testing.T) {
		t.Parallel()
		_, err := feature.DecodeDefinitions([]byte(`{"features":`), feature.FormatJSON)
		require.ErrorIs(t, err, feature.ErrInvalidDefinitions)

		_, err = feature.DecodeDefinitions([]byte("features: [a: b"), feature.FormatYAML)
		require.ErrorIs(t, err, feature.ErrInvalidDefinitions)

		_, err = feature.DecodeDefinitions([]byte("x"), feature.Format("toml"))
		require.ErrorIs(t, err, feature.ErrInvalidDefinitions)
	})
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, feature.FormatYAML, feature.FormatFromPath("toggles.yaml"))
	assert.Equal(t, feature.FormatYAML, feature.FormatFromPath("/etc/app/TOGGLES.YML"))
	assert.Equal(t, feature.FormatJSON, feature.FormatFromPath("toggles.json"))
	assert.Equal(t, feature.FormatJSON, feature.FormatFromPath("toggles"))
}
