package feature

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Params holds strategy parameters. Non-string JSON scalars are stored in
// their textual form so "rollout": 10 and "rollout": "10" are equivalent.
type Params map[string]string

// UnmarshalJSON implements json.Unmarshaler.
func (p *Params) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	out := make(Params, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = val
		case json.Number:
			out[k] = val.String()
		case bool:
			out[k] = strconv.FormatBool(val)
		default:
			b, err := json.Marshal(val)
			if err != nil {
				return err
			}
			out[k] = string(b)
		}
	}
	*p = out
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler. Every scalar value is kept verbatim.
func (p *Params) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("parameters must be a mapping, got %s", node.ShortTag())
	}
	out := make(Params, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		out[node.Content[i].Value] = node.Content[i+1].Value
	}
	*p = out
	return nil
}

type definitionJSON struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Enabled     bool                `json:"enabled"`
	Strategies  json.RawMessage     `json:"strategies"`
	Variants    []VariantDefinition `json:"variants,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler. A strategies value that is not a
// list does not fail decoding; the definition is marked as malformed instead.
func (d *Definition) UnmarshalJSON(data []byte) error {
	var aux definitionJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	def := Definition{
		Name:        aux.Name,
		Description: aux.Description,
		Enabled:     aux.Enabled,
		Variants:    aux.Variants,
	}

	raw := bytes.TrimSpace(aux.Strategies)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '[':
		if err := json.Unmarshal(raw, &def.Strategies); err != nil {
			return err
		}
	default:
		def.rawStrategies = bytes.Clone(raw)
	}

	*d = def
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Definition) MarshalJSON() ([]byte, error) {
	aux := definitionJSON{
		Name:        d.Name,
		Description: d.Description,
		Enabled:     d.Enabled,
		Variants:    d.Variants,
	}

	switch {
	case d.rawStrategies != nil:
		aux.Strategies = d.rawStrategies
	case d.Strategies == nil:
		aux.Strategies = json.RawMessage("[]")
	default:
		b, err := json.Marshal(d.Strategies)
		if err != nil {
			return nil, err
		}
		aux.Strategies = b
	}

	return json.Marshal(aux)
}

// Format identifies the encoding of a definitions document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the document format from a file extension.
// Unknown extensions are treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

type definitionsDocument struct {
	Features []Definition `json:"features" yaml:"features"`
}

// DecodeDefinitions parses a list of toggle definitions. The document may be a
// bare list or an object with a "features" list, the same shape the toggle
// service returns.
func DecodeDefinitions(data []byte, format Format) ([]Definition, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	switch format {
	case FormatJSON:
		if data[0] == '[' {
			var defs []Definition
			if err := json.Unmarshal(data, &defs); err != nil {
				return nil, errors.Join(ErrInvalidDefinitions, err)
			}
			return defs, nil
		}
		var doc definitionsDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, errors.Join(ErrInvalidDefinitions, err)
		}
		return doc.Features, nil

	case FormatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, errors.Join(ErrInvalidDefinitions, err)
		}
		if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
			var defs []Definition
			if err := node.Content[0].Decode(&defs); err != nil {
				return nil, errors.Join(ErrInvalidDefinitions, err)
			}
			return defs, nil
		}
		var doc definitionsDocument
		if err := node.Decode(&doc); err != nil {
			return nil, errors.Join(ErrInvalidDefinitions, err)
		}
		return doc.Features, nil

	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidDefinitions, format)
	}
}
