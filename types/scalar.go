package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Float is a YAML !!float scalar. It keeps its fractional form when
// rendered so 1.0 stays distinct from the integer 1.
type Float float64

// String formats f with the shortest representation, adding ".0" when
// the value is integral.
func (f Float) String() string {
	s := strconv.FormatFloat(float64(f), 'f', -1, 64)
	if math.IsInf(float64(f), 0) || math.IsNaN(float64(f)) || strings.ContainsAny(s, ".e") {
		return s
	}
	return s + ".0"
}

// MarshalJSON encodes f as a JSON number that decodes back to a float.
func (f Float) MarshalJSON() ([]byte, error) {
	if math.IsInf(float64(f), 0) || math.IsNaN(float64(f)) {
		return nil, fmt.Errorf("unsupported float value %v", float64(f))
	}
	return []byte(f.String()), nil
}

// DecodeYAML decodes a YAML document into maps, slices and scalars like
// yaml.Unmarshal into an any, except that !!float scalars become Float.
func DecodeYAML(data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		return nil, nil
	}
	return nodeValue(&doc)
}

func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeValue(n.Content[0])

	case yaml.AliasNode:
		return nodeValue(n.Alias)

	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		var merged []map[string]any
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			val, err := nodeValue(v)
			if err != nil {
				return nil, err
			}
			if k.ShortTag() == "!!merge" {
				if m, ok := val.(map[string]any); ok {
					merged = append(merged, m)
				}
				continue
			}
			out[k.Value] = val
		}
		for _, m := range merged {
			for k, v := range m {
				if _, ok := out[k]; !ok {
					out[k] = v
				}
			}
		}
		return out, nil

	case yaml.ScalarNode:
		if n.ShortTag() == "!!float" {
			var f float64
			if err := n.Decode(&f); err != nil {
				return nil, err
			}
			return Float(f), nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil

	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
	}
}

// DecodeYAMLMap decodes a YAML document that must be a mapping. An empty
// document yields an empty map.
func DecodeYAMLMap(data []byte) (map[string]any, error) {
	v, err := DecodeYAML(data)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("top level must be a mapping, got %T", v)
	}
	return m, nil
}
