package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// CompositeRegion is a named group of anatomical subregions whose counts are summed
type CompositeRegion struct {
	Name       string
	Subregions []string
}

// RegionMap is an ordered mapping of composite region name to subregions.
// In YAML it is written as a plain mapping; the key order of the file is kept
// because it decides the row order of every output table.
type RegionMap []CompositeRegion

// UnmarshalYAML implements yaml.Unmarshaler
func (r *RegionMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: regions must be a mapping of composite region to subregions", value.Line)
	}

	out := make(RegionMap, 0, len(value.Content)/2)
	seen := make(map[string]bool)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]

		var subregions []string
		if err := val.Decode(&subregions); err != nil {
			return fmt.Errorf("line %d: subregions of %q: %w", val.Line, key.Value, err)
		}
		if seen[key.Value] {
			return fmt.Errorf("line %d: composite region %q defined twice", key.Line, key.Value)
		}
		seen[key.Value] = true

		out = append(out, CompositeRegion{Name: key.Value, Subregions: subregions})
	}

	*r = out
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (r RegionMap) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, cr := range r {
		var val yaml.Node
		if err := val.Encode(cr.Subregions); err != nil {
			return nil, err
		}
		val.Style = yaml.FlowStyle
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: cr.Name},
			&val,
		)
	}
	return node, nil
}

// Names returns the composite region names in order
func (r RegionMap) Names() []string {
	names := make([]string, len(r))
	for i, cr := range r {
		names[i] = cr.Name
	}
	return names
}

// Subregions returns every configured subregion, de-duplicated, in order
func (r RegionMap) Subregions() []string {
	var out []string
	seen := make(map[string]bool)
	for _, cr := range r {
		for _, s := range cr.Subregions {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// Get looks up a composite region by name
func (r RegionMap) Get(name string) (CompositeRegion, bool) {
	for _, cr := range r {
		if cr.Name == name {
			return cr, true
		}
	}
	return CompositeRegion{}, false
}

// Validate rejects empty or duplicated composite regions
func (r RegionMap) Validate() error {
	seen := make(map[string]bool)
	for _, cr := range r {
		if cr.Name == "" {
			return fmt.Errorf("composite region with empty name")
		}
		if seen[cr.Name] {
			return fmt.Errorf("composite region %q defined twice", cr.Name)
		}
		seen[cr.Name] = true
		if len(cr.Subregions) == 0 {
			return fmt.Errorf("composite region %q has no subregions", cr.Name)
		}
	}
	return nil
}
