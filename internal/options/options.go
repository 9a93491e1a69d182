// Package options holds the static option lists behind select, radio, and
// checkbox-group inputs: Brazilian states (sigla + name), education levels,
// sports, and favourite foods.
//
// Lists are loaded once from YAML (an embedded default, or an operator file)
// and are read-only afterwards, so a *Catalog is safe for concurrent use.
// YAML entries may be a bare string, used as both value and label, or a
// {value, label} mapping.
package options

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultYAML []byte

// Option is one selectable entry.
type Option struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// UnmarshalYAML accepts either a scalar or a mapping.
func (o *Option) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		o.Value, o.Label = n.Value, n.Value
		return nil
	}
	type plain Option
	var p plain
	if err := n.Decode(&p); err != nil {
		return err
	}
	if p.Label == "" {
		p.Label = p.Value
	}
	*o = Option(p)
	return nil
}

// Catalog is an ordered, named collection of option lists.
type Catalog struct {
	names []string
	lists map[string][]Option
}

// Parse reads a catalog document: a mapping of list name → entries.  Key
// order in the document is preserved by Names.
func Parse(raw []byte) (*Catalog, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse option catalog: %w", err)
	}
	if len(doc.Content) == 0 {
		return &Catalog{lists: map[string][]Option{}}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("option catalog: top level must be a mapping")
	}

	c := &Catalog{lists: make(map[string][]Option, len(root.Content)/2)}
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		var list []Option
		if err := root.Content[i+1].Decode(&list); err != nil {
			return nil, fmt.Errorf("option catalog: list %q: %w", name, err)
		}
		if _, dup := c.lists[name]; dup {
			return nil, fmt.Errorf("option catalog: duplicate list %q", name)
		}
		c.names = append(c.names, name)
		c.lists[name] = list
	}
	return c, nil
}

// LoadFile parses a catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read option catalog %s: %w", path, err)
	}
	return Parse(raw)
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = Parse(defaultYAML)
	})
	return defaultCat, defaultErr
}

// Lookup returns a copy of list name.
func (c *Catalog) Lookup(name string) ([]Option, bool) {
	list, ok := c.lists[name]
	if !ok {
		return nil, false
	}
	out := make([]Option, len(list))
	copy(out, list)
	return out, true
}

// Names returns list names in document order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Values returns only the Value of each entry in list name.
func (c *Catalog) Values(name string) []string {
	list := c.lists[name]
	out := make([]string, len(list))
	for i, o := range list {
		out[i] = o.Value
	}
	return out
}

// MarshalJSON encodes the catalog as {name: [options]}.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.lists)
}
