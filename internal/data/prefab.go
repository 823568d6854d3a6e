package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Prefab is a named component-value template. Values stay as YAML nodes until
// an instance is built, since only the component registry knows their types.
type Prefab struct {
	Name       string               `yaml:"name"`
	Components map[string]yaml.Node `yaml:"components"`
}

// ComponentNames returns the prefab's component names in sorted order.
func (p *Prefab) ComponentNames() []string {
	names := make([]string, 0, len(p.Components))
	for n := range p.Components {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// PrefabTable provides lookup of prefabs by name.
type PrefabTable struct {
	prefabs map[string]*Prefab
}

// LoadPrefabTable loads a prefab list file.
func LoadPrefabTable(path string) (*PrefabTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prefab list: %w", err)
	}
	return ParsePrefabTable(raw)
}

// ParsePrefabTable parses a YAML sequence of prefabs.
func ParsePrefabTable(raw []byte) (*PrefabTable, error) {
	var entries []Prefab
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse prefab list: %w", err)
	}
	t := &PrefabTable{
		prefabs: make(map[string]*Prefab, len(entries)),
	}
	for i := range entries {
		p := &entries[i]
		if p.Name == "" {
			return nil, fmt.Errorf("parse prefab list: entry %d has no name", i)
		}
		if _, dup := t.prefabs[p.Name]; dup {
			return nil, fmt.Errorf("parse prefab list: duplicate prefab %q", p.Name)
		}
		t.prefabs[p.Name] = p
	}
	return t, nil
}

// Get returns the prefab with the given name, or nil if none.
func (t *PrefabTable) Get(name string) *Prefab {
	return t.prefabs[name]
}

// Count returns the total number of prefabs loaded.
func (t *PrefabTable) Count() int {
	return len(t.prefabs)
}
