package serial

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/l1jgo/engine/internal/core/ecs"
	"github.com/l1jgo/engine/internal/data"
	"gopkg.in/yaml.v3"
)

// Instantiate creates an entity holding every component of p. Tags are not
// stored in prefab files, so components resolve by name.
func (s *Serializer) Instantiate(p *data.Prefab) (ecs.EntityID, error) {
	e, err := s.c.CreateEntity()
	if err != nil {
		return 0, err
	}
	for _, name := range p.ComponentNames() {
		node := p.Components[name]
		if err := s.addFromNode(e, name, 0, &node); err != nil {
			_ = s.c.DestroyEntity(e)
			return 0, fmt.Errorf("prefab %s: %w", p.Name, err)
		}
	}
	return e, nil
}

// Delta lists how an instance differs from the prefab it came from.
type Delta struct {
	Changed []ComponentRecord `yaml:"changed,omitempty"` // added or overridden values
	Removed []string          `yaml:"removed,omitempty"`
}

func (d Delta) Empty() bool { return len(d.Changed) == 0 && len(d.Removed) == 0 }

// Diff compares e against p component by component.
func (s *Serializer) Diff(e ecs.EntityID, p *data.Prefab) (Delta, error) {
	comps, err := s.c.AllEntityComponents(e)
	if err != nil {
		return Delta{}, fmt.Errorf("diff %s: %w", e, err)
	}
	var d Delta

	base := make(map[string]any, len(p.Components))
	for _, name := range p.ComponentNames() {
		t, err := s.c.ComponentTypeByName(name)
		if err != nil {
			return Delta{}, fmt.Errorf("diff prefab %s: %w", p.Name, err)
		}
		node := p.Components[name]
		v, err := s.decodeValue(t, &node)
		if err != nil {
			return Delta{}, fmt.Errorf("diff prefab %s %s: %w", p.Name, name, err)
		}
		info, _ := s.c.ComponentInfo(t)
		base[info.Name] = v
	}

	names := make([]string, 0, len(comps))
	for n := range comps {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		cur := comps[n]
		if want, ok := base[n]; ok && reflect.DeepEqual(want, cur) {
			continue
		}
		var node yaml.Node
		if err := node.Encode(cur); err != nil {
			return Delta{}, fmt.Errorf("diff %s %s: %w", e, n, err)
		}
		d.Changed = append(d.Changed, ComponentRecord{Name: n, Tag: ecs.ComponentTag(n), Value: node})
	}
	for n := range base {
		if _, ok := comps[n]; !ok {
			d.Removed = append(d.Removed, n)
		}
	}
	sort.Strings(d.Removed)
	return d, nil
}

// Apply instantiates p and replays d on top of it.
func (s *Serializer) Apply(p *data.Prefab, d Delta) (ecs.EntityID, error) {
	e, err := s.Instantiate(p)
	if err != nil {
		return 0, err
	}
	fail := func(err error) (ecs.EntityID, error) {
		_ = s.c.DestroyEntity(e)
		return 0, fmt.Errorf("apply delta to %s: %w", p.Name, err)
	}
	for _, n := range d.Removed {
		if err := s.c.RemoveComponentByName(e, n); err != nil {
			return fail(err)
		}
	}
	for i := range d.Changed {
		cr := &d.Changed[i]
		t, err := s.resolve(cr.Name, cr.Tag)
		if err != nil {
			return fail(err)
		}
		if s.c.HasComponentType(e, t) {
			if err := s.c.RemoveComponentByType(e, t); err != nil {
				return fail(err)
			}
		}
		if err := s.addFromNode(e, cr.Name, cr.Tag, &cr.Value); err != nil {
			return fail(err)
		}
	}
	return e, nil
}
