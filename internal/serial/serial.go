// Package serial converts entity component sets to and from an untyped YAML
// form. It only uses the coordinator's runtime-typed API, resolving components
// by stable tag first and by name second.
package serial

import (
	"errors"
	"fmt"
	"sort"

	"github.com/l1jgo/engine/internal/core/coordinator"
	"github.com/l1jgo/engine/internal/core/ecs"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ComponentRecord is one persisted component value.
type ComponentRecord struct {
	Name  string    `yaml:"name"`
	Tag   uint64    `yaml:"tag"`
	Value yaml.Node `yaml:"value"`
}

// EntityRecord is the persisted component set of one entity.
type EntityRecord struct {
	Entity     uint64            `yaml:"entity"` // handle at save time, informational only
	Components []ComponentRecord `yaml:"components"`
}

// Document is a whole-world snapshot.
type Document struct {
	Entities []EntityRecord `yaml:"entities"`
}

type Serializer struct {
	c   *coordinator.Coordinator
	log *zap.Logger
}

func New(c *coordinator.Coordinator, log *zap.Logger) *Serializer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Serializer{c: c, log: log}
}

// EncodeEntity captures every component e holds, sorted by name.
func (s *Serializer) EncodeEntity(e ecs.EntityID) (EntityRecord, error) {
	comps, err := s.c.AllEntityComponents(e)
	if err != nil {
		return EntityRecord{}, fmt.Errorf("encode %s: %w", e, err)
	}
	names := make([]string, 0, len(comps))
	for n := range comps {
		names = append(names, n)
	}
	sort.Strings(names)

	rec := EntityRecord{Entity: uint64(e), Components: make([]ComponentRecord, 0, len(names))}
	for _, n := range names {
		var node yaml.Node
		if err := node.Encode(comps[n]); err != nil {
			return EntityRecord{}, fmt.Errorf("encode %s %s: %w", e, n, err)
		}
		rec.Components = append(rec.Components, ComponentRecord{
			Name:  n,
			Tag:   ecs.ComponentTag(n),
			Value: node,
		})
	}
	return rec, nil
}

// resolve finds the component type for a record, preferring the tag.
func (s *Serializer) resolve(name string, tag uint64) (ecs.ComponentType, error) {
	if tag != 0 {
		if t, err := s.c.ComponentTypeByTag(tag); err == nil {
			return t, nil
		}
	}
	return s.c.ComponentTypeByName(name)
}

// decodeValue builds a *T for type t from node.
func (s *Serializer) decodeValue(t ecs.ComponentType, node *yaml.Node) (any, error) {
	v, err := s.c.NewComponentValue(t)
	if err != nil {
		return nil, err
	}
	if node != nil && node.Kind != 0 {
		if err := node.Decode(v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// DecodeEntity creates a new entity from rec. On failure the partially
// built entity is destroyed.
func (s *Serializer) DecodeEntity(rec EntityRecord) (ecs.EntityID, error) {
	e, err := s.c.CreateEntity()
	if err != nil {
		return 0, err
	}
	for i := range rec.Components {
		cr := &rec.Components[i]
		if err := s.addFromNode(e, cr.Name, cr.Tag, &cr.Value); err != nil {
			_ = s.c.DestroyEntity(e)
			return 0, err
		}
	}
	return e, nil
}

func (s *Serializer) addFromNode(e ecs.EntityID, name string, tag uint64, node *yaml.Node) error {
	t, err := s.resolve(name, tag)
	if err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	v, err := s.decodeValue(t, node)
	if err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	if err := s.c.AddComponentValue(e, t, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// Snapshot encodes every live entity.
func (s *Serializer) Snapshot() (*Document, error) {
	all := s.c.AllEntities()
	sort.Slice(all, func(i, j int) bool { return all[i].Index() < all[j].Index() })
	doc := &Document{Entities: make([]EntityRecord, 0, len(all))}
	for _, e := range all {
		rec, err := s.EncodeEntity(e)
		if err != nil {
			return nil, err
		}
		doc.Entities = append(doc.Entities, rec)
	}
	s.log.Debug("snapshot taken", zap.Int("entities", len(doc.Entities)))
	return doc, nil
}

// Restore creates one entity per record. Records that fail are skipped and
// reported together; the entities created for the others are returned.
func (s *Serializer) Restore(doc *Document) ([]ecs.EntityID, error) {
	out := make([]ecs.EntityID, 0, len(doc.Entities))
	var errs []error
	for _, rec := range doc.Entities {
		e, err := s.DecodeEntity(rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, e)
	}
	s.log.Debug("snapshot restored", zap.Int("entities", len(out)), zap.Int("failed", len(errs)))
	return out, errors.Join(errs...)
}

// Marshal renders a document as YAML.
func Marshal(doc *Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

// Unmarshal parses a YAML document.
func Unmarshal(raw []byte) (*Document, error) {
	doc := &Document{}
	if err := yaml.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return doc, nil
}
