package editor

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/l1jgo/engine/internal/core/coordinator"
	"github.com/l1jgo/engine/internal/core/ecs"
	"github.com/l1jgo/engine/internal/system"
	"go.uber.org/zap"
)

var ErrBadEntity = errors.New("bad entity handle")

// Editor inspects and edits a live world. Structural edits made while systems
// are updating go through the coordinator's deferred queue.
type Editor struct {
	c      *coordinator.Coordinator
	log    *zap.Logger
	paused bool
}

func New(c *coordinator.Coordinator, log *zap.Logger) *Editor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Editor{c: c, log: log}
}

// PickerEntry is one row of the component picker.
type PickerEntry struct {
	Type ecs.ComponentType
	Name string
	Tag  uint64
}

// Picker lists every registered component type in registration order.
func (ed *Editor) Picker() []PickerEntry {
	infos := ed.c.AllComponentTypes()
	out := make([]PickerEntry, 0, len(infos))
	for _, info := range infos {
		out = append(out, PickerEntry{Type: info.Type, Name: info.Name, Tag: info.Tag})
	}
	return out
}

// AddComponent attaches a default-valued component by name.
func (ed *Editor) AddComponent(e ecs.EntityID, name string) error {
	if ed.c.Updating() {
		t, err := ed.c.ComponentTypeByName(name)
		if err != nil {
			return err
		}
		v, err := ed.c.NewComponentValue(t)
		if err != nil {
			return err
		}
		ed.c.Commands().Add(e, t, v)
		return nil
	}
	return ed.c.AddDefaultComponentByName(e, name)
}

func (ed *Editor) RemoveComponent(e ecs.EntityID, name string) error {
	if ed.c.Updating() {
		t, err := ed.c.ComponentTypeByName(name)
		if err != nil {
			return err
		}
		ed.c.Commands().Remove(e, t)
		return nil
	}
	return ed.c.RemoveComponentByName(e, name)
}

// ComponentView is one component of an inspected entity.
type ComponentView struct {
	Name  string
	Value any
}

// Inspect returns e's components sorted by name.
func (ed *Editor) Inspect(e ecs.EntityID) ([]ComponentView, error) {
	comps, err := ed.c.AllEntityComponents(e)
	if err != nil {
		return nil, err
	}
	out := make([]ComponentView, 0, len(comps))
	for name, v := range comps {
		out = append(out, ComponentView{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Counts returns how many live entities hold each component type, keyed by
// component name.
func (ed *Editor) Counts() map[string]int {
	names := make(map[ecs.ComponentType]string)
	out := make(map[string]int)
	for _, info := range ed.c.AllComponentTypes() {
		names[info.Type] = info.Name
		out[info.Name] = 0
	}
	for _, e := range ed.c.AllEntities() {
		sig, err := ed.c.Signature(e)
		if err != nil {
			continue
		}
		sig.Each(func(t ecs.ComponentType) {
			out[names[t]]++
		})
	}
	return out
}

// Paused reports whether the simulation is paused.
func (ed *Editor) Paused() bool { return ed.paused }

// TogglePause pauses every system except rendering, or resumes them all.
func (ed *Editor) TogglePause() (bool, error) {
	if ed.paused {
		ed.c.ResumeSystems()
		ed.paused = false
		ed.log.Info("simulation resumed")
		return false, nil
	}
	idx, err := coordinator.SystemIndex[*system.RenderSystem](ed.c)
	if err != nil {
		return false, fmt.Errorf("pause: %w", err)
	}
	ed.c.PauseAllExcept(idx)
	ed.paused = true
	ed.log.Info("simulation paused", zap.Int("render_index", idx))
	return true, nil
}

// ParseEntity parses the "index:generation" form printed by EntityID.String.
func ParseEntity(s string) (ecs.EntityID, error) {
	idx, gen, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadEntity, s)
	}
	i, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadEntity, s)
	}
	g, err := strconv.ParseUint(gen, 10, 32)
	if err != nil || g == 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadEntity, s)
	}
	return ecs.NewEntityID(uint32(i), uint32(g)), nil
}
