// Package coordinator keeps the entity, component and system managers in
// lock-step. It is the only API the rest of the engine mutates the world through.
//
// After every call returns, for every live entity e:
//   - the signature held by the entity manager names exactly the component
//     arrays that contain e;
//   - e is in a system's interest list iff its signature contains the
//     system's required signature.
//
// The coordinator is single-threaded: all calls must come from the
// simulation goroutine.
package coordinator

import (
	"errors"
	"fmt"
	"time"

	"github.com/l1jgo/engine/internal/core/ecs"
	"github.com/l1jgo/engine/internal/core/event"
	"github.com/l1jgo/engine/internal/core/system"
	"go.uber.org/zap"
)

// ErrMutationDuringUpdate is returned when a structural change is attempted
// directly while systems are iterating. Use Commands() instead.
var ErrMutationDuringUpdate = errors.New("structural mutation during system update")

type Coordinator struct {
	entities   *ecs.EntityManager
	components *ecs.ComponentManager
	systems    *system.Manager
	bus        *event.Bus
	log        *zap.Logger

	updating bool
	commands *CommandBuffer
}

type Option func(*Coordinator)

// WithMaxEntities bounds the number of simultaneously live entities.
func WithMaxEntities(n int) Option {
	return func(c *Coordinator) {
		c.entities = ecs.NewEntityManager(n)
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Coordinator) {
		if log != nil {
			c.log = log
		}
	}
}

// WithBus shares an existing event bus with other subsystems.
func WithBus(bus *event.Bus) Option {
	return func(c *Coordinator) {
		if bus != nil {
			c.bus = bus
		}
	}
}

func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		entities:   ecs.NewEntityManager(ecs.DefaultMaxEntities),
		components: ecs.NewComponentManager(),
		systems:    system.NewManager(),
		bus:        event.NewBus(),
		log:        zap.NewNop(),
		commands:   &CommandBuffer{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) Events() *event.Bus { return c.bus }
func (c *Coordinator) Logger() *zap.Logger { return c.log }

// violation logs a contract violation and returns it unchanged.
func (c *Coordinator) violation(op string, err error, fields ...zap.Field) error {
	c.log.Warn("ecs contract violation", append(fields, zap.String("op", op), zap.Error(err))...)
	return err
}

func (c *Coordinator) guard(op string, e ecs.EntityID) error {
	if c.updating {
		return c.violation(op, ErrMutationDuringUpdate, zap.Stringer("entity", e))
	}
	if !c.entities.Alive(e) {
		return c.violation(op, fmt.Errorf("%w: %s", ecs.ErrEntityNotFound, e), zap.Stringer("entity", e))
	}
	return nil
}

// ── Entities ───────────────────────────────────────────────────────

func (c *Coordinator) CreateEntity() (ecs.EntityID, error) {
	if c.updating {
		return 0, c.violation("create", ErrMutationDuringUpdate)
	}
	e, err := c.entities.Create()
	if err != nil {
		return 0, c.violation("create", err)
	}
	c.log.Debug("entity created", zap.Stringer("entity", e))
	event.Emit(c.bus, event.EntitiesChanged{Kind: event.EntityCreated, Entity: e})
	return e, nil
}

// DestroyEntity removes every component, drops e from every interest list
// and releases its index.
func (c *Coordinator) DestroyEntity(e ecs.EntityID) error {
	if err := c.guard("destroy", e); err != nil {
		return err
	}
	sig, _ := c.entities.Signature(e)
	c.components.EntityDestroyed(e, sig)
	c.systems.EntityDestroyed(e)
	if err := c.entities.Destroy(e); err != nil {
		return c.violation("destroy", err, zap.Stringer("entity", e))
	}
	c.log.Debug("entity destroyed", zap.Stringer("entity", e))
	event.Emit(c.bus, event.EntitiesChanged{Kind: event.EntityDestroyed, Entity: e})
	return nil
}

// CheckEntity reports whether e is a live handle of the current generation.
func (c *Coordinator) CheckEntity(e ecs.EntityID) bool {
	return c.entities.Alive(e)
}

// CloneEntity creates a new entity holding a value copy of every component of src.
func (c *Coordinator) CloneEntity(src ecs.EntityID) (ecs.EntityID, error) {
	if err := c.guard("clone", src); err != nil {
		return 0, err
	}
	dst, err := c.entities.Create()
	if err != nil {
		return 0, c.violation("clone", err, zap.Stringer("source", src))
	}
	sig, _ := c.entities.Signature(src)
	if err := c.components.CloneEntity(dst, src, sig); err != nil {
		// Components copied before the failure are named by sig as well.
		c.components.EntityDestroyed(dst, sig)
		_ = c.entities.Destroy(dst)
		return 0, c.violation("clone", err, zap.Stringer("source", src))
	}
	_ = c.entities.SetSignature(dst, sig)
	c.systems.SignatureChanged(dst, sig)
	c.log.Debug("entity cloned", zap.Stringer("entity", dst), zap.Stringer("source", src))
	event.Emit(c.bus, event.EntitiesChanged{Kind: event.EntityCloned, Entity: dst, Source: src})
	return dst, nil
}

// AllEntities returns a snapshot of the live entity set.
func (c *Coordinator) AllEntities() []ecs.EntityID {
	return c.entities.All()
}

func (c *Coordinator) EntityCount() int { return c.entities.Len() }

func (c *Coordinator) Signature(e ecs.EntityID) (ecs.Signature, error) {
	return c.entities.Signature(e)
}

func (c *Coordinator) EntityComponentCount(e ecs.EntityID) (int, error) {
	return c.entities.ComponentCount(e)
}

// ── Bookkeeping shared by the typed and runtime-typed paths ────────

func (c *Coordinator) componentAdded(e ecs.EntityID, t ecs.ComponentType) {
	sig, _ := c.entities.Signature(e)
	sig.Set(t)
	_ = c.entities.SetSignature(e, sig)
	c.systems.ComponentChanged(e, sig, t, true)
}

func (c *Coordinator) componentRemoved(e ecs.EntityID, t ecs.ComponentType) {
	sig, _ := c.entities.Signature(e)
	sig.Clear(t)
	_ = c.entities.SetSignature(e, sig)
	c.systems.ComponentChanged(e, sig, t, false)
}

// ── Runtime-typed components ───────────────────────────────────────

// AllComponentTypes lists every registered component in type order.
func (c *Coordinator) AllComponentTypes() []ecs.ComponentInfo {
	return c.components.Types()
}

func (c *Coordinator) ComponentTypeByName(name string) (ecs.ComponentType, error) {
	return c.components.TypeByName(name)
}

func (c *Coordinator) ComponentTypeByTag(tag uint64) (ecs.ComponentType, error) {
	return c.components.TypeByTag(tag)
}

func (c *Coordinator) ComponentInfo(t ecs.ComponentType) (ecs.ComponentInfo, error) {
	s, err := c.components.Store(t)
	if err != nil {
		return ecs.ComponentInfo{}, err
	}
	return s.Info(), nil
}

// NewComponentValue returns a pointer to a zero value of type t, for decoders.
func (c *Coordinator) NewComponentValue(t ecs.ComponentType) (any, error) {
	s, err := c.components.Store(t)
	if err != nil {
		return nil, err
	}
	return s.New(), nil
}

// AddComponentValue adds v (a T or *T of the type registered as t) to e.
func (c *Coordinator) AddComponentValue(e ecs.EntityID, t ecs.ComponentType, v any) error {
	if err := c.guard("add", e); err != nil {
		return err
	}
	s, err := c.components.Store(t)
	if err != nil {
		return c.violation("add", err, zap.Stringer("entity", e))
	}
	if err := s.Insert(e, v); err != nil {
		return c.violation("add", err, zap.Stringer("entity", e), zap.String("component", s.Info().Name))
	}
	c.componentAdded(e, t)
	return nil
}

// AddDefaultComponent adds a zero value of type t to e.
func (c *Coordinator) AddDefaultComponent(e ecs.EntityID, t ecs.ComponentType) error {
	if err := c.guard("add", e); err != nil {
		return err
	}
	s, err := c.components.Store(t)
	if err != nil {
		return c.violation("add", err, zap.Stringer("entity", e))
	}
	if err := s.InsertZero(e); err != nil {
		return c.violation("add", err, zap.Stringer("entity", e), zap.String("component", s.Info().Name))
	}
	c.componentAdded(e, t)
	return nil
}

func (c *Coordinator) AddDefaultComponentByName(e ecs.EntityID, name string) error {
	t, err := c.components.TypeByName(name)
	if err != nil {
		return c.violation("add", err, zap.Stringer("entity", e))
	}
	return c.AddDefaultComponent(e, t)
}

func (c *Coordinator) RemoveComponentByType(e ecs.EntityID, t ecs.ComponentType) error {
	if err := c.guard("remove", e); err != nil {
		return err
	}
	s, err := c.components.Store(t)
	if err != nil {
		return c.violation("remove", err, zap.Stringer("entity", e))
	}
	if err := s.Remove(e); err != nil {
		return c.violation("remove", err, zap.Stringer("entity", e), zap.String("component", s.Info().Name))
	}
	c.componentRemoved(e, t)
	return nil
}

func (c *Coordinator) RemoveComponentByName(e ecs.EntityID, name string) error {
	t, err := c.components.TypeByName(name)
	if err != nil {
		return c.violation("remove", err, zap.Stringer("entity", e))
	}
	return c.RemoveComponentByType(e, t)
}

// ComponentByType returns a *T pointer into the dense array of type t.
func (c *Coordinator) ComponentByType(e ecs.EntityID, t ecs.ComponentType) (any, error) {
	if !c.entities.Alive(e) {
		return nil, fmt.Errorf("%w: %s", ecs.ErrEntityNotFound, e)
	}
	s, err := c.components.Store(t)
	if err != nil {
		return nil, err
	}
	return s.Value(e)
}

// HasComponentType reports whether e holds a component of type t.
// Unregistered types report false.
func (c *Coordinator) HasComponentType(e ecs.EntityID, t ecs.ComponentType) bool {
	if int(t) >= c.components.Len() {
		return false
	}
	sig, err := c.entities.Signature(e)
	return err == nil && sig.Test(t)
}

// AllEntityComponents returns component name -> *T for every component e holds.
func (c *Coordinator) AllEntityComponents(e ecs.EntityID) (map[string]any, error) {
	sig, err := c.entities.Signature(e)
	if err != nil {
		return nil, err
	}
	return c.components.Components(e, sig), nil
}

// ── Systems ────────────────────────────────────────────────────────

func (c *Coordinator) Systems() []system.System { return c.systems.Systems() }

// AddSystemComponentType is the runtime-typed form of AddComponentType.
func (c *Coordinator) AddSystemComponentType(sys system.System, t ecs.ComponentType) error {
	if _, err := c.components.Store(t); err != nil {
		return c.violation("require", err)
	}
	if err := c.systems.Require(sys, t, c.entities.All(), c.signatureOrEmpty); err != nil {
		return c.violation("require", err)
	}
	return nil
}

// NamedSystem looks up a system.Named system and its update index.
func (c *Coordinator) NamedSystem(name string) (system.System, int, error) {
	return c.systems.Named(name)
}

func (c *Coordinator) RemoveNamedSystem(name string) error {
	if err := c.systems.RemoveNamed(name); err != nil {
		return c.violation("remove system", err)
	}
	return nil
}

func (c *Coordinator) SetSystemActive(index int, active bool) error {
	return c.systems.SetActive(index, active)
}

// PauseAllExcept deactivates every system not listed in keep.
func (c *Coordinator) PauseAllExcept(keep ...int) {
	c.systems.PauseAllExcept(keep...)
}

func (c *Coordinator) ResumeSystems() {
	c.systems.ResumeAll()
}

// UpdateSystems runs every active system once in order, then applies the
// structural commands they queued.
func (c *Coordinator) UpdateSystems(dt time.Duration) error {
	if c.updating {
		return ErrMutationDuringUpdate
	}
	c.updating = true
	func() {
		defer func() { c.updating = false }()
		c.systems.Update(dt)
	}()
	return c.FlushCommands()
}

// Updating reports whether UpdateSystems is currently running systems.
func (c *Coordinator) Updating() bool { return c.updating }
