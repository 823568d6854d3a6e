package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/l1jgo/engine/internal/core/coordinator"
	"github.com/l1jgo/engine/internal/core/ecs"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

const entityTypeName = "ecs.entity"

// Engine wraps a single gopher-lua VM whose scripts define ECS systems.
// Single-goroutine access only (simulation loop).
type Engine struct {
	vm  *lua.LState
	c   *coordinator.Coordinator
	log *zap.Logger
}

// NewEngine creates a VM with the ecs module installed as a global.
func NewEngine(c *coordinator.Coordinator, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, c: c, log: log}

	mt := vm.NewTypeMetatable(entityTypeName)
	vm.SetField(mt, "__tostring", vm.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(e.checkEntity(L, 1).String()))
		return 1
	}))
	vm.SetField(mt, "__eq", vm.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(e.checkEntity(L, 1) == e.checkEntity(L, 2)))
		return 1
	}))

	mod := vm.NewTable()
	vm.SetFuncs(mod, map[string]lua.LGFunction{
		"get":        e.luaGet,
		"set":        e.luaSet,
		"has":        e.luaHas,
		"alive":      e.luaAlive,
		"count":      e.luaCount,
		"components": e.luaComponents,
		"destroy":    e.luaDestroy,
		"add":        e.luaAdd,
		"remove":     e.luaRemove,
		"log":        e.luaLog,
	})
	vm.SetGlobal("ecs", mod)
	return e
}

func (e *Engine) Close() {
	e.vm.Close()
}

// LoadDir loads every .lua file in dir, in name order. A missing directory
// yields no systems.
func (e *Engine) LoadDir(dir string) ([]*ScriptSystem, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []*ScriptSystem
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		s, err := e.LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// LoadFile runs a script that returns a system definition table.
func (e *Engine) LoadFile(path string) (*ScriptSystem, error) {
	top := e.vm.GetTop()
	if err := e.vm.DoFile(path); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s, err := e.define(name, top)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	e.log.Debug("loaded lua system", zap.String("file", path), zap.String("system", s.name))
	return s, nil
}

// LoadString is LoadFile for in-memory source.
func (e *Engine) LoadString(name, src string) (*ScriptSystem, error) {
	top := e.vm.GetTop()
	if err := e.vm.DoString(src); err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	s, err := e.define(name, top)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return s, nil
}

// define reads the definition table left on the stack above top.
func (e *Engine) define(fallback string, top int) (*ScriptSystem, error) {
	if e.vm.GetTop() <= top {
		return nil, fmt.Errorf("script returned no system table")
	}
	ret := e.vm.Get(-1)
	e.vm.SetTop(top)

	def, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("script returned %s, want table", ret.Type())
	}
	fn, ok := def.RawGetString("update").(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("system table has no update function")
	}
	s := &ScriptSystem{
		engine: e,
		name:   fallback,
		update: fn,
		index:  -1,
	}
	if n, ok := def.RawGetString("name").(lua.LString); ok && n != "" {
		s.name = string(n)
	}
	if idx, ok := def.RawGetString("index").(lua.LNumber); ok {
		s.index = int(idx)
	}
	if comps, ok := def.RawGetString("components").(*lua.LTable); ok {
		comps.ForEach(func(_, v lua.LValue) {
			s.requires = append(s.requires, lua.LVAsString(v))
		})
	}
	return s, nil
}

// Register adds s to the coordinator's update order and declares its
// required components. If any requirement fails, s is unregistered again.
func (e *Engine) Register(s *ScriptSystem) error {
	if _, err := coordinator.RegisterSystem(e.c, s, len(s.requires) > 0, s.index); err != nil {
		return fmt.Errorf("lua system %s: %w", s.name, err)
	}
	for _, name := range s.requires {
		if err := e.require(s, name); err != nil {
			if rerr := e.c.RemoveNamedSystem(s.SystemName()); rerr != nil {
				err = errors.Join(err, rerr)
			}
			return fmt.Errorf("lua system %s: %w", s.name, err)
		}
	}
	e.log.Info("lua system registered", zap.String("system", s.name), zap.Strings("components", s.requires))
	return nil
}

func (e *Engine) require(s *ScriptSystem, name string) error {
	t, err := e.c.ComponentTypeByName(name)
	if err != nil {
		return err
	}
	return e.c.AddSystemComponentType(s, t)
}

// ── Bindings ───────────────────────────────────────────────────────

func (e *Engine) pushEntity(L *lua.LState, id ecs.EntityID) lua.LValue {
	ud := L.NewUserData()
	ud.Value = id
	L.SetMetatable(ud, L.GetTypeMetatable(entityTypeName))
	return ud
}

func (e *Engine) checkEntity(L *lua.LState, n int) ecs.EntityID {
	ud := L.CheckUserData(n)
	id, ok := ud.Value.(ecs.EntityID)
	if !ok {
		L.ArgError(n, "entity expected")
	}
	return id
}

func (e *Engine) checkType(L *lua.LState, n int) ecs.ComponentType {
	t, err := e.c.ComponentTypeByName(L.CheckString(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return t
}

// field resolves (entity, component, field) arguments to an addressable value.
func (e *Engine) field(L *lua.LState) reflect.Value {
	id := e.checkEntity(L, 1)
	t := e.checkType(L, 2)
	name := L.CheckString(3)
	v, err := e.c.ComponentByType(id, t)
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	f, ok := fieldByName(reflect.ValueOf(v).Elem(), name)
	if !ok {
		L.ArgError(3, fmt.Sprintf("no field %q", name))
	}
	return f
}

func (e *Engine) luaGet(L *lua.LState) int {
	lv, err := toLua(e.field(L))
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	L.Push(lv)
	return 1
}

func (e *Engine) luaSet(L *lua.LState) int {
	f := e.field(L)
	if err := fromLua(f, L.CheckAny(4)); err != nil {
		L.ArgError(4, err.Error())
	}
	return 0
}

func (e *Engine) luaHas(L *lua.LState) int {
	id := e.checkEntity(L, 1)
	t := e.checkType(L, 2)
	L.Push(lua.LBool(e.c.HasComponentType(id, t)))
	return 1
}

func (e *Engine) luaAlive(L *lua.LState) int {
	L.Push(lua.LBool(e.c.CheckEntity(e.checkEntity(L, 1))))
	return 1
}

func (e *Engine) luaCount(L *lua.LState) int {
	L.Push(lua.LNumber(e.c.EntityCount()))
	return 1
}

func (e *Engine) luaComponents(L *lua.LState) int {
	comps, err := e.c.AllEntityComponents(e.checkEntity(L, 1))
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	names := make([]string, 0, len(comps))
	for n := range comps {
		names = append(names, n)
	}
	sort.Strings(names)
	tbl := L.NewTable()
	for i, n := range names {
		tbl.RawSetInt(i+1, lua.LString(n))
	}
	L.Push(tbl)
	return 1
}

// Structural changes are queued; they apply after every system has run.

func (e *Engine) luaDestroy(L *lua.LState) int {
	e.c.Commands().Destroy(e.checkEntity(L, 1))
	return 0
}

func (e *Engine) luaAdd(L *lua.LState) int {
	id := e.checkEntity(L, 1)
	t := e.checkType(L, 2)
	v, err := e.c.NewComponentValue(t)
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	e.c.Commands().Add(id, t, v)
	return 0
}

func (e *Engine) luaRemove(L *lua.LState) int {
	id := e.checkEntity(L, 1)
	t := e.checkType(L, 2)
	e.c.Commands().Remove(id, t)
	return 0
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info("lua", zap.String("msg", L.CheckString(1)))
	return 0
}
