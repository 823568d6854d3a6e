package scripting

import (
	"time"

	coresys "github.com/l1jgo/engine/internal/core/system"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ScriptSystem is a system whose update function lives in Lua. It is called
// as update(dt_seconds, entities) with the interest list as an array of
// entity handles.
type ScriptSystem struct {
	coresys.Base
	engine   *Engine
	name     string
	requires []string
	index    int
	update   *lua.LFunction
	errors   int
}

func (s *ScriptSystem) SystemName() string { return "lua:" + s.name }

// Requires lists the component names declared by the script.
func (s *ScriptSystem) Requires() []string { return s.requires }

// Errors counts failed update calls.
func (s *ScriptSystem) Errors() int { return s.errors }

func (s *ScriptSystem) Update(dt time.Duration) {
	vm := s.engine.vm
	list := vm.CreateTable(s.Len(), 0)
	for i, e := range s.Entities() {
		list.RawSetInt(i+1, s.engine.pushEntity(vm, e))
	}
	if err := vm.CallByParam(lua.P{
		Fn:      s.update,
		NRet:    0,
		Protect: true,
	}, lua.LNumber(dt.Seconds()), list); err != nil {
		s.errors++
		s.engine.log.Error("lua system update error", zap.String("system", s.name), zap.Error(err))
	}
}
