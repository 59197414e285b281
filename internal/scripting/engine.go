// Package scripting runs Lua autoexec scripts that extend the console:
// scripts can register new commands, queue lines and inspect the scene
// stack.
package scripting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/ingenium/internal/command"
)

// APIVersion is exposed to scripts as the API_VERSION global.
const APIVersion = 1

// SceneLister is the part of the scene stack visible to scripts.
type SceneLister interface {
	IDs() []string
}

// Engine wraps a single gopher-lua VM. Main thread only: Lua handlers
// are invoked from Processor.Update.
type Engine struct {
	vm     *lua.LState
	proc   *command.Processor
	scenes SceneLister
	log    *zap.Logger

	owned []string
}

// NewEngine creates a VM with the engine API installed.
func NewEngine(proc *command.Processor, scenes SceneLister, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState()
	e := &Engine{vm: vm, proc: proc, scenes: scenes, log: log}

	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))
	vm.SetGlobal("register", vm.NewFunction(e.luaRegister))
	vm.SetGlobal("buffer", vm.NewFunction(e.luaBuffer))
	vm.SetGlobal("execute", vm.NewFunction(e.luaExecute))
	vm.SetGlobal("log", vm.NewFunction(e.luaLog))
	vm.SetGlobal("scenes", vm.NewFunction(e.luaScenes))
	return e
}

// LoadDir runs every .lua file in dir in name order. A missing directory
// is skipped. A failing script does not stop the rest; all failures are
// returned together.
func (e *Engine) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			e.log.Debug("script directory not found", zap.String("dir", dir))
			return nil
		}
		return err
	}

	var errs error
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			e.log.Error("lua script failed", zap.String("file", path), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("load %s: %w", path, err))
			continue
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return errs
}

// DoString runs a chunk of Lua source.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// Commands returns the names registered from Lua.
func (e *Engine) Commands() []string {
	return append([]string(nil), e.owned...)
}

// Close unregisters Lua commands and shuts the VM down.
func (e *Engine) Close() error {
	for _, name := range e.owned {
		e.proc.Unregister(name)
	}
	e.owned = nil
	e.vm.Close()
	return nil
}

// register(name, sig, fn) -> ok, err
func (e *Engine) luaRegister(L *lua.LState) int {
	name := L.CheckString(1)
	tag := L.CheckString(2)
	fn := L.CheckFunction(3)

	sig, err := command.ParseSignature(tag)
	if err != nil {
		return fail(L, err)
	}

	handler := func(args []command.Value) {
		largs := make([]lua.LValue, len(args))
		for i, a := range args {
			largs[i] = toLua(a)
		}
		if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, largs...); err != nil {
			e.log.Error("lua command failed", zap.String("command", name), zap.Error(err))
		}
	}
	if err := e.proc.Register(name, sig, handler); err != nil {
		return fail(L, err)
	}
	e.owned = append(e.owned, name)
	L.Push(lua.LTrue)
	return 1
}

// buffer(text)
func (e *Engine) luaBuffer(L *lua.LState) int {
	e.proc.Buffer(L.CheckString(1))
	return 0
}

// execute(name, ...) -> ok, err
func (e *Engine) luaExecute(L *lua.LState) int {
	name := L.CheckString(1)
	args := make([]command.Value, 0, L.GetTop()-1)
	for i := 2; i <= L.GetTop(); i++ {
		v, err := fromLua(L.Get(i))
		if err != nil {
			L.ArgError(i, err.Error())
			return 0
		}
		args = append(args, v)
	}
	if err := e.proc.Execute(name, args...); err != nil {
		return fail(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

// log(msg)
func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info(L.CheckString(1), zap.String("source", "lua"))
	return 0
}

// scenes() -> {id, ...} bottom to top
func (e *Engine) luaScenes(L *lua.LState) int {
	t := L.NewTable()
	if e.scenes != nil {
		for _, id := range e.scenes.IDs() {
			t.Append(lua.LString(id))
		}
	}
	L.Push(t)
	return 1
}

func fail(L *lua.LState, err error) int {
	L.Push(lua.LFalse)
	L.Push(lua.LString(err.Error()))
	return 2
}

func toLua(v command.Value) lua.LValue {
	switch v.Kind {
	case command.KindInt:
		return lua.LNumber(v.Int)
	case command.KindFloat:
		return lua.LNumber(v.Float)
	default:
		return lua.LString(v.Text)
	}
}

// fromLua maps whole numbers to int arguments so they match int
// signatures; other numbers become floats.
func fromLua(lv lua.LValue) (command.Value, error) {
	switch v := lv.(type) {
	case lua.LNumber:
		f := float64(v)
		if f == math.Trunc(f) && math.Abs(f) <= math.MaxInt32 {
			return command.Int(int(f)), nil
		}
		return command.Float(f), nil
	case lua.LString:
		return command.String(string(v)), nil
	case lua.LBool:
		return command.String(v.String()), nil
	default:
		return command.Value{}, fmt.Errorf("unsupported argument type %s", lv.Type())
	}
}
