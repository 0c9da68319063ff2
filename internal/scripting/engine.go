package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM holding behavior scripts.
// Single-goroutine access only: worlds running scripted behaviors must keep
// the update phase serial.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every .lua file in dir. A missing
// directory yields an empty engine.
func NewEngine(dir string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	if err := e.loadDir(dir); err != nil {
		e.Close()
		return nil, fmt.Errorf("load scripts %s: %w", dir, err)
	}
	return e, nil
}

// NewEngineFromSource creates an engine from inline Lua source.
func NewEngineFromSource(src string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	if err := e.vm.DoString(src); err != nil {
		e.Close()
		return nil, fmt.Errorf("load inline script: %w", err)
	}
	return e, nil
}

func newEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	return &Engine{vm: vm, log: log}
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Has reports whether kind defines both <kind>_update and <kind>_receive.
func (e *Engine) Has(kind string) bool {
	return e.fn(kind+"_update") != nil && e.fn(kind+"_receive") != nil
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}

func (e *Engine) fn(name string) *lua.LFunction {
	f, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return nil
	}
	return f
}

// call invokes a global Lua function with args and returns its single result.
func (e *Engine) call(name string, args ...lua.LValue) (lua.LValue, error) {
	f := e.fn(name)
	if f == nil {
		return lua.LNil, fmt.Errorf("lua function %s not found", name)
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      f,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		return lua.LNil, fmt.Errorf("lua %s: %w", name, err)
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	return ret, nil
}
