// Package script compiles Lua snippets into column hooks.
//
// A snippet is the body of a Lua function. Value hooks receive
// (value, row, field, id); comparators receive (a, b) and return a number
// whose sign orders the two values. Snippets run in a sandbox without the
// io, os, debug and package libraries.
//
// An Engine owns one Lua state and is not safe for concurrent use beyond the
// lock it takes around every call.
package script

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cast"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/gridstorm/internal/logging"
	"github.com/dshills/gridstorm/internal/model"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = time.Second

// ErrClosed is returned by calls on a closed engine.
var ErrClosed = errors.New("script engine closed")

// HookError reports a hook that failed to compile or run.
type HookError struct {
	Name string
	Err  error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("script %s: %v", e.Name, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// Engine compiles and runs hooks.
type Engine struct {
	mu      sync.Mutex
	L       *lua.LState
	timeout time.Duration
	logger  *logging.Logger
	closed  bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout bounds each hook call.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithLogger sets the logger that reports failed hook calls.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates a sandboxed engine.
func New(opts ...Option) *Engine {
	e := &Engine{timeout: DefaultTimeout, logger: logging.Nop()}
	for _, opt := range opts {
		opt(e)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "collectgarbage"} {
		L.SetGlobal(name, lua.LNil)
	}
	e.L = L
	return e
}

// Close releases the Lua state.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.L.Close()
	e.closed = true
}

// Hook is a compiled snippet.
type Hook struct {
	engine *Engine
	name   string
	fn     *lua.LFunction
}

// Name returns the name the hook was compiled under.
func (h *Hook) Name() string { return h.name }

// Compile compiles a value hook taking (value, row, field, id).
func (e *Engine) Compile(name, body string) (*Hook, error) {
	return e.compile(name, []string{"value", "row", "field", "id"}, body)
}

// CompileComparator compiles a comparator taking (a, b).
func (e *Engine) CompileComparator(name, body string) (*Hook, error) {
	return e.compile(name, []string{"a", "b"}, body)
}

func (e *Engine) compile(name string, params []string, body string) (*Hook, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}

	var args string
	for i, p := range params {
		if i > 0 {
			args += ", "
		}
		args += p
	}
	src := "return function(" + args + ")\n" + body + "\nend"

	chunk, err := e.L.LoadString(src)
	if err != nil {
		return nil, &HookError{Name: name, Err: err}
	}
	e.L.Push(chunk)
	if err := e.L.PCall(0, 1, nil); err != nil {
		return nil, &HookError{Name: name, Err: err}
	}
	ret := e.L.Get(-1)
	e.L.Pop(1)

	fn, ok := ret.(*lua.LFunction)
	if !ok {
		return nil, &HookError{Name: name, Err: fmt.Errorf("snippet compiled to %s", ret.Type())}
	}
	return &Hook{engine: e, name: name, fn: fn}, nil
}

// Call runs the hook and returns its first result.
func (h *Hook) Call(args ...any) (any, error) {
	e := h.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	e.L.SetContext(ctx)
	defer e.L.RemoveContext()

	values := make([]lua.LValue, len(args))
	for i, a := range args {
		values[i] = toLua(e.L, a)
	}

	top := e.L.GetTop()
	err := e.L.CallByParam(lua.P{Fn: h.fn, NRet: 1, Protect: true}, values...)
	if err != nil {
		e.L.SetTop(top)
		return nil, &HookError{Name: h.name, Err: err}
	}
	ret := e.L.Get(-1)
	e.L.Pop(1)
	return fromLua(ret), nil
}

// ValueGetter adapts the hook to a column value getter. A failing call
// falls back to the raw field.
func (h *Hook) ValueGetter() model.ValueGetter {
	return func(p model.CellParams) any {
		raw := p.Row[p.Field]
		v, err := h.Call(raw, p.Row, p.Field, p.ID)
		if err != nil {
			h.engine.logger.Warn("%v", err)
			return raw
		}
		return v
	}
}

// ValueFormatter adapts the hook to a column value formatter. A failing call
// falls back to the cell value.
func (h *Hook) ValueFormatter() model.ValueFormatter {
	return func(p model.CellParams) any {
		v, err := h.Call(p.Value, p.Row, p.Field, p.ID)
		if err != nil {
			h.engine.logger.Warn("%v", err)
			return p.Value
		}
		return v
	}
}

// ValueParser adapts the hook to a column value parser. A failing call
// keeps the raw input.
func (h *Hook) ValueParser() model.ValueParser {
	return func(raw any, p model.CellParams) any {
		v, err := h.Call(raw, p.Row, p.Field, p.ID)
		if err != nil {
			h.engine.logger.Warn("%v", err)
			return raw
		}
		return v
	}
}

// Comparator adapts the hook to a column comparator. A failing call treats
// the values as equal.
func (h *Hook) Comparator() model.Comparator {
	return func(v1, v2 any, _, _ model.SortCellParams) int {
		v, err := h.Call(v1, v2)
		if err != nil {
			h.engine.logger.Warn("%v", err)
			return 0
		}
		switch n := cast.ToFloat64(v); {
		case n < 0:
			return -1
		case n > 0:
			return 1
		}
		return 0
	}
}

func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case string:
		return lua.LString(val)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return lua.LNumber(cast.ToFloat64(val))
	case time.Time:
		return lua.LString(val.Format(time.RFC3339))
	case model.Row:
		return mapToTable(L, val)
	case map[string]any:
		return mapToTable(L, val)
	case []any:
		t := L.NewTable()
		for _, item := range val {
			t.Append(toLua(L, item))
		}
		return t
	case lua.LValue:
		return val
	}
	return lua.LString(fmt.Sprint(v))
}

func mapToTable(L *lua.LState, m map[string]any) *lua.LTable {
	t := L.NewTable()
	for k, v := range m {
		t.RawSetString(k, toLua(L, v))
	}
	return t
}

func fromLua(lv lua.LValue) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		return tableToGo(v)
	}
	return nil
}

// tableToGo converts a sequence to a slice and anything else to a map.
func tableToGo(t *lua.LTable) any {
	n := t.Len()
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })
	if n > 0 && n == count {
		out := make([]any, n)
		for i := 1; i <= n; i++ {
			out[i-1] = fromLua(t.RawGetInt(i))
		}
		return out
	}
	out := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		out[k.String()] = fromLua(v)
	})
	return out
}
