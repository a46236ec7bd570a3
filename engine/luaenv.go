package engine

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// placeholder appended when a value expression yields something that has no
// string form.
const opaqueValue = "<LUA VALUE>"

// LuaEnv wraps the single Lua state shared by every chunk of a session, so
// globals set by one file stay visible to the next.
type LuaEnv struct {
	L *lua.LState
}

func NewLuaEnv() *LuaEnv {
	return &LuaEnv{L: lua.NewState()}
}

func (e *LuaEnv) Close() {
	e.L.Close()
}

// Exec runs code for its side effects only.
func (e *LuaEnv) Exec(code, name string) error {
	fn, err := e.L.Load(strings.NewReader(code), name)
	if err != nil {
		return err
	}
	top := e.L.GetTop()
	defer e.L.SetTop(top)

	e.L.Push(fn)
	return e.L.PCall(0, 0, nil)
}

// Call runs code and returns its first result.
func (e *LuaEnv) Call(code, name string) (lua.LValue, error) {
	fn, err := e.L.Load(strings.NewReader(code), name)
	if err != nil {
		return lua.LNil, err
	}
	top := e.L.GetTop()
	defer e.L.SetTop(top)

	e.L.Push(fn)
	if err := e.L.PCall(0, 1, nil); err != nil {
		return lua.LNil, err
	}
	return e.L.Get(-1), nil
}

// RunFile executes a whole script file.
func (e *LuaEnv) RunFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return e.Exec(string(src), "@"+path)
}

func (e *LuaEnv) SetGlobal(name string, v lua.LValue) {
	e.L.SetGlobal(name, v)
}

func (e *LuaEnv) GetGlobal(name string) lua.LValue {
	return e.L.GetGlobal(name)
}

// GlobalNames lists the string keys of the global table.
func (e *LuaEnv) GlobalNames() []string {
	var names []string
	e.L.G.Global.ForEach(func(k, _ lua.LValue) {
		if s, ok := k.(lua.LString); ok {
			names = append(names, string(s))
		}
	})
	sort.Strings(names)
	return names
}

// valueString renders the result of a value expression.
func (e *LuaEnv) valueString(v lua.LValue) string {
	switch v.Type() {
	case lua.LTNil:
		return "nil"
	case lua.LTString, lua.LTNumber, lua.LTBool:
		return v.String()
	}
	if e.L.GetMetaField(v, "__tostring") != lua.LNil {
		return e.L.ToStringMeta(v).String()
	}
	return opaqueValue
}

// stringify is the tostring exposed to templates. Tables are expanded as
// {key=value,...} instead of printing their address.
func stringify(v lua.LValue) string {
	return stringifySeen(v, map[*lua.LTable]bool{})
}

func stringifySeen(v lua.LValue, seen map[*lua.LTable]bool) string {
	switch v := v.(type) {
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if seen[v] {
			return "{...}"
		}
		seen[v] = true
		var b strings.Builder
		b.WriteByte('{')
		v.ForEach(func(k, val lua.LValue) {
			fmt.Fprintf(&b, "%s=%s,", stringifySeen(k, seen), stringifySeen(val, seen))
		})
		b.WriteByte('}')
		return b.String()
	case *lua.LFunction:
		if v.Proto == nil {
			return "Function(builtin)"
		}
		return fmt.Sprintf("Function(%s, %d)", v.Proto.SourceName, v.Proto.LineDefined)
	case *lua.LUserData:
		return fmt.Sprintf("UserData(%p)", v)
	case *lua.LState:
		return fmt.Sprintf("Thread(%p)", v)
	}
	return v.String()
}

// toLValue converts decoded data (YAML documents, CSV rows) to Lua values.
func toLValue(L *lua.LState, v any) lua.LValue {
	switch v := v.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(v)
	case bool:
		return lua.LBool(v)
	case int:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case uint64:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case time.Time:
		return lua.LString(v.Format(dateFormat))
	case []string:
		t := L.CreateTable(len(v), 0)
		for _, s := range v {
			t.Append(lua.LString(s))
		}
		return t
	case [][]string:
		t := L.CreateTable(len(v), 0)
		for _, row := range v {
			t.Append(toLValue(L, row))
		}
		return t
	case []any:
		t := L.CreateTable(len(v), 0)
		for _, item := range v {
			t.Append(toLValue(L, item))
		}
		return t
	case map[string]any:
		t := L.CreateTable(0, len(v))
		for k, item := range v {
			t.RawSetString(k, toLValue(L, item))
		}
		return t
	case map[any]any:
		t := L.CreateTable(0, len(v))
		for k, item := range v {
			t.RawSet(toLValue(L, k), toLValue(L, item))
		}
		return t
	}
	return lua.LString(fmt.Sprint(v))
}
