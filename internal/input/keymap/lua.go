package keymap

import (
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keyroute/internal/input/key"
)

// Lua keymap configuration. The script is evaluated in a sandboxed
// state (no io, os, debug or package libraries) and must return a table:
//
//	return {
//	  leader = { key = "a", mods = "CTRL", timeout_ms = 1000 },
//	  keys = {
//	    { key = "c", mods = "CTRL|SHIFT", action = "copy" },
//	  },
//	  key_tables = {
//	    copy_mode = {
//	      { key = "y", action = "copy_selection" },
//	    },
//	  },
//	}

// LoadLuaFile evaluates a Lua configuration file into a new registry.
func LoadLuaFile(path string) (*Registry, error) {
	return loadLua(func(L *lua.LState) error { return L.DoFile(path) })
}

// LoadLuaString evaluates Lua configuration source into a new registry.
func LoadLuaString(src string) (*Registry, error) {
	return loadLua(func(L *lua.LState) error { return L.DoString(src) })
}

func loadLua(do func(*lua.LState) error) (reg *Registry, err error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true, // We'll open selectively
	})
	defer L.Close()

	openSafeLibraries(L)

	// Evaluate with panic recovery; gopher-lua panics on some internal
	// errors rather than returning them.
	defer func() {
		if r := recover(); r != nil {
			reg = nil
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()

	if err := do(L); err != nil {
		return nil, fmt.Errorf("evaluating keymap config: %w", err)
	}

	ret := L.Get(-1)
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("keymap config must return a table, got %s", ret.Type())
	}

	return registryFromLua(tbl)
}

// openSafeLibraries opens only safe Lua standard libraries.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	// io, os, debug and package stay closed: config scripts describe
	// bindings, they do not touch the system.
}

func registryFromLua(tbl *lua.LTable) (*Registry, error) {
	reg := NewRegistry()

	if leader, ok := tbl.RawGetString("leader").(*lua.LTable); ok {
		code, mods, err := codeModsFromLua(leader)
		if err != nil {
			return nil, fmt.Errorf("leader: %w", err)
		}
		timeout := defaultLeaderTimeout
		if ms, ok := leader.RawGetString("timeout_ms").(lua.LNumber); ok && ms > 0 {
			timeout = time.Duration(ms) * time.Millisecond
		}
		reg.SetLeader(code, mods, timeout)
	}

	if keys, ok := tbl.RawGetString("keys").(*lua.LTable); ok {
		if err := bindAllFromLua(reg, DefaultTable, keys); err != nil {
			return nil, err
		}
	}

	if tables, ok := tbl.RawGetString("key_tables").(*lua.LTable); ok {
		var tblErr error
		tables.ForEach(func(k, v lua.LValue) {
			if tblErr != nil {
				return
			}
			name, nameOK := k.(lua.LString)
			bindings, bindOK := v.(*lua.LTable)
			if !nameOK || !bindOK {
				tblErr = fmt.Errorf("key_tables entries must map names to binding lists")
				return
			}
			if err := bindAllFromLua(reg, string(name), bindings); err != nil {
				tblErr = fmt.Errorf("table %q: %w", string(name), err)
			}
		})
		if tblErr != nil {
			return nil, tblErr
		}
	}

	return reg, nil
}

func bindAllFromLua(reg *Registry, table string, bindings *lua.LTable) error {
	var bindErr error
	bindings.ForEach(func(_, v lua.LValue) {
		if bindErr != nil {
			return
		}
		entry, ok := v.(*lua.LTable)
		if !ok {
			bindErr = fmt.Errorf("binding entries must be tables")
			return
		}

		code, mods, err := codeModsFromLua(entry)
		if err != nil {
			bindErr = err
			return
		}

		actionName, ok := entry.RawGetString("action").(lua.LString)
		if !ok || actionName == "" {
			bindErr = fmt.Errorf("binding %q: empty action", code.String())
			return
		}

		action := Action{Name: string(actionName)}
		if args, ok := entry.RawGetString("args").(*lua.LTable); ok {
			action.Args = make(map[string]any)
			args.ForEach(func(ak, av lua.LValue) {
				if name, ok := ak.(lua.LString); ok {
					action.Args[string(name)] = luaToGo(av)
				}
			})
		}

		reg.Bind(table, code, mods, action)
	})
	return bindErr
}

func codeModsFromLua(entry *lua.LTable) (key.Code, key.Modifier, error) {
	spec, ok := entry.RawGetString("key").(lua.LString)
	if !ok {
		return nil, 0, fmt.Errorf("binding entry missing key")
	}
	code, err := key.ParseCode(string(spec))
	if err != nil {
		return nil, 0, err
	}

	var mods key.Modifier
	if m, ok := entry.RawGetString("mods").(lua.LString); ok {
		mods = key.ParseModifiers(string(m))
	}
	return code, mods, nil
}

// luaToGo converts scalar Lua values for action arguments.
func luaToGo(v lua.LValue) any {
	switch lv := v.(type) {
	case lua.LString:
		return string(lv)
	case lua.LNumber:
		return float64(lv)
	case lua.LBool:
		return bool(lv)
	default:
		return lv.String()
	}
}
