package scripting

import (
	lua "github.com/yuin/gopher-lua"
)

// convertGoToLua converts a Go value to its Lua representation.
func convertGoToLua(L *lua.LState, value interface{}) lua.LValue {
	switch v := value.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(v)
	case int:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case float32:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case string:
		return lua.LString(v)
	case []interface{}:
		table := L.NewTable()
		for _, item := range v {
			table.Append(convertGoToLua(L, item))
		}
		return table
	case map[string]interface{}:
		table := L.NewTable()
		for key, item := range v {
			table.RawSetString(key, convertGoToLua(L, item))
		}
		return table
	case map[string]string:
		table := L.NewTable()
		for key, item := range v {
			table.RawSetString(key, lua.LString(item))
		}
		return table
	default:
		return lua.LNil
	}
}

// convertLuaToGo converts a Lua value to its Go representation. Tables with
// only consecutive integer keys become slices, everything else becomes a
// map[string]interface{} keyed by the string form of the table keys.
func convertLuaToGo(value lua.LValue) interface{} {
	switch v := value.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		return convertLuaTable(v)
	default:
		return v.String()
	}
}

// convertLuaTable converts a Lua table to a Go slice or map.
func convertLuaTable(table *lua.LTable) interface{} {
	maxN := table.MaxN()
	if maxN > 0 && table.Len() == maxN {
		// Array-like table
		isArray := true
		size := 0
		table.ForEach(func(key, _ lua.LValue) {
			size++
			if _, ok := key.(lua.LNumber); !ok {
				isArray = false
			}
		})
		if isArray && size == maxN {
			out := make([]interface{}, 0, maxN)
			for i := 1; i <= maxN; i++ {
				out = append(out, convertLuaToGo(table.RawGetInt(i)))
			}
			return out
		}
	}

	out := make(map[string]interface{})
	table.ForEach(func(key, item lua.LValue) {
		out[key.String()] = convertLuaToGo(item)
	})
	return out
}
