package scripting

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"

	"github.com/permkit/permctx/pkg/log"
	"github.com/permkit/permctx/pkg/subject"
)

// registerAPIFunctions registers Go functions that are available to Lua scripts.
func registerAPIFunctions(L *lua.LState) {
	// Create a permctx table
	permctx := L.NewTable()

	// Log function
	L.SetField(permctx, "log", L.NewFunction(apiLog))

	// Current time function
	L.SetField(permctx, "now", L.NewFunction(apiNow))

	// Format time function
	L.SetField(permctx, "format_time", L.NewFunction(apiFormatTime))

	// UUID generation
	L.SetField(permctx, "uuid", L.NewFunction(apiUUID))

	// Subject under evaluation, if any
	L.SetField(permctx, "subject", L.NewFunction(apiSubject))

	// JSON encoding/decoding
	L.SetField(permctx, "json_encode", L.NewFunction(apiJSONEncode))
	L.SetField(permctx, "json_decode", L.NewFunction(apiJSONDecode))

	// Register the permctx table in the global namespace
	L.SetGlobal("permctx", permctx)
}

// apiLog is a function to log messages from Lua
func apiLog(L *lua.LState) int {
	level := L.CheckString(1)
	message := L.CheckString(2)

	logger := slog.Default()
	if ctx := L.Context(); ctx != nil {
		logger = log.FromContext(ctx)
		if s, ok := subject.FromContext(ctx); ok {
			logger = log.WithSubject(logger, s)
		}
	}

	switch level {
	case "debug":
		logger.Debug("Lua script message", "message", message)
	case "info":
		logger.Info("Lua script message", "message", message)
	case "warn", "warning":
		logger.Warn("Lua script message", "message", message)
	case "error":
		logger.Error("Lua script message", "message", message)
	default:
		logger.Info("Lua script message", "message", message)
	}

	return 0
}

// apiNow returns the current time as a Unix timestamp
func apiNow(L *lua.LState) int {
	L.Push(lua.LNumber(time.Now().Unix()))
	return 1
}

// apiFormatTime formats a Unix timestamp as a string
func apiFormatTime(L *lua.LState) int {
	timestamp := L.CheckNumber(1)
	format := L.OptString(2, time.RFC3339)

	t := time.Unix(int64(timestamp), 0).UTC() // Use UTC to ensure consistent results
	L.Push(lua.LString(t.Format(format)))
	return 1
}

// apiUUID generates a UUID string
func apiUUID(L *lua.LState) int {
	L.Push(lua.LString(uuid.NewString()))
	return 1
}

// apiSubject returns the id and name of the subject under evaluation, or nil
// on the static path where no subject exists.
func apiSubject(L *lua.LState) int {
	ctx := L.Context()
	if ctx == nil {
		L.Push(lua.LNil)
		return 1
	}
	s, ok := subject.FromContext(ctx)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}

	table := L.NewTable()
	table.RawSetString("id", lua.LString(s.SubjectID().String()))
	table.RawSetString("name", lua.LString(s.FriendlyName()))
	L.Push(table)
	return 1
}

// apiJSONEncode encodes a Lua table to a JSON string
func apiJSONEncode(L *lua.LState) int {
	value := L.CheckAny(1)

	data, err := json.Marshal(convertLuaToGo(value))
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}

	L.Push(lua.LString(data))
	return 1
}

// apiJSONDecode decodes a JSON string to a Lua value
func apiJSONDecode(L *lua.LState) int {
	jsonStr := L.CheckString(1)

	var value interface{}
	if err := json.Unmarshal([]byte(jsonStr), &value); err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}

	L.Push(convertGoToLua(L, value))
	return 1
}
