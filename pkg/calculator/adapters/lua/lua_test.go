package lua

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permkit/permctx/pkg/contextset"
	"github.com/permkit/permctx/pkg/errors"
	"github.com/permkit/permctx/pkg/scripting"
	"github.com/permkit/permctx/pkg/subject"
)

func newTestEngine(t *testing.T, script string) scripting.Engine {
	t.Helper()

	engine, err := scripting.NewLuaEngine(scripting.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, engine.Close())
	})

	require.NoError(t, engine.LoadScript("test", []byte(script)))
	return engine
}

func TestCalculator_Calculate(t *testing.T) {
	engine := newTestEngine(t, `
		function gamemode(current)
			return { gamemode = "creative" }
		end
	`)

	calc, err := New(engine, "gamemode")
	require.NoError(t, err)

	sub := subject.New("player-one")
	acc, err := calc.Calculate(context.Background(), sub, contextset.NewMutable())
	require.NoError(t, err)
	assert.True(t, acc.Contains("gamemode", "creative"))
}

func TestCalculator_SeesAccumulatedContext(t *testing.T) {
	engine := newTestEngine(t, `
		function mirror(current)
			if current.server and current.server[1] == "survival" then
				return { region = "eu" }
			end
			return nil
		end
	`)

	calc, err := New(engine, "mirror")
	require.NoError(t, err)

	acc := contextset.NewMutable()
	require.NoError(t, acc.Add("server", "survival"))

	acc, err = calc.Calculate(context.Background(), subject.New("player-one"), acc)
	require.NoError(t, err)
	assert.True(t, acc.Contains("region", "eu"))
}

func TestCalculator_SubjectAvailableToScript(t *testing.T) {
	engine := newTestEngine(t, `
		function by_name(current)
			local s = permctx.subject()
			if s == nil then
				return nil
			end
			return { player = s.name }
		end
	`)

	calc, err := New(engine, "by_name")
	require.NoError(t, err)

	acc, err := calc.Calculate(context.Background(), subject.New("steve"), contextset.NewMutable())
	require.NoError(t, err)
	assert.True(t, acc.Contains("player", "steve"))
}

func TestCalculator_MultiValueResult(t *testing.T) {
	engine := newTestEngine(t, `
		function dims(current)
			return { dimension = { "overworld", "nether" } }
		end
	`)

	calc, err := New(engine, "dims")
	require.NoError(t, err)

	acc, err := calc.Calculate(context.Background(), subject.New("player-one"), contextset.NewMutable())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"overworld", "nether"}, acc.Values("dimension"))
}

func TestCalculator_NilResultContributesNothing(t *testing.T) {
	engine := newTestEngine(t, `
		function silent(current)
			return nil
		end
	`)

	calc, err := New(engine, "silent")
	require.NoError(t, err)

	acc, err := calc.Calculate(context.Background(), subject.New("player-one"), contextset.NewMutable())
	require.NoError(t, err)
	assert.True(t, acc.IsEmpty())
}

func TestCalculator_NonTableResult(t *testing.T) {
	engine := newTestEngine(t, `
		function bad(current)
			return "not a table"
		end
	`)

	calc, err := New(engine, "bad")
	require.NoError(t, err)

	_, err = calc.Calculate(context.Background(), subject.New("player-one"), contextset.NewMutable())
	assert.Error(t, err)
}

func TestCalculator_ScriptError(t *testing.T) {
	engine := newTestEngine(t, `
		function boom(current)
			error("script failure")
		end
	`)

	calc, err := New(engine, "boom")
	require.NoError(t, err)

	_, err = calc.Calculate(context.Background(), subject.New("player-one"), contextset.NewMutable())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrLuaExecution)
	assert.Contains(t, err.Error(), "script failure")
}

func TestNew_MissingFunction(t *testing.T) {
	engine := newTestEngine(t, `function exists() end`)

	_, err := New(engine, "does_not_exist")
	assert.ErrorIs(t, err, scripting.ErrFunctionNotFound)
}

func TestStaticCalculator(t *testing.T) {
	engine := newTestEngine(t, `
		function maintenance(current)
			local s = permctx.subject()
			if s ~= nil then
				error("no subject expected on the static path")
			end
			return { maintenance = "true" }
		end
	`)

	calc, err := NewStatic(engine, "maintenance")
	require.NoError(t, err)

	acc, err := calc.CalculateStatic(context.Background(), contextset.NewMutable())
	require.NoError(t, err)
	assert.True(t, acc.Contains("maintenance", "true"))
}

func TestCalculator_Name(t *testing.T) {
	engine := newTestEngine(t, `function f() end`)

	calc, err := New(engine, "f")
	require.NoError(t, err)
	assert.Equal(t, "lua:f", calc.Name())

	static, err := NewStatic(engine, "f")
	require.NoError(t, err)
	assert.Equal(t, "lua:f", static.Name())
}
