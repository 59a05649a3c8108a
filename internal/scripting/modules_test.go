package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/engine"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/roll"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/scripting"
)

func runScript(t testing.TB, mgr *scripting.Manager, luaSrc, hook string, args ...lua.LValue) lua.LValue {
	t.Helper()
	dir := writeTempLua(t, "test.lua", luaSrc)
	// Use a unique key per test to avoid collisions
	key := "modtest_" + t.Name()
	require.NoError(t, mgr.Load(key, dir))
	ret, err := mgr.CallHook(key, hook, args...)
	require.NoError(t, err)
	return ret
}

func TestEngineLog_AllLevels(t *testing.T) {
	mgr, logs := newTestManager(t)

	runScript(t, mgr, `
		function do_all_logs()
			engine.log.debug("d")
			engine.log.info("i")
			engine.log.warn("w")
			engine.log.error("e")
		end
	`, "do_all_logs")

	for msg, level := range map[string]zapcore.Level{
		"d": zap.DebugLevel,
		"i": zap.InfoLevel,
		"w": zap.WarnLevel,
		"e": zap.ErrorLevel,
	} {
		entries := logs.FilterMessage(msg).All()
		require.Len(t, entries, 1, "message %q", msg)
		assert.Equal(t, level, entries[0].Level)
		assert.Equal(t, "lua", entries[0].ContextMap()["source"])
	}
}

func TestEngineDice_Roll_ReturnsTable(t *testing.T) {
	core, _ := observer.New(zap.DebugLevel)
	roller := roll.NewDiceRoller(roll.WithGenerator(engine.NewGenerator(engine.NewMax())))
	mgr := scripting.NewManager(roller, zap.New(core), 0)

	ret := runScript(t, mgr, `
		function do_roll()
			local r = engine.dice.roll("2d6+4")
			if r.notation ~= "2d6+4" then error("notation: " .. tostring(r.notation)) end
			if r.min_total ~= 6 then error("min_total: " .. tostring(r.min_total)) end
			if r.max_total ~= 16 then error("max_total: " .. tostring(r.max_total)) end
			if r.average_total ~= 11 then error("average_total: " .. tostring(r.average_total)) end
			return r.output
		end
	`, "do_roll")
	assert.Equal(t, lua.LString("2d6+4: [6, 6]+4 = 16"), ret)
	require.Equal(t, 1, roller.Len())
	assert.Equal(t, 16.0, roller.Total())
}

func TestEngineDice_Roll_ErrorIsCatchable(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `
		function try_roll()
			local ok, err = pcall(engine.dice.roll, "2d6+")
			if ok then return "unexpected" end
			return err
		end
	`, "try_roll")
	s, ok := ret.(lua.LString)
	require.True(t, ok, "expected LString, got %T", ret)
	assert.Contains(t, string(s), "engine.dice.roll")
	assert.Equal(t, 0, mgr.Roller().Len())
}

func TestEngineDice_Parse_ReturnsTerms(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `
		function do_parse()
			local terms = engine.dice.parse("4d6sdkh3 + 2")
			return table.concat(terms, "|")
		end
	`, "do_parse")
	assert.Equal(t, lua.LString("4d6kh3sd|+|2"), ret)
}

func TestEngineDice_Parse_UsesInjectedParser(t *testing.T) {
	mgr, _ := newTestManager(t)
	mgr.Parse = func(string) ([]dice.Token, error) {
		return []dice.Token{dice.Number(7)}, nil
	}
	ret := runScript(t, mgr, `
		function do_parse() return engine.dice.parse("anything")[1] end
	`, "do_parse")
	assert.Equal(t, lua.LString("7"), ret)
}

func TestEngineDice_Total_SumsLog(t *testing.T) {
	core, _ := observer.New(zap.DebugLevel)
	roller := roll.NewDiceRoller(roll.WithGenerator(engine.NewGenerator(engine.Min{})))
	mgr := scripting.NewManager(roller, zap.New(core), 0)

	ret := runScript(t, mgr, `
		function roll_twice()
			engine.dice.roll("3d6")
			engine.dice.roll("1d4+1")
			return engine.dice.total()
		end
	`, "roll_twice")
	assert.Equal(t, lua.LNumber(5), ret)
}

func TestProperty_DiceRoll_TotalWithinBounds(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "bounds.lua", `
		function check_bounds(expr)
			local r = engine.dice.roll(expr)
			return r.total >= r.min_total and r.total <= r.max_total
		end
	`)
	require.NoError(t, mgr.Load("bounds", dir))
	rapid.Check(t, func(rt *rapid.T) {
		expr := rapid.SampledFrom([]string{"1d6", "2d6", "1d4+3", "3d8-2", "{1d6, 1d8}"}).Draw(rt, "expr")
		ret, err := mgr.CallHook("bounds", "check_bounds", lua.LString(expr))
		require.NoError(rt, err)
		assert.Equal(rt, lua.LTrue, ret, "total out of bounds for %s", expr)
	})
}
