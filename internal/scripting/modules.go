package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice"
)

// RegisterModules registers all engine.* Lua tables into L.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L with log and dice tables.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.logModule(L))
	L.SetField(engine, "dice", m.diceModule(L))
	L.SetGlobal("engine", engine)
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	}
	for name, logFn := range levels {
		L.SetField(mod, name, L.NewFunction(func(L *lua.LState) int {
			logFn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	return mod
}

func (m *Manager) diceModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "roll", L.NewFunction(m.luaRoll))
	L.SetField(mod, "parse", L.NewFunction(m.luaParse))
	L.SetField(mod, "total", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(m.roller.Total()))
		return 1
	}))
	return mod
}

// luaRoll implements engine.dice.roll(notation). The roll is appended to the
// manager's roller log; failures raise a Lua error.
func (m *Manager) luaRoll(L *lua.LState) int {
	notation := L.CheckString(1)
	r, err := m.roller.Roll(notation)
	if err != nil {
		L.RaiseError("engine.dice.roll(%q): %s", notation, err.Error())
		return 0
	}
	t := L.NewTable()
	L.SetField(t, "notation", lua.LString(r.Notation()))
	L.SetField(t, "output", lua.LString(r.Output()))
	L.SetField(t, "total", lua.LNumber(r.Total()))
	L.SetField(t, "min_total", lua.LNumber(r.MinTotal()))
	L.SetField(t, "max_total", lua.LNumber(r.MaxTotal()))
	L.SetField(t, "average_total", lua.LNumber(r.AverageTotal()))
	L.Push(t)
	return 1
}

// luaParse implements engine.dice.parse(notation): an array holding the
// canonical notation of each term, e.g. {"4d6kh3", "+", "2"}.
func (m *Manager) luaParse(L *lua.LState) int {
	notation := L.CheckString(1)
	tokens, err := m.parse(notation)
	if err != nil {
		L.RaiseError("engine.dice.parse(%q): %s", notation, err.Error())
		return 0
	}
	t := L.NewTable()
	for _, tok := range tokens {
		t.Append(lua.LString(dice.Notation([]dice.Token{tok})))
	}
	L.Push(t)
	return 1
}
