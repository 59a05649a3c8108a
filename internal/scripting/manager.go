package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/parser"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/roll"
)

// globalKey is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no VM is registered under the key.
const globalKey = "__global__"

// vm is one sandboxed LState. LStates are single-threaded, so every call
// holds mu.
type vm struct {
	mu     sync.Mutex
	L      *lua.LState
	closed bool
}

func (v *vm) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.closed {
		v.L.Close()
		v.closed = true
	}
}

// Manager owns one sandboxed LState per script key and exposes hook dispatch.
//
// Manager is safe for concurrent use. Calls into the same VM are serialized;
// different VMs run concurrently.
type Manager struct {
	mu        sync.RWMutex
	vms       map[string]*vm
	roller    *roll.DiceRoller
	logger    *zap.Logger
	instLimit int

	// Parse backs engine.dice.parse. nil uses parser.Parse.
	Parse roll.ParseFunc
}

// NewManager creates a Manager whose scripts roll into roller.
//
// Precondition: roller and logger must be non-nil; instLimit >= 0 (0 uses
// DefaultInstructionLimit).
// Postcondition: Returns a non-nil Manager with no VMs loaded.
func NewManager(roller *roll.DiceRoller, logger *zap.Logger, instLimit int) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		vms:       make(map[string]*vm),
		roller:    roller,
		logger:    logger,
		instLimit: instLimit,
	}
}

// Roller returns the roller scripts roll into.
func (m *Manager) Roller() *roll.DiceRoller { return m.roller }

// Load creates a sandboxed VM for key, registers all engine.* modules,
// then executes every *.lua file in scriptDir in lexicographic order.
// A VM already registered under key is replaced.
//
// Precondition: key must be non-empty; scriptDir must be a readable directory.
// Postcondition: VM is registered; returns error on Lua load failure.
func (m *Manager) Load(key, scriptDir string) error {
	if key == "" {
		return fmt.Errorf("scripting: key must not be empty")
	}
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)
	return m.loadInto(key, luaFiles)
}

// LoadGlobal creates the "__global__" VM, reachable from CallHook under any
// key that has no VM of its own.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string) error {
	return m.Load(globalKey, scriptDir)
}

// RunFile executes a single script in a fresh VM registered under the file's
// base name without extension, so its functions stay callable via CallHook.
//
// Precondition: path names a readable Lua file.
// Postcondition: Returns the VM key, or an error if the script failed to run.
func (m *Manager) RunFile(path string) (string, error) {
	key := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	runID := uuid.NewString()
	m.logger.Debug("scripting: running file",
		zap.String("run_id", runID),
		zap.String("path", path),
	)
	if err := m.loadInto(key, []string{path}); err != nil {
		return "", err
	}
	m.logger.Debug("scripting: file finished",
		zap.String("run_id", runID),
		zap.Int("rolls", m.roller.Len()),
	)
	return key, nil
}

func (m *Manager) loadInto(key string, files []string) error {
	L := NewSandboxedState(m.instLimit)
	m.RegisterModules(L)

	for _, path := range files {
		release := resetLimit(L, m.instLimit)
		err := L.DoFile(path)
		release()
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	old := m.vms[key]
	m.vms[key] = &vm{L: L}
	m.mu.Unlock()

	if old != nil {
		old.close()
	}
	return nil
}

// CallHook calls the named Lua global function in key's VM. If key has no VM
// the __global__ VM is tried as a fallback. Returns (LNil, nil) if the hook
// is not defined or no VM exists. Lua runtime errors are logged at Warn
// level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(key, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	v, ok := m.vms[key]
	if !ok {
		v = m.vms[globalKey]
	}
	m.mu.RUnlock()

	if v == nil {
		m.logger.Info("scripting: no VM for key",
			zap.String("key", key),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return lua.LNil, nil
	}
	L := v.L

	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	release := resetLimit(L, m.instLimit)
	defer release()
	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("key", key),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Close releases every VM.
//
// Postcondition: no VMs remain; CallHook returns LNil for every key.
func (m *Manager) Close() {
	m.mu.Lock()
	vms := m.vms
	m.vms = make(map[string]*vm)
	m.mu.Unlock()

	for _, v := range vms {
		v.close()
	}
}

func (m *Manager) parse(notation string) ([]dice.Token, error) {
	if m.Parse != nil {
		return m.Parse(notation)
	}
	return parser.Parse(notation)
}
