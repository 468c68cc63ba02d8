package lua

import (
	"context"
	"fmt"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/dshills/secretcode/internal/input/key"
)

// Match describes the code match a script runs for. It is exposed to
// Lua as the global table "match":
//
//	match.id     notification ID
//	match.keys   array of key codes
//	match.names  keys as a space separated list, e.g. "Up Up Down Down"
//	match.at     match time in Unix milliseconds
//	match.count  number of matches of this code so far, including this one
type Match struct {
	ID    string
	Keys  []key.Code
	At    time.Time
	Count uint64
}

// LogFunc receives the messages a script passes to log().
type LogFunc func(script, msg string)

// Script is a compiled on-match script with its own state.
type Script struct {
	name  string
	proto *lua.FunctionProto
	state *State
	logFn LogFunc
}

// ScriptOption configures a Script.
type ScriptOption func(*scriptConfig)

type scriptConfig struct {
	logFn     LogFunc
	stateOpts []StateOption
}

// WithLogFunc routes log() calls to fn.
func WithLogFunc(fn LogFunc) ScriptOption {
	return func(c *scriptConfig) {
		c.logFn = fn
	}
}

// WithStateOptions passes options to the script's State.
func WithStateOptions(opts ...StateOption) ScriptOption {
	return func(c *scriptConfig) {
		c.stateOpts = append(c.stateOpts, opts...)
	}
}

// Compile parses src and prepares a state for it.
func Compile(name, src string, opts ...ScriptOption) (*Script, error) {
	var cfg scriptConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	chunk, err := parse.Parse(strings.NewReader(src), name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCompile, name, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCompile, name, err)
	}

	s := &Script{
		name:  name,
		proto: proto,
		state: NewState(cfg.stateOpts...),
		logFn: cfg.logFn,
	}
	_ = s.state.With(func(L *lua.LState) {
		L.SetGlobal("log", L.NewFunction(s.luaLog))
	})
	return s, nil
}

// Name returns the script name.
func (s *Script) Name() string {
	return s.name
}

// Run executes the script for m. Globals set by earlier runs persist.
func (s *Script) Run(ctx context.Context, m Match) error {
	err := s.state.With(func(L *lua.LState) {
		L.SetGlobal("match", matchTable(L, m))
	})
	if err != nil {
		return err
	}

	if err := s.state.CallProto(ctx, s.proto); err != nil {
		return &ScriptError{Script: s.name, Err: err}
	}
	return nil
}

// Close releases the script's state.
func (s *Script) Close() {
	s.state.Close()
}

func (s *Script) luaLog(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	if s.logFn != nil {
		s.logFn(s.name, strings.Join(parts, " "))
	}
	return 0
}

func matchTable(L *lua.LState, m Match) *lua.LTable {
	keys := L.CreateTable(len(m.Keys), 0)
	for _, c := range m.Keys {
		keys.Append(lua.LNumber(c))
	}

	t := L.CreateTable(0, 5)
	t.RawSetString("id", lua.LString(m.ID))
	t.RawSetString("keys", keys)
	t.RawSetString("names", lua.LString(key.FormatCodes(m.Keys)))
	t.RawSetString("at", lua.LNumber(m.At.UnixMilli()))
	t.RawSetString("count", lua.LNumber(m.Count))
	return t
}
