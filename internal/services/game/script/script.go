// Package script hosts the game's Lua state and persists its "persist"
// table in the save archive.
//
// Scripts keep data that must survive save and restore in the global
// table persist. On save the table is rendered back to Lua source, a
// single return statement of a table constructor; on restore that source
// is evaluated and its result becomes persist again. Functions, userdata
// and threads cannot be rendered and are dropped with a warning.
package script

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/Shopify/go-lua"
	"go.uber.org/zap"

	"github.com/louisbranch/undercroft/internal/services/game/domain/session"
	"github.com/louisbranch/undercroft/internal/services/game/domain/tag"
)

// PersistTable is the global scripts use for saved data.
const PersistTable = "persist"

// maxDepth bounds nested tables; deeper tables, and cycles, are cut.
const maxDepth = 32

// ErrClosed reports use of a closed host.
var ErrClosed = errors.New("script host is closed")

// Host owns one Lua state. It is not safe for concurrent use.
type Host struct {
	state  *lua.State
	logger *zap.Logger
}

var _ session.ChunkStore = (*Host)(nil)

// New returns a host with the standard libraries and an empty persist
// table.
func New(logger *zap.Logger) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}
	state := lua.NewState()
	lua.OpenLibraries(state)
	state.NewTable()
	state.SetGlobal(PersistTable)
	return &Host{state: state, logger: logger}
}

// Close drops the Lua state.
func (h *Host) Close() {
	h.state = nil
}

// Run executes src. name labels errors.
func (h *Host) Run(name, src string) error {
	if h.state == nil {
		return ErrClosed
	}
	if err := lua.LoadBuffer(h.state, src, "="+name, "t"); err != nil {
		h.state.SetTop(0)
		return fmt.Errorf("load %s: %w", name, err)
	}
	if err := h.state.ProtectedCall(0, 0, 0); err != nil {
		h.state.SetTop(0)
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}

// Set stores value under key in the persist table. Supported values are
// strings, bools, integers, floats, []any and map[string]any.
func (h *Host) Set(key string, value any) error {
	if h.state == nil {
		return ErrClosed
	}
	l := h.state
	l.Global(PersistTable)
	if l.TypeOf(-1) != lua.TypeTable {
		l.Pop(1)
		l.NewTable()
		l.PushValue(-1)
		l.SetGlobal(PersistTable)
	}
	if err := push(l, value, 0); err != nil {
		l.Pop(1)
		return fmt.Errorf("set %s: %w", key, err)
	}
	l.SetField(-2, key)
	l.Pop(1)
	return nil
}

// Get returns the Go form of persist[key] and whether it is set.
func (h *Host) Get(key string) (any, bool) {
	if h.state == nil {
		return nil, false
	}
	l := h.state
	l.Global(PersistTable)
	defer l.Pop(1)
	if l.TypeOf(-1) != lua.TypeTable {
		return nil, false
	}
	l.Field(-1, key)
	defer l.Pop(1)
	if l.IsNil(-1) {
		return nil, false
	}
	return toGo(l, -1, 0), true
}

// ChunkName implements session.ChunkStore.
func (h *Host) ChunkName() string { return session.ChunkLua }

// Save renders the persist table as Lua source inside a versioned chunk.
func (h *Host) Save() ([]byte, error) {
	if h.state == nil {
		return nil, ErrClosed
	}
	l := h.state
	l.Global(PersistTable)
	var b strings.Builder
	b.WriteString("return ")
	if l.TypeOf(-1) == lua.TypeTable {
		h.render(&b, l, -1, 0)
	} else {
		b.WriteString("{}")
	}
	l.Pop(1)

	w := tag.NewChunkWriter()
	w.String(b.String())
	return w.Bytes(), nil
}

// Load evaluates a saved chunk and installs the result as persist.
func (h *Host) Load(data []byte) error {
	if h.state == nil {
		return ErrClosed
	}
	r, err := tag.NewChunkReader(data)
	if err != nil {
		return err
	}
	src := r.String("lua.source")
	if err := r.FailIfNotEOF(session.ChunkLua); err != nil {
		return err
	}

	l := h.state
	if err := lua.LoadBuffer(l, src, "="+session.ChunkLua, "t"); err != nil {
		l.SetTop(0)
		return fmt.Errorf("load persist table: %w", err)
	}
	if err := l.ProtectedCall(0, 1, 0); err != nil {
		l.SetTop(0)
		return fmt.Errorf("run persist table: %w", err)
	}
	if l.TypeOf(-1) != lua.TypeTable {
		got := lua.TypeNameOf(l, -1)
		l.Pop(1)
		return fmt.Errorf("persist chunk returned %s, want table", got)
	}
	l.SetGlobal(PersistTable)
	return nil
}

func (h *Host) render(b *strings.Builder, l *lua.State, index, depth int) {
	index = l.AbsIndex(index)
	if depth >= maxDepth {
		h.logger.Warn("persist table nested too deep, truncated", zap.Int("depth", depth))
		b.WriteString("{}")
		return
	}

	type entry struct{ key, value string }
	var entries []entry
	l.PushNil()
	for l.Next(index) {
		key, ok := renderKey(l, -2)
		if !ok {
			h.logger.Warn("persist key cannot be saved", zap.String("type", lua.TypeNameOf(l, -2)))
			l.Pop(1)
			continue
		}
		switch l.TypeOf(-1) {
		case lua.TypeString, lua.TypeNumber, lua.TypeBoolean, lua.TypeTable:
			var v strings.Builder
			h.renderValue(&v, l, -1, depth)
			entries = append(entries, entry{key: key, value: v.String()})
		default:
			h.logger.Warn("persist value cannot be saved",
				zap.String("key", key),
				zap.String("type", lua.TypeNameOf(l, -1)))
		}
		l.Pop(1)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	b.WriteString("{")
	for i, e := range entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.key)
		b.WriteString(" = ")
		b.WriteString(e.value)
	}
	b.WriteString("}")
}

func (h *Host) renderValue(b *strings.Builder, l *lua.State, index, depth int) {
	switch l.TypeOf(index) {
	case lua.TypeString:
		s, _ := l.ToString(index)
		b.WriteString(quote(s))
	case lua.TypeNumber:
		n, _ := l.ToNumber(index)
		b.WriteString(number(n))
	case lua.TypeBoolean:
		b.WriteString(strconv.FormatBool(l.ToBoolean(index)))
	case lua.TypeTable:
		h.render(b, l, index, depth+1)
	default:
		b.WriteString("nil")
	}
}

// renderKey writes a table key as it appears in a constructor, ["name"] or
// [3].
func renderKey(l *lua.State, index int) (string, bool) {
	switch l.TypeOf(index) {
	case lua.TypeString:
		s, _ := l.ToString(index)
		return "[" + quote(s) + "]", true
	case lua.TypeNumber:
		n, _ := l.ToNumber(index)
		if math.IsNaN(n) {
			return "", false
		}
		return "[" + number(n) + "]", true
	case lua.TypeBoolean:
		return "[" + strconv.FormatBool(l.ToBoolean(index)) + "]", true
	}
	return "", false
}

func number(n float64) string {
	switch {
	case math.IsNaN(n):
		return "(0/0)"
	case math.IsInf(n, 1):
		return "math.huge"
	case math.IsInf(n, -1):
		return "-math.huge"
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// quote renders s as a Lua string literal. Bytes outside printable ASCII
// use decimal escapes so binary data survives.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&b, `\%03d`, c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func push(l *lua.State, value any, depth int) error {
	if depth >= maxDepth {
		return errors.New("value nested too deep")
	}
	switch v := value.(type) {
	case nil:
		l.PushNil()
	case string:
		l.PushString(v)
	case bool:
		l.PushBoolean(v)
	case int:
		l.PushInteger(v)
	case int64:
		l.PushNumber(float64(v))
	case float64:
		l.PushNumber(v)
	case []any:
		l.CreateTable(len(v), 0)
		for i, item := range v {
			if err := push(l, item, depth+1); err != nil {
				l.Pop(1)
				return err
			}
			l.RawSetInt(-2, i+1)
		}
	case map[string]any:
		l.CreateTable(0, len(v))
		for k, item := range v {
			if err := push(l, item, depth+1); err != nil {
				l.Pop(1)
				return err
			}
			l.SetField(-2, k)
		}
	default:
		return fmt.Errorf("unsupported value %T", value)
	}
	return nil
}

// toGo converts the value at index. Tables whose keys are exactly 1..n
// become []any, other tables map[string]any with keys formatted by
// fmt.Sprint.
func toGo(l *lua.State, index, depth int) any {
	switch l.TypeOf(index) {
	case lua.TypeString:
		s, _ := l.ToString(index)
		return s
	case lua.TypeNumber:
		n, _ := l.ToNumber(index)
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int(n)
		}
		return n
	case lua.TypeBoolean:
		return l.ToBoolean(index)
	case lua.TypeTable:
		if depth >= maxDepth {
			return nil
		}
		return tableToGo(l, index, depth)
	}
	return nil
}

func tableToGo(l *lua.State, index, depth int) any {
	index = l.AbsIndex(index)
	m := map[string]any{}
	count := 0
	sequence := true
	l.PushNil()
	for l.Next(index) {
		count++
		var key string
		switch l.TypeOf(-2) {
		case lua.TypeNumber:
			n, _ := l.ToNumber(-2)
			key = number(n)
		case lua.TypeString:
			key, _ = l.ToString(-2)
			sequence = false
		default:
			key = lua.TypeNameOf(l, -2)
			sequence = false
		}
		m[key] = toGo(l, -1, depth+1)
		l.Pop(1)
	}
	if sequence && count > 0 {
		list := make([]any, count)
		for i := range list {
			item, ok := m[strconv.Itoa(i+1)]
			if !ok {
				return m
			}
			list[i] = item
		}
		return list
	}
	return m
}
