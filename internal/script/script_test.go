package script

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gridstorm/internal/model"
)

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e := New(opts...)
	t.Cleanup(e.Close)
	return e
}

func TestHook_Call(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		name string
		body string
		args []any
		want any
	}{
		{"upper", "return string.upper(value)", []any{"abc"}, "ABC"},
		{"integer", "return value * 2", []any{21}, int64(42)},
		{"float", "return value / 4", []any{1}, 0.25},
		{"row field", "return row.first .. ' ' .. row.last", []any{nil, model.Row{"first": "Ada", "last": "Lovelace"}}, "Ada Lovelace"},
		{"field and id", "return field .. '#' .. id", []any{nil, nil, "name", 7}, "name#7"},
		{"nil", "return nil", nil, nil},
		{"table", "return {1, 2, 3}", nil, []any{int64(1), int64(2), int64(3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := e.Compile(tt.name, tt.body)
			require.NoError(t, err)
			got, err := h.Call(tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompile_SyntaxError(t *testing.T) {
	e := newEngine(t)
	_, err := e.Compile("broken", "return (")

	var hookErr *HookError
	require.ErrorAs(t, err, &hookErr)
	assert.Equal(t, "broken", hookErr.Name)
}

func TestSandbox(t *testing.T) {
	e := newEngine(t)
	for _, body := range []string{
		"return os.getenv('HOME')",
		"return io.open('/etc/passwd')",
		"return require('os')",
		"return dofile('/tmp/x.lua')",
	} {
		h, err := e.Compile("sandbox", body)
		require.NoError(t, err, body)
		_, err = h.Call()
		assert.Error(t, err, body)
	}
}

func TestHook_Timeout(t *testing.T) {
	e := newEngine(t, WithTimeout(20*time.Millisecond))
	h, err := e.Compile("spin", "while true do end")
	require.NoError(t, err)

	_, err = h.Call()
	assert.Error(t, err)

	ok, err := e.Compile("after", "return 1")
	require.NoError(t, err)
	got, err := ok.Call()
	require.NoError(t, err)
	assert.Equal(t, int64(1), got, "state is usable after a timeout")
}

func TestAdapters(t *testing.T) {
	e := newEngine(t)
	params := model.CellParams{ID: int64(1), Field: "name", Row: model.Row{"name": "ada", "n": 3}, Value: "ada"}

	getter, err := e.Compile("getter", "return row.n + 1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), getter.ValueGetter()(params))

	formatter, err := e.Compile("formatter", "return '<' .. value .. '>'")
	require.NoError(t, err)
	assert.Equal(t, "<ada>", formatter.ValueFormatter()(params))

	parser, err := e.Compile("parser", "return string.upper(value)")
	require.NoError(t, err)
	assert.Equal(t, "BOB", parser.ValueParser()("bob", params))

	failing, err := e.Compile("failing", "error('nope')")
	require.NoError(t, err)
	assert.Equal(t, "ada", failing.ValueGetter()(params), "falls back to the raw field")
	assert.Equal(t, "raw", failing.ValueParser()("raw", params))
}

func TestComparator(t *testing.T) {
	e := newEngine(t)
	h, err := e.CompileComparator("by length", "return #a - #b")
	require.NoError(t, err)
	cmp := h.Comparator()

	assert.Equal(t, -1, cmp("a", "abc", model.SortCellParams{}, model.SortCellParams{}))
	assert.Equal(t, 1, cmp("abcd", "ab", model.SortCellParams{}, model.SortCellParams{}))
	assert.Equal(t, 0, cmp("ab", "cd", model.SortCellParams{}, model.SortCellParams{}))
}

func TestClosed(t *testing.T) {
	e := New()
	h, err := e.Compile("x", "return 1")
	require.NoError(t, err)
	e.Close()

	_, err = h.Call()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = e.Compile("y", "return 1")
	assert.ErrorIs(t, err, ErrClosed)
}
