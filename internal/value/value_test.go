package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMIDIPitchNameRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		midi int
		want string
	}{
		{"middle C", 60, "C4"},
		{"A440", 69, "A4"},
		{"low C", 0, "C-1"},
		{"sharp", 61, "C#4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MIDIToName(tt.midi))
		})
	}
}

func TestNameToMIDI(t *testing.T) {
	assert.Equal(t, 60, NameToMIDI('C', 0, 4))
	assert.Equal(t, 61, NameToMIDI('C', '#', 4))
	assert.Equal(t, 59, NameToMIDI('C', 'b', 4))
}

func TestBinaryOpArithmetic(t *testing.T) {
	v, err := BinaryOp("+", Int{V: 1}, Int{V: 2})
	require.NoError(t, err)
	assert.Equal(t, Int{V: 3}, v)

	v, err = BinaryOp("+", Int{V: 1}, Float{V: 2.5})
	require.NoError(t, err)
	assert.Equal(t, Float{V: 3.5}, v)

	v, err = BinaryOp("/", Int{V: 7}, Int{V: 2})
	require.NoError(t, err)
	assert.Equal(t, Float{V: 3.5}, v)
}

func TestBinaryOpDivisionByZero(t *testing.T) {
	_, err := BinaryOp("/", Int{V: 1}, Int{V: 0})
	require.Error(t, err)
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "E0040", string(opErr.Code))
}

func TestPitchArithmetic(t *testing.T) {
	v, err := BinaryOp("+", Pitch{MIDI: 60}, Int{V: 2})
	require.NoError(t, err)
	assert.Equal(t, Pitch{MIDI: 62}, v)

	v, err = BinaryOp("-", Pitch{MIDI: 64}, Pitch{MIDI: 60})
	require.NoError(t, err)
	assert.Equal(t, Int{V: 4}, v)

	_, err = BinaryOp("+", Pitch{MIDI: 126}, Int{V: 5})
	require.Error(t, err)
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "E0050", string(opErr.Code))
}

func TestDurationArithmetic(t *testing.T) {
	v, err := BinaryOp("+", Duration{N: 1, D: 4}, Duration{N: 1, D: 8})
	require.NoError(t, err)
	d, ok := v.(Duration)
	require.True(t, ok)
	assert.Equal(t, int64(3), d.N)
	assert.Equal(t, int64(8), d.D)
}

func TestTypeMismatch(t *testing.T) {
	_, err := BinaryOp("+", Bool{V: true}, Int{V: 1})
	require.Error(t, err)
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "E0041", string(opErr.Code))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Int{V: 3}, Float{V: 3}))
	assert.True(t, Equal(Pitch{MIDI: 60}, Pitch{MIDI: 60}))
	assert.False(t, Equal(Pitch{MIDI: 60}, Pitch{MIDI: 61}))
	assert.True(t, Equal(
		Array{Elements: []Value{Int{V: 1}, Int{V: 2}}},
		Array{Elements: []Value{Int{V: 1}, Int{V: 2}}},
	))
	assert.False(t, Equal(
		Array{Elements: []Value{Int{V: 1}}},
		Array{Elements: []Value{Int{V: 1}, Int{V: 2}}},
	))
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(Bool{V: false}))
	assert.False(t, Truthy(Null{}))
	assert.True(t, Truthy(Bool{V: true}))
	assert.True(t, Truthy(Int{V: 0}))
	assert.True(t, Truthy(String{V: ""}))
}

func TestEnvConstAssignment(t *testing.T) {
	env := NewEnv(nil)
	env.Define("x", Int{V: 1}, true)

	err := env.Assign("x", Int{V: 2})
	require.Error(t, err)

	env.Define("y", Int{V: 1}, false)
	require.NoError(t, env.Assign("y", Int{V: 2}))
	v, ok := env.Lookup("y")
	require.True(t, ok)
	assert.Equal(t, Int{V: 2}, v)
}

func TestEnvParentLookup(t *testing.T) {
	parent := NewEnv(nil)
	parent.Define("x", String{V: "outer"}, false)
	child := parent.Child()
	child.Define("y", String{V: "inner"}, false)

	v, ok := child.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, String{V: "outer"}, v)

	_, ok = parent.Lookup("y")
	assert.False(t, ok)
}

func TestEnvAssignUndefined(t *testing.T) {
	env := NewEnv(nil)
	err := env.Assign("missing", Int{V: 1})
	require.Error(t, err)
}
