package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexibleStringValue(t *testing.T) {
	tests := []struct {
		name  string
		input json.RawMessage
		want  string
	}{
		{name: "string value", input: json.RawMessage(`"hello"`), want: "hello"},
		{name: "integer value", input: json.RawMessage(`42`), want: "42"},
		{name: "float value", input: json.RawMessage(`3.14`), want: "3.14"},
		{name: "boolean true", input: json.RawMessage(`true`), want: "true"},
		{name: "null value", input: json.RawMessage(`null`), want: ""},
		{name: "nil raw message", input: nil, want: ""},
		{name: "nested object falls back to raw string", input: json.RawMessage(`{"a":1}`), want: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FlexibleStringValue(tt.input))
		})
	}
}

func TestStringList_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  StringList
	}{
		{name: "array of strings", input: `["#savings", "#money"]`, want: StringList{"#savings", "#money"}},
		{name: "array with mixed scalars", input: `["one", 2, true]`, want: StringList{"one", "2", "true"}},
		{name: "blank entries dropped", input: `["one", "  ", null]`, want: StringList{"one"}},
		{name: "bare string", input: `"#savings"`, want: StringList{"#savings"}},
		{name: "empty string", input: `""`, want: nil},
		{name: "null", input: `null`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var wrapper struct {
				List StringList `json:"list"`
			}
			err := json.Unmarshal([]byte(`{"list": `+tt.input+`}`), &wrapper)
			require.NoError(t, err)
			assert.Equal(t, tt.want, wrapper.List)
		})
	}
}

func TestStringList_RejectsObject(t *testing.T) {
	var wrapper struct {
		List StringList `json:"list"`
	}
	err := json.Unmarshal([]byte(`{"list": {"a": "b"}}`), &wrapper)
	assert.Error(t, err)
}
