package rock

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRockType(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  RockType
	}{
		{"name", "granite", Granite},
		{"upper case", "  Marble ", Marble},
		{"code", "3", Limestone},
		{"sandstone", "sandstone", Sandstone},
		{"shale code", "5", Shale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRockType(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRockTypeInvalid(t *testing.T) {
	for _, input := range []string{"", "basalt", "0", "6", "99"} {
		_, err := ParseRockType(input)
		require.Error(t, err, input)

		invalid, ok := IsInvalidInput(err)
		require.True(t, ok, input)
		assert.Equal(t, "rock_type", invalid.Field)
	}
}

func TestRockTypeJSON(t *testing.T) {
	var m struct {
		A RockType `json:"a"`
		B RockType `json:"b"`
		C RockType `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"shale","b":2,"c":99}`), &m))
	assert.Equal(t, Shale, m.A)
	assert.Equal(t, Marble, m.B)
	assert.False(t, m.C.Valid())

	require.NoError(t, json.Unmarshal([]byte(`{"a":1.0,"b":5.0,"c":4}`), &m))
	assert.Equal(t, Granite, m.A)
	assert.Equal(t, Shale, m.B)
	assert.Equal(t, Sandstone, m.C)

	err := json.Unmarshal([]byte(`{"a":1.5}`), &m)
	require.Error(t, err)
	invalid, ok := IsInvalidInput(err)
	require.True(t, ok)
	assert.Equal(t, "rock_type", invalid.Field)

	data, err := json.Marshal(Granite)
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))
}

func TestRockTypeJSONRejectsUnknownName(t *testing.T) {
	var rt RockType
	err := json.Unmarshal([]byte(`"obsidian"`), &rt)
	require.Error(t, err)
	_, ok := IsInvalidInput(err)
	assert.True(t, ok)
}

func TestRockTypeString(t *testing.T) {
	assert.Equal(t, "granite", Granite.String())
	assert.Equal(t, "RockType(99)", RockType(99).String())
	assert.Len(t, RockTypes, 5)
	for i, rt := range RockTypes {
		assert.Equal(t, i+1, rt.Code())
	}
}
