package flex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docgraph/internal/fault"
)

func TestContentMarshalJSON(t *testing.T) {
	tests := []struct {
		content Content
		want    string
	}{
		{C("title", Text("v1")), `{"label":"title","type":"text","value":"v1"}`},
		{C("count", Int64(-42)), `{"label":"count","type":"int64","value":-42}`},
		{C("budget", MustQuantity(10000, 4, "HUSD")), `{"label":"budget","type":"quantity","value":"1.0000 HUSD"}`},
		{C("at", Timestamp(1700000000123456)), `{"label":"at","type":"timestamp","value":"2023-11-14T22:13:20.123456Z"}`},
	}

	for _, tt := range tests {
		t.Run(tt.content.Label, func(t *testing.T) {
			data, err := json.Marshal(tt.content)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))

			var back Content
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, tt.content.Label, back.Label)
			assert.True(t, Equal(tt.content.Value, back.Value))
		})
	}
}

func TestContentGroupsJSONRoundTrip(t *testing.T) {
	groups := sixVariantGroups()

	data, err := json.Marshal(groups)
	require.NoError(t, err)

	var back []ContentGroup
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, EqualGroups(groups, back))
	assert.Equal(t, MustComputeHash(groups), MustComputeHash(back))
}

func TestContentUnmarshalJSONRejects(t *testing.T) {
	inputs := map[string]string{
		"float":        `{"label":"n","type":"int64","value":1.5}`,
		"unknown type": `{"label":"n","type":"float","value":1}`,
		"missing":      `{"label":"n","type":"text"}`,
		"wrong shape":  `{"label":"n","type":"text","value":7}`,
		"bad digest":   `{"label":"n","type":"digest","value":"abc"}`,
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			var c Content
			err := json.Unmarshal([]byte(in), &c)
			require.Error(t, err)
			assert.True(t, fault.IsEncodingError(err), "got %v", err)
		})
	}
}

func TestParseValueLooseInputs(t *testing.T) {
	v, err := ParseValue("int64", 7)
	require.NoError(t, err)
	assert.Equal(t, Int64(7), v)

	v, err = ParseValue("int64", "-9")
	require.NoError(t, err)
	assert.Equal(t, Int64(-9), v)

	v, err = ParseValue("timestamp", time.Date(2023, 11, 14, 22, 13, 20, 123456000, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, Timestamp(1700000000123456), v)

	v, err = ParseValue("timestamp", int64(5))
	require.NoError(t, err)
	assert.Equal(t, Timestamp(5), v)

	_, err = ParseValue("int64", 1.0)
	assert.True(t, fault.IsEncodingError(err), "floats are forbidden even when integral")

	_, err = ParseValue("int64", uint64(1)<<63)
	assert.True(t, fault.IsEncodingError(err))

	_, err = ParseValue("identifier", "with space")
	assert.True(t, fault.IsEncodingError(err))
}
