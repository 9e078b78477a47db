package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentJSONRoundTrip(t *testing.T) {
	original := Content{
		Role: "assistant",
		Parts: []Part{
			TextPart{Text: "checking the weather"},
			FunctionCallPart{FunctionCall: FunctionCall{ID: "c1", Name: "get_weather", Arguments: `{"city":"Hamburg"}`}},
			FunctionResponsePart{FunctionResponse: FunctionResponse{ID: "c1", Name: "get_weather", Response: map[string]any{"temp": 21.0}}},
			DataPart{Data: map[string]any{"chart": "base64..."}},
		},
	}

	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Content
	require.NoError(t, json.Unmarshal(raw, &decoded))

	require.Len(t, decoded.Parts, 4)
	assert.Equal(t, "assistant", decoded.Role)
	assert.IsType(t, TextPart{}, decoded.Parts[0])
	assert.IsType(t, FunctionCallPart{}, decoded.Parts[1])
	assert.IsType(t, FunctionResponsePart{}, decoded.Parts[2])
	assert.IsType(t, DataPart{}, decoded.Parts[3])

	fc := decoded.Parts[1].(FunctionCallPart).FunctionCall
	assert.Equal(t, "c1", fc.ID)
	assert.Equal(t, `{"city":"Hamburg"}`, fc.Arguments)
}

func TestContentUnmarshalUnknownPartType(t *testing.T) {
	raw := []byte(`{"role":"assistant","parts":[{"type":"hologram"}]}`)

	var decoded Content
	err := json.Unmarshal(raw, &decoded)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown part type")
}
