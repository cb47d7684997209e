package queue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID      string `json:"id"`
	Horizon int    `json:"horizon"`
}

func TestParsePayload(t *testing.T) {
	want := payload{ID: "a", Horizon: 7}
	raw, err := json.Marshal(want)
	require.NoError(t, err)

	tests := []struct {
		name string
		in   interface{}
	}{
		{"pointer", &want},
		{"value", want},
		{"raw", json.RawMessage(raw)},
		{"bytes", raw},
		{"map", map[string]interface{}{"id": "a", "horizon": 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePayload[payload](tt.in)
			require.NoError(t, err)
			assert.Equal(t, want, *got)
		})
	}

	_, err = ParsePayload[payload](42)
	assert.Error(t, err)
	_, err = ParsePayload[payload](json.RawMessage(`{`))
	assert.Error(t, err)
}

func TestMessageRoundTripKeepsPayloadRaw(t *testing.T) {
	b, err := json.Marshal(Message{ID: "1", Type: "forecast", Payload: json.RawMessage(`{"id":"s","horizon":3}`)})
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(b, &msg))
	got, err := ParsePayload[payload](msg.Payload)
	require.NoError(t, err)
	assert.Equal(t, payload{ID: "s", Horizon: 3}, *got)
}
