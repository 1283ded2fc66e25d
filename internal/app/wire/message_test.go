package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slidesync/internal/app/project"
)

func TestEnvelopeCarriesTypedPayload(t *testing.T) {
	env, err := NewEnvelope(EventJoinProject, JoinProjectPayload{
		ProjectID: "demo",
		User:      project.User{ID: "user_1", Name: "Alice"},
	})
	require.NoError(t, err)

	raw, err := env.Encode()
	require.NoError(t, err)

	var decoded Envelope
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, EventJoinProject, decoded.Type)

	var payload JoinProjectPayload
	require.NoError(t, json.Unmarshal(decoded.Payload, &payload))
	assert.Equal(t, "demo", payload.ProjectID)
	assert.Equal(t, "Alice", payload.User.Name)
}

func TestEnvelopeFieldNamesMatchProtocol(t *testing.T) {
	env, err := NewEnvelope(EventBlockUpdate, BlockUpdatePayload{
		ProjectID: "demo",
		SlideID:   "s1",
		BlockID:   "b7",
		UserID:    "user_1",
		Timestamp: 1700000000000,
	})
	require.NoError(t, err)

	raw, err := env.Encode()
	require.NoError(t, err)

	// Field names are part of the protocol contract with non-Go peers.
	assert.Contains(t, string(raw), `"type":"block_update"`)
	assert.Contains(t, string(raw), `"projectId":"demo"`)
	assert.Contains(t, string(raw), `"blockId":"b7"`)
	assert.Contains(t, string(raw), `"timestamp":1700000000000`)
}

func TestEnvelopeToleratesUnknownEvents(t *testing.T) {
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(`{"type":"future_thing","payload":{"x":1}}`), &env))
	assert.Equal(t, EventType("future_thing"), env.Type)
	assert.NotNil(t, env.Payload)
}
