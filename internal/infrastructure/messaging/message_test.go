package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage_PayloadRoundTrip(t *testing.T) {
	msg, err := NewMessage("m-1", TypeArtifactCreated, ArtifactEvent{Kind: "lesson", ArtifactID: 9, OwnerID: "u"})
	require.NoError(t, err)
	assert.Equal(t, TypeArtifactCreated, msg.Type)

	var evt ArtifactEvent
	require.NoError(t, msg.UnmarshalPayload(&evt))
	assert.Equal(t, uint64(9), evt.ArtifactID)
	assert.Equal(t, "lesson", evt.Kind)
	assert.Equal(t, "u", evt.OwnerID)
}

func TestMessage_SetMetadataSkipsEmpty(t *testing.T) {
	msg := &Message{}
	msg.SetMetadata("request_id", "")
	assert.Nil(t, msg.Metadata)

	msg.SetMetadata("request_id", "r-1")
	assert.Equal(t, "r-1", msg.Metadata["request_id"])
}
