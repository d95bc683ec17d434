package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatJSON_UnexpandedReferences(t *testing.T) {
	chat := &Chat{ID: "c1", UserIDs: []string{"u1", "u2"}, GroupAdminID: "u1", LatestMessageID: "m1"}
	raw, err := json.Marshal(chat)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, []any{"u1", "u2"}, got["users"])
	assert.Equal(t, "u1", got["groupAdmin"])
	assert.Equal(t, "m1", got["latestMessage"])
}

func TestChatJSON_ExpandedWins(t *testing.T) {
	chat := Chat{ID: "c1", UserIDs: []string{"u1"}, Users: []User{{ID: "u1", Name: "Ada"}}}
	raw, err := json.Marshal(chat)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"users":[{"_id":"u1","name":"Ada"}]`)
	assert.NotContains(t, string(raw), "groupAdmin")
}

func TestMessageJSON_RoundTrip(t *testing.T) {
	msg := &Message{ID: "m1", SenderID: "u1", ChatID: "c1", Content: "hi"}
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"sender":"u1"`)
	assert.Contains(t, string(raw), `"chat":"c1"`)

	var back Message
	require.NoError(t, json.Unmarshal(raw, &back))
	require.NotNil(t, back.Sender)
	assert.Equal(t, "u1", back.Sender.ID)
	require.NotNil(t, back.Chat)
	assert.Equal(t, "c1", back.Chat.ID)
}

func TestMessageJSON_ChatWithBareMembers(t *testing.T) {
	var msg Message
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"m1","sender":"u1","chat":{"_id":"c1","users":["u1","u2"]}}`), &msg))
	require.NotNil(t, msg.Chat)
	assert.Equal(t, []string{"u1", "u2"}, msg.Chat.MemberIDs())
}
