package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lalith-99/slackbridge/internal/models"
)

func TestRelevant_LocalMessagesVisibleToEveryone(t *testing.T) {
	m := models.Message{Text: "hi", Sender: "alice", IsFromSlack: false}

	assert.True(t, Relevant(m, Viewer{Username: "alice"}))
	assert.True(t, Relevant(m, Viewer{Username: "bob"}))
	assert.True(t, Relevant(m, Viewer{}))
}

func TestRelevant_TargetedExternalMessage(t *testing.T) {
	m := models.Message{Text: "hi alice", IsFromSlack: true, TargetUser: "alice", ChannelID: "C100"}

	assert.True(t, Relevant(m, Viewer{Username: "alice"}))
	assert.False(t, Relevant(m, Viewer{Username: "bob", ChannelID: "C200"}))

	// The explicit target wins even when the channel would also match.
	assert.False(t, Relevant(m, Viewer{Username: "bob", ChannelID: "C100"}))
}

func TestRelevant_ChannelMatchWhenUntargeted(t *testing.T) {
	m := models.Message{Text: "hi", IsFromSlack: true, ChannelID: "C100"}

	assert.True(t, Relevant(m, Viewer{Username: "alice", ChannelID: "C100"}))
	assert.False(t, Relevant(m, Viewer{Username: "bob", ChannelID: "C200"}))
	assert.False(t, Relevant(m, Viewer{Username: "bob"}))
}

func TestRelevant_SenderFallbackIsCaseInsensitive(t *testing.T) {
	m := models.Message{Text: "hi", IsFromSlack: true, Sender: "Alice"}

	assert.True(t, Relevant(m, Viewer{Username: "alice"}))
	assert.False(t, Relevant(m, Viewer{Username: "bob"}))
	assert.False(t, Relevant(m, Viewer{}))
}
