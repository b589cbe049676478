package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lalith-99/slackbridge/internal/models"
)

func messageRouter(env *testEnv) *gin.Engine {
	h := NewMessageHandler(env.st, env.disp, zap.NewNop())
	r := gin.New()
	r.GET("/api/messages", h.List)
	r.POST("/api/messages", h.Create)
	return r
}

func TestListMessages_RequiresUser(t *testing.T) {
	w := doRequest(messageRouter(newTestEnv()), http.MethodGet, "/api/messages", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "user is required")
}

func TestListMessages_FiltersAndSortsForViewer(t *testing.T) {
	env := newTestEnv()
	env.st.Bindings.Bind(models.UserKey{Name: "alice", Contact: "a@x.com"}, "C100")

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	env.st.Slack.Add(models.Message{ID: "s2", Text: "second", IsFromSlack: true, TargetUser: "alice", Timestamp: base.Add(time.Minute)})
	env.st.Slack.Add(models.Message{ID: "s1", Text: "first", IsFromSlack: true, ChannelID: "C100", Timestamp: base})
	env.st.Slack.Add(models.Message{ID: "sb", Text: "for bob", IsFromSlack: true, TargetUser: "bob", Timestamp: base.Add(2 * time.Minute)})

	w := doRequest(messageRouter(env), http.MethodGet, "/api/messages?user=alice&contact=a@x.com", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Messages []models.Message `json:"messages"`
		Status   string           `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "s1", resp.Messages[0].ID, "buffer order is not delivery order; sort by timestamp")
	assert.Equal(t, "s2", resp.Messages[1].ID)
}

func TestListMessages_EmptyBufferReturnsEmptyArray(t *testing.T) {
	w := doRequest(messageRouter(newTestEnv()), http.MethodGet, "/api/messages?user=alice", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"messages":[]`)
}

func TestCreateMessage_RejectsMissingFields(t *testing.T) {
	r := messageRouter(newTestEnv())

	w := doRequest(r, http.MethodPost, "/api/messages", strings.NewReader(`{"sender":"alice"}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "message and sender are required")

	w = doRequest(r, http.MethodPost, "/api/messages", strings.NewReader(`not json`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateMessage_StoresRelaysAndReportsSlackStatus(t *testing.T) {
	env := newTestEnv()
	body := `{"message":"hello","sender":"alice","contact":"a@x.com"}`

	w := doRequest(messageRouter(env), http.MethodPost, "/api/messages", strings.NewReader(body), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success     bool               `json:"success"`
		Message     models.Message     `json:"message"`
		SlackStatus models.SlackStatus `json:"slackStatus"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Message.ID)
	assert.True(t, resp.SlackStatus.Success)
	assert.Equal(t, "C001", resp.SlackStatus.Channel)

	assert.Equal(t, 1, env.st.Chat.Len())
}

func TestCreateMessage_DuplicateClientIDSkipsRelay(t *testing.T) {
	env := newTestEnv()
	r := messageRouter(env)
	body := `{"message":"hello","sender":"alice","contact":"a@x.com","clientMessageId":"cid-1"}`

	w := doRequest(r, http.MethodPost, "/api/messages", strings.NewReader(body), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodPost, "/api/messages", strings.NewReader(body), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success     bool               `json:"success"`
		SlackStatus models.SlackStatus `json:"slackStatus"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success, "a duplicate is acknowledged, not errored")
	assert.False(t, resp.SlackStatus.Success)
	assert.Equal(t, "duplicate message", resp.SlackStatus.Error)
	assert.Equal(t, 1, env.st.Chat.Len())
}
