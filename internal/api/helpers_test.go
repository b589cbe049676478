package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/slackbridge/internal/relay"
	"github.com/lalith-99/slackbridge/internal/state"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubSlack is a minimal Slack API stand-in for handler tests.
type stubSlack struct {
	mu       sync.Mutex
	creates  int
	posts    int
	archived []string

	createErr  error
	archiveErr error
	infoErr    error
}

func (s *stubSlack) CreateChannel(_ context.Context, name string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return "", "", s.createErr
	}
	s.creates++
	return fmt.Sprintf("C%03d", s.creates), name, nil
}

func (s *stubSlack) ArchiveChannel(_ context.Context, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.archiveErr != nil {
		return s.archiveErr
	}
	s.archived = append(s.archived, channelID)
	return nil
}

func (s *stubSlack) InviteUsers(_ context.Context, _ string, _ []string) error {
	return nil
}

func (s *stubSlack) PostMessage(_ context.Context, _ string, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts++
	return fmt.Sprintf("%d.000100", s.posts), nil
}

func (s *stubSlack) ChannelInfo(_ context.Context, channelID string) (string, error) {
	if s.infoErr != nil {
		return "", s.infoErr
	}
	return "channel-" + channelID, nil
}

func (s *stubSlack) UserName(_ context.Context, _ string) (string, error) {
	return "", errors.New("not implemented")
}

type testEnv struct {
	st    *state.State
	api   *stubSlack
	prov  *relay.Provisioner
	disp  *relay.Dispatcher
	users *relay.DefaultUsers
}

func newTestEnv() *testEnv {
	logger := zap.NewNop()
	st := state.New(50)
	api := &stubSlack{}
	users := relay.NewDefaultUsers(nil)
	policy := relay.RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond, CapDelay: time.Millisecond}
	bc := relay.NewBroadcaster(policy, nil, logger)
	prov := relay.NewProvisioner(api, st.Bindings, "CFALLBACK", users, logger)
	disp := relay.NewDispatcher(st, bc, prov, api, logger)
	return &testEnv{st: st, api: api, prov: prov, disp: disp, users: users}
}

func doRequest(r http.Handler, method, target string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
