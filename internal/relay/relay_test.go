package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lalith-99/slackbridge/internal/models"
)

// fakeSlack is a hand-rolled stand-in for the Slack Web API with call
// counting and per-call failure injection.
type fakeSlack struct {
	mu sync.Mutex

	creates     int
	createErrFn func(name string) error
	created     []string

	posts   []postedMessage
	postErr error

	invites   [][]string
	inviteErr error

	archived   []string
	archiveErr error

	userNames map[string]string
}

type postedMessage struct {
	channelID string
	text      string
}

func (f *fakeSlack) CreateChannel(_ context.Context, name string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErrFn != nil {
		if err := f.createErrFn(name); err != nil {
			return "", "", err
		}
	}
	f.creates++
	id := fmt.Sprintf("C%03d", f.creates)
	f.created = append(f.created, name)
	return id, name, nil
}

func (f *fakeSlack) ArchiveChannel(_ context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.archiveErr != nil {
		return f.archiveErr
	}
	f.archived = append(f.archived, channelID)
	return nil
}

func (f *fakeSlack) InviteUsers(_ context.Context, channelID string, userIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inviteErr != nil {
		return f.inviteErr
	}
	f.invites = append(f.invites, userIDs)
	return nil
}

func (f *fakeSlack) PostMessage(_ context.Context, channelID, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return "", f.postErr
	}
	f.posts = append(f.posts, postedMessage{channelID: channelID, text: text})
	return fmt.Sprintf("%d.000100", len(f.posts)), nil
}

func (f *fakeSlack) ChannelInfo(_ context.Context, channelID string) (string, error) {
	return "channel-" + channelID, nil
}

func (f *fakeSlack) UserName(_ context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name, ok := f.userNames[userID]; ok {
		return name, nil
	}
	return "", errors.New("user not found")
}

func (f *fakeSlack) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

func (f *fakeSlack) postedTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.posts))
	for i, p := range f.posts {
		out[i] = p.text
	}
	return out
}

// recordSink collects broadcast frames.
type recordSink struct {
	mu     sync.Mutex
	frames []sinkFrame
}

type sinkFrame struct {
	event string
	msg   models.Message
}

func (s *recordSink) Emit(event string, msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, sinkFrame{event: event, msg: msg})
}

func (s *recordSink) all() []sinkFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sinkFrame, len(s.frames))
	copy(out, s.frames)
	return out
}

// fakeScheduler captures scheduled retries so tests advance virtual time
// by firing tasks explicitly.
type fakeScheduler struct {
	mu    sync.Mutex
	tasks []scheduledTask
}

type scheduledTask struct {
	delay time.Duration
	fn    func()
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, scheduledTask{delay: d, fn: fn})
}

// fireNext runs the oldest pending task. Returns false when none remain.
func (s *fakeScheduler) fireNext() bool {
	s.mu.Lock()
	if len(s.tasks) == 0 {
		s.mu.Unlock()
		return false
	}
	task := s.tasks[0]
	s.tasks = s.tasks[1:]
	s.mu.Unlock()
	task.fn()
	return true
}

func (s *fakeScheduler) delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.delay
	}
	return out
}

func (s *fakeScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
