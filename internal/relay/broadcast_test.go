package relay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lalith-99/slackbridge/internal/models"
)

func testPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, CapDelay: 3 * time.Second}
}

func TestRetryPolicy_DelayDoublesUpToCap(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 10, BaseDelay: 100 * time.Millisecond, CapDelay: 300 * time.Millisecond}

	assert.Equal(t, 100*time.Millisecond, p.Delay(0))
	assert.Equal(t, 200*time.Millisecond, p.Delay(1))
	assert.Equal(t, 300*time.Millisecond, p.Delay(2))
	assert.Equal(t, 300*time.Millisecond, p.Delay(7))
}

func TestBroadcaster_EmitsImmediatelyWithLiveSink(t *testing.T) {
	sink := &recordSink{}
	b := NewBroadcaster(testPolicy(), &fakeScheduler{}, testLogger())
	b.AttachSink(sink)

	ok := b.Broadcast(models.EventChatMessage, models.Message{ID: "m1"})
	require.True(t, ok)

	frames := sink.all()
	require.Len(t, frames, 1)
	assert.Equal(t, models.EventChatMessage, frames[0].event)
	assert.Equal(t, "m1", frames[0].msg.ID)
}

func TestBroadcaster_RetriesWithExponentialBackoff(t *testing.T) {
	sched := &fakeScheduler{}
	b := NewBroadcaster(testPolicy(), sched, testLogger())

	ok := b.Broadcast(models.EventChatMessage, models.Message{ID: "m1"})
	require.False(t, ok)
	require.Equal(t, []time.Duration{100 * time.Millisecond}, sched.delays())

	var fired []time.Duration
	for {
		pending := sched.delays()
		if len(pending) == 0 {
			break
		}
		fired = append(fired, pending[0])
		sched.fireNext()
	}

	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		1600 * time.Millisecond,
	}, fired)
	assert.Equal(t, 0, sched.pending(), "retry budget must be exhausted")
}

func TestBroadcaster_DeliversWhenSinkAttachesMidRetry(t *testing.T) {
	sched := &fakeScheduler{}
	sink := &recordSink{}
	b := NewBroadcaster(testPolicy(), sched, testLogger())

	b.Broadcast(models.EventChatMessage, models.Message{ID: "m1"})
	sched.fireNext() // attempt 1, still no sink
	sched.fireNext() // attempt 2, still no sink

	b.AttachSink(sink)
	require.True(t, sched.fireNext())

	frames := sink.all()
	require.Len(t, frames, 1)
	assert.Equal(t, "m1", frames[0].msg.ID)
	assert.Equal(t, 0, sched.pending(), "no further retries after delivery")
}

func TestBroadcaster_ForcesProvenanceOnSlackEvents(t *testing.T) {
	sink := &recordSink{}
	b := NewBroadcaster(testPolicy(), &fakeScheduler{}, testLogger())
	b.AttachSink(sink)

	b.Broadcast(models.EventSlackMessage, models.Message{ID: "m1", IsFromSlack: false})

	frames := sink.all()
	require.Len(t, frames, 1)
	assert.True(t, frames[0].msg.IsFromSlack, "slack_message payloads must carry isFromSlack=true")
}

func TestBroadcaster_IndependentRetryChains(t *testing.T) {
	sched := &fakeScheduler{}
	sink := &recordSink{}
	b := NewBroadcaster(testPolicy(), sched, testLogger())

	b.Broadcast(models.EventChatMessage, models.Message{ID: "m1"})
	b.Broadcast(models.EventSlackMessage, models.Message{ID: "m2"})
	require.Equal(t, 2, sched.pending())

	b.AttachSink(sink)
	sched.fireNext()
	sched.fireNext()

	frames := sink.all()
	require.Len(t, frames, 2)
	ids := []string{frames[0].msg.ID, frames[1].msg.ID}
	assert.ElementsMatch(t, []string{"m1", "m2"}, ids)
}
