package relay

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lalith-99/slackbridge/internal/models"
	"github.com/lalith-99/slackbridge/internal/observ"
)

// Sink is a live push-transport hub that can fan a message out to every
// connected session.
type Sink interface {
	Emit(event string, msg models.Message)
}

// Scheduler abstracts timer creation so tests can drive retries with
// virtual time instead of sleeping.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func())
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// RetryPolicy bounds the backoff loop used when no sink is registered,
// e.g. during the startup window before the hub is attached.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	CapDelay    time.Duration
}

// Delay returns min(BaseDelay * 2^attempt, CapDelay).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.CapDelay {
			return p.CapDelay
		}
	}
	if d > p.CapDelay {
		return p.CapDelay
	}
	return d
}

// Broadcaster performs best-effort fan-out of stored messages. If no sink
// is live it schedules retries per the policy; once the budget is spent
// the message is dropped from the push path (it stays in the ring buffer
// and is recoverable via replay-on-reconnect).
type Broadcaster struct {
	mu     sync.Mutex
	sink   Sink
	policy RetryPolicy
	sched  Scheduler
	logger *zap.Logger
}

func NewBroadcaster(policy RetryPolicy, sched Scheduler, logger *zap.Logger) *Broadcaster {
	if sched == nil {
		sched = realScheduler{}
	}
	return &Broadcaster{policy: policy, sched: sched, logger: logger}
}

// AttachSink registers the live transport hub. Broadcasts before this
// point enter the retry loop.
func (b *Broadcaster) AttachSink(s Sink) {
	b.mu.Lock()
	b.sink = s
	b.mu.Unlock()
}

func (b *Broadcaster) currentSink() Sink {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sink
}

// Broadcast emits event/msg to all live sessions, returning true when the
// emit happened immediately. External-provenance payloads always go out
// with the provenance flag forced; receivers key rendering off it.
func (b *Broadcaster) Broadcast(event string, msg models.Message) bool {
	if event == models.EventSlackMessage {
		msg.IsFromSlack = true
	}
	if s := b.currentSink(); s != nil {
		s.Emit(event, msg)
		return true
	}
	b.retry(event, msg, 0)
	return false
}

func (b *Broadcaster) retry(event string, msg models.Message, attempt int) {
	if attempt >= b.policy.MaxAttempts {
		observ.BroadcastDrops.Inc()
		b.logger.Warn("dropping broadcast after exhausting retries",
			zap.String("event", event),
			zap.String("message_id", msg.ID),
			zap.Int("attempts", attempt),
		)
		return
	}
	delay := b.policy.Delay(attempt)
	observ.BroadcastRetries.Inc()
	b.sched.AfterFunc(delay, func() {
		if s := b.currentSink(); s != nil {
			s.Emit(event, msg)
			b.logger.Info("broadcast delivered on retry",
				zap.String("event", event),
				zap.String("message_id", msg.ID),
				zap.Int("attempt", attempt+1),
			)
			return
		}
		b.retry(event, msg, attempt+1)
	})
}
