// Package queue keeps the latest message per control key and a bounded log
// of recent activity for monitors.
package queue

import (
	"time"

	"github.com/akisma/pioneer-vision/internal/notify"
	"github.com/akisma/pioneer-vision/sdk/contracts"
)

const statsWindow = time.Second

// Queue coalesces incoming messages per ControlKey. It is not safe for
// concurrent use; the engine serializes access.
type Queue struct {
	logger   contracts.Logger
	sched    contracts.Scheduler
	capacity int

	latest map[contracts.ControlKey]contracts.NormalizedMessage
	order  []contracts.ControlKey
	recent []contracts.NormalizedMessage // newest first

	stats       contracts.QueueStats
	windowStart time.Time
	windowCount int

	hub   *notify.Hub[contracts.QueueSnapshot]
	batch *notify.Batcher
}

// New creates a queue keeping capacity recent messages and notifying
// subscribers at most once per notifyInterval.
func New(logger contracts.Logger, sched contracts.Scheduler, capacity int, notifyInterval time.Duration) *Queue {
	if capacity <= 0 {
		capacity = contracts.DefaultRecentActivityCapacity
	}
	q := &Queue{
		logger:   logger,
		sched:    sched,
		capacity: capacity,
		latest:   make(map[contracts.ControlKey]contracts.NormalizedMessage),
		recent:   make([]contracts.NormalizedMessage, 0, capacity),
		hub:      notify.NewHub[contracts.QueueSnapshot]("queue", logger),
	}
	q.windowStart = sched.Now()
	q.stats.LastUpdate = q.windowStart
	q.batch = notify.NewBatcher(sched, notifyInterval, func() { q.hub.Publish(q.Snapshot()) })
	return q
}

// SetDispatcher routes subscriber deliveries through d.
func (q *Queue) SetDispatcher(d notify.Dispatcher) {
	q.hub.SetDispatcher(d)
}

// Add records msg. A message whose value equals the stored latest value for
// its key is counted as a duplicate and otherwise ignored. Add reports
// whether the message was stored.
func (q *Queue) Add(msg contracts.NormalizedMessage) bool {
	q.stats.TotalProcessed++
	q.tick()

	key := msg.Key()
	existing, seen := q.latest[key]
	if seen && existing.Value == msg.Value {
		q.stats.DuplicatesFiltered++
		return false
	}
	if !seen {
		q.order = append(q.order, key)
	}
	q.latest[key] = msg

	if len(q.recent) < q.capacity {
		q.recent = append(q.recent, contracts.NormalizedMessage{})
	}
	copy(q.recent[1:], q.recent)
	q.recent[0] = msg

	q.batch.Request()
	return true
}

// tick maintains the messages-per-second estimate over a one second window.
func (q *Queue) tick() {
	q.windowCount++
	now := q.sched.Now()
	elapsed := now.Sub(q.windowStart)
	if elapsed < statsWindow {
		return
	}
	q.stats.MessagesPerSecond = float64(q.windowCount) / elapsed.Seconds()
	q.stats.LastUpdate = now
	q.windowCount = 0
	q.windowStart = now
}

// Latest returns the latest message stored for the key.
func (q *Queue) Latest(t contracts.MessageType, channel, primaryID int) (contracts.NormalizedMessage, bool) {
	msg, ok := q.latest[contracts.ControlKey{Type: t, Channel: channel, PrimaryID: primaryID}]
	return msg, ok
}

// AllLatest returns the latest message of every key in first-seen order.
func (q *Queue) AllLatest() []contracts.NormalizedMessage {
	out := make([]contracts.NormalizedMessage, 0, len(q.order))
	for _, k := range q.order {
		out = append(out, q.latest[k])
	}
	return out
}

// Recent returns up to limit messages, newest first. A limit <= 0 returns the whole log.
func (q *Queue) Recent(limit int) []contracts.NormalizedMessage {
	if limit <= 0 || limit > len(q.recent) {
		limit = len(q.recent)
	}
	return append([]contracts.NormalizedMessage(nil), q.recent[:limit]...)
}

// ByType returns the latest messages of the given type.
func (q *Queue) ByType(t contracts.MessageType) []contracts.NormalizedMessage {
	var out []contracts.NormalizedMessage
	for _, k := range q.order {
		if k.Type == t {
			out = append(out, q.latest[k])
		}
	}
	return out
}

// ByChannel returns the latest messages received on channel.
func (q *Queue) ByChannel(channel int) []contracts.NormalizedMessage {
	var out []contracts.NormalizedMessage
	for _, k := range q.order {
		if k.Channel == channel {
			out = append(out, q.latest[k])
		}
	}
	return out
}

// Stats returns the current counters.
func (q *Queue) Stats() contracts.QueueStats {
	s := q.stats
	s.TotalLatestMessages = len(q.latest)
	s.RecentActivityCount = len(q.recent)
	return s
}

// Snapshot returns a copy of the queue state.
func (q *Queue) Snapshot() contracts.QueueSnapshot {
	return contracts.QueueSnapshot{
		LatestMessages: q.AllLatest(),
		RecentActivity: q.Recent(0),
		Stats:          q.Stats(),
	}
}

// Clear drops every stored message and resets the counters.
func (q *Queue) Clear() {
	q.latest = make(map[contracts.ControlKey]contracts.NormalizedMessage)
	q.order = nil
	q.recent = q.recent[:0]
	q.stats.TotalProcessed = 0
	q.stats.DuplicatesFiltered = 0
	q.logger.Debug("message queue cleared")
	q.batch.Request()
}

// Subscribe registers fn for snapshots.
func (q *Queue) Subscribe(fn func(contracts.QueueSnapshot)) (unsubscribe func()) {
	return q.hub.Subscribe(fn)
}

// Close cancels a pending notification.
func (q *Queue) Close() {
	q.batch.Cancel()
}
