package room

import (
	"time"

	"github.com/coder/quartz"
)

// snapshotIntervalMs is the default SNAPSHOT_INTERVAL_MS (§6), used unless
// ServerConfig overrides it.
const snapshotIntervalMs = 500

// alarm is the single-pending-wakeup scheduler (4.I). It is idempotent:
// Reschedule always recomputes the desired wakeup from first principles,
// never by adding or subtracting offsets from a previous schedule (§9).
type alarm struct {
	clock      quartz.Clock
	timer      *quartz.Timer
	fire       func()
	intervalMs int
}

func newAlarm(clock quartz.Clock, fire func()) *alarm {
	return &alarm{clock: clock, fire: fire, intervalMs: snapshotIntervalMs}
}

// reschedule cancels any pending wakeup and, if nextEdgeAt is non-nil (at
// least one actor is moving), schedules a new one at
// max(now+1ms, min(nextEdgeAt, heartbeatAt)).
func (a *alarm) reschedule(nextEdgeAt *time.Time, lastSnapshotAt time.Time) {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	if nextEdgeAt == nil {
		return
	}
	now := a.clock.Now()
	heartbeatAt := lastSnapshotAt.Add(time.Duration(a.intervalMs) * time.Millisecond)

	target := *nextEdgeAt
	if heartbeatAt.Before(target) {
		target = heartbeatAt
	}
	floor := now.Add(time.Millisecond)
	if target.Before(floor) {
		target = floor
	}

	a.timer = a.clock.AfterFunc(target.Sub(now), a.fire)
}

// cancel drops any pending wakeup.
func (a *alarm) cancel() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
