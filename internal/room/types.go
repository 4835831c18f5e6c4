// Package room implements the authoritative room state machine (4.H), its
// alarm scheduler (4.I), and the connection/transport layer that feeds it.
package room

import "github.com/lox/meridian/internal/protocol"

// Player is one connected participant (§3). Exactly one player is host.
type Player struct {
	ID      string
	Emoji   string
	Color   string
	Typing  string
}

func (p Player) view() protocol.PlayerView {
	return protocol.PlayerView{ID: p.ID, Emoji: p.Emoji, Color: p.Color, Typing: p.Typing}
}

// Actor is the single actor owned by a player (§3). ActorID always equals
// OwnerID: the model names them separately only because the wire protocol
// does, for forward compatibility with multi-actor ownership this system
// does not implement.
type Actor struct {
	ActorID string
	OwnerID string

	CurrentFace int
	TargetFace  *int

	RouteStartFace         int
	RouteTargetFace        *int
	RouteStartedAtServerMs int64

	CommandID        int64
	PendingCommandID *int64
	PendingTarget    *int

	StateSeq int64

	Moving             bool
	Path               []int
	SegmentDurationsMs []int64
	SegmentIndex       int
	SegmentStartedAtMs int64
}

// newActor constructs a freshly spawned, stationary actor.
func newActor(actorID, ownerID string, face int) *Actor {
	return &Actor{
		ActorID:         actorID,
		OwnerID:         ownerID,
		CurrentFace:     face,
		RouteStartFace:  face,
		Path:            []int{face},
		SegmentIndex:    0,
	}
}

func (a *Actor) bumpSeq() {
	a.StateSeq++
}

// segmentTQ16 is the Q16 fixed-point fraction of progress through the
// current segment, computed with integer math after clamping the float
// division to [0,1] (§9: platform-stable fixed point).
func (a *Actor) segmentTQ16(nowMs int64) int {
	if !a.Moving {
		return 0
	}
	d := a.SegmentDurationsMs[a.SegmentIndex]
	if d <= 0 {
		return 0
	}
	frac := float64(nowMs-a.SegmentStartedAtMs) / float64(d)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return int(frac*65535 + 0.5)
}

func (a *Actor) view(terrainVersion int, nowMs int64) protocol.ActorView {
	v := protocol.ActorView{
		ActorID:                a.ActorID,
		OwnerID:                a.OwnerID,
		TerrainVersion:         terrainVersion,
		StateSeq:               a.StateSeq,
		CommandID:              a.CommandID,
		Moving:                 a.Moving,
		CurrentFace:            a.CurrentFace,
		TargetFace:             a.TargetFace,
		RouteStartFace:         a.RouteStartFace,
		RouteTargetFace:        a.RouteTargetFace,
		RouteStartedAtServerMs: a.RouteStartedAtServerMs,
		SegmentDurationMs:      0,
		SegmentTQ16:            a.segmentTQ16(nowMs),
	}
	if a.Moving && a.SegmentIndex < len(a.Path)-1 {
		from, to := a.Path[a.SegmentIndex], a.Path[a.SegmentIndex+1]
		v.SegmentFromFace = &from
		v.SegmentToFace = &to
		v.SegmentDurationMs = a.SegmentDurationsMs[a.SegmentIndex]
	}
	return v
}

// maxPending returns max(commandId, pendingCommandId ?? 0) per §4.H's
// stale-command check.
func (a *Actor) maxPending() int64 {
	if a.PendingCommandID != nil && *a.PendingCommandID > a.CommandID {
		return *a.PendingCommandID
	}
	return a.CommandID
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }
