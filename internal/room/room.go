package room

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lox/meridian/internal/navgraph"
	"github.com/lox/meridian/internal/protocol"
	"github.com/lox/meridian/internal/refine"
)

// maxHistory is MAX_HISTORY (§6).
const maxHistory = 100

// Room is the authoritative room state machine (4.H). It is logically a
// single-threaded cooperative actor (§5: no parallel writer); the mutex
// here serializes the connection read-pump goroutines and the alarm's
// fire callback onto that same logical timeline rather than expressing
// real concurrent mutation.
type Room struct {
	mu sync.Mutex

	clock    quartz.Clock
	logger   zerolog.Logger
	palette  Palette
	cosmetic *rand.Rand

	connections []*Connection
	players     map[string]*Player
	actors      map[string]*Actor
	history     []protocol.HistoryEntry

	hostID       string
	sessionStart *time.Time

	runtime         *Runtime
	refineCache     *refine.Cache
	lastPublishedBy string

	snapshotSeq    int64
	lastSnapshotAt time.Time

	alarm *alarm
}

// New constructs an empty room (state "empty" per §4.H).
func New(clock quartz.Clock, logger zerolog.Logger, palette Palette) *Room {
	r := &Room{
		clock:       clock,
		logger:      logger,
		palette:     palette,
		cosmetic:    rand.New(rand.NewSource(time.Now().UnixNano())),
		players:     map[string]*Player{},
		actors:      map[string]*Actor{},
		refineCache: &refine.Cache{},
	}
	r.alarm = newAlarm(clock, r.onAlarmFire)
	return r
}

// Connect accepts a new connection into the room (§4.H Connection accept).
func (r *Room) Connect(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	player := &Player{
		ID:    c.ID,
		Emoji: r.palette.Emojis[r.cosmetic.Intn(len(r.palette.Emojis))],
		Color: r.palette.Colors[r.cosmetic.Intn(len(r.palette.Colors))],
	}
	r.players[c.ID] = player
	r.connections = append(r.connections, c)

	if r.hostID == "" {
		r.hostID = c.ID
		now := r.clock.Now()
		r.sessionStart = &now
	}

	prevActors := len(r.actors)
	if r.runtime != nil {
		r.ensureActor(player)
	}

	r.unicast(c, &protocol.Welcome{Type: protocol.TypeWelcome, ID: c.ID})
	r.broadcastState()
	if len(r.actors) != prevActors {
		r.broadcastWorldSnapshot()
	}
}

// Disconnect removes a connection (§4.H Disconnect).
func (r *Room) Disconnect(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disconnectLocked(c)
}

func (r *Room) disconnectLocked(c *Connection) {
	if _, ok := r.players[c.ID]; !ok {
		return
	}
	delete(r.players, c.ID)
	delete(r.actors, c.ID)
	for i, conn := range r.connections {
		if conn == c {
			r.connections = append(r.connections[:i:i], r.connections[i+1:]...)
			break
		}
	}

	if r.hostID == c.ID {
		if len(r.connections) > 0 {
			r.hostID = r.connections[0].ID
		} else {
			r.hostID = ""
			r.sessionStart = nil
		}
	}

	r.broadcastState()
	if r.runtime != nil {
		r.broadcastWorldSnapshot()
	}
	r.rescheduleAlarm()
}

// SetSnapshotInterval overrides the heartbeat interval, per
// ServerConfig.SnapshotIntervalMs: while any actor is moving, the alarm
// fires no later than this long after the last world snapshot. With no
// actor moving the alarm is cancelled. Call it before the room accepts any
// connection.
func (r *Room) SetSnapshotInterval(ms int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ms > 0 {
		r.alarm.intervalMs = ms
	}
}

// Kick forcibly evicts a connection by ID, for the operator admin
// console. It reports whether a matching connection was found.
func (r *Room) Kick(connectionID string) bool {
	r.mu.Lock()
	var target *Connection
	for _, c := range r.connections {
		if c.ID == connectionID {
			target = c
			break
		}
	}
	r.mu.Unlock()
	if target == nil {
		return false
	}
	target.Close()
	return true
}

// Shutdown closes every connection concurrently and cancels the alarm,
// mirroring the teacher's errgroup-coordinated multi-goroutine shutdown
// in server.go/pool.go. It does not stop the HTTP listener — that is the
// caller's responsibility.
func (r *Room) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.alarm.cancel()
	conns := append([]*Connection(nil), r.connections...)
	r.mu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	for _, c := range conns {
		c := c
		g.Go(func() error {
			c.Close()
			return nil
		})
	}
	return g.Wait()
}

// HandleFrame parses and dispatches one client text frame. Parse/schema
// failures are silently dropped per §7 — never surfaced, never
// disconnecting.
func (r *Room) HandleFrame(c *Connection, raw []byte) {
	typ, msg, err := protocol.ParseClient(raw)
	if err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch typ {
	case protocol.TypeJoin:
		r.handleJoin(c)
	case protocol.TypeTyping:
		r.handleTyping(c, msg.(*protocol.Typing))
	case protocol.TypeLaunch:
		r.handleLaunch(c, msg.(*protocol.Launch))
	case protocol.TypeTerrainPublish:
		r.handleTerrainPublish(c, msg.(*protocol.TerrainPublish))
	case protocol.TypeActorMove:
		r.handleActorMove(c, msg.(*protocol.ActorMove))
	}
}

func (r *Room) handleJoin(c *Connection) {
	r.unicast(c, r.stateMessage())
	r.unicast(c, &protocol.History{Type: protocol.TypeHistory, Messages: append([]protocol.HistoryEntry(nil), r.history...)})
	if r.runtime != nil {
		r.unicast(c, r.terrainSnapshotMessage())
		r.unicast(c, r.worldSnapshotMessage())
		// A joining client is a second reader of the same runtime; resolving
		// here should always be a cache hit against the host's publish-time
		// entry unless the runtime's controls changed underneath us.
		r.refineCache.Resolve(r.runtime.Terrain, r.runtime.RenderControls)
	}
}

func (r *Room) handleTyping(c *Connection, msg *protocol.Typing) {
	p, ok := r.players[c.ID]
	if !ok || p.Typing == msg.Text {
		return
	}
	p.Typing = msg.Text
	r.broadcastState()
}

func (r *Room) handleLaunch(c *Connection, msg *protocol.Launch) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	p, ok := r.players[c.ID]
	if !ok {
		return
	}
	r.history = append(r.history, protocol.HistoryEntry{Text: text, Color: p.Color, Emoji: p.Emoji})
	if len(r.history) > maxHistory {
		r.history = r.history[len(r.history)-maxHistory:]
	}
	r.broadcast(&protocol.LaunchBroadcast{Type: protocol.TypeLaunch, Text: text, ID: p.ID, Color: p.Color, Emoji: p.Emoji})
}

func (r *Room) handleTerrainPublish(c *Connection, msg *protocol.TerrainPublish) {
	if c.ID != r.hostID {
		r.unicast(c, &protocol.TerrainPublishForbidden{Type: protocol.TypePublishForbid})
		return
	}

	version := 1
	if r.runtime != nil {
		version = r.runtime.TerrainVersion + 1
	}
	rt, err := buildRuntime(version, msg.Terrain)
	if err != nil {
		r.unicast(c, &protocol.TerrainPublishInvalid{Type: protocol.TypePublishInvalid, Reason: err.Error()})
		return
	}

	r.runtime = rt
	r.lastPublishedBy = c.ID
	r.refineCache.Resolve(rt.Terrain, rt.RenderControls)

	ids := make([]string, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	actors := make(map[string]*Actor, len(ids))
	if len(rt.Graph.LandFaceIds) > 0 {
		for _, id := range ids {
			face := pickSpawnFace(rt.TerrainVersion, id, rt.Graph.LandFaceIds)
			actors[id] = newActor(id, id, face)
		}
	}
	r.actors = actors

	r.broadcast(r.terrainSnapshotMessage())
	r.broadcast(r.worldSnapshotMessage())
	r.rescheduleAlarm()
}

func (r *Room) handleActorMove(c *Connection, msg *protocol.ActorMove) {
	reject := func(reason protocol.RejectReason) {
		tv := 0
		if r.runtime != nil {
			tv = r.runtime.TerrainVersion
		}
		r.unicast(c, &protocol.ActorReject{Type: protocol.TypeActorReject, ActorID: msg.ActorID, CommandID: msg.CommandID, Reason: reason, TerrainVersion: tv})
	}

	if r.runtime == nil {
		reject(protocol.ReasonTerrainNotReady)
		return
	}
	actor, ok := r.actors[msg.ActorID]
	if !ok || actor.OwnerID != c.ID || actor.ActorID != msg.ActorID {
		reject(protocol.ReasonActorNotOwned)
		return
	}
	if msg.TerrainVersion != r.runtime.TerrainVersion {
		reject(protocol.ReasonTerrainVersionMismatch)
		return
	}
	if msg.CommandID <= actor.maxPending() {
		reject(protocol.ReasonStaleCommandID)
		return
	}
	if msg.TargetFace < 0 || msg.TargetFace >= len(r.runtime.Graph.Nodes) {
		reject(protocol.ReasonTargetUnreachable)
		return
	}

	now := r.clock.Now().UnixMilli()
	r.advanceActor(actor, now)

	if actor.Moving {
		nextFace := actor.Path[actor.SegmentIndex+1]
		result := navgraph.FindPath(r.runtime.Graph, nextFace, msg.TargetFace)
		if len(result.FacePath) == 0 || math.IsInf(result.TotalCost, 1) {
			reject(protocol.ReasonNoPath)
			return
		}
		actor.PendingCommandID = int64Ptr(msg.CommandID)
		actor.PendingTarget = intPtr(msg.TargetFace)
		r.rescheduleAlarm()
		return
	}

	if !r.startActorRoute(actor, msg.CommandID, msg.TargetFace, now) {
		reject(protocol.ReasonNoPath)
		return
	}
	r.broadcastWorldSnapshot()
	r.rescheduleAlarm()
}

// ensureActor spawns an actor for player if one isn't already present and
// terrain is ready (§4.H Connection accept).
func (r *Room) ensureActor(player *Player) {
	if _, ok := r.actors[player.ID]; ok {
		return
	}
	if r.runtime == nil || len(r.runtime.Graph.LandFaceIds) == 0 {
		return
	}
	face := pickSpawnFace(r.runtime.TerrainVersion, player.ID, r.runtime.Graph.LandFaceIds)
	r.actors[player.ID] = newActor(player.ID, player.ID, face)
}

// startActorRoute begins (or trivially completes) a route for actor toward
// target, starting from the actor's current face (§4.H).
func (r *Room) startActorRoute(actor *Actor, commandID int64, target int, startedAt int64) bool {
	start := actor.CurrentFace
	if start == target {
		actor.CommandID = commandID
		actor.TargetFace = nil
		actor.RouteTargetFace = nil
		actor.Path = []int{start}
		actor.Moving = false
		actor.SegmentIndex = 0
		actor.SegmentDurationsMs = nil
		actor.bumpSeq()
		r.broadcast(&protocol.ActorCommand{
			Type: protocol.TypeActorCommand, ActorID: actor.ActorID, OwnerID: actor.OwnerID,
			CommandID: commandID, StartFace: start, TargetFace: target,
			StartedAt: startedAt, RouteStartedAtServerMs: startedAt, TerrainVersion: r.runtime.TerrainVersion,
		})
		return true
	}

	result := navgraph.FindPath(r.runtime.Graph, start, target)
	if len(result.FacePath) < 2 || math.IsInf(result.TotalCost, 1) {
		return false
	}

	durations := make([]int64, len(result.FacePath)-1)
	for i := 0; i < len(result.FacePath)-1; i++ {
		cost, ok := r.edgeCost(result.FacePath[i], result.FacePath[i+1])
		if !ok || math.IsInf(cost, 1) {
			return false
		}
		d := int64(r.runtime.Terrain.Movement.TimePerFaceSeconds * cost * 1000)
		if d <= 0 {
			return false
		}
		durations[i] = d
	}

	actor.CommandID = commandID
	actor.TargetFace = intPtr(target)
	actor.RouteStartFace = start
	actor.RouteTargetFace = intPtr(target)
	actor.RouteStartedAtServerMs = startedAt
	actor.Path = result.FacePath
	actor.SegmentDurationsMs = durations
	actor.SegmentIndex = 0
	actor.SegmentStartedAtMs = startedAt
	actor.Moving = true
	actor.bumpSeq()

	r.broadcast(&protocol.ActorCommand{
		Type: protocol.TypeActorCommand, ActorID: actor.ActorID, OwnerID: actor.OwnerID,
		CommandID: commandID, StartFace: start, TargetFace: target,
		StartedAt: startedAt, RouteStartedAtServerMs: startedAt, TerrainVersion: r.runtime.TerrainVersion,
	})
	return true
}

func (r *Room) edgeCost(from, to int) (float64, bool) {
	for _, e := range r.runtime.Graph.Nodes[from].Edges {
		if e.NeighborFaceID == to {
			return e.StepCost, true
		}
	}
	return 0, false
}

// advanceActor runs the §4.H timing loop, bringing actor's position up to
// date as of nowMs, consuming any pending command at the segment boundary
// where it arrives.
func (r *Room) advanceActor(actor *Actor, nowMs int64) {
	for actor.Moving {
		nextIdx := actor.SegmentIndex + 1
		if nextIdx >= len(actor.Path) || actor.SegmentDurationsMs[actor.SegmentIndex] <= 0 {
			r.finishActor(actor, nowMs)
			break
		}
		d := actor.SegmentDurationsMs[actor.SegmentIndex]
		if actor.SegmentStartedAtMs+d > nowMs {
			break
		}

		actor.CurrentFace = actor.Path[nextIdx]
		actor.SegmentIndex = nextIdx
		actor.SegmentStartedAtMs += d
		actor.bumpSeq()

		if actor.PendingCommandID != nil {
			cmdID := *actor.PendingCommandID
			target := *actor.PendingTarget
			actor.PendingCommandID = nil
			actor.PendingTarget = nil
			if !r.startActorRoute(actor, cmdID, target, actor.SegmentStartedAtMs) {
				r.finishActor(actor, actor.SegmentStartedAtMs)
			}
			continue
		}
		if actor.SegmentIndex >= len(actor.Path)-1 {
			r.finishActor(actor, actor.SegmentStartedAtMs)
			break
		}
	}
}

func (r *Room) finishActor(actor *Actor, atMs int64) {
	actor.Moving = false
	actor.TargetFace = nil
	actor.RouteTargetFace = nil
	actor.PendingCommandID = nil
	actor.PendingTarget = nil
	actor.Path = []int{actor.CurrentFace}
	actor.SegmentIndex = 0
	actor.SegmentDurationsMs = nil
	actor.SegmentStartedAtMs = atMs
	actor.bumpSeq()
}

// onAlarmFire is the alarm scheduler's fire callback (4.I).
func (r *Room) onAlarmFire() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runtime == nil {
		return
	}
	now := r.clock.Now()
	nowMs := now.UnixMilli()

	changed := false
	for _, a := range r.actors {
		before := a.StateSeq
		r.advanceActor(a, nowMs)
		if a.StateSeq != before {
			changed = true
		}
	}

	if changed || now.Sub(r.lastSnapshotAt) >= time.Duration(r.alarm.intervalMs)*time.Millisecond {
		r.broadcastWorldSnapshot()
	}
	r.rescheduleAlarm()
}

func (r *Room) rescheduleAlarm() {
	var nextEdge *time.Time
	for _, a := range r.actors {
		if !a.Moving {
			continue
		}
		t := time.UnixMilli(a.SegmentStartedAtMs + a.SegmentDurationsMs[a.SegmentIndex])
		if nextEdge == nil || t.Before(*nextEdge) {
			nextEdge = &t
		}
	}
	r.alarm.reschedule(nextEdge, r.lastSnapshotAt)
}

func (r *Room) stateMessage() *protocol.State {
	players := make([]protocol.PlayerView, 0, len(r.connections))
	for _, c := range r.connections {
		if p, ok := r.players[c.ID]; ok {
			players = append(players, p.view())
		}
	}
	var sessionStart *int64
	if r.sessionStart != nil {
		ms := r.sessionStart.UnixMilli()
		sessionStart = &ms
	}
	return &protocol.State{Type: protocol.TypeState, Players: players, HostID: r.hostID, SessionStart: sessionStart}
}

func (r *Room) terrainSnapshotMessage() *protocol.TerrainSnapshotBroadcast {
	return &protocol.TerrainSnapshotBroadcast{
		Type: protocol.TypeTerrainSnap, TerrainVersion: r.runtime.TerrainVersion,
		Terrain: r.runtime.Render, PublishedBy: r.lastPublishedBy, ServerTime: r.clock.Now().UnixMilli(),
	}
}

func (r *Room) worldSnapshotMessage() *protocol.WorldSnapshot {
	now := r.clock.Now()
	actors := make([]protocol.ActorView, 0, len(r.actors))
	for _, c := range r.connections {
		if a, ok := r.actors[c.ID]; ok {
			actors = append(actors, a.view(r.runtime.TerrainVersion, now.UnixMilli()))
		}
	}
	r.snapshotSeq++
	r.lastSnapshotAt = now
	return &protocol.WorldSnapshot{
		Type: protocol.TypeWorldSnapshot, TerrainVersion: r.runtime.TerrainVersion,
		ServerTime: now.UnixMilli(), SnapshotSeq: r.snapshotSeq, Actors: actors,
	}
}

func (r *Room) broadcastState() { r.broadcast(r.stateMessage()) }
func (r *Room) broadcastWorldSnapshot() { r.broadcast(r.worldSnapshotMessage()) }

func (r *Room) broadcast(v any) {
	data, err := protocol.Marshal(v)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to marshal broadcast message")
		return
	}
	for _, c := range append([]*Connection(nil), r.connections...) {
		if err := c.Send(data); err != nil {
			r.disconnectLocked(c)
		}
	}
}

func (r *Room) unicast(c *Connection, v any) {
	data, err := protocol.Marshal(v)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to marshal unicast message")
		return
	}
	if err := c.Send(data); err != nil {
		r.disconnectLocked(c)
	}
}

// Snapshot returns a read-only view of room statistics for the /stats
// endpoint and the monitor TUI.
func (r *Room) Snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	playerIDs := make([]string, 0, len(r.players))
	for id := range r.players {
		playerIDs = append(playerIDs, id)
	}
	sort.Strings(playerIDs)

	s := Stats{
		ConnectionCount: len(r.connections),
		HostID:          r.hostID,
		ActorCount:      len(r.actors),
		SnapshotSeq:     r.snapshotSeq,
		PlayerIDs:       playerIDs,
	}
	if r.runtime != nil {
		s.TerrainVersion = r.runtime.TerrainVersion
	}
	return s
}

// Stats is a structured snapshot of room health for operators.
type Stats struct {
	ConnectionCount int      `json:"connectionCount"`
	HostID          string   `json:"hostId"`
	TerrainVersion  int      `json:"terrainVersion"`
	ActorCount      int      `json:"actorCount"`
	SnapshotSeq     int64    `json:"snapshotSeq"`
	PlayerIDs       []string `json:"playerIds"`
}
