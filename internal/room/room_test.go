package room

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/lox/meridian/internal/protocol"
)

func newTestConnection(id string) *Connection {
	return &Connection{
		ID:   id,
		send: make(chan []byte, 256),
		done: make(chan struct{}),
	}
}

func newTestRoom(t *testing.T) (*Room, *quartz.Mock) {
	t.Helper()
	mock := quartz.NewMock(t)
	return New(mock, zerolog.Nop(), DefaultPalette()), mock
}

// drain non-blockingly collects every envelope currently queued on c's send
// channel, decoded as a loose map keyed by "type".
func drain(c *Connection) []map[string]any {
	var out []map[string]any
	for {
		select {
		case data := <-c.send:
			var m map[string]any
			if err := json.Unmarshal(data, &m); err == nil {
				out = append(out, m)
			}
		default:
			return out
		}
	}
}

func lastOfType(msgs []map[string]any, t string) map[string]any {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i]["type"] == t {
			return msgs[i]
		}
	}
	return nil
}

func sendFrame(r *Room, c *Connection, v any) {
	data, err := protocol.Marshal(v)
	if err != nil {
		panic(err)
	}
	r.HandleFrame(c, data)
}

func publishSmallTerrain(t *testing.T, r *Room, host *Connection, version int) {
	t.Helper()
	sendFrame(r, host, &protocol.TerrainPublish{
		Type:          protocol.TypeTerrainPublish,
		ClientVersion: version,
		Terrain: protocol.TerrainSnapshot{
			Controls:  map[string]any{"seed": 42.0, "provinceCount": 4.0, "meshSpacing": 40.0},
			Movement:  map[string]any{},
			MapWidth:  320,
			MapHeight: 320,
		},
	})
}

func TestHostHandoffOnDisconnect(t *testing.T) {
	r, _ := newTestRoom(t)
	c1 := newTestConnection("p1")
	c2 := newTestConnection("p2")

	r.Connect(c1)
	r.Connect(c2)
	if r.hostID != "p1" {
		t.Fatalf("hostID = %q, want p1", r.hostID)
	}

	drain(c1)
	drain(c2)
	r.Disconnect(c1)

	if r.hostID != "p2" {
		t.Fatalf("hostID after disconnect = %q, want p2", r.hostID)
	}
	msgs := drain(c2)
	state := lastOfType(msgs, "state")
	if state == nil {
		t.Fatalf("expected a state broadcast after host handoff")
	}
	if state["hostId"] != "p2" {
		t.Fatalf("state.hostId = %v, want p2", state["hostId"])
	}
}

func TestNonHostPublishForbidden(t *testing.T) {
	r, _ := newTestRoom(t)
	c1 := newTestConnection("p1")
	c2 := newTestConnection("p2")
	r.Connect(c1)
	r.Connect(c2)
	drain(c1)
	drain(c2)

	publishSmallTerrain(t, r, c2, 0)

	msgs := drain(c2)
	if lastOfType(msgs, string(protocol.TypePublishForbid)) == nil {
		t.Fatalf("expected terrain_publish_forbidden for non-host publisher")
	}
}

func TestTerrainVersionIncrementsFromOne(t *testing.T) {
	r, _ := newTestRoom(t)
	c1 := newTestConnection("p1")
	r.Connect(c1)
	drain(c1)

	publishSmallTerrain(t, r, c1, 0)
	if r.runtime == nil || r.runtime.TerrainVersion != 1 {
		t.Fatalf("expected terrainVersion 1 after first publish")
	}

	publishSmallTerrain(t, r, c1, 1)
	if r.runtime.TerrainVersion != 2 {
		t.Fatalf("expected terrainVersion 2 after second publish, got %d", r.runtime.TerrainVersion)
	}
}

func TestStaleCommandIDRejected(t *testing.T) {
	r, _ := newTestRoom(t)
	c1 := newTestConnection("p1")
	r.Connect(c1)
	publishSmallTerrain(t, r, c1, 0)
	drain(c1)

	actor := r.actors["p1"]
	if actor == nil {
		t.Fatal("expected an actor to be spawned for p1")
	}
	target := otherLandFace(r, actor.CurrentFace)

	sendFrame(r, c1, &protocol.ActorMove{Type: protocol.TypeActorMove, ActorID: "p1", TargetFace: target, CommandID: 5, TerrainVersion: r.runtime.TerrainVersion})
	drain(c1)

	sendFrame(r, c1, &protocol.ActorMove{Type: protocol.TypeActorMove, ActorID: "p1", TargetFace: target, CommandID: 5, TerrainVersion: r.runtime.TerrainVersion})
	msgs := drain(c1)
	reject := lastOfType(msgs, string(protocol.TypeActorReject))
	if reject == nil || reject["reason"] != string(protocol.ReasonStaleCommandID) {
		t.Fatalf("expected stale_command_id reject, got %+v", msgs)
	}
}

func TestTerrainVersionMismatchRejected(t *testing.T) {
	r, _ := newTestRoom(t)
	c1 := newTestConnection("p1")
	r.Connect(c1)
	publishSmallTerrain(t, r, c1, 0)
	drain(c1)

	actor := r.actors["p1"]
	target := otherLandFace(r, actor.CurrentFace)

	sendFrame(r, c1, &protocol.ActorMove{Type: protocol.TypeActorMove, ActorID: "p1", TargetFace: target, CommandID: 1, TerrainVersion: 0})
	msgs := drain(c1)
	reject := lastOfType(msgs, string(protocol.TypeActorReject))
	if reject == nil || reject["reason"] != string(protocol.ReasonTerrainVersionMismatch) {
		t.Fatalf("expected terrain_version_mismatch reject, got %+v", msgs)
	}
}

func TestHeartbeatStopsWhenNoActorsMoving(t *testing.T) {
	r, mock := newTestRoom(t)
	c1 := newTestConnection("p1")
	r.Connect(c1)
	publishSmallTerrain(t, r, c1, 0)
	drain(c1)

	if r.alarm.timer != nil {
		t.Fatalf("expected no pending alarm when no actor is moving")
	}
	mock.Advance(2 * time.Second).MustWait(context.Background())
	msgs := drain(c1)
	if lastOfType(msgs, string(protocol.TypeWorldSnapshot)) != nil {
		t.Fatalf("did not expect a world_snapshot from the alarm with no moving actors")
	}
}

// otherLandFace returns a land face distinct from exclude that has at
// least one passable outgoing edge, for use as an actor_move target.
func otherLandFace(r *Room, exclude int) int {
	for _, id := range r.runtime.Graph.LandFaceIds {
		if id != exclude {
			return id
		}
	}
	return exclude
}
