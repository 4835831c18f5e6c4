// Package protocol implements the wire message codec (4.J): JSON text
// envelopes with a closed, strictly-schema-validated set of types.
package protocol

// Type is the wire envelope's discriminant ("type" field).
type Type string

const (
	// Client -> server
	TypeJoin           Type = "join"
	TypeTyping         Type = "typing"
	TypeLaunch         Type = "launch"
	TypeTerrainPublish Type = "terrain_publish"
	TypeActorMove      Type = "actor_move"

	// Server -> client
	TypeWelcome        Type = "welcome"
	TypeState          Type = "state"
	TypeHistory        Type = "history"
	TypeTerrainSnap    Type = "terrain_snapshot"
	TypeWorldSnapshot  Type = "world_snapshot"
	TypeActorCommand   Type = "actor_command"
	TypeActorReject    Type = "actor_reject"
	TypePublishForbid  Type = "terrain_publish_forbidden"
	TypePublishInvalid Type = "terrain_publish_invalid"
)

// ---- client -> server ----

// Join requests the room's current state.
type Join struct {
	Type Type `json:"type"`
}

// Typing updates the sender's transient typing text.
type Typing struct {
	Type Type   `json:"type"`
	Text string `json:"text"`
}

// Launch appends a chat-style message to room history.
type Launch struct {
	Type Type   `json:"type"`
	Text string `json:"text"`
}

// TerrainPublish asks the room to adopt a new terrain snapshot. Only
// accepted from the current host.
type TerrainPublish struct {
	Type           Type            `json:"type"`
	Terrain        TerrainSnapshot `json:"terrain"`
	ClientVersion  int             `json:"clientVersion"`
}

// ActorMove requests the sender's actor move toward targetFace.
type ActorMove struct {
	Type           Type `json:"type"`
	ActorID        string `json:"actorId"`
	TargetFace     int    `json:"targetFace"`
	CommandID      int64  `json:"commandId"`
	TerrainVersion int    `json:"terrainVersion"`
}

// ---- shared ----

// TerrainSnapshot is the wire form of a terrain publish request: raw,
// unvalidated controls/movement fields plus map dimensions (§6).
type TerrainSnapshot struct {
	Controls  map[string]any `json:"controls"`
	Movement  map[string]any `json:"movement"`
	MapWidth  int            `json:"mapWidth"`
	MapHeight int            `json:"mapHeight"`
}

// PlayerView is one player's wire representation inside a State message.
type PlayerView struct {
	ID     string `json:"id"`
	Emoji  string `json:"emoji"`
	Color  string `json:"color"`
	Typing string `json:"typing"`
}

// HistoryEntry is one entry of room chat history.
type HistoryEntry struct {
	Text  string `json:"text"`
	Color string `json:"color"`
	Emoji string `json:"emoji"`
}

// ActorView is one actor's wire representation inside a WorldSnapshot.
type ActorView struct {
	ActorID                string `json:"actorId"`
	OwnerID                string `json:"ownerId"`
	TerrainVersion         int    `json:"terrainVersion"`
	StateSeq               int64  `json:"stateSeq"`
	CommandID              int64  `json:"commandId"`
	Moving                 bool   `json:"moving"`
	CurrentFace            int    `json:"currentFace"`
	TargetFace             *int   `json:"targetFace"`
	RouteStartFace         int    `json:"routeStartFace"`
	RouteTargetFace        *int   `json:"routeTargetFace"`
	RouteStartedAtServerMs int64  `json:"routeStartedAtServerMs"`
	SegmentFromFace        *int   `json:"segmentFromFace"`
	SegmentToFace          *int   `json:"segmentToFace"`
	SegmentDurationMs      int64  `json:"segmentDurationMs"`
	SegmentTQ16            int    `json:"segmentTQ16"`
}

// ---- server -> client ----

// Welcome is unicast to a newly accepted connection with its assigned id.
type Welcome struct {
	Type Type   `json:"type"`
	ID   string `json:"id"`
}

// State broadcasts the room's player roster and host.
type State struct {
	Type         Type         `json:"type"`
	Players      []PlayerView `json:"players"`
	HostID       string       `json:"hostId"`
	SessionStart *int64       `json:"sessionStart"`
}

// History is unicast on join with the room's chat history.
type History struct {
	Type     Type           `json:"type"`
	Messages []HistoryEntry `json:"messages"`
}

// LaunchBroadcast is the broadcast echo of an accepted Launch message.
type LaunchBroadcast struct {
	Type  Type   `json:"type"`
	Text  string `json:"text"`
	ID    string `json:"id"`
	Color string `json:"color"`
	Emoji string `json:"emoji"`
}

// TerrainSnapshotBroadcast announces a newly published terrain.
type TerrainSnapshotBroadcast struct {
	Type           Type            `json:"type"`
	TerrainVersion int             `json:"terrainVersion"`
	Terrain        TerrainSnapshot `json:"terrain"`
	PublishedBy    string          `json:"publishedBy"`
	ServerTime     int64           `json:"serverTime"`
}

// WorldSnapshot is the periodic/triggered actor-position broadcast.
type WorldSnapshot struct {
	Type           Type        `json:"type"`
	TerrainVersion int         `json:"terrainVersion"`
	ServerTime     int64       `json:"serverTime"`
	SnapshotSeq    int64       `json:"snapshotSeq"`
	Actors         []ActorView `json:"actors"`
}

// ActorCommand announces a newly accepted route for an actor.
type ActorCommand struct {
	Type                   Type   `json:"type"`
	ActorID                string `json:"actorId"`
	OwnerID                string `json:"ownerId"`
	CommandID              int64  `json:"commandId"`
	StartFace              int    `json:"startFace"`
	TargetFace             int    `json:"targetFace"`
	StartedAt              int64  `json:"startedAt"`
	RouteStartedAtServerMs int64  `json:"routeStartedAtServerMs"`
	TerrainVersion         int    `json:"terrainVersion"`
}

// RejectReason is the closed set of actor_reject reasons (§4.H).
type RejectReason string

const (
	ReasonTerrainNotReady       RejectReason = "terrain_not_ready"
	ReasonActorNotOwned         RejectReason = "actor_not_owned"
	ReasonTerrainVersionMismatch RejectReason = "terrain_version_mismatch"
	ReasonStaleCommandID        RejectReason = "stale_command_id"
	ReasonTargetUnreachable     RejectReason = "target_unreachable"
	ReasonNoPath                RejectReason = "no_path"
)

// ActorReject is unicast to a sender whose actor_move failed validation.
type ActorReject struct {
	Type           Type         `json:"type"`
	ActorID        string       `json:"actorId"`
	CommandID      int64        `json:"commandId"`
	Reason         RejectReason `json:"reason"`
	TerrainVersion int          `json:"terrainVersion"`
}

// TerrainPublishForbidden is unicast when a non-host attempts to publish.
type TerrainPublishForbidden struct {
	Type Type `json:"type"`
}

// TerrainPublishInvalid is unicast when a publish fails to build.
type TerrainPublishInvalid struct {
	Type   Type   `json:"type"`
	Reason string `json:"reason"`
}
