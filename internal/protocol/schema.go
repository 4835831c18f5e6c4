package protocol

import (
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// clientSchemas holds the compiled JSON Schema for every client -> server
// message type (§6). Any envelope that fails its schema is silently
// dropped (§7) — never disconnected, never replied to.
var clientSchemas = map[Type]*jsonschema.Schema{
	TypeJoin:           mustCompile("join", joinSchema),
	TypeTyping:         mustCompile("typing", typingSchema),
	TypeLaunch:         mustCompile("launch", launchSchema),
	TypeTerrainPublish: mustCompile("terrain_publish", terrainPublishSchema),
	TypeActorMove:      mustCompile("actor_move", actorMoveSchema),
}

func mustCompile(name, schema string) *jsonschema.Schema {
	url := "mem://" + name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, strings.NewReader(schema)); err != nil {
		panic("protocol: invalid embedded schema " + name + ": " + err.Error())
	}
	s, err := c.Compile(url)
	if err != nil {
		panic("protocol: schema " + name + " failed to compile: " + err.Error())
	}
	return s
}

const joinSchema = `{
  "type": "object",
  "properties": {"type": {"const": "join"}},
  "required": ["type"],
  "additionalProperties": true
}`

const typingSchema = `{
  "type": "object",
  "properties": {
    "type": {"const": "typing"},
    "text": {"type": "string"}
  },
  "required": ["type", "text"]
}`

const launchSchema = `{
  "type": "object",
  "properties": {
    "type": {"const": "launch"},
    "text": {"type": "string"}
  },
  "required": ["type", "text"]
}`

const terrainPublishSchema = `{
  "type": "object",
  "properties": {
    "type": {"const": "terrain_publish"},
    "clientVersion": {"type": "integer"},
    "terrain": {
      "type": "object",
      "properties": {
        "controls": {"type": "object"},
        "movement": {"type": "object"},
        "mapWidth": {"type": "integer"},
        "mapHeight": {"type": "integer"}
      },
      "required": ["controls", "movement", "mapWidth", "mapHeight"]
    }
  },
  "required": ["type", "terrain", "clientVersion"]
}`

const actorMoveSchema = `{
  "type": "object",
  "properties": {
    "type": {"const": "actor_move"},
    "actorId": {"type": "string"},
    "targetFace": {"type": "integer"},
    "commandId": {"type": "integer"},
    "terrainVersion": {"type": "integer"}
  },
  "required": ["type", "actorId", "targetFace", "commandId", "terrainVersion"]
}`
