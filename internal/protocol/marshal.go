package protocol

import (
	"encoding/json"
	"errors"
)

// ErrUnknownType is returned by ParseClient for a well-formed JSON object
// whose "type" field isn't one of the closed client -> server set.
var ErrUnknownType = errors.New("protocol: unknown or missing message type")

// ErrSchemaViolation is returned by ParseClient when an envelope parses as
// JSON but fails its type's schema. Per §7 this is never surfaced to the
// client as an error reply — callers must silently drop it.
var ErrSchemaViolation = errors.New("protocol: message failed schema validation")

// Marshal serializes a server -> client message to its wire JSON form.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// PeekType reads only the "type" field of a frame, for observers (the
// monitor's spectator feed) that log traffic without reconstructing every
// concrete message struct.
func PeekType(data []byte) (Type, error) {
	var envelope struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", err
	}
	if envelope.Type == "" {
		return "", ErrUnknownType
	}
	return envelope.Type, nil
}

// ParseClient decodes one text frame into its concrete client -> server
// message type. It never returns a partially-validated message: on any
// error (bad JSON, unknown type, schema violation) the caller's only
// correct action is to silently drop the frame (§4.J, §7).
func ParseClient(data []byte) (Type, any, error) {
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		return "", nil, err
	}
	rawType, _ := generic["type"].(string)
	t := Type(rawType)

	schema, ok := clientSchemas[t]
	if !ok {
		return "", nil, ErrUnknownType
	}
	if err := schema.Validate(generic); err != nil {
		return t, nil, ErrSchemaViolation
	}

	switch t {
	case TypeJoin:
		var m Join
		return t, &m, json.Unmarshal(data, &m)
	case TypeTyping:
		var m Typing
		return t, &m, json.Unmarshal(data, &m)
	case TypeLaunch:
		var m Launch
		return t, &m, json.Unmarshal(data, &m)
	case TypeTerrainPublish:
		var m TerrainPublish
		return t, &m, json.Unmarshal(data, &m)
	case TypeActorMove:
		var m ActorMove
		return t, &m, json.Unmarshal(data, &m)
	default:
		return "", nil, ErrUnknownType
	}
}
