package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseClientAcceptsWellFormedJoin(t *testing.T) {
	typ, msg, err := ParseClient([]byte(`{"type":"join"}`))
	require.NoError(t, err)
	require.Equal(t, TypeJoin, typ)
	require.IsType(t, &Join{}, msg)
}

func TestParseClientDropsUnknownType(t *testing.T) {
	_, _, err := ParseClient([]byte(`{"type":"not_a_real_type"}`))
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestParseClientDropsSchemaViolation(t *testing.T) {
	// typing requires a "text" field.
	_, _, err := ParseClient([]byte(`{"type":"typing"}`))
	require.ErrorIs(t, err, ErrSchemaViolation)
}

func TestParseClientDropsMalformedJSON(t *testing.T) {
	_, _, err := ParseClient([]byte(`{not json`))
	require.Error(t, err)
}

func TestParseClientActorMoveRoundTrip(t *testing.T) {
	typ, msg, err := ParseClient([]byte(`{"type":"actor_move","actorId":"p1","targetFace":12,"commandId":3,"terrainVersion":1}`))
	require.NoError(t, err)
	require.Equal(t, TypeActorMove, typ)

	am, ok := msg.(*ActorMove)
	require.True(t, ok, "expected *ActorMove, got %T", msg)
	require.Equal(t, "p1", am.ActorID)
	require.Equal(t, 12, am.TargetFace)
	require.EqualValues(t, 3, am.CommandID)
	require.Equal(t, 1, am.TerrainVersion)
}

func TestMarshalProducesJSON(t *testing.T) {
	out, err := Marshal(&Welcome{Type: TypeWelcome, ID: "abc"})
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"welcome","id":"abc"}`, string(out))
}

func TestPeekTypeReadsTypeOnly(t *testing.T) {
	typ, err := PeekType([]byte(`{"type":"world_snapshot","serverTime":1}`))
	require.NoError(t, err)
	require.Equal(t, TypeWorldSnapshot, typ)
}

func TestPeekTypeRejectsMissingType(t *testing.T) {
	_, err := PeekType([]byte(`{"serverTime":1}`))
	require.Error(t, err)
}
