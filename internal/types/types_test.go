package types

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type permissionBody struct {
	Kind    string     `json:"kind"`
	Channel FlexUint64 `json:"channel"`
}

func TestFlexListAcceptsObjectOrArray(t *testing.T) {
	var one FlexList[permissionBody]
	require.NoError(t, json.Unmarshal([]byte(` {"kind":"read","channel":5}`), &one))
	assert.Equal(t, []permissionBody{{Kind: "read", Channel: 5}}, one.Slice())

	var many FlexList[permissionBody]
	require.NoError(t, json.Unmarshal([]byte(`[{"kind":"read","channel":"5"},{"kind":"write","channel":6}]`), &many))
	assert.Len(t, many, 2)
	assert.EqualValues(t, 5, many[0].Channel)

	var none FlexList[permissionBody]
	require.NoError(t, json.Unmarshal([]byte(`null`), &none))
	assert.Empty(t, none)
}

func TestFlexUint64(t *testing.T) {
	var f FlexUint64
	require.NoError(t, json.Unmarshal([]byte(`"42"`), &f))
	id, ok := f.ID()
	assert.True(t, ok)
	assert.EqualValues(t, 42, id)

	assert.Error(t, json.Unmarshal([]byte(`"-1"`), &f))
	assert.Error(t, json.Unmarshal([]byte(`true`), &f))

	_, ok = FlexUint64(0).ID()
	assert.False(t, ok)
	_, ok = FlexUint64(1 << 63).ID()
	assert.False(t, ok)

	assert.EqualValues(t, 7, FlexUint64(7).Clamp(10))
	assert.EqualValues(t, 10, FlexUint64(1<<40).Clamp(10))
}

func TestErrorf(t *testing.T) {
	err := Errorf(http.StatusForbidden, "relations.authorization.user", "cookie %q not found", "cookie_session")
	assert.Equal(t, `403: cookie "cookie_session" not found [type: relations.authorization.user]`, err.Error())
}
