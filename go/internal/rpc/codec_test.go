package rpc

import (
	"errors"
	"fmt"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type message struct {
	TeamID int    `json:"teamId"`
	Name   string `json:"name"`
}

func TestJSONCodec(t *testing.T) {
	codec := JSONCodec{}
	assert.Equal(t, "json", codec.Name())

	raw, err := codec.Marshal(&message{TeamID: 4, Name: "BOS"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"teamId":4,"name":"BOS"}`, string(raw))

	var out message
	require.NoError(t, codec.Unmarshal(raw, &out))
	assert.Equal(t, 4, out.TeamID)

	require.NoError(t, codec.Unmarshal(nil, &out))
	assert.Error(t, codec.Unmarshal([]byte("{"), &out))
}

func TestToConnectError(t *testing.T) {
	errMissing := errors.New("missing")

	err := ToConnectError(fmt.Errorf("lookup: %w", errMissing), Map(errMissing, connect.CodeNotFound))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	err = ToConnectError(errors.New("boom"), Map(errMissing, connect.CodeNotFound))
	assert.Equal(t, connect.CodeInternal, connect.CodeOf(err))

	already := connect.NewError(connect.CodeInvalidArgument, errors.New("bad"))
	assert.Same(t, already, ToConnectError(already))

	assert.NoError(t, ToConnectError(nil))
}
