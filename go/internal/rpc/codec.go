// Package rpc carries the connect options shared by the action services.
// Messages are plain Go structs, so both ends use a JSON codec registered
// under connect's "json" name in place of protojson.
package rpc

import (
	"encoding/json"
	"errors"
	"fmt"

	"connectrpc.com/connect"
)

// JSONCodec marshals any value with encoding/json.
type JSONCodec struct{}

var _ connect.Codec = JSONCodec{}

func (JSONCodec) Name() string {
	return "json"
}

func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return nil
}

// HandlerOptions returns the options every action handler is mounted with.
func HandlerOptions(extra ...connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, extra...)
}

// ClientOptions returns the options every action client is built with.
func ClientOptions(extra ...connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, extra...)
}

// CodeMapping pairs a sentinel error with the connect code it maps to.
type CodeMapping struct {
	err  error
	code connect.Code
}

// ToConnectError wraps err with the code of the first matching sentinel,
// falling back to CodeInternal.
func ToConnectError(err error, mappings ...CodeMapping) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return connect.NewError(m.code, err)
		}
	}
	return connect.NewError(connect.CodeInternal, err)
}

// Map pairs a sentinel error with a connect code.
func Map(err error, code connect.Code) CodeMapping {
	return CodeMapping{err: err, code: code}
}
