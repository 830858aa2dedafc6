package rpc

import (
	"encoding/json"
	"fmt"
)

// jsonCodec serializes plain Go structs. It replaces Connect's default "json"
// codec, which only accepts protobuf messages.
type jsonCodec struct{}

// Codec is the codec installed on every handler. Clients must use it too.
var Codec = jsonCodec{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
