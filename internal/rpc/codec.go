package rpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// Codec marshals the History service messages as JSON. Servers apply it with
// grpc.ForceServerCodec and clients with grpc.ForceCodec, so the content type
// on the wire is application/grpc+json.
var Codec encoding.Codec = jsonCodec{}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (jsonCodec) Name() string { return "json" }
