package utils

import (
	"bytes"
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// JSONCodecName is the gRPC content-subtype of [JSONCodec]. Clients select it
// with grpc.CallContentSubtype.
const JSONCodecName = "json"

// Names of the gRPC sync service and its methods. The service carries the
// same JSON documents as the HTTP API, so no protobuf schema is involved.
const (
	SyncServiceName     = "offlinesync.SyncService"
	SyncMethodPush      = "/offlinesync.SyncService/Push"
	SyncMethodPull      = "/offlinesync.SyncService/Pull"
	SyncMethodSchema    = "/offlinesync.SyncService/Schema"
	SyncMethodRegister  = "/offlinesync.SyncService/Register"
	SyncMethodLogin     = "/offlinesync.SyncService/Login"
	GRPCTraceIDMetadata = "x-trace-id"
	GRPCAuthMetadata    = "authorization"
)

// JSONCodec marshals gRPC messages with encoding/json.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal keeps numbers as json.Number so row values survive untouched
// until the schema normalizer sees them.
func (JSONCodec) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func (JSONCodec) Name() string {
	return JSONCodecName
}

func init() {
	encoding.RegisterCodec(JSONCodec{})
}
