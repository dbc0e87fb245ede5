// Package transferpb holds the TransferService wire messages. The
// messages are hand-maintained and travel as JSON under the codec
// registered here; canonical signing bytes never cross this layer and
// are produced by the domain types instead.
package transferpb

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content subtype the TransferService speaks.
// The generated client pins every call to it; servers resolve it from
// the codec registry, so importing this package is enough on both ends.
const CodecName = "at2"

type jsonCodec struct{}

func (jsonCodec) Name() string { return CodecName }

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
