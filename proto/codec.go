package proto

import (
	"bytes"
	"encoding/gob"
)

// gobCodec implements grpc.Codec (the pre-encoding.Codec interface still
// available in the pinned grpc release this module requires) over
// encoding/gob. See atomspacenode.go for why gob stands in for a
// protoc-generated protobuf codec here.
type gobCodec struct{}

func (gobCodec) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func (gobCodec) String() string { return "gob" }

// Codec is the shared grpc.Codec instance dial and server options should
// both install so client and server agree on wire format.
var Codec = gobCodec{}
