package wire

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype of the node-to-node protocol.
const CodecName = "kvwire"

func init() {
	encoding.RegisterCodec(Codec{})
}

// Codec lets gRPC carry Message values without generated stubs.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("%s codec: cannot marshal %T", CodecName, v)
	}
	return m.Marshal(), nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return fmt.Errorf("%s codec: cannot unmarshal into %T", CodecName, v)
	}
	return m.Unmarshal(data)
}

func (Codec) Name() string {
	return CodecName
}
