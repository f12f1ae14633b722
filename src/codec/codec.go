package codec

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danmuck/dps_ledger/src/api"
)

// ErrMalformedPayload is reported when bytes handed to Decode are not
// valid output of Encode.
var ErrMalformedPayload = errors.New("malformed payload encoding")

// StructCoder encodes Records as protobuf Struct values with
// deterministic marshaling, so the same logical value always yields
// the same bytes. This makes the encoding safe to feed into a block
// digest: re-encoding an unchanged payload can never break the chain.
type StructCoder struct{}

func NewStructCoder() StructCoder {
	return StructCoder{}
}

// Encode serializes rec into canonical bytes. Values outside the
// protobuf Struct domain (chans, funcs, arbitrary structs) are
// rejected.
func (StructCoder) Encode(rec api.Record) ([]byte, error) {
	s, err := structpb.NewStruct(rec)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	out, err := proto.MarshalOptions{Deterministic: true}.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return out, nil
}

// Decode reverses Encode. Bytes that do not unmarshal as a Struct
// fail with ErrMalformedPayload.
func (StructCoder) Decode(data []byte) (api.Record, error) {
	s := &structpb.Struct{}
	if err := proto.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return api.Record(s.AsMap()), nil
}
