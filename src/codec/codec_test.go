package codec

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/dps_ledger/src/api"
)

func TestEncodeDeterministic(t *testing.T) {
	c := NewStructCoder()

	rec := api.Record{
		"owner": "addr1",
		"star":  "Polaris",
		"flags": map[string]any{"visible": true, "circumpolar": true},
	}

	first, err := c.Encode(rec)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	second, err := c.Encode(rec)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Fatal("same logical record produced different bytes")
	}
}

func TestRoundTrip(t *testing.T) {
	c := NewStructCoder()

	rec := api.Record{
		"owner":     "addr1",
		"star":      "Polaris",
		"magnitude": 1.98,
		"visible":   true,
		"catalog":   map[string]any{"hip": "11767"},
		"aliases":   []any{"North Star", "Alpha Ursae Minoris"},
	}

	encoded, err := c.Encode(rec)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := c.Decode(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if !reflect.DeepEqual(decoded, rec) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", decoded, rec)
	}
}

func TestRoundTripEmptyRecord(t *testing.T) {
	c := NewStructCoder()

	encoded, err := c.Encode(api.Record{})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := c.Decode(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(decoded) != 0 {
		t.Fatalf("expected empty record, got %#v", decoded)
	}
}

func TestEncodeRejectsForeignValues(t *testing.T) {
	c := NewStructCoder()

	_, err := c.Encode(api.Record{"ch": make(chan int)})
	if err == nil {
		t.Fatal("expected error for value outside the codec domain, got nil")
	}
}

func TestDecodeMalformed(t *testing.T) {
	c := NewStructCoder()

	_, err := c.Decode([]byte{0xff, 0xff, 0xff})
	if err == nil {
		t.Fatal("expected error for malformed bytes, got nil")
	}
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}
