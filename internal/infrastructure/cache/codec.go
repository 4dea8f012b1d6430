package cache

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec turns cache values into the bytes stored by a driver.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, out any) error
}

// msgpackCodec falls back to json tags when a field has no msgpack tag, so
// entities shared with the REST API need a single set of tags.
type msgpackCodec struct{}

// MsgpackCodec returns the default codec.
func MsgpackCodec() Codec {
	return msgpackCodec{}
}

func (msgpackCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (msgpackCodec) Unmarshal(data []byte, out any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(out)
}
