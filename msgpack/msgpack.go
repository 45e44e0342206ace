// Package msgpack provides a MessagePack codec for rendered trees.
package msgpack

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zoobzio/veneer"
)

// msgpackCodec implements veneer.Codec for MessagePack. Map keys are
// written sorted so equal trees encode to equal bytes.
type msgpackCodec struct{}

// New returns a MessagePack codec.
func New() veneer.Codec {
	return &msgpackCodec{}
}

// ContentType returns the MIME type for MessagePack.
func (c *msgpackCodec) ContentType() string {
	return "application/msgpack"
}

// Marshal encodes v as MessagePack.
func (c *msgpackCodec) Marshal(v any) ([]byte, error) {
	if tree, ok := v.(veneer.Tree); ok {
		v = tree.Map()
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes MessagePack data into v. Decoding into a *veneer.Tree
// yields nested maps as map[string]any and widens numbers: unsigned
// encodings decode as uint64, signed ones and fixnums as int64, floats as
// float64.
func (c *msgpackCodec) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	if _, ok := v.(*veneer.Tree); ok {
		dec.UseLooseInterfaceDecoding(true)
	}
	return dec.Decode(v)
}
