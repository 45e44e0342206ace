package veneer

import (
	"context"
	"time"
)

// Codec provides content-type aware marshaling of rendered trees.
// Implementations live in the json, yaml, msgpack, bson and xml subpackages.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}

// Encode renders obj with the named template and marshals the tree with c.
// Render errors are returned as is; marshal failures wrap ErrMarshal.
func (e *Engine) Encode(ctx context.Context, c Codec, obj any, name string) ([]byte, error) {
	tree, err := e.Render(ctx, obj, name)
	if err != nil {
		return nil, err
	}
	return e.marshal(ctx, c, tree, typeName(e.host.TypeOf(obj)), name)
}

// marshal encodes a rendered value and emits the encode signal.
func (e *Engine) marshal(ctx context.Context, c Codec, v any, tn, name string) ([]byte, error) {
	start := time.Now()
	data, err := c.Marshal(v)
	if err != nil {
		err = newCodecError(ErrMarshal, err)
		data = nil
	}

	emitEncodeComplete(ctx, c.ContentType(), tn, name, len(data), time.Since(start), err)
	return data, err
}
