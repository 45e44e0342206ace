package veneer

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Field is one key of an OrderedTree.
type Field struct {
	Key   string
	Value any
}

// OrderedTree is a rendered object with its keys in effective entry set
// order. Sub-nodes and related objects rendered through templates are
// OrderedTrees too; snapshots of types that are not enabled stay Trees.
//
// OrderedTree implements json.Marshaler, yaml.Marshaler and
// msgpack.CustomEncoder, and the bson and xml codecs write it in order.
type OrderedTree []Field

// Keys returns the top-level keys in order.
func (o OrderedTree) Keys() []string {
	keys := make([]string, len(o))
	for i, f := range o {
		keys[i] = f.Key
	}
	return keys
}

// Get returns the value stored under key.
func (o OrderedTree) Get(key string) (any, bool) {
	for _, f := range o {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Tree converts o into a Tree, recursively.
func (o OrderedTree) Tree() Tree {
	if o == nil {
		return nil
	}
	out := make(Tree, len(o))
	for _, f := range o {
		out[f.Key] = unordered(f.Value)
	}
	return out
}

// unordered converts one value of an OrderedTree.
func unordered(v any) any {
	switch val := v.(type) {
	case OrderedTree:
		return val.Tree()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = unordered(item)
		}
		return out
	default:
		return v
	}
}

// MarshalJSON writes o as a JSON object in key order.
func (o OrderedTree) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(&buf, f.Key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSON(&buf, f.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeJSON appends v without HTML escaping; the caller's encoder decides.
func writeJSON(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}

// MarshalYAML returns o as a mapping node in key order.
func (o OrderedTree) MarshalYAML() (any, error) {
	if o == nil {
		return nil, nil
	}
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range o {
		var val yaml.Node
		if err := val.Encode(f.Value); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key},
			&val,
		)
	}
	return node, nil
}

// EncodeMsgpack writes o as a MessagePack map in key order.
func (o OrderedTree) EncodeMsgpack(enc *msgpack.Encoder) error {
	if o == nil {
		return enc.EncodeNil()
	}
	if err := enc.EncodeMapLen(len(o)); err != nil {
		return err
	}
	for _, f := range o {
		if err := enc.EncodeString(f.Key); err != nil {
			return err
		}
		if err := enc.Encode(f.Value); err != nil {
			return err
		}
	}
	return nil
}

// RenderOrdered renders obj like Render but keeps effective entry set order.
func (e *Engine) RenderOrdered(ctx context.Context, obj any, name string) (OrderedTree, error) {
	start := time.Now()
	tn := typeName(e.host.TypeOf(obj))
	emitRenderStart(ctx, tn, name)

	out, err := e.render(obj, name)

	emitRenderComplete(ctx, tn, name, len(out), time.Since(start), err)
	return out, err
}

// EncodeOrdered renders obj with RenderOrdered and marshals it with c, so
// codecs write keys in effective entry set order.
func (e *Engine) EncodeOrdered(ctx context.Context, c Codec, obj any, name string) ([]byte, error) {
	out, err := e.RenderOrdered(ctx, obj, name)
	if err != nil {
		return nil, err
	}
	return e.marshal(ctx, c, out, typeName(e.host.TypeOf(obj)), name)
}
