// Package bson provides a BSON codec for rendered trees.
package bson

import (
	"errors"
	"sort"

	"github.com/zoobzio/veneer"
	"go.mongodb.org/mongo-driver/bson"
)

// ErrNotDocument indicates the value cannot be a top-level BSON document.
var ErrNotDocument = errors.New("bson: top-level value must be a document")

// bsonCodec implements veneer.Codec for BSON. Trees are converted to
// ordered documents with sorted keys before encoding.
type bsonCodec struct{}

// New returns a BSON codec.
func New() veneer.Codec {
	return &bsonCodec{}
}

// ContentType returns the MIME type for BSON.
func (c *bsonCodec) ContentType() string {
	return "application/bson"
}

// Marshal encodes v as BSON. Trees and string-keyed maps become documents
// with sorted keys, OrderedTrees keep their field order, and sequences
// become arrays.
func (c *bsonCodec) Marshal(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, ErrNotDocument
	case veneer.Tree, map[string]any:
		return bson.Marshal(document(val))
	case veneer.OrderedTree:
		if val == nil {
			return nil, ErrNotDocument
		}
		return bson.Marshal(ordered(val))
	default:
		return bson.Marshal(v)
	}
}

// Unmarshal decodes BSON data into v.
func (c *bsonCodec) Unmarshal(data []byte, v any) error {
	return bson.Unmarshal(data, v)
}

// document converts a string-keyed map into a bson.D with sorted keys.
func document(v any) bson.D {
	var m map[string]any
	switch val := v.(type) {
	case veneer.Tree:
		m = val
	case map[string]any:
		m = val
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := make(bson.D, 0, len(keys))
	for _, k := range keys {
		doc = append(doc, bson.E{Key: k, Value: value(m[k])})
	}
	return doc
}

// ordered converts an OrderedTree into a bson.D keeping field order.
func ordered(o veneer.OrderedTree) bson.D {
	doc := make(bson.D, 0, len(o))
	for _, f := range o {
		doc = append(doc, bson.E{Key: f.Key, Value: value(f.Value)})
	}
	return doc
}

// value converts nested trees and sequences.
func value(v any) any {
	switch val := v.(type) {
	case veneer.Tree, map[string]any:
		return document(val)
	case veneer.OrderedTree:
		if val == nil {
			return nil
		}
		return ordered(val)
	case []any:
		arr := make(bson.A, len(val))
		for i, item := range val {
			arr[i] = value(item)
		}
		return arr
	default:
		return v
	}
}
