// Package xml provides an XML codec for rendered trees.
//
// Trees encode as nested elements under a root element, children in
// sorted key order. Sequences carry type="array" and repeat an item
// element per value; nil values are empty elements with nil="true".
//
//	<?xml version="1.0" encoding="UTF-8"?>
//	<response><name>Luke</name><tasks type="array"><item><heading>Train</heading></item></tasks></response>
//
// Other values are encoded with encoding/xml.
package xml

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zoobzio/veneer"
)

// ErrNotTree indicates XML data did not decode to a tree.
var ErrNotTree = errors.New("xml: root element is not a tree")

// Option configures the XML codec.
type Option func(*xmlCodec)

// WithRoot sets the root element name (default "response").
func WithRoot(name string) Option {
	return func(c *xmlCodec) {
		c.root = name
	}
}

// WithItem sets the element name used for sequence values (default "item").
func WithItem(name string) Option {
	return func(c *xmlCodec) {
		c.item = name
	}
}

// WithoutHeader omits the XML declaration.
func WithoutHeader() Option {
	return func(c *xmlCodec) {
		c.header = false
	}
}

// xmlCodec implements veneer.Codec for XML.
type xmlCodec struct {
	root   string
	item   string
	header bool
}

// New returns an XML codec.
func New(opts ...Option) veneer.Codec {
	c := &xmlCodec{root: "response", item: "item", header: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ContentType returns the MIME type for XML.
func (c *xmlCodec) ContentType() string {
	return "application/xml"
}

// Marshal encodes v as XML.
func (c *xmlCodec) Marshal(v any) ([]byte, error) {
	switch v.(type) {
	case veneer.Tree, veneer.OrderedTree, map[string]any, []any, []veneer.Tree:
	default:
		return xml.Marshal(v)
	}

	var buf bytes.Buffer
	if c.header {
		buf.WriteString(xml.Header)
	}
	enc := xml.NewEncoder(&buf)
	if err := c.encode(enc, c.root, v); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var (
	attrArray = xml.Attr{Name: xml.Name{Local: "type"}, Value: "array"}
	attrNil   = xml.Attr{Name: xml.Name{Local: "nil"}, Value: "true"}
)

// encode writes v as the element name.
func (c *xmlCodec) encode(enc *xml.Encoder, name string, v any) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}

	switch val := v.(type) {
	case nil:
		start.Attr = []xml.Attr{attrNil}
		return enc.EncodeElement("", start)
	case veneer.Tree:
		return c.encodeMap(enc, start, val)
	case map[string]any:
		return c.encodeMap(enc, start, val)
	case veneer.OrderedTree:
		if val == nil {
			start.Attr = []xml.Attr{attrNil}
			return enc.EncodeElement("", start)
		}
		return c.encodeFields(enc, start, val)
	case []any:
		return c.encodeSeq(enc, start, len(val), func(i int) any { return val[i] })
	case []veneer.Tree:
		return c.encodeSeq(enc, start, len(val), func(i int) any { return val[i] })
	case []string:
		return c.encodeSeq(enc, start, len(val), func(i int) any { return val[i] })
	case []byte:
		return enc.EncodeElement(base64.StdEncoding.EncodeToString(val), start)
	case time.Time:
		return enc.EncodeElement(val.Format(time.RFC3339Nano), start)
	case fmt.Stringer:
		return enc.EncodeElement(val.String(), start)
	default:
		return enc.EncodeElement(fmt.Sprint(val), start)
	}
}

// encodeMap writes children in sorted key order.
func (c *xmlCodec) encodeMap(enc *xml.Encoder, start xml.StartElement, m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, k := range keys {
		if err := c.encode(enc, k, m[k]); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// encodeFields writes children in field order.
func (c *xmlCodec) encodeFields(enc *xml.Encoder, start xml.StartElement, fields veneer.OrderedTree) error {
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, f := range fields {
		if err := c.encode(enc, f.Key, f.Value); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// encodeSeq writes n item elements.
func (c *xmlCodec) encodeSeq(enc *xml.Encoder, start xml.StartElement, n int, at func(int) any) error {
	start.Attr = []xml.Attr{attrArray}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for i := range n {
		if err := c.encode(enc, c.item, at(i)); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// Unmarshal decodes XML data into v. A *veneer.Tree or *map[string]any
// receives the root element's children; leaf values decode as strings.
func (c *xmlCodec) Unmarshal(data []byte, v any) error {
	switch target := v.(type) {
	case *veneer.Tree:
		tree, err := c.decodeTree(data)
		if err != nil {
			return err
		}
		*target = tree
		return nil
	case *map[string]any:
		tree, err := c.decodeTree(data)
		if err != nil {
			return err
		}
		*target = tree
		return nil
	default:
		return xml.Unmarshal(data, v)
	}
}

// decodeTree decodes the root element into a Tree.
func (c *xmlCodec) decodeTree(data []byte) (veneer.Tree, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		v, err := c.decodeElement(dec, start)
		if err != nil {
			return nil, err
		}
		switch val := v.(type) {
		case veneer.Tree:
			return val, nil
		case string:
			if strings.TrimSpace(val) == "" {
				return veneer.Tree{}, nil
			}
		}
		return nil, ErrNotTree
	}
}

// decodeElement reads the element opened by start through its end tag.
func (c *xmlCodec) decodeElement(dec *xml.Decoder, start xml.StartElement) (any, error) {
	var isArray, isNil bool
	for _, a := range start.Attr {
		switch {
		case a.Name.Local == attrArray.Name.Local && a.Value == attrArray.Value:
			isArray = true
		case a.Name.Local == attrNil.Name.Local && a.Value == attrNil.Value:
			isNil = true
		}
	}

	var text strings.Builder
	var keys []string
	var values []any
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			v, err := c.decodeElement(dec, t)
			if err != nil {
				return nil, err
			}
			keys = append(keys, t.Name.Local)
			values = append(values, v)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			switch {
			case isNil:
				return nil, nil
			case isArray:
				if values == nil {
					return []any{}, nil
				}
				return values, nil
			case len(keys) > 0:
				tree := make(veneer.Tree, len(keys))
				for i, k := range keys {
					tree[k] = values[i]
				}
				return tree, nil
			default:
				return text.String(), nil
			}
		}
	}
}
