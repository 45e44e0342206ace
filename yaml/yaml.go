// Package yaml provides a YAML codec for rendered trees.
package yaml

import (
	"bytes"

	"github.com/zoobzio/veneer"
	"gopkg.in/yaml.v3"
)

// Option configures the YAML codec.
type Option func(*yamlCodec)

// WithIndent sets the number of spaces per nesting level (default 2).
func WithIndent(spaces int) Option {
	return func(c *yamlCodec) {
		c.indent = spaces
	}
}

// yamlCodec implements veneer.Codec for YAML.
type yamlCodec struct {
	indent int
}

// New returns a YAML codec.
func New(opts ...Option) veneer.Codec {
	c := &yamlCodec{indent: 2}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ContentType returns the MIME type for YAML.
func (c *yamlCodec) ContentType() string {
	return "application/yaml"
}

// Marshal encodes v as YAML. Mapping keys are sorted; OrderedTrees keep
// their field order.
func (c *yamlCodec) Marshal(v any) ([]byte, error) {
	if tree, ok := v.(veneer.Tree); ok {
		v = tree.Map()
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(c.indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes YAML data into v. Decoding into a *veneer.Tree yields
// nested mappings as map[string]any, as the json and msgpack codecs do.
func (c *yamlCodec) Unmarshal(data []byte, v any) error {
	if tree, ok := v.(*veneer.Tree); ok {
		var m map[string]any
		if err := yaml.Unmarshal(data, &m); err != nil {
			return err
		}
		*tree = m
		return nil
	}
	return yaml.Unmarshal(data, v)
}
