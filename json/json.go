// Package json provides a JSON codec for rendered trees.
package json

import (
	"bytes"
	"encoding/json"

	"github.com/zoobzio/veneer"
)

// Option configures the JSON codec.
type Option func(*jsonCodec)

// WithIndent pretty-prints output with the given indent per level.
func WithIndent(indent string) Option {
	return func(c *jsonCodec) {
		c.indent = indent
	}
}

// WithEscapeHTML escapes <, > and & inside strings.
func WithEscapeHTML() Option {
	return func(c *jsonCodec) {
		c.escapeHTML = true
	}
}

// jsonCodec implements veneer.Codec for JSON. Map keys are written in
// sorted order, so equal trees encode to equal bytes.
type jsonCodec struct {
	indent     string
	escapeHTML bool
}

// New returns a JSON codec.
func New(opts ...Option) veneer.Codec {
	c := &jsonCodec{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ContentType returns the MIME type for JSON.
func (c *jsonCodec) ContentType() string {
	return "application/json"
}

// Marshal encodes v as JSON without a trailing newline.
func (c *jsonCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(c.escapeHTML)
	if c.indent != "" {
		enc.SetIndent("", c.indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Unmarshal decodes JSON data into v. Numbers decode as json.Number when v
// is a *veneer.Tree, keeping integer attributes exact.
func (c *jsonCodec) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, ok := v.(*veneer.Tree); ok {
		dec.UseNumber()
	}
	return dec.Decode(v)
}
