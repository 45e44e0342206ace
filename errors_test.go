package veneer

import (
	"errors"
	"reflect"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	typ := reflect.TypeFor[tmplUser]()
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"template",
			&TemplateError{Err: ErrUnknownTemplate, Type: typ, Template: "public"},
			`unknown template "public" for type veneer.tmplUser`,
		},
		{
			"template chain",
			&TemplateError{Err: ErrCyclicExtension, Type: typ, Template: "a", Chain: []string{"a", "b", "a"}},
			`cyclic extension "a" for type veneer.tmplUser (chain a -> b -> a)`,
		},
		{
			"template without name",
			&TemplateError{Err: ErrTypeNotEnabled, Type: typ},
			"type not enabled for type veneer.tmplUser",
		},
		{
			"definition",
			&DefinitionError{Err: ErrInvalidEntry, Template: "t", Key: "a.b", Reason: "empty path segment"},
			`invalid entry in template "t" (key a.b): empty path segment`,
		},
		{
			"host",
			&HostError{Err: ErrMissingAttribute, Type: typ, Name: "nope"},
			`missing attribute "nope" on veneer.tmplUser`,
		},
		{
			"filter",
			&FilterError{Err: ErrUnsupportedFilter, Key: "email", Filter: "seal:aes", Cause: cause},
			"unsupported filter seal:aes on key email: boom",
		},
		{
			"filter without cause",
			&FilterError{Err: ErrUnsupportedFilter, Key: "email", Filter: "seal:aes"},
			"unsupported filter seal:aes on key email",
		},
		{
			"codec",
			&CodecError{Err: ErrMarshal, Cause: cause},
			"marshal failed: boom",
		},
		{
			"codec without cause",
			&CodecError{Err: ErrMarshal},
			"marshal failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
	}{
		{newTemplateError(ErrUnknownTemplate, nil, "x", nil), ErrUnknownTemplate},
		{newDefinitionError("k", "r"), ErrInvalidEntry},
		{&HostError{Err: ErrMissingMethod}, ErrMissingMethod},
		{&FilterError{Err: ErrUnsupportedFilter}, ErrUnsupportedFilter},
		{newCodecError(ErrMarshal, nil), ErrMarshal},
	}

	for _, tt := range tests {
		if !errors.Is(tt.err, tt.sentinel) {
			t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.sentinel)
		}
	}
}
