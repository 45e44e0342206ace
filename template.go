package veneer

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// opKind distinguishes the two declarative operations a template records.
type opKind uint8

const (
	opAdd opKind = iota
	opRemove
)

// op is one declared operation. Remove ops carry a key path.
type op struct {
	kind  opKind
	entry Entry
	path  []string
}

// Template is a named, ordered set of field instructions for one type.
// Templates are immutable once Define returns.
type Template struct {
	name   string
	owner  reflect.Type
	parent string
	ops    []op
}

// Name returns the template's name.
func (t *Template) Name() string { return t.name }

// Owner returns the type the template is registered against.
func (t *Template) Owner() reflect.Type { return t.owner }

// Parent returns the name of the extended template, or "" for a root template.
func (t *Template) Parent() string { return t.parent }

// DefineOption configures a template definition.
type DefineOption func(*Template)

// Extends makes the template inherit the entries of parent. The parent
// only has to exist by the time the template is rendered.
func Extends(parent string) DefineOption {
	return func(t *Template) {
		t.parent = parent
	}
}

// Builder records the operations of a template under definition.
// Errors are collected and reported by Define.
type Builder struct {
	ops  []op
	errs []*DefinitionError
}

// Attribute adds an attribute read. As renames the output key.
func (b *Builder) Attribute(name string, opts ...EntryOption) *Builder {
	return b.add(Attr(name).entry(name), opts)
}

// Computed adds a value computed from the object. source is a method name
// (string), a Source, or a function taking the object (Func, func(any) any,
// func(any) (any, error)) or nothing (func() any, func() (any, error)).
func (b *Builder) Computed(key string, source any, opts ...EntryOption) *Builder {
	switch s := source.(type) {
	case string:
		return b.add(Method(s).entry(key), opts)
	case Source:
		return b.add(s.entry(key), opts)
	}
	fn, ok := toFunc(source)
	if !ok {
		b.errs = append(b.errs, newDefinitionError(key, fmt.Sprintf("unsupported computed source %T", source)))
		return b
	}
	return b.add(Call(fn).entry(key), opts)
}

// Association adds related objects rendered through a child template.
// As renames the output key, Using picks the child template.
func (b *Builder) Association(name string, opts ...EntryOption) *Builder {
	return b.add(Assoc(name, "").entry(name), opts)
}

// SubNode adds src at a dotted path such as "sub_nodes.foo.bar". Sub-nodes
// sharing a prefix merge into one nested map. Options apply to the leaf.
func (b *Builder) SubNode(path string, src Source, opts ...EntryOption) *Builder {
	segments, err := splitPath(path)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	leaf := src.entry(segments[len(segments)-1])
	for _, opt := range opts {
		opt(&leaf)
	}
	if leaf.Key != segments[len(segments)-1] {
		b.errs = append(b.errs, newDefinitionError(path, "sub-node keys come from the path; As is not allowed"))
		return b
	}
	return b.push(nest(segments, leaf))
}

// Remove drops key, wherever in the extension chain it was added. A dotted
// key prunes inside a sub-node.
func (b *Builder) Remove(key string) *Builder {
	segments, err := splitPath(key)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.ops = append(b.ops, op{kind: opRemove, path: segments})
	return b
}

// add applies options to e and records it.
func (b *Builder) add(e Entry, opts []EntryOption) *Builder {
	for _, opt := range opts {
		opt(&e)
	}
	return b.push(e)
}

// push validates and records an add op.
func (b *Builder) push(e Entry) *Builder {
	if err := e.validate(); err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.ops = append(b.ops, op{kind: opAdd, entry: e})
	return b
}

// toFunc normalizes the accepted callable shapes into a Func.
func toFunc(source any) (Func, bool) {
	switch f := source.(type) {
	case Func:
		return f, f != nil
	case func(any) (any, error):
		return f, f != nil
	case func(any) any:
		if f == nil {
			return nil, false
		}
		return func(obj any) (any, error) { return f(obj), nil }, true
	case func() any:
		if f == nil {
			return nil, false
		}
		return func(any) (any, error) { return f(), nil }, true
	case func() (any, error):
		if f == nil {
			return nil, false
		}
		return func(any) (any, error) { return f() }, true
	default:
		return nil, false
	}
}

// buildTemplate runs build against a fresh Builder and assembles the template.
func buildTemplate(owner reflect.Type, name string, build func(*Builder), opts []DefineOption) (*Template, error) {
	t := &Template{name: name, owner: owner}
	for _, opt := range opts {
		opt(t)
	}

	b := &Builder{}
	if strings.TrimSpace(name) == "" {
		b.errs = append(b.errs, newDefinitionError("", "empty template name"))
	}
	if build != nil {
		build(b)
	}

	if len(b.errs) > 0 {
		errs := make([]error, len(b.errs))
		for i, err := range b.errs {
			err.Type = owner
			err.Template = name
			errs[i] = err
		}
		return nil, errors.Join(errs...)
	}

	t.ops = b.ops
	return t, nil
}
