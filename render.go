package veneer

import (
	"context"
	"reflect"
)

// Tree is a rendered object: keys map to scalars, nested Trees, or []any
// sequences of rendered related objects. Key order carries no meaning.
type Tree map[string]any

// Map returns t as a plain map[string]any, converting nested Trees and the
// sequences holding them. Codecs that special-case map[string]any use it.
func (t Tree) Map() map[string]any {
	if t == nil {
		return nil
	}
	out := make(map[string]any, len(t))
	for k, v := range t {
		out[k] = plain(v)
	}
	return out
}

// plain converts one tree value.
func plain(v any) any {
	switch val := v.(type) {
	case Tree:
		return val.Map()
	case map[string]any:
		return Tree(val).Map()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = plain(item)
		}
		return out
	case []Tree:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = item.Map()
		}
		return out
	default:
		return v
	}
}

// Render renders obj with the named template of its type.
//
// Attribute, method and callable failures are returned exactly as the host
// or callable produced them. Absent single associations render as nil and
// empty collections as an empty []any.
func (e *Engine) Render(ctx context.Context, obj any, name string) (Tree, error) {
	out, err := e.RenderOrdered(ctx, obj, name)
	if err != nil {
		return nil, err
	}
	return out.Tree(), nil
}

// RenderAll renders every element of a slice or array with the named
// template, preserving order. A single object yields a one-element result.
func (e *Engine) RenderAll(ctx context.Context, objs any, name string) ([]Tree, error) {
	assoc := classify(objs)
	var items []any
	switch assoc.Kind {
	case AssociationMany:
		items = assoc.Many
	case AssociationOne:
		items = []any{assoc.One}
	}

	out := make([]Tree, 0, len(items))
	for _, obj := range items {
		tree, err := e.Render(ctx, obj, name)
		if err != nil {
			return nil, err
		}
		out = append(out, tree)
	}
	return out, nil
}

// render renders obj without emitting signals; used for recursion.
func (e *Engine) render(obj any, name string) (OrderedTree, error) {
	if isNil(obj) {
		return nil, ErrNilObject
	}

	typ := e.host.TypeOf(obj)
	reg, ok := e.Registry(typ)
	if !ok {
		return nil, newTemplateError(ErrTypeNotEnabled, typ, name, nil)
	}

	set, err := reg.Resolve(name)
	if err != nil {
		return nil, err
	}
	return e.renderEntries(obj, set.Entries(), name)
}

// renderEntries evaluates entries against obj in order.
// template is the name obj is being rendered with.
func (e *Engine) renderEntries(obj any, entries []Entry, template string) (OrderedTree, error) {
	out := make(OrderedTree, 0, len(entries))
	for _, entry := range entries {
		v, err := e.value(obj, entry, template)
		if err != nil {
			return nil, err
		}
		out = append(out, Field{Key: entry.Key, Value: v})
	}
	return out, nil
}

// value resolves a single entry.
func (e *Engine) value(obj any, entry Entry, template string) (any, error) {
	var v any
	var err error

	switch entry.Kind {
	case KindAttribute:
		v, err = e.host.Attribute(obj, entry.Source)
	case KindMethod:
		v, err = e.host.Call(obj, entry.Source)
	case KindCallable:
		v, err = entry.Func(obj)
	case KindSubNode:
		return e.renderEntries(obj, entry.Children, template)
	case KindAssociation:
		return e.association(obj, entry, template)
	}
	if err != nil {
		return nil, err
	}

	if len(entry.Filters) == 0 {
		return v, nil
	}
	return e.caps.applyFilters(entry, v)
}

// association reads and renders an association entry.
func (e *Engine) association(obj any, entry Entry, template string) (any, error) {
	assoc, err := e.host.Association(obj, entry.Source)
	if err != nil {
		return nil, err
	}

	switch assoc.Kind {
	case AssociationOne:
		return e.related(assoc.One, entry, template)
	case AssociationMany:
		out := make([]any, 0, len(assoc.Many))
		for _, item := range assoc.Many {
			v, err := e.related(item, entry, template)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	default:
		return nil, nil
	}
}

// related renders one related object. Types that are not enabled are
// projected through the host's snapshot.
func (e *Engine) related(obj any, entry Entry, parentTemplate string) (any, error) {
	if isNil(obj) {
		return nil, nil
	}

	reg, ok := e.Registry(e.host.TypeOf(obj))
	if !ok {
		return e.host.Snapshot(obj)
	}

	if entry.Template != "" {
		return e.render(obj, entry.Template)
	}

	name := e.cfg.DefaultTemplate
	if e.cfg.InheritTemplate {
		if _, ok := reg.Template(parentTemplate); ok {
			name = parentTemplate
		}
	}
	if _, ok := reg.Template(name); !ok && e.cfg.Fallback == FallbackSnapshot {
		return e.host.Snapshot(obj)
	}
	return e.render(obj, name)
}

// isNil reports whether v is nil or a nil pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}
