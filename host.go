package veneer

import (
	"errors"
	"reflect"
	"sync"

	"github.com/zoobzio/sentinel"
)

func init() {
	// Register the attribute naming tag with sentinel
	sentinel.Tag("api")
}

// Host is the object model the renderer reads domain objects through.
// The engine never touches a concrete domain type directly.
type Host interface {
	// TypeOf returns the type used to key template registries.
	TypeOf(obj any) reflect.Type

	// Attribute reads a named attribute. Unknown names must fail.
	Attribute(obj any, name string) (any, error)

	// Call invokes a named zero-argument method and returns its result.
	Call(obj any, name string) (any, error)

	// Association reads a named association.
	Association(obj any, name string) (Association, error)

	// Snapshot projects an object into a plain value. Used for related
	// objects whose type is not enabled.
	Snapshot(obj any) (any, error)
}

// AssociationKind classifies the value of an association.
type AssociationKind uint8

const (
	// AssociationAbsent is a single association with no related object.
	AssociationAbsent AssociationKind = iota

	// AssociationOne is a single related object.
	AssociationOne

	// AssociationMany is a collection of related objects, possibly empty.
	AssociationMany
)

// Association is the classified value of an association read.
type Association struct {
	Kind AssociationKind
	One  any   // Related object for AssociationOne
	Many []any // Related objects for AssociationMany, in source order
}

// ReflectHost reads plain Go values through reflection.
//
// A field's attribute name is its `api` tag, else its `json` tag, else the
// snake_case form of its Go name (FirstName is reachable as "first_name").
// The exact Go field name always matches as well. Method names match
// the exact Go name or its snake_case form. Maps with string keys are read
// by key. Objects implementing Attributer or Snapshotter are asked first.
type ReflectHost struct{}

var _ Host = ReflectHost{}

// TypeOf returns the type of obj with pointers unwrapped, so User and *User
// share one registry.
func (ReflectHost) TypeOf(obj any) reflect.Type {
	if obj == nil {
		return nil
	}
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// Attribute reads a struct field or map key.
func (h ReflectHost) Attribute(obj any, name string) (any, error) {
	if a, ok := obj.(Attributer); ok {
		if v, ok := a.ReadAttribute(name); ok {
			return v, nil
		}
	}

	rv := indirect(reflect.ValueOf(obj))
	if v, ok := readValue(rv, name); ok {
		return v, nil
	}
	return nil, &HostError{Err: ErrMissingAttribute, Type: h.TypeOf(obj), Name: name}
}

// Call invokes a method with no arguments returning a value, or a value
// and an error. An error returned by the method is passed through as is.
func (h ReflectHost) Call(obj any, name string) (any, error) {
	m, ok := lookupMethod(reflect.ValueOf(obj), name)
	if !ok {
		return nil, &HostError{Err: ErrMissingMethod, Type: h.TypeOf(obj), Name: name}
	}

	out := m.Call(nil)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

// Association reads name as an attribute, falling back to a method for
// computed collections (scopes), and classifies the result.
func (h ReflectHost) Association(obj any, name string) (Association, error) {
	v, err := h.Attribute(obj, name)
	if errors.Is(err, ErrMissingAttribute) {
		v, err = h.Call(obj, name)
		if errors.Is(err, ErrMissingMethod) {
			return Association{}, &HostError{Err: ErrMissingAttribute, Type: h.TypeOf(obj), Name: name}
		}
	}
	if err != nil {
		return Association{}, err
	}
	return classify(v), nil
}

// Snapshot projects structs and string-keyed maps into a Tree of their
// public attributes. Other values are returned unchanged.
func (ReflectHost) Snapshot(obj any) (any, error) {
	if s, ok := obj.(Snapshotter); ok {
		return Tree(s.Snapshot()), nil
	}

	rv := indirect(reflect.ValueOf(obj))
	if !rv.IsValid() {
		return nil, nil
	}

	switch rv.Kind() {
	case reflect.Struct:
		fields := fieldsFor(rv.Type())
		out := make(Tree, len(fields))
		for _, f := range fields {
			fv, err := rv.FieldByIndexErr(f.index)
			if err != nil {
				// nil embedded pointer
				continue
			}
			out[f.key] = fv.Interface()
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return rv.Interface(), nil
		}
		out := make(Tree, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return out, nil
	default:
		return rv.Interface(), nil
	}
}

// classify sorts an association value into absent, single or collection.
func classify(v any) Association {
	if v == nil {
		return Association{Kind: AssociationAbsent}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Association{Kind: AssociationAbsent}
		}
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			break
		}
		many := make([]any, rv.Len())
		for i := range many {
			many[i] = rv.Index(i).Interface()
		}
		return Association{Kind: AssociationMany, Many: many}
	}
	return Association{Kind: AssociationOne, One: v}
}

// indirect dereferences pointers and interfaces. A nil pointer yields an
// invalid Value.
func indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

// readValue reads name from a struct or string-keyed map.
func readValue(rv reflect.Value, name string) (any, bool) {
	if !rv.IsValid() {
		return nil, false
	}

	switch rv.Kind() {
	case reflect.Struct:
		for _, f := range fieldsFor(rv.Type()) {
			if f.key != name && f.name != name {
				continue
			}
			fv, err := rv.FieldByIndexErr(f.index)
			if err != nil {
				return nil, true
			}
			return fv.Interface(), true
		}
	case reflect.Map:
		kt := rv.Type().Key()
		if kt.Kind() != reflect.String {
			return nil, false
		}
		v := rv.MapIndex(reflect.ValueOf(name).Convert(kt))
		if v.IsValid() {
			return v.Interface(), true
		}
	}
	return nil, false
}

// lookupMethod finds a zero-argument method by Go name or snake_case name.
// Value receivers get an addressable copy so pointer methods are reachable.
func lookupMethod(rv reflect.Value, name string) (reflect.Value, bool) {
	if !rv.IsValid() {
		return reflect.Value{}, false
	}
	if rv.Kind() != reflect.Ptr {
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		rv = p
	} else if rv.IsNil() {
		return reflect.Value{}, false
	}

	t := rv.Type()
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if m.Name != name && snakeCase(m.Name) != name {
			continue
		}
		mt := m.Type // includes receiver
		if mt.NumIn() != 1 || !validReturn(mt) {
			continue
		}
		return rv.Method(i), true
	}
	return reflect.Value{}, false
}

var errorType = reflect.TypeFor[error]()

// validReturn reports whether a method returns (T) or (T, error).
func validReturn(mt reflect.Type) bool {
	switch mt.NumOut() {
	case 1:
		return true
	case 2:
		return mt.Out(1) == errorType
	default:
		return false
	}
}

// hostField describes how one exported struct field is read.
type hostField struct {
	name  string // Go field name
	key   string // attribute name
	index []int  // reflect.Value.FieldByIndex access path
}

// fieldCache caches field plans per struct type.
var fieldCache sync.Map // map[reflect.Type][]hostField

// fieldsFor returns the readable fields of a struct type, cached.
func fieldsFor(rt reflect.Type) []hostField {
	if cached, ok := fieldCache.Load(rt); ok {
		return cached.([]hostField)
	}

	meta := scanType(rt)
	fields := make([]hostField, 0, len(meta.Fields))
	for _, fm := range meta.Fields {
		apiTag, jsonTag := fm.Tags["api"], fm.Tags["json"]
		if apiTag == "-" || (apiTag == "" && jsonTag == "-") {
			continue
		}
		key, ok := tagName(apiTag)
		if !ok {
			key, ok = tagName(jsonTag)
		}
		if !ok {
			key = snakeCase(fm.Name)
		}
		fields = append(fields, hostField{name: fm.Name, key: key, index: fm.Index})
	}

	actual, _ := fieldCache.LoadOrStore(rt, fields)
	return actual.([]hostField)
}

// scanType returns sentinel metadata for rt, scanning promoted fields
// itself when sentinel has not seen the type.
func scanType(rt reflect.Type) sentinel.Metadata {
	if meta, ok := sentinel.Lookup(rt.String()); ok {
		return meta
	}

	meta := sentinel.Metadata{
		TypeName:    rt.Name(),
		PackageName: rt.PkgPath(),
	}

	for _, sf := range reflect.VisibleFields(rt) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}

		fm := sentinel.FieldMetadata{
			Name:        sf.Name,
			Type:        sf.Type.String(),
			ReflectType: sf.Type,
			Index:       sf.Index,
			Tags:        parseNameTags(sf.Tag),
		}

		switch sf.Type.Kind() {
		case reflect.Struct:
			fm.Kind = sentinel.KindStruct
		case reflect.Ptr:
			fm.Kind = sentinel.KindPointer
		case reflect.Slice, reflect.Array:
			fm.Kind = sentinel.KindSlice
		case reflect.Map:
			fm.Kind = sentinel.KindMap
		case reflect.Interface:
			fm.Kind = sentinel.KindInterface
		default:
			fm.Kind = sentinel.KindScalar
		}

		meta.Fields = append(meta.Fields, fm)
	}

	return meta
}

// parseNameTags extracts the tags that name attributes.
func parseNameTags(tag reflect.StructTag) map[string]string {
	tags := make(map[string]string)
	for _, key := range []string{"api", "json"} {
		if val, ok := tag.Lookup(key); ok {
			tags[key] = val
		}
	}
	return tags
}
