package veneer

import (
	"fmt"
	"strings"
)

// SourceKind identifies where an entry's value comes from.
type SourceKind uint8

const (
	// KindAttribute reads a named attribute off the object.
	KindAttribute SourceKind = iota + 1

	// KindMethod invokes a named zero-argument method on the object.
	KindMethod

	// KindCallable invokes an injected function with the object.
	KindCallable

	// KindSubNode builds a nested map from child entries.
	KindSubNode

	// KindAssociation renders related objects with a child template.
	KindAssociation
)

func (k SourceKind) String() string {
	switch k {
	case KindAttribute:
		return "attribute"
	case KindMethod:
		return "method"
	case KindCallable:
		return "callable"
	case KindSubNode:
		return "sub_node"
	case KindAssociation:
		return "association"
	default:
		return fmt.Sprintf("SourceKind(%d)", uint8(k))
	}
}

// Func computes a value from the object being rendered.
type Func func(obj any) (any, error)

// Fn adapts a typed function into a Func. The object may be passed as T or *T.
//
//	t.Computed("full_name", veneer.Fn(func(u User) string {
//	    return u.FirstName + " " + u.LastName
//	}))
func Fn[T, V any](f func(T) V) Func {
	return func(obj any) (any, error) {
		switch v := obj.(type) {
		case T:
			return f(v), nil
		case *T:
			if v != nil {
				return f(*v), nil
			}
		}
		var zero T
		return nil, fmt.Errorf("%w: callable expects %T, got %T", ErrInvalidEntry, zero, obj)
	}
}

// Entry is one output field instruction.
type Entry struct {
	Key      string     // Output key
	Kind     SourceKind // Value source
	Source   string     // Attribute, method or association name
	Func     Func       // Callable for KindCallable
	Template string     // Child template for KindAssociation
	Children []Entry    // Ordered sub-entries for KindSubNode
	Filters  []Filter   // Output filters applied to the resolved value
}

// Source describes a value without the key it will occupy.
// Build one with Attr, Method, Call or Assoc.
type Source struct {
	kind     SourceKind
	name     string
	fn       Func
	template string
}

// Attr sources a value from a named attribute.
func Attr(name string) Source {
	return Source{kind: KindAttribute, name: name}
}

// Method sources a value from a named zero-argument method.
func Method(name string) Source {
	return Source{kind: KindMethod, name: name}
}

// Call sources a value from fn invoked with the object.
func Call(fn Func) Source {
	return Source{kind: KindCallable, fn: fn}
}

// Assoc sources a value from an association rendered with an optional template.
func Assoc(name, template string) Source {
	return Source{kind: KindAssociation, name: name, template: template}
}

// entry turns a source into an entry occupying key.
func (s Source) entry(key string) Entry {
	return Entry{
		Key:      key,
		Kind:     s.kind,
		Source:   s.name,
		Func:     s.fn,
		Template: s.template,
	}
}

// EntryOption customizes an entry as it is added.
type EntryOption func(*Entry)

// As sets the output key of an entry.
func As(key string) EntryOption {
	return func(e *Entry) {
		e.Key = key
	}
}

// Using names the template applied to an association's related objects.
func Using(template string) EntryOption {
	return func(e *Entry) {
		e.Template = template
	}
}

// validate checks that exactly the field matching the kind is populated.
func (e Entry) validate() *DefinitionError {
	if e.Key == "" {
		return newDefinitionError(e.Source, "empty output key")
	}
	if strings.Contains(e.Key, ".") && e.Kind != KindSubNode {
		return newDefinitionError(e.Key, "output key contains '.'; use SubNode for nested paths")
	}
	switch e.Kind {
	case KindAttribute, KindMethod, KindAssociation:
		if e.Source == "" {
			return newDefinitionError(e.Key, fmt.Sprintf("%s without a name", e.Kind))
		}
		if e.Func != nil || len(e.Children) > 0 {
			return newDefinitionError(e.Key, fmt.Sprintf("%s carries a callable or children", e.Kind))
		}
	case KindCallable:
		if e.Func == nil {
			return newDefinitionError(e.Key, "callable without a function")
		}
		if e.Source != "" || len(e.Children) > 0 {
			return newDefinitionError(e.Key, "callable carries a name or children")
		}
	case KindSubNode:
		if len(e.Children) == 0 {
			return newDefinitionError(e.Key, "sub-node without children")
		}
		if e.Source != "" || e.Func != nil {
			return newDefinitionError(e.Key, "sub-node carries a name or callable")
		}
		for _, c := range e.Children {
			if err := c.validate(); err != nil {
				return err
			}
		}
	default:
		return newDefinitionError(e.Key, fmt.Sprintf("unknown source kind %s", e.Kind))
	}
	if e.Template != "" && e.Kind != KindAssociation {
		return newDefinitionError(e.Key, "template given for a non-association entry")
	}
	if len(e.Filters) > 0 && (e.Kind == KindSubNode || e.Kind == KindAssociation) {
		return newDefinitionError(e.Key, fmt.Sprintf("filters cannot apply to a %s", e.Kind))
	}
	for _, f := range e.Filters {
		if !f.validate() {
			return newDefinitionError(e.Key, fmt.Sprintf("unknown filter %s", f))
		}
	}
	return nil
}

// splitPath splits a dotted sub-node path, rejecting empty segments.
func splitPath(path string) ([]string, *DefinitionError) {
	if path == "" {
		return nil, newDefinitionError(path, "empty path")
	}
	segments := strings.Split(path, ".")
	for _, s := range segments {
		if s == "" {
			return nil, newDefinitionError(path, "empty path segment")
		}
	}
	return segments, nil
}

// nest wraps leaf in sub-nodes for each leading segment of path.
// A single-segment path yields the leaf itself.
func nest(segments []string, leaf Entry) Entry {
	leaf.Key = segments[len(segments)-1]
	for i := len(segments) - 2; i >= 0; i-- {
		leaf = Entry{
			Key:      segments[i],
			Kind:     KindSubNode,
			Children: []Entry{leaf},
		}
	}
	return leaf
}

// mergeEntry combines two entries sharing a key. Two sub-nodes merge
// child by child; otherwise next replaces prev. Inputs are not mutated.
func mergeEntry(prev, next Entry) Entry {
	if prev.Kind != KindSubNode || next.Kind != KindSubNode {
		return next
	}
	merged := prev
	merged.Children = append([]Entry(nil), prev.Children...)
	for _, child := range next.Children {
		replaced := false
		for i := range merged.Children {
			if merged.Children[i].Key == child.Key {
				merged.Children[i] = mergeEntry(merged.Children[i], child)
				replaced = true
				break
			}
		}
		if !replaced {
			merged.Children = append(merged.Children, child)
		}
	}
	return merged
}

// pruneEntry removes the child at path below e. It reports false when e
// is left without children and should itself be dropped.
func pruneEntry(e Entry, path []string) (Entry, bool) {
	if e.Kind != KindSubNode || len(path) == 0 {
		return e, true
	}
	children := make([]Entry, 0, len(e.Children))
	for _, child := range e.Children {
		if child.Key != path[0] {
			children = append(children, child)
			continue
		}
		if len(path) == 1 {
			continue
		}
		if pruned, keep := pruneEntry(child, path[1:]); keep {
			children = append(children, pruned)
		}
	}
	e.Children = children
	return e, len(children) > 0
}
