package veneer

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrTypeNotEnabled indicates a type was never passed to Enable.
	ErrTypeNotEnabled = errors.New("type not enabled")

	// ErrUnknownTemplate indicates a template, an ancestor in its extension
	// chain, or an association's child template is not registered.
	ErrUnknownTemplate = errors.New("unknown template")

	// ErrCyclicExtension indicates an extension chain revisits a template.
	ErrCyclicExtension = errors.New("cyclic extension")

	// ErrNilObject indicates Render was called with a nil object.
	ErrNilObject = errors.New("nil object")

	// ErrInvalidEntry indicates a builder call produced an unusable entry.
	ErrInvalidEntry = errors.New("invalid entry")

	// ErrMissingAttribute indicates the host could not read an attribute.
	ErrMissingAttribute = errors.New("missing attribute")

	// ErrMissingMethod indicates the host could not dispatch a method.
	ErrMissingMethod = errors.New("missing method")

	// ErrUnsupportedFilter indicates an output filter has no registered capability
	// or cannot handle the value it was given.
	ErrUnsupportedFilter = errors.New("unsupported filter")

	// ErrMarshal indicates the codec failed to marshal a rendered tree.
	ErrMarshal = errors.New("marshal failed")
)

// TemplateError represents a template lookup or extension failure.
// It wraps ErrUnknownTemplate, ErrCyclicExtension or ErrTypeNotEnabled.
type TemplateError struct {
	Err      error        // Underlying sentinel error
	Type     reflect.Type // Type whose registry was consulted
	Template string       // Template that failed to resolve
	Chain    []string     // Extension chain walked so far, most derived first
}

func (e *TemplateError) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if e.Template != "" {
		fmt.Fprintf(&b, " %q", e.Template)
	}
	if e.Type != nil {
		fmt.Fprintf(&b, " for type %s", e.Type)
	}
	if len(e.Chain) > 1 {
		fmt.Fprintf(&b, " (chain %s)", strings.Join(e.Chain, " -> "))
	}
	return b.String()
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// DefinitionError represents a rejected builder call.
type DefinitionError struct {
	Err      error        // Underlying sentinel error (ErrInvalidEntry)
	Type     reflect.Type // Owner type of the template being defined
	Template string       // Template being defined
	Key      string       // Output key or path of the offending entry
	Reason   string       // Human readable cause
}

func (e *DefinitionError) Error() string {
	msg := fmt.Sprintf("%s in template %q", e.Err.Error(), e.Template)
	if e.Key != "" {
		msg += fmt.Sprintf(" (key %s)", e.Key)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *DefinitionError) Unwrap() error {
	return e.Err
}

// HostError represents a failed attribute read or method dispatch.
// ReflectHost returns it; the renderer passes it through untouched.
type HostError struct {
	Err  error        // Underlying sentinel error (ErrMissingAttribute, ErrMissingMethod)
	Type reflect.Type // Type of the object being read
	Name string       // Attribute or method name
}

func (e *HostError) Error() string {
	return fmt.Sprintf("%s %q on %s", e.Err.Error(), e.Name, e.Type)
}

func (e *HostError) Unwrap() error {
	return e.Err
}

// FilterError represents an output filter that could not be applied.
type FilterError struct {
	Err    error  // Underlying sentinel error (ErrUnsupportedFilter)
	Key    string // Output key of the filtered entry
	Filter string // Filter in "kind:arg" form
	Cause  error  // Original error from the capability
}

func (e *FilterError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s on key %s: %v", e.Err.Error(), e.Filter, e.Key, e.Cause)
	}
	return fmt.Sprintf("%s %s on key %s", e.Err.Error(), e.Filter, e.Key)
}

func (e *FilterError) Unwrap() error {
	return e.Err
}

// CodecError represents a marshal error.
type CodecError struct {
	Err   error // Underlying sentinel error (ErrMarshal)
	Cause error // Original error from the codec
}

func (e *CodecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Err.Error(), e.Cause)
	}
	return e.Err.Error()
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// newTemplateError creates a TemplateError for lookup and extension failures.
func newTemplateError(sentinel error, typ reflect.Type, template string, chain []string) error {
	return &TemplateError{
		Err:      sentinel,
		Type:     typ,
		Template: template,
		Chain:    chain,
	}
}

// newDefinitionError creates a DefinitionError for rejected builder calls.
func newDefinitionError(key, reason string) *DefinitionError {
	return &DefinitionError{
		Err:    ErrInvalidEntry,
		Key:    key,
		Reason: reason,
	}
}

// newCodecError creates a CodecError for marshal failures.
func newCodecError(sentinel error, cause error) error {
	return &CodecError{
		Err:   sentinel,
		Cause: cause,
	}
}
