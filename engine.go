package veneer

import (
	"context"
	"reflect"
	"sync"
)

// DefaultTemplate is the template applied to related objects when an
// association names none.
const DefaultTemplate = "default"

// Fallback decides what happens when an association names no template and
// the related type has no default template.
type Fallback uint8

const (
	// FallbackError fails the render with ErrUnknownTemplate.
	FallbackError Fallback = iota

	// FallbackSnapshot renders the related object's plain attribute snapshot.
	FallbackSnapshot
)

// Config holds the rendering policy of an Engine.
type Config struct {
	DefaultTemplate string   // Template used for associations without one
	Fallback        Fallback // Policy when DefaultTemplate is missing
	InheritTemplate bool     // Try the parent's template name before DefaultTemplate
}

// Option configures an Engine.
type Option func(*Engine)

// WithHost replaces the ReflectHost used to read domain objects.
func WithHost(h Host) Option {
	return func(e *Engine) {
		e.host = h
	}
}

// WithDefaultTemplate changes the implicit association template name.
func WithDefaultTemplate(name string) Option {
	return func(e *Engine) {
		e.cfg.DefaultTemplate = name
	}
}

// WithFallback sets the policy for a missing implicit association template.
func WithFallback(f Fallback) Option {
	return func(e *Engine) {
		e.cfg.Fallback = f
	}
}

// WithInheritedTemplate renders related objects with the template name the
// parent is being rendered with, when the related type defines it.
func WithInheritedTemplate() Option {
	return func(e *Engine) {
		e.cfg.InheritTemplate = true
	}
}

// WithEncryptor registers an encryptor for Sealed entries.
func WithEncryptor(algo EncryptAlgo, enc Encryptor) Option {
	return func(e *Engine) {
		e.caps.encryptors[algo] = enc
	}
}

// WithHasher registers or replaces a hasher for Hashed entries.
func WithHasher(algo HashAlgo, h Hasher) Option {
	return func(e *Engine) {
		e.caps.hashers[algo] = h
	}
}

// WithMasker registers or replaces a masker for Masked entries.
func WithMasker(mt MaskType, m Masker) Option {
	return func(e *Engine) {
		e.caps.maskers[mt] = m
	}
}

// capabilities holds the output filter handlers.
type capabilities struct {
	mu         sync.RWMutex
	encryptors map[EncryptAlgo]Encryptor
	hashers    map[HashAlgo]Hasher
	maskers    map[MaskType]Masker
}

// Engine owns the enabled types, their template registries and the host
// used to read objects. Engines are safe for concurrent use; templates are
// normally defined at startup and rendered from many goroutines.
type Engine struct {
	host Host
	cfg  Config
	caps *capabilities

	mu         sync.RWMutex
	registries map[reflect.Type]*Registry
}

// New creates an Engine. Builtin hashers and maskers are registered;
// encryptors must be supplied WithEncryptor before Sealed entries render.
func New(opts ...Option) *Engine {
	e := &Engine{
		host: ReflectHost{},
		cfg: Config{
			DefaultTemplate: DefaultTemplate,
			Fallback:        FallbackError,
		},
		caps: &capabilities{
			encryptors: make(map[EncryptAlgo]Encryptor),
			hashers:    builtinHashers(),
			maskers:    builtinMaskers(),
		},
		registries: make(map[reflect.Type]*Registry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the engine's rendering policy.
func (e *Engine) Config() Config { return e.cfg }

// Host returns the host the engine reads objects through.
func (e *Engine) Host() Host { return e.host }

// SetEncryptor registers an encryptor, e.g. to rotate keys.
// Returns the engine for chaining. Safe for concurrent use.
func (e *Engine) SetEncryptor(algo EncryptAlgo, enc Encryptor) *Engine {
	e.caps.mu.Lock()
	defer e.caps.mu.Unlock()
	e.caps.encryptors[algo] = enc
	return e
}

// SetHasher registers a hasher. Returns the engine for chaining.
func (e *Engine) SetHasher(algo HashAlgo, h Hasher) *Engine {
	e.caps.mu.Lock()
	defer e.caps.mu.Unlock()
	e.caps.hashers[algo] = h
	return e
}

// SetMasker registers a masker. Returns the engine for chaining.
func (e *Engine) SetMasker(mt MaskType, m Masker) *Engine {
	e.caps.mu.Lock()
	defer e.caps.mu.Unlock()
	e.caps.maskers[mt] = m
	return e
}

// Enable marks t as template-capable and returns its registry. Pointer
// types are unwrapped. Enabling twice returns the same registry.
func (e *Engine) Enable(t reflect.Type) *Registry {
	t = baseType(t)

	e.mu.RLock()
	reg, ok := e.registries[t]
	e.mu.RUnlock()
	if ok {
		return reg
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if reg, ok := e.registries[t]; ok {
		return reg
	}
	reg = newRegistry(t)
	e.registries[t] = reg
	emitTypeEnabled(context.Background(), typeName(t))
	return reg
}

// IsEnabled reports whether t was enabled.
func (e *Engine) IsEnabled(t reflect.Type) bool {
	_, ok := e.Registry(t)
	return ok
}

// Registry returns the template registry of an enabled type.
func (e *Engine) Registry(t reflect.Type) (*Registry, bool) {
	if t == nil {
		return nil, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	reg, ok := e.registries[baseType(t)]
	return reg, ok
}

// Define registers a template for t built by build. Redefining a name
// replaces the earlier template. The type must be enabled.
//
//	err := eng.Define(reflect.TypeFor[User](), "private", func(t *veneer.Builder) {
//	    t.Attribute("last_name")
//	    t.Remove("age")
//	}, veneer.Extends("public"))
func (e *Engine) Define(t reflect.Type, name string, build func(*Builder), opts ...DefineOption) error {
	reg, ok := e.Registry(t)
	if !ok {
		return newTemplateError(ErrTypeNotEnabled, t, name, nil)
	}

	tmpl, err := buildTemplate(reg.Owner(), name, build, opts)
	if err != nil {
		return err
	}

	e.install(reg, tmpl)
	return nil
}

// install registers a built template and announces it.
func (e *Engine) install(reg *Registry, tmpl *Template) {
	reg.register(tmpl)
	emitTemplateDefined(context.Background(), typeName(reg.Owner()), tmpl.name, tmpl.parent, len(tmpl.ops))
}

// baseType unwraps pointer types.
func baseType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// typeName returns a printable name for signals.
func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

var (
	defaultMu     sync.RWMutex
	defaultEngine = New()
)

// Default returns the process-wide engine used by the package functions.
func Default() *Engine {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultEngine
}

// Reset replaces the process-wide engine with a fresh one.
// This is primarily useful for test isolation.
func Reset(opts ...Option) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultEngine = New(opts...)
}

// Enable marks T as template-capable on the default engine.
func Enable[T any]() {
	Default().Enable(reflect.TypeFor[T]())
}

// IsEnabled reports whether T is enabled on the default engine.
func IsEnabled[T any]() bool {
	return Default().IsEnabled(reflect.TypeFor[T]())
}

// Define registers a template for T on the default engine.
func Define[T any](name string, build func(*Builder), opts ...DefineOption) error {
	return Default().Define(reflect.TypeFor[T](), name, build, opts...)
}

// Render renders obj with the named template on the default engine.
func Render(ctx context.Context, obj any, name string) (Tree, error) {
	return Default().Render(ctx, obj, name)
}

// Encode renders obj and marshals the tree with c on the default engine.
func Encode(ctx context.Context, c Codec, obj any, name string) ([]byte, error) {
	return Default().Encode(ctx, c, obj, name)
}

// LoadTemplates registers YAML-declared templates for T on the default engine.
func LoadTemplates[T any](data []byte) error {
	return Default().LoadTemplates(reflect.TypeFor[T](), data)
}
