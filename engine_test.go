package veneer_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/zoobzio/veneer"
	"github.com/zoobzio/veneer/json"
	vtest "github.com/zoobzio/veneer/testing"
)

func TestNewDefaults(t *testing.T) {
	e := veneer.New()

	cfg := e.Config()
	if cfg.DefaultTemplate != veneer.DefaultTemplate || cfg.Fallback != veneer.FallbackError || cfg.InheritTemplate {
		t.Errorf("Config() = %+v", cfg)
	}
	if _, ok := e.Host().(veneer.ReflectHost); !ok {
		t.Errorf("Host() = %T, want ReflectHost", e.Host())
	}
}

func TestOptions(t *testing.T) {
	e := veneer.New(
		veneer.WithDefaultTemplate("summary"),
		veneer.WithFallback(veneer.FallbackSnapshot),
		veneer.WithInheritedTemplate(),
	)

	want := veneer.Config{DefaultTemplate: "summary", Fallback: veneer.FallbackSnapshot, InheritTemplate: true}
	if diff := cmp.Diff(want, e.Config()); diff != "" {
		t.Errorf("Config() mismatch (-want +got):\n%s", diff)
	}
}

func TestEnable(t *testing.T) {
	e := veneer.New()

	if e.IsEnabled(userType) {
		t.Fatal("type enabled before Enable")
	}

	reg := e.Enable(userType)
	if reg == nil || reg.Owner() != userType {
		t.Fatalf("Enable() = %v", reg)
	}
	if again := e.Enable(reflect.PointerTo(userType)); again != reg {
		t.Error("Enable() should return the same registry for pointer types")
	}
	if !e.IsEnabled(reflect.PointerTo(userType)) {
		t.Error("IsEnabled(*User) = false")
	}

	got, ok := e.Registry(userType)
	if !ok || got != reg {
		t.Errorf("Registry() = %v, %v", got, ok)
	}
	if _, ok := e.Registry(nil); ok {
		t.Error("Registry(nil) should report false")
	}
}

func TestDefineNotEnabled(t *testing.T) {
	e := veneer.New()

	err := e.Define(userType, "public", func(b *veneer.Builder) { b.Attribute("age") })
	if !errors.Is(err, veneer.ErrTypeNotEnabled) {
		t.Errorf("Define() error = %v, want ErrTypeNotEnabled", err)
	}
}

func TestDefineInvalid(t *testing.T) {
	e := vtest.NewEngine()

	err := e.Define(userType, "broken", func(b *veneer.Builder) { b.Attribute("") })
	if !errors.Is(err, veneer.ErrInvalidEntry) {
		t.Errorf("Define() error = %v, want ErrInvalidEntry", err)
	}

	reg, _ := e.Registry(userType)
	if _, ok := reg.Template("broken"); ok {
		t.Error("invalid template was registered")
	}
}

func TestDefineRedefine(t *testing.T) {
	e := vtest.NewEngine()
	mustDefine(t, e, userType, "public", func(b *veneer.Builder) { b.Attribute("first_name") })
	before := render(t, e, vtest.Luke(), "public")

	mustDefine(t, e, userType, "public", func(b *veneer.Builder) { b.Attribute("last_name") })
	after := render(t, e, vtest.Luke(), "public")

	if _, ok := before["first_name"]; !ok {
		t.Errorf("before = %v", before)
	}
	if diff := cmp.Diff(veneer.Tree{"last_name": "Skywalker"}, after); diff != "" {
		t.Errorf("redefined template mismatch (-want +got):\n%s", diff)
	}
}

func TestEnginesAreIsolated(t *testing.T) {
	a := vtest.NewEngine()
	other := vtest.NewEngine()
	mustDefine(t, a, userType, "public", func(b *veneer.Builder) { b.Attribute("first_name") })

	if _, err := other.Render(context.Background(), vtest.Luke(), "public"); !errors.Is(err, veneer.ErrUnknownTemplate) {
		t.Errorf("engines share templates: %v", err)
	}
}

func TestDefaultEngine(t *testing.T) {
	veneer.Reset()
	t.Cleanup(func() { veneer.Reset() })

	if veneer.IsEnabled[vtest.User]() {
		t.Fatal("User enabled after Reset")
	}
	if err := veneer.Define[vtest.User]("public", func(b *veneer.Builder) { b.Attribute("age") }); !errors.Is(err, veneer.ErrTypeNotEnabled) {
		t.Errorf("Define() error = %v, want ErrTypeNotEnabled", err)
	}

	veneer.Enable[vtest.User]()
	if !veneer.IsEnabled[vtest.User]() || !veneer.IsEnabled[*vtest.User]() {
		t.Fatal("User not enabled")
	}

	if err := veneer.Define[vtest.User]("public", func(b *veneer.Builder) {
		b.Attribute("first_name")
		b.Attribute("last_name", veneer.As("family_name"))
	}); err != nil {
		t.Fatalf("Define() error: %v", err)
	}

	tree, err := veneer.Render(context.Background(), vtest.Han(), "public")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if diff := cmp.Diff(veneer.Tree{"first_name": "Han", "family_name": "Solo"}, tree); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}

	data, err := veneer.Encode(context.Background(), json.New(), vtest.Han(), "public")
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if string(data) != `{"family_name":"Solo","first_name":"Han"}` {
		t.Errorf("Encode() = %s", data)
	}

	veneer.Reset(veneer.WithDefaultTemplate("brief"))
	if veneer.IsEnabled[vtest.User]() {
		t.Error("Reset() kept enabled types")
	}
	if veneer.Default().Config().DefaultTemplate != "brief" {
		t.Error("Reset() ignored options")
	}
}

// failingCodec fails every marshal.
type failingCodec struct{}

var errCodec = errors.New("codec exploded")

func (failingCodec) ContentType() string { return "application/x-failing" }

func (failingCodec) Marshal(any) ([]byte, error) { return nil, errCodec }

func (failingCodec) Unmarshal([]byte, any) error { return errCodec }

func TestEncodeErrors(t *testing.T) {
	e := vtest.NewEngine()
	mustDefine(t, e, userType, "public", func(b *veneer.Builder) { b.Attribute("first_name") })

	_, err := e.Encode(context.Background(), failingCodec{}, vtest.Luke(), "public")
	if !errors.Is(err, veneer.ErrMarshal) {
		t.Errorf("Encode() error = %v, want ErrMarshal", err)
	}
	var codecErr *veneer.CodecError
	if !errors.As(err, &codecErr) || codecErr.Cause != errCodec {
		t.Errorf("Encode() error = %#v, want CodecError with cause", err)
	}

	_, err = e.Encode(context.Background(), json.New(), vtest.Luke(), "missing")
	if !errors.Is(err, veneer.ErrUnknownTemplate) {
		t.Errorf("Encode() error = %v, want ErrUnknownTemplate", err)
	}
}

// mapHost reads map[string]any objects and keys registries by a fixed type.
type mapHost struct{ veneer.ReflectHost }

type record struct{}

func (mapHost) TypeOf(any) reflect.Type { return reflect.TypeFor[record]() }

func TestWithHost(t *testing.T) {
	e := veneer.New(veneer.WithHost(mapHost{}))
	e.Enable(reflect.TypeFor[record]())
	mustDefine(t, e, reflect.TypeFor[record](), "default", func(b *veneer.Builder) {
		b.Attribute("title", veneer.As("name"))
	})

	got := render(t, e, map[string]any{"title": "A New Hope", "year": 1977}, "default")
	if diff := cmp.Diff(veneer.Tree{"name": "A New Hope"}, got); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}
}
