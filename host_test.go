package veneer

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type hostProfile struct {
	Avatar string
}

type hostTask struct {
	Heading string
	Done    bool
}

type hostBase struct {
	ID string `json:"id"`
}

type hostUser struct {
	hostBase
	FirstName string
	LastName  string `api:"surname"`
	Email     string `json:"email_address,omitempty"`
	Password  string `json:"-"`
	Secret    string `api:"-" json:"secret"`
	Profile   *hostProfile
	Tasks     []hostTask
	Avatar    []byte
	hidden    string
}

func (u hostUser) FullName() string { return u.FirstName + " " + u.LastName }

func (u *hostUser) DoneTasks() []hostTask {
	var out []hostTask
	for _, t := range u.Tasks {
		if t.Done {
			out = append(out, t)
		}
	}
	return out
}

var errNoShip = errors.New("no ship")

func (u hostUser) Pilot() (string, error) { return "", errNoShip }

func (u hostUser) Greet(name string) string { return "hi " + name }

func newHostUser() hostUser {
	return hostUser{
		hostBase:  hostBase{ID: "u1"},
		FirstName: "Luke",
		LastName:  "Skywalker",
		Email:     "luke@rebellion.org",
		Password:  "usetheforce",
		Secret:    "father",
		Tasks:     []hostTask{{Heading: "Train", Done: true}, {Heading: "Rest"}},
		hidden:    "x",
	}
}

type overridden struct{ data map[string]any }

func (o overridden) ReadAttribute(name string) (any, bool) {
	v, ok := o.data[name]
	return v, ok
}

func (o overridden) Snapshot() map[string]any { return o.data }

func TestReflectHostTypeOf(t *testing.T) {
	h := ReflectHost{}
	u := newHostUser()
	pu := &u

	if h.TypeOf(u) != reflect.TypeFor[hostUser]() || h.TypeOf(&pu) != reflect.TypeFor[hostUser]() {
		t.Error("TypeOf() should unwrap pointers")
	}
	if h.TypeOf(nil) != nil {
		t.Error("TypeOf(nil) should be nil")
	}
}

func TestReflectHostAttribute(t *testing.T) {
	h := ReflectHost{}
	u := newHostUser()

	tests := []struct {
		name string
		want any
	}{
		{"first_name", "Luke"},
		{"FirstName", "Luke"},
		{"surname", "Skywalker"},
		{"LastName", "Skywalker"},
		{"email_address", "luke@rebellion.org"},
		{"id", "u1"},
		{"tasks", u.Tasks},
	}

	for _, tt := range tests {
		for _, obj := range []any{u, &u} {
			got, err := h.Attribute(obj, tt.name)
			if err != nil {
				t.Errorf("Attribute(%T, %q) error: %v", obj, tt.name, err)
				continue
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Attribute(%q) mismatch (-want +got):\n%s", tt.name, diff)
			}
		}
	}
}

func TestReflectHostAttributeMissing(t *testing.T) {
	h := ReflectHost{}
	u := newHostUser()

	for _, name := range []string{"last_name", "password", "Password", "secret", "hidden", "nope", "full_name"} {
		_, err := h.Attribute(u, name)
		if !errors.Is(err, ErrMissingAttribute) {
			t.Errorf("Attribute(%q) error = %v, want ErrMissingAttribute", name, err)
			continue
		}
		var hostErr *HostError
		if !errors.As(err, &hostErr) || hostErr.Name != name || hostErr.Type != reflect.TypeFor[hostUser]() {
			t.Errorf("Attribute(%q) error = %#v", name, err)
		}
	}
}

func TestReflectHostAttributeMap(t *testing.T) {
	h := ReflectHost{}
	m := map[string]any{"planet": "Tatooine"}

	got, err := h.Attribute(m, "planet")
	if err != nil || got != "Tatooine" {
		t.Errorf("Attribute(map) = %v, %v", got, err)
	}
	if _, err := h.Attribute(m, "moon"); !errors.Is(err, ErrMissingAttribute) {
		t.Errorf("Attribute(map, moon) error = %v", err)
	}
	if _, err := h.Attribute(map[int]string{1: "a"}, "1"); !errors.Is(err, ErrMissingAttribute) {
		t.Errorf("Attribute(int map) error = %v", err)
	}
}

func TestReflectHostAttributer(t *testing.T) {
	h := ReflectHost{}
	o := overridden{data: map[string]any{"name": "Ahsoka"}}

	got, err := h.Attribute(o, "name")
	if err != nil || got != "Ahsoka" {
		t.Errorf("Attribute(Attributer) = %v, %v", got, err)
	}
	if _, err := h.Attribute(o, "missing"); !errors.Is(err, ErrMissingAttribute) {
		t.Errorf("Attribute(Attributer, missing) error = %v", err)
	}
}

func TestReflectHostCall(t *testing.T) {
	h := ReflectHost{}
	u := newHostUser()

	for _, name := range []string{"full_name", "FullName"} {
		got, err := h.Call(u, name)
		if err != nil || got != "Luke Skywalker" {
			t.Errorf("Call(%q) = %v, %v", name, got, err)
		}
	}

	// pointer receiver reachable from a value
	got, err := h.Call(u, "done_tasks")
	if err != nil {
		t.Fatalf("Call(done_tasks) error: %v", err)
	}
	if diff := cmp.Diff([]hostTask{{Heading: "Train", Done: true}}, got); diff != "" {
		t.Errorf("Call(done_tasks) mismatch (-want +got):\n%s", diff)
	}

	// method errors pass through unchanged
	if _, err := h.Call(u, "pilot"); err != errNoShip {
		t.Errorf("Call(pilot) error = %v, want errNoShip", err)
	}

	for _, name := range []string{"greet", "nope", "first_name"} {
		if _, err := h.Call(u, name); !errors.Is(err, ErrMissingMethod) {
			t.Errorf("Call(%q) error = %v, want ErrMissingMethod", name, err)
		}
	}
}

func TestReflectHostAssociation(t *testing.T) {
	h := ReflectHost{}
	u := newHostUser()

	assoc, err := h.Association(u, "profile")
	if err != nil || assoc.Kind != AssociationAbsent {
		t.Errorf("Association(nil profile) = %+v, %v", assoc, err)
	}

	u.Profile = &hostProfile{Avatar: "luke.jpg"}
	assoc, err = h.Association(u, "profile")
	if err != nil || assoc.Kind != AssociationOne || assoc.One != u.Profile {
		t.Errorf("Association(profile) = %+v, %v", assoc, err)
	}

	assoc, err = h.Association(u, "tasks")
	if err != nil || assoc.Kind != AssociationMany || len(assoc.Many) != 2 {
		t.Errorf("Association(tasks) = %+v, %v", assoc, err)
	}

	// method fallback for scoped collections
	assoc, err = h.Association(u, "done_tasks")
	if err != nil || assoc.Kind != AssociationMany || len(assoc.Many) != 1 {
		t.Errorf("Association(done_tasks) = %+v, %v", assoc, err)
	}

	if _, err := h.Association(u, "nope"); !errors.Is(err, ErrMissingAttribute) {
		t.Errorf("Association(nope) error = %v, want ErrMissingAttribute", err)
	}
	if _, err := h.Association(u, "pilot"); err != errNoShip {
		t.Errorf("Association(pilot) error = %v, want errNoShip", err)
	}
}

func TestClassify(t *testing.T) {
	var nilProfile *hostProfile
	var nilSlice []hostTask

	tests := []struct {
		name string
		v    any
		want AssociationKind
		n    int
	}{
		{"nil", nil, AssociationAbsent, 0},
		{"nil pointer", nilProfile, AssociationAbsent, 0},
		{"struct", hostProfile{}, AssociationOne, 0},
		{"pointer", &hostProfile{}, AssociationOne, 0},
		{"nil slice", nilSlice, AssociationMany, 0},
		{"empty slice", []hostTask{}, AssociationMany, 0},
		{"slice", []hostTask{{}, {}}, AssociationMany, 2},
		{"array", [3]int{}, AssociationMany, 3},
		{"bytes", []byte("abc"), AssociationOne, 0},
	}

	for _, tt := range tests {
		got := classify(tt.v)
		if got.Kind != tt.want || len(got.Many) != tt.n {
			t.Errorf("classify(%s) = %+v, want kind %d with %d items", tt.name, got, tt.want, tt.n)
		}
	}
}

func TestReflectHostSnapshot(t *testing.T) {
	h := ReflectHost{}

	got, err := h.Snapshot(&hostProfile{Avatar: "leia.jpg"})
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if diff := cmp.Diff(Tree{"avatar": "leia.jpg"}, got); diff != "" {
		t.Errorf("Snapshot(struct) mismatch (-want +got):\n%s", diff)
	}

	got, _ = h.Snapshot(map[string]int{"a": 1})
	if diff := cmp.Diff(Tree{"a": 1}, got); diff != "" {
		t.Errorf("Snapshot(map) mismatch (-want +got):\n%s", diff)
	}

	got, _ = h.Snapshot(overridden{data: map[string]any{"x": "y"}})
	if diff := cmp.Diff(Tree{"x": "y"}, got); diff != "" {
		t.Errorf("Snapshot(Snapshotter) mismatch (-want +got):\n%s", diff)
	}

	got, _ = h.Snapshot(42)
	if got != 42 {
		t.Errorf("Snapshot(scalar) = %v, want 42", got)
	}

	u := newHostUser()
	snap, _ := h.Snapshot(u)
	tree := snap.(Tree)
	for _, hidden := range []string{"password", "secret", "hidden", "Password"} {
		if _, ok := tree[hidden]; ok {
			t.Errorf("Snapshot(user) exposes %q", hidden)
		}
	}
	if tree["surname"] != "Skywalker" || tree["id"] != "u1" {
		t.Errorf("Snapshot(user) = %v", tree)
	}
}

func TestFieldsForCached(t *testing.T) {
	rt := reflect.TypeFor[hostUser]()
	first := fieldsFor(rt)
	second := fieldsFor(rt)
	if len(first) == 0 || &first[0] != &second[0] {
		t.Error("fieldsFor() should return the cached plan")
	}
}
