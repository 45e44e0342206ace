package veneer

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// entryCmp compares entries ignoring callables.
var entryCmp = cmp.Options{
	cmpopts.IgnoreFields(Entry{}, "Func"),
	cmp.AllowUnexported(Filter{}),
}

func TestSourceKindString(t *testing.T) {
	tests := []struct {
		kind SourceKind
		want string
	}{
		{KindAttribute, "attribute"},
		{KindMethod, "method"},
		{KindCallable, "callable"},
		{KindSubNode, "sub_node"},
		{KindAssociation, "association"},
		{SourceKind(42), "SourceKind(42)"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

type fnUser struct{ Name string }

func TestFn(t *testing.T) {
	f := Fn(func(u fnUser) string { return u.Name + "!" })

	got, err := f(fnUser{Name: "Rey"})
	if err != nil || got != "Rey!" {
		t.Errorf("Fn(value) = %v, %v", got, err)
	}

	got, err = f(&fnUser{Name: "Finn"})
	if err != nil || got != "Finn!" {
		t.Errorf("Fn(pointer) = %v, %v", got, err)
	}

	if _, err := f((*fnUser)(nil)); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("Fn(nil pointer) error = %v, want ErrInvalidEntry", err)
	}
	if _, err := f("not a user"); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("Fn(wrong type) error = %v, want ErrInvalidEntry", err)
	}
}

func TestEntryValidate(t *testing.T) {
	fn := Func(func(any) (any, error) { return nil, nil })
	leaf := Attr("age").entry("age")

	tests := []struct {
		name    string
		entry   Entry
		wantErr bool
	}{
		{"attribute", Attr("age").entry("age"), false},
		{"method", Method("full_name").entry("name"), false},
		{"callable", Call(fn).entry("caps"), false},
		{"association", Assoc("tasks", "summary").entry("tasks"), false},
		{"sub-node", Entry{Key: "meta", Kind: KindSubNode, Children: []Entry{leaf}}, false},
		{"filtered attribute", Entry{Key: "email", Kind: KindAttribute, Source: "email", Filters: []Filter{{kind: filterMask, arg: "email"}}}, false},
		{"empty key", Attr("age").entry(""), true},
		{"dotted key", Attr("age").entry("a.b"), true},
		{"attribute without name", Attr("").entry("age"), true},
		{"attribute with callable", Entry{Key: "age", Kind: KindAttribute, Source: "age", Func: fn}, true},
		{"callable without func", Call(nil).entry("caps"), true},
		{"callable with name", Entry{Key: "caps", Kind: KindCallable, Source: "x", Func: fn}, true},
		{"empty sub-node", Entry{Key: "meta", Kind: KindSubNode}, true},
		{"sub-node with name", Entry{Key: "meta", Kind: KindSubNode, Source: "x", Children: []Entry{leaf}}, true},
		{"sub-node with bad child", Entry{Key: "meta", Kind: KindSubNode, Children: []Entry{Attr("").entry("x")}}, true},
		{"template on attribute", Entry{Key: "age", Kind: KindAttribute, Source: "age", Template: "t"}, true},
		{"filter on association", Entry{Key: "tasks", Kind: KindAssociation, Source: "tasks", Filters: []Filter{{kind: filterRedact}}}, true},
		{"unknown filter", Entry{Key: "email", Kind: KindAttribute, Source: "email", Filters: []Filter{{kind: filterHash, arg: "md5"}}}, true},
		{"unknown kind", Entry{Key: "x", Source: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidEntry) {
				t.Errorf("validate() error = %v, want ErrInvalidEntry", err)
			}
		})
	}
}

func TestSplitPath(t *testing.T) {
	segs, err := splitPath("sub_nodes.foo.bar")
	if err != nil {
		t.Fatalf("splitPath() error: %v", err)
	}
	if diff := cmp.Diff([]string{"sub_nodes", "foo", "bar"}, segs); diff != "" {
		t.Errorf("splitPath() mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"", ".", "a..b", "a.", ".a"} {
		if _, err := splitPath(bad); err == nil {
			t.Errorf("splitPath(%q) should fail", bad)
		}
	}
}

func TestNest(t *testing.T) {
	got := nest([]string{"sub_nodes", "foo", "bar"}, Attr("last_name").entry(""))
	want := Entry{
		Key:  "sub_nodes",
		Kind: KindSubNode,
		Children: []Entry{{
			Key:      "foo",
			Kind:     KindSubNode,
			Children: []Entry{{Key: "bar", Kind: KindAttribute, Source: "last_name"}},
		}},
	}
	if diff := cmp.Diff(want, got, entryCmp); diff != "" {
		t.Errorf("nest() mismatch (-want +got):\n%s", diff)
	}

	single := nest([]string{"age"}, Attr("age").entry(""))
	if single.Kind != KindAttribute || single.Key != "age" {
		t.Errorf("nest(single) = %+v, want plain attribute", single)
	}
}

func TestMergeEntry(t *testing.T) {
	a := nest([]string{"sub_nodes", "foo", "foo1"}, Attr("first_name").entry(""))
	b := nest([]string{"sub_nodes", "foo", "foo2"}, Attr("last_name").entry(""))
	c := nest([]string{"sub_nodes", "bar"}, Attr("age").entry(""))

	got := mergeEntry(mergeEntry(a, b), c)
	want := Entry{
		Key:  "sub_nodes",
		Kind: KindSubNode,
		Children: []Entry{
			{Key: "foo", Kind: KindSubNode, Children: []Entry{
				{Key: "foo1", Kind: KindAttribute, Source: "first_name"},
				{Key: "foo2", Kind: KindAttribute, Source: "last_name"},
			}},
			{Key: "bar", Kind: KindAttribute, Source: "age"},
		},
	}
	if diff := cmp.Diff(want, got, entryCmp); diff != "" {
		t.Errorf("mergeEntry() mismatch (-want +got):\n%s", diff)
	}

	// inputs untouched
	if len(a.Children[0].Children) != 1 {
		t.Error("mergeEntry() mutated its input")
	}

	// non sub-nodes replace
	replaced := mergeEntry(Attr("age").entry("x"), Method("full_name").entry("x"))
	if replaced.Kind != KindMethod {
		t.Errorf("mergeEntry() kind = %s, want method", replaced.Kind)
	}
	replaced = mergeEntry(a, Attr("age").entry("sub_nodes"))
	if replaced.Kind != KindAttribute {
		t.Errorf("mergeEntry() kind = %s, want attribute", replaced.Kind)
	}
}

func TestPruneEntry(t *testing.T) {
	tree := mergeEntry(
		nest([]string{"meta", "foo"}, Attr("first_name").entry("")),
		nest([]string{"meta", "bar"}, Attr("last_name").entry("")),
	)

	pruned, keep := pruneEntry(tree, []string{"foo"})
	if !keep || len(pruned.Children) != 1 || pruned.Children[0].Key != "bar" {
		t.Errorf("pruneEntry(foo) = %+v, %v", pruned, keep)
	}

	pruned, keep = pruneEntry(pruned, []string{"bar"})
	if keep {
		t.Errorf("pruneEntry(bar) should drop the emptied sub-node, got %+v", pruned)
	}

	_, keep = pruneEntry(tree, []string{"missing"})
	if !keep {
		t.Error("pruneEntry(missing) should keep the sub-node")
	}
}
