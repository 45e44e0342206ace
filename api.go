// Package veneer renders domain objects into API response trees through
// named, declarative templates.
//
// A template lists the output fields of one type. Many templates may be
// registered per type, templates may extend one another, and associations
// render related objects through further templates. The result is a Tree
// (map[string]any) of scalars, nested Trees and []any sequences, ready for
// any Codec.
//
// # Enabling and Defining
//
// Types opt in explicitly before templates can be registered:
//
//	type User struct {
//	    FirstName string
//	    LastName  string
//	    Age       int
//	    Tasks     []*Task
//	    Profile   *Profile
//	}
//
//	func (u User) FullName() string { return u.FirstName + " " + u.LastName }
//
//	veneer.Enable[User]()
//
//	veneer.Define[User]("public", func(t *veneer.Builder) {
//	    t.Attribute("first_name")
//	    t.Attribute("last_name", veneer.As("family_name"))
//	})
//
//	veneer.Define[User]("private", func(t *veneer.Builder) {
//	    t.Computed("full_name", "full_name")
//	    t.Association("tasks", veneer.Using("summary"))
//	    t.SubNode("meta.age", veneer.Attr("age"))
//	    t.Remove("family_name")
//	}, veneer.Extends("public"))
//
//	tree, err := veneer.Render(ctx, user, "private")
//
// # Entries
//
// Each builder call records one entry:
//
//   - Attribute: reads a field (by api tag, json tag, snake_case or Go name)
//   - Computed: calls a method by name, or a function with the object
//   - Association: renders a related object or collection
//   - SubNode: places a value at a dotted path; sibling paths merge
//   - Remove: drops a key inherited from the parent template
//
// # Extension
//
// An extending template replays its ancestors' entries root first, then
// its own. Adding an existing key replaces it in place; removing a key
// drops it whichever ancestor added it. Parents may be defined after their
// children but must exist when rendering. Cycles fail with ErrCyclicExtension.
//
// # Associations
//
// Absent single associations render as nil, empty collections as an empty
// sequence. Related objects of enabled types render with the entry's
// template (Using), else the engine's default template ("default"). Related
// objects of types that are not enabled render as a plain attribute snapshot.
//
// # Output Filters
//
// Entries may sanitize their value on the way out:
//
//	t.Attribute("email", veneer.Masked(veneer.MaskEmail))
//	t.Attribute("password", veneer.Redacted("***"))
//	t.Attribute("id", veneer.Hashed(veneer.HashSHA256), veneer.As("etag"))
//	t.Attribute("cursor", veneer.Sealed(veneer.EncryptAES))
//
// # Key Order
//
// Trees are maps, so codecs write their keys sorted. RenderOrdered and
// EncodeOrdered keep effective entry set order instead: ancestors' keys
// first, replaced keys in their original position, sub-node children in
// declaration order.
//
//	out, err := eng.RenderOrdered(ctx, user, "private")
//	data, err := eng.EncodeOrdered(ctx, json.New(), user, "private")
//
// # Codecs
//
// The following codec implementations are available as subpackages:
//
//   - json - JSON encoding (application/json)
//   - xml - XML encoding (application/xml)
//   - yaml - YAML encoding (application/yaml)
//   - msgpack - MessagePack encoding (application/msgpack)
//   - bson - BSON encoding (application/bson)
//
// # Observability
//
// Enabling, defining, rendering and encoding emit capitan signals
// (SignalRenderComplete and friends) carrying typed fields.
package veneer
