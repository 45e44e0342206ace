package veneer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"

	"gopkg.in/yaml.v3"
)

// templateFile is the YAML document accepted by LoadTemplates.
type templateFile struct {
	Templates []templateDecl `yaml:"templates"`
}

// templateDecl declares one template. Entries are added in the order
// attributes, methods, associations, sub_nodes; removals run last.
type templateDecl struct {
	Name         string            `yaml:"name"`
	Extends      string            `yaml:"extends"`
	Attributes   []attributeDecl   `yaml:"attributes"`
	Methods      []methodDecl      `yaml:"methods"`
	Associations []associationDecl `yaml:"associations"`
	SubNodes     []subNodeDecl     `yaml:"sub_nodes"`
	Remove       []string          `yaml:"remove"`
}

// filterDecl holds the output filters an attribute or method may carry.
type filterDecl struct {
	Mask   string  `yaml:"mask"`
	Redact *string `yaml:"redact"`
	Hash   string  `yaml:"hash"`
	Seal   string  `yaml:"seal"`
}

// options converts the declared filters into entry options.
func (f filterDecl) options() []EntryOption {
	var opts []EntryOption
	if f.Mask != "" {
		opts = append(opts, Masked(MaskType(f.Mask)))
	}
	if f.Redact != nil {
		opts = append(opts, Redacted(*f.Redact))
	}
	if f.Hash != "" {
		opts = append(opts, Hashed(HashAlgo(f.Hash)))
	}
	if f.Seal != "" {
		opts = append(opts, Sealed(EncryptAlgo(f.Seal)))
	}
	return opts
}

var filterKeys = []string{"mask", "redact", "hash", "seal"}

// attributeDecl accepts "first_name" or {name: last_name, as: family_name}.
type attributeDecl struct {
	Name       string `yaml:"name"`
	As         string `yaml:"as"`
	filterDecl `yaml:",inline"`
}

// UnmarshalYAML implements custom YAML unmarshaling for attributeDecl.
func (a *attributeDecl) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&a.Name)
	}
	if err := checkKeys(node, append([]string{"name", "as"}, filterKeys...)...); err != nil {
		return err
	}
	type plain attributeDecl
	return node.Decode((*plain)(a))
}

// methodDecl accepts "full_name" or {key: name, method: full_name}.
// A missing method defaults to the key.
type methodDecl struct {
	Key        string `yaml:"key"`
	Method     string `yaml:"method"`
	filterDecl `yaml:",inline"`
}

// UnmarshalYAML implements custom YAML unmarshaling for methodDecl.
func (m *methodDecl) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		if err := node.Decode(&m.Key); err != nil {
			return err
		}
		m.Method = m.Key
		return nil
	}
	if err := checkKeys(node, append([]string{"key", "method"}, filterKeys...)...); err != nil {
		return err
	}
	type plain methodDecl
	if err := node.Decode((*plain)(m)); err != nil {
		return err
	}
	if m.Method == "" {
		m.Method = m.Key
	}
	return nil
}

// associationDecl accepts "tasks" or {name: tasks, as: todo, template: summary}.
type associationDecl struct {
	Name     string `yaml:"name"`
	As       string `yaml:"as"`
	Template string `yaml:"template"`
}

// UnmarshalYAML implements custom YAML unmarshaling for associationDecl.
func (a *associationDecl) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&a.Name)
	}
	if err := checkKeys(node, "name", "as", "template"); err != nil {
		return err
	}
	type plain associationDecl
	return node.Decode((*plain)(a))
}

// subNodeDecl places exactly one source at a dotted path.
type subNodeDecl struct {
	Path        string `yaml:"path"`
	Attribute   string `yaml:"attribute"`
	Method      string `yaml:"method"`
	Association string `yaml:"association"`
	Template    string `yaml:"template"`
	filterDecl  `yaml:",inline"`
}

// UnmarshalYAML implements custom YAML unmarshaling for subNodeDecl.
func (s *subNodeDecl) UnmarshalYAML(node *yaml.Node) error {
	if err := checkKeys(node, append([]string{"path", "attribute", "method", "association", "template"}, filterKeys...)...); err != nil {
		return err
	}
	type plain subNodeDecl
	return node.Decode((*plain)(s))
}

// source returns the single declared source.
func (s subNodeDecl) source() (Source, error) {
	var srcs []Source
	if s.Attribute != "" {
		srcs = append(srcs, Attr(s.Attribute))
	}
	if s.Method != "" {
		srcs = append(srcs, Method(s.Method))
	}
	if s.Association != "" {
		srcs = append(srcs, Assoc(s.Association, s.Template))
	}
	if len(srcs) != 1 {
		return Source{}, fmt.Errorf("sub_node %q needs exactly one of attribute, method or association", s.Path)
	}
	return srcs[0], nil
}

// checkKeys rejects mapping keys outside allowed. Node.Decode does not
// inherit the decoder's KnownFields setting, so custom unmarshalers check here.
func checkKeys(node *yaml.Node, allowed ...string) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected string or mapping, got %v", node.Line, node.Kind)
	}
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i].Value
		ok := false
		for _, a := range allowed {
			if key == a {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("line %d: field %s not found", node.Content[i].Line, key)
		}
	}
	return nil
}

// build returns the builder function for the declaration.
func (d templateDecl) build() (func(*Builder), error) {
	subs := make([]Source, len(d.SubNodes))
	for i, s := range d.SubNodes {
		src, err := s.source()
		if err != nil {
			return nil, err
		}
		subs[i] = src
	}

	return func(b *Builder) {
		for _, a := range d.Attributes {
			opts := a.options()
			if a.As != "" {
				opts = append(opts, As(a.As))
			}
			b.Attribute(a.Name, opts...)
		}
		for _, m := range d.Methods {
			b.Computed(m.Key, m.Method, m.options()...)
		}
		for _, a := range d.Associations {
			var opts []EntryOption
			if a.As != "" {
				opts = append(opts, As(a.As))
			}
			if a.Template != "" {
				opts = append(opts, Using(a.Template))
			}
			b.Association(a.Name, opts...)
		}
		for i, s := range d.SubNodes {
			b.SubNode(s.Path, subs[i], s.options()...)
		}
		for _, key := range d.Remove {
			b.Remove(key)
		}
	}, nil
}

// parseTemplates decodes a YAML template document without registering it.
// Unknown fields are rejected.
func parseTemplates(data []byte) (*templateFile, error) {
	var tf templateFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse templates YAML: %w", err)
	}
	return &tf, nil
}

// LoadTemplates registers the templates declared in a YAML document for t.
// Every template is validated before any is registered; on error nothing
// changes. Callables cannot be declared in YAML.
//
//	templates:
//	  - name: public
//	    attributes: [first_name, {name: last_name, as: family_name}]
//	  - name: private
//	    extends: public
//	    methods: [{key: full_name, method: full_name}]
//	    associations: [{name: tasks, template: summary}]
//	    sub_nodes: [{path: meta.age, attribute: age}]
//	    remove: [family_name]
func (e *Engine) LoadTemplates(t reflect.Type, data []byte) error {
	reg, ok := e.Registry(t)
	if !ok {
		return newTemplateError(ErrTypeNotEnabled, t, "", nil)
	}

	tf, err := parseTemplates(data)
	if err != nil {
		return err
	}

	built := make([]*Template, 0, len(tf.Templates))
	var errs []error
	for _, d := range tf.Templates {
		build, err := d.build()
		if err != nil {
			errs = append(errs, &DefinitionError{
				Err:      ErrInvalidEntry,
				Type:     reg.Owner(),
				Template: d.Name,
				Reason:   err.Error(),
			})
			continue
		}

		var opts []DefineOption
		if d.Extends != "" {
			opts = append(opts, Extends(d.Extends))
		}
		tmpl, err := buildTemplate(reg.Owner(), d.Name, build, opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		built = append(built, tmpl)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	for _, tmpl := range built {
		e.install(reg, tmpl)
	}
	return nil
}
