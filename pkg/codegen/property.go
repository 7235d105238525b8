package codegen

import (
	"fmt"

	"github.com/oapi-codegen/oapi-modelgen/pkg/openapi"
)

// PropertyClassifier derives the Property of a schema used as a field.
type PropertyClassifier struct {
	names   *NameTable
	mappers []TypeMapper
}

func NewPropertyClassifier(names *NameTable, mappers []TypeMapper) *PropertyClassifier {
	return &PropertyClassifier{names: names, mappers: mappers}
}

// Classify builds the property for node. Named schemas become class
// references; everything else is typed structurally.
func (c *PropertyClassifier) Classify(node *openapi.Node, name, originalName string, required bool) (Property, error) {
	target, err := node.Resolve()
	if err != nil {
		return nil, err
	}
	header := PropertyHeader{
		Name:         name,
		OriginalName: originalName,
		Metadata:     propertyMetadata(node, target, required),
	}

	t, err := c.TypeOf(target)
	if err != nil {
		return nil, err
	}
	switch t := t.(type) {
	case ListType:
		return &ArrayProperty{PropertyHeader: header, IsList: t.IsList, ElementType: t.Element}, nil
	case UnionType:
		return &UnionProperty{PropertyHeader: header, Members: t.Members, Discriminator: t.Discriminator}, nil
	case ScalarType, ClassRef:
		return &SimpleProperty{PropertyHeader: header, Type: t}, nil
	}
	return nil, fmt.Errorf("unexpected type reference %T", t)
}

// TypeOf derives the type of node. The checks run in a fixed order and the
// first match wins: named model, untyped enum, oneOf, map, list, scalar.
func (c *PropertyClassifier) TypeOf(node *openapi.Node) (TypeRef, error) {
	return c.typeOf(node, nil)
}

func (c *PropertyClassifier) typeOf(node *openapi.Node, visited *visitedSet) (TypeRef, error) {
	target, err := node.Resolve()
	if err != nil {
		return nil, err
	}

	if ref, ok := c.names.ClassRef(target.Pointer()); ok {
		return ref, nil
	}
	// Unnamed schemas containing themselves have no finite structural type.
	if visited.contains(target.Pointer()) {
		return ScalarType{Kind: ScalarMixed}, nil
	}
	visited = visited.with(target.Pointer())

	if literals := target.Get("enum").Items(); len(literals) > 0 && len(target.Strings("type")) == 0 {
		kinds, err := literalKinds(literals)
		if err != nil {
			return nil, err
		}
		if len(kinds) == 1 {
			return ScalarType{Kind: kinds[0]}, nil
		}
		members := make([]TypeRef, len(kinds))
		for i, k := range kinds {
			members[i] = ScalarType{Kind: k}
		}
		return UnionType{Members: members}, nil
	}

	if branches := target.Get("oneOf").Items(); len(branches) > 0 {
		members := make([]TypeRef, 0, len(branches))
		for _, branch := range branches {
			t, err := c.typeOf(branch, visited)
			if err != nil {
				return nil, err
			}
			members = append(members, t)
		}
		return UnionType{Members: members, Discriminator: ResolveDiscriminator(target, c.names)}, nil
	}

	if ap := target.Get("additionalProperties"); ap.IsMap() {
		element, err := c.typeOf(ap, visited)
		if err != nil {
			return nil, err
		}
		return ListType{IsList: false, Element: element}, nil
	}

	if items := target.Get("items"); items.IsMap() {
		element, err := c.typeOf(items, visited)
		if err != nil {
			return nil, err
		}
		return ListType{IsList: true, Element: element}, nil
	}

	return c.scalar(target)
}

// scalar types node by its type keyword, which may list several types.
// "null" only contributes nullability unless it stands alone.
func (c *PropertyClassifier) scalar(node *openapi.Node) (TypeRef, error) {
	format := node.String("format")
	var refs []TypeRef
	nullable := false
	for _, t := range node.Strings("type") {
		switch ScalarKind(t) {
		case ScalarNull:
			nullable = true
		case ScalarString, ScalarInteger, ScalarNumber, ScalarBoolean, ScalarObject:
			refs = append(refs, c.mapScalar(node, ScalarType{Kind: ScalarKind(t), Format: format}))
		case "array":
			refs = append(refs, ListType{IsList: true, Element: ScalarType{Kind: ScalarMixed}})
		default:
			return nil, &TypeError{Pointer: node.Pointer(), Value: t}
		}
	}
	switch {
	case len(refs) == 1:
		return refs[0], nil
	case len(refs) > 1:
		return UnionType{Members: refs}, nil
	case nullable:
		return ScalarType{Kind: ScalarNull}, nil
	}
	return ScalarType{Kind: ScalarMixed}, nil
}

func (c *PropertyClassifier) mapScalar(node *openapi.Node, scalar ScalarType) TypeRef {
	for _, m := range c.mappers {
		if t, ok := m.MapType(node, scalar); ok {
			return t
		}
	}
	return scalar
}

// literalKinds returns the distinct kinds of enum literals in first-seen
// order.
func literalKinds(literals []*openapi.Node) ([]ScalarKind, error) {
	var kinds []ScalarKind
	seen := make(map[ScalarKind]bool)
	for _, lit := range literals {
		var k ScalarKind
		switch lit.YAML().Tag {
		case "!!str":
			k = ScalarString
		case "!!int":
			k = ScalarInteger
		case "!!float":
			k = ScalarNumber
		case "!!bool":
			k = ScalarBoolean
		case "!!null":
			k = ScalarNull
		default:
			return nil, &TypeError{Pointer: lit.Pointer(), Value: lit.YAML().Tag}
		}
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}

// propertyMetadata reads the annotations of a property. Keywords next to a
// $ref at the usage site take precedence over the referenced schema's.
func propertyMetadata(site, target *openapi.Node, required bool) PropertyMetadata {
	keyword := func(key string) *openapi.Node {
		if v := site.Get(key); v != nil {
			return v
		}
		return target.Get(key)
	}
	flag := func(key string) bool {
		v := keyword(key)
		if v == nil {
			return false
		}
		b, _ := v.BoolValue()
		return b
	}

	meta := PropertyMetadata{
		Title:       keyword("title").Value(),
		Description: keyword("description").Value(),
		Required:    required,
		ReadOnly:    flag("readOnly"),
		WriteOnly:   flag("writeOnly"),
		Deprecated:  flag("deprecated"),
		Nullable:    flag("nullable"),
	}
	for _, t := range target.Strings("type") {
		if t == "null" {
			meta.Nullable = true
		}
	}

	if d := keyword("default"); d != nil {
		if v, err := d.Decode(); err == nil {
			meta.HasDefault = true
			meta.Default = v
		}
	}

	if examples := keyword("examples"); examples.IsSeq() {
		for _, e := range examples.Items() {
			if v, err := e.Decode(); err == nil {
				meta.Examples = append(meta.Examples, v)
			}
		}
	} else if example := keyword("example"); example != nil {
		if v, err := example.Decode(); err == nil {
			meta.Examples = []any{v}
		}
	}
	return meta
}

func stringify(value any) string {
	return fmt.Sprint(value)
}
