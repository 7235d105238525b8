package codegen

import (
	"fmt"
	"sort"

	"github.com/oapi-codegen/oapi-modelgen/pkg/openapi"
)

// ModelClassifier turns located schemas into models.
type ModelClassifier struct {
	names      *NameTable
	properties *PropertyClassifier
}

func NewModelClassifier(names *NameTable, properties *PropertyClassifier) *ModelClassifier {
	return &ModelClassifier{names: names, properties: properties}
}

// Classify builds the model for s. The schema must have been named in the
// classifier's name table.
func (c *ModelClassifier) Classify(s NamedSchema) (Model, error) {
	identifier, ok := c.names.Identifier(s.Pointer)
	if !ok {
		return nil, fmt.Errorf("schema %s has no identifier", s.Pointer)
	}
	header := ModelHeader{
		Identifier:  identifier,
		Pointer:     s.Pointer,
		Description: s.Node.String("description"),
	}

	if isEnumModel(s.Node) {
		return c.enumModel(header, s.Node)
	}

	properties, err := c.Properties(s.Node)
	if err != nil {
		return nil, err
	}
	if isInterface(s.Node) {
		return &InterfaceModel{ModelHeader: header, Properties: properties}, nil
	}
	return &ClassModel{ModelHeader: header, Properties: properties}, nil
}

// isInterface reports whether node is a pure anyOf bag: no allOf, no
// object type and no properties of its own. Everything else composed is a
// class.
func isInterface(node *openapi.Node) bool {
	if !node.Has("anyOf") || node.Has("allOf") || node.Has("properties") {
		return false
	}
	for _, t := range node.Strings("type") {
		if t == "object" {
			return false
		}
	}
	return true
}

func (c *ModelClassifier) enumModel(header ModelHeader, node *openapi.Node) (*EnumModel, error) {
	kind, _ := enumModelKind(node)
	varNames, err := extParseEnumVarNames(node)
	if err != nil {
		return nil, err
	}

	var values []any
	for _, lit := range node.Get("enum").Items() {
		if lit.IsNull() {
			continue
		}
		if kind == ScalarString {
			values = append(values, lit.Value())
			continue
		}
		v, err := lit.Decode()
		if err != nil {
			return nil, fmt.Errorf("failed to decode enum value at %s: %w", lit.Pointer(), err)
		}
		values = append(values, v)
	}

	candidates := make([]string, len(values))
	for i, v := range values {
		candidates[i] = enumCaseName(v)
		if len(varNames) == len(values) && varNames[i] != "" {
			candidates[i] = typeSegment(varNames[i], "", nil)
		}
	}
	caseNames := NewLabeler().Label(candidates)

	model := &EnumModel{ModelHeader: header, Kind: kind}
	for i, v := range values {
		model.Cases = append(model.Cases, EnumCase{Name: caseNames[i], Value: v})
	}
	return model, nil
}

// Properties builds the property list of node in declaration order, with
// names made unique within the model.
func (c *ModelClassifier) Properties(node *openapi.Node) ([]Property, error) {
	fields, err := mergeFields(node)
	if err != nil {
		return nil, err
	}

	candidates := make([]string, len(fields))
	for i, f := range fields {
		candidates[i] = camelCase(f.name)
	}
	names := NewLabeler().Label(candidates)

	properties := make([]Property, 0, len(fields))
	for i, f := range fields {
		p, err := c.properties.Classify(f.node, names[i], f.name, f.required)
		if err != nil {
			return nil, err
		}
		properties = append(properties, p)
	}
	return properties, nil
}

// ParameterOrder returns properties in constructor parameter order:
// required properties without default first, then those with a default,
// then the rest. Each group is sorted by name.
func ParameterOrder(properties []Property) []Property {
	bucket := func(p Property) int {
		meta := p.Header().Metadata
		switch {
		case meta.Required && !meta.HasDefault && !meta.Nullable:
			return 0
		case meta.HasDefault:
			return 1
		}
		return 2
	}

	ordered := make([]Property, len(properties))
	copy(ordered, properties)
	sort.SliceStable(ordered, func(i, j int) bool {
		bi, bj := bucket(ordered[i]), bucket(ordered[j])
		if bi != bj {
			return bi < bj
		}
		return ordered[i].Header().Name < ordered[j].Header().Name
	})
	return ordered
}
