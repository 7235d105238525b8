package codegen

import (
	"fmt"
	"strings"

	"github.com/oapi-codegen/oapi-modelgen/pkg/openapi"
)

// NamedSchema is a schema fragment the locator decided deserves its own
// model, together with the human readable name hint it was found under.
type NamedSchema struct {
	Name    string
	Pointer openapi.Pointer
	Node    *openapi.Node
}

// Model is one of *ClassModel, *EnumModel or *InterfaceModel.
type Model interface {
	Header() *ModelHeader
}

// ModelHeader carries what every model kind has in common.
type ModelHeader struct {
	Identifier  string
	Pointer     openapi.Pointer
	Description string
}

func (h *ModelHeader) Header() *ModelHeader {
	return h
}

// ClassModel is a concrete object with constructor style fields.
type ClassModel struct {
	ModelHeader
	Properties []Property
}

// InterfaceModel is a capability contract for composed, non-discriminated
// anyOf bags.
type InterfaceModel struct {
	ModelHeader
	Properties []Property
}

// EnumModel is a closed string or integer enumeration.
type EnumModel struct {
	ModelHeader
	Kind  ScalarKind
	Cases []EnumCase
}

type EnumCase struct {
	Name  string
	Value any
}

// withIdentifier returns a shallow copy of m carrying identifier.
func withIdentifier(m Model, identifier string) Model {
	switch m := m.(type) {
	case *ClassModel:
		c := *m
		c.Identifier = identifier
		return &c
	case *InterfaceModel:
		c := *m
		c.Identifier = identifier
		return &c
	case *EnumModel:
		c := *m
		c.Identifier = identifier
		return &c
	}
	panic(fmt.Sprintf("unexpected model type %T", m))
}

// modelProperties returns the properties of class and interface models.
func modelProperties(m Model) []Property {
	switch m := m.(type) {
	case *ClassModel:
		return m.Properties
	case *InterfaceModel:
		return m.Properties
	case *EnumModel:
		return nil
	}
	panic(fmt.Sprintf("unexpected model type %T", m))
}

// Property is one of *SimpleProperty, *ArrayProperty or *UnionProperty.
type Property interface {
	Header() *PropertyHeader
}

type PropertyHeader struct {
	// Name is the collision free identifier used in generated code
	Name string
	// OriginalName is the name as it appears in the document
	OriginalName string
	Metadata     PropertyMetadata
}

func (h *PropertyHeader) Header() *PropertyHeader {
	return h
}

type PropertyMetadata struct {
	Title       string
	Description string
	Required    bool
	Nullable    bool
	ReadOnly    bool
	WriteOnly   bool
	Deprecated  bool
	HasDefault  bool
	Default     any
	Examples    []any
}

// SimpleProperty holds a single scalar or model typed value.
type SimpleProperty struct {
	PropertyHeader
	Type TypeRef
}

// ArrayProperty is a list when IsList is set, a string keyed map otherwise.
type ArrayProperty struct {
	PropertyHeader
	IsList      bool
	ElementType TypeRef
}

type UnionProperty struct {
	PropertyHeader
	Members []TypeRef
	// Discriminator is nil for ambiguous unions, which need manual
	// disambiguation downstream.
	Discriminator Discriminator
}

// TypeRef is one of ScalarType, ClassRef, ListType or UnionType.
type TypeRef interface {
	String() string
}

type ScalarKind string

const (
	ScalarString  ScalarKind = "string"
	ScalarInteger ScalarKind = "integer"
	ScalarNumber  ScalarKind = "number"
	ScalarBoolean ScalarKind = "boolean"
	ScalarNull    ScalarKind = "null"
	// ScalarMixed is a schema without any type constraint.
	ScalarMixed ScalarKind = "mixed"
	// ScalarObject is a free-form object that is not a model of its own.
	ScalarObject ScalarKind = "object"
)

type ScalarType struct {
	Kind   ScalarKind
	Format string
}

func (s ScalarType) String() string {
	if s.Format != "" {
		return fmt.Sprintf("%s(%s)", s.Kind, s.Format)
	}
	return string(s.Kind)
}

// ClassRef references another model, or a well-known value type when
// Pointer is empty.
type ClassRef struct {
	Identifier string
	Pointer    openapi.Pointer
	IsEnum     bool
}

func (c ClassRef) String() string {
	return c.Identifier
}

// ListType is an array or map in element position.
type ListType struct {
	IsList  bool
	Element TypeRef
}

func (l ListType) String() string {
	if l.IsList {
		return "list<" + l.Element.String() + ">"
	}
	return "map<string," + l.Element.String() + ">"
}

// UnionType is a union in element position.
type UnionType struct {
	Members       []TypeRef
	Discriminator Discriminator
}

func (u UnionType) String() string {
	parts := make([]string, len(u.Members))
	for i, m := range u.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, "|")
}

// Discriminator is one of *PropertyValueDiscriminator or
// *PropertyListDiscriminator.
type Discriminator interface {
	Targets() []ClassRef
}

// PropertyValueDiscriminator dispatches on the literal value of Key.
type PropertyValueDiscriminator struct {
	// Key is the discriminating property, empty when the document names none
	Key    string
	Values []DiscriminatorValue
}

type DiscriminatorValue struct {
	Value  string
	Target ClassRef
}

func (d *PropertyValueDiscriminator) Targets() []ClassRef {
	refs := make([]ClassRef, len(d.Values))
	for i, v := range d.Values {
		refs[i] = v.Target
	}
	return refs
}

// Set maps value to target, replacing an existing entry for value in place.
func (d *PropertyValueDiscriminator) Set(value string, target ClassRef) {
	for i := range d.Values {
		if d.Values[i].Value == value {
			d.Values[i].Target = target
			return
		}
	}
	d.Values = append(d.Values, DiscriminatorValue{Value: value, Target: target})
}

// PropertyListDiscriminator dispatches by matching the keys of the input
// against each candidate's property names.
type PropertyListDiscriminator struct {
	Candidates []DiscriminatorCandidate
}

type DiscriminatorCandidate struct {
	Target     ClassRef
	Properties []string
}

func (d *PropertyListDiscriminator) Targets() []ClassRef {
	refs := make([]ClassRef, len(d.Candidates))
	for i, c := range d.Candidates {
		refs[i] = c.Target
	}
	return refs
}

// OperationInfo describes one located operation or webhook.
type OperationInfo struct {
	Name        string
	Pointer     openapi.Pointer
	Path        string
	Method      string
	OperationID string
	Tags        []string
	Webhook     bool
}

// Handler is the request handler identifier derived for an operation.
type Handler struct {
	Identifier string
	Operation  OperationInfo
}
