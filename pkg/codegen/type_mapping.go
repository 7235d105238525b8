package codegen

import (
	"net/url"
	"reflect"
	"time"

	"github.com/oapi-codegen/runtime/types"

	"github.com/oapi-codegen/oapi-modelgen/pkg/openapi"
)

// TypeMapper may replace the scalar type derived for a schema with a
// reference to a well-known value type.
type TypeMapper interface {
	MapType(node *openapi.Node, scalar ScalarType) (TypeRef, bool)
}

// TypeMapping maps a (type, format) pair to Target. An empty Format
// matches any format.
type TypeMapping struct {
	Type   string `yaml:"type"`
	Format string `yaml:"format,omitempty"`
	Target string `yaml:"target"`
}

func (m TypeMapping) MapType(_ *openapi.Node, scalar ScalarType) (TypeRef, bool) {
	if string(scalar.Kind) != m.Type {
		return nil, false
	}
	if m.Format != "" && m.Format != scalar.Format {
		return nil, false
	}
	return ClassRef{Identifier: m.Target}, true
}

// typeIdentifier names t by its import path, eg.
// "github.com/oapi-codegen/runtime/types.Date".
func typeIdentifier(t reflect.Type) string {
	return t.PkgPath() + "." + t.Name()
}

// DefaultTypeMappings returns the built in mappings of string formats to
// well-known value types. Targets name the oapi-codegen runtime types that
// generated code decodes these formats into, so the names are read off the
// types themselves.
func DefaultTypeMappings() []TypeMapping {
	return []TypeMapping{
		{Type: "string", Format: "date", Target: typeIdentifier(reflect.TypeOf(types.Date{}))},
		{Type: "string", Format: "date-time", Target: typeIdentifier(reflect.TypeOf(time.Time{}))},
		{Type: "string", Format: "duration", Target: typeIdentifier(reflect.TypeOf(time.Duration(0)))},
		{Type: "string", Format: "uuid", Target: typeIdentifier(reflect.TypeOf(types.UUID{}))},
		{Type: "string", Format: "email", Target: typeIdentifier(reflect.TypeOf(types.Email("")))},
		{Type: "string", Format: "binary", Target: typeIdentifier(reflect.TypeOf(types.File{}))},
		{Type: "string", Format: "uri", Target: typeIdentifier(reflect.TypeOf(url.URL{}))},
	}
}

// typeMappers returns the configured mappings followed by the defaults.
func typeMappers(opts Configuration) []TypeMapper {
	var mappers []TypeMapper
	for _, m := range opts.TypeMappings {
		mappers = append(mappers, m)
	}
	for _, m := range DefaultTypeMappings() {
		mappers = append(mappers, m)
	}
	return mappers
}
