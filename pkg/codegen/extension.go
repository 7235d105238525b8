package codegen

import (
	"fmt"

	"github.com/oapi-codegen/oapi-modelgen/pkg/openapi"
)

const (
	// extModelName overrides the name a schema's model is derived from.
	extModelName = "x-model-name"
	// extGoTypeName is used to override a generated typename for something.
	extGoTypeName   = "x-go-type-name"
	extEnumVarNames = "x-enum-varnames"
	extEnumNames    = "x-enumNames"
)

// decodeExtension decodes the value of extension key on node into target.
// It reports false when the extension is absent.
func decodeExtension(node *openapi.Node, key string, target any) (bool, error) {
	value := node.Get(key)
	if value == nil {
		return false, nil
	}
	if err := value.DecodeInto(target); err != nil {
		return true, fmt.Errorf("failed to decode %s at %s: %w", key, value.Pointer(), err)
	}
	return true, nil
}

func extString(node *openapi.Node, key string) (string, error) {
	var result string
	if _, err := decodeExtension(node, key, &result); err != nil {
		return "", err
	}
	return result, nil
}

// extModelNameOverride returns the explicit model name of a schema, if any.
func extModelNameOverride(node *openapi.Node) (string, error) {
	for _, key := range []string{extModelName, extGoTypeName} {
		name, err := extString(node, key)
		if err != nil {
			return "", err
		}
		if name != "" {
			return name, nil
		}
	}
	return "", nil
}

func extParseEnumVarNames(node *openapi.Node) ([]string, error) {
	for _, key := range []string{extEnumVarNames, extEnumNames} {
		var result []string
		found, err := decodeExtension(node, key, &result)
		if err != nil {
			return nil, err
		}
		if found {
			return result, nil
		}
	}
	return nil, nil
}
