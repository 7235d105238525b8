package codegen

import (
	"github.com/oapi-codegen/oapi-modelgen/pkg/openapi"
)

// schemaField is a property definition collected from a schema and its
// composition branches.
type schemaField struct {
	name     string
	node     *openapi.Node
	required bool
}

// mergeFields collects the properties of node. allOf branches contribute
// their properties with their own required lists, anyOf branches
// contribute theirs as optional, and the node's own properties follow. A
// property defined more than once keeps its first position and its last
// definition; allOf requirements accumulate.
func mergeFields(node *openapi.Node) ([]schemaField, error) {
	var fields []schemaField
	index := make(map[string]int)
	err := collectFields(node, false, nil, func(f schemaField) {
		if i, ok := index[f.name]; ok {
			f.required = f.required || fields[i].required
			fields[i] = f
			return
		}
		index[f.name] = len(fields)
		fields = append(fields, f)
	})
	if err != nil {
		return nil, err
	}
	return fields, nil
}

func collectFields(node *openapi.Node, optional bool, visited *visitedSet, emit func(schemaField)) error {
	target, err := node.Resolve()
	if err != nil {
		return err
	}
	if visited.contains(target.Pointer()) {
		return nil
	}
	visited = visited.with(target.Pointer())

	for _, branch := range target.Get("allOf").Items() {
		if err := collectFields(branch, optional, visited, emit); err != nil {
			return err
		}
	}
	for _, branch := range target.Get("anyOf").Items() {
		if err := collectFields(branch, true, visited, emit); err != nil {
			return err
		}
	}

	required := make(map[string]bool)
	if !optional {
		required = sliceToMap(target.Strings("required"))
	}
	for _, prop := range target.Get("properties").Fields() {
		emit(schemaField{name: prop.Key, node: prop.Value, required: required[prop.Key]})
	}
	return nil
}
