package codegen

import "github.com/oapi-codegen/oapi-modelgen/pkg/openapi"

func sliceToMap(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, item := range items {
		m[item] = true
	}
	return m
}

// operationFilter decides which operations take part in a run.
type operationFilter struct {
	includeTags         map[string]bool
	excludeTags         map[string]bool
	includeOperationIDs map[string]bool
	excludeOperationIDs map[string]bool
}

func newOperationFilter(opts OutputOptions) operationFilter {
	return operationFilter{
		includeTags:         sliceToMap(opts.IncludeTags),
		excludeTags:         sliceToMap(opts.ExcludeTags),
		includeOperationIDs: sliceToMap(opts.IncludeOperationIDs),
		excludeOperationIDs: sliceToMap(opts.ExcludeOperationIDs),
	}
}

// allows reports whether op survives the configured tag and operationId
// filters. Exclusion wins over inclusion.
func (f operationFilter) allows(op *openapi.Node) bool {
	if len(f.excludeTags) > 0 && operationHasTag(op, f.excludeTags) {
		return false
	}
	if len(f.includeTags) > 0 && !operationHasTag(op, f.includeTags) {
		return false
	}
	if len(f.excludeOperationIDs) > 0 && operationHasOperationID(op, f.excludeOperationIDs) {
		return false
	}
	if len(f.includeOperationIDs) > 0 && !operationHasOperationID(op, f.includeOperationIDs) {
		return false
	}
	return true
}

// operationHasTag returns true if the operation is tagged with any of tags
func operationHasTag(op *openapi.Node, tags map[string]bool) bool {
	if op == nil {
		return false
	}
	for _, hasTag := range op.Strings("tags") {
		if tags[hasTag] {
			return true
		}
	}
	return false
}

// operationHasOperationID returns true if the operation has operation id is included in operation ids
func operationHasOperationID(op *openapi.Node, operationIDs map[string]bool) bool {
	if op == nil {
		return false
	}
	return operationIDs[op.String("operationId")]
}
