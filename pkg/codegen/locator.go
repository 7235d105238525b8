package codegen

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/oapi-codegen/oapi-modelgen/pkg/openapi"
)

// operationMethods lists the operation keys of a path item in walk order.
var operationMethods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

// visitedSet is an immutable set of pointers. Each recursion branch extends
// its own copy, so siblings never see each other's visits.
type visitedSet struct {
	pointer openapi.Pointer
	parent  *visitedSet
}

func (v *visitedSet) contains(p openapi.Pointer) bool {
	for s := v; s != nil; s = s.parent {
		if s.pointer == p {
			return true
		}
	}
	return false
}

func (v *visitedSet) with(p openapi.Pointer) *visitedSet {
	return &visitedSet{pointer: p, parent: v}
}

// Location is the result of walking a document.
type Location struct {
	Schemas    []NamedSchema
	Operations []OperationInfo

	seen     map[openapi.Pointer]bool
	expanded map[openapi.Pointer]bool
}

func (loc *Location) add(name string, node *openapi.Node) {
	p := node.Pointer()
	if loc.seen[p] {
		return
	}
	loc.seen[p] = true
	loc.Schemas = append(loc.Schemas, NamedSchema{Name: name, Pointer: p, Node: node})
}

// Locator finds the model-worthy schema fragments of a document.
type Locator struct {
	filter operationFilter
	logger *slog.Logger
}

func NewLocator(opts OutputOptions, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = openapi.DiscardLogger()
	}
	return &Locator{filter: newOperationFilter(opts), logger: logger}
}

// Locate walks paths, then webhooks, then components/schemas depth first
// and returns every model-worthy schema once, in first-visit order.
func (l *Locator) Locate(doc *openapi.Document) (*Location, error) {
	if doc == nil || doc.Root() == nil {
		return nil, fmt.Errorf("%w: no document to walk", openapi.ErrMissingDocumentContext)
	}
	root := doc.Root()
	loc := &Location{
		seen:     make(map[openapi.Pointer]bool),
		expanded: make(map[openapi.Pointer]bool),
	}

	for _, path := range root.Get("paths").Fields() {
		if err := l.walkPathItem(loc, path.Key, pathName(path.Key), path.Value, false); err != nil {
			return nil, err
		}
	}

	for _, webhook := range root.Get("webhooks").Fields() {
		if err := l.walkPathItem(loc, webhook.Key, webhook.Key, webhook.Value, true); err != nil {
			return nil, err
		}
	}

	for _, schema := range root.Get("components").Get("schemas").Fields() {
		if err := l.walkSchema(loc, schema.Key, schema.Value, nil, false); err != nil {
			return nil, err
		}
	}

	return loc, nil
}

// pathName turns "/pets/{id}" into "pets id".
func pathName(path string) string {
	return strings.Join(strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '{' || r == '}'
	}), " ")
}

func (l *Locator) walkPathItem(loc *Location, path, name string, item *openapi.Node, webhook bool) error {
	item, err := item.Resolve()
	if err != nil {
		return err
	}

	type operation struct {
		method string
		node   *openapi.Node
	}
	var ops []operation
	for _, method := range operationMethods {
		op := item.Get(method)
		if op == nil {
			continue
		}
		if !l.filter.allows(op) {
			l.logger.Debug("skipping filtered operation", "path", path, "method", method)
			continue
		}
		ops = append(ops, operation{method: method, node: op})
	}
	if len(ops) == 0 {
		return nil
	}

	if err := l.walkParameters(loc, name, item.Get("parameters")); err != nil {
		return err
	}

	for _, op := range ops {
		opName := name + " " + op.method
		if id := op.node.String("operationId"); id != "" {
			opName = id
		}
		info := OperationInfo{
			Name:        opName,
			Pointer:     op.node.Pointer(),
			Path:        path,
			Method:      strings.ToUpper(op.method),
			OperationID: op.node.String("operationId"),
			Tags:        op.node.Strings("tags"),
			Webhook:     webhook,
		}
		loc.Operations = append(loc.Operations, info)
		if err := l.walkOperation(loc, opName, op.node); err != nil {
			return err
		}
	}
	return nil
}

func (l *Locator) walkOperation(loc *Location, name string, op *openapi.Node) error {
	if err := l.walkParameters(loc, name, op.Get("parameters")); err != nil {
		return err
	}

	if body := op.Get("requestBody"); body != nil {
		body, err := body.Resolve()
		if err != nil {
			return err
		}
		if err := l.walkSchema(loc, name+" RequestBody", mediaTypeSchema(body.Get("content")), nil, false); err != nil {
			return err
		}
	}

	type response struct {
		code   string
		node   *openapi.Node
		schema *openapi.Node
	}
	var responses []response
	for _, f := range op.Get("responses").Fields() {
		resp, err := f.Value.Resolve()
		if err != nil {
			return err
		}
		responses = append(responses, response{code: f.Key, node: resp, schema: mediaTypeSchema(resp.Get("content"))})
	}
	withSchema := 0
	for _, r := range responses {
		if r.schema != nil {
			withSchema++
		}
	}
	for _, r := range responses {
		if r.schema != nil {
			respName := name + " Response"
			if withSchema > 1 {
				respName = name + " " + statusName(r.code) + " Response"
			}
			if err := l.walkSchema(loc, respName, r.schema, nil, false); err != nil {
				return err
			}
		}
		for _, h := range r.node.Get("headers").Fields() {
			header, err := h.Value.Resolve()
			if err != nil {
				return err
			}
			if err := l.walkSchema(loc, name+" "+pascalCase(h.Key)+"Header", header.Get("schema"), nil, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// statusName names a response by its status code: "Status200" for numeric
// codes, the capitalised code otherwise ("Default", "2XX").
func statusName(code string) string {
	if _, err := strconv.Atoi(code); err == nil {
		return "Status" + code
	}
	return pascalCase(code)
}

func (l *Locator) walkParameters(loc *Location, name string, params *openapi.Node) error {
	for _, p := range params.Items() {
		param, err := p.Resolve()
		if err != nil {
			return err
		}
		schema := param.Get("schema")
		if schema == nil {
			schema = mediaTypeSchema(param.Get("content"))
		}
		if err := l.walkSchema(loc, name+" "+param.String("name")+" Param", schema, nil, false); err != nil {
			return err
		}
	}
	return nil
}

// mediaTypeSchema picks the schema of the JSON media type of content, or
// of the first media type carrying a schema.
func mediaTypeSchema(content *openapi.Node) *openapi.Node {
	var first *openapi.Node
	for _, mt := range content.Fields() {
		schema := mt.Value.Get("schema")
		if schema == nil {
			continue
		}
		if mt.Key == "application/json" || strings.HasSuffix(mt.Key, "+json") {
			return schema
		}
		if first == nil {
			first = schema
		}
	}
	return first
}

// walkSchema names node and its descendants. suppressed is set for allOf
// and anyOf branches, which only contribute properties to their parent
// unless they are components themselves.
func (l *Locator) walkSchema(loc *Location, name string, node *openapi.Node, visited *visitedSet, suppressed bool) error {
	if node == nil {
		return nil
	}
	target, err := node.Resolve()
	if err != nil {
		return err
	}
	p := target.Pointer()
	if visited.contains(p) {
		return nil
	}
	visited = visited.with(p)

	if p.IsComponentSchema() {
		name = p.Last()
		suppressed = false
	}
	override, err := extModelNameOverride(target)
	if err != nil {
		return err
	}
	if override != "" {
		name = override
	}

	if isModelWorthy(target) && !suppressed {
		l.logger.Debug("located schema", "name", name, "pointer", p)
		loc.add(name, target)
	}

	// A component's subtree is named after the component alone, so a
	// second expansion would yield nothing new.
	if p.IsComponentSchema() {
		if loc.expanded[p] {
			return nil
		}
		loc.expanded[p] = true
	}

	for _, prop := range target.Get("properties").Fields() {
		if err := l.walkSchema(loc, name+" "+prop.Key, prop.Value, visited, false); err != nil {
			return err
		}
	}
	if items := target.Get("items"); items.IsMap() {
		if err := l.walkSchema(loc, name+"Item", items, visited, false); err != nil {
			return err
		}
	}
	if ap := target.Get("additionalProperties"); ap.IsMap() {
		if err := l.walkSchema(loc, name+"Item", ap, visited, false); err != nil {
			return err
		}
	}
	for _, keyword := range []string{"allOf", "anyOf"} {
		for _, branch := range target.Get(keyword).Items() {
			if err := l.walkSchema(loc, name, branch, visited, true); err != nil {
				return err
			}
		}
	}
	for i, branch := range target.Get("oneOf").Items() {
		if err := l.walkSchema(loc, name+" Variant"+strconv.Itoa(i+1), branch, visited, false); err != nil {
			return err
		}
	}
	return nil
}

// isModelWorthy reports whether node becomes a model of its own: objects,
// allOf and anyOf compositions, and enums of strings or integers. Array and
// map wrappers never do.
func isModelWorthy(node *openapi.Node) bool {
	if node.Has("allOf") || node.Has("anyOf") {
		return true
	}
	if isEnumModel(node) {
		return true
	}
	if node.Has("properties") {
		return true
	}
	if isMapWrapper(node) {
		return false
	}
	for _, t := range node.Strings("type") {
		if t == "object" {
			return true
		}
	}
	return false
}

// isMapWrapper reports whether node is a string keyed map of a schema.
func isMapWrapper(node *openapi.Node) bool {
	return node.Get("additionalProperties").IsMap() && !node.Has("properties")
}

// isEnumModel reports whether node becomes an enum model.
func isEnumModel(node *openapi.Node) bool {
	_, ok := enumModelKind(node)
	return ok
}

// enumModelKind returns the kind of an enum model's cases. Under a declared
// string type every scalar literal is a case, taken by its text. Otherwise
// the literals must all be strings or all be integers, agreeing with the
// declared type if any. Null literals are ignored.
func enumModelKind(node *openapi.Node) (ScalarKind, bool) {
	literals := node.Get("enum").Items()
	var declared []string
	for _, t := range node.Strings("type") {
		if t != "null" {
			declared = append(declared, t)
		}
	}

	if len(declared) == 1 && ScalarKind(declared[0]) == ScalarString {
		cases := 0
		for _, lit := range literals {
			if !lit.IsScalar() {
				return "", false
			}
			if !lit.IsNull() {
				cases++
			}
		}
		return ScalarString, cases > 0
	}

	kind, ok := enumKind(literals)
	if !ok {
		return "", false
	}
	for _, t := range declared {
		if ScalarKind(t) != kind {
			return "", false
		}
	}
	return kind, true
}

// enumKind returns the shared kind of enum literals when it is string or
// integer. Null literals are ignored.
func enumKind(literals []*openapi.Node) (ScalarKind, bool) {
	var kind ScalarKind
	for _, lit := range literals {
		var k ScalarKind
		switch lit.YAML().Tag {
		case "!!null":
			continue
		case "!!str":
			k = ScalarString
		case "!!int":
			k = ScalarInteger
		default:
			return "", false
		}
		if kind != "" && k != kind {
			return "", false
		}
		kind = k
	}
	return kind, kind != ""
}
