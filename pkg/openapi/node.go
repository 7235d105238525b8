package openapi

import (
	"strconv"

	"gopkg.in/yaml.v3"
)

// Node is a read-only view of one location in a parsed document. Every node
// knows its document pointer; two nodes denote the same schema iff their
// pointers are equal.
type Node struct {
	doc     *Document
	yaml    *yaml.Node
	pointer Pointer
}

// Field is one key/value entry of a mapping node, in document order.
type Field struct {
	Key   string
	Value *Node
}

func newNode(doc *Document, n *yaml.Node, p Pointer) *Node {
	if n == nil {
		return nil
	}
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	return &Node{doc: doc, yaml: n, pointer: p}
}

// Pointer returns the location of the node in its document.
func (n *Node) Pointer() Pointer {
	return n.pointer
}

// Document returns the document the node belongs to.
func (n *Node) Document() *Document {
	return n.doc
}

// Line returns the 1-based source line of the node, 0 when unknown.
func (n *Node) Line() int {
	return n.yaml.Line
}

// Column returns the 1-based source column of the node, 0 when unknown.
func (n *Node) Column() int {
	return n.yaml.Column
}

func (n *Node) IsMap() bool {
	return n != nil && n.yaml.Kind == yaml.MappingNode
}

func (n *Node) IsSeq() bool {
	return n != nil && n.yaml.Kind == yaml.SequenceNode
}

func (n *Node) IsScalar() bool {
	return n != nil && n.yaml.Kind == yaml.ScalarNode
}

// IsNull reports whether the node is an explicit YAML/JSON null.
func (n *Node) IsNull() bool {
	return n.IsScalar() && n.yaml.Tag == "!!null"
}

// Get returns the value stored under key in a mapping node, or nil. It does
// not follow references.
func (n *Node) Get(key string) *Node {
	if !n.IsMap() {
		return nil
	}
	content := n.yaml.Content
	for i := 0; i+1 < len(content); i += 2 {
		if content[i].Value == key {
			return newNode(n.doc, content[i+1], n.pointer.Child(key))
		}
	}
	return nil
}

// Has reports whether a mapping node carries key.
func (n *Node) Has(key string) bool {
	return n.Get(key) != nil
}

// Fields returns the entries of a mapping node in document order.
func (n *Node) Fields() []Field {
	if !n.IsMap() {
		return nil
	}
	content := n.yaml.Content
	fields := make([]Field, 0, len(content)/2)
	for i := 0; i+1 < len(content); i += 2 {
		key := content[i].Value
		fields = append(fields, Field{Key: key, Value: newNode(n.doc, content[i+1], n.pointer.Child(key))})
	}
	return fields
}

// Keys returns the keys of a mapping node in document order.
func (n *Node) Keys() []string {
	fields := n.Fields()
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	return keys
}

// Items returns the elements of a sequence node.
func (n *Node) Items() []*Node {
	if !n.IsSeq() {
		return nil
	}
	items := make([]*Node, len(n.yaml.Content))
	for i, c := range n.yaml.Content {
		items[i] = newNode(n.doc, c, n.pointer.Child(strconv.Itoa(i)))
	}
	return items
}

// Len returns the number of entries of a mapping or sequence node.
func (n *Node) Len() int {
	switch {
	case n.IsMap():
		return len(n.yaml.Content) / 2
	case n.IsSeq():
		return len(n.yaml.Content)
	}
	return 0
}

// Value returns the raw scalar text of the node.
func (n *Node) Value() string {
	if !n.IsScalar() {
		return ""
	}
	return n.yaml.Value
}

// String returns the scalar text stored under key, or "".
func (n *Node) String(key string) string {
	return n.Get(key).Value()
}

// Strings returns the scalar texts stored under key. A single scalar is
// returned as a one element slice, which lets callers treat OpenAPI 3.1 type
// arrays and 3.0 type strings alike.
func (n *Node) Strings(key string) []string {
	v := n.Get(key)
	switch {
	case v.IsScalar():
		if v.IsNull() {
			return nil
		}
		return []string{v.Value()}
	case v.IsSeq():
		var out []string
		for _, item := range v.Items() {
			if item.IsScalar() {
				out = append(out, item.Value())
			}
		}
		return out
	}
	return nil
}

// Bool returns the boolean stored under key and whether it was present.
func (n *Node) Bool(key string) (value, ok bool) {
	return n.Get(key).BoolValue()
}

// BoolValue interprets a scalar node as a boolean.
func (n *Node) BoolValue() (value, ok bool) {
	if !n.IsScalar() {
		return false, false
	}
	b, err := strconv.ParseBool(n.Value())
	if err != nil {
		return false, false
	}
	return b, true
}

// Decode converts the node into plain Go values (string, int, float64, bool,
// nil, []any, map[string]any).
func (n *Node) Decode() (any, error) {
	var out any
	if err := n.yaml.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeInto decodes the node into target, as yaml.v3 would.
func (n *Node) DecodeInto(target any) error {
	return n.yaml.Decode(target)
}

// Ref returns the $ref string of the node, or "".
func (n *Node) Ref() string {
	return n.String("$ref")
}

// IsRef reports whether the node is a reference object.
func (n *Node) IsRef() bool {
	return n.Ref() != ""
}

// Resolve follows $ref chains and returns the referenced node, which carries
// the pointer of the target location. Nodes without a reference resolve to
// themselves.
func (n *Node) Resolve() (*Node, error) {
	current := n
	seen := map[Pointer]bool{}
	for current.IsRef() {
		if seen[current.pointer] {
			return nil, &ReferenceError{Ref: n.Ref(), Pointer: n.pointer, IsCircular: true}
		}
		seen[current.pointer] = true

		target, err := n.doc.ResolveRef(current.Ref())
		if err != nil {
			return nil, &ReferenceError{Ref: current.Ref(), Pointer: current.pointer, Cause: err}
		}
		current = target
	}
	return current, nil
}

// YAML exposes the underlying yaml node.
func (n *Node) YAML() *yaml.Node {
	return n.yaml
}
