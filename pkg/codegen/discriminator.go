package codegen

import (
	"github.com/oapi-codegen/oapi-modelgen/pkg/openapi"
)

// ResolveDiscriminator determines how the oneOf alternatives of node are
// told apart. It returns nil when node has no oneOf, or when the union
// cannot be discriminated automatically. It never fails.
//
// An explicit discriminator keyword is looked up on node, then on each
// oneOf branch, then on the first allOf member of each branch. Without one,
// branches are told apart by their own property names, which requires
// every branch to be a named model.
func ResolveDiscriminator(node *openapi.Node, names *NameTable) Discriminator {
	target, err := node.Resolve()
	if err != nil {
		return nil
	}
	branches := resolvedItems(target.Get("oneOf"))
	if len(branches) == 0 {
		return nil
	}

	if keyword := findDiscriminatorKeyword(target, branches); keyword != nil {
		return propertyValueDiscriminator(keyword, branches, names)
	}
	if d := propertyListDiscriminator(branches, names); d != nil {
		return d
	}
	return nil
}

// resolvedItems resolves the schemas of a sequence node, dropping those
// that cannot be resolved.
func resolvedItems(seq *openapi.Node) []*openapi.Node {
	var out []*openapi.Node
	for _, item := range seq.Items() {
		if resolved, err := item.Resolve(); err == nil {
			out = append(out, resolved)
		}
	}
	return out
}

func findDiscriminatorKeyword(node *openapi.Node, branches []*openapi.Node) *openapi.Node {
	if d := node.Get("discriminator"); d.IsMap() {
		return d
	}
	for _, branch := range branches {
		if d := branch.Get("discriminator"); d.IsMap() {
			return d
		}
	}
	for _, branch := range branches {
		allOf := resolvedItems(branch.Get("allOf"))
		if len(allOf) == 0 {
			continue
		}
		if d := allOf[0].Get("discriminator"); d.IsMap() {
			return d
		}
	}
	return nil
}

// propertyValueDiscriminator maps each named branch's short name to it,
// then applies the explicit mapping on top.
func propertyValueDiscriminator(keyword *openapi.Node, branches []*openapi.Node, names *NameTable) *PropertyValueDiscriminator {
	d := &PropertyValueDiscriminator{Key: keyword.String("propertyName")}
	for _, branch := range branches {
		if ref, ok := names.ClassRef(branch.Pointer()); ok {
			d.Set(names.ShortName(ref.Identifier), ref)
		}
	}
	for _, entry := range keyword.Get("mapping").Fields() {
		mapped, err := keyword.Document().ResolveRef(entry.Value.Value())
		if err != nil {
			continue
		}
		if mapped, err = mapped.Resolve(); err != nil {
			continue
		}
		if ref, ok := names.ClassRef(mapped.Pointer()); ok {
			d.Set(entry.Key, ref)
		}
	}
	return d
}

func propertyListDiscriminator(branches []*openapi.Node, names *NameTable) *PropertyListDiscriminator {
	d := &PropertyListDiscriminator{}
	for _, branch := range branches {
		ref, ok := names.ClassRef(branch.Pointer())
		if !ok {
			return nil
		}
		d.Candidates = append(d.Candidates, DiscriminatorCandidate{
			Target:     ref,
			Properties: branch.Get("properties").Keys(),
		})
	}
	return d
}
