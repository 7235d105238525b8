package openapi

import (
	"net/url"
	"strings"
)

// Pointer is a JSON Pointer (RFC 6901) identifying a node by its location in
// the source document, eg. "/components/schemas/Pet". The empty pointer
// addresses the whole document.
type Pointer string

// ComponentsSchemas is the container holding referenced component schemas.
const ComponentsSchemas Pointer = "/components/schemas"

var (
	tokenEscaper   = strings.NewReplacer("~", "~0", "/", "~1")
	tokenUnescaper = strings.NewReplacer("~1", "/", "~0", "~")
)

// Child returns the pointer to the given key or index below p.
func (p Pointer) Child(token string) Pointer {
	return p + "/" + Pointer(tokenEscaper.Replace(token))
}

// Parent returns the pointer of the containing node. The parent of the root
// is the root.
func (p Pointer) Parent() Pointer {
	idx := strings.LastIndex(string(p), "/")
	if idx <= 0 {
		return ""
	}
	return p[:idx]
}

// Last returns the unescaped final token, or "" for the root pointer.
func (p Pointer) Last() string {
	idx := strings.LastIndex(string(p), "/")
	if idx < 0 {
		return ""
	}
	return tokenUnescaper.Replace(string(p[idx+1:]))
}

// Tokens returns the unescaped reference tokens of p.
func (p Pointer) Tokens() []string {
	if p == "" {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(string(p), "/"), "/")
	for i, part := range parts {
		parts[i] = tokenUnescaper.Replace(part)
	}
	return parts
}

// IsComponentSchema reports whether p names an entry directly inside
// components/schemas.
func (p Pointer) IsComponentSchema() bool {
	return p != ComponentsSchemas && p.Parent() == ComponentsSchemas
}

func (p Pointer) String() string {
	return string(p)
}

// PointerFromRef converts a local reference ("#/components/schemas/Pet") to a
// pointer. A bare component name ("Pet"), as allowed in discriminator
// mappings, is taken to live in components/schemas. External references are
// reported as not ok.
func PointerFromRef(ref string) (Pointer, bool) {
	if ref == "" {
		return "", false
	}
	if !strings.Contains(ref, "#") {
		if strings.ContainsAny(ref, "/.") {
			return "", false
		}
		return ComponentsSchemas.Child(ref), true
	}
	if !strings.HasPrefix(ref, "#") {
		return "", false
	}
	fragment := ref[1:]
	if unescaped, err := url.PathUnescape(fragment); err == nil {
		fragment = unescaped
	}
	if fragment != "" && !strings.HasPrefix(fragment, "/") {
		return "", false
	}
	return Pointer(fragment), true
}
