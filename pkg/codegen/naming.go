package codegen

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/oapi-codegen/oapi-modelgen/pkg/openapi"
)

// reservedWords are identifiers generated code must not declare. The check
// is case-insensitive since PascalCase names like "Class" still collide.
var reservedWords = map[string]bool{
	// Go keywords
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
	// Common keywords and builtin type names of the target languages
	"abstract": true, "and": true, "array": true, "as": true, "bool": true,
	"callable": true, "catch": true, "class": true, "clone": true, "declare": true,
	"do": true, "echo": true, "empty": true, "enum": true, "extends": true,
	"false": true, "final": true, "float": true, "fn": true, "foreach": true,
	"function": true, "global": true, "implements": true, "include": true,
	"instanceof": true, "int": true, "iterable": true, "list": true, "match": true,
	"mixed": true, "namespace": true, "new": true, "null": true, "object": true,
	"or": true, "parent": true, "print": true, "private": true, "protected": true,
	"public": true, "readonly": true, "require": true, "resource": true,
	"self": true, "static": true, "string": true, "throw": true, "trait": true,
	"true": true, "try": true, "unset": true, "use": true, "void": true,
	"while": true, "xor": true, "yield": true,
}

// splitWords folds accents away and splits s into runs of letters and
// digits.
func splitWords(s string) []string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// pascalCase converts s to PascalCase, keeping inner capitals:
// "pet_category-id" -> "PetCategoryId", "petID" -> "PetID".
func pascalCase(s string) string {
	caser := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, word := range splitWords(s) {
		b.WriteString(caser.String(word))
	}
	return b.String()
}

// typeSegment turns s into a single identifier segment. Empty results
// become "Empty", leading digits are prefixed with "T" and reserved words
// get suffix appended. The "Empty" placeholder is never suffixed.
func typeSegment(s string, suffix string, reserved map[string]bool) string {
	name := pascalCase(s)
	if name == "" {
		return "Empty"
	}
	if first := []rune(name)[0]; !unicode.IsLetter(first) {
		name = "T" + name
	}
	lower := strings.ToLower(name)
	if reservedWords[lower] || reserved[lower] {
		name += suffix
	}
	return name
}

// camelCase converts s to a property identifier.
func camelCase(s string) string {
	name := typeSegment(s, "", nil)
	r := []rune(name)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// enumCaseName derives the case name of an enum literal.
func enumCaseName(value any) string {
	if value == nil {
		return "Null"
	}
	return typeSegment(stringify(value), "", nil)
}

// Labeler hands out unique labels. It remembers every label it has issued
// or reserved, so one Labeler must be scoped to one namespace of a single
// run. Labels are compared case-insensitively.
type Labeler struct {
	taken map[string]bool
}

func NewLabeler() *Labeler {
	return &Labeler{taken: make(map[string]bool)}
}

// Reserve claims label. It reports false if label was already taken.
func (l *Labeler) Reserve(label string) bool {
	key := strings.ToLower(label)
	if l.taken[key] {
		return false
	}
	l.taken[key] = true
	return true
}

func (l *Labeler) IsTaken(label string) bool {
	return l.taken[strings.ToLower(label)]
}

// Label returns one unique label per candidate, in candidate order. A
// candidate occurring once and not yet taken is kept as is. Every other
// candidate gets a numeric suffix 1, 2, 3, ... in first-seen order,
// skipping labels already taken.
func (l *Labeler) Label(candidates []string) []string {
	counts := make(map[string]int, len(candidates))
	for _, c := range candidates {
		counts[strings.ToLower(c)]++
	}

	labels := make([]string, len(candidates))
	var pending []int
	for i, c := range candidates {
		if counts[strings.ToLower(c)] == 1 && l.Reserve(c) {
			labels[i] = c
			continue
		}
		pending = append(pending, i)
	}

	counters := make(map[string]int)
	for _, i := range pending {
		c := candidates[i]
		key := strings.ToLower(c)
		n := counters[key]
		var label string
		for {
			n++
			label = c + strconv.Itoa(n)
			if l.Reserve(label) {
				break
			}
		}
		counters[key] = n
		labels[i] = label
	}
	return labels
}

// NameResolver turns name hints into namespaced identifiers.
type NameResolver struct {
	Namespace string
	Separator string
	Strategy  NamingStrategy
	// Suffix is appended to segments colliding with a reserved word
	Suffix   string
	reserved map[string]bool
}

func NewNameResolver(namespace string, opts Configuration, suffix string) *NameResolver {
	opts = opts.UpdateDefaultValues()
	reserved := make(map[string]bool, len(opts.ReservedWords))
	for _, w := range opts.ReservedWords {
		reserved[strings.ToLower(w)] = true
	}
	return &NameResolver{
		Namespace: namespace,
		Separator: opts.NamespaceSeparator,
		Strategy:  opts.NamingStrategy,
		Suffix:    suffix,
		reserved:  reserved,
	}
}

// Normalize derives the identifier of name without disambiguation.
func (r *NameResolver) Normalize(name string) string {
	if r.Strategy == NamingNamespaced {
		words := strings.Fields(name)
		if len(words) == 0 {
			words = []string{""}
		}
		segments := make([]string, len(words))
		for i, w := range words {
			segments[i] = typeSegment(w, r.Suffix, r.reserved)
		}
		return joinNamespace(r.Separator, append([]string{r.Namespace}, segments...)...)
	}
	return joinNamespace(r.Separator, r.Namespace, typeSegment(name, r.Suffix, r.reserved))
}

// Resolve returns one unique identifier per name, in name order, drawing
// labels from labeler.
func (r *NameResolver) Resolve(names []string, labeler *Labeler) []string {
	normalized := make([]string, len(names))
	for i, name := range names {
		normalized[i] = r.Normalize(name)
	}
	return labeler.Label(normalized)
}

// KeyByUniqueName maps each unique identifier to the name it was derived
// from.
func (r *NameResolver) KeyByUniqueName(names []string) map[string]string {
	identifiers := r.Resolve(names, NewLabeler())
	out := make(map[string]string, len(names))
	for i, id := range identifiers {
		out[id] = names[i]
	}
	return out
}

// ShortName returns the last segment of identifier.
func (r *NameResolver) ShortName(identifier string) string {
	return shortName(identifier, r.Separator)
}

func shortName(identifier, separator string) string {
	if idx := strings.LastIndex(identifier, separator); idx >= 0 && separator != "" {
		return identifier[idx+len(separator):]
	}
	return identifier
}

// NameTable is the bijection between document pointers and model
// identifiers of one run.
type NameTable struct {
	separator   string
	identifiers map[openapi.Pointer]string
	pointers    map[string]openapi.Pointer
	enums       map[openapi.Pointer]bool
}

func NewNameTable(separator string) *NameTable {
	return &NameTable{
		separator:   separator,
		identifiers: make(map[openapi.Pointer]string),
		pointers:    make(map[string]openapi.Pointer),
		enums:       make(map[openapi.Pointer]bool),
	}
}

// Set records identifier for p, replacing any previous entry of p.
func (t *NameTable) Set(p openapi.Pointer, identifier string, isEnum bool) {
	if old, ok := t.identifiers[p]; ok {
		delete(t.pointers, old)
	}
	t.identifiers[p] = identifier
	t.pointers[identifier] = p
	t.enums[p] = isEnum
}

func (t *NameTable) Identifier(p openapi.Pointer) (string, bool) {
	id, ok := t.identifiers[p]
	return id, ok
}

func (t *NameTable) Pointer(identifier string) (openapi.Pointer, bool) {
	p, ok := t.pointers[identifier]
	return p, ok
}

// ClassRef returns a reference to the model named for p.
func (t *NameTable) ClassRef(p openapi.Pointer) (ClassRef, bool) {
	id, ok := t.identifiers[p]
	if !ok {
		return ClassRef{}, false
	}
	return ClassRef{Identifier: id, Pointer: p, IsEnum: t.enums[p]}, true
}

func (t *NameTable) ShortName(identifier string) string {
	return shortName(identifier, t.separator)
}

func (t *NameTable) Len() int {
	return len(t.identifiers)
}
