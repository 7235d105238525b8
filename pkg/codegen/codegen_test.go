package codegen

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/oapi-codegen/oapi-modelgen/pkg/openapi"
)

const petstoreSpec = `
openapi: 3.1.0
info:
  title: Petstore
  version: 1.0.0
paths:
  /pets:
    get:
      operationId: listPets
      tags: [pets]
      responses:
        '200':
          description: OK
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: '#/components/schemas/Pet'
    post:
      operationId: createPet
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [name]
              properties:
                name:
                  type: string
                tag:
                  type: string
                  default: none
      responses:
        '201':
          description: Created
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
  /pets/{id}:
    get:
      responses:
        '200':
          description: OK
          content:
            application/json:
              schema:
                type: object
                properties:
                  id:
                    type: integer
                  category:
                    $ref: '#/components/schemas/Category'
components:
  schemas:
    Pet:
      type: object
      description: A pet
      required: [id, name]
      properties:
        id:
          type: integer
          format: int64
        name:
          type: string
        status:
          type: string
          enum: [available, sold]
        category:
          $ref: '#/components/schemas/Category'
    Category:
      type: object
      properties:
        name:
          type: string
`

func loadSpec(t *testing.T, spec string) *openapi.Document {
	t.Helper()
	doc, err := openapi.NewLoader().LoadFromData([]byte(spec))
	require.NoError(t, err)
	return doc
}

func generate(t *testing.T, spec string, opts Configuration) *Result {
	t.Helper()
	result, err := Generate(loadSpec(t, spec), opts)
	require.NoError(t, err)
	return result
}

func componentPointer(name string) openapi.Pointer {
	return openapi.Pointer("/components/schemas").Child(name)
}

func modelIdentifiers(result *Result) []string {
	ids := make([]string, len(result.Models))
	for i, m := range result.Models {
		ids[i] = m.Header().Identifier
	}
	return ids
}

func handlerIdentifiers(result *Result) []string {
	ids := make([]string, len(result.Handlers))
	for i, h := range result.Handlers {
		ids[i] = h.Identifier
	}
	return ids
}

// writeArtifacts renders a marked type declaration for every model and
// handler of result below dir, one directory per namespace segment.
func writeArtifacts(t *testing.T, dir, base string, result *Result) {
	t.Helper()
	manifest, err := result.Manifest()
	require.NoError(t, err)

	write := func(identifier, marker string) {
		segments := strings.Split(strings.TrimPrefix(identifier, base+`\`), `\`)
		name := segments[len(segments)-1]
		path := filepath.Join(append([]string{dir}, segments[:len(segments)-1]...)...)
		require.NoError(t, os.MkdirAll(path, 0o755))
		src := fmt.Sprintf("package generated\n\n%s\ntype %s struct{}\n", marker, name)
		require.NoError(t, os.WriteFile(filepath.Join(path, strings.ToLower(name)+".go"), []byte(src), 0o600))
	}
	for _, m := range manifest.Models {
		write(m.Identifier, m.Marker)
	}
	for _, h := range manifest.Handlers {
		write(h.Identifier, h.Marker)
	}
}

func TestGenerate(t *testing.T) {
	result := generate(t, petstoreSpec, Configuration{BaseNamespace: `Api\Model`})

	assert.Equal(t, []string{
		`Api\Model\Pet`,
		`Api\Model\PetStatus`,
		`Api\Model\Category`,
		`Api\Model\CreatePetRequestBody`,
		`Api\Model\PetsIdGetResponse`,
	}, modelIdentifiers(result))
	assert.Equal(t, []string{
		`Api\Model\Handler\ListPets`,
		`Api\Model\Handler\CreatePet`,
		`Api\Model\Handler\PetsIdGet`,
	}, handlerIdentifiers(result))

	pet, ok := result.Model(componentPointer("Pet"))
	require.True(t, ok)
	class, ok := pet.(*ClassModel)
	require.True(t, ok)
	assert.Equal(t, "A pet", class.Description)
	assert.Equal(t, []string{"id", "name", "status", "category"}, propertyNames(class.Properties))
	assert.Equal(t, ClassRef{
		Identifier: `Api\Model\PetStatus`,
		Pointer:    "/components/schemas/Pet/properties/status",
		IsEnum:     true,
	}, class.Properties[2].(*SimpleProperty).Type)

	response, ok := result.Model("/paths/~1pets~1{id}/get/responses/200/content/application~1json/schema")
	require.True(t, ok)
	category := modelProperties(response)[1].(*SimpleProperty)
	assert.Equal(t, ClassRef{Identifier: `Api\Model\Category`, Pointer: componentPointer("Category")}, category.Type)

	id, ok := result.Names.Identifier(componentPointer("Category"))
	assert.True(t, ok)
	assert.Equal(t, `Api\Model\Category`, id)
	assert.Equal(t, len(result.Models), result.Names.Len())
}

func TestGenerateNamespacedStrategy(t *testing.T) {
	result := generate(t, petstoreSpec, Configuration{BaseNamespace: "Api", NamingStrategy: NamingNamespaced})

	assert.Equal(t, []string{
		`Api\Pet`,
		`Api\Pet\Status`,
		`Api\Category`,
		`Api\CreatePet\RequestBody`,
		`Api\Pets\Id\Get\Response`,
	}, modelIdentifiers(result))
	assert.Equal(t, `Api\Handler\Pets\Id\Get`, result.Handlers[2].Identifier)
}

func TestGenerateIsIdempotent(t *testing.T) {
	const base = `Api\Model`
	first := generate(t, petstoreSpec, Configuration{BaseNamespace: base})

	dir := t.TempDir()
	writeArtifacts(t, dir, base, first)

	second := generate(t, petstoreSpec, Configuration{BaseNamespace: base, ExistingModelsPath: dir})

	firstManifest, err := first.Manifest()
	require.NoError(t, err)
	secondManifest, err := second.Manifest()
	require.NoError(t, err)
	assert.Equal(t, firstManifest, secondManifest)
}

func TestGeneratePreservesRenamedArtifacts(t *testing.T) {
	const base = `Api\Model`
	first := generate(t, petstoreSpec, Configuration{BaseNamespace: base})

	dir := t.TempDir()
	writeArtifacts(t, dir, base, first)
	// A user renamed the generated Category type and added a second handler
	// for the same route.
	require.NoError(t, os.Remove(filepath.Join(dir, "category.go")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kind.go"), []byte(`package generated

//oapi:model {"pointer":"/components/schemas/Category"}
type Kind struct{}
`), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Http"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Http", "show.go"), []byte(`package http

//oapi:handler {"path":"/pets/{id}","method":"GET"}
type ShowPet struct{}
`), 0o600))

	second := generate(t, petstoreSpec, Configuration{BaseNamespace: base, ExistingModelsPath: dir})

	category, ok := second.Model(componentPointer("Category"))
	require.True(t, ok)
	assert.Equal(t, `Api\Model\Kind`, category.Header().Identifier)

	pet, ok := second.Model(componentPointer("Pet"))
	require.True(t, ok)
	assert.Equal(t, `Api\Model\Kind`, modelProperties(pet)[3].(*SimpleProperty).Type.String())

	// Handlers are matched by pointer first, so the stale marker in the
	// Handler directory wins over the path and method of ShowPet.
	assert.Equal(t, `Api\Model\Handler\PetsIdGet`, second.Handlers[2].Identifier)
}

func TestGenerateMatchesHandlersByPathAndMethod(t *testing.T) {
	const base = `Api\Model`
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "show.go"), []byte(`package generated

//oapi:handler {"path":"/pets/{id}","method":"GET"}
type ShowPet struct{}
`), 0o600))

	result := generate(t, petstoreSpec, Configuration{BaseNamespace: base, ExistingModelsPath: dir})
	assert.Equal(t, `Api\Model\ShowPet`, result.Handlers[2].Identifier)
}

func TestGenerateRelabelsNewSchemasAroundExistingOnes(t *testing.T) {
	const base = `Api\Model`
	first := generate(t, petstoreSpec, Configuration{BaseNamespace: base})
	dir := t.TempDir()
	writeArtifacts(t, dir, base, first)

	changed := petstoreSpec + `
    category:
      type: object
      properties:
        label:
          type: string
`
	second := generate(t, changed, Configuration{BaseNamespace: base, ExistingModelsPath: dir})

	category, ok := second.Model(componentPointer("Category"))
	require.True(t, ok)
	assert.Equal(t, `Api\Model\Category`, category.Header().Identifier)

	added, ok := second.Model(componentPointer("category"))
	require.True(t, ok)
	assert.Equal(t, `Api\Model\Category2`, added.Header().Identifier)
}

func TestGenerateIdentifiersAreUnique(t *testing.T) {
	spec := `
openapi: 3.1.0
info:
  title: Collisions
  version: 1.0.0
paths:
  /pet:
    get:
      operationId: pet
      responses:
        '200':
          description: OK
          content:
            application/json:
              schema:
                x-model-name: Pet
                type: object
                properties:
                  name:
                    type: string
components:
  schemas:
    Pet:
      type: object
    pet:
      type: object
    PET:
      type: object
    Handler:
      type: object
    class:
      type: object
    Class:
      type: object
`
	result := generate(t, spec, Configuration{BaseNamespace: "Api"})

	assert.Equal(t, []string{
		`Api\Pet1`,
		`Api\Pet2`,
		`Api\Pet3`,
		`Api\PET4`,
		`Api\Handler`,
		`Api\ClassModel1`,
		`Api\ClassModel2`,
	}, modelIdentifiers(result))

	seen := make(map[string]bool)
	for _, id := range append(modelIdentifiers(result), handlerIdentifiers(result)...) {
		key := strings.ToLower(id)
		assert.False(t, seen[key], "duplicate identifier %s", id)
		seen[key] = true
	}
	assert.Equal(t, `Api\Handler\Pet`, result.Handlers[0].Identifier)
}

func TestGenerateErrors(t *testing.T) {
	t.Run("missing document", func(t *testing.T) {
		_, err := Generate(nil, Configuration{})
		assert.True(t, errors.Is(err, openapi.ErrMissingDocumentContext))
	})

	t.Run("unresolved reference", func(t *testing.T) {
		doc, err := openapi.ParseDocument([]byte(`
openapi: 3.1.0
info:
  title: Broken
  version: 1.0.0
paths:
  /pets:
    get:
      responses:
        '200':
          description: OK
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
`))
		require.NoError(t, err)
		_, err = Generate(doc, Configuration{})
		assert.True(t, errors.Is(err, openapi.ErrUnresolvedReference))
	})

	t.Run("invalid configuration", func(t *testing.T) {
		_, err := Generate(loadSpec(t, petstoreSpec), Configuration{NamingStrategy: "deep"})
		assert.True(t, errors.Is(err, ErrConfig))
	})

	t.Run("unreadable existing models path", func(t *testing.T) {
		_, err := Generate(loadSpec(t, petstoreSpec), Configuration{
			BaseNamespace:      "Api",
			ExistingModelsPath: filepath.Join(t.TempDir(), "missing"),
		})
		assert.True(t, errors.Is(err, ErrConfig))
	})
}

type staticLister []ExistingArtifact

func (l staticLister) ListExistingArtifacts(string, string) ([]ExistingArtifact, error) {
	return l, nil
}

func TestGenerateWithArtifactLister(t *testing.T) {
	result := generate(t, petstoreSpec, Configuration{
		BaseNamespace:      "Api",
		ExistingModelsPath: "snapshot",
		ArtifactLister: staticLister{{
			Identifier: `Api\Animal`,
			Kind:       ArtifactModel,
			Marker:     ArtifactMarker{Pointer: componentPointer("Pet")},
		}},
	})
	pet, ok := result.Model(componentPointer("Pet"))
	require.True(t, ok)
	assert.Equal(t, `Api\Animal`, pet.Header().Identifier)

	p, ok := result.Names.Pointer(`Api\Animal`)
	assert.True(t, ok)
	assert.Equal(t, componentPointer("Pet"), p)
}

func TestGenerateLogsProgress(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	generate(t, petstoreSpec, Configuration{BaseNamespace: "Api", Logger: logger})
	assert.Contains(t, logs.String(), "located schemas")
	assert.Contains(t, logs.String(), "resolved identifier")
}

func TestManifest(t *testing.T) {
	result := generate(t, petstoreSpec, Configuration{BaseNamespace: `Api\Model`})
	manifest, err := result.Manifest()
	require.NoError(t, err)

	require.Len(t, manifest.Models, 5)
	pet := manifest.Models[0]
	assert.Equal(t, `Api\Model\Pet`, pet.Identifier)
	assert.Equal(t, "class", pet.Kind)
	assert.Equal(t, `//oapi:model {"pointer":"/components/schemas/Pet"}`, pet.Marker)
	assert.Equal(t, []ManifestProperty{
		{Name: "id", OriginalName: "id", Kind: "simple", Type: "integer(int64)", Required: true},
		{Name: "name", OriginalName: "name", Kind: "simple", Type: "string", Required: true},
		{Name: "status", OriginalName: "status", Kind: "simple", Type: `Api\Model\PetStatus`},
		{Name: "category", OriginalName: "category", Kind: "simple", Type: `Api\Model\Category`},
	}, pet.Properties)
	assert.Equal(t, []string{"id", "name", "category", "status"}, pet.ParameterOrder)

	status := manifest.Models[1]
	assert.Equal(t, "enum", status.Kind)
	assert.Equal(t, []ManifestCase{{Name: "Available", Value: "available"}, {Name: "Sold", Value: "sold"}}, status.Cases)

	body := manifest.Models[3]
	assert.Equal(t, []string{"name", "tag"}, body.ParameterOrder)
	assert.Equal(t, "none", body.Properties[1].Default)

	require.Len(t, manifest.Handlers, 3)
	assert.Equal(t, ManifestHandler{
		Identifier:  `Api\Model\Handler\ListPets`,
		Method:      "GET",
		Path:        "/pets",
		OperationID: "listPets",
		Marker:      `//oapi:handler {"pointer":"/paths/~1pets/get","path":"/pets","method":"GET"}`,
	}, manifest.Handlers[0])

	t.Run("json", func(t *testing.T) {
		out, err := manifest.JSON()
		require.NoError(t, err)
		var decoded Manifest
		require.NoError(t, json.Unmarshal(out, &decoded))
		assert.Equal(t, manifest.Handlers, decoded.Handlers)
		assert.Equal(t, pet.Properties, decoded.Models[0].Properties)
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := manifest.YAML()
		require.NoError(t, err)
		var decoded Manifest
		require.NoError(t, yaml.Unmarshal(out, &decoded))
		assert.Equal(t, manifest.Handlers, decoded.Handlers)
		assert.Equal(t, status.Cases, decoded.Models[1].Cases)
	})
}
