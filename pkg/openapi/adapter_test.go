package openapi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loaderTestSpec = `
openapi: 3.1.0
info:
  title: Loader Test
  version: 2.0.0
paths:
  /pets:
    get:
      operationId: listPets
      responses:
        '200':
          description: OK
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: '#/components/schemas/Pet'
components:
  schemas:
    Pet:
      type: object
      properties:
        name:
          type: string
`

func TestLoaderLoadFromData(t *testing.T) {
	doc, err := NewLoader().LoadFromData([]byte(loaderTestSpec))
	require.NoError(t, err)

	assert.True(t, doc.IsOpenAPI31())
	assert.False(t, doc.IsOpenAPI30())
	assert.Equal(t, "3.1.0", doc.GetVersion())
	require.NotNil(t, doc.Document)
	assert.Equal(t, "Loader Test", doc.Info.Title)

	items, err := doc.Lookup("/paths/~1pets/get/responses/200/content/application~1json/schema/items")
	require.NoError(t, err)
	pet, err := items.Resolve()
	require.NoError(t, err)
	assert.Equal(t, Pointer("/components/schemas/Pet"), pet.Pointer())
	assert.Equal(t, "string", pet.Get("properties").Get("name").String("type"))
}

func TestLoaderLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "petstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(loaderTestSpec), 0o600))

	doc, err := NewLoader().LoadFromFile(path)
	require.NoError(t, err)
	assert.NotNil(t, doc.Root().Get("components"))

	_, err = NewLoader().LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestDocumentLookupAndResolveRef(t *testing.T) {
	doc, err := ParseDocument([]byte(loaderTestSpec))
	require.NoError(t, err)

	_, err = doc.Lookup("/components/schemas/Nope")
	assert.Error(t, err)

	node, err := doc.ResolveRef("#/components/schemas/Pet")
	require.NoError(t, err)
	assert.Equal(t, Pointer("/components/schemas/Pet"), node.Pointer())

	_, err = doc.ResolveRef("other.yaml#/components/schemas/Pet")
	assert.Error(t, err)
}
