package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oapi-codegen/oapi-modelgen/pkg/openapi"
)

func propertyByName(t *testing.T, model Model, name string) Property {
	t.Helper()
	for _, p := range modelProperties(model) {
		if p.Header().Name == name {
			return p
		}
	}
	require.Failf(t, "missing property", "%s has no property %s", model.Header().Identifier, name)
	return nil
}

// TestOpenAPI31UnionTypes tests OpenAPI 3.1 union type support
func TestOpenAPI31UnionTypes(t *testing.T) {
	spec := `
openapi: 3.1.0
info:
  title: Union Types Test
  version: 1.0.0
paths:
  /test:
    get:
      responses:
        '200':
          description: Success
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/UnionResponse'
components:
  schemas:
    UnionResponse:
      type: object
      properties:
        id:
          type: [string, "null"]
        value:
          type: [string, number]
        status:
          type: [string, number, "null"]
`

	loader := openapi.NewLoader()
	swagger, err := loader.LoadFromData([]byte(spec))
	require.NoError(t, err)
	require.True(t, swagger.IsOpenAPI31())

	result, err := Generate(swagger, Configuration{BaseNamespace: "Api"})
	require.NoError(t, err)
	require.Len(t, result.Models, 1)
	model := result.Models[0]

	id := propertyByName(t, model, "id")
	assert.IsType(t, &SimpleProperty{}, id)
	assert.True(t, id.Header().Metadata.Nullable)

	value, ok := propertyByName(t, model, "value").(*UnionProperty)
	require.True(t, ok)
	assert.Equal(t, "string|number", UnionType{Members: value.Members}.String())
	assert.False(t, value.Metadata.Nullable)

	status, ok := propertyByName(t, model, "status").(*UnionProperty)
	require.True(t, ok)
	assert.Equal(t, "string|number", UnionType{Members: status.Members}.String())
	assert.True(t, status.Metadata.Nullable)
}

// TestOpenAPI31Webhooks tests OpenAPI 3.1 webhook support
func TestOpenAPI31Webhooks(t *testing.T) {
	spec := `
openapi: 3.1.0
info:
  title: Webhooks Test
  version: 1.0.0
paths: {}
webhooks:
  userCreated:
    post:
      summary: User created webhook
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              properties:
                userId:
                  type: string
                timestamp:
                  type: string
                  format: date-time
      responses:
        '200':
          description: Webhook received
`

	loader := openapi.NewLoader()
	swagger, err := loader.LoadFromData([]byte(spec))
	require.NoError(t, err)
	require.True(t, swagger.IsOpenAPI31())

	// Check that webhooks are loaded
	assert.NotNil(t, swagger.Webhooks)

	result, err := Generate(swagger, Configuration{BaseNamespace: "Api"})
	require.NoError(t, err)

	assert.Equal(t, []string{`Api\UserCreatedPostRequestBody`}, modelIdentifiers(result))
	assert.Equal(t, ClassRef{Identifier: "time.Time"}, propertyByName(t, result.Models[0], "timestamp").(*SimpleProperty).Type)

	require.Len(t, result.Handlers, 1)
	assert.Equal(t, `Api\Handler\UserCreatedPost`, result.Handlers[0].Identifier)
	assert.True(t, result.Handlers[0].Operation.Webhook)
}

// TestOpenAPI31OptionalPaths tests that paths object is optional
func TestOpenAPI31OptionalPaths(t *testing.T) {
	spec := `
openapi: 3.1.0
info:
  title: Optional Paths Test
  version: 1.0.0
webhooks:
  eventReceived:
    post:
      summary: Event received
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              properties:
                event:
                  type: string
      responses:
        '200':
          description: Event processed
`

	doc, err := openapi.ParseDocument([]byte(spec))
	require.NoError(t, err)

	result, err := Generate(doc, Configuration{BaseNamespace: "Api"})
	require.NoError(t, err)
	assert.Equal(t, []string{`Api\EventReceivedPostRequestBody`}, modelIdentifiers(result))
}

// TestOpenAPI31RefSiblings tests $ref with sibling properties
func TestOpenAPI31RefSiblings(t *testing.T) {
	spec := `
openapi: 3.1.0
info:
  title: Ref Siblings Test
  version: 1.0.0
paths:
  /test:
    get:
      responses:
        '200':
          description: Success
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/BaseSchema'
                title: "Extended Schema"
                description: "Schema with additional properties"
components:
  schemas:
    BaseSchema:
      type: object
      properties:
        id:
          type: string
        name:
          type: string
`

	loader := openapi.NewLoader()
	swagger, err := loader.LoadFromData([]byte(spec))
	require.NoError(t, err)
	require.True(t, swagger.IsOpenAPI31())

	result, err := Generate(swagger, Configuration{BaseNamespace: "Api"})
	require.NoError(t, err)

	// The reference names the component, not a copy of it.
	assert.Equal(t, []string{`Api\BaseSchema`}, modelIdentifiers(result))
	assert.EqualValues(t, "/components/schemas/BaseSchema", result.Models[0].Header().Pointer)
}

// TestOpenAPI31ComponentsPathItems tests components.pathItems support
func TestOpenAPI31ComponentsPathItems(t *testing.T) {
	spec := `
openapi: 3.1.0
info:
  title: Components PathItems Test
  version: 1.0.0
paths:
  /users/{id}:
    $ref: '#/components/pathItems/UserPath'
components:
  pathItems:
    UserPath:
      get:
        summary: Get user by ID
        parameters:
          - name: id
            in: path
            required: true
            schema:
              type: string
        responses:
          '200':
            description: User found
            content:
              application/json:
                schema:
                  $ref: '#/components/schemas/User'
  schemas:
    User:
      type: object
      properties:
        id:
          type: string
        name:
          type: string
`

	loader := openapi.NewLoader()
	swagger, err := loader.LoadFromData([]byte(spec))
	require.NoError(t, err)
	require.True(t, swagger.IsOpenAPI31())

	result, err := Generate(swagger, Configuration{BaseNamespace: "Api"})
	require.NoError(t, err)

	assert.Equal(t, []string{`Api\User`}, modelIdentifiers(result))
	require.Len(t, result.Handlers, 1)
	h := result.Handlers[0]
	assert.Equal(t, `Api\Handler\UsersIdGet`, h.Identifier)
	assert.Equal(t, "/users/{id}", h.Operation.Path)
	assert.EqualValues(t, "/components/pathItems/UserPath/get", h.Operation.Pointer)
}

// TestOpenAPI31Compatibility tests backward compatibility with OpenAPI 3.0
func TestOpenAPI31Compatibility(t *testing.T) {
	spec30 := `
openapi: 3.0.3
info:
  title: Compatibility Test
  version: 1.0.0
paths:
  /test:
    get:
      responses:
        '200':
          description: Success
          content:
            application/json:
              schema:
                type: object
                properties:
                  id:
                    type: string
                    nullable: true
                  sample:
                    type: string
                    example: abc
`

	loader := openapi.NewLoader()
	swagger, err := loader.LoadFromData([]byte(spec30))
	require.NoError(t, err)
	require.True(t, swagger.IsOpenAPI30())
	require.False(t, swagger.IsOpenAPI31())

	result, err := Generate(swagger, Configuration{BaseNamespace: "Api"})
	require.NoError(t, err)
	require.Len(t, result.Models, 1)

	id := propertyByName(t, result.Models[0], "id")
	assert.True(t, id.Header().Metadata.Nullable)
	assert.Equal(t, []any{"abc"}, propertyByName(t, result.Models[0], "sample").Header().Metadata.Examples)
}

// TestOpenAPI31NullableVsUnionTypes tests nullable vs union type handling
func TestOpenAPI31NullableVsUnionTypes(t *testing.T) {
	spec31 := `
openapi: 3.1.0
info:
  title: Nullable vs Union Test
  version: 1.0.0
paths:
  /test:
    get:
      responses:
        '200':
          description: Success
          content:
            application/json:
              schema:
                type: object
                properties:
                  unionField:
                    type: [string, "null"]
                  legacyField:
                    type: string
                    nullable: true
`

	loader := openapi.NewLoader()
	swagger, err := loader.LoadFromData([]byte(spec31))
	require.NoError(t, err)
	require.True(t, swagger.IsOpenAPI31())

	result, err := Generate(swagger, Configuration{BaseNamespace: "Api"})
	require.NoError(t, err)
	require.Len(t, result.Models, 1)

	// Both spellings of a nullable string classify the same way.
	union := propertyByName(t, result.Models[0], "unionField").(*SimpleProperty)
	legacy := propertyByName(t, result.Models[0], "legacyField").(*SimpleProperty)
	assert.Equal(t, union.Type, legacy.Type)
	assert.Equal(t, union.Metadata.Nullable, legacy.Metadata.Nullable)
}
