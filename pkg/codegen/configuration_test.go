package codegen

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfiguration(t *testing.T) {
	cfg, err := LoadConfiguration([]byte(`
base-namespace: Api\Model
handler-namespace: Api\Http
namespace-separator: \
naming-strategy: namespaced
model-suffix: Type
reserved-words: [Pet]
type-mappings:
  - type: string
    format: date-time
    target: Carbon\Carbon
existing-models-path: ./generated
output-options:
  exclude-tags: [internal]
  include-operation-ids: [listPets]
`))
	require.NoError(t, err)
	assert.Equal(t, Configuration{
		BaseNamespace:      `Api\Model`,
		HandlerNamespace:   `Api\Http`,
		NamespaceSeparator: `\`,
		NamingStrategy:     NamingNamespaced,
		ModelSuffix:        "Type",
		ReservedWords:      []string{"Pet"},
		TypeMappings:       []TypeMapping{{Type: "string", Format: "date-time", Target: `Carbon\Carbon`}},
		ExistingModelsPath: "./generated",
		OutputOptions: OutputOptions{
			ExcludeTags:         []string{"internal"},
			IncludeOperationIDs: []string{"listPets"},
		},
	}, cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigurationRejectsUnknownKeys(t *testing.T) {
	_, err := LoadConfiguration([]byte("base-namespace: Api\npackage: api\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestLoadConfigurationFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base-namespace: App\n"), 0o600))

	cfg, err := LoadConfigurationFile(path)
	require.NoError(t, err)
	assert.Equal(t, "App", cfg.BaseNamespace)

	_, err = LoadConfigurationFile(filepath.Join(dir, "missing.yaml"))
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestConfigurationValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Configuration
		option string
	}{
		{"naming strategy", Configuration{NamingStrategy: "nested"}, "naming-strategy"},
		{"blank separator", Configuration{NamespaceSeparator: " "}, "namespace-separator"},
		{"incomplete mapping", Configuration{TypeMappings: []TypeMapping{{Type: "string"}}}, "type-mappings[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.option, cfgErr.Option)
		})
	}
}

func TestConfigurationDefaults(t *testing.T) {
	cfg := Configuration{BaseNamespace: "Api"}.UpdateDefaultValues()
	assert.Equal(t, `\`, cfg.NamespaceSeparator)
	assert.Equal(t, NamingFlat, cfg.NamingStrategy)
	assert.Equal(t, "Model", cfg.ModelSuffix)
	assert.Equal(t, "Handler", cfg.HandlerSuffix)
	assert.Equal(t, `Api\Handler`, cfg.HandlerNamespace)

	dotted := Configuration{NamespaceSeparator: "."}.UpdateDefaultValues()
	assert.Equal(t, "", dotted.BaseNamespace)
	assert.Equal(t, "Handler", dotted.HandlerNamespace)
}

func TestConfigurationDefaultNamespaceFromModule(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/petstore\n\ngo 1.24\n"), 0o600))
	models := filepath.Join(root, "internal", "models")
	require.NoError(t, os.MkdirAll(models, 0o755))

	cfg := Configuration{ExistingModelsPath: models}.UpdateDefaultValues()
	assert.Equal(t, `example.com\petstore\internal\models`, cfg.BaseNamespace)
	assert.Equal(t, `example.com\petstore\internal\models\Handler`, cfg.HandlerNamespace)

	cfg = Configuration{ExistingModelsPath: root, NamespaceSeparator: "/"}.UpdateDefaultValues()
	assert.Equal(t, "example.com/petstore", cfg.BaseNamespace)

	explicit := Configuration{ExistingModelsPath: models, BaseNamespace: "App"}.UpdateDefaultValues()
	assert.Equal(t, "App", explicit.BaseNamespace)
}
