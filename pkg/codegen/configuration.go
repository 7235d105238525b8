package codegen

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v2"
)

type NamingStrategy string

const (
	// NamingFlat joins all words of a name hint into a single identifier
	// segment below the base namespace.
	NamingFlat NamingStrategy = "flat"
	// NamingNamespaced turns every word of a name hint into its own
	// namespace segment.
	NamingNamespaced NamingStrategy = "namespaced"
)

// Configuration defines the options for a model resolution run.
type Configuration struct {
	// BaseNamespace prefixes every model identifier
	BaseNamespace string `yaml:"base-namespace,omitempty"`
	// HandlerNamespace prefixes every handler identifier
	HandlerNamespace   string         `yaml:"handler-namespace,omitempty"`
	NamespaceSeparator string         `yaml:"namespace-separator,omitempty"`
	NamingStrategy     NamingStrategy `yaml:"naming-strategy,omitempty"`
	// ModelSuffix is appended to model identifiers colliding with a reserved word
	ModelSuffix string `yaml:"model-suffix,omitempty"`
	// HandlerSuffix is appended to handler identifiers colliding with a reserved word
	HandlerSuffix string `yaml:"handler-suffix,omitempty"`
	// ReservedWords extends the built in reserved word list
	ReservedWords []string `yaml:"reserved-words,omitempty"`
	// TypeMappings are consulted, in order, before the default type mappings
	TypeMappings []TypeMapping `yaml:"type-mappings,omitempty"`
	// ExistingModelsPath is the directory holding previously generated code.
	// Identifiers recorded there are preserved.
	ExistingModelsPath string        `yaml:"existing-models-path,omitempty"`
	OutputOptions      OutputOptions `yaml:"output-options,omitempty"`

	// Logger receives progress output. Nil discards it.
	Logger *slog.Logger `yaml:"-"`
	// ArtifactLister replaces the directory scanner used for
	// ExistingModelsPath.
	ArtifactLister ArtifactLister `yaml:"-"`
}

// OutputOptions restrict which operations are walked.
type OutputOptions struct {
	IncludeTags         []string `yaml:"include-tags,omitempty"`
	ExcludeTags         []string `yaml:"exclude-tags,omitempty"`
	IncludeOperationIDs []string `yaml:"include-operation-ids,omitempty"`
	ExcludeOperationIDs []string `yaml:"exclude-operation-ids,omitempty"`
}

// LoadConfiguration decodes a YAML configuration, rejecting unknown keys.
func LoadConfiguration(data []byte) (Configuration, error) {
	var cfg Configuration
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Configuration{}, &ConfigError{Message: "failed to decode configuration", Cause: err}
	}
	return cfg, nil
}

// LoadConfigurationFile reads and decodes the configuration file at path.
func LoadConfigurationFile(path string) (Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, &ConfigError{Option: "config", Value: path, Cause: err}
	}
	return LoadConfiguration(data)
}

// UpdateDefaultValues sets reasonable default values for unset fields in Configuration
func (o Configuration) UpdateDefaultValues() Configuration {
	if o.NamespaceSeparator == "" {
		o.NamespaceSeparator = `\`
	}
	if o.NamingStrategy == "" {
		o.NamingStrategy = NamingFlat
	}
	if o.ModelSuffix == "" {
		o.ModelSuffix = "Model"
	}
	if o.HandlerSuffix == "" {
		o.HandlerSuffix = "Handler"
	}
	if o.BaseNamespace == "" && o.ExistingModelsPath != "" {
		if ns, ok := moduleNamespace(o.ExistingModelsPath, o.NamespaceSeparator); ok {
			o.BaseNamespace = ns
		}
	}
	if o.HandlerNamespace == "" {
		o.HandlerNamespace = joinNamespace(o.NamespaceSeparator, o.BaseNamespace, "Handler")
	}
	return o
}

// Validate checks whether Configuration represent a valid configuration
func (o Configuration) Validate() error {
	switch o.NamingStrategy {
	case "", NamingFlat, NamingNamespaced:
	default:
		return &ConfigError{Option: "naming-strategy", Value: o.NamingStrategy, Message: "must be flat or namespaced"}
	}
	if o.NamespaceSeparator != "" && strings.TrimSpace(o.NamespaceSeparator) == "" {
		return &ConfigError{Option: "namespace-separator", Value: o.NamespaceSeparator, Message: "must not be blank"}
	}
	for i, m := range o.TypeMappings {
		if m.Type == "" || m.Target == "" {
			return &ConfigError{
				Option:  fmt.Sprintf("type-mappings[%d]", i),
				Value:   m,
				Message: "type and target are required",
			}
		}
	}
	return nil
}

// moduleNamespace derives a namespace for dir from the enclosing go.mod: the
// module path followed by the directory's path inside the module.
func moduleNamespace(dir, separator string) (string, bool) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for current := abs; ; {
		data, err := os.ReadFile(filepath.Join(current, "go.mod"))
		if err == nil {
			modulePath := modfile.ModulePath(data)
			if modulePath == "" {
				return "", false
			}
			rel, err := filepath.Rel(current, abs)
			if err != nil {
				return "", false
			}
			segments := strings.Split(modulePath, "/")
			if rel != "." {
				segments = append(segments, strings.Split(filepath.ToSlash(rel), "/")...)
			}
			return strings.Join(segments, separator), true
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

func joinNamespace(separator string, segments ...string) string {
	var parts []string
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, separator)
}
