package codegen

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Manifest is a serialisable summary of a Result.
type Manifest struct {
	Models   []ManifestModel   `json:"models" yaml:"models"`
	Handlers []ManifestHandler `json:"handlers,omitempty" yaml:"handlers,omitempty"`
}

type ManifestModel struct {
	Identifier     string             `json:"identifier" yaml:"identifier"`
	Kind           string             `json:"kind" yaml:"kind"`
	Pointer        string             `json:"pointer" yaml:"pointer"`
	Marker         string             `json:"marker" yaml:"marker"`
	Description    string             `json:"description,omitempty" yaml:"description,omitempty"`
	Properties     []ManifestProperty `json:"properties,omitempty" yaml:"properties,omitempty"`
	ParameterOrder []string           `json:"parameterOrder,omitempty" yaml:"parameterOrder,omitempty"`
	Cases          []ManifestCase     `json:"cases,omitempty" yaml:"cases,omitempty"`
}

type ManifestProperty struct {
	Name          string                 `json:"name" yaml:"name"`
	OriginalName  string                 `json:"originalName" yaml:"originalName"`
	Kind          string                 `json:"kind" yaml:"kind"`
	Type          string                 `json:"type" yaml:"type"`
	Required      bool                   `json:"required,omitempty" yaml:"required,omitempty"`
	Nullable      bool                   `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	ReadOnly      bool                   `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
	WriteOnly     bool                   `json:"writeOnly,omitempty" yaml:"writeOnly,omitempty"`
	Deprecated    bool                   `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	Default       any                    `json:"default,omitempty" yaml:"default,omitempty"`
	Discriminator *ManifestDiscriminator `json:"discriminator,omitempty" yaml:"discriminator,omitempty"`
}

type ManifestDiscriminator struct {
	Key string `json:"key,omitempty" yaml:"key,omitempty"`
	// Values maps property values to identifiers
	Values map[string]string `json:"values,omitempty" yaml:"values,omitempty"`
	// Properties maps identifiers to their property names
	Properties map[string][]string `json:"properties,omitempty" yaml:"properties,omitempty"`
}

type ManifestCase struct {
	Name  string `json:"name" yaml:"name"`
	Value any    `json:"value" yaml:"value"`
}

type ManifestHandler struct {
	Identifier  string `json:"identifier" yaml:"identifier"`
	Method      string `json:"method" yaml:"method"`
	Path        string `json:"path" yaml:"path"`
	OperationID string `json:"operationId,omitempty" yaml:"operationId,omitempty"`
	Webhook     bool   `json:"webhook,omitempty" yaml:"webhook,omitempty"`
	Marker      string `json:"marker" yaml:"marker"`
}

// Manifest summarises the result.
func (r *Result) Manifest() (Manifest, error) {
	var m Manifest
	for _, model := range r.Models {
		h := model.Header()
		marker, err := FormatMarker(ArtifactModel, ArtifactMarker{Pointer: h.Pointer})
		if err != nil {
			return Manifest{}, err
		}
		mm := ManifestModel{
			Identifier:  h.Identifier,
			Pointer:     string(h.Pointer),
			Marker:      marker,
			Description: h.Description,
		}
		switch model := model.(type) {
		case *ClassModel:
			mm.Kind = "class"
		case *InterfaceModel:
			mm.Kind = "interface"
		case *EnumModel:
			mm.Kind = "enum"
			for _, c := range model.Cases {
				mm.Cases = append(mm.Cases, ManifestCase{Name: c.Name, Value: c.Value})
			}
		default:
			return Manifest{}, fmt.Errorf("unexpected model type %T", model)
		}
		properties := modelProperties(model)
		for _, p := range properties {
			mm.Properties = append(mm.Properties, manifestProperty(p))
		}
		for _, p := range ParameterOrder(properties) {
			mm.ParameterOrder = append(mm.ParameterOrder, p.Header().Name)
		}
		m.Models = append(m.Models, mm)
	}

	for _, h := range r.Handlers {
		op := h.Operation
		marker, err := FormatMarker(ArtifactHandler, ArtifactMarker{Pointer: op.Pointer, Path: op.Path, Method: op.Method})
		if err != nil {
			return Manifest{}, err
		}
		m.Handlers = append(m.Handlers, ManifestHandler{
			Identifier:  h.Identifier,
			Method:      op.Method,
			Path:        op.Path,
			OperationID: op.OperationID,
			Webhook:     op.Webhook,
			Marker:      marker,
		})
	}
	return m, nil
}

func manifestProperty(p Property) ManifestProperty {
	h := p.Header()
	mp := ManifestProperty{
		Name:         h.Name,
		OriginalName: h.OriginalName,
		Required:     h.Metadata.Required,
		Nullable:     h.Metadata.Nullable,
		ReadOnly:     h.Metadata.ReadOnly,
		WriteOnly:    h.Metadata.WriteOnly,
		Deprecated:   h.Metadata.Deprecated,
		Default:      h.Metadata.Default,
	}
	switch p := p.(type) {
	case *SimpleProperty:
		mp.Kind = "simple"
		mp.Type = p.Type.String()
	case *ArrayProperty:
		mp.Kind = "map"
		if p.IsList {
			mp.Kind = "list"
		}
		mp.Type = p.ElementType.String()
	case *UnionProperty:
		mp.Kind = "union"
		mp.Type = UnionType{Members: p.Members}.String()
		mp.Discriminator = manifestDiscriminator(p.Discriminator)
	}
	return mp
}

func manifestDiscriminator(d Discriminator) *ManifestDiscriminator {
	switch d := d.(type) {
	case *PropertyValueDiscriminator:
		md := &ManifestDiscriminator{Key: d.Key, Values: make(map[string]string)}
		for _, v := range d.Values {
			md.Values[v.Value] = v.Target.Identifier
		}
		return md
	case *PropertyListDiscriminator:
		md := &ManifestDiscriminator{Properties: make(map[string][]string)}
		for _, c := range d.Candidates {
			md.Properties[c.Target.Identifier] = c.Properties
		}
		return md
	}
	return nil
}

// YAML renders the manifest as YAML.
func (m Manifest) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// JSON renders the manifest as indented JSON.
func (m Manifest) JSON() ([]byte, error) {
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return out, nil
}
