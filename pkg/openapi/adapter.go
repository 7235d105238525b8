// Copyright 2025 oapi-codegen contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package openapi loads OpenAPI 3.0 and 3.1 documents via libopenapi and
// exposes them as a tree of Nodes addressed by JSON pointers.
package openapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pb33f/libopenapi"
	"github.com/pb33f/libopenapi/datamodel"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
	"gopkg.in/yaml.v3"
)

// nullHandler is a slog handler that discards all log messages
type nullHandler struct{}

func (h *nullHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (h *nullHandler) Handle(context.Context, slog.Record) error { return nil }
func (h *nullHandler) WithAttrs(attrs []slog.Attr) slog.Handler  { return h }
func (h *nullHandler) WithGroup(name string) slog.Handler        { return h }

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(&nullHandler{})
}

// Document is a parsed OpenAPI document. The embedded libopenapi model gives
// access to info/servers; the Node tree is what the generator walks.
type Document struct {
	*v3.Document
	root    *Node
	version string
}

// NewDocument wraps a parsed yaml tree. The tree must carry positional
// metadata, ie. come from a parser, otherwise ErrMissingDocumentContext is
// returned.
func NewDocument(root *yaml.Node) (*Document, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: document is empty", ErrMissingDocumentContext)
	}
	if root.Line == 0 {
		return nil, fmt.Errorf("%w: document was not parsed from source", ErrMissingDocumentContext)
	}
	doc := &Document{}
	doc.root = newNode(doc, root, "")
	if !doc.root.IsMap() {
		return nil, fmt.Errorf("%w: document root is not a mapping", ErrMissingDocumentContext)
	}
	doc.version = doc.root.String("openapi")
	return doc, nil
}

// ParseDocument parses YAML or JSON source into a Document without building
// the libopenapi model.
func ParseDocument(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return NewDocument(&root)
}

// Root returns the top level node of the document.
func (d *Document) Root() *Node {
	return d.root
}

// GetVersion returns the OpenAPI version of the document
func (d *Document) GetVersion() string {
	return d.version
}

// IsOpenAPI31 returns true if this is an OpenAPI 3.1 document
func (d *Document) IsOpenAPI31() bool {
	return strings.HasPrefix(d.version, "3.1")
}

// IsOpenAPI30 returns true if this is an OpenAPI 3.0 document
func (d *Document) IsOpenAPI30() bool {
	return strings.HasPrefix(d.version, "3.0")
}

// Lookup returns the node at p.
func (d *Document) Lookup(p Pointer) (*Node, error) {
	node := d.root
	for _, token := range p.Tokens() {
		var next *Node
		switch {
		case node.IsMap():
			next = node.Get(token)
		case node.IsSeq():
			items := node.Items()
			for i, item := range items {
				if fmt.Sprint(i) == token {
					next = item
					break
				}
			}
		}
		if next == nil {
			return nil, fmt.Errorf("no node at %s", p)
		}
		node = next
	}
	return node, nil
}

// ResolveRef returns the node a local reference points at. References to
// other files or URLs are not supported by the node tree.
func (d *Document) ResolveRef(ref string) (*Node, error) {
	p, ok := PointerFromRef(ref)
	if !ok {
		return nil, fmt.Errorf("reference %q is not local to the document", ref)
	}
	return d.Lookup(p)
}

// Loader provides document loading functionality
type Loader struct {
	IsExternalRefsAllowed bool
	// Logger receives libopenapi's diagnostics. Nil discards them.
	Logger *slog.Logger
}

// NewLoader creates a new OpenAPI document loader
func NewLoader() *Loader {
	return &Loader{
		IsExternalRefsAllowed: true,
	}
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger == nil {
		return DiscardLogger()
	}
	return l.Logger
}

// LoadFromFile loads an OpenAPI document from a file
func (l *Loader) LoadFromFile(filePath string) (*Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	basePath := filepath.Dir(filePath)
	if absBasePath, err := filepath.Abs(basePath); err == nil {
		basePath = absBasePath
	}

	return l.LoadFromDataWithBasePath(data, basePath)
}

// LoadFromURI loads an OpenAPI document from a URI
func (l *Loader) LoadFromURI(uri *url.URL) (*Document, error) {
	client := &http.Client{}
	resp, err := client.Get(uri.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URI %s: %w", uri.String(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URI %s: status %d", uri.String(), resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", uri.String(), err)
	}

	return l.LoadFromData(data)
}

// LoadFromData loads an OpenAPI document from byte data
func (l *Loader) LoadFromData(data []byte) (*Document, error) {
	return l.LoadFromDataWithBasePath(data, "")
}

// LoadFromDataWithBasePath loads an OpenAPI document from byte data with a base path for resolving references
func (l *Loader) LoadFromDataWithBasePath(data []byte, basePath string) (*Document, error) {
	config := &datamodel.DocumentConfiguration{
		AllowFileReferences:   l.IsExternalRefsAllowed,
		AllowRemoteReferences: l.IsExternalRefsAllowed,
		// libopenapi is chatty about circular references, which are legal
		// here; its findings are reported through our own logger instead.
		Logger: DiscardLogger(),
	}
	if basePath != "" {
		if absPath, err := filepath.Abs(basePath); err == nil {
			config.BasePath = absPath
		} else {
			config.BasePath = basePath
		}
	}

	document, err := libopenapi.NewDocumentWithConfiguration(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	// Build V3 model - this will handle reference resolution
	docModel, buildErr := document.BuildV3Model()
	errs := buildErrors(buildErr)
	if docModel == nil {
		errMsg := "document model is nil"
		if len(errs) > 0 {
			errMsg = fmt.Sprintf("document model is nil, errors: %v", errs)
		}
		return nil, fmt.Errorf("failed to build document model: %s", errMsg)
	}
	for _, e := range errs {
		l.logger().Warn("libopenapi reported a problem while building the model", "error", e)
	}

	info := document.GetSpecInfo()
	if info == nil {
		return nil, fmt.Errorf("%w: libopenapi returned no spec info", ErrMissingDocumentContext)
	}
	doc, err := NewDocument(info.RootNode)
	if err != nil {
		return nil, err
	}
	doc.Document = &docModel.Model
	if docModel.Model.Version != "" {
		doc.version = docModel.Model.Version
	}
	return doc, nil
}

// buildErrors flattens the problems reported by BuildV3Model, which are a
// slice in some libopenapi releases and a joined error in others.
func buildErrors(v any) []error {
	switch e := v.(type) {
	case []error:
		return e
	case interface{ Unwrap() []error }:
		return e.Unwrap()
	case error:
		return []error{e}
	}
	return nil
}
