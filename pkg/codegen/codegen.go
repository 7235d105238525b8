// Package codegen resolves the schemas of an OpenAPI document into named,
// typed models and handler identifiers.
package codegen

import (
	"fmt"

	"github.com/oapi-codegen/oapi-modelgen/pkg/openapi"
)

// Result is the reconciled model set of one run.
type Result struct {
	Models   []Model
	Handlers []Handler
	// Names maps the pointer of every model to its final identifier
	Names *NameTable
}

// Model returns the model generated for p.
func (r *Result) Model(p openapi.Pointer) (Model, bool) {
	for _, m := range r.Models {
		if m.Header().Pointer == p {
			return m, true
		}
	}
	return nil, false
}

// Generate resolves the models and handlers of doc. The whole result is
// computed before it is returned; on error nothing is.
func Generate(doc *openapi.Document, opts Configuration) (*Result, error) {
	opts = opts.UpdateDefaultValues()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if doc == nil || doc.Root() == nil {
		return nil, fmt.Errorf("%w: no document given", openapi.ErrMissingDocumentContext)
	}
	logger := opts.Logger
	if logger == nil {
		logger = openapi.DiscardLogger()
	}

	loc, err := NewLocator(opts.OutputOptions, logger).Locate(doc)
	if err != nil {
		return nil, fmt.Errorf("error locating schemas: %w", err)
	}
	logger.Debug("located schemas", "schemas", len(loc.Schemas), "operations", len(loc.Operations))

	// Models and handlers draw from one labeler, so they never share an
	// identifier even when their namespaces coincide.
	labeler := NewLabeler()
	modelNames := make([]string, len(loc.Schemas))
	for i, s := range loc.Schemas {
		modelNames[i] = s.Name
	}
	modelIDs := NewNameResolver(opts.BaseNamespace, opts, opts.ModelSuffix).Resolve(modelNames, labeler)

	handlerNames := make([]string, len(loc.Operations))
	for i, op := range loc.Operations {
		handlerNames[i] = op.Name
	}
	handlerIDs := NewNameResolver(opts.HandlerNamespace, opts, opts.HandlerSuffix).Resolve(handlerNames, labeler)

	names := NewNameTable(opts.NamespaceSeparator)
	for i, s := range loc.Schemas {
		names.Set(s.Pointer, modelIDs[i], isEnumModel(s.Node))
		logger.Debug("resolved identifier", "pointer", s.Pointer, "identifier", modelIDs[i])
	}

	classifier := NewModelClassifier(names, NewPropertyClassifier(names, typeMappers(opts)))
	models := make([]Model, 0, len(loc.Schemas))
	for _, s := range loc.Schemas {
		m, err := classifier.Classify(s)
		if err != nil {
			return nil, fmt.Errorf("error classifying %s: %w", s.Pointer, err)
		}
		models = append(models, m)
	}

	handlers := make([]Handler, len(loc.Operations))
	for i, op := range loc.Operations {
		handlers[i] = Handler{Identifier: handlerIDs[i], Operation: op}
	}

	var existing []ExistingArtifact
	if opts.ExistingModelsPath != "" {
		lister := opts.ArtifactLister
		if lister == nil {
			lister = DirectoryArtifactLister{Separator: opts.NamespaceSeparator, Logger: logger}
		}
		existing, err = lister.ListExistingArtifacts(opts.BaseNamespace, opts.ExistingModelsPath)
		if err != nil {
			return nil, err
		}
		logger.Debug("listed existing artifacts", "path", opts.ExistingModelsPath, "artifacts", len(existing))
	}
	models, handlers = reconcileAll(NewReconciler(existing, logger), models, handlers)

	final := NewNameTable(opts.NamespaceSeparator)
	for _, m := range models {
		_, isEnum := m.(*EnumModel)
		final.Set(m.Header().Pointer, m.Header().Identifier, isEnum)
	}

	return &Result{Models: models, Handlers: handlers, Names: final}, nil
}
