package codegen

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/oapi-codegen/oapi-modelgen/pkg/openapi"
)

type ArtifactKind string

const (
	ArtifactModel   ArtifactKind = "model"
	ArtifactHandler ArtifactKind = "handler"
)

// ArtifactMarker is the provenance recorded in a previously generated
// artifact. Models record their pointer; handlers may record a path and
// method instead.
type ArtifactMarker struct {
	Pointer openapi.Pointer `json:"pointer,omitempty"`
	Path    string          `json:"path,omitempty"`
	Method  string          `json:"method,omitempty"`
}

func (m ArtifactMarker) signature() string {
	if m.Path == "" || m.Method == "" {
		return ""
	}
	return strings.ToUpper(m.Method) + " " + m.Path
}

// ExistingArtifact is a previously generated model or handler.
type ExistingArtifact struct {
	Identifier string
	Kind       ArtifactKind
	Marker     ArtifactMarker
	// File is the source file the artifact was found in, if any
	File string
}

// ArtifactLister lists the artifacts generated into path by earlier runs.
type ArtifactLister interface {
	ListExistingArtifacts(namespace, path string) ([]ExistingArtifact, error)
}

// Reconciler preserves identifiers of previously generated artifacts.
// Artifacts are matched by pointer first, then handlers by path and method.
type Reconciler struct {
	byPointer   map[openapi.Pointer]ExistingArtifact
	bySignature map[string]ExistingArtifact
	logger      *slog.Logger
}

func NewReconciler(existing []ExistingArtifact, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = openapi.DiscardLogger()
	}
	r := &Reconciler{
		byPointer:   make(map[openapi.Pointer]ExistingArtifact),
		bySignature: make(map[string]ExistingArtifact),
		logger:      logger,
	}
	for _, a := range existing {
		if a.Marker.Pointer != "" {
			if _, ok := r.byPointer[a.Marker.Pointer]; !ok {
				r.byPointer[a.Marker.Pointer] = a
			}
		}
		if sig := a.Marker.signature(); sig != "" && a.Kind != ArtifactModel {
			if _, ok := r.bySignature[sig]; !ok {
				r.bySignature[sig] = a
			}
		}
	}
	return r
}

// Reconcile returns model renamed to the identifier of the artifact
// previously generated for the same pointer, or model unchanged.
func Reconcile(model Model, existing []ExistingArtifact) Model {
	reconciled, _ := NewReconciler(existing, nil).Reconcile(model)
	return reconciled
}

// Reconcile returns model carrying its previous identifier and whether a
// previous artifact matched. Only the identifier ever changes.
func (r *Reconciler) Reconcile(model Model) (Model, bool) {
	h := model.Header()
	a, ok := r.byPointer[h.Pointer]
	if !ok || a.Kind == ArtifactHandler {
		return model, false
	}
	if a.Identifier != h.Identifier {
		r.logger.Debug("keeping existing model identifier", "pointer", h.Pointer, "computed", h.Identifier, "existing", a.Identifier)
	}
	return withIdentifier(model, a.Identifier), true
}

// ReconcileHandler is Reconcile for handlers, which may also match by
// path and method.
func (r *Reconciler) ReconcileHandler(handler Handler) (Handler, bool) {
	op := handler.Operation
	a, ok := r.byPointer[op.Pointer]
	if ok && a.Kind == ArtifactModel {
		ok = false
	}
	if !ok {
		a, ok = r.bySignature[ArtifactMarker{Path: op.Path, Method: op.Method}.signature()]
	}
	if !ok {
		return handler, false
	}
	if a.Identifier != handler.Identifier {
		r.logger.Debug("keeping existing handler identifier", "operation", op.Name, "computed", handler.Identifier, "existing", a.Identifier)
	}
	handler.Identifier = a.Identifier
	return handler, true
}

// reconcileAll reconciles models and handlers of one run. Identifiers of
// matched artifacts are reserved first; a fresh identifier colliding with a
// reserved one, or a second artifact claiming an identifier, is relabelled.
// Class references are retargeted afterwards.
func reconcileAll(r *Reconciler, models []Model, handlers []Handler) ([]Model, []Handler) {
	labeler := NewLabeler()
	outModels := make([]Model, len(models))
	outHandlers := make([]Handler, len(handlers))
	modelFresh := make([]bool, len(models))
	handlerFresh := make([]bool, len(handlers))

	for i, m := range models {
		reconciled, matched := r.Reconcile(m)
		if matched && labeler.Reserve(reconciled.Header().Identifier) {
			outModels[i] = reconciled
			continue
		}
		outModels[i] = m
		modelFresh[i] = true
	}
	for i, h := range handlers {
		reconciled, matched := r.ReconcileHandler(h)
		if matched && labeler.Reserve(reconciled.Identifier) {
			outHandlers[i] = reconciled
			continue
		}
		outHandlers[i] = h
		handlerFresh[i] = true
	}

	// Fresh identifiers were already unique among themselves; only those
	// now clashing with a preserved identifier need a new label.
	var clashing []string
	var clashingModels, clashingHandlers []int
	for i, m := range outModels {
		if modelFresh[i] && labeler.IsTaken(m.Header().Identifier) {
			clashing = append(clashing, m.Header().Identifier)
			clashingModels = append(clashingModels, i)
		}
	}
	for i, h := range outHandlers {
		if handlerFresh[i] && labeler.IsTaken(h.Identifier) {
			clashing = append(clashing, h.Identifier)
			clashingHandlers = append(clashingHandlers, i)
		}
	}
	for i, m := range outModels {
		if modelFresh[i] && !labeler.IsTaken(m.Header().Identifier) {
			labeler.Reserve(m.Header().Identifier)
		}
	}
	for i, h := range outHandlers {
		if handlerFresh[i] && !labeler.IsTaken(h.Identifier) {
			labeler.Reserve(h.Identifier)
		}
	}

	relabelled := labeler.Label(clashing)
	for n, i := range clashingModels {
		r.logger.Debug("relabelling model clashing with an existing identifier", "identifier", outModels[i].Header().Identifier, "new", relabelled[n])
		outModels[i] = withIdentifier(outModels[i], relabelled[n])
	}
	for n, i := range clashingHandlers {
		id := relabelled[len(clashingModels)+n]
		r.logger.Debug("relabelling handler clashing with an existing identifier", "identifier", outHandlers[i].Identifier, "new", id)
		outHandlers[i].Identifier = id
	}

	return retarget(outModels), outHandlers
}

// retarget points every class reference at the final identifier of the
// model it names.
func retarget(models []Model) []Model {
	identifiers := make(map[openapi.Pointer]string, len(models))
	for _, m := range models {
		identifiers[m.Header().Pointer] = m.Header().Identifier
	}

	var fix func(TypeRef) TypeRef
	fixDiscriminator := func(d Discriminator) Discriminator {
		switch d := d.(type) {
		case nil:
			return nil
		case *PropertyValueDiscriminator:
			out := &PropertyValueDiscriminator{Key: d.Key}
			for _, v := range d.Values {
				out.Values = append(out.Values, DiscriminatorValue{Value: v.Value, Target: fix(v.Target).(ClassRef)})
			}
			return out
		case *PropertyListDiscriminator:
			out := &PropertyListDiscriminator{}
			for _, c := range d.Candidates {
				out.Candidates = append(out.Candidates, DiscriminatorCandidate{Target: fix(c.Target).(ClassRef), Properties: c.Properties})
			}
			return out
		}
		panic(fmt.Sprintf("unexpected discriminator type %T", d))
	}
	fixAll := func(refs []TypeRef) []TypeRef {
		out := make([]TypeRef, len(refs))
		for i, t := range refs {
			out[i] = fix(t)
		}
		return out
	}
	fix = func(t TypeRef) TypeRef {
		switch t := t.(type) {
		case ClassRef:
			if id, ok := identifiers[t.Pointer]; ok && t.Pointer != "" {
				t.Identifier = id
			}
			return t
		case ListType:
			return ListType{IsList: t.IsList, Element: fix(t.Element)}
		case UnionType:
			return UnionType{Members: fixAll(t.Members), Discriminator: fixDiscriminator(t.Discriminator)}
		case ScalarType:
			return t
		}
		panic(fmt.Sprintf("unexpected type reference %T", t))
	}
	fixProperties := func(props []Property) []Property {
		out := make([]Property, len(props))
		for i, p := range props {
			switch p := p.(type) {
			case *SimpleProperty:
				out[i] = &SimpleProperty{PropertyHeader: p.PropertyHeader, Type: fix(p.Type)}
			case *ArrayProperty:
				out[i] = &ArrayProperty{PropertyHeader: p.PropertyHeader, IsList: p.IsList, ElementType: fix(p.ElementType)}
			case *UnionProperty:
				out[i] = &UnionProperty{PropertyHeader: p.PropertyHeader, Members: fixAll(p.Members), Discriminator: fixDiscriminator(p.Discriminator)}
			default:
				panic(fmt.Sprintf("unexpected property type %T", p))
			}
		}
		return out
	}

	out := make([]Model, len(models))
	for i, m := range models {
		switch m := m.(type) {
		case *ClassModel:
			c := *m
			c.Properties = fixProperties(m.Properties)
			out[i] = &c
		case *InterfaceModel:
			c := *m
			c.Properties = fixProperties(m.Properties)
			out[i] = &c
		case *EnumModel:
			out[i] = m
		default:
			panic(fmt.Sprintf("unexpected model type %T", m))
		}
	}
	return out
}
