package codegen

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/oapi-codegen/oapi-modelgen/pkg/openapi"
)

var errEmptyMarker = errors.New("marker records neither a pointer nor a path and method")

const (
	modelMarkerPrefix   = "//oapi:model "
	handlerMarkerPrefix = "//oapi:handler "
)

// FormatMarker renders the directive comment recording marker on a
// generated type declaration.
func FormatMarker(kind ArtifactKind, marker ArtifactMarker) (string, error) {
	payload, err := json.Marshal(marker)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s marker: %w", kind, err)
	}
	return "//oapi:" + string(kind) + " " + string(payload), nil
}

// DirectoryArtifactLister finds previously generated artifacts in the Go
// sources below a directory. A type declaration is an artifact when its doc
// comment carries an //oapi:model or //oapi:handler directive. Each sub
// directory adds a namespace segment to the identifiers found inside it.
type DirectoryArtifactLister struct {
	// Separator joins namespace segments, defaults to a backslash
	Separator string
	Logger    *slog.Logger
}

func (l DirectoryArtifactLister) ListExistingArtifacts(namespace, path string) ([]ExistingArtifact, error) {
	logger := l.Logger
	if logger == nil {
		logger = openapi.DiscardLogger()
	}
	separator := l.Separator
	if separator == "" {
		separator = `\`
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &ConfigError{Option: "existing-models-path", Value: path, Cause: err}
	}
	if !info.IsDir() {
		return nil, &ConfigError{Option: "existing-models-path", Value: path, Message: "not a directory"}
	}

	var artifacts []ExistingArtifact
	err = filepath.WalkDir(path, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(file, ".go") {
			return nil
		}

		rel, err := filepath.Rel(path, filepath.Dir(file))
		if err != nil {
			return err
		}
		segments := []string{namespace}
		if rel != "." {
			segments = append(segments, strings.Split(filepath.ToSlash(rel), "/")...)
		}

		found, err := scanArtifactFile(file, joinNamespace(separator, segments...), separator)
		if err != nil {
			logger.Warn("skipping unreadable artifact source", "file", file, "error", err)
			return nil
		}
		for _, f := range found {
			if f.err != nil {
				logger.Warn("skipping artifact with invalid marker", "error", f.err)
				continue
			}
			artifacts = append(artifacts, f.artifact)
		}
		return nil
	})
	if err != nil {
		return nil, &ConfigError{Option: "existing-models-path", Value: path, Cause: err}
	}
	return artifacts, nil
}

type scannedArtifact struct {
	artifact ExistingArtifact
	err      error
}

// scanArtifactFile parses a Go source file and returns the marked type
// declarations in it.
func scanArtifactFile(file, namespace, separator string) ([]scannedArtifact, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, file, nil, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}

	var out []scannedArtifact
	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts := spec.(*ast.TypeSpec)
			doc := ts.Doc
			if doc == nil && len(gen.Specs) == 1 {
				doc = gen.Doc
			}
			if doc == nil {
				continue
			}
			for _, c := range doc.List {
				kind, payload, ok := parseDirective(c.Text)
				if !ok {
					continue
				}
				var marker ArtifactMarker
				err := json.Unmarshal([]byte(payload), &marker)
				if err == nil && marker.Pointer == "" && marker.signature() == "" {
					err = errEmptyMarker
				}
				if err != nil {
					out = append(out, scannedArtifact{err: &MarkerError{
						File:   file,
						Line:   fset.Position(c.Slash).Line,
						Marker: c.Text,
						Cause:  err,
					}})
					continue
				}
				out = append(out, scannedArtifact{artifact: ExistingArtifact{
					Identifier: joinNamespace(separator, namespace, ts.Name.Name),
					Kind:       kind,
					Marker:     marker,
					File:       file,
				}})
			}
		}
	}
	return out, nil
}

func parseDirective(text string) (ArtifactKind, string, bool) {
	switch {
	case strings.HasPrefix(text, modelMarkerPrefix):
		return ArtifactModel, strings.TrimPrefix(text, modelMarkerPrefix), true
	case strings.HasPrefix(text, handlerMarkerPrefix):
		return ArtifactHandler, strings.TrimPrefix(text, handlerMarkerPrefix), true
	}
	return "", "", false
}
