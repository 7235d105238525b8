package util

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/speakeasy-api/openapi-overlay/pkg/loader"
	"gopkg.in/yaml.v3"

	"github.com/oapi-codegen/oapi-modelgen/pkg/openapi"
)

func LoadSwagger(filePath string) (swagger *openapi.Document, err error) {
	return LoadSwaggerWithLogger(filePath, nil)
}

// LoadSwaggerWithLogger loads a document from a file path or URL, sending
// the loader's diagnostics to logger.
func LoadSwaggerWithLogger(filePath string, logger *slog.Logger) (swagger *openapi.Document, err error) {
	loader := openapi.NewLoader()
	loader.IsExternalRefsAllowed = true
	loader.Logger = logger

	if u, ok := remoteURL(filePath); ok {
		return loader.LoadFromURI(u)
	}
	return loader.LoadFromFile(filePath)
}

func remoteURL(filePath string) (*url.URL, bool) {
	u, err := url.Parse(filePath)
	if err == nil && u.Scheme != "" && u.Host != "" {
		return u, true
	}
	return nil, false
}

type LoadSwaggerWithOverlayOpts struct {
	Path   string
	Logger *slog.Logger
}

// LoadSwaggerWithOverlay loads a document and applies the overlay at
// opts.Path to it before parsing. Without an overlay it behaves like
// LoadSwagger.
func LoadSwaggerWithOverlay(filePath string, opts LoadSwaggerWithOverlayOpts) (swagger *openapi.Document, err error) {
	if opts.Path == "" {
		return LoadSwaggerWithLogger(filePath, opts.Logger)
	}

	overlay, err := loader.LoadOverlay(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load overlay: %w", err)
	}

	actualFilePath := filePath
	if _, ok := remoteURL(filePath); ok {
		tempPath, err := downloadSpec(filePath)
		if err != nil {
			return nil, err
		}
		defer os.Remove(tempPath)
		actualFilePath = tempPath
	}

	specNode, _, err := loader.LoadEitherSpecification(actualFilePath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load specification: %w", err)
	}

	if err := overlay.ApplyTo(specNode); err != nil {
		return nil, fmt.Errorf("failed to apply overlay: %w", err)
	}

	// Re-render so that every node of the overlaid document carries source
	// positions again.
	overlayedBytes, err := yaml.Marshal(specNode)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize overlayed spec: %w", err)
	}

	l := openapi.NewLoader()
	l.IsExternalRefsAllowed = true
	l.Logger = opts.Logger
	return l.LoadFromDataWithBasePath(overlayedBytes, basePath(filePath))
}

// downloadSpec fetches a remote document into a temporary file.
func downloadSpec(rawURL string) (string, error) {
	client := &http.Client{}
	resp, err := client.Get(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch spec from URL %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch spec from URL %s: status %d", rawURL, resp.StatusCode)
	}

	tempFile, err := os.CreateTemp("", "openapi-spec-*.yaml")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer tempFile.Close()

	if _, err := io.Copy(tempFile, resp.Body); err != nil {
		os.Remove(tempFile.Name())
		return "", fmt.Errorf("failed to write spec to temporary file: %w", err)
	}
	return tempFile.Name(), nil
}

// basePath returns the location external references of filePath resolve
// against.
func basePath(filePath string) string {
	if u, ok := remoteURL(filePath); ok {
		u.Path = filepath.Dir(u.Path)
		return u.String()
	}
	dir := filepath.Dir(filePath)
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}
