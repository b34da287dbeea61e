// Package importer reads trade documents from JSON, YAML and XLSX files and writes them back.
package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/clearance/internal/common"
	"github.com/Veraticus/clearance/internal/model"
	"gopkg.in/yaml.v3"
)

// Format is a document file format.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks a format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", common.ErrUnsupportedFormat, filepath.Base(path))
	}
}

// ReadFile loads a document, choosing the reader by extension.
func ReadFile(path string) (model.Document, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return model.Document{}, err
	}

	f, err := os.Open(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return model.Document{}, fmt.Errorf("failed to open document: %w", err)
	}
	defer func() { _ = f.Close() }()

	doc, err := Read(f, format)
	if err != nil {
		return model.Document{}, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// Read decodes a document in the given format and rejects documents without items.
func Read(r io.Reader, format Format) (model.Document, error) {
	var (
		doc model.Document
		err error
	)

	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&doc)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&doc)
	case FormatXLSX:
		doc, err = ReadXLSX(r)
	default:
		return model.Document{}, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, format)
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			return model.Document{}, common.ErrEmptyDocument
		}
		return model.Document{}, fmt.Errorf("failed to decode %s document: %w", format, err)
	}

	if len(doc.Items) == 0 {
		return model.Document{}, common.ErrEmptyDocument
	}

	return doc, nil
}

// WriteFile stores a document, choosing the writer by extension.
func WriteFile(path string, doc model.Document) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := Write(f, doc, format); err != nil {
		_ = f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

// Write encodes a document in the given format.
func Write(w io.Writer, doc model.Document, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode json document: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode yaml document: %w", err)
		}
		return enc.Close()
	case FormatXLSX:
		return WriteXLSX(w, doc)
	default:
		return fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, format)
	}
}
