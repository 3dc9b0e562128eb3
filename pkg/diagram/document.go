package diagram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/autolayout/pkg/errors"
)

// Format is a document encoding.
type Format string

// Supported document formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Document is a diagram together with its measurements and the direction it
// was last laid out in.
type Document struct {
	Direction  Direction    `json:"direction,omitempty" yaml:"direction,omitempty"`
	Nodes      []Node       `json:"nodes" yaml:"nodes"`
	Edges      []Edge       `json:"edges" yaml:"edges"`
	Dimensions Measurements `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
}

// FormatForPath picks the encoding from the file extension. Anything that is
// not .yaml or .yml is treated as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Validate checks node and edge IDs, node ID uniqueness and the stored
// direction, if any. Edge endpoints are not checked.
func (d *Document) Validate() error {
	seen := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if err := errors.ValidateID("node", n.ID); err != nil {
			return err
		}
		if seen[n.ID] {
			return errors.New(errors.ErrCodeInvalidDocument, "duplicate node id %q", n.ID)
		}
		seen[n.ID] = true
	}
	for _, e := range d.Edges {
		if err := errors.ValidateID("edge", e.ID); err != nil {
			return err
		}
	}
	if d.Direction != "" && !d.Direction.Valid() {
		return errors.New(errors.ErrCodeInvalidDirection, "invalid direction %q (must be LR or TB)", d.Direction)
	}
	return nil
}

// Read decodes a document in the given format and validates it.
func Read(r io.Reader, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode yaml")
		}
	default:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode json")
		}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Write encodes doc in the given format.
func Write(doc *Document, w io.Writer, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
}

// ReadFile reads a document from path, choosing the format by extension.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Read(bytes.NewReader(data), FormatForPath(path))
}

// WriteFile writes doc to path, choosing the format by extension.
func WriteFile(doc *Document, path string) error {
	var buf bytes.Buffer
	if err := Write(doc, &buf, FormatForPath(path)); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
