// Package manifest loads the subset of package.json that drives build
// inference.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// FileName is the manifest file looked up in the working directory.
const FileName = "package.json"

// Module types accepted by the "type" field.
const (
	TypeCommonJS = "commonjs"
	TypeModule   = "module"
)

// ErrNotFound is returned when the working directory has no manifest.
var ErrNotFound = errors.New("package.json not found")

// Manifest is a parsed package.json.
type Manifest struct {
	Name             string            `json:"name"`
	Version          string            `json:"version"`
	Type             string            `json:"type"`
	Main             string            `json:"main"`
	Module           string            `json:"module"`
	Dependencies     map[string]string `json:"dependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`

	// Path is the absolute file the manifest was read from.
	Path string `json:"-"`
}

// NotFoundError carries the path that was looked up.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("ENOENT: %q is required, %s", FileName, e.Path)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Load reads package.json from dir.
func Load(dir string) (*Manifest, error) {
	path, err := filepath.Abs(filepath.Join(dir, FileName))
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, &NotFoundError{Path: path}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	m.Path = path
	return m, nil
}

// Parse decodes manifest JSON.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Field returns the value of the "main" or "module" field.
func (m *Manifest) Field(name string) string {
	switch name {
	case "main":
		return m.Main
	case "module":
		return m.Module
	}
	return ""
}

// Externals lists peer dependency names followed by dependency names, each
// group sorted, without duplicates.
func (m *Manifest) Externals() []string {
	var names []string
	for _, group := range []map[string]string{m.PeerDependencies, m.Dependencies} {
		keys := make([]string, 0, len(group))
		for name := range group {
			if !slices.Contains(names, name) {
				keys = append(keys, name)
			}
		}
		slices.Sort(keys)
		names = append(names, keys...)
	}
	return names
}
