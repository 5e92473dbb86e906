package bundle

import (
	"encoding/json"
	"maps"
	"slices"
)

// Metafile is the part of the esbuild metafile esw reports on.
type Metafile struct {
	Outputs map[string]MetafileOutput `json:"outputs"`
}

// MetafileOutput describes one written file.
type MetafileOutput struct {
	Bytes      *int64 `json:"bytes"`
	EntryPoint string `json:"entryPoint,omitempty"`
}

// ParseMetafile decodes the JSON metafile returned by a build.
func ParseMetafile(data string) (*Metafile, error) {
	var m Metafile
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Files returns the output paths in lexical order.
func (m *Metafile) Files() []string {
	return slices.Sorted(maps.Keys(m.Outputs))
}
