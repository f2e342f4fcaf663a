package grammar

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/thorn-jmh/errorst"
)

// LoadFile reads a grammar document from disk. Files ending in .yaml or .yml
// are decoded as YAML, everything else as JSON.
func LoadFile(path string) (FieldType, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errorst.Wrap(err, "failed to read grammar file %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// LoadModelFile is LoadFile restricted to a top-level ModelType.
func LoadModelFile(path string) (*ModelType, error) {
	ft, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	m, ok := ft.(*ModelType)
	if !ok {
		return nil, errorst.NewError("grammar file %s does not describe a model", path)
	}
	return m, nil
}
