package yaml

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Reader reads YAML documents from disk
type Reader struct{}

// NewReader creates a new YAML reader
func NewReader() *Reader {
	return &Reader{}
}

// ReadYAML reads and unmarshals a YAML document from a file
func (r *Reader) ReadYAML(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return nil
}
