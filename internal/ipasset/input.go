package ipasset

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	fsjson "github.com/storyprotocol/sp-cli/internal/infra/filesystem/json"
	fsyaml "github.com/storyprotocol/sp-cli/internal/infra/filesystem/yaml"
)

// Entry is one IP asset of a bulk input file.
type Entry struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	MediaURL    string `json:"mediaUrl" yaml:"mediaUrl"`
	Type        string `json:"type" yaml:"type"`
}

func (e Entry) Validate() error {
	var errs []error
	if e.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if _, err := ParseAssetType(e.Type); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LoadEntries reads a JSON array, or a YAML list when the file ends in .yaml or
// .yml, and validates every entry.
func LoadEntries(path string) ([]Entry, error) {
	var entries []Entry

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := fsyaml.NewReader().ReadYAML(path, &entries); err != nil {
			return nil, fmt.Errorf("failed to load ip assets from %s: %w", path, err)
		}
	default:
		if err := fsjson.NewReader().ReadJSON(path, &entries); err != nil {
			return nil, fmt.Errorf("failed to load ip assets from %s: %w", path, err)
		}
	}

	var errs []error
	for i, entry := range entries {
		if err := entry.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid ip assets in %s: %w", path, errors.Join(errs...))
	}

	return entries, nil
}
