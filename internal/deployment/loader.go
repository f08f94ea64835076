package deployment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/storyprotocol/sp-cli/internal/infra/filesystem"
	fsjson "github.com/storyprotocol/sp-cli/internal/infra/filesystem/json"
	"github.com/storyprotocol/sp-cli/internal/logger"
)

// DefaultSection is the object the deploy scripts nest the addresses under.
const DefaultSection = "main"

type (
	// Loader reads deployment manifests from a directory.
	Loader struct {
		dir     string
		section string
		reader  filesystem.Reader
		logger  *slog.Logger
	}

	// LoaderOption configures a Loader.
	LoaderOption func(*Loader)
)

// WithSection selects the object holding the addresses. An empty section means
// the manifest is flat.
func WithSection(section string) LoaderOption {
	return func(l *Loader) {
		l.section = section
	}
}

// NewLoader creates a loader for manifests stored in dir.
func NewLoader(dir string, opts ...LoaderOption) *Loader {
	l := &Loader{
		dir:     dir,
		section: DefaultSection,
		reader:  fsjson.NewReader(),
		logger:  logger.Named("deployment_loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ManifestFileName is the file name of the manifest for a chain.
func ManifestFileName(chainID uint64) string {
	return fmt.Sprintf("deployment-%d.json", chainID)
}

// Path returns the manifest location for a chain.
func (l *Loader) Path(chainID uint64) string {
	return filepath.Join(l.dir, ManifestFileName(chainID))
}

// Load reads and validates the manifest for chainID.
func (l *Loader) Load(ctx context.Context, chainID uint64) (*AddressBook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := l.Path(chainID)
	logger := l.logger.With("chain_id", chainID).With("path", path)
	logger.Debug("loading deployment manifest")

	var doc any
	if err := l.reader.ReadJSON(path, &doc); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %s: %w", ErrManifestMalformed, path, err)
		}
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	raw, err := l.flatten(doc, path)
	if err != nil {
		return nil, err
	}

	book, err := NewAddressBook(chainID, path, raw)
	if err != nil {
		return nil, err
	}

	logger.With("contracts", book.Len()).Info("deployment manifest loaded")

	return book, nil
}

// flatten picks the address section out of the manifest document and checks that
// every value is a string.
func (l *Loader) flatten(doc any, path string) (map[string]string, error) {
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: top level is not an object", ErrManifestMalformed, path)
	}

	entries := root
	if l.section != "" {
		if nested, found := root[l.section]; found {
			section, ok := nested.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: %s: section '%s' is not an object", ErrManifestMalformed, path, l.section)
			}
			entries = section
		}
	}

	raw := make(map[string]string, len(entries))
	var errs []error
	for name, value := range entries {
		str, ok := value.(string)
		if !ok {
			errs = append(errs, fmt.Errorf("'%s' is not a string", name))
			continue
		}
		raw[name] = str
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s: %w", ErrManifestMalformed, path, errors.Join(errs...))
	}

	return raw, nil
}
