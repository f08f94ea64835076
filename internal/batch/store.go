package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"

	"github.com/storyprotocol/sp-cli/internal/infra/filesystem"
	fsjson "github.com/storyprotocol/sp-cli/internal/infra/filesystem/json"
)

// ErrNoState is returned by Store.Load when no state file exists yet.
var ErrNoState = errors.New("no batch state")

type (
	// Report is the persisted state of a batch run.
	Report[P any] struct {
		RunID     string      `json:"runId"`
		Network   string      `json:"network"`
		ChainID   uint64      `json:"chainId"`
		Input     string      `json:"input"`
		StartedAt time.Time   `json:"startedAt"`
		UpdatedAt time.Time   `json:"updatedAt"`
		Summary   Summary     `json:"summary"`
		Records   []Record[P] `json:"records"`
	}

	// Store keeps a report in a JSON file.
	Store[P any] struct {
		path   string
		reader filesystem.Reader
		writer filesystem.Writer
	}
)

// NewReport starts a report for a new run.
func NewReport[P any](network string, chainID uint64, input string, records []Record[P]) *Report[P] {
	now := time.Now().UTC()
	return &Report[P]{
		RunID:     uuid.NewString(),
		Network:   network,
		ChainID:   chainID,
		Input:     input,
		StartedAt: now,
		UpdatedAt: now,
		Summary:   Summarize(records),
		Records:   records,
	}
}

// Update replaces the records and refreshes the summary.
func (r *Report[P]) Update(records []Record[P]) {
	r.Records = records
	r.Summary = Summarize(records)
	r.UpdatedAt = time.Now().UTC()
}

// NewStore creates a store backed by path.
func NewStore[P any](path string) *Store[P] {
	return &Store[P]{
		path:   path,
		reader: fsjson.NewReader(),
		writer: fsjson.NewWriter(),
	}
}

// Path returns the state file location.
func (s *Store[P]) Path() string {
	return s.path
}

// Save writes report atomically.
func (s *Store[P]) Save(report *Report[P]) error {
	if err := s.writer.WriteJSON(s.path, report); err != nil {
		return fmt.Errorf("failed to save batch state to %s: %w", s.path, err)
	}
	return nil
}

// Load reads a previously saved report.
func (s *Store[P]) Load() (*Report[P], error) {
	var report Report[P]
	if err := s.reader.ReadJSON(s.path, &report); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoState, s.path)
		}
		return nil, fmt.Errorf("failed to load batch state from %s: %w", s.path, err)
	}
	return &report, nil
}
