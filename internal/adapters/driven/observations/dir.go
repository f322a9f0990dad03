// Package observations pulls workshop observation reports from a drop
// directory. Reporters (or an upstream exporter) write JSON files into
// the directory; each pull consumes them.
package observations

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mecaclair/dispatch/internal/core/domain"
	"github.com/mecaclair/dispatch/internal/core/ports/driven"
	"github.com/mecaclair/dispatch/internal/logger"
)

// Ensure DirSource implements the interface.
var _ driven.ObservationSource = (*DirSource)(nil)

// observationFile is the on-disk JSON shape. A file holds either one
// object or an array of them.
type observationFile struct {
	SymptomText string `json:"symptom_text"`
	Cause       string `json:"cause"`
	Remedy      string `json:"remedy"`
	Source      string `json:"source"`
	VehicleType string `json:"vehicle_type"`
}

// DirSource reads observation JSON files from a directory. Consumed
// files move to a processed/ subdirectory so a crash between read and
// ingest never loses a report; unparseable files get a .failed suffix
// and are skipped on later pulls.
type DirSource struct {
	mu  sync.Mutex
	dir string
}

// NewDirSource creates a source over the given drop directory.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Pull reads and consumes all pending observation files, in file name
// order.
func (s *DirSource) Pull(ctx context.Context) ([]domain.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading observation directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var observations []domain.Observation
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return observations, err
		}

		path := filepath.Join(s.dir, name)
		parsed, err := parseFile(path)
		if err != nil {
			logger.Warn("Skipping observation file %s: %v", name, err)
			if renameErr := os.Rename(path, path+".failed"); renameErr != nil {
				logger.Warn("Could not quarantine %s: %v", name, renameErr)
			}
			continue
		}

		if err := s.consume(path, name); err != nil {
			return observations, err
		}
		observations = append(observations, parsed...)
	}

	return observations, nil
}

// consume moves a read file into the processed subdirectory.
func (s *DirSource) consume(path, name string) error {
	processedDir := filepath.Join(s.dir, "processed")
	if err := os.MkdirAll(processedDir, 0o755); err != nil {
		return fmt.Errorf("creating processed directory: %w", err)
	}
	if err := os.Rename(path, filepath.Join(processedDir, name)); err != nil {
		return fmt.Errorf("consuming %s: %w", name, err)
	}
	return nil
}

// parseFile decodes one observation file, accepting a single object or
// an array.
func parseFile(path string) ([]domain.Observation, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var batch []observationFile
	if err := json.Unmarshal(content, &batch); err != nil {
		var single observationFile
		if err := json.Unmarshal(content, &single); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
		batch = []observationFile{single}
	}

	observations := make([]domain.Observation, 0, len(batch))
	for _, o := range batch {
		if o.SymptomText == "" || o.Cause == "" {
			return nil, fmt.Errorf("observation missing symptom text or cause: %w", domain.ErrValidation)
		}
		observations = append(observations, domain.Observation{
			SymptomText: o.SymptomText,
			Cause:       o.Cause,
			Remedy:      o.Remedy,
			Source:      o.Source,
			VehicleType: o.VehicleType,
		})
	}
	return observations, nil
}
