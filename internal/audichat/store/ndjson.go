// Package store loads audit datasets from their two supported sources:
// NDJSON files and SQL databases. Loading happens once per dataset;
// analysis always runs against the returned in-memory slice, and a
// refresh replaces the whole slice rather than mutating it.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/logger"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
)

// LoadNDJSON reads one JSON object per line and normalizes each into
// an AuditEvent. Blank lines are skipped; a malformed line fails the
// whole load so silent truncation cannot go unnoticed.
func LoadNDJSON(path string) (model.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset %s: %w", path, err)
	}
	defer f.Close()

	var ds model.Dataset
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("parsing %s line %d: %w", path, line, err)
		}
		ds = append(ds, model.FromRecord(rec))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading dataset %s: %w", path, err)
	}
	logger.L().Infow("dataset loaded", "source", path, "events", len(ds))
	return ds, nil
}
