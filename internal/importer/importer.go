// Package importer bulk-loads memories from a JSON export file. Records are
// stored one by one through the engine so they are labelled, embedded and
// partitioned exactly like interactively stored memories; malformed or
// rejected records are skipped and counted, never fatal to the run.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/echosoul/echosoul/internal/engine"
	"github.com/echosoul/echosoul/pkg/types"
)

// Result summarises one import run.
type Result struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Importer loads memory exports for one user.
type Importer struct {
	engine *engine.Engine
	log    zerolog.Logger
}

// New builds an importer over an engine.
func New(eng *engine.Engine, log zerolog.Logger) *Importer {
	return &Importer{
		engine: eng,
		log:    log.With().Str("component", "importer").Logger(),
	}
}

// ImportFile reads a JSON array of memories and stores each one. IDs in the
// file are ignored; the store assigns fresh ones. Timestamps are preserved
// so imported history keeps its place on the timeline.
func (i *Importer) ImportFile(ctx context.Context, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read import file: %w", err)
	}

	var records []types.Memory
	if err := json.Unmarshal(data, &records); err != nil {
		return Result{}, fmt.Errorf("parse import file: %w", err)
	}

	var result Result
	for idx := range records {
		m := records[idx]
		m.ID = ""
		m.UserID = ""

		if _, err := i.engine.StoreMemory(ctx, &m, m.Kind.IsVault()); err != nil {
			result.Skipped++
			i.log.Warn().Err(err).Int("record", idx).Msg("skipped record during import")
			continue
		}
		result.Imported++
	}

	i.log.Info().Int("imported", result.Imported).Int("skipped", result.Skipped).Msg("import finished")
	return result, nil
}
