package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ManifestName is the batch summary written next to the archives.
const ManifestName = "batch.json"

// Manifest summarizes one batch run.
type Manifest struct {
	Created   time.Time `json:"created"`
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Sets      []Result  `json:"sets"`
}

// Summarize counts successes and failures.
func Summarize(results []Result) Manifest {
	m := Manifest{Created: time.Now().UTC(), Total: len(results), Sets: results}
	for _, r := range results {
		if r.Success {
			m.Succeeded++
		} else {
			m.Failed++
		}
	}
	return m
}

// WriteManifest writes the batch summary to path.
func WriteManifest(path string, results []Result) error {
	data, err := json.MarshalIndent(Summarize(results), "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("batch: write manifest: %w", err)
	}
	return nil
}
