package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultJournalPath is where reconciliation outcomes are recorded on the
// device. Override for tests or non-standard layouts.
const DefaultJournalPath = "/var/lib/seanet/journal.yaml"

// maxJournalRuns bounds the journal history
const maxJournalRuns = 20

// Outcome is the terminal result of a reconciliation pass
type Outcome string

const (
	// OutcomeConverged means the desired profile activated (or no activation
	// was needed because nothing changed)
	OutcomeConverged Outcome = "converged"
	// OutcomeFallback means management failed and the hotspot took over
	OutcomeFallback Outcome = "fallback"
	// OutcomeFailed means the fallback of last resort did not come up
	OutcomeFailed Outcome = "failed"
	// OutcomeAborted means the pass stopped before activation (query or
	// bootstrap failure)
	OutcomeAborted Outcome = "aborted"
)

// Run records one reconciliation pass for operator inspection.
type Run struct {
	ID            string    `yaml:"id" json:"id"`
	Time          time.Time `yaml:"time" json:"time"`
	Desired       string    `yaml:"desired" json:"desired"`
	ActiveProfile string    `yaml:"active_profile,omitempty" json:"active_profile,omitempty"`
	Connectivity  string    `yaml:"connectivity,omitempty" json:"connectivity,omitempty"`
	Modified      bool      `yaml:"modified" json:"modified"`
	Fallback      bool      `yaml:"fallback" json:"fallback"`
	Outcome       Outcome   `yaml:"outcome" json:"outcome"`
	Error         string    `yaml:"error,omitempty" json:"error,omitempty"`
}

// Journal is the on-device record of recent reconciliation passes. It never
// stores desired configuration or credentials; the config file owns those.
type Journal struct {
	Version int   `yaml:"version"`
	Runs    []Run `yaml:"runs"`
}

// NewJournal returns an empty journal.
func NewJournal() *Journal {
	return &Journal{Version: 1}
}

// LoadJournal reads the journal at path. A missing file yields an empty
// journal; a corrupt file is an error.
func LoadJournal(path string) (*Journal, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewJournal(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	var journal Journal
	if err := yaml.Unmarshal(data, &journal); err != nil {
		return nil, fmt.Errorf("failed to parse journal: %w", err)
	}
	if journal.Version != 1 {
		return nil, fmt.Errorf("unsupported journal version: %d (expected 1)", journal.Version)
	}
	return &journal, nil
}

// Append records a run, trimming history to the most recent entries.
func (j *Journal) Append(run Run) {
	j.Runs = append(j.Runs, run)
	if len(j.Runs) > maxJournalRuns {
		j.Runs = j.Runs[len(j.Runs)-maxJournalRuns:]
	}
}

// Last returns the most recent run, or nil when the journal is empty.
func (j *Journal) Last() *Run {
	if len(j.Runs) == 0 {
		return nil
	}
	return &j.Runs[len(j.Runs)-1]
}

// Save writes the journal to path. Performs an atomic write to prevent
// corruption on crash.
func (j *Journal) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}

	data, err := yaml.Marshal(j)
	if err != nil {
		return fmt.Errorf("failed to marshal journal: %w", err)
	}

	header := []byte(`# seanet reconciliation journal
# Records the outcome of recent reconciliation passes. Informational only:
# deleting this file has no effect on network configuration.

`)
	data = append(header, data...)

	// Write to temporary file first (atomic write)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary journal file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save journal file: %w", err)
	}
	return nil
}
