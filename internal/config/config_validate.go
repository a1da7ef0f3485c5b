// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package config

import (
	"fmt"
	"path/filepath"

	"github.com/tomtom215/mpdrec/internal/validation"
)

// Validate checks field constraints, then the rules that span sections.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if err := c.validateOutputs(); err != nil {
		return err
	}

	return c.validateStores()
}

// validateOutputs rejects output paths that would overwrite each other.
func (c *Config) validateOutputs() error {
	outputs := []struct {
		key  string
		path string
	}{
		{"paths.submission", c.Paths.Submission},
		{"paths.metadata", c.Paths.Metadata},
		{"paths.report", c.Paths.Report},
		{"metrics.textfile_path", c.Metrics.TextfilePath},
	}

	seen := make(map[string]string, len(outputs))
	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		clean := filepath.Clean(o.path)
		if prev, ok := seen[clean]; ok {
			return fmt.Errorf("%s and %s both point to %s", prev, o.key, o.path)
		}
		seen[clean] = o.key
	}
	return nil
}

// validateStores keeps the badger ledger out of the artifact directory; the
// artifact store and badger would otherwise share file names.
func (c *Config) validateStores() error {
	if !c.History.Enabled {
		return nil
	}
	if filepath.Clean(c.History.Dir) == filepath.Clean(c.Paths.ProcessedDir) {
		return fmt.Errorf("history.dir must differ from paths.processed_dir (%s)", c.Paths.ProcessedDir)
	}
	return nil
}
