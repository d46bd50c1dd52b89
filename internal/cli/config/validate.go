package config

import (
	"fmt"
	"os"
)

var validOutputs = map[string]bool{
	"auto":     true,
	"text":     true,
	"markdown": true,
	"md":       true,
	"json":     true,
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if len(c.Models) == 0 && len(c.OffsetsFiles) == 0 {
		return fmt.Errorf("at least one model or offsets file is required")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	if c.FileTimeout < 0 {
		return fmt.Errorf("file_timeout must be non-negative, got %s", c.FileTimeout)
	}
	if c.OutputFormat != "" && !validOutputs[c.OutputFormat] {
		return fmt.Errorf("unknown output format %q (expected auto, text, markdown, or json)", c.OutputFormat)
	}
	return nil
}

// ValidateCorpus checks that the configured corpus exists. Kept separate
// from Validate so help and report commands work without a corpus.
func (c *Config) ValidateCorpus() error {
	if c.CorpusFile != "" {
		if _, err := os.Stat(c.CorpusFile); os.IsNotExist(err) {
			return fmt.Errorf("corpus file does not exist: %s", c.CorpusFile)
		}
		return nil
	}
	if _, err := os.Stat(c.CorpusDir); os.IsNotExist(err) {
		return fmt.Errorf("corpus directory does not exist: %s\nHint: Create the directory or use --corpus-dir to specify a different path", c.CorpusDir)
	}
	return nil
}
