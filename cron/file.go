package cron

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileEntry is one entry of a trigger file.
type FileEntry struct {
	Name     string `yaml:"name"`
	Schedule string `yaml:"schedule"`
	Job      string `yaml:"job"`
	Argument any    `yaml:"argument"`
	// Disabled entries are registered but do not fire until enabled.
	Disabled bool `yaml:"disabled"`
}

// File is the document format read by Load:
//
//	triggers:
//	  - name: daily-report
//	    schedule: "0 9 * * *"
//	    job: report
//	    argument: {format: pdf}
type File struct {
	Triggers []FileEntry `yaml:"triggers"`
}

// ParseFile decodes a trigger file.
func ParseFile(data []byte) (File, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return File{}, errors.New("cron: trigger file is empty")
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("cron: decode trigger file: %w", err)
	}
	return f, nil
}

// Load adds every entry of f to t. It stops at the first entry that
// cannot be added; entries added before it are kept.
func (t *Trigger) Load(f File) error {
	for i, fe := range f.Triggers {
		if _, err := t.Add(fe.Name, fe.Schedule, fe.Job, fe.Argument); err != nil {
			return fmt.Errorf("cron: trigger %d (%q): %w", i, fe.Name, err)
		}
		if fe.Disabled {
			if err := t.Disable(fe.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadFile reads a YAML trigger file from path and adds its entries to t.
func (t *Trigger) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cron: read %s: %w", path, err)
	}
	f, err := ParseFile(data)
	if err != nil {
		return fmt.Errorf("cron: %s: %w", path, err)
	}
	return t.Load(f)
}
