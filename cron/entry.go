package cron

import (
	"encoding/json"
	"time"

	"github.com/xraph/conductor/id"
)

// Entry represents a recurring job schedule.
type Entry struct {
	ID        id.TriggerID    `json:"id"`
	Name      string          `json:"name"`
	Schedule  string          `json:"schedule"`
	JobName   string          `json:"job_name"`
	Argument  json.RawMessage `json:"argument,omitempty"`
	Enabled   bool            `json:"enabled"`
	LastRunAt *time.Time      `json:"last_run_at,omitempty"`
	NextRunAt *time.Time      `json:"next_run_at,omitempty"`
}

func (e *Entry) clone() Entry {
	c := *e
	if e.LastRunAt != nil {
		t := *e.LastRunAt
		c.LastRunAt = &t
	}
	if e.NextRunAt != nil {
		t := *e.NextRunAt
		c.NextRunAt = &t
	}
	return c
}
