package cloudsync

import (
	"errors"
	"fmt"
	"time"
)

const (
	DirectionPull = "pull"
	DirectionPush = "push"
)

type TableReport struct {
	Table   string `json:"table"`
	Read    int    `json:"read"`
	Written int    `json:"written"`
	Failed  int    `json:"failed"`
	Pruned  int    `json:"pruned,omitempty"`
	Error   string `json:"error,omitempty"`

	err error
}

// Report summarises one pull or push run.
type Report struct {
	Direction string        `json:"direction"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Tables    []TableReport `json:"tables"`
}

func newReport(direction string) *Report {
	return &Report{Direction: direction, StartedAt: time.Now()}
}

func (r *Report) add(tr TableReport) {
	if tr.err != nil {
		tr.Error = tr.err.Error()
	}
	r.Tables = append(r.Tables, tr)
}

func (r *Report) finish() {
	r.Duration = time.Since(r.StartedAt)
}

func (r *Report) Written() int {
	n := 0
	for _, t := range r.Tables {
		n += t.Written
	}
	return n
}

func (r *Report) Failed() int {
	n := 0
	for _, t := range r.Tables {
		n += t.Failed
	}
	return n
}

func (r *Report) TableNames() []string {
	names := make([]string, 0, len(r.Tables))
	for _, t := range r.Tables {
		names = append(names, t.Table)
	}
	return names
}

// Err joins the per-table errors, nil when every table succeeded.
func (r *Report) Err() error {
	var errs []error
	for _, t := range r.Tables {
		if t.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Table, t.err))
		}
	}
	return errors.Join(errs...)
}
