package reconcile

import (
	"time"

	"github.com/caqueta-electoral/divipola/internal/census"
)

// Report is the outcome of one reconcile run.
type Report struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	Department string    `json:"department" yaml:"department"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	Duration   string    `json:"duration" yaml:"duration"`

	// Applied counts matched rows that wrote something, Unchanged the matched
	// rows already in sync.
	Applied            int `json:"applied" yaml:"applied"`
	Unchanged          int `json:"unchanged" yaml:"unchanged"`
	Unmatched          int `json:"unmatched" yaml:"unmatched"`
	ZonesCreated       int `json:"zones_created" yaml:"zones_created"`
	ZonesCorrected     int `json:"zones_corrected" yaml:"zones_corrected"`
	Invalid            int `json:"invalid" yaml:"invalid"`
	Failed             int `json:"failed" yaml:"failed"`
	Ignored            int `json:"ignored" yaml:"ignored"`
	PopulationsUpdated int `json:"populations_updated" yaml:"populations_updated"`
	Writes             int `json:"writes" yaml:"writes"`

	UnmatchedKeys []string          `json:"unmatched_keys" yaml:"unmatched_keys"`
	InvalidRows   []census.RowIssue `json:"invalid_rows,omitempty" yaml:"invalid_rows,omitempty"`
	FailedRows    []census.RowIssue `json:"failed_rows,omitempty" yaml:"failed_rows,omitempty"`
}

func (r *Report) unmatched(key string) {
	r.Unmatched++
	r.UnmatchedKeys = append(r.UnmatchedKeys, key)
}

func (r *Report) invalid(row census.Row, err error) {
	r.Invalid++
	r.InvalidRows = append(r.InvalidRows, census.RowIssue{Line: row.Line, Key: row.Key(), Reason: err.Error()})
}

func (r *Report) failed(row census.Row, err error) {
	r.Failed++
	r.FailedRows = append(r.FailedRows, census.RowIssue{Line: row.Line, Key: row.Key(), Reason: err.Error()})
}
