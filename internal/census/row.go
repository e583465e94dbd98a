// Package census reads the DIVIPOLA census reference and performs the initial
// load of the hierarchy from it.
package census

import (
	"strconv"
	"strings"

	"github.com/caqueta-electoral/divipola/internal/divipola"
	"github.com/caqueta-electoral/divipola/internal/errors"
)

// Row is one polling place of the census reference, as given by the source.
// Numeric fields are kept raw so that a malformed value only invalidates its row.
type Row struct {
	Line             int    `json:"line"`
	Department       string `json:"department"`
	Municipality     string `json:"municipality"`
	MunicipalityCode string `json:"municipality_code,omitempty"`
	ZoneCode         string `json:"zone_code"` // e.g. "0", "7" or "90.0"
	PollingPlace     string `json:"polling_place"`
	PollingPlaceCode string `json:"polling_place_code,omitempty"`
	Address          string `json:"address,omitempty"`
	TotalRegistered  string `json:"total_registered_voters"`
}

// Parsed is a Row whose numeric fields passed validation.
type Parsed struct {
	Row
	Zone   divipola.ZoneCode
	Voters int64
}

// RowIssue names a row that could not be applied and why.
type RowIssue struct {
	Line   int    `json:"line" yaml:"line"`
	Key    string `json:"key" yaml:"key"`
	Reason string `json:"reason" yaml:"reason"`
}

// Key is the match key of the row's polling place.
func (r Row) Key() string {
	return divipola.MatchKey(r.Municipality, r.PollingPlace)
}

// Parse validates the zone code and the registered-voter total.
func (r Row) Parse() (Parsed, error) {
	if strings.TrimSpace(r.Municipality) == "" || strings.TrimSpace(r.PollingPlace) == "" {
		return Parsed{}, r.invalid("municipality and polling place are required", "")
	}

	zone, err := divipola.ParseZoneCode(r.ZoneCode)
	if err != nil {
		return Parsed{}, r.invalid(err.Error(), r.ZoneCode)
	}

	voters, err := parseCount(r.TotalRegistered)
	if err != nil {
		return Parsed{}, r.invalid("total registered voters: "+err.Error(), r.TotalRegistered)
	}

	return Parsed{Row: r, Zone: zone, Voters: voters}, nil
}

func (r Row) invalid(reason, value string) error {
	return errors.Newf("census row %d: %s", r.Line, reason).
		Component("census").
		Category(errors.CategoryValidation).
		Context("line", r.Line).
		Context("key", r.Key()).
		Context("value", value).
		Build()
}

// parseCount accepts a non-negative integer, tolerating the ".0" suffix of
// spreadsheet exports.
func parseCount(raw string) (int64, error) {
	s := strings.TrimSuffix(strings.TrimSpace(raw), ".0")
	if s == "" {
		return 0, errors.NewStd("value is empty")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.NewStd("value is not an integer")
	}
	if n < 0 {
		return 0, errors.NewStd("value is negative")
	}
	return n, nil
}

// normalizeMunicipalityCode pads a numeric DIVIPOLA municipality code to
// three digits. Non-numeric codes are returned trimmed.
func normalizeMunicipalityCode(raw string) string {
	s := strings.TrimSuffix(strings.TrimSpace(raw), ".0")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return s
	}
	return formatMunicipalityCode(n)
}

func formatMunicipalityCode(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}

// cleanName collapses whitespace in a name without changing its case.
func cleanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
