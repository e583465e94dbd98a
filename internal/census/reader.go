package census

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caqueta-electoral/divipola/internal/divipola"
	"github.com/caqueta-electoral/divipola/internal/errors"
)

// Canonical column names.
const (
	ColumnDepartment       = "department"
	ColumnMunicipality     = "municipality"
	ColumnMunicipalityCode = "municipality_code"
	ColumnZoneCode         = "zone_code"
	ColumnPollingPlace     = "polling_place"
	ColumnPollingPlaceCode = "polling_place_code"
	ColumnAddress          = "address"
	ColumnTotalRegistered  = "total_registered_voters"
)

// requiredColumns must be present in every reference.
var requiredColumns = []string{
	ColumnDepartment,
	ColumnMunicipality,
	ColumnZoneCode,
	ColumnPollingPlace,
	ColumnTotalRegistered,
}

// headerAliases maps normalized header names onto canonical columns. The
// DIVIPOLA export uses the Spanish names.
var headerAliases = map[string]string{
	"DEPARTMENT":              ColumnDepartment,
	"DEPARTAMENTO":            ColumnDepartment,
	"MUNICIPALITY":            ColumnMunicipality,
	"MUNICIPIO":               ColumnMunicipality,
	"MUNICIPALITY_CODE":       ColumnMunicipalityCode,
	"MM":                      ColumnMunicipalityCode,
	"ZONE_CODE":               ColumnZoneCode,
	"ZZ":                      ColumnZoneCode,
	"POLLING_PLACE":           ColumnPollingPlace,
	"PUESTO":                  ColumnPollingPlace,
	"POLLING_PLACE_CODE":      ColumnPollingPlaceCode,
	"PP":                      ColumnPollingPlaceCode,
	"ADDRESS":                 ColumnAddress,
	"DIRECCION":               ColumnAddress,
	"TOTAL_REGISTERED_VOTERS": ColumnTotalRegistered,
	"TOTAL":                   ColumnTotalRegistered,
}

// Source is a fully read census reference.
type Source struct {
	Path string
	Rows []Row
}

// ReadFile reads the whole reference at path. Any failure to open or parse
// the file is a source error; nothing is returned from a partial read.
func ReadFile(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.SourceError(fmt.Errorf("open census reference: %w", err), path)
	}
	defer f.Close()

	return Read(f, path)
}

// Read parses a reference from r. name identifies the source in errors.
func Read(r io.Reader, name string) (*Source, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // short rows are reported per row, not fatal
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.SourceError(errors.NewStd("census reference is empty"), name)
	}
	if err != nil {
		return nil, errors.SourceError(fmt.Errorf("read census header: %w", err), name)
	}

	columns, err := mapHeader(header)
	if err != nil {
		return nil, errors.SourceError(err, name)
	}

	source := &Source{Path: name}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.SourceError(fmt.Errorf("read census row: %w", err), name)
		}

		line, _ := reader.FieldPos(0)
		source.Rows = append(source.Rows, columns.row(line, record))
	}

	return source, nil
}

// columnIndex maps canonical column names to record positions.
type columnIndex map[string]int

func mapHeader(header []string) (columnIndex, error) {
	columns := make(columnIndex, len(header))
	for i, raw := range header {
		name := divipola.NormalizeName(strings.TrimPrefix(raw, "\ufeff"))
		name = strings.ReplaceAll(name, " ", "_")
		if canonical, ok := headerAliases[name]; ok {
			if _, dup := columns[canonical]; !dup {
				columns[canonical] = i
			}
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("census reference is missing columns: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

func (c columnIndex) row(line int, record []string) Row {
	return Row{
		Line:             line,
		Department:       c.field(record, ColumnDepartment),
		Municipality:     c.field(record, ColumnMunicipality),
		MunicipalityCode: c.field(record, ColumnMunicipalityCode),
		ZoneCode:         c.field(record, ColumnZoneCode),
		PollingPlace:     c.field(record, ColumnPollingPlace),
		PollingPlaceCode: c.field(record, ColumnPollingPlaceCode),
		Address:          c.field(record, ColumnAddress),
		TotalRegistered:  c.field(record, ColumnTotalRegistered),
	}
}

func (c columnIndex) field(record []string, column string) string {
	i, ok := c[column]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
