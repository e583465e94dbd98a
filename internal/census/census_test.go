package census

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caqueta-electoral/divipola/internal/divipola"
	"github.com/caqueta-electoral/divipola/internal/errors"
)

func TestReadFileAliases(t *testing.T) {
	t.Parallel()

	source, err := ReadFile(filepath.Join("testdata", "divipola_sample.csv"))
	require.NoError(t, err)
	require.Len(t, source.Rows, 6)

	first := source.Rows[0]
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "CAQUETA", first.Department)
	assert.Equal(t, "FLORENCIA", first.Municipality)
	assert.Equal(t, "1", first.MunicipalityCode)
	assert.Equal(t, "0", first.ZoneCode)
	assert.Equal(t, "COLEGIO NACIONAL", first.PollingPlace)
	assert.Equal(t, "CALLE 15 # 10-20", first.Address)
	assert.Equal(t, "1020", first.TotalRegistered)

	assert.Equal(t, "90.0", source.Rows[2].ZoneCode)
}

func TestReadEnglishHeaderWithBOM(t *testing.T) {
	t.Parallel()

	input := "\ufeffDepartment, Municipality ,Zone Code,Polling Place,Total Registered Voters\n" +
		"CAQUETA,Florencia,0,Escuela X,450\n" +
		"CAQUETA,Florencia,1\n"

	source, err := Read(strings.NewReader(input), "inline")
	require.NoError(t, err)
	require.Len(t, source.Rows, 2)
	assert.Equal(t, "Escuela X", source.Rows[0].PollingPlace)

	// Short rows are kept and fail per-row validation.
	_, err = source.Rows[1].Parse()
	assert.True(t, errors.IsValidation(err))
}

func TestReadFailuresAreSourceErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"missing columns", "departamento,municipio,puesto\nCAQUETA,FLORENCIA,ESCUELA\n"},
		{"bad quoting", "departamento,municipio,zz,puesto,total\nCAQUETA,\"FLORENCIA,0,ESCUELA,10\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Read(strings.NewReader(tt.input), "inline")
			require.Error(t, err)
			assert.True(t, errors.IsSourceIO(err))
		})
	}

	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.True(t, errors.IsSourceIO(err))
}

func TestRowParse(t *testing.T) {
	t.Parallel()

	row := Row{Line: 3, Municipality: "Florencia", PollingPlace: "Escuela X", ZoneCode: "0", TotalRegistered: "450"}
	parsed, err := row.Parse()
	require.NoError(t, err)
	assert.Equal(t, divipola.ZoneCodeSeat, parsed.Zone)
	assert.Equal(t, int64(450), parsed.Voters)
	assert.Equal(t, "FLORENCIA|ESCUELA X", row.Key())

	row.TotalRegistered = "450.0"
	parsed, err = row.Parse()
	require.NoError(t, err)
	assert.Equal(t, int64(450), parsed.Voters)

	for _, bad := range []Row{
		{Municipality: "Florencia", PollingPlace: "X", ZoneCode: "0", TotalRegistered: "-1"},
		{Municipality: "Florencia", PollingPlace: "X", ZoneCode: "0", TotalRegistered: "many"},
		{Municipality: "Florencia", PollingPlace: "X", ZoneCode: "100", TotalRegistered: "1"},
		{Municipality: "", PollingPlace: "X", ZoneCode: "0", TotalRegistered: "1"},
	} {
		_, err := bad.Parse()
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	}
}

func TestNormalizeMunicipalityCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "001", normalizeMunicipalityCode("1"))
	assert.Equal(t, "029", normalizeMunicipalityCode(" 29.0 "))
	assert.Equal(t, "150", normalizeMunicipalityCode("150"))
	assert.Equal(t, "X1", normalizeMunicipalityCode("X1"))
}
