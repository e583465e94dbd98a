package divipola

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caqueta-electoral/divipola/internal/errors"
)

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"San Vicente del Caguán", "SAN VICENTE DEL CAGUAN"},
		{"  belén   de los  andaquíes ", "BELEN DE LOS ANDAQUIES"},
		{"I.E. Ñañez", "I.E. NANEZ"},
		{"Solita\tCentro\n", "SOLITA CENTRO"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestNormalizeNameIdempotent(t *testing.T) {
	t.Parallel()

	once := NormalizeName("Curillo  Colegio Jesús María")
	assert.Equal(t, once, NormalizeName(once))
}

func TestMatchKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "FLORENCIA|COLEGIO NACIONAL", MatchKey("Florencia", "colegio  nacional"))
	assert.Equal(t, MatchKey("MILÁN", "Escuela"), MatchKey("milan", "ESCUELA"))
}

func TestParseZoneCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want ZoneCode
	}{
		{"0", "00"},
		{"00", "00"},
		{"1", "01"},
		{" 7 ", "07"},
		{"12", "12"},
		{"90.0", "90"},
		{"0.0", "00"},
		{"99", "99"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			got, err := ParseZoneCode(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseZoneCodeRejects(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "  ", "100", "-1", "A1", "1.5", "9 9"} {
		t.Run(raw, func(t *testing.T) {
			t.Parallel()
			_, err := ParseZoneCode(raw)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
		})
	}
}

func TestZoneCodeClassification(t *testing.T) {
	t.Parallel()

	assert.True(t, ZoneCodeSeat.IsReserved())
	assert.False(t, ZoneCodeSeat.IsOrdinary())
	assert.True(t, MustZoneCode("1").IsOrdinary())
	assert.True(t, MustZoneCode("89").IsOrdinary())
	assert.False(t, MustZoneCode("95").IsOrdinary())
	assert.False(t, MustZoneCode("95").IsReserved())
}

func TestKindForCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		code     ZoneCode
		existing []ZoneKind
		want     ZoneKind
	}{
		{"seat is urban", ZoneCodeSeat, nil, ZoneKindUrban},
		{"indigenous", ZoneCodeIndigenous, nil, ZoneKindSpecialIndigenous},
		{"corregimientos", ZoneCodeCorregimientos, nil, ZoneKindSpecialIncarcerated},
		{"dispersed rural", ZoneCodeDispersedRural, []ZoneKind{ZoneKindUrban}, ZoneKindSpecialRuralCensus},
		{"ordinary default", "05", nil, ZoneKindUrban},
		{"ordinary majority rural", "05", []ZoneKind{ZoneKindRural, ZoneKindRural, ZoneKindUrban}, ZoneKindRural},
		{"ordinary tie prefers urban", "05", []ZoneKind{ZoneKindRural, ZoneKindUrban}, ZoneKindUrban},
		{"special kinds ignored", "05", []ZoneKind{ZoneKindSpecialIndigenous, ZoneKindSpecialIndigenous}, ZoneKindUrban},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, KindForCode(tt.code, tt.existing))
		})
	}
}

func TestZoneKind(t *testing.T) {
	t.Parallel()

	assert.False(t, ZoneKindUrban.IsSpecial())
	assert.False(t, ZoneKindRural.IsSpecial())
	assert.True(t, ZoneKindSpecialIndigenous.IsSpecial())
	assert.True(t, ZoneKindSpecialIncarcerated.IsSpecial())
	assert.True(t, ZoneKindSpecialRuralCensus.IsSpecial())

	k, err := ParseZoneKind(" Rural ")
	require.NoError(t, err)
	assert.Equal(t, ZoneKindRural, k)

	_, err = ParseZoneKind("suburban")
	assert.True(t, errors.IsValidation(err))
}

func TestZoneCodeScan(t *testing.T) {
	t.Parallel()

	var c ZoneCode
	require.NoError(t, c.Scan([]byte("07")))
	assert.Equal(t, ZoneCode("07"), c)

	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, "07", v)

	assert.Error(t, c.Scan(7))
}

func TestZoneLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Resguardos Indígenas", ZoneLabel(ZoneCodeIndigenous))
	assert.Equal(t, "Zona 03", ZoneLabel("03"))
	assert.Equal(t, "Zone 00", ZoneName(ZoneCodeSeat))
}
