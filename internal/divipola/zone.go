package divipola

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"

	"github.com/caqueta-electoral/divipola/internal/errors"
)

// ZoneCode is a validated two-digit zone code in the range "00".."99".
type ZoneCode string

// Reserved zone codes
const (
	ZoneCodeSeat           ZoneCode = "00" // municipal seat
	ZoneCodeIndigenous     ZoneCode = "90" // indigenous reservations
	ZoneCodeCorregimientos ZoneCode = "98" // corregimientos and detention facilities
	ZoneCodeDispersedRural ZoneCode = "99" // dispersed rural zone
)

const (
	maxZoneCode                = 99
	zoneCodeWidth              = 2
	ordinaryZoneCodeUpperBound = 89
)

// ParseZoneCode normalizes a raw zone code from an external source.
// Whitespace is trimmed, a trailing ".0" from spreadsheet exports is dropped,
// and single digits are left-padded, so "0" becomes "00" and "7" becomes "07".
// Anything that is not an integer in 0..99 is a validation error.
func ParseZoneCode(raw string) (ZoneCode, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, ".0")

	if s == "" {
		return "", errors.Newf("zone code is empty").
			Component("divipola").
			Category(errors.CategoryValidation).
			Context("raw", raw).
			Build()
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return "", errors.Newf("zone code %q is not numeric", raw).
				Component("divipola").
				Category(errors.CategoryValidation).
				Context("raw", raw).
				Build()
		}
	}

	n, err := strconv.Atoi(s)
	if err != nil || n > maxZoneCode {
		return "", errors.Newf("zone code %q is outside 00..99", raw).
			Component("divipola").
			Category(errors.CategoryValidation).
			Context("raw", raw).
			Build()
	}

	return ZoneCode(fmt.Sprintf("%0*d", zoneCodeWidth, n)), nil
}

// MustZoneCode parses a literal zone code and panics on failure. Tests and
// fixed tables use it.
func MustZoneCode(raw string) ZoneCode {
	code, err := ParseZoneCode(raw)
	if err != nil {
		panic(err)
	}
	return code
}

// String implements fmt.Stringer
func (c ZoneCode) String() string {
	return string(c)
}

// IsReserved reports whether the code carries a fixed meaning.
func (c ZoneCode) IsReserved() bool {
	switch c {
	case ZoneCodeSeat, ZoneCodeIndigenous, ZoneCodeCorregimientos, ZoneCodeDispersedRural:
		return true
	}
	return false
}

// IsOrdinary reports whether the code is one of "01".."89".
func (c ZoneCode) IsOrdinary() bool {
	n, err := strconv.Atoi(string(c))
	return err == nil && n >= 1 && n <= ordinaryZoneCodeUpperBound
}

// Value implements driver.Valuer so the code is stored as plain text
func (c ZoneCode) Value() (driver.Value, error) {
	return string(c), nil
}

// Scan implements sql.Scanner
func (c *ZoneCode) Scan(value any) error {
	switch v := value.(type) {
	case string:
		*c = ZoneCode(v)
	case []byte:
		*c = ZoneCode(v)
	case nil:
		*c = ""
	default:
		return fmt.Errorf("cannot scan %T into ZoneCode", value)
	}
	return nil
}

// ZoneKind is the closed set of zone classifications.
type ZoneKind string

const (
	ZoneKindUrban               ZoneKind = "urban"
	ZoneKindRural               ZoneKind = "rural"
	ZoneKindSpecialIndigenous   ZoneKind = "special-indigenous"
	ZoneKindSpecialIncarcerated ZoneKind = "special-incarcerated"
	ZoneKindSpecialRuralCensus  ZoneKind = "special-rural-census"
)

// ZoneKinds lists every kind in declaration order
var ZoneKinds = []ZoneKind{
	ZoneKindUrban,
	ZoneKindRural,
	ZoneKindSpecialIndigenous,
	ZoneKindSpecialIncarcerated,
	ZoneKindSpecialRuralCensus,
}

// ParseZoneKind validates a stored or configured kind name.
func ParseZoneKind(s string) (ZoneKind, error) {
	k := ZoneKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ZoneKinds {
		if k == known {
			return k, nil
		}
	}
	return "", errors.Newf("unknown zone kind %q", s).
		Component("divipola").
		Category(errors.CategoryValidation).
		Build()
}

// IsSpecial reports whether tables in zones of this kind may exceed the
// ordinary per-table maximum.
func (k ZoneKind) IsSpecial() bool {
	switch k {
	case ZoneKindSpecialIndigenous, ZoneKindSpecialIncarcerated, ZoneKindSpecialRuralCensus:
		return true
	}
	return false
}

func (k ZoneKind) String() string {
	return string(k)
}

// Value implements driver.Valuer
func (k ZoneKind) Value() (driver.Value, error) {
	return string(k), nil
}

// Scan implements sql.Scanner
func (k *ZoneKind) Scan(value any) error {
	switch v := value.(type) {
	case string:
		*k = ZoneKind(v)
	case []byte:
		*k = ZoneKind(v)
	case nil:
		*k = ""
	default:
		return fmt.Errorf("cannot scan %T into ZoneKind", value)
	}
	return nil
}

// ReservedKind returns the fixed kind of a reserved code.
func ReservedKind(code ZoneCode) (ZoneKind, bool) {
	switch code {
	case ZoneCodeSeat:
		return ZoneKindUrban, true
	case ZoneCodeIndigenous:
		return ZoneKindSpecialIndigenous, true
	case ZoneCodeCorregimientos:
		return ZoneKindSpecialIncarcerated, true
	case ZoneCodeDispersedRural:
		return ZoneKindSpecialRuralCensus, true
	}
	return "", false
}

// KindForCode classifies a zone code. Reserved codes have a fixed kind;
// ordinary codes inherit the dominant kind among the municipality's existing
// ordinary zones, with ties broken in ZoneKinds order and urban as default.
func KindForCode(code ZoneCode, existingOrdinary []ZoneKind) ZoneKind {
	if kind, ok := ReservedKind(code); ok {
		return kind
	}

	counts := make(map[ZoneKind]int, len(ZoneKinds))
	for _, k := range existingOrdinary {
		if k == ZoneKindUrban || k == ZoneKindRural {
			counts[k]++
		}
	}

	best := ZoneKindUrban
	for _, k := range ZoneKinds {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best
}

// ZoneLabel returns the descriptive label for a zone code.
func ZoneLabel(code ZoneCode) string {
	switch code {
	case ZoneCodeSeat:
		return "Cabecera Municipal"
	case ZoneCodeIndigenous:
		return "Resguardos Indígenas"
	case ZoneCodeCorregimientos:
		return "Corregimientos"
	case ZoneCodeDispersedRural:
		return "Zona Rural"
	}
	return "Zona " + string(code)
}

// ZoneName is the generated name of a zone created from census data.
func ZoneName(code ZoneCode) string {
	return "Zone " + string(code)
}
