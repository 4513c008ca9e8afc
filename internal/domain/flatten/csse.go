package flatten

import (
	"errors"
	"fmt"

	"github.com/ericfisherdev/coviddash/internal/domain/model"
)

// Scope selects which reports of a CSSE response are flattened.
type Scope int

const (
	// ScopeCity flattens the cities of the first report only, as returned for
	// a single-province query.
	ScopeCity Scope = iota
	// ScopeCountry flattens the cities of every report in the response.
	ScopeCountry
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case ScopeCity:
		return "city"
	case ScopeCountry:
		return "country"
	default:
		return "unknown"
	}
}

// ParseScope parses "city" or "country".
func ParseScope(s string) (Scope, error) {
	switch s {
	case "city":
		return ScopeCity, nil
	case "country":
		return ScopeCountry, nil
	default:
		return 0, fmt.Errorf("unknown scope %q: expected city or country", s)
	}
}

var (
	firstReportCities = MustPath("data.0.region.cities.*")
	allReportCities   = MustPath("data.*.region.cities.*")
	firstProvince     = MustPath("data.0.region.province")
)

// CityRecords returns the path of the city records for scope.
func CityRecords(scope Scope) Path {
	if scope == ScopeCity {
		return firstReportCities
	}
	return allReportCities
}

// CSSEField flattens one numeric field of every city in scope, skipping nulls.
// Fields that are null for some cities produce a shorter sequence than
// fields that are always present.
func CSSEField(doc any, field string, scope Scope) ([]float64, error) {
	vals, err := Floats(doc, CityRecords(scope).Field(field))
	if err != nil {
		return nil, noData(err)
	}
	return vals, nil
}

// Province returns the province name of the first report.
func Province(doc any) (string, error) {
	vals, err := Walk(doc, firstProvince)
	if err != nil {
		return "", noData(err)
	}
	if vals[0] == nil {
		return "", nil
	}
	return String(vals[0])
}

// Coordinates returns the lat/long pairs of every city in scope. Cities with
// either coordinate null are left out.
func Coordinates(doc any, scope Scope) ([]model.Coordinate, error) {
	rows, err := Columns(doc, CityRecords(scope), "lat", "long")
	if err != nil {
		return nil, noData(err)
	}

	coords := make([]model.Coordinate, 0, len(rows))
	for i, row := range rows {
		lat, err := Float(row[0])
		if err != nil {
			return nil, fmt.Errorf("city %d lat: %w", i, err)
		}
		long, err := Float(row[1])
		if err != nil {
			return nil, fmt.Errorf("city %d long: %w", i, err)
		}
		coords = append(coords, model.Coordinate{Lat: lat, Long: long})
	}
	return coords, nil
}

// Cities converts every city record in scope into a table row.
func Cities(doc any, scope Scope) ([]model.City, error) {
	recs, err := Walk(doc, CityRecords(scope))
	if err != nil {
		return nil, noData(err)
	}

	cities := make([]model.City, 0, len(recs))
	for i, rec := range recs {
		obj, ok := rec.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("city %d: %w: expected object, got %s", i, ErrShape, kindOf(rec))
		}
		city, err := cityFromRecord(obj)
		if err != nil {
			return nil, fmt.Errorf("city %d: %w", i, err)
		}
		cities = append(cities, city)
	}
	return cities, nil
}

func cityFromRecord(obj map[string]any) (model.City, error) {
	var c model.City
	var err error

	if c.Name, err = requiredString(obj, "name"); err != nil {
		return c, err
	}
	if c.Lat, err = optionalFloat(obj, "lat", true); err != nil {
		return c, err
	}
	if c.Long, err = optionalFloat(obj, "long", true); err != nil {
		return c, err
	}
	if c.Confirmed, err = intOrZero(obj, "confirmed", true); err != nil {
		return c, err
	}
	if c.Deaths, err = intOrZero(obj, "deaths", true); err != nil {
		return c, err
	}
	if c.ConfirmedDiff, err = intOrZero(obj, "confirmed_diff", false); err != nil {
		return c, err
	}
	if c.DeathsDiff, err = intOrZero(obj, "deaths_diff", false); err != nil {
		return c, err
	}
	if c.Date, err = stringOrEmpty(obj, "date"); err != nil {
		return c, err
	}
	if c.FIPS, err = stringOrEmpty(obj, "fips"); err != nil {
		return c, err
	}
	if c.LastUpdate, err = stringOrEmpty(obj, "last_update"); err != nil {
		return c, err
	}
	return c, nil
}

func requiredString(obj map[string]any, key string) (string, error) {
	v, ok := obj[key]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrMissingField, key)
	}
	if v == nil {
		return "", nil
	}
	s, err := String(v)
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return s, nil
}

func stringOrEmpty(obj map[string]any, key string) (string, error) {
	if _, ok := obj[key]; !ok {
		return "", nil
	}
	return requiredString(obj, key)
}

func optionalFloat(obj map[string]any, key string, required bool) (*float64, error) {
	v, ok := obj[key]
	if !ok {
		if required {
			return nil, fmt.Errorf("%w %q", ErrMissingField, key)
		}
		return nil, nil
	}
	if v == nil {
		return nil, nil
	}
	f, err := Float(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &f, nil
}

func intOrZero(obj map[string]any, key string, required bool) (int64, error) {
	v, ok := obj[key]
	if !ok {
		if required {
			return 0, fmt.Errorf("%w %q", ErrMissingField, key)
		}
		return 0, nil
	}
	if v == nil {
		return 0, nil
	}
	n, err := Int(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// noData maps an out-of-range "data.0" lookup to ErrNoData.
func noData(err error) error {
	if errors.Is(err, ErrIndexRange) {
		return fmt.Errorf("%w: %v", ErrNoData, err)
	}
	return err
}
