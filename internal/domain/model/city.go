package model

// City is one row of a province report. Lat and Long are nil when the
// upstream report has no coordinates for the city.
type City struct {
	Name          string   `structs:"name"`
	Date          string   `structs:"date"`
	FIPS          string   `structs:"fips"`
	Lat           *float64 `structs:"lat"`
	Long          *float64 `structs:"long"`
	Confirmed     int64    `structs:"confirmed"`
	Deaths        int64    `structs:"deaths"`
	ConfirmedDiff int64    `structs:"confirmed_diff"`
	DeathsDiff    int64    `structs:"deaths_diff"`
	LastUpdate    string   `structs:"last_update"`
}

// Coordinate is a single map point.
type Coordinate struct {
	Lat  float64
	Long float64
}

// CityTable is the table shown for one province.
type CityTable struct {
	Province string
	Cities   []City
}
