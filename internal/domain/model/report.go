package model

// ReportQuery holds the query parameters of a CSSE /reports call.
// Empty fields are omitted from the query string.
type ReportQuery struct {
	RegionName string // region_name, e.g. "US".
	ISO        string // iso, e.g. "USA".
	Date       string // date, YYYY-MM-DD.
	Province   string // region_province.
	City       string // city_name.
	Q          string // q, free text such as "US Florida".
}

// Key returns a stable identifier for the query, used to index snapshots.
func (q ReportQuery) Key() string {
	return "region_name=" + q.RegionName +
		"&iso=" + q.ISO +
		"&date=" + q.Date +
		"&region_province=" + q.Province +
		"&city_name=" + q.City +
		"&q=" + q.Q
}

// CountryQuery returns the query for every province report of a country.
func CountryQuery(regionName, iso string) ReportQuery {
	return ReportQuery{RegionName: regionName, ISO: iso}
}

// StateQuery returns the query for a single state/province report, matching
// the upstream free-text search ("US Florida").
func StateQuery(regionName, iso, state string) ReportQuery {
	return ReportQuery{RegionName: regionName, ISO: iso, Q: regionName + " " + state}
}
