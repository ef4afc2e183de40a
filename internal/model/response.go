package model

// NearbyCountry is a Country annotated with its distance from a query point.
type NearbyCountry struct {
	Country
	DistanceKm float64 `json:"distance_km"`
}

type CountryPage struct {
	Countries   []Country `json:"countries"`
	HasNextPage bool      `json:"has_next_page"`
	EndCursor   string    `json:"end_cursor,omitempty"`
	TotalCount  int64     `json:"total_count"`
}

type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}
