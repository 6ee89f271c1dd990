package dto

type CoverageRequest struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	Profile     string `json:"profile"`
	SampleCount int    `json:"sample_count"`
}

type NetworkResponse struct {
	Operator string `json:"operator"`
	Name     string `json:"name"`
	Level    *int   `json:"level"`
	Color    string `json:"color,omitempty"`
	Error    string `json:"error,omitempty"`
}

type PointResponse struct {
	Lat            float64           `json:"lat"`
	Lon            float64           `json:"lon"`
	DistanceMeters float64           `json:"distance_meters"`
	Label          string            `json:"label,omitempty"`
	Networks       []NetworkResponse `json:"networks"`
}

type CacheStatsResponse struct {
	TilesFetched   int64 `json:"tiles_fetched"`
	TilesFromCache int64 `json:"tiles_from_cache"`
}

type CoverageResponse struct {
	Points              []PointResponse    `json:"points"`
	TotalDistanceMeters float64            `json:"total_distance_meters"`
	CacheStats          CacheStatsResponse `json:"cache_stats"`
}
