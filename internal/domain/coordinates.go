package domain

// Immutable geographic coordinates (longitude, latitude) in WGS84 degrees.
type Coordinates struct {
	Lon float64
	Lat float64
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// Planar position in meters on the British National Grid (easting/northing).
// Conversions from NaN geographic input yield NaN fields; callers that care
// must check, the math never panics.
type Projected struct {
	Easting  float64
	Northing float64
}
