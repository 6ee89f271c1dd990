package domain

// Level is a discrete signal-coverage class. Higher is better.
// LevelUnknown marks a pixel whose color matched no palette entry within
// tolerance; it is an answer, not an error.
type Level int

const (
	LevelUnknown Level = -1
	LevelNone    Level = 0
	LevelLimited Level = 1
	LevelFair    Level = 2
	LevelGood    Level = 3
	LevelBest    Level = 4
)

// Known reports whether the level carries an actual classification.
func (l Level) Known() bool { return l >= LevelNone && l <= LevelBest }

// A point interpolated along a route. DistanceMeters is the cumulative
// great-circle distance from the route start and is non-decreasing across an
// ordered sample sequence.
type SampledPoint struct {
	Coordinates
	DistanceMeters float64
}

// Per-operator outcome at one sampled point. Level and Error are mutually
// exclusive: a resolution failure leaves Level at LevelUnknown and records
// the cause in Error. Color holds the sampled pixel as a 6-digit hex string
// when a pixel was read.
type NetworkResult struct {
	Operator Operator
	Level    Level
	Color    string
	Error    string
}

// Coverage classification for one sampled point across all operators.
// Label carries the caller's location text on the first and last point of a
// run and is empty elsewhere.
type CoverageResult struct {
	Point    SampledPoint
	Label    string
	Networks map[Operator]NetworkResult
}

// Cache traffic counters for the lifetime of one analyzer instance.
type CacheStats struct {
	TilesFetched   int64
	TilesFromCache int64
}
