// Package geodesy converts between WGS84 geographic coordinates and the
// British National Grid (OSGB36 transverse Mercator). The conversion runs a
// Helmert datum shift between the WGS84 and Airy 1830 ellipsoids and then
// the Ordnance Survey projection formulas, which keeps errors within a few
// meters nationwide. That is well inside one tile pixel at the zoom levels
// the coverage grid uses.
package geodesy

import (
	"math"

	"coverage-route-service/internal/domain"
)

type ellipsoid struct {
	a, b float64
}

func (e ellipsoid) eccSq() float64 { return (e.a*e.a - e.b*e.b) / (e.a * e.a) }

var (
	airy1830 = ellipsoid{a: 6377563.396, b: 6356256.909}
	wgs84    = ellipsoid{a: 6378137.000, b: 6356752.3141}
)

// National Grid projection constants.
const (
	scaleF0    = 0.9996012717
	originLat  = 49.0 * math.Pi / 180 // 49°N
	originLon  = -2.0 * math.Pi / 180 // 2°W
	falseEast  = 400000.0
	falseNorth = -100000.0
)

// Helmert parameters, WGS84 -> OSGB36. Translation in meters, scale in ppm,
// rotation in arcseconds.
var toOSGB36 = helmert{
	tx: -446.448, ty: 125.157, tz: -542.060,
	s:  20.4894,
	rx: -0.1502, ry: -0.2470, rz: -0.8421,
}

type helmert struct {
	tx, ty, tz float64
	s          float64
	rx, ry, rz float64
}

func (h helmert) inverse() helmert {
	return helmert{-h.tx, -h.ty, -h.tz, -h.s, -h.rx, -h.ry, -h.rz}
}

func (h helmert) apply(x, y, z float64) (float64, float64, float64) {
	s := 1 + h.s*1e-6
	const asec = math.Pi / (180 * 3600)
	rx, ry, rz := h.rx*asec, h.ry*asec, h.rz*asec

	x2 := h.tx + s*x - rz*y + ry*z
	y2 := h.ty + rz*x + s*y - rx*z
	z2 := h.tz - ry*x + rx*y + s*z
	return x2, y2, z2
}

// OSGB36 implements ports.Projector for the British National Grid.
type OSGB36 struct{}

func NewOSGB36() *OSGB36 { return &OSGB36{} }

// ToProjected converts a WGS84 coordinate to BNG easting/northing.
// NaN latitude or longitude yields NaN easting/northing.
func (*OSGB36) ToProjected(c domain.Coordinates) domain.Projected {
	lat := c.Lat * math.Pi / 180
	lon := c.Lon * math.Pi / 180

	x, y, z := geodeticToCartesian(lat, lon, wgs84)
	x, y, z = toOSGB36.apply(x, y, z)
	lat, lon = cartesianToGeodetic(x, y, z, airy1830)

	e, n := transverseMercatorForward(lat, lon)
	return domain.Projected{Easting: e, Northing: n}
}

// ToGeographic converts a BNG easting/northing back to WGS84.
func (*OSGB36) ToGeographic(p domain.Projected) domain.Coordinates {
	lat, lon := transverseMercatorInverse(p.Easting, p.Northing)

	x, y, z := geodeticToCartesian(lat, lon, airy1830)
	x, y, z = toOSGB36.inverse().apply(x, y, z)
	lat, lon = cartesianToGeodetic(x, y, z, wgs84)

	return domain.Coordinates{Lat: lat * 180 / math.Pi, Lon: lon * 180 / math.Pi}
}

func geodeticToCartesian(lat, lon float64, ell ellipsoid) (x, y, z float64) {
	e2 := ell.eccSq()
	sinLat := math.Sin(lat)
	nu := ell.a / math.Sqrt(1-e2*sinLat*sinLat)

	x = nu * math.Cos(lat) * math.Cos(lon)
	y = nu * math.Cos(lat) * math.Sin(lon)
	z = nu * (1 - e2) * sinLat
	return x, y, z
}

func cartesianToGeodetic(x, y, z float64, ell ellipsoid) (lat, lon float64) {
	e2 := ell.eccSq()
	p := math.Hypot(x, y)

	lat = math.Atan2(z, p*(1-e2))
	// Converges in a handful of iterations; a NaN input falls through
	// immediately because the tolerance comparison is false for NaN.
	for i := 0; i < 10; i++ {
		sinLat := math.Sin(lat)
		nu := ell.a / math.Sqrt(1-e2*sinLat*sinLat)
		next := math.Atan2(z+e2*nu*sinLat, p)
		if math.Abs(next-lat) < 1e-12 {
			lat = next
			break
		}
		lat = next
	}
	return lat, math.Atan2(y, x)
}

// meridionalArc evaluates the OS series for the arc length M between the
// projection origin latitude and lat, on the Airy ellipsoid.
func meridionalArc(lat float64) float64 {
	a, b := airy1830.a, airy1830.b
	n := (a - b) / (a + b)
	n2, n3 := n*n, n*n*n

	dLat := lat - originLat
	sLat := lat + originLat

	m := (1 + n + 1.25*n2 + 1.25*n3) * dLat
	m -= (3*n + 3*n2 + (21.0/8.0)*n3) * math.Sin(dLat) * math.Cos(sLat)
	m += (1.875*n2 + 1.875*n3) * math.Sin(2*dLat) * math.Cos(2*sLat)
	m -= (35.0 / 24.0) * n3 * math.Sin(3*dLat) * math.Cos(3*sLat)

	return b * scaleF0 * m
}

func transverseMercatorForward(lat, lon float64) (easting, northing float64) {
	a := airy1830.a
	e2 := airy1830.eccSq()

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	tanLat := math.Tan(lat)
	tan2, tan4 := tanLat*tanLat, tanLat*tanLat*tanLat*tanLat

	nu := a * scaleF0 / math.Sqrt(1-e2*sinLat*sinLat)
	rho := a * scaleF0 * (1 - e2) / math.Pow(1-e2*sinLat*sinLat, 1.5)
	eta2 := nu/rho - 1

	m := meridionalArc(lat)

	i := m + falseNorth
	ii := nu / 2 * sinLat * cosLat
	iii := nu / 24 * sinLat * math.Pow(cosLat, 3) * (5 - tan2 + 9*eta2)
	iiiA := nu / 720 * sinLat * math.Pow(cosLat, 5) * (61 - 58*tan2 + tan4)
	iv := nu * cosLat
	v := nu / 6 * math.Pow(cosLat, 3) * (nu/rho - tan2)
	vi := nu / 120 * math.Pow(cosLat, 5) * (5 - 18*tan2 + tan4 + 14*eta2 - 58*tan2*eta2)

	dLon := lon - originLon
	dLon2 := dLon * dLon

	northing = i + ii*dLon2 + iii*dLon2*dLon2 + iiiA*dLon2*dLon2*dLon2
	easting = falseEast + iv*dLon + v*dLon*dLon2 + vi*dLon*dLon2*dLon2
	return easting, northing
}

func transverseMercatorInverse(easting, northing float64) (lat, lon float64) {
	a := airy1830.a
	e2 := airy1830.eccSq()

	lat = originLat + (northing-falseNorth)/(a*scaleF0)
	m := meridionalArc(lat)
	for i := 0; i < 10; i++ {
		diff := northing - falseNorth - m
		if math.Abs(diff) < 1e-5 { // 0.01 mm
			break
		}
		lat += diff / (a * scaleF0)
		m = meridionalArc(lat)
	}

	sinLat := math.Sin(lat)
	tanLat := math.Tan(lat)
	secLat := 1 / math.Cos(lat)
	tan2, tan4, tan6 := tanLat*tanLat, math.Pow(tanLat, 4), math.Pow(tanLat, 6)

	nu := a * scaleF0 / math.Sqrt(1-e2*sinLat*sinLat)
	rho := a * scaleF0 * (1 - e2) / math.Pow(1-e2*sinLat*sinLat, 1.5)
	eta2 := nu/rho - 1

	vii := tanLat / (2 * rho * nu)
	viii := tanLat / (24 * rho * math.Pow(nu, 3)) * (5 + 3*tan2 + eta2 - 9*tan2*eta2)
	ix := tanLat / (720 * rho * math.Pow(nu, 5)) * (61 + 90*tan2 + 45*tan4)
	x := secLat / nu
	xi := secLat / (6 * math.Pow(nu, 3)) * (nu/rho + 2*tan2)
	xii := secLat / (120 * math.Pow(nu, 5)) * (5 + 28*tan2 + 24*tan4)
	xiiA := secLat / (5040 * math.Pow(nu, 7)) * (61 + 662*tan2 + 1320*tan4 + 720*tan6)

	dE := easting - falseEast
	dE2 := dE * dE

	lat = lat - vii*dE2 + viii*dE2*dE2 - ix*dE2*dE2*dE2
	lon = originLon + x*dE - xi*dE*dE2 + xii*dE*dE2*dE2 - xiiA*dE*dE2*dE2*dE2
	return lat, lon
}
