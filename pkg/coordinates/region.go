package coordinates

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRegion is returned for out-of-range centers or non-positive radii.
// A region that fails validation must never be turned into a feed request.
var ErrInvalidRegion = errors.New("invalid region")

// Region is the query window sent to a live-traffic provider.
// Providers that accept a center point and radius use Center/RadiusKm
// directly; bounding-box providers use the Lat/Lon bounds.
type Region struct {
	Center   Geographic
	RadiusKm float64

	LatMin float64
	LonMin float64
	LatMax float64
	LonMax float64
}

// NewRegion builds the query window around center.
//
// The latitude half-span is radius/R converted to degrees. The longitude
// half-span scales with latitude: asin(radius / (R * cos(lat))), so a
// window near the poles is much wider in longitude than in latitude. When
// the ratio reaches 1 (the circle encloses a pole) the span saturates at 180°.
func NewRegion(center Geographic, radiusKm float64) (Region, error) {
	if err := center.Validate(); err != nil {
		return Region{}, err
	}
	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) || radiusKm <= 0 {
		return Region{}, fmt.Errorf("%w: radius %v km must be positive", ErrInvalidRegion, radiusKm)
	}

	dLat := (radiusKm / EarthRadiusKm) * RadiansToDegrees

	dLon := 180.0
	cosLat := math.Cos(center.Latitude * DegreesToRadians)
	if ratio := radiusKm / (EarthRadiusKm * cosLat); cosLat > 0 && ratio < 1 {
		dLon = math.Asin(ratio) * RadiansToDegrees
	}

	return Region{
		Center:   center,
		RadiusKm: radiusKm,
		LatMin:   math.Max(center.Latitude-dLat, -90),
		LatMax:   math.Min(center.Latitude+dLat, 90),
		LonMin:   math.Max(center.Longitude-dLon, -180),
		LonMax:   math.Min(center.Longitude+dLon, 180),
	}, nil
}

// Validate re-checks a region before it is embedded in a request URL.
// The zero Region is invalid.
func (r Region) Validate() error {
	if err := r.Center.Validate(); err != nil {
		return err
	}
	if math.IsNaN(r.RadiusKm) || r.RadiusKm <= 0 {
		return fmt.Errorf("%w: radius %v km must be positive", ErrInvalidRegion, r.RadiusKm)
	}
	return nil
}

// RadiusNM returns the radius in nautical miles.
func (r Region) RadiusNM() float64 {
	return r.RadiusKm / KmPerNauticalMile
}

// LatSpan returns the latitude half-span in degrees.
func (r Region) LatSpan() float64 {
	return (r.LatMax - r.LatMin) / 2
}

// LonSpan returns the longitude half-span in degrees.
func (r Region) LonSpan() float64 {
	return (r.LonMax - r.LonMin) / 2
}
