package cli

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"

	"github.com/hyperjump/bunka/internal/models"
)

const earthRadiusKm = 6371.0088

// GeoSpan summarizes how far apart the located places of a result are.
type GeoSpan struct {
	Points int
	// Center is the normalized mean of the places on the sphere.
	Center models.LatLng
	// MaxKm is the greatest great-circle distance between two places.
	MaxKm float64
}

// SpanOf computes the span of the locations that carry valid coordinates.
// ok is false when there are none.
func SpanOf(locations []models.GeoLocation) (span GeoSpan, ok bool) {
	var points []s2.Point
	for _, loc := range locations {
		if loc.Coordinates == nil {
			continue
		}
		ll := s2.LatLngFromDegrees(loc.Coordinates.Lat, loc.Coordinates.Lng)
		if !ll.IsValid() {
			continue
		}
		points = append(points, s2.PointFromLatLng(ll))
	}
	if len(points) == 0 {
		return GeoSpan{}, false
	}

	var sum r3.Vector
	for i, p := range points {
		sum = sum.Add(p.Vector)
		for _, q := range points[i+1:] {
			if km := p.Distance(q).Radians() * earthRadiusKm; km > span.MaxKm {
				span.MaxKm = km
			}
		}
	}
	center := points[0]
	if sum.Norm() > 1e-9 {
		center = s2.Point{Vector: sum.Normalize()}
	}
	ll := s2.LatLngFromPoint(center)
	span.Points = len(points)
	span.Center = models.LatLng{Lat: ll.Lat.Degrees(), Lng: ll.Lng.Degrees()}
	return span, true
}

// MapsURL is a Google Maps search link for c.
func MapsURL(c models.LatLng) string {
	return fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%v,%v", c.Lat, c.Lng)
}

// FormatCoordinates renders c with four decimals.
func FormatCoordinates(c models.LatLng) string {
	return fmt.Sprintf("%.4f, %.4f", c.Lat, c.Lng)
}
