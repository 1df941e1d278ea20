package export

import (
	"errors"

	"github.com/golang/geo/s2"
	geojson "github.com/paulmach/go.geojson"

	"github.com/hyperjump/bunka/internal/models"
)

// ErrNoCoordinates is returned when no location of a result has usable coordinates.
var ErrNoCoordinates = errors.New("no locations with coordinates")

// LocationsGeoJSON returns the result's geographic locations as a
// FeatureCollection of points. Locations without valid coordinates are skipped.
func LocationsGeoJSON(res *models.AnalysisResult) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	if res == nil {
		return fc, ErrNoCoordinates
	}
	for _, loc := range res.GeographicLocations {
		c := loc.Coordinates
		if c == nil || !s2.LatLngFromDegrees(c.Lat, c.Lng).IsValid() {
			continue
		}
		f := geojson.NewPointFeature([]float64{c.Lng, c.Lat})
		f.SetProperty("name", loc.Name)
		if loc.ShowModernName() {
			f.SetProperty("modern_name", loc.ModernName)
		}
		if loc.Significance != "" {
			f.SetProperty("significance", loc.Significance)
		}
		f.SetProperty("analysis_id", res.ID.String())
		fc.AddFeature(f)
	}
	if len(fc.Features) == 0 {
		return fc, ErrNoCoordinates
	}
	return fc, nil
}
