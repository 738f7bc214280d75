package models

import (
	"database/sql/driver"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Geometry wraps an orb.Geometry read from the database as GeoJSON.
// Parcel footprints are Polygon or MultiPolygon in SRID 4326 (WGS84,
// longitude/latitude order); the column itself is nullable, so a Geometry
// with a nil inner value represents a record without a spatial footprint.
type Geometry struct {
	orb.Geometry
}

// NewGeometry wraps an orb.Geometry.
func NewGeometry(g orb.Geometry) *Geometry {
	return &Geometry{Geometry: g}
}

// IsZero reports whether no geometry is present.
func (g *Geometry) IsZero() bool {
	return g == nil || g.Geometry == nil
}

// Scan implements sql.Scanner for reading geometry from the database.
// Queries select the column through ST_AsGeoJSON, so the driver hands us
// GeoJSON as []byte (or string, depending on the codec).
func (g *Geometry) Scan(value interface{}) error {
	if value == nil {
		g.Geometry = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("failed to scan Geometry: expected []byte or string, got %T", value)
	}

	geom, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return fmt.Errorf("failed to unmarshal geometry: %w", err)
	}

	g.Geometry = geom.Geometry()
	return nil
}

// Value implements driver.Valuer for writing geometry to the database.
// Returns a GeoJSON string for use with ST_GeomFromGeoJSON in raw SQL.
func (g Geometry) Value() (driver.Value, error) {
	if g.Geometry == nil {
		return nil, nil
	}

	data, err := geojson.NewGeometry(g.Geometry).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal geometry to GeoJSON: %w", err)
	}

	return string(data), nil
}

// MarshalJSON implements json.Marshaler, emitting GeoJSON.
func (g Geometry) MarshalJSON() ([]byte, error) {
	if g.Geometry == nil {
		return []byte("null"), nil
	}
	return geojson.NewGeometry(g.Geometry).MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler for parsing GeoJSON input.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		g.Geometry = nil
		return nil
	}

	geom, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return fmt.Errorf("failed to unmarshal geometry: %w", err)
	}

	g.Geometry = geom.Geometry()
	return nil
}
