package models

import (
	"database/sql/driver"
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
)

// TestGeometryImplementsInterfaces verifies Geometry implements required interfaces
func TestGeometryImplementsInterfaces(t *testing.T) {
	var _ driver.Valuer = Geometry{}
	var _ driver.Valuer = (*Geometry)(nil)

	// sql.Scanner requires a pointer receiver
	var g Geometry
	var scanner interface{} = &g
	if _, ok := scanner.(interface{ Scan(interface{}) error }); !ok {
		t.Error("Geometry does not implement sql.Scanner interface")
	}
}

func TestGeometryScan_Polygon(t *testing.T) {
	raw := []byte(`{"type":"Polygon","coordinates":[[[-51.074,-21.708],[-51.072,-21.708],[-51.071,-21.709],[-51.074,-21.708]]]}`)

	var g Geometry
	if err := g.Scan(raw); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	polygon, ok := g.Geometry.(orb.Polygon)
	if !ok {
		t.Fatalf("Expected orb.Polygon, got %T", g.Geometry)
	}
	if len(polygon) != 1 {
		t.Errorf("Expected 1 ring, got %d", len(polygon))
	}
	if len(polygon[0]) != 4 {
		t.Errorf("Expected 4 points in outer ring, got %d", len(polygon[0]))
	}
}

func TestGeometryScan_MultiPolygon(t *testing.T) {
	raw := []byte(`{"type":"MultiPolygon","coordinates":[[[[-46.64,-23.55],[-46.63,-23.55],[-46.63,-23.56],[-46.64,-23.55]]]]}`)

	var g Geometry
	if err := g.Scan(raw); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if _, ok := g.Geometry.(orb.MultiPolygon); !ok {
		t.Fatalf("Expected orb.MultiPolygon, got %T", g.Geometry)
	}
}

func TestGeometryScan_String(t *testing.T) {
	// Some codecs hand GeoJSON over as string rather than []byte
	var g Geometry
	if err := g.Scan(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`); err != nil {
		t.Fatalf("Scan of string failed: %v", err)
	}
	if g.Geometry == nil {
		t.Error("Expected non-nil geometry after string scan")
	}
}

func TestGeometryScan_Nil(t *testing.T) {
	g := Geometry{Geometry: orb.Point{1, 2}}
	if err := g.Scan(nil); err != nil {
		t.Fatalf("Scan of nil failed: %v", err)
	}
	if g.Geometry != nil {
		t.Error("Expected geometry cleared after nil scan")
	}
}

func TestGeometryScan_InvalidType(t *testing.T) {
	var g Geometry
	if err := g.Scan(42); err == nil {
		t.Error("Expected error scanning unsupported type")
	}
}

func TestGeometryScan_InvalidJSON(t *testing.T) {
	var g Geometry
	if err := g.Scan([]byte(`{"type":"Polygon"`)); err == nil {
		t.Error("Expected error scanning malformed GeoJSON")
	}
}

func TestGeometryValue(t *testing.T) {
	g := Geometry{Geometry: orb.Polygon{{{-51.074, -21.708}, {-51.072, -21.708}, {-51.071, -21.709}, {-51.074, -21.708}}}}

	val, err := g.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	s, ok := val.(string)
	if !ok {
		t.Fatalf("Expected string value, got %T", val)
	}

	// Value output must round-trip through Scan
	var parsed Geometry
	if err := parsed.Scan([]byte(s)); err != nil {
		t.Fatalf("Round-trip scan failed: %v", err)
	}
	if !orb.Equal(parsed.Geometry, g.Geometry) {
		t.Error("Round-tripped geometry differs from original")
	}
}

func TestGeometryValue_Empty(t *testing.T) {
	var g Geometry
	val, err := g.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if val != nil {
		t.Errorf("Expected nil value for empty geometry, got %v", val)
	}
}

func TestGeometryMarshalJSON(t *testing.T) {
	g := Geometry{Geometry: orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}}

	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}

	var decoded struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to decode marshaled geometry: %v", err)
	}
	if decoded.Type != "Polygon" {
		t.Errorf("Expected type Polygon, got %s", decoded.Type)
	}
}

func TestGeometryMarshalJSON_Nil(t *testing.T) {
	var g Geometry
	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	if string(data) != "null" {
		t.Errorf("Expected null for empty geometry, got %s", data)
	}
}

func TestGeometryUnmarshalJSON(t *testing.T) {
	var g Geometry
	if err := json.Unmarshal([]byte(`{"type":"Point","coordinates":[-46.6333,-23.5505]}`), &g); err != nil {
		t.Fatalf("UnmarshalJSON failed: %v", err)
	}

	point, ok := g.Geometry.(orb.Point)
	if !ok {
		t.Fatalf("Expected orb.Point, got %T", g.Geometry)
	}
	if point.Lon() != -46.6333 || point.Lat() != -23.5505 {
		t.Errorf("Unexpected point coordinates: %v", point)
	}

	if err := json.Unmarshal([]byte(`null`), &g); err != nil {
		t.Fatalf("UnmarshalJSON of null failed: %v", err)
	}
	if g.Geometry != nil {
		t.Error("Expected nil geometry after unmarshaling null")
	}
}

func TestGeometryIsZero(t *testing.T) {
	var nilGeom *Geometry
	if !nilGeom.IsZero() {
		t.Error("Expected nil *Geometry to be zero")
	}

	empty := &Geometry{}
	if !empty.IsZero() {
		t.Error("Expected empty Geometry to be zero")
	}

	full := NewGeometry(orb.Point{1, 2})
	if full.IsZero() {
		t.Error("Expected populated Geometry to be non-zero")
	}
}
