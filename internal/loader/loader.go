// Package loader ingests a GeoJSON extract of fazenda records into the
// PostGIS table served by the API. It is a one-time utility: the serving path
// never writes.
package loader

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb/geojson"

	"github.com/meuat/geo-api/internal/database"
	"github.com/meuat/geo-api/internal/logger"
	"github.com/meuat/geo-api/internal/models"
)

// DefaultBatchSize is the number of inserts queued per round trip.
const DefaultBatchSize = 1000

// schemaDDL creates the fazendas table with a single canonical spatial
// column: geom geometry(Geometry, 4326), GIST-indexed. Distance predicates
// cast to geography at query time instead of maintaining a second column.
var schemaDDL = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis`,
	`CREATE TABLE IF NOT EXISTS fazendas (
		id         BIGSERIAL PRIMARY KEY,
		geom       geometry(Geometry, 4326),
		cod_tema   TEXT,
		nom_tema   TEXT,
		cod_imovel TEXT,
		mod_fiscal DOUBLE PRECISION,
		num_area   DOUBLE PRECISION,
		ind_status TEXT,
		ind_tipo   TEXT,
		des_condic TEXT,
		municipio  TEXT,
		cod_estado TEXT,
		dat_criaca TEXT,
		dat_atuali TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_fazendas_geom ON fazendas USING GIST (geom)`,
	`CREATE INDEX IF NOT EXISTS idx_fazendas_cod_imovel ON fazendas (cod_imovel)`,
}

const insertSQL = `
	INSERT INTO fazendas (
		geom, cod_tema, nom_tema, cod_imovel, mod_fiscal, num_area,
		ind_status, ind_tipo, des_condic, municipio, cod_estado,
		dat_criaca, dat_atuali
	) VALUES (
		ST_SetSRID(ST_GeomFromGeoJSON($1), 4326),
		$2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
	)`

// Loader bulk-inserts fazenda features into PostGIS.
type Loader struct {
	db        *database.Database
	log       *logger.Logger
	batchSize int
}

// New creates a Loader. A batchSize of 0 or less falls back to the default.
func New(db *database.Database, log *logger.Logger, batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{
		db:        db,
		log:       log,
		batchSize: batchSize,
	}
}

// EnsureSchema creates the PostGIS extension, the fazendas table, and its
// indexes if they do not exist yet.
func (l *Loader) EnsureSchema(ctx context.Context) error {
	for _, ddl := range schemaDDL {
		if _, err := l.db.Pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	l.log.Info("Schema ensured", map[string]interface{}{
		"table": models.TableName,
	})
	return nil
}

// LoadFile reads a GeoJSON FeatureCollection from disk and inserts every
// feature. Returns the number of records inserted.
func (l *Loader) LoadFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return 0, fmt.Errorf("failed to parse feature collection: %w", err)
	}

	l.log.Info("Loading features", map[string]interface{}{
		"file":       path,
		"features":   len(fc.Features),
		"batch_size": l.batchSize,
	})

	start := time.Now()
	inserted := 0
	batch := &pgx.Batch{}

	for _, feature := range fc.Features {
		args, err := featureArgs(feature)
		if err != nil {
			return inserted, err
		}
		batch.Queue(insertSQL, args...)

		if batch.Len() >= l.batchSize {
			if err := l.flush(ctx, batch); err != nil {
				return inserted, err
			}
			inserted += batch.Len()
			l.log.Debug("Batch inserted", map[string]interface{}{
				"inserted": inserted,
			})
			batch = &pgx.Batch{}
		}
	}

	if batch.Len() > 0 {
		if err := l.flush(ctx, batch); err != nil {
			return inserted, err
		}
		inserted += batch.Len()
	}

	l.log.Info("Load complete", map[string]interface{}{
		"inserted":    inserted,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return inserted, nil
}

// flush sends a queued batch and drains its results.
func (l *Loader) flush(ctx context.Context, batch *pgx.Batch) error {
	results := l.db.Pool.SendBatch(ctx, batch)

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("batch insert failed at statement %d: %w", i, err)
		}
	}

	return results.Close()
}

// featureArgs converts one GeoJSON feature into the insert argument list.
func featureArgs(feature *geojson.Feature) ([]any, error) {
	var geomJSON any
	if feature.Geometry != nil {
		data, err := geojson.NewGeometry(feature.Geometry).MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal feature geometry: %w", err)
		}
		geomJSON = string(data)
	}

	props := feature.Properties
	return []any{
		geomJSON,
		propString(props, "cod_tema"),
		propString(props, "nom_tema"),
		propString(props, "cod_imovel"),
		propFloat(props, "mod_fiscal"),
		propFloat(props, "num_area"),
		propString(props, "ind_status"),
		propString(props, "ind_tipo"),
		propString(props, "des_condic"),
		propString(props, "municipio"),
		propString(props, "cod_estado"),
		NormalizeDate(propString(props, "dat_criaca")),
		NormalizeDate(propString(props, "dat_atuali")),
	}, nil
}

// propString extracts a nullable string property.
func propString(props geojson.Properties, key string) *string {
	value, ok := props[key]
	if !ok || value == nil {
		return nil
	}

	s := fmt.Sprintf("%v", value)
	if s == "" {
		return nil
	}
	return &s
}

// propFloat extracts a nullable numeric property. GeoJSON numbers decode as
// float64; anything else is treated as absent.
func propFloat(props geojson.Properties, key string) *float64 {
	value, ok := props[key]
	if !ok || value == nil {
		return nil
	}

	f, ok := value.(float64)
	if !ok {
		return nil
	}
	return &f
}

// NormalizeDate converts source dates (DD/MM/YYYY in the CAR extract) to
// YYYY-MM-DD. Already-normalized values pass through; anything unparseable
// becomes NULL rather than failing the load.
func NormalizeDate(raw *string) *string {
	if raw == nil {
		return nil
	}

	for _, layout := range []string{"02/01/2006", "2006-01-02"} {
		if t, err := time.Parse(layout, *raw); err == nil {
			s := t.Format("2006-01-02")
			return &s
		}
	}

	return nil
}
