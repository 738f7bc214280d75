package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meuat/geo-api/internal/database"
	"github.com/meuat/geo-api/internal/models"
	"github.com/meuat/geo-api/internal/pagination"
)

// FazendaRepository defines the interface for fazenda data access operations.
// All list operations return the page of records plus the total match count
// across all pages. Not finding anything is never an error at this level:
// single lookups return nil, list lookups return an empty slice with total 0.
// Errors are reserved for actual database failures.
type FazendaRepository interface {
	// FindByID finds the fazenda with the given identifier.
	// Returns nil, nil if no row matches.
	FindByID(ctx context.Context, id int64) (*models.Fazenda, error)

	// FindByCodImovel finds all fazendas sharing the given property code.
	// cod_imovel is not unique: multi-polygon holdings are split into
	// separate rows carrying the same code.
	FindByCodImovel(ctx context.Context, codImovel string, p pagination.Params) ([]models.Fazenda, int, error)

	// FindByPoint finds all fazendas whose geometry contains the given
	// lat/lng point.
	FindByPoint(ctx context.Context, lat, lng float64, p pagination.Params) ([]models.Fazenda, int, error)

	// FindWithinRadius finds all fazendas within radiusMeters of the given
	// lat/lng point, measured along the spheroid.
	FindWithinRadius(ctx context.Context, lat, lng, radiusMeters float64, p pagination.Params) ([]models.Fazenda, int, error)
}

// fazendaColumns is the select list shared by every fazenda query. The
// geometry column goes through ST_AsGeoJSON so it can be scanned by
// models.Geometry.
const fazendaColumns = `
	id,
	cod_tema,
	nom_tema,
	cod_imovel,
	mod_fiscal,
	num_area,
	ind_status,
	ind_tipo,
	des_condic,
	municipio,
	cod_estado,
	dat_criaca,
	dat_atuali,
	ST_AsGeoJSON(geom) AS geometry`

// Spatial predicates. PostGIS point constructors take (longitude, latitude)
// order, so every spatial query binds $1=lng, $2=lat.
const (
	// containsPredicate is the point-in-polygon test. ST_Contains is
	// index-accelerated by the GIST index on geom.
	containsPredicate = `ST_Contains(geom, ST_SetSRID(ST_MakePoint($1, $2), 4326))`

	// radiusPredicate is the two-stage distance filter ($3 = radius in meters):
	// the && bounding-box overlap against the envelope of the buffered point
	// runs first on the GIST index and discards most non-candidates cheaply;
	// ST_DWithin over geography then removes the bbox false positives with a
	// spheroidal distance computation.
	radiusPredicate = `geom && ST_Envelope(ST_Buffer(ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)::geometry)
		AND ST_DWithin(geom::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)`
)

// fazendaRepository is the concrete implementation of FazendaRepository.
type fazendaRepository struct {
	db *database.Database
}

// NewFazendaRepository creates a new instance of FazendaRepository.
func NewFazendaRepository(db *database.Database) FazendaRepository {
	return &fazendaRepository{
		db: db,
	}
}

// FindByID looks up a single fazenda by its primary key.
func (r *fazendaRepository) FindByID(ctx context.Context, id int64) (*models.Fazenda, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, fazendaColumns, models.TableName)

	fazenda, err := queryOne(ctx, r.db, query, scanFazendaRow, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query fazenda %d: %w", id, err)
	}

	return fazenda, nil
}

// FindByCodImovel returns the page of fazendas with the given property code
// plus the total match count.
func (r *fazendaRepository) FindByCodImovel(ctx context.Context, codImovel string, p pagination.Params) ([]models.Fazenda, int, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE cod_imovel = $1 OFFSET $2 LIMIT $3`,
		fazendaColumns, models.TableName,
	)

	fazendas, err := r.queryPage(ctx, query, codImovel, p.Offset(), p.Limit())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query fazendas with cod_imovel %q: %w", codImovel, err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE cod_imovel = $1`, models.TableName)
	total, err := r.pagedTotal(ctx, p, len(fazendas), countQuery, codImovel)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count fazendas with cod_imovel %q: %w", codImovel, err)
	}

	return fazendas, total, nil
}

// FindByPoint returns the page of fazendas whose geometry contains the point
// plus the total match count.
func (r *fazendaRepository) FindByPoint(ctx context.Context, lat, lng float64, p pagination.Params) ([]models.Fazenda, int, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE %s OFFSET $3 LIMIT $4`,
		fazendaColumns, models.TableName, containsPredicate,
	)

	fazendas, err := r.queryPage(ctx, query, lng, lat, p.Offset(), p.Limit())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query fazendas at point (lat=%f, lng=%f): %w", lat, lng, err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, models.TableName, containsPredicate)
	total, err := r.pagedTotal(ctx, p, len(fazendas), countQuery, lng, lat)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count fazendas at point (lat=%f, lng=%f): %w", lat, lng, err)
	}

	return fazendas, total, nil
}

// FindWithinRadius returns the page of fazendas within radiusMeters of the
// point plus the total match count over the twice-filtered set.
func (r *fazendaRepository) FindWithinRadius(ctx context.Context, lat, lng, radiusMeters float64, p pagination.Params) ([]models.Fazenda, int, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE %s OFFSET $4 LIMIT $5`,
		fazendaColumns, models.TableName, radiusPredicate,
	)

	fazendas, err := r.queryPage(ctx, query, lng, lat, radiusMeters, p.Offset(), p.Limit())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query fazendas within %.0fm of (lat=%f, lng=%f): %w",
			radiusMeters, lat, lng, err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, models.TableName, radiusPredicate)
	total, err := r.pagedTotal(ctx, p, len(fazendas), countQuery, lng, lat, radiusMeters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count fazendas within %.0fm of (lat=%f, lng=%f): %w",
			radiusMeters, lat, lng, err)
	}

	return fazendas, total, nil
}

// queryPage runs a paginated select and collects the rows.
func (r *fazendaRepository) queryPage(ctx context.Context, query string, args ...any) ([]models.Fazenda, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fazendas := []models.Fazenda{}
	for rows.Next() {
		fazenda, err := scanFazendaRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fazenda row: %w", err)
		}
		fazendas = append(fazendas, *fazenda)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fazenda rows: %w", err)
	}

	return fazendas, nil
}

// pagedTotal computes the total match count for a paginated query. A COUNT is
// a second evaluation of the full predicate, so it is skipped when the answer
// is already known exactly: an undersized first page means the page holds
// every match there is.
func (r *fazendaRepository) pagedTotal(ctx context.Context, p pagination.Params, fetched int, countQuery string, args ...any) (int, error) {
	if p.Page == 1 && fetched < p.PageSize {
		return fetched, nil
	}

	var total int
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return 0, err
	}

	return total, nil
}

// scanFazendaRow scans one row produced with the fazendaColumns select list.
func scanFazendaRow(row pgx.Row) (*models.Fazenda, error) {
	var fazenda models.Fazenda
	var geomJSON []byte

	err := row.Scan(
		&fazenda.ID,
		&fazenda.CodTema,
		&fazenda.NomTema,
		&fazenda.CodImovel,
		&fazenda.ModFiscal,
		&fazenda.NumArea,
		&fazenda.IndStatus,
		&fazenda.IndTipo,
		&fazenda.DesCondic,
		&fazenda.Municipio,
		&fazenda.CodEstado,
		&fazenda.DatCriaca,
		&fazenda.DatAtuali,
		&geomJSON,
	)
	if err != nil {
		return nil, err
	}

	// A NULL geometry column scans as a nil byte slice.
	if geomJSON != nil {
		geom := &models.Geometry{}
		if err := geom.Scan(geomJSON); err != nil {
			return nil, fmt.Errorf("failed to parse geometry for fazenda %d: %w", fazenda.ID, err)
		}
		fazenda.Geom = geom
	}

	return &fazenda, nil
}
