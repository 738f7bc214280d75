package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/meuat/geo-api/internal/config"
	"github.com/meuat/geo-api/internal/logger"
	"github.com/meuat/geo-api/internal/models"
	"github.com/meuat/geo-api/internal/pagination"
	"github.com/meuat/geo-api/internal/repository"
)

// Coordinate validation constants
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// metersPerKilometer converts the caller-facing radius unit to the meters
// PostGIS distance predicates operate in.
const metersPerKilometer = 1000.0

// Service-level errors
var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidRadius      = errors.New("invalid radius")
	ErrFazendaNotFound    = errors.New("fazenda not found")
)

// FazendaService defines the interface for fazenda business logic operations.
type FazendaService interface {
	// GetFazendaByID retrieves the fazenda with the given identifier.
	// Returns ErrFazendaNotFound if no fazenda exists with that id.
	GetFazendaByID(ctx context.Context, id int64) (*models.Fazenda, error)

	// GetFazendasByCodImovel retrieves all fazendas sharing the given
	// property code, paginated. When the service is configured with
	// NotFoundOnEmptyCode, an empty result is reported as ErrFazendaNotFound;
	// otherwise an empty page is a valid success.
	GetFazendasByCodImovel(ctx context.Context, codImovel string, page, pageSize int) (pagination.Page[models.Fazenda], error)

	// GetFazendasByPoint retrieves all fazendas whose geometry contains the
	// given lat/lng point, paginated. An empty page is a valid success.
	// Returns ErrInvalidCoordinates if coordinates are out of range.
	GetFazendasByPoint(ctx context.Context, lat, lng float64, page, pageSize int) (pagination.Page[models.Fazenda], error)

	// GetFazendasByRadius retrieves all fazendas within raioKm kilometers of
	// the given lat/lng point, paginated. An empty page is a valid success.
	// Returns ErrInvalidCoordinates if coordinates are out of range and
	// ErrInvalidRadius if the radius is not in (0, max].
	GetFazendasByRadius(ctx context.Context, lat, lng, raioKm float64, page, pageSize int) (pagination.Page[models.Fazenda], error)
}

// fazendaService is the concrete implementation of FazendaService.
type fazendaService struct {
	repo                repository.FazendaRepository
	log                 *logger.Logger
	maxRadiusKm         float64
	queryTimeout        time.Duration
	notFoundOnEmptyCode bool
}

// NewFazendaService creates a new instance of FazendaService.
func NewFazendaService(repo repository.FazendaRepository, log *logger.Logger, cfg config.APIConfig) FazendaService {
	return &fazendaService{
		repo:                repo,
		log:                 log,
		maxRadiusKm:         cfg.MaxRadiusKm,
		queryTimeout:        time.Duration(cfg.QueryTimeoutSeconds) * time.Second,
		notFoundOnEmptyCode: cfg.NotFoundOnEmptyCode,
	}
}

// GetFazendaByID retrieves a fazenda by identifier and transforms the
// repository's nil result into a business-level not-found error.
func (s *fazendaService) GetFazendaByID(ctx context.Context, id int64) (*models.Fazenda, error) {
	ctx, cancel := s.boundQuery(ctx)
	defer cancel()

	s.log.Debug("Querying fazenda by id", map[string]interface{}{
		"id": id,
	})

	fazenda, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to query fazenda by id", err, map[string]interface{}{
			"id": id,
		})
		return nil, fmt.Errorf("failed to query fazenda: %w", err)
	}

	if fazenda == nil {
		s.log.Debug("No fazenda found for id", map[string]interface{}{
			"id": id,
		})
		return nil, ErrFazendaNotFound
	}

	return fazenda, nil
}

// GetFazendasByCodImovel retrieves all fazendas sharing a property code.
// The code is not unique, so the result is a page rather than a single record.
func (s *fazendaService) GetFazendasByCodImovel(ctx context.Context, codImovel string, page, pageSize int) (pagination.Page[models.Fazenda], error) {
	params := pagination.Normalize(page, pageSize)

	ctx, cancel := s.boundQuery(ctx)
	defer cancel()

	s.log.Info("Querying fazendas by cod_imovel", map[string]interface{}{
		"cod_imovel": codImovel,
		"page":       params.Page,
		"page_size":  params.PageSize,
	})

	fazendas, total, err := s.repo.FindByCodImovel(ctx, codImovel, params)
	if err != nil {
		s.log.Error("Failed to query fazendas by cod_imovel", err, map[string]interface{}{
			"cod_imovel": codImovel,
		})
		return pagination.Page[models.Fazenda]{}, fmt.Errorf("failed to query fazendas: %w", err)
	}

	if total == 0 && s.notFoundOnEmptyCode {
		s.log.Debug("No fazendas found for cod_imovel", map[string]interface{}{
			"cod_imovel": codImovel,
		})
		return pagination.Page[models.Fazenda]{}, ErrFazendaNotFound
	}

	return pagination.NewPage(fazendas, total, params), nil
}

// GetFazendasByPoint retrieves all fazendas containing a point. Coordinates
// are re-validated here so the service is safe for callers other than the
// HTTP boundary.
func (s *fazendaService) GetFazendasByPoint(ctx context.Context, lat, lng float64, page, pageSize int) (pagination.Page[models.Fazenda], error) {
	if err := s.validateCoordinates(lat, lng); err != nil {
		return pagination.Page[models.Fazenda]{}, err
	}

	params := pagination.Normalize(page, pageSize)

	ctx, cancel := s.boundQuery(ctx)
	defer cancel()

	s.log.Info("Querying fazendas at point", map[string]interface{}{
		"lat":       lat,
		"lng":       lng,
		"page":      params.Page,
		"page_size": params.PageSize,
	})

	fazendas, total, err := s.repo.FindByPoint(ctx, lat, lng, params)
	if err != nil {
		s.log.Error("Failed to query fazendas at point", err, map[string]interface{}{
			"lat": lat,
			"lng": lng,
		})
		return pagination.Page[models.Fazenda]{}, fmt.Errorf("failed to query fazendas: %w", err)
	}

	s.log.Info("Fazendas found at point", map[string]interface{}{
		"lat":   lat,
		"lng":   lng,
		"count": len(fazendas),
		"total": total,
	})

	return pagination.NewPage(fazendas, total, params), nil
}

// GetFazendasByRadius retrieves all fazendas within a radius of a point.
// The radius arrives in kilometers and is validated before any storage call.
func (s *fazendaService) GetFazendasByRadius(ctx context.Context, lat, lng, raioKm float64, page, pageSize int) (pagination.Page[models.Fazenda], error) {
	if err := s.validateCoordinates(lat, lng); err != nil {
		return pagination.Page[models.Fazenda]{}, err
	}

	if raioKm <= 0 {
		s.log.Warn("Invalid radius provided", map[string]interface{}{
			"raio_km": raioKm,
		})
		return pagination.Page[models.Fazenda]{}, fmt.Errorf("%w: must be greater than zero, got %g", ErrInvalidRadius, raioKm)
	}
	if raioKm > s.maxRadiusKm {
		s.log.Warn("Invalid radius provided", map[string]interface{}{
			"raio_km": raioKm,
			"max_km":  s.maxRadiusKm,
		})
		return pagination.Page[models.Fazenda]{}, fmt.Errorf("%w: must be at most %g km, got %g", ErrInvalidRadius, s.maxRadiusKm, raioKm)
	}

	radiusMeters := raioKm * metersPerKilometer
	params := pagination.Normalize(page, pageSize)

	ctx, cancel := s.boundQuery(ctx)
	defer cancel()

	s.log.Info("Querying fazendas within radius", map[string]interface{}{
		"lat":       lat,
		"lng":       lng,
		"raio_km":   raioKm,
		"page":      params.Page,
		"page_size": params.PageSize,
	})

	fazendas, total, err := s.repo.FindWithinRadius(ctx, lat, lng, radiusMeters, params)
	if err != nil {
		s.log.Error("Failed to query fazendas within radius", err, map[string]interface{}{
			"lat":     lat,
			"lng":     lng,
			"raio_km": raioKm,
		})
		return pagination.Page[models.Fazenda]{}, fmt.Errorf("failed to query fazendas: %w", err)
	}

	s.log.Info("Fazendas found within radius", map[string]interface{}{
		"lat":     lat,
		"lng":     lng,
		"raio_km": raioKm,
		"count":   len(fazendas),
		"total":   total,
	})

	return pagination.NewPage(fazendas, total, params), nil
}

// validateCoordinates checks latitude and longitude ranges.
func (s *fazendaService) validateCoordinates(lat, lng float64) error {
	if lat < MinLatitude || lat > MaxLatitude {
		s.log.Warn("Invalid latitude provided", map[string]interface{}{
			"lat": lat,
			"lng": lng,
		})
		return fmt.Errorf("%w: latitude must be between %g and %g, got %g",
			ErrInvalidCoordinates, MinLatitude, MaxLatitude, lat)
	}

	if lng < MinLongitude || lng > MaxLongitude {
		s.log.Warn("Invalid longitude provided", map[string]interface{}{
			"lat": lat,
			"lng": lng,
		})
		return fmt.Errorf("%w: longitude must be between %g and %g, got %g",
			ErrInvalidCoordinates, MinLongitude, MaxLongitude, lng)
	}

	return nil
}

// boundQuery derives a context that limits how long a request may hold its
// storage session.
func (s *fazendaService) boundQuery(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}
