package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/meuat/geo-api/internal/errors"
	"github.com/meuat/geo-api/internal/models"
	"github.com/meuat/geo-api/internal/services"
)

// FazendaHandler handles fazenda-related HTTP requests.
type FazendaHandler struct {
	service services.FazendaService
}

// NewFazendaHandler creates a new FazendaHandler instance.
func NewFazendaHandler(service services.FazendaService) *FazendaHandler {
	return &FazendaHandler{
		service: service,
	}
}

// PageQuery represents the pagination query parameters for list endpoints.
type PageQuery struct {
	Page     int `form:"page" binding:"omitempty,gt=0"`
	PageSize int `form:"page_size" binding:"omitempty,gt=0,lte=100"`
}

// PointSearchRequest represents the body of the point-containment search.
// Coordinate fields are pointers so that 0 (a valid coordinate) survives the
// required check.
type PointSearchRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
	Page      int      `json:"page" binding:"omitempty,gt=0"`
	PageSize  int      `json:"page_size" binding:"omitempty,gt=0,lte=100"`
}

// RadiusSearchRequest represents the body of the radius-proximity search.
// The radius upper bound is enforced by the service from configuration.
type RadiusSearchRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
	RaioKm    *float64 `json:"raio_km" binding:"required,gt=0"`
	Page      int      `json:"page" binding:"omitempty,gt=0"`
	PageSize  int      `json:"page_size" binding:"omitempty,gt=0,lte=100"`
}

// FeatureResponse represents a fazenda in GeoJSON Feature form.
type FeatureResponse struct {
	Type       string           `json:"type"`
	Geometry   *models.Geometry `json:"geometry"`
	Properties *models.Fazenda  `json:"properties"`
}

// ByID handles GET /fazendas/:id.
// It retrieves a single fazenda by its identifier.
func (h *FazendaHandler) ByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	fazenda, err := h.service.GetFazendaByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrFazendaNotFound) {
			apierrors.NotFound(c, fmt.Sprintf("Fazenda with ID %d not found", id))
			return
		}
		apierrors.InternalServerError(c, "Failed to query fazenda", err)
		return
	}

	c.JSON(http.StatusOK, fazenda)
}

// Feature handles GET /fazendas/:id/feature.
// It retrieves a single fazenda as a GeoJSON Feature, geometry included.
func (h *FazendaHandler) Feature(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	fazenda, err := h.service.GetFazendaByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrFazendaNotFound) {
			apierrors.NotFound(c, fmt.Sprintf("Fazenda with ID %d not found", id))
			return
		}
		apierrors.InternalServerError(c, "Failed to query fazenda", err)
		return
	}

	c.JSON(http.StatusOK, FeatureResponse{
		Type:       "Feature",
		Geometry:   fazenda.Geom,
		Properties: fazenda,
	})
}

// ByCodImovel handles GET /fazendas/codigo/:cod_imovel.
// It retrieves all fazendas sharing the given property code, paginated.
// The code is not unique, so the result is a page even for a single match.
func (h *FazendaHandler) ByCodImovel(c *gin.Context) {
	codImovel := c.Param("cod_imovel")
	if codImovel == "" {
		apierrors.BadRequest(c, "cod_imovel must not be empty", nil)
		return
	}

	var query PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.bindError(c, err)
		return
	}

	page, err := h.service.GetFazendasByCodImovel(c.Request.Context(), codImovel, query.Page, query.PageSize)
	if err != nil {
		if errors.Is(err, services.ErrFazendaNotFound) {
			apierrors.NotFound(c, fmt.Sprintf("Fazenda with code %s not found", codImovel))
			return
		}
		apierrors.InternalServerError(c, "Failed to query fazendas", err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// SearchByPoint handles POST /fazendas/busca-ponto.
// It retrieves all fazendas whose geometry contains the given point. An empty
// page is a valid success, not a 404.
func (h *FazendaHandler) SearchByPoint(c *gin.Context) {
	var req PointSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	page, err := h.service.GetFazendasByPoint(c.Request.Context(), *req.Latitude, *req.Longitude, req.Page, req.PageSize)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCoordinates) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to query fazendas at point", err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// SearchByRadius handles POST /fazendas/busca-raio.
// It retrieves all fazendas within raio_km kilometers of the given point.
func (h *FazendaHandler) SearchByRadius(c *gin.Context) {
	var req RadiusSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	page, err := h.service.GetFazendasByRadius(c.Request.Context(), *req.Latitude, *req.Longitude, *req.RaioKm, req.Page, req.PageSize)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCoordinates) || errors.Is(err, services.ErrInvalidRadius) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to query fazendas within radius", err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// parseID extracts and validates the :id path parameter. On failure it writes
// the error response and returns ok=false.
func (h *FazendaHandler) parseID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		apierrors.BadRequest(c, "id must be a positive integer", map[string]interface{}{
			"id": raw,
		})
		return 0, false
	}

	return id, true
}

// bindError translates gin binding failures into the standard error envelope.
func (h *FazendaHandler) bindError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apierrors.ValidationError(c, validationErrors)
		return
	}
	apierrors.BadRequest(c, "Invalid request parameters", nil)
}
