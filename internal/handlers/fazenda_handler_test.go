package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/meuat/geo-api/internal/logger"
	"github.com/meuat/geo-api/internal/middleware"
	"github.com/meuat/geo-api/internal/models"
	"github.com/meuat/geo-api/internal/pagination"
	"github.com/meuat/geo-api/internal/services"
)

// MockFazendaService is a mock implementation of services.FazendaService.
type MockFazendaService struct {
	mock.Mock
}

func (m *MockFazendaService) GetFazendaByID(ctx context.Context, id int64) (*models.Fazenda, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Fazenda), args.Error(1)
}

func (m *MockFazendaService) GetFazendasByCodImovel(ctx context.Context, codImovel string, page, pageSize int) (pagination.Page[models.Fazenda], error) {
	args := m.Called(ctx, codImovel, page, pageSize)
	return args.Get(0).(pagination.Page[models.Fazenda]), args.Error(1)
}

func (m *MockFazendaService) GetFazendasByPoint(ctx context.Context, lat, lng float64, page, pageSize int) (pagination.Page[models.Fazenda], error) {
	args := m.Called(ctx, lat, lng, page, pageSize)
	return args.Get(0).(pagination.Page[models.Fazenda]), args.Error(1)
}

func (m *MockFazendaService) GetFazendasByRadius(ctx context.Context, lat, lng, raioKm float64, page, pageSize int) (pagination.Page[models.Fazenda], error) {
	args := m.Called(ctx, lat, lng, raioKm, page, pageSize)
	return args.Get(0).(pagination.Page[models.Fazenda]), args.Error(1)
}

// setupFazendaTestRouter creates a test router with middleware and fazenda routes.
func setupFazendaTestRouter(service services.FazendaService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	log := logger.New("test")
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))

	handler := NewFazendaHandler(service)
	v1 := router.Group("/api/v1")
	{
		fazendas := v1.Group("/fazendas")
		{
			fazendas.GET("/:id", handler.ByID)
			fazendas.GET("/:id/feature", handler.Feature)
			fazendas.GET("/codigo/:cod_imovel", handler.ByCodImovel)
			fazendas.POST("/busca-ponto", handler.SearchByPoint)
			fazendas.POST("/busca-raio", handler.SearchByRadius)
		}
	}

	return router
}

func strPtr(s string) *string { return &s }

func sampleFazenda(id int64) models.Fazenda {
	return models.Fazenda{
		ID:        id,
		CodTema:   strPtr("AREA_IMOVEL"),
		CodImovel: strPtr("SP-3500105-279714F410E746B0B440EFAD4B0933D4"),
		Municipio: strPtr("Adamantina"),
		CodEstado: strPtr("SP"),
		DatCriaca: strPtr("2025-10-09"),
	}
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestByID_Success(t *testing.T) {
	mockService := new(MockFazendaService)
	router := setupFazendaTestRouter(mockService)

	fazenda := sampleFazenda(1)
	mockService.On("GetFazendaByID", mock.Anything, int64(1)).Return(&fazenda, nil)

	w := doJSON(router, http.MethodGet, "/api/v1/fazendas/1", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, float64(1), got["id"])
	assert.Equal(t, "Adamantina", got["municipio"])
	// Absent attributes serialize as explicit nulls
	assert.Contains(t, got, "nom_tema")
	assert.Nil(t, got["nom_tema"])
	mockService.AssertExpectations(t)
}

func TestByID_NotFound(t *testing.T) {
	mockService := new(MockFazendaService)
	router := setupFazendaTestRouter(mockService)

	mockService.On("GetFazendaByID", mock.Anything, int64(999)).Return(nil, services.ErrFazendaNotFound)

	w := doJSON(router, http.MethodGet, "/api/v1/fazendas/999", nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	// The message names the id that was requested
	assert.Contains(t, w.Body.String(), "999")
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestByID_InvalidID(t *testing.T) {
	mockService := new(MockFazendaService)
	router := setupFazendaTestRouter(mockService)

	for _, id := range []string{"0", "-1", "abc"} {
		w := doJSON(router, http.MethodGet, "/api/v1/fazendas/"+id, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "id=%s", id)
	}
	mockService.AssertNotCalled(t, "GetFazendaByID")
}

func TestByID_StorageError(t *testing.T) {
	mockService := new(MockFazendaService)
	router := setupFazendaTestRouter(mockService)

	mockService.On("GetFazendaByID", mock.Anything, int64(1)).Return(nil, fmt.Errorf("failed to query fazenda: connection refused"))

	w := doJSON(router, http.MethodGet, "/api/v1/fazendas/1", nil)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	// Storage detail stays out of the response body
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.Contains(t, w.Body.String(), "INTERNAL_SERVER_ERROR")
}

func TestFeature_Success(t *testing.T) {
	mockService := new(MockFazendaService)
	router := setupFazendaTestRouter(mockService)

	fazenda := sampleFazenda(1)
	geomJSON := []byte(`{"type":"Polygon","coordinates":[[[-51.074,-21.708],[-51.072,-21.708],[-51.071,-21.709],[-51.074,-21.708]]]}`)
	geom := &models.Geometry{}
	require.NoError(t, geom.Scan(geomJSON))
	fazenda.Geom = geom

	mockService.On("GetFazendaByID", mock.Anything, int64(1)).Return(&fazenda, nil)

	w := doJSON(router, http.MethodGet, "/api/v1/fazendas/1/feature", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Type     string `json:"type"`
		Geometry struct {
			Type string `json:"type"`
		} `json:"geometry"`
		Properties map[string]interface{} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Feature", got.Type)
	assert.Equal(t, "Polygon", got.Geometry.Type)
	assert.Equal(t, float64(1), got.Properties["id"])
}

func TestByCodImovel_Success(t *testing.T) {
	mockService := new(MockFazendaService)
	router := setupFazendaTestRouter(mockService)

	cod := "SP-3500105-279714F410E746B0B440EFAD4B0933D4"
	items := []models.Fazenda{sampleFazenda(1), sampleFazenda(2)}
	page := pagination.NewPage(items, 2, pagination.Params{Page: 1, PageSize: 10})
	mockService.On("GetFazendasByCodImovel", mock.Anything, cod, 0, 0).Return(page, nil)

	w := doJSON(router, http.MethodGet, "/api/v1/fazendas/codigo/"+cod, nil)

	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, float64(2), got["total"])
	assert.Equal(t, float64(1), got["total_pages"])
	assert.Len(t, got["items"], 2)
}

func TestByCodImovel_NotFound(t *testing.T) {
	mockService := new(MockFazendaService)
	router := setupFazendaTestRouter(mockService)

	mockService.On("GetFazendasByCodImovel", mock.Anything, "SP-UNKNOWN", 0, 0).
		Return(pagination.Page[models.Fazenda]{}, services.ErrFazendaNotFound)

	w := doJSON(router, http.MethodGet, "/api/v1/fazendas/codigo/SP-UNKNOWN", nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "SP-UNKNOWN")
}

func TestByCodImovel_InvalidPagination(t *testing.T) {
	mockService := new(MockFazendaService)
	router := setupFazendaTestRouter(mockService)

	w := doJSON(router, http.MethodGet, "/api/v1/fazendas/codigo/SP-1?page=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/fazendas/codigo/SP-1?page_size=101", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockService.AssertNotCalled(t, "GetFazendasByCodImovel")
}

func TestSearchByPoint_Success(t *testing.T) {
	mockService := new(MockFazendaService)
	router := setupFazendaTestRouter(mockService)

	// Two stored parcels both contain the São Paulo point
	items := []models.Fazenda{sampleFazenda(1), sampleFazenda(2)}
	page := pagination.NewPage(items, 2, pagination.Params{Page: 1, PageSize: 10})
	mockService.On("GetFazendasByPoint", mock.Anything, -23.5505, -46.6333, 0, 0).Return(page, nil)

	w := doJSON(router, http.MethodPost, "/api/v1/fazendas/busca-ponto", map[string]interface{}{
		"latitude":  -23.5505,
		"longitude": -46.6333,
	})

	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, float64(2), got["total"])
	assert.Equal(t, float64(1), got["page"])
	assert.Equal(t, float64(10), got["page_size"])
	assert.Equal(t, float64(1), got["total_pages"])
	assert.Len(t, got["items"], 2)
}

func TestSearchByPoint_ZeroCoordinatesAreValid(t *testing.T) {
	mockService := new(MockFazendaService)
	router := setupFazendaTestRouter(mockService)

	page := pagination.NewPage([]models.Fazenda{}, 0, pagination.Params{Page: 1, PageSize: 10})
	mockService.On("GetFazendasByPoint", mock.Anything, 0.0, 0.0, 0, 0).Return(page, nil)

	// (0, 0) must not be confused with missing fields
	w := doJSON(router, http.MethodPost, "/api/v1/fazendas/busca-ponto", map[string]interface{}{
		"latitude":  0.0,
		"longitude": 0.0,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestSearchByPoint_ValidationErrors(t *testing.T) {
	mockService := new(MockFazendaService)
	router := setupFazendaTestRouter(mockService)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing latitude", map[string]interface{}{"longitude": -46.6333}},
		{"missing longitude", map[string]interface{}{"latitude": -23.5505}},
		{"latitude too high", map[string]interface{}{"latitude": 90.0001, "longitude": 0.0}},
		{"latitude too low", map[string]interface{}{"latitude": -90.0001, "longitude": 0.0}},
		{"longitude too high", map[string]interface{}{"latitude": 0.0, "longitude": 180.0001}},
		{"invalid page", map[string]interface{}{"latitude": 0.0, "longitude": 0.0, "page": -1}},
		{"page_size over limit", map[string]interface{}{"latitude": 0.0, "longitude": 0.0, "page_size": 101}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/api/v1/fazendas/busca-ponto", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	mockService.AssertNotCalled(t, "GetFazendasByPoint")
}

func TestSearchByPoint_EmptyResult(t *testing.T) {
	mockService := new(MockFazendaService)
	router := setupFazendaTestRouter(mockService)

	page := pagination.NewPage([]models.Fazenda{}, 0, pagination.Params{Page: 1, PageSize: 10})
	mockService.On("GetFazendasByPoint", mock.Anything, -23.5505, -46.6333, 0, 0).Return(page, nil)

	w := doJSON(router, http.MethodPost, "/api/v1/fazendas/busca-ponto", map[string]interface{}{
		"latitude":  -23.5505,
		"longitude": -46.6333,
	})

	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, float64(0), got["total"])
	assert.Equal(t, float64(0), got["total_pages"])
	assert.Len(t, got["items"], 0)
}

func TestSearchByRadius_Success(t *testing.T) {
	mockService := new(MockFazendaService)
	router := setupFazendaTestRouter(mockService)

	page := pagination.NewPage([]models.Fazenda{sampleFazenda(1)}, 1, pagination.Params{Page: 1, PageSize: 10})
	mockService.On("GetFazendasByRadius", mock.Anything, -23.5505, -46.6333, 50.0, 0, 0).Return(page, nil)

	w := doJSON(router, http.MethodPost, "/api/v1/fazendas/busca-raio", map[string]interface{}{
		"latitude":  -23.5505,
		"longitude": -46.6333,
		"raio_km":   50.0,
	})

	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, float64(1), got["total"])
}

func TestSearchByRadius_MissingRadius(t *testing.T) {
	mockService := new(MockFazendaService)
	router := setupFazendaTestRouter(mockService)

	w := doJSON(router, http.MethodPost, "/api/v1/fazendas/busca-raio", map[string]interface{}{
		"latitude":  -23.5505,
		"longitude": -46.6333,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "GetFazendasByRadius")
}

func TestSearchByRadius_RadiusTooLarge(t *testing.T) {
	mockService := new(MockFazendaService)
	router := setupFazendaTestRouter(mockService)

	// The service owns the configured maximum and reports the violation
	mockService.On("GetFazendasByRadius", mock.Anything, -23.5505, -46.6333, 20000.1, 0, 0).
		Return(pagination.Page[models.Fazenda]{}, fmt.Errorf("%w: must be at most 20000 km, got 20000.1", services.ErrInvalidRadius))

	w := doJSON(router, http.MethodPost, "/api/v1/fazendas/busca-raio", map[string]interface{}{
		"latitude":  -23.5505,
		"longitude": -46.6333,
		"raio_km":   20000.1,
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "BAD_REQUEST")
}

func TestSearchByRadius_MalformedBody(t *testing.T) {
	mockService := new(MockFazendaService)
	router := setupFazendaTestRouter(mockService)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/fazendas/busca-raio", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
