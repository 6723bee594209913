package handler

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/domain"
	"github.com/transit-aggregator/internal/pkg/errors"
	"github.com/transit-aggregator/internal/pkg/utils"
	"github.com/transit-aggregator/internal/pkg/validator"
	"github.com/transit-aggregator/internal/usecase/dto"
)

type StationSearcher interface {
	Search(ctx context.Context, req dto.SearchRequest) ([]domain.SearchResult, error)
	Near(ctx context.Context, req dto.NearRequest) ([]domain.SearchResult, error)
}

// SearchHandler - поиск станций по всем режимам
type SearchHandler struct {
	searchUC StationSearcher
	logger   *zap.Logger
}

func NewSearchHandler(searchUC StationSearcher, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		searchUC: searchUC,
		logger:   logger,
	}
}

// Search godoc
// @Summary Поиск станций
// @Description Нечёткий поиск по имени во всех режимах; с lat/lon - фильтр по радиусу и сортировка по расстоянию
// @Tags Search
// @Produce json
// @Param name query string false "Имя станции"
// @Param lat query number false "Широта"
// @Param lon query number false "Долгота"
// @Param radius query number false "Радиус, км"
// @Param limit query int false "Максимум результатов"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.SearchResult}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/search [get]
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	req := dto.SearchRequest{Name: c.Query("name")}
	var err error
	if req.Lat, err = queryFloat(c, "lat"); err != nil {
		return utils.SendError(c, errors.ErrInvalidCoordinates)
	}
	if req.Lon, err = queryFloat(c, "lon"); err != nil {
		return utils.SendError(c, errors.ErrInvalidCoordinates)
	}
	if req.RadiusKm, err = queryFloat(c, "radius"); err != nil {
		return utils.SendError(c, errors.ErrInvalidRadius)
	}
	if req.Limit, err = queryInt(c, "limit"); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}

	if err := validator.ValidateRequest(&req); err != nil {
		return utils.SendError(c, err)
	}

	results, err := h.searchUC.Search(c.UserContext(), req)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, results, utils.ListMeta(len(results)))
}

// Near godoc
// @Summary Станции рядом
// @Tags Search
// @Produce json
// @Param lat query number true "Широта"
// @Param lon query number true "Долгота"
// @Param radius query number false "Радиус, км" default(1)
// @Param limit query int false "Максимум результатов" default(10)
// @Success 200 {object} utils.SuccessResponse{data=[]domain.SearchResult}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/near [get]
func (h *SearchHandler) Near(c *fiber.Ctx) error {
	lat, errLat := queryFloat(c, "lat")
	lon, errLon := queryFloat(c, "lon")
	if errLat != nil || errLon != nil || lat == nil || lon == nil {
		return utils.SendError(c, errors.ErrInvalidCoordinates)
	}

	req := dto.NearRequest{Lat: *lat, Lon: *lon}
	var err error
	if req.RadiusKm, err = queryFloat(c, "radius"); err != nil {
		return utils.SendError(c, errors.ErrInvalidRadius)
	}
	if req.Limit, err = queryInt(c, "limit"); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}

	if err := validator.ValidateRequest(&req); err != nil {
		return utils.SendError(c, err)
	}

	results, err := h.searchUC.Near(c.UserContext(), req)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, results, utils.ListMeta(len(results)))
}

// queryFloat: отсутствующий параметр - nil без ошибки
func queryFloat(c *fiber.Ctx, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func queryInt(c *fiber.Ctx, key string) (*int, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
