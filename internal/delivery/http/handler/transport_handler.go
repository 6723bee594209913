package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/domain"
	"github.com/transit-aggregator/internal/pkg/errors"
	"github.com/transit-aggregator/internal/pkg/utils"
)

// ModeService - операции чтения одного режима (TransportService).
type ModeService interface {
	Mode() domain.TransportType
	GetAllLines(ctx context.Context) []domain.Line
	GetStationsByName(ctx context.Context, query string) []domain.Station
	GetStationsByLineCode(ctx context.Context, lineCode string) []domain.Station
	GetStationRoutes(ctx context.Context, code string) []domain.Route
	GetStationConnections(ctx context.Context, code string) []domain.Line
}

type AlertLister interface {
	ActiveAlerts(ctx context.Context, mode domain.TransportType) []domain.Alert
}

// TransportHandler - эндпоинты /:mode/...
type TransportHandler struct {
	services map[domain.TransportType]ModeService
	alerts   AlertLister
	logger   *zap.Logger
}

func NewTransportHandler(services []ModeService, alerts AlertLister, logger *zap.Logger) *TransportHandler {
	byMode := make(map[domain.TransportType]ModeService, len(services))
	for _, svc := range services {
		byMode[svc.Mode()] = svc
	}
	return &TransportHandler{
		services: byMode,
		alerts:   alerts,
		logger:   logger,
	}
}

func (h *TransportHandler) service(c *fiber.Ctx) (ModeService, error) {
	mode, err := domain.ParseTransportType(c.Params("mode"))
	if err != nil {
		return nil, errors.ErrInvalidTransportType
	}
	svc, ok := h.services[mode]
	if !ok {
		return nil, errors.ErrInvalidTransportType.WithDetails(map[string]interface{}{
			"mode":   string(mode),
			"reason": "mode is not enabled",
		})
	}
	return svc, nil
}

// GetLines godoc
// @Summary Линии режима
// @Description Все линии режима с цветом, display name и активными алертами
// @Tags Transport
// @Produce json
// @Param mode path string true "metro, bus, tram, rodalies, fgc, bicing"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Line}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/{mode}/lines [get]
func (h *TransportHandler) GetLines(c *fiber.Ctx) error {
	svc, err := h.service(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	lines := svc.GetAllLines(c.UserContext())
	return utils.SendSuccess(c, lines, utils.ListMeta(len(lines)))
}

// GetStations godoc
// @Summary Станции режима
// @Description Без name - все станции, с name - нечёткий поиск по имени
// @Tags Transport
// @Produce json
// @Param mode path string true "Режим"
// @Param name query string false "Имя станции"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Station}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/{mode}/stations [get]
func (h *TransportHandler) GetStations(c *fiber.Ctx) error {
	svc, err := h.service(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	stations := svc.GetStationsByName(c.UserContext(), c.Query("name"))
	return utils.SendSuccess(c, stations, utils.ListMeta(len(stations)))
}

// GetLineStations godoc
// @Summary Станции линии
// @Tags Transport
// @Produce json
// @Param mode path string true "Режим"
// @Param code path string true "Код линии"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Station}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/{mode}/lines/{code}/stations [get]
func (h *TransportHandler) GetLineStations(c *fiber.Ctx) error {
	svc, err := h.service(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	stations := svc.GetStationsByLineCode(c.UserContext(), c.Params("code"))
	return utils.SendSuccess(c, stations, utils.ListMeta(len(stations)))
}

// GetStationRoutes godoc
// @Summary Ближайшие рейсы станции
// @Description Живые прибытия, при их отсутствии - расписание (estimated)
// @Tags Transport
// @Produce json
// @Param mode path string true "Режим"
// @Param code path string true "Код станции"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Route}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/{mode}/stations/{code}/routes [get]
func (h *TransportHandler) GetStationRoutes(c *fiber.Ctx) error {
	svc, err := h.service(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	routes := svc.GetStationRoutes(c.UserContext(), c.Params("code"))
	return utils.SendSuccess(c, routes, utils.ListMeta(len(routes)))
}

// GetStationConnections godoc
// @Summary Пересадки на станции
// @Tags Transport
// @Produce json
// @Param mode path string true "Режим"
// @Param code path string true "Код станции"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Line}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/{mode}/stations/{code}/connections [get]
func (h *TransportHandler) GetStationConnections(c *fiber.Ctx) error {
	svc, err := h.service(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	lines := svc.GetStationConnections(c.UserContext(), c.Params("code"))
	return utils.SendSuccess(c, lines, utils.ListMeta(len(lines)))
}

// GetAlerts godoc
// @Summary Активные алерты режима
// @Tags Transport
// @Produce json
// @Param mode path string true "Режим"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Alert}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/{mode}/alerts [get]
func (h *TransportHandler) GetAlerts(c *fiber.Ctx) error {
	svc, err := h.service(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	alerts := h.alerts.ActiveAlerts(c.UserContext(), svc.Mode())
	if alerts == nil {
		alerts = []domain.Alert{}
	}
	return utils.SendSuccess(c, alerts, utils.ListMeta(len(alerts)))
}
