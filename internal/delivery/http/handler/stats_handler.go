package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/domain"
	"github.com/transit-aggregator/internal/pkg/utils"
)

type StatisticsProvider interface {
	GetStatistics(ctx context.Context) *domain.Statistics
}

// StatsHandler обрабатывает запросы для статистики
type StatsHandler struct {
	statsUC StatisticsProvider
	logger  *zap.Logger
}

// NewStatsHandler создает новый экземпляр StatsHandler
func NewStatsHandler(statsUC StatisticsProvider, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		statsUC: statsUC,
		logger:  logger,
	}
}

// GetStatistics godoc
// @Summary Get system statistics
// @Description Линии, станции и активные алерты по каждому режиму
// @Tags Statistics
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=domain.Statistics}
// @Router /api/v1/stats [get]
func (h *StatsHandler) GetStatistics(c *fiber.Ctx) error {
	h.logger.Debug("Handling get statistics request")
	return utils.SendSuccess(c, h.statsUC.GetStatistics(c.UserContext()), nil)
}
