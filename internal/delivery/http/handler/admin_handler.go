package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/delivery/http/middleware"
	"github.com/transit-aggregator/internal/pkg/utils"
	"github.com/transit-aggregator/internal/pkg/validator"
	"github.com/transit-aggregator/internal/usecase/dto"
)

type SyncRequester interface {
	RequestSync(ctx context.Context, req dto.SyncRequest, requestedBy string) (*dto.SyncRequestResponse, error)
}

// AdminHandler - внеплановая синхронизация через stream:transit:sync
type AdminHandler struct {
	syncUC SyncRequester
	logger *zap.Logger
}

func NewAdminHandler(syncUC SyncRequester, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		syncUC: syncUC,
		logger: logger,
	}
}

// RequestSync godoc
// @Summary Запросить синхронизацию
// @Description Публикует запрос в stream:transit:sync; worker запускает задачу {mode}:sync-{entity}
// @Tags Admin
// @Produce json
// @Param X-Admin-Token header string true "Admin token"
// @Param mode path string true "Режим"
// @Param entity path string true "lines или stations"
// @Success 202 {object} utils.SuccessResponse{data=dto.SyncRequestResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /api/v1/admin/sync/{mode}/{entity} [post]
func (h *AdminHandler) RequestSync(c *fiber.Ctx) error {
	req := dto.SyncRequest{
		Mode:   c.Params("mode"),
		Entity: c.Params("entity"),
	}
	if err := validator.ValidateRequest(&req); err != nil {
		return utils.SendError(c, err)
	}

	actor, _ := c.Locals(middleware.ActorLocal).(string)
	if actor == "" {
		actor = "admin"
	}

	resp, err := h.syncUC.RequestSync(c.UserContext(), req, actor)
	if err != nil {
		return utils.SendError(c, err)
	}

	h.logger.Info("Sync requested",
		zap.String("job", resp.JobID),
		zap.String("actor", actor))
	c.Status(fiber.StatusAccepted)
	return utils.SendSuccess(c, resp, nil)
}
