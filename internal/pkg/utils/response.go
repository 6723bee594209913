package utils

import (
	stderrors "errors"

	"github.com/gofiber/fiber/v2"
	"github.com/transit-aggregator/internal/pkg/errors"
)

type SuccessResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Error *errors.AppError `json:"error"`
}

// Meta - сопровождение списочных ответов.
type Meta struct {
	Total    int     `json:"total"`
	TimeMSec float64 `json:"time_ms,omitempty"`
}

// ListMeta - мета для списка из n элементов; пустой список даёт total=0, а не пропуск поля.
func ListMeta(n int) *Meta {
	return &Meta{Total: n}
}

func SendSuccess(c *fiber.Ctx, data interface{}, meta *Meta) error {
	return c.JSON(SuccessResponse{
		Data: data,
		Meta: meta,
	})
}

// SendError отдаёт AppError из цепочки err; всё остальное - 500 без деталей.
// Ошибки не кэшируются прокси.
func SendError(c *fiber.Ctx, err error) error {
	c.Set(fiber.HeaderCacheControl, "no-store")

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		status := appErr.StatusCode
		if status == 0 {
			status = fiber.StatusInternalServerError
		}
		return c.Status(status).JSON(ErrorResponse{Error: appErr})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error: errors.ErrInternalServer,
	})
}
