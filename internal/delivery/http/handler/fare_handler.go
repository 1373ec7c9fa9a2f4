package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/trip-planner/internal/fare"
	"github.com/trip-planner/internal/pkg/errors"
	"github.com/trip-planner/internal/pkg/utils"
	"github.com/trip-planner/internal/pkg/validator"
	"github.com/trip-planner/internal/usecase/dto"
)

// FareHandler - расчёт стоимости без сессии
type FareHandler struct {
	estimator *fare.Estimator
	clock     func() time.Time
	logger    *zap.Logger
}

// NewFareHandler - создание нового FareHandler
func NewFareHandler(estimator *fare.Estimator, logger *zap.Logger) *FareHandler {
	return &FareHandler{
		estimator: estimator,
		clock:     time.Now,
		logger:    logger,
	}
}

// Estimate - котировка по расстоянию и времени
// @Summary Рассчитать стоимость
// @Description Сравнивает цену сервиса с оценкой такси. Без поля at используется текущее время
// @Tags Fare
// @Accept json
// @Produce json
// @Param request body dto.FareEstimateRequest true "Расстояние и время поездки"
// @Success 200 {object} utils.SuccessResponse{data=dto.FareEstimateResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/fare/estimate [post]
func (h *FareHandler) Estimate(c *fiber.Ctx) error {
	var req dto.FareEstimateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithMessage("Invalid request body"))
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	at := h.clock()
	if req.At != nil {
		at = *req.At
	}

	quote, err := h.estimator.Estimate(req.DistanceMeters, req.DurationSeconds, at)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, dto.FareEstimateResponse{
		Quote:    quote,
		TimeZone: h.estimator.Location().String(),
	}, nil)
}
