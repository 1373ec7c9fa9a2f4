package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/trip-planner/internal/pkg/utils"
	"github.com/trip-planner/internal/refdata"
	"github.com/trip-planner/internal/usecase/dto"
)

const healthCheckTimeout = 2 * time.Second

// HealthChecker - зависимость с проверкой доступности (Redis, Postgres)
type HealthChecker interface {
	Health(ctx context.Context) error
}

// SessionCounter - число активных сессий
type SessionCounter interface {
	Count() int
}

// HealthHandler - проверка состояния сервиса
type HealthHandler struct {
	refData  *refdata.Provider
	sessions SessionCounter
	checks   map[string]HealthChecker
	logger   *zap.Logger
}

// NewHealthHandler - создание нового HealthHandler. checks может быть пустым
func NewHealthHandler(refData *refdata.Provider, sessions SessionCounter, checks map[string]HealthChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		refData:  refData,
		sessions: sessions,
		checks:   checks,
		logger:   logger,
	}
}

// Health - состояние сервиса
// @Summary Health check
// @Description Статус загрузки справочника и доступность Redis
// @Tags Health
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.HealthResponse}
// @Failure 503 {object} utils.SuccessResponse{data=dto.HealthResponse}
// @Router /api/v1/health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	refStatus, _ := h.refData.Status()

	resp := dto.HealthResponse{
		Status:        "healthy",
		ReferenceData: string(refStatus),
		Sessions:      h.sessions.Count(),
	}

	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
		defer cancel()

		resp.Checks = make(map[string]string, len(h.checks))
		for name, check := range h.checks {
			if err := check.Health(ctx); err != nil {
				h.logger.Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	if refStatus != refdata.StatusReady {
		resp.Status = "degraded"
	}

	status := fiber.StatusOK
	if refStatus == refdata.StatusFailed {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(utils.SuccessResponse{Data: resp})
}
