package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/trip-planner/internal/domain"
	"github.com/trip-planner/internal/domain/repository"
	"github.com/trip-planner/internal/infrastructure/ipgeo"
	"github.com/trip-planner/internal/infrastructure/location"
	"github.com/trip-planner/internal/pkg/errors"
	"github.com/trip-planner/internal/pkg/utils"
	"github.com/trip-planner/internal/pkg/validator"
	"github.com/trip-planner/internal/usecase"
	"github.com/trip-planner/internal/usecase/dto"
)

// SessionHandler - обработчик сессий карты
type SessionHandler struct {
	sessionUC *usecase.SessionUseCase
	geo       *ipgeo.Client
	logger    *zap.Logger
}

// NewSessionHandler - создание нового SessionHandler. geo может быть nil,
// тогда определение положения доступно только по координатам устройства
func NewSessionHandler(sessionUC *usecase.SessionUseCase, geo *ipgeo.Client, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessionUC: sessionUC,
		geo:       geo,
		logger:    logger,
	}
}

// Create - создание сессии
// @Summary Создать сессию
// @Description Создаёт сессию выбора поездки в начальном состоянии (выбор станции отправления, вид City)
// @Tags Sessions
// @Produce json
// @Success 201 {object} utils.SuccessResponse{data=domain.TripState}
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/sessions [post]
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	state, err := h.sessionUC.Create(c.UserContext())
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendCreated(c, state, &utils.Meta{SessionID: state.SessionID})
}

// Get - состояние сессии
// @Summary Состояние сессии
// @Description Возвращает текущее состояние и команды камеры, накопленные с прошлого запроса
// @Tags Sessions
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=domain.TripState}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id} [get]
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	state, err := h.sessionUC.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return h.sendState(c, state)
}

// Delete - удаление сессии
// @Summary Удалить сессию
// @Tags Sessions
// @Param id path string true "ID сессии"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id} [delete]
func (h *SessionHandler) Delete(c *fiber.Ctx) error {
	if err := h.sessionUC.Delete(c.UserContext(), c.Params("id")); err != nil {
		return utils.SendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MapLoaded - карта клиента загружена
// @Summary Карта загружена
// @Description Клиент сообщает, что карта готова принимать команды камеры
// @Tags Sessions
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=domain.TripState}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/map-loaded [post]
func (h *SessionHandler) MapLoaded(c *fiber.Ctx) error {
	state, err := h.sessionUC.MapLoaded(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return h.sendState(c, state)
}

// Dispatch - событие интерфейса
// @Summary Отправить событие
// @Description Клик по станции или району, выбор назначения, очистка выбора, возврат домой, продолжение, повтор маршрута
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param request body dto.SessionEventRequest true "Событие"
// @Success 200 {object} utils.SuccessResponse{data=domain.TripState}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/events [post]
func (h *SessionHandler) Dispatch(c *fiber.Ctx) error {
	var req dto.SessionEventRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithMessage("Invalid request body"))
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	state, err := h.sessionUC.Dispatch(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return utils.SendError(c, err)
	}
	return h.sendState(c, state)
}

// Locate - определить положение пользователя
// @Summary Найти меня
// @Description Использует координаты устройства, если они переданы, иначе IP-геолокацию
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param request body dto.LocateRequest false "Координаты устройства"
// @Success 200 {object} utils.SuccessResponse{data=domain.TripState}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/locate [post]
func (h *SessionHandler) Locate(c *fiber.Ctx) error {
	var req dto.LocateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, errors.ErrInvalidRequest.WithMessage("Invalid request body"))
		}
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}
	if req.PartialPoint() {
		return utils.SendError(c, errors.ErrInvalidCoordinates.WithMessage("lat and lng must be provided together"))
	}

	state, err := h.sessionUC.Locate(c.UserContext(), c.Params("id"), h.locator(c, req), req.Wait)
	if err != nil {
		return utils.SendError(c, err)
	}
	return h.sendState(c, state)
}

func (h *SessionHandler) locator(c *fiber.Ctx, req dto.LocateRequest) repository.LocationService {
	if req.HasPoint() {
		return location.Reported(domain.Point{Lat: *req.Lat, Lng: *req.Lng})
	}
	if h.geo == nil {
		return nil
	}
	return ipgeo.ForIP(h.geo, c.IP())
}

func (h *SessionHandler) sendState(c *fiber.Ctx, state *domain.TripState) error {
	return utils.SendSuccess(c, state, &utils.Meta{SessionID: state.SessionID})
}
