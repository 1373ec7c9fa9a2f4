package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/trip-planner/internal/domain"
	"github.com/trip-planner/internal/pkg/errors"
	"github.com/trip-planner/internal/pkg/utils"
	"github.com/trip-planner/internal/pkg/validator"
	"github.com/trip-planner/internal/proximity"
	"github.com/trip-planner/internal/refdata"
	"github.com/trip-planner/internal/usecase/dto"
)

// ReferenceHandler - справочник станций и районов
type ReferenceHandler struct {
	refData       *refdata.Provider
	defaultRadius float64
	logger        *zap.Logger
}

// NewReferenceHandler - создание нового ReferenceHandler
func NewReferenceHandler(refData *refdata.Provider, defaultRadius float64, logger *zap.Logger) *ReferenceHandler {
	return &ReferenceHandler{
		refData:       refData,
		defaultRadius: defaultRadius,
		logger:        logger,
	}
}

// Stations - список станций
// @Summary Список станций
// @Description Все станции справочника. С параметрами lat и lng возвращает только станции в радиусе
// @Tags Reference
// @Produce json
// @Param lat query number false "Широта"
// @Param lng query number false "Долгота"
// @Param radius query number false "Радиус в метрах"
// @Success 200 {object} utils.SuccessResponse{data=[]domain.Station}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/stations [get]
func (h *ReferenceHandler) Stations(c *fiber.Ctx) error {
	store, err := h.refData.Current()
	if err != nil {
		return utils.SendError(c, err)
	}

	stations := store.Stations()

	near := c.Query("lat") != "" || c.Query("lng") != ""
	if near {
		var q dto.StationsQuery
		if err := c.QueryParser(&q); err != nil {
			return utils.SendError(c, errors.ErrInvalidCoordinates)
		}
		if c.Query("lat") == "" || c.Query("lng") == "" {
			return utils.SendError(c, errors.ErrInvalidCoordinates.WithMessage("lat and lng must be provided together"))
		}
		if err := validator.Validate(&q); err != nil {
			return utils.SendError(c, err)
		}

		radius := q.Radius
		if radius == 0 {
			radius = h.defaultRadius
		}
		stations = proximity.Filter(stations, &domain.Point{Lat: q.Lat, Lng: q.Lng}, radius)
	}

	return utils.SendSuccess(c, stations, &utils.Meta{Total: len(stations)})
}

// Districts - список районов
// @Summary Список районов
// @Tags Reference
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=[]domain.District}
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/districts [get]
func (h *ReferenceHandler) Districts(c *fiber.Ctx) error {
	store, err := h.refData.Current()
	if err != nil {
		return utils.SendError(c, err)
	}

	districts := store.Districts()
	return utils.SendSuccess(c, districts, &utils.Meta{Total: len(districts)})
}

// DistrictStations - станции района
// @Summary Станции района
// @Tags Reference
// @Produce json
// @Param id path string true "ID района"
// @Success 200 {object} utils.SuccessResponse{data=dto.DistrictStationsResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/districts/{id}/stations [get]
func (h *ReferenceHandler) DistrictStations(c *fiber.Ctx) error {
	store, err := h.refData.Current()
	if err != nil {
		return utils.SendError(c, err)
	}

	id := c.Params("id")
	district, ok := store.District(id)
	if !ok {
		return utils.SendError(c, errors.ErrDistrictNotFound.WithDetails(map[string]interface{}{"district_id": id}))
	}

	stations := store.StationsInDistrict(district.Name)
	return utils.SendSuccess(c, dto.DistrictStationsResponse{
		District: district,
		Stations: stations,
	}, &utils.Meta{Total: len(stations)})
}
