package repository

import (
	"context"

	"github.com/trip-planner/internal/domain"
)

// RoutingRepository - внешний сервис построения маршрута между двумя точками
type RoutingRepository interface {
	Route(ctx context.Context, origin, destination domain.Point) (*domain.RouteResult, error)
}
