package repository

import (
	"context"

	"github.com/trip-planner/internal/domain"
)

// LocationService - источник текущего положения пользователя
type LocationService interface {
	GetCurrentPosition(ctx context.Context) (domain.Point, error)
}
