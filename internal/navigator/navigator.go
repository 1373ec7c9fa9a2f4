// Package navigator keeps the append-only history of camera views.
package navigator

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/trip-planner/internal/domain"
)

// Surface - поверхность отрисовки карты. Ядро никогда не рисует само
type Surface interface {
	// Ready - карта загружена и принимает команды камеры
	Ready() bool
	// Apply переводит камеру в позу view (pan, zoom, tilt, heading)
	Apply(view domain.View)
	// FitBounds подбирает центр и zoom, вмещающие все точки
	FitBounds(points []domain.Point) (domain.Point, float64)
}

// Navigator владеет историей видов. Текущий вид всегда последний;
// история только растёт, возврат назад - это новый NavigateTo
type Navigator struct {
	surface Surface
	history []domain.View
	logger  *zap.Logger
}

// New создаёт навигатор с начальным видом в истории
func New(surface Surface, initial domain.View, logger *zap.Logger) *Navigator {
	return &Navigator{
		surface: surface,
		history: []domain.View{initial},
		logger:  logger,
	}
}

// NavigateTo добавляет вид в историю и двигает камеру.
// Если поверхность не готова, ничего не меняет и возвращает false
func (n *Navigator) NavigateTo(view domain.View) bool {
	if n.surface == nil || !n.surface.Ready() {
		n.logger.Warn("Map not ready, navigation skipped", zap.String("view", string(view.Name)))
		return false
	}

	n.history = append(n.history, view)
	n.surface.Apply(view)

	n.logger.Debug("Navigated",
		zap.String("view", string(view.Name)),
		zap.Float64("zoom", view.Zoom),
		zap.Int("history", len(n.history)))
	return true
}

// Sync повторно применяет текущий вид без записи в историю (после загрузки карты)
func (n *Navigator) Sync() bool {
	if !n.Ready() {
		return false
	}
	n.surface.Apply(n.CurrentView())
	return true
}

// FitBounds спрашивает у поверхности позу для набора точек
func (n *Navigator) FitBounds(points []domain.Point) (domain.Point, float64, bool) {
	if n.surface == nil || !n.surface.Ready() || len(points) == 0 {
		return domain.Point{}, 0, false
	}
	center, zoom := n.surface.FitBounds(points)
	return center, zoom, true
}

func (n *Navigator) Ready() bool {
	return n.surface != nil && n.surface.Ready()
}

func (n *Navigator) CurrentView() domain.View {
	return n.history[len(n.history)-1]
}

// History возвращает копию истории
func (n *Navigator) History() []domain.View {
	return append([]domain.View(nil), n.history...)
}

// ViewPath - имена видов по порядку
func (n *Navigator) ViewPath() []string {
	path := make([]string, len(n.history))
	for i, v := range n.history {
		path[i] = string(v.Name)
	}
	return path
}

func (n *Navigator) Caption() string {
	return Caption(n.CurrentView())
}

// Restore заменяет историю сохранённой (восстановление сессии). Камера не двигается
func (n *Navigator) Restore(history []domain.View) error {
	if len(history) == 0 {
		return fmt.Errorf("empty view history")
	}
	for i, v := range history {
		switch v.Name {
		case domain.ViewCity, domain.ViewDistrict, domain.ViewStation, domain.ViewMe, domain.ViewDrive:
		default:
			return fmt.Errorf("view %d: unknown name %q", i, v.Name)
		}
	}
	n.history = append([]domain.View(nil), history...)
	return nil
}

// Caption - подпись строки статуса для вида
func Caption(view domain.View) string {
	switch view.Name {
	case domain.ViewCity:
		return "All Districts"
	case domain.ViewDistrict:
		return orDefault(view.DistrictName, "District")
	case domain.ViewStation:
		return orDefault(view.StationName, "Station")
	case domain.ViewMe:
		return "Stations near me"
	case domain.ViewDrive:
		return orDefault(view.RouteSummary, "Route")
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
