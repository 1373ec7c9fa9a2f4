// Package render records camera commands for a remote map client.
package render

import (
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/trip-planner/internal/domain"
)

const (
	tileSize    = 256
	maxFitZoom  = 18
	maxCommands = 256
)

// CommandSurface - поверхность карты на стороне сервера. Камера не двигается здесь,
// команды копятся и забираются клиентом через Drain
type CommandSurface struct {
	mu       sync.Mutex
	ready    bool
	width    int
	height   int
	seq      int64
	commands []domain.CameraCommand
	logger   *zap.Logger
}

func NewCommandSurface(width, height int, logger *zap.Logger) *CommandSurface {
	return &CommandSurface{
		width:  width,
		height: height,
		logger: logger,
	}
}

// MarkLoaded - клиент сообщил, что карта загружена
func (s *CommandSurface) MarkLoaded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
}

func (s *CommandSurface) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *CommandSurface) Apply(view domain.View) {
	s.mu.Lock()
	defer s.mu.Unlock()

	center := view.Center
	zoom := view.Zoom
	s.push(domain.CameraCommand{Type: domain.CameraPanTo, Center: &center})
	s.push(domain.CameraCommand{Type: domain.CameraSetZoom, Value: &zoom})
	if view.Tilt != nil {
		tilt := *view.Tilt
		s.push(domain.CameraCommand{Type: domain.CameraSetTilt, Value: &tilt})
	}
	if view.Heading != nil {
		heading := *view.Heading
		s.push(domain.CameraCommand{Type: domain.CameraSetHeading, Value: &heading})
	}
}

// FitBounds записывает fit_bounds и возвращает позу, которую примет клиент
// с вьюпортом width x height в web-mercator
func (s *CommandSurface) FitBounds(points []domain.Point) (domain.Point, float64) {
	box, ok := domain.NewBoundingBox(points)
	if !ok {
		return domain.Point{}, 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.push(domain.CameraCommand{Type: domain.CameraFitBounds, Bounds: &box})
	return box.Center(), FitZoom(box, s.width, s.height)
}

// Drain возвращает накопленные команды и очищает буфер
func (s *CommandSurface) Drain() []domain.CameraCommand {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.commands
	s.commands = nil
	return out
}

// Pending - команды без очистки буфера
func (s *CommandSurface) Pending() []domain.CameraCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CameraCommand(nil), s.commands...)
}

func (s *CommandSurface) push(cmd domain.CameraCommand) {
	s.seq++
	cmd.Seq = s.seq
	s.commands = append(s.commands, cmd)
	if len(s.commands) > maxCommands {
		dropped := len(s.commands) - maxCommands
		s.commands = s.commands[dropped:]
		s.logger.Debug("Camera command buffer trimmed", zap.Int("dropped", dropped))
	}
}

// FitZoom - наибольший целый zoom, при котором bbox помещается во вьюпорт
func FitZoom(box domain.BoundingBox, width, height int) float64 {
	if width <= 0 || height <= 0 {
		return maxFitZoom
	}

	latFraction := (mercatorY(box.MaxLat) - mercatorY(box.MinLat)) / math.Pi
	lngDiff := box.MaxLng - box.MinLng
	if lngDiff < 0 {
		lngDiff += 360
	}
	lngFraction := lngDiff / 360

	latZoom := zoomFor(float64(height), latFraction)
	lngZoom := zoomFor(float64(width), lngFraction)

	return math.Min(math.Min(latZoom, lngZoom), maxFitZoom)
}

func mercatorY(lat float64) float64 {
	sin := math.Sin(lat * math.Pi / 180)
	radX2 := math.Log((1+sin)/(1-sin)) / 2
	return math.Max(math.Min(radX2, math.Pi), -math.Pi) / 2
}

func zoomFor(mapPx, fraction float64) float64 {
	if fraction <= 0 {
		return maxFitZoom
	}
	return math.Floor(math.Log2(mapPx / tileSize / fraction))
}
