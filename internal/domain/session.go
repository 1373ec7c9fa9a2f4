package domain

import "time"

// Notice - сообщение для пользователя, которое можно закрыть
type Notice struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Dismissible bool   `json:"dismissible"`
	Retryable   bool   `json:"retryable"`
}

// TripState - снимок состояния сессии, отдаваемый клиенту карты
type TripState struct {
	SessionID     string     `json:"session_id"`
	Selection     Selection  `json:"selection"`
	Quote         *FareQuote `json:"quote,omitempty"`
	View          View       `json:"view"`
	ViewHistory   []View     `json:"view_history"`
	Caption       string     `json:"caption"`
	Projection    Projection `json:"projection"`
	UserLocation  *Point     `json:"user_location,omitempty"`
	Notice        *Notice    `json:"notice,omitempty"`
	FarePending   bool       `json:"fare_pending"`
	LocatePending bool       `json:"locate_pending"`
	MapReady      bool       `json:"map_ready"`
	RouteKey      *RouteKey  `json:"route_key,omitempty"`
	// Route - геометрия маршрута для отрисовки полилинии
	Route *RouteResult `json:"route,omitempty"`
	// CameraCommands - команды камеры, накопленные с прошлого чтения
	CameraCommands []CameraCommand `json:"camera_commands,omitempty"`
}

// SessionSnapshot - сериализуемое состояние сессии для восстановления после рестарта.
// Станции хранятся по ID и заново разрешаются через справочник
type SessionSnapshot struct {
	SessionID    string     `json:"session_id"`
	Mode         Mode       `json:"mode"`
	DepartureID  string     `json:"departure_id,omitempty"`
	ArrivalID    string     `json:"arrival_id,omitempty"`
	Quote        *FareQuote `json:"quote,omitempty"`
	ViewHistory  []View     `json:"view_history"`
	UserLocation *Point     `json:"user_location,omitempty"`
	MapReady     bool       `json:"map_ready"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
