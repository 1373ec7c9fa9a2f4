package domain

// ViewName - именованная позиция камеры
type ViewName string

const (
	ViewCity     ViewName = "City"
	ViewDistrict ViewName = "District"
	ViewStation  ViewName = "Station"
	ViewMe       ViewName = "Me"
	ViewDrive    ViewName = "Drive"
)

// View - поза камеры. Никогда не изменяется после создания
type View struct {
	Name    ViewName `json:"name"`
	Center  Point    `json:"center"`
	Zoom    float64  `json:"zoom"`
	Tilt    *float64 `json:"tilt,omitempty"`
	Heading *float64 `json:"heading,omitempty"`

	DistrictName string `json:"district_name,omitempty"`
	StationName  string `json:"station_name,omitempty"`
	// RouteSummary заполняется только для Drive
	RouteSummary string `json:"route_summary,omitempty"`
}

// Float возвращает указатель на значение; удобно для Tilt/Heading
func Float(v float64) *float64 {
	return &v
}

// CameraCommandType - команда камеры для клиента карты
type CameraCommandType string

const (
	CameraPanTo      CameraCommandType = "pan_to"
	CameraSetZoom    CameraCommandType = "set_zoom"
	CameraSetTilt    CameraCommandType = "set_tilt"
	CameraSetHeading CameraCommandType = "set_heading"
	CameraFitBounds  CameraCommandType = "fit_bounds"
)

// CameraCommand - записанная команда, которую клиент воспроизводит у себя
type CameraCommand struct {
	Seq    int64             `json:"seq"`
	Type   CameraCommandType `json:"type"`
	Center *Point            `json:"center,omitempty"`
	Value  *float64          `json:"value,omitempty"`
	Bounds *BoundingBox      `json:"bounds,omitempty"`
}
