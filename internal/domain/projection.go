package domain

// Panels - какие элементы интерфейса должны быть видны
type Panels struct {
	DepartureInfo     bool `json:"departure_info"`
	ArrivalInfo       bool `json:"arrival_info"`
	ChooseDestination bool `json:"choose_destination"`
	Scene             bool `json:"scene"`
	Fare              bool `json:"fare"`
	ViewAllStations   bool `json:"view_all_stations"`
	LocateMe          bool `json:"locate_me"`
}

// Projection - набор маркеров и панелей для отрисовки
type Projection struct {
	Stations  []*Station  `json:"stations"`
	Districts []*District `json:"districts"`
	Panels    Panels      `json:"panels"`
	// Rings - радиусы окружностей вокруг пользователя, метры
	Rings []float64 `json:"rings,omitempty"`
}
