package domain

// Station - станция из справочника; неизменяема после загрузки
type Station struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Address      string `json:"address"`
	Position     Point  `json:"position"`
	DistrictName string `json:"district_name"`
}

// District - группа станций; выбирается только для фокуса камеры
type District struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Position    Point  `json:"position"`
	Description string `json:"description,omitempty"`
}

// TargetKind - тип объекта, по которому кликнул пользователь
type TargetKind string

const (
	TargetStation  TargetKind = "station"
	TargetDistrict TargetKind = "district"
)

// Target - tagged union для клика по маркеру: ровно одно из Station/District задано
type Target struct {
	Kind     TargetKind
	Station  *Station
	District *District
}

func StationTarget(s *Station) Target {
	return Target{Kind: TargetStation, Station: s}
}

func DistrictTarget(d *District) Target {
	return Target{Kind: TargetDistrict, District: d}
}
