package domain

// Point - координата WGS84
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BoundingBox - прямоугольник, охватывающий набор точек
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// NewBoundingBox строит bbox по точкам; ok=false для пустого набора
func NewBoundingBox(points []Point) (BoundingBox, bool) {
	if len(points) == 0 {
		return BoundingBox{}, false
	}
	box := BoundingBox{
		MinLat: points[0].Lat,
		MinLng: points[0].Lng,
		MaxLat: points[0].Lat,
		MaxLng: points[0].Lng,
	}
	for _, p := range points[1:] {
		if p.Lat < box.MinLat {
			box.MinLat = p.Lat
		}
		if p.Lat > box.MaxLat {
			box.MaxLat = p.Lat
		}
		if p.Lng < box.MinLng {
			box.MinLng = p.Lng
		}
		if p.Lng > box.MaxLng {
			box.MaxLng = p.Lng
		}
	}
	return box, true
}

// Center - центр bbox
func (b BoundingBox) Center() Point {
	return Point{
		Lat: (b.MinLat + b.MaxLat) / 2,
		Lng: (b.MinLng + b.MaxLng) / 2,
	}
}
