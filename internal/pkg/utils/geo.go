package utils

import "math"

const (
	earthRadiusKm = 6371.0
	// kmPerDegree - длина одного градуса широты (приближение).
	kmPerDegree = 111.0
)

// HaversineDistance вычисляет расстояние между двумя точками в километрах
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	lat1Rad := lat1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// BoundingBox - прямоугольник для дешёвой предфильтрации перед haversine.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// NewBoundingBox строит bbox ±r/111° по широте и ±r/(111·cos lat)° по долготе.
func NewBoundingBox(lat, lon, radiusKm float64) BoundingBox {
	dLat := radiusKm / kmPerDegree
	cosLat := math.Cos(lat * math.Pi / 180.0)
	dLon := 180.0
	if cosLat > 1e-9 {
		dLon = radiusKm / (kmPerDegree * cosLat)
	}
	return BoundingBox{
		MinLat: lat - dLat,
		MaxLat: lat + dLat,
		MinLon: lon - dLon,
		MaxLon: lon + dLon,
	}
}

func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// ValidateCoordinates проверяет валидность координат
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ValidateRadius проверяет валидность радиуса (0.1 - 100 км)
func ValidateRadius(radiusKm float64) bool {
	return radiusKm >= 0.1 && radiusKm <= 100
}
