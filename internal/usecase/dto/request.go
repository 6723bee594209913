package dto

// SearchRequest - поиск станций по имени с необязательной точкой пользователя.
// Пустое имя - все станции.
type SearchRequest struct {
	Name     string   `json:"name" validate:"omitempty,max=100"`
	Lat      *float64 `json:"lat,omitempty" validate:"omitempty,min=-90,max=90"`
	Lon      *float64 `json:"lon,omitempty" validate:"omitempty,min=-180,max=180"`
	RadiusKm *float64 `json:"radius,omitempty" validate:"omitempty,min=0.1,max=100"`
	Limit    *int     `json:"limit,omitempty" validate:"omitempty,min=1,max=500"`
}

// NearRequest - станции рядом с точкой
type NearRequest struct {
	Lat      float64  `json:"lat" validate:"min=-90,max=90"`
	Lon      float64  `json:"lon" validate:"min=-180,max=180"`
	RadiusKm *float64 `json:"radius,omitempty" validate:"omitempty,min=0.1,max=100"`
	Limit    *int     `json:"limit,omitempty" validate:"omitempty,min=1,max=500"`
}

// SyncRequest - admin-запрос на внеплановую синхронизацию
type SyncRequest struct {
	Mode   string `json:"mode" validate:"required,transport_type"`
	Entity string `json:"entity" validate:"required,oneof=lines stations"`
}
