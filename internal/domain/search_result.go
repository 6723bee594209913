package domain

// SearchResult - общий для всех режимов вид станции в поиске.
// У Bicing поля линии пустые.
type SearchResult struct {
	TransportType TransportType `json:"transport_type"`
	StationID     string        `json:"station_id"`
	Code          string        `json:"code"`
	Name          string        `json:"name"`
	Lat           float64       `json:"lat"`
	Lon           float64       `json:"lon"`
	LineID        string        `json:"line_id,omitempty"`
	LineCode      string        `json:"line_code,omitempty"`
	LineName      string        `json:"line_name,omitempty"`
	Color         string        `json:"color,omitempty"`
	HasAlerts     bool          `json:"has_alerts"`
	Distance      *float64      `json:"distance_km,omitempty"`
	Extra         ExtraData     `json:"extra,omitempty"`
}

func NewSearchResult(s Station) SearchResult {
	return SearchResult{
		TransportType: s.TransportType,
		StationID:     s.ID,
		Code:          s.Code,
		Name:          s.Name,
		Lat:           s.Lat,
		Lon:           s.Lon,
		LineID:        s.LineID,
		LineCode:      s.LineCode,
		LineName:      s.LineName,
		Color:         s.LineColor,
		HasAlerts:     s.HasAlerts,
		Distance:      s.Distance,
		Extra:         s.Extra,
	}
}
