package tmb

import (
	"bytes"
	"strconv"

	"github.com/goccy/go-json"
)

// FeatureCollection - ответ transit API TMB.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	ID         FlexString     `json:"id"`
	Geometry   *Geometry      `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Point возвращает (lat, lon) для геометрии Point. GeoJSON хранит [lon, lat].
func (g *Geometry) Point() (lat, lon float64, ok bool) {
	if g == nil || g.Type != "Point" {
		return 0, 0, false
	}
	var coords []float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil || len(coords) < 2 {
		return 0, 0, false
	}
	return coords[1], coords[0], true
}

// String достаёт свойство как строку; числа форматируются без экспоненты.
func (f *Feature) String(key string) string {
	switch v := f.Properties[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

func (f *Feature) Int(key string) int {
	switch v := f.Properties[key].(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

// FlexString принимает и строку, и число (TMB отдаёт коды по-разному).
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	*s = FlexString(string(b))
	return nil
}

func (s FlexString) String() string {
	return string(s)
}
