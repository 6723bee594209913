package domain

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Известные ключи ExtraData.
//
//	metro:    group_code, station_line_id, realtime_id
//	bus:      direction, destination, outbound_code, return_code, address
//	tram:     direction, destination
//	rodalies, fgc: parent_station, platform
//	bicing:   bikes, mechanical_bikes, electrical_bikes, docks, capacity, status, address
const (
	ExtraGroupCode       = "group_code"
	ExtraDirection       = "direction"
	ExtraDestination     = "destination"
	ExtraStationLineID   = "station_line_id"
	ExtraOutboundCode    = "outbound_code"
	ExtraReturnCode      = "return_code"
	ExtraRealtimeID      = "realtime_id"
	ExtraParentStation   = "parent_station"
	ExtraPlatform        = "platform"
	ExtraBikes           = "bikes"
	ExtraMechanicalBikes = "mechanical_bikes"
	ExtraElectricalBikes = "electrical_bikes"
	ExtraDocks           = "docks"
	ExtraCapacity        = "capacity"
	ExtraStatus          = "status"
	ExtraAddress         = "address"
)

// ExtraData - поля провайдера вне канонической модели.
type ExtraData map[string]string

func (e ExtraData) Get(key string) string {
	if e == nil {
		return ""
	}
	return e[key]
}

// Value реализует driver.Valuer (jsonb).
func (e ExtraData) Value() (driver.Value, error) {
	if e == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(e)
}

// Scan реализует sql.Scanner.
func (e *ExtraData) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*e = ExtraData{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("extra data: unsupported type %T", src)
	}
	out := ExtraData{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("extra data: %w", err)
	}
	*e = out
	return nil
}

// ExtraSchema - whitelist канонических колонок режима и переименования
// для известных ключей. Всё остальное сохраняется как есть (ключ в нижнем регистре).
type ExtraSchema struct {
	columns map[string]struct{}
	renames map[string]string
}

func NewExtraSchema(columns []string, renames map[string]string) ExtraSchema {
	s := ExtraSchema{
		columns: make(map[string]struct{}, len(columns)),
		renames: make(map[string]string, len(renames)),
	}
	for _, c := range columns {
		s.columns[strings.ToLower(c)] = struct{}{}
	}
	for from, to := range renames {
		s.renames[strings.ToLower(from)] = to
	}
	return s
}

// Capture собирает ExtraData из сырых свойств провайдера.
func (s ExtraSchema) Capture(props map[string]any) ExtraData {
	out := ExtraData{}
	for k, v := range props {
		key := strings.ToLower(k)
		if _, canonical := s.columns[key]; canonical {
			continue
		}
		str, ok := stringify(v)
		if !ok {
			continue
		}
		if renamed, ok := s.renames[key]; ok {
			key = renamed
		}
		out[key] = str
	}
	return out
}

func stringify(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}
