package domain

import (
	"errors"
	"fmt"
	"strings"
)

// TransportType - режим транспорта.
type TransportType string

// Transport type constants
const (
	TransportTypeMetro    TransportType = "metro"
	TransportTypeBus      TransportType = "bus"
	TransportTypeTram     TransportType = "tram"
	TransportTypeRodalies TransportType = "rodalies"
	TransportTypeFGC      TransportType = "fgc"
	TransportTypeBicing   TransportType = "bicing"
)

var ErrUnknownTransportType = errors.New("unknown transport type")

// ValidTransportTypes returns list of valid transport types
func ValidTransportTypes() []TransportType {
	return []TransportType{
		TransportTypeMetro,
		TransportTypeBus,
		TransportTypeTram,
		TransportTypeRodalies,
		TransportTypeFGC,
		TransportTypeBicing,
	}
}

// ParseTransportType разбирает режим без учёта регистра.
func ParseTransportType(s string) (TransportType, error) {
	candidate := TransportType(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range ValidTransportTypes() {
		if t == candidate {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTransportType, s)
}

// IsValidTransportType checks if transport type is valid
func IsValidTransportType(transportType string) bool {
	_, err := ParseTransportType(transportType)
	return err == nil
}

func (t TransportType) String() string {
	return string(t)
}

// HasLines - у Bicing нет линий, станции не привязаны к линии.
func (t TransportType) HasLines() bool {
	return t != TransportTypeBicing
}

// Pictogram используется в display name линии.
func (t TransportType) Pictogram() string {
	switch t {
	case TransportTypeMetro:
		return "🚇"
	case TransportTypeBus:
		return "🚌"
	case TransportTypeTram:
		return "🚊"
	case TransportTypeRodalies:
		return "🚆"
	case TransportTypeFGC:
		return "🚞"
	case TransportTypeBicing:
		return "🚲"
	default:
		return ""
	}
}
