package domain

import "strings"

// Официальные цвета линий (hex без "#").
var lineColors = map[TransportType]map[string]string{
	TransportTypeMetro: {
		"L1":   "E2001A",
		"L2":   "93248F",
		"L3":   "1EB53A",
		"L4":   "F7A30E",
		"L5":   "005A97",
		"L9N":  "F68B1F",
		"L9S":  "F68B1F",
		"L10N": "00A6D6",
		"L10S": "00A6D6",
		"L11":  "89B94C",
		"FM":   "004C38",
	},
	TransportTypeTram: {
		"T1": "008E78",
		"T2": "008E78",
		"T3": "008E78",
		"T4": "008E78",
		"T5": "008E78",
		"T6": "008E78",
	},
	TransportTypeRodalies: {
		"R1":  "7DBCEC",
		"R2":  "26A741",
		"R2N": "D0DF00",
		"R2S": "146520",
		"R3":  "EB4128",
		"R4":  "F6A22D",
		"R7":  "B57CBB",
		"R8":  "88016A",
		"R11": "0069AA",
		"R12": "FFDD00",
		"R13": "E8308A",
		"R14": "5E4295",
		"R15": "9A8B75",
		"R16": "B20933",
		"R17": "F3B12E",
		"RG1": "0071CE",
		"RT1": "00C1B1",
		"RT2": "E577CB",
		"RL3": "949300",
		"RL4": "FFDC00",
	},
	TransportTypeFGC: {
		"L6":  "7F84BC",
		"L7":  "B0572A",
		"L8":  "EE6FA7",
		"L12": "B9B7DB",
		"S1":  "F58220",
		"S2":  "A2C13C",
		"S3":  "0A85C7",
		"S4":  "A9A032",
		"S8":  "0B7BC1",
		"S9":  "EC6A9C",
		"R5":  "00B6E8",
		"R50": "00B6E8",
		"R53": "00B6E8",
		"R6":  "8C8B8E",
		"R60": "8C8B8E",
	},
}

// Цвета семейств автобусов по префиксу кода.
var busFamilyColors = map[string]string{
	"H": "2D3E8C",
	"V": "6EBE49",
	"D": "8A2473",
	"X": "E2001A",
	"N": "00264D",
}

var defaultColors = map[TransportType]string{
	TransportTypeMetro:    "E2001A",
	TransportTypeBus:      "DC241F",
	TransportTypeTram:     "008E78",
	TransportTypeRodalies: "E30613",
	TransportTypeFGC:      "F58220",
	TransportTypeBicing:   "D60F24",
}

const fallbackColor = "808080"

// ResolveColor: цвет провайдера (без "#") -> таблица режима по имени -> цвет режима по умолчанию.
func ResolveColor(name string, mode TransportType, providerColor string) string {
	if c := strings.TrimPrefix(strings.TrimSpace(providerColor), "#"); c != "" {
		return c
	}

	key := strings.ToUpper(strings.TrimSpace(name))
	if c, ok := lineColors[mode][key]; ok {
		return c
	}
	if mode == TransportTypeBus && key != "" {
		if c, ok := busFamilyColors[key[:1]]; ok && len(key) > 1 && isDigits(key[1:]) {
			return c
		}
	}

	if c, ok := defaultColors[mode]; ok {
		return c
	}
	return fallbackColor
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
