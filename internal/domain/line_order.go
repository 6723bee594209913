package domain

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// Группы сортировки автобусов: номерные, H, V, D, прочие буквенные, спец-маршруты.
const (
	busGroupNumeric = iota
	busGroupH
	busGroupV
	busGroupD
	busGroupLettered
	busGroupSpecial
)

type lineOrderKey struct {
	group  int
	prefix string
	num    int
	suffix string
}

func splitCode(code string) (prefix string, num int, hasNum bool, suffix string) {
	code = strings.ToUpper(strings.TrimSpace(code))
	i := 0
	for i < len(code) && code[i] >= 'A' && code[i] <= 'Z' {
		i++
	}
	prefix = code[:i]
	j := i
	for j < len(code) && code[j] >= '0' && code[j] <= '9' {
		j++
	}
	if j > i {
		num, _ = strconv.Atoi(code[i:j])
		hasNum = true
	}
	return prefix, num, hasNum, code[j:]
}

func orderKey(mode TransportType, code string) lineOrderKey {
	prefix, num, hasNum, suffix := splitCode(code)
	key := lineOrderKey{prefix: prefix, num: num, suffix: suffix}

	if mode != TransportTypeBus {
		if !hasNum {
			key.group = 1
		}
		return key
	}

	switch {
	case !hasNum || suffix != "":
		key.group = busGroupSpecial
	case prefix == "":
		key.group = busGroupNumeric
	case prefix == "H":
		key.group = busGroupH
	case prefix == "V":
		key.group = busGroupV
	case prefix == "D":
		key.group = busGroupD
	default:
		key.group = busGroupLettered
	}
	return key
}

// SortLines - стабильная сортировка с учётом режима; при равенстве - по имени.
func SortLines(lines []Line) {
	slices.SortStableFunc(lines, func(a, b Line) int {
		ka := orderKey(a.TransportType, a.Code)
		kb := orderKey(b.TransportType, b.Code)
		return cmp.Or(
			cmp.Compare(ka.group, kb.group),
			cmp.Compare(ka.prefix, kb.prefix),
			cmp.Compare(ka.num, kb.num),
			cmp.Compare(ka.suffix, kb.suffix),
			cmp.Compare(a.Name, b.Name),
		)
	})
}
