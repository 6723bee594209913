package fuzzy

import (
	"sort"
	"strings"
)

// DefaultThreshold - минимальный Score для третьего уровня.
const DefaultThreshold = 75.0

// Match ищет query среди items в три уровня:
//  1. подстрока без учёта регистра;
//  2. подстрока после Normalize (без диакритики);
//  3. Score >= threshold, по убыванию score.
//
// Каждый элемент попадает в результат не более одного раза, уровни идут по порядку.
// Пустой query сюда не передаётся: вызывающий код сам возвращает полный список.
func Match[T any](query string, items []T, nameOf func(T) string, threshold float64) []T {
	if len(items) == 0 {
		return nil
	}

	lowerQuery := strings.ToLower(query)
	normQuery := Normalize(query)

	result := make([]T, 0)
	remaining := make([]int, 0, len(items))

	for i, item := range items {
		if strings.Contains(strings.ToLower(nameOf(item)), lowerQuery) {
			result = append(result, item)
			continue
		}
		remaining = append(remaining, i)
	}

	rest := remaining[:0]
	for _, i := range remaining {
		if normQuery != "" && strings.Contains(Normalize(nameOf(items[i])), normQuery) {
			result = append(result, items[i])
			continue
		}
		rest = append(rest, i)
	}

	type scored struct {
		idx   int
		score float64
	}
	var candidates []scored
	for _, i := range rest {
		if score := Score(normQuery, Normalize(nameOf(items[i]))); score >= threshold {
			candidates = append(candidates, scored{idx: i, score: score})
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})
	for _, c := range candidates {
		result = append(result, items[c.idx])
	}

	return result
}
