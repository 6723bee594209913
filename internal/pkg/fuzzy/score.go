package fuzzy

import (
	fuzzywuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Score - взвешенное сходство 0..100 (WRatio без принудительного ASCII).
// Пустая после обработки строка даёт 0.
func Score(a, b string) float64 {
	return float64(fuzzywuzzy.UWRatio(a, b))
}
