package domain

import "sort"

// BuildConnections заполняет ConnectionLineIDs: станции одного пересадочного узла
// (GroupKey) ссылаются на все линии группы, кроме собственной.
func BuildConnections(stations []Station) {
	groups := make(map[string]map[string]struct{})
	for i := range stations {
		s := &stations[i]
		if s.LineID == "" {
			continue
		}
		key := s.GroupKey()
		if groups[key] == nil {
			groups[key] = make(map[string]struct{})
		}
		groups[key][s.LineID] = struct{}{}
	}

	for i := range stations {
		s := &stations[i]
		if s.LineID == "" {
			s.ConnectionLineIDs = nil
			continue
		}
		lineIDs := groups[s.GroupKey()]
		conns := make([]string, 0, len(lineIDs))
		for id := range lineIDs {
			if id != s.LineID {
				conns = append(conns, id)
			}
		}
		sort.Strings(conns)
		s.ConnectionLineIDs = conns
	}
}
