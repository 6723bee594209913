package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAlert_IsRelevantTo(t *testing.T) {
	alert123 := Alert{
		TransportType:    TransportTypeMetro,
		AffectedEntities: []AffectedEntity{{StationCode: "123"}},
	}
	alert999 := Alert{
		TransportType:    TransportTypeMetro,
		AffectedEntities: []AffectedEntity{{StationCode: "999"}},
	}
	lineAlert := Alert{
		TransportType:    TransportTypeMetro,
		AffectedEntities: []AffectedEntity{{LineCode: "L1", LineName: "L1"}},
	}

	tests := []struct {
		name     string
		alert    Alert
		favorite Favorite
		expected bool
	}{
		{"station code match", alert123, Favorite{TransportType: TransportTypeMetro, StationCode: "123"}, true},
		{"station code mismatch", alert999, Favorite{TransportType: TransportTypeMetro, StationCode: "123"}, false},
		{"other mode", alert123, Favorite{TransportType: TransportTypeBus, StationCode: "123"}, false},
		{"line code match", lineAlert, Favorite{TransportType: TransportTypeMetro, StationCode: "555", LineCode: "L1"}, true},
		{"empty codes never match", Alert{TransportType: TransportTypeMetro, AffectedEntities: []AffectedEntity{{}}}, Favorite{TransportType: TransportTypeMetro}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.alert.IsRelevantTo(tt.favorite))
		})
	}
}

func TestAlert_ActiveAndRecent(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	open := Alert{BeginDate: now.Add(-2 * time.Hour)}
	ended := Alert{BeginDate: now.Add(-48 * time.Hour), EndDate: &past}
	ongoing := Alert{BeginDate: now.Add(-25 * time.Hour), EndDate: &future}

	assert.True(t, open.IsActive(now))
	assert.False(t, ended.IsActive(now))
	assert.True(t, ongoing.IsActive(now))

	assert.True(t, open.IsRecent(now))
	assert.False(t, ongoing.IsRecent(now))
}

func TestBuildAlertsMap_OncePerLine(t *testing.T) {
	a := Alert{ID: "metro-1", AffectedEntities: []AffectedEntity{
		{LineName: "L1", StationCode: "1"},
		{LineName: "L1", StationCode: "2"},
		{LineName: "L3"},
		{StationCode: "3"},
	}}
	b := Alert{ID: "metro-2", AffectedEntities: []AffectedEntity{{LineName: "L1"}}}

	m := BuildAlertsMap([]Alert{a, b})

	assert.Len(t, m, 2)
	assert.Len(t, m.For("L1"), 2)
	assert.Len(t, m.For("L3"), 1)
	assert.Empty(t, m.For("L5"))
	assert.Empty(t, m.For(""))
}

func TestAlert_PublicationFor(t *testing.T) {
	a := Alert{Publications: []Publication{
		{Language: "ca", Title: "Avís"},
		{Language: "es", Title: "Aviso"},
	}}

	p, ok := a.PublicationFor("es")
	assert.True(t, ok)
	assert.Equal(t, "Aviso", p.Title)

	p, ok = a.PublicationFor("en")
	assert.True(t, ok)
	assert.Equal(t, "Avís", p.Title)

	_, ok = (&Alert{}).PublicationFor("en")
	assert.False(t, ok)
}

func TestSetAlerts_RecomputesFlag(t *testing.T) {
	var l Line
	l.SetAlerts([]Alert{{ID: "x"}})
	assert.True(t, l.HasAlerts)

	l.SetAlerts(nil)
	assert.False(t, l.HasAlerts)
	assert.NotNil(t, l.Alerts)
}
