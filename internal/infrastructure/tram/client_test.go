package tram_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/config"
	"github.com/transit-aggregator/internal/infrastructure/tram"
)

func newTestClient(t *testing.T) *tram.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/lines", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"code":"T1","name":"T1","origin":"Francesc Macià","destination":"Bon Viatge","color":"#00A650"}]`))
	})
	mux.HandleFunc("/lines/1/stops", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":101,"code":"FMA","name":"Francesc Macià","latitude":41.3925,"longitude":"2.1436","order":1,"accessible":true}]`))
	})
	mux.HandleFunc("/alerts", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"a1","begin_date":"2024-05-01T08:00:00Z","title":{"es":"Obras"},"lines":["T1"],"stops":[{"code":"FMA","name":"Francesc Macià","line":"T1"}]}]`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return tram.NewClient(config.ProviderConfig{BaseURL: server.URL}, zap.NewNop())
}

func TestClient_Lines(t *testing.T) {
	lines, err := newTestClient(t).Lines(context.Background())

	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "1", lines[0].String("id"))
	assert.Equal(t, "T1", lines[0].String("code"))
}

func TestClient_Stops(t *testing.T) {
	stops, err := newTestClient(t).Stops(context.Background(), "1")

	require.NoError(t, err)
	require.Len(t, stops, 1)
	lat, ok := stops[0].Float("latitude")
	assert.True(t, ok)
	assert.Equal(t, 41.3925, lat)
	lon, ok := stops[0].Float("longitude")
	assert.True(t, ok)
	assert.Equal(t, 2.1436, lon)
	assert.Equal(t, 1, stops[0].Int("order"))
	assert.Equal(t, "true", stops[0].String("accessible"))
}

func TestClient_Alerts(t *testing.T) {
	alerts, err := newTestClient(t).Alerts(context.Background())

	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Obras", alerts[0].Title["es"])
	assert.Equal(t, []string{"T1"}, alerts[0].Lines)
	assert.Equal(t, "FMA", alerts[0].Stops[0].Code)
}

func TestClient_StopsUnknownLine(t *testing.T) {
	_, err := newTestClient(t).Stops(context.Background(), "99")

	assert.Error(t, err)
}
