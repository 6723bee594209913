package tmb_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/config"
	"github.com/transit-aggregator/internal/infrastructure/tmb"
)

func newTestClient(t *testing.T, routes map[string]string) *tmb.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "app", r.URL.Query().Get("app_id"))
		assert.Equal(t, "secret", r.URL.Query().Get("app_key"))
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return tmb.NewClient(config.ProviderConfig{
		BaseURL: server.URL,
		AppID:   "app",
		AppKey:  "secret",
	}, zap.NewNop())
}

func TestClient_Lines(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/transit/linies/metro": `{"type":"FeatureCollection","features":[
			{"id":"L1","geometry":null,"properties":{"ID_LINIA":1,"CODI_LINIA":1,"NOM_LINIA":"L1","COLOR_LINIA":"E2001A"}}
		]}`,
	})

	fc, err := client.Lines(context.Background(), tmb.NetworkMetro)

	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	f := fc.Features[0]
	assert.Equal(t, "1", f.String("CODI_LINIA"))
	assert.Equal(t, "L1", f.String("NOM_LINIA"))
	assert.Equal(t, 1, f.Int("ID_LINIA"))
	assert.Equal(t, "", f.String("MISSING"))
}

func TestClient_Stations(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/transit/linies/bus/V15/parades": `{"features":[
			{"geometry":{"type":"Point","coordinates":[2.17,41.38]},"properties":{"CODI_PARADA":123,"NOM_PARADA":"Pl. Catalunya"}}
		]}`,
	})

	fc, err := client.Stations(context.Background(), tmb.NetworkBus, "V15")

	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	lat, lon, ok := fc.Features[0].Geometry.Point()
	assert.True(t, ok)
	assert.Equal(t, 41.38, lat)
	assert.Equal(t, 2.17, lon)
	assert.Equal(t, "123", fc.Features[0].String("CODI_PARADA"))
}

func TestClient_Alerts(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/alerts/metro/channels/WEB": `{"status":"success","data":{"alerts":[
			{"id":42,"begin_date":1700000000000,"end_date":null,"status":"ACTIVE","cause":"OBRES",
			 "publications":[{"headerEs":"Obras","textEs":"Cerrada"}],
			 "entities":[{"line_code":1,"line_name":"L1","station_code":"111","station_name":"Hospital de Bellvitge"}]}
		]}}`,
	})

	alerts, err := client.Alerts(context.Background(), tmb.NetworkMetro)

	require.NoError(t, err)
	require.Len(t, alerts, 1)
	a := alerts[0]
	assert.Equal(t, "42", a.ID.String())
	assert.Nil(t, a.EndDate)
	assert.Equal(t, "Obras", a.Publications[0].HeaderEs)
	assert.Equal(t, "1", a.Entities[0].LineCode.String())
	assert.Equal(t, "111", a.Entities[0].StationCode.String())
}

func TestClient_MetroArrivals(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/itransit/metro/estacions": `{"timestamp":1700000000000,"linies":[
			{"codi_linia":1,"nom_linia":"L1","color_linia":"E2001A","estacions":[
				{"codi_estacio":111,"linies_trajectes":[
					{"desti_trajecte":"Fondo","propers_trens":[{"codi_servei":"101","temps_arribada":1700000060000}]}
				]}
			]}
		]}`,
	})

	arrivals, err := client.MetroArrivals(context.Background(), "111")

	require.NoError(t, err)
	require.Len(t, arrivals, 1)
	assert.Equal(t, tmb.Arrival{
		LineCode:    "1",
		LineName:    "L1",
		Color:       "E2001A",
		Destination: "Fondo",
		ArrivalTime: 1700000060000,
		TripID:      "101",
	}, arrivals[0])
}

func TestClient_BusArrivals(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/itransit/bus/parades/123": `{"parades":[{"codi_parada":"123","linies_trajectes":[
			{"codi_linia":"V15","nom_linia":"V15","desti_trajecte":"Barceloneta","propers_busos":[
				{"id_bus":5001,"temps_arribada":1700000120000},
				{"id_bus":5002,"temps_arribada":1700000600000}
			]}
		]}]}`,
	})

	arrivals, err := client.BusArrivals(context.Background(), "123")

	require.NoError(t, err)
	require.Len(t, arrivals, 2)
	assert.Equal(t, "V15", arrivals[0].LineCode)
	assert.Equal(t, "5002", arrivals[1].TripID)
}

func TestClient_NotFound(t *testing.T) {
	client := newTestClient(t, map[string]string{})

	_, err := client.Lines(context.Background(), tmb.NetworkBus)

	assert.Error(t, err)
}
