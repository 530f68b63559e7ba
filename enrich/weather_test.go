package enrich_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayplan/wayplan/enrich"
)

const forecastBody = `{
	"list": [
		{"main": {"temp": 24.3, "humidity": 70}, "weather": [{"description": "light rain"}]},
		{"main": {"temp": 27.8, "humidity": 65}, "weather": [{"description": "light rain"}]},
		{"main": {"temp": 31.2, "humidity": 60}, "weather": [{"description": "clear sky"}]},
		{"main": {"temp": 29.0, "humidity": 62}, "weather": [{"description": "scattered clouds"}]}
	],
	"city": {"name": "Panaji"}
}`

func TestForecast_Summarises(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "Goa", q.Get("q"))
		assert.Equal(t, "metric", q.Get("units"))
		assert.Equal(t, "16", q.Get("cnt"), "2 days at 8 intervals each")
		assert.NotEmpty(t, q.Get("appid"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(forecastBody))
	}))
	defer server.Close()

	client := enrich.NewWeatherClient(server.URL, "test-key", time.Second)
	require.True(t, client.Enabled())

	fc, err := client.Forecast(context.Background(), "Goa", 2)
	require.NoError(t, err)
	require.NotNil(t, fc)

	assert.Equal(t, "Panaji", fc.Location, "API city name wins over the query")
	assert.Equal(t, "24-31°C", fc.TempRange)
	// Most frequent condition first, ties broken alphabetically.
	assert.Equal(t, "light rain, clear sky", fc.Summary)
}

func TestForecast_DisabledWithoutKey(t *testing.T) {
	client := enrich.NewWeatherClient("http://unused.invalid", "", time.Second)
	assert.False(t, client.Enabled())

	fc, err := client.Forecast(context.Background(), "Goa", 2)
	assert.NoError(t, err)
	assert.Nil(t, fc, "a missing key is a skip, not a failure")
}

func TestForecast_EmptyLocation(t *testing.T) {
	client := enrich.NewWeatherClient("http://unused.invalid", "key", time.Second)

	fc, err := client.Forecast(context.Background(), "", 2)
	assert.NoError(t, err)
	assert.Nil(t, fc)
}

func TestForecast_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "city not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := enrich.NewWeatherClient(server.URL, "key", time.Second)

	_, err := client.Forecast(context.Background(), "Nowhereville", 1)
	assert.Error(t, err)
}

func TestForecast_EmptyList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"list": [], "city": {"name": "Goa"}}`))
	}))
	defer server.Close()

	client := enrich.NewWeatherClient(server.URL, "key", time.Second)

	_, err := client.Forecast(context.Background(), "Goa", 1)
	assert.Error(t, err)
}

func TestForecast_ClampsDays(t *testing.T) {
	var cnt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cnt = r.URL.Query().Get("cnt")
		w.Write([]byte(forecastBody))
	}))
	defer server.Close()

	client := enrich.NewWeatherClient(server.URL, "key", time.Second)

	_, err := client.Forecast(context.Background(), "Goa", 14)
	require.NoError(t, err)
	assert.Equal(t, "40", cnt, "the API serves at most 5 days")
}
