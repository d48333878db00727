package wunderground

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tj/assert"
)

const currentBody = `{
	"observations": [{
		"stationID": "KCODENVE99",
		"obsTimeLocal": "2024-03-04 14:32:10",
		"humidity": 41,
		"imperial": {
			"temp": 52.3,
			"windSpeed": 7.1,
			"windChill": 50.0,
			"precipRate": 0.0,
			"precipTotal": 0.02
		}
	}]
}`

const hourlyBody = `{
	"observations": [{
		"stationID": "KCODENVE99",
		"obsTimeLocal": "2024-03-04 08:59:41",
		"humidityAvg": 55,
		"imperial": {
			"tempHigh": 44.1, "tempLow": 42.8, "tempAvg": 43.5,
			"windspeedHigh": 9.0, "windspeedLow": 0.0, "windspeedAvg": 3.2,
			"windchillHigh": 44.1, "windchillLow": 40.2, "windchillAvg": 42.0,
			"precipRate": 0.0, "precipTotal": 0.0
		}
	}, {
		"stationID": "KCODENVE99",
		"obsTimeLocal": "2024-03-04 09:59:41",
		"imperial": {}
	}]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "test-key", "KCODENVE99", srv.Client())
	// Keep retry delays out of test runtime.
	c.limiter.baseDelay = time.Millisecond
	return c
}

func TestFetchCurrent(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Write([]byte(currentBody))
	})

	observations, err := c.FetchCurrent(context.Background())
	assert.NoError(t, err)

	assert.Equal(t, "/observations/current", gotPath)
	assert.Equal(t, "test-key", gotQuery["apiKey"][0])
	assert.Equal(t, "KCODENVE99", gotQuery["stationId"][0])
	assert.Equal(t, "json", gotQuery["format"][0])
	assert.Equal(t, "e", gotQuery["units"][0])
	_, hasDate := gotQuery["date"]
	assert.False(t, hasDate)

	assert.Len(t, observations, 1)
	obs := observations[0]
	assert.Equal(t, "KCODENVE99", obs.StationID)
	assert.Equal(t, "2024-03-04 14:32:10", obs.ObsTimeLocal)
	// The single current value fills all three slots per quantity.
	assert.Equal(t, 52.3, *obs.TempHigh)
	assert.Equal(t, 52.3, *obs.TempLow)
	assert.Equal(t, 52.3, *obs.TempAvg)
	assert.Equal(t, 7.1, *obs.WindSpeedAvg)
	assert.Equal(t, 50.0, *obs.WindChillLow)
	assert.Equal(t, 41.0, *obs.Humidity)
	assert.Equal(t, 0.02, *obs.PrecipTotal)
}

func TestFetchHourly(t *testing.T) {
	var gotQuery map[string][]string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(hourlyBody))
	})

	day := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	observations, err := c.FetchHourly(context.Background(), day)
	assert.NoError(t, err)

	assert.Equal(t, "20240304", gotQuery["date"][0])
	assert.Len(t, observations, 2)

	obs := observations[0]
	assert.Equal(t, 44.1, *obs.TempHigh)
	assert.Equal(t, 42.8, *obs.TempLow)
	assert.Equal(t, 43.5, *obs.TempAvg)
	assert.Equal(t, 55.0, *obs.Humidity)
	assert.Equal(t, 3.2, *obs.WindSpeedAvg)
	assert.Equal(t, 40.2, *obs.WindChillLow)

	// Omitted fields stay nil rather than becoming zero.
	sparse := observations[1]
	assert.Nil(t, sparse.TempHigh)
	assert.Nil(t, sparse.Humidity)
	assert.Nil(t, sparse.PrecipRate)
}

func TestFetchErrorOnBadStatus(t *testing.T) {
	requests := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.FetchCurrent(context.Background())
	assert.Error(t, err)
	// Plain server errors are not retried.
	assert.Equal(t, 1, requests)
}

func TestFetchRetriesRateLimit(t *testing.T) {
	requests := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(currentBody))
	})

	observations, err := c.FetchCurrent(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, requests)
	assert.Len(t, observations, 1)
}

func TestFetchErrorOnMalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	})

	_, err := c.FetchCurrent(context.Background())
	assert.Error(t, err)
}
