// Package wunderground implements the Weather Underground PWS v2 fetch
// client: rate-limited, retrying HTTP access to the current-conditions and
// hourly-history endpoints, normalized into observation.Raw records.
package wunderground

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/climecapsule/climecapsule/internal/common"
	"github.com/climecapsule/climecapsule/internal/observation"
)

const (
	currentEndpoint = "/observations/current"
	hourlyEndpoint  = "/history/hourly"
)

// Client fetches observations for a single station.
type Client struct {
	baseURL    string
	apiKey     string
	stationID  string
	httpClient *http.Client
	limiter    *Limiter
	circuit    *gobreaker.CircuitBreaker
}

// NewClient returns a fetch client for the given station. The supplied
// http.Client must carry a bounded timeout; an unbounded call would defeat
// the rate-limit discipline.
func NewClient(baseURL, apiKey, stationID string, httpClient *http.Client) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "wunderground",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		stationID:  stationID,
		httpClient: httpClient,
		limiter:    NewLimiter(),
		circuit:    cb,
	}
}

// FetchCurrent retrieves the station's current conditions, typically a single
// reading. The provider reports one value per quantity here, which is
// duplicated into the high/low/avg slots of the observation shape.
func (c *Client) FetchCurrent(ctx context.Context) ([]observation.Raw, error) {
	slog.Info("fetching current conditions", "station", c.stationID)

	var payload currentResponse
	if err := c.get(ctx, currentEndpoint, nil, &payload); err != nil {
		return nil, err
	}

	out := make([]observation.Raw, 0, len(payload.Observations))
	for _, obs := range payload.Observations {
		out = append(out, obs.toRaw())
	}
	return out, nil
}

// FetchHourly retrieves all hourly observations the provider has recorded
// for one calendar date: 0 to 24 entries, fewer while the day is still open.
func (c *Client) FetchHourly(ctx context.Context, day time.Time) ([]observation.Raw, error) {
	slog.Info("fetching hourly history", "station", c.stationID, "date", common.FormatDay(day))

	query := url.Values{}
	query.Set("date", common.CompactDay(day))

	var payload hourlyResponse
	if err := c.get(ctx, hourlyEndpoint, query, &payload); err != nil {
		return nil, err
	}

	out := make([]observation.Raw, 0, len(payload.Observations))
	for _, obs := range payload.Observations {
		out = append(out, obs.toRaw())
	}
	return out, nil
}

// get performs one rate-limited provider call and decodes the JSON body into
// target.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values, target any) error {
	values := url.Values{}
	values.Set("apiKey", c.apiKey)
	values.Set("stationId", c.stationID)
	values.Set("format", "json")
	values.Set("units", "e") // imperial
	for k, vs := range query {
		for _, v := range vs {
			values.Add(k, v)
		}
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, endpoint, values.Encode())

	return c.limiter.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}

		result, err := c.circuit.Execute(func() (interface{}, error) {
			resp, execErr := c.httpClient.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests {
				return nil, ErrRateLimited
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, endpoint)
			}

			return io.ReadAll(resp.Body)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return fmt.Errorf("circuit breaker open: %w", err)
			}
			return err
		}

		body, ok := result.([]byte)
		if !ok {
			return fmt.Errorf("unexpected result type from circuit breaker")
		}
		if err := json.Unmarshal(body, target); err != nil {
			return fmt.Errorf("decode %s response: %w", endpoint, err)
		}
		return nil
	})
}

// currentResponse is the wire shape of /observations/current. Quantities are
// singular here: temp, windSpeed, windChill.
type currentResponse struct {
	Observations []currentObservation `json:"observations"`
}

type currentObservation struct {
	StationID    string   `json:"stationID"`
	ObsTimeLocal string   `json:"obsTimeLocal"`
	Humidity     *float64 `json:"humidity"`
	Imperial     struct {
		Temp        *float64 `json:"temp"`
		WindSpeed   *float64 `json:"windSpeed"`
		WindChill   *float64 `json:"windChill"`
		PrecipRate  *float64 `json:"precipRate"`
		PrecipTotal *float64 `json:"precipTotal"`
	} `json:"imperial"`
}

func (o currentObservation) toRaw() observation.Raw {
	return observation.Raw{
		StationID:    o.StationID,
		ObsTimeLocal: o.ObsTimeLocal,

		TempHigh: o.Imperial.Temp,
		TempLow:  o.Imperial.Temp,
		TempAvg:  o.Imperial.Temp,

		Humidity: o.Humidity,

		WindSpeedHigh: o.Imperial.WindSpeed,
		WindSpeedLow:  o.Imperial.WindSpeed,
		WindSpeedAvg:  o.Imperial.WindSpeed,

		WindChillHigh: o.Imperial.WindChill,
		WindChillLow:  o.Imperial.WindChill,
		WindChillAvg:  o.Imperial.WindChill,

		PrecipRate:  o.Imperial.PrecipRate,
		PrecipTotal: o.Imperial.PrecipTotal,
	}
}

// hourlyResponse is the wire shape of /history/hourly, which reports
// high/low/avg per quantity.
type hourlyResponse struct {
	Observations []hourlyObservation `json:"observations"`
}

type hourlyObservation struct {
	StationID    string   `json:"stationID"`
	ObsTimeLocal string   `json:"obsTimeLocal"`
	HumidityAvg  *float64 `json:"humidityAvg"`
	Imperial     struct {
		TempHigh *float64 `json:"tempHigh"`
		TempLow  *float64 `json:"tempLow"`
		TempAvg  *float64 `json:"tempAvg"`

		WindSpeedHigh *float64 `json:"windspeedHigh"`
		WindSpeedLow  *float64 `json:"windspeedLow"`
		WindSpeedAvg  *float64 `json:"windspeedAvg"`

		WindChillHigh *float64 `json:"windchillHigh"`
		WindChillLow  *float64 `json:"windchillLow"`
		WindChillAvg  *float64 `json:"windchillAvg"`

		PrecipRate  *float64 `json:"precipRate"`
		PrecipTotal *float64 `json:"precipTotal"`
	} `json:"imperial"`
}

func (o hourlyObservation) toRaw() observation.Raw {
	return observation.Raw{
		StationID:    o.StationID,
		ObsTimeLocal: o.ObsTimeLocal,

		TempHigh: o.Imperial.TempHigh,
		TempLow:  o.Imperial.TempLow,
		TempAvg:  o.Imperial.TempAvg,

		Humidity: o.HumidityAvg,

		WindSpeedHigh: o.Imperial.WindSpeedHigh,
		WindSpeedLow:  o.Imperial.WindSpeedLow,
		WindSpeedAvg:  o.Imperial.WindSpeedAvg,

		WindChillHigh: o.Imperial.WindChillHigh,
		WindChillLow:  o.Imperial.WindChillLow,
		WindChillAvg:  o.Imperial.WindChillAvg,

		PrecipRate:  o.Imperial.PrecipRate,
		PrecipTotal: o.Imperial.PrecipTotal,
	}
}
