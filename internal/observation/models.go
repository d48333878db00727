package observation

// Layouts used for station-local civil timestamps. The provider reports
// local time without a zone offset, so these are parsed without a location.
const (
	TimeLayout = "2006-01-02 15:04:05"
	DayLayout  = "2006-01-02"
	// FriendlyLayout is the long-form date used in daily summaries.
	FriendlyLayout = "January 02, 2006"
)

// Raw is a single instrument reading for one station at one local timestamp.
// All numeric fields are imperial units. A nil field means the provider
// omitted it; missing is never coerced to zero.
type Raw struct {
	StationID    string `json:"stationID"`
	ObsTimeLocal string `json:"obsTimeLocal"`

	TempHigh *float64 `json:"tempHigh"`
	TempLow  *float64 `json:"tempLow"`
	TempAvg  *float64 `json:"tempAvg"`

	Humidity *float64 `json:"humidityAvg"`

	WindSpeedHigh *float64 `json:"windspeedHigh"`
	WindSpeedLow  *float64 `json:"windspeedLow"`
	WindSpeedAvg  *float64 `json:"windspeedAvg"`

	WindChillHigh *float64 `json:"windchillHigh"`
	WindChillLow  *float64 `json:"windchillLow"`
	WindChillAvg  *float64 `json:"windchillAvg"`

	PrecipRate  *float64 `json:"precipRate"`
	PrecipTotal *float64 `json:"precipTotal"`
}

// Summary is the reduction of one day's raw observations into a single
// record. It is derived on demand and never persisted.
type Summary struct {
	StationID    string `json:"station_id"`
	ObsTimeLocal string `json:"obs_time_local"`
	FriendlyDate string `json:"friendly_date"`

	TempHigh float64 `json:"temp_high"`
	TempLow  float64 `json:"temp_low"`
	TempAvg  float64 `json:"temp_avg"`

	WindSpeedHigh float64 `json:"windspeed_high"`
	WindSpeedLow  float64 `json:"windspeed_low"`
	WindSpeedAvg  float64 `json:"windspeed_avg"`

	WindChillHigh float64 `json:"wind_chill_high"`
	WindChillLow  float64 `json:"wind_chill_low"`
	WindChillAvg  float64 `json:"wind_chill_avg"`

	PrecipRate float64 `json:"precip_rate"`
	PrecipAvg  float64 `json:"precip_avg"`
}

// Float returns a pointer to v. Convenience for building observations.
func Float(v float64) *float64 {
	return &v
}
