package observation

import (
	"fmt"
	"math"
	"time"
)

// Accumulator seeds for the per-field extremes. The low seed of 150 is an
// implausibly high value on the imperial scale, so any real reading replaces
// it. These match the values the archive has always reported; seeding from
// the first observation instead would change output for days where every
// reading sits below zero (highs) or above 150 (lows).
const (
	highSeed = 0
	lowSeed  = 150
)

// extreme tracks a running high/low pair across observations, ignoring
// missing fields.
type extreme struct {
	high float64
	low  float64
}

func newExtreme() extreme {
	return extreme{high: highSeed, low: lowSeed}
}

func (e *extreme) observe(high, low *float64) {
	if high != nil && *high > e.high {
		e.high = *high
	}
	if low != nil && *low < e.low {
		e.low = *low
	}
}

// mean tracks a running arithmetic mean, counting only present fields.
type mean struct {
	sum float64
	n   int
}

func (m *mean) observe(v *float64) {
	if v != nil {
		m.sum += *v
		m.n++
	}
}

func (m *mean) value() float64 {
	if m.n == 0 {
		return 0
	}
	return round2(m.sum / float64(m.n))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Compile reduces one day's raw observations into a single Summary. An empty
// input yields a zero-valued Summary without error. The station id is taken
// from the first entry; the day is derived from the last entry's timestamp,
// since the latest reading carries the most complete view of the day.
func Compile(observations []Raw) (Summary, error) {
	if len(observations) == 0 {
		return Summary{}, nil
	}

	last := observations[len(observations)-1]
	day, err := time.Parse(TimeLayout, last.ObsTimeLocal)
	if err != nil {
		return Summary{}, fmt.Errorf("parse observation timestamp %q: %w", last.ObsTimeLocal, err)
	}

	temp := newExtreme()
	windSpeed := newExtreme()
	windChill := newExtreme()
	var precipRate float64 = highSeed

	var tempAvg, windSpeedAvg, windChillAvg, precipAvg mean

	for _, obs := range observations {
		temp.observe(obs.TempHigh, obs.TempLow)
		tempAvg.observe(obs.TempAvg)

		windSpeed.observe(obs.WindSpeedHigh, obs.WindSpeedLow)
		windSpeedAvg.observe(obs.WindSpeedAvg)

		windChill.observe(obs.WindChillHigh, obs.WindChillLow)
		windChillAvg.observe(obs.WindChillAvg)

		if obs.PrecipRate != nil && *obs.PrecipRate > precipRate {
			precipRate = *obs.PrecipRate
		}
		precipAvg.observe(obs.PrecipTotal)
	}

	return Summary{
		StationID:    observations[0].StationID,
		ObsTimeLocal: day.Format(DayLayout),
		FriendlyDate: day.Format(FriendlyLayout),

		TempHigh: temp.high,
		TempLow:  temp.low,
		TempAvg:  tempAvg.value(),

		WindSpeedHigh: windSpeed.high,
		WindSpeedLow:  windSpeed.low,
		WindSpeedAvg:  windSpeedAvg.value(),

		WindChillHigh: windChill.high,
		WindChillLow:  windChill.low,
		WindChillAvg:  windChillAvg.value(),

		PrecipRate: precipRate,
		PrecipAvg:  precipAvg.value(),
	}, nil
}
