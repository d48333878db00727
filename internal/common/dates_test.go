package common

import (
	"errors"
	"testing"
	"time"

	"github.com/tj/assert"
)

func TestParseDay(t *testing.T) {
	day, err := ParseDay("2024-03-04")
	assert.NoError(t, err)
	assert.Equal(t, "20240304", CompactDay(day))
	assert.Equal(t, "2024-03-04", FormatDay(day))
}

func TestParseDayInvalid(t *testing.T) {
	for _, s := range []string{"2024-13-40", "20240304", "03/04/2024", "", "2024-02-30"} {
		_, err := ParseDay(s)
		if !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDay(%q): got %v, want ErrInvalidDate", s, err)
		}
	}
}

func TestYearsAgo(t *testing.T) {
	day := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2022-03-04", FormatDay(YearsAgo(day, 2)))
}

func TestYearsAgoLeapDay(t *testing.T) {
	leap := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)

	// Non-leap target year falls back to Feb 28.
	assert.Equal(t, "2023-02-28", FormatDay(YearsAgo(leap, 1)))
	// Leap target year keeps Feb 29.
	assert.Equal(t, "2020-02-29", FormatDay(YearsAgo(leap, 4)))
}
