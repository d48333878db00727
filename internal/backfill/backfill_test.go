package backfill

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tj/assert"

	"github.com/climecapsule/climecapsule/internal/common"
	"github.com/climecapsule/climecapsule/internal/observation"
	"github.com/climecapsule/climecapsule/internal/store"
)

type fakeFetcher struct {
	dates   []string
	perDay  int
	failOn  string
	fetches int
}

func (f *fakeFetcher) FetchHourly(_ context.Context, day time.Time) ([]observation.Raw, error) {
	f.fetches++
	compact := common.CompactDay(day)
	if compact == f.failOn {
		return nil, errors.New("upstream unavailable")
	}
	f.dates = append(f.dates, compact)

	out := make([]observation.Raw, 0, f.perDay)
	for i := 0; i < f.perDay; i++ {
		out = append(out, observation.Raw{
			StationID:    "KCODENVE99",
			ObsTimeLocal: common.FormatDay(day) + " 08:00:00",
		})
	}
	return out, nil
}

type fakeInserter struct {
	calls   int
	batches [][]observation.Raw
}

func (f *fakeInserter) Insert(_ context.Context, observations []observation.Raw) (store.Report, error) {
	f.calls++
	f.batches = append(f.batches, observations)
	return store.Report{Inserted: len(observations)}, nil
}

func TestRunWalksRangeAscending(t *testing.T) {
	fetcher := &fakeFetcher{perDay: 2}
	inserter := &fakeInserter{}
	driver := New(fetcher, inserter)

	report, err := driver.Run(context.Background(), "2024-01-01", "2024-01-03")
	assert.NoError(t, err)

	// One hourly fetch per day, ascending, then a single insert batch.
	assert.Equal(t, []string{"20240101", "20240102", "20240103"}, fetcher.dates)
	assert.Equal(t, 1, inserter.calls)
	assert.Len(t, inserter.batches[0], 6)
	assert.Equal(t, store.Report{Inserted: 6}, report)
}

func TestRunSingleDay(t *testing.T) {
	fetcher := &fakeFetcher{perDay: 1}
	inserter := &fakeInserter{}
	driver := New(fetcher, inserter)

	_, err := driver.Run(context.Background(), "2024-01-01", "2024-01-01")
	assert.NoError(t, err)
	assert.Equal(t, []string{"20240101"}, fetcher.dates)
}

func TestRunInvalidDates(t *testing.T) {
	fetcher := &fakeFetcher{perDay: 1}
	inserter := &fakeInserter{}
	driver := New(fetcher, inserter)

	cases := []struct{ start, end string }{
		{"2024-13-40", "2024-01-03"},
		{"2024-01-01", "garbage"},
		{"2024-01-03", "2024-01-01"},
	}
	for _, tc := range cases {
		_, err := driver.Run(context.Background(), tc.start, tc.end)
		if !errors.Is(err, common.ErrInvalidDate) {
			t.Errorf("Run(%q, %q): got %v, want ErrInvalidDate", tc.start, tc.end, err)
		}
	}

	// Validation failures never reach the network or the store.
	assert.Equal(t, 0, fetcher.fetches)
	assert.Equal(t, 0, inserter.calls)
}

func TestRunAbortsOnFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{perDay: 1, failOn: "20240102"}
	inserter := &fakeInserter{}
	driver := New(fetcher, inserter)

	_, err := driver.Run(context.Background(), "2024-01-01", "2024-01-03")
	assert.Error(t, err)
	// The failed day stops the walk; nothing is inserted.
	assert.Equal(t, 2, fetcher.fetches)
	assert.Equal(t, 0, inserter.calls)
}

func TestRunEmptyRangeSkipsInsert(t *testing.T) {
	fetcher := &fakeFetcher{perDay: 0}
	inserter := &fakeInserter{}
	driver := New(fetcher, inserter)

	report, err := driver.Run(context.Background(), "2024-01-01", "2024-01-02")
	assert.NoError(t, err)
	assert.Equal(t, store.Report{}, report)
	assert.Equal(t, 0, inserter.calls)
}
