package availability

import (
	"testing"
	"time"

	"commonspace/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2026-03-02 is a Monday, 2026-03-07 a Saturday.
func testVenue() *model.Venue {
	return &model.Venue{
		ID:           "v1",
		Name:         "Bean There",
		Capacity:     1,
		OpeningHours: model.DefaultOpeningHours(),
		Packages:     []model.Package{{ID: "p1", Name: "Desk", Duration: 1, Price: 12}},
	}
}

func TestGenerateSlots(t *testing.T) {
	slots, err := GenerateSlots(testVenue(), "p1", "2026-03-02", nil)
	require.NoError(t, err)

	require.Len(t, slots, 16)
	assert.Equal(t, "09:00", slots[0].Time)
	assert.Equal(t, "16:30", slots[len(slots)-1].Time)
	for _, s := range slots {
		assert.True(t, s.Available)
		assert.Equal(t, 1, s.RemainingCapacity)
	}
}

func TestGenerateSlots_SkipsBeforeOpeningMinute(t *testing.T) {
	venue := testVenue()
	venue.OpeningHours["monday"] = model.DayHours{Open: "09:30", Close: "11:00"}

	slots, err := GenerateSlots(venue, "p1", "2026-03-02", nil)
	require.NoError(t, err)

	var times []string
	for _, s := range slots {
		times = append(times, s.Time)
	}
	assert.Equal(t, []string{"09:30", "10:00", "10:30"}, times)
}

func TestGenerateSlots_MarksTakenSlots(t *testing.T) {
	bookings := []*model.Booking{
		{ID: "b1", Date: "2026-03-02", Time: "10:00", Duration: 1, Status: model.StatusPending},
	}

	slots, err := GenerateSlots(testVenue(), "p1", "2026-03-02", bookings)
	require.NoError(t, err)

	taken := map[string]bool{}
	for _, s := range slots {
		if !s.Available {
			taken[s.Time] = true
		}
	}
	// 09:30 runs into the 10:00 booking, 10:00 and 10:30 overlap it directly.
	assert.Equal(t, map[string]bool{"09:30": true, "10:00": true, "10:30": true}, taken)
}

func TestGenerateSlots_MalformedBookingIsError(t *testing.T) {
	bookings := []*model.Booking{
		{ID: "b1", Date: "2026-03-02", Time: "10:00", Duration: 1, Status: model.StatusPending},
		{ID: "broken", Date: "2026-03-02", Time: "ten", Duration: 1, Status: model.StatusConfirmed},
	}

	slots, err := GenerateSlots(testVenue(), "p1", "2026-03-02", bookings)
	assert.Error(t, err)
	assert.Nil(t, slots)
}

func TestGenerateSlots_NoSlots(t *testing.T) {
	tests := []struct {
		name      string
		venue     *model.Venue
		packageID string
		date      string
	}{
		{"missing venue", nil, "p1", "2026-03-02"},
		{"missing package", testVenue(), "nope", "2026-03-02"},
		{"closed weekday", testVenue(), "p1", "2026-03-07"},
		{"weekday missing from hours", &model.Venue{Capacity: 1, OpeningHours: model.OpeningHours{}, Packages: testVenue().Packages}, "p1", "2026-03-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots, err := GenerateSlots(tt.venue, tt.packageID, tt.date, nil)
			require.NoError(t, err)
			assert.Empty(t, slots)
		})
	}
}

func TestCheckOpeningHours(t *testing.T) {
	venue := testVenue()

	assert.NoError(t, CheckOpeningHours(venue, "2026-03-02", "09:00", 8))
	assert.ErrorIs(t, CheckOpeningHours(venue, "2026-03-02", "16:30", 1), ErrOutsideOpeningHours)
	assert.ErrorIs(t, CheckOpeningHours(venue, "2026-03-02", "08:30", 1), ErrOutsideOpeningHours)
	assert.ErrorIs(t, CheckOpeningHours(venue, "2026-03-07", "10:00", 1), ErrVenueClosed)
}

func TestInstant(t *testing.T) {
	loc := time.FixedZone("venue", 5*3600)
	got, err := Instant("2026-03-02", "09:30", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 30, 0, 0, loc), got)

	start, end, err := Interval(&model.Booking{Date: "2026-03-02", Time: "23:00", Duration: 2}, loc)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, end.Sub(start))
	assert.Equal(t, 3, end.Day())
}
