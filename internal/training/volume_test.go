package training_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/2beens/stryde/internal/strava"
	"github.com/2beens/stryde/internal/training"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runActivity(startDate time.Time, distanceM float64, movingTimeSec int64) strava.Activity {
	return strava.Activity{
		ID:         gofakeit.Int64(),
		Name:       gofakeit.Sentence(3),
		Type:       strava.ActivityTypeRun,
		Distance:   distanceM,
		MovingTime: movingTimeSec,
		StartDate:  startDate,
	}
}

func TestWeeklyVolume_SingleWeek(t *testing.T) {
	// Monday and Tuesday of the same week
	activities := []strava.Activity{
		runActivity(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), 5000, 1800),
		runActivity(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC), 10000, 3600),
	}

	weekly := training.WeeklyVolume(activities)
	require.Len(t, weekly, 1)
	assert.Equal(t, "2024-01-01", weekly[0].WeekStart)
	assert.Equal(t, 2, weekly[0].Runs)
	assert.Equal(t, 15.0, weekly[0].DistanceKm)
	assert.Equal(t, 90.0, weekly[0].TimeMinutes)

	monthly := training.MonthlyVolume(activities)
	require.Len(t, monthly, 1)
	assert.Equal(t, "2024-01", monthly[0].Month)
	assert.Equal(t, 2, monthly[0].Runs)
	assert.Equal(t, 15.0, monthly[0].DistanceKm)
	assert.Equal(t, 90.0, monthly[0].TimeMinutes)
}

func TestWeeklyVolume_SundayBelongsToPrecedingMonday(t *testing.T) {
	activities := []strava.Activity{
		// sunday 2024-01-07
		runActivity(time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC), 8000, 2400),
		// monday 2024-01-08, next week
		runActivity(time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC), 5000, 1500),
	}

	weekly := training.WeeklyVolume(activities)
	require.Len(t, weekly, 2)
	// most recent week first
	assert.Equal(t, "2024-01-08", weekly[0].WeekStart)
	assert.Equal(t, "2024-01-01", weekly[1].WeekStart)
}

func TestWeeklyVolume_BucketsInActivityTimezone(t *testing.T) {
	// 23:30 local time on sunday, which is already monday in UTC;
	// has to land in the week of the local sunday
	tz := time.FixedZone("UTC-3", -3*60*60)
	activities := []strava.Activity{
		runActivity(time.Date(2024, 1, 7, 23, 30, 0, 0, tz), 5000, 1800),
	}

	weekly := training.WeeklyVolume(activities)
	require.Len(t, weekly, 1)
	assert.Equal(t, "2024-01-01", weekly[0].WeekStart)

	monthly := training.MonthlyVolume(activities)
	require.Len(t, monthly, 1)
	assert.Equal(t, "2024-01", monthly[0].Month)
}

func TestWeeklyVolume_NonRunActivitiesIgnored(t *testing.T) {
	run := runActivity(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), 5000, 1800)
	ride := run
	ride.Type = "Ride"
	swim := run
	swim.Type = "Swim"

	withOthers := training.WeeklyVolume([]strava.Activity{ride, run, swim})
	runsOnly := training.WeeklyVolume([]strava.Activity{run})
	assert.Equal(t, runsOnly, withOthers)

	monthlyWithOthers := training.MonthlyVolume([]strava.Activity{ride, run, swim})
	monthlyRunsOnly := training.MonthlyVolume([]strava.Activity{run})
	assert.Equal(t, monthlyRunsOnly, monthlyWithOthers)
}

func TestWeeklyVolume_InvariantUnderReordering(t *testing.T) {
	var activities []strava.Activity
	start := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 40; i++ {
		activities = append(activities, runActivity(
			start.AddDate(0, 0, -i),
			float64(3000+500*i),
			int64(1200+60*i),
		))
	}

	weekly := training.WeeklyVolume(activities)
	monthly := training.MonthlyVolume(activities)

	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := make([]strava.Activity, len(activities))
		copy(shuffled, activities)
		rnd.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		assert.Equal(t, weekly, training.WeeklyVolume(shuffled))
		assert.Equal(t, monthly, training.MonthlyVolume(shuffled))
	}
}

func TestWeeklyVolume_CappedAndSortedDescending(t *testing.T) {
	var activities []strava.Activity
	start := time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)
	// one run per week, 20 weeks back
	for i := 0; i < 20; i++ {
		activities = append(activities, runActivity(start.AddDate(0, 0, -7*i), 5000, 1800))
	}

	weekly := training.WeeklyVolume(activities)
	require.Len(t, weekly, 8)
	for i := 1; i < len(weekly); i++ {
		assert.Greater(t, weekly[i-1].WeekStart, weekly[i].WeekStart)
	}
	assert.Equal(t, "2024-06-03", weekly[0].WeekStart)

	monthly := training.MonthlyVolume(activities)
	require.Len(t, monthly, 6)
	for i := 1; i < len(monthly); i++ {
		assert.Greater(t, monthly[i-1].Month, monthly[i].Month)
	}
}

func TestMonthlyVolume_CappedAtSixMonths(t *testing.T) {
	var activities []strava.Activity
	// one run per month, 12 months back
	for i := 0; i < 12; i++ {
		activities = append(activities, runActivity(
			time.Date(2024, time.Month(12-i), 15, 8, 0, 0, 0, time.UTC),
			5000, 1800,
		))
	}

	monthly := training.MonthlyVolume(activities)
	require.Len(t, monthly, 6)
	assert.Equal(t, "2024-12", monthly[0].Month)
	assert.Equal(t, "2024-07", monthly[5].Month)
}

func TestWeeklyVolume_EdgeCases(t *testing.T) {
	zeroDistance := runActivity(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), 0, 600)
	missingDate := runActivity(time.Time{}, 5000, 1800)

	weekly := training.WeeklyVolume([]strava.Activity{zeroDistance, missingDate})
	require.Len(t, weekly, 1)
	// zero distance still counts towards the run count
	assert.Equal(t, 1, weekly[0].Runs)
	assert.Equal(t, 0.0, weekly[0].DistanceKm)
	assert.Equal(t, 10.0, weekly[0].TimeMinutes)

	assert.Empty(t, training.WeeklyVolume(nil))
	assert.Empty(t, training.MonthlyVolume(nil))
}

func TestOnlyRuns(t *testing.T) {
	run1 := runActivity(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), 5000, 1800)
	run2 := runActivity(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC), 7000, 2400)
	ride := run1
	ride.Type = "Ride"

	runs := training.OnlyRuns([]strava.Activity{run1, ride, run2})
	require.Len(t, runs, 2)
	// fetch order preserved
	assert.Equal(t, run1, runs[0])
	assert.Equal(t, run2, runs[1])

	assert.Empty(t, training.OnlyRuns([]strava.Activity{ride}))
}
