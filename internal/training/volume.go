package training

import (
	"sort"
	"time"

	"github.com/2beens/stryde/internal/strava"
)

const (
	maxWeeklyBuckets  = 8
	maxMonthlyBuckets = 6
)

// WeeklyBucket is the accumulated run volume of a single ISO week,
// keyed by the Monday the week starts on.
type WeeklyBucket struct {
	WeekStart   string  `json:"week_start"`
	Runs        int     `json:"runs"`
	DistanceKm  float64 `json:"distance_km"`
	TimeMinutes float64 `json:"time_minutes"`
}

// MonthlyBucket is the accumulated run volume of a single calendar month
type MonthlyBucket struct {
	Month       string  `json:"month"`
	Runs        int     `json:"runs"`
	DistanceKm  float64 `json:"distance_km"`
	TimeMinutes float64 `json:"time_minutes"`
}

// OnlyRuns returns the subset of activities with type Run, preserving order
func OnlyRuns(activities []strava.Activity) []strava.Activity {
	runs := make([]strava.Activity, 0, len(activities))
	for _, activity := range activities {
		if activity.IsRun() {
			runs = append(runs, activity)
		}
	}
	return runs
}

type volumeAccumulator struct {
	runs      int
	distanceM float64
	timeSec   int64
}

// WeeklyVolume buckets run activities per ISO week (Monday aligned) and
// returns the most recent weeks first, capped at 8 entries. Bucketing uses
// the timezone offset recorded on each activity, not UTC - the bucket has to
// match the calendar day the athlete experienced. The result is a pure
// function of the input set, the input order does not matter.
func WeeklyVolume(activities []strava.Activity) []WeeklyBucket {
	accumulated := accumulate(activities, weekStartKey)

	buckets := make([]WeeklyBucket, 0, len(accumulated))
	for key, acc := range accumulated {
		buckets = append(buckets, WeeklyBucket{
			WeekStart:   key,
			Runs:        acc.runs,
			DistanceKm:  acc.distanceM / 1000,
			TimeMinutes: float64(acc.timeSec) / 60,
		})
	}

	// ISO date keys sort correctly as plain strings
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].WeekStart > buckets[j].WeekStart
	})

	if len(buckets) > maxWeeklyBuckets {
		buckets = buckets[:maxWeeklyBuckets]
	}
	return buckets
}

// MonthlyVolume buckets run activities per calendar month ("YYYY-MM") and
// returns the most recent months first, capped at 6 entries. Same invariants
// as WeeklyVolume.
func MonthlyVolume(activities []strava.Activity) []MonthlyBucket {
	accumulated := accumulate(activities, monthKey)

	buckets := make([]MonthlyBucket, 0, len(accumulated))
	for key, acc := range accumulated {
		buckets = append(buckets, MonthlyBucket{
			Month:       key,
			Runs:        acc.runs,
			DistanceKm:  acc.distanceM / 1000,
			TimeMinutes: float64(acc.timeSec) / 60,
		})
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Month > buckets[j].Month
	})

	if len(buckets) > maxMonthlyBuckets {
		buckets = buckets[:maxMonthlyBuckets]
	}
	return buckets
}

func accumulate(activities []strava.Activity, bucketKey func(time.Time) string) map[string]*volumeAccumulator {
	accumulated := make(map[string]*volumeAccumulator)
	for _, activity := range activities {
		if !activity.IsRun() {
			continue
		}
		// records with a missing start date are excluded, not an error
		if activity.StartDate.IsZero() {
			continue
		}

		key := bucketKey(activity.StartDate)
		acc, ok := accumulated[key]
		if !ok {
			acc = &volumeAccumulator{}
			accumulated[key] = acc
		}
		acc.runs++
		acc.distanceM += activity.Distance
		acc.timeSec += activity.MovingTime
	}
	return accumulated
}

// weekStartKey returns the Monday on or before the given date, in the
// timezone offset the date carries
func weekStartKey(t time.Time) string {
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -daysSinceMonday).Format("2006-01-02")
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}
