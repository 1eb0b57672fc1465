package recommend

import (
	"fmt"
	"time"
)

// fallbackPlan builds a deterministic weekly plan from the window summary,
// used whenever the generative call fails, times out or returns something
// unparseable. No randomness, same input always yields the same plan.
func fallbackPlan(weekOf time.Time, summary activitySummary) *Plan {
	avgDistance := 0.0
	if summary.windowRuns > 0 {
		avgDistance = summary.distanceKm / float64(summary.windowRuns)
	}
	weeklyVolume := summary.distanceKm / 2

	baseDistance := max(3.0, avgDistance*0.8)
	longRunDistance := max(5.0, avgDistance*1.5)
	intervalDistance := max(2.0, avgDistance*0.6)

	loadReason := fmt.Sprintf(
		"Based on your recent weekly volume of %.1f km", weeklyVolume)

	days := []DayPlan{
		{
			Day:     "Monday",
			Workout: fmt.Sprintf("Easy Run - %.1f km at conversational pace", baseDistance),
			Reason:  loadReason,
		},
		{
			Day:     "Tuesday",
			Workout: fmt.Sprintf("Interval Run - %.1f km with hard efforts", intervalDistance),
			Reason:  "Structured speed work for improvement",
		},
		{
			Day:     "Wednesday",
			Workout: "Rest Day",
			Reason:  "Recovery between training days",
		},
		{
			Day:     "Thursday",
			Workout: fmt.Sprintf("Easy Run - %.1f km at conversational pace", baseDistance),
			Reason:  "Aerobic base building",
		},
		{
			Day:     "Friday",
			Workout: fmt.Sprintf("Tempo Run - %.1f km at comfortably hard pace", baseDistance),
			Reason:  "Sustained effort before the weekend long run",
		},
		{
			Day:     "Saturday",
			Workout: fmt.Sprintf("Long Run - %.1f km at easy pace", longRunDistance),
			Reason:  "Build endurance and aerobic capacity",
		},
		{
			Day:     "Sunday",
			Workout: fmt.Sprintf("Easy Run - %.1f km recovery pace", baseDistance),
			Reason:  "Active recovery after long run",
		},
	}

	for i := range days {
		days[i].Date = weekOf.AddDate(0, 0, i).Format("2006-01-02")
	}

	return &Plan{
		WeekOf: weekOf.Format("2006-01-02"),
		Days:   days,
		Source: SourceFallback,
	}
}
