package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/stryde/internal/strava"
	"github.com/2beens/stryde/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
)

const (
	// recentWindowSize bounds how many of the most recent activities
	// feed the prompt, in fetch order (most recent first).
	recentWindowSize = 14

	DefaultTimeout = 30 * time.Second
)

// Engine produces a weekly training plan for a runner. The primary path is
// a single generative call with a bounded timeout and no retry; if that
// call fails in any way the engine substitutes a deterministic rule-based
// plan. Recommend never returns an error to the caller.
type Engine struct {
	provider Provider
	timeout  time.Duration
	now      func() time.Time
}

func NewEngine(provider Provider, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Engine{
		provider: provider,
		timeout:  timeout,
		now:      time.Now,
	}
}

type activitySummary struct {
	totalRuns   int
	windowRuns  int
	distanceKm  float64
	timeMinutes float64
	avgPace     float64
	hasPace     bool
}

func (e *Engine) Recommend(ctx context.Context, activities []strava.Activity) *Plan {
	ctx, span := tracing.GlobalTracer.Start(ctx, "recommendEngine.recommend")
	defer span.End()

	if len(activities) == 0 {
		return &Plan{
			Source:  SourceNoData,
			Error:   "no training data available",
			Message: "Connect some runs first to get a training calendar",
		}
	}

	window := activities
	if len(window) > recentWindowSize {
		window = window[:recentWindowSize]
	}
	summary := summarize(len(activities), window)
	weekOf := mondayOf(e.now())

	if e.provider == nil {
		return fallbackPlan(weekOf, summary)
	}

	raw, err := e.generate(ctx, buildPrompt(summary, weekOf))
	if err != nil {
		log.Warnf("plan generation via %s failed, using fallback: %s", e.provider.Name(), err)
		return fallbackPlan(weekOf, summary)
	}

	plan, err := parsePlan(raw)
	if err != nil {
		log.Warnf("plan response from %s unparseable, using fallback: %s", e.provider.Name(), err)
		return fallbackPlan(weekOf, summary)
	}

	plan.Source = SourceGenerated
	return plan
}

// generate makes exactly one attempt against the provider. On timeout the
// in-flight call is abandoned, not retried.
func (e *Engine) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type genResult struct {
		text string
		err  error
	}

	resChan := make(chan genResult, 1)
	go func() {
		text, err := e.provider.GenerateText(ctx, prompt)
		resChan <- genResult{text: text, err: err}
	}()

	select {
	case res := <-resChan:
		return res.text, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func summarize(totalRuns int, window []strava.Activity) activitySummary {
	summary := activitySummary{
		totalRuns:  totalRuns,
		windowRuns: len(window),
	}

	var distanceM float64
	var timeSec int64
	var paceSum float64
	var paceCount int
	for _, activity := range window {
		distanceM += activity.Distance
		timeSec += activity.MovingTime
		if activity.Distance > 0 {
			paceSum += (float64(activity.MovingTime) / 60) / (activity.Distance / 1000)
			paceCount++
		}
	}

	summary.distanceKm = distanceM / 1000
	summary.timeMinutes = float64(timeSec) / 60
	if paceCount > 0 {
		summary.avgPace = paceSum / float64(paceCount)
		summary.hasPace = true
	}

	return summary
}

func buildPrompt(summary activitySummary, weekOf time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Total activities: %d runs\n", summary.totalRuns)
	fmt.Fprintf(&sb, "Recent 2 weeks: %d runs, %.1fkm, %.1f minutes\n",
		summary.windowRuns, summary.distanceKm, summary.timeMinutes)
	if summary.hasPace {
		fmt.Fprintf(&sb, "Average pace: %.1f min/km\n", summary.avgPace)
	}

	return fmt.Sprintf(`Based on this runner's training data, generate a personalized weekly training calendar.

Training Summary:
%s
Generate a 7-day calendar for the week of %s with specific workout recommendations. Consider:
- Recovery needs based on their training load
- Intensity balance (easy vs hard runs)
- Volume progression
- Training consistency

Return as JSON with this structure, days ordered Monday through Sunday:
{
    "week_of": "%s",
    "days": [
        {
            "day": "Monday",
            "date": "%s",
            "workout": "Easy Run - 5K at conversational pace",
            "reason": "Focus on aerobic base building"
        }
    ]
}`,
		sb.String(),
		weekOf.Format("2006-01-02"),
		weekOf.Format("2006-01-02"),
		weekOf.Format("2006-01-02"),
	)
}

func mondayOf(t time.Time) time.Time {
	t = t.AddDate(0, 0, -((int(t.Weekday()) + 6) % 7))
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
