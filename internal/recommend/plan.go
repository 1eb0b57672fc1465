package recommend

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Plan source labels, also used as metric label values.
const (
	SourceGenerated = "generated"
	SourceFallback  = "fallback"
	SourceNoData    = "no_data"
)

var weekdayOrder = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

type DayPlan struct {
	Day     string `json:"day"`
	Date    string `json:"date"`
	Workout string `json:"workout"`
	Reason  string `json:"reason"`
}

// Plan is a weekly training calendar. A well-formed plan carries exactly
// seven days, Monday through Sunday. A degraded no-data plan carries the
// error and message fields instead.
type Plan struct {
	WeekOf  string    `json:"week_of,omitempty"`
	Days    []DayPlan `json:"days,omitempty"`
	Source  string    `json:"source"`
	Error   string    `json:"error,omitempty"`
	Message string    `json:"message,omitempty"`
}

// parsePlan decodes a model response into a Plan and validates its shape.
// Responses wrapped in markdown code fences are unwrapped first.
func parsePlan(raw string) (*Plan, error) {
	cleaned := stripCodeFence(raw)

	var plan Plan
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil {
		return nil, fmt.Errorf("unmarshal plan: %w", err)
	}

	if len(plan.Days) != len(weekdayOrder) {
		return nil, fmt.Errorf("plan has %d days, want %d", len(plan.Days), len(weekdayOrder))
	}
	for i, day := range plan.Days {
		if day.Day != weekdayOrder[i] {
			return nil, fmt.Errorf("day %d is %q, want %q", i, day.Day, weekdayOrder[i])
		}
		if day.Workout == "" {
			return nil, fmt.Errorf("day %s has no workout", day.Day)
		}
	}

	return &plan, nil
}

func stripCodeFence(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
