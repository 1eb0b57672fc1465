package strava

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActivityTypeRun is the only activity type that feeds training volume
// and plan recommendations, everything else is filtered out.
const ActivityTypeRun = "Run"

// Activity is a single entry of the athlete activity feed, immutable once fetched.
// StartDate keeps the timezone offset recorded by the upstream API, so that
// time bucketing matches the calendar day the athlete experienced.
type Activity struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Distance   float64   `json:"distance"`    // meters
	MovingTime int64     `json:"moving_time"` // seconds
	StartDate  time.Time `json:"start_date"`
}

func (a Activity) IsRun() bool {
	return a.Type == ActivityTypeRun
}

// Athlete is a read-only projection of the remote Strava profile
type Athlete struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	FirstName     string `json:"firstname"`
	LastName      string `json:"lastname"`
	ProfileMedium string `json:"profile_medium"`
}

// decodeActivitiesPage decodes a page of activities returned by the upstream API.
// Records which fail to decode are dropped and counted, never failing the
// whole page - a single malformed upstream record must not abort the fetch.
func decodeActivitiesPage(data []byte) (activities []Activity, dropped int, err error) {
	var rawRecords []json.RawMessage
	if err := json.Unmarshal(data, &rawRecords); err != nil {
		return nil, 0, fmt.Errorf("unmarshal activities page: %w", err)
	}

	activities = make([]Activity, 0, len(rawRecords))
	for _, rawRecord := range rawRecords {
		var activity Activity
		if err := json.Unmarshal(rawRecord, &activity); err != nil {
			dropped++
			continue
		}
		activities = append(activities, activity)
	}

	return activities, dropped, nil
}
