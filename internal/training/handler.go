package training

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/2beens/stryde/internal/recommend"
	"github.com/2beens/stryde/internal/session"
	"github.com/2beens/stryde/internal/strava"
	"github.com/2beens/stryde/internal/telemetry/metrics"
	"github.com/2beens/stryde/internal/telemetry/tracing"
	"github.com/2beens/stryde/pkg"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=handler.go -destination=mocks_test.go -package=training

type activityFetcher interface {
	FetchAll(ctx context.Context, accessToken string, maxPages int) ([]strava.Activity, error)
}

type planRecommender interface {
	Recommend(ctx context.Context, activities []strava.Activity) *recommend.Plan
}

type Handler struct {
	sessions       *session.Store
	fetcher        activityFetcher
	recommender    planRecommender
	maxPages       int
	metricsManager *metrics.Manager
}

func NewHandler(
	sessions *session.Store,
	fetcher activityFetcher,
	recommender planRecommender,
	maxPages int,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		sessions:       sessions,
		fetcher:        fetcher,
		recommender:    recommender,
		maxPages:       maxPages,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/training/volume", handler.handleVolume).Methods("GET", "OPTIONS").Name("training-volume")
}

type volumeResponse struct {
	TotalActivities int             `json:"total_activities"`
	WeeklyVolume    []WeeklyBucket  `json:"weekly_volume"`
	MonthlyVolume   []MonthlyBucket `json:"monthly_volume"`
	Calendar        *recommend.Plan `json:"calendar"`
}

func (handler *Handler) handleVolume(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "training.handleVolume")
	defer span.End()

	accessToken, ok := handler.resolveAccessToken(r)
	if !ok {
		pkg.SendJsonResponse(w, http.StatusUnauthorized, map[string]interface{}{
			"authenticated": false,
		})
		return
	}

	activities, err := handler.fetcher.FetchAll(ctx, accessToken, handler.maxPages)
	if err != nil {
		span.SetStatus(codes.Error, fmt.Sprintf("fetch activities: %s", err))
		var fetchErr *strava.UpstreamFetchError
		if errors.As(err, &fetchErr) {
			log.Errorf("fetch activities failed on page %d: status %d", fetchErr.Page, fetchErr.StatusCode)
			http.Error(w, "failed to fetch activities", http.StatusBadGateway)
			return
		}
		log.Errorf("fetch activities: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	runs := OnlyRuns(activities)
	span.SetAttributes(attribute.Int("activities.total", len(activities)))
	span.SetAttributes(attribute.Int("activities.runs", len(runs)))

	calendar := handler.recommender.Recommend(ctx, runs)
	handler.metricsManager.CounterTrainingPlans.
		With(prometheus.Labels{"source": calendar.Source}).
		Inc()

	pkg.SendJsonResponse(w, http.StatusOK, volumeResponse{
		TotalActivities: len(runs),
		WeeklyVolume:    WeeklyVolume(runs),
		MonthlyVolume:   MonthlyVolume(runs),
		Calendar:        calendar,
	})
}

// resolveAccessToken picks the bearer token for the request. A token given
// directly via the access_token query parameter bypasses session lookup,
// kept for callers that manage their own tokens. Otherwise the state
// parameter must point to an authenticated session.
func (handler *Handler) resolveAccessToken(r *http.Request) (string, bool) {
	if token := r.URL.Query().Get("access_token"); token != "" {
		return token, true
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		return "", false
	}

	userSession, ok := handler.sessions.Get(state)
	if !ok || !userSession.Authenticated {
		return "", false
	}
	return userSession.AccessToken, true
}
