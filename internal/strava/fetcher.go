package strava

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/2beens/stryde/internal/telemetry/metrics"
	"github.com/2beens/stryde/internal/telemetry/tracing"
	"github.com/2beens/stryde/pkg"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// activitiesPerPage is fixed by the upstream API page size
	activitiesPerPage = 200
	// DefaultMaxPages caps an unbounded activity history to 2000 activities
	DefaultMaxPages = 10

	fiveMinutes           = 5 * 60
	activitiesCacheExpire = fiveMinutes // seconds
)

// Fetcher retrieves the complete activity history for a bearer token via
// page based pagination. Pages are requested strictly sequentially, the
// upstream API is rate limited per token.
type Fetcher struct {
	apiEndpoint    string
	httpClient     *http.Client
	cache          *freecache.Cache
	metricsManager *metrics.Manager
}

func NewFetcher(apiEndpoint string, httpClient *http.Client, metricsManager *metrics.Manager) *Fetcher {
	megabyte := 1024 * 1024
	cacheSize := 20 * megabyte

	return &Fetcher{
		apiEndpoint:    apiEndpoint,
		httpClient:     httpClient,
		cache:          freecache.NewCache(cacheSize),
		metricsManager: metricsManager,
	}
}

// FetchAll returns the full activity history for the given token, most recent
// first, as returned by the upstream. Stops on the first empty page or when
// maxPages is reached. A non-success upstream status fails the whole call with
// *UpstreamFetchError - no partial results.
func (f *Fetcher) FetchAll(ctx context.Context, accessToken string, maxPages int) (_ []Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "strava.fetcher.fetchAll")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	cacheKey := activitiesCacheKey(accessToken, maxPages)
	if cachedBytes, err := f.cache.Get(cacheKey); err == nil {
		var cachedActivities []Activity
		if err = json.Unmarshal(cachedBytes, &cachedActivities); err == nil {
			log.Tracef("found %d cached activities", len(cachedActivities))
			span.SetAttributes(attribute.Bool("activities.from-cache", true))
			return cachedActivities, nil
		}
		log.Errorf("failed to unmarshal cached activities: %s", err)
	}

	var allActivities []Activity
	for page := 1; page <= maxPages; page++ {
		pageActivities, err := f.fetchPage(ctx, accessToken, page)
		if err != nil {
			return nil, err
		}

		f.metricsManager.CounterActivityPages.Inc()

		if len(pageActivities) == 0 {
			break
		}

		allActivities = append(allActivities, pageActivities...)
	}

	span.SetAttributes(attribute.Int("activities.count", len(allActivities)))

	if activitiesBytes, err := json.Marshal(allActivities); err != nil {
		log.Errorf("failed to marshal activities for cache: %s", err)
	} else if err := f.cache.Set(cacheKey, activitiesBytes, activitiesCacheExpire); err != nil {
		log.Errorf("failed to cache activities: %s", err)
	}

	return allActivities, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, accessToken string, page int) (_ []Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "strava.fetcher.fetchPage")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("page", page))

	activitiesURL := fmt.Sprintf(
		"%s/athlete/activities?page=%d&per_page=%d",
		f.apiEndpoint, page, activitiesPerPage,
	)
	log.Debugf("fetching activities page %d: %s", page, activitiesURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, activitiesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new activities request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("activities endpoint call: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read activities response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamFetchError{
			StatusCode: resp.StatusCode,
			Page:       page,
			Body:       pkg.BytesToString(respBytes),
		}
	}

	pageActivities, dropped, err := decodeActivitiesPage(respBytes)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		log.Warnf("activities page %d: dropped %d malformed records", page, dropped)
	}

	return pageActivities, nil
}

func activitiesCacheKey(accessToken string, maxPages int) []byte {
	// never keep the raw bearer token around as a cache key;
	// maxPages is part of the key, a capped fetch must not satisfy a deeper one
	tokenHash := sha256.Sum256([]byte(accessToken))
	return []byte(fmt.Sprintf("activities::%x::%d", tokenHash, maxPages))
}
