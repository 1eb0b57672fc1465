package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/2beens/stryde/internal/middleware"
	"github.com/2beens/stryde/internal/session"
	"github.com/2beens/stryde/internal/strava"
	"github.com/2beens/stryde/internal/telemetry/metrics"
	"github.com/2beens/stryde/internal/telemetry/tracing"
	"github.com/2beens/stryde/pkg"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

const stateTokenLength = 43 // same entropy as a 32 byte url-safe token

type codeExchanger interface {
	Exchange(ctx context.Context, code string) (*strava.TokenExchange, error)
}

// Handler drives the Strava authorization flow: it hands out the
// authorization URL, completes the code exchange on callback and serves
// the authenticated athlete profile.
type Handler struct {
	sessions       *session.Store
	exchanger      codeExchanger
	clientID       string
	authEndpoint   string
	redirectURI    string
	frontendURL    string
	metricsManager *metrics.Manager
}

type NewHandlerParams struct {
	Sessions       *session.Store
	Exchanger      codeExchanger
	ClientID       string
	AuthEndpoint   string
	RedirectURI    string
	FrontendURL    string
	MetricsManager *metrics.Manager
}

func NewHandler(params NewHandlerParams) *Handler {
	return &Handler{
		sessions:       params.Sessions,
		exchanger:      params.Exchanger,
		clientID:       params.ClientID,
		authEndpoint:   params.AuthEndpoint,
		redirectURI:    params.RedirectURI,
		frontendURL:    params.FrontendURL,
		metricsManager: params.MetricsManager,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	allowedPerMin int,
) {
	authSubrouter := mainRouter.PathPrefix("/auth").Subrouter()
	authSubrouter.HandleFunc("/strava", handler.handleAuthStart).Methods("GET", "OPTIONS").Name("auth-start")
	authSubrouter.HandleFunc("/callback", handler.handleAuthCallback).Methods("GET", "OPTIONS").Name("auth-callback")

	// rate limit the auth endpoints to prevent abuse
	authSubrouter.Use(middleware.RateLimit(rateLimiter, "auth", allowedPerMin, handler.metricsManager))
}

// SetupProfileRoutes registers the profile endpoint, which lives outside
// the rate limited /auth subrouter.
func (handler *Handler) SetupProfileRoutes(router *mux.Router) {
	router.HandleFunc("/user/profile", handler.handleProfile).Methods("GET", "OPTIONS").Name("user-profile")
}

func (handler *Handler) handleAuthStart(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "auth.handleAuthStart")
	defer span.End()

	state, err := pkg.GenerateRandomString(stateTokenLength)
	if err != nil {
		span.SetStatus(codes.Error, fmt.Sprintf("generate state: %s", err))
		log.Errorf("generate state token: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := handler.sessions.Create(state); err != nil {
		span.SetStatus(codes.Error, fmt.Sprintf("create session: %s", err))
		log.Errorf("create session for new auth flow: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	query := url.Values{
		"client_id":     {handler.clientID},
		"redirect_uri":  {handler.redirectURI},
		"response_type": {"code"},
		"scope":         {"read,activity:read"},
		"state":         {state},
	}

	pkg.SendJsonResponse(w, http.StatusOK, map[string]string{
		"auth_url": fmt.Sprintf("%s?%s", handler.authEndpoint, query.Encode()),
		"state":    state,
	})
}

func (handler *Handler) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "auth.handleAuthCallback")
	defer span.End()

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		http.Error(w, "missing code or state", http.StatusBadRequest)
		return
	}
	if _, ok := handler.sessions.Get(state); !ok {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}

	tokenExchange, err := handler.exchanger.Exchange(ctx, code)
	if err != nil {
		span.SetStatus(codes.Error, fmt.Sprintf("exchange code: %s", err))
		handler.metricsManager.CounterTokenExchanges.
			With(prometheus.Labels{"outcome": "failure"}).
			Inc()
		var authErr *strava.UpstreamAuthError
		if errors.As(err, &authErr) {
			log.Errorf("code exchange rejected upstream: status %d", authErr.StatusCode)
		} else {
			log.Errorf("code exchange: %s", err)
		}
		http.Error(w, "oauth failed", http.StatusBadRequest)
		return
	}

	if err := handler.sessions.Promote(state, tokenExchange.AccessToken, tokenExchange.Athlete); err != nil {
		span.SetStatus(codes.Error, fmt.Sprintf("promote session: %s", err))
		log.Errorf("promote session: %s", err)
		http.Error(w, "oauth failed", http.StatusBadRequest)
		return
	}

	handler.metricsManager.CounterTokenExchanges.
		With(prometheus.Labels{"outcome": "success"}).
		Inc()

	redirectURL := fmt.Sprintf("%s?auth_success=true&state=%s", handler.frontendURL, url.QueryEscape(state))
	http.Redirect(w, r, redirectURL, http.StatusTemporaryRedirect)
}

func (handler *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "auth.handleProfile")
	defer span.End()

	state := r.URL.Query().Get("state")
	userSession, ok := handler.sessions.Get(state)
	if state == "" || !ok || !userSession.Authenticated {
		pkg.SendJsonResponse(w, http.StatusUnauthorized, map[string]interface{}{
			"authenticated": false,
		})
		return
	}

	pkg.SendJsonResponse(w, http.StatusOK, map[string]string{
		"username":       userSession.Athlete.Username,
		"firstname":      userSession.Athlete.FirstName,
		"lastname":       userSession.Athlete.LastName,
		"profile_medium": userSession.Athlete.ProfileMedium,
	})
}
