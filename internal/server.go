package internal

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/stryde/internal/auth"
	"github.com/2beens/stryde/internal/config"
	"github.com/2beens/stryde/internal/middleware"
	"github.com/2beens/stryde/internal/misc"
	"github.com/2beens/stryde/internal/recommend"
	"github.com/2beens/stryde/internal/session"
	"github.com/2beens/stryde/internal/strava"
	"github.com/2beens/stryde/internal/telemetry/metrics"
	"github.com/2beens/stryde/internal/telemetry/tracing"
	"github.com/2beens/stryde/internal/training"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config          *config.Config
	stravaClientID  string
	sessions        *session.Store
	exchanger       *strava.Exchanger
	fetcher         *strava.Fetcher
	recommendEngine *recommend.Engine

	redisClient *redis.Client

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	StravaClientID          string
	StravaClientSecret      string
	OpenAIAPIKey            string
	RedisPassword           string
	VersionInfo             string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	promRegistry := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager("stryde", "backend", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0) // will be set to 1 when all is set and ran

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "stryde-backend", rdb)
	if err != nil {
		return nil, err
	}

	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	var recommendProvider recommend.Provider
	if params.OpenAIAPIKey != "" {
		openAIProvider, err := recommend.NewOpenAIProvider(params.OpenAIAPIKey, params.Config.RecommendModel)
		if err != nil {
			log.Errorf("failed to create openai provider, plans will use the fallback: %s", err)
		} else {
			recommendProvider = openAIProvider
		}
	} else {
		log.Warnln("openai api key not set, plans will use the fallback")
	}

	return &Server{
		config:         params.Config,
		versionInfo:    params.VersionInfo,
		stravaClientID: params.StravaClientID,
		sessions:       session.NewStore(),
		exchanger: strava.NewExchanger(
			params.Config.StravaTokenEndpoint,
			params.Config.StravaAPIEndpoint,
			params.StravaClientID,
			params.StravaClientSecret,
			tracedHttpClient,
		),
		fetcher: strava.NewFetcher(
			params.Config.StravaAPIEndpoint,
			tracedHttpClient,
			metricsManager,
		),
		recommendEngine: recommend.NewEngine(
			recommendProvider,
			params.Config.RecommendTimeout(),
		),

		redisClient: rdb,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	authHandler := auth.NewHandler(auth.NewHandlerParams{
		Sessions:       s.sessions,
		Exchanger:      s.exchanger,
		ClientID:       s.stravaClientID,
		AuthEndpoint:   s.config.StravaAuthEndpoint,
		RedirectURI:    s.config.StravaRedirectURI,
		FrontendURL:    s.config.FrontendURL,
		MetricsManager: s.metricsManager,
	})

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	authHandler.SetupRoutes(r, reqRateLimiter, s.config.AuthRateLimitAllowedPerMin)
	authHandler.SetupProfileRoutes(r)

	trainingHandler := training.NewHandler(
		s.sessions,
		s.fetcher,
		s.recommendEngine,
		s.config.ActivityMaxPages,
		s.metricsManager,
	)
	trainingHandler.SetupRoutes(r)

	miscHandler := misc.NewHandler(s.versionInfo)
	miscHandler.SetupRoutes(r)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(_ context.Context, host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	log.Debugf("dropping %d in-memory sessions", s.sessions.Count())

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
