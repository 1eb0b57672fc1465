package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/2beens/stryde/internal"
	"github.com/2beens/stryde/internal/config"
	"github.com/2beens/stryde/internal/logging"
	"github.com/2beens/stryde/pkg"

	log "github.com/sirupsen/logrus"
)

func main() {
	fmt.Println("starting ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	log.Warnf("---->> running in [%s] environment", *env)

	configExists, err := pkg.PathExists(*configPath, false)
	if err != nil {
		panic(err)
	}
	if !configExists {
		panic(fmt.Sprintf("config file not found: %s", *configPath))
	}

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	sentryDSN := os.Getenv("SENTRY_DSN")
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    false,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        sentryDSN,
		SentryServerName: "stryde-service",
	})

	log.Debugf("using port: %d", cfg.Port)
	log.Debugf("using server logs path: [%s]", cfg.LogsPath)

	stravaClientID := os.Getenv("STRYDE_STRAVA_CLIENT_ID")
	if stravaClientID == "" {
		log.Errorf("strava client id not set, use STRYDE_STRAVA_CLIENT_ID env var to set it")
	}
	stravaClientSecret := os.Getenv("STRYDE_STRAVA_CLIENT_SECRET")
	if stravaClientSecret == "" {
		log.Errorf("strava client secret not set, use STRYDE_STRAVA_CLIENT_SECRET env var to set it")
	}

	openAIAPIKey := os.Getenv("OPENAI_API_KEY")
	if openAIAPIKey == "" {
		log.Warnf("openai api key not set, training plans will use the rule based fallback")
	}

	redisPassword := os.Getenv("STRYDE_REDIS_PASS")
	if redisPassword == "" {
		log.Errorf("redis password not set. use STRYDE_REDIS_PASS")
	}

	versionInfo, err := tryGetLastCommitHash()
	if err != nil {
		log.Tracef("failed to get last commit hash / version info: %s", err)
	} else {
		log.Tracef("running version: %s", versionInfo)
	}

	honeycombEnabled := os.Getenv("HONEYCOMB_ENABLED") == "true"
	if honeycombEnabled {
		if honeycombApiKey := os.Getenv("HONEYCOMB_API_KEY"); honeycombApiKey == "" {
			log.Warnln("HONEYCOMB_API_KEY env var not set")
		}
	} else {
		log.Debugln("honeycomb tracing disabled")
	}

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())

	server, err := internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			StravaClientID:          stravaClientID,
			StravaClientSecret:      stravaClientSecret,
			OpenAIAPIKey:            openAIAPIKey,
			RedisPassword:           redisPassword,
			VersionInfo:             versionInfo,
			HoneycombTracingEnabled: honeycombEnabled,
		},
	)
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	server.Serve(ctx, cfg.Host, cfg.Port)

	receivedSig := <-chOsInterrupt
	log.Warnf("signal [%s] received, killing everything ...", receivedSig)
	cancel()

	// go to sleep 🥱
	server.GracefulShutdown()
}

// tryGetLastCommitHash will try to get the last commit hash
// assumes that the built main executable is in project root
func tryGetLastCommitHash() (string, error) {
	cmd := exec.Command("/usr/bin/git", "rev-parse", "HEAD")
	stdout, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return pkg.BytesToString(stdout), nil
}
