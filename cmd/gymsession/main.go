package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/2beens/gymsession/internal/cache"
	"github.com/2beens/gymsession/internal/config"
	"github.com/2beens/gymsession/internal/gymstats"
	"github.com/2beens/gymsession/internal/gymstats/api"
	"github.com/2beens/gymsession/internal/gymstats/lastinput"
	"github.com/2beens/gymsession/internal/gymstats/workout"
	"github.com/2beens/gymsession/internal/logging"
	"github.com/2beens/gymsession/internal/telemetry/metrics"
	"github.com/2beens/gymsession/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/multierr"
)

const serviceName = "gymsession"

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	sessionID := flag.Int("session", 0, "id of the workout session to resume")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %s\n", err)
		os.Exit(1)
	}

	closeLogs := logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        os.Getenv("SENTRY_DSN"),
		SentryServerName: serviceName,
	})

	log.Warnf("---->> running in [%s] environment", cfg.Environment)
	log.Debugf("using backend: [%s]", cfg.BackendURL)

	if err := run(cfg, *sessionID); err != nil {
		log.Errorf("gymsession: %s", err)
		closeLogs()
		os.Exit(1)
	}
	closeLogs()
}

func run(cfg *config.Config, sessionID int) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracingShutdown, err := tracing.HoneycombSetup(cfg.HoneycombEnabled, serviceName)
	if err != nil {
		return fmt.Errorf("honeycomb setup: %w", err)
	}
	defer tracingShutdown()

	promRegistry := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager("gymsession", "engine", promRegistry)
	metricsServer := serveMetrics(cfg.MetricsPort, promRegistry)

	responseCache := cache.New(cache.Params{
		TTL:       cfg.CacheTTL.Duration,
		SizeBytes: cfg.CacheSizeBytes(),
		Metrics:   metricsManager,
	})
	client := api.NewClient(
		cfg.BackendURL,
		api.NewHTTPClient(cfg.RequestTimeout.Duration, metricsManager),
		responseCache,
		metricsManager,
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: os.Getenv("GYMSESSION_REDIS_PASS"),
		DB:       cfg.RedisDB,
	})
	var lastInput *lastinput.Memory
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warnf("redis unavailable, last input will not be remembered: %s", err)
	} else {
		lastInput = lastinput.NewMemory(redisClient, cfg.LastInputHorizon.Duration)
	}

	engine := workout.NewEngine(workout.Params{
		Client:     client,
		LastInput:  lastInput,
		Normalizer: gymstats.NewNormalizer(cfg.BarWeight),
		Notifier:   bellNotifier{out: os.Stdout},
		Metrics:    metricsManager,
	})

	if sessionID > 0 {
		if err := engine.LoadSession(ctx, sessionID); err != nil {
			log.Errorf("load session %d: %s", sessionID, err)
			fmt.Printf("could not load session %d: %s\n", sessionID, gymstats.UserMessage(err))
		}
	}

	runErr := newConsole(engine, os.Stdout).run(ctx, os.Stdin)
	if errors.Is(runErr, context.Canceled) {
		log.Warnln("signal received, shutting down ...")
		runErr = nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = multierr.Combine(runErr, redisClient.Close())
	if metricsServer != nil {
		err = multierr.Append(err, metricsServer.Shutdown(shutdownCtx))
	}
	return err
}

// serveMetrics exposes the prometheus registry; nil when metricsPort is not set.
func serveMetrics(metricsPort int, promRegistry *prometheus.Registry) *http.Server {
	if metricsPort <= 0 {
		log.Debugln("metrics server disabled")
		return nil
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Use(otelmux.Middleware("metrics-router"))
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))

	metricsAddr := net.JoinHostPort("localhost", strconv.Itoa(metricsPort))
	metricsServer := &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := metricsServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("metrics server, listen and serve: %s", err)
		}
	}()

	return metricsServer
}
