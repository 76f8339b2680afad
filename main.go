package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	alertapp "genset-cloud/internal/alerts/application"
	alertrepo "genset-cloud/internal/alerts/infrastructure/postgres"
	alerthttp "genset-cloud/internal/alerts/interfaces/http"
	reportapp "genset-cloud/internal/analytics/application"
	reporthttp "genset-cloud/internal/analytics/interfaces/http"
	"genset-cloud/internal/auth"
	"genset-cloud/internal/eventing"
	maintenancerepo "genset-cloud/internal/maintenance/infrastructure/postgres"
	maintenancehttp "genset-cloud/internal/maintenance/interfaces/http"
	"genset-cloud/internal/observability/metrics"
	"genset-cloud/internal/telemetry/application"
	"genset-cloud/internal/telemetry/application/events"
	telemetrypostgres "genset-cloud/internal/telemetry/infrastructure/postgres"
	telemetryredis "genset-cloud/internal/telemetry/infrastructure/redis"
	telemetryhttp "genset-cloud/internal/telemetry/interfaces/http"
	telemetrymqtt "genset-cloud/internal/telemetry/interfaces/mqtt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := application.NewSnapshotStore(cfg.DeviceID)
	historyRepo := telemetrypostgres.NewHistoryRepository(db)
	historyQuery := telemetrypostgres.NewHistoryQuery(db)

	writerOpts := []application.WriterOption{}
	var latestCache *telemetryredis.LatestCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatalf("redis ping error: %v", err)
		}
		defer client.Close()
		latestCache, err = telemetryredis.NewLatestCache(client)
		if err != nil {
			logger.Fatalf("redis cache error: %v", err)
		}
		writerOpts = append(writerOpts, application.WithLatestCache(latestCache))
	}

	writer, err := application.NewPersistenceWriter(historyRepo, logger, writerOpts...)
	if err != nil {
		logger.Fatalf("persistence writer error: %v", err)
	}

	bus := eventing.NewInMemoryBus()

	ingestor, err := application.NewIngestor(cfg.DeviceID, store, writer, bus, logger,
		application.WithQueueSize(cfg.IngestQueueSize))
	if err != nil {
		logger.Fatalf("ingestor error: %v", err)
	}
	go ingestor.Run(ctx)

	defaults, err := alertapp.LoadDefaultRules(cfg.ThresholdsConfig)
	if err != nil {
		logger.Fatalf("thresholds config error: %v", err)
	}
	ruleStore, err := alertapp.NewRuleStore(alertrepo.NewRuleRepository(db), defaults, logger)
	if err != nil {
		logger.Fatalf("rule store error: %v", err)
	}
	if err := ruleStore.Load(ctx); err != nil {
		logger.Fatalf("rule load error: %v", err)
	}

	alertBroker := alerthttp.NewSSEBroker()
	alertService, err := alertapp.NewService(alertrepo.NewAlertRepository(db), ruleStore, logger,
		alertapp.WithNotifier(alertBroker))
	if err != nil {
		logger.Fatalf("alert service error: %v", err)
	}
	if err := alertService.SeedDebounce(ctx); err != nil {
		logger.Fatalf("alert debounce seed error: %v", err)
	}

	broadcaster := telemetryhttp.NewBroadcaster(logger)

	eventing.SubscribeTo(bus, alertService.HandleStatusReceived)
	eventing.SubscribeTo(bus, broadcaster.HandleStatusReceived)
	eventing.SubscribeTo(bus, func(_ context.Context, evt events.StatusReceived) error {
		logger.Printf("status received: device=%s at=%s", evt.DeviceID, evt.At.Format(time.RFC3339))
		return nil
	})

	consumer, err := telemetrymqtt.NewConsumer(telemetrymqtt.Config{
		BrokerURL: cfg.MQTTBroker,
		ClientID:  cfg.MQTTClientID,
		Username:  cfg.MQTTUsername,
		Password:  cfg.MQTTPassword,
		Topic:     cfg.MQTTTopic,
	}, ingestor, logger)
	if err != nil {
		logger.Fatalf("mqtt consumer error: %v", err)
	}
	if err := consumer.Start(); err != nil {
		logger.Fatalf("mqtt connect error: %v", err)
	}
	defer consumer.Close()

	telemetryOpts := []telemetryhttp.Option{}
	if latestCache != nil {
		telemetryOpts = append(telemetryOpts, telemetryhttp.WithCache(latestCache))
	}
	telemetryHandler, err := telemetryhttp.NewHandler(cfg.DeviceID, store, historyQuery, telemetryOpts...)
	if err != nil {
		logger.Fatalf("telemetry handler error: %v", err)
	}

	alertHandler, err := alerthttp.NewHandler(alertService, ruleStore)
	if err != nil {
		logger.Fatalf("alert handler error: %v", err)
	}

	reportService, err := reportapp.NewReportService(cfg.DeviceID, historyQuery)
	if err != nil {
		logger.Fatalf("report service error: %v", err)
	}
	reportHandler, err := reporthttp.NewHandler(cfg.DeviceID, reportService, systemClock{})
	if err != nil {
		logger.Fatalf("report handler error: %v", err)
	}

	maintenanceHandler, err := maintenancehttp.NewHandler(maintenancerepo.NewTaskRepository(db))
	if err != nil {
		logger.Fatalf("maintenance handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/engine-data/latest", telemetryHandler)
	mux.Handle("/api/v1/engine-data/history", telemetryHandler)
	mux.Handle("/api/v1/engine-data/stream", broadcaster)
	mux.Handle("/api/v1/alerts", alertHandler)
	mux.Handle("/api/v1/alerts/", alertHandler)
	mux.Handle("/api/v1/alerts/stream", alerthttp.NewStreamHandler(alertBroker))
	mux.Handle("/api/v1/thresholds", alertHandler)
	mux.Handle("/api/v1/reports/", reportHandler)
	mux.Handle("/api/v1/exports/", reportHandler)
	mux.Handle("/api/v1/maintenance", maintenanceHandler)
	mux.Handle("/api/v1/maintenance/", maintenanceHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL      string
	RedisAddr        string
	RedisPassword    string
	HTTPAddr         string
	DeviceID         string
	MQTTBroker       string
	MQTTClientID     string
	MQTTUsername     string
	MQTTPassword     string
	MQTTTopic        string
	IngestQueueSize  int
	ThresholdsConfig string
	JWTSecret        string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:      getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		RedisAddr:        getenvDefault("REDIS_ADDR", ""),
		RedisPassword:    getenvDefault("REDIS_PASSWORD", ""),
		HTTPAddr:         getenvDefault("HTTP_ADDR", ":8080"),
		DeviceID:         getenvDefault("DEVICE_ID", "ESP32_GENERATOR_01"),
		MQTTBroker:       getenvDefault("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID:     getenvDefault("MQTT_CLIENT_ID", "genset-cloud"),
		MQTTUsername:     getenvDefault("MQTT_USERNAME", ""),
		MQTTPassword:     getenvDefault("MQTT_PASSWORD", ""),
		MQTTTopic:        getenvDefault("MQTT_TOPIC", "gen/#"),
		IngestQueueSize:  getenvIntDefault("INGEST_QUEUE_SIZE", 256),
		ThresholdsConfig: getenvDefault("THRESHOLDS_CONFIG", ""),
		JWTSecret:        getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Flush lets the SSE stream write through the wrapper.
func (w *statusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack lets the websocket upgrade take over the connection.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return hijacker.Hijack()
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
