package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/prediction-gateway-poc/internal/entitlement"
	gcache "github.com/radieske/prediction-gateway-poc/internal/gateway/cache"
	ghttp "github.com/radieske/prediction-gateway-poc/internal/gateway/http"
	"github.com/radieske/prediction-gateway-poc/internal/gateway/producer"
	"github.com/radieske/prediction-gateway-poc/internal/gateway/ws"
	"github.com/radieske/prediction-gateway-poc/internal/prediction/history"
	"github.com/radieske/prediction-gateway-poc/internal/prediction/orchestrator"
	"github.com/radieske/prediction-gateway-poc/internal/prediction/registry"
	sharedcache "github.com/radieske/prediction-gateway-poc/internal/shared/cache"
	"github.com/radieske/prediction-gateway-poc/internal/shared/config"
	"github.com/radieske/prediction-gateway-poc/internal/shared/kafka"
	"github.com/radieske/prediction-gateway-poc/internal/shared/logger"
	"github.com/radieske/prediction-gateway-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Redis: cache de histórico e assinatura do canal de broadcast
	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writer (topic prediction_completed)
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPredictionCompleted)
	defer writer.Close()

	// Métricas Prometheus
	predictions := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "gateway_predictions_total", Help: "predições por modelo e desfecho"},
		[]string{"model", "outcome"},
	)
	fallbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "gateway_confidence_fallback_total", Help: "normalizações com confiança de fallback, por campo"},
		[]string{"source"},
	)
	refreshes := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "gateway_entitlement_refresh_total", Help: "refreshes de entitlements por resultado"},
		[]string{"result"},
	)
	prometheus.MustRegister(predictions, fallbacks, refreshes)

	// deps
	reg := registry.New(cfg.ModelAPIBaseURL)
	orch := orchestrator.New(log, reg)
	orch.OnFallback = func(source string) { fallbacks.WithLabelValues(source).Inc() }

	billing := entitlement.NewBillingClient(cfg.BillingURL)
	gate := entitlement.NewGate(log, billing, cfg.EntitlementPollInterval)
	gate.OnRefresh = func(ok bool) {
		if ok {
			refreshes.WithLabelValues("ok").Inc()
		} else {
			refreshes.WithLabelValues("failed").Inc()
		}
	}

	users := history.NewClient(log, cfg.UserServiceURL)
	publ := producer.NewKafkaPublisher(writer, cfg.TopicPredictionCompleted)

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Refresh inicial (anônimo) e poller periódico de entitlements
	gate.Refresh(ctx, "")
	go gate.Run(ctx)

	// WebSocket: broadcast de resultados vindos do Redis Pub/Sub
	hub := ws.NewHub(func(r *http.Request) bool { return true })
	ws.StartRedisSubscriber(ctx, rdb, cfg.RedisPubSubChannel, hub)

	// HTTP público
	api := ghttp.NewServer(log, reg, orch, gate, users, gcache.New(rdb), publ, hub.HandleWS)
	api.OnPrediction = func(model, outcome string) { predictions.WithLabelValues(model, outcome).Inc() }

	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	go func() {
		<-ctx.Done()
		_ = apiSrv.Shutdown(context.Background())
	}()

	log.Info("prediction-gateway listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
