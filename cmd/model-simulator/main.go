package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/radieske/prediction-gateway-poc/internal/shared/config"
	"github.com/radieske/prediction-gateway-poc/internal/shared/logger"
)

// Simulador local dos colaboradores externos do gateway: serviço de
// modelos (/predict), billing (/entitlements) e user-service (histórico
// e rating). Responde com os três formatos de payload que os modelos
// reais produzem.

var (
	// Métricas Prometheus para monitoramento das chamadas simuladas
	predictServed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "simulator_predict_served_total",
		Help: "Predições simuladas servidas por formato",
	}, []string{"shape"})
	entitlementsServed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "simulator_entitlements_served_total",
		Help: "Consultas de entitlements servidas",
	})
)

// Catálogo fixo de aliases por plano
var (
	anonEntitlements = []string{"Quick Pick"}
	fullEntitlements = []string{"Quick Pick", "Form Cruncher", "Deep Dive", "Stacked", "Edge Finder"}
)

type predictReq struct {
	TeamA       string   `json:"team_a"`
	TeamB       string   `json:"team_b"`
	MatchDate   string   `json:"match_date_str"`
	OddA        *float64 `json:"odd_a"`
	OddB        *float64 `json:"odd_b"`
	OddsHomeWin *float64 `json:"odds_home_win"`
	OddsAwayWin *float64 `json:"odds_away_win"`
}

type server struct {
	log *zap.Logger
}

func newServer(log *zap.Logger) *server { return &server{log: log} }

// predictHandler devolve uma predição simulada em um dos três formatos reais
func (s *server) predictHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req predictReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.TeamA == "" || req.TeamB == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"team_a and team_b are required"}`))
		return
	}

	probHome := rnd(0.30, 0.70)
	probAway := 1 - probHome
	margin := roundTo(abs(probHome-probAway)*25, 1)
	predictionID := rand.Int63n(10000)

	var payload map[string]any
	shape := rand.Intn(10)
	switch {
	case shape < 2: // variante RL
		winner := "Home"
		conf := probHome
		if probAway > probHome {
			winner = "Away"
			conf = probAway
		}
		payload = map[string]any{
			"predicted_winner":   winner,
			"prob_home_rl":       probHome,
			"prob_away_rl":       probAway,
			"winner_confidence":  conf,
			"overall_confidence": rnd(0.4, 0.9),
			"model_alias":        "Edge Finder",
			"prediction_id":      predictionID,
		}
		predictServed.WithLabelValues("rl").Inc()
	case shape < 3: // fallback genérico
		payload = map[string]any{
			"predicted_winner": "Home Win",
			"confidence":       rnd(0.4, 0.8),
			"prediction_id":    predictionID,
		}
		predictServed.WithLabelValues("generic").Inc()
	default: // formato padrão
		winner := "Home Win"
		if probAway > probHome {
			winner = "Away Win"
		}
		payload = map[string]any{
			"predicted_winner": winner,
			"prob_home_win":    probHome,
			"prob_away_win":    probAway,
			"margin":           margin,
			"model_alias":      "Quick Pick",
			"prediction_id":    predictionID,
		}
		predictServed.WithLabelValues("standard").Inc()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

// entitlementsHandler simula o billing: credencial anônima recebe só o
// baseline; credenciais com sufixo "-blocked" recebem 403
func (s *server) entitlementsHandler(w http.ResponseWriter, r *http.Request) {
	entitlementsServed.Inc()
	identity := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	if strings.HasSuffix(identity, "-blocked") {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	out := anonEntitlements
	if identity != "" {
		out = fullEntitlements
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]string{"entitlements": out})
}

// historyHandler devolve um histórico fabricado nos formatos heterogêneos reais
func (s *server) historyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	now := time.Now().UTC()
	records := []map[string]any{
		{
			"model":                "Edge Finder",
			"prediction_id":        int64(41),
			"home_team_name":       "Brisbane Broncos",
			"away_team_name":       "Melbourne Storm",
			"predicted_winner":     "Home",
			"prob_home_rl":         0.71,
			"prob_away_rl":         0.29,
			"prediction_timestamp": now.Add(-1 * time.Hour).Format(time.RFC3339),
		},
		{
			"model":                "Quick Pick",
			"prediction_id":        int64(42),
			"home_team_name":       "Penrith Panthers",
			"away_team_name":       "Sydney Roosters",
			"predicted_winner":     "Away Win",
			"prob_home_win":        0.44,
			"prob_away_win":        0.56,
			"prediction_timestamp": now.Add(-26 * time.Hour).Format(time.RFC3339),
		},
		{
			"model":                "Form Cruncher",
			"prediction_id":        int64(43),
			"home_team_name":       "Canberra Raiders",
			"away_team_name":       "Wests Tigers",
			"predicted_winner":     "Draw",
			"prediction_timestamp": "not-a-timestamp",
		},
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(records)
}

// ratingHandler aceita o rating e responde 201 (mock)
func (s *server) ratingHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req struct {
		PredictionID string `json:"prediction_id"`
		RatingValue  int    `json:"rating_value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PredictionID == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte(`{"status":"SUBMITTED"}`))
}

// resultHandler aceita o desfecho real da partida e responde 201 (mock)
func (s *server) resultHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req struct {
		PredictionID string `json:"prediction_id"`
		ActualWinner string `json:"actual_winner"`
		ActualMargin int    `json:"actual_margin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PredictionID == "" || req.ActualWinner == "" || req.ActualMargin < 0 {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte(`{"status":"SUBMITTED"}`))
}

// gera número aleatório entre min e max
func rnd(min, max float64) float64 {
	return (rand.Float64() * (max - min)) + min
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func roundTo(v float64, decimals int) float64 {
	p := 1.0
	for i := 0; i < decimals; i++ {
		p *= 10
	}
	return float64(int64(v*p+0.5)) / p
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	rand.Seed(time.Now().UnixNano())

	prometheus.MustRegister(predictServed, entitlementsServed)

	s := newServer(log)

	// ==== MUX PÚBLICO: modelos, billing e user-service simulados
	appMux := http.NewServeMux()
	appMux.HandleFunc("/predict", s.predictHandler)
	appMux.HandleFunc("/entitlements", s.entitlementsHandler)
	appMux.HandleFunc("/users/me/predictions", s.historyHandler)
	appMux.HandleFunc("/users/feedback/rating", s.ratingHandler)
	appMux.HandleFunc("/users/feedback/result", s.resultHandler)

	// ==== MUX DE MÉTRICAS (/healthz, /metrics)
	metricsMux := http.NewServeMux()
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	metricsMux.Handle("/metrics", promhttp.Handler())

	// Servidor de métricas em goroutine
	go func() {
		metricsAddr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("model simulator (metrics) running",
			zap.String("addr", metricsAddr),
			zap.String("paths", "/healthz,/metrics"),
		)
		if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil {
			log.Fatal("metrics server error", zap.Error(err))
		}
	}()

	// Servidor público
	publicAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	log.Info("model simulator (public) running",
		zap.String("addr", publicAddr),
		zap.String("paths", "/predict,/entitlements,/users/me/predictions,/users/feedback/rating,/users/feedback/result"),
	)
	if err := http.ListenAndServe(publicAddr, appMux); err != nil {
		log.Fatal("public server error", zap.Error(err))
	}
}
