package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/catalog"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/config"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/logger"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/metrics"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/pipeline"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/respond"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the question-answering API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}
		vocab, err := buildVocabulary()
		if err != nil {
			return err
		}

		registry := prometheus.NewRegistry()
		memory := metrics.NewMemoryRecorder()
		recorder := metrics.Multi(memory, metrics.NewPromRecorder(registry))
		engine := pipeline.New(vocab, catalog.NewCoreRegistry(), catalog.NewComplexRegistry(), recorder)

		srv := &server{engine: engine, memory: memory, dataset: ds}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Post("/api/ask", srv.handleAsk)
		r.Get("/api/metrics/report", srv.handleReport)
		r.Get("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP)
		r.Get("/healthz", srv.handleHealth)

		addr := config.Get().Server.Addr
		logger.L().Infow("http server listening", "addr", addr, "events", len(ds))
		return http.ListenAndServe(addr, r)
	},
}

type server struct {
	engine  *pipeline.Engine
	memory  *metrics.MemoryRecorder
	dataset model.Dataset
}

type askRequest struct {
	Question string `json:"question"`
	Session  string `json:"session"`
}

type askResponse struct {
	RequestID   string         `json:"request_id"`
	Answer      respond.Answer `json:"answer"`
	Suggestions []string       `json:"suggestions,omitempty"`
	ElapsedMs   int64          `json:"elapsed_ms"`
}

func (s *server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	if ans, ok := s.metaAnswer(req.Question); ok {
		writeJSON(w, http.StatusOK, askResponse{Answer: ans})
		return
	}

	eval := s.engine.Answer(req.Question, req.Session, s.dataset)
	resp := askResponse{
		RequestID: eval.RequestID,
		Answer:    eval.Answer,
		ElapsedMs: eval.Elapsed.Milliseconds(),
	}
	if !eval.Classification.ShouldProcess {
		resp.Suggestions = eval.Classification.Suggestions
	}
	writeJSON(w, http.StatusOK, resp)
}

// metaAnswer handles questions about the system itself from the
// metrics recorder rather than the audit dataset.
func (s *server) metaAnswer(question string) (respond.Answer, bool) {
	q := strings.ToLower(question)
	report := s.memory.Report()
	switch {
	case strings.Contains(q, "combien de questions"):
		return respond.Answer{
			Type:    "meta_analysis",
			Data:    []map[string]any{{"questions": report.Overview.TotalQuestions, "utilisateurs": report.Overview.UniqueUsers}},
			Columns: []string{"Questions", "Utilisateurs"},
			Summary: fmt.Sprintf("%d questions ont été posées au total", report.Overview.TotalQuestions),
			Explanation: fmt.Sprintf("Depuis le démarrage du système, %d questions ont été posées par %d utilisateurs uniques.",
				report.Overview.TotalQuestions, report.Overview.UniqueUsers),
		}, true
	case strings.Contains(q, "temps de réponse"):
		return respond.Answer{
			Type:        "meta_analysis",
			Data:        []map[string]any{{"moyenne_ms": report.Latency.AverageMs, "p95_ms": report.Latency.P95Ms}},
			Columns:     []string{"Moyenne_Ms", "P95_Ms"},
			Summary:     fmt.Sprintf("Temps de réponse moyen: %dms", report.Latency.AverageMs),
			Explanation: "Statistiques de latence calculées sur l'ensemble des réponses produites.",
		}, true
	}
	return respond.Answer{}, false
}

func (s *server) handleReport(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.memory.Report())
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"events": len(s.dataset),
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Warnw("encoding response failed", "err", err)
	}
}
