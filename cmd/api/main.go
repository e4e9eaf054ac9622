package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/csg4786/transcript-insights/internal/classifier"
	"github.com/csg4786/transcript-insights/internal/config"
	"github.com/csg4786/transcript-insights/internal/dataset"
	"github.com/csg4786/transcript-insights/internal/extractor"
	"github.com/csg4786/transcript-insights/internal/llm"
	"github.com/csg4786/transcript-insights/internal/logger"
	"github.com/csg4786/transcript-insights/internal/notify"
	"github.com/csg4786/transcript-insights/internal/pipeline"
	"github.com/csg4786/transcript-insights/internal/store"
	"github.com/csg4786/transcript-insights/internal/types"
	"github.com/csg4786/transcript-insights/internal/watcher"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "transcript-insights").Info("starting service")

	cfg, err := config.Load(envOr("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	if !cfg.ModelConfigured() {
		log.Fatal("LLM_GATEWAY_URL and LLM_API_KEY are required")
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}
	defer st.Close()
	log.WithField("db_path", cfg.Store.Path).Info("store opened")

	model := llm.NewClient(cfg.Model, nil)
	cls := classifier.New(model, cfg.Classifier.ExcerptChars)
	ext := extractor.New(model, cfg.Model.Temperature, cfg.Model.MaxOutputTokens)

	var notifier notify.Notifier = notify.Noop{}
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewWebhook(cfg.Notify.WebhookURL, nil)
	}

	pipe := pipeline.New(st, cls, ext, notifier, cfg.Notify.UserID)

	analyze := func(ctx context.Context, id, text string) {
		if _, err := pipe.Run(ctx, id, text); err != nil {
			logger.New().Component("runner").WithField("transcript_id", id).WithError(err).Warn("run failed")
		}
	}

	// optional drop-directory ingestion
	if cfg.Watch.Enabled {
		w := watcher.New(cfg.Watch.Dir, func(ctx context.Context, name, text string) {
			t, err := st.CreateTranscript(ctx, types.Transcript{Text: text})
			if err != nil {
				logger.New().Component("watcher").WithError(err).Warn("failed to create transcript")
				return
			}
			go analyze(context.Background(), t.ID, text)
		})
		go func() {
			if err := w.Run(context.Background()); err != nil && err != context.Canceled {
				log.WithError(err).Error("watcher stopped")
			}
		}()
	}

	mux := http.NewServeMux()

	// health
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		logger.New().WithRequest(r).Info("health check")
		fmt.Fprint(w, "ok")
	})

	// accept a transcript and analyze it asynchronously
	mux.HandleFunc("POST /analyze", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "analyze")

		var body struct {
			TranscriptID string `json:"transcript_id"`
			Text         string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Text) == "" {
			reqLog.Warn("missing transcript text")
			http.Error(w, "transcript text is required", http.StatusBadRequest)
			return
		}

		t, err := st.CreateTranscript(r.Context(), types.Transcript{
			ID:   body.TranscriptID,
			Text: body.Text,
		})
		if err != nil {
			reqLog.WithError(err).Error("failed to create transcript")
			http.Error(w, "failed to create transcript", http.StatusInternalServerError)
			return
		}
		reqLog.WithField("transcript_id", t.ID).Info("analysis queued")

		go analyze(context.Background(), t.ID, t.Text)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{
			"transcript_id": t.ID,
			"status":        string(t.Status),
		})
	})

	// transcript status
	mux.HandleFunc("GET /transcripts/{id}", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "transcript")
		t, err := st.GetTranscript(r.Context(), r.PathValue("id"))
		if err != nil {
			reqLog.WithError(err).Warn("transcript lookup failed")
			http.Error(w, "transcript not found", http.StatusNotFound)
			return
		}
		t.Text = "" // status endpoint, keep the payload small
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(t)
	})

	// stored insights for a transcript
	mux.HandleFunc("GET /transcripts/{id}/insights", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "insights")
		insights, err := st.InsightsByTranscript(r.Context(), r.PathValue("id"))
		if err != nil {
			reqLog.WithError(err).Error("failed to load insights")
			http.Error(w, "failed to load insights", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.Encode(insights)
	})

	// demo endpoint (analyze first N rows from the configured xlsx dataset)
	mux.HandleFunc("POST /demo", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "demo")
		records, err := dataset.Load(cfg.Dataset.Path)
		if err != nil {
			reqLog.WithError(err).Error("dataset load error")
			http.Error(w, "dataset load error", 500)
			return
		}
		limit := 5
		if len(records) < limit {
			limit = len(records)
		}
		var queued []string
		for _, rec := range records[:limit] {
			t, err := st.CreateTranscript(r.Context(), types.Transcript{ID: rec.ID, Text: rec.Text})
			if err != nil {
				reqLog.WithError(err).WithField("record_id", rec.ID).Warn("skipping record")
				continue
			}
			reqLog.WithField("transcript_id", t.ID).Info("demo transcript queued")
			go analyze(context.Background(), t.ID, t.Text)
			queued = append(queued, t.ID)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"queued": queued})
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
