package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"fixmate/api/internal/config"
	"fixmate/api/internal/fix"
	"fixmate/api/internal/fix/gemini"
	"fixmate/api/internal/fix/mock"
	"fixmate/api/internal/handle"
	"fixmate/api/internal/session"
	"fixmate/api/internal/store"
)

func main() {
	cfg := config.Load()

	if p := strings.TrimSpace(os.Getenv("PORT")); p != "" {
		cfg.Port = p
	} else if strings.TrimSpace(cfg.Port) == "" {
		cfg.Port = "8000"
	}

	engines := &fix.Engines{Mock: mock.New()}
	if cfg.GeminiAPIKey != "" {
		engines.Gemini = gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	} else {
		log.Printf("GEMINI_API_KEY not set; serving mock responses")
	}

	sessions := session.NewManager(cfg.SessionTTL)
	h := handle.New(engines, sessions)
	h.Model = cfg.GeminiModel

	// Optional diagnosis cache.
	var db *sql.DB
	if cfg.DatabaseDSN != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("sql.Open: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(1 * time.Hour)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("db.Ping: %v", err)
		}
		cancel()
		h.Cache = store.NewSolutionRepo(db)
		log.Printf("diagnosis cache enabled")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("db: not ok\n" + err.Error()))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/v1/fix/diagnose", h.Diagnose)
	mux.HandleFunc("/v1/fix/chat", h.Chat)
	mux.HandleFunc("/v1/fix/chat/stream", h.ChatStream)
	mux.HandleFunc("/v1/fix/part", h.IdentifyPart)
	mux.HandleFunc("/v1/fix/part/state", h.PartState)
	mux.HandleFunc("/v1/fix/verify", h.VerifyStep)
	mux.HandleFunc("/v1/fix/session/step", h.CompleteStep)
	mux.HandleFunc("/v1/fix/session/reset", h.Reset)

	addr := ":" + cfg.Port
	log.Printf("fixmate api listening on %s (engine=%s)", addr, engines.Default().Name())
	log.Fatal(http.ListenAndServe(addr, mux))
}
