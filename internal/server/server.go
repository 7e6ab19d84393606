package server

import (
	"log/slog"
	"net/http"

	"github.com/rs/cors"

	"hour-estimator-backend/internal/analytics"
	"hour-estimator-backend/internal/auth"
	"hour-estimator-backend/internal/db"
	"hour-estimator-backend/internal/export"
	"hour-estimator-backend/internal/tasks"
)

type Options struct {
	DB             *db.DB
	Exporter       *export.Exporter
	JWTSecret      []byte
	AllowedOrigins []string
	Logger         *slog.Logger
}

// New builds the API handler with CORS applied.
func New(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	events := analytics.NewLogger(opts.DB, logger)
	store := tasks.NewStore(opts.DB)
	taskHandlers := tasks.NewHandlers(store, events, logger)
	exportHandler := export.NewHandler(store, opts.Exporter, events, logger)
	authMW := auth.New(opts.JWTSecret)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	// ----- AUTH -----
	mux.HandleFunc("POST /auth/anonymous", auth.AnonymousHandler(opts.JWTSecret, logger))
	mux.HandleFunc("GET /auth/me", authMW.Wrap(auth.MeHandler()))

	// ----- TEAMS / TASKS -----
	mux.HandleFunc("POST /teams/{teamId}", authMW.Wrap(taskHandlers.EnsureTeam))
	mux.HandleFunc("GET /teams/{teamId}/tasks", authMW.Wrap(taskHandlers.List))
	mux.HandleFunc("POST /teams/{teamId}/tasks", authMW.Wrap(taskHandlers.Create))
	mux.HandleFunc("PUT /teams/{teamId}/tasks/{taskId}", authMW.Wrap(taskHandlers.Update))
	mux.HandleFunc("DELETE /teams/{teamId}/tasks/{taskId}", authMW.Wrap(taskHandlers.Delete))

	// ----- EXPORT -----
	mux.HandleFunc("GET /teams/{teamId}/export", authMW.Wrap(exportHandler.ServeHTTP))

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Content-Type", "Authorization", "Idempotency-Key",
			"X-Platform", "X-App-Version", "X-Device-Locale", "X-Session-Id",
		},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	})

	return c.Handler(mux)
}
