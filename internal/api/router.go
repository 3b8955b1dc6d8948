package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/samhotchkiss/trackshare/internal/logging"
	"github.com/samhotchkiss/trackshare/internal/middleware"
	"github.com/samhotchkiss/trackshare/internal/ws"
)

// RouterDeps wires services into the HTTP surface. Nil services answer 503.
type RouterDeps struct {
	Auth            *middleware.Authenticator
	Activity        ActivityLister
	Notifications   NotificationManager
	Recommendations Recommender
	Shares          ShareManager
	Hub             *ws.Hub
	AllowedOrigins  []string
	Version         string
	Logger          *log.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	logger := logging.OrDiscard(deps.Logger)
	auth := deps.Auth
	if auth == nil {
		auth = middleware.NewAuthenticator("")
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimw.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", handleHealth(deps.Version))
	r.Get("/", handleRoot)

	if deps.Hub != nil {
		r.Handle("/ws", &ws.Handler{
			Hub:            deps.Hub,
			Auth:           auth,
			AllowedOrigins: deps.AllowedOrigins,
			Logger:         logger,
		})
	}

	shareHandler := &ShareHandler{Service: deps.Shares, Logger: logger}
	r.Get("/api/share/{id}", shareHandler.Get)

	activityHandler := &ActivityHandler{Service: deps.Activity, Logger: logger}
	notificationsHandler := &NotificationsHandler{Service: deps.Notifications, Logger: logger}
	if deps.Hub != nil {
		notificationsHandler.Broadcaster = deps.Hub
	}
	recommendationsHandler := &RecommendationsHandler{Service: deps.Recommendations, Logger: logger}

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Get("/api/activity", activityHandler.List)
		r.Get("/api/notifications", notificationsHandler.List)
		r.Post("/api/notifications", notificationsHandler.MarkRead)
		r.Get("/api/recommendations", recommendationsHandler.List)
		r.Post("/api/share", shareHandler.Create)
		r.Get("/api/metrics", handleMetrics)
	})

	return r
}

func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(started),
				"request_id", chimw.GetReqID(r.Context()),
			)
		})
	}
}
