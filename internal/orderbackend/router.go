package orderbackend

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pesansayur/storefront/pkg/logger"
)

type RouterConfig struct {
	RequestTimeout time.Duration
	RateLimit      float64
	RateBurst      int
	Log            zerolog.Logger
}

func NewRouter(cfg RouterConfig, h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			l := cfg.Log.With().Str("request_id", middleware.GetReqID(req.Context())).Logger()
			next.ServeHTTP(w, req.WithContext(logger.WithContext(req.Context(), l)))
		})
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		respond(w, req, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		if cfg.RateLimit > 0 {
			r.Use(NewRateLimiter(cfg.RateLimit, cfg.RateBurst).Middleware)
		}
		r.Get("/", h.Get)
		r.Post("/", h.Post)
	})

	return otelhttp.NewHandler(r, "orderbackend")
}
