package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/andreasstove999/ecommerce-system/services/shop-cart-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/services/shop-cart-go/internal/middleware"
)

type RouterConfig struct {
	Logger           *slog.Logger
	Auth             middleware.AuthOptions
	CORSAllowOrigins []string

	// Redis backs rate limiting of cart mutations. Nil disables it.
	Redis              redis.Cmdable
	RateLimitPerMinute int
}

func NewRouter(h *CartHandler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Auth.Logger == nil {
		cfg.Auth.Logger = logger
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(cfg.CORSAllowOrigins))

	r.Get("/health", healthHandler)

	limit := middleware.RateLimit(cfg.Redis, middleware.RateLimitOptions{
		Limit:  cfg.RateLimitPerMinute,
		Window: time.Minute,
		Logger: logger,
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.Auth))

		r.Get("/", h.GetCart)

		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/add/", h.AddToCart)
			r.Patch("/update/{itemID}/", h.UpdateItem)
			r.Put("/update/{itemID}/", h.UpdateItem)
			r.Delete("/remove/{itemID}/", h.RemoveItem)
			r.Delete("/clear/", h.ClearCart)
		})
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": config.ServiceName})
}
