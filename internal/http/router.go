package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	Log                zerolog.Logger
}

type Handlers struct {
	Cart     *CartHandler
	Coupon   *CouponHandler
	Delivery *DeliveryHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
}

func NewRouter(cfg RouterConfig, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware)
		r.Use(LoggerMiddleware(cfg.Log))

		r.Get("/store", h.Delivery.GetStore)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.ClearCart)
			r.Post("/items", h.Cart.AddItem)
			r.Put("/items/{product_id}", h.Cart.UpdateQuantity)
			r.Delete("/items/{product_id}", h.Cart.RemoveItem)
		})

		r.Post("/coupon", h.Coupon.ApplyCoupon)
		r.Delete("/coupon", h.Coupon.RemoveCoupon)

		r.Post("/delivery/location", h.Delivery.SelectLocation)
		r.Get("/delivery/location", h.Delivery.GetLocation)

		r.Get("/checkout/quote", h.Checkout.Quote)
		r.Post("/checkout", h.Checkout.Confirm)

		r.Route("/history", func(r chi.Router) {
			r.Get("/", h.Orders.ListHistory)
			r.Delete("/", h.Orders.ClearHistory)
			r.Get("/{order_id}", h.Orders.GetHistoryOrder)
			r.Post("/{order_id}/reorder", h.Orders.Reorder)
		})

		r.Get("/recovery/orders", h.Orders.RecoverByPhone)
		r.Get("/recovery/orders/{order_id}", h.Orders.RecoverByID)
	})

	return otelhttp.NewHandler(r, "storefront")
}
