package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/newsletter"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/preference"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Deps struct {
	Logger *slog.Logger
	Cfg    config.Config

	Catalog     *catalog.Catalog
	Carts       *cart.Manager
	Checkout    *checkout.Sessions
	Orders      order.History
	Newsletter  *newsletter.Client
	Preferences *preference.Store
}

type Handler struct {
	log         *slog.Logger
	catalog     *catalog.Catalog
	carts       *cart.Manager
	checkout    *checkout.Sessions
	orders      order.History
	newsletter  *newsletter.Client
	preferences *preference.Store
}

func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		log:         logger,
		catalog:     d.Catalog,
		carts:       d.Carts,
		checkout:    d.Checkout,
		orders:      d.Orders,
		newsletter:  d.Newsletter,
		preferences: d.Preferences,
	}
}

func NewRouter(d Deps) http.Handler {
	h := NewHandler(d)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.CORS(d.Cfg.CORSAllowOrigins))
	r.Use(chimw.Logger)
	r.Use(middleware.Recover(h.log))
	r.Use(middleware.Session)
	r.Use(middleware.UserID)

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)
		r.Get("/filters", h.Filters)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddCartItem)
			r.Put("/items/{productId}", h.SetCartQuantity)
			r.Delete("/items/{productId}", h.RemoveCartItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", h.CheckoutState)
			r.Post("/", h.BeginCheckout)
			r.Put("/shipping", h.UpdateShipping)
			r.Put("/payment-method", h.SetPaymentMethod)
			r.Post("/next", h.NextStep)
			r.Post("/back", h.PreviousStep)
			r.Post("/confirm", h.ConfirmCheckout)
			r.Post("/cancel", h.CancelCheckout)
		})

		r.Get("/orders", h.ListOrders)
		r.Get("/orders/{orderId}", h.GetOrder)

		r.Post("/newsletter/subscribe", h.Subscribe)
		r.Post("/newsletter/unsubscribe", h.Unsubscribe)

		r.Post("/blog/posts/{postId}/like", h.LikePost)
		r.Get("/blog/posts/{postId}/likes", h.PostLikes)

		r.Get("/preferences/theme", h.GetTheme)
		r.Put("/preferences/theme", h.SetTheme)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(d.Cfg.AdminToken))
			r.Get("/stats", h.Stats)
			r.Post("/newsletter/send", h.SendNewsletter)
			r.Get("/newsletter/subscribers", h.ListSubscribers)
			r.Get("/newsletter/subscribers/{id}", h.GetSubscriber)
		})
	})

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "storefront"})
}
