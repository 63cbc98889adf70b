package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ravewall/internal/handler"
	"ravewall/internal/httputil"
	authmw "ravewall/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler        *handler.AuthHandler
	ImportHandler      *handler.ImportHandler
	TestimonialHandler *handler.TestimonialHandler
	WidgetHandler      *handler.WidgetHandler
	JWTSecret          string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
	})

	// Public widget feed, consumed by embeds on customer sites
	r.Get("/widget/{userId}", cfg.WidgetHandler.Feed)

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		// Current user endpoint
		r.Get("/me", cfg.AuthHandler.Me)

		// Import pipeline
		r.Post("/import", cfg.ImportHandler.Create)
		r.Get("/imports", cfg.ImportHandler.List)
		r.Get("/imports/{importId}/comments", cfg.ImportHandler.GetComments)
		r.Delete("/imports/{importId}", cfg.ImportHandler.Delete)

		// Promotion
		r.Post("/comments/{commentId}/promote", cfg.TestimonialHandler.Promote)

		// Testimonial management
		r.Post("/testimonials", cfg.TestimonialHandler.Create)
		r.Get("/testimonials", cfg.TestimonialHandler.List)
		r.Patch("/testimonials/{testimonialId}", cfg.TestimonialHandler.UpdateStatus)
		r.Delete("/testimonials/{testimonialId}", cfg.TestimonialHandler.Delete)
	})

	return r
}
