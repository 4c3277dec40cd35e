package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/eduvale/polo-portal/internal/middleware"
)

// SetupRouter configura as rotas HTTP e os middlewares do portal.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api/portal", func(r chi.Router) {
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.session.Middleware)

			r.Post("/sync", h.Resync)
			r.Get("/courses", h.GetCourses)
			r.Get("/invoices", h.GetInvoices)
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(h.adminOnly)

		r.Post("/invoices", h.CreateInvoice)
		r.Post("/invoices/{number}/settle", h.SettleInvoice)
		r.Get("/students", h.FindStudents)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}

// adminOnly exige o token administrativo no cabeçalho X-Admin-Token.
func (h *Handler) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Admin-Token")
		if h.adminToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
