package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/phonedeck/phonedeck/pkg/composables"
	"github.com/phonedeck/phonedeck/pkg/configuration"
	"github.com/phonedeck/phonedeck/pkg/httpapi"
	"github.com/phonedeck/phonedeck/pkg/middleware"
)

// Controller is anything that can mount routes on the router.
type Controller interface {
	Register(r *mux.Router)
}

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Pool          *pgxpool.Pool
	Controllers   []Controller
}

// Default assembles the HTTP server: logging middleware, the database
// pool on every request context, registered controllers and a health
// endpoint.
func Default(options *DefaultOptions) *http.Server {
	router := mux.NewRouter()
	router.Use(middleware.WithLogger(options.Logger))
	router.Use(withPool(options.Pool))

	router.HandleFunc("/health", healthHandler(options.Pool)).Methods(http.MethodGet)
	for _, controller := range options.Controllers {
		controller.Register(router)
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, http.StatusNotFound, "not_found", "no such route", nil)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})

	return &http.Server{
		Addr:              options.Configuration.Server.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func withPool(pool *pgxpool.Pool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(composables.WithPool(r.Context(), pool)))
		})
	}
}

func healthHandler(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			_ = httpapi.WriteError(w, http.StatusServiceUnavailable, "unhealthy", "database unreachable", nil)
			return
		}
		_ = httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
