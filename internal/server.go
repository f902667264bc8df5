package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/agentgate/agentgate/internal/config"
	"github.com/agentgate/agentgate/internal/permission"
	"github.com/agentgate/agentgate/internal/profile"
	"github.com/agentgate/agentgate/pkg/cerr"
	"github.com/agentgate/agentgate/pkg/clog"
)

type Server struct {
	server           *http.Server
	env              *config.Env
	permissionServer *permission.Server
	profileServer    *profile.Server
}

func NewServer(
	env *config.Env,
	permissionServer *permission.Server,
	profileServer *profile.Server,
) *Server {
	return &Server{
		env:              env,
		permissionServer: permissionServer,
		profileServer:    profileServer,
	}
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	r := chi.NewRouter()
	r.Use(clog.SlogChiMiddleware(clog.WithChiFilter(func(r *http.Request) bool {
		return r.URL.Path != "/health"
	})))
	r.Use(requestTimeout(s.env.RequestTimeout))
	r.Use(cerr.NewEnvelopeChiMiddleware())

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.permissionServer.RegisterRoutes(r)
	s.profileServer.RegisterRoutes(r)
	r.NotFound(func(_ http.ResponseWriter, req *http.Request) {
		cerr.SetJSONError(req.Context(),
			cerr.NewAPIError(cerr.NotFound, "NOT_FOUND", "Endpoint not found", nil))
	})

	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr: addr,
		Handler: cors.New(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{
				http.MethodGet, http.MethodPost, http.MethodPut,
				http.MethodDelete, http.MethodOptions,
			},
			AllowedHeaders: []string{"*"},
		}).Handler(r),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// requestTimeout bounds every backend round trip under the request deadline.
// It only shapes the context; response writing stays with the envelope
// middleware, which reports an expired deadline as a gateway timeout.
func requestTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
