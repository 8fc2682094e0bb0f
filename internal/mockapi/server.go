// Package mockapi is an in-memory implementation of the ConstitutionGPT REST
// API for local development and end-to-end tests. It issues short-lived access
// JWTs and single-use rotating refresh tokens.
package mockapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/waabox/constitutiongpt/internal/domain"
)

// Config configures a Server.
type Config struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Logger     *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Server serves the API. It implements http.Handler.
type Server struct {
	store  *store
	tokens *tokenIssuer
	log    *slog.Logger
	router http.Handler
}

// New creates a seeded Server.
func New(cfg Config) (*Server, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("signing secret is required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("token lifetimes must be positive")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		store:  newStore(cfg.Now, cfg.BcryptCost),
		tokens: newTokenIssuer(cfg.Secret, cfg.AccessTTL, cfg.RefreshTTL, cfg.Now),
		log:    cfg.Logger,
	}
	if err := s.store.seed(); err != nil {
		return nil, err
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer, requestID, logging(s.log))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ConstitutionGPT API is running"})
	})

	// public
	r.Post("/register", s.register)
	r.Post("/login", s.login)
	r.Post("/refresh", s.refresh)
	r.Get("/topics", s.listTopics)
	r.Get("/topics/search/{query}", s.searchTopics)
	r.Get("/topics/{id}", s.getTopic)
	r.Get("/lawyers", s.listLawyers)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/verify-token", s.verifyToken)
		r.Post("/change-password", s.changePassword)

		r.Post("/chat", s.ask)
		r.Get("/history", s.history)
		r.Get("/chat/{id}", s.getChat)
		r.Delete("/chat/{id}", s.deleteChat)

		r.Post("/messages", s.sendMessage)
		r.Get("/messages/{id}", s.conversation)
		r.Get("/chat-inbox", s.inbox)

		r.Post("/appointments", s.bookAppointment)
		r.Get("/appointments/user", s.userAppointments)
		r.With(requireRole(string(domain.RoleLawyer), errLawyerRequired)).
			Get("/appointments/lawyer", s.lawyerAppointments)
		r.Put("/appointments/{id}/status", s.updateAppointmentStatus)

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireRole(string(domain.RoleAdmin), errAdminRequired))
			r.Get("/lawyers", s.adminLawyers)
			r.Post("/verify", s.verifyLawyer)
		})
	})
	return r
}
