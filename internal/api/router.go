package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"carmarket/internal/auth"
	"carmarket/internal/config"
	"carmarket/internal/db"
)

type Server struct {
	router *chi.Mux
	config *config.Config
}

func NewServer(
	cfg *config.Config,
	database *db.DB,
	emailService EmailSender,
) (*Server, error) {
	userRepo := db.NewUserRepository(database)
	sessionRepo := db.NewSessionRepository(database)
	carRepo := db.NewCarRepository(database)

	passwordService := auth.NewPasswordService(cfg.Auth.BcryptCost)
	verificationService := auth.NewVerificationService(cfg.Auth.VerificationTokenTTL)
	sessionService := auth.NewSessionService(cfg.Auth.SessionTTL)

	authHandler := NewAuthHandler(
		userRepo,
		sessionRepo,
		passwordService,
		verificationService,
		sessionService,
		emailService,
		cfg.Auth.LoginIdentifier,
	)
	userHandler := NewUserHandler(userRepo, carRepo)
	carHandler := NewCarHandler(carRepo)
	healthHandler := NewHealthHandler(database)

	authMiddleware := NewAuthMiddleware(sessionRepo)

	r := chi.NewRouter()
	r.Use(slogRequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/health", healthHandler.Check)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(maxBodySizeMiddleware(1 << 20)) // 1 MB

		r.With(httprate.LimitByIP(10, time.Minute)).Post("/register", authHandler.Register)
		r.With(httprate.LimitByIP(10, time.Minute)).Post("/login", authHandler.Login)
		r.With(httprate.LimitByIP(5, time.Minute)).Post("/requestNewVerificationEmail", authHandler.RequestNewVerificationEmail)
		r.Get("/verify/{token}", authHandler.VerifyEmail)
		r.Put("/resetPassword/{id}", authHandler.ResetPassword)
		r.Put("/resetEmail/{id}", authHandler.ResetEmail)

		r.Get("/cars", carHandler.GetAll)
		r.Get("/car/{id}", carHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireSession)

			r.Post("/logout", authHandler.Logout)
			r.Get("/user/{id}", userHandler.Get)
			r.With(RequireAdmin).Get("/users", userHandler.GetAll)
			r.With(RequireSelf).Put("/updateUser/{id}", userHandler.Update)
			r.With(RequireAdmin).Delete("/deleteUser/{id}", userHandler.Delete)

			r.Route("/user/{id}/parklist", func(r chi.Router) {
				r.Use(RequireSelf)
				r.Get("/", userHandler.GetParklist)
				r.Post("/{carId}", userHandler.AddToParklist)
				r.Delete("/{carId}", userHandler.RemoveFromParklist)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Post("/createCar", carHandler.Create)
				r.Put("/updateCar/{id}", carHandler.Update)
				r.Delete("/deleteCar/{id}", carHandler.Delete)
			})
		})
	})

	return &Server{
		router: r,
		config: cfg,
	}, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func maxBodySizeMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func slogRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"remote", r.RemoteAddr,
		)
	})
}
