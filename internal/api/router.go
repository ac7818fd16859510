package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/bounswe/bounswe2025group8-sub001/internal/api/handlers"
	"github.com/bounswe/bounswe2025group8-sub001/internal/config"
)

type Deps struct {
	Tasks      handlers.TaskUsecase
	Volunteers handlers.VolunteerUsecase
	Reviews    handlers.ReviewUsecase
	Users      handlers.UserUsecase
	Auth       handlers.AuthUsecase
	Tokens     TokenValidator
	Limiter    RateLimiter
	RateLimit  config.RateLimitConfig
	Health     map[string]handlers.HealthChecker
	Log        zerolog.Logger
}

func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(d.Log))
	r.Use(middleware.Recoverer)

	taskHandler := handlers.NewTaskHandler(d.Tasks)
	volunteerHandler := handlers.NewVolunteerHandler(d.Volunteers)
	reviewHandler := handlers.NewReviewHandler(d.Reviews)
	userHandler := handlers.NewUserHandler(d.Users)
	authHandler := handlers.NewAuthHandler(d.Auth)
	healthHandler := handlers.NewHealthHandler(d.Health)

	applyLimit := RateLimit(d.Limiter, d.RateLimit, "apply")
	reviewLimit := RateLimit(d.Limiter, d.RateLimit, "review")

	r.Get("/healthz", healthHandler.Healthz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Authenticate(d.Tokens))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.With(RequireAuth).Post("/logout", authHandler.Logout)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(RequireAuth).Get("/me", userHandler.Me)
			r.Get("/{id}", userHandler.Profile)
			r.Get("/{id}/reviews", reviewHandler.ListByUser)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)
			r.With(RequireAuth).Post("/", taskHandler.CreateTask)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.GetTask)
				r.With(RequireAuth).Patch("/", taskHandler.UpdateTask)
				r.With(RequireAuth).Post("/update-status", taskHandler.UpdateStatus)
				r.With(RequireAuth).Get("/history", taskHandler.History)
				r.Get("/volunteers", volunteerHandler.ListForTask)
				r.With(RequireAuth).Post("/volunteers", volunteerHandler.Assign)
				r.Get("/reviews", reviewHandler.ListByTask)
				r.With(RequireAuth, reviewLimit).Post("/reviews", reviewHandler.Submit)
			})
		})

		r.Route("/volunteers", func(r chi.Router) {
			r.Use(RequireAuth)
			r.With(applyLimit).Post("/", volunteerHandler.Apply)
			r.Get("/", volunteerHandler.ListMine)
			r.Patch("/{id}", volunteerHandler.Respond)
			r.Delete("/{id}", volunteerHandler.Withdraw)
		})

		r.With(RequireAuth, reviewLimit).Patch("/reviews/{id}", reviewHandler.Update)
	})

	return r
}
