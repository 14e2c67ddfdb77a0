package api

import (
	"net/http"
	"time"

	"letscode/internal/api/handler"
	"letscode/internal/api/middleware"
	"letscode/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

type Services struct {
	Auth          handler.Authenticator
	Users         handler.UserProfiles
	Problems      handler.ProblemCatalog
	DailyQuestion handler.DailyQuestionActivator
	Evaluation    handler.Evaluator
	Submissions   handler.SubmissionHistory
	Notifications handler.NotificationFeed
}

// RequestTimeout bounds every non-streaming request. It has to outlast the
// judge dispatch deadline.
const RequestTimeout = 60 * time.Second

func NewRouter(s Services) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger())
	r.Use(chiMiddleware.Recoverer)

	// Verifies a bearer token when present; Authenticator enforces it per route.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handler.NewAuthHandler(s.Auth)
	userHandler := handler.NewUserHandler(s.Users)
	problemHandler := handler.NewProblemHandler(s.Problems, s.DailyQuestion)
	submissionHandler := handler.NewSubmissionHandler(s.Evaluation, s.Submissions)
	notificationHandler := handler.NewNotificationHandler(s.Notifications)

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Group(func(api chi.Router) {
			api.Use(chiMiddleware.Timeout(RequestTimeout))

			authHandler.RegisterRoutes(api)
			userHandler.RegisterRoutes(api)
			api.Get("/languages", handler.ListLanguages)
			api.Route("/problems", problemHandler.RegisterRoutes)
			api.Route("/submissions", submissionHandler.RegisterRoutes)
			notificationHandler.RegisterRoutes(api)
		})

		v1.Get("/notifications/stream", notificationHandler.Stream)
	})

	return r
}
