package http

import (
	nethttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/mind-engage/eduverse/internal/account"
	authmw "github.com/mind-engage/eduverse/internal/auth/middleware"
	"github.com/mind-engage/eduverse/internal/config"
	"github.com/mind-engage/eduverse/internal/course"
	"github.com/mind-engage/eduverse/internal/lesson"
	"github.com/mind-engage/eduverse/internal/progress"
	"github.com/mind-engage/eduverse/internal/quiz"
	"github.com/mind-engage/eduverse/internal/rbac"
	"github.com/mind-engage/eduverse/internal/seed"
)

// Deps are the services the routes are served from.
type Deps struct {
	Auth     *authmw.AuthService
	Accounts *account.Service
	Courses  *course.Service
	Lessons  *lesson.Service
	Quizzes  *quiz.Service
	Progress *progress.Service
	Seed     *seed.Service
	Started  time.Time
}

func NewRouter(cfg *config.Config, d Deps, log zerolog.Logger) nethttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	r.Use(hlog.NewHandler(log))
	r.Use(hlog.AccessHandler(func(r *nethttp.Request, status, size int, dur time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("status", status).
			Int("size", size).
			Dur("duration", dur).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(corsOptions(cfg)))

	r.Get("/", IndexHandler())
	r.Get("/health", HealthHandler(d.Started))

	instructorOnly := rbac.RequireRole(rbac.RoleInstructor, rbac.RoleAdmin)

	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/signup", SignupHandler(d.Accounts))
		ar.Post("/login", LoginHandler(d.Accounts))
		ar.With(authmw.JWTMiddleware(d.Auth)).Get("/profile", ProfileHandler(d.Accounts))
	})

	r.Route("/courses", func(cr chi.Router) {
		cr.Get("/", ListCoursesHandler(d.Courses))
		cr.Get("/{id}", GetCourseHandler(d.Courses))
		cr.Group(func(pr chi.Router) {
			pr.Use(authmw.JWTMiddleware(d.Auth), instructorOnly)
			pr.Post("/", CreateCourseHandler(d.Courses))
			pr.Patch("/{id}", UpdateCourseHandler(d.Courses))
			pr.Delete("/{id}", DeleteCourseHandler(d.Courses))
		})
	})

	r.Route("/lessons", func(lr chi.Router) {
		lr.With(authmw.JWTMiddleware(d.Auth)).Get("/stream/{id}", StreamLessonHandler(d.Lessons))
		lr.Get("/{courseId}", ListLessonsHandler(d.Lessons))
	})

	r.Route("/quiz", func(qr chi.Router) {
		qr.With(authmw.JWTMiddleware(d.Auth)).Post("/submit", SubmitQuizHandler(d.Quizzes))
		qr.With(authmw.OptionalJWT(d.Auth)).Get("/{courseId}", ListQuizHandler(d.Quizzes))
	})

	// Protected API (JWT → claims in context)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth))

		pr.Get("/progress/{userId}/{courseId}", GetProgressHandler(d.Progress))
		pr.Post("/progress/update", UpdateProgressHandler(d.Progress))

		pr.Post("/payment/create-checkout-session", CheckoutSessionHandler(cfg.CheckoutURL))
		pr.Post("/payment/verify", VerifyPaymentHandler())
	})

	r.Post("/seed/demo-data", SeedDemoHandler(d.Seed))
	return r
}

// corsOptions allows the configured frontends in production and any origin
// elsewhere.
func corsOptions(cfg *config.Config) cors.Options {
	origins := []string{"*"}
	if cfg.IsProduction() {
		origins = cfg.FrontendURLs
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}
