package http

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	otpapp "github.com/otp-api-nosql/internal/application/otp"
	"github.com/otp-api-nosql/internal/config"
	"github.com/otp-api-nosql/internal/infrastructure/dynamo"
	jwtinfra "github.com/otp-api-nosql/internal/infrastructure/jwt"
	"github.com/otp-api-nosql/internal/infrastructure/smtp"
	"github.com/otp-api-nosql/internal/infrastructure/sns"
	"github.com/otp-api-nosql/internal/transport/http/handler"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	CredentialRepo *dynamo.CredentialRepo
	DeliveryRepo   *dynamo.DeliveryRepo
	Mailer         smtp.Mailer
	Publisher      sns.EventPublisher // optional
	JWTProvider    *jwtinfra.Provider // optional
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	svcDeps := otpapp.ServiceDeps{
		Credentials: deps.CredentialRepo,
		Deliveries:  deps.DeliveryRepo,
		Mailer:      deps.Mailer,
		OTPTTL:      cfg.OTPTTL,
	}
	if deps.Publisher != nil {
		svcDeps.Publisher = deps.Publisher
	}
	if deps.JWTProvider != nil {
		svcDeps.Signer = deps.JWTProvider
	}
	otpSvc := otpapp.NewService(svcDeps)

	otpH := handler.NewOTPHandler(otpSvc)
	healthH := handler.NewHealthHandler()

	r.Post("/send-otp", otpH.Send)
	r.Post("/verify-otp", otpH.Verify)
	r.Get("/deliveries", otpH.Deliveries)
	r.Get("/health-check", healthH.Ping)

	// Static login page at the root path, remaining assets from the same dir.
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, filepath.Join(cfg.StaticDir, "login.html"))
	})
	r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))

	return r
}
