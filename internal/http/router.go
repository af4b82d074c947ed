package http

import (
	"log/slog"

	"github.com/geocoder89/accounts/internal/accounts"
	"github.com/geocoder89/accounts/internal/config"
	"github.com/geocoder89/accounts/internal/http/handlers"
	"github.com/geocoder89/accounts/internal/http/middlewares"
	"github.com/geocoder89/accounts/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type RouterDeps struct {
	Config   config.Config
	Services *accounts.Services

	// Readiness probes keyed by dependency name
	Checks map[string]handlers.Check
	// Optional; /readyz reports 503 once it returns true
	ShuttingDown func() bool

	// Both optional; /metrics is only mounted when Gatherer is set
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
}

func NewRouter(log *slog.Logger, deps RouterDeps) *gin.Engine {
	cfg := deps.Config

	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(cfg.Env == "prod"))
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// health
	h := handlers.NewHealthHandler(deps.Checks, deps.ShuttingDown)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// users
	svc := deps.Services
	usersHandler := handlers.NewUsersHandler(svc.Users, svc.Authn, svc.Tokens, svc.Profiles, log)
	authMW := middlewares.NewAuthMiddleware(svc.Gate, log)

	users := r.Group("/users")
	users.POST("/create/", usersHandler.CreateUser)
	users.POST("/token/", usersHandler.CreateToken)

	me := users.Group("/me", authMW.RequireAuth())
	me.GET("/", usersHandler.Me)
	me.PATCH("/", usersHandler.UpdateMe)
	me.PUT("/", usersHandler.UpdateMe)

	return r
}
