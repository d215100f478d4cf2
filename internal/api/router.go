package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/censusware/population-system/docs"
	"github.com/censusware/population-system/internal/api/handler"
	"github.com/censusware/population-system/internal/api/middleware"
	"github.com/censusware/population-system/internal/core/ports"
	"github.com/censusware/population-system/internal/infrastructure/config"
)

// RouterDeps carries everything the HTTP surface needs. Services are wired
// by the caller so the router stays free of persistence concerns.
type RouterDeps struct {
	Cfg    *config.Config
	DB     *mongo.Database
	Redis  *redis.Client
	Auth   ports.AuthService
	Places ports.PlaceService
	Audit  ports.AuditService
	Log    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(echoprometheus.NewMiddleware("population"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth)
	placeHandler := handler.NewPlaceHandler(d.Places)
	auditHandler := handler.NewAuditHandler(d.Audit)
	authGate := middleware.Auth(d.Cfg.JWTSecret, d.Auth)

	e.GET("/", handler.Welcome)

	// --- User routes (base path configuration-driven) ---
	users := e.Group(d.Cfg.UserBasePath)
	users.POST("/signup", authHandler.Signup)
	users.POST("/signin", authHandler.Signin)
	users.DELETE("/:id", authHandler.Delete, authGate)

	// --- Place routes (all authenticated) ---
	places := e.Group(d.Cfg.PlaceBasePath, authGate)
	places.GET("", placeHandler.List)
	places.POST("", placeHandler.Create)
	places.GET("/:id", placeHandler.Get)
	places.PUT("/:id", placeHandler.Update)
	places.DELETE("/:id", placeHandler.Delete)
	places.GET("/:id/audit", auditHandler.Trail)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.DB, d.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
