package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/videotube/api/internal/api/handler"
	"github.com/videotube/api/internal/api/middleware"
	"github.com/videotube/api/internal/core/service"
	"github.com/videotube/api/internal/infrastructure/config"
	mongodb "github.com/videotube/api/internal/infrastructure/db/mongo"
	redisdb "github.com/videotube/api/internal/infrastructure/db/redis"
	"github.com/videotube/api/internal/infrastructure/http/handlers"
	"github.com/videotube/api/internal/infrastructure/storage"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, media *storage.MediaStore, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowCredentials: true,
	}))
	e.Use(echoprometheus.NewMiddleware("videotube"))

	// --- Dependencies ---
	tokens := service.TokenConfig{
		AccessSecret:  cfg.Token.AccessSecret,
		RefreshSecret: cfg.Token.RefreshSecret,
		AccessTTL:     cfg.Token.AccessTTL,
		RefreshTTL:    cfg.Token.RefreshTTL,
	}

	userRepo := mongodb.NewUserRepository(db)
	subRepo := mongodb.NewSubscriptionRepository(db)
	videoRepo := mongodb.NewVideoRepository(db)
	profileCache := redisdb.NewProfileCache(rdb)

	userService := service.NewUserService(userRepo, media, tokens, log)
	profileService := service.NewProfileService(userRepo, subRepo, videoRepo, media, profileCache, log)

	userHandler := handler.NewUserHandler(userService, cfg.Token.AccessTTL, cfg.Token.RefreshTTL)
	profileHandler := handler.NewProfileHandler(profileService)
	auth := middleware.Auth(tokens)

	// --- User & session routes ---
	users := e.Group("/api/v1/users")
	users.POST("/register", userHandler.Register)
	users.POST("/login", userHandler.Login)
	users.POST("/refresh-token", userHandler.RefreshToken)

	users.POST("/logout", userHandler.Logout, auth)
	users.POST("/change-password", userHandler.ChangePassword, auth)
	users.GET("/current-user", userHandler.CurrentUser, auth)
	users.PATCH("/update-account", userHandler.UpdateAccount, auth)
	users.PATCH("/avatar", userHandler.UpdateAvatar, auth)
	users.PATCH("/cover-image", userHandler.UpdateCoverImage, auth)
	users.GET("/c/:username", profileHandler.ChannelProfile, auth)
	users.GET("/history", profileHandler.WatchHistory, auth)

	// --- Subscription & video routes ---
	subs := e.Group("/api/v1/subscriptions", auth)
	subs.POST("/c/:username", profileHandler.ToggleSubscription)

	videos := e.Group("/api/v1/videos", auth)
	videos.POST("", profileHandler.PublishVideo)
	videos.POST("/:id/view", profileHandler.RecordWatch)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(db, rdb, media)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
