package router

import (
	"strings"
	"time"

	"github.com/anonto42/postboard/backend/internal/handlers"
	"github.com/anonto42/postboard/backend/internal/middleware"
	"github.com/anonto42/postboard/backend/internal/models"
	"github.com/anonto42/postboard/backend/internal/repositories"
	"github.com/anonto42/postboard/backend/internal/services"
	"github.com/anonto42/postboard/backend/pkg/storage"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// authBurst is how many auth requests a client may send back to back.
const authBurst = 10

// Deps are the collaborators the routes are built from.
type Deps struct {
	DB     *gorm.DB
	Images storage.ImageStore
	// FirebaseAuth is nil when federated login is disabled.
	FirebaseAuth handlers.IDTokenVerifier
	JWTSecret    string
	JWTTTL       time.Duration
	MediaURL     string
	FeedLimit    int
	// AuthRateLimit is the per-client request rate on /auth routes; zero disables it.
	AuthRateLimit float64
	Logger        log.FieldLogger
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, logger log.FieldLogger) {
	e.Use(eMiddleware.RequestLoggerWithConfig(eMiddleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v eMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(log.Fields{
				"method":    v.Method,
				"uri":       v.URI,
				"status":    v.Status,
				"latency":   v.Latency.String(),
				"remote_ip": v.RemoteIP,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	// Multipart overhead on top of the largest accepted image.
	e.Use(eMiddleware.BodyLimit("4M"))
	logger.Info("Global middleware configured.")
}

// SetupRoutes migrates the schema and configures all application routes.
func SetupRoutes(e *echo.Echo, deps Deps) error {
	if err := models.Migrate(deps.DB); err != nil {
		return err
	}
	deps.Logger.Info("Database migrations completed.")

	e.GET("/health", handlers.NewHealthHandler(deps.DB).HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(deps.DB)
	postRepo := repositories.NewPostgresPostRepository(deps.DB)
	likeRepo := repositories.NewPostgresLikeRepository(deps.DB)

	postService := services.NewPostService(postRepo, likeRepo, userRepo, deps.Images,
		services.WithLogger(deps.Logger),
		services.WithMediaURL(deps.MediaURL),
	)

	// Images are served by the API only when the store can read them back;
	// otherwise MediaURL points at the object store directly.
	if opener, ok := deps.Images.(storage.Opener); ok && strings.HasPrefix(deps.MediaURL, "/") {
		handlers.NewMediaHandler(opener).RegisterMediaRoutes(e, deps.MediaURL)
		deps.Logger.WithField("prefix", deps.MediaURL).Info("Media routes configured.")
	}

	api := e.Group("/api/v1")

	// --- Unprotected routes for authentication ---
	authHandler := handlers.NewAuthHandler(userRepo, deps.FirebaseAuth, deps.JWTSecret, deps.JWTTTL)
	authGroup := api.Group("/auth")
	if deps.AuthRateLimit > 0 {
		authGroup.Use(eMiddleware.RateLimiter(eMiddleware.NewRateLimiterMemoryStoreWithConfig(
			eMiddleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(deps.AuthRateLimit),
				Burst:     authBurst,
				ExpiresIn: 3 * time.Minute,
			},
		)))
	}
	authHandler.RegisterAuthRoutes(authGroup)

	// Auth is attached per route: group-level middleware would also answer
	// unknown /api/v1 paths with 401.
	optional := middleware.OptionalJWTAuthMiddleware(deps.JWTSecret)
	required := middleware.JWTAuthMiddleware(deps.JWTSecret)

	authHandler.RegisterProfileRoutes(api, required)
	handlers.NewPostHandler(postService).RegisterPostRoutes(api, optional, required)
	handlers.NewLikeHandler(postService).RegisterLikeRoutes(api, required)
	handlers.NewFeedHandler(postService, deps.FeedLimit).RegisterFeedRoutes(api, optional, required)

	deps.Logger.Info("All routes configured.")
	return nil
}
