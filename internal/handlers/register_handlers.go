package handlers

import (
	"log/slog"

	"github.com/prtsw/caseflow_backend/cmd/docs"
	portssvc "github.com/prtsw/caseflow_backend/internal/core/ports/services"
	"github.com/prtsw/caseflow_backend/internal/middleware"
	"github.com/prtsw/caseflow_backend/internal/platform/config"
	"github.com/prtsw/caseflow_backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	dbPool *pgxpool.Pool,
	posthogClient *utils.PosthogClientWrapper,
) {
	// Liveness and DB health probes
	registerHomeRoutes(r, dbPool)

	// Public auth endpoints, rate limited per client IP
	authPublic := r.Group("/api/v1/auth")
	if rl, err := middleware.NewAuthRateLimiter(cfg.AuthRateLimit); err != nil {
		slog.Warn("Invalid AUTH_RATE_LIMIT, auth endpoints run unthrottled", slog.String("value", cfg.AuthRateLimit))
	} else {
		authPublic.Use(middleware.RateLimit(rl))
	}
	registerGoogleOAuthRoutes(authPublic, cfg, services)

	// Protected API routes
	setupAPIV1Routes(r, cfg, services, posthogClient, authPublic)

	// Swagger routes (off in production)
	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	posthogClient *utils.PosthogClientWrapper,
	authPublic *gin.RouterGroup,
) {
	// API-token auth runs first so machine callers skip JWT parsing; everyone
	// else falls through to the JWT middleware.
	v1 := r.Group("/api/v1",
		middleware.APITokenAuth(services.APIToken),
		middleware.AuthMiddleware(cfg.JWTSecret),
		middleware.PosthogMiddleware(posthogClient),
	)

	// Logout lives under the protected group; the rest of auth is public.
	registerAuthRoutes(authPublic, v1.Group("/auth"), cfg, services.User, services.TokenService)

	RegisterCaseRoutes(v1, services.Case)
	registerCategoryRoutes(v1, services.Category)
	registerDocumentRoutes(v1, services.Document)
	registerUserRoutes(v1, services.User)
	registerAPITokenRoutes(v1, services.APIToken)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
