// Package router assembles the gin engine serving the transcript API.
package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-transcript-api/api/swagger"
	"github.com/noah-isme/sma-transcript-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-transcript-api/internal/middleware"
	"github.com/noah-isme/sma-transcript-api/internal/models"
	"github.com/noah-isme/sma-transcript-api/internal/service"
	"github.com/noah-isme/sma-transcript-api/pkg/config"
	"github.com/noah-isme/sma-transcript-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-transcript-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-transcript-api/pkg/middleware/requestid"
)

// Options carries the collaborators mounted on the engine.
type Options struct {
	Env            string
	APIPrefix      string
	AllowedOrigins []string

	Logger  *zap.Logger
	Metrics *service.MetricsService
	Tokens  internalmiddleware.TokenValidator

	Transcripts   *handler.TranscriptHandler
	Observability *handler.MetricsHandler
}

// New builds the engine with the shared middleware chain and all routes.
func New(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(opts.Metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	if opts.Observability != nil {
		r.GET("/health", opts.Observability.Health)
		r.GET("/ready", opts.Observability.Ready)
		r.GET("/metrics", opts.Observability.Prometheus)
	}

	if opts.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(opts.APIPrefix)
	api.Use(internalmiddleware.JWT(opts.Tokens))

	if h := opts.Transcripts; h != nil {
		staff := []models.UserRole{models.RoleAdmin, models.RoleRegistrar, models.RoleTeacher}
		readers := []string{string(models.RoleAdmin), string(models.RoleRegistrar), string(models.RoleTeacher), internalmiddleware.SelfAccess}

		students := api.Group("/students/:id/transcript")
		students.POST("/calculate",
			internalmiddleware.RequireRoles(staff...),
			internalmiddleware.Audit(opts.Logger, "transcript.calculate"),
			h.Calculate)
		students.GET("", internalmiddleware.RBAC(readers...), h.Get)
		students.GET("/export", internalmiddleware.RBAC(readers...), h.Export)

		api.POST("/transcripts/recalculate",
			internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleRegistrar),
			internalmiddleware.Audit(opts.Logger, "transcript.recalculate"),
			h.Recalculate)
	}

	return r
}
