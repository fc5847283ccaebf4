package main

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-request-workflow/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-request-workflow/internal/middleware"
	"github.com/noah-isme/sma-request-workflow/internal/models"
	"github.com/noah-isme/sma-request-workflow/internal/service"
	"github.com/noah-isme/sma-request-workflow/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-request-workflow/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-request-workflow/pkg/middleware/requestid"
)

type routerDeps struct {
	apiPrefix      string
	allowedOrigins []string
	requestTimeout time.Duration
	enableDocs     bool

	logger   *zap.Logger
	metrics  *service.MetricsService
	identity internalmiddleware.TokenValidator

	exams   *handler.ExamRequestHandler
	lessons *handler.LessonRequestHandler
	probes  *handler.MetricsHandler
}

func newRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(d.logger))
	r.Use(corsmiddleware.New(d.allowedOrigins))
	r.Use(internalmiddleware.Metrics(d.metrics))

	r.GET("/health", d.probes.Health)
	r.GET("/ready", d.probes.Ready)
	r.GET("/metrics", d.probes.Prometheus)
	if d.enableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(d.apiPrefix)
	api.Use(internalmiddleware.Timeout(d.requestTimeout))
	api.Use(internalmiddleware.JWT(d.identity))

	deciders := internalmiddleware.RequireRoles(models.RoleInstructor, models.RoleAdmin)
	students := internalmiddleware.RequireRoles(models.RoleStudent)

	exams := api.Group("/exam-requests")
	exams.POST("", students, d.exams.Create)
	exams.GET("", d.exams.List)
	exams.GET("/:id", d.exams.Get)
	exams.GET("/:id/history", d.exams.History)
	exams.PATCH("/:id", deciders, d.exams.Act)

	lessons := api.Group("/lesson-requests")
	lessons.POST("", students, d.lessons.Create)
	lessons.GET("", d.lessons.List)
	lessons.GET("/:id", d.lessons.Get)
	lessons.GET("/:id/history", d.lessons.History)
	lessons.PATCH("/:id", deciders, d.lessons.Act)

	return r
}
