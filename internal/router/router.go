package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/khairulanwar/clinic-api/internal/handler"
	appointmentHandler "github.com/khairulanwar/clinic-api/internal/handler/appointment"
	auditHandler "github.com/khairulanwar/clinic-api/internal/handler/audit"
	authHandler "github.com/khairulanwar/clinic-api/internal/handler/auth"
	doctorHandler "github.com/khairulanwar/clinic-api/internal/handler/doctor"
	patientHandler "github.com/khairulanwar/clinic-api/internal/handler/patient"
	"github.com/khairulanwar/clinic-api/internal/middleware"
	"github.com/khairulanwar/clinic-api/internal/model"
	"github.com/khairulanwar/clinic-api/pkg/metrics"
)

type Router struct {
	engine   *gin.Engine
	sessions *middleware.SessionMiddleware
	metrics  *metrics.Metrics
}

func NewRouter(sessions *middleware.SessionMiddleware, m *metrics.Metrics) *Router {
	gin.SetMode(gin.ReleaseMode)
	model.RegisterValidators()
	engine := gin.New()

	return &Router{
		engine:   engine,
		sessions: sessions,
		metrics:  m,
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Setup wires the middleware chain and all routes.
func (r *Router) Setup(
	authH *authHandler.Handler,
	appointmentH *appointmentHandler.Handler,
	patientH *patientHandler.Handler,
	doctorH *doctorHandler.Handler,
	auditH *auditHandler.Handler,
	healthH *handler.HealthHandler,
) {
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Logger())
	r.engine.Use(middleware.Recovery())
	r.engine.Use(r.observe())

	r.engine.GET("/health", healthH.Health)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	loginLimiter := middleware.NewLoginRateLimiter(rate.Every(time.Second), 5)

	api := r.engine.Group("/api/v1")
	authH.RegisterRoutes(api, r.sessions, loginLimiter.Limit())
	appointmentH.RegisterRoutes(api, r.sessions)
	patientH.RegisterRoutes(api, r.sessions)
	doctorH.RegisterRoutes(api, r.sessions)
	auditH.RegisterRoutes(api, r.sessions)
}

func (r *Router) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if r.metrics == nil {
			return
		}
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		r.metrics.RequestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		r.metrics.RequestDuration.WithLabelValues(c.Request.Method, path, status).
			Observe(time.Since(start).Seconds())
	}
}
