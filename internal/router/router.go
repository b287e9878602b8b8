package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/madadental/clinic-api/internal/handler"
	appointmenthandler "github.com/madadental/clinic-api/internal/handler/appointment"
	authhandler "github.com/madadental/clinic-api/internal/handler/auth"
	patienthandler "github.com/madadental/clinic-api/internal/handler/patient"
	"github.com/madadental/clinic-api/internal/middleware"
)

type Config struct {
	RateLimit     rate.Limit
	RateBurst     int
	CORSConfig    middleware.CORSConfig
	MetricsPrefix string
	Maintenance   func() bool
}

type Router struct {
	engine       *gin.Engine
	auth         *middleware.AuthMiddleware
	authH        *authhandler.Handler
	patientH     *patienthandler.Handler
	appointmentH *appointmenthandler.Handler
	h            *handler.Handler
	maintenance  func() bool
	metrics      *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH *authhandler.Handler,
	patientH *patienthandler.Handler,
	appointmentH *appointmenthandler.Handler,
	h *handler.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	handler.RegisterValidators()
	engine := gin.New()

	r := &Router{
		engine:       engine,
		auth:         auth,
		authH:        authH,
		patientH:     patientH,
		appointmentH: appointmentH,
		h:            h,
		maintenance:  config.Maintenance,
		metrics:      initRouterMetrics(config.MetricsPrefix),
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
	)
	engine.Use(middleware.CORS(config.CORSConfig))

	rateLimiter := middleware.NewRateLimiter(config.RateLimit, config.RateBurst)
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	r.setupHealthCheck(api)

	// Public routes: the session endpoints.
	r.authH.RegisterRoutes(api)

	// Admin dashboard routes go dark under maintenance; sign-in stays
	// reachable so the flag can be observed and staff can authenticate.
	admin := api.Group("")
	if r.maintenance != nil {
		admin.Use(middleware.Maintenance(r.maintenance))
	}
	admin.Use(r.auth.RequireAdmin())
	{
		admin.GET("/patients", r.patientH.ListPatients)
		admin.POST("/patients", r.patientH.CreatePatient)
		admin.PATCH("/patients/:id", r.patientH.UpdatePatient)
		admin.DELETE("/patients/:id", r.patientH.DeletePatient)

		admin.GET("/appointments", r.appointmentH.ListAppointments)
		admin.POST("/appointments", r.appointmentH.CreateAppointment)
		admin.PATCH("/appointments/:id", r.appointmentH.UpdateAppointment)
	}

	// Record reads are shared: admins see everything, patients only their
	// own record.
	shared := api.Group("")
	shared.Use(r.auth.RequireAdminOrPatient())
	{
		shared.GET("/patients/:id", r.patientH.GetPatient)
	}
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
		health.GET("/metrics", r.h.MetricsHandler)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	m := &routerMetrics{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
	prometheus.MustRegister(m.requestDuration, m.requestTotal, m.errorTotal)
	return m
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}
