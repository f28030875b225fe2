package v1

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/carebase/carebase/internal/config"
	"github.com/carebase/carebase/internal/middleware"
	"github.com/carebase/carebase/pkg/metrics"
)

type Handlers struct {
	Patients      *PatientHandler
	Appointments  *AppointmentHandler
	Prescriptions *PrescriptionHandler
	Health        *HealthHandler
}

// NewRouter assembles the engine with the full middleware chain. Handler
// tests build it the same way main does.
func NewRouter(cfg *config.Config, log *zap.Logger, collector *metrics.Collector, h Handlers) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.Metrics(collector),
		middleware.Tracing(cfg.App.Name),
		middleware.RateLimit(cfg.RateLimit),
		middleware.CORS(cfg.CORS),
	)

	registerRoutes(r, h)
	return r
}

func registerRoutes(r *gin.Engine, h Handlers) {
	r.GET("/", h.Health.Info)
	r.GET("/health", h.Health.Info)
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := r.Group("/api")
	{
		patients := api.Group("/patients")
		{
			patients.POST("", h.Patients.Create)
			patients.GET("", h.Patients.List)
			patients.GET("/:id", h.Patients.Get)
			patients.PUT("/:id", h.Patients.Update)
			patients.DELETE("/:id", h.Patients.Delete)
		}

		appointments := api.Group("/appointments")
		{
			appointments.POST("", h.Appointments.Create)
			appointments.GET("", h.Appointments.List)
			appointments.GET("/:id", h.Appointments.Get)
			appointments.PUT("/:id", h.Appointments.Update)
			appointments.DELETE("/:id", h.Appointments.Delete)
		}

		prescriptions := api.Group("/prescriptions")
		{
			prescriptions.POST("", h.Prescriptions.Create)
			prescriptions.GET("", h.Prescriptions.List)
			prescriptions.GET("/:id", h.Prescriptions.Get)
			prescriptions.DELETE("/:id", h.Prescriptions.Delete)
		}
	}
}
