package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"

	"payops/docs"
	"payops/internal/config"
	"payops/internal/handler"
	"payops/internal/middleware"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Health        *handler.HealthHandler
	Invoice       *handler.InvoiceHandler
	Duplicate     *handler.DuplicateHandler
	Activity      *handler.ActivityHandler
	PortalRecord  *handler.PortalRecordHandler
	PortalUser    *handler.PortalUserHandler
	PaymentReport *handler.PaymentReportHandler
}

// Options carries the cross-cutting settings of the engine.
type Options struct {
	CORS       config.CORSConfig
	Production bool
	// UploadLimiter limits upload routes; nil disables limiting.
	UploadLimiter *limiter.Limiter
	Log           logrus.FieldLogger
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(h Handlers, opts Options) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(opts.Log))
	r.Use(middleware.CORS(opts.CORS, opts.Production))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	if !opts.Production {
		docs.SwaggerInfo.BasePath = "/api/v1"
		swagger := r.Group("/swagger")
		swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	upload := []gin.HandlerFunc{}
	download := []gin.HandlerFunc{}
	if opts.UploadLimiter != nil {
		upload = append(upload, middleware.RateLimit(opts.UploadLimiter))
		download = append(download, middleware.GinMiddlewarize(opts.UploadLimiter))
	}

	v1 := r.Group("/api/v1")

	// Invoices and exception resolution
	invoices := v1.Group("/invoices")
	invoices.GET("", h.Invoice.List)
	invoices.GET("/:id", h.Invoice.GetByID)
	invoices.GET("/:id/resolution", h.Invoice.GetResolution)
	invoices.POST("/:id/resolve", h.Invoice.Resolve)
	invoices.POST("/:id/resolve/pdf", append(upload, h.Invoice.UploadPDF)...)
	invoices.POST("/:id/duplicates/session", h.Duplicate.Start)

	// Notes and activity
	invoices.GET("/:id/notes", h.Activity.ListNotes)
	invoices.POST("/:id/notes", h.Activity.AddNote)
	invoices.POST("/:id/notes/:noteId/attachments", append(upload, h.Activity.AddAttachment)...)
	invoices.GET("/:id/activity", h.Activity.ListActivity)
	v1.GET("/attachments/:attachmentId/preview", h.Activity.PreviewAttachment)

	// Duplicate wizard
	dup := v1.Group("/duplicate-sessions")
	dup.GET("/:sid", h.Duplicate.Get)
	dup.DELETE("/:sid", h.Duplicate.Cancel)
	dup.POST("/:sid/toggle", h.Duplicate.Toggle)
	dup.POST("/:sid/choose", h.Duplicate.Choose)
	dup.POST("/:sid/compare", h.Duplicate.Compare)
	dup.POST("/:sid/keep", h.Duplicate.Keep)
	dup.POST("/:sid/back", h.Duplicate.Back)
	dup.POST("/:sid/confirm", h.Duplicate.Confirm)

	// Portal records
	records := v1.Group("/portal-records")
	records.GET("", h.PortalRecord.List)
	records.GET("/:id", h.PortalRecord.GetByID)
	records.POST("/:id/make-primary", h.PortalRecord.MakePrimary)
	records.POST("/:id/link", h.PortalRecord.Link)
	records.POST("/:id/unlink", h.PortalRecord.Unlink)
	v1.GET("/smart-connections", h.PortalRecord.SmartConnections)

	// Portal users
	users := v1.Group("/portal-users")
	users.GET("", h.PortalUser.List)
	users.POST("", h.PortalUser.Create)
	users.GET("/:id", h.PortalUser.GetByID)
	users.PUT("/:id", h.PortalUser.Update)
	users.DELETE("/:id", h.PortalUser.Delete)
	users.POST("/:id/revalidate", h.PortalUser.Revalidate)

	// Payment report import
	reports := v1.Group("/payment-reports")
	reports.GET("/template.csv", append(download, h.PaymentReport.TemplateCSV)...)
	reports.GET("/template.xlsx", append(download, h.PaymentReport.TemplateXLSX)...)
	reports.POST("/upload", append(upload, h.PaymentReport.Upload)...)
	reports.GET("/:sid", h.PaymentReport.Get)
	reports.DELETE("/:sid", h.PaymentReport.Cancel)
	reports.PUT("/:sid/mappings", h.PaymentReport.SetMappings)
	reports.GET("/:sid/review", h.PaymentReport.Review)
	reports.GET("/:sid/errors.csv", h.PaymentReport.ErrorReport)
	reports.POST("/:sid/import", h.PaymentReport.Import)

	return r
}
