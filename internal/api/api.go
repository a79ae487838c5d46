// Package api exposes the catalog over HTTP: search, manual tagging,
// deletion and upload intake.
package api

import (
	"io"
	"log"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/birdtag/birdtag-go/internal/catalog"
	"github.com/birdtag/birdtag-go/internal/conf"
	"github.com/birdtag/birdtag-go/internal/errors"
	"github.com/birdtag/birdtag-go/internal/ingest"
	"github.com/birdtag/birdtag-go/internal/logging"
	"github.com/birdtag/birdtag-go/internal/mutate"
	"github.com/birdtag/birdtag-go/internal/observability"
	"github.com/birdtag/birdtag-go/internal/query"
)

// OwnerHeader carries the uploading principal. Requests without it act as
// the unknown owner.
const OwnerHeader = "X-BirdTag-Owner"

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Settings *conf.Settings
	Query    *query.Engine
	Mutate   *mutate.Engine
	Intake   *ingest.Intake

	logger         *log.Logger
	apiLogger      *slog.Logger
	apiLoggerClose func() error
	metrics        *observability.Metrics
	startTime      time.Time
	version        string
}

// New creates the API controller and registers all routes on e.
func New(e *echo.Echo, settings *conf.Settings, queryEngine *query.Engine,
	mutateEngine *mutate.Engine, intake *ingest.Intake,
	metrics *observability.Metrics, logger *log.Logger, version string) *Controller {

	if logger == nil {
		logger = log.Default()
	}

	c := &Controller{
		Echo:      e,
		Settings:  settings,
		Query:     queryEngine,
		Mutate:    mutateEngine,
		Intake:    intake,
		logger:    logger,
		metrics:   metrics,
		startTime: time.Now(),
		version:   version,
	}

	c.apiLogger = slog.New(slog.NewJSONHandler(io.Discard, nil)).With("service", "api")
	c.apiLoggerClose = func() error { return nil }
	if settings.Main.Log.Enabled && settings.Main.Log.Path != "" {
		apiLogger, closeFunc, err := logging.NewFileLogger(settings.Main.Log.Path, "api", slog.LevelInfo)
		if err != nil {
			logger.Printf("Warning: failed to initialize API structured logger: %v", err)
		} else {
			c.apiLogger = apiLogger
			c.apiLoggerClose = closeFunc
		}
	}

	c.Group = e.Group("/api/v1")
	c.Group.Use(middleware.Recover())
	c.Group.Use(middleware.CORS())
	c.Group.Use(middleware.BodyLimit("64M")) // media uploads pass through here
	c.Group.Use(c.LoggingMiddleware())

	c.initRoutes()
	return c
}

// initRoutes registers all API endpoints.
func (c *Controller) initRoutes() {
	c.Group.GET("/status", c.Status)

	c.Group.GET("/search/tags", c.SearchTagsByParams)
	c.Group.POST("/search/tags", c.SearchTagsByBody)
	c.Group.POST("/search/species", c.SearchSpecies)
	c.Group.POST("/search/thumbnail", c.SearchByThumbnail)
	c.Group.POST("/search/file", c.SearchByFile)

	c.Group.POST("/tags", c.ApplyTags)
	c.Group.POST("/files/delete", c.DeleteFiles)
	c.Group.POST("/upload", c.Upload)

	if c.metrics != nil {
		c.Echo.GET("/metrics", echo.WrapHandler(c.metrics.Handler()))
	}
}

// Shutdown releases controller resources.
func (c *Controller) Shutdown() {
	if c.apiLoggerClose != nil {
		if err := c.apiLoggerClose(); err != nil {
			c.logger.Printf("Warning: failed to close API log file: %v", err)
		}
	}
}

// LoggingMiddleware creates a middleware function that logs API requests.
func (c *Controller) LoggingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)

			if c.apiLogger == nil {
				return err
			}

			req := ctx.Request()
			res := ctx.Response()
			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.String("query", req.URL.RawQuery),
				slog.Int("status", res.Status),
				slog.String("ip", ctx.RealIP()),
				slog.Int64("latency_ms", time.Since(start).Milliseconds()),
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}
			c.apiLogger.LogAttrs(req.Context(), slog.LevelInfo, "API Request", attrs...)
			return err
		}
	}
}

// ErrorResponse represents a standardized API error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse creates a new API error response with a correlation ID
// for log lookup.
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: uuid.NewString()[:8],
	}
}

// HandleError logs an error and returns it as a JSON response.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	errorResp := NewErrorResponse(err, message, code)

	c.logger.Printf("API Error [%s] from %s: %s: %v",
		errorResp.CorrelationID, ctx.RealIP(), message, err)
	if c.apiLogger != nil {
		c.apiLogger.Error("API Error",
			"correlation_id", errorResp.CorrelationID,
			"message", message,
			"error", errorResp.Error,
			"code", code,
			"path", ctx.Request().URL.Path,
			"method", ctx.Request().Method,
			"ip", ctx.RealIP())
	}

	return ctx.JSON(code, errorResp)
}

// handleDomainError maps error categories to HTTP status codes and responds.
func (c *Controller) handleDomainError(ctx echo.Context, err error, message string) error {
	code := http.StatusInternalServerError
	switch errors.CategoryOf(err) {
	case errors.CategoryValidation, errors.CategoryFileParsing, errors.CategoryImageProcessing:
		code = http.StatusBadRequest
	case errors.CategoryNotFound:
		code = http.StatusNotFound
	}
	return c.HandleError(ctx, err, message, code)
}

// ownerFromRequest extracts the requesting principal from the owner header.
func ownerFromRequest(ctx echo.Context) string {
	owner := strings.TrimSpace(ctx.Request().Header.Get(OwnerHeader))
	if owner == "" {
		return catalog.UnknownOwner
	}
	return owner
}

// StatusResponse reports service health for monitoring.
type StatusResponse struct {
	Status  string  `json:"status"`
	Version string  `json:"version"`
	Uptime  float64 `json:"uptime_seconds"`
}

// Status handles GET /api/v1/status.
func (c *Controller) Status(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, StatusResponse{
		Status:  "healthy",
		Version: c.version,
		Uptime:  time.Since(c.startTime).Seconds(),
	})
}
